// Copyright © 2024 Meroxa, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package funnel

import (
	"context"
	"fmt"

	"github.com/conduitio/conduit-commons/config"
	"github.com/conduitio/datastream/pkg/foundation/cerrors"
)

// Section is the role of a component in a data stream.
type Section string

const (
	SectionReader      Section = "reader"
	SectionTransformer Section = "transformer"
	SectionWriter      Section = "writer"
)

// Descriptor identifies a component and its configuration.
type Descriptor struct {
	// Type is the name under which the component is registered.
	Type string `json:"type" yaml:"type"`
	// Name optionally identifies this instance in error messages and logs.
	Name     string        `json:"name,omitempty" yaml:"name"`
	Settings config.Config `json:"settings,omitempty" yaml:"settings"`
}

func (d Descriptor) String() string {
	if d.Name == "" || d.Name == d.Type {
		return d.Type
	}
	return fmt.Sprintf("%s(%s)", d.Name, d.Type)
}

// Resolver turns a descriptor into a live component. For SectionReader it
// returns a Reader, for SectionTransformer a Transformer and for
// SectionWriter a Writer.
type Resolver interface {
	Resolve(ctx context.Context, section Section, d Descriptor) (any, error)
}

// ResolverFunc adapts a function to a Resolver.
type ResolverFunc func(ctx context.Context, section Section, d Descriptor) (any, error)

func (f ResolverFunc) Resolve(ctx context.Context, section Section, d Descriptor) (any, error) {
	return f(ctx, section, d)
}

func resolve[T any](ctx context.Context, r Resolver, section Section, d Descriptor) (T, error) {
	var zero T
	c, err := r.Resolve(ctx, section, d)
	if err != nil {
		return zero, cerrors.Errorf("could not resolve %s %s: %w", section, d, err)
	}
	t, ok := c.(T)
	if !ok {
		return zero, cerrors.Errorf("%s %s: unexpected component type %T: %w", section, d, c, ErrInvalidComponent)
	}
	return t, nil
}

func resolveReader(ctx context.Context, r Resolver, d Descriptor) (Reader, error) {
	return resolve[Reader](ctx, r, SectionReader, d)
}

func resolveTransformer(ctx context.Context, r Resolver, d Descriptor) (Transformer, error) {
	return resolve[Transformer](ctx, r, SectionTransformer, d)
}

func resolveWriter(ctx context.Context, r Resolver, d Descriptor) (Writer, error) {
	return resolve[Writer](ctx, r, SectionWriter, d)
}
