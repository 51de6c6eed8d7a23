// Copyright © 2022 Meroxa, Inc.
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

// Package plugin resolves component descriptors into live readers,
// transformers and writers. Components are registered as builders keyed by
// section and type, the built-in components are registered by package
// plugin/builtin.
package plugin

import (
	"context"

	"github.com/conduitio/datastream/pkg/foundation/cerrors"
	"github.com/conduitio/datastream/pkg/foundation/database"
	"github.com/conduitio/datastream/pkg/foundation/log"
	"github.com/conduitio/datastream/pkg/funnel"
)

var (
	ErrUnknownComponent   = cerrors.New("unknown component")
	ErrDuplicateComponent = cerrors.New("component already registered")
)

// Dependencies are shared with every built component.
type Dependencies struct {
	Logger log.CtxLogger
	// DB is the key-value store of the runtime, it's also used as the result
	// backend of the executor.
	DB database.DB
}

// Builder creates a component from its descriptor. The returned value needs to
// implement funnel.Reader, funnel.Transformer or funnel.Writer, depending on
// the section it is registered in. If it implements io.Closer it is closed
// when the registry is closed.
type Builder func(ctx context.Context, deps Dependencies, d funnel.Descriptor) (any, error)

// Blueprint describes a component that can be registered in a Registry.
type Blueprint struct {
	Section funnel.Section
	Type    string
	// Summary is a one line description shown by the CLI.
	Summary string
	Build   Builder
	// Reusable components are built once per descriptor and shared by all
	// batches, they need to be safe for concurrent use. Other components are
	// built every time they are resolved.
	Reusable bool
}
