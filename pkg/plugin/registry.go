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

package plugin

import (
	"context"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/conduitio/datastream/pkg/foundation/cerrors"
	"github.com/conduitio/datastream/pkg/foundation/database"
	"github.com/conduitio/datastream/pkg/foundation/log"
	"github.com/conduitio/datastream/pkg/foundation/multierror"
	"github.com/conduitio/datastream/pkg/funnel"
	"github.com/twmb/go-cache/cache"
)

// Registry is a funnel.Resolver backed by registered blueprints.
type Registry struct {
	logger log.CtxLogger
	deps   Dependencies

	m          sync.RWMutex
	blueprints map[funnel.Section]map[string]Blueprint

	// instances caches reusable components by descriptor
	instances *cache.Cache[string, any]

	closersM sync.Mutex
	closers  []io.Closer
}

var _ funnel.Resolver = (*Registry)(nil)

// NewRegistry creates an empty registry. Built components receive the logger
// and db as Dependencies.
func NewRegistry(logger log.CtxLogger, db database.DB) *Registry {
	return &Registry{
		logger:     logger.WithComponent("plugin.Registry"),
		deps:       Dependencies{Logger: logger, DB: db},
		blueprints: make(map[funnel.Section]map[string]Blueprint),
		instances:  cache.New[string, any](),
	}
}

// Register adds a blueprint to the registry. It fails if a blueprint with the
// same section and type is already registered.
func (r *Registry) Register(bp Blueprint) error {
	switch bp.Section {
	case funnel.SectionReader, funnel.SectionTransformer, funnel.SectionWriter:
	default:
		return cerrors.Errorf("invalid section %q for component %q", bp.Section, bp.Type)
	}
	if bp.Type == "" || bp.Build == nil {
		return cerrors.Errorf("%s blueprint needs a type and a builder", bp.Section)
	}

	r.m.Lock()
	defer r.m.Unlock()

	section := r.blueprints[bp.Section]
	if section == nil {
		section = make(map[string]Blueprint)
		r.blueprints[bp.Section] = section
	}
	if _, ok := section[bp.Type]; ok {
		return cerrors.Errorf("%s %q: %w", bp.Section, bp.Type, ErrDuplicateComponent)
	}
	section[bp.Type] = bp
	return nil
}

// MustRegister is like Register but panics on error. It is meant to be used
// while the application starts.
func (r *Registry) MustRegister(bps ...Blueprint) {
	for _, bp := range bps {
		if err := r.Register(bp); err != nil {
			panic(err)
		}
	}
}

// List returns the blueprints registered in section, sorted by type.
func (r *Registry) List(section funnel.Section) []Blueprint {
	r.m.RLock()
	defer r.m.RUnlock()

	types := slices.Sorted(maps.Keys(r.blueprints[section]))
	out := make([]Blueprint, len(types))
	for i, t := range types {
		out[i] = r.blueprints[section][t]
	}
	return out
}

// Resolve builds the component described by d, or returns the cached
// instance of a reusable component.
func (r *Registry) Resolve(ctx context.Context, section funnel.Section, d funnel.Descriptor) (any, error) {
	r.m.RLock()
	bp, ok := r.blueprints[section][d.Type]
	r.m.RUnlock()
	if !ok {
		return nil, cerrors.Errorf("%s %q: %w", section, d.Type, ErrUnknownComponent)
	}

	if !bp.Reusable {
		return r.build(ctx, bp, d)
	}

	logEvent := r.logger.Trace(ctx).Str(string(section), d.String())
	c, err, _ := r.instances.Get(instanceKey(section, d), func() (any, error) {
		logEvent.Msg("component cache miss")
		logEvent = nil // disable output for hit
		return r.build(ctx, bp, d)
	})
	if err != nil {
		return nil, err
	}
	logEvent.Msg("component cache hit")
	return c, nil
}

func (r *Registry) build(ctx context.Context, bp Blueprint, d funnel.Descriptor) (any, error) {
	deps := r.deps
	deps.Logger = deps.Logger.WithComponent(fmt.Sprintf("%s.%s", bp.Section, bp.Type))

	c, err := bp.Build(ctx, deps, d)
	if err != nil {
		return nil, cerrors.Errorf("could not build %s %s: %w", bp.Section, d, err)
	}
	if closer, ok := c.(io.Closer); ok {
		r.closersM.Lock()
		r.closers = append(r.closers, closer)
		r.closersM.Unlock()
	}
	return c, nil
}

// Close closes all built components that implement io.Closer. The registry
// must not be used after Close.
func (r *Registry) Close() error {
	r.closersM.Lock()
	closers := r.closers
	r.closers = nil
	r.closersM.Unlock()

	var errs error
	for _, c := range closers {
		if err := c.Close(); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	return errs
}

// instanceKey identifies a descriptor, settings are included in a stable
// order.
func instanceKey(section funnel.Section, d funnel.Descriptor) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s/%s/%s", section, d.Type, d.Name)
	for _, k := range slices.Sorted(maps.Keys(d.Settings)) {
		fmt.Fprintf(&sb, "\x00%s=%s", k, d.Settings[k])
	}
	return sb.String()
}
