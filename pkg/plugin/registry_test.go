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
	"sync/atomic"
	"testing"

	"github.com/conduitio/conduit-commons/config"
	"github.com/conduitio/datastream/pkg/foundation/cerrors"
	"github.com/conduitio/datastream/pkg/foundation/database/inmemory"
	"github.com/conduitio/datastream/pkg/foundation/log"
	"github.com/conduitio/datastream/pkg/funnel"
	"github.com/matryer/is"
)

type closingWriter struct {
	funnel.WriterFunc
	closed *atomic.Bool
}

func (w closingWriter) Close() error {
	w.closed.Store(true)
	return nil
}

func noopWriter() funnel.WriterFunc {
	return func(context.Context, *funnel.Entry) error { return nil }
}

func TestRegistry_Resolve(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()

	r := NewRegistry(log.Test(t), &inmemory.DB{})
	var built atomic.Int32
	r.MustRegister(Blueprint{
		Section: funnel.SectionWriter,
		Type:    "noop",
		Build: func(_ context.Context, deps Dependencies, d funnel.Descriptor) (any, error) {
			is.True(deps.DB != nil)
			built.Add(1)
			return noopWriter(), nil
		},
	})

	for range 3 {
		c, err := r.Resolve(ctx, funnel.SectionWriter, funnel.Descriptor{Type: "noop"})
		is.NoErr(err)
		_, ok := c.(funnel.Writer)
		is.True(ok)
	}
	is.Equal(built.Load(), int32(3)) // not reusable, built every time
}

func TestRegistry_Resolve_Reusable(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()

	r := NewRegistry(log.Test(t), nil)
	var built atomic.Int32
	r.MustRegister(Blueprint{
		Section:  funnel.SectionWriter,
		Type:     "shared",
		Reusable: true,
		Build: func(context.Context, Dependencies, funnel.Descriptor) (any, error) {
			built.Add(1)
			return noopWriter(), nil
		},
	})

	d1 := funnel.Descriptor{Type: "shared", Settings: config.Config{"a": "1"}}
	d2 := funnel.Descriptor{Type: "shared", Settings: config.Config{"a": "2"}}
	for range 3 {
		_, err := r.Resolve(ctx, funnel.SectionWriter, d1)
		is.NoErr(err)
		_, err = r.Resolve(ctx, funnel.SectionWriter, d2)
		is.NoErr(err)
	}
	is.Equal(built.Load(), int32(2)) // one instance per distinct descriptor
}

func TestRegistry_Resolve_Unknown(t *testing.T) {
	is := is.New(t)

	r := NewRegistry(log.Test(t), nil)
	r.MustRegister(Blueprint{
		Section: funnel.SectionReader,
		Type:    "x",
		Build:   func(context.Context, Dependencies, funnel.Descriptor) (any, error) { return nil, nil },
	})

	_, err := r.Resolve(context.Background(), funnel.SectionWriter, funnel.Descriptor{Type: "x"})
	is.True(cerrors.Is(err, ErrUnknownComponent))
}

func TestRegistry_Resolve_BuildError(t *testing.T) {
	is := is.New(t)

	wantErr := cerrors.New("missing setting")
	r := NewRegistry(log.Test(t), nil)
	r.MustRegister(Blueprint{
		Section:  funnel.SectionWriter,
		Type:     "broken",
		Reusable: true,
		Build: func(context.Context, Dependencies, funnel.Descriptor) (any, error) {
			return nil, wantErr
		},
	})

	_, err := r.Resolve(context.Background(), funnel.SectionWriter, funnel.Descriptor{Type: "broken"})
	is.True(cerrors.Is(err, wantErr))
}

func TestRegistry_Register_Invalid(t *testing.T) {
	is := is.New(t)
	build := func(context.Context, Dependencies, funnel.Descriptor) (any, error) { return nil, nil }

	r := NewRegistry(log.Nop(), nil)
	is.True(r.Register(Blueprint{Section: "sink", Type: "x", Build: build}) != nil)
	is.True(r.Register(Blueprint{Section: funnel.SectionWriter, Build: build}) != nil)
	is.True(r.Register(Blueprint{Section: funnel.SectionWriter, Type: "x"}) != nil)

	is.NoErr(r.Register(Blueprint{Section: funnel.SectionWriter, Type: "x", Build: build}))
	err := r.Register(Blueprint{Section: funnel.SectionWriter, Type: "x", Build: build})
	is.True(cerrors.Is(err, ErrDuplicateComponent))
}

func TestRegistry_List(t *testing.T) {
	is := is.New(t)
	build := func(context.Context, Dependencies, funnel.Descriptor) (any, error) { return nil, nil }

	r := NewRegistry(log.Nop(), nil)
	r.MustRegister(
		Blueprint{Section: funnel.SectionWriter, Type: "b", Build: build},
		Blueprint{Section: funnel.SectionWriter, Type: "a", Build: build},
		Blueprint{Section: funnel.SectionReader, Type: "c", Build: build},
	)

	got := r.List(funnel.SectionWriter)
	is.Equal(len(got), 2)
	is.Equal(got[0].Type, "a")
	is.Equal(got[1].Type, "b")
}

func TestRegistry_Close(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()

	var closed atomic.Bool
	r := NewRegistry(log.Test(t), nil)
	r.MustRegister(Blueprint{
		Section:  funnel.SectionWriter,
		Type:     "closing",
		Reusable: true,
		Build: func(context.Context, Dependencies, funnel.Descriptor) (any, error) {
			return closingWriter{WriterFunc: noopWriter(), closed: &closed}, nil
		},
	})

	_, err := r.Resolve(ctx, funnel.SectionWriter, funnel.Descriptor{Type: "closing"})
	is.NoErr(err)
	is.NoErr(r.Close())
	is.True(closed.Load())
}
