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

//go:generate mockgen -destination=mock/funnel.go -package=mock -mock_names=Reader=Reader,Transformer=Transformer,Writer=Writer,Callback=Callback,ErrorCallback=ErrorCallback,Resolver=Resolver . Reader,Transformer,Writer,Callback,ErrorCallback,Resolver

package funnel

import (
	"context"
	"fmt"
	"iter"

	"github.com/conduitio/datastream/pkg/foundation/cerrors"
)

var (
	ErrInvalidComponent = cerrors.New("invalid component")
	ErrUnsupportedMode  = cerrors.New("unsupported mode")
)

// Mode tells a stage how to call a transformer or writer.
type Mode int

const (
	// ModePerEntry components are called once per entry, a failure only
	// affects that entry.
	ModePerEntry Mode = iota
	// ModeBatch components are called once with all entries of a batch, a
	// failure affects the whole batch.
	ModeBatch
)

func (m Mode) String() string {
	switch m {
	case ModePerEntry:
		return "per-entry"
	case ModeBatch:
		return "batch"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Reader produces the entries of a data stream. The sequence is finite and
// can only be iterated once. An error stops the iteration.
type Reader interface {
	Entries(ctx context.Context) iter.Seq2[*Entry, error]
}

// Transformer modifies entries. Depending on Mode either Apply or ApplyBatch
// is called, the other method is never used and may return
// ErrUnsupportedMode.
type Transformer interface {
	Mode() Mode
	// Apply transforms a single entry and returns it. It may modify the entry
	// in place. A returned error is recorded on the entry.
	Apply(ctx context.Context, e *Entry) (*Entry, error)
	// ApplyBatch transforms all entries of a batch and returns the entries
	// that replace the batch. An error fails the whole batch.
	ApplyBatch(ctx context.Context, entries []*Entry) ([]*Entry, error)
}

// Writer persists entries. Depending on Mode either Write or WriteBatch is
// called, the other method is never used and may return ErrUnsupportedMode.
//
// Errors that should be recorded on entries need to be returned as a
// *WriterError, any other error fails the whole batch.
type Writer interface {
	Mode() Mode
	Write(ctx context.Context, e *Entry) error
	// WriteBatch writes all active entries of a batch. It can report failed
	// entries by returning *WriterError values that reference the entry,
	// multiple errors can be combined with multierror.Append.
	WriteBatch(ctx context.Context, entries []*Entry) error
}

// WriterError is the error a writer returns if it could not write an entry.
// It is recorded on the entry instead of failing the batch.
type WriterError struct {
	// Entry is the entry that could not be written. It is only required
	// when returned from Writer.WriteBatch.
	Entry *Entry
	Err   error
}

// NewWriterError wraps err into a *WriterError for entry e. The entry can be
// nil if the error is returned from Writer.Write.
func NewWriterError(e *Entry, err error) *WriterError {
	return &WriterError{Entry: e, Err: err}
}

func (e *WriterError) Error() string {
	if e.Err == nil {
		return "writer error"
	}
	return e.Err.Error()
}

func (e *WriterError) Unwrap() error {
	return e.Err
}

// Callback is notified about every classified entry.
type Callback interface {
	OnEntry(ctx context.Context, e *Entry) error
}

// CallbackFunc is an adapter that allows a plain function to be used as a
// Callback.
type CallbackFunc func(ctx context.Context, e *Entry) error

func (f CallbackFunc) OnEntry(ctx context.Context, e *Entry) error {
	return f(ctx, e)
}

// ErrorCallback is notified about failed entries and about batches that were
// lost because a stage failed. OnChainError is called at most once per batch
// and never together with OnEntry for entries of the same batch run.
type ErrorCallback interface {
	Callback
	OnChainError(ctx context.Context, err *ChainError)
}

// ErrorCallbackFuncs is an ErrorCallback backed by functions. Nil functions are
// skipped.
type ErrorCallbackFuncs struct {
	Entry func(ctx context.Context, e *Entry) error
	Chain func(ctx context.Context, err *ChainError)
}

func (f ErrorCallbackFuncs) OnEntry(ctx context.Context, e *Entry) error {
	if f.Entry == nil {
		return nil
	}
	return f.Entry(ctx, e)
}

func (f ErrorCallbackFuncs) OnChainError(ctx context.Context, err *ChainError) {
	if f.Chain != nil {
		f.Chain(ctx, err)
	}
}

type noopCallback struct{}

func (noopCallback) OnEntry(context.Context, *Entry) error { return nil }
func (noopCallback) OnChainError(context.Context, *ChainError) {}

// TransformerFunc adapts a function to a per-entry Transformer.
type TransformerFunc func(ctx context.Context, e *Entry) (*Entry, error)

func (f TransformerFunc) Mode() Mode { return ModePerEntry }
func (f TransformerFunc) Apply(ctx context.Context, e *Entry) (*Entry, error) {
	return f(ctx, e)
}

func (f TransformerFunc) ApplyBatch(context.Context, []*Entry) ([]*Entry, error) {
	return nil, ErrUnsupportedMode
}

// BatchTransformerFunc adapts a function to a batch Transformer.
type BatchTransformerFunc func(ctx context.Context, entries []*Entry) ([]*Entry, error)

func (f BatchTransformerFunc) Mode() Mode { return ModeBatch }
func (f BatchTransformerFunc) Apply(context.Context, *Entry) (*Entry, error) {
	return nil, ErrUnsupportedMode
}

func (f BatchTransformerFunc) ApplyBatch(ctx context.Context, entries []*Entry) ([]*Entry, error) {
	return f(ctx, entries)
}

// WriterFunc adapts a function to a per-entry Writer.
type WriterFunc func(ctx context.Context, e *Entry) error

func (f WriterFunc) Mode() Mode { return ModePerEntry }
func (f WriterFunc) Write(ctx context.Context, e *Entry) error { return f(ctx, e) }
func (f WriterFunc) WriteBatch(context.Context, []*Entry) error { return ErrUnsupportedMode }

// BatchWriterFunc adapts a function to a batch Writer.
type BatchWriterFunc func(ctx context.Context, entries []*Entry) error

func (f BatchWriterFunc) Mode() Mode { return ModeBatch }
func (f BatchWriterFunc) Write(context.Context, *Entry) error { return ErrUnsupportedMode }
func (f BatchWriterFunc) WriteBatch(ctx context.Context, entries []*Entry) error {
	return f(ctx, entries)
}

// ReaderFunc adapts an iterator function to a Reader.
type ReaderFunc func(ctx context.Context) iter.Seq2[*Entry, error]

func (f ReaderFunc) Entries(ctx context.Context) iter.Seq2[*Entry, error] {
	return f(ctx)
}

// SliceReader returns a Reader that produces the given entries.
func SliceReader(entries ...*Entry) Reader {
	return ReaderFunc(func(ctx context.Context) iter.Seq2[*Entry, error] {
		return func(yield func(*Entry, error) bool) {
			for _, e := range entries {
				if err := ctx.Err(); err != nil {
					yield(nil, err)
					return
				}
				if !yield(e, nil) {
					return
				}
			}
		}
	})
}
