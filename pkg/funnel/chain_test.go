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

package funnel_test

import (
	"context"
	"strings"
	"testing"

	"github.com/conduitio/datastream/pkg/foundation/cerrors"
	"github.com/conduitio/datastream/pkg/foundation/log"
	"github.com/conduitio/datastream/pkg/foundation/multierror"
	"github.com/conduitio/datastream/pkg/funnel"
	"github.com/conduitio/datastream/pkg/funnel/mock"
	"github.com/matryer/is"
	"go.uber.org/mock/gomock"
)

func newBatch(entries []*funnel.Entry) *funnel.Batch {
	return &funnel.Batch{ID: "batch-1", Entries: entries}
}

func TestChain_PerEntryTransformerError(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()

	tr := funnel.TransformerFunc(func(_ context.Context, e *funnel.Entry) (*funnel.Entry, error) {
		if entryID(e) == "e2" {
			return nil, cerrors.New("bad value")
		}
		e.Payload["seen"] = true
		return e, nil
	})
	w := &recordingWriter{}
	r := testResolver{}.
		with(funnel.SectionTransformer, "tr", tr).
		with(funnel.SectionWriter, "w", w)

	chain := funnel.NewChain(log.Test(t), r,
		[]funnel.Descriptor{{Type: "tr"}},
		[]funnel.Descriptor{{Type: "w"}},
		nil, nil)

	entries := testEntries(3)
	res, err := chain.Run(ctx, newBatch(entries))
	is.NoErr(err)

	is.Equal(res.OkCount, 2)
	is.Equal(res.FailedCount, 1)
	is.Equal(res.SkippedCount, 0)
	is.Equal(entryIDs(res.FailedEntries), []string{"e2"})
	is.Equal(w.written(), []string{"e1", "e3"})

	is.Equal(len(entries[1].Errors), 1)
	is.True(strings.HasPrefix(entries[1].Errors[0], "transformer tr error: bad value: "))
}

func TestChain_PerEntryTransformerPanic(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()

	tr := funnel.TransformerFunc(func(_ context.Context, e *funnel.Entry) (*funnel.Entry, error) {
		if entryID(e) == "e1" {
			panic("nil map")
		}
		return e, nil
	})
	r := testResolver{}.
		with(funnel.SectionTransformer, "tr", tr).
		with(funnel.SectionWriter, "w", &recordingWriter{})

	chain := funnel.NewChain(log.Test(t), r,
		[]funnel.Descriptor{{Type: "tr", Name: "panicky"}},
		[]funnel.Descriptor{{Type: "w"}},
		nil, nil)

	entries := testEntries(2)
	res, err := chain.Run(ctx, newBatch(entries))
	is.NoErr(err)
	is.Equal(res.OkCount, 1)
	is.Equal(res.FailedCount, 1)
	is.True(strings.HasPrefix(entries[0].Errors[0], "transformer panicky(tr) error: panic: nil map: "))
}

func TestChain_FailedEntriesSkipLaterTransformers(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()
	ctrl := gomock.NewController(t)

	first := funnel.TransformerFunc(func(_ context.Context, e *funnel.Entry) (*funnel.Entry, error) {
		if entryID(e) == "e1" {
			return nil, cerrors.New("first failed")
		}
		return e, nil
	})
	second := mock.NewTransformer(ctrl)
	second.EXPECT().Mode().Return(funnel.ModePerEntry).AnyTimes()
	// e1 already failed, only e2 reaches the second transformer
	second.EXPECT().Apply(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, e *funnel.Entry) (*funnel.Entry, error) {
			is.Equal(entryID(e), "e2")
			return e, nil
		}).Times(1)

	r := testResolver{}.
		with(funnel.SectionTransformer, "first", first).
		with(funnel.SectionTransformer, "second", second).
		with(funnel.SectionWriter, "w", &recordingWriter{})

	chain := funnel.NewChain(log.Test(t), r,
		[]funnel.Descriptor{{Type: "first"}, {Type: "second"}},
		[]funnel.Descriptor{{Type: "w"}},
		nil, nil)

	entries := testEntries(2)
	res, err := chain.Run(ctx, newBatch(entries))
	is.NoErr(err)
	is.Equal(res.FailedCount, 1)
	is.Equal(len(entries[0].Errors), 1)
}

func TestChain_FilteredEntriesAreSkipped(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()

	i := 0
	tr := funnel.TransformerFunc(func(_ context.Context, e *funnel.Entry) (*funnel.Entry, error) {
		i++
		e.Filtered = i%5 == 0
		return e, nil
	})
	w := &recordingWriter{}
	r := testResolver{}.
		with(funnel.SectionTransformer, "every5th", tr).
		with(funnel.SectionWriter, "w", w)

	chain := funnel.NewChain(log.Test(t), r,
		[]funnel.Descriptor{{Type: "every5th"}},
		[]funnel.Descriptor{{Type: "w"}},
		nil, nil)

	res, err := chain.Run(ctx, newBatch(testEntries(20)))
	is.NoErr(err)
	is.Equal(res.SkippedCount, 4)
	is.Equal(res.OkCount, 16)
	is.Equal(res.FailedCount, 0)
	is.Equal(len(w.written()), 16)
}

func TestChain_BatchTransformer(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()

	reverse := funnel.BatchTransformerFunc(func(_ context.Context, entries []*funnel.Entry) ([]*funnel.Entry, error) {
		out := make([]*funnel.Entry, 0, len(entries))
		for i := len(entries) - 1; i >= 0; i-- {
			out = append(out, entries[i])
		}
		return out, nil
	})
	w := &recordingWriter{}
	r := testResolver{}.
		with(funnel.SectionTransformer, "reverse", reverse).
		with(funnel.SectionWriter, "w", w)

	chain := funnel.NewChain(log.Test(t), r,
		[]funnel.Descriptor{{Type: "reverse"}},
		[]funnel.Descriptor{{Type: "w"}},
		nil, nil)

	res, err := chain.Run(ctx, newBatch(testEntries(3)))
	is.NoErr(err)
	is.Equal(res.OkCount, 3)
	is.Equal(w.written(), []string{"e3", "e2", "e1"})
}

func TestChain_BatchTransformerError(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()
	ctrl := gomock.NewController(t)

	failing := funnel.BatchTransformerFunc(func(context.Context, []*funnel.Entry) ([]*funnel.Entry, error) {
		return nil, cerrors.New("join failed")
	})
	// the write stage never runs
	w := mock.NewWriter(ctrl)
	success := mock.NewCallback(ctrl)

	r := testResolver{}.
		with(funnel.SectionTransformer, "join", failing).
		with(funnel.SectionWriter, "w", w)

	chain := funnel.NewChain(log.Test(t), r,
		[]funnel.Descriptor{{Type: "join"}},
		[]funnel.Descriptor{{Type: "w"}},
		success, nil)

	b := newBatch(testEntries(4))
	_, err := chain.Run(ctx, b)

	var ce *funnel.ChainError
	is.True(cerrors.As(err, &ce))
	is.Equal(ce.Stage, funnel.StageTransform)
	is.Equal(ce.Component, "join")
	is.Equal(ce.BatchID, b.ID)
	is.Equal(ce.BatchSize, 4)
	is.True(strings.Contains(ce.Error(), "join failed"))
}

func TestChain_UnknownComponent(t *testing.T) {
	is := is.New(t)

	chain := funnel.NewChain(log.Test(t), testResolver{},
		nil,
		[]funnel.Descriptor{{Type: "missing"}},
		nil, nil)

	_, err := chain.Run(context.Background(), newBatch(testEntries(1)))
	var ce *funnel.ChainError
	is.True(cerrors.As(err, &ce))
	is.Equal(ce.Stage, funnel.StageWrite)
}

func TestChain_InvalidComponent(t *testing.T) {
	is := is.New(t)

	// a reader registered as a writer
	r := testResolver{}.with(funnel.SectionWriter, "w", funnel.SliceReader())
	chain := funnel.NewChain(log.Test(t), r, nil, []funnel.Descriptor{{Type: "w"}}, nil, nil)

	_, err := chain.Run(context.Background(), newBatch(testEntries(1)))
	is.True(cerrors.Is(err, funnel.ErrInvalidComponent))
}

func TestChain_WriterFailsEveryEntry(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()
	ctrl := gomock.NewController(t)

	failing := funnel.WriterFunc(func(context.Context, *funnel.Entry) error {
		return funnel.NewWriterError(nil, cerrors.New("disk full"))
	})
	// no Write expectation, the later writer never sees failed entries
	later := mock.NewWriter(ctrl)
	later.EXPECT().Mode().Return(funnel.ModePerEntry).AnyTimes()

	errCb := mock.NewErrorCallback(ctrl)
	errCb.EXPECT().OnEntry(gomock.Any(), gomock.Any()).Return(nil).Times(3)

	r := testResolver{}.
		with(funnel.SectionWriter, "failing", failing).
		with(funnel.SectionWriter, "later", later)

	chain := funnel.NewChain(log.Test(t), r,
		nil,
		[]funnel.Descriptor{{Type: "failing", Name: "w1"}, {Type: "later"}},
		nil, errCb)

	entries := testEntries(3)
	res, err := chain.Run(ctx, newBatch(entries))
	is.NoErr(err)
	is.Equal(res.FailedCount, 3)
	is.Equal(res.OkCount, 0)
	for _, e := range entries {
		is.Equal(len(e.Errors), 1)
		is.True(strings.HasPrefix(e.Errors[0], "writer w1(failing) error: disk full: "))
	}
}

func TestChain_WriterNonWriterErrorLosesBatch(t *testing.T) {
	is := is.New(t)

	failing := funnel.WriterFunc(func(context.Context, *funnel.Entry) error {
		return cerrors.New("connection reset")
	})
	r := testResolver{}.with(funnel.SectionWriter, "w", failing)
	chain := funnel.NewChain(log.Test(t), r, nil, []funnel.Descriptor{{Type: "w"}}, nil, nil)

	_, err := chain.Run(context.Background(), newBatch(testEntries(2)))
	var ce *funnel.ChainError
	is.True(cerrors.As(err, &ce))
	is.Equal(ce.Stage, funnel.StageWrite)
}

func TestChain_BatchWriter(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()

	var got [][]string
	bw := funnel.BatchWriterFunc(func(_ context.Context, entries []*funnel.Entry) error {
		got = append(got, entryIDs(entries))
		// reject e3 only
		for _, e := range entries {
			if entryID(e) == "e3" {
				return multierror.Append(nil, funnel.NewWriterError(e, cerrors.New("duplicate key")))
			}
		}
		return nil
	})
	drop := funnel.TransformerFunc(func(_ context.Context, e *funnel.Entry) (*funnel.Entry, error) {
		e.Filtered = entryID(e) == "e2"
		return e, nil
	})
	w := &recordingWriter{}
	r := testResolver{}.
		with(funnel.SectionTransformer, "drop", drop).
		with(funnel.SectionWriter, "bulk", bw).
		with(funnel.SectionWriter, "w", w)

	chain := funnel.NewChain(log.Test(t), r,
		[]funnel.Descriptor{{Type: "drop"}},
		[]funnel.Descriptor{{Type: "bulk"}, {Type: "w"}},
		nil, nil)

	entries := testEntries(4)
	res, err := chain.Run(ctx, newBatch(entries))
	is.NoErr(err)

	is.Equal(got, [][]string{{"e1", "e3", "e4"}}) // filtered entry is not written
	is.Equal(w.written(), []string{"e1", "e4"})   // rejected entry is not passed on
	is.Equal(res.OkCount, 2)
	is.Equal(res.SkippedCount, 1)
	is.Equal(res.FailedCount, 1)
	is.True(strings.HasPrefix(entries[2].Errors[0], "writer bulk error: duplicate key: "))
}

func TestChain_BatchWriterCalledWhenNothingActive(t *testing.T) {
	is := is.New(t)
	ctrl := gomock.NewController(t)

	all := funnel.TransformerFunc(func(_ context.Context, e *funnel.Entry) (*funnel.Entry, error) {
		e.Filtered = true
		return e, nil
	})
	bw := mock.NewWriter(ctrl)
	bw.EXPECT().Mode().Return(funnel.ModeBatch).AnyTimes()
	bw.EXPECT().WriteBatch(gomock.Any(), gomock.Len(0)).Return(nil).Times(1)

	r := testResolver{}.
		with(funnel.SectionTransformer, "all", all).
		with(funnel.SectionWriter, "bulk", bw)
	chain := funnel.NewChain(log.Test(t), r,
		[]funnel.Descriptor{{Type: "all"}},
		[]funnel.Descriptor{{Type: "bulk"}},
		nil, nil)

	res, err := chain.Run(context.Background(), newBatch(testEntries(3)))
	is.NoErr(err)
	is.Equal(res.SkippedCount, 3)
}

func TestChain_BatchWriterForeignEntryLosesBatch(t *testing.T) {
	is := is.New(t)

	stranger := funnel.NewEntry(nil, nil)
	bw := funnel.BatchWriterFunc(func(context.Context, []*funnel.Entry) error {
		return funnel.NewWriterError(stranger, cerrors.New("?"))
	})
	r := testResolver{}.with(funnel.SectionWriter, "bulk", bw)
	chain := funnel.NewChain(log.Test(t), r, nil, []funnel.Descriptor{{Type: "bulk"}}, nil, nil)

	entries := testEntries(2)
	_, err := chain.Run(context.Background(), newBatch(entries))
	is.True(err != nil)
	is.Equal(len(entries[0].Errors), 0) // nothing recorded
}

func TestChain_CallbackErrorLosesBatch(t *testing.T) {
	is := is.New(t)
	ctrl := gomock.NewController(t)

	success := mock.NewCallback(ctrl)
	success.EXPECT().OnEntry(gomock.Any(), gomock.Any()).Return(cerrors.New("callback bug"))

	r := testResolver{}.with(funnel.SectionWriter, "w", &recordingWriter{})
	chain := funnel.NewChain(log.Test(t), r, nil, []funnel.Descriptor{{Type: "w"}}, success, nil)

	_, err := chain.Run(context.Background(), newBatch(testEntries(2)))
	var ce *funnel.ChainError
	is.True(cerrors.As(err, &ce))
	is.Equal(ce.Stage, funnel.StageOutcome)
}

func TestChain_StagePanicLosesBatch(t *testing.T) {
	is := is.New(t)

	bw := funnel.BatchWriterFunc(func(context.Context, []*funnel.Entry) error {
		panic("unexpected")
	})
	r := testResolver{}.with(funnel.SectionWriter, "bulk", bw)
	chain := funnel.NewChain(log.Test(t), r, nil, []funnel.Descriptor{{Type: "bulk"}}, nil, nil)

	_, err := chain.Run(context.Background(), newBatch(testEntries(2)))
	var ce *funnel.ChainError
	is.True(cerrors.As(err, &ce))
	is.True(strings.Contains(err.Error(), "unexpected"))
}

func TestChain_OutcomeIsIdempotent(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()

	i := 0
	tr := funnel.TransformerFunc(func(_ context.Context, e *funnel.Entry) (*funnel.Entry, error) {
		i++
		switch i % 3 {
		case 0:
			return nil, cerrors.New("every third")
		case 1:
			e.Filtered = true
		}
		return e, nil
	})
	r := testResolver{}.
		with(funnel.SectionTransformer, "tr", tr).
		with(funnel.SectionWriter, "w", &recordingWriter{})

	b := newBatch(testEntries(9))
	first, err := funnel.NewChain(log.Test(t), r,
		[]funnel.Descriptor{{Type: "tr"}},
		[]funnel.Descriptor{{Type: "w"}},
		nil, nil).Run(ctx, b)
	is.NoErr(err)

	// classify the same batch again, without transformers and writers
	outcomeOnly := funnel.NewChain(log.Test(t), r, nil, nil, nil, nil)
	second, err := outcomeOnly.Run(ctx, b)
	is.NoErr(err)

	is.Equal(first.OkCount, second.OkCount)
	is.Equal(first.FailedCount, second.FailedCount)
	is.Equal(first.SkippedCount, second.SkippedCount)
	is.Equal(first.FailedCount, 3)
	is.Equal(first.SkippedCount, 3)
}

func TestChain_HandleError(t *testing.T) {
	is := is.New(t)
	ctrl := gomock.NewController(t)

	b := newBatch(testEntries(5))
	errCb := mock.NewErrorCallback(ctrl)
	errCb.EXPECT().OnChainError(gomock.Any(), gomock.Any()).
		Do(func(_ context.Context, ce *funnel.ChainError) {
			is.Equal(ce.BatchID, b.ID)
			is.Equal(ce.BatchSize, 5)
		})

	chain := funnel.NewChain(log.Test(t), testResolver{}, nil, nil, nil, errCb)
	ce := chain.HandleError(context.Background(), b, cerrors.New("could not encode result"))
	is.Equal(ce.Stage, "")
	is.True(strings.Contains(ce.Error(), "lost in chain"))
}
