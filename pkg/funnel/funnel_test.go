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
	"fmt"
	"sync"

	"github.com/conduitio/conduit-commons/opencdc"
	"github.com/conduitio/datastream/pkg/foundation/cerrors"
	"github.com/conduitio/datastream/pkg/funnel"
)

// testResolver resolves components by section and type.
type testResolver map[funnel.Section]map[string]any

func (r testResolver) Resolve(_ context.Context, s funnel.Section, d funnel.Descriptor) (any, error) {
	c, ok := r[s][d.Type]
	if !ok {
		return nil, cerrors.Errorf("unknown %s %q", s, d.Type)
	}
	return c, nil
}

func (r testResolver) with(s funnel.Section, typ string, c any) testResolver {
	if r[s] == nil {
		r[s] = make(map[string]any)
	}
	r[s][typ] = c
	return r
}

func testEntries(n int) []*funnel.Entry {
	entries := make([]*funnel.Entry, n)
	for i := range entries {
		entries[i] = funnel.NewEntry(
			opencdc.StructuredData{"id": fmt.Sprintf("e%d", i+1)},
			opencdc.Metadata{"source": "test"},
		)
	}
	return entries
}

func entryID(e *funnel.Entry) string {
	id, _ := e.Payload["id"].(string)
	return id
}

func entryIDs(entries []*funnel.Entry) []string {
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = entryID(e)
	}
	return ids
}

// recordingWriter is a per-entry writer that remembers written entry IDs.
type recordingWriter struct {
	m   sync.Mutex
	ids []string
}

func (w *recordingWriter) Mode() funnel.Mode { return funnel.ModePerEntry }
func (w *recordingWriter) Write(_ context.Context, e *funnel.Entry) error {
	w.m.Lock()
	defer w.m.Unlock()
	w.ids = append(w.ids, entryID(e))
	return nil
}

func (w *recordingWriter) WriteBatch(context.Context, []*funnel.Entry) error {
	return funnel.ErrUnsupportedMode
}

func (w *recordingWriter) written() []string {
	w.m.Lock()
	defer w.m.Unlock()
	return append([]string(nil), w.ids...)
}
