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

package internal

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/alexeyco/simpletable"
	"github.com/conduitio/datastream/pkg/datastream"
	"github.com/conduitio/datastream/pkg/funnel"
	"github.com/conduitio/datastream/pkg/plugin"
	"github.com/conduitio/datastream/pkg/plugin/builtin"
)

// maxListedFailures is the number of failed entries listed per pipeline.
const maxListedFailures = 20

// ReportTable renders the outcome of pipeline runs.
func ReportTable(reports []datastream.Report) string {
	table := simpletable.New()
	table.Header = &simpletable.Header{
		Cells: []*simpletable.Cell{
			{Align: simpletable.AlignCenter, Text: "PIPELINE"},
			{Align: simpletable.AlignCenter, Text: "OK"},
			{Align: simpletable.AlignCenter, Text: "FAILED"},
			{Align: simpletable.AlignCenter, Text: "SKIPPED"},
			{Align: simpletable.AlignCenter, Text: "LOST BATCHES"},
			{Align: simpletable.AlignCenter, Text: "LOST ENTRIES"},
			{Align: simpletable.AlignCenter, Text: "DURATION"},
		},
	}
	for _, rep := range reports {
		res := rep.Result
		table.Body.Cells = append(table.Body.Cells, []*simpletable.Cell{
			{Align: simpletable.AlignLeft, Text: rep.Pipeline},
			{Align: simpletable.AlignRight, Text: strconv.Itoa(res.OkCount)},
			{Align: simpletable.AlignRight, Text: strconv.Itoa(res.FailedCount)},
			{Align: simpletable.AlignRight, Text: strconv.Itoa(res.SkippedCount)},
			{Align: simpletable.AlignRight, Text: strconv.Itoa(res.LostBatches)},
			{Align: simpletable.AlignRight, Text: strconv.Itoa(res.LostEntries)},
			{Align: simpletable.AlignRight, Text: rep.Duration.Round(time.Millisecond).String()},
		})
	}
	table.SetStyle(simpletable.StyleDefault)
	return table.String()
}

// FailureDetails lists the failed entries and errors of all reports.
func FailureDetails(reports []datastream.Report) string {
	var sb strings.Builder
	for _, rep := range reports {
		failed := rep.Result.FailedEntries
		if len(failed) == 0 && rep.Err == nil {
			continue
		}
		fmt.Fprintf(&sb, "\n%s:\n", rep.Pipeline)
		for i, e := range failed {
			if i == maxListedFailures {
				fmt.Fprintf(&sb, "  ... and %d more failed entries\n", len(failed)-i)
				break
			}
			fmt.Fprintf(&sb, "  %s\n", entryLocation(e))
			for _, msg := range e.Errors {
				// the first line of a message, stacks are only logged
				first, _, _ := strings.Cut(msg, "\n")
				fmt.Fprintf(&sb, "    %s\n", first)
			}
		}
		if rep.Err != nil {
			for _, line := range strings.Split(rep.Err.Error(), "\n") {
				fmt.Fprintf(&sb, "  error: %s\n", line)
			}
		}
	}
	return sb.String()
}

func entryLocation(e *funnel.Entry) string {
	src, pos := e.Context[builtin.ContextSource], e.Context[builtin.ContextPosition]
	switch {
	case src != "" && pos != "":
		return src + ":" + pos
	case src != "":
		return src
	default:
		return "entry"
	}
}

// ComponentsTable renders the blueprints of the given sections.
func ComponentsTable(r *plugin.Registry, sections ...funnel.Section) string {
	table := simpletable.New()
	table.Header = &simpletable.Header{
		Cells: []*simpletable.Cell{
			{Align: simpletable.AlignCenter, Text: "SECTION"},
			{Align: simpletable.AlignCenter, Text: "TYPE"},
			{Align: simpletable.AlignCenter, Text: "SHARED"},
			{Align: simpletable.AlignCenter, Text: "SUMMARY"},
		},
	}
	for _, s := range sections {
		for _, bp := range r.List(s) {
			table.Body.Cells = append(table.Body.Cells, []*simpletable.Cell{
				{Align: simpletable.AlignLeft, Text: string(s)},
				{Align: simpletable.AlignLeft, Text: bp.Type},
				{Align: simpletable.AlignLeft, Text: strconv.FormatBool(bp.Reusable)},
				{Align: simpletable.AlignLeft, Text: bp.Summary},
			})
		}
	}
	table.SetStyle(simpletable.StyleCompact)
	return table.String()
}
