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

package components

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/conduitio/ecdysis"
	"github.com/matryer/is"
)

func TestListCommand(t *testing.T) {
	is := is.New(t)

	buf := new(bytes.Buffer)
	out := &ecdysis.DefaultOutput{}
	out.Output(buf, nil)

	cmd := &ListCommand{}
	cmd.Output(out)
	is.NoErr(cmd.Args([]string{"writer"}))
	is.NoErr(cmd.Execute(context.Background()))

	output := buf.String()
	for _, typ := range []string{"log", "jsonl", "kv", "redis", "clickhouse"} {
		is.True(strings.Contains(output, typ))
	}
	is.True(!strings.Contains(output, "generator"))
}

func TestListCommand_Args(t *testing.T) {
	is := is.New(t)

	cmd := &ListCommand{}
	is.NoErr(cmd.Args(nil))
	is.True(cmd.Args([]string{"processor"}) != nil)
	is.True(cmd.Args([]string{"reader", "writer"}) != nil)
}
