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
	"context"

	"github.com/conduitio/datastream/cmd/datastream/internal"
	"github.com/conduitio/datastream/pkg/foundation/cerrors"
	"github.com/conduitio/datastream/pkg/foundation/log"
	"github.com/conduitio/datastream/pkg/funnel"
	"github.com/conduitio/datastream/pkg/plugin"
	"github.com/conduitio/datastream/pkg/plugin/builtin"
	"github.com/conduitio/ecdysis"
)

var (
	_ ecdysis.CommandWithExecute = (*ListCommand)(nil)
	_ ecdysis.CommandWithAliases = (*ListCommand)(nil)
	_ ecdysis.CommandWithDocs    = (*ListCommand)(nil)
	_ ecdysis.CommandWithArgs    = (*ListCommand)(nil)
	_ ecdysis.CommandWithOutput  = (*ListCommand)(nil)
)

type ListArgs struct {
	section funnel.Section
}

type ListCommand struct {
	args   ListArgs
	output ecdysis.Output
}

func (c *ListCommand) Output(output ecdysis.Output) {
	c.output = output
}

func (c *ListCommand) Usage() string { return "components [reader|transformer|writer]" }

func (c *ListCommand) Aliases() []string { return []string{"ls"} }

func (c *ListCommand) Docs() ecdysis.Docs {
	return ecdysis.Docs{
		Short:   "List built-in components",
		Long:    `Lists the readers, transformers and writers that can be used in pipeline files.`,
		Example: "datastream components\ndatastream components writer",
	}
}

func (c *ListCommand) Args(args []string) error {
	if len(args) > 1 {
		return cerrors.Errorf("too many arguments")
	}
	if len(args) == 1 {
		switch s := funnel.Section(args[0]); s {
		case funnel.SectionReader, funnel.SectionTransformer, funnel.SectionWriter:
			c.args.section = s
		default:
			return cerrors.Errorf("unknown section %q", args[0])
		}
	}
	return nil
}

func (c *ListCommand) Execute(context.Context) error {
	r := plugin.NewRegistry(log.Nop(), nil)
	if err := builtin.Register(r); err != nil {
		return err
	}

	sections := []funnel.Section{funnel.SectionReader, funnel.SectionTransformer, funnel.SectionWriter}
	if c.args.section != "" {
		sections = []funnel.Section{c.args.section}
	}
	c.output.Stdout(internal.ComponentsTable(r, sections...) + "\n")
	return nil
}
