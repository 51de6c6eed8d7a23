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

package root

import (
	"context"
	"fmt"

	"github.com/conduitio/datastream/cmd/datastream/root/components"
	"github.com/conduitio/datastream/cmd/datastream/root/run"
	"github.com/conduitio/datastream/cmd/datastream/root/version"
	"github.com/conduitio/datastream/pkg/datastream"
	"github.com/conduitio/ecdysis"
)

var (
	_ ecdysis.CommandWithFlags       = (*RootCommand)(nil)
	_ ecdysis.CommandWithExecute     = (*RootCommand)(nil)
	_ ecdysis.CommandWithDocs        = (*RootCommand)(nil)
	_ ecdysis.CommandWithSubCommands = (*RootCommand)(nil)
)

type RootFlags struct {
	Version bool `long:"version" short:"v" usage:"show current datastream version" persistent:"true"`
}

type RootCommand struct {
	flags RootFlags
}

func (c *RootCommand) Execute(context.Context) error {
	if c.flags.Version {
		fmt.Println(datastream.Version(true))
		return nil
	}
	return nil
}

func (c *RootCommand) Usage() string { return "datastream" }

func (c *RootCommand) Flags() []ecdysis.Flag {
	return ecdysis.BuildFlags(&c.flags)
}

func (c *RootCommand) Docs() ecdysis.Docs {
	return ecdysis.Docs{
		Short: "Datastream runs batch pipelines",
		Long: `Datastream reads entries from readers, groups them into batches and runs every batch
through transformers and writers. Failed entries are collected and reported.`,
	}
}

func (c *RootCommand) SubCommands() []ecdysis.Command {
	return []ecdysis.Command{
		&run.RunCommand{},
		&components.ListCommand{},
		&version.VersionCommand{},
	}
}
