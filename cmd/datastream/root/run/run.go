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

package run

import (
	"context"
	"time"

	"github.com/conduitio/datastream/cmd/datastream/internal"
	"github.com/conduitio/datastream/pkg/datastream"
	"github.com/conduitio/datastream/pkg/foundation/cerrors"
	"github.com/conduitio/ecdysis"
)

const closeTimeout = 30 * time.Second

var (
	_ ecdysis.CommandWithFlags   = (*RunCommand)(nil)
	_ ecdysis.CommandWithExecute = (*RunCommand)(nil)
	_ ecdysis.CommandWithDocs    = (*RunCommand)(nil)
	_ ecdysis.CommandWithOutput  = (*RunCommand)(nil)
)

// ErrFailures is returned if any entry failed or any batch was lost.
var ErrFailures = cerrors.New("pipelines finished with failures")

type RunFlags struct {
	datastream.Config
}

type RunCommand struct {
	flags  RunFlags
	output ecdysis.Output
}

func (c *RunCommand) Output(output ecdysis.Output) {
	c.output = output
}

func (c *RunCommand) Execute(ctx context.Context) error {
	if cmd := ecdysis.CobraCmdFromContext(ctx); cmd != nil {
		if err := internal.ApplyEnv(cmd.Flags(), datastream.EnvPrefix); err != nil {
			return err
		}
	}

	rt, err := datastream.NewRuntime(ctx, c.flags.Config)
	if err != nil {
		return cerrors.Errorf("failed to setup datastream runtime: %w", err)
	}
	defer func() {
		// ctx may already be canceled, give running batches a chance to finish
		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), closeTimeout)
		defer cancel()
		if cerr := rt.Close(closeCtx); cerr != nil {
			c.output.Stderr("error closing runtime: " + cerr.Error() + "\n")
		}
	}()

	defs, err := rt.ParsePipelines(ctx)
	if err != nil {
		return err
	}
	if len(defs) == 0 {
		c.output.Stdout("no pipelines defined in " + c.flags.Pipeline.Path + "\n")
		return nil
	}

	reports, err := rt.Run(ctx, defs)
	if len(reports) > 0 {
		c.output.Stdout(internal.ReportTable(reports) + "\n")
		if details := internal.FailureDetails(reports); details != "" {
			c.output.Stderr(details)
		}
	}
	if err != nil {
		return cerrors.Errorf("datastream runtime error: %w", err)
	}

	for _, rep := range reports {
		if rep.Err != nil || rep.Result.FailedCount > 0 || rep.Result.Incomplete() {
			return ErrFailures
		}
	}
	return nil
}

func (c *RunCommand) Usage() string { return "run" }

func (c *RunCommand) Flags() []ecdysis.Flag {
	flags := ecdysis.BuildFlags(&c.flags)

	cfg := datastream.DefaultConfig()
	flags.SetDefault("log.level", cfg.Log.Level)
	flags.SetDefault("log.format", cfg.Log.Format)
	flags.SetDefault("executor.workers", cfg.Executor.Workers)
	flags.SetDefault("executor.keep-results", cfg.Executor.KeepResults)
	flags.SetDefault("pipeline.path", cfg.Pipeline.Path)
	flags.SetDefault("pipeline.batch-size", cfg.Pipeline.BatchSize)
	flags.SetDefault("pipeline.async", cfg.Pipeline.Async)
	flags.SetDefault("backend.type", cfg.Backend.Type)
	flags.SetDefault("backend.badger.path", cfg.Backend.Badger.Path)
	flags.SetDefault("backend.sqlite.path", cfg.Backend.SQLite.Path)
	flags.SetDefault("backend.sqlite.table", cfg.Backend.SQLite.Table)
	flags.SetDefault("backend.postgres.connection-string", cfg.Backend.Postgres.ConnectionString)
	flags.SetDefault("backend.postgres.table", cfg.Backend.Postgres.Table)
	flags.SetDefault("backend.redis.url", cfg.Backend.Redis.URL)
	flags.SetDefault("backend.redis.namespace", cfg.Backend.Redis.Namespace)
	flags.SetDefault("metrics.address", cfg.Metrics.Address)
	return flags
}

func (c *RunCommand) Docs() ecdysis.Docs {
	return ecdysis.Docs{
		Short: "Run pipelines",
		Long: `Runs all pipelines defined in the pipeline file one after another and prints how many
entries succeeded, failed or were skipped. Every flag can also be set with an environment
variable prefixed with DATASTREAM_, e.g. DATASTREAM_LOG_LEVEL=debug.

The command exits with status 1 if any entry failed or any batch was lost.`,
		Example: "datastream run --pipeline.path pipeline.yaml --executor.workers 4",
	}
}
