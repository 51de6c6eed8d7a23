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
	"testing"

	"github.com/matryer/is"
	"github.com/spf13/pflag"
)

func TestEnvName(t *testing.T) {
	is := is.New(t)
	is.Equal(EnvName("DATASTREAM", "backend.postgres.connection-string"), "DATASTREAM_BACKEND_POSTGRES_CONNECTION_STRING")
}

func TestApplyEnv(t *testing.T) {
	is := is.New(t)

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	level := fs.String("log.level", "info", "")
	workers := fs.Int("executor.workers", 0, "")
	async := fs.Bool("pipeline.async", true, "")
	is.NoErr(fs.Parse([]string{"--log.level=debug"}))

	t.Setenv("DATASTREAM_LOG_LEVEL", "trace")
	t.Setenv("DATASTREAM_EXECUTOR_WORKERS", "8")
	t.Setenv("DATASTREAM_PIPELINE_ASYNC", "false")

	is.NoErr(ApplyEnv(fs, "DATASTREAM"))
	is.Equal(*level, "debug") // flag wins
	is.Equal(*workers, 8)
	is.Equal(*async, false)
}

func TestApplyEnv_Invalid(t *testing.T) {
	is := is.New(t)

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.Int("executor.workers", 0, "")

	t.Setenv("DATASTREAM_EXECUTOR_WORKERS", "many")
	is.True(ApplyEnv(fs, "DATASTREAM") != nil)
}
