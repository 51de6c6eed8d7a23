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

package datastream

import (
	"os"

	"github.com/conduitio/datastream/pkg/foundation/cerrors"
	"github.com/conduitio/datastream/pkg/foundation/database"
	"github.com/conduitio/datastream/pkg/foundation/log"
	"github.com/conduitio/datastream/pkg/funnel"
	"github.com/rs/zerolog"
)

const (
	BackendTypeBadger   = "badger"
	BackendTypePostgres = "postgres"
	BackendTypeInMemory = "inmemory"
	BackendTypeSQLite   = "sqlite"
	BackendTypeRedis    = "redis"
)

// EnvPrefix is the prefix of environment variables that override flags, e.g.
// DATASTREAM_LOG_LEVEL overrides --log.level.
const EnvPrefix = "DATASTREAM"

// Config holds all configurable values for datastream.
type Config struct {
	Log struct {
		Level  string `long:"log.level" usage:"sets logging level; accepts debug, info, warn, error, trace"`
		Format string `long:"log.format" usage:"sets the format of the logging; accepts json, cli"`
	}

	Executor struct {
		Workers     int  `long:"executor.workers" usage:"number of workers running batches, 0 means one per CPU"`
		KeepResults bool `long:"executor.keep-results" usage:"keep batch results in the result backend after they were aggregated"`
	}

	Pipeline struct {
		Path      string `long:"pipeline.path" usage:"path to the yaml file with pipeline definitions"`
		BatchSize int    `long:"pipeline.batch-size" usage:"default number of entries per batch, used if a pipeline doesn't define it"`
		Async     bool   `long:"pipeline.async" usage:"dispatch batches to the executor instead of processing them inline"`
	}

	Backend struct {
		// When Driver is specified it takes precedence over other backend
		// related fields.
		Driver database.DB

		Type   string `long:"backend.type" usage:"result backend type; accepts inmemory,badger,sqlite,postgres,redis"`
		Badger struct {
			Path string `long:"backend.badger.path" usage:"path to badger DB"`
		}
		SQLite struct {
			Path  string `long:"backend.sqlite.path" usage:"path to sqlite3 DB"`
			Table string `long:"backend.sqlite.table" usage:"sqlite3 table in which to store data (will be created if it does not exist)"`
		}
		Postgres struct {
			ConnectionString string `long:"backend.postgres.connection-string" usage:"postgres connection string, may be a database URL or in PostgreSQL keyword/value format"`
			Table            string `long:"backend.postgres.table" usage:"postgres table in which to store data (will be created if it does not exist)"`
		}
		Redis struct {
			URL       string `long:"backend.redis.url" usage:"redis URL, e.g. redis://localhost:6379/0"`
			Namespace string `long:"backend.redis.namespace" usage:"prefix of all keys stored in redis"`
		}
	}

	Metrics struct {
		Address string `long:"metrics.address" usage:"address for serving prometheus metrics, empty disables the endpoint"`
	}
}

func DefaultConfig() Config {
	var cfg Config
	cfg.Log.Level = "info"
	cfg.Log.Format = "cli"
	cfg.Executor.Workers = 0
	cfg.Pipeline.Path = "./pipeline.yaml"
	cfg.Pipeline.BatchSize = funnel.DefaultBatchSize
	cfg.Pipeline.Async = true
	cfg.Backend.Type = BackendTypeInMemory
	cfg.Backend.Badger.Path = "datastream.db"
	cfg.Backend.SQLite.Path = "datastream.sqlite"
	cfg.Backend.SQLite.Table = "datastream_kv_store"
	cfg.Backend.Postgres.Table = "datastream_kv_store"
	cfg.Backend.Redis.Namespace = "datastream"
	return cfg
}

func (c Config) Validate() error {
	if c.Backend.Driver == nil {
		switch c.Backend.Type {
		case BackendTypeBadger:
			if c.Backend.Badger.Path == "" {
				return requiredConfigFieldErr("backend.badger.path")
			}
		case BackendTypeSQLite:
			if c.Backend.SQLite.Path == "" {
				return requiredConfigFieldErr("backend.sqlite.path")
			}
			if c.Backend.SQLite.Table == "" {
				return requiredConfigFieldErr("backend.sqlite.table")
			}
		case BackendTypePostgres:
			if c.Backend.Postgres.ConnectionString == "" {
				return requiredConfigFieldErr("backend.postgres.connection-string")
			}
			if c.Backend.Postgres.Table == "" {
				return requiredConfigFieldErr("backend.postgres.table")
			}
		case BackendTypeRedis:
			if c.Backend.Redis.URL == "" {
				return requiredConfigFieldErr("backend.redis.url")
			}
		case BackendTypeInMemory:
			// all good
		default:
			return invalidConfigFieldErr("backend.type")
		}
	}

	if c.Log.Level == "" {
		return requiredConfigFieldErr("log.level")
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return invalidConfigFieldErr("log.level")
	}

	if c.Log.Format == "" {
		return requiredConfigFieldErr("log.format")
	}
	if _, err := log.ParseFormat(c.Log.Format); err != nil {
		return invalidConfigFieldErr("log.format")
	}

	if c.Executor.Workers < 0 {
		return invalidConfigFieldErr("executor.workers")
	}
	if c.Pipeline.BatchSize < 0 {
		return invalidConfigFieldErr("pipeline.batch-size")
	}

	if c.Pipeline.Path == "" {
		return requiredConfigFieldErr("pipeline.path")
	}
	if _, err := os.Stat(c.Pipeline.Path); err != nil {
		return invalidConfigFieldErr("pipeline.path")
	}

	return nil
}

func invalidConfigFieldErr(name string) error {
	return cerrors.Errorf("%q config value is invalid", name)
}

func requiredConfigFieldErr(name string) error {
	return cerrors.Errorf("%q config value is required", name)
}
