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
	"os"
	"strings"

	"github.com/conduitio/datastream/pkg/foundation/cerrors"
	"github.com/conduitio/datastream/pkg/foundation/multierror"
	"github.com/spf13/pflag"
)

var envReplacer = strings.NewReplacer(".", "_", "-", "_")

// EnvName returns the environment variable that overrides the flag, e.g.
// DATASTREAM_LOG_LEVEL for flag log.level with prefix DATASTREAM.
func EnvName(prefix, flag string) string {
	return strings.ToUpper(prefix + "_" + envReplacer.Replace(flag))
}

// ApplyEnv sets flags that were not set on the command line from environment
// variables.
func ApplyEnv(fs *pflag.FlagSet, prefix string) error {
	var errs error
	fs.VisitAll(func(f *pflag.Flag) {
		if f.Changed {
			return
		}
		key := EnvName(prefix, f.Name)
		v, ok := os.LookupEnv(key)
		if !ok {
			return
		}
		if err := fs.Set(f.Name, v); err != nil {
			errs = multierror.Append(errs, cerrors.Errorf("invalid value of %s: %w", key, err))
		}
	})
	return errs
}
