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

package badger

import (
	"strings"

	"github.com/rs/zerolog"
)

// logger adapts a zerolog.Logger to badger.Logger.
type logger zerolog.Logger

func (b logger) Errorf(s string, args ...interface{}) {
	b.log(zerolog.ErrorLevel, s, args)
}

func (b logger) Warningf(s string, args ...interface{}) {
	b.log(zerolog.WarnLevel, s, args)
}

func (b logger) Infof(s string, args ...interface{}) {
	// badger reports compactions and similar housekeeping on info
	b.log(zerolog.DebugLevel, s, args)
}

func (b logger) Debugf(s string, args ...interface{}) {
	b.log(zerolog.TraceLevel, s, args)
}

func (b logger) log(level zerolog.Level, s string, args []interface{}) {
	zl := zerolog.Logger(b)
	zl.WithLevel(level).Msgf(strings.TrimSuffix(s, "\n"), args...)
}
