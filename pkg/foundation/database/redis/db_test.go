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

package redis

import (
	"testing"

	"github.com/matryer/is"
)

func TestEscapePattern(t *testing.T) {
	is := is.New(t)

	is.Equal(escapePattern("datastream:job:"), "datastream:job:")
	is.Equal(escapePattern("k_y%"), "k_y%")
	is.Equal(escapePattern("a*b?c[d]"), `a\*b\?c\[d\]`)
	is.Equal(escapePattern(`back\slash`), `back\\slash`)
}
