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

package cerrors

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
)

// maxStackDepth limits the number of frames rendered by Stack.
const maxStackDepth = 8

// Stack returns a short, single line rendering of the current call stack,
// skipping the caller of Stack and skip additional frames. Frames are
// rendered innermost first and separated with " < ".
func Stack(skip int) string {
	pc := make([]uintptr, maxStackDepth)
	n := runtime.Callers(skip+2, pc)
	if n == 0 {
		return ""
	}
	return formatFrames(runtime.CallersFrames(pc[:n]))
}

// ErrorStack renders the frames recorded in err and the errors it wraps in
// the same format as Stack. If err carries no frames it returns an empty
// string.
func ErrorStack(err error) string {
	frames, _ := GetStackTrace(err).([]Frame)
	parts := make([]string, 0, len(frames))
	for _, f := range frames {
		parts = append(parts, formatFrame(f.Func, f.File, f.Line))
	}
	return strings.Join(parts, " < ")
}

// CallersStack renders program counters as returned by runtime.Callers in the
// same format as Stack.
func CallersStack(pc []uintptr) string {
	if len(pc) == 0 {
		return ""
	}
	if len(pc) > maxStackDepth {
		pc = pc[:maxStackDepth]
	}
	return formatFrames(runtime.CallersFrames(pc))
}

func formatFrames(frames *runtime.Frames) string {
	var sb strings.Builder
	for {
		fr, more := frames.Next()
		if fr.Function != "" && !strings.HasPrefix(fr.Function, "runtime.") {
			if sb.Len() > 0 {
				sb.WriteString(" < ")
			}
			sb.WriteString(formatFrame(fr.Function, fr.File, fr.Line))
		}
		if !more {
			break
		}
	}
	return sb.String()
}

func formatFrame(fn, file string, line int) string {
	if i := strings.LastIndex(fn, "/"); i >= 0 {
		fn = fn[i+1:]
	}
	return fmt.Sprintf("%s (%s:%d)", fn, filepath.Base(file), line)
}
