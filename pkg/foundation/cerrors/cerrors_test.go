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

package cerrors_test

import (
	"runtime"
	"strings"
	"testing"

	"github.com/conduitio/datastream/pkg/foundation/cerrors"
	"github.com/matryer/is"
)

type thirdPartyError struct{}

func (*thirdPartyError) Error() string { return "third party" }

type unwrapPanicError struct{}

func (*unwrapPanicError) Error() string { return "calling Unwrap() will panic" }
func (*unwrapPanicError) Unwrap() error { panic("you didn't expect this to happen") }

func newError() (error, int) {
	_, _, line, _ := runtime.Caller(0)
	return cerrors.New("foobar"), line + 1
}

func TestGetStackTrace_ThirdParty(t *testing.T) {
	is := is.New(t)

	is.Equal(cerrors.GetStackTrace(nil), []cerrors.Frame(nil))
	is.Equal(cerrors.GetStackTrace(&thirdPartyError{}), []cerrors.Frame(nil))
	// panics while unwrapping are swallowed
	is.Equal(cerrors.GetStackTrace(cerrors.Errorf("caused by: %w", &unwrapPanicError{})), nil)
}

func TestGetStackTrace_Frames(t *testing.T) {
	is := is.New(t)

	err, line := newError()
	wrapped := cerrors.Errorf("outer: %w", err)

	frames, ok := cerrors.GetStackTrace(wrapped).([]cerrors.Frame)
	is.True(ok)
	is.Equal(len(frames), 2)
	is.Equal(frames[0].Func, "github.com/conduitio/datastream/pkg/foundation/cerrors_test.TestGetStackTrace_Frames")
	is.Equal(frames[1].Func, "github.com/conduitio/datastream/pkg/foundation/cerrors_test.newError")
	is.Equal(frames[1].Line, line)
}

func TestStack(t *testing.T) {
	is := is.New(t)

	got := cerrors.Stack(0)
	is.True(strings.HasPrefix(got, "cerrors_test.TestStack (cerrors_test.go:"))
	is.True(!strings.Contains(got, "runtime."))
}

func TestErrorStack(t *testing.T) {
	is := is.New(t)

	is.Equal(cerrors.ErrorStack(&thirdPartyError{}), "")

	err, _ := newError()
	got := cerrors.ErrorStack(cerrors.Errorf("outer: %w", err))
	parts := strings.Split(got, " < ")
	is.Equal(len(parts), 2)
	is.True(strings.HasPrefix(parts[1], "cerrors_test.newError (cerrors_test.go:"))
}

func TestJoin(t *testing.T) {
	is := is.New(t)

	e1 := cerrors.New("first")
	e2 := &thirdPartyError{}
	err := cerrors.Join(e1, e2)

	is.True(cerrors.Is(err, e1))
	var tpe *thirdPartyError
	is.True(cerrors.As(err, &tpe))
}

func TestCallersStack(t *testing.T) {
	is := is.New(t)

	is.Equal(cerrors.CallersStack(nil), "")

	pc := make([]uintptr, 16)
	n := runtime.Callers(1, pc)
	got := cerrors.CallersStack(pc[:n])
	is.True(strings.HasPrefix(got, "cerrors_test.TestCallersStack (cerrors_test.go:"))
}
