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

// Package multierror collects errors of independent operations, e.g. lost
// batches or components failing to close, into one error value.
package multierror

import "strings"

// Error holds two or more errors. Its message lists one error per line.
type Error struct {
	errs []error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msgs := make([]string, len(e.errs))
	for i, err := range e.errs {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "\n")
}

// Errors returns the collected errors in the order they were appended.
func (e *Error) Errors() []error {
	return e.errs
}

// Len returns the number of collected errors.
func (e *Error) Len() int {
	if e == nil {
		return 0
	}
	return len(e.errs)
}

// Unwrap lets cerrors.Is and cerrors.As look at every collected error.
func (e *Error) Unwrap() []error {
	return e.errs
}

// Append adds errs to err and skips nil errors. The result is nil if all
// errors are nil and the error itself if only one is left, otherwise it is an
// *Error. Appending an *Error adds its errors instead of nesting it.
func Append(err error, errs ...error) error {
	var all []error
	for _, e := range append([]error{err}, errs...) {
		switch e := e.(type) {
		case nil:
		case *Error:
			if e != nil {
				all = append(all, e.errs...)
			}
		default:
			all = append(all, e)
		}
	}

	switch len(all) {
	case 0:
		return nil
	case 1:
		return all[0]
	}
	return &Error{errs: all}
}
