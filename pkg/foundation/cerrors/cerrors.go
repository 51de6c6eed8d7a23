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

// Package cerrors is the only place where datastream creates errors.
//
// New and Errorf record the frame of their caller, GetStackTrace and
// ErrorStack turn those frames into log fields and entry error texts. Import
// this package instead of errors or xerrors.
package cerrors

import (
	"errors" //nolint:depguard // only allowed in this package
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/xerrors" //nolint:depguard // only allowed in this package
)

var (
	New    = xerrors.New    //nolint:forbidigo // only allowed in this package
	Errorf = xerrors.Errorf //nolint:forbidigo // only allowed in this package
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
)

// Frame is the location where an error was created.
type Frame struct {
	Func string `json:"func,omitempty"`
	File string `json:"file,omitempty"`
	Line int    `json:"line,omitempty"`
}

// GetStackTrace returns the frames recorded by New and Errorf along the chain
// of wrapped errors, outermost first. It is used as the stack marshaler of
// the logger and therefore never panics.
func GetStackTrace(err error) interface{} {
	defer func() { recover() }() //nolint:errcheck // a broken Unwrap must not take down logging

	var frames []Frame
	for w := err; w != nil; w = errors.Unwrap(w) {
		if fr, ok := frameOf(w); ok {
			frames = append(frames, fr)
		}
	}
	return frames
}

// frameOf extracts the frame of an error created by xerrors. xerrors only
// exposes it through FormatError in detail mode.
func frameOf(err error) (Frame, bool) {
	f, ok := err.(xerrors.Formatter)
	if !ok {
		return Frame{}, false
	}
	var p framePrinter
	f.FormatError(&p)
	return p.frame()
}

// framePrinter is a xerrors.Printer that records only the detail output,
// which is "<func>\n    <file>:<line>\n".
type framePrinter struct {
	detail bool
	sb     strings.Builder
}

func (p *framePrinter) Print(args ...interface{}) {
	if p.detail {
		fmt.Fprint(&p.sb, args...)
	}
}

func (p *framePrinter) Printf(format string, args ...interface{}) {
	if p.detail {
		fmt.Fprintf(&p.sb, format, args...)
	}
}

func (p *framePrinter) Detail() bool {
	p.detail = true
	return true
}

func (p *framePrinter) frame() (Frame, bool) {
	fn, loc, _ := strings.Cut(strings.TrimSpace(p.sb.String()), "\n")
	loc = strings.TrimSpace(loc)
	if fn == "" || loc == "" {
		return Frame{}, false
	}
	i := strings.LastIndexByte(loc, ':')
	if i < 0 {
		return Frame{}, false
	}
	line, err := strconv.Atoi(loc[i+1:])
	if err != nil {
		return Frame{}, false
	}
	return Frame{Func: fn, File: loc[:i], Line: line}, true
}
