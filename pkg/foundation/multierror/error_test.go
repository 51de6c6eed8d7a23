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

package multierror_test

import (
	"testing"

	"github.com/conduitio/datastream/pkg/foundation/cerrors"
	"github.com/conduitio/datastream/pkg/foundation/multierror"
	"github.com/matryer/is"
)

func TestAppend_Nil(t *testing.T) {
	is := is.New(t)
	want := cerrors.New("test error")

	is.Equal(multierror.Append(nil, nil), nil)
	is.Equal(multierror.Append(nil, want), want)
	is.Equal(multierror.Append(want, nil), want)
}

func TestAppend_Errors(t *testing.T) {
	is := is.New(t)

	wantErrs := []error{
		cerrors.New("err 1"),
		cerrors.New("err 2"),
		cerrors.New("err 3"),
	}

	got := multierror.Append(nil, wantErrs...)
	got = multierror.Append(got, nil)

	var merr *multierror.Error
	is.True(cerrors.As(got, &merr))
	is.Equal(len(merr.Errors()), 3)
	for i, err := range merr.Errors() {
		is.Equal(err, wantErrs[i])
	}
	is.Equal(got.Error(), "err 1\nerr 2\nerr 3")
}

func TestAppend_Is(t *testing.T) {
	is := is.New(t)
	sentinel := cerrors.New("sentinel")

	got := multierror.Append(cerrors.New("other"), cerrors.Errorf("wrapped: %w", sentinel))
	is.True(cerrors.Is(got, sentinel))
}

func TestAppend_Flattens(t *testing.T) {
	is := is.New(t)

	e1, e2, e3 := cerrors.New("batch 1 lost"), cerrors.New("batch 2 lost"), cerrors.New("close failed")
	lost := multierror.Append(e1, e2)
	got := multierror.Append(lost, e3)

	var merr *multierror.Error
	is.True(cerrors.As(got, &merr))
	is.Equal(merr.Len(), 3)
	is.Equal(merr.Errors(), []error{e1, e2, e3})

	// appending to an existing error does not change it
	is.Equal(lost.(*multierror.Error).Len(), 2)
}
