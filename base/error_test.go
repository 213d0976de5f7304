// Copyright 2026 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package base

import (
	"os"
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
)

func TestErrorTypes(t *testing.T) {
	err := DataLoadf("line %d: invalid rating", 3)
	assert.True(t, errors.Is(err, ErrDataLoad))
	assert.False(t, errors.Is(err, ErrInsufficientData))
	assert.Contains(t, err.Error(), "line 3: invalid rating")
	assert.True(t, errors.Is(errors.Trace(err), ErrDataLoad))

	err = InsufficientDataf("user %d has no ratings", 1)
	assert.True(t, errors.Is(err, ErrInsufficientData))
	assert.False(t, errors.Is(err, ErrDataLoad))
}

func TestValidatePositive(t *testing.T) {
	assert.NoError(t, ValidatePositive("k", 1))
	err := ValidatePositive("k", 0)
	assert.True(t, errors.Is(err, errors.NotValid))
	assert.Equal(t, "k must be positive, but got 0", err.Error())
	assert.True(t, errors.Is(ValidatePositive("k", -1), errors.NotValid))
}

func TestAnnotateDataLoad(t *testing.T) {
	_, cause := os.Open("not_exist.csv")
	err := AnnotateDataLoad(cause, "open %s", "not_exist.csv")
	assert.True(t, errors.Is(err, ErrDataLoad))
	assert.True(t, errors.Is(err, os.ErrNotExist))
	assert.Contains(t, err.Error(), "open not_exist.csv")
}
