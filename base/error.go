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
	"fmt"

	"github.com/juju/errors"
)

const (
	// ErrDataLoad is returned when an input file is missing or malformed.
	ErrDataLoad = errors.ConstError("data load failed")
	// ErrInsufficientData is returned when a target user has no ratings or shares
	// no rated movie with any other user.
	ErrInsufficientData = errors.ConstError("insufficient data")
)

// DataLoadf creates an error of type ErrDataLoad.
func DataLoadf(format string, args ...any) error {
	return errors.WithType(errors.Errorf(format, args...), ErrDataLoad)
}

// InsufficientDataf creates an error of type ErrInsufficientData.
func InsufficientDataf(format string, args ...any) error {
	return errors.WithType(errors.Errorf(format, args...), ErrInsufficientData)
}

// ValidatePositive returns a NotValid error if val is not positive.
func ValidatePositive(name string, val int) error {
	if val <= 0 {
		return errors.NewNotValid(nil, fmt.Sprintf("%s must be positive, but got %d", name, val))
	}
	return nil
}

// AnnotateDataLoad annotates err and marks it as ErrDataLoad.
func AnnotateDataLoad(err error, format string, args ...any) error {
	return errors.WithType(errors.Annotatef(err, format, args...), ErrDataLoad)
}
