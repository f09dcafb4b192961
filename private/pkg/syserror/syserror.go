// Copyright 2020-2024 Buf Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package syserror marks errors that indicate a bug or a broken invariant,
// as opposed to an expected failure caused by user input or repository state.
package syserror

import (
	"errors"
	"fmt"
)

// Error is a system error.
type Error struct {
	Underlying error
}

// Error implements error.
func (e *Error) Error() string {
	if e == nil || e.Underlying == nil {
		return ""
	}
	return "internal error: " + e.Underlying.Error()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Underlying
}

// New is errors.New as a system error.
func New(text string) *Error {
	return &Error{
		Underlying: errors.New(text),
	}
}

// Newf is fmt.Errorf as a system error.
func Newf(format string, args ...any) *Error {
	return &Error{
		Underlying: fmt.Errorf(format, args...),
	}
}

// Wrap marks err as a system error. Nil stays nil and system errors are
// returned unchanged.
func Wrap(err error) error {
	if err == nil || Is(err) {
		return err
	}
	return &Error{
		Underlying: err,
	}
}

// Is returns true if err is or wraps a system error.
func Is(err error) bool {
	_, ok := As(err)
	return ok
}

// As returns the system error in the chain of err.
func As(err error) (*Error, bool) {
	var target *Error
	ok := errors.As(err, &target)
	return target, ok
}
