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

// Package tmp creates scoped temporary files that are removed on Close.
package tmp

import (
	"io"
	"os"
	"path/filepath"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/multierr"
)

// File is a temporary file.
//
// It must be closed when done.
type File interface {
	io.Closer

	AbsPath() string
	// ReadAll reads the current content of the file.
	ReadAll() ([]byte, error)
}

// NewFileWithData returns a new temporary file with the given data.
//
// The file name is a random uuid followed by suffix, so an editor can
// recognize the file type from the suffix.
func NewFileWithData(data []byte, suffix string) (File, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	file, err := os.CreateTemp("", id.String()+"-*"+suffix)
	if err != nil {
		return nil, err
	}
	path := file.Name()
	_, err = file.Write(data)
	err = multierr.Append(err, file.Close())
	if err != nil {
		return nil, multierr.Append(err, os.Remove(path))
	}
	// just in case
	absPath, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return nil, multierr.Append(err, os.Remove(path))
	}
	return newFile(absPath), nil
}

type file struct {
	absPath string
}

func newFile(absPath string) *file {
	return &file{
		absPath: absPath,
	}
}

func (f *file) AbsPath() string {
	return f.absPath
}

func (f *file) ReadAll() ([]byte, error) {
	return os.ReadFile(f.absPath)
}

func (f *file) Close() error {
	if err := os.Remove(f.absPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
