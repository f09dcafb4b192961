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

package git

import (
	"fmt"
	"io"
	"sync"

	"github.com/agtrack/ag/private/pkg/command"
	"github.com/agtrack/ag/private/pkg/git/object"
)

// objectReader serves reads from one git cat-file --batch process.
//
// The process is not safe for interleaved requests, so reads are serialized.
type objectReader struct {
	lock       sync.Mutex
	connection *catFileConnection
}

var _ ObjectReader = (*objectReader)(nil)

func newObjectReader(runner command.Runner, env map[string]string) (*objectReader, error) {
	rx, stdout := io.Pipe()
	stdin, tx := io.Pipe()
	process, err := runner.Start(
		gitCommand,
		command.StartWithArgs("cat-file", "--batch"),
		command.StartWithEnv(env),
		command.StartWithStdin(stdin),
		command.StartWithStdout(stdout),
	)
	if err != nil {
		return nil, fmt.Errorf("start git cat-file: %w", err)
	}
	return &objectReader{
		connection: newCatFileConnection(process, tx, rx, stdout),
	}, nil
}

func (r *objectReader) Commit(id object.ID) (*object.Commit, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.connection.Commit(id)
}

func (r *objectReader) Tree(id object.ID) (*object.Tree, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.connection.Tree(id)
}

func (r *objectReader) Blob(id object.ID) ([]byte, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.connection.Blob(id)
}

func (r *objectReader) close() error {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.connection.Close()
}
