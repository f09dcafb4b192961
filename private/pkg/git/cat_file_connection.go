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
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/agtrack/ag/private/pkg/command"
	"github.com/agtrack/ag/private/pkg/git/object"
	"go.uber.org/multierr"
)

var exitTime = 5 * time.Second

type catFileConnection struct {
	process command.Process
	tx      io.WriteCloser
	rx      *bufio.Reader
	// stdout is the write side of rx, closed once the process exited.
	stdout io.Closer
	closed bool
}

func newCatFileConnection(
	process command.Process,
	tx io.WriteCloser,
	rx io.Reader,
	stdout io.Closer,
) *catFileConnection {
	return &catFileConnection{
		process: process,
		tx:      tx,
		rx:      bufio.NewReader(rx),
		stdout:  stdout,
	}
}

func (c *catFileConnection) Commit(id object.ID) (*object.Commit, error) {
	content, err := c.object("commit", id)
	if err != nil {
		return nil, err
	}
	var commit object.Commit
	if err := commit.UnmarshalText(content); err != nil {
		return nil, fmt.Errorf("commit %s: %w", id, err)
	}
	commit.ID = id
	return &commit, nil
}

func (c *catFileConnection) Tree(id object.ID) (*object.Tree, error) {
	content, err := c.object("tree", id)
	if err != nil {
		return nil, err
	}
	var tree object.Tree
	if err := tree.UnmarshalBinary(content); err != nil {
		return nil, fmt.Errorf("tree %s: %w", id, err)
	}
	return &tree, nil
}

func (c *catFileConnection) Blob(id object.ID) ([]byte, error) {
	return c.object("blob", id)
}

func (c *catFileConnection) object(typ string, id object.ID) ([]byte, error) {
	if c.closed {
		return nil, errors.New("git cat-file: connection closed")
	}
	if _, err := fmt.Fprintf(c.tx, "%s\n", id); err != nil {
		return nil, err
	}
	header, err := c.rx.ReadString('\n')
	if err != nil {
		return nil, err
	}
	header = strings.TrimRight(header, "\n")
	parts := strings.Split(header, " ")
	if len(parts) == 2 && parts[1] == "missing" {
		return nil, fmt.Errorf("git cat-file: %w: %s", ErrObjectNotFound, parts[0])
	}
	if len(parts) != 3 {
		return nil, fmt.Errorf("git cat-file: malformed header: %q", header)
	}
	objectType := parts[1]
	length, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return nil, err
	}
	content := make([]byte, length)
	if _, err := io.ReadFull(c.rx, content); err != nil {
		return nil, err
	}
	trailer, err := c.rx.ReadByte()
	if err != nil {
		return nil, err
	}
	if trailer != '\n' {
		return nil, errors.New("git cat-file: unexpected trailer")
	}
	// Checked after the response is consumed so the stream stays aligned.
	if objectType != typ {
		return nil, fmt.Errorf("git cat-file: object %s is a %s, not a %s", id, objectType, typ)
	}
	return content, nil
}

func (c *catFileConnection) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	ctx, cancel := context.WithTimeout(context.Background(), exitTime)
	defer cancel()
	return multierr.Combine(
		c.tx.Close(),
		c.process.Wait(ctx),
		c.stdout.Close(),
	)
}
