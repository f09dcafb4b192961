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

package object

import (
	"bytes"
	"errors"
	"io"
	"strings"
)

// Commit represents a commit object. A valid object will have a Tree.
type Commit struct {
	// ID is the id the commit was read under. It is not part of the encoded
	// object and is set by readers.
	ID        ID
	Tree      ID
	Parents   []ID
	Author    Ident
	Committer Ident
	Message   string
}

// Subject returns the first line of the message.
func (c *Commit) Subject() string {
	subject, _, _ := strings.Cut(c.Message, "\n")
	return strings.TrimSpace(subject)
}

// FirstParent returns the first parent, or the empty id for a root commit.
func (c *Commit) FirstParent() ID {
	if len(c.Parents) == 0 {
		return ""
	}
	return c.Parents[0]
}

// UnmarshalText decodes the text form of a commit, as printed by
//
//	$ git cat-file commit main
func (c *Commit) UnmarshalText(data []byte) error {
	c.Tree = ""
	c.Parents = nil
	buffer := bytes.NewBuffer(data)
	line, err := buffer.ReadString('\n')
	for err != io.EOF && line != "\n" {
		header, value, _ := strings.Cut(line, " ")
		value = strings.TrimRight(value, "\n")
		if err := c.unmarshalHeader(header, value); err != nil {
			return err
		}
		line, err = buffer.ReadString('\n')
	}
	if c.Tree == "" {
		return errors.New("commit: missing tree header")
	}
	c.Message = buffer.String()
	return nil
}

func (c *Commit) unmarshalHeader(header, value string) error {
	switch header {
	case "tree":
		if c.Tree != "" {
			return errors.New("commit: too many tree headers")
		}
		return c.Tree.UnmarshalText([]byte(value))
	case "parent":
		var parent ID
		if err := parent.UnmarshalText([]byte(value)); err != nil {
			return err
		}
		c.Parents = append(c.Parents, parent)
	case "author":
		return c.Author.UnmarshalText([]byte(value))
	case "committer":
		return c.Committer.UnmarshalText([]byte(value))
	}
	// gpgsig, mergetag, encoding and continuation lines are not needed.
	return nil
}
