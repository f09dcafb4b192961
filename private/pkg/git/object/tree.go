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
	"fmt"
	"sort"
	"strconv"
)

const (
	// ModeUnknown is a mode's zero value.
	ModeUnknown FileMode = 0
	// ModeFile is a blob that should be written as a plain file.
	ModeFile FileMode = 010_0644
	// ModeExe is a blob that should be written with the executable bit set.
	ModeExe FileMode = 010_0755
	// ModeDir is a subtree.
	ModeDir FileMode = 004_0000
	// ModeSymlink is a blob with its content being the path linked to.
	ModeSymlink FileMode = 012_0000
	// ModeSubmodule is a commit that the submodule is checked out at.
	ModeSubmodule FileMode = 016_0000
)

// digestLength is the length, in bytes, of digests in object format SHA1. Each
// entry's digest in a tree object is this fixed length.
const digestLength = 20

// FileMode is how to interpret a tree entry's object.
type FileMode uint32

// Validate returns an error if the value is not a known value.
func (fm FileMode) Validate() error {
	switch fm {
	case ModeFile, ModeExe, ModeDir, ModeSymlink, ModeSubmodule:
		return nil
	default:
		return fmt.Errorf("unknown file mode: %o", uint32(fm))
	}
}

// ObjectType returns the type of object an entry with this mode points to.
func (fm FileMode) ObjectType() string {
	switch fm {
	case ModeDir:
		return "tree"
	case ModeSubmodule:
		return "commit"
	default:
		return "blob"
	}
}

// String returns the six digit octal form used by git mktree.
func (fm FileMode) String() string {
	return fmt.Sprintf("%06o", uint32(fm))
}

// UnmarshalText decodes the octal form of a file mode into one of the valid
// Mode* values.
func (fm *FileMode) UnmarshalText(txt []byte) error {
	mode, err := strconv.ParseUint(string(txt), 8, 32)
	if err != nil {
		return err
	}
	if err := FileMode(mode).Validate(); err != nil {
		return err
	}
	*fm = FileMode(mode)
	return nil
}

// Tree represents a git tree. Trees are a manifest of other git objects,
// including other trees.
type Tree struct {
	Entries []TreeEntry
}

// Find returns the entry with the given name.
func (t *Tree) Find(name string) (TreeEntry, bool) {
	for _, entry := range t.Entries {
		if entry.Name == name {
			return entry, true
		}
	}
	return TreeEntry{}, false
}

// UnmarshalBinary decodes a tree in binary form. An example binary tree would
// be the standard out of
//
//	$ git cat-file tree main
func (t *Tree) UnmarshalBinary(data []byte) error {
	t.Entries = nil
	for len(data) > 0 {
		i := bytes.IndexByte(data, 0)
		if i == -1 {
			return errors.New("malformed tree")
		}
		length := i + 1 + digestLength
		if length > len(data) {
			return errors.New("malformed tree: truncated digest")
		}
		var entry TreeEntry
		if err := entry.UnmarshalBinary(data[:length]); err != nil {
			return fmt.Errorf("malformed tree: %w", err)
		}
		t.Entries = append(t.Entries, entry)
		data = data[length:]
	}
	return nil
}

// MarshalMktree encodes the tree in the NUL-terminated form read by
//
//	$ git mktree -z
//
// Entries are written sorted by name. Duplicate names are an error.
func (t *Tree) MarshalMktree() ([]byte, error) {
	entries := make([]TreeEntry, len(t.Entries))
	copy(entries, t.Entries)
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})
	var buffer bytes.Buffer
	for i, entry := range entries {
		if i > 0 && entries[i-1].Name == entry.Name {
			return nil, fmt.Errorf("duplicate tree entry %q", entry.Name)
		}
		if err := entry.Mode.Validate(); err != nil {
			return nil, err
		}
		if entry.Name == "" || bytes.ContainsAny([]byte(entry.Name), "/\x00") {
			return nil, fmt.Errorf("invalid tree entry name %q", entry.Name)
		}
		fmt.Fprintf(&buffer, "%s %s %s\t%s\x00", entry.Mode, entry.Mode.ObjectType(), entry.ID, entry.Name)
	}
	return buffer.Bytes(), nil
}

// TreeEntry represents a single object described in a tree. These objects
// have a file mode associated with them, which hints at the type of object
// located at ID (tree or blob).
type TreeEntry struct {
	Name string
	Mode FileMode
	ID   ID
}

// UnmarshalBinary decodes one entry of a binary tree.
func (ent *TreeEntry) UnmarshalBinary(data []byte) error {
	modeAndName, hash, found := bytes.Cut(data, []byte{0})
	if !found {
		return errors.New("malformed entry")
	}
	if err := ent.ID.UnmarshalBinary(hash); err != nil {
		return fmt.Errorf("malformed entry: %w", err)
	}
	mode, name, found := bytes.Cut(modeAndName, []byte{' '})
	if !found {
		return errors.New("malformed entry")
	}
	ent.Name = string(name)
	return ent.Mode.UnmarshalText(mode)
}
