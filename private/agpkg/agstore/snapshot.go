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

package agstore

import (
	"sort"

	"github.com/agtrack/ag/private/agpkg/agid"
	"github.com/agtrack/ag/private/agpkg/agrecord"
	"github.com/agtrack/ag/private/pkg/git/object"
)

// snapshot is the set of records stored in one commit.
type snapshot struct {
	commit  *object.Commit
	root    *object.Tree
	entries map[string]snapshotEntry
}

type snapshotEntry struct {
	recordType agrecord.Type
	blobID     object.ID
}

func readSnapshot(cache *objectCache, commit *object.Commit) (*snapshot, error) {
	root, err := cache.Tree(commit.Tree)
	if err != nil {
		return nil, err
	}
	snapshot := &snapshot{
		commit:  commit,
		root:    root,
		entries: make(map[string]snapshotEntry),
	}
	for _, recordType := range agrecord.AllTypes() {
		subtree, err := readSubtree(cache, root, recordType)
		if err != nil {
			return nil, err
		}
		if subtree == nil {
			continue
		}
		for _, entry := range subtree.Entries {
			if entry.Mode != object.ModeFile || !agid.IsValid(entry.Name) {
				continue
			}
			// An id stored under both types is read as the first type.
			if _, ok := snapshot.entries[entry.Name]; ok {
				continue
			}
			snapshot.entries[entry.Name] = snapshotEntry{
				recordType: recordType,
				blobID:     entry.ID,
			}
		}
	}
	return snapshot, nil
}

// readSubtree returns the tree records of recordType are stored in, or nil
// if there are none.
func readSubtree(cache *objectCache, root *object.Tree, recordType agrecord.Type) (*object.Tree, error) {
	if root == nil {
		return nil, nil
	}
	entry, ok := root.Find(recordType.String())
	if !ok || entry.Mode != object.ModeDir {
		return nil, nil
	}
	return cache.Tree(entry.ID)
}

func (s *snapshot) ids(filter Filter) []string {
	var ids []string
	for id, entry := range s.entries {
		if filter.Matches(entry.recordType) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}
