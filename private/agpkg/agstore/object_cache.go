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
	"sync"

	"github.com/agtrack/ag/private/agpkg/agrecord"
	"github.com/agtrack/ag/private/pkg/git"
	"github.com/agtrack/ag/private/pkg/git/object"
)

// objectCache caches commits, trees and decoded records by object id.
// Objects are immutable, so entries never go stale.
type objectCache struct {
	reader git.ObjectReader

	lock    sync.RWMutex
	commits map[object.ID]*object.Commit
	trees   map[object.ID]*object.Tree
	records map[recordKey]agrecord.Record
}

type recordKey struct {
	blobID     object.ID
	id         string
	recordType agrecord.Type
}

func newObjectCache(reader git.ObjectReader) *objectCache {
	return &objectCache{
		reader:  reader,
		commits: make(map[object.ID]*object.Commit),
		trees:   make(map[object.ID]*object.Tree),
		records: make(map[recordKey]agrecord.Record),
	}
}

func (c *objectCache) Commit(id object.ID) (*object.Commit, error) {
	c.lock.RLock()
	commit, ok := c.commits[id]
	c.lock.RUnlock()
	if ok {
		return commit, nil
	}
	commit, err := c.reader.Commit(id)
	if err != nil {
		return nil, err
	}
	c.lock.Lock()
	c.commits[id] = commit
	c.lock.Unlock()
	return commit, nil
}

func (c *objectCache) Tree(id object.ID) (*object.Tree, error) {
	c.lock.RLock()
	tree, ok := c.trees[id]
	c.lock.RUnlock()
	if ok {
		return tree, nil
	}
	tree, err := c.reader.Tree(id)
	if err != nil {
		return nil, err
	}
	c.lock.Lock()
	c.trees[id] = tree
	c.lock.Unlock()
	return tree, nil
}

// Blob is not cached. Blobs are only read to decode records, and the
// decoded records are cached instead.
func (c *objectCache) Blob(id object.ID) ([]byte, error) {
	return c.reader.Blob(id)
}

func (c *objectCache) Record(id string, recordType agrecord.Type, blobID object.ID) (agrecord.Record, error) {
	key := recordKey{
		blobID:     blobID,
		id:         id,
		recordType: recordType,
	}
	c.lock.RLock()
	record, ok := c.records[key]
	c.lock.RUnlock()
	if ok {
		return record, nil
	}
	data, err := c.reader.Blob(blobID)
	if err != nil {
		return nil, err
	}
	record, err = agrecord.Decode(string(data), id, recordType)
	if err != nil {
		return nil, err
	}
	c.lock.Lock()
	c.records[key] = record
	c.lock.Unlock()
	return record, nil
}
