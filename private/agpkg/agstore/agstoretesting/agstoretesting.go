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

// Package agstoretesting provides an in-memory agstore.Store for tests of
// read-side components.
package agstoretesting

import (
	"context"
	"sort"

	"github.com/agtrack/ag/private/agpkg/agrecord"
	"github.com/agtrack/ag/private/agpkg/agstore"
	"github.com/agtrack/ag/private/pkg/git/object"
)

// MemoryStore is an agstore.Store holding only current records. It has no
// history and no commits.
type MemoryStore struct {
	records map[string]agrecord.Record
}

// NewMemoryStore returns a new MemoryStore holding records.
func NewMemoryStore(records ...agrecord.Record) *MemoryStore {
	store := &MemoryStore{
		records: make(map[string]agrecord.Record, len(records)),
	}
	for _, record := range records {
		store.Put(record)
	}
	return store
}

// Put adds or replaces a record.
func (s *MemoryStore) Put(record agrecord.Record) {
	s.records[record.ID()] = record
}

// Remove removes a record.
func (s *MemoryStore) Remove(id string) {
	delete(s.records, id)
}

func (s *MemoryStore) Branch() string {
	return agstore.DefaultBranch
}

func (s *MemoryStore) Tip(context.Context) (*object.Commit, error) {
	return nil, nil
}

func (s *MemoryStore) ResolveCurrent(_ context.Context, id string) (agrecord.Record, error) {
	record, ok := s.records[id]
	if !ok {
		return nil, agstore.ErrNotFound
	}
	return record, nil
}

func (s *MemoryStore) ResolveLatest(ctx context.Context, id string) (agrecord.Record, error) {
	return s.ResolveCurrent(ctx, id)
}

func (s *MemoryStore) ResolveWithHistory(ctx context.Context, id string) (*agstore.History, error) {
	record, err := s.ResolveCurrent(ctx, id)
	if err != nil {
		return nil, err
	}
	return &agstore.History{
		Record:  record,
		Entries: []agstore.HistoryEntry{{Record: record}},
	}, nil
}

func (s *MemoryStore) EnumerateIDs(_ context.Context, _ bool, filter agstore.Filter) (map[string]struct{}, error) {
	ids := make(map[string]struct{})
	for id, record := range s.records {
		if filter.Matches(record.Type()) {
			ids[id] = struct{}{}
		}
	}
	return ids, nil
}

func (s *MemoryStore) ListCurrent(_ context.Context, filter agstore.Filter) ([]agrecord.Record, error) {
	var records []agrecord.Record
	for _, record := range s.records {
		if filter.Matches(record.Type()) {
			records = append(records, record)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].ID() < records[j].ID()
	})
	return records, nil
}

func (s *MemoryStore) TypeOf(ctx context.Context, id string) (agrecord.Type, error) {
	record, err := s.ResolveCurrent(ctx, id)
	if err != nil {
		return 0, err
	}
	return record.Type(), nil
}

func (s *MemoryStore) SlugResolver(ctx context.Context) agrecord.SlugResolver {
	return func(id string) (string, error) {
		record, err := s.ResolveCurrent(ctx, id)
		if err != nil {
			return "", err
		}
		return record.Slug(), nil
	}
}

func (s *MemoryStore) ForEachCommit(context.Context, func(*object.Commit) error) error {
	return nil
}
