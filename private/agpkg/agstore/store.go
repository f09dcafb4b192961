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
	"context"
	"errors"
	"sync"

	"github.com/agtrack/ag/private/agpkg/agrecord"
	"github.com/agtrack/ag/private/pkg/git"
	"github.com/agtrack/ag/private/pkg/git/object"
	"github.com/agtrack/ag/private/pkg/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type store struct {
	logger     *zap.Logger
	repository git.Repository
	cache      *objectCache
	branch     string
	tracer     tracing.Tracer

	lock sync.Mutex
	// tip is the snapshot of the last tip seen. It is replaced whenever
	// the branch moves.
	tip *snapshot
}

type storeOptions struct {
	branch string
	tracer tracing.Tracer
}

func newStore(
	logger *zap.Logger,
	repository git.Repository,
	options ...StoreOption,
) *store {
	storeOptions := &storeOptions{
		branch: DefaultBranch,
		tracer: tracing.NopTracer,
	}
	for _, option := range options {
		option(storeOptions)
	}
	return &store{
		logger:     logger.Named("agstore"),
		repository: repository,
		cache:      newObjectCache(repository.Objects()),
		branch:     storeOptions.branch,
		tracer:     storeOptions.tracer,
	}
}

func (s *store) Branch() string {
	return s.branch
}

func (s *store) Tip(ctx context.Context) (*object.Commit, error) {
	tip, err := s.tipSnapshot(ctx)
	if err != nil || tip == nil {
		return nil, err
	}
	return tip.commit, nil
}

func (s *store) ResolveCurrent(ctx context.Context, id string) (_ agrecord.Record, retErr error) {
	ctx, span := s.tracer.Start(ctx, "resolve_current", tracing.WithErr(&retErr), tracing.WithAttributes(attribute.String("id", id)))
	defer span.End()
	tip, err := s.tipSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	if tip == nil {
		return nil, notFoundError(id)
	}
	entry, ok := tip.entries[id]
	if !ok {
		return nil, notFoundError(id)
	}
	return s.cache.Record(id, entry.recordType, entry.blobID)
}

func (s *store) ResolveLatest(ctx context.Context, id string) (_ agrecord.Record, retErr error) {
	ctx, span := s.tracer.Start(ctx, "resolve_latest", tracing.WithErr(&retErr), tracing.WithAttributes(attribute.String("id", id)))
	defer span.End()
	var record agrecord.Record
	if err := s.forEachSnapshot(ctx, func(snapshot *snapshot) error {
		entry, ok := snapshot.entries[id]
		if !ok {
			return nil
		}
		var err error
		record, err = s.cache.Record(id, entry.recordType, entry.blobID)
		if err != nil {
			return err
		}
		return git.ErrStopWalk
	}); err != nil {
		return nil, err
	}
	if record == nil {
		return nil, notFoundError(id)
	}
	return record, nil
}

func (s *store) ResolveWithHistory(ctx context.Context, id string) (_ *History, retErr error) {
	ctx, span := s.tracer.Start(ctx, "resolve_with_history", tracing.WithErr(&retErr), tracing.WithAttributes(attribute.String("id", id)))
	defer span.End()
	history := &History{}
	// The walk is newest first. A run of commits storing the same blob is
	// one version, introduced by the oldest commit of the run.
	var (
		lastMissing *object.Commit
		runEntry    snapshotEntry
		runCommit   *object.Commit
	)
	flushRun := func() error {
		if runCommit == nil {
			return nil
		}
		record, err := s.cache.Record(id, runEntry.recordType, runEntry.blobID)
		if err != nil {
			return err
		}
		history.Entries = append(history.Entries, HistoryEntry{
			Commit: runCommit,
			Record: record,
		})
		return nil
	}
	if err := s.forEachSnapshot(ctx, func(snapshot *snapshot) error {
		entry, ok := snapshot.entries[id]
		if !ok {
			if runCommit != nil {
				// Ids are never reused, so the record did not exist before.
				return git.ErrStopWalk
			}
			lastMissing = snapshot.commit
			return nil
		}
		if runCommit == nil {
			history.Deletion = lastMissing
		} else if entry.blobID != runEntry.blobID {
			if err := flushRun(); err != nil {
				return err
			}
		}
		runEntry = entry
		runCommit = snapshot.commit
		return nil
	}); err != nil {
		return nil, err
	}
	if err := flushRun(); err != nil {
		return nil, err
	}
	if len(history.Entries) == 0 {
		return nil, notFoundError(id)
	}
	history.Record = history.Entries[0].Record
	s.logger.Debug(
		"history",
		zap.String("id", id),
		zap.Int("versions", len(history.Entries)),
		zap.Bool("deleted", history.Deletion != nil),
	)
	return history, nil
}

func (s *store) EnumerateIDs(ctx context.Context, recursive bool, filter Filter) (_ map[string]struct{}, retErr error) {
	ctx, span := s.tracer.Start(ctx, "enumerate_ids", tracing.WithErr(&retErr), tracing.WithAttributes(attribute.Bool("recursive", recursive)))
	defer span.End()
	ids := make(map[string]struct{})
	addIDs := func(snapshot *snapshot) error {
		for id, entry := range snapshot.entries {
			if filter.Matches(entry.recordType) {
				ids[id] = struct{}{}
			}
		}
		return nil
	}
	if !recursive {
		tip, err := s.tipSnapshot(ctx)
		if err != nil || tip == nil {
			return ids, err
		}
		return ids, addIDs(tip)
	}
	if err := s.forEachSnapshot(ctx, addIDs); err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *store) ListCurrent(ctx context.Context, filter Filter) ([]agrecord.Record, error) {
	tip, err := s.tipSnapshot(ctx)
	if err != nil || tip == nil {
		return nil, err
	}
	ids := tip.ids(filter)
	records := make([]agrecord.Record, 0, len(ids))
	for _, id := range ids {
		entry := tip.entries[id]
		record, err := s.cache.Record(id, entry.recordType, entry.blobID)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

func (s *store) TypeOf(ctx context.Context, id string) (agrecord.Type, error) {
	tip, err := s.tipSnapshot(ctx)
	if err != nil {
		return 0, err
	}
	if tip == nil {
		return 0, notFoundError(id)
	}
	entry, ok := tip.entries[id]
	if !ok {
		return 0, notFoundError(id)
	}
	return entry.recordType, nil
}

func (s *store) SlugResolver(ctx context.Context) agrecord.SlugResolver {
	return func(id string) (string, error) {
		record, err := s.ResolveCurrent(ctx, id)
		if err != nil {
			return "", err
		}
		return record.Slug(), nil
	}
}

func (s *store) ForEachCommit(ctx context.Context, f func(*object.Commit) error) error {
	tipID, err := s.tipID(ctx)
	if err != nil || tipID.IsZero() {
		return err
	}
	return git.ForEachFirstParent(ctx, s.cache, tipID, f)
}

func (s *store) forEachSnapshot(ctx context.Context, f func(*snapshot) error) error {
	return s.ForEachCommit(ctx, func(commit *object.Commit) error {
		snapshot, err := readSnapshot(s.cache, commit)
		if err != nil {
			return err
		}
		return f(snapshot)
	})
}

// tipID returns the commit the tracking branch points at, or the zero id
// if the branch does not exist.
func (s *store) tipID(ctx context.Context) (object.ID, error) {
	id, err := s.repository.ResolveRef(ctx, git.RefForBranch(s.branch))
	if err != nil {
		if errors.Is(err, git.ErrRefNotFound) {
			return object.ZeroID, nil
		}
		return "", err
	}
	return id, nil
}

func (s *store) tipSnapshot(ctx context.Context) (*snapshot, error) {
	tipID, err := s.tipID(ctx)
	if err != nil {
		return nil, err
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	if tipID.IsZero() {
		s.tip = nil
		return nil, nil
	}
	if s.tip != nil && s.tip.commit.ID == tipID {
		return s.tip, nil
	}
	commit, err := s.cache.Commit(tipID)
	if err != nil {
		return nil, err
	}
	tip, err := readSnapshot(s.cache, commit)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("tip", zap.String("commit", tipID.Short()), zap.Int("records", len(tip.entries)))
	s.tip = tip
	return tip, nil
}
