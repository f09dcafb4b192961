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

// Package agstore reads and writes records on the tracking branch.
//
// Every commit on the tracking branch holds a full snapshot of all current
// records under issue/<id> and category/<id>. History is linear: each
// commit has the previous tip as its only parent.
package agstore

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/agtrack/ag/private/agpkg/agrecord"
	"github.com/agtrack/ag/private/pkg/git"
	"github.com/agtrack/ag/private/pkg/git/object"
	"github.com/agtrack/ag/private/pkg/tracing"
	"go.uber.org/zap"
)

const (
	// DefaultBranch is the default name of the tracking branch.
	DefaultBranch = "_ag"

	lockFileName = "ag.lock"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

const (
	// FilterNone matches all records.
	FilterNone Filter = iota
	// FilterIssues matches issues.
	FilterIssues
	// FilterCategories matches categories.
	FilterCategories
)

// Filter selects records by type.
type Filter int

// Matches returns true if records of the given type match the filter.
func (f Filter) Matches(recordType agrecord.Type) bool {
	switch f {
	case FilterIssues:
		return recordType == agrecord.TypeIssue
	case FilterCategories:
		return recordType == agrecord.TypeCategory
	default:
		return true
	}
}

// History is a record with every version it had.
type History struct {
	// Record is the newest version.
	Record agrecord.Record
	// Entries are the versions of the record, newest first.
	Entries []HistoryEntry
	// Deletion is the commit that removed the record, or nil if the record
	// is current.
	Deletion *object.Commit
}

// HistoryEntry is one version of a record.
type HistoryEntry struct {
	// Commit is the commit that introduced this version.
	Commit *object.Commit
	Record agrecord.Record
}

// Store reads records from the tracking branch.
type Store interface {
	// Branch returns the name of the tracking branch.
	Branch() string
	// Tip returns the newest commit of the tracking branch, or nil if the
	// tracking branch does not exist.
	Tip(ctx context.Context) (*object.Commit, error)
	// ResolveCurrent returns the record as of the tip.
	//
	// Returns an error wrapping ErrNotFound if the record is not current.
	ResolveCurrent(ctx context.Context, id string) (agrecord.Record, error)
	// ResolveLatest returns the newest version of the record, even if it was
	// removed since.
	//
	// Returns an error wrapping ErrNotFound if the record never existed.
	ResolveLatest(ctx context.Context, id string) (agrecord.Record, error)
	// ResolveWithHistory returns every version of the record.
	//
	// Returns an error wrapping ErrNotFound if the record never existed.
	ResolveWithHistory(ctx context.Context, id string) (*History, error)
	// EnumerateIDs returns the ids of the records matching filter. If
	// recursive is set, ids of records that were removed are included.
	EnumerateIDs(ctx context.Context, recursive bool, filter Filter) (map[string]struct{}, error)
	// ListCurrent returns the current records matching filter, sorted by id.
	ListCurrent(ctx context.Context, filter Filter) ([]agrecord.Record, error)
	// TypeOf returns the type of a current record.
	//
	// Returns an error wrapping ErrNotFound if the record is not current.
	TypeOf(ctx context.Context, id string) (agrecord.Type, error)
	// SlugResolver returns a resolver of current slugs.
	SlugResolver(ctx context.Context) agrecord.SlugResolver
	// ForEachCommit calls f for every commit of the tracking branch, newest
	// first.
	ForEachCommit(ctx context.Context, f func(*object.Commit) error) error
}

// NewStore returns a new Store for the tracking branch of repository.
func NewStore(
	logger *zap.Logger,
	repository git.Repository,
	options ...StoreOption,
) Store {
	return newStore(logger, repository, options...)
}

// StoreOption is an option for NewStore.
type StoreOption func(*storeOptions)

// StoreWithBranch returns a new StoreOption that sets the tracking branch.
//
// The default is DefaultBranch.
func StoreWithBranch(branch string) StoreOption {
	return func(storeOptions *storeOptions) {
		storeOptions.branch = branch
	}
}

// StoreWithTracer returns a new StoreOption that sets the tracer.
//
// The default is tracing.NopTracer.
func StoreWithTracer(tracer tracing.Tracer) StoreOption {
	return func(storeOptions *storeOptions) {
		storeOptions.tracer = tracer
	}
}

// Identity is the author and committer of mutations.
type Identity struct {
	Name  string
	Email string
}

// Mutation is a change to a single record.
type Mutation struct {
	ID   string
	Type agrecord.Type
	// Record is the new version of the record, or nil to remove it.
	Record agrecord.Record
	// Message is the commit message.
	Message string
	// AllowDelete must be set when Record is nil.
	AllowDelete bool
}

// Committer writes mutations to the tracking branch.
type Committer interface {
	// CommitMutation writes a commit with the mutation applied to the tip
	// snapshot and advances the tracking branch to it.
	//
	// All records other than the mutated one are carried forward unchanged.
	// The branch either points at the new commit or is left untouched.
	CommitMutation(ctx context.Context, mutation Mutation) (*object.Commit, error)
}

// NewCommitter returns a new Committer writing to the tracking branch of
// store.
func NewCommitter(
	logger *zap.Logger,
	repository git.Repository,
	store Store,
	identity Identity,
	options ...CommitterOption,
) Committer {
	return newCommitter(logger, repository, store, identity, options...)
}

// CommitterOption is an option for NewCommitter.
type CommitterOption func(*committer)

// CommitterWithClock returns a new CommitterOption that sets the clock used
// for commit timestamps.
//
// The default is time.Now.
func CommitterWithClock(now func() time.Time) CommitterOption {
	return func(committer *committer) {
		committer.now = now
	}
}

// CommitterWithLockTimeout returns a new CommitterOption that sets how long
// to wait for other processes writing to the same repository.
func CommitterWithLockTimeout(timeout time.Duration) CommitterOption {
	return func(committer *committer) {
		committer.lockTimeout = timeout
	}
}

// CommitterWithTracer returns a new CommitterOption that sets the tracer.
func CommitterWithTracer(tracer tracing.Tracer) CommitterOption {
	return func(committer *committer) {
		committer.tracer = tracer
	}
}

// Message returns the commit message of a mutation, for example
//
//	Added issue [ab1234]: Fix the parser
//
// The summary is left out when empty.
func Message(verb string, id string, summary string) string {
	if summary == "" {
		return fmt.Sprintf("%s [%s]", verb, id)
	}
	return fmt.Sprintf("%s [%s]: %s", verb, id, summary)
}

// LockPath returns the path of the file lock held while the tracking branch
// of repository is written.
func LockPath(repository git.Repository) string {
	return filepath.Join(repository.GitDir(), lockFileName)
}

func notFoundError(id string) error {
	return fmt.Errorf("%s: %w", id, ErrNotFound)
}
