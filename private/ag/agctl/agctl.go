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

// Package agctl implements the use cases of ag on top of the record store.
//
// Every check that can fail on user input runs before anything is written,
// so a failed use case leaves the tracking branch untouched.
package agctl

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/agtrack/ag/private/agpkg/agactivity"
	"github.com/agtrack/ag/private/agpkg/agconfig"
	"github.com/agtrack/ag/private/agpkg/agedit"
	"github.com/agtrack/ag/private/agpkg/agid"
	"github.com/agtrack/ag/private/agpkg/agrecord"
	"github.com/agtrack/ag/private/agpkg/agrelation"
	"github.com/agtrack/ag/private/agpkg/agstore"
	"github.com/agtrack/ag/private/agpkg/agsync"
	"github.com/agtrack/ag/private/pkg/git"
	"github.com/agtrack/ag/private/pkg/git/object"
	"github.com/agtrack/ag/private/pkg/tracing"
	"go.uber.org/zap"
)

// NullParent is the parent reference that makes a category a root.
const NullParent = "null"

// ValidationError is returned when user input is rejected.
type ValidationError struct {
	Reason string
}

// Error implements error.
func (e *ValidationError) Error() string {
	return e.Reason
}

func newValidationErrorf(format string, args ...any) *ValidationError {
	return &ValidationError{
		Reason: fmt.Sprintf(format, args...),
	}
}

// Entry is a record with its one-line description.
type Entry struct {
	Record agrecord.Record
	// Oneline is the id followed by the summaries of the parent chain, as in
	// "[ab1234] Backend / Parser".
	Oneline string
}

// SearchResult is a record matching a search.
type SearchResult struct {
	Entry
	// Removed is set if the record is not current. Record is then the last
	// version before it was removed.
	Removed bool
}

// IssueLine is one issue of a listing.
type IssueLine struct {
	ID      string
	Summary string
	// Path holds the summaries of the first category of the issue and its
	// parents, starting at the root.
	Path []string
	// Activity is the activity on the issue, or nil if no commit mentions
	// it.
	Activity *agactivity.Activity
}

// Listing is the content of the tracker.
type Listing struct {
	// Issues are sorted by id.
	Issues []IssueLine
	// Categories is the category tree.
	Categories []agrelation.TreeLine
}

// Controller runs the use cases of ag.
type Controller interface {
	// NewIssue creates an issue from the text the user edits. The issue is
	// linked to the given categories in addition to the ones the user
	// enters.
	NewIssue(ctx context.Context, categoryRefs []string) (*agrecord.Issue, error)
	// NewCategory creates a category from the text the user edits. If
	// parentRef is not empty, the category is created under it.
	NewCategory(ctx context.Context, parentRef string) (*agrecord.Category, error)
	// Edit lets the user edit a record. Returns false if the text was left
	// unchanged, in which case nothing is committed.
	Edit(ctx context.Context, ref string) (agrecord.Record, bool, error)
	// Remove removes a record once confirm returns true. confirm is called
	// with the one-line description of the record.
	//
	// Returns a *agrelation.HasDependentsError if the record is a category
	// that is still in use.
	Remove(ctx context.Context, ref string, confirm func(oneline string) (bool, error)) (agrecord.Record, bool, error)
	// Link links an issue to categories. Returns false if the issue was
	// already linked to all of them.
	Link(ctx context.Context, issueRef string, categoryRefs []string) (*agrecord.Issue, bool, error)
	// Unlink unlinks an issue from categories. Returns false if the issue
	// was linked to none of them.
	Unlink(ctx context.Context, issueRef string, categoryRefs []string) (*agrecord.Issue, bool, error)
	// Reparent moves a category under parentRef, or makes it a root if
	// parentRef is NullParent. Returns false if the parent did not change.
	Reparent(ctx context.Context, categoryRef string, parentRef string) (*agrecord.Category, bool, error)
	// Show returns a current record.
	Show(ctx context.Context, ref string) (*Entry, error)
	// Oneline returns the one-line description of a current record.
	Oneline(ctx context.Context, ref string) (string, error)
	// History returns every version of a record, even if it was removed.
	History(ctx context.Context, ref string) (*agstore.History, error)
	// Search returns the records whose text contains any of the keywords,
	// ignoring case. Removed records are searched in their last version.
	Search(ctx context.Context, keywords []string) ([]*SearchResult, error)
	// Log returns the commits of the tracking branch, newest first.
	Log(ctx context.Context) ([]*object.Commit, error)
	// List returns the current issues with their activity and the category
	// tree.
	List(ctx context.Context) (*Listing, error)
	// Start checks out the topic branch of a record, creating it if there is
	// none. Returns the branch and whether it was created.
	Start(ctx context.Context, ref string) (string, bool, error)
	// Sync syncs the tracking branch with the configured remote.
	Sync(ctx context.Context) (*agsync.Result, error)
	// PrepareCommitMessage tags the commit message in filePath with the id
	// the checked out branch works on.
	PrepareCommitMessage(ctx context.Context, filePath string, source string) error
	// EnsureHook installs the commit message hook if the tracking branch
	// exists and no hook is present. Returns true if the hook was written.
	EnsureHook(ctx context.Context) (bool, error)
}

// NewController returns a new Controller for repository.
func NewController(
	logger *zap.Logger,
	repository git.Repository,
	config *agconfig.Config,
	editor agedit.Editor,
	options ...ControllerOption,
) Controller {
	return newController(logger, repository, config, editor, options...)
}

// ControllerOption is an option for NewController.
type ControllerOption func(*controllerOptions)

// ControllerWithTracer returns a new ControllerOption that sets the tracer
// of all components.
//
// The default is tracing.NopTracer.
func ControllerWithTracer(tracer tracing.Tracer) ControllerOption {
	return func(controllerOptions *controllerOptions) {
		controllerOptions.tracer = tracer
	}
}

// ControllerWithClock returns a new ControllerOption that sets the clock used
// for commit timestamps.
//
// The default is time.Now.
func ControllerWithClock(now func() time.Time) ControllerOption {
	return func(controllerOptions *controllerOptions) {
		controllerOptions.now = now
	}
}

// ControllerWithRand returns a new ControllerOption that sets the source of
// new ids.
func ControllerWithRand(random *rand.Rand) ControllerOption {
	return func(controllerOptions *controllerOptions) {
		controllerOptions.random = random
	}
}

// ParseRef returns the id a reference refers to. References are ids or
// slugs, as in "ab1234-fix-the-parser".
func ParseRef(ref string) (string, error) {
	id := agid.Truncate(ref)
	if !agid.IsValid(id) {
		return "", newValidationErrorf("invalid id: %q", ref)
	}
	return id, nil
}
