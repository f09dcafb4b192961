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

package agctl_test

import (
	"context"
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/agtrack/ag/private/ag/agctl"
	"github.com/agtrack/ag/private/agpkg/agconfig"
	"github.com/agtrack/ag/private/agpkg/agrecord"
	"github.com/agtrack/ag/private/agpkg/agrelation"
	"github.com/agtrack/ag/private/agpkg/agstore"
	"github.com/agtrack/ag/private/pkg/git/gittest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestNewRecordsAndOneline(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	controller := newTestController(t, testIdentity)

	backend := controller.newCategory(t, "", "Backend")
	parser := controller.newCategory(t, backend.ID(), "Parser")
	assert.Equal(t, backend.ID(), parser.Parent())

	controller.editor.push(func(text string) string {
		assert.Equal(t, "Summary: \nCategories: "+parser.Slug()+"\n\n", text)
		return strings.Replace(text, "Summary: ", "Summary: Fix the parser", 1) + "It crashes.\n"
	})
	issue, err := controller.NewIssue(ctx, []string{parser.Slug()})
	require.NoError(t, err)
	assert.Equal(t, []string{parser.ID()}, issue.Categories())
	assert.Equal(t, "It crashes.", issue.Description())

	oneline, err := controller.Oneline(ctx, issue.ID())
	require.NoError(t, err)
	assert.Equal(t, "["+issue.ID()+"] Backend / Parser / Fix the parser", oneline)
	oneline, err = controller.Oneline(ctx, parser.Slug())
	require.NoError(t, err)
	assert.Equal(t, "["+parser.ID()+"] Backend / Parser", oneline)

	entry, err := controller.Show(ctx, issue.ID())
	require.NoError(t, err)
	assert.Equal(t, "Summary: Fix the parser\nCategories: "+parser.Slug()+"\n\nIt crashes.\n", entry.Record.Original())

	commits, err := controller.Log(ctx)
	require.NoError(t, err)
	require.Len(t, commits, 3)
	assert.Equal(t, agstore.Message("Added issue", issue.ID(), "Fix the parser"), commits[0].Subject())
	assert.Equal(t, agstore.Message("Added category", backend.ID(), "Backend"), commits[2].Subject())
}

func TestNewIssueKeepsPresetCategories(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	controller := newTestController(t, testIdentity)
	category := controller.newCategory(t, "", "Backend")

	controller.editor.push(func(string) string {
		// The user deletes the Categories line.
		return "Summary: Fix the parser\n"
	})
	issue, err := controller.NewIssue(ctx, []string{category.ID()})
	require.NoError(t, err)
	assert.Equal(t, []string{category.ID()}, issue.Categories())
}

func TestNewIssueEmptySummary(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	controller := newTestController(t, testIdentity)

	controller.editor.push(func(text string) string {
		return text
	})
	_, err := controller.NewIssue(ctx, nil)
	var validationError *agctl.ValidationError
	require.ErrorAs(t, err, &validationError)
	assert.Equal(t, "aborting due to empty summary", validationError.Reason)
	assert.Empty(t, controller.subjects(t))
}

func TestNewIssueUnknownCategory(t *testing.T) {
	t.Parallel()
	controller := newTestController(t, testIdentity)
	_, err := controller.NewIssue(context.Background(), []string{"zz9999"})
	var validationError *agctl.ValidationError
	require.ErrorAs(t, err, &validationError)
	assert.Equal(t, "unknown category: zz9999", validationError.Reason)
	_, err = controller.NewIssue(context.Background(), []string{"not-an-id"})
	require.ErrorAs(t, err, &validationError)
}

func TestMissingIdentity(t *testing.T) {
	t.Parallel()
	controller := newTestController(t, agstore.Identity{})
	_, err := controller.NewCategory(context.Background(), "")
	var validationError *agctl.ValidationError
	require.ErrorAs(t, err, &validationError)
}

func TestEdit(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	controller := newTestController(t, testIdentity)
	category := controller.newCategory(t, "", "Backend")

	controller.editor.push(func(text string) string {
		return text
	})
	_, changed, err := controller.Edit(ctx, category.ID())
	require.NoError(t, err)
	assert.False(t, changed)

	controller.editor.push(func(text string) string {
		// Only whitespace changes.
		return text + "\n\n"
	})
	_, changed, err = controller.Edit(ctx, category.ID())
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Len(t, controller.subjects(t), 1)

	controller.editor.push(func(text string) string {
		return strings.Replace(text, "Backend", "Server", 1)
	})
	record, changed, err := controller.Edit(ctx, category.ID())
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "Server", record.Summary())
	subjects := controller.subjects(t)
	require.Len(t, subjects, 2)
	assert.Equal(t, agstore.Message("Modified category", category.ID(), "Server"), subjects[0])

	controller.editor.push(func(text string) string {
		return "Parent: " + category.ID() + "\n"
	})
	_, _, err = controller.Edit(ctx, category.ID())
	assert.True(t, agrecord.IsParseError(err))
}

func TestEditCycle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	controller := newTestController(t, testIdentity)
	a := controller.newCategory(t, "", "A")
	b := controller.newCategory(t, a.ID(), "B")

	controller.editor.push(func(text string) string {
		return "Summary: A\nParent: " + b.Slug() + "\n"
	})
	_, _, err := controller.Edit(ctx, a.ID())
	assert.ErrorIs(t, err, agrelation.ErrCycleDetected)
	assert.Len(t, controller.subjects(t), 2)
}

func TestRemove(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	controller := newTestController(t, testIdentity)
	a := controller.newCategory(t, "", "A")
	b := controller.newCategory(t, a.ID(), "B")
	issue := controller.newIssue(t, "Fix the parser", b.ID())

	_, _, err := controller.Remove(ctx, a.ID(), failConfirm(t))
	var hasDependentsError *agrelation.HasDependentsError
	require.ErrorAs(t, err, &hasDependentsError)
	assert.Equal(t, []string{b.ID()}, hasDependentsError.Children)
	assert.Empty(t, hasDependentsError.Issues)
	_, _, err = controller.Remove(ctx, b.ID(), failConfirm(t))
	require.ErrorAs(t, err, &hasDependentsError)
	assert.Equal(t, []string{issue.ID()}, hasDependentsError.Issues)
	assert.Len(t, controller.subjects(t), 3)

	var prompted string
	_, removed, err := controller.Remove(ctx, issue.ID(), func(oneline string) (bool, error) {
		prompted = oneline
		return false, nil
	})
	require.NoError(t, err)
	assert.False(t, removed)
	assert.Equal(t, "["+issue.ID()+"] A / B / Fix the parser", prompted)
	assert.Len(t, controller.subjects(t), 3)

	_, removed, err = controller.Remove(ctx, issue.ID(), func(string) (bool, error) {
		return true, nil
	})
	require.NoError(t, err)
	assert.True(t, removed)
	commits, err := controller.Log(ctx)
	require.NoError(t, err)
	require.Len(t, commits, 4)
	assert.Equal(t, agstore.Message("Removed issue", issue.ID(), "Fix the parser"), commits[0].Subject())
	_, err = controller.Show(ctx, issue.ID())
	assert.ErrorIs(t, err, agstore.ErrNotFound)

	history, err := controller.History(ctx, issue.ID())
	require.NoError(t, err)
	require.NotNil(t, history.Deletion)
	assert.Equal(t, commits[0].ID, history.Deletion.ID)
	require.Len(t, history.Entries, 1)
}

func TestLinkUnlink(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	controller := newTestController(t, testIdentity)
	a := controller.newCategory(t, "", "A")
	b := controller.newCategory(t, "", "B")
	issue := controller.newIssue(t, "Fix the parser")

	linked, changed, err := controller.Link(ctx, issue.ID(), []string{b.Slug(), a.ID()})
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, sortedIDs(a.ID(), b.ID()), linked.Categories())

	_, changed, err = controller.Link(ctx, issue.ID(), []string{a.ID()})
	require.NoError(t, err)
	assert.False(t, changed)

	unlinked, changed, err := controller.Unlink(ctx, issue.ID(), []string{a.ID()})
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, []string{b.ID()}, unlinked.Categories())

	_, changed, err = controller.Unlink(ctx, issue.ID(), []string{a.ID()})
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Len(t, controller.subjects(t), 5)

	entry, err := controller.Show(ctx, issue.ID())
	require.NoError(t, err)
	assert.Equal(t, "Summary: Fix the parser\nCategories: "+b.Slug()+"\n\n", entry.Record.Original())

	var validationError *agctl.ValidationError
	_, _, err = controller.Link(ctx, a.ID(), []string{b.ID()})
	require.ErrorAs(t, err, &validationError)
	_, _, err = controller.Link(ctx, issue.ID(), []string{issue.ID()})
	assert.ErrorIs(t, err, agrelation.ErrNotCategory)
}

func TestReparent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	controller := newTestController(t, testIdentity)
	a := controller.newCategory(t, "", "A")
	b := controller.newCategory(t, a.ID(), "B")

	_, _, err := controller.Reparent(ctx, a.ID(), b.ID())
	var cycleError *agrelation.CycleError
	require.ErrorAs(t, err, &cycleError)
	assert.Equal(t, []string{a.ID(), b.ID(), a.ID()}, cycleError.Chain)

	_, changed, err := controller.Reparent(ctx, b.ID(), a.Slug())
	require.NoError(t, err)
	assert.False(t, changed)

	category, changed, err := controller.Reparent(ctx, b.ID(), agctl.NullParent)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Empty(t, category.Parent())

	category, changed, err = controller.Reparent(ctx, a.ID(), b.ID())
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, b.ID(), category.Parent())

	listing, err := controller.List(ctx)
	require.NoError(t, err)
	require.Len(t, listing.Categories, 2)
	assert.Equal(t, b.ID(), listing.Categories[0].ID)
	assert.Equal(t, a.ID(), listing.Categories[1].ID)
	assert.Equal(t, 1, listing.Categories[1].Depth)
}

func TestSearch(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	controller := newTestController(t, testIdentity)
	parser := controller.newIssue(t, "Fix the parser")
	lexer := controller.newIssue(t, "Speed up the LEXER")
	controller.newIssue(t, "Write docs")
	_, _, err := controller.Remove(ctx, lexer.ID(), func(string) (bool, error) {
		return true, nil
	})
	require.NoError(t, err)

	results, err := controller.Search(ctx, []string{"lexer", "PARSER"})
	require.NoError(t, err)
	require.Len(t, results, 2)
	byID := make(map[string]*agctl.SearchResult)
	for _, result := range results {
		byID[result.Record.ID()] = result
	}
	require.Contains(t, byID, parser.ID())
	assert.False(t, byID[parser.ID()].Removed)
	require.Contains(t, byID, lexer.ID())
	assert.True(t, byID[lexer.ID()].Removed)
	assert.Equal(t, "["+lexer.ID()+"] Speed up the LEXER", byID[lexer.ID()].Oneline)

	results, err = controller.Search(ctx, []string{"nothing"})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestStartAndActivity(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	controller := newTestController(t, testIdentity)
	category := controller.newCategory(t, "", "Backend")
	issue := controller.newIssue(t, "Fix the parser", category.ID())

	installed, err := controller.EnsureHook(ctx)
	require.NoError(t, err)
	assert.True(t, installed)
	installed, err = controller.EnsureHook(ctx)
	require.NoError(t, err)
	assert.False(t, installed)

	branch, created, err := controller.Start(ctx, issue.ID())
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, issue.ID()+"-fix-the-parser", branch)

	messagePath := filepath.Join(t.TempDir(), "COMMIT_EDITMSG")
	require.NoError(t, os.WriteFile(messagePath, []byte("Handle empty input\n"), 0o644))
	require.NoError(t, controller.PrepareCommitMessage(ctx, messagePath, "message"))
	data, err := os.ReadFile(messagePath)
	require.NoError(t, err)
	assert.Equal(t, "["+issue.ID()+"] Handle empty input\n", string(data))
	controller.scaffold.Commit(t, string(data), map[string]string{"parser.go": "package parser\n"})

	listing, err := controller.List(ctx)
	require.NoError(t, err)
	require.Len(t, listing.Issues, 1)
	assert.Equal(t, []string{"Backend"}, listing.Issues[0].Path)
	require.NotNil(t, listing.Issues[0].Activity)
	assert.Equal(t, 1, listing.Issues[0].Activity.Count)
	assert.True(t, listing.Issues[0].Activity.ReachableFromHead)

	controller.scaffold.Local.Cmd("checkout", "--quiet", gittest.DefaultBranch)
	listing, err = controller.List(ctx)
	require.NoError(t, err)
	require.NotNil(t, listing.Issues[0].Activity)
	assert.False(t, listing.Issues[0].Activity.ReachableFromHead)

	branch, created, err = controller.Start(ctx, issue.Slug())
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, issue.ID()+"-fix-the-parser", branch)
}

func TestSync(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	controller := newTestController(t, testIdentity)
	controller.newIssue(t, "Fix the parser")
	result, err := controller.Sync(ctx)
	require.NoError(t, err)
	commits, err := controller.Log(ctx)
	require.NoError(t, err)
	assert.Equal(t, commits[0].ID, result.Remote)
}

var testIdentity = agstore.Identity{
	Name:  gittest.TestUserName,
	Email: gittest.TestUserEmail,
}

type testController struct {
	agctl.Controller

	scaffold *gittest.Scaffold
	editor   *scriptedEditor
}

func newTestController(t *testing.T, identity agstore.Identity) *testController {
	t.Helper()
	scaffold := gittest.ScaffoldRepository(t)
	repository := scaffold.Open(t)
	editor := &scriptedEditor{t: t}
	clock := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	controller := agctl.NewController(
		zaptest.NewLogger(t),
		repository,
		agconfig.NewConfig(identity, agconfig.ExternalConfig{}, ""),
		editor,
		agctl.ControllerWithClock(func() time.Time {
			clock = clock.Add(time.Minute)
			return clock
		}),
		agctl.ControllerWithRand(rand.New(rand.NewSource(1))),
	)
	t.Cleanup(func() {
		assert.Empty(t, editor.edits, "unused edits")
	})
	return &testController{
		Controller: controller,
		scaffold:   scaffold,
		editor:     editor,
	}
}

func (c *testController) newCategory(t *testing.T, parentID string, summary string) *agrecord.Category {
	t.Helper()
	c.editor.push(func(text string) string {
		return strings.Replace(text, "Summary: ", "Summary: "+summary, 1)
	})
	category, err := c.NewCategory(context.Background(), parentID)
	require.NoError(t, err)
	return category
}

func (c *testController) newIssue(t *testing.T, summary string, categoryIDs ...string) *agrecord.Issue {
	t.Helper()
	c.editor.push(func(text string) string {
		return strings.Replace(text, "Summary: ", "Summary: "+summary, 1)
	})
	issue, err := c.NewIssue(context.Background(), categoryIDs)
	require.NoError(t, err)
	return issue
}

func (c *testController) subjects(t *testing.T) []string {
	t.Helper()
	commits, err := c.Log(context.Background())
	require.NoError(t, err)
	subjects := make([]string, 0, len(commits))
	for _, commit := range commits {
		subjects = append(subjects, commit.Subject())
	}
	return subjects
}

// scriptedEditor answers each Edit with the next queued edit.
type scriptedEditor struct {
	t     *testing.T
	edits []func(string) string
}

func (e *scriptedEditor) push(edit func(string) string) {
	e.edits = append(e.edits, edit)
}

func (e *scriptedEditor) Edit(_ context.Context, text string) (string, error) {
	if len(e.edits) == 0 {
		return "", errors.New("unexpected edit")
	}
	edit := e.edits[0]
	e.edits = e.edits[1:]
	return edit(text), nil
}

func failConfirm(t *testing.T) func(string) (bool, error) {
	return func(string) (bool, error) {
		t.Error("unexpected confirmation")
		return false, nil
	}
}

func sortedIDs(ids ...string) []string {
	if ids[0] > ids[1] {
		return []string{ids[1], ids[0]}
	}
	return ids
}
