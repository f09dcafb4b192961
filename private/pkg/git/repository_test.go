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

package git_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/agtrack/ag/private/pkg/git"
	"github.com/agtrack/ag/private/pkg/git/gittest"
	"github.com/agtrack/ag/private/pkg/git/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenRepository(t *testing.T) {
	t.Parallel()
	scaffold := gittest.ScaffoldRepository(t)
	repository := scaffold.Open(t)
	assert.Equal(t, evalSymlinks(t, scaffold.Local.GitDir()), evalSymlinks(t, repository.GitDir()))
	assert.Equal(t, evalSymlinks(t, scaffold.Local.Dir()), evalSymlinks(t, repository.WorkTree()))

	branch, err := repository.CurrentBranch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, gittest.DefaultBranch, branch)

	name, err := repository.ConfigValue(context.Background(), "user.name")
	require.NoError(t, err)
	assert.Equal(t, gittest.TestUserName, name)
	unset, err := repository.ConfigValue(context.Background(), "ag.unset")
	require.NoError(t, err)
	assert.Empty(t, unset)
}

func TestOpenRepositoryNotRepository(t *testing.T) {
	t.Parallel()
	gittest.SkipIfShort(t)
	scaffold := gittest.ScaffoldRepository(t)
	_, err := git.OpenRepository(context.Background(), scaffold.Runner, scaffold.Env, t.TempDir())
	assert.ErrorIs(t, err, git.ErrNotRepository)
}

func TestResolveRefAndBranches(t *testing.T) {
	t.Parallel()
	scaffold := gittest.ScaffoldRepository(t)
	head := scaffold.Local.Cmd("rev-parse", "HEAD")
	scaffold.Local.Cmd("branch", "ab1234-topic")
	repository := scaffold.Open(t)
	ctx := context.Background()

	id, err := repository.ResolveRef(ctx, "HEAD")
	require.NoError(t, err)
	assert.Equal(t, head, id.String())
	_, err = repository.ResolveRef(ctx, git.RefForBranch("_ag"))
	assert.ErrorIs(t, err, git.ErrRefNotFound)

	var branches []string
	require.NoError(t, repository.ForEachBranch(ctx, func(branch string, id object.ID) error {
		branches = append(branches, branch)
		assert.Equal(t, head, id.String())
		return nil
	}))
	assert.Equal(t, []string{"ab1234-topic", gittest.DefaultBranch}, branches)
}

func TestWriteObjectsAndUpdateRef(t *testing.T) {
	t.Parallel()
	scaffold := gittest.ScaffoldRepository(t)
	repository := scaffold.Open(t)
	ctx := context.Background()

	blobID, err := repository.WriteBlob(ctx, []byte("Summary: First\n"))
	require.NoError(t, err)
	subtreeID, err := repository.WriteTree(ctx, &object.Tree{
		Entries: []object.TreeEntry{{Name: "ab1234", Mode: object.ModeFile, ID: blobID}},
	})
	require.NoError(t, err)
	rootID, err := repository.WriteTree(ctx, &object.Tree{
		Entries: []object.TreeEntry{{Name: "issue", Mode: object.ModeDir, ID: subtreeID}},
	})
	require.NoError(t, err)
	ident := object.Ident{
		Name:      "Jane Doe",
		Email:     "jane@example.com",
		Timestamp: time.Unix(1700000000, 0).UTC(),
	}
	commitID, err := repository.WriteCommit(ctx, git.CommitSpec{
		Tree:      rootID,
		Author:    ident,
		Committer: ident,
		Message:   "Added issue [ab1234]: First",
	})
	require.NoError(t, err)

	ref := git.RefForBranch("_ag")
	require.NoError(t, repository.UpdateRef(ctx, ref, commitID, "", "ag: create"))
	// A second create must lose the race.
	err = repository.UpdateRef(ctx, ref, commitID, "", "ag: create")
	assert.ErrorIs(t, err, git.ErrStaleRef)

	tip, err := repository.ResolveRef(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, commitID, tip)
	commit, err := repository.Objects().Commit(tip)
	require.NoError(t, err)
	assert.Equal(t, commitID, commit.ID)
	assert.Equal(t, rootID, commit.Tree)
	assert.Empty(t, commit.Parents)
	assert.Equal(t, "Jane Doe <jane@example.com>", commit.Author.String())
	assert.Equal(t, int64(1700000000), commit.Author.Timestamp.Unix())
	assert.Equal(t, "Added issue [ab1234]: First", commit.Subject())

	root, err := repository.Objects().Tree(commit.Tree)
	require.NoError(t, err)
	entry, ok := root.Find("issue")
	require.True(t, ok)
	assert.Equal(t, object.ModeDir, entry.Mode)
	subtree, err := repository.Objects().Tree(entry.ID)
	require.NoError(t, err)
	entry, ok = subtree.Find("ab1234")
	require.True(t, ok)
	blob, err := repository.Objects().Blob(entry.ID)
	require.NoError(t, err)
	assert.Equal(t, "Summary: First\n", string(blob))

	secondID, err := repository.WriteCommit(ctx, git.CommitSpec{
		Tree:      rootID,
		Parents:   []object.ID{commitID},
		Author:    ident,
		Committer: ident,
		Message:   "Modified issue [ab1234]",
	})
	require.NoError(t, err)
	// Stale old value.
	err = repository.UpdateRef(ctx, ref, secondID, secondID, "ag: update")
	assert.ErrorIs(t, err, git.ErrStaleRef)
	require.NoError(t, repository.UpdateRef(ctx, ref, secondID, commitID, "ag: update"))

	var subjects []string
	require.NoError(t, git.ForEachFirstParent(ctx, repository.Objects(), secondID, func(commit *object.Commit) error {
		subjects = append(subjects, commit.Subject())
		return nil
	}))
	assert.Equal(t, []string{"Modified issue [ab1234]", "Added issue [ab1234]: First"}, subjects)

	isAncestor, err := repository.IsAncestor(ctx, commitID, secondID)
	require.NoError(t, err)
	assert.True(t, isAncestor)
	isAncestor, err = repository.IsAncestor(ctx, secondID, commitID)
	require.NoError(t, err)
	assert.False(t, isAncestor)
	left, right, err := repository.CountDivergence(ctx, secondID, commitID)
	require.NoError(t, err)
	assert.Equal(t, 1, left)
	assert.Equal(t, 0, right)

	_, err = repository.Objects().Blob(commitID)
	assert.Error(t, err)
}

func TestForEachReachable(t *testing.T) {
	t.Parallel()
	scaffold := gittest.ScaffoldRepository(t)
	base := scaffold.Local.Cmd("rev-parse", "HEAD")
	scaffold.Local.Cmd("checkout", "--quiet", "-b", "topic")
	topic := scaffold.CommitAs(t, "Other", "other@example.com", "[ab1234] topic work")
	scaffold.Local.Cmd("checkout", "--quiet", gittest.DefaultBranch)
	main := scaffold.Commit(t, "main work", nil)
	scaffold.Local.Cmd("merge", "--quiet", "--no-ff", "--no-edit", "topic")
	merge := scaffold.Local.Cmd("rev-parse", "HEAD")
	repository := scaffold.Open(t)
	ctx := context.Background()

	visited := make(map[object.ID]struct{})
	var seen []string
	require.NoError(t, git.ForEachReachable(ctx, repository.Objects(), object.ID(merge), visited, func(commit *object.Commit) error {
		seen = append(seen, commit.ID.String())
		return nil
	}))
	assert.ElementsMatch(t, []string{merge, main, topic, base}, seen)

	// A second walk over the same set visits nothing.
	seen = nil
	require.NoError(t, git.ForEachReachable(ctx, repository.Objects(), object.ID(topic), visited, func(commit *object.Commit) error {
		seen = append(seen, commit.ID.String())
		return nil
	}))
	assert.Empty(t, seen)

	var firstParents []string
	require.NoError(t, git.ForEachFirstParent(ctx, repository.Objects(), object.ID(merge), func(commit *object.Commit) error {
		firstParents = append(firstParents, commit.ID.String())
		return nil
	}))
	assert.Equal(t, []string{merge, main, base}, firstParents)
}

func TestRemote(t *testing.T) {
	t.Parallel()
	scaffold := gittest.ScaffoldRepository(t)
	repository := scaffold.Open(t)
	ctx := context.Background()

	_, err := repository.RemoteBranch(ctx, "nope", gittest.DefaultBranch)
	assert.ErrorIs(t, err, git.ErrRemoteNotFound)
	_, err = repository.RemoteBranch(ctx, gittest.DefaultRemote, gittest.DefaultBranch)
	assert.ErrorIs(t, err, git.ErrRefNotFound)

	require.NoError(t, repository.Push(ctx, gittest.DefaultRemote, gittest.DefaultBranch))
	head, err := repository.ResolveRef(ctx, "HEAD")
	require.NoError(t, err)
	remoteID, err := repository.RemoteBranch(ctx, gittest.DefaultRemote, gittest.DefaultBranch)
	require.NoError(t, err)
	assert.Equal(t, head, remoteID)

	clone := scaffold.Clone(t).Open(t)
	fetched, err := clone.Fetch(ctx, gittest.DefaultRemote, gittest.DefaultBranch)
	require.NoError(t, err)
	assert.Equal(t, head, fetched)
	tracking, err := clone.ResolveRef(ctx, git.RemoteRefForBranch(gittest.DefaultRemote, gittest.DefaultBranch))
	require.NoError(t, err)
	assert.Equal(t, head, tracking)
}

func evalSymlinks(t *testing.T, path string) string {
	resolved, err := filepath.EvalSymlinks(path)
	require.NoError(t, err)
	return resolved
}
