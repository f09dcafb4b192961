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

package agsync_test

import (
	"context"
	"errors"
	"testing"

	"github.com/agtrack/ag/private/agpkg/agrecord"
	"github.com/agtrack/ag/private/agpkg/agstore"
	"github.com/agtrack/ag/private/agpkg/agsync"
	"github.com/agtrack/ag/private/pkg/git"
	"github.com/agtrack/ag/private/pkg/git/gittest"
	"github.com/agtrack/ag/private/pkg/git/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type collaborator struct {
	repository git.Repository
	store      agstore.Store
	committer  agstore.Committer
	syncer     agsync.Syncer
}

func newCollaborator(t *testing.T, scaffold *gittest.Scaffold) *collaborator {
	logger := zaptest.NewLogger(t)
	repository := scaffold.Open(t)
	store := agstore.NewStore(logger, repository)
	return &collaborator{
		repository: repository,
		store:      store,
		committer: agstore.NewCommitter(
			logger,
			repository,
			store,
			agstore.Identity{Name: gittest.TestUserName, Email: gittest.TestUserEmail},
		),
		syncer: agsync.NewSyncer(logger, repository, agstore.DefaultBranch),
	}
}

func (c *collaborator) addIssue(t *testing.T, id string, summary string) object.ID {
	t.Helper()
	commit, err := c.committer.CommitMutation(context.Background(), agstore.Mutation{
		ID:      id,
		Type:    agrecord.TypeIssue,
		Record:  agrecord.NewIssue(id, summary, "", nil),
		Message: agstore.Message("Added issue", id, summary),
	})
	require.NoError(t, err)
	return commit.ID
}

func (c *collaborator) sync(t *testing.T, expected agsync.Action) *agsync.Result {
	t.Helper()
	result, err := c.syncer.Sync(context.Background(), gittest.DefaultRemote)
	require.NoError(t, err)
	assert.Equal(t, expected, result.Action, result.Action.String())
	return result
}

func TestSync(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	scaffold := gittest.ScaffoldRepository(t)
	alice := newCollaborator(t, scaffold)
	bob := newCollaborator(t, scaffold.Clone(t))

	// Nothing to do before the tracking branch exists.
	alice.sync(t, agsync.ActionNone)

	first := alice.addIssue(t, "ab1234", "First")
	result := alice.sync(t, agsync.ActionPushed)
	assert.Equal(t, first, result.Remote)
	alice.sync(t, agsync.ActionNone)

	result = bob.sync(t, agsync.ActionCreated)
	assert.Equal(t, first, result.Local)
	record, err := bob.store.ResolveCurrent(ctx, "ab1234")
	require.NoError(t, err)
	assert.Equal(t, "First", record.Summary())

	second := bob.addIssue(t, "cd5678", "Second")
	bob.sync(t, agsync.ActionPushed)
	result = alice.sync(t, agsync.ActionFastForwarded)
	assert.Equal(t, second, result.Local)
	_, err = alice.store.ResolveCurrent(ctx, "cd5678")
	require.NoError(t, err)

	// Both sides move.
	alice.addIssue(t, "ef9012", "Third")
	alice.addIssue(t, "ef9013", "Fourth")
	bob.addIssue(t, "gh3456", "Fifth")
	bob.sync(t, agsync.ActionPushed)
	_, err = alice.syncer.Sync(ctx, gittest.DefaultRemote)
	var conflictError *agsync.ConflictError
	require.True(t, errors.As(err, &conflictError), "%v", err)
	assert.Equal(t, 2, conflictError.LocalAhead)
	assert.Equal(t, 1, conflictError.RemoteAhead)
	assert.Equal(t, agstore.DefaultBranch, conflictError.Branch)

	// Nothing was merged or moved.
	tip, err := alice.store.Tip(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Added issue [ef9013]: Fourth", tip.Subject())
}

func TestSyncUnknownRemote(t *testing.T) {
	t.Parallel()
	scaffold := gittest.ScaffoldRepository(t)
	alice := newCollaborator(t, scaffold)
	_, err := alice.syncer.Sync(context.Background(), "upstream")
	assert.ErrorIs(t, err, git.ErrRemoteNotFound)
}
