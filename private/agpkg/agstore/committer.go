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
	"time"

	"github.com/agtrack/ag/private/agpkg/agrecord"
	"github.com/agtrack/ag/private/pkg/filelock"
	"github.com/agtrack/ag/private/pkg/git"
	"github.com/agtrack/ag/private/pkg/git/object"
	"github.com/agtrack/ag/private/pkg/syserror"
	"github.com/agtrack/ag/private/pkg/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

type committer struct {
	logger      *zap.Logger
	repository  git.Repository
	store       Store
	identity    Identity
	now         func() time.Time
	lockTimeout time.Duration
	tracer      tracing.Tracer

	// lock serializes writers in this process. The file lock serializes
	// writers in other processes.
	lock sync.Mutex
}

func newCommitter(
	logger *zap.Logger,
	repository git.Repository,
	store Store,
	identity Identity,
	options ...CommitterOption,
) *committer {
	committer := &committer{
		logger:      logger.Named("agstore"),
		repository:  repository,
		store:       store,
		identity:    identity,
		now:         time.Now,
		lockTimeout: filelock.DefaultLockTimeout,
		tracer:      tracing.NopTracer,
	}
	for _, option := range options {
		option(committer)
	}
	return committer
}

func (c *committer) CommitMutation(ctx context.Context, mutation Mutation) (_ *object.Commit, retErr error) {
	ctx, span := c.tracer.Start(
		ctx,
		"commit_mutation",
		tracing.WithErr(&retErr),
		tracing.WithAttributes(
			attribute.String("id", mutation.ID),
			attribute.String("type", mutation.Type.String()),
		),
	)
	defer span.End()
	if err := c.validate(mutation); err != nil {
		return nil, err
	}

	c.lock.Lock()
	defer c.lock.Unlock()
	unlocker, err := filelock.Lock(
		ctx,
		LockPath(c.repository),
		filelock.LockWithTimeout(c.lockTimeout),
	)
	if err != nil {
		return nil, err
	}
	defer func() {
		retErr = multierr.Append(retErr, unlocker.Unlock())
	}()

	ref := git.RefForBranch(c.store.Branch())
	parentID, err := c.repository.ResolveRef(ctx, ref)
	if err != nil {
		if !errors.Is(err, git.ErrRefNotFound) {
			return nil, err
		}
		parentID = object.ZeroID
	}
	if err := c.checkType(ctx, mutation); err != nil {
		return nil, err
	}
	var blobID object.ID
	if mutation.Record != nil {
		text := agrecord.Encode(mutation.Record, c.store.SlugResolver(ctx))
		blobID, err = c.repository.WriteBlob(ctx, []byte(text))
		if err != nil {
			return nil, err
		}
	}
	treeID, err := c.writeRoot(ctx, parentID, mutation, blobID)
	if err != nil {
		return nil, err
	}
	now := c.now()
	ident := object.Ident{
		Name:      c.identity.Name,
		Email:     c.identity.Email,
		Timestamp: now,
	}
	commitSpec := git.CommitSpec{
		Tree:      treeID,
		Author:    ident,
		Committer: ident,
		Message:   mutation.Message,
	}
	if !parentID.IsZero() {
		commitSpec.Parents = []object.ID{parentID}
	}
	commitID, err := c.repository.WriteCommit(ctx, commitSpec)
	if err != nil {
		return nil, err
	}
	if err := c.repository.UpdateRef(ctx, ref, commitID, parentID, "ag: "+mutation.Message); err != nil {
		return nil, err
	}
	c.logger.Debug(
		"commit",
		zap.String("id", mutation.ID),
		zap.String("commit", commitID.Short()),
		zap.Bool("removed", mutation.Record == nil),
	)
	return c.repository.Objects().Commit(commitID)
}

func (c *committer) validate(mutation Mutation) error {
	if c.identity.Name == "" || c.identity.Email == "" {
		return syserror.New("committer identity is not set")
	}
	if mutation.Message == "" {
		return syserror.Newf("mutation of %s has no message", mutation.ID)
	}
	if mutation.Record == nil {
		if !mutation.AllowDelete {
			return syserror.Newf("mutation of %s has no record and does not allow deletion", mutation.ID)
		}
		return nil
	}
	if mutation.Record.ID() != mutation.ID || mutation.Record.Type() != mutation.Type {
		return syserror.Newf(
			"mutation of %s %s carries %s %s",
			mutation.Type,
			mutation.ID,
			mutation.Record.Type(),
			mutation.Record.ID(),
		)
	}
	return nil
}

// checkType fails if the id is current under the other type.
func (c *committer) checkType(ctx context.Context, mutation Mutation) error {
	currentType, err := c.store.TypeOf(ctx, mutation.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}
	if currentType != mutation.Type {
		return syserror.Newf("mutation of %s %s but %s is a current %s", mutation.Type, mutation.ID, mutation.ID, currentType)
	}
	return nil
}

// writeRoot writes the root tree of the new commit. Root entries other than
// the subtree of the mutated type are carried forward from the parent.
func (c *committer) writeRoot(
	ctx context.Context,
	parentID object.ID,
	mutation Mutation,
	blobID object.ID,
) (object.ID, error) {
	reader := c.repository.Objects()
	root := &object.Tree{}
	if !parentID.IsZero() {
		parent, err := reader.Commit(parentID)
		if err != nil {
			return "", err
		}
		root, err = reader.Tree(parent.Tree)
		if err != nil {
			return "", err
		}
	}
	subtreeName := mutation.Type.String()
	subtree := &object.Tree{}
	newRoot := &object.Tree{}
	for _, entry := range root.Entries {
		if entry.Name != subtreeName {
			newRoot.Entries = append(newRoot.Entries, entry)
			continue
		}
		if entry.Mode != object.ModeDir {
			return "", syserror.Newf("%s is not a tree in commit %s", subtreeName, parentID.Short())
		}
		var err error
		subtree, err = reader.Tree(entry.ID)
		if err != nil {
			return "", err
		}
	}
	newSubtree := &object.Tree{}
	for _, entry := range subtree.Entries {
		if entry.Name != mutation.ID {
			newSubtree.Entries = append(newSubtree.Entries, entry)
		}
	}
	if !blobID.IsZero() {
		newSubtree.Entries = append(newSubtree.Entries, object.TreeEntry{
			Name: mutation.ID,
			Mode: object.ModeFile,
			ID:   blobID,
		})
	}
	if len(newSubtree.Entries) > 0 {
		subtreeID, err := c.repository.WriteTree(ctx, newSubtree)
		if err != nil {
			return "", err
		}
		newRoot.Entries = append(newRoot.Entries, object.TreeEntry{
			Name: subtreeName,
			Mode: object.ModeDir,
			ID:   subtreeID,
		})
	}
	return c.repository.WriteTree(ctx, newRoot)
}
