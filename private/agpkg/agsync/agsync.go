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

// Package agsync exchanges the tracking branch with a remote.
//
// Sync only ever fast-forwards. When the local and the remote tracking
// branch have both moved, the branches must be merged by hand.
package agsync

import (
	"context"
	"errors"
	"fmt"

	"github.com/agtrack/ag/private/agpkg/agstore"
	"github.com/agtrack/ag/private/pkg/filelock"
	"github.com/agtrack/ag/private/pkg/git"
	"github.com/agtrack/ag/private/pkg/git/object"
	"github.com/agtrack/ag/private/pkg/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	// ActionNone means both branches were equal, or neither existed.
	ActionNone Action = iota + 1
	// ActionPushed means the local branch was pushed to the remote.
	ActionPushed
	// ActionCreated means the local branch was created from the remote.
	ActionCreated
	// ActionFastForwarded means the local branch was moved to the remote.
	ActionFastForwarded
)

var actionToString = map[Action]string{
	ActionNone:          "up to date",
	ActionPushed:        "pushed",
	ActionCreated:       "created from remote",
	ActionFastForwarded: "fast-forwarded",
}

// Action is what Sync did.
type Action int

// String implements fmt.Stringer.
func (a Action) String() string {
	s, ok := actionToString[a]
	if !ok {
		return fmt.Sprintf("%d", a)
	}
	return s
}

// Result is the outcome of Sync.
type Result struct {
	Action Action
	// Local is the local tip after Sync, or zero if there is none.
	Local object.ID
	// Remote is the remote tip after Sync, or zero if there is none.
	Remote object.ID
}

// ConflictError is returned when the local and the remote tracking branch
// have diverged.
type ConflictError struct {
	Branch string
	Remote string
	// LocalAhead is the number of commits only the local branch has.
	LocalAhead int
	// RemoteAhead is the number of commits only the remote branch has.
	RemoteAhead int
}

// Error implements error.
func (e *ConflictError) Error() string {
	return fmt.Sprintf(
		"%s has diverged from %s (%d local and %d remote commits), merge %s into %s by hand and sync again",
		e.Branch,
		e.Remote,
		e.LocalAhead,
		e.RemoteAhead,
		git.RemoteRefForBranch(e.Remote, e.Branch),
		e.Branch,
	)
}

// Syncer syncs the tracking branch.
type Syncer interface {
	// Sync brings the local and the remote tracking branch to the same
	// commit, if one is an ancestor of the other.
	//
	// Returns a *ConflictError if they have diverged.
	Sync(ctx context.Context, remote string) (*Result, error)
}

// NewSyncer returns a new Syncer for the tracking branch.
func NewSyncer(logger *zap.Logger, repository git.Repository, branch string, options ...SyncerOption) Syncer {
	return newSyncer(logger, repository, branch, options...)
}

// SyncerOption is an option for NewSyncer.
type SyncerOption func(*syncer)

// SyncerWithTracer returns a new SyncerOption that sets the tracer.
func SyncerWithTracer(tracer tracing.Tracer) SyncerOption {
	return func(syncer *syncer) {
		syncer.tracer = tracer
	}
}

type syncer struct {
	logger     *zap.Logger
	repository git.Repository
	branch     string
	tracer     tracing.Tracer
}

func newSyncer(logger *zap.Logger, repository git.Repository, branch string, options ...SyncerOption) *syncer {
	syncer := &syncer{
		logger:     logger.Named("agsync"),
		repository: repository,
		branch:     branch,
		tracer:     tracing.NopTracer,
	}
	for _, option := range options {
		option(syncer)
	}
	return syncer
}

func (s *syncer) Sync(ctx context.Context, remote string) (_ *Result, retErr error) {
	ctx, span := s.tracer.Start(
		ctx,
		"sync",
		tracing.WithErr(&retErr),
		tracing.WithAttributes(attribute.String("remote", remote)),
	)
	defer span.End()
	unlocker, err := filelock.Lock(ctx, agstore.LockPath(s.repository))
	if err != nil {
		return nil, err
	}
	defer func() {
		retErr = multierr.Append(retErr, unlocker.Unlock())
	}()

	ref := git.RefForBranch(s.branch)
	localID, err := resolveOptional(func() (object.ID, error) {
		return s.repository.ResolveRef(ctx, ref)
	})
	if err != nil {
		return nil, err
	}
	remoteID, err := resolveOptional(func() (object.ID, error) {
		return s.repository.RemoteBranch(ctx, remote, s.branch)
	})
	if err != nil {
		return nil, err
	}
	if !remoteID.IsZero() {
		remoteID, err = s.repository.Fetch(ctx, remote, s.branch)
		if err != nil {
			return nil, err
		}
	}
	result := &Result{
		Local:  localID,
		Remote: remoteID,
	}
	switch {
	case localID.IsZero() && remoteID.IsZero():
		result.Action = ActionNone
	case remoteID.IsZero():
		if err := s.repository.Push(ctx, remote, s.branch); err != nil {
			return nil, err
		}
		result.Action = ActionPushed
		result.Remote = localID
	case localID.IsZero():
		if err := s.repository.UpdateRef(ctx, ref, remoteID, object.ZeroID, "ag: sync from "+remote); err != nil {
			return nil, err
		}
		result.Action = ActionCreated
		result.Local = remoteID
	case localID == remoteID:
		result.Action = ActionNone
	default:
		remoteBehind, err := s.repository.IsAncestor(ctx, remoteID, localID)
		if err != nil {
			return nil, err
		}
		if remoteBehind {
			if err := s.repository.Push(ctx, remote, s.branch); err != nil {
				return nil, err
			}
			result.Action = ActionPushed
			result.Remote = localID
			break
		}
		localBehind, err := s.repository.IsAncestor(ctx, localID, remoteID)
		if err != nil {
			return nil, err
		}
		if !localBehind {
			localAhead, remoteAhead, err := s.repository.CountDivergence(ctx, localID, remoteID)
			if err != nil {
				return nil, err
			}
			return nil, &ConflictError{
				Branch:      s.branch,
				Remote:      remote,
				LocalAhead:  localAhead,
				RemoteAhead: remoteAhead,
			}
		}
		if err := s.repository.UpdateRef(ctx, ref, remoteID, localID, "ag: sync from "+remote); err != nil {
			return nil, err
		}
		result.Action = ActionFastForwarded
		result.Local = remoteID
	}
	s.logger.Debug(
		"sync",
		zap.String("remote", remote),
		zap.Stringer("action", result.Action),
		zap.String("local", result.Local.String()),
		zap.String("remote_tip", result.Remote.String()),
	)
	return result, nil
}

// resolveOptional returns the zero id if resolve returns ErrRefNotFound.
func resolveOptional(resolve func() (object.ID, error)) (object.ID, error) {
	id, err := resolve()
	if err != nil {
		if errors.Is(err, git.ErrRefNotFound) {
			return object.ZeroID, nil
		}
		return "", err
	}
	return id, nil
}
