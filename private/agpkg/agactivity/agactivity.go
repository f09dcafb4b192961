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

// Package agactivity finds the commits of ordinary branches that mention
// record ids.
//
// A commit mentions a record when its message starts with the id in
// brackets, as in "[ab1234] Fix the parser".
package agactivity

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/agtrack/ag/private/pkg/git"
	"github.com/agtrack/ag/private/pkg/git/object"
	"github.com/agtrack/ag/private/pkg/tracing"
	"go.uber.org/zap"
)

// HeadRef is the start point commits merged into the checked out branch are
// found from.
const HeadRef = "HEAD"

var tagPattern = regexp.MustCompile(`^\[([a-z]{2}[0-9]{4})\]`)

// Activity is the activity on one record.
type Activity struct {
	// Count is the number of commits mentioning the record.
	Count int
	// Authors are the commit authors as "Name <email>".
	Authors map[string]struct{}
	// TimeMin is the author time of the oldest commit.
	TimeMin time.Time
	// TimeMax is the author time of the newest commit.
	TimeMax time.Time
	// ReachableFromHead is set if at least one of the commits is reachable
	// from the head start point.
	ReachableFromHead bool
}

// Correlator finds activity on records.
type Correlator interface {
	// Correlate walks all commits reachable from head and others and
	// returns the activity per record id.
	//
	// Start points that do not resolve are skipped.
	Correlate(ctx context.Context, head string, others []string) (map[string]*Activity, error)
}

// NewCorrelator returns a new Correlator.
func NewCorrelator(logger *zap.Logger, repository git.Repository, options ...CorrelatorOption) Correlator {
	return newCorrelator(logger, repository, options...)
}

// CorrelatorOption is an option for NewCorrelator.
type CorrelatorOption func(*correlator)

// CorrelatorWithTracer returns a new CorrelatorOption that sets the tracer.
func CorrelatorWithTracer(tracer tracing.Tracer) CorrelatorOption {
	return func(correlator *correlator) {
		correlator.tracer = tracer
	}
}

// StartPoints returns HeadRef and every local branch other than the
// tracking branch.
func StartPoints(ctx context.Context, repository git.Repository, trackingBranch string) (string, []string, error) {
	var others []string
	if err := repository.ForEachBranch(ctx, func(branch string, _ object.ID) error {
		if branch != trackingBranch {
			others = append(others, git.RefForBranch(branch))
		}
		return nil
	}); err != nil {
		return "", nil, err
	}
	return HeadRef, others, nil
}

// IDFromMessage returns the id a commit message is tagged with.
func IDFromMessage(message string) (string, bool) {
	match := tagPattern.FindStringSubmatch(message)
	if match == nil {
		return "", false
	}
	return match[1], true
}

type correlator struct {
	logger     *zap.Logger
	repository git.Repository
	tracer     tracing.Tracer
}

func newCorrelator(logger *zap.Logger, repository git.Repository, options ...CorrelatorOption) *correlator {
	correlator := &correlator{
		logger:     logger.Named("agactivity"),
		repository: repository,
		tracer:     tracing.NopTracer,
	}
	for _, option := range options {
		option(correlator)
	}
	return correlator
}

func (c *correlator) Correlate(ctx context.Context, head string, others []string) (_ map[string]*Activity, retErr error) {
	ctx, span := c.tracer.Start(ctx, "correlate", tracing.WithErr(&retErr))
	defer span.End()
	activities := make(map[string]*Activity)
	visited := make(map[object.ID]struct{})
	walked := 0
	for i, startPoint := range append([]string{head}, others...) {
		fromHead := i == 0
		startID, err := c.repository.ResolveRef(ctx, startPoint)
		if err != nil {
			if errors.Is(err, git.ErrRefNotFound) {
				c.logger.Debug("start_point_not_found", zap.String("ref", startPoint))
				continue
			}
			return nil, err
		}
		if err := git.ForEachReachable(ctx, c.repository.Objects(), startID, visited, func(commit *object.Commit) error {
			walked++
			id, ok := IDFromMessage(commit.Message)
			if !ok {
				return nil
			}
			activity, ok := activities[id]
			if !ok {
				activity = &Activity{
					Authors: make(map[string]struct{}),
					TimeMin: commit.Author.Timestamp,
					TimeMax: commit.Author.Timestamp,
				}
				activities[id] = activity
			}
			activity.Count++
			activity.Authors[commit.Author.String()] = struct{}{}
			if commit.Author.Timestamp.Before(activity.TimeMin) {
				activity.TimeMin = commit.Author.Timestamp
			}
			if commit.Author.Timestamp.After(activity.TimeMax) {
				activity.TimeMax = commit.Author.Timestamp
			}
			if fromHead {
				activity.ReachableFromHead = true
			}
			return nil
		}); err != nil {
			return nil, err
		}
	}
	c.logger.Debug("correlate", zap.Int("commits", walked), zap.Int("records", len(activities)))
	return activities, nil
}
