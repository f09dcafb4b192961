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

package git

import (
	"context"
	"errors"

	"github.com/agtrack/ag/private/pkg/git/object"
)

// ForEachFirstParent calls f for start and each of its first parents,
// newest first, until the root commit is reached.
//
// The walk stops without error when f returns ErrStopWalk.
func ForEachFirstParent(
	ctx context.Context,
	reader ObjectReader,
	start object.ID,
	f func(*object.Commit) error,
) error {
	next := start
	for !next.IsZero() {
		if err := ctx.Err(); err != nil {
			return err
		}
		commit, err := reader.Commit(next)
		if err != nil {
			return err
		}
		if err := f(commit); err != nil {
			if errors.Is(err, ErrStopWalk) {
				return nil
			}
			return err
		}
		// Only the first parent is followed, so the commits brought into a
		// branch by a merge are not visited.
		next = commit.FirstParent()
	}
	return nil
}

// ForEachReachable calls f once for every commit reachable from start over
// all parents, skipping commits already present in visited. Visited commits
// are added to visited, so one set can be shared between walks from several
// start points.
//
// The walk stops without error when f returns ErrStopWalk.
func ForEachReachable(
	ctx context.Context,
	reader ObjectReader,
	start object.ID,
	visited map[object.ID]struct{},
	f func(*object.Commit) error,
) error {
	stack := []object.ID{start}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := visited[id]; ok {
			continue
		}
		visited[id] = struct{}{}
		commit, err := reader.Commit(id)
		if err != nil {
			return err
		}
		if err := f(commit); err != nil {
			if errors.Is(err, ErrStopWalk) {
				return nil
			}
			return err
		}
		for i := len(commit.Parents) - 1; i >= 0; i-- {
			if _, ok := visited[commit.Parents[i]]; !ok {
				stack = append(stack, commit.Parents[i])
			}
		}
	}
	return nil
}
