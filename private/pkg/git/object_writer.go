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
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/agtrack/ag/private/pkg/git/object"
	"go.uber.org/zap"
)

func (r *repository) WriteBlob(ctx context.Context, data []byte) (object.ID, error) {
	stdout, err := r.run(ctx, bytes.NewReader(data), "hash-object", "-w", "--stdin")
	if err != nil {
		return "", err
	}
	return object.ParseID(strings.TrimSpace(string(stdout)))
}

func (r *repository) WriteTree(ctx context.Context, tree *object.Tree) (object.ID, error) {
	data, err := tree.MarshalMktree()
	if err != nil {
		return "", err
	}
	stdout, err := r.run(ctx, bytes.NewReader(data), "mktree", "-z")
	if err != nil {
		return "", err
	}
	return object.ParseID(strings.TrimSpace(string(stdout)))
}

func (r *repository) WriteCommit(ctx context.Context, commit CommitSpec) (object.ID, error) {
	if commit.Tree.IsZero() {
		return "", errors.New("commit has no tree")
	}
	args := []string{"commit-tree", "--no-gpg-sign", commit.Tree.String()}
	for _, parent := range commit.Parents {
		args = append(args, "-p", parent.String())
	}
	args = append(args, "-F", "-")
	env := map[string]string{
		"GIT_AUTHOR_NAME":     commit.Author.Name,
		"GIT_AUTHOR_EMAIL":    commit.Author.Email,
		"GIT_AUTHOR_DATE":     commit.Author.Date(),
		"GIT_COMMITTER_NAME":  commit.Committer.Name,
		"GIT_COMMITTER_EMAIL": commit.Committer.Email,
		"GIT_COMMITTER_DATE":  commit.Committer.Date(),
	}
	stdout, err := r.runWithEnv(ctx, env, strings.NewReader(commit.Message), args...)
	if err != nil {
		return "", err
	}
	return object.ParseID(strings.TrimSpace(string(stdout)))
}

func (r *repository) UpdateRef(
	ctx context.Context,
	ref string,
	newID object.ID,
	oldID object.ID,
	reason string,
) error {
	if oldID.IsZero() {
		oldID = object.ZeroID
	}
	if _, err := r.run(ctx, nil, "update-ref", "-m", reason, ref, newID.String(), oldID.String()); err != nil {
		// Tell a lost race apart from any other failure.
		currentID, resolveErr := r.ResolveRef(ctx, ref)
		switch {
		case errors.Is(resolveErr, ErrRefNotFound) && oldID != object.ZeroID:
			return fmt.Errorf("%s: %w", ref, ErrStaleRef)
		case resolveErr == nil && currentID != oldID:
			return fmt.Errorf("%s is at %s, expected %s: %w", ref, currentID.Short(), oldID.Short(), ErrStaleRef)
		}
		return err
	}
	r.logger.Debug(
		"update_ref",
		zap.String("ref", ref),
		zap.String("old", oldID.String()),
		zap.String("new", newID.String()),
	)
	return nil
}
