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
	"fmt"
	"strconv"
	"strings"

	"github.com/agtrack/ag/private/pkg/command"
	"github.com/agtrack/ag/private/pkg/git/object"
)

func (r *repository) IsAncestor(ctx context.Context, ancestor object.ID, descendant object.ID) (bool, error) {
	if _, err := r.run(ctx, nil, "merge-base", "--is-ancestor", ancestor.String(), descendant.String()); err != nil {
		if exitCode, ok := command.ExitCode(err); ok && exitCode == 1 {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *repository) CountDivergence(ctx context.Context, left object.ID, right object.ID) (int, int, error) {
	stdout, err := r.run(ctx, nil, "rev-list", "--left-right", "--count", left.String()+"..."+right.String())
	if err != nil {
		return 0, 0, err
	}
	fields := strings.Fields(string(stdout))
	if len(fields) != 2 {
		return 0, 0, fmt.Errorf("git rev-list: unexpected output %q", string(stdout))
	}
	leftCount, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, 0, err
	}
	rightCount, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, 0, err
	}
	return leftCount, rightCount, nil
}

func (r *repository) RemoteBranch(ctx context.Context, remote string, branch string) (object.ID, error) {
	if err := r.checkRemote(ctx, remote); err != nil {
		return "", err
	}
	ref := RefForBranch(branch)
	stdout, err := r.run(ctx, nil, "ls-remote", "--heads", remote, ref)
	if err != nil {
		return "", err
	}
	for _, line := range trimmedLines(stdout) {
		fields := strings.Fields(line)
		if len(fields) == 2 && fields[1] == ref {
			return object.ParseID(fields[0])
		}
	}
	return "", fmt.Errorf("%s on %s: %w", branch, remote, ErrRefNotFound)
}

func (r *repository) Fetch(ctx context.Context, remote string, branch string) (object.ID, error) {
	if err := r.checkRemote(ctx, remote); err != nil {
		return "", err
	}
	remoteRef := RemoteRefForBranch(remote, branch)
	refspec := "+" + RefForBranch(branch) + ":" + remoteRef
	if _, err := r.run(ctx, nil, "fetch", "--quiet", "--no-tags", remote, refspec); err != nil {
		return "", err
	}
	return r.ResolveRef(ctx, remoteRef)
}

func (r *repository) Push(ctx context.Context, remote string, branch string) error {
	if err := r.checkRemote(ctx, remote); err != nil {
		return err
	}
	ref := RefForBranch(branch)
	_, err := r.run(ctx, nil, "push", "--quiet", "--no-verify", remote, ref+":"+ref)
	return err
}

func (r *repository) checkRemote(ctx context.Context, remote string) error {
	if _, err := r.run(ctx, nil, "remote", "get-url", remote); err != nil {
		if _, ok := command.ExitCode(err); ok {
			return fmt.Errorf("%q: %w", remote, ErrRemoteNotFound)
		}
		return err
	}
	return nil
}
