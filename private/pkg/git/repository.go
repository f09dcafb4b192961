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
	"io"
	"sort"
	"strings"

	"github.com/agtrack/ag/private/pkg/command"
	"github.com/agtrack/ag/private/pkg/git/object"
	"go.uber.org/zap"
)

type openRepositoryOptions struct {
	logger *zap.Logger
}

type repository struct {
	logger       *zap.Logger
	runner       command.Runner
	env          map[string]string
	gitDir       string
	workTree     string
	objectReader *objectReader
}

func openRepository(
	ctx context.Context,
	runner command.Runner,
	env map[string]string,
	dir string,
	options ...OpenRepositoryOption,
) (*repository, error) {
	opts := &openRepositoryOptions{
		logger: zap.NewNop(),
	}
	for _, option := range options {
		option(opts)
	}
	stdout, err := command.RunStdout(
		ctx,
		runner,
		env,
		dir,
		nil,
		gitCommand,
		"rev-parse",
		"--absolute-git-dir",
		"--is-bare-repository",
	)
	if err != nil {
		if _, ok := command.ExitCode(err); ok {
			return nil, fmt.Errorf("%s: %w", dir, ErrNotRepository)
		}
		return nil, err
	}
	lines := strings.Split(strings.TrimSpace(string(stdout)), "\n")
	if len(lines) != 2 {
		return nil, fmt.Errorf("git rev-parse: unexpected output %q", string(stdout))
	}
	gitDir := strings.TrimSpace(lines[0])
	var workTree string
	if strings.TrimSpace(lines[1]) != "true" {
		stdout, err := command.RunStdout(ctx, runner, env, dir, nil, gitCommand, "rev-parse", "--show-toplevel")
		if err != nil {
			return nil, err
		}
		workTree = strings.TrimSpace(string(stdout))
	}
	repository := &repository{
		logger:   opts.logger,
		runner:   runner,
		gitDir:   gitDir,
		workTree: workTree,
	}
	repository.env = repository.gitEnv(env)
	reader, err := newObjectReader(runner, repository.env)
	if err != nil {
		return nil, err
	}
	repository.objectReader = reader
	opts.logger.Debug("open_repository", zap.String("git_dir", gitDir), zap.String("work_tree", workTree))
	return repository, nil
}

func (r *repository) GitDir() string {
	return r.gitDir
}

func (r *repository) WorkTree() string {
	return r.workTree
}

func (r *repository) Objects() ObjectReader {
	return r.objectReader
}

func (r *repository) Close() error {
	return r.objectReader.close()
}

func (r *repository) ResolveRef(ctx context.Context, ref string) (object.ID, error) {
	stdout, err := r.run(ctx, nil, "rev-parse", "--verify", "--quiet", ref+"^{commit}")
	if err != nil {
		if exitCode, ok := command.ExitCode(err); ok && exitCode == 1 {
			return "", fmt.Errorf("%s: %w", ref, ErrRefNotFound)
		}
		return "", err
	}
	return object.ParseID(strings.TrimSpace(string(stdout)))
}

func (r *repository) ForEachBranch(ctx context.Context, f func(string, object.ID) error) error {
	stdout, err := r.run(ctx, nil, "for-each-ref", "--format=%(objectname) %(refname)", headsPrefix)
	if err != nil {
		return err
	}
	type branchAndID struct {
		branch string
		id     object.ID
	}
	var branches []branchAndID
	for _, line := range strings.Split(string(stdout), "\n") {
		if line == "" {
			continue
		}
		hex, ref, found := strings.Cut(line, " ")
		if !found {
			return fmt.Errorf("git for-each-ref: malformed line %q", line)
		}
		id, err := object.ParseID(hex)
		if err != nil {
			return err
		}
		branches = append(branches, branchAndID{
			branch: strings.TrimPrefix(ref, headsPrefix),
			id:     id,
		})
	}
	sort.Slice(branches, func(i, j int) bool {
		return branches[i].branch < branches[j].branch
	})
	for _, branch := range branches {
		if err := f(branch.branch, branch.id); err != nil {
			return err
		}
	}
	return nil
}

func (r *repository) CurrentBranch(ctx context.Context) (string, error) {
	stdout, err := r.run(ctx, nil, "symbolic-ref", "--quiet", "HEAD")
	if err != nil {
		// Detached.
		if exitCode, ok := command.ExitCode(err); ok && exitCode == 1 {
			return "", nil
		}
		return "", err
	}
	return strings.TrimPrefix(strings.TrimSpace(string(stdout)), headsPrefix), nil
}

func (r *repository) Checkout(ctx context.Context, branch string, create bool) error {
	if r.workTree == "" {
		return errors.New("cannot check out a branch in a bare repository")
	}
	args := []string{"checkout"}
	if create {
		args = append(args, "-b")
	}
	args = append(args, branch)
	_, err := r.run(ctx, nil, args...)
	return err
}

func (r *repository) ConfigValue(ctx context.Context, key string) (string, error) {
	stdout, err := r.run(ctx, nil, "config", "--get", key)
	if err != nil {
		if exitCode, ok := command.ExitCode(err); ok && exitCode == 1 {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(string(stdout)), nil
}

func (r *repository) run(ctx context.Context, stdin io.Reader, args ...string) ([]byte, error) {
	r.logger.Debug("git", zap.Strings("args", args))
	stdout, err := command.RunStdout(ctx, r.runner, r.env, r.dir(), stdin, gitCommand, args...)
	if err != nil {
		return nil, fmt.Errorf("git %s: %w", args[0], err)
	}
	return stdout, nil
}

func (r *repository) runWithEnv(ctx context.Context, env map[string]string, stdin io.Reader, args ...string) ([]byte, error) {
	merged := make(map[string]string, len(r.env)+len(env))
	for key, value := range r.env {
		merged[key] = value
	}
	for key, value := range env {
		merged[key] = value
	}
	r.logger.Debug("git", zap.Strings("args", args))
	stdout, err := command.RunStdout(ctx, r.runner, merged, r.dir(), stdin, gitCommand, args...)
	if err != nil {
		return nil, fmt.Errorf("git %s: %w", args[0], err)
	}
	return stdout, nil
}

func (r *repository) dir() string {
	if r.workTree != "" {
		return r.workTree
	}
	return r.gitDir
}

func (r *repository) gitEnv(env map[string]string) map[string]string {
	gitEnv := make(map[string]string, len(env)+2)
	for key, value := range env {
		gitEnv[key] = value
	}
	gitEnv["GIT_DIR"] = r.gitDir
	if r.workTree != "" {
		gitEnv["GIT_WORK_TREE"] = r.workTree
	} else {
		delete(gitEnv, "GIT_WORK_TREE")
	}
	return gitEnv
}

func trimmedLines(data []byte) []string {
	var lines []string
	for _, line := range bytes.Split(data, []byte{'\n'}) {
		if trimmed := strings.TrimSpace(string(line)); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return lines
}
