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

package gittest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/agtrack/ag/private/pkg/command"
)

type gitCmdOpts struct {
	bare bool
}

// GitCmdOption is an option for NewGitCmd.
type GitCmdOption func(*gitCmdOpts)

// GitCmdInitBare returns a new GitCmdOption that initializes a bare
// repository instead of one with a work tree.
func GitCmdInitBare() GitCmdOption {
	return func(opts *gitCmdOpts) {
		opts.bare = true
	}
}

// GitCmd runs git against one test repository and fails the test on error.
type GitCmd struct {
	t       testing.TB
	runner  command.Runner
	gitdir  string
	workdir string
	timeout time.Duration
	env     map[string]string
}

// NewGitCmd initializes a repository in dir with DefaultBranch checked out.
func NewGitCmd(
	t testing.TB,
	runner command.Runner,
	env map[string]string,
	dir string,
	options ...GitCmdOption,
) *GitCmd {
	var opts gitCmdOpts
	for _, option := range options {
		option(&opts)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("NewGitCmd: %s", err)
	}
	git := &GitCmd{
		t:       t,
		runner:  runner,
		timeout: 10 * time.Second,
		env:     env,
	}
	if opts.bare {
		git.gitdir = dir
		git.Cmd("init", "--quiet", "--bare")
	} else {
		git.gitdir = filepath.Join(dir, ".git")
		git.workdir = dir
		git.Cmd("init", "--quiet")
	}
	git.Cmd("symbolic-ref", "HEAD", "refs/heads/"+DefaultBranch)
	git.Cmd("config", "user.name", TestUserName)
	git.Cmd("config", "user.email", TestUserEmail)
	git.Cmd("config", "commit.gpgsign", "false")
	return git
}

// Dir returns the work tree, or the git dir of a bare repository.
func (g *GitCmd) Dir() string {
	if g.workdir != "" {
		return g.workdir
	}
	return g.gitdir
}

// GitDir returns the git dir.
func (g *GitCmd) GitDir() string {
	return g.gitdir
}

// Env returns a copy of the GitCmd that runs with extra environment
// variables.
func (g *GitCmd) Env(env map[string]string) *GitCmd {
	git := *g
	git.env = make(map[string]string, len(g.env)+len(env))
	for key, value := range g.env {
		git.env[key] = value
	}
	for key, value := range env {
		git.env[key] = value
	}
	return &git
}

// Cmd runs git with args and returns its trimmed stdout.
func (g *GitCmd) Cmd(args ...string) string {
	g.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), g.timeout)
	defer cancel()
	var stdout strings.Builder
	var stderr strings.Builder
	if err := g.runner.Run(
		ctx,
		"git",
		command.RunWithArgs(args...),
		command.RunWithEnv(g.cmdEnv()),
		command.RunWithDir(g.Dir()),
		command.RunWithStdout(&stdout),
		command.RunWithStderr(&stderr),
	); err != nil {
		g.t.Fatalf("`git %s`: %s: %s", strings.Join(args, " "), err, stderr.String())
	}
	return strings.TrimSpace(stdout.String())
}

func (g *GitCmd) cmdEnv() map[string]string {
	env := make(map[string]string, len(g.env)+2)
	for key, value := range g.env {
		env[key] = value
	}
	env["GIT_DIR"] = g.gitdir
	if g.workdir != "" {
		env["GIT_WORK_TREE"] = g.workdir
	}
	return env
}
