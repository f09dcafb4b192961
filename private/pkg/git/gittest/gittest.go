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

// Package gittest scaffolds throwaway git repositories for tests that run
// against a real git binary.
package gittest

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/agtrack/ag/private/pkg/command"
	"github.com/agtrack/ag/private/pkg/git"
	"github.com/stretchr/testify/require"
)

const (
	// DefaultBranch is the branch checked out in scaffolded repositories.
	DefaultBranch = "main"
	// DefaultRemote is the name of the scaffolded bare remote.
	DefaultRemote = "origin"
	// TestUserName is the configured user.name.
	TestUserName = "Ag TestBot"
	// TestUserEmail is the configured user.email.
	TestUserEmail = "testbot@example.com"
)

// Scaffold is a local repository with one commit on DefaultBranch and a bare
// remote configured as DefaultRemote.
type Scaffold struct {
	Runner command.Runner
	// Env is the environment every git invocation runs with. HOME points at
	// a temporary directory so the user's global config is not read.
	Env    map[string]string
	Local  *GitCmd
	Remote *GitCmd
}

// SkipIfShort skips integration tests that need a git binary.
func SkipIfShort(t testing.TB) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping git integration test in short mode")
	}
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not found on PATH")
	}
}

// NewEnv returns an isolated environment for running git.
func NewEnv(t testing.TB) map[string]string {
	return map[string]string{
		"HOME":                t.TempDir(),
		"PATH":                os.Getenv("PATH"),
		"GIT_CONFIG_NOSYSTEM": "1",
		"GIT_TERMINAL_PROMPT": "0",
	}
}

// ScaffoldRepository creates the scaffold in a temporary directory.
func ScaffoldRepository(t testing.TB) *Scaffold {
	t.Helper()
	SkipIfShort(t)
	runner := command.NewRunner()
	env := NewEnv(t)
	dir := t.TempDir()
	remote := NewGitCmd(t, runner, env, filepath.Join(dir, "remote.git"), GitCmdInitBare())
	local := NewGitCmd(t, runner, env, filepath.Join(dir, "local"))
	local.Cmd("remote", "add", DefaultRemote, remote.GitDir())
	scaffold := &Scaffold{
		Runner: runner,
		Env:    env,
		Local:  local,
		Remote: remote,
	}
	scaffold.Commit(t, "initial commit", map[string]string{"README.md": "scaffold\n"})
	return scaffold
}

// Clone creates a second repository with the same remote, as a second
// collaborator would have.
func (s *Scaffold) Clone(t testing.TB) *Scaffold {
	t.Helper()
	clone := NewGitCmd(t, s.Runner, s.Env, filepath.Join(t.TempDir(), "clone"))
	clone.Cmd("remote", "add", DefaultRemote, s.Remote.GitDir())
	clone.Cmd("fetch", "--quiet", DefaultRemote)
	return &Scaffold{
		Runner: s.Runner,
		Env:    s.Env,
		Local:  clone,
		Remote: s.Remote,
	}
}

// Open opens the local repository. It is closed when the test ends.
func (s *Scaffold) Open(t testing.TB) git.Repository {
	t.Helper()
	repository, err := git.OpenRepository(context.Background(), s.Runner, s.Env, s.Local.Dir())
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, repository.Close())
	})
	return repository
}

// Commit writes files into the local work tree and commits them on the
// checked out branch.
func (s *Scaffold) Commit(t testing.TB, message string, files map[string]string) string {
	t.Helper()
	for path, content := range files {
		fullPath := filepath.Join(s.Local.Dir(), filepath.FromSlash(path))
		require.NoError(t, os.MkdirAll(filepath.Dir(fullPath), 0o755))
		require.NoError(t, os.WriteFile(fullPath, []byte(content), 0o644))
	}
	s.Local.Cmd("add", "-A")
	s.Local.Cmd("commit", "--quiet", "--allow-empty", "-m", message)
	return s.Local.Cmd("rev-parse", "HEAD")
}

// CommitAs is Commit with a different author.
func (s *Scaffold) CommitAs(t testing.TB, name string, email string, message string) string {
	t.Helper()
	s.Local.Env(map[string]string{
		"GIT_AUTHOR_NAME":  name,
		"GIT_AUTHOR_EMAIL": email,
	}).Cmd("commit", "--quiet", "--allow-empty", "-m", message)
	return s.Local.Cmd("rev-parse", "HEAD")
}
