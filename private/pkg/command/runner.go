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

package command

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os/exec"
	"sort"
	"strings"
)

var emptyEnv = map[string]string{
	"__EMPTY_ENV": "1",
}

type runner struct{}

func newRunner() *runner {
	return &runner{}
}

func (r *runner) Run(ctx context.Context, name string, options ...RunOption) error {
	execOptions := newExecOptions()
	for _, option := range options {
		option(execOptions)
	}
	cmd := exec.CommandContext(ctx, name, execOptions.args...)
	execOptions.applyTo(cmd)
	return cmd.Run()
}

func (r *runner) Start(name string, options ...StartOption) (Process, error) {
	execOptions := newExecOptions()
	for _, option := range options {
		option(execOptions)
	}
	cmd := exec.Command(name, execOptions.args...)
	execOptions.applyTo(cmd)
	process := newProcess(cmd)
	if err := process.start(); err != nil {
		return nil, err
	}
	return process, nil
}

type execOptions struct {
	args   []string
	env    map[string]string
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	dir    string
}

// We set the defaults after calling any options on an execOptions struct
// so that users cannot override the empty values, which would lead to the
// default stdin, stdout, stderr, and environment being used.
func newExecOptions() *execOptions {
	return &execOptions{}
}

func (o *execOptions) applyTo(cmd *exec.Cmd) {
	env := o.env
	if len(env) == 0 {
		env = emptyEnv
	}
	stdin := o.stdin
	if stdin == nil {
		stdin = bytes.NewReader(nil)
	}
	stdout := o.stdout
	if stdout == nil {
		stdout = io.Discard
	}
	stderr := o.stderr
	if stderr == nil {
		stderr = io.Discard
	}
	cmd.Env = envSlice(env)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	// The default behavior for dir is what we want already, i.e. the current
	// working directory.
	cmd.Dir = o.dir
}

// ExitCode returns the exit code of the process that produced err, and
// true if err came from a process that exited with a code.
func ExitCode(err error) (int, bool) {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), true
	}
	return 0, false
}

type stderrError struct {
	err    error
	stderr string
}

func newStderrError(err error, stderr []byte) error {
	trimmed := strings.TrimSpace(string(stderr))
	if trimmed == "" {
		return err
	}
	return &stderrError{
		err:    err,
		stderr: trimmed,
	}
}

func (e *stderrError) Error() string {
	return e.err.Error() + ": " + e.stderr
}

func (e *stderrError) Unwrap() error {
	return e.err
}

func envSlice(env map[string]string) []string {
	var environ []string
	for key, value := range env {
		environ = append(environ, key+"="+value)
	}
	sort.Strings(environ)
	return environ
}
