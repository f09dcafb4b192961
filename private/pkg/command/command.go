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
	"io"
)

// Runner runs external commands.
//
// A Runner explicitly sets stdin, stdout, stderr, and env to empty values
// if not set with options.
//
// All external commands in ag MUST use command.Runner instead of
// exec.Command, exec.CommandContext.
type Runner interface {
	// Run runs the external command.
	//
	// This should be used instead of exec.CommandContext(...).Run().
	Run(ctx context.Context, name string, options ...RunOption) error
	// Start starts the external command without waiting for it to exit.
	//
	// The returned Process must be waited on.
	Start(name string, options ...StartOption) (Process, error)
}

// Process is a started external command.
type Process interface {
	// Wait waits for the process to exit.
	//
	// If ctx is done before the process exits, the process is killed.
	Wait(ctx context.Context) error
}

// RunOption is an option for Run.
type RunOption func(*execOptions)

// RunWithArgs returns a new RunOption that sets the arguments other
// than the name.
//
// The default is no arguments.
func RunWithArgs(args ...string) RunOption {
	return func(execOptions *execOptions) {
		execOptions.args = args
	}
}

// RunWithEnv returns a new RunOption that sets the environment variables.
//
// The default is to use the single environment variable __EMPTY_ENV__=1 as we
// cannot explicitly set an empty environment with the exec package.
func RunWithEnv(env map[string]string) RunOption {
	return func(execOptions *execOptions) {
		execOptions.env = env
	}
}

// RunWithStdin returns a new RunOption that sets the stdin.
//
// The default is an empty reader.
func RunWithStdin(stdin io.Reader) RunOption {
	return func(execOptions *execOptions) {
		execOptions.stdin = stdin
	}
}

// RunWithStdout returns a new RunOption that sets the stdout.
//
// The default is io.Discard.
func RunWithStdout(stdout io.Writer) RunOption {
	return func(execOptions *execOptions) {
		execOptions.stdout = stdout
	}
}

// RunWithStderr returns a new RunOption that sets the stderr.
//
// The default is io.Discard.
func RunWithStderr(stderr io.Writer) RunOption {
	return func(execOptions *execOptions) {
		execOptions.stderr = stderr
	}
}

// RunWithDir returns a new RunOption that sets the working directory.
//
// The default is the current working directory.
func RunWithDir(dir string) RunOption {
	return func(execOptions *execOptions) {
		execOptions.dir = dir
	}
}

// StartOption is an option for Start.
type StartOption func(*execOptions)

// StartWithArgs returns a new StartOption that sets the arguments other
// than the name.
func StartWithArgs(args ...string) StartOption {
	return func(execOptions *execOptions) {
		execOptions.args = args
	}
}

// StartWithEnv returns a new StartOption that sets the environment variables.
func StartWithEnv(env map[string]string) StartOption {
	return func(execOptions *execOptions) {
		execOptions.env = env
	}
}

// StartWithStdin returns a new StartOption that sets the stdin.
func StartWithStdin(stdin io.Reader) StartOption {
	return func(execOptions *execOptions) {
		execOptions.stdin = stdin
	}
}

// StartWithStdout returns a new StartOption that sets the stdout.
func StartWithStdout(stdout io.Writer) StartOption {
	return func(execOptions *execOptions) {
		execOptions.stdout = stdout
	}
}

// StartWithStderr returns a new StartOption that sets the stderr.
func StartWithStderr(stderr io.Writer) StartOption {
	return func(execOptions *execOptions) {
		execOptions.stderr = stderr
	}
}

// StartWithDir returns a new StartOption that sets the working directory.
func StartWithDir(dir string) StartOption {
	return func(execOptions *execOptions) {
		execOptions.dir = dir
	}
}

// NewRunner returns a new Runner.
func NewRunner() Runner {
	return newRunner()
}

// RunStdout is a convenience function that runs the command with the given
// environment and returns the stdout as a byte slice.
//
// Stderr is included in the returned error if the command fails.
func RunStdout(
	ctx context.Context,
	runner Runner,
	env map[string]string,
	dir string,
	stdin io.Reader,
	name string,
	args ...string,
) ([]byte, error) {
	stdout := bytes.NewBuffer(nil)
	stderr := bytes.NewBuffer(nil)
	if err := runner.Run(
		ctx,
		name,
		RunWithArgs(args...),
		RunWithEnv(env),
		RunWithDir(dir),
		RunWithStdin(stdin),
		RunWithStdout(stdout),
		RunWithStderr(stderr),
	); err != nil {
		return nil, newStderrError(err, stderr.Bytes())
	}
	return stdout.Bytes(), nil
}
