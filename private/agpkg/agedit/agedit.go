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

// Package agedit edits text with the user's editor.
package agedit

import (
	"context"
	"fmt"
	"io"

	"github.com/agtrack/ag/private/pkg/command"
	"github.com/agtrack/ag/private/pkg/tmp"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Editor edits text.
type Editor interface {
	// Edit writes text to a scratch file, runs the editor on it and returns
	// the content of the file once the editor exits.
	//
	// The scratch file is removed before Edit returns.
	Edit(ctx context.Context, text string) (string, error)
}

// NewEditor returns a new Editor running editorCommand.
//
// editorCommand is run by the shell with the path of the scratch file
// appended, so it may contain arguments. The editor is attached to stdin,
// stdout and stderr, and runs with env.
func NewEditor(
	logger *zap.Logger,
	runner command.Runner,
	editorCommand string,
	env map[string]string,
	stdin io.Reader,
	stdout io.Writer,
	stderr io.Writer,
) Editor {
	return &editor{
		logger:        logger.Named("agedit"),
		runner:        runner,
		editorCommand: editorCommand,
		env:           env,
		stdin:         stdin,
		stdout:        stdout,
		stderr:        stderr,
	}
}

type editor struct {
	logger        *zap.Logger
	runner        command.Runner
	editorCommand string
	env           map[string]string
	stdin         io.Reader
	stdout        io.Writer
	stderr        io.Writer
}

func (e *editor) Edit(ctx context.Context, text string) (_ string, retErr error) {
	file, err := tmp.NewFileWithData([]byte(text), ".txt")
	if err != nil {
		return "", err
	}
	defer func() {
		retErr = multierr.Append(retErr, file.Close())
	}()
	e.logger.Debug("edit", zap.String("editor", e.editorCommand), zap.String("path", file.AbsPath()))
	// The same invocation as git uses for core.editor.
	if err := e.runner.Run(
		ctx,
		"sh",
		command.RunWithArgs("-c", e.editorCommand+` "$@"`, e.editorCommand, file.AbsPath()),
		command.RunWithEnv(e.env),
		command.RunWithStdin(e.stdin),
		command.RunWithStdout(e.stdout),
		command.RunWithStderr(e.stderr),
	); err != nil {
		return "", fmt.Errorf("editor %q failed: %w", e.editorCommand, err)
	}
	data, err := file.ReadAll()
	if err != nil {
		return "", err
	}
	return string(data), nil
}
