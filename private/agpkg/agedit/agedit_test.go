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

package agedit

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/agtrack/ag/private/pkg/command"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestEdit(t *testing.T) {
	t.Parallel()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not found")
	}
	pathFile := filepath.Join(t.TempDir(), "path")
	// The editor appends a line and records which file it was given.
	editorCommand := `f() { echo "Added line" >> "$1"; echo "$1" > ` + pathFile + `; }; f`
	editor := NewEditor(
		zaptest.NewLogger(t),
		command.NewRunner(),
		editorCommand,
		map[string]string{"PATH": os.Getenv("PATH")},
		nil,
		nil,
		nil,
	)
	text, err := editor.Edit(context.Background(), "Summary: \n")
	require.NoError(t, err)
	assert.Equal(t, "Summary: \nAdded line\n", text)

	scratchPath, err := os.ReadFile(pathFile)
	require.NoError(t, err)
	_, err = os.Stat(strings.TrimSpace(string(scratchPath)))
	assert.True(t, os.IsNotExist(err))
}

func TestEditFailure(t *testing.T) {
	t.Parallel()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not found")
	}
	editor := NewEditor(
		zaptest.NewLogger(t),
		command.NewRunner(),
		"exit 3;",
		map[string]string{"PATH": os.Getenv("PATH")},
		nil,
		nil,
		nil,
	)
	_, err := editor.Edit(context.Background(), "Summary: \n")
	require.Error(t, err)
	exitCode, ok := command.ExitCode(err)
	assert.True(t, ok)
	assert.Equal(t, 3, exitCode)
}
