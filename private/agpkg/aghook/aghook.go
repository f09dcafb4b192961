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

// Package aghook installs and implements the prepare-commit-msg hook that
// tags commits on topic branches with the id of the record they work on.
package aghook

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"

	"github.com/agtrack/ag/private/agpkg/agid"
)

// HookName is the name of the installed hook.
const HookName = "prepare-commit-msg"

// Script is the content of the installed hook. It runs ag if it is
// installed and does nothing otherwise.
const Script = `#!/bin/sh
# Installed by ag. Prefixes commit messages on topic branches with the id of
# the issue the branch works on.
if command -v ag >/dev/null 2>&1; then
	exec ag hook prepare-commit-msg "$@"
fi
exit 0
`

var taggedPattern = regexp.MustCompile(`^\[[a-z]{2}[0-9]{4}\]`)

// EnsureInstalled writes the hook into the hooks directory of gitDir unless
// a hook with the same name is already present.
//
// Returns true if the hook was written.
func EnsureInstalled(gitDir string) (bool, error) {
	hooksDir := filepath.Join(gitDir, "hooks")
	hookPath := filepath.Join(hooksDir, HookName)
	if _, err := os.Stat(hookPath); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, err
	}
	if err := os.MkdirAll(hooksDir, 0o755); err != nil {
		return false, err
	}
	if err := os.WriteFile(hookPath, []byte(Script), 0o755); err != nil {
		return false, err
	}
	// WriteFile applies the umask.
	return true, os.Chmod(hookPath, 0o755)
}

// BranchID returns the id a topic branch works on. Topic branches are named
// after the slug of the record, as in "ab1234-fix-the-parser".
func BranchID(branch string) (string, bool) {
	return agid.FromPrefix(branch)
}

// PrepareMessage returns message prefixed with the id the branch works on.
//
// source is the second argument git passes to the hook. Messages of merges,
// squashes and amended commits are returned unchanged, as are messages that
// are already tagged.
func PrepareMessage(branch string, message string, source string) string {
	switch source {
	case "merge", "squash", "commit":
		return message
	}
	id, ok := BranchID(branch)
	if !ok || taggedPattern.MatchString(message) {
		return message
	}
	return "[" + id + "] " + message
}
