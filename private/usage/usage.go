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

// Package usage guards the private packages of ag.
//
// Importing it panics at init when the main module of the binary is not
// part of github.com/agtrack.
package usage

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
)

const (
	modulePrefix = "github.com/agtrack/"

	testSuffix = ".test"
	debugBin   = "__debug_bin"
)

func init() {
	if err := check(os.Args[0]); err != nil {
		panic(err.Error())
	}
}

func check(binaryPath string) error {
	buildInfo, ok := debug.ReadBuildInfo()
	if !ok || buildInfo.Main.Path == "" {
		if shouldSkip(binaryPath) {
			return nil
		}
		return fmt.Errorf("%sag/private code must only be imported by %s projects", modulePrefix, strings.TrimSuffix(modulePrefix, "/"))
	}
	return checkMainPath(buildInfo.Main.Path)
}

func checkMainPath(mainPath string) error {
	if !strings.HasPrefix(mainPath+"/", modulePrefix) {
		return fmt.Errorf("%sag/private code must only be imported by %s projects but was used in %s", modulePrefix, strings.TrimSuffix(modulePrefix, "/"), mainPath)
	}
	return nil
}

// shouldSkip returns true for test binaries and debugger builds, which do
// not always carry build info.
func shouldSkip(binaryPath string) bool {
	return strings.HasSuffix(binaryPath, testSuffix) || filepath.Base(binaryPath) == debugBin
}
