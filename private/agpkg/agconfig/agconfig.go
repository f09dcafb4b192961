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

// Package agconfig reads the configuration of ag.
//
// The configuration is read once at startup from git config, the
// environment, and an optional .ag.yaml at the root of the work tree:
//
//	version: v1
//	branch: _ag
//	remote: origin
//	editor: vim
package agconfig

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/agtrack/ag/private/agpkg/agstore"
	"github.com/agtrack/ag/private/pkg/encoding"
	"github.com/agtrack/ag/private/pkg/git"
)

const (
	// ExternalConfigFileName is the name of the configuration file at the
	// root of the work tree.
	ExternalConfigFileName = ".ag.yaml"
	// DefaultEditor is the editor used when none is configured.
	DefaultEditor = "nano"
	// DefaultRemote is the remote synced with when none is configured.
	DefaultRemote = "origin"

	v1 = "v1"
)

// Config is the configuration of ag.
type Config struct {
	// Identity is the author of mutations. Either field may be empty if
	// git has no user configured.
	Identity agstore.Identity
	// Editor is the command records are edited with. It may contain
	// arguments.
	Editor string
	// Branch is the tracking branch.
	Branch string
	// Remote is the remote sync exchanges the tracking branch with.
	Remote string
}

// ExternalConfig is the content of the configuration file.
type ExternalConfig struct {
	// Version must be "v1".
	Version string `json:"version,omitempty" yaml:"version,omitempty"`
	Branch  string `json:"branch,omitempty" yaml:"branch,omitempty"`
	Remote  string `json:"remote,omitempty" yaml:"remote,omitempty"`
	Editor  string `json:"editor,omitempty" yaml:"editor,omitempty"`
}

// ReadConfig reads the configuration of repository.
//
// env is the environment of the process, consulted for VISUAL and EDITOR.
func ReadConfig(ctx context.Context, repository git.Repository, env map[string]string) (*Config, error) {
	dirPath := repository.WorkTree()
	if dirPath == "" {
		dirPath = repository.GitDir()
	}
	externalConfig, err := ReadExternalConfig(dirPath)
	if err != nil {
		return nil, err
	}
	name, err := repository.ConfigValue(ctx, "user.name")
	if err != nil {
		return nil, err
	}
	email, err := repository.ConfigValue(ctx, "user.email")
	if err != nil {
		return nil, err
	}
	gitEditor, err := repository.ConfigValue(ctx, "core.editor")
	if err != nil {
		return nil, err
	}
	return NewConfig(
		agstore.Identity{Name: name, Email: email},
		externalConfig,
		firstNonEmpty(env["VISUAL"], env["EDITOR"], externalConfig.Editor, gitEditor),
	), nil
}

// NewConfig returns a new Config with defaults applied.
func NewConfig(identity agstore.Identity, externalConfig ExternalConfig, editor string) *Config {
	return &Config{
		Identity: identity,
		Editor:   firstNonEmpty(editor, DefaultEditor),
		Branch:   firstNonEmpty(externalConfig.Branch, agstore.DefaultBranch),
		Remote:   firstNonEmpty(externalConfig.Remote, DefaultRemote),
	}
}

// ReadExternalConfig reads the configuration file in dirPath.
//
// A missing file is an empty configuration.
func ReadExternalConfig(dirPath string) (ExternalConfig, error) {
	filePath := filepath.Join(dirPath, ExternalConfigFileName)
	data, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ExternalConfig{Version: v1}, nil
		}
		return ExternalConfig{}, err
	}
	externalConfig, err := ParseExternalConfig(data)
	if err != nil {
		return ExternalConfig{}, fmt.Errorf("%s: %w", filePath, err)
	}
	return externalConfig, nil
}

// ParseExternalConfig parses the content of a configuration file.
func ParseExternalConfig(data []byte) (ExternalConfig, error) {
	// The version is read first so that an unknown version is reported
	// instead of the fields it does not know.
	var versionConfig struct {
		Version string `yaml:"version,omitempty"`
	}
	if err := encoding.UnmarshalYAMLNonStrict(data, &versionConfig); err != nil {
		return ExternalConfig{}, err
	}
	switch versionConfig.Version {
	case v1:
	case "":
		return ExternalConfig{}, errors.New("version is required")
	default:
		return ExternalConfig{}, fmt.Errorf("unknown version: %q", versionConfig.Version)
	}
	var externalConfig ExternalConfig
	if err := encoding.UnmarshalYAMLStrict(data, &externalConfig); err != nil {
		return ExternalConfig{}, err
	}
	if strings.ContainsAny(externalConfig.Branch, " \t\n~^:?*[\\") || strings.HasPrefix(externalConfig.Branch, "-") {
		return ExternalConfig{}, fmt.Errorf("invalid branch: %q", externalConfig.Branch)
	}
	return externalConfig, nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value = strings.TrimSpace(value); value != "" {
			return value
		}
	}
	return ""
}
