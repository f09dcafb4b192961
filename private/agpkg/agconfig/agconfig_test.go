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

package agconfig

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/agtrack/ag/private/agpkg/agstore"
	"github.com/agtrack/ag/private/pkg/git/gittest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseExternalConfig(t *testing.T) {
	t.Parallel()
	externalConfig, err := ParseExternalConfig([]byte("version: v1\nbranch: issues\nremote: upstream\neditor: vim -n\n"))
	require.NoError(t, err)
	assert.Equal(
		t,
		ExternalConfig{Version: "v1", Branch: "issues", Remote: "upstream", Editor: "vim -n"},
		externalConfig,
	)

	_, err = ParseExternalConfig([]byte("branch: issues\n"))
	assert.EqualError(t, err, "version is required")
	_, err = ParseExternalConfig([]byte("version: v2\nfoo: bar\n"))
	assert.EqualError(t, err, `unknown version: "v2"`)
	_, err = ParseExternalConfig([]byte("version: v1\nbrnach: issues\n"))
	assert.ErrorContains(t, err, "could not unmarshal as YAML")
	_, err = ParseExternalConfig([]byte("version: v1\nbranch: my issues\n"))
	assert.ErrorContains(t, err, "invalid branch")
}

func TestNewConfigDefaults(t *testing.T) {
	t.Parallel()
	config := NewConfig(agstore.Identity{Name: "A", Email: "a@example.com"}, ExternalConfig{Version: v1}, "")
	assert.Equal(
		t,
		&Config{
			Identity: agstore.Identity{Name: "A", Email: "a@example.com"},
			Editor:   DefaultEditor,
			Branch:   agstore.DefaultBranch,
			Remote:   DefaultRemote,
		},
		config,
	)
}

func TestReadExternalConfigMissing(t *testing.T) {
	t.Parallel()
	externalConfig, err := ReadExternalConfig(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, ExternalConfig{Version: v1}, externalConfig)
}

func TestReadConfig(t *testing.T) {
	t.Parallel()
	scaffold := gittest.ScaffoldRepository(t)
	require.NoError(t, os.WriteFile(
		filepath.Join(scaffold.Local.Dir(), ExternalConfigFileName),
		[]byte("version: v1\nbranch: issues\neditor: emacs\n"),
		0o644,
	))
	repository := scaffold.Open(t)

	config, err := ReadConfig(context.Background(), repository, map[string]string{})
	require.NoError(t, err)
	assert.Equal(t, agstore.Identity{Name: gittest.TestUserName, Email: gittest.TestUserEmail}, config.Identity)
	assert.Equal(t, "issues", config.Branch)
	assert.Equal(t, DefaultRemote, config.Remote)
	assert.Equal(t, "emacs", config.Editor)

	config, err = ReadConfig(context.Background(), repository, map[string]string{"EDITOR": "vi", "VISUAL": " "})
	require.NoError(t, err)
	assert.Equal(t, "vi", config.Editor)
}
