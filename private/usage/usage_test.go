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

package usage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckMainPath(t *testing.T) {
	t.Parallel()
	assert.NoError(t, checkMainPath("github.com/agtrack/ag"))
	assert.NoError(t, checkMainPath("github.com/agtrack/ag-extras"))
	assert.Error(t, checkMainPath("github.com/agtrackers/ag"))
	assert.Error(t, checkMainPath("example.com/fork"))
}

func TestShouldSkip(t *testing.T) {
	t.Parallel()
	assert.True(t, shouldSkip("/tmp/go-build123/b001/usage.test"))
	assert.True(t, shouldSkip("/home/dev/project/__debug_bin"))
	assert.False(t, shouldSkip("/usr/local/bin/ag"))
}
