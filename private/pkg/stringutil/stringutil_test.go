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

package stringutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSliceToHumanString(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "", SliceToHumanString(nil))
	assert.Equal(t, "a", SliceToHumanString([]string{"a"}))
	assert.Equal(t, "a and b", SliceToHumanString([]string{"a", "b"}))
	assert.Equal(t, "a, b, and c", SliceToHumanString([]string{"a", "b", "c"}))
}

func TestLines(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []string{"a", "b"}, SplitTrimLinesNoEmpty("  a \n\n b\r\n"))
	assert.Equal(t, []string{"a", "b"}, SliceToUniqueSortedSliceFilterEmptyStrings([]string{"b", " ", "a", "b", ""}))
}

func TestContainsFold(t *testing.T) {
	t.Parallel()
	assert.True(t, ContainsFold("Crash on START", "start"))
	assert.False(t, ContainsFold("Crash", "stop"))
}

func TestPadRight(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "ab  ", PadRight("ab", 4))
	assert.Equal(t, "äb  ", PadRight("äb", 4))
	assert.Equal(t, "abcde", PadRight("abcde", 4))
}
