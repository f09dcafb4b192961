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

package slicesext

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapAndFilter(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []string{"1", "2"}, Map([]int{1, 2}, strconv.Itoa))
	assert.Equal(t, []int{2, 4}, Filter([]int{1, 2, 3, 4}, func(i int) bool { return i%2 == 0 }))
	values, err := MapError([]string{"1", "2"}, strconv.Atoi)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, values)
	_, err = MapError([]string{"1", "x"}, strconv.Atoi)
	assert.Error(t, err)
}

func TestSets(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []string{"a", "b", "c"}, ToUniqueSorted([]string{"c", "a", "b", "a"}))
	assert.Equal(t, []string{"a", "b", "c"}, Union([]string{"b", "a"}, []string{"c", "a"}))
	assert.Equal(t, []string{"b"}, Difference([]string{"b", "a", "b"}, []string{"a", "c"}))
	assert.Empty(t, Difference([]string{"a"}, []string{"a"}))
	assert.Equal(t, []string{"x", "y"}, MapKeysToSortedSlice(map[string]int{"y": 1, "x": 2}))
	assert.True(t, ElementsEqual([]string{"a", "b", "a"}, []string{"b", "a"}))
	assert.False(t, ElementsEqual([]string{"a"}, []string{"a", "b"}))
	assert.False(t, ElementsEqual([]string{"a", "c"}, []string{"a", "b"}))
}
