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

package agid

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	t.Parallel()
	generator := NewGenerator(GeneratorWithRand(rand.New(rand.NewSource(1))))
	seen := make(map[string]struct{})
	existing := func(context.Context) (map[string]struct{}, error) {
		return seen, nil
	}
	for i := 0; i < 1000; i++ {
		id, err := generator.Generate(context.Background(), existing)
		require.NoError(t, err)
		require.True(t, IsValid(id), id)
		_, duplicate := seen[id]
		require.False(t, duplicate, id)
		seen[id] = struct{}{}
	}
}

func TestGenerateSkipsExisting(t *testing.T) {
	t.Parallel()
	// Two generators with the same seed produce the same sequence.
	first, err := NewGenerator(GeneratorWithRand(rand.New(rand.NewSource(7)))).Generate(
		context.Background(),
		func(context.Context) (map[string]struct{}, error) { return nil, nil },
	)
	require.NoError(t, err)
	second, err := NewGenerator(GeneratorWithRand(rand.New(rand.NewSource(7)))).Generate(
		context.Background(),
		func(context.Context) (map[string]struct{}, error) {
			return map[string]struct{}{first: {}}, nil
		},
	)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestGenerateErrors(t *testing.T) {
	t.Parallel()
	generator := NewGenerator()
	_, err := generator.Generate(context.Background(), func(context.Context) (map[string]struct{}, error) {
		return nil, errors.New("walk failed")
	})
	assert.EqualError(t, err, "walk failed")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = generator.Generate(ctx, func(context.Context) (map[string]struct{}, error) { return nil, nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIDHelpers(t *testing.T) {
	t.Parallel()
	assert.True(t, IsValid("ab1234"))
	assert.False(t, IsValid("Ab1234"))
	assert.False(t, IsValid("ab12345"))
	assert.False(t, IsValid("abc123"))
	assert.Equal(t, "ab1234", Truncate("ab1234-fix-parser"))
	assert.Equal(t, "ab", Truncate("ab"))
	id, ok := FromPrefix("ab1234-fix-parser")
	assert.True(t, ok)
	assert.Equal(t, "ab1234", id)
	_, ok = FromPrefix("feature/ab1234")
	assert.False(t, ok)
}
