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

// Package agid generates and validates record ids.
//
// An id is two lowercase ASCII letters followed by four decimal digits,
// for example "ab1234".
package agid

import (
	"context"
	"math/rand"
	"regexp"
	"sync"
	"time"
)

// Length is the length of an id.
const Length = 6

var (
	// Pattern matches a complete id.
	Pattern = regexp.MustCompile(`^[a-z]{2}[0-9]{4}$`)

	prefixPattern = regexp.MustCompile(`^[a-z]{2}[0-9]{4}`)
)

// IsValid returns true if id is a well-formed id.
func IsValid(id string) bool {
	return Pattern.MatchString(id)
}

// Truncate returns the first Length bytes of value.
//
// User input and references decoded from record text are truncated before
// use, so "ab1234-fix-the-parser" refers to "ab1234".
func Truncate(value string) string {
	if len(value) <= Length {
		return value
	}
	return value[:Length]
}

// FromPrefix returns the id value starts with, if any.
func FromPrefix(value string) (string, bool) {
	if prefix := prefixPattern.FindString(value); prefix != "" {
		return prefix, true
	}
	return "", false
}

// Generator generates ids.
type Generator interface {
	// Generate returns a random id that is not in the set returned by
	// existingIDs. existingIDs should return every id ever used, including
	// ids of deleted records.
	//
	// Generation retries until a free id is found or ctx is done.
	Generate(ctx context.Context, existingIDs func(context.Context) (map[string]struct{}, error)) (string, error)
}

// NewGenerator returns a new Generator.
func NewGenerator(options ...GeneratorOption) Generator {
	return newGenerator(options...)
}

// GeneratorOption is an option for NewGenerator.
type GeneratorOption func(*generator)

// GeneratorWithRand returns a new GeneratorOption that sets the random source.
//
// The default is seeded with the current time.
func GeneratorWithRand(random *rand.Rand) GeneratorOption {
	return func(generator *generator) {
		generator.random = random
	}
}

type generator struct {
	lock   sync.Mutex
	random *rand.Rand
}

func newGenerator(options ...GeneratorOption) *generator {
	generator := &generator{}
	for _, option := range options {
		option(generator)
	}
	if generator.random == nil {
		generator.random = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return generator
}

func (g *generator) Generate(
	ctx context.Context,
	existingIDs func(context.Context) (map[string]struct{}, error),
) (string, error) {
	existing, err := existingIDs(ctx)
	if err != nil {
		return "", err
	}
	// There are 26*26*10000 ids, so the loop is not bounded.
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		id := g.next()
		if _, ok := existing[id]; !ok {
			return id, nil
		}
	}
}

func (g *generator) next() string {
	g.lock.Lock()
	defer g.lock.Unlock()
	id := make([]byte, Length)
	for i := 0; i < 2; i++ {
		id[i] = byte('a' + g.random.Intn(26))
	}
	for i := 2; i < Length; i++ {
		id[i] = byte('0' + g.random.Intn(10))
	}
	return string(id)
}
