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

// Package slicesext provides extra functionality on top of the slices package.
package slicesext

import (
	"cmp"
	"slices"
)

// Filter filters the slice to only the values where f returns true.
func Filter[T any](s []T, f func(T) bool) []T {
	sf := make([]T, 0, len(s))
	for _, e := range s {
		if f(e) {
			sf = append(sf, e)
		}
	}
	return sf
}

// Map maps the slice.
func Map[T1, T2 any](s []T1, f func(T1) T2) []T2 {
	sm := make([]T2, len(s))
	for i, e := range s {
		sm[i] = f(e)
	}
	return sm
}

// MapError maps the slice.
//
// Returns error the first time f returns error.
func MapError[T1, T2 any](s []T1, f func(T1) (T2, error)) ([]T2, error) {
	sm := make([]T2, len(s))
	for i, e := range s {
		v, err := f(e)
		if err != nil {
			return nil, err
		}
		sm[i] = v
	}
	return sm, nil
}

// ToStructMap converts the slice to a map with struct{} values.
func ToStructMap[T comparable](s []T) map[T]struct{} {
	m := make(map[T]struct{}, len(s))
	for _, e := range s {
		m[e] = struct{}{}
	}
	return m
}

// MapKeysToSortedSlice converts the map's keys to a sorted slice.
func MapKeysToSortedSlice[M ~map[K]V, K cmp.Ordered, V any](m M) []K {
	s := make([]K, 0, len(m))
	for k := range m {
		s = append(s, k)
	}
	slices.Sort(s)
	return s
}

// ToUniqueSorted returns a sorted copy of s with no duplicates.
func ToUniqueSorted[S ~[]T, T cmp.Ordered](s S) S {
	return MapKeysToSortedSlice(ToStructMap(s))
}

// Union returns the sorted unique values of one and two.
func Union[T cmp.Ordered](one []T, two []T) []T {
	return ToUniqueSorted(append(slices.Clone(one), two...))
}

// Difference returns the sorted unique values of one that are not in two.
func Difference[T cmp.Ordered](one []T, two []T) []T {
	remove := ToStructMap(two)
	return ToUniqueSorted(Filter(one, func(e T) bool {
		_, ok := remove[e]
		return !ok
	}))
}

// ElementsEqual returns true if the two slices have equal elements, ignoring
// order and duplicates.
func ElementsEqual[T comparable](one []T, two []T) bool {
	oneMap := ToStructMap(one)
	twoMap := ToStructMap(two)
	if len(oneMap) != len(twoMap) {
		return false
	}
	for e := range oneMap {
		if _, ok := twoMap[e]; !ok {
			return false
		}
	}
	return true
}
