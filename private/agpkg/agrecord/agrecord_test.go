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

package agrecord

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fields struct {
	ID          string
	Type        Type
	Summary     string
	Description string
	Parent      string
	Categories  []string
}

func fieldsOf(record Record) fields {
	f := fields{
		ID:          record.ID(),
		Type:        record.Type(),
		Summary:     record.Summary(),
		Description: record.Description(),
	}
	switch t := record.(type) {
	case *Issue:
		f.Categories = t.Categories()
	case *Category:
		f.Parent = t.Parent()
	}
	return f
}

func TestDecodeIssue(t *testing.T) {
	t.Parallel()
	text := "Summary:   Fix the parser  \nCategories: cd5678-backend, ab1234-frontend-work,, cd5678\n\nIt breaks on\nempty input.\n\n"
	record, err := Decode(text, "xy0001", TypeIssue)
	require.NoError(t, err)
	assert.Empty(
		t,
		cmp.Diff(
			fields{
				ID:          "xy0001",
				Type:        TypeIssue,
				Summary:     "Fix the parser",
				Description: "It breaks on\nempty input.",
				Categories:  []string{"ab1234", "cd5678"},
			},
			fieldsOf(record),
		),
	)
	assert.Equal(t, text, record.Original())
	assert.Equal(t, "xy0001-fix-the-parser", record.Slug())
}

func TestDecodeCategory(t *testing.T) {
	t.Parallel()
	record, err := Decode("Summary: Backend\nParent: ab1234-server-side\n\nAll server work.", "cd5678", TypeCategory)
	require.NoError(t, err)
	category, ok := record.(*Category)
	require.True(t, ok)
	assert.Equal(t, "ab1234", category.Parent())
	assert.Equal(t, "All server work.", category.Description())

	record, err = Decode("Summary: Root\nParent: null\n", "cd5678", TypeCategory)
	require.NoError(t, err)
	assert.Empty(t, record.(*Category).Parent())

	// Fields of the other type are ignored.
	record, err = Decode("Summary: Root\nCategories: ab1234\n", "cd5678", TypeCategory)
	require.NoError(t, err)
	assert.Empty(t, record.(*Category).Parent())
	assert.Empty(t, record.Description())
}

func TestDecodeMissingSummary(t *testing.T) {
	t.Parallel()
	for _, text := range []string{"", "\nSummary: late", "Parent: ab1234\nSummary: x"} {
		_, err := Decode(text, "ab1234", TypeIssue)
		var parseError *ParseError
		require.True(t, errors.As(err, &parseError), text)
		assert.Equal(t, "missing summary field", parseError.Reason)
		assert.True(t, IsParseError(err))
	}
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()
	records := []Record{
		NewIssue("ab1234", "Crash on start", "Stack trace:\n\n  main.go:12", []string{"cd5678", "ef9012", "cd5678"}),
		NewIssue("ab1235", "No description", "", nil),
		NewCategory("cd5678", "Backend", "Server side", ""),
		NewCategory("ef9012", "Storage", "", "cd5678"),
	}
	slugs := map[string]string{
		"cd5678": "cd5678-backend",
		"ef9012": "ef9012-storage",
	}
	resolver := func(id string) (string, error) {
		slug, ok := slugs[id]
		if !ok {
			return "", errors.New("not found")
		}
		return slug, nil
	}
	for _, record := range records {
		text := Encode(record, resolver)
		decoded, err := Decode(text, record.ID(), record.Type())
		require.NoError(t, err)
		assert.Empty(t, cmp.Diff(fieldsOf(record), fieldsOf(decoded)), text)
		assert.Equal(t, text, Encode(decoded, resolver))
	}
}

func TestEncode(t *testing.T) {
	t.Parallel()
	issue := NewIssue("ab1234", "Crash", "Details.", []string{"zz0000", "cd5678"})
	resolver := func(id string) (string, error) {
		if id == "cd5678" {
			return "cd5678-backend", nil
		}
		return "", errors.New("not found")
	}
	assert.Equal(
		t,
		"Summary: Crash\nCategories: cd5678-backend, zz0000-orphaned\n\nDetails.\n",
		Encode(issue, resolver),
	)
	assert.Equal(
		t,
		"Summary: Storage\nParent: zz0000-orphaned\n\n",
		Encode(NewCategory("ef9012", "Storage", "", "zz0000"), resolver),
	)
	assert.Equal(
		t,
		"Summary: Crash\nCategories: cd5678, zz0000\n\nDetails.\n",
		Encode(issue, nil),
	)

	// An orphaned marker decodes back to the id it was written for.
	decoded, err := Decode(Encode(NewCategory("ef9012", "Storage", "", "zz0000"), resolver), "ef9012", TypeCategory)
	require.NoError(t, err)
	assert.Equal(t, "zz0000", decoded.(*Category).Parent())
}

func TestSlug(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "ab1234-fix-the-parser", Slug("ab1234", "Fix the parser!"))
	assert.Equal(t, "ab1234-a-b-c-d-e-f-g-h", Slug("ab1234", "a b c d e f g h i j"))
	assert.Equal(t, "ab1234-don-t-use-v2-api", Slug("ab1234", "Don't use  v2_API"))
	assert.Equal(t, "ab1234", Slug("ab1234", "!!!"))
	assert.Equal(t, "ab1234", Slug("ab1234", ""))
	assert.Equal(t, "ab1234-caf", Slug("ab1234", "Café"))
}

func TestTemplate(t *testing.T) {
	t.Parallel()
	resolver := func(id string) (string, error) { return id + "-name", nil }
	assert.Equal(t, "Summary: \n\n", Template(TypeIssue, nil, resolver))
	assert.Equal(t, "Summary: \nParent: ab1234-name\n\n", Template(TypeCategory, []string{"ab1234"}, resolver))
	assert.Equal(
		t,
		"Summary: \nCategories: ab1234-name, cd5678-name\n\n",
		Template(TypeIssue, []string{"cd5678", "ab1234"}, resolver),
	)
}

func TestModifiers(t *testing.T) {
	t.Parallel()
	issue, err := Decode("Summary: x\nCategories: ab1234\n", "xy0001", TypeIssue)
	require.NoError(t, err)
	linked := issue.(*Issue).WithCategories([]string{"cd5678", "ab1234"})
	assert.Equal(t, []string{"ab1234", "cd5678"}, linked.Categories())
	assert.True(t, linked.HasCategory("cd5678"))
	assert.Empty(t, linked.Original())
	assert.Equal(t, []string{"ab1234"}, issue.(*Issue).Categories())

	category := NewCategory("cd5678", "Backend", "", "").WithParent("ab1234")
	assert.Equal(t, "ab1234", category.Parent())
}

func TestParseType(t *testing.T) {
	t.Parallel()
	for _, recordType := range AllTypes() {
		parsed, err := ParseType(recordType.String())
		require.NoError(t, err)
		assert.Equal(t, recordType, parsed)
	}
	_, err := ParseType("bug")
	assert.Error(t, err)
}
