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

// Package agrecord defines issue and category records and their text form.
//
// A record is stored as a blob with the content
//
//	Summary: <one-line text>
//	Parent: <slug>
//	Categories: <slug>, <slug>
//
//	<description>
//
// where Parent is only written for categories that have a parent and
// Categories is only written for issues linked to at least one category.
package agrecord

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/agtrack/ag/private/agpkg/agid"
	"github.com/agtrack/ag/private/pkg/stringutil"
)

const (
	// TypeIssue is the type of issue records.
	TypeIssue Type = iota + 1
	// TypeCategory is the type of category records.
	TypeCategory

	summaryField    = "Summary:"
	parentField     = "Parent:"
	categoriesField = "Categories:"
	nullParent      = "null"
	orphanedSuffix  = "-orphaned"
	maxSlugTokens   = 8
)

var (
	typeToString = map[Type]string{
		TypeIssue:    "issue",
		TypeCategory: "category",
	}
	stringToType = map[string]Type{
		"issue":    TypeIssue,
		"category": TypeCategory,
	}
)

// Type is the type of a record. The string form is also the directory
// records of the type are stored under.
type Type int

// String implements fmt.Stringer.
func (t Type) String() string {
	s, ok := typeToString[t]
	if !ok {
		return fmt.Sprintf("%d", t)
	}
	return s
}

// ParseType parses a Type from its string form.
func ParseType(s string) (Type, error) {
	t, ok := stringToType[s]
	if !ok {
		return 0, fmt.Errorf("unknown record type: %q", s)
	}
	return t, nil
}

// AllTypes returns all record types in storage order.
func AllTypes() []Type {
	return []Type{TypeIssue, TypeCategory}
}

// Record is an issue or a category.
//
// Records are immutable. Modifiers return copies.
type Record interface {
	ID() string
	Type() Type
	Summary() string
	Description() string
	// Slug is the id followed by up to eight words of the summary.
	Slug() string
	// Original is the text the record was decoded from, or empty if the
	// record was built in code.
	Original() string

	isRecord()
}

// Issue is a record of type TypeIssue.
type Issue struct {
	id          string
	summary     string
	description string
	categories  []string
	original    string
}

// NewIssue returns a new Issue.
//
// Categories are de-duplicated and sorted.
func NewIssue(id string, summary string, description string, categories []string) *Issue {
	return &Issue{
		id:          id,
		summary:     strings.TrimSpace(summary),
		description: strings.TrimSpace(description),
		categories:  normalizeIDs(categories),
	}
}

func (i *Issue) ID() string {
	return i.id
}

func (i *Issue) Type() Type {
	return TypeIssue
}

func (i *Issue) Summary() string {
	return i.summary
}

func (i *Issue) Description() string {
	return i.description
}

func (i *Issue) Slug() string {
	return Slug(i.id, i.summary)
}

func (i *Issue) Original() string {
	return i.original
}

// Categories returns the ids of the categories the issue is linked to,
// sorted.
func (i *Issue) Categories() []string {
	return append([]string(nil), i.categories...)
}

// HasCategory returns true if the issue is linked to the category.
func (i *Issue) HasCategory(categoryID string) bool {
	for _, category := range i.categories {
		if category == categoryID {
			return true
		}
	}
	return false
}

// WithCategories returns a copy of the issue linked to categories instead.
//
// The copy has no original text.
func (i *Issue) WithCategories(categories []string) *Issue {
	return NewIssue(i.id, i.summary, i.description, categories)
}

func (*Issue) isRecord() {}

// Category is a record of type TypeCategory.
type Category struct {
	id          string
	summary     string
	description string
	parent      string
	original    string
}

// NewCategory returns a new Category. An empty parent means the category is
// a root.
func NewCategory(id string, summary string, description string, parent string) *Category {
	return &Category{
		id:          id,
		summary:     strings.TrimSpace(summary),
		description: strings.TrimSpace(description),
		parent:      parent,
	}
}

func (c *Category) ID() string {
	return c.id
}

func (c *Category) Type() Type {
	return TypeCategory
}

func (c *Category) Summary() string {
	return c.summary
}

func (c *Category) Description() string {
	return c.description
}

func (c *Category) Slug() string {
	return Slug(c.id, c.summary)
}

func (c *Category) Original() string {
	return c.original
}

// Parent returns the id of the parent category, or empty for a root.
func (c *Category) Parent() string {
	return c.parent
}

// WithParent returns a copy of the category with a different parent.
//
// The copy has no original text.
func (c *Category) WithParent(parent string) *Category {
	return NewCategory(c.id, c.summary, c.description, parent)
}

func (*Category) isRecord() {}

// ParseError is returned from Decode when the text is malformed.
type ParseError struct {
	ID     string
	Reason string
}

// Error implements error.
func (e *ParseError) Error() string {
	if e.ID == "" {
		return "parse error: " + e.Reason
	}
	return fmt.Sprintf("parse error in %s: %s", e.ID, e.Reason)
}

// SlugResolver returns the current slug of a record.
//
// An error means the record does not resolve and an orphaned marker is
// written in place of the slug.
type SlugResolver func(id string) (string, error)

// Decode decodes the text of the record with the given id and type.
//
// Returns a *ParseError if the first line is not a Summary line.
func Decode(text string, id string, recordType Type) (Record, error) {
	lines := strings.Split(text, "\n")
	if !strings.HasPrefix(lines[0], summaryField) {
		return nil, &ParseError{ID: id, Reason: "missing summary field"}
	}
	summary := strings.TrimSpace(strings.TrimPrefix(lines[0], summaryField))
	lines = lines[1:]
	var parent string
	var categories []string
headers:
	for len(lines) > 0 {
		switch line := lines[0]; {
		case strings.HasPrefix(line, parentField):
			parent = decodeParent(strings.TrimPrefix(line, parentField))
		case strings.HasPrefix(line, categoriesField):
			categories = decodeCategories(strings.TrimPrefix(line, categoriesField))
		default:
			break headers
		}
		lines = lines[1:]
	}
	description := strings.TrimSpace(strings.Join(lines, "\n"))
	switch recordType {
	case TypeIssue:
		issue := NewIssue(id, summary, description, categories)
		issue.original = text
		return issue, nil
	case TypeCategory:
		category := NewCategory(id, summary, description, parent)
		category.original = text
		return category, nil
	default:
		return nil, fmt.Errorf("unknown record type: %v", recordType)
	}
}

// Encode encodes the record.
//
// References are written as slugs obtained from resolver. References that
// fail to resolve are written as "<id>-orphaned". A nil resolver writes bare
// ids.
func Encode(record Record, resolver SlugResolver) string {
	var builder strings.Builder
	builder.WriteString(summaryField + " " + record.Summary() + "\n")
	switch t := record.(type) {
	case *Category:
		if t.parent != "" {
			builder.WriteString(parentField + " " + resolveSlug(t.parent, resolver) + "\n")
		}
	case *Issue:
		if len(t.categories) > 0 {
			builder.WriteString(categoriesField + " " + joinSlugs(t.categories, resolver) + "\n")
		}
	}
	builder.WriteString("\n")
	if description := record.Description(); description != "" {
		builder.WriteString(description + "\n")
	}
	return builder.String()
}

// Template returns the text a new record of the given type is edited from.
//
// For categories, refs holds at most one parent. For issues, refs holds
// the categories the issue will be linked to.
func Template(recordType Type, refs []string, resolver SlugResolver) string {
	template := summaryField + " \n"
	if len(refs) > 0 {
		switch recordType {
		case TypeCategory:
			template += parentField + " " + resolveSlug(refs[0], resolver) + "\n"
		case TypeIssue:
			template += categoriesField + " " + joinSlugs(normalizeIDs(refs), resolver) + "\n"
		}
	}
	return template + "\n"
}

// Slug returns the id followed by up to eight lowercase alphanumeric words of
// summary, joined with dashes.
func Slug(id string, summary string) string {
	tokens := strings.Fields(strings.Map(
		func(r rune) rune {
			if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
				return r
			}
			return ' '
		},
		strings.ToLower(summary),
	))
	if len(tokens) > maxSlugTokens {
		tokens = tokens[:maxSlugTokens]
	}
	if len(tokens) == 0 {
		return id
	}
	return id + "-" + strings.Join(tokens, "-")
}

// IsParseError returns true if err is or wraps a *ParseError.
func IsParseError(err error) bool {
	var parseError *ParseError
	return errors.As(err, &parseError)
}

func decodeParent(value string) string {
	value = strings.TrimSpace(value)
	if value == "" || value == nullParent {
		return ""
	}
	return agid.Truncate(value)
}

func decodeCategories(value string) []string {
	fields := strings.FieldsFunc(value, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	categories := make([]string, 0, len(fields))
	for _, field := range fields {
		categories = append(categories, agid.Truncate(strings.TrimSpace(field)))
	}
	return categories
}

func resolveSlug(id string, resolver SlugResolver) string {
	if resolver == nil {
		return id
	}
	slug, err := resolver(id)
	if err != nil {
		return id + orphanedSuffix
	}
	return slug
}

func joinSlugs(ids []string, resolver SlugResolver) string {
	slugs := make([]string, 0, len(ids))
	for _, id := range ids {
		slugs = append(slugs, resolveSlug(id, resolver))
	}
	sort.Strings(slugs)
	return strings.Join(slugs, ", ")
}

func normalizeIDs(ids []string) []string {
	return stringutil.SliceToUniqueSortedSliceFilterEmptyStrings(ids)
}
