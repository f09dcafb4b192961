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

// Package agrelation derives relationships between the current records:
// category parent chains and trees, and the issues linked to categories.
package agrelation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/agtrack/ag/private/agpkg/agstore"
	"github.com/agtrack/ag/private/pkg/stringutil"
)

var (
	// ErrCycleDetected is wrapped by *CycleError.
	ErrCycleDetected = errors.New("category parent cycle detected")
	// ErrNotCategory is returned when a record referenced as a category is
	// an issue.
	ErrNotCategory = errors.New("record is not a category")
)

// CycleError is returned when the parents of a category lead back to it.
type CycleError struct {
	// Chain is the cycle, starting and ending with the first id seen twice.
	Chain []string
}

// Error implements error.
func (e *CycleError) Error() string {
	return fmt.Sprintf("%v: %s", ErrCycleDetected, strings.Join(e.Chain, " -> "))
}

// Unwrap returns ErrCycleDetected.
func (e *CycleError) Unwrap() error {
	return ErrCycleDetected
}

// HasDependentsError is returned when a category that still has child
// categories or linked issues is removed.
type HasDependentsError struct {
	ID       string
	Children []string
	Issues   []string
}

// Error implements error.
func (e *HasDependentsError) Error() string {
	var parts []string
	if len(e.Children) > 0 {
		parts = append(parts, "child categories "+stringutil.SliceToHumanString(e.Children))
	}
	if len(e.Issues) > 0 {
		parts = append(parts, "linked issues "+stringutil.SliceToHumanString(e.Issues))
	}
	return fmt.Sprintf("category %s still has %s", e.ID, strings.Join(parts, " and "))
}

// TreeLine is one category of the category tree.
type TreeLine struct {
	ID      string
	Summary string
	// Prefix is the box drawing in front of the summary. Roots have none.
	Prefix string
	Depth  int
}

// Resolver resolves relationships between the current records.
type Resolver interface {
	// ParentChain returns the summaries of the parents of the record,
	// starting at the root, followed by the summary of the record itself.
	//
	// A parent that does not resolve ends the chain. Returns a *CycleError
	// if the parents of a category lead back to it.
	ParentChain(ctx context.Context, id string) ([]string, error)
	// ChildrenOf returns the ids of the categories whose parent is parentID,
	// ordered by summary. An empty parentID returns the roots, including
	// categories whose parent does not resolve.
	ChildrenOf(ctx context.Context, parentID string) ([]string, error)
	// IssuesIn returns the ids of the issues linked to the category, sorted.
	IssuesIn(ctx context.Context, categoryID string) ([]string, error)
	// Tree returns all categories depth first, children ordered by summary.
	Tree(ctx context.Context) ([]TreeLine, error)
	// CheckCategory returns an error if id is not a current category.
	CheckCategory(ctx context.Context, id string) error
	// CheckDeletable returns a *HasDependentsError if the record is a
	// category with children or linked issues.
	CheckDeletable(ctx context.Context, id string) error
	// CheckReparent returns an error if the category cannot be moved under
	// newParentID. An empty newParentID makes the category a root.
	CheckReparent(ctx context.Context, id string, newParentID string) error
}

// NewResolver returns a new Resolver reading from store.
func NewResolver(store agstore.Store) Resolver {
	return newResolver(store)
}
