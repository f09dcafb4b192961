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

package agrelation

import (
	"context"
	"slices"
	"sort"
	"strings"

	"github.com/agtrack/ag/private/agpkg/agrecord"
	"github.com/agtrack/ag/private/agpkg/agstore"
)

const (
	boxMiddle   = "├──"
	boxLast     = "└──"
	boxContinue = "│  "
	boxBlank    = "   "
)

type resolver struct {
	store agstore.Store
}

func newResolver(store agstore.Store) *resolver {
	return &resolver{
		store: store,
	}
}

func (r *resolver) ParentChain(ctx context.Context, id string) ([]string, error) {
	record, err := r.store.ResolveCurrent(ctx, id)
	if err != nil {
		return nil, err
	}
	category, ok := record.(*agrecord.Category)
	if !ok {
		return []string{record.Summary()}, nil
	}
	graph, err := r.loadGraph(ctx)
	if err != nil {
		return nil, err
	}
	chain, err := graph.ancestors(category.ID())
	if err != nil {
		return nil, err
	}
	summaries := make([]string, 0, len(chain))
	for i := len(chain) - 1; i >= 0; i-- {
		summaries = append(summaries, graph.categories[chain[i]].Summary())
	}
	return summaries, nil
}

func (r *resolver) ChildrenOf(ctx context.Context, parentID string) ([]string, error) {
	graph, err := r.loadGraph(ctx)
	if err != nil {
		return nil, err
	}
	return graph.children[parentID], nil
}

func (r *resolver) IssuesIn(ctx context.Context, categoryID string) ([]string, error) {
	issues, err := r.store.ListCurrent(ctx, agstore.FilterIssues)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, record := range issues {
		if issue, ok := record.(*agrecord.Issue); ok && issue.HasCategory(categoryID) {
			ids = append(ids, issue.ID())
		}
	}
	// ListCurrent is sorted by id.
	return ids, nil
}

func (r *resolver) Tree(ctx context.Context) ([]TreeLine, error) {
	graph, err := r.loadGraph(ctx)
	if err != nil {
		return nil, err
	}
	var lines []TreeLine
	visited := make(map[string]struct{}, len(graph.categories))
	var walk func(parentID string, prefix string, depth int)
	walk = func(parentID string, prefix string, depth int) {
		children := graph.children[parentID]
		for i, childID := range children {
			visited[childID] = struct{}{}
			last := i == len(children)-1
			box := ""
			childPrefix := prefix
			if parentID != "" {
				box = boxMiddle
				childPrefix = prefix + boxContinue
				if last {
					box = boxLast
					childPrefix = prefix + boxBlank
				}
			}
			lines = append(lines, TreeLine{
				ID:      childID,
				Summary: graph.categories[childID].Summary(),
				Prefix:  prefix + box,
				Depth:   depth,
			})
			walk(childID, childPrefix, depth+1)
		}
	}
	walk("", "", 0)
	// Categories on a parent cycle are not reachable from any root.
	for _, id := range graph.ids {
		if _, ok := visited[id]; !ok {
			if _, err := graph.ancestors(id); err != nil {
				return nil, err
			}
		}
	}
	return lines, nil
}

func (r *resolver) CheckCategory(ctx context.Context, id string) error {
	recordType, err := r.store.TypeOf(ctx, id)
	if err != nil {
		return err
	}
	if recordType != agrecord.TypeCategory {
		return &notCategoryError{id: id}
	}
	return nil
}

func (r *resolver) CheckDeletable(ctx context.Context, id string) error {
	recordType, err := r.store.TypeOf(ctx, id)
	if err != nil {
		return err
	}
	if recordType != agrecord.TypeCategory {
		return nil
	}
	graph, err := r.loadGraph(ctx)
	if err != nil {
		return err
	}
	issues, err := r.IssuesIn(ctx, id)
	if err != nil {
		return err
	}
	children := graph.children[id]
	if len(children) > 0 || len(issues) > 0 {
		return &HasDependentsError{
			ID:       id,
			Children: children,
			Issues:   issues,
		}
	}
	return nil
}

func (r *resolver) CheckReparent(ctx context.Context, id string, newParentID string) error {
	if err := r.CheckCategory(ctx, id); err != nil {
		return err
	}
	if newParentID == "" {
		return nil
	}
	if err := r.CheckCategory(ctx, newParentID); err != nil {
		return err
	}
	graph, err := r.loadGraph(ctx)
	if err != nil {
		return err
	}
	chain := []string{id}
	for current := newParentID; current != ""; current = graph.parentOf(current) {
		chain = append(chain, current)
		if current == id {
			return &CycleError{Chain: chain}
		}
		if len(chain) > len(graph.ids)+1 {
			// The existing parents already form a cycle above newParentID.
			_, err := graph.ancestors(newParentID)
			return err
		}
	}
	return nil
}

type graph struct {
	// ids are all category ids, sorted.
	ids        []string
	categories map[string]*agrecord.Category
	// children maps a parent id to its children ordered by summary. The
	// empty id holds the roots.
	children map[string][]string
}

func (r *resolver) loadGraph(ctx context.Context) (*graph, error) {
	records, err := r.store.ListCurrent(ctx, agstore.FilterCategories)
	if err != nil {
		return nil, err
	}
	graph := &graph{
		categories: make(map[string]*agrecord.Category, len(records)),
		children:   make(map[string][]string),
	}
	for _, record := range records {
		if category, ok := record.(*agrecord.Category); ok {
			graph.ids = append(graph.ids, category.ID())
			graph.categories[category.ID()] = category
		}
	}
	for _, id := range graph.ids {
		parentID := graph.parentOf(id)
		graph.children[parentID] = append(graph.children[parentID], id)
	}
	for _, children := range graph.children {
		sort.SliceStable(children, func(i, j int) bool {
			left := strings.ToLower(graph.categories[children[i]].Summary())
			right := strings.ToLower(graph.categories[children[j]].Summary())
			if left != right {
				return left < right
			}
			return children[i] < children[j]
		})
	}
	return graph, nil
}

// parentOf returns the parent of the category, or empty if it is a root or
// its parent does not resolve.
func (g *graph) parentOf(id string) string {
	category, ok := g.categories[id]
	if !ok {
		return ""
	}
	parentID := category.Parent()
	if _, ok := g.categories[parentID]; !ok {
		return ""
	}
	return parentID
}

// ancestors returns id followed by its parents up to the root.
func (g *graph) ancestors(id string) ([]string, error) {
	chain := []string{id}
	visited := map[string]struct{}{id: {}}
	for current := g.parentOf(id); current != ""; current = g.parentOf(current) {
		if _, ok := visited[current]; ok {
			// The cycle may sit above id.
			start := slices.Index(chain, current)
			return nil, &CycleError{Chain: append(slices.Clone(chain[start:]), current)}
		}
		chain = append(chain, current)
		visited[current] = struct{}{}
	}
	return chain, nil
}

type notCategoryError struct {
	id string
}

func (e *notCategoryError) Error() string {
	return e.id + " is an issue, not a category"
}

func (e *notCategoryError) Unwrap() error {
	return ErrNotCategory
}
