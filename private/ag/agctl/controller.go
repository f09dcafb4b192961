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

package agctl

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/agtrack/ag/private/agpkg/agactivity"
	"github.com/agtrack/ag/private/agpkg/agconfig"
	"github.com/agtrack/ag/private/agpkg/agedit"
	"github.com/agtrack/ag/private/agpkg/aghook"
	"github.com/agtrack/ag/private/agpkg/agid"
	"github.com/agtrack/ag/private/agpkg/agrecord"
	"github.com/agtrack/ag/private/agpkg/agrelation"
	"github.com/agtrack/ag/private/agpkg/agstore"
	"github.com/agtrack/ag/private/agpkg/agsync"
	"github.com/agtrack/ag/private/pkg/git"
	"github.com/agtrack/ag/private/pkg/git/object"
	"github.com/agtrack/ag/private/pkg/slicesext"
	"github.com/agtrack/ag/private/pkg/stringutil"
	"github.com/agtrack/ag/private/pkg/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type controller struct {
	logger     *zap.Logger
	repository git.Repository
	config     *agconfig.Config
	editor     agedit.Editor
	tracer     tracing.Tracer
	store      agstore.Store
	committer  agstore.Committer
	resolver   agrelation.Resolver
	correlator agactivity.Correlator
	syncer     agsync.Syncer
	generator  agid.Generator
}

type controllerOptions struct {
	tracer tracing.Tracer
	now    func() time.Time
	random *rand.Rand
}

func newController(
	logger *zap.Logger,
	repository git.Repository,
	config *agconfig.Config,
	editor agedit.Editor,
	options ...ControllerOption,
) *controller {
	controllerOptions := &controllerOptions{
		tracer: tracing.NopTracer,
		now:    time.Now,
	}
	for _, option := range options {
		option(controllerOptions)
	}
	store := agstore.NewStore(
		logger,
		repository,
		agstore.StoreWithBranch(config.Branch),
		agstore.StoreWithTracer(controllerOptions.tracer),
	)
	var generatorOptions []agid.GeneratorOption
	if controllerOptions.random != nil {
		generatorOptions = append(generatorOptions, agid.GeneratorWithRand(controllerOptions.random))
	}
	return &controller{
		logger:     logger.Named("agctl"),
		repository: repository,
		config:     config,
		editor:     editor,
		tracer:     controllerOptions.tracer,
		store:      store,
		committer: agstore.NewCommitter(
			logger,
			repository,
			store,
			config.Identity,
			agstore.CommitterWithClock(controllerOptions.now),
			agstore.CommitterWithTracer(controllerOptions.tracer),
		),
		resolver: agrelation.NewResolver(store),
		correlator: agactivity.NewCorrelator(
			logger,
			repository,
			agactivity.CorrelatorWithTracer(controllerOptions.tracer),
		),
		syncer: agsync.NewSyncer(
			logger,
			repository,
			config.Branch,
			agsync.SyncerWithTracer(controllerOptions.tracer),
		),
		generator: agid.NewGenerator(generatorOptions...),
	}
}

func (c *controller) NewIssue(ctx context.Context, categoryRefs []string) (_ *agrecord.Issue, retErr error) {
	ctx, span := c.tracer.Start(ctx, "new_issue", tracing.WithErr(&retErr))
	defer span.End()
	if err := c.checkIdentity(); err != nil {
		return nil, err
	}
	categoryIDs, err := parseRefs(categoryRefs)
	if err != nil {
		return nil, err
	}
	if err := c.checkCategories(ctx, categoryIDs); err != nil {
		return nil, err
	}
	record, err := c.editNew(ctx, agrecord.TypeIssue, categoryIDs)
	if err != nil {
		return nil, err
	}
	issue := record.(*agrecord.Issue)
	if categories := slicesext.Union(issue.Categories(), categoryIDs); !slicesext.ElementsEqual(categories, issue.Categories()) {
		issue = issue.WithCategories(categories)
	}
	if err := c.checkCategories(ctx, issue.Categories()); err != nil {
		return nil, err
	}
	if err := c.commit(ctx, "Added", issue); err != nil {
		return nil, err
	}
	return issue, nil
}

func (c *controller) NewCategory(ctx context.Context, parentRef string) (_ *agrecord.Category, retErr error) {
	ctx, span := c.tracer.Start(ctx, "new_category", tracing.WithErr(&retErr))
	defer span.End()
	if err := c.checkIdentity(); err != nil {
		return nil, err
	}
	var refs []string
	if parentRef != "" {
		parentID, err := ParseRef(parentRef)
		if err != nil {
			return nil, err
		}
		if err := c.resolver.CheckCategory(ctx, parentID); err != nil {
			return nil, err
		}
		refs = append(refs, parentID)
	}
	record, err := c.editNew(ctx, agrecord.TypeCategory, refs)
	if err != nil {
		return nil, err
	}
	category := record.(*agrecord.Category)
	if len(refs) > 0 && category.Parent() != refs[0] {
		category = category.WithParent(refs[0])
	}
	// A new category has no children, so no parent can form a cycle.
	if parent := category.Parent(); parent != "" {
		if err := c.resolver.CheckCategory(ctx, parent); err != nil {
			return nil, err
		}
	}
	if err := c.commit(ctx, "Added", category); err != nil {
		return nil, err
	}
	return category, nil
}

func (c *controller) Edit(ctx context.Context, ref string) (_ agrecord.Record, _ bool, retErr error) {
	ctx, span := c.tracer.Start(ctx, "edit", tracing.WithErr(&retErr))
	defer span.End()
	if err := c.checkIdentity(); err != nil {
		return nil, false, err
	}
	record, err := c.resolveCurrent(ctx, ref)
	if err != nil {
		return nil, false, err
	}
	slugResolver := c.store.SlugResolver(ctx)
	text := agrecord.Encode(record, slugResolver)
	edited, err := c.editor.Edit(ctx, text)
	if err != nil {
		return nil, false, err
	}
	if edited == text {
		return record, false, nil
	}
	newRecord, err := decodeEdited(edited, record.ID(), record.Type())
	if err != nil {
		return nil, false, err
	}
	if agrecord.Encode(newRecord, slugResolver) == text {
		return record, false, nil
	}
	// Only references the user changed are checked, so records with
	// orphaned references stay editable.
	switch t := newRecord.(type) {
	case *agrecord.Issue:
		added := slicesext.Difference(t.Categories(), record.(*agrecord.Issue).Categories())
		if err := c.checkCategories(ctx, added); err != nil {
			return nil, false, err
		}
	case *agrecord.Category:
		if t.Parent() != record.(*agrecord.Category).Parent() {
			if err := c.resolver.CheckReparent(ctx, t.ID(), t.Parent()); err != nil {
				return nil, false, err
			}
		}
	}
	if err := c.commit(ctx, "Modified", newRecord); err != nil {
		return nil, false, err
	}
	return newRecord, true, nil
}

func (c *controller) Remove(
	ctx context.Context,
	ref string,
	confirm func(oneline string) (bool, error),
) (_ agrecord.Record, _ bool, retErr error) {
	ctx, span := c.tracer.Start(ctx, "remove", tracing.WithErr(&retErr))
	defer span.End()
	if err := c.checkIdentity(); err != nil {
		return nil, false, err
	}
	record, err := c.resolveCurrent(ctx, ref)
	if err != nil {
		return nil, false, err
	}
	if err := c.resolver.CheckDeletable(ctx, record.ID()); err != nil {
		return nil, false, err
	}
	oneline, err := c.oneline(ctx, record)
	if err != nil {
		return nil, false, err
	}
	ok, err := confirm(oneline)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return record, false, nil
	}
	if _, err := c.committer.CommitMutation(ctx, agstore.Mutation{
		ID:          record.ID(),
		Type:        record.Type(),
		Message:     agstore.Message("Removed "+record.Type().String(), record.ID(), record.Summary()),
		AllowDelete: true,
	}); err != nil {
		return nil, false, err
	}
	return record, true, nil
}

func (c *controller) Link(ctx context.Context, issueRef string, categoryRefs []string) (_ *agrecord.Issue, _ bool, retErr error) {
	ctx, span := c.tracer.Start(ctx, "link", tracing.WithErr(&retErr))
	defer span.End()
	return c.relink(ctx, issueRef, categoryRefs, slicesext.Union[string])
}

func (c *controller) Unlink(ctx context.Context, issueRef string, categoryRefs []string) (_ *agrecord.Issue, _ bool, retErr error) {
	ctx, span := c.tracer.Start(ctx, "unlink", tracing.WithErr(&retErr))
	defer span.End()
	return c.relink(ctx, issueRef, categoryRefs, slicesext.Difference[string])
}

func (c *controller) Reparent(ctx context.Context, categoryRef string, parentRef string) (_ *agrecord.Category, _ bool, retErr error) {
	ctx, span := c.tracer.Start(ctx, "reparent", tracing.WithErr(&retErr))
	defer span.End()
	if err := c.checkIdentity(); err != nil {
		return nil, false, err
	}
	record, err := c.resolveCurrent(ctx, categoryRef)
	if err != nil {
		return nil, false, err
	}
	category, ok := record.(*agrecord.Category)
	if !ok {
		return nil, false, newValidationErrorf("%s is an issue, only categories have a parent", record.ID())
	}
	var parentID string
	if parentRef != NullParent {
		parentID, err = ParseRef(parentRef)
		if err != nil {
			return nil, false, err
		}
	}
	if parentID == category.Parent() {
		return category, false, nil
	}
	if err := c.resolver.CheckReparent(ctx, category.ID(), parentID); err != nil {
		return nil, false, err
	}
	category = category.WithParent(parentID)
	if err := c.commit(ctx, "Modified", category); err != nil {
		return nil, false, err
	}
	return category, true, nil
}

func (c *controller) Show(ctx context.Context, ref string) (*Entry, error) {
	record, err := c.resolveCurrent(ctx, ref)
	if err != nil {
		return nil, err
	}
	oneline, err := c.oneline(ctx, record)
	if err != nil {
		return nil, err
	}
	return &Entry{
		Record:  record,
		Oneline: oneline,
	}, nil
}

func (c *controller) Oneline(ctx context.Context, ref string) (string, error) {
	record, err := c.resolveCurrent(ctx, ref)
	if err != nil {
		return "", err
	}
	return c.oneline(ctx, record)
}

func (c *controller) History(ctx context.Context, ref string) (*agstore.History, error) {
	id, err := ParseRef(ref)
	if err != nil {
		return nil, err
	}
	return c.store.ResolveWithHistory(ctx, id)
}

func (c *controller) Search(ctx context.Context, keywords []string) (_ []*SearchResult, retErr error) {
	ctx, span := c.tracer.Start(
		ctx,
		"search",
		tracing.WithErr(&retErr),
		tracing.WithAttributes(attribute.StringSlice("keywords", keywords)),
	)
	defer span.End()
	allIDs, err := c.store.EnumerateIDs(ctx, true, agstore.FilterNone)
	if err != nil {
		return nil, err
	}
	currentIDs, err := c.store.EnumerateIDs(ctx, false, agstore.FilterNone)
	if err != nil {
		return nil, err
	}
	var results []*SearchResult
	for _, id := range slicesext.MapKeysToSortedSlice(allIDs) {
		_, current := currentIDs[id]
		var record agrecord.Record
		if current {
			record, err = c.store.ResolveCurrent(ctx, id)
		} else {
			record, err = c.store.ResolveLatest(ctx, id)
		}
		if err != nil {
			return nil, err
		}
		if !matchesAny(record.Original(), keywords) {
			continue
		}
		oneline := formatOneline(id, []string{record.Summary()})
		if current {
			oneline, err = c.oneline(ctx, record)
			if err != nil {
				return nil, err
			}
		}
		results = append(results, &SearchResult{
			Entry: Entry{
				Record:  record,
				Oneline: oneline,
			},
			Removed: !current,
		})
	}
	return results, nil
}

func (c *controller) Log(ctx context.Context) ([]*object.Commit, error) {
	var commits []*object.Commit
	if err := c.store.ForEachCommit(ctx, func(commit *object.Commit) error {
		commits = append(commits, commit)
		return nil
	}); err != nil {
		return nil, err
	}
	return commits, nil
}

func (c *controller) List(ctx context.Context) (_ *Listing, retErr error) {
	ctx, span := c.tracer.Start(ctx, "list", tracing.WithErr(&retErr))
	defer span.End()
	head, others, err := agactivity.StartPoints(ctx, c.repository, c.store.Branch())
	if err != nil {
		return nil, err
	}
	activities, err := c.correlator.Correlate(ctx, head, others)
	if err != nil {
		return nil, err
	}
	issues, err := c.store.ListCurrent(ctx, agstore.FilterIssues)
	if err != nil {
		return nil, err
	}
	listing := &Listing{}
	for _, record := range issues {
		path, err := c.categoryPath(ctx, record)
		if err != nil {
			return nil, err
		}
		listing.Issues = append(listing.Issues, IssueLine{
			ID:       record.ID(),
			Summary:  record.Summary(),
			Path:     path,
			Activity: activities[record.ID()],
		})
	}
	listing.Categories, err = c.resolver.Tree(ctx)
	if err != nil {
		return nil, err
	}
	return listing, nil
}

func (c *controller) Start(ctx context.Context, ref string) (_ string, _ bool, retErr error) {
	ctx, span := c.tracer.Start(ctx, "start", tracing.WithErr(&retErr))
	defer span.End()
	record, err := c.resolveCurrent(ctx, ref)
	if err != nil {
		return "", false, err
	}
	var existing string
	if err := c.repository.ForEachBranch(ctx, func(branch string, _ object.ID) error {
		if id, ok := aghook.BranchID(branch); ok && id == record.ID() {
			existing = branch
			return git.ErrStopWalk
		}
		return nil
	}); err != nil && !errors.Is(err, git.ErrStopWalk) {
		return "", false, err
	}
	if existing != "" {
		c.logger.Debug("checkout existing branch", zap.String("id", record.ID()), zap.String("branch", existing))
		return existing, false, c.repository.Checkout(ctx, existing, false)
	}
	branch := record.Slug()
	if err := c.repository.Checkout(ctx, branch, true); err != nil {
		return "", false, err
	}
	return branch, true, nil
}

func (c *controller) Sync(ctx context.Context) (*agsync.Result, error) {
	return c.syncer.Sync(ctx, c.config.Remote)
}

func (c *controller) PrepareCommitMessage(ctx context.Context, filePath string, source string) error {
	branch, err := c.repository.CurrentBranch(ctx)
	if err != nil {
		return err
	}
	if branch == "" {
		return nil
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	message := aghook.PrepareMessage(branch, string(data), source)
	if message == string(data) {
		return nil
	}
	fileInfo, err := os.Stat(filePath)
	if err != nil {
		return err
	}
	return os.WriteFile(filePath, []byte(message), fileInfo.Mode().Perm())
}

func (c *controller) EnsureHook(ctx context.Context) (bool, error) {
	tip, err := c.store.Tip(ctx)
	if err != nil {
		return false, err
	}
	if tip == nil {
		return false, nil
	}
	installed, err := aghook.EnsureInstalled(c.repository.GitDir())
	if err != nil {
		return false, err
	}
	if installed {
		c.logger.Info("installed git hook", zap.String("hook", aghook.HookName))
	}
	return installed, nil
}

func (c *controller) relink(
	ctx context.Context,
	issueRef string,
	categoryRefs []string,
	apply func([]string, []string) []string,
) (*agrecord.Issue, bool, error) {
	if err := c.checkIdentity(); err != nil {
		return nil, false, err
	}
	record, err := c.resolveCurrent(ctx, issueRef)
	if err != nil {
		return nil, false, err
	}
	issue, ok := record.(*agrecord.Issue)
	if !ok {
		return nil, false, newValidationErrorf("%s is a category, only issues are linked to categories", record.ID())
	}
	categoryIDs, err := parseRefs(categoryRefs)
	if err != nil {
		return nil, false, err
	}
	if err := c.checkCategories(ctx, categoryIDs); err != nil {
		return nil, false, err
	}
	categories := apply(issue.Categories(), categoryIDs)
	if slicesext.ElementsEqual(categories, issue.Categories()) {
		return issue, false, nil
	}
	issue = issue.WithCategories(categories)
	if err := c.commit(ctx, "Modified", issue); err != nil {
		return nil, false, err
	}
	return issue, true, nil
}

// editNew runs the editor on the template of a new record and decodes the
// result under a fresh id.
func (c *controller) editNew(ctx context.Context, recordType agrecord.Type, refs []string) (agrecord.Record, error) {
	id, err := c.generator.Generate(ctx, func(ctx context.Context) (map[string]struct{}, error) {
		return c.store.EnumerateIDs(ctx, true, agstore.FilterNone)
	})
	if err != nil {
		return nil, err
	}
	c.logger.Debug("generated id", zap.String("id", id), zap.Stringer("type", recordType))
	edited, err := c.editor.Edit(ctx, agrecord.Template(recordType, refs, c.store.SlugResolver(ctx)))
	if err != nil {
		return nil, err
	}
	return decodeEdited(edited, id, recordType)
}

func (c *controller) commit(ctx context.Context, verb string, record agrecord.Record) error {
	_, err := c.committer.CommitMutation(ctx, agstore.Mutation{
		ID:      record.ID(),
		Type:    record.Type(),
		Record:  record,
		Message: agstore.Message(verb+" "+record.Type().String(), record.ID(), record.Summary()),
	})
	return err
}

func (c *controller) checkIdentity() error {
	if c.config.Identity.Name == "" || c.config.Identity.Email == "" {
		return newValidationErrorf("git user.name and user.email must be configured to record changes")
	}
	return nil
}

func (c *controller) checkCategories(ctx context.Context, categoryIDs []string) error {
	for _, categoryID := range categoryIDs {
		if err := c.resolver.CheckCategory(ctx, categoryID); err != nil {
			if errors.Is(err, agstore.ErrNotFound) {
				return newValidationErrorf("unknown category: %s", categoryID)
			}
			return err
		}
	}
	return nil
}

func (c *controller) resolveCurrent(ctx context.Context, ref string) (agrecord.Record, error) {
	id, err := ParseRef(ref)
	if err != nil {
		return nil, err
	}
	return c.store.ResolveCurrent(ctx, id)
}

func (c *controller) oneline(ctx context.Context, record agrecord.Record) (string, error) {
	if record.Type() == agrecord.TypeCategory {
		chain, err := c.resolver.ParentChain(ctx, record.ID())
		if err != nil {
			return "", err
		}
		return formatOneline(record.ID(), chain), nil
	}
	path, err := c.categoryPath(ctx, record)
	if err != nil {
		return "", err
	}
	return formatOneline(record.ID(), append(path, record.Summary())), nil
}

// categoryPath returns the parent chain of the first category of an issue
// that resolves.
func (c *controller) categoryPath(ctx context.Context, record agrecord.Record) ([]string, error) {
	issue, ok := record.(*agrecord.Issue)
	if !ok {
		return nil, nil
	}
	for _, categoryID := range issue.Categories() {
		chain, err := c.resolver.ParentChain(ctx, categoryID)
		if err != nil {
			if errors.Is(err, agstore.ErrNotFound) {
				continue
			}
			return nil, err
		}
		return chain, nil
	}
	return nil, nil
}

func decodeEdited(text string, id string, recordType agrecord.Type) (agrecord.Record, error) {
	record, err := agrecord.Decode(text, id, recordType)
	if err != nil {
		return nil, err
	}
	if record.Summary() == "" {
		return nil, newValidationErrorf("aborting due to empty summary")
	}
	return record, nil
}

func parseRefs(refs []string) ([]string, error) {
	ids, err := slicesext.MapError(refs, ParseRef)
	if err != nil {
		return nil, err
	}
	return stringutil.SliceToUniqueSortedSliceFilterEmptyStrings(ids), nil
}

func formatOneline(id string, summaries []string) string {
	return fmt.Sprintf("[%s] %s", id, strings.Join(summaries, " / "))
}

func matchesAny(text string, keywords []string) bool {
	for _, keyword := range keywords {
		if stringutil.ContainsFold(text, keyword) {
			return true
		}
	}
	return false
}
