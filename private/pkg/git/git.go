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

package git

import (
	"context"
	"errors"

	"github.com/agtrack/ag/private/pkg/command"
	"github.com/agtrack/ag/private/pkg/git/object"
	"go.uber.org/zap"
)

const (
	gitCommand  = "git"
	headsPrefix = "refs/heads/"
)

var (
	// ErrNotRepository is returned from OpenRepository when the directory is
	// not inside a git repository.
	ErrNotRepository = errors.New("not a git repository")
	// ErrRefNotFound is returned when a ref does not resolve to a commit.
	ErrRefNotFound = errors.New("git ref not found")
	// ErrStaleRef is returned from UpdateRef when the ref no longer points at
	// the expected old value.
	ErrStaleRef = errors.New("git ref was updated concurrently")
	// ErrRemoteNotFound is returned when the named remote is not configured.
	ErrRemoteNotFound = errors.New("git remote not found")
	// ErrObjectNotFound is returned from an ObjectReader when the object does
	// not exist.
	ErrObjectNotFound = errors.New("git object not found")
	// ErrStopWalk can be returned from a walk callback to end the walk
	// without an error.
	ErrStopWalk = errors.New("stop walk")
)

// ObjectReader reads objects from a git object store.
type ObjectReader interface {
	// Commit reads the commit with the given id. The returned commit has its
	// ID set.
	Commit(id object.ID) (*object.Commit, error)
	// Tree reads the tree with the given id.
	Tree(id object.ID) (*object.Tree, error)
	// Blob reads the blob with the given id.
	Blob(id object.ID) ([]byte, error)
}

// ObjectWriter writes loose objects and moves refs.
type ObjectWriter interface {
	// WriteBlob writes data as a blob.
	WriteBlob(ctx context.Context, data []byte) (object.ID, error)
	// WriteTree writes the tree. Entries do not need to be sorted.
	WriteTree(ctx context.Context, tree *object.Tree) (object.ID, error)
	// WriteCommit writes a commit without touching any ref.
	WriteCommit(ctx context.Context, commit CommitSpec) (object.ID, error)
	// UpdateRef moves ref to newID if and only if it currently points at
	// oldID. An empty or zero oldID requires that the ref does not exist.
	//
	// Returns ErrStaleRef if the ref moved in the meantime.
	UpdateRef(ctx context.Context, ref string, newID object.ID, oldID object.ID, reason string) error
}

// CommitSpec is the content of a commit to write.
type CommitSpec struct {
	Tree      object.ID
	Parents   []object.ID
	Author    object.Ident
	Committer object.Ident
	Message   string
}

// Repository is a git repository discovered from a directory.
//
// Repositories hold a long-lived git cat-file process and must be closed.
type Repository interface {
	ObjectWriter

	// GitDir is the absolute path of the git directory.
	GitDir() string
	// WorkTree is the absolute path of the work tree, or empty for a bare
	// repository.
	WorkTree() string
	// Objects returns the object reader of the repository.
	Objects() ObjectReader
	// ResolveRef resolves a ref or revision to a commit id.
	//
	// Returns ErrRefNotFound if it does not resolve.
	ResolveRef(ctx context.Context, ref string) (object.ID, error)
	// ForEachBranch calls f for every local branch, sorted by name.
	ForEachBranch(ctx context.Context, f func(branch string, id object.ID) error) error
	// CurrentBranch returns the checked out branch, or empty if HEAD is
	// detached.
	CurrentBranch(ctx context.Context) (string, error)
	// Checkout checks out branch in the work tree, creating it at HEAD if
	// create is set.
	Checkout(ctx context.Context, branch string, create bool) error
	// ConfigValue returns the value of a git config key, or empty if unset.
	ConfigValue(ctx context.Context, key string) (string, error)
	// IsAncestor returns true if ancestor is reachable from descendant. A
	// commit is its own ancestor.
	IsAncestor(ctx context.Context, ancestor object.ID, descendant object.ID) (bool, error)
	// CountDivergence returns how many commits are reachable only from left
	// and only from right.
	CountDivergence(ctx context.Context, left object.ID, right object.ID) (int, int, error)
	// RemoteBranch returns the commit a branch of the remote points at.
	//
	// Returns ErrRemoteNotFound if the remote is not configured and
	// ErrRefNotFound if the remote has no such branch.
	RemoteBranch(ctx context.Context, remote string, branch string) (object.ID, error)
	// Fetch fetches branch from remote into refs/remotes/<remote>/<branch>
	// and returns the fetched commit.
	Fetch(ctx context.Context, remote string, branch string) (object.ID, error)
	// Push pushes the local branch to the same branch of remote. The push is
	// not forced.
	Push(ctx context.Context, remote string, branch string) error
	// Close closes the object reader.
	Close() error
}

// OpenRepositoryOption is an option for OpenRepository.
type OpenRepositoryOption func(*openRepositoryOptions)

// OpenRepositoryWithLogger returns a new OpenRepositoryOption that logs every
// git invocation at debug level.
func OpenRepositoryWithLogger(logger *zap.Logger) OpenRepositoryOption {
	return func(options *openRepositoryOptions) {
		options.logger = logger
	}
}

// OpenRepository discovers the repository containing dir with git rev-parse.
//
// env is the environment git runs with. It should carry at least PATH and
// HOME. GIT_DIR and GIT_WORK_TREE are set by the repository.
//
// Returns ErrNotRepository if dir is not inside a repository.
func OpenRepository(
	ctx context.Context,
	runner command.Runner,
	env map[string]string,
	dir string,
	options ...OpenRepositoryOption,
) (Repository, error) {
	return openRepository(ctx, runner, env, dir, options...)
}

// RefForBranch returns the full ref of a local branch.
func RefForBranch(branch string) string {
	return headsPrefix + branch
}

// RemoteRefForBranch returns the remote-tracking ref of a branch.
func RemoteRefForBranch(remote string, branch string) string {
	return "refs/remotes/" + remote + "/" + branch
}
