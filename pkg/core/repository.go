// Copyright © 2018 One Concern

package core

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/oneconcern/lineagesync/pkg/codec"
	"github.com/oneconcern/lineagesync/pkg/core/status"
	"github.com/oneconcern/lineagesync/pkg/errors"
	"github.com/oneconcern/lineagesync/pkg/merge"
	"github.com/oneconcern/lineagesync/pkg/metrics"
	"github.com/oneconcern/lineagesync/pkg/model"
	"github.com/oneconcern/lineagesync/pkg/storage"
	"github.com/oneconcern/lineagesync/pkg/storage/localfs"
	"github.com/oneconcern/lineagesync/pkg/vcs"
	vcsstatus "github.com/oneconcern/lineagesync/pkg/vcs/status"
)

// Repository is a lineage project checked out in a git working copy, bound
// to an in-memory model.
//
// Operations are mutually exclusive. Those changing the branch or the
// history first save the model, and refuse to proceed if the working copy
// has uncommitted changes.
type Repository struct {
	mu sync.Mutex

	root string // the project directory
	vcs  vcs.VCS
	mdl  *model.Model
	ids  *codec.Ids

	merger      merge.Merger
	params      merge.Params
	author      vcs.Author
	credentials func() vcs.CredentialsProvider
	remote      string
	project     Project
	legacyUUIDs bool

	metrics.Enable
	m *M
	l *zap.Logger
}

func newRepository(opts []Option) *Repository {
	r := &Repository{
		params: merge.DefaultParams(),
		l:      zap.NewNop(),
	}
	for _, apply := range opts {
		apply(r)
	}
	if r.merger == nil {
		r.merger = merge.New(merge.Logger(r.l))
	}
	if r.MetricsEnabled() {
		r.m = r.EnsureMetrics("core", &M{}).(*M)
	}
	return r
}

func (r *Repository) vcsOptions() []vcs.Option {
	opts := []vcs.Option{vcs.Logger(r.l), vcs.Remote(r.remote)}
	if r.credentials != nil {
		opts = append(opts, vcs.WithCredentials(r.credentials))
	}
	return opts
}

func (r *Repository) bind(projectRoot string, g vcs.VCS, mdl *model.Model) {
	r.root = projectRoot
	r.vcs = g
	if mdl == nil {
		mdl = model.New()
	}
	r.mdl = mdl
	r.ids = codec.NewIds(mdl.Graph)
	r.l = r.l.With(zap.String("project", projectRoot))
}

// usage records the usage metrics of an operation. Use it deferred.
func (r *Repository) usage(start time.Time, operation string, err error) {
	if r.MetricsEnabled() {
		r.m.Usage.UsedAll(start, operation)(err)
	}
}

// Share uploads a model to an empty remote repository.
//
// The remote is cloned into dir, which must be an empty directory. The
// model is saved in the project directory, then committed and pushed. The
// returned repository is bound to mdl.
func Share(ctx context.Context, mdl *model.Model, dir, url string, opts ...Option) (_ *Repository, err error) {
	r := newRepository(opts)
	defer func(t0 time.Time) {
		r.usage(t0, "Share", err)
	}(time.Now())

	empty, err := isEmptyDir(dir)
	if err != nil {
		return nil, status.ErrInvalidDirectory.Wrap(err).WrapMessage(dir)
	}
	if !empty {
		return nil, status.ErrInvalidDirectory.WrapMessage("directory not empty: %s", dir)
	}
	g, err := vcs.Clone(ctx, url, dir, r.vcsOptions()...)
	if err != nil {
		return nil, r.classify(err)
	}
	projectRoot := filepath.Join(dir, ProjectDir)
	if _, err := os.Stat(projectRoot); err == nil {
		return nil, status.ErrRepositoryAlreadyShared.WrapMessage(url)
	}
	if err := os.MkdirAll(projectRoot, 0o755); err != nil {
		return nil, err
	}
	r.bind(projectRoot, g, mdl)

	if r.project.Name == "" {
		r.project.Name = filepath.Base(dir)
	}
	if err := writeProject(projectRoot, r.project); err != nil {
		return nil, err
	}
	if err := copyFile(filepath.Join(projectRoot, projectFile), filepath.Join(projectRoot, remoteProjectFile)); err != nil {
		return nil, err
	}
	if err := r.persist(ctx); err != nil {
		return nil, err
	}
	if err := appendGitignore(dir); err != nil {
		return nil, err
	}
	if err := g.Commit(gitignoreFile, "Add .gitignore file", r.author); err != nil {
		return nil, r.classify(err)
	}
	if err := g.Commit(ProjectDir, "Share lineage project", r.author); err != nil {
		return nil, r.classify(err)
	}
	if err := g.Push(ctx); err != nil {
		return nil, r.classify(err)
	}
	r.l.Info("project shared", zap.String("url", url))
	return r, nil
}

// Clone a shared project into dir and load it.
//
// The local project settings are restored from their shared copy.
func Clone(ctx context.Context, url, dir string, opts ...Option) (_ *Repository, err error) {
	r := newRepository(opts)
	defer func(t0 time.Time) {
		r.usage(t0, "Clone", err)
	}(time.Now())

	g, err := vcs.Clone(ctx, url, dir, r.vcsOptions()...)
	if err != nil {
		return nil, r.classify(err)
	}
	projectRoot := filepath.Join(dir, ProjectDir)
	if err := checkProjectRoot(projectRoot); err != nil {
		return nil, err
	}
	remote := filepath.Join(projectRoot, remoteProjectFile)
	if _, err := os.Stat(remote); err == nil {
		if err := copyFile(remote, filepath.Join(projectRoot, projectFile)); err != nil {
			return nil, err
		}
	}
	r.bind(projectRoot, g, nil)
	if err := r.reload(ctx); err != nil {
		return nil, err
	}
	r.l.Info("project cloned", zap.String("url", url))
	return r, nil
}

// Open the repository of a project directory.
//
// The content of mdl is replaced by the snapshot found in the working copy.
// A nil mdl gets a new model.
func Open(ctx context.Context, projectRoot string, mdl *model.Model, opts ...Option) (*Repository, error) {
	r := newRepository(opts)
	if err := checkProjectRoot(projectRoot); err != nil {
		return nil, err
	}
	g, err := vcs.Open(filepath.Dir(projectRoot), r.vcsOptions()...)
	if err != nil {
		return nil, r.classify(err)
	}
	r.bind(projectRoot, g, mdl)
	if err := r.reload(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

// Root is the project directory
func (r *Repository) Root() string {
	return r.root
}

// Model bound to the repository
func (r *Repository) Model() *model.Model {
	return r.mdl
}

// SetAuthor changes the author of the next commits
func (r *Repository) SetAuthor(a vcs.Author) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.author = a
}

// IsRepository tells if the project is still inside a git working copy
func (r *Repository) IsRepository() bool {
	return checkProjectRoot(r.root) == nil
}

func (r *Repository) store() storage.Store {
	return storage.Instrument(localfs.NewDir(filepath.Join(r.root, modelDir)), r.l, r.MetricsEnabled())
}

func (r *Repository) codecOptions() []codec.Option {
	return []codec.Option{
		codec.Logger(r.l),
		codec.WithLegacyUUIDs(r.legacyUUIDs),
		codec.WithMetrics(r.MetricsEnabled()),
	}
}

// persist saves the in-memory model to the working copy
func (r *Repository) persist(ctx context.Context) (err error) {
	if r.MetricsEnabled() {
		defer func(t0 time.Time) {
			r.m.Volume.Snapshots.IORecord(t0, "save")(0, err)
		}(time.Now())
	}
	if err := checkProjectRoot(r.root); err != nil {
		return err
	}
	return codec.Write(ctx, r.store(), r.mdl, r.ids, r.codecOptions()...)
}

// load reads the snapshot of the working copy into a new model
func (r *Repository) load(ctx context.Context) (_ *model.Model, _ *codec.Ids, err error) {
	if r.MetricsEnabled() {
		defer func(t0 time.Time) {
			r.m.Volume.Snapshots.IORecord(t0, "load")(0, err)
		}(time.Now())
	}
	return codec.Read(ctx, r.store(), r.codecOptions()...)
}

// reload replaces the content of the in-memory model by the snapshot of the
// working copy. The model object stays the same, so do its listeners.
func (r *Repository) reload(ctx context.Context) error {
	read, x, err := r.load(ctx)
	if err != nil {
		return err
	}
	r.ids.Unbind()
	r.mdl.Replace(read)
	x.Bind(r.mdl.Graph)
	r.ids = x
	r.l.Debug("reloaded from disk",
		zap.Int("spots", r.mdl.Graph.NumVertices()),
		zap.Int("links", r.mdl.Graph.NumEdges()),
	)
	return nil
}

// ensureClean saves the model and fails if the working copy is not clean
func (r *Repository) ensureClean(ctx context.Context, operation string) error {
	if err := r.persist(ctx); err != nil {
		return err
	}
	clean, err := r.vcs.IsClean()
	if err != nil {
		return r.classify(err)
	}
	if !clean {
		return status.ErrUncommittedChanges.WrapMessage("before %s", operation)
	}
	return nil
}

// classify maps errors of the version control engine to repository errors
func (r *Repository) classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, vcsstatus.ErrNonFastForward):
		return status.ErrPushRejectedNonFastForward.Wrap(err)
	case errors.Is(err, vcsstatus.ErrPushFailed):
		return status.ErrPushFailed.Wrap(err)
	case errors.Is(err, vcsstatus.ErrNothingToCommit):
		return status.ErrNothingToCommit.Wrap(err)
	case errors.Is(err, vcsstatus.ErrNotARepository):
		return status.ErrNotARepository.Wrap(err)
	case errors.Is(err, vcsstatus.ErrBranchExists):
		return status.ErrBranchNameConflict.Wrap(err)
	default:
		return err
	}
}
