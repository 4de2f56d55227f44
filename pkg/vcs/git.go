// Copyright © 2018 One Concern

package vcs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/storage/filesystem"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/oneconcern/lineagesync/pkg/errors"
	"github.com/oneconcern/lineagesync/pkg/vcs/status"
)

const (
	// DefaultRemote is the remote repositories are shared with
	DefaultRemote = "origin"

	// DefaultBranch is the initial branch of repositories shared from scratch
	DefaultBranch = "main"

	mergeHead = plumbing.ReferenceName("MERGE_HEAD")
	mergeMsg  = "MERGE_MSG"
)

// Git is a working copy managed with go-git
type Git struct {
	root        string
	repo        *git.Repository
	l           *zap.Logger
	credentials func() CredentialsProvider
	remote      string
	now         func() time.Time
}

var _ VCS = &Git{}

func newGit(root string, opts []Option) *Git {
	g := &Git{
		root:   root,
		l:      zap.NewNop(),
		remote: DefaultRemote,
		now:    time.Now,
	}
	for _, apply := range opts {
		apply(g)
	}
	g.l = g.l.With(zap.String("repo", root))
	return g
}

// Open an existing working copy
func Open(root string, opts ...Option) (*Git, error) {
	g := newGit(root, opts)
	repo, err := git.PlainOpen(root)
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, status.ErrNotARepository.WrapMessage(root)
		}
		return nil, status.ErrGit.Wrap(err)
	}
	g.repo = repo
	return g, nil
}

// Clone a remote repository into root.
//
// Cloning an empty remote initializes a repository with the remote
// configured and DefaultBranch checked out.
func Clone(ctx context.Context, url, root string, opts ...Option) (*Git, error) {
	g := newGit(root, opts)
	err := g.withAuth(url, func(auth transport.AuthMethod) error {
		repo, err := git.PlainCloneContext(ctx, root, false, &git.CloneOptions{
			URL:        url,
			Auth:       auth,
			RemoteName: g.remote,
		})
		g.repo = repo
		return err
	})
	switch {
	case err == nil:
		g.l.Info("cloned", zap.String("url", url))
		if _, err := g.repo.Head(); errors.Is(err, plumbing.ErrReferenceNotFound) {
			return g, g.setInitialBranch(g.repo)
		}
		return g, nil
	case errors.Is(err, transport.ErrEmptyRemoteRepository):
		g.l.Info("remote is empty, initializing", zap.String("url", url))
		return g, g.initEmpty(url)
	default:
		return nil, err
	}
}

func (g *Git) initEmpty(url string) error {
	if err := os.RemoveAll(filepath.Join(g.root, git.GitDirName)); err != nil {
		return status.ErrGit.Wrap(err)
	}
	repo, err := git.PlainInit(g.root, false)
	if err != nil {
		return status.ErrGit.Wrap(err)
	}
	if _, err = repo.CreateRemote(&config.RemoteConfig{Name: g.remote, URLs: []string{url}}); err != nil {
		return status.ErrGit.Wrap(err)
	}
	g.repo = repo
	return g.setInitialBranch(repo)
}

func (g *Git) setInitialBranch(repo *git.Repository) error {
	head := plumbing.NewSymbolicReference(plumbing.HEAD, plumbing.NewBranchReferenceName(DefaultBranch))
	if err := repo.Storer.SetReference(head); err != nil {
		return status.ErrGit.Wrap(err)
	}
	return nil
}

func (g *Git) Root() string {
	return g.root
}

func (g *Git) worktree() (*git.Worktree, error) {
	wt, err := g.repo.Worktree()
	if err != nil {
		return nil, status.ErrGit.Wrap(err)
	}
	return wt, nil
}

func (g *Git) remoteURL() (string, error) {
	cfg, err := g.repo.Config()
	if err != nil {
		return "", status.ErrGit.Wrap(err)
	}
	remote, ok := cfg.Remotes[g.remote]
	if !ok || len(remote.URLs) == 0 {
		return "", status.ErrGit.WrapMessage("no remote %q", g.remote)
	}
	return remote.URLs[0], nil
}

func (g *Git) Branches() ([]string, error) {
	refs, err := g.repo.References()
	if err != nil {
		return nil, status.ErrGit.Wrap(err)
	}
	var names []string
	err = refs.ForEach(func(r *plumbing.Reference) error {
		n := r.Name()
		if (n.IsBranch() || n.IsRemote()) && r.Type() == plumbing.HashReference {
			names = append(names, n.String())
		}
		return nil
	})
	if err != nil {
		return nil, status.ErrGit.Wrap(err)
	}
	sort.Strings(names)
	return names, nil
}

func (g *Git) CurrentBranch() (string, error) {
	head, err := g.repo.Reference(plumbing.HEAD, false)
	if err != nil {
		return "", status.ErrGit.Wrap(err)
	}
	if head.Type() == plumbing.SymbolicReference {
		return head.Target().String(), nil
	}
	// detached
	return head.Hash().String(), nil
}

func (g *Git) currentShort() (string, error) {
	branch, err := g.CurrentBranch()
	if err != nil {
		return "", err
	}
	return plumbing.ReferenceName(branch).Short(), nil
}

func branchRef(name string) plumbing.ReferenceName {
	if strings.HasPrefix(name, "refs/") {
		return plumbing.ReferenceName(name)
	}
	return plumbing.NewBranchReferenceName(name)
}

func (g *Git) exists(name plumbing.ReferenceName) bool {
	_, err := g.repo.Reference(name, false)
	return err == nil
}

func (g *Git) CreateBranch(name string) error {
	ref := plumbing.NewBranchReferenceName(name)
	if g.exists(ref) {
		return status.ErrBranchExists.WrapMessage(name)
	}
	wt, err := g.worktree()
	if err != nil {
		return err
	}
	if err := wt.Checkout(&git.CheckoutOptions{Branch: ref, Create: true, Keep: true}); err != nil {
		return status.ErrGit.Wrap(err).WrapMessage("create branch %s", name)
	}
	g.l.Info("branch created", zap.String("branch", name))
	return nil
}

func (g *Git) Checkout(branch string) error {
	ref := branchRef(branch)
	if !g.exists(ref) {
		return status.ErrBranchNotFound.WrapMessage(branch)
	}
	wt, err := g.worktree()
	if err != nil {
		return err
	}
	if err := wt.Checkout(&git.CheckoutOptions{Branch: ref}); err != nil {
		return status.ErrGit.Wrap(err).WrapMessage("checkout %s", branch)
	}
	g.l.Debug("checked out", zap.Stringer("branch", ref))
	return nil
}

func (g *Git) CheckoutRemote(remoteBranch, local string) error {
	remoteRef := plumbing.ReferenceName(remoteBranch)
	if !remoteRef.IsRemote() {
		return status.ErrBranchNotFound.WrapMessage("%s is not a remote branch", remoteBranch)
	}
	target, err := g.repo.Reference(remoteRef, true)
	if err != nil {
		return status.ErrBranchNotFound.Wrap(err).WrapMessage(remoteBranch)
	}
	localRef := plumbing.NewBranchReferenceName(local)
	if g.exists(localRef) {
		return status.ErrBranchExists.WrapMessage(local)
	}

	// refs/remotes/<remote>/<branch>
	parts := strings.SplitN(strings.TrimPrefix(remoteBranch, "refs/remotes/"), "/", 2)
	if len(parts) != 2 {
		return status.ErrBranchNotFound.WrapMessage(remoteBranch)
	}
	if err := g.repo.Storer.SetReference(plumbing.NewHashReference(localRef, target.Hash())); err != nil {
		return status.ErrGit.Wrap(err)
	}
	if err := g.SetUpstream(local, parts[0], plumbing.NewBranchReferenceName(parts[1]).String()); err != nil {
		return err
	}
	return g.Checkout(localRef.String())
}

func (g *Git) CheckoutStage(stage Stage, dir string) error {
	rev := plumbing.HEAD
	if stage == Theirs {
		rev = mergeHead
	}
	ref, err := g.repo.Reference(rev, true)
	if err != nil {
		if stage == Theirs {
			return status.ErrNoMergeInProgress.Wrap(err)
		}
		return status.ErrGit.Wrap(err)
	}
	tree, err := g.tree(ref.Hash(), dir)
	if err != nil {
		return err
	}

	wt, err := g.worktree()
	if err != nil {
		return err
	}
	if err := util.RemoveAll(wt.Filesystem, dir); err != nil {
		return status.ErrGit.Wrap(err)
	}
	if tree == nil {
		return nil
	}
	err = tree.Files().ForEach(func(f *object.File) error {
		content, err := f.Contents()
		if err != nil {
			return err
		}
		return util.WriteFile(wt.Filesystem, path.Join(dir, f.Name), []byte(content), 0o644)
	})
	if err != nil {
		return status.ErrGit.Wrap(err).WrapMessage("checkout %s stage", stage)
	}
	g.l.Debug("checked out stage", zap.Stringer("stage", stage), zap.String("dir", dir))
	return nil
}

// tree of a directory at some commit, or nil if the directory doesn't exist
func (g *Git) tree(hash plumbing.Hash, dir string) (*object.Tree, error) {
	commit, err := g.repo.CommitObject(hash)
	if err != nil {
		return nil, status.ErrGit.Wrap(err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, status.ErrGit.Wrap(err)
	}
	if dir == "" || dir == "." {
		return tree, nil
	}
	sub, err := tree.Tree(dir)
	if err != nil {
		if errors.Is(err, object.ErrDirectoryNotFound) {
			return nil, nil
		}
		return nil, status.ErrGit.Wrap(err)
	}
	return sub, nil
}

func underDir(name, dir string) bool {
	return dir == "" || dir == "." || name == dir || strings.HasPrefix(name, dir+"/")
}

func (g *Git) Commit(dir, message string, author Author) error {
	wt, err := g.worktree()
	if err != nil {
		return err
	}
	st, err := wt.Status()
	if err != nil {
		return status.ErrGit.Wrap(err)
	}
	for name, s := range st {
		if !underDir(name, dir) {
			continue
		}
		switch s.Worktree {
		case git.Unmodified:
		case git.Deleted:
			_, err = wt.Remove(name)
		default:
			_, err = wt.Add(name)
		}
		if err != nil {
			return status.ErrGit.Wrap(err).WrapMessage("stage %s", name)
		}
	}

	opts := &git.CommitOptions{
		Author: &object.Signature{Name: author.Name, Email: author.Email, When: g.now()},
	}
	if merging, err := g.repo.Reference(mergeHead, true); err == nil {
		head, err := g.repo.Head()
		if err != nil {
			return status.ErrGit.Wrap(err)
		}
		opts.Parents = []plumbing.Hash{head.Hash(), merging.Hash()}
		opts.AllowEmptyCommits = true
	} else {
		// go-git only refuses to commit an empty index, not an unchanged tree
		staged, err := hasStaged(wt, dir)
		if err != nil {
			return err
		}
		if !staged {
			return status.ErrNothingToCommit
		}
	}
	hash, err := wt.Commit(message, opts)
	if err != nil {
		if errors.Is(err, git.ErrEmptyCommit) {
			return status.ErrNothingToCommit
		}
		return status.ErrGit.Wrap(err).WrapMessage("commit")
	}
	g.l.Info("committed", zap.Stringer("commit", hash), zap.String("message", message), zap.Int("parents", max(1, len(opts.Parents))))
	return nil
}

func hasStaged(wt *git.Worktree, dir string) (bool, error) {
	st, err := wt.Status()
	if err != nil {
		return false, status.ErrGit.Wrap(err)
	}
	for name, s := range st {
		if !underDir(name, dir) {
			continue
		}
		if s.Staging != git.Unmodified && s.Staging != git.Untracked {
			return true, nil
		}
	}
	return false, nil
}

func (g *Git) IsClean() (bool, error) {
	wt, err := g.worktree()
	if err != nil {
		return false, err
	}
	st, err := wt.Status()
	if err != nil {
		return false, status.ErrGit.Wrap(err)
	}
	return st.IsClean(), nil
}

func (g *Git) Changes() ([]string, error) {
	wt, err := g.worktree()
	if err != nil {
		return nil, err
	}
	st, err := wt.Status()
	if err != nil {
		return nil, status.ErrGit.Wrap(err)
	}
	changes := make([]string, 0, len(st))
	for name, s := range st {
		if s.Staging == git.Unmodified && s.Worktree == git.Unmodified {
			continue
		}
		changes = append(changes, fmt.Sprintf("%c%c %s", s.Staging, s.Worktree, name))
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i][3:] < changes[j][3:] })
	return changes, nil
}

func (g *Git) Fetch(ctx context.Context) error {
	url, err := g.remoteURL()
	if err != nil {
		return err
	}
	err = g.withAuth(url, func(auth transport.AuthMethod) error {
		return g.repo.FetchContext(ctx, &git.FetchOptions{RemoteName: g.remote, Auth: auth})
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return status.ErrGit.Wrap(err).WrapMessage("fetch")
	}
	return nil
}

func (g *Git) Pull(ctx context.Context) (bool, error) {
	branch, err := g.currentShort()
	if err != nil {
		return false, err
	}
	remote, merge, err := g.Upstream(branch)
	if err != nil {
		return false, err
	}
	if merge == "" {
		remote, merge = g.remote, plumbing.NewBranchReferenceName(branch).String()
	}
	url, err := g.remoteURL()
	if err != nil {
		return false, err
	}
	wt, err := g.worktree()
	if err != nil {
		return false, err
	}

	err = g.withAuth(url, func(auth transport.AuthMethod) error {
		return wt.PullContext(ctx, &git.PullOptions{
			RemoteName:    remote,
			ReferenceName: plumbing.ReferenceName(merge),
			Auth:          auth,
		})
	})
	switch {
	case err == nil:
		g.l.Info("pulled", zap.String("branch", branch))
		return false, nil
	case errors.Is(err, git.NoErrAlreadyUpToDate):
		return false, nil
	case errors.Is(err, plumbing.ErrReferenceNotFound):
		g.l.Info("nothing to pull, the remote has no such branch", zap.String("branch", merge))
		return false, nil
	case errors.Is(err, git.ErrNonFastForwardUpdate):
	default:
		return false, status.ErrGit.Wrap(err).WrapMessage("pull")
	}

	tracking := plumbing.NewRemoteReferenceName(remote, plumbing.ReferenceName(merge).Short())
	theirs, err := g.repo.Reference(tracking, true)
	if err != nil {
		return false, status.ErrGit.Wrap(err)
	}
	g.l.Info("branches have diverged", zap.String("branch", branch), zap.Stringer("theirs", theirs.Hash()))
	return true, g.startMerge(theirs.Hash(), fmt.Sprintf("Merge branch '%s' of %s", plumbing.ReferenceName(merge).Short(), url))
}

func (g *Git) Push(ctx context.Context) error {
	branch, err := g.CurrentBranch()
	if err != nil {
		return err
	}
	url, err := g.remoteURL()
	if err != nil {
		return err
	}
	err = g.withAuth(url, func(auth transport.AuthMethod) error {
		return g.repo.PushContext(ctx, &git.PushOptions{
			RemoteName: g.remote,
			RefSpecs:   []config.RefSpec{config.RefSpec(branch + ":" + branch)},
			Auth:       auth,
		})
	})
	switch {
	case err == nil, errors.Is(err, git.NoErrAlreadyUpToDate):
	case isNonFastForward(err):
		return status.ErrNonFastForward.Wrap(err)
	default:
		return status.ErrPushFailed.Wrap(err)
	}
	g.l.Info("pushed", zap.String("branch", branch))

	short := plumbing.ReferenceName(branch).Short()
	_, merge, err := g.Upstream(short)
	if err != nil {
		return err
	}
	if merge == "" {
		return g.SetUpstream(short, g.remote, branch)
	}
	return nil
}

func isNonFastForward(err error) bool {
	return errors.Is(err, git.ErrNonFastForwardUpdate) ||
		errors.Is(err, git.ErrForceNeeded) ||
		errors.Is(err, plumbing.ErrObjectNotFound) ||
		strings.Contains(err.Error(), "non-fast-forward")
}

func (g *Git) resolve(rev string) (plumbing.Hash, error) {
	hash, err := g.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return plumbing.ZeroHash, status.ErrBranchNotFound.Wrap(err).WrapMessage(rev)
	}
	return *hash, nil
}

func (g *Git) ResetHard(ref string) error {
	hash, err := g.resolve(ref)
	if err != nil {
		return err
	}
	return g.resetHard(hash)
}

func (g *Git) resetHard(hash plumbing.Hash) error {
	wt, err := g.worktree()
	if err != nil {
		return err
	}
	if err := wt.Reset(&git.ResetOptions{Commit: hash, Mode: git.HardReset}); err != nil {
		return status.ErrGit.Wrap(err).WrapMessage("reset to %s", hash)
	}
	g.l.Debug("reset", zap.Stringer("commit", hash))
	return nil
}

func (g *Git) MergeNoCommit(branch string) error {
	ref, err := g.repo.Reference(branchRef(branch), true)
	if err != nil {
		return status.ErrBranchNotFound.Wrap(err).WrapMessage(branch)
	}
	return g.startMerge(ref.Hash(), fmt.Sprintf("Merge branch '%s'", ref.Name().Short()))
}

func (g *Git) startMerge(theirs plumbing.Hash, message string) error {
	if err := g.repo.Storer.SetReference(plumbing.NewHashReference(mergeHead, theirs)); err != nil {
		return status.ErrGit.Wrap(err)
	}
	if fs, ok := g.dotGit(); ok {
		if err := util.WriteFile(fs, mergeMsg, []byte(message+"\n"), 0o644); err != nil {
			return status.ErrGit.Wrap(err)
		}
	}
	return nil
}

func (g *Git) AbortMerge() error {
	var errs error
	if err := g.repo.Storer.RemoveReference(mergeHead); err != nil {
		errs = multierr.Append(errs, err)
	}
	if fs, ok := g.dotGit(); ok {
		if err := fs.Remove(mergeMsg); err != nil && !os.IsNotExist(err) {
			errs = multierr.Append(errs, err)
		}
	}
	head, err := g.repo.Head()
	if err != nil {
		return multierr.Append(errs, status.ErrGit.Wrap(err))
	}
	return multierr.Append(errs, g.resetHard(head.Hash()))
}

// dotGit is the file system of the .git directory
func (g *Git) dotGit() (billy.Filesystem, bool) {
	s, ok := g.repo.Storer.(*filesystem.Storage)
	if !ok {
		return nil, false
	}
	return s.Filesystem(), true
}

func (g *Git) Upstream(branch string) (string, string, error) {
	cfg, err := g.repo.Config()
	if err != nil {
		return "", "", status.ErrGit.Wrap(err)
	}
	b, ok := cfg.Branches[branch]
	if !ok {
		return "", "", nil
	}
	return b.Remote, b.Merge.String(), nil
}

func (g *Git) SetUpstream(branch, remote, merge string) error {
	cfg, err := g.repo.Config()
	if err != nil {
		return status.ErrGit.Wrap(err)
	}
	b, ok := cfg.Branches[branch]
	if !ok {
		b = &config.Branch{Name: branch}
		cfg.Branches[branch] = b
	}
	b.Remote = remote
	b.Merge = plumbing.ReferenceName(merge)
	if err := g.repo.SetConfig(cfg); err != nil {
		return status.ErrGit.Wrap(err)
	}
	g.l.Debug("upstream set", zap.String("branch", branch), zap.String("remote", remote), zap.String("merge", merge))
	return nil
}

func (g *Git) RemoteTrackingBranch(branch string) (string, error) {
	remote, merge, err := g.Upstream(branch)
	if err != nil {
		return "", err
	}
	if merge == "" {
		return "", status.ErrBranchNotFound.WrapMessage("no upstream for %s", branch)
	}
	return plumbing.NewRemoteReferenceName(remote, plumbing.ReferenceName(merge).Short()).String(), nil
}

func (g *Git) ReadTree(rev, dir string, visit func(string, io.Reader) error) error {
	hash, err := g.resolve(rev)
	if err != nil {
		return err
	}
	tree, err := g.tree(hash, dir)
	if err != nil || tree == nil {
		return err
	}
	return tree.Files().ForEach(func(f *object.File) error {
		r, err := f.Reader()
		if err != nil {
			return err
		}
		defer r.Close()
		return visit(f.Name, r)
	})
}
