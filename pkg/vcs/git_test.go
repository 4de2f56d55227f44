package vcs

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/oneconcern/lineagesync/pkg/errors"
	"github.com/oneconcern/lineagesync/pkg/vcs/status"
)

const dir = "lineage.project"

var author = Author{Name: "Ada", Email: "ada@example.com"}

func newRemote(t testing.TB) string {
	remote := t.TempDir()
	repo, err := git.PlainInit(remote, true)
	require.NoError(t, err)
	head := plumbing.NewSymbolicReference(plumbing.HEAD, plumbing.NewBranchReferenceName(DefaultBranch))
	require.NoError(t, repo.Storer.SetReference(head))
	return remote
}

func cloneAt(t testing.TB, remote string) *Git {
	g, err := Clone(context.Background(), remote, t.TempDir(), Logger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	return g
}

func writeFile(t testing.TB, g *Git, name, content string) {
	p := filepath.Join(g.Root(), dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func readFile(t testing.TB, g *Git, name string) string {
	data, err := os.ReadFile(filepath.Join(g.Root(), dir, name))
	require.NoError(t, err)
	return string(data)
}

// sharedPair returns two clones of a remote holding one commit
func sharedPair(t testing.TB) (*Git, *Git) {
	remote := newRemote(t)
	first := cloneAt(t, remote)
	writeFile(t, first, "a", "initial")
	require.NoError(t, first.Commit(dir, "initial", author))
	require.NoError(t, first.Push(context.Background()))
	return first, cloneAt(t, remote)
}

func TestCloneEmptyCommitAndPush(t *testing.T) {
	ctx := context.Background()
	remote := newRemote(t)
	g := cloneAt(t, remote)

	branch, err := g.CurrentBranch()
	require.NoError(t, err)
	assert.Equal(t, "refs/heads/main", branch)

	writeFile(t, g, "a", "hello")
	clean, err := g.IsClean()
	require.NoError(t, err)
	assert.False(t, clean)
	changes, err := g.Changes()
	require.NoError(t, err)
	assert.Equal(t, []string{"?? lineage.project/a"}, changes)

	require.NoError(t, g.Commit(dir, "first", author))
	clean, err = g.IsClean()
	require.NoError(t, err)
	assert.True(t, clean)

	err = g.Commit(dir, "again", author)
	assert.True(t, errors.Is(err, status.ErrNothingToCommit))

	require.NoError(t, g.Push(ctx))
	upstreamRemote, merge, err := g.Upstream("main")
	require.NoError(t, err)
	assert.Equal(t, "origin", upstreamRemote)
	assert.Equal(t, "refs/heads/main", merge)
	tracking, err := g.RemoteTrackingBranch("main")
	require.NoError(t, err)
	assert.Equal(t, "refs/remotes/origin/main", tracking)

	other := cloneAt(t, remote)
	assert.Equal(t, "hello", readFile(t, other, "a"))

	head, err := other.repo.Head()
	require.NoError(t, err)
	commit, err := other.repo.CommitObject(head.Hash())
	require.NoError(t, err)
	assert.Equal(t, "Ada", commit.Author.Name)
	assert.Equal(t, "first", commit.Message)
}

func TestCommitUnchangedTree(t *testing.T) {
	g, _ := sharedPair(t)
	before, err := g.repo.Head()
	require.NoError(t, err)

	// same content, new mtime
	writeFile(t, g, "a", "initial")
	err = g.Commit(dir, "unchanged", author)
	assert.True(t, errors.Is(err, status.ErrNothingToCommit))

	// changes outside of the committed directory don't count
	require.NoError(t, os.WriteFile(filepath.Join(g.Root(), "README"), []byte("readme"), 0o600))
	err = g.Commit(dir, "outside", author)
	assert.True(t, errors.Is(err, status.ErrNothingToCommit))

	after, err := g.repo.Head()
	require.NoError(t, err)
	assert.Equal(t, before.Hash(), after.Hash())
}

func TestCommitStagesDeletions(t *testing.T) {
	g, _ := sharedPair(t)
	writeFile(t, g, "b", "b")
	require.NoError(t, g.Commit(dir, "add b", author))

	require.NoError(t, os.Remove(filepath.Join(g.Root(), dir, "a")))
	require.NoError(t, g.Commit(dir, "remove a", author))

	var names []string
	require.NoError(t, g.ReadTree("HEAD", dir, func(name string, r io.Reader) error {
		names = append(names, name)
		return nil
	}))
	assert.Equal(t, []string{"b"}, names)
}

func TestPullFastForward(t *testing.T) {
	ctx := context.Background()
	first, second := sharedPair(t)
	writeFile(t, second, "a", "changed")
	require.NoError(t, second.Commit(dir, "change", author))
	require.NoError(t, second.Push(ctx))

	diverged, err := first.Pull(ctx)
	require.NoError(t, err)
	assert.False(t, diverged)
	assert.Equal(t, "changed", readFile(t, first, "a"))

	diverged, err = first.Pull(ctx)
	require.NoError(t, err)
	assert.False(t, diverged, "already up to date")
}

func TestPullDivergedRecordsMerge(t *testing.T) {
	ctx := context.Background()
	first, second := sharedPair(t)
	writeFile(t, second, "a", "theirs")
	require.NoError(t, second.Commit(dir, "theirs", author))
	require.NoError(t, second.Push(ctx))

	writeFile(t, first, "a", "ours")
	require.NoError(t, first.Commit(dir, "ours", author))
	err := first.Push(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrNonFastForward), errors.Details(err))

	diverged, err := first.Pull(ctx)
	require.NoError(t, err)
	require.True(t, diverged)

	require.NoError(t, first.CheckoutStage(Theirs, dir))
	assert.Equal(t, "theirs", readFile(t, first, "a"))
	require.NoError(t, first.CheckoutStage(Ours, dir))
	assert.Equal(t, "ours", readFile(t, first, "a"))

	writeFile(t, first, "a", "merged")
	require.NoError(t, first.Commit(dir, "merge", author))
	require.NoError(t, first.AbortMerge())

	head, err := first.repo.Head()
	require.NoError(t, err)
	commit, err := first.repo.CommitObject(head.Hash())
	require.NoError(t, err)
	assert.Equal(t, 2, commit.NumParents())
	_, err = first.repo.Reference(mergeHead, true)
	assert.Error(t, err, "merge head is cleared")

	require.NoError(t, first.Push(ctx))
	diverged, err = second.Pull(ctx)
	require.NoError(t, err)
	assert.False(t, diverged)
	assert.Equal(t, "merged", readFile(t, second, "a"))
}

func TestBranches(t *testing.T) {
	ctx := context.Background()
	first, second := sharedPair(t)

	require.NoError(t, first.CreateBranch("feature"))
	assert.True(t, errors.Is(first.CreateBranch("feature"), status.ErrBranchExists))
	writeFile(t, first, "f", "feature")
	require.NoError(t, first.Commit(dir, "feature", author))
	require.NoError(t, first.Push(ctx))

	require.NoError(t, second.Fetch(ctx))
	branches, err := second.Branches()
	require.NoError(t, err)
	assert.Contains(t, branches, "refs/remotes/origin/feature")
	assert.Contains(t, branches, "refs/heads/main")
	assert.NotContains(t, branches, "refs/heads/feature")

	require.NoError(t, second.CheckoutRemote("refs/remotes/origin/feature", "feature"))
	current, err := second.CurrentBranch()
	require.NoError(t, err)
	assert.Equal(t, "refs/heads/feature", current)
	assert.Equal(t, "feature", readFile(t, second, "f"))
	err = second.CheckoutRemote("refs/remotes/origin/feature", "feature")
	assert.True(t, errors.Is(err, status.ErrBranchExists))

	require.NoError(t, second.Checkout("main"))
	_, err = os.Stat(filepath.Join(second.Root(), dir, "f"))
	assert.True(t, os.IsNotExist(err))
	assert.True(t, errors.Is(second.Checkout("nope"), status.ErrBranchNotFound))
}

func TestMergeNoCommitAndAbort(t *testing.T) {
	first, _ := sharedPair(t)
	require.NoError(t, first.CreateBranch("other"))
	writeFile(t, first, "a", "other")
	require.NoError(t, first.Commit(dir, "other", author))
	require.NoError(t, first.Checkout("main"))

	require.NoError(t, first.MergeNoCommit("other"))
	require.NoError(t, first.CheckoutStage(Theirs, dir))
	assert.Equal(t, "other", readFile(t, first, "a"))

	require.NoError(t, first.AbortMerge())
	assert.Equal(t, "initial", readFile(t, first, "a"))
	clean, err := first.IsClean()
	require.NoError(t, err)
	assert.True(t, clean)
	assert.True(t, errors.Is(first.CheckoutStage(Theirs, dir), status.ErrNoMergeInProgress))
}

func TestResetHard(t *testing.T) {
	first, _ := sharedPair(t)
	writeFile(t, first, "a", "local")
	require.NoError(t, first.Commit(dir, "local", author))

	require.NoError(t, first.ResetHard("refs/remotes/origin/main"))
	assert.Equal(t, "initial", readFile(t, first, "a"))
	assert.True(t, errors.Is(first.ResetHard("refs/heads/nope"), status.ErrBranchNotFound))
}

func TestOpenNotARepository(t *testing.T) {
	_, err := Open(t.TempDir())
	assert.True(t, errors.Is(err, status.ErrNotARepository))
}

type fakeProvider struct {
	cached bool
	calls  int
}

func (f *fakeProvider) Cached() bool { return f.cached }

func (f *fakeProvider) Get(string) (transport.AuthMethod, error) {
	f.calls++
	return &githttp.BasicAuth{Username: "u", Password: "p"}, nil
}

func TestWithAuthRetries(t *testing.T) {
	for _, tc := range []struct {
		name     string
		cached   bool
		failures int
		calls    int
		err      error
	}{
		{name: "anonymous", failures: 0, calls: 0},
		{name: "asked once", failures: 1, calls: 1},
		{name: "cached", cached: true, failures: 0, calls: 1},
		{name: "cached then rejected", cached: true, failures: 1, calls: 2},
		{name: "gives up", failures: 100, calls: maxAuthAttempts, err: status.ErrCredentials},
	} {
		t.Run(tc.name, func(t *testing.T) {
			provider := &fakeProvider{cached: tc.cached}
			g := newGit("", []Option{WithCredentials(func() CredentialsProvider { return provider })})
			attempts := 0
			err := g.withAuth("https://example.com/repo.git", func(transport.AuthMethod) error {
				attempts++
				if attempts <= tc.failures {
					return transport.ErrAuthenticationRequired
				}
				return nil
			})
			if tc.err != nil {
				assert.True(t, errors.Is(err, tc.err))
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tc.calls, provider.calls)
		})
	}
}
