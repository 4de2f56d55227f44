package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/oneconcern/lineagesync/internal/lineagetest"
	"github.com/oneconcern/lineagesync/pkg/core/status"
	"github.com/oneconcern/lineagesync/pkg/errors"
	"github.com/oneconcern/lineagesync/pkg/model"
	"github.com/oneconcern/lineagesync/pkg/ui"
	"github.com/oneconcern/lineagesync/pkg/vcs"
)

type mockPrompter struct {
	mock.Mock
}

func (m *mockPrompter) RequestCommitMessage() ui.Result[string] {
	return m.Called().Get(0).(ui.Result[string])
}

func (m *mockPrompter) RequestCredentials(url string, failed bool) ui.Result[ui.Credentials] {
	return m.Called(url, failed).Get(0).(ui.Result[ui.Credentials])
}

func (m *mockPrompter) ShowError(title string, err error) {
	m.Called(title, err)
}

func (m *mockPrompter) ShowBranchPicker(branches []string, current string) ui.Result[string] {
	return m.Called(branches, current).Get(0).(ui.Result[string])
}

func (m *mockPrompter) Notify(title, message string) {
	m.Called(title, message)
}

func (m *mockPrompter) Confirm(title, message string) bool {
	return m.Called(title, message).Bool(0)
}

func TestControllerCommit(t *testing.T) {
	ctx := context.Background()
	sharer, _ := sharedPair(t)
	prompter := &mockPrompter{}
	c := NewController(sharer, prompter)

	prompter.On("Notify", titleCommit, msgNoChanges).Once()
	require.NoError(t, c.Commit(ctx))

	addSpot(sharer, "e", 3, 10)
	prompter.On("RequestCommitMessage").Return(ui.Cancel[string]()).Once()
	err := c.Commit(ctx)
	assert.True(t, errors.Is(err, status.ErrCancelled))

	prompter.On("RequestCommitMessage").Return(ui.Ok("add e")).Once()
	require.NoError(t, c.Commit(ctx))
	clean, err := sharer.IsClean(ctx)
	require.NoError(t, err)
	assert.True(t, clean)
	prompter.AssertExpectations(t)
}

func TestControllerAuthorGate(t *testing.T) {
	ctx := context.Background()
	sharer, _ := sharedPair(t)
	prompter := &mockPrompter{}
	c := NewController(sharer, prompter, WithAuthorGate(func() (vcs.Author, error) {
		return vcs.Author{}, status.ErrAuthorNotSet
	}))

	for _, action := range []func(context.Context) error{c.Commit, c.Pull, c.Synchronize, c.MergeBranch} {
		assert.True(t, errors.Is(action(ctx), status.ErrAuthorNotSet))
	}
	prompter.AssertNotCalled(t, "RequestCommitMessage")

	other := vcs.Author{Name: "Grace", Email: "grace@example.com"}
	c = NewController(sharer, prompter, WithAuthorGate(func() (vcs.Author, error) {
		return other, nil
	}))
	prompter.On("Notify", titleCommit, msgNoChanges).Once()
	require.NoError(t, c.Commit(ctx))
	assert.Equal(t, other, sharer.author)
}

func TestControllerSynchronize(t *testing.T) {
	ctx := context.Background()
	sharer, clone := sharedPair(t)

	addSpot(sharer, "x", 3, 100)
	require.NoError(t, sharer.Commit(ctx, "add x"))
	require.NoError(t, sharer.Push(ctx))

	addSpot(clone, "y", 3, -100)
	prompter := &mockPrompter{}
	prompter.On("RequestCommitMessage").Return(ui.Ok("add y")).Once()
	prompter.On("Notify", titleSync, msgCompleted).Once()
	require.NoError(t, NewController(clone, prompter).Synchronize(ctx))
	prompter.AssertExpectations(t)

	require.NoError(t, sharer.Pull(ctx))
	assert.True(t, model.Equal(clone.Model(), sharer.Model()))
}

func TestControllerSynchronizeConflict(t *testing.T) {
	ctx := context.Background()
	sharer, clone := sharedPair(t)

	setLabel(sharer, "a", "alpha")
	require.NoError(t, sharer.Commit(ctx, "alpha"))
	require.NoError(t, sharer.Push(ctx))
	setLabel(clone, "a", "beta")

	prompter := &mockPrompter{}
	c := NewController(clone, prompter)
	prompter.On("RequestCommitMessage").Return(ui.Ok("beta")).Once()
	prompter.On("Confirm", titlePullFailure, mock.Anything).Return(false).Once()
	err := c.Synchronize(ctx)
	assert.True(t, errors.Is(err, status.ErrCancelled))
	assert.NotEqual(t, model.NoVertex, lineagetest.Find(clone.Model(), "beta"))

	prompter.On("Confirm", titlePullFailure, mock.Anything).Return(true).Once()
	require.NoError(t, c.Pull(ctx))
	assert.NotEqual(t, model.NoVertex, lineagetest.Find(clone.Model(), "alpha"))
	prompter.AssertExpectations(t)
}

func TestControllerBranches(t *testing.T) {
	ctx := context.Background()
	sharer, clone := sharedPair(t)
	require.NoError(t, sharer.CreateNewBranch("feature"))
	addSpot(sharer, "e", 3, 10)
	require.NoError(t, sharer.Commit(ctx, "add e"))
	require.NoError(t, sharer.Push(ctx))

	prompter := &mockPrompter{}
	c := NewController(clone, prompter)

	prompter.On("ShowBranchPicker", mock.Anything, "refs/heads/main").
		Return(ui.Ok("refs/remotes/origin/feature")).Once()
	require.NoError(t, c.SwitchBranch(ctx))
	prompter.On("Notify", titleBranchName, "The current branch is: feature").Once()
	require.NoError(t, c.ShowBranchName())

	require.NoError(t, clone.SwitchBranch(ctx, "main"))
	prompter.On("ShowBranchPicker", mock.MatchedBy(func(branches []string) bool {
		for _, b := range branches {
			if b == "refs/heads/main" {
				return false
			}
		}
		return true
	}), "").Return(ui.Ok("feature")).Once()
	require.NoError(t, c.MergeBranch(ctx))
	assert.NotEqual(t, model.NoVertex, lineagetest.Find(clone.Model(), "e"))

	prompter.On("ShowBranchPicker", mock.Anything, mock.Anything).Return(ui.Cancel[string]()).Once()
	assert.True(t, errors.Is(c.SwitchBranch(ctx), status.ErrCancelled))
	prompter.AssertExpectations(t)
}
