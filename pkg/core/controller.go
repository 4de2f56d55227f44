// Copyright © 2018 One Concern

package core

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/oneconcern/lineagesync/pkg/core/status"
	"github.com/oneconcern/lineagesync/pkg/errors"
	"github.com/oneconcern/lineagesync/pkg/ui"
	"github.com/oneconcern/lineagesync/pkg/vcs"
)

const (
	titleCommit      = "Add Save Point (Commit)"
	titlePush        = "Upload Changes (Push)"
	titlePull        = "Download Changes (Pull)"
	titleSync        = "Synchronize Changes (Commit, Pull, Push)"
	titleSwitch      = "Switch Branch"
	titleBranchName  = "Current Branch Name"
	titlePullFailure = "Conflict During Download Of Changes (Pull)"

	msgCompleted   = "Completed successfully."
	msgNoChanges   = "No changes to commit."
	msgFetchFailed = "There was a failure downloading the latest branch changes."
)

// AuthorGate returns the author of commits, or status.ErrAuthorNotSet
type AuthorGate func() (vcs.Author, error)

// Controller runs the user actions on a repository, interacting with the
// user through a prompter.
//
// Actions return status.ErrCancelled when the user dismisses a prompt.
type Controller struct {
	repo     *Repository
	prompter ui.Prompter
	author   AuthorGate
	l        *zap.Logger
}

// ControllerOption configures a controller
type ControllerOption func(*Controller)

// ControllerLogger sets the logger of a controller
func ControllerLogger(l *zap.Logger) ControllerOption {
	return func(c *Controller) {
		if l != nil {
			c.l = l
		}
	}
}

// WithAuthorGate checks the author before actions which create commits
func WithAuthorGate(gate AuthorGate) ControllerOption {
	return func(c *Controller) {
		c.author = gate
	}
}

// NewController builds a controller for a repository
func NewController(repo *Repository, prompter ui.Prompter, opts ...ControllerOption) *Controller {
	c := &Controller{
		repo:     repo,
		prompter: prompter,
		l:        zap.NewNop(),
	}
	for _, apply := range opts {
		apply(c)
	}
	return c
}

// Repository driven by the controller
func (c *Controller) Repository() *Repository {
	return c.repo
}

func (c *Controller) ensureAuthor() error {
	if c.author == nil {
		return nil
	}
	author, err := c.author()
	if err != nil {
		return err
	}
	c.repo.SetAuthor(author)
	return nil
}

// Commit asks for a message and commits the changes, if any
func (c *Controller) Commit(ctx context.Context) error {
	if err := c.ensureAuthor(); err != nil {
		return err
	}
	committed, err := c.commitIfDirty(ctx)
	if err != nil {
		return err
	}
	if !committed {
		c.prompter.Notify(titleCommit, msgNoChanges)
	}
	return nil
}

func (c *Controller) commitIfDirty(ctx context.Context) (bool, error) {
	clean, err := c.repo.IsClean(ctx)
	if err != nil {
		return false, err
	}
	if clean {
		return false, nil
	}
	message := c.prompter.RequestCommitMessage()
	if message.Cancelled {
		return false, status.ErrCancelled.WrapMessage("commit message")
	}
	return true, c.repo.CommitWithoutSave(message.Value)
}

// Push uploads the commits of the current branch
func (c *Controller) Push(ctx context.Context) error {
	if err := c.repo.Push(ctx); err != nil {
		return err
	}
	c.prompter.Notify(titlePush, msgCompleted)
	return nil
}

// Pull downloads changes. A failed merge of diverged lineages is followed by
// an offer to discard local changes.
func (c *Controller) Pull(ctx context.Context) error {
	if err := c.ensureAuthor(); err != nil {
		return err
	}
	err := c.repo.Pull(ctx)
	if errors.Is(err, status.ErrGraphMergeFailure) {
		return c.suggestPullAlternative(ctx, err)
	}
	return err
}

// Synchronize commits local changes if any, pulls then pushes
func (c *Controller) Synchronize(ctx context.Context) error {
	if err := c.ensureAuthor(); err != nil {
		return err
	}
	if _, err := c.commitIfDirty(ctx); err != nil {
		return err
	}
	if err := c.repo.Pull(ctx); err != nil {
		if errors.Is(err, status.ErrGraphMergeFailure) {
			return c.suggestPullAlternative(ctx, err)
		}
		return err
	}
	if err := c.repo.Push(ctx); err != nil {
		return err
	}
	c.prompter.Notify(titleSync, msgCompleted)
	return nil
}

func (c *Controller) suggestPullAlternative(ctx context.Context, cause error) error {
	if !errors.Is(cause, status.ErrGraphMergeConflict) {
		c.l.Error("merge failure", zap.Error(cause))
	}
	message := "There was a merge conflict during the pull. Details:\n" +
		"  " + cause.Error() + "\n\n" +
		"You made changes on your computer that could not be automatically\n" +
		"merged with the changes on the server.\n\n" +
		"Discard your local changes and save points?\n" +
		"(Otherwise, save your local changes to a new branch, which you may then merge into the remote branch.)"
	if !c.prompter.Confirm(titlePullFailure, message) {
		return status.ErrCancelled.WrapMessage("discard local changes")
	}
	return c.repo.ResetToRemoteBranch(ctx)
}

// SwitchBranch fetches the remote branches, asks the user for a branch and
// checks it out
func (c *Controller) SwitchBranch(ctx context.Context) error {
	if err := c.repo.FetchAll(ctx); err != nil {
		if errors.Is(err, status.ErrCancelled) {
			return err
		}
		c.l.Warn(msgFetchFailed, zap.Error(err))
		c.prompter.Notify(titleSwitch, msgFetchFailed)
	}
	branches, err := c.repo.Branches()
	if err != nil {
		return err
	}
	current, err := c.repo.CurrentBranch()
	if err != nil {
		return err
	}
	selected := c.prompter.ShowBranchPicker(branches, current)
	if selected.Cancelled {
		return status.ErrCancelled.WrapMessage("branch selection")
	}
	return c.repo.SwitchBranch(ctx, selected.Value)
}

// MergeBranch asks the user for a branch and merges it into the current one
func (c *Controller) MergeBranch(ctx context.Context) error {
	if err := c.ensureAuthor(); err != nil {
		return err
	}
	branches, err := c.repo.Branches()
	if err != nil {
		return err
	}
	current, err := c.repo.CurrentBranch()
	if err != nil {
		return err
	}
	others := branches[:0]
	for _, b := range branches {
		if b != current {
			others = append(others, b)
		}
	}
	selected := c.prompter.ShowBranchPicker(others, "")
	if selected.Cancelled {
		return status.ErrCancelled.WrapMessage("branch selection")
	}
	return c.repo.MergeBranch(ctx, selected.Value)
}

// NewBranch creates a branch and checks it out
func (c *Controller) NewBranch(name string) error {
	return c.repo.CreateNewBranch(name)
}

// Reset goes back to the last commit
func (c *Controller) Reset(ctx context.Context) error {
	return c.repo.Reset(ctx)
}

// ResetToRemote throws away all local changes and commits
func (c *Controller) ResetToRemote(ctx context.Context) error {
	return c.repo.ResetToRemoteBranch(ctx)
}

// ShowBranchName notifies the short name of the current branch
func (c *Controller) ShowBranchName() error {
	branch, err := c.repo.CurrentBranch()
	if err != nil {
		return err
	}
	c.prompter.Notify(titleBranchName, "The current branch is: "+strings.TrimPrefix(branch, "refs/heads/"))
	return nil
}
