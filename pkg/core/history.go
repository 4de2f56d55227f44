// Copyright © 2018 One Concern

package core

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/oneconcern/lineagesync/pkg/codec"
	"github.com/oneconcern/lineagesync/pkg/core/status"
	"github.com/oneconcern/lineagesync/pkg/errors"
	"github.com/oneconcern/lineagesync/pkg/merge"
	"github.com/oneconcern/lineagesync/pkg/model"
	"github.com/oneconcern/lineagesync/pkg/vcs"
)

const (
	pullMergeMessage   = "Automatic merge by lineagesync during pull"
	branchMergeMessage = "Merge commit generated with lineagesync"
)

// Commit saves the model and commits it.
//
// status.ErrNothingToCommit is returned if the saved model is the same as
// the last commit.
func (r *Repository) Commit(ctx context.Context, message string) (err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	defer func(t0 time.Time) {
		r.usage(t0, "Commit", err)
	}(time.Now())

	if err := r.persist(ctx); err != nil {
		return err
	}
	clean, err := r.vcs.IsClean()
	if err != nil {
		return r.classify(err)
	}
	if clean {
		return status.ErrNothingToCommit
	}
	return r.commit(message)
}

// CommitWithoutSave commits the project as last saved.
//
// Callers check IsClean, which saves the model, before asking for a commit
// message: saving again would be wasted.
func (r *Repository) CommitWithoutSave(message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.commit(message)
}

func (r *Repository) commit(message string) error {
	if r.author.Name == "" || r.author.Email == "" {
		return status.ErrAuthorNotSet
	}
	return r.classify(r.vcs.Commit(ProjectDir, message, r.author))
}

// Push the current branch to the remote. The upstream of the branch is set
// on the first push.
func (r *Repository) Push(ctx context.Context) (err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	defer func(t0 time.Time) {
		r.usage(t0, "Push", err)
	}(time.Now())

	return r.classify(r.vcs.Push(ctx))
}

// Pull changes from the remote.
//
// When the branches have diverged, both versions of the lineage are merged
// and the result is committed. status.ErrGraphMergeConflict is returned when
// the merge needs a manual resolution, in which case nothing is committed.
//
// In all cases, the model is reloaded from the working copy.
func (r *Repository) Pull(ctx context.Context) (err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	defer func(t0 time.Time) {
		r.usage(t0, "Pull", err)
	}(time.Now())

	if err := r.ensureClean(ctx, "pulling"); err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, r.abortMerge(ctx))
	}()
	diverged, err := r.vcs.Pull(ctx)
	if err != nil {
		return r.classify(err)
	}
	if !diverged {
		return nil
	}
	return r.automaticMerge(ctx)
}

func (r *Repository) automaticMerge(ctx context.Context) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = status.ErrGraphMergeFailure.WrapMessage("%v", p)
		}
		if err != nil && !errors.Is(err, status.ErrGraphMergeFailure) {
			err = status.ErrGraphMergeFailure.Wrap(err)
		}
	}()

	a, err := r.loadStage(ctx, vcs.Ours)
	if err != nil {
		return err
	}
	b, err := r.loadStage(ctx, vcs.Theirs)
	if err != nil {
		return err
	}
	if err := r.vcs.CheckoutStage(vcs.Ours, modelPath()); err != nil {
		return err
	}
	return r.mergeAndCommit(ctx, a, b, pullMergeMessage)
}

func (r *Repository) loadStage(ctx context.Context, stage vcs.Stage) (*model.Model, error) {
	if err := r.vcs.CheckoutStage(stage, modelPath()); err != nil {
		return nil, err
	}
	m, _, err := r.load(ctx)
	return m, err
}

// MergeBranch merges another local branch into the current one, and commits
// the result.
func (r *Repository) MergeBranch(ctx context.Context, branch string) (err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	defer func(t0 time.Time) {
		r.usage(t0, "MergeBranch", err)
	}(time.Now())

	if err := r.ensureClean(ctx, "merging"); err != nil {
		return err
	}
	current, err := r.vcs.CurrentBranch()
	if err != nil {
		return err
	}
	a, _, err := r.load(ctx)
	if err != nil {
		return err
	}
	if err := r.vcs.Checkout(branch); err != nil {
		return err
	}
	b, _, err := r.load(ctx)
	if err != nil {
		return multierr.Append(err, r.vcs.Checkout(current))
	}
	if err := r.vcs.Checkout(current); err != nil {
		return err
	}
	if err := r.vcs.MergeNoCommit(branch); err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, r.abortMerge(ctx))
	}()
	return r.mergeAndCommit(ctx, a, b, branchMergeMessage)
}

// mergeAndCommit merges two lineages, saves and commits the result unless
// it holds conflicts
func (r *Repository) mergeAndCommit(ctx context.Context, a, b *model.Model, message string) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = status.ErrGraphMergeFailure.WrapMessage("%v", p)
		}
		if err != nil && !errors.Is(err, status.ErrGraphMergeFailure) {
			err = status.ErrGraphMergeFailure.Wrap(err)
		}
	}()
	merged, err := r.merger.Merge(a, b, r.params)
	if err != nil {
		return err
	}
	if merge.HasConflict(merged) {
		r.l.Warn("merge conflicts need to be resolved manually")
		return status.ErrGraphMergeConflict
	}
	merge.RemoveConflictTagSets(merged)
	if err := codec.Write(ctx, r.store(), merged, codec.NewIds(merged.Graph), r.codecOptions()...); err != nil {
		return err
	}
	if err := r.commit(message); err != nil {
		return err
	}
	r.l.Info("merged",
		zap.Int("spots", merged.Graph.NumVertices()),
		zap.Int("links", merged.Graph.NumEdges()),
	)
	return nil
}

// abortMerge clears any merge in progress, resets the working copy and
// reloads the model
func (r *Repository) abortMerge(ctx context.Context) error {
	return multierr.Append(r.vcs.AbortMerge(), r.reload(ctx))
}

// Reset discards the uncommitted changes and reloads the model
func (r *Repository) Reset(ctx context.Context) (err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	defer func(t0 time.Time) {
		r.usage(t0, "Reset", err)
	}(time.Now())

	if err := r.vcs.ResetHard("HEAD"); err != nil {
		return err
	}
	return r.reload(ctx)
}

// ResetToRemoteBranch resets the current branch to its remote-tracking
// branch and reloads the model
func (r *Repository) ResetToRemoteBranch(ctx context.Context) (err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	defer func(t0 time.Time) {
		r.usage(t0, "ResetToRemoteBranch", err)
	}(time.Now())

	branch, err := r.vcs.CurrentBranch()
	if err != nil {
		return err
	}
	tracking, err := r.vcs.RemoteTrackingBranch(shortName(branch))
	if err != nil {
		return err
	}
	if err := r.vcs.ResetHard(tracking); err != nil {
		return err
	}
	r.l.Info("reset to remote branch", zap.String("branch", tracking))
	return r.reload(ctx)
}

// Save writes the in-memory model to the working copy
func (r *Repository) Save(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.persist(ctx)
}

// IsClean saves the model, then tells if it differs from the last commit
func (r *Repository) IsClean(ctx context.Context) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.persist(ctx); err != nil {
		return false, err
	}
	clean, err := r.vcs.IsClean()
	return clean, r.classify(err)
}

// Changes lists the files changed since the last commit, as last saved
func (r *Repository) Changes() ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.vcs.Changes()
}

func (r *Repository) String() string {
	return fmt.Sprintf("lineage repository at %s", r.root)
}
