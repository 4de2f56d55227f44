// Copyright © 2018 One Concern

package core

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/oneconcern/lineagesync/pkg/core/status"
)

const remoteBranchPrefix = "refs/remotes/"

// shortName of a branch: the last element of its full name
func shortName(branch string) string {
	return branch[strings.LastIndex(branch, "/")+1:]
}

// Branches lists the full names of local and remote-tracking branches
func (r *Repository) Branches() ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.vcs.Branches()
}

// CurrentBranch is the full name of the checked out branch
func (r *Repository) CurrentBranch() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.vcs.CurrentBranch()
}

// FetchAll fetches the branches of the remote
func (r *Repository) FetchAll(ctx context.Context) (err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	defer func(t0 time.Time) {
		r.usage(t0, "FetchAll", err)
	}(time.Now())
	return r.vcs.Fetch(ctx)
}

// CreateNewBranch creates a branch at the last commit and checks it out.
// Uncommitted changes are carried over.
func (r *Repository) CreateNewBranch(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.vcs.CreateBranch(name); err != nil {
		return r.classify(err)
	}
	r.l.Info("branch created", zap.String("branch", name))
	return nil
}

// SwitchBranch checks out another branch and reloads the model.
//
// Switching to a remote-tracking branch creates a local branch of the same
// short name tracking it.
func (r *Repository) SwitchBranch(ctx context.Context, branch string) (err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	defer func(t0 time.Time) {
		r.usage(t0, "SwitchBranch", err)
	}(time.Now())

	if err := r.ensureClean(ctx, "switching the branch"); err != nil {
		return err
	}
	if strings.HasPrefix(branch, remoteBranchPrefix) {
		if err := r.checkoutRemote(branch); err != nil {
			return err
		}
	} else if err := r.vcs.Checkout(branch); err != nil {
		return err
	}
	r.l.Info("switched branch", zap.String("branch", branch))
	return r.reload(ctx)
}

func (r *Repository) checkoutRemote(branch string) error {
	local := shortName(branch)
	branches, err := r.vcs.Branches()
	if err != nil {
		return err
	}
	for _, b := range branches {
		if strings.HasPrefix(b, remoteBranchPrefix) {
			continue
		}
		if shortName(b) == local {
			return status.ErrBranchNameConflict.WrapMessage(local)
		}
	}
	return r.classify(r.vcs.CheckoutRemote(branch, local))
}
