// Copyright © 2018 One Concern

// Package vcs is the version control engine of lineage repositories.
//
// VCS exposes the handful of git primitives the synchronization logic
// builds upon. The go-git implementation keeps merges minimal: a merge only
// records MERGE_HEAD, the content of the merge being computed on lineage
// snapshots rather than on files.
package vcs

import (
	"context"
	"io"

	"github.com/go-git/go-git/v5/plumbing/transport"
)

// Stage of a file during a merge
type Stage int

const (
	// Ours is the version of the current branch
	Ours Stage = iota
	// Theirs is the version being merged in
	Theirs
)

func (s Stage) String() string {
	if s == Theirs {
		return "theirs"
	}
	return "ours"
}

// Author of commits
type Author struct {
	Name  string
	Email string
}

// CredentialsProvider supplies credentials for a single transport operation.
//
// The operation is first attempted with cached credentials if any, or
// anonymously. Get is called again each time the remote rejects the
// credentials.
type CredentialsProvider interface {
	Cached() bool
	Get(url string) (transport.AuthMethod, error)
}

// VCS is a working copy with its history
type VCS interface {
	// Root directory of the working copy
	Root() string

	// Branches returns the full names of local and remote-tracking branches
	Branches() ([]string, error)
	// CurrentBranch is the full name of the checked out branch
	CurrentBranch() (string, error)
	// CreateBranch creates a branch at HEAD and checks it out
	CreateBranch(name string) error
	// Checkout a local branch, given by short or full name
	Checkout(branch string) error
	// CheckoutRemote creates a local branch tracking a remote branch, and checks it out
	CheckoutRemote(remoteBranch, local string) error
	// CheckoutStage writes the version of the files under dir of one side of the merge in progress
	CheckoutStage(stage Stage, dir string) error

	// Commit all changes under dir, including deletions
	Commit(dir, message string, author Author) error
	// IsClean tells if the working copy has no change
	IsClean() (bool, error)
	// Changes lists the changed files
	Changes() ([]string, error)

	Fetch(ctx context.Context) error
	// Pull fast-forwards the current branch. diverged is true when it can't:
	// the merge of the remote branch is then in progress.
	Pull(ctx context.Context) (diverged bool, err error)
	Push(ctx context.Context) error

	// ResetHard resets the current branch and the working copy to a reference
	ResetHard(ref string) error
	// MergeNoCommit starts merging a branch, without touching files
	MergeNoCommit(branch string) error
	// AbortMerge clears the merge in progress, if any, and resets hard to HEAD
	AbortMerge() error

	// Upstream returns the remote and merge reference configured for a local branch
	Upstream(branch string) (remote, merge string, err error)
	SetUpstream(branch, remote, merge string) error
	// RemoteTrackingBranch is the full name of the remote-tracking branch of a local branch
	RemoteTrackingBranch(branch string) (string, error)

	// ReadTree visits the files of a committed directory
	ReadTree(rev, dir string, visit func(name string, content io.Reader) error) error
}
