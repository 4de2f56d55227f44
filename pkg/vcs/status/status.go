// Copyright © 2018 One Concern

// Package status declares error conditions returned by the vcs package
package status

import "github.com/oneconcern/lineagesync/pkg/errors"

var (
	// ErrNotARepository is returned when a directory holds no git repository
	ErrNotARepository = errors.New("not a git repository")

	// ErrNonFastForward is returned when the remote has commits missing locally
	ErrNonFastForward = errors.New("remote has diverged")

	// ErrPushFailed is returned when the remote refused a push for some other reason
	ErrPushFailed = errors.New("push failed")

	// ErrBranchNotFound is returned when a branch or reference doesn't exist
	ErrBranchNotFound = errors.New("branch not found")

	// ErrBranchExists is returned when creating a branch which already exists
	ErrBranchExists = errors.New("branch already exists")

	// ErrNoMergeInProgress is returned when reading a stage outside of a merge
	ErrNoMergeInProgress = errors.New("no merge in progress")

	// ErrGit wraps errors of the git engine
	ErrGit = errors.New("git error")

	// ErrCredentials is returned when authentication keeps failing
	ErrCredentials = errors.New("authentication failed")
)

// ErrNothingToCommit is returned when committing a clean working copy
var ErrNothingToCommit = errors.New("nothing to commit")
