// Copyright © 2018 One Concern

// Package status exports errors produced by the core package.
package status

import (
	"github.com/oneconcern/lineagesync/pkg/errors"
)

var (
	// ErrNotARepository indicates the project is not inside a lineage repository
	ErrNotARepository = errors.New("the project does not appear to be in a git repository")

	// ErrUncommittedChanges indicates an operation requires all changes to be committed first
	ErrUncommittedChanges = errors.New("there are uncommitted changes, please add a save point first")

	// ErrRepositoryAlreadyShared indicates the remote repository already holds a lineage project
	ErrRepositoryAlreadyShared = errors.New("the repository already contains a shared lineage project")

	// ErrNothingToCommit indicates there is no change to commit
	ErrNothingToCommit = errors.New("nothing to commit")

	// ErrPushRejectedNonFastForward indicates the remote has changes which were not pulled yet
	ErrPushRejectedNonFastForward = errors.New("the remote server has changes that you didn't download yet, please pull first")

	// ErrPushFailed indicates the remote refused a push for any other reason
	ErrPushFailed = errors.New("push failed")

	// ErrBranchNameConflict indicates a local branch already exists with the name of a remote branch
	ErrBranchNameConflict = errors.New("there's already a local branch with the same name")

	// ErrGraphMergeFailure indicates the automatic merge of lineages failed
	ErrGraphMergeFailure = errors.New("there was a failure when merging changes to the model")

	// ErrGraphMergeConflict indicates the merged lineage holds conflicts which need manual resolution
	ErrGraphMergeConflict = ErrGraphMergeFailure.Sub("there are merge conflicts")

	// ErrCancelled indicates the user abandoned an interactive prompt
	ErrCancelled = errors.New("cancelled by user")

	// ErrAuthorNotSet indicates the author name or email is not configured
	ErrAuthorNotSet = errors.New("the author name and email must be set before committing")

	// ErrInvalidDirectory indicates a target directory is missing or not empty
	ErrInvalidDirectory = errors.New("invalid directory")
)
