// Copyright © 2018 One Concern

// Package status declares error constants returned by
// implementations of the Store interface.
//
// NOTE: such constants are located in a separate package to avoid
// creating undue cyclical dependencies between pkg/storage and one
// of its implementations.
package status

import "github.com/oneconcern/lineagesync/pkg/errors"

var (
	// ErrNotExists indicates that the fetched object does not exist on storage
	ErrNotExists = errors.New("object doesn't exist")

	// ErrInvalidKey indicates that a key escapes the root of the store
	ErrInvalidKey = errors.New("invalid storage key")

	// ErrStorageAPI indicates any other storage error
	ErrStorageAPI = errors.New("storage error")
)
