// Copyright © 2018 One Concern

// Package storage provides a key/value interface to the files of a working
// copy.
//
// Keys are slash separated paths relative to the root of the store. The
// codec persists lineage snapshots through this interface, so snapshots may
// be written to a local directory or to an in-memory file system for tests.
package storage
