// Copyright © 2018 One Concern

package storage

import (
	"bytes"
	"context"
	"io"

	"github.com/oneconcern/lineagesync/pkg/storage/status"
)

// Store implementations know how to write entries to a K/V store.
//
// Get returns status.ErrNotExists when the key is missing. Put replaces any
// existing entry.
type Store interface {
	String() string
	Has(context.Context, string) (bool, error)
	Get(context.Context, string) (io.ReadCloser, error)
	Put(context.Context, string, io.Reader) error
	Delete(context.Context, string) error
	Keys(context.Context) ([]string, error)
	KeysPrefix(context.Context, string) ([]string, error)
	Clear(context.Context) error
}

// ReadAll reads a whole entry
func ReadAll(ctx context.Context, store Store, key string) ([]byte, error) {
	reader, err := store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return io.ReadAll(reader)
}

// Copy duplicates an entry to some destination store, possibly under another key
func Copy(ctx context.Context, src Store, source string, dst Store, destination string) error {
	object, err := ReadAll(ctx, src, source)
	if err != nil {
		return err
	}
	if err := dst.Put(ctx, destination, bytes.NewReader(object)); err != nil {
		return status.ErrStorageAPI.Wrap(err).WrapMessage("copy %s to %s", source, destination)
	}
	return nil
}
