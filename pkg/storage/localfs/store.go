// Copyright © 2018 One Concern

package localfs

import (
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/oneconcern/lineagesync/pkg/storage"
	"github.com/oneconcern/lineagesync/pkg/storage/status"
)

// New creates a new file system backed store
func New(fs afero.Fs) storage.Store {
	if fs == nil {
		fs = afero.NewMemMapFs()
	}
	return &localFS{
		fs: fs,
	}
}

// NewDir creates a store rooted at some directory of the OS file system
func NewDir(dir string) storage.Store {
	return New(afero.NewBasePathFs(afero.NewOsFs(), dir))
}

type localFS struct {
	fs afero.Fs
}

func (l *localFS) Has(ctx context.Context, key string) (bool, error) {
	key, err := cleanKey(key)
	if err != nil {
		return false, err
	}
	fi, err := l.fs.Stat(key)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, status.ErrStorageAPI.Wrap(err)
	}
	return !fi.IsDir(), nil
}

func (l *localFS) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	has, err := l.Has(ctx, key)
	if err != nil {
		return nil, err
	}
	if !has {
		return nil, status.ErrNotExists.WrapMessage(key)
	}
	key, _ = cleanKey(key)
	f, err := l.fs.Open(key)
	if err != nil {
		return nil, status.ErrStorageAPI.Wrap(err)
	}
	return f, nil
}

func (l *localFS) Put(ctx context.Context, key string, source io.Reader) error {
	key, err := cleanKey(key)
	if err != nil {
		return err
	}
	// the root of the store may not exist yet
	if err := l.fs.MkdirAll(path.Dir(key), 0700); err != nil {
		return status.ErrStorageAPI.Wrap(err).WrapMessage("ensuring directories for %q", key)
	}
	target, err := l.fs.OpenFile(key, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return status.ErrStorageAPI.Wrap(err).WrapMessage("create record for %q", key)
	}
	if _, err = io.Copy(target, source); err != nil {
		_ = target.Close()
		return status.ErrStorageAPI.Wrap(err).WrapMessage("write record for %q", key)
	}
	return target.Close()
}

func (l *localFS) Delete(ctx context.Context, key string) error {
	key, err := cleanKey(key)
	if err != nil {
		return err
	}
	if err := l.fs.Remove(key); err != nil && !os.IsNotExist(err) {
		return status.ErrStorageAPI.Wrap(err).WrapMessage("removing %q", key)
	}
	return nil
}

func (l *localFS) Keys(ctx context.Context) ([]string, error) {
	return l.KeysPrefix(ctx, "")
}

// KeysPrefix lists the keys starting with some prefix, sorted
func (l *localFS) KeysPrefix(ctx context.Context, prefix string) ([]string, error) {
	const root = "."
	var res []string
	e := afero.Walk(l.fs, root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if p == root || info.IsDir() {
			return nil
		}
		key := filepath.ToSlash(p)
		if strings.HasPrefix(key, prefix) {
			res = append(res, key)
		}
		return nil
	})
	if e != nil {
		return nil, status.ErrStorageAPI.Wrap(e)
	}
	sort.Strings(res)
	return res, nil
}

func (l *localFS) Clear(ctx context.Context) error {
	entries, err := afero.ReadDir(l.fs, ".")
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return status.ErrStorageAPI.Wrap(err)
	}
	for _, entry := range entries {
		if err := l.fs.RemoveAll(entry.Name()); err != nil {
			return status.ErrStorageAPI.Wrap(err)
		}
	}
	return nil
}

func (l *localFS) String() string {
	const localfs = "localfs"
	switch fs := l.fs.(type) {
	case *afero.BasePathFs:
		pp, err := fs.RealPath("")
		if err != nil {
			return localfs
		}
		return localfs + "@" + pp
	default:
		return localfs
	}
}

// cleanKey resolves a key relative to the root of the store
func cleanKey(key string) (string, error) {
	cleaned := path.Clean("/" + filepath.ToSlash(key))
	if cleaned == "/" {
		return "", status.ErrInvalidKey.WrapMessage("%q", key)
	}
	return strings.TrimPrefix(cleaned, "/"), nil
}
