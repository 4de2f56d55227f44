// Copyright © 2018 One Concern

package storage

import (
	"context"
	"io"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/oneconcern/lineagesync/pkg/metrics"
)

// M describes the metrics collected on store operations
type M struct {
	Volumetry struct {
		IO metrics.IOMetrics `group:"io"`
	} `group:"storage" description:"storage IO"`
}

// Instrument decorates a store with debug logs and IO metrics.
//
// Metrics are only collected if enabled.
func Instrument(store Store, logger *zap.Logger, enableMetrics bool) Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	i := &instrumentedStore{
		store: store,
		l:     logger.With(zap.Stringer("store", store)),
	}
	if enableMetrics {
		i.EnableMetrics(true)
		i.m = i.EnsureMetrics("storage", &M{}).(*M)
	}
	return i
}

type instrumentedStore struct {
	metrics.Enable
	m     *M
	store Store
	l     *zap.Logger
}

func (i *instrumentedStore) record(start time.Time, operation string) func(int64, error) {
	if !i.MetricsEnabled() {
		return func(int64, error) {}
	}
	return i.m.Volumetry.IO.IORecord(start, operation)
}

func (i *instrumentedStore) Has(ctx context.Context, key string) (bool, error) {
	i.l.Debug("storage has", zap.String("key", key))
	return i.store.Has(ctx, key)
}

func (i *instrumentedStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	i.l.Debug("storage get", zap.String("key", key))
	rdr, err := i.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	return &countingReader{ReadCloser: rdr, done: i.record(time.Now(), "read")}, nil
}

func (i *instrumentedStore) Put(ctx context.Context, key string, rdr io.Reader) (err error) {
	i.l.Debug("storage put", zap.String("key", key))
	counter := &countingReader{ReadCloser: io.NopCloser(rdr)}
	defer func(start time.Time) {
		i.record(start, "write")(atomic.LoadInt64(&counter.n), err)
	}(time.Now())
	return i.store.Put(ctx, key, counter)
}

func (i *instrumentedStore) Delete(ctx context.Context, key string) error {
	i.l.Debug("storage delete", zap.String("key", key))
	return i.store.Delete(ctx, key)
}

func (i *instrumentedStore) Keys(ctx context.Context) ([]string, error) {
	i.l.Debug("storage keys")
	return i.store.Keys(ctx)
}

func (i *instrumentedStore) KeysPrefix(ctx context.Context, prefix string) ([]string, error) {
	i.l.Debug("storage keys with prefix", zap.String("prefix", prefix))
	return i.store.KeysPrefix(ctx, prefix)
}

func (i *instrumentedStore) Clear(ctx context.Context) error {
	i.l.Debug("storage clear")
	return i.store.Clear(ctx)
}

func (i *instrumentedStore) String() string {
	return i.store.String()
}

// countingReader counts the bytes read and reports them on close
type countingReader struct {
	io.ReadCloser
	n    int64
	done func(int64, error)
}

func (r *countingReader) Read(p []byte) (int, error) {
	n, err := r.ReadCloser.Read(p)
	atomic.AddInt64(&r.n, int64(n))
	return n, err
}

func (r *countingReader) Close() error {
	err := r.ReadCloser.Close()
	if r.done != nil {
		r.done(atomic.LoadInt64(&r.n), err)
		r.done = nil
	}
	return err
}
