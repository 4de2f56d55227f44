// Copyright © 2018 One Concern

package codec

import (
	"bytes"
	"context"

	"github.com/oneconcern/lineagesync/pkg/errors"
	"github.com/oneconcern/lineagesync/pkg/storage"
	"github.com/oneconcern/lineagesync/pkg/storage/status"
)

type pageHeader struct {
	version byte
	attrLen int
}

type tableStats struct {
	records int
	pages   int
	size    int64
}

// writeTable writes the records of ids 0..maxID as pages of PageSize ids.
//
// Every page in range is written, even when it holds no record, since
// readers stop at the first missing page. Page files of the table which
// are not part of this write are deleted.
func writeTable(ctx context.Context, store storage.Store, table string, maxID int, header pageHeader,
	present func(id int) bool, encode func(w *recordWriter, id int)) (tableStats, error) {
	var stats tableStats
	written := make(map[string]struct{})
	w := &recordWriter{}

	for first := 0; first <= maxID; first += PageSize {
		w.reset()
		w.byte(header.version)
		w.int32(header.attrLen)
		for id := first; id < first+PageSize && id <= maxID; id++ {
			if !present(id) {
				continue
			}
			w.int32(id)
			encode(w, id)
			stats.records++
		}
		if w.err != nil {
			return stats, w.err
		}

		key := pageKey(table, first)
		stats.size += int64(w.buf.Len())
		if err := store.Put(ctx, key, bytes.NewReader(w.buf.Bytes())); err != nil {
			return stats, err
		}
		written[key] = struct{}{}
		stats.pages++
	}

	keys, err := store.KeysPrefix(ctx, table+"/")
	if err != nil {
		return stats, err
	}
	for _, key := range keys {
		if _, ok := written[key]; ok {
			continue
		}
		if err := store.Delete(ctx, key); err != nil {
			return stats, err
		}
	}
	return stats, nil
}

// readTable reads the pages of a table in order, until the first missing
// page. decode is called once per record, positioned after the record id.
func readTable(ctx context.Context, store storage.Store, table string, attrLen int,
	decode func(r *recordReader, header pageHeader, id int) error) (tableStats, error) {
	var stats tableStats
	for first := 0; ; first += PageSize {
		key := pageKey(table, first)
		data, err := storage.ReadAll(ctx, store, key)
		if err != nil {
			if errors.Is(err, status.ErrNotExists) {
				return stats, nil
			}
			return stats, err
		}
		stats.pages++
		stats.size += int64(len(data))

		r := &recordReader{data: data}
		header := pageHeader{version: r.byte(), attrLen: r.int32()}
		if r.err != nil {
			return stats, ErrCorruptTable.WrapMessage("%s: truncated header", key)
		}
		if header.version != formatWithUUID && header.version != formatWithoutUUID {
			return stats, ErrCorruptTable.WrapMessage("%s: unknown version %d", key, header.version)
		}
		if header.attrLen != attrLen {
			return stats, ErrCorruptTable.WrapMessage("%s: attributes of %d bytes, expected %d", key, header.attrLen, attrLen)
		}

		for r.more() {
			id := r.int32()
			if r.err == nil && (id < first || id >= first+PageSize) {
				return stats, ErrCorruptTable.WrapMessage("%s: id %d out of page", key, id)
			}
			if err := decode(r, header, id); err != nil {
				return stats, ErrCorruptTable.Wrap(err).WrapMessage("%s: record %d", key, id)
			}
			if r.err != nil {
				return stats, ErrCorruptTable.Wrap(r.err).WrapMessage("%s: truncated record", key)
			}
			stats.records++
		}
	}
}
