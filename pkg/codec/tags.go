// Copyright © 2018 One Concern

package codec

import (
	"bytes"
	"context"
	"sort"

	"gopkg.in/yaml.v2"

	"github.com/oneconcern/lineagesync/pkg/errors"
	"github.com/oneconcern/lineagesync/pkg/ids"
	"github.com/oneconcern/lineagesync/pkg/model"
	"github.com/oneconcern/lineagesync/pkg/storage"
	"github.com/oneconcern/lineagesync/pkg/storage/status"
)

func writeStructure(ctx context.Context, store storage.Store, s *model.TagSetStructure) (int64, error) {
	data, err := yaml.Marshal(s)
	if err != nil {
		return 0, err
	}
	return int64(len(data)), store.Put(ctx, tagSetStructureKey, bytes.NewReader(data))
}

func readStructure(ctx context.Context, store storage.Store) (*model.TagSetStructure, error) {
	data, err := storage.ReadAll(ctx, store, tagSetStructureKey)
	if err != nil {
		if errors.Is(err, status.ErrNotExists) {
			return model.NewTagSetStructure(), nil
		}
		return nil, err
	}
	s := model.NewTagSetStructure()
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, ErrCorruptTable.Wrap(err).WrapMessage(tagSetStructureKey)
	}
	return s, nil
}

// tagLookup is the list of distinct tag combinations carried by the
// entities of one kind. Index 0 is always the empty combination.
type tagLookup struct {
	sets  [][]int
	index map[string]int
}

func newTagLookup() *tagLookup {
	l := &tagLookup{index: make(map[string]int)}
	l.add(nil)
	return l
}

func (l *tagLookup) add(tagIDs []int) int {
	sorted := append([]int(nil), tagIDs...)
	sort.Ints(sorted)
	w := &recordWriter{}
	for _, id := range sorted {
		w.int32(id)
	}
	key := w.buf.String()
	if i, ok := l.index[key]; ok {
		return i
	}
	l.sets = append(l.sets, sorted)
	l.index[key] = len(l.sets) - 1
	return len(l.sets) - 1
}

// buildTagLookup collects the tag combinations of entities in id order
func buildTagLookup[H ~int](index *ids.Index[H], tags *model.TagAssignments[H]) (*tagLookup, map[H]int) {
	l := newTagLookup()
	assigned := make(map[H]int)
	for id := 0; id <= index.MaxID(); id++ {
		h, ok := index.Handle(id)
		if !ok {
			continue
		}
		if tagIDs := tags.TagIDs(h); len(tagIDs) > 0 {
			assigned[h] = l.add(tagIDs)
		}
	}
	return l, assigned
}

func writeTagLookup(ctx context.Context, store storage.Store, key string, l *tagLookup) (int64, error) {
	w := &recordWriter{}
	w.int32(len(l.sets))
	for _, set := range l.sets {
		w.int32(len(set))
		for _, id := range set {
			w.int32(id)
		}
	}
	return int64(w.buf.Len()), store.Put(ctx, key, bytes.NewReader(w.buf.Bytes()))
}

func readTagLookup(ctx context.Context, store storage.Store, key string) ([][]int, error) {
	data, err := storage.ReadAll(ctx, store, key)
	if err != nil {
		if errors.Is(err, status.ErrNotExists) {
			return [][]int{nil}, nil
		}
		return nil, err
	}
	r := &recordReader{data: data}
	n := r.int32()
	if r.err != nil || n < 0 {
		return nil, ErrCorruptTable.WrapMessage("%s: bad count", key)
	}
	sets := make([][]int, 0, min(n, len(data)/4))
	for i := 0; i < n; i++ {
		size := r.int32()
		if size < 0 {
			return nil, ErrCorruptTable.WrapMessage("%s: bad size", key)
		}
		set := make([]int, 0, min(size, len(data)/4))
		for j := 0; j < size && r.err == nil; j++ {
			set = append(set, r.int32())
		}
		if r.err != nil {
			return nil, ErrCorruptTable.WrapMessage("%s: truncated", key)
		}
		sets = append(sets, set)
	}
	if len(sets) == 0 {
		sets = append(sets, nil)
	}
	return sets, nil
}

func lookupTags(sets [][]int, index int) ([]int, error) {
	if index < 0 || index >= len(sets) {
		return nil, errTagLookupRange.WrapMessage("%d", index)
	}
	return sets[index], nil
}
