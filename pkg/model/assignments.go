package model

import "sort"

// TagAssignments records which tags are assigned to the vertices or the
// edges of a graph. An entity carries at most one tag of each tag set.
//
// The reverse index (tag → entities) is kept up to date by every mutation.
// Bulk loads go through a TagStager, which builds it once.
type TagAssignments[H ~int] struct {
	owner   *TagSetModel
	tags    map[H][]int
	reverse map[int]map[H]struct{}
}

func newTagAssignments[H ~int](owner *TagSetModel) *TagAssignments[H] {
	return &TagAssignments[H]{
		owner:   owner,
		tags:    make(map[H][]int),
		reverse: make(map[int]map[H]struct{}),
	}
}

// Set assigns a tag of a tag set to an entity, replacing the tag of the same
// tag set the entity may already carry. A nil tag clears the assignment.
func (a *TagAssignments[H]) Set(h H, ts *TagSet, tag *Tag) {
	a.Clear(h, ts)
	if tag == nil {
		return
	}
	a.add(h, tag.ID)
}

// Clear removes the tag of a tag set from an entity
func (a *TagAssignments[H]) Clear(h H, ts *TagSet) {
	for _, id := range a.tags[h] {
		if ts.Has(id) {
			a.remove(h, id)
			return
		}
	}
}

// Tag returns the tag of a tag set assigned to an entity, or nil
func (a *TagAssignments[H]) Tag(h H, ts *TagSet) *Tag {
	for _, id := range a.tags[h] {
		for _, t := range ts.Tags {
			if t.ID == id {
				return t
			}
		}
	}
	return nil
}

// TagIDs returns the sorted ids of the tags assigned to an entity
func (a *TagAssignments[H]) TagIDs(h H) []int {
	ids := a.tags[h]
	if len(ids) == 0 {
		return nil
	}
	return append([]int(nil), ids...)
}

// SetTagIDs replaces all the tags assigned to an entity
func (a *TagAssignments[H]) SetTagIDs(h H, ids []int) {
	a.Remove(h)
	for _, id := range ids {
		a.add(h, id)
	}
}

// TaggedWith returns the entities carrying a tag, sorted by handle
func (a *TagAssignments[H]) TaggedWith(tagID int) []H {
	set := a.reverse[tagID]
	result := make([]H, 0, len(set))
	for h := range set {
		result = append(result, h)
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}

// Remove all tags from an entity
func (a *TagAssignments[H]) Remove(h H) {
	for _, id := range a.tags[h] {
		if set := a.reverse[id]; set != nil {
			delete(set, h)
			if len(set) == 0 {
				delete(a.reverse, id)
			}
		}
	}
	delete(a.tags, h)
}

// Handles of all tagged entities, sorted
func (a *TagAssignments[H]) Handles() []H {
	result := make([]H, 0, len(a.tags))
	for h := range a.tags {
		result = append(result, h)
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}

// Stager returns a staging area for bulk assignments
func (a *TagAssignments[H]) Stager() *TagStager[H] {
	return &TagStager[H]{target: a, staged: make(map[H][]int)}
}

func (a *TagAssignments[H]) add(h H, id int) {
	ids := a.tags[h]
	i := sort.SearchInts(ids, id)
	if i < len(ids) && ids[i] == id {
		return
	}
	ids = append(ids, 0)
	copy(ids[i+1:], ids[i:])
	ids[i] = id
	a.tags[h] = ids

	set := a.reverse[id]
	if set == nil {
		set = make(map[H]struct{})
		a.reverse[id] = set
	}
	set[h] = struct{}{}
}

func (a *TagAssignments[H]) remove(h H, id int) {
	ids := a.tags[h]
	i := sort.SearchInts(ids, id)
	if i == len(ids) || ids[i] != id {
		return
	}
	ids = append(ids[:i], ids[i+1:]...)
	if len(ids) == 0 {
		delete(a.tags, h)
	} else {
		a.tags[h] = ids
	}
	if set := a.reverse[id]; set != nil {
		delete(set, h)
		if len(set) == 0 {
			delete(a.reverse, id)
		}
	}
}

// purge removes the assignments of tags not in valid
func (a *TagAssignments[H]) purge(valid map[int]struct{}) {
	for h, ids := range a.tags {
		kept := make([]int, 0, len(ids))
		for _, id := range ids {
			if _, ok := valid[id]; ok {
				kept = append(kept, id)
				continue
			}
			if set := a.reverse[id]; set != nil {
				delete(set, h)
				if len(set) == 0 {
					delete(a.reverse, id)
				}
			}
		}
		if len(kept) == 0 {
			delete(a.tags, h)
		} else {
			a.tags[h] = kept
		}
	}
}

func (a *TagAssignments[H]) moveFrom(src *TagAssignments[H]) {
	a.tags = src.tags
	a.reverse = src.reverse
	src.tags = make(map[H][]int)
	src.reverse = make(map[int]map[H]struct{})
}

// TagStager collects tag assignments without maintaining the reverse index.
//
// Finish applies all the staged assignments and builds the reverse index in
// a single pass.
type TagStager[H ~int] struct {
	target *TagAssignments[H]
	staged map[H][]int
}

// Assign stages the tag ids of an entity, replacing earlier staged ids
func (s *TagStager[H]) Assign(h H, ids []int) {
	if len(ids) == 0 {
		delete(s.staged, h)
		return
	}
	sorted := append([]int(nil), ids...)
	sort.Ints(sorted)
	s.staged[h] = sorted
}

// Finish applies the staged assignments. The stager must not be used afterwards.
func (s *TagStager[H]) Finish() {
	a := s.target
	for h := range s.staged {
		a.Remove(h)
	}
	for h, ids := range s.staged {
		a.tags[h] = ids
	}
	reverse := make(map[int]map[H]struct{}, len(a.reverse))
	for h, ids := range a.tags {
		for _, id := range ids {
			set := reverse[id]
			if set == nil {
				set = make(map[H]struct{})
				reverse[id] = set
			}
			set[h] = struct{}{}
		}
	}
	a.reverse = reverse
	s.staged = nil
}
