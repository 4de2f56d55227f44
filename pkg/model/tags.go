package model

// Tag is a colored label which may be assigned to vertices and edges.
//
// Tag ids are unique across all tag sets of a structure.
type Tag struct {
	ID    int    `json:"id" yaml:"id"`
	Label string `json:"label" yaml:"label"`
	Color uint32 `json:"color" yaml:"color"`
}

// TagSet is a named, ordered list of mutually exclusive tags: an entity
// carries at most one tag of each tag set.
type TagSet struct {
	ID   int    `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
	Tags []*Tag `json:"tags" yaml:"tags"`
}

// Tag with the given label in this tag set, or nil
func (ts *TagSet) Tag(label string) *Tag {
	for _, t := range ts.Tags {
		if t.Label == label {
			return t
		}
	}
	return nil
}

// Has tells if the tag id belongs to this tag set
func (ts *TagSet) Has(tagID int) bool {
	for _, t := range ts.Tags {
		if t.ID == tagID {
			return true
		}
	}
	return false
}

// TagSetStructure is the ordered list of tag sets defined for a model
type TagSetStructure struct {
	TagSets []*TagSet `json:"tagSets" yaml:"tagSets"`
}

// NewTagSetStructure builds an empty structure
func NewTagSetStructure() *TagSetStructure {
	return &TagSetStructure{}
}

// CreateTagSet appends a new, empty tag set
func (s *TagSetStructure) CreateTagSet(name string) *TagSet {
	ts := &TagSet{ID: s.nextID(), Name: name}
	s.TagSets = append(s.TagSets, ts)
	return ts
}

// CreateTag appends a new tag to a tag set of this structure
func (s *TagSetStructure) CreateTag(ts *TagSet, label string, color uint32) *Tag {
	t := &Tag{ID: s.nextID(), Label: label, Color: color}
	ts.Tags = append(ts.Tags, t)
	return t
}

// TagSet by name, or nil
func (s *TagSetStructure) TagSet(name string) *TagSet {
	for _, ts := range s.TagSets {
		if ts.Name == name {
			return ts
		}
	}
	return nil
}

// Tag by id, with the tag set it belongs to, or nil
func (s *TagSetStructure) Tag(id int) (*TagSet, *Tag) {
	for _, ts := range s.TagSets {
		for _, t := range ts.Tags {
			if t.ID == id {
				return ts, t
			}
		}
	}
	return nil, nil
}

// Remove a tag set from the structure
func (s *TagSetStructure) Remove(ts *TagSet) {
	for i, candidate := range s.TagSets {
		if candidate == ts {
			s.TagSets = append(s.TagSets[:i], s.TagSets[i+1:]...)
			return
		}
	}
}

// TagIDs returns the set of all tag ids defined in the structure
func (s *TagSetStructure) TagIDs() map[int]struct{} {
	ids := make(map[int]struct{})
	for _, ts := range s.TagSets {
		for _, t := range ts.Tags {
			ids[t.ID] = struct{}{}
		}
	}
	return ids
}

// Clone makes a deep copy of the structure. Ids are preserved.
func (s *TagSetStructure) Clone() *TagSetStructure {
	c := &TagSetStructure{TagSets: make([]*TagSet, 0, len(s.TagSets))}
	for _, ts := range s.TagSets {
		cts := &TagSet{ID: ts.ID, Name: ts.Name, Tags: make([]*Tag, 0, len(ts.Tags))}
		for _, t := range ts.Tags {
			ct := *t
			cts.Tags = append(cts.Tags, &ct)
		}
		c.TagSets = append(c.TagSets, cts)
	}
	return c
}

// Equal compares two structures by ordered position of tag sets and tags,
// by names, labels and colors. Ids are not compared.
func (s *TagSetStructure) Equal(o *TagSetStructure) bool {
	if len(s.TagSets) != len(o.TagSets) {
		return false
	}
	for i, ts := range s.TagSets {
		ots := o.TagSets[i]
		if ts.Name != ots.Name || len(ts.Tags) != len(ots.Tags) {
			return false
		}
		for j, t := range ts.Tags {
			if t.Label != ots.Tags[j].Label || t.Color != ots.Tags[j].Color {
				return false
			}
		}
	}
	return true
}

func (s *TagSetStructure) nextID() int {
	next := 0
	for _, ts := range s.TagSets {
		if ts.ID >= next {
			next = ts.ID + 1
		}
		for _, t := range ts.Tags {
			if t.ID >= next {
				next = t.ID + 1
			}
		}
	}
	return next
}
