package merge

import (
	"strings"

	"github.com/oneconcern/lineagesync/pkg/model"
)

// Tag sets and tags marking entities the merge could not reconcile
const (
	ConflictTagSet      = "Merge Conflict"
	ConflictTag         = "Conflict"
	TagConflictTagSet   = "Merge Conflict (Tags)"
	TagConflictTag      = "Tag Conflict"
	LabelConflictTagSet = "Merge Conflict (Labels)"
	LabelConflictTag    = "Label Conflict"
	SourceATagSet       = "Merge Source A"
	SourceBTagSet       = "Merge Source B"
	SourceATag          = "A"
	SourceBTag          = "B"

	// PrefixA and PrefixB are prepended to the names of the tag sets
	// holding the competing tags of A and B
	PrefixA = "((A)) "
	PrefixB = "((B)) "
)

// HasConflict tells if some spot or link of the model carries a conflict tag
func HasConflict(m *model.Model) bool {
	return !isTagEmpty(m, ConflictTagSet, ConflictTag) ||
		!isTagEmpty(m, TagConflictTagSet, TagConflictTag) ||
		!isTagEmpty(m, LabelConflictTagSet, LabelConflictTag)
}

// RemoveConflictTagSets drops all the tag sets added by a merge, with their
// assignments
func RemoveConflictTagSets(m *model.Model) {
	s := m.Tags.Structure().Clone()
	kept := s.TagSets[:0]
	for _, ts := range s.TagSets {
		if !IsConflictTagSetName(ts.Name) {
			kept = append(kept, ts)
		}
	}
	s.TagSets = kept
	m.Tags.SetStructure(s)
}

// IsConflictTagSetName tells if a tag set is one of the markers of a merge
func IsConflictTagSetName(name string) bool {
	switch name {
	case ConflictTagSet, TagConflictTagSet, LabelConflictTagSet, SourceATagSet, SourceBTagSet:
		return true
	}
	return strings.HasPrefix(name, PrefixA) || strings.HasPrefix(name, PrefixB)
}

// isTagEmpty is true when the tag is not defined or not assigned
func isTagEmpty(m *model.Model, tagSetName, tagLabel string) bool {
	ts := m.Tags.Structure().TagSet(tagSetName)
	if ts == nil {
		return true
	}
	t := ts.Tag(tagLabel)
	if t == nil {
		return true
	}
	return len(m.Tags.Vertices.TaggedWith(t.ID)) == 0 && len(m.Tags.Edges.TaggedWith(t.ID)) == 0
}
