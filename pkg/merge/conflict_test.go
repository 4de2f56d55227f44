package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oneconcern/lineagesync/internal/lineagetest"
)

func TestHasConflict(t *testing.T) {
	m := lineagetest.Sample()
	assert.False(t, HasConflict(m))

	s := m.Tags.Structure()
	ts := s.CreateTagSet(ConflictTagSet)
	tag := s.CreateTag(ts, ConflictTag, 0xffff0000)
	assert.False(t, HasConflict(m), "empty conflict tag sets are not conflicts")

	m.Tags.Edges.Set(m.Graph.Edges()[0], ts, tag)
	assert.True(t, HasConflict(m))

	RemoveConflictTagSets(m)
	assert.False(t, HasConflict(m))
	assert.Nil(t, m.Tags.Structure().TagSet(ConflictTagSet))
	assert.NotNil(t, m.Tags.Structure().TagSet("quality"))
}

func TestIsConflictTagSetName(t *testing.T) {
	for _, name := range []string{ConflictTagSet, TagConflictTagSet, LabelConflictTagSet, SourceATagSet, SourceBTagSet, "((A)) cell type", "((B)) x"} {
		assert.True(t, IsConflictTagSetName(name), name)
	}
	for _, name := range []string{"cell type", "Merge", "(A) x"} {
		assert.False(t, IsConflictTagSetName(name), name)
	}
}
