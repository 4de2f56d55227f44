package model

// TagSetModel holds the tag-set structure of a model and the tag assignments
// of its vertices and edges
type TagSetModel struct {
	structure *TagSetStructure
	Vertices  *TagAssignments[VertexRef]
	Edges     *TagAssignments[EdgeRef]
}

// NewTagSetModel builds a tag model with an empty structure
func NewTagSetModel() *TagSetModel {
	t := &TagSetModel{structure: NewTagSetStructure()}
	t.Vertices = newTagAssignments[VertexRef](t)
	t.Edges = newTagAssignments[EdgeRef](t)
	return t
}

// Structure of tag sets. Callers which modify the returned structure by
// removing tags should call SetStructure afterwards.
func (t *TagSetModel) Structure() *TagSetStructure {
	return t.structure
}

// SetStructure replaces the tag-set structure. Assignments of tags which do
// not exist anymore are dropped.
func (t *TagSetModel) SetStructure(s *TagSetStructure) {
	t.structure = s
	valid := s.TagIDs()
	t.Vertices.purge(valid)
	t.Edges.purge(valid)
}

// RemoveTagSet removes a tag set and all assignments of its tags
func (t *TagSetModel) RemoveTagSet(ts *TagSet) {
	t.structure.Remove(ts)
	t.SetStructure(t.structure)
}

// Model is a snapshot of a lineage: a graph of spots and links, with tags
type Model struct {
	Graph *Graph
	Tags  *TagSetModel
}

// New builds an empty model
func New() *Model {
	m := &Model{
		Graph: NewGraph(),
		Tags:  NewTagSetModel(),
	}
	m.Graph.AddListener(tagCleaner{tags: m.Tags})
	return m
}

// Replace moves the content of src into m. Listeners registered on the graph
// of m are kept, and src is left empty.
//
// Handles of src are valid handles of m after the move.
func (m *Model) Replace(src *Model) {
	m.Graph.moveFrom(src.Graph)
	m.Tags.structure = src.Tags.structure
	src.Tags.structure = NewTagSetStructure()
	m.Tags.Vertices.moveFrom(src.Tags.Vertices)
	m.Tags.Edges.moveFrom(src.Tags.Edges)
}

// tagCleaner drops the tags of removed entities
type tagCleaner struct {
	tags *TagSetModel
}

func (c tagCleaner) VertexRemoved(v VertexRef) {
	c.tags.Vertices.Remove(v)
}

func (c tagCleaner) EdgeRemoved(e EdgeRef) {
	c.tags.Edges.Remove(e)
}
