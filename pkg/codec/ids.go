package codec

import (
	"github.com/google/uuid"

	"github.com/oneconcern/lineagesync/pkg/ids"
	"github.com/oneconcern/lineagesync/pkg/model"
)

// Ids holds the persistent identities of the spots, links and labels of a
// model.
//
// Ids listens to the graph it is bound to: removed spots and links are
// forgotten, and their ids are never reused.
type Ids struct {
	Spots  *ids.Index[model.VertexRef]
	Links  *ids.Index[model.EdgeRef]
	Labels *Dictionary

	uuids map[model.VertexRef]uuid.UUID
	graph *model.Graph
}

// NewIds builds empty identities bound to a graph
func NewIds(g *model.Graph) *Ids {
	x := &Ids{
		Spots:  ids.New[model.VertexRef](),
		Links:  ids.New[model.EdgeRef](),
		Labels: NewDictionary(),
		uuids:  make(map[model.VertexRef]uuid.UUID),
	}
	x.Bind(g)
	return x
}

// Bind the identities to a graph, releasing the previously bound one.
//
// This is used when the content of a freshly read model is moved into a
// live model: handles are kept by the move, the graph object changes.
func (x *Ids) Bind(g *model.Graph) {
	x.Unbind()
	x.graph = g
	if g != nil {
		g.AddListener(x)
	}
}

// Unbind stops listening to the graph
func (x *Ids) Unbind() {
	if x.graph != nil {
		x.graph.RemoveListener(x)
		x.graph = nil
	}
}

// UUID of a spot, as stored by the legacy format. A random UUID is assigned
// to spots which have none.
func (x *Ids) UUID(v model.VertexRef) uuid.UUID {
	u, ok := x.uuids[v]
	if !ok {
		u = uuid.New()
		x.uuids[v] = u
	}
	return u
}

func (x *Ids) setUUID(v model.VertexRef, u uuid.UUID) {
	x.uuids[v] = u
}

// VertexRemoved forgets the id of a removed spot
func (x *Ids) VertexRemoved(v model.VertexRef) {
	x.Spots.Forget(v)
	delete(x.uuids, v)
}

// EdgeRemoved forgets the id of a removed link
func (x *Ids) EdgeRemoved(e model.EdgeRef) {
	x.Links.Forget(e)
}
