// Package ids maps the ephemeral in-memory handles of graph entities to
// persistent integer ids.
package ids

// Index is a bijective map between persistent ids and in-memory handles.
//
// Ids are dense, starting at 0. Once bound, an id keeps referring to the same
// entity for the lifetime of the index: forgetting a handle leaves a hole and
// its id is never handed out again.
type Index[H ~int] struct {
	handles []H
	ids     map[H]int
}

const none = -1

// New builds an empty index
func New[H ~int]() *Index[H] {
	return &Index[H]{ids: make(map[H]int)}
}

// Put binds an id to a handle. The id space grows as needed.
//
// A previous binding of the id or of the handle is replaced.
func (x *Index[H]) Put(id int, h H) {
	if old, ok := x.ids[h]; ok {
		x.handles[old] = none
	}
	for len(x.handles) <= id {
		x.handles = append(x.handles, none)
	}
	if previous := x.handles[id]; previous != none {
		delete(x.ids, previous)
	}
	x.handles[id] = h
	x.ids[h] = id
}

// ID bound to a handle, or -1
func (x *Index[H]) ID(h H) int {
	if id, ok := x.ids[h]; ok {
		return id
	}
	return none
}

// GetOrCreateID returns the id of a handle, binding the next free id if the
// handle has none
func (x *Index[H]) GetOrCreateID(h H) int {
	if id, ok := x.ids[h]; ok {
		return id
	}
	id := len(x.handles)
	x.handles = append(x.handles, h)
	x.ids[h] = id
	return id
}

// Handle bound to an id. The second result is false if the id is unbound.
func (x *Index[H]) Handle(id int) (H, bool) {
	if id < 0 || id >= len(x.handles) || x.handles[id] == none {
		return H(none), false
	}
	return x.handles[id], true
}

// MaxID is the largest id ever bound, or -1
func (x *Index[H]) MaxID() int {
	return len(x.handles) - 1
}

// ContainsID tells if an id is bound
func (x *Index[H]) ContainsID(id int) bool {
	_, ok := x.Handle(id)
	return ok
}

// ContainsHandle tells if a handle has an id
func (x *Index[H]) ContainsHandle(h H) bool {
	_, ok := x.ids[h]
	return ok
}

// Forget unbinds a handle. Its id stays reserved.
func (x *Index[H]) Forget(h H) {
	id, ok := x.ids[h]
	if !ok {
		return
	}
	delete(x.ids, h)
	x.handles[id] = none
}

// Len is the number of bound handles
func (x *Index[H]) Len() int {
	return len(x.ids)
}
