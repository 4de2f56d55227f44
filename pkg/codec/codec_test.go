package codec

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gopkg.in/yaml.v2"

	"github.com/oneconcern/lineagesync/internal/lineagetest"
	"github.com/oneconcern/lineagesync/pkg/errors"
	"github.com/oneconcern/lineagesync/pkg/model"
	"github.com/oneconcern/lineagesync/pkg/storage"
	"github.com/oneconcern/lineagesync/pkg/storage/localfs"
)

func writeNew(t testing.TB, store storage.Store, m *model.Model, opts ...Option) *Ids {
	x := NewIds(m.Graph)
	require.NoError(t, Write(context.Background(), store, m, x, opts...))
	return x
}

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := localfs.New(nil)
	m := lineagetest.Sample()
	writeNew(t, store, m, Logger(zaptest.NewLogger(t)))

	read, x, err := Read(ctx, store, Logger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	assert.Equal(t, model.Describe(m), model.Describe(read))
	assert.Equal(t, 4, x.Spots.Len())
	assert.Equal(t, 3, x.Links.Len())

	b := lineagetest.Find(read, "b")
	out := read.Graph.Outgoing(b)
	require.Len(t, out, 2)
	assert.Equal(t, "d", read.Graph.Vertex(read.Graph.Target(out[0])).Label, "outgoing order is preserved")
}

func TestReadEmptyStore(t *testing.T) {
	read, x, err := Read(context.Background(), localfs.New(nil))
	require.NoError(t, err)
	assert.Equal(t, 0, read.Graph.NumVertices())
	assert.Empty(t, read.Tags.Structure().TagSets)
	assert.Equal(t, -1, x.Spots.MaxID())
}

func TestIdentityIsStable(t *testing.T) {
	ctx := context.Background()
	store := localfs.New(nil)
	writeNew(t, store, lineagetest.Sample())

	m, x, err := Read(ctx, store)
	require.NoError(t, err)
	before := make(map[string]int)
	for _, v := range m.Graph.Vertices() {
		before[m.Graph.Vertex(v).Label] = x.Spots.ID(v)
	}

	// removing c frees a slot, which the graph hands out again to e
	c := lineagetest.Find(m, "c")
	removedID := x.Spots.ID(c)
	m.Graph.RemoveVertex(c)
	e := m.Graph.AddVertex(lineagetest.Spot("e", 3, 0, 0, 0))
	m.Graph.AddEdge(lineagetest.Find(m, "d"), e)
	require.NoError(t, Write(ctx, store, m, x))

	again, y, err := Read(ctx, store)
	require.NoError(t, err)
	assert.True(t, model.Equal(m, again))
	for _, label := range []string{"a", "b", "d"} {
		assert.Equal(t, before[label], y.Spots.ID(lineagetest.Find(again, label)), label)
	}
	assert.Equal(t, 4, y.Spots.ID(lineagetest.Find(again, "e")), "new spots get fresh ids")
	assert.False(t, y.Spots.ContainsID(removedID), "ids of removed spots are not reused")
}

func TestLabelDictionaryCompaction(t *testing.T) {
	ctx := context.Background()
	store := localfs.New(nil)
	m := model.New()
	spots := make(map[string]model.VertexRef)
	for i, label := range []string{"C", "A", "B"} {
		spots[label] = m.Graph.AddVertex(lineagetest.Spot(label, i, 0, 0, 0))
	}
	m.Graph.AddVertex(lineagetest.Spot("", 0, 0, 0, 0))
	x := writeNew(t, store, m)
	assertLabels(t, x, map[string]int{"A": 0, "B": 1, "C": 2})

	m.Graph.RemoveVertex(spots["B"])
	m.Graph.AddVertex(lineagetest.Spot("F", 0, 0, 0, 0))
	m.Graph.AddVertex(lineagetest.Spot("D", 0, 0, 0, 0))
	require.NoError(t, Write(ctx, store, m, x))
	assertLabels(t, x, map[string]int{"A": 0, "D": 1, "C": 2, "F": 3})

	read, y, err := Read(ctx, store)
	require.NoError(t, err)
	assert.True(t, model.Equal(m, read))
	assertLabels(t, y, map[string]int{"A": 0, "D": 1, "C": 2, "F": 3})
	assert.Equal(t, "", read.Graph.Vertex(lineagetest.Find(read, "")).Label, "unlabeled spots stay unlabeled")
}

func assertLabels(t testing.TB, x *Ids, expected map[string]int) {
	t.Helper()
	assert.Equal(t, len(expected), x.Labels.Len())
	for label, index := range expected {
		got, ok := x.Labels.Index(label)
		if assert.True(t, ok, label) {
			assert.Equal(t, index, got, label)
		}
	}
}

func TestLargeModelWithHoles(t *testing.T) {
	ctx := context.Background()
	store := localfs.New(nil)
	m := lineagetest.Random(25, 100)
	x := writeNew(t, store, m)
	require.Equal(t, 2499, x.Spots.MaxID())

	// empty the second page entirely
	for id := PageSize; id < 2*PageSize; id++ {
		v, ok := x.Spots.Handle(id)
		require.True(t, ok)
		m.Graph.RemoveVertex(v)
	}
	require.NoError(t, Write(ctx, store, m, x))

	keys, err := store.KeysPrefix(ctx, spotsTable+"/")
	require.NoError(t, err)
	assert.Equal(t, []string{"spots/0.raw", "spots/1000.raw", "spots/2000.raw"}, keys)

	read, y, err := Read(ctx, store)
	require.NoError(t, err)
	assert.True(t, model.Equal(m, read))
	assert.Equal(t, 1500, y.Spots.Len())
	assert.Equal(t, 2499, y.Spots.MaxID())
}

func TestStalePagesAreDeleted(t *testing.T) {
	ctx := context.Background()
	store := localfs.New(nil)
	writeNew(t, store, lineagetest.Random(30, 50))

	m := lineagetest.Sample()
	writeNew(t, store, m)
	keys, err := store.KeysPrefix(ctx, spotsTable+"/")
	require.NoError(t, err)
	assert.Equal(t, []string{"spots/0.raw"}, keys)

	read, _, err := Read(ctx, store)
	require.NoError(t, err)
	assert.True(t, model.Equal(m, read))
}

func TestLegacyUUIDs(t *testing.T) {
	ctx := context.Background()
	store := localfs.New(nil)
	m := lineagetest.Sample()
	x := writeNew(t, store, m, WithLegacyUUIDs(true))

	data, err := storage.ReadAll(ctx, store, pageKey(spotsTable, 0))
	require.NoError(t, err)
	assert.Equal(t, formatWithUUID, data[0])

	read, y, err := Read(ctx, store)
	require.NoError(t, err)
	assert.True(t, model.Equal(m, read))
	for _, label := range []string{"a", "b", "c", "d"} {
		assert.Equal(t, x.UUID(lineagetest.Find(m, label)), y.UUID(lineagetest.Find(read, label)), label)
	}

	// writing again in the current format drops the UUIDs
	require.NoError(t, Write(ctx, store, read, y))
	data, err = storage.ReadAll(ctx, store, pageKey(spotsTable, 0))
	require.NoError(t, err)
	assert.Equal(t, formatWithoutUUID, data[0])
}

func TestCorruptTables(t *testing.T) {
	ctx := context.Background()

	for _, tc := range []struct {
		name    string
		corrupt func(t testing.TB, store storage.Store)
	}{
		{
			name: "unknown version",
			corrupt: func(t testing.TB, store storage.Store) {
				overwrite(t, store, pageKey(spotsTable, 0), func(data []byte) []byte {
					data[0] = 7
					return data
				})
			},
		},
		{
			name: "attribute length",
			corrupt: func(t testing.TB, store storage.Store) {
				overwrite(t, store, pageKey(spotsTable, 0), func(data []byte) []byte {
					data[4] = 12
					return data
				})
			},
		},
		{
			name: "truncated record",
			corrupt: func(t testing.TB, store storage.Store) {
				overwrite(t, store, pageKey(linksTable, 0), func(data []byte) []byte {
					return data[:len(data)-3]
				})
			},
		},
		{
			name: "unknown endpoint",
			corrupt: func(t testing.TB, store storage.Store) {
				w := &recordWriter{}
				w.byte(formatWithoutUUID)
				w.int32(linkAttrLen)
				for _, field := range []int{0, 0, 42, 0, 0, 0} {
					w.int32(field)
				}
				require.NoError(t, store.Put(ctx, pageKey(linksTable, 0), bytes.NewReader(w.buf.Bytes())))
			},
		},
		{
			name: "tag lookup index",
			corrupt: func(t testing.TB, store storage.Store) {
				w := &recordWriter{}
				w.int32(1)
				w.int32(0)
				require.NoError(t, store.Put(ctx, spotsLookupKey, bytes.NewReader(w.buf.Bytes())))
			},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			store := localfs.New(nil)
			writeNew(t, store, lineagetest.Sample())
			tc.corrupt(t, store)

			_, _, err := Read(ctx, store)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrCorruptTable), errors.Details(err))
		})
	}
}

func overwrite(t testing.TB, store storage.Store, key string, change func([]byte) []byte) {
	ctx := context.Background()
	data, err := storage.ReadAll(ctx, store, key)
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, key, bytes.NewReader(change(data))))
}

func TestReadStopsAtMissingPage(t *testing.T) {
	ctx := context.Background()
	store := localfs.New(nil)
	m := model.New()
	for i := 0; i < 2*PageSize+10; i++ {
		m.Graph.AddVertex(lineagetest.Spot(fmt.Sprintf("s%d", i), 0, 0, 0, 0))
	}
	writeNew(t, store, m)
	require.NoError(t, store.Delete(ctx, pageKey(spotsTable, PageSize)))

	read, x, err := Read(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, PageSize, read.Graph.NumVertices())
	assert.Equal(t, PageSize-1, x.Spots.MaxID())
}

func TestUnknownTagsAreDropped(t *testing.T) {
	ctx := context.Background()
	store := localfs.New(nil)
	m := lineagetest.Sample()
	writeNew(t, store, m)

	s := m.Tags.Structure().Clone()
	s.Remove(s.TagSet("quality"))
	data, err := yaml.Marshal(s)
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, tagSetStructureKey, bytes.NewReader(data)))

	read, _, err := Read(ctx, store)
	require.NoError(t, err)
	b := lineagetest.Find(read, "b")
	require.Len(t, read.Tags.Vertices.TagIDs(b), 1)
	cellType := read.Tags.Structure().TagSet("cell type")
	assert.Equal(t, "stem", read.Tags.Vertices.Tag(b, cellType).Label)
	for _, e := range read.Graph.Edges() {
		assert.Empty(t, read.Tags.Edges.TagIDs(e))
	}
}

func TestLabelTooLong(t *testing.T) {
	m := model.New()
	m.Graph.AddVertex(lineagetest.Spot(string(make([]byte, 70000)), 0, 0, 0, 0))
	err := Write(context.Background(), localfs.New(nil), m, NewIds(m.Graph))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLabelTooLong))
}

func TestIdsForgetRemovedEntities(t *testing.T) {
	m := lineagetest.Sample()
	x := writeNew(t, localfs.New(nil), m)
	a := lineagetest.Find(m, "a")
	id := x.Spots.ID(a)
	m.Graph.RemoveVertex(a)
	assert.False(t, x.Spots.ContainsID(id))
	assert.Equal(t, 2, x.Links.Len())

	x.Unbind()
	m.Graph.RemoveVertex(lineagetest.Find(m, "b"))
	assert.Equal(t, 3, x.Spots.Len(), "unbound ids don't track the graph anymore")
}
