package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func set(values ...string) map[string]struct{} {
	s := make(map[string]struct{}, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

func TestDictionaryUpdate(t *testing.T) {
	d := NewDictionary()
	d.Update(set("A", "B", "C", "E"))
	assert.Equal(t, []string{"A", "B", "C", "E"}, d.Entries())

	d.Update(set("A", "C", "D", "F"))
	assert.Equal(t, []string{"A", "D", "C", "F"}, d.Entries())

	d.Update(set("F"))
	assert.Equal(t, []string{"", "", "", "F"}, d.Entries(), "indices of kept strings don't move")
	assert.Equal(t, 1, d.Len())

	d.Update(nil)
	assert.Empty(t, d.Entries())
}

func TestBitset(t *testing.T) {
	var b bitset
	for _, i := range []int{0, 1, 2, 64, 65} {
		b.set(i)
	}
	assert.Equal(t, 3, b.nextClear(0))
	assert.Equal(t, 66, b.nextClear(64))
	assert.Equal(t, 200, b.nextClear(200))
	assert.False(t, b.isSet(63))
}
