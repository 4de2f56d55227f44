// Copyright © 2018 One Concern

package codec

import "sort"

// Dictionary assigns small integer indices to strings.
//
// Update keeps the indices of strings still in use, and gives new strings the
// smallest free indices, so the dictionary stays densely packed.
type Dictionary struct {
	index map[string]int
}

// NewDictionary builds an empty dictionary
func NewDictionary() *Dictionary {
	return &Dictionary{index: make(map[string]int)}
}

// Update the dictionary to contain exactly the used strings.
//
// Unused strings are removed and their indices freed. New strings are
// assigned the smallest free indices, in lexical order.
func (d *Dictionary) Update(used map[string]struct{}) {
	var taken bitset
	for s, i := range d.index {
		if _, ok := used[s]; !ok {
			delete(d.index, s)
			continue
		}
		taken.set(i)
	}

	added := make([]string, 0, len(used))
	for s := range used {
		if _, ok := d.index[s]; !ok {
			added = append(added, s)
		}
	}
	sort.Strings(added)

	next := -1
	for _, s := range added {
		next = taken.nextClear(next + 1)
		d.index[s] = next
	}
}

// Index of a string. The second result is false if the string is not in the dictionary.
func (d *Dictionary) Index(s string) (int, bool) {
	i, ok := d.index[s]
	return i, ok
}

// Put binds a string to an index
func (d *Dictionary) Put(s string, i int) {
	d.index[s] = i
}

// Len is the number of strings in the dictionary
func (d *Dictionary) Len() int {
	return len(d.index)
}

// Entries returns the strings indexed by their index. Free indices hold an
// empty string.
func (d *Dictionary) Entries() []string {
	maxIndex := -1
	for _, i := range d.index {
		if i > maxIndex {
			maxIndex = i
		}
	}
	entries := make([]string, maxIndex+1)
	for s, i := range d.index {
		entries[i] = s
	}
	return entries
}

type bitset []uint64

func (b *bitset) set(i int) {
	word := i / 64
	for len(*b) <= word {
		*b = append(*b, 0)
	}
	(*b)[word] |= 1 << uint(i%64)
}

func (b bitset) isSet(i int) bool {
	word := i / 64
	return word < len(b) && b[word]&(1<<uint(i%64)) != 0
}

// nextClear returns the first unset bit at or after i
func (b bitset) nextClear(i int) int {
	for b.isSet(i) {
		i++
	}
	return i
}
