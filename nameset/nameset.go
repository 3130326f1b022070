// Package nameset is an ordered set of column names, backed by
// google/btree the way the teacher's storage.MultiSet is backed by a btree
// of its own item type. Column-name sets show up throughout actions and
// chain: the cycle-detection "current_names" set, ArrayJoin's joined-column
// set, and the sorted union/dedup of required_output across chain steps
// all need the same ordered-insert/ordered-iterate shape.
package nameset

import (
	"strings"

	"github.com/google/btree"
)

type item string

func (i item) Less(than btree.Item) bool {
	other, ok := than.(item)
	if !ok {
		return true
	}
	return string(i) < string(other)
}

// Set is an ordered set of names.
type Set struct {
	tree *btree.BTree
}

// New returns an empty Set, optionally seeded with names.
func New(names ...string) *Set {
	s := &Set{tree: btree.New(2)}
	for _, n := range names {
		s.Add(n)
	}
	return s
}

// Add inserts name into the set; a no-op if already present.
func (s *Set) Add(name string) {
	s.tree.ReplaceOrInsert(item(name))
}

// Remove deletes name from the set; a no-op if absent.
func (s *Set) Remove(name string) {
	s.tree.Delete(item(name))
}

// Has reports whether name is in the set.
func (s *Set) Has(name string) bool {
	return s.tree.Has(item(name))
}

// Len returns the number of names in the set.
func (s *Set) Len() int {
	return s.tree.Len()
}

// Slice returns the set's names, sorted.
func (s *Set) Slice() []string {
	out := make([]string, 0, s.tree.Len())
	s.tree.Ascend(func(i btree.Item) bool {
		out = append(out, string(i.(item)))
		return true
	})
	return out
}

// String renders the set as a sorted, comma-joined list, for ids and dumps.
func (s *Set) String() string {
	return strings.Join(s.Slice(), ", ")
}

// Union returns the sorted, deduplicated union of several name slices,
// mirroring the sort+unique step ExpressionActionsChain.finalize performs
// on each step's required_output.
func Union(lists ...[]string) []string {
	s := New()
	for _, l := range lists {
		for _, n := range l {
			s.Add(n)
		}
	}
	return s.Slice()
}

// Clone returns an independent copy of s.
func (s *Set) Clone() *Set {
	return New(s.Slice()...)
}
