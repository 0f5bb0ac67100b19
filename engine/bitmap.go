package engine

import (
	"iter"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
)

// IDSet is a set of internal record ids backed by a 64-bit Roaring
// Bitmap. It tracks the live records of a collection and the per
// document posting lists used for removal and scoped search.
type IDSet struct {
	rb *roaring64.Bitmap
}

// NewIDSet creates a new empty id set.
func NewIDSet() *IDSet {
	return &IDSet{
		rb: roaring64.New(),
	}
}

// Add adds an id to the set.
func (s *IDSet) Add(id uint64) {
	s.rb.Add(id)
}

// Remove removes an id from the set.
func (s *IDSet) Remove(id uint64) {
	s.rb.Remove(id)
}

// Contains checks if an id is in the set.
func (s *IDSet) Contains(id uint64) bool {
	return s.rb.Contains(id)
}

// IsEmpty returns true if the set is empty.
func (s *IDSet) IsEmpty() bool {
	return s.rb.IsEmpty()
}

// Cardinality returns the number of ids in the set.
func (s *IDSet) Cardinality() uint64 {
	return s.rb.GetCardinality()
}

// Clone returns a deep copy of the set.
func (s *IDSet) Clone() *IDSet {
	return &IDSet{
		rb: s.rb.Clone(),
	}
}

// Iterator returns an iterator over the set in ascending id order.
func (s *IDSet) Iterator() iter.Seq[uint64] {
	return func(yield func(uint64) bool) {
		it := s.rb.Iterator()
		for it.HasNext() {
			if !yield(it.Next()) {
				return
			}
		}
	}
}

// Or merges another set into this one.
func (s *IDSet) Or(other *IDSet) {
	s.rb.Or(other.rb)
}

// And intersects this set with another.
func (s *IDSet) And(other *IDSet) {
	s.rb.And(other.rb)
}

// Clear removes all ids from the set.
func (s *IDSet) Clear() {
	s.rb.Clear()
}
