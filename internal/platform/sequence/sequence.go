// Package sequence allocates dense monotonic identifiers for registry-owned
// entities. Each registry owns one Sequence per identifier kind.
package sequence

// Sequence hands out uint64 identifiers starting at 1. Identifiers are never
// reused for the lifetime of the process.
//
// A Sequence is not safe for concurrent use on its own; the owning registry
// guards it with the same lock that protects its keyed collection.
type Sequence struct {
	last uint64
}

// Next returns the next identifier in the sequence.
func (s *Sequence) Next() uint64 {
	s.last++
	return s.last
}

// Last returns the most recently allocated identifier, or 0 when none has
// been allocated yet.
func (s *Sequence) Last() uint64 {
	return s.last
}
