package flow

import "sync"

// Set is the flow compiler's exclusively-owned, mutex-protected
// deduplicating accumulator. Workers compiling different host pairs
// build local rule slices and merge them into one Set under a single
// lock per batch — not a lock per rule.
type Set struct {
	mu    sync.Mutex
	rules map[Key]Rule
}

// NewSet returns an empty Set.
func NewSet() *Set {
	return &Set{rules: make(map[Key]Rule)}
}

// Add inserts r, returning false if an identical rule (by Key) was
// already present.
func (s *Set) Add(r Rule) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := r.Key()
	if _, exists := s.rules[k]; exists {
		return false
	}
	s.rules[k] = r
	return true
}

// Merge adds every rule from a locally-built slice under one lock
// acquisition, the single per-batch merge point workers share.
func (s *Set) Merge(rules []Rule) (added, duplicates int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range rules {
		k := r.Key()
		if _, exists := s.rules[k]; exists {
			duplicates++
			continue
		}
		s.rules[k] = r
		added++
	}
	return added, duplicates
}

// Len returns the number of distinct rules currently in the set.
func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rules)
}

// Slice returns a snapshot of all rules in the set, order unspecified.
func (s *Set) Slice() []Rule {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Rule, 0, len(s.rules))
	for _, r := range s.rules {
		out = append(out, r)
	}
	return out
}
