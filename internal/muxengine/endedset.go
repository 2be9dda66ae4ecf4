package muxengine

import "github.com/brimtide/vlesstund/internal/shared/constants"

// endedSet is the bounded set of sub-ids the engine has already answered
// with an End, so a stranger Keep for the same id never produces a
// second End. It halves itself on overflow rather than growing
// unbounded across a tunnel's lifetime.
type endedSet struct {
	ids map[uint16]struct{}
}

func newEndedSet() *endedSet {
	return &endedSet{ids: make(map[uint16]struct{})}
}

func (s *endedSet) mark(id uint16) {
	if len(s.ids) >= constants.EndedSetCapacity {
		s.halve()
	}
	s.ids[id] = struct{}{}
}

func (s *endedSet) contains(id uint16) bool {
	_, ok := s.ids[id]
	return ok
}

func (s *endedSet) remove(id uint16) {
	delete(s.ids, id)
}

// halve drops roughly half the entries, in map iteration order — there
// is no recency information to preserve, so any eviction policy is as
// good as any other.
func (s *endedSet) halve() {
	target := len(s.ids) / 2
	i := 0
	for id := range s.ids {
		if i >= target {
			break
		}
		delete(s.ids, id)
		i++
	}
}

func (s *endedSet) clear() {
	s.ids = make(map[uint16]struct{})
}
