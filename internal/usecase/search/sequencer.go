package search

import "sync"

// Sequencer orders overlapping searches for one consumer: each search takes
// a ticket at start, and only the most recently started search may publish
// its result. Responses from superseded searches are dropped regardless of
// arrival order.
type Sequencer struct {
	mu     sync.Mutex
	issued uint64
}

// Begin registers a new search and returns its ticket.
func (s *Sequencer) Begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued++
	return s.issued
}

// Current reports whether the ticket still belongs to the latest search.
func (s *Sequencer) Current(ticket uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ticket == s.issued
}
