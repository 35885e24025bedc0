package models

import (
	"sync"
	"time"
)

const DefaultErrorStashSize = 50

// StashedError is one recorded operation failure.
type StashedError struct {
	Time    time.Time `json:"time"`
	Source  string    `json:"source"`
	Kind    string    `json:"kind"`
	Message string    `json:"message"`
}

// ErrorStash keeps the most recent operation failures so they can be
// reported with the next sysinfo snapshot. It is safe for concurrent use.
type ErrorStash struct {
	mu      sync.Mutex
	size    int
	entries []StashedError
}

func NewErrorStash(size int) *ErrorStash {
	if size <= 0 {
		size = DefaultErrorStashSize
	}
	return &ErrorStash{size: size}
}

// Add records err under source. Nil errors are ignored.
func (s *ErrorStash) Add(source string, err error) {
	if s == nil || err == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries, StashedError{
		Time:    time.Now().UTC(),
		Source:  source,
		Kind:    KindOf(err).String(),
		Message: err.Error(),
	})
	if over := len(s.entries) - s.size; over > 0 {
		s.entries = append([]StashedError(nil), s.entries[over:]...)
	}
}

// Snapshot returns a copy of the recorded errors, oldest first.
func (s *ErrorStash) Snapshot() []StashedError {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]StashedError(nil), s.entries...)
}

// Drain returns the recorded errors and clears the stash.
func (s *ErrorStash) Drain() []StashedError {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.entries
	s.entries = nil
	return out
}
