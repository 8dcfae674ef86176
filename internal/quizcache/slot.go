// Package quizcache holds the most recently loaded quiz definition.
//
// At most one quiz is ever current, so the cache is a single (value, timestamp)
// slot and needs no eviction policy. It is per process and best effort:
// different instances may hold different values for up to one TTL.
package quizcache

import (
	"sync"
	"time"

	"github.com/formula-ihu/quiz-api/internal/domain/entity"
)

// Default TTLs: short while the quiz is running, longer otherwise.
const (
	DefaultLiveTTL = 30 * time.Second
	DefaultIdleTTL = 5 * time.Minute
)

// Slot is a single-value cache with a window-aware TTL.
type Slot struct {
	mu        sync.RWMutex
	value     *entity.QuizDefinition
	fetchedAt time.Time

	liveTTL time.Duration
	idleTTL time.Duration
	now     func() time.Time
}

// New creates an empty slot. A nil now uses time.Now.
func New(liveTTL, idleTTL time.Duration, now func() time.Time) *Slot {
	if liveTTL <= 0 {
		liveTTL = DefaultLiveTTL
	}
	if idleTTL <= 0 {
		idleTTL = DefaultIdleTTL
	}
	if now == nil {
		now = time.Now
	}
	return &Slot{liveTTL: liveTTL, idleTTL: idleTTL, now: now}
}

// Get returns the cached quiz while it is fresh.
func (s *Slot) Get() (*entity.QuizDefinition, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.value == nil {
		return nil, false
	}
	now := s.now()
	if now.Sub(s.fetchedAt) >= s.ttlFor(s.value, now) {
		return nil, false
	}
	return s.value, true
}

// Set replaces the slot content and stamps it with the current time.
func (s *Slot) Set(quiz *entity.QuizDefinition) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value = quiz
	s.fetchedAt = s.now()
}

// Invalidate empties the slot.
func (s *Slot) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value = nil
	s.fetchedAt = time.Time{}
}

// TTL reports the TTL that applies to the cached value right now.
func (s *Slot) TTL() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.value == nil {
		return s.idleTTL
	}
	return s.ttlFor(s.value, s.now())
}

func (s *Slot) ttlFor(quiz *entity.QuizDefinition, now time.Time) time.Duration {
	if quiz.InWindow(now) {
		return s.liveTTL
	}
	return s.idleTTL
}
