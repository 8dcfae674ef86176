package quizcache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formula-ihu/quiz-api/internal/domain/entity"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func TestSlot_EmptyMiss(t *testing.T) {
	slot := New(0, 0, nil)

	_, ok := slot.Get()

	assert.False(t, ok)
}

func TestSlot_IdleTTLOutsideWindow(t *testing.T) {
	start := time.Date(2025, 1, 1, 13, 0, 0, 0, time.UTC)
	clock := &fakeClock{t: start.Add(-24 * time.Hour)}
	slot := New(30*time.Second, 5*time.Minute, clock.Now)
	quiz := &entity.QuizDefinition{ID: 1, ScheduledStartTime: start}

	slot.Set(quiz)
	clock.Advance(4 * time.Minute)
	got, ok := slot.Get()
	require.True(t, ok, "4 minutes is within the idle TTL")
	assert.Same(t, quiz, got)

	clock.Advance(time.Minute)
	_, ok = slot.Get()
	assert.False(t, ok, "expired after 5 minutes")
}

func TestSlot_LiveTTLInsideWindow(t *testing.T) {
	start := time.Date(2025, 1, 1, 13, 0, 0, 0, time.UTC)
	clock := &fakeClock{t: start.Add(10 * time.Minute)}
	slot := New(30*time.Second, 5*time.Minute, clock.Now)

	slot.Set(&entity.QuizDefinition{ID: 1, ScheduledStartTime: start})
	assert.Equal(t, 30*time.Second, slot.TTL())

	clock.Advance(29 * time.Second)
	_, ok := slot.Get()
	assert.True(t, ok)

	clock.Advance(time.Second)
	_, ok = slot.Get()
	assert.False(t, ok, "expired after 30 seconds while running")
}

func TestSlot_CrossingIntoWindowShortensTTL(t *testing.T) {
	start := time.Date(2025, 1, 1, 13, 0, 0, 0, time.UTC)
	clock := &fakeClock{t: start.Add(-time.Minute)}
	slot := New(30*time.Second, 5*time.Minute, clock.Now)

	slot.Set(&entity.QuizDefinition{ID: 1, ScheduledStartTime: start})
	clock.Advance(90 * time.Second) // 30s into the window, 90s old

	_, ok := slot.Get()
	assert.False(t, ok, "a value cached before start must be refreshed soon after start")
}

func TestSlot_Invalidate(t *testing.T) {
	slot := New(0, 0, nil)
	slot.Set(&entity.QuizDefinition{ID: 7, ScheduledStartTime: time.Now().Add(time.Hour * 48)})

	slot.Invalidate()

	_, ok := slot.Get()
	assert.False(t, ok)
}
