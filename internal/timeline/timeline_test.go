package timeline

import (
	"fmt"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddStampsMissingTimestamp(t *testing.T) {
	clock := clockwork.NewFakeClock()
	tl := New(DefaultWindow, 10, clock)

	tl.Add(Entry{EmotionalState: "calm"})

	entries := tl.Recent(0)
	require.Len(t, entries, 1)
	assert.Equal(t, clock.Now(), entries[0].Timestamp)
}

func TestAddKeepsExistingTimestamp(t *testing.T) {
	clock := clockwork.NewFakeClock()
	tl := New(DefaultWindow, 10, clock)
	stamp := clock.Now().Add(-time.Minute)

	tl.Add(Entry{EmotionalState: "calm", Timestamp: stamp})

	entries := tl.Recent(0)
	require.Len(t, entries, 1)
	assert.Equal(t, stamp, entries[0].Timestamp)
}

func TestAddDropsOldestBeyondCap(t *testing.T) {
	clock := clockwork.NewFakeClock()
	tl := New(DefaultWindow, 3, clock)

	for i := 0; i < 5; i++ {
		tl.Add(Entry{Text: fmt.Sprintf("utterance %d", i), Timestamp: clock.Now()})
	}

	entries := tl.Recent(0)
	require.Len(t, entries, 3)
	assert.Equal(t, "utterance 2", entries[0].Text)
	assert.Equal(t, "utterance 4", entries[2].Text)
}

func TestRecentExcludesEntriesOutsideWindow(t *testing.T) {
	clock := clockwork.NewFakeClock()
	tl := New(5*time.Minute, 10, clock)

	tl.Add(Entry{Text: "old", Timestamp: clock.Now()})
	clock.Advance(10 * time.Minute)
	tl.Add(Entry{Text: "fresh", Timestamp: clock.Now()})

	entries := tl.Recent(0)
	require.Len(t, entries, 1)
	assert.Equal(t, "fresh", entries[0].Text)
}

func TestRecentLimitsToNewest(t *testing.T) {
	clock := clockwork.NewFakeClock()
	tl := New(DefaultWindow, 10, clock)

	for i := 0; i < 5; i++ {
		tl.Add(Entry{Text: fmt.Sprintf("utterance %d", i), Timestamp: clock.Now()})
	}

	entries := tl.Recent(2)
	require.Len(t, entries, 2)
	assert.Equal(t, "utterance 3", entries[0].Text)
	assert.Equal(t, "utterance 4", entries[1].Text)
}

func TestLoadReplacesEntries(t *testing.T) {
	clock := clockwork.NewFakeClock()
	tl := New(DefaultWindow, 10, clock)
	tl.Add(Entry{Text: "stale", Timestamp: clock.Now()})

	tl.Load([]Entry{
		{Text: "a", Timestamp: clock.Now()},
		{Text: "b", Timestamp: clock.Now()},
	})

	entries := tl.Recent(0)
	require.Len(t, entries, 2)
	assert.Equal(t, "a", entries[0].Text)
}

func TestSummaryEmpty(t *testing.T) {
	clock := clockwork.NewFakeClock()
	tl := New(DefaultWindow, 10, clock)
	clock.Advance(2 * time.Minute)

	s := tl.Summary()

	assert.Equal(t, 0, s.TotalEntries)
	assert.Equal(t, "unknown", s.DominantState)
	assert.Empty(t, s.StateDistribution)
	assert.InDelta(t, 2.0, s.DurationMinutes, 0.001)
}

func TestSummaryRollup(t *testing.T) {
	clock := clockwork.NewFakeClock()
	tl := New(DefaultWindow, 10, clock)

	tl.Add(Entry{EmotionalState: "calm", Confidence: 0.8, Timestamp: clock.Now()})
	tl.Add(Entry{EmotionalState: "calm", Confidence: 0.9, Timestamp: clock.Now()})
	tl.Add(Entry{EmotionalState: "elevated", Confidence: 0.7, Alert: true, Timestamp: clock.Now()})

	s := tl.Summary()

	assert.Equal(t, 3, s.TotalEntries)
	assert.Equal(t, "calm", s.DominantState)
	assert.Equal(t, map[string]int{"calm": 2, "elevated": 1}, s.StateDistribution)
	assert.Equal(t, 1, s.AlertCount)
	assert.InDelta(t, 0.8, s.AverageConfidence, 0.001)
}

func TestSummaryDominantStateTieBreaksDeterministically(t *testing.T) {
	clock := clockwork.NewFakeClock()
	tl := New(DefaultWindow, 10, clock)

	tl.Add(Entry{EmotionalState: "elevated", Timestamp: clock.Now()})
	tl.Add(Entry{EmotionalState: "calm", Timestamp: clock.Now()})

	assert.Equal(t, "calm", tl.Summary().DominantState)
}
