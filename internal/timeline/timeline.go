// Package timeline tracks emotional states and social cues over a session.
//
// The producer feeds it one entry per analyzed utterance; the rollup feeds
// timeline_update events and the final session summary. Clients keep their
// own instance fed from the events they receive.
package timeline

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

const (
	DefaultWindow     = 10 * time.Minute
	DefaultMaxEntries = 100
)

// Entry is a single analyzed utterance on the timeline.
type Entry struct {
	EmotionalState string    `json:"emotional_state"`
	SocialCue      string    `json:"social_cue"`
	Confidence     float64   `json:"confidence"`
	Text           string    `json:"text"`
	Alert          bool      `json:"alert"`
	Timestamp      time.Time `json:"timestamp"`
}

// Summary is the session rollup carried by timeline_update and the final
// session_status event.
type Summary struct {
	DurationMinutes   float64        `json:"session_duration_minutes"`
	TotalEntries      int            `json:"total_entries"`
	DominantState     string         `json:"dominant_state"`
	StateDistribution map[string]int `json:"state_distribution"`
	AlertCount        int            `json:"alert_count"`
	AverageConfidence float64        `json:"average_confidence"`
}

// Timeline keeps a bounded history of entries within a sliding window.
type Timeline struct {
	mu         sync.Mutex
	clock      clockwork.Clock
	window     time.Duration
	maxEntries int
	entries    []Entry
	startTime  time.Time
}

// New creates a timeline with the given display window and entry cap.
func New(window time.Duration, maxEntries int, clock clockwork.Clock) *Timeline {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if window <= 0 {
		window = DefaultWindow
	}
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Timeline{
		clock:      clock,
		window:     window,
		maxEntries: maxEntries,
		startTime:  clock.Now(),
	}
}

// Add appends an entry, stamping it with the current time if unset. The
// oldest entry is discarded once the cap is reached.
func (t *Timeline) Add(entry Entry) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if entry.Timestamp.IsZero() {
		entry.Timestamp = t.clock.Now()
	}
	t.entries = append(t.entries, entry)
	if len(t.entries) > t.maxEntries {
		t.entries = t.entries[len(t.entries)-t.maxEntries:]
	}
}

// Load replaces window-relevant entries from a streamed rollup, used by
// clients merging timeline_update payloads.
func (t *Timeline) Load(entries []Entry) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.entries = append(t.entries[:0], entries...)
	if len(t.entries) > t.maxEntries {
		t.entries = t.entries[len(t.entries)-t.maxEntries:]
	}
}

// Recent returns up to n entries within the window, newest last. n <= 0
// returns all windowed entries.
func (t *Timeline) Recent(n int) []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := t.clock.Now().Add(-t.window)
	var recent []Entry
	for _, e := range t.entries {
		if !e.Timestamp.Before(cutoff) {
			recent = append(recent, e)
		}
	}
	if n > 0 && len(recent) > n {
		recent = recent[len(recent)-n:]
	}
	return recent
}

// Len returns the number of stored entries.
func (t *Timeline) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Summary computes the whole-session rollup.
func (t *Timeline) Summary() Summary {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := Summary{
		DurationMinutes:   t.clock.Since(t.startTime).Minutes(),
		TotalEntries:      len(t.entries),
		DominantState:     "unknown",
		StateDistribution: make(map[string]int),
	}
	if len(t.entries) == 0 {
		return s
	}

	var totalConfidence float64
	for _, e := range t.entries {
		s.StateDistribution[e.EmotionalState]++
		if e.Alert {
			s.AlertCount++
		}
		totalConfidence += e.Confidence
	}

	best := 0
	for state, count := range s.StateDistribution {
		if count > best || (count == best && state < s.DominantState) {
			best = count
			s.DominantState = state
		}
	}
	s.AverageConfidence = totalConfidence / float64(len(t.entries))
	return s
}
