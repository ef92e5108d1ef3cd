package coach

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobthearsonist/meeting-coach/internal/event"
	"github.com/bobthearsonist/meeting-coach/internal/timeline"
)

// capturePublisher records every published event in order.
type capturePublisher struct {
	mu     sync.Mutex
	events []event.Event
}

func (p *capturePublisher) Publish(ev event.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func (p *capturePublisher) types() []event.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]event.Type, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.EventType()
	}
	return out
}

func (p *capturePublisher) snapshot() []event.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]event.Event(nil), p.events...)
}

func newTestCoach(t *testing.T) (*Coach, *capturePublisher, *clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClock()
	pub := &capturePublisher{}
	tl := timeline.New(timeline.DefaultWindow, timeline.DefaultMaxEntries, clock)
	return New(pub, tl, map[string]any{"analyzer": "test"}, clock), pub, clock
}

func longUtterance() string {
	return strings.Repeat("we should review the numbers together ", 3) // 18 words
}

func TestProcessSpeechAnalyzedEventOrder(t *testing.T) {
	c, pub, _ := newTestCoach(t)

	c.ProcessSpeech(longUtterance(), &Analysis{
		EmotionalState: "elevated",
		SocialCue:      "dominating",
		Confidence:     0.8,
		Coaching:       "take a breath",
		EmotionalAlert: true,
		SocialAlert:    true,
	})

	assert.Equal(t, []event.Type{
		event.TypeTranscription,
		event.TypeEmotionUpdate,
		event.TypeMeetingUpdate,
		event.TypeAlert,
		event.TypeAlert,
		event.TypeTimelineUpdate,
	}, pub.types())

	events := pub.snapshot()
	update := events[2].(*event.MeetingUpdate)
	assert.Equal(t, "elevated", update.EmotionalState)
	assert.Equal(t, "dominating", update.SocialCue)
	assert.True(t, update.Alert)

	emotional := events[3].(*event.Alert)
	assert.Equal(t, event.CategoryEmotional, emotional.Category)
	assert.Contains(t, emotional.Message, "ELEVATED")
	assert.Contains(t, emotional.Message, "take a breath")

	social := events[4].(*event.Alert)
	assert.Equal(t, event.CategorySocial, social.Category)
	assert.Equal(t, "dominating", social.SocialCue)
}

func TestProcessSpeechShortUtteranceIsNeutral(t *testing.T) {
	c, pub, _ := newTestCoach(t)

	c.ProcessSpeech("sounds good to me", &Analysis{EmotionalState: "elevated", Confidence: 0.9})

	require.Equal(t, []event.Type{
		event.TypeTranscription,
		event.TypeMeetingUpdate,
		event.TypeTimelineUpdate,
	}, pub.types())

	update := pub.snapshot()[1].(*event.MeetingUpdate)
	assert.Equal(t, "neutral", update.EmotionalState)
	assert.Equal(t, "appropriate", update.SocialCue)
	assert.False(t, update.Alert)
}

func TestProcessSpeechIgnoresTinyFragments(t *testing.T) {
	c, pub, _ := newTestCoach(t)

	c.ProcessSpeech("  hm ", nil)

	assert.Empty(t, pub.types())
}

func TestProcessSpeechCountsFillers(t *testing.T) {
	c, pub, _ := newTestCoach(t)

	c.ProcessSpeech("um so basically we should um just ship it", nil)

	tr := pub.snapshot()[0].(*event.Transcription)
	assert.Equal(t, map[string]int{"um": 2, "basically": 1}, tr.FillerCounts)
	assert.Equal(t, 9, tr.WordCount)
}

func TestProcessSpeechFeedsTimeline(t *testing.T) {
	c, pub, _ := newTestCoach(t)

	c.ProcessSpeech(longUtterance(), &Analysis{EmotionalState: "calm", SocialCue: "appropriate", Confidence: 0.9})
	c.ProcessSpeech(longUtterance(), &Analysis{EmotionalState: "calm", SocialCue: "appropriate", Confidence: 0.7})

	events := pub.snapshot()
	rollup := events[len(events)-1].(*event.TimelineUpdate)
	assert.Equal(t, 2, rollup.Summary.TotalEntries)
	assert.Equal(t, "calm", rollup.Summary.DominantState)
	assert.InDelta(t, 0.8, rollup.Summary.AverageConfidence, 0.001)
	assert.Len(t, rollup.RecentEntries, 2)
}

func TestStartSessionAnnouncesConfig(t *testing.T) {
	c, pub, _ := newTestCoach(t)

	c.StartSession()

	events := pub.snapshot()
	require.Len(t, events, 1)
	ss := events[0].(*event.SessionStatus)
	assert.Equal(t, event.SessionStarted, ss.Status)
	assert.Equal(t, map[string]any{"analyzer": "test"}, ss.Config)
}

func TestStopSessionCarriesSummaryAndDuration(t *testing.T) {
	c, pub, clock := newTestCoach(t)

	c.StartSession()
	c.ProcessSpeech(longUtterance(), &Analysis{EmotionalState: "calm", Confidence: 0.9})
	clock.Advance(90 * time.Second)
	c.StopSession()

	events := pub.snapshot()
	ss := events[len(events)-1].(*event.SessionStatus)
	assert.Equal(t, event.SessionStopped, ss.Status)
	require.NotNil(t, ss.Summary)
	assert.Equal(t, 1, ss.Summary.TotalEntries)
	assert.InDelta(t, 90, ss.DurationSeconds, 0.001)
}

func TestSetListeningAndErrors(t *testing.T) {
	c, pub, _ := newTestCoach(t)

	c.SetListening(true)
	c.PublishError("transcription backend unavailable")

	events := pub.snapshot()
	require.Len(t, events, 2)
	assert.True(t, events[0].(*event.RecordingStatus).IsListening)
	assert.Equal(t, "transcription backend unavailable", events[1].(*event.Error).Message)
}

func TestEstimateWPM(t *testing.T) {
	assert.Equal(t, 60.0, EstimateWPM(1))
	assert.Equal(t, 150.0, EstimateWPM(20))
	assert.Equal(t, 50.0, EstimateWPM(0))
}

func TestPaceFeedback(t *testing.T) {
	feedback, alert := PaceFeedback(200)
	assert.True(t, alert)
	assert.Contains(t, feedback, "Too fast")

	feedback, alert = PaceFeedback(80)
	assert.True(t, alert)
	assert.Contains(t, feedback, "Too slow")

	feedback, alert = PaceFeedback(140)
	assert.False(t, alert)
	assert.Equal(t, "Perfect pace!", feedback)

	_, alert = PaceFeedback(110)
	assert.False(t, alert)
}

func TestCountFillerWords(t *testing.T) {
	counts := CountFillerWords("You know, it's like, um, actually fine")
	assert.Equal(t, map[string]int{"you know": 1, "like": 1, "um": 1, "actually": 1}, counts)

	assert.Empty(t, CountFillerWords("crisp and to the point"))
}

func TestRunDemoLifecycle(t *testing.T) {
	clock := clockwork.NewRealClock()
	pub := &capturePublisher{}
	c := New(pub, nil, nil, clock)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.RunDemo(ctx, time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool { return len(pub.types()) > 6 }, 2*time.Second, time.Millisecond)
	cancel()
	<-done

	types := pub.types()
	assert.Equal(t, event.TypeSessionStatus, types[0])
	assert.Equal(t, event.TypeRecordingStatus, types[1])
	assert.Equal(t, event.TypeRecordingStatus, types[len(types)-2])
	assert.Equal(t, event.TypeSessionStatus, types[len(types)-1])
}
