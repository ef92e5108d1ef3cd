// Package coach is the producer-facing publishing pipeline. An external
// speech/analysis pipeline feeds it utterances; it derives pace and filler
// statistics, maintains the session timeline, and publishes the resulting
// events through the hub's non-blocking enqueue entry point. Every call is
// safe from a blocking producer goroutine.
package coach

import (
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/bobthearsonist/meeting-coach/internal/event"
	"github.com/bobthearsonist/meeting-coach/internal/timeline"
)

// Speaking pace thresholds in words per minute.
const (
	PaceTooFast  = 180
	PaceTooSlow  = 100
	PaceIdealMin = 120
	PaceIdealMax = 160
)

// MinWordsForAnalysis is the minimum utterance length worth a full analysis.
const MinWordsForAnalysis = 15

// fillerWords are the tracked hesitation markers.
var fillerWords = []string{"um", "uh", "like", "you know", "basically", "actually", "literally"}

// timelineRollupEntries is how many recent entries ride each timeline_update.
const timelineRollupEntries = 10

// Publisher is the single enqueue surface for the producer pipeline.
type Publisher interface {
	Publish(ev event.Event)
}

// Analysis is the tone analyzer's verdict for one utterance. The analyzer
// itself is an external collaborator; the coach only publishes its output.
type Analysis struct {
	EmotionalState string
	SocialCue      string
	SpeechPattern  string
	Confidence     float64
	Coaching       string
	EmotionalAlert bool
	SocialAlert    bool
}

// Coach turns utterances and lifecycle changes into broadcast events.
type Coach struct {
	publisher Publisher
	clock     clockwork.Clock
	timeline  *timeline.Timeline
	config    map[string]any

	sessionStart time.Time
	lastWPM      float64
}

// New creates a coach publishing through the given publisher. config is the
// session bootstrap info announced on session start (model names and such).
func New(publisher Publisher, tl *timeline.Timeline, config map[string]any, clock clockwork.Clock) *Coach {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if tl == nil {
		tl = timeline.New(timeline.DefaultWindow, timeline.DefaultMaxEntries, clock)
	}
	return &Coach{
		publisher: publisher,
		clock:     clock,
		timeline:  tl,
		config:    config,
	}
}

// StartSession announces the session start to all clients.
func (c *Coach) StartSession() {
	c.sessionStart = c.clock.Now()
	ss := event.NewSessionStatus(event.SessionStarted, "Meeting coach session started")
	ss.Config = c.config
	c.publisher.Publish(ss)
}

// StopSession announces the session end with the final timeline summary.
func (c *Coach) StopSession() {
	summary := c.timeline.Summary()
	ss := event.NewSessionStatus(event.SessionStopped, "Meeting coach session ended")
	ss.Summary = &summary
	if !c.sessionStart.IsZero() {
		ss.DurationSeconds = c.clock.Since(c.sessionStart).Seconds()
	}
	c.publisher.Publish(ss)
}

// SetListening reports the microphone listening state.
func (c *Coach) SetListening(listening bool) {
	c.publisher.Publish(event.NewRecordingStatus(listening))
}

// PublishError surfaces a producer-side processing error to clients.
func (c *Coach) PublishError(message string) {
	c.publisher.Publish(event.NewError(message))
}

// ProcessSpeech handles one complete utterance. analysis may be nil for
// utterances too short to analyze; those still produce a transcription and a
// neutral meeting update. The event order per utterance is fixed:
// transcription, pace alert (if any), emotion update, meeting update,
// emotional/social alerts (if any), timeline rollup.
func (c *Coach) ProcessSpeech(text string, analysis *Analysis) {
	text = strings.TrimSpace(text)
	if len(text) < 3 {
		return
	}

	wordCount := len(strings.Fields(text))
	wpm := EstimateWPM(wordCount)
	c.lastWPM = wpm
	fillers := CountFillerWords(text)

	c.publisher.Publish(event.NewTranscription(text, wpm, wordCount, fillers))

	if feedback, alert := PaceFeedback(wpm); alert {
		c.publisher.Publish(event.NewAlert(feedback, event.SeverityWarning, event.CategoryPace))
	}

	if analysis != nil && wordCount >= MinWordsForAnalysis {
		c.publishAnalysis(text, wpm, fillers, analysis)
	} else {
		c.publishNeutral(text, wpm, fillers)
	}

	summary := c.timeline.Summary()
	recent := c.timeline.Recent(timelineRollupEntries)
	c.publisher.Publish(event.NewTimelineUpdate(summary, recent))
}

func (c *Coach) publishAnalysis(text string, wpm float64, fillers map[string]int, a *Analysis) {
	alerted := a.EmotionalAlert || a.SocialAlert

	c.timeline.Add(timeline.Entry{
		EmotionalState: a.EmotionalState,
		SocialCue:      a.SocialCue,
		Confidence:     a.Confidence,
		Text:           text,
		Alert:          alerted,
	})

	c.publisher.Publish(event.NewEmotionUpdate(a.EmotionalState, a.Confidence))

	update := event.NewMeetingUpdate()
	update.EmotionalState = a.EmotionalState
	update.SocialCue = a.SocialCue
	update.Confidence = a.Confidence
	update.WPM = wpm
	update.Text = text
	update.Coaching = a.Coaching
	update.Alert = alerted
	update.FillerCounts = fillers
	update.SpeechPattern = a.SpeechPattern
	c.publisher.Publish(update)

	if a.EmotionalAlert {
		alert := event.NewAlert(
			"Emotional state: "+strings.ToUpper(a.EmotionalState)+" - "+a.Coaching,
			event.SeverityWarning, event.CategoryEmotional,
		)
		alert.EmotionalState = a.EmotionalState
		c.publisher.Publish(alert)
	}
	if a.SocialAlert {
		alert := event.NewAlert(
			"Social cue alert: "+a.SocialCue,
			event.SeverityWarning, event.CategorySocial,
		)
		alert.SocialCue = a.SocialCue
		c.publisher.Publish(alert)
	}
}

func (c *Coach) publishNeutral(text string, wpm float64, fillers map[string]int) {
	c.timeline.Add(timeline.Entry{
		EmotionalState: "neutral",
		SocialCue:      "appropriate",
		Text:           text,
	})

	update := event.NewMeetingUpdate()
	update.EmotionalState = "neutral"
	update.SocialCue = "appropriate"
	update.WPM = wpm
	update.Text = text
	update.FillerCounts = fillers
	c.publisher.Publish(update)
}

// LastWPM returns the pace of the most recent utterance.
func (c *Coach) LastWPM() float64 {
	return c.lastWPM
}

// EstimateWPM derives speaking pace from word count assuming ~0.4s per word,
// clamped to a plausible 50-300 WPM range.
func EstimateWPM(wordCount int) float64 {
	seconds := float64(wordCount) * 0.4
	if seconds < 1.0 {
		seconds = 1.0
	}
	wpm := float64(wordCount) / seconds * 60
	if wpm < 50 {
		wpm = 50
	}
	if wpm > 300 {
		wpm = 300
	}
	return wpm
}

// PaceFeedback describes the speaking pace; alert is true when the pace
// warrants a broadcast warning.
func PaceFeedback(wpm float64) (feedback string, alert bool) {
	switch {
	case wpm >= PaceTooFast:
		return "Too fast - slow down for clarity", true
	case wpm <= PaceTooSlow:
		return "Too slow - increase pace slightly", true
	case wpm >= PaceIdealMin && wpm <= PaceIdealMax:
		return "Perfect pace!", false
	default:
		return "Good pace", false
	}
}

// CountFillerWords tallies tracked filler words in the utterance. Fillers
// that do not occur are absent from the map.
func CountFillerWords(text string) map[string]int {
	lower := strings.ToLower(text)
	counts := make(map[string]int)
	for _, filler := range fillerWords {
		if n := strings.Count(lower, filler); n > 0 {
			counts[filler] = n
		}
	}
	return counts
}
