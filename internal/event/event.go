package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/bobthearsonist/meeting-coach/internal/timeline"
)

// Type identifies the kind of event broadcast to clients.
type Type string

const (
	TypeConnection      Type = "connection"
	TypeMeetingUpdate   Type = "meeting_update"
	TypeTranscription   Type = "transcription"
	TypeEmotionUpdate   Type = "emotion_update"
	TypeAlert           Type = "alert"
	TypeSessionStatus   Type = "session_status"
	TypeRecordingStatus Type = "recording_status"
	TypeTimelineUpdate  Type = "timeline_update"
	TypePong            Type = "pong"
	TypeError           Type = "error"
)

// Event is the closed union of messages sent from the hub to clients.
// Each event marshals to a single flat JSON object tagged by "type".
type Event interface {
	EventType() Type
	Stamp(t time.Time)
	StampedAt() time.Time
	isEvent()
}

// header carries the fields shared by every event variant. Embedding it
// makes a struct an Event; the type is fixed by the constructor and the
// timestamp is stamped by the broadcast queue at enqueue.
type header struct {
	Type      Type      `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

func newHeader(t Type) header { return header{Type: t} }

func (h *header) EventType() Type { return h.Type }

// Stamp sets the timestamp unless the producer already supplied one.
func (h *header) Stamp(t time.Time) {
	if h.Timestamp.IsZero() {
		h.Timestamp = t
	}
}

func (h *header) StampedAt() time.Time { return h.Timestamp }

func (h *header) isEvent() {}

// SessionInfo is the session bootstrap carried by the welcome event.
type SessionInfo struct {
	Running bool           `json:"running"`
	Config  map[string]any `json:"config,omitempty"`
}

// Connection is the synthetic welcome sent to a client on registration.
type Connection struct {
	header
	Status  string       `json:"status"`
	Message string       `json:"message"`
	Session *SessionInfo `json:"session,omitempty"`
}

func NewConnection(status, message string, session *SessionInfo) *Connection {
	return &Connection{header: newHeader(TypeConnection), Status: status, Message: message, Session: session}
}

// MeetingUpdate is the full analysis snapshot for one utterance.
type MeetingUpdate struct {
	header
	EmotionalState string         `json:"emotional_state"`
	SocialCue      string         `json:"social_cue"`
	Confidence     float64        `json:"confidence"`
	WPM            float64        `json:"wpm"`
	Text           string         `json:"text"`
	Alert          bool           `json:"alert"`
	Coaching       string         `json:"coaching"`
	FillerCounts   map[string]int `json:"filler_counts"`
	SpeechPattern  string         `json:"speech_pattern,omitempty"`
}

func NewMeetingUpdate() *MeetingUpdate {
	return &MeetingUpdate{header: newHeader(TypeMeetingUpdate)}
}

// Transcription announces a newly recognized utterance.
type Transcription struct {
	header
	Text         string         `json:"text"`
	WPM          float64        `json:"wpm"`
	WordCount    int            `json:"word_count"`
	FillerCounts map[string]int `json:"filler_counts"`
}

func NewTranscription(text string, wpm float64, wordCount int, fillerCounts map[string]int) *Transcription {
	return &Transcription{
		header:       newHeader(TypeTranscription),
		Text:         text,
		WPM:          wpm,
		WordCount:    wordCount,
		FillerCounts: fillerCounts,
	}
}

// EmotionUpdate is a narrow state-change notice.
type EmotionUpdate struct {
	header
	EmotionalState string  `json:"emotional_state"`
	Confidence     float64 `json:"confidence"`
}

func NewEmotionUpdate(state string, confidence float64) *EmotionUpdate {
	return &EmotionUpdate{header: newHeader(TypeEmotionUpdate), EmotionalState: state, Confidence: confidence}
}

// Alert severity levels.
const (
	SeverityInfo    = "info"
	SeverityWarning = "warning"
)

// Alert categories.
const (
	CategoryPace      = "pace"
	CategoryEmotional = "emotional"
	CategorySocial    = "social"
)

// Alert is an actionable notice.
type Alert struct {
	header
	Message        string `json:"message"`
	Severity       string `json:"severity"`
	Category       string `json:"category"`
	EmotionalState string `json:"emotional_state,omitempty"`
	SocialCue      string `json:"social_cue,omitempty"`
}

func NewAlert(message, severity, category string) *Alert {
	return &Alert{header: newHeader(TypeAlert), Message: message, Severity: severity, Category: category}
}

// Session status values.
const (
	SessionStarted = "started"
	SessionStopped = "stopped"
)

// SessionStatus announces a session lifecycle transition.
type SessionStatus struct {
	header
	Status          string            `json:"status"`
	Message         string            `json:"message"`
	Config          map[string]any    `json:"config,omitempty"`
	Summary         *timeline.Summary `json:"summary,omitempty"`
	DurationSeconds float64           `json:"duration_seconds,omitempty"`
}

func NewSessionStatus(status, message string) *SessionStatus {
	return &SessionStatus{header: newHeader(TypeSessionStatus), Status: status, Message: message}
}

// RecordingStatus reports the producer's microphone listening state.
type RecordingStatus struct {
	header
	IsListening bool `json:"is_listening"`
}

func NewRecordingStatus(listening bool) *RecordingStatus {
	return &RecordingStatus{header: newHeader(TypeRecordingStatus), IsListening: listening}
}

// TimelineUpdate is a periodic rollup of the session timeline.
type TimelineUpdate struct {
	header
	Summary       timeline.Summary `json:"summary"`
	RecentEntries []timeline.Entry `json:"recent_entries"`
}

func NewTimelineUpdate(summary timeline.Summary, recent []timeline.Entry) *TimelineUpdate {
	return &TimelineUpdate{header: newHeader(TypeTimelineUpdate), Summary: summary, RecentEntries: recent}
}

// Pong answers a client ping.
type Pong struct {
	header
}

func NewPong(t time.Time) *Pong {
	p := &Pong{header: newHeader(TypePong)}
	p.Timestamp = t
	return p
}

// Error reports malformed input or an unknown command back to one client.
type Error struct {
	header
	Message string `json:"message"`
}

func NewError(message string) *Error {
	return &Error{header: newHeader(TypeError), Message: message}
}

// Encode serializes an event to its wire form. The hub calls this once per
// broadcast; the bytes are shared across all clients.
func Encode(ev Event) ([]byte, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("encode %s event: %w", ev.EventType(), err)
	}
	return data, nil
}

// UnknownTypeError reports an event type this build does not know about.
// Clients treat it as ignorable for forward compatibility.
type UnknownTypeError struct {
	Type Type
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("unknown event type %q", string(e.Type))
}

// Decode parses a wire frame into its event variant. An unrecognized type
// yields *UnknownTypeError; malformed JSON yields a wrapped syntax error.
func Decode(data []byte) (Event, error) {
	var probe struct {
		Type Type `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}

	var ev Event
	switch probe.Type {
	case TypeConnection:
		ev = &Connection{}
	case TypeMeetingUpdate:
		ev = &MeetingUpdate{}
	case TypeTranscription:
		ev = &Transcription{}
	case TypeEmotionUpdate:
		ev = &EmotionUpdate{}
	case TypeAlert:
		ev = &Alert{}
	case TypeSessionStatus:
		ev = &SessionStatus{}
	case TypeRecordingStatus:
		ev = &RecordingStatus{}
	case TypeTimelineUpdate:
		ev = &TimelineUpdate{}
	case TypePong:
		ev = &Pong{}
	case TypeError:
		ev = &Error{}
	default:
		return nil, &UnknownTypeError{Type: probe.Type}
	}

	if err := json.Unmarshal(data, ev); err != nil {
		return nil, fmt.Errorf("decode %s event: %w", probe.Type, err)
	}
	return ev, nil
}
