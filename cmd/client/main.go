// Command client is a console dashboard for a running coach server. It
// connects over WebSocket, prints every event it receives, and optionally
// drives the session with start/stop commands.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/bobthearsonist/meeting-coach/internal/client"
	"github.com/bobthearsonist/meeting-coach/internal/event"
	"github.com/bobthearsonist/meeting-coach/internal/logging"
	"github.com/bobthearsonist/meeting-coach/internal/timeline"
)

// consoleDashboard renders events as plain text lines. It keeps its own
// timeline mirror fed from the stream so the session summary survives even
// if the final session_status is missed.
type consoleDashboard struct {
	tl *timeline.Timeline
}

func newConsoleDashboard() *consoleDashboard {
	return &consoleDashboard{
		tl: timeline.New(timeline.DefaultWindow, timeline.DefaultMaxEntries, clockwork.NewRealClock()),
	}
}

func (d *consoleDashboard) Connected(welcome *event.Connection) {
	fmt.Printf("== %s\n", welcome.Message)
	if welcome.Session != nil && welcome.Session.Running {
		fmt.Println("== A session is already running")
	}
}

func (d *consoleDashboard) UpdateStatus(update *event.MeetingUpdate) {
	d.tl.Add(timeline.Entry{
		EmotionalState: update.EmotionalState,
		SocialCue:      update.SocialCue,
		Confidence:     update.Confidence,
		Text:           update.Text,
		Alert:          update.Alert,
		Timestamp:      update.StampedAt(),
	})

	marker := " "
	if update.Alert {
		marker = "!"
	}
	fmt.Printf("[%s] %-10s %-12s conf=%.2f wpm=%.0f\n",
		marker, update.EmotionalState, update.SocialCue, update.Confidence, update.WPM)
	if update.Coaching != "" {
		fmt.Printf("    coaching: %s\n", update.Coaching)
	}
}

func (d *consoleDashboard) AddTranscription(t *event.Transcription) {
	fmt.Printf("    %q (%d words, %.0f wpm)\n", t.Text, t.WordCount, t.WPM)
	if len(t.FillerCounts) > 0 {
		parts := make([]string, 0, len(t.FillerCounts))
		for word, n := range t.FillerCounts {
			parts = append(parts, fmt.Sprintf("%s x%d", word, n))
		}
		fmt.Printf("    fillers: %s\n", strings.Join(parts, ", "))
	}
}

func (d *consoleDashboard) UpdateEmotion(e *event.EmotionUpdate) {
	fmt.Printf("    emotion: %s (%.2f)\n", e.EmotionalState, e.Confidence)
}

func (d *consoleDashboard) ShowAlert(a *event.Alert) {
	fmt.Printf(">>> [%s/%s] %s\n", a.Severity, a.Category, a.Message)
}

func (d *consoleDashboard) SessionChanged(s *event.SessionStatus) {
	fmt.Printf("== Session %s: %s\n", s.Status, s.Message)
	summary := s.Summary
	if summary == nil {
		local := d.tl.Summary()
		summary = &local
	}
	if summary.TotalEntries > 0 {
		fmt.Printf("== Summary: %.1f min, %d entries, dominant=%s, alerts=%d, avg_conf=%.2f\n",
			summary.DurationMinutes, summary.TotalEntries, summary.DominantState,
			summary.AlertCount, summary.AverageConfidence)
	}
}

func (d *consoleDashboard) SetListening(listening bool) {
	if listening {
		fmt.Println("== Recording started")
	} else {
		fmt.Println("== Recording stopped")
	}
}

func (d *consoleDashboard) UpdateTimeline(u *event.TimelineUpdate) {
	d.tl.Load(u.RecentEntries)
	fmt.Printf("-- timeline: %d entries, dominant=%s\n",
		u.Summary.TotalEntries, u.Summary.DominantState)
	for _, entry := range u.RecentEntries {
		fmt.Printf("   %s %s/%s (%.2f)\n",
			entry.Timestamp.Format("15:04:05"), entry.EmotionalState, entry.SocialCue, entry.Confidence)
	}
}

func main() {
	url := flag.String("url", "ws://localhost:3001/ws", "server WebSocket URL")
	startSession := flag.Bool("start", false, "send start_session after connecting")
	duration := flag.Duration("duration", 0, "disconnect after this long (0 = until interrupted)")
	logLevel := flag.String("log-level", "warn", "log level (debug, info, warn, error)")
	flag.Parse()

	logging.InitLogger(*logLevel, "text")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if *duration > 0 {
		ctx, cancel = context.WithTimeout(ctx, *duration)
		defer cancel()
	}

	dashboard := newConsoleDashboard()
	c := client.New(*url, dashboard, client.Options{Clock: clockwork.NewRealClock()})

	if err := c.Connect(ctx); err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer func() { _ = c.Close() }()

	if err := c.Ping(); err != nil {
		slog.Warn("Ping failed", "error", err)
	}
	if *startSession {
		if err := c.StartSession(map[string]any{"source": "console", "started_at": time.Now().Format(time.RFC3339)}); err != nil {
			slog.Warn("Failed to start session", "error", err)
		}
		defer func() {
			if err := c.StopSession(); err != nil {
				slog.Warn("Failed to stop session", "error", err)
			}
		}()
	}

	if err := c.Listen(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("Connection lost: %v", err)
	}
}
