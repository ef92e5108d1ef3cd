// Package client is the SDK for consuming the meeting coach event stream.
//
// A Client connects with a bounded number of fixed-delay retries, then
// listens and dispatches each inbound event by type to a Dashboard consumer.
// Unknown event types are logged and ignored so newer servers never crash
// older clients.
package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/bobthearsonist/meeting-coach/internal/event"
	"github.com/bobthearsonist/meeting-coach/internal/retry"
)

// State is the client's connection lifecycle state.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateListening
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateListening:
		return "listening"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Dashboard receives dispatched events, one method per concern. Methods are
// invoked synchronously from the listen loop and must not block.
type Dashboard interface {
	Connected(welcome *event.Connection)
	UpdateStatus(update *event.MeetingUpdate)
	AddTranscription(t *event.Transcription)
	UpdateEmotion(e *event.EmotionUpdate)
	ShowAlert(a *event.Alert)
	SessionChanged(s *event.SessionStatus)
	SetListening(listening bool)
	UpdateTimeline(u *event.TimelineUpdate)
}

const (
	defaultMaxRetries  = 5
	defaultRetryDelay  = 1 * time.Second
	defaultDialTimeout = 5 * time.Second
	writeTimeout       = 10 * time.Second
)

// Options tunes connection behavior. Zero values pick the defaults.
type Options struct {
	MaxRetries  int
	RetryDelay  time.Duration
	DialTimeout time.Duration
	Clock       clockwork.Clock
}

// Client connects to a coach server and feeds a Dashboard.
type Client struct {
	url       string
	dashboard Dashboard
	opts      Options
	clock     clockwork.Clock
	state     atomic.Int32

	mu      sync.Mutex
	writeMu sync.Mutex // serialises all conn writes (commands, close frame)
	conn    *websocket.Conn
}

// New creates a client for the given ws:// URL.
func New(url string, dashboard Dashboard, opts Options) *Client {
	if opts.MaxRetries < 1 {
		opts.MaxRetries = defaultMaxRetries
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = defaultRetryDelay
	}
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = defaultDialTimeout
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	return &Client{
		url:       url,
		dashboard: dashboard,
		opts:      opts,
		clock:     opts.Clock,
	}
}

// State returns the current lifecycle state.
func (c *Client) State() State {
	return State(c.state.Load())
}

// Connect dials the server with up to MaxRetries attempts and a fixed delay
// between them. It never retries unboundedly. On failure the client is back
// in the disconnected state and may be connected again later.
func (c *Client) Connect(ctx context.Context) error {
	c.state.Store(int32(StateConnecting))

	dialer := websocket.Dialer{HandshakeTimeout: c.opts.DialTimeout}
	policy := retry.Policy{
		MaxAttempts: c.opts.MaxRetries,
		Delay:       c.opts.RetryDelay,
		Clock:       c.clock,
		OnRetry: func(attempt int, err error) {
			slog.Info("Waiting for server", "attempt", attempt, "max_attempts", c.opts.MaxRetries, "error", err)
		},
	}

	conn, err := retry.Do(ctx, policy, func() (*websocket.Conn, error) {
		conn, _, err := dialer.DialContext(ctx, c.url, nil)
		if err != nil {
			return nil, fmt.Errorf("dial %s: %w", c.url, err)
		}
		return conn, nil
	})
	if err != nil {
		c.state.Store(int32(StateDisconnected))
		return fmt.Errorf("connect: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	c.state.Store(int32(StateConnected))
	slog.Info("Connected", "url", c.url)
	return nil
}

// Listen reads and dispatches events until the connection closes or ctx is
// cancelled. It returns nil on a clean close, the read error otherwise; the
// client ends up disconnected either way.
func (c *Client) Listen(ctx context.Context) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return errors.New("not connected")
	}

	c.state.Store(int32(StateListening))
	defer c.state.Store(int32(StateDisconnected))

	// Unblock the read loop when ctx is cancelled.
	stop := context.AfterFunc(ctx, func() {
		_ = conn.Close()
	})
	defer stop()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			if c.conn == conn {
				c.conn = nil
			}
			c.mu.Unlock()
			_ = conn.Close()

			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Info("Connection closed", "url", c.url)
				return nil
			}
			return fmt.Errorf("listen: %w", err)
		}
		c.handleMessage(data)
	}
}

// handleMessage decodes one frame and dispatches it. It is total over the
// known type enumeration; anything else is logged and ignored.
func (c *Client) handleMessage(data []byte) {
	ev, err := event.Decode(data)
	if err != nil {
		var unknown *event.UnknownTypeError
		if errors.As(err, &unknown) {
			slog.Warn("Ignoring unknown event type", "type", string(unknown.Type))
		} else {
			slog.Warn("Ignoring undecodable frame", "error", err)
		}
		return
	}

	switch ev := ev.(type) {
	case *event.Connection:
		c.dashboard.Connected(ev)
	case *event.MeetingUpdate:
		c.dashboard.UpdateStatus(ev)
	case *event.Transcription:
		c.dashboard.AddTranscription(ev)
	case *event.EmotionUpdate:
		c.dashboard.UpdateEmotion(ev)
	case *event.Alert:
		c.dashboard.ShowAlert(ev)
	case *event.SessionStatus:
		c.dashboard.SessionChanged(ev)
	case *event.RecordingStatus:
		c.dashboard.SetListening(ev.IsListening)
	case *event.TimelineUpdate:
		c.dashboard.UpdateTimeline(ev)
	case *event.Pong:
		slog.Debug("Pong received", "timestamp", ev.StampedAt())
	case *event.Error:
		slog.Warn("Server error", "message", ev.Message)
	}
}

// Ping sends a ping command; the reply arrives as a pong event.
func (c *Client) Ping() error {
	return c.sendCommand(event.NewPing())
}

// StartSession asks the server to acknowledge a session start.
func (c *Client) StartSession(config map[string]any) error {
	return c.sendCommand(event.NewStartSession(config))
}

// StopSession asks the server to acknowledge a session stop.
func (c *Client) StopSession() error {
	return c.sendCommand(event.NewStopSession())
}

func (c *Client) sendCommand(cmd event.Command) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return errors.New("not connected")
	}

	data, err := event.EncodeCommand(cmd)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = conn.SetWriteDeadline(c.clock.Now().Add(writeTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("send %s command: %w", cmd.CommandType(), err)
	}
	return nil
}

// Close sends a close frame and tears down the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()
	c.state.Store(int32(StateDisconnected))

	if conn == nil {
		return nil
	}

	c.writeMu.Lock()
	_ = conn.SetWriteDeadline(c.clock.Now().Add(writeTimeout))
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.writeMu.Unlock()

	return conn.Close()
}
