package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/bobthearsonist/meeting-coach/internal/event"
	"github.com/bobthearsonist/meeting-coach/internal/logging"
	"github.com/bobthearsonist/meeting-coach/internal/metrics"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Dashboard clients connect from anywhere
	},
}

func (s *Server) handleWebSocket(c echo.Context) error {
	ip := c.RealIP()

	if !s.rateLimit.Allow(ip) {
		metrics.ConnectionsRejectedTotal.WithLabelValues("rate").Inc()
		return c.String(http.StatusTooManyRequests, "Connection rate limit exceeded")
	}
	if !s.globalLimit.Acquire() {
		metrics.ConnectionsRejectedTotal.WithLabelValues("global").Inc()
		return c.String(http.StatusServiceUnavailable, "Server at capacity")
	}
	if !s.ipLimit.Acquire(ip) {
		s.globalLimit.Release()
		metrics.ConnectionsRejectedTotal.WithLabelValues("per_ip").Inc()
		return c.String(http.StatusTooManyRequests, "Too many connections from this address")
	}
	defer func() {
		s.ipLimit.Release(ip)
		s.globalLimit.Release()
	}()

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return fmt.Errorf("failed to upgrade WebSocket: %w", err)
	}

	ctx := logging.WithCorrelationID(c.Request().Context(), logging.NewCorrelationID())

	if err := s.hub.Register(conn, ip); err != nil {
		slog.InfoContext(ctx, "Registration rejected", "error", err, "remote_addr", ip)
		return nil
	}

	// Read pump: blocks until the remote closes or the read deadline fires.
	s.readPump(ctx, conn)

	s.hub.Unregister(conn)
	return nil
}

func (s *Server) readPump(ctx context.Context, conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			slog.DebugContext(ctx, "Client read ended", "error", err)
			return
		}
		s.dispatchCommand(ctx, conn, data)
	}
}

// dispatchCommand parses one inbound frame and answers it directly through
// the hub. Protocol errors reply with an error event and leave the
// connection open; session commands never trigger a broadcast, the producer
// stays the only source of session transitions.
func (s *Server) dispatchCommand(ctx context.Context, conn *websocket.Conn, data []byte) {
	cmd, err := event.ParseCommand(data)
	if err != nil {
		var unknown *event.UnknownCommandError
		if errors.As(err, &unknown) {
			// The type string is client-supplied, so it stays out of the
			// label set and goes to the log line instead.
			metrics.CommandsTotal.WithLabelValues("unknown", "rejected").Inc()
			s.hub.Send(conn, event.NewError(unknown.Error()))
		} else {
			metrics.CommandsTotal.WithLabelValues("malformed", "rejected").Inc()
			s.hub.Send(conn, event.NewError("Invalid JSON"))
		}
		slog.InfoContext(ctx, "Rejected client frame", "error", err)
		return
	}

	switch cmd := cmd.(type) {
	case *event.Ping:
		s.hub.Send(conn, event.NewPong(s.clock.Now()))
	case *event.StartSession:
		reply := event.NewSessionStatus(event.SessionStarted, "Session started")
		reply.Config = cmd.Config
		s.hub.Send(conn, reply)
	case *event.StopSession:
		s.hub.Send(conn, event.NewSessionStatus(event.SessionStopped, "Session stopped"))
	}
	metrics.CommandsTotal.WithLabelValues(string(cmd.CommandType()), "ok").Inc()
}
