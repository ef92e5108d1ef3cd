package broadcast

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/bobthearsonist/meeting-coach/internal/event"
	"github.com/bobthearsonist/meeting-coach/internal/metrics"
)

const (
	commandTimeout    = 5 * time.Second
	stopTimeout       = 10 * time.Second
	defaultMaxClients = 50
	welcomeMessage    = "Connected to Meeting Coach WebSocket Server"
)

// --- Command types ---

type hubCmd interface{ isHubCmd() }

type baseHubCmd struct{}

func (baseHubCmd) isHubCmd() {}

type registerCmd struct {
	baseHubCmd
	connection   *websocket.Conn
	remoteAddr   string
	errorChannel chan error
}

type unregisterCmd struct {
	baseHubCmd
	connection *websocket.Conn
}

type sendCmd struct {
	baseHubCmd
	connection *websocket.Conn
	event      event.Event
}

type clientCountCmd struct {
	baseHubCmd
	replyChannel chan int
}

type stopCmd struct {
	baseHubCmd
}

// Options configures a Hub.
type Options struct {
	// MaxClients bounds the registry; further registrations are rejected.
	MaxClients int
	// DrainGrace bounds the best-effort queue drain during shutdown.
	DrainGrace time.Duration
	// Clock defaults to the real clock.
	Clock clockwork.Clock
}

// Hub owns the live client registry and fans queued events out to every
// registered connection. All registry state is mutated by the single run
// goroutine; producers only ever touch the queue.
type Hub struct {
	cmdCh      chan hubCmd
	queue      *Queue
	clock      clockwork.Clock
	clients    map[*websocket.Conn]*clientWriter
	maxClients int
	drainGrace time.Duration
	done       chan struct{}

	// Ephemeral session state observed from producer session_status events,
	// used only to bootstrap the welcome event. Not persisted.
	sessionRunning bool
	sessionConfig  map[string]any
}

// NewHub creates a hub draining the given queue and starts its run loop.
func NewHub(queue *Queue, opts Options) *Hub {
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	maxClients := opts.MaxClients
	if maxClients < 1 {
		maxClients = defaultMaxClients
	}
	drainGrace := opts.DrainGrace
	if drainGrace <= 0 {
		drainGrace = 2 * time.Second
	}

	h := &Hub{
		cmdCh:      make(chan hubCmd, 256),
		queue:      queue,
		clock:      clock,
		clients:    make(map[*websocket.Conn]*clientWriter),
		maxClients: maxClients,
		drainGrace: drainGrace,
		done:       make(chan struct{}),
	}
	go h.run()
	return h
}

// Publish is the producer-facing enqueue entry point. It never blocks beyond
// the queue's negligible bound and is safe to call from any goroutine.
func (h *Hub) Publish(ev event.Event) {
	h.queue.Enqueue(ev)
}

// Register adds a connection to the registry. The hub immediately queues a
// synthetic connection welcome event to that connection only.
func (h *Hub) Register(conn *websocket.Conn, remoteAddr string) error {
	errCh := make(chan error, 1)
	h.cmdCh <- registerCmd{connection: conn, remoteAddr: remoteAddr, errorChannel: errCh}

	timer := h.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case err := <-errCh:
		return err
	case <-timer.Chan():
		return fmt.Errorf("register command timed out after %v", commandTimeout)
	}
}

// Unregister removes a connection. Idempotent; unknown connections are a no-op.
func (h *Hub) Unregister(conn *websocket.Conn) {
	h.cmdCh <- unregisterCmd{connection: conn}
}

// Send delivers one event to a single connection, bypassing the broadcast
// queue. Used for direct command replies (pong, session_status, error).
func (h *Hub) Send(conn *websocket.Conn, ev event.Event) {
	ev.Stamp(h.clock.Now())
	h.cmdCh <- sendCmd{connection: conn, event: ev}
}

// ClientCount returns the number of registered connections, or -1 on timeout.
func (h *Hub) ClientCount() int {
	replyCh := make(chan int, 1)
	h.cmdCh <- clientCountCmd{replyChannel: replyCh}

	timer := h.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case count := <-replyCh:
		return count
	case <-timer.Chan():
		slog.Warn("ClientCount timed out", "timeout", commandTimeout)
		return -1
	}
}

// Stop shuts the hub down: remaining queued events are drained best-effort
// within the grace budget, then all connections are closed explicitly.
// Blocks until the run goroutine exits or the stop timeout is reached.
func (h *Hub) Stop() {
	h.cmdCh <- stopCmd{}

	timeout := h.clock.NewTimer(stopTimeout)
	defer timeout.Stop()

	select {
	case <-h.done:
		slog.Info("Hub stopped gracefully")
	case <-timeout.Chan():
		slog.Warn("Hub stop timeout exceeded, forcing exit", "timeout", stopTimeout)
		metrics.HubStopTimeoutsTotal.Inc()
		close(h.done)
	}
}

func (h *Hub) run() {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Hub panic recovered", "panic", r)
			h.closeAllClients("hub panic")
		}
	}()
	defer close(h.done)

	depthTicker := h.clock.NewTicker(1 * time.Second)
	defer depthTicker.Stop()

	for {
		select {
		case ev := <-h.queue.Events():
			metrics.QueueDepth.Set(float64(h.queue.Len()))
			h.handleBroadcast(ev)
		case cmd := <-h.cmdCh:
			switch c := cmd.(type) {
			case registerCmd:
				h.handleRegister(c)
			case unregisterCmd:
				h.handleUnregister(c.connection)
			case sendCmd:
				h.handleSend(c)
			case clientCountCmd:
				c.replyChannel <- len(h.clients)
			case stopCmd:
				h.handleStop()
				return
			default:
				slog.Warn("Hub received unknown command type", "command_type", fmt.Sprintf("%T", cmd))
			}
		case <-depthTicker.Chan():
			metrics.HubCommandChannelDepth.Set(float64(len(h.cmdCh)))
			metrics.QueueDepth.Set(float64(h.queue.Len()))
		}
	}
}

func (h *Hub) handleRegister(c registerCmd) {
	if len(h.clients) >= h.maxClients {
		slog.Warn("Rejecting client: max clients reached", "max_clients", h.maxClients, "remote_addr", c.remoteAddr)
		c.connection.Close()
		c.errorChannel <- fmt.Errorf("max clients (%d) reached", h.maxClients)
		return
	}

	cw := newClientWriter(c.connection, c.remoteAddr, h.clock)
	h.clients[c.connection] = cw
	metrics.HubConnectedClients.Set(float64(len(h.clients)))

	welcome := event.NewConnection("connected", welcomeMessage, &event.SessionInfo{
		Running: h.sessionRunning,
		Config:  h.sessionConfig,
	})
	welcome.Stamp(h.clock.Now())
	h.deliver(c.connection, cw, welcome)

	slog.Debug("Client registered", "connection_id", cw.id.String(), "remote_addr", c.remoteAddr, "total_clients", len(h.clients))
	c.errorChannel <- nil
}

func (h *Hub) handleUnregister(conn *websocket.Conn) {
	cw, exists := h.clients[conn]
	if !exists {
		return
	}

	cw.stop()
	delete(h.clients, conn)
	metrics.HubConnectedClients.Set(float64(len(h.clients)))

	slog.Debug("Client unregistered", "connection_id", cw.id.String(), "remaining_clients", len(h.clients))
}

func (h *Hub) handleSend(c sendCmd) {
	cw, exists := h.clients[c.connection]
	if !exists {
		return
	}
	h.deliver(c.connection, cw, c.event)
}

func (h *Hub) handleBroadcast(ev event.Event) {
	h.observeSession(ev)

	if len(h.clients) == 0 {
		return
	}

	data, err := event.Encode(ev)
	if err != nil {
		slog.Error("Failed to encode broadcast event", "type", ev.EventType(), "error", err)
		return
	}
	metrics.HubEventsBroadcastTotal.WithLabelValues(string(ev.EventType())).Inc()

	var slow []*websocket.Conn
	for conn, cw := range h.clients {
		if !cw.trySend(data) {
			slow = append(slow, conn)
		}
	}

	for _, conn := range slow {
		slog.Warn("Disconnecting slow client", "connection_id", h.clients[conn].id.String())
		metrics.HubSlowClientsEvicted.Inc()
		h.handleUnregister(conn)
	}
}

// deliver encodes and queues one event for a single connection, evicting it
// on failure. Send errors stay local to that client.
func (h *Hub) deliver(conn *websocket.Conn, cw *clientWriter, ev event.Event) {
	data, err := event.Encode(ev)
	if err != nil {
		slog.Error("Failed to encode event", "type", ev.EventType(), "error", err)
		return
	}
	if !cw.trySend(data) {
		metrics.HubSlowClientsEvicted.Inc()
		h.handleUnregister(conn)
	}
}

// observeSession keeps the hub's ephemeral session state in sync with the
// producer-driven lifecycle events passing through it.
func (h *Hub) observeSession(ev event.Event) {
	ss, ok := ev.(*event.SessionStatus)
	if !ok {
		return
	}
	switch ss.Status {
	case event.SessionStarted:
		h.sessionRunning = true
		h.sessionConfig = ss.Config
	case event.SessionStopped:
		h.sessionRunning = false
		h.sessionConfig = nil
	}
}

func (h *Hub) handleStop() {
	slog.Info("Hub shutting down", "clients", len(h.clients), "pending_events", h.queue.Len())

	// Best-effort drain of events already enqueued, bounded by the grace
	// budget so a wedged client cannot stall shutdown.
	deadline := h.clock.Now().Add(h.drainGrace)
drain:
	for h.clock.Now().Before(deadline) {
		select {
		case ev := <-h.queue.Events():
			h.handleBroadcast(ev)
		default:
			break drain
		}
	}

	h.closeAllClients("Server shutting down")
	slog.Info("Hub shutdown complete")
}

// closeAllClients closes every connection with the given reason. Used during
// graceful shutdown and panic recovery.
func (h *Hub) closeAllClients(reason string) {
	for conn, cw := range h.clients {
		cw.stopGraceful(reason)
		delete(h.clients, conn)
	}
	metrics.HubConnectedClients.Set(0)
}
