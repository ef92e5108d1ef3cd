// Package metrics defines Prometheus metrics for the broadcast hub, queue,
// and WebSocket transport. All metrics register via promauto at init.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Hub metrics
var (
	// HubConnectedClients tracks currently registered client connections
	HubConnectedClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hub_connected_clients",
			Help: "Currently registered client connections",
		},
	)

	// HubEventsBroadcastTotal tracks broadcast events by event type
	HubEventsBroadcastTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hub_events_broadcast_total",
			Help: "Events fanned out to clients by event type",
		},
		[]string{"type"},
	)

	// HubSlowClientsEvicted tracks clients evicted for not keeping up
	HubSlowClientsEvicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hub_slow_clients_evicted_total",
			Help: "Clients evicted because their send buffer was full",
		},
	)

	// HubCommandChannelDepth tracks the hub actor's command backlog
	HubCommandChannelDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hub_command_channel_depth",
			Help: "Pending commands in the hub actor channel",
		},
	)

	// HubStopTimeoutsTotal tracks shutdowns that exceeded the grace budget
	HubStopTimeoutsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hub_stop_timeouts_total",
			Help: "Hub shutdowns that exceeded the stop timeout",
		},
	)
)

// Queue metrics
var (
	// QueueDepth tracks events waiting in the broadcast queue
	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "broadcast_queue_depth",
			Help: "Events waiting in the broadcast queue",
		},
	)

	// QueueDroppedTotal tracks events dropped by the oldest-drop overflow policy
	QueueDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "broadcast_queue_dropped_total",
			Help: "Events dropped because the queue was full (oldest-drop)",
		},
	)

	// QueueEnqueuedTotal tracks events accepted from producers
	QueueEnqueuedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "broadcast_queue_enqueued_total",
			Help: "Events enqueued by producers",
		},
	)
)

// Transport metrics
var (
	// WebSocketMessageSendDuration tracks per-client frame write latency
	WebSocketMessageSendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "websocket_message_send_duration_seconds",
			Help:    "WebSocket frame write duration in seconds",
			Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)

	// WebSocketPingFailures tracks failed keepalive pings
	WebSocketPingFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_ping_failures_total",
			Help: "Keepalive pings that failed to write",
		},
	)

	// CommandsTotal tracks inbound client commands by type and outcome
	CommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "commands_total",
			Help: "Inbound client commands by type and status",
		},
		[]string{"type", "status"},
	)

	// ConnectionsRejectedTotal tracks connections refused by the limiters
	ConnectionsRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "connections_rejected_total",
			Help: "Connections rejected by limiter, by reason",
		},
		[]string{"reason"},
	)
)
