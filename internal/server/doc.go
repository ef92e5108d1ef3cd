// Package server implements the connection acceptor using the Echo framework.
//
// Routes: /ws (WebSocket upgrade + per-connection command loop), health and
// observability endpoints (/health/live, /health/ready, /metrics, /version).
// Inbound frames parse as commands and are answered directly through the hub;
// protocol errors get an error reply and the connection stays open.
package server
