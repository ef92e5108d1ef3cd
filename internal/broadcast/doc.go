// Package broadcast implements the event fan-out hub using the actor pattern.
//
// Producers hand events to a bounded Queue that bridges their blocking
// goroutines into the hub's single event loop. The Hub owns the client
// registry (single goroutine + command channel, no mutexes) and fans each
// event out through per-connection writer goroutines, evicting clients that
// fail or fall behind.
package broadcast
