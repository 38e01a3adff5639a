// Package ws manages WebSocket client connections keyed by URL.
//
// Each connection follows a strict linear lifecycle with no reconnect:
// Connecting -> Open -> Closing -> Closed. A fatal transport error moves
// Connecting or Open directly to Closed, firing error callbacks before the
// close callback, each exactly once. Once Closed, a client is removed from
// the manager; a new connection requires a new Connect call.
//
// Callbacks are registered per event (open, close, error, message), are
// additive only, and are invoked in registration order on the goroutine
// delivering transport events. Callbacks registered after an event already
// fired are never retroactively invoked.
//
// Send is only valid while Open; sending while Connecting, Closing or
// Closed returns a SendError and leaves the connection state unaffected.
package ws
