// Package monitor exposes operational visibility for the daemon: Prometheus
// metrics on /metrics and an optional websocket stream of applied servo
// updates on /ws. Both live on their own HTTP port so the control port's
// single-client, fire-and-forget contract stays untouched.
//
// Counters are incremented directly by the server and session code; the
// per-joint gauges and the stream are fed through the events.Publisher
// interface. Observability failures are logged and otherwise ignored.
package monitor
