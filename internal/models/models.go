package models

import "time"

// Ping outcome labels as reported by the status API.
const (
	PingUnknown = "unknown"
	PingOK      = "ok"
	PingFailed  = "failed"
)

// ConnectivityState is a read-only snapshot of the connectivity monitor.
type ConnectivityState struct {
	Online     bool       `json:"online"`
	LastPing   string     `json:"last_ping"`
	LastPingAt *time.Time `json:"last_ping_at,omitempty"`
}

// PingOutcome captures the result of a single health-check attempt.
type PingOutcome struct {
	OK         bool      `json:"ok"`
	StatusCode *int      `json:"status_code,omitempty"`
	LatencyMS  *float64  `json:"latency_ms,omitempty"`
	Error      *string   `json:"error,omitempty"`
	CheckedAt  time.Time `json:"checked_at"`
}
