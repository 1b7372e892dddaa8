// Package telemetry defines auth-flow telemetry events and the emitter
// abstraction backing them (OTel logs or Kafka).
package telemetry

import (
	"context"
	"time"
)

// Auth event types emitted by the HTTP handlers.
const (
	EventCoinbaseLogin = "coinbase_login"
	EventUserCreated   = "user_created"
	EventTokenIssued   = "cdp_jwt_issued"
)

// AuthEvent is a telemetry event for an auth flow. Best-effort; callers log
// and ignore emit errors.
type AuthEvent struct {
	EventType string    `json:"event_type"`
	UserID    string    `json:"user_id,omitempty"`
	Email     string    `json:"email,omitempty"`
	Source    string    `json:"source,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// EventEmitter emits telemetry events (e.g. to OTel Logs or Kafka).
type EventEmitter interface {
	Emit(ctx context.Context, event *AuthEvent) error
}
