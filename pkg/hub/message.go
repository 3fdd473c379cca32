// Package hub provides a thread-safe websocket broadcast hub
// using the idiomatic Go channel-based fan-out pattern.
package hub

import "time"

// EventType identifies a status event.
type EventType string

const (
	// EventStatus is sent once to each client right after it connects.
	EventStatus EventType = "status"
	// EventProgress is broadcast when the store reports progress.
	EventProgress EventType = "progress"
)

// Event is the JSON document pushed to status clients.
type Event struct {
	Type       EventType `json:"type"`
	Count      uint64    `json:"count"`
	Timestamp  int64     `json:"timestamp,omitempty"` // client epoch millis
	ReceivedAt time.Time `json:"received_at,omitzero"`
}

// Message is a pre-encoded text frame queued for delivery.
type Message []byte
