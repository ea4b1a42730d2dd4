// Package mqtt mirrors lift state changes to an MQTT broker, with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"log"
	"time"

	"github.com/sweeney/lift-controller/internal/logic"
	"github.com/sweeney/lift-controller/internal/status"
)

// Topic is the MQTT topic for command events.
const Topic = "home/lift/controller/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "home/lift/controller/system"

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a command event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event logic.CommandEvent) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "OFFLINE"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Lift LiftPayload `json:"lift"`
}

// LiftPayload contains the command event details.
type LiftPayload struct {
	Timestamp string            `json:"timestamp"`
	Command   string            `json:"command"`
	Relay     status.RelayJSON  `json:"relay"`
	Limit     status.LimitJSON  `json:"limit"`
	Counts    status.CountsJSON `json:"command_counts"`
}

// FormatPayload creates the JSON payload for a command event.
func FormatPayload(event logic.CommandEvent) ([]byte, error) {
	lift := status.FormatLift(event.State)
	payload := Payload{
		Lift: LiftPayload{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Command:   string(event.Command),
			Relay:     lift.Relay,
			Limit:     lift.Limit,
			Counts: status.CountsJSON{
				Up:      event.Counts.Up,
				Stop:    event.Counts.Stop,
				Down:    event.Counts.Down,
				Unknown: event.Counts.Unknown,
			},
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp,omitempty"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	inner := SystemPayloadInner{
		Event:  event.Event,
		Reason: event.Reason,
	}
	if !event.Timestamp.IsZero() {
		inner.Timestamp = event.Timestamp.UTC().Format(time.RFC3339)
	}
	return json.Marshal(SystemPayload{System: inner})
}

// Observer mirrors recognized commands to a Publisher. It satisfies
// controller.Observer; publish errors are logged and dropped.
type Observer struct {
	Publisher Publisher
}

// CommandApplied publishes ev.
func (o Observer) CommandApplied(ev logic.CommandEvent) {
	if err := o.Publisher.Publish(ev); err != nil {
		log.Printf("mqtt: publish error: %v", err)
	}
}
