// Package telemetry publishes cycle outcomes over MQTT for home-automation
// dashboards. Publishing is best effort and never affects the control loop.
package telemetry

import (
	"encoding/json"
	"time"
)

// TopicCycle is the MQTT topic for cycle outcome events.
const TopicCycle = "enclosure/humidity/cycle"

// CycleEvent is one management cycle outcome to publish.
type CycleEvent struct {
	Timestamp        time.Time
	Outcome          string
	Humidity         float64
	Minimum          float64
	MistedForSeconds float64
}

// Publisher publishes cycle events to a broker.
type Publisher interface {
	// PublishCycle sends a cycle outcome to the broker. An error must not
	// crash the process.
	PublishCycle(event CycleEvent) error

	// Close disconnects from the broker.
	Close() error
}

// Payload is the MQTT message payload structure.
type Payload struct {
	Enclosure EnclosurePayload `json:"enclosure"`
}

// EnclosurePayload contains the cycle outcome details.
type EnclosurePayload struct {
	Timestamp        string  `json:"timestamp"`
	Outcome          string  `json:"outcome"`
	Humidity         float64 `json:"humidity"`
	Minimum          float64 `json:"minimum"`
	MistedForSeconds float64 `json:"misted_for_seconds,omitempty"`
}

// FormatCyclePayload creates the JSON payload for a cycle event.
func FormatCyclePayload(event CycleEvent) ([]byte, error) {
	payload := Payload{
		Enclosure: EnclosurePayload{
			Timestamp:        event.Timestamp.UTC().Format(time.RFC3339),
			Outcome:          event.Outcome,
			Humidity:         event.Humidity,
			Minimum:          event.Minimum,
			MistedForSeconds: event.MistedForSeconds,
		},
	}

	return json.Marshal(payload)
}
