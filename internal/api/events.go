package api

import (
	"encoding/json"

	"github.com/sensorgrid/sensorgrid/internal/infrastructure/mqtt"
)

// EventPublisher publishes service events onto the message bus.
// Satisfied by *mqtt.Client; a nil publisher disables bus events.
type EventPublisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// eventQoS is the delivery guarantee for bus events. At-least-once: admin
// consumers deduplicate on device ID and receivedAt.
const eventQoS byte = 1

// publishEvent mirrors a WebSocket event onto sensorgrid/event/{type}.
//
// Bus events are best-effort: a failed publish is logged and dropped so the
// HTTP request that triggered it still succeeds.
func (s *Server) publishEvent(eventType string, payload any) {
	if s.events == nil {
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("failed to marshal bus event", "event_type", eventType, "error", err)
		return
	}

	topic := mqtt.Topics{}.Event(eventType)
	if err := s.events.Publish(topic, data, eventQoS, false); err != nil {
		s.logger.Warn("bus event publish failed", "topic", topic, "error", err)
	}
}
