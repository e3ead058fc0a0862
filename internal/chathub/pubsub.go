package chathub

import (
	"encoding/json"
	"log"

	"chatwave/backend/internal/models"
	"chatwave/backend/internal/storage"
)

// startBusListener runs a goroutine that receives fan-out envelopes
// published by other server instances and replays them to this
// instance's sessions. Envelopes this instance published itself are
// skipped by origin id.
func (m *Manager) startBusListener() {
	pubsub := m.Storage.SubscribeEvents()

	go func() {
		defer pubsub.Close()

		for msg := range pubsub.Channel() {
			var env storage.EventEnvelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				log.Printf("Error decoding event bus envelope: %v", err)
				continue
			}
			if env.Origin == m.origin {
				continue
			}

			m.broadcastCh <- outbound{
				channels: env.Channels,
				event: models.RealtimeEvent{
					Event:   env.Event,
					Payload: json.RawMessage(env.Payload),
				},
			}
		}
	}()
}
