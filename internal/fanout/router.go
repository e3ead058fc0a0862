package fanout

import (
	"encoding/json"
	"log"

	"chatwave/backend/internal/storage"
)

// Broadcaster is the live transport attachment. The session registry
// implements it; tests attach recorders.
type Broadcaster interface {
	Broadcast(channels []string, event string, payload any)
}

// Bus carries envelopes to other server instances. The storage service
// implements it over redis pub/sub.
type Bus interface {
	PublishEvent(env storage.EventEnvelope) error
}

// Router dispatches domain events to every live session subscribed to
// any of the computed channels. Both the local transport and the
// cross-instance bus are injected; either may be nil, in which case
// that leg is skipped. Dispatch is fire-and-forget: it never blocks on
// client acknowledgment and never retries.
type Router struct {
	origin string
	live   Broadcaster
	bus    Bus
}

// NewRouter builds a router. origin identifies this instance on the
// bus so its own envelopes are skipped on receipt.
func NewRouter(origin string, live Broadcaster, bus Bus) *Router {
	return &Router{origin: origin, live: live, bus: bus}
}

// Emit delivers the event to every channel in the set. A no-op when
// the channel set is empty or no transport is attached. Local sessions
// receive it at most once per call; remote instances receive one
// envelope regardless of channel count.
func (r *Router) Emit(channels []string, event string, payload any) {
	if len(channels) == 0 || event == "" {
		return
	}

	if r.live != nil {
		r.live.Broadcast(channels, event, payload)
	}

	if r.bus == nil {
		return
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		log.Printf("ERROR: Failed to encode %s payload for bus: %v", event, err)
		return
	}
	env := storage.EventEnvelope{
		Origin:   r.origin,
		Channels: channels,
		Event:    event,
		Payload:  raw,
	}
	if err := r.bus.PublishEvent(env); err != nil {
		log.Printf("ERROR: Failed to publish %s to event bus: %v", event, err)
	}
}
