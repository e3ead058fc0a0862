package chathub

import (
	"log"
	"strings"

	"chatwave/backend/internal/models"
	"chatwave/backend/internal/storage"
)

// Inbound is a frame read from one live session, routed through the
// Manager's run loop.
type Inbound struct {
	Client Client
	Frame  models.ClientFrame
}

type outbound struct {
	channels []string
	event    models.RealtimeEvent
}

type registration struct {
	client Client
	done   chan struct{}
}

// Manager is the realtime session registry. It owns the session and
// channel maps and mutates them only inside Run, so no locking is
// needed; everything arrives over channels. Delivery to any single
// session is in order relative to other events dispatched through the
// same Manager.
type Manager struct {
	UnregisterCh chan Client
	FrameCh      chan Inbound

	registerCh chan registration

	broadcastCh chan outbound

	// sessions: session id -> client. channels: channel name -> set of
	// session ids. subscriptions: session id -> set of channel names.
	sessions      map[string]Client
	channels      map[string]map[string]struct{}
	subscriptions map[string]map[string]struct{}

	origin  string
	Storage *storage.Service
}

// NewManager builds the registry. origin identifies this instance on
// the redis bus; storage may be nil when no bus is wanted.
func NewManager(origin string, s *storage.Service) *Manager {
	return &Manager{
		UnregisterCh:  make(chan Client, 16),
		registerCh:    make(chan registration, 16),
		FrameCh:       make(chan Inbound, 256),
		broadcastCh:   make(chan outbound, 256),
		sessions:      make(map[string]Client),
		channels:      make(map[string]map[string]struct{}),
		subscriptions: make(map[string]map[string]struct{}),
		origin:        origin,
		Storage:       s,
	}
}

// Register admits a session and returns once the run loop has
// processed it. Callers must start the session's pumps only after
// Register returns, so no frame or disconnect for the session can
// reach the loop ahead of its registration.
func (m *Manager) Register(c Client) {
	done := make(chan struct{})
	m.registerCh <- registration{client: c, done: done}
	<-done
}

// Broadcast queues an event for every session subscribed to any of the
// channels. Implements fanout.Broadcaster.
func (m *Manager) Broadcast(channels []string, event string, payload any) {
	m.broadcastCh <- outbound{
		channels: channels,
		event:    models.RealtimeEvent{Event: event, Payload: payload},
	}
}

// Run is the registry's main dispatch loop.
func (m *Manager) Run() {
	if m.Storage != nil && m.Storage.Redis != nil {
		m.startBusListener()
	}

	for {
		select {
		case r := <-m.registerCh:
			m.register(r.client)
			close(r.done)
		case c := <-m.UnregisterCh:
			m.unregister(c)
		case in := <-m.FrameCh:
			m.handleFrame(in)
		case out := <-m.broadcastCh:
			m.deliver(out.channels, out.event)
		}
	}
}

// register admits a session. A declared identity joins the session to
// its personal channel immediately.
func (m *Manager) register(c Client) {
	m.sessions[c.GetSessionID()] = c
	m.subscriptions[c.GetSessionID()] = make(map[string]struct{})
	if userID := c.GetUserID(); userID != "" {
		m.join(c, "user:"+userID)
	}
	log.Printf("Session %s connected (user %q)", c.GetSessionID(), c.GetUserID())
}

// unregister drops a session from every channel. No durable state is
// retained; a reconnecting client re-declares identity and rejoins.
func (m *Manager) unregister(c Client) {
	sid := c.GetSessionID()
	if _, ok := m.sessions[sid]; !ok {
		return
	}
	for channel := range m.subscriptions[sid] {
		m.leave(c, channel)
	}
	delete(m.subscriptions, sid)
	delete(m.sessions, sid)
	c.Close()
	log.Printf("Session %s disconnected", sid)
}

func (m *Manager) join(c Client, channel string) {
	sid := c.GetSessionID()
	set, ok := m.channels[channel]
	if !ok {
		set = make(map[string]struct{})
		m.channels[channel] = set
	}
	set[sid] = struct{}{}
	m.subscriptions[sid][channel] = struct{}{}
}

func (m *Manager) leave(c Client, channel string) {
	sid := c.GetSessionID()
	if set, ok := m.channels[channel]; ok {
		delete(set, sid)
		if len(set) == 0 {
			delete(m.channels, channel)
		}
	}
	delete(m.subscriptions[sid], channel)
}

// deliver fans an event out to the union of sessions across the
// channel set, at most once per session. A session that cannot keep up
// is disconnected rather than allowed to stall the loop.
func (m *Manager) deliver(channels []string, event models.RealtimeEvent) {
	seen := make(map[string]struct{})
	for _, channel := range channels {
		for sid := range m.channels[channel] {
			if _, dup := seen[sid]; dup {
				continue
			}
			seen[sid] = struct{}{}

			c := m.sessions[sid]
			select {
			case c.GetSendChannel() <- event:
			default:
				log.Printf("Session %s send buffer full, dropping connection", sid)
				m.unregister(c)
			}
		}
	}
}

// handleFrame routes one inbound frame. Frames from sessions the
// registry does not know, unknown frames, and malformed ones are all
// dropped silently per the best-effort contract.
func (m *Manager) handleFrame(in Inbound) {
	if _, ok := m.sessions[in.Client.GetSessionID()]; !ok {
		return
	}
	switch in.Frame.Event {
	case models.FrameConversationJoin:
		m.handleConversationJoin(in)
	case models.FrameConversationLeave:
		m.handleConversationLeave(in)
	case models.EventCallOffer, models.EventCallAnswer, models.EventCallCandidate, models.EventCallEnd:
		m.handleSignal(in)
	}
}

// conversationChannels expands a joined conversation identifier. A
// "room:"-prefixed id additionally subscribes the room-scoped
// conversation channel; the raw id already names the room channel.
func conversationChannels(conversationID string) []string {
	channels := []string{conversationID}
	if roomID, ok := strings.CutPrefix(conversationID, "room:"); ok && roomID != "" {
		channels = append(channels, "conversation:"+roomID)
	}
	return channels
}

func (m *Manager) handleConversationJoin(in Inbound) {
	var req struct {
		ConversationID string `json:"conversationId"`
	}
	if err := unmarshalFrame(in.Frame.Payload, &req); err != nil || req.ConversationID == "" {
		return
	}
	for _, channel := range conversationChannels(req.ConversationID) {
		m.join(in.Client, channel)
	}
}

func (m *Manager) handleConversationLeave(in Inbound) {
	var req struct {
		ConversationID string `json:"conversationId"`
	}
	if err := unmarshalFrame(in.Frame.Payload, &req); err != nil || req.ConversationID == "" {
		return
	}
	for _, channel := range conversationChannels(req.ConversationID) {
		m.leave(in.Client, channel)
	}
}
