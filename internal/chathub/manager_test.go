package chathub_test

import (
	"encoding/json"
	"testing"
	"time"

	"chatwave/backend/internal/chathub"
	"chatwave/backend/internal/models"

	"github.com/stretchr/testify/assert"
)

func joinFrame(conversationID string) models.ClientFrame {
	payload, _ := json.Marshal(map[string]string{"conversationId": conversationID})
	return models.ClientFrame{Event: models.FrameConversationJoin, Payload: payload}
}

func leaveFrame(conversationID string) models.ClientFrame {
	payload, _ := json.Marshal(map[string]string{"conversationId": conversationID})
	return models.ClientFrame{Event: models.FrameConversationLeave, Payload: payload}
}

func TestManager_RegisterJoinsPersonalChannel(t *testing.T) {
	hub := chathub.NewManager("test-origin", nil)
	go hub.Run()

	clientA := newMockClient("sess_A", "user_A")
	hub.Register(clientA)

	hub.Broadcast([]string{"user:user_A"}, "message:new", "hi")
	time.Sleep(100 * time.Millisecond)

	events := clientA.receivedEvents()
	assert.Len(t, events, 1)
	assert.Equal(t, "message:new", events[0].Event)
}

func TestManager_AnonymousHasNoPersonalChannel(t *testing.T) {
	hub := chathub.NewManager("test-origin", nil)
	go hub.Run()

	anon := newMockClient("sess_anon", "")
	hub.Register(anon)

	hub.Broadcast([]string{"user:"}, "message:new", "hi")
	time.Sleep(100 * time.Millisecond)

	assert.Empty(t, anon.receivedEvents())
}

func TestManager_ConversationJoinLeave(t *testing.T) {
	hub := chathub.NewManager("test-origin", nil)
	go hub.Run()

	clientA := newMockClient("sess_A", "user_A")
	hub.Register(clientA)

	hub.FrameCh <- chathub.Inbound{Client: clientA, Frame: joinFrame("dm:u1:u2")}
	time.Sleep(100 * time.Millisecond)

	hub.Broadcast([]string{"dm:u1:u2"}, "message:new", "hi")
	time.Sleep(100 * time.Millisecond)
	assert.Len(t, clientA.receivedEvents(), 1)

	hub.FrameCh <- chathub.Inbound{Client: clientA, Frame: leaveFrame("dm:u1:u2")}
	time.Sleep(100 * time.Millisecond)

	hub.Broadcast([]string{"dm:u1:u2"}, "message:new", "hi again")
	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, clientA.receivedEvents())
}

// Joining a room conversation also subscribes the room's auxiliary
// channels.
func TestManager_RoomConversationJoinExpands(t *testing.T) {
	hub := chathub.NewManager("test-origin", nil)
	go hub.Run()

	clientA := newMockClient("sess_A", "user_A")
	hub.Register(clientA)

	hub.FrameCh <- chathub.Inbound{Client: clientA, Frame: joinFrame("room:r1")}
	time.Sleep(100 * time.Millisecond)

	for _, channel := range []string{"room:r1", "conversation:r1"} {
		hub.Broadcast([]string{channel}, "message:new", channel)
	}
	time.Sleep(100 * time.Millisecond)

	assert.Len(t, clientA.receivedEvents(), 2)
}

// A session subscribed to several of the target channels still receives
// the event once.
func TestManager_DeliverDedupesAcrossChannels(t *testing.T) {
	hub := chathub.NewManager("test-origin", nil)
	go hub.Run()

	clientA := newMockClient("sess_A", "user_A")
	hub.Register(clientA)

	hub.FrameCh <- chathub.Inbound{Client: clientA, Frame: joinFrame("room:r1")}
	time.Sleep(100 * time.Millisecond)

	hub.Broadcast([]string{"user:user_A", "room:r1", "conversation:r1"}, "message:new", "hi")
	time.Sleep(100 * time.Millisecond)

	assert.Len(t, clientA.receivedEvents(), 1)
}

func TestManager_UnregisterStopsDelivery(t *testing.T) {
	hub := chathub.NewManager("test-origin", nil)
	go hub.Run()

	clientA := newMockClient("sess_A", "user_A")
	hub.Register(clientA)

	hub.UnregisterCh <- clientA
	time.Sleep(100 * time.Millisecond)
	assert.True(t, clientA.closed)

	hub.Broadcast([]string{"user:user_A"}, "message:new", "hi")
	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, clientA.receivedEvents())
}

// A frame from a session the registry never admitted is discarded and
// the dispatch loop keeps serving everyone else.
func TestManager_FrameFromUnknownSessionIgnored(t *testing.T) {
	hub := chathub.NewManager("test-origin", nil)
	go hub.Run()

	stranger := newMockClient("sess_ghost", "user_ghost")
	hub.FrameCh <- chathub.Inbound{Client: stranger, Frame: joinFrame("dm:u1:u2")}
	time.Sleep(100 * time.Millisecond)

	clientA := newMockClient("sess_A", "user_A")
	hub.Register(clientA)
	hub.FrameCh <- chathub.Inbound{Client: clientA, Frame: joinFrame("dm:u1:u2")}
	time.Sleep(100 * time.Millisecond)

	hub.Broadcast([]string{"dm:u1:u2"}, "message:new", "hi")
	time.Sleep(100 * time.Millisecond)

	assert.Len(t, clientA.receivedEvents(), 1)
	assert.Empty(t, stranger.receivedEvents())
}

// Register blocks until the session is admitted, so a disconnect fired
// right after it always finds the session and clears it completely.
func TestManager_DisconnectRightAfterRegister(t *testing.T) {
	hub := chathub.NewManager("test-origin", nil)
	go hub.Run()

	clientA := newMockClient("sess_A", "user_A")
	hub.Register(clientA)
	hub.UnregisterCh <- clientA
	time.Sleep(100 * time.Millisecond)

	assert.True(t, clientA.closed)

	hub.Broadcast([]string{"user:user_A"}, "message:new", "hi")
	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, clientA.receivedEvents())
}

func TestManager_SlowConsumerDropped(t *testing.T) {
	hub := chathub.NewManager("test-origin", nil)
	go hub.Run()

	slow := newMockClient("sess_slow", "user_slow")
	slow.RecvChannel = make(chan models.RealtimeEvent) // unbuffered, never read
	hub.Register(slow)

	hub.Broadcast([]string{"user:user_slow"}, "message:new", "hi")
	time.Sleep(100 * time.Millisecond)

	assert.True(t, slow.closed, "session that cannot keep up is dropped")
}

func TestManager_SignalRelayedToTarget(t *testing.T) {
	hub := chathub.NewManager("test-origin", nil)
	go hub.Run()

	caller := newMockClient("sess_A", "user_A")
	callee := newMockClient("sess_B", "user_B")
	hub.Register(caller)
	hub.Register(callee)

	payload, _ := json.Marshal(map[string]any{
		"toUserId":     "user_B",
		"fromUserName": "Alice",
		"callType":     "video",
		"offer":        map[string]string{"sdp": "v=0"},
	})
	hub.FrameCh <- chathub.Inbound{
		Client: caller,
		Frame:  models.ClientFrame{Event: models.EventCallOffer, Payload: payload},
	}
	time.Sleep(100 * time.Millisecond)

	events := callee.receivedEvents()
	assert.Len(t, events, 1)
	assert.Equal(t, models.EventCallOffer, events[0].Event)

	relayed, ok := events[0].Payload.(map[string]any)
	assert.True(t, ok)
	assert.Equal(t, "user_A", relayed["fromUserId"])
	assert.Equal(t, "video", relayed["callType"])

	assert.Empty(t, caller.receivedEvents(), "signal is not echoed to the caller")
}

// Signaling frames from anonymous sessions or without a target are
// dropped without a response.
func TestManager_SignalDropsInvalid(t *testing.T) {
	hub := chathub.NewManager("test-origin", nil)
	go hub.Run()

	anon := newMockClient("sess_anon", "")
	named := newMockClient("sess_A", "user_A")
	callee := newMockClient("sess_B", "user_B")
	hub.Register(anon)
	hub.Register(named)
	hub.Register(callee)

	offer, _ := json.Marshal(map[string]any{
		"toUserId": "user_B",
		"offer":    map[string]string{"sdp": "v=0"},
	})
	// Anonymous sender.
	hub.FrameCh <- chathub.Inbound{
		Client: anon,
		Frame:  models.ClientFrame{Event: models.EventCallOffer, Payload: offer},
	}
	// Missing target.
	noTarget, _ := json.Marshal(map[string]any{"offer": map[string]string{"sdp": "v=0"}})
	hub.FrameCh <- chathub.Inbound{
		Client: named,
		Frame:  models.ClientFrame{Event: models.EventCallOffer, Payload: noTarget},
	}
	// Offer frame without an offer body.
	empty, _ := json.Marshal(map[string]any{"toUserId": "user_B"})
	hub.FrameCh <- chathub.Inbound{
		Client: named,
		Frame:  models.ClientFrame{Event: models.EventCallOffer, Payload: empty},
	}
	time.Sleep(100 * time.Millisecond)

	assert.Empty(t, callee.receivedEvents())
}

func TestManager_CallEndDefaultsReason(t *testing.T) {
	hub := chathub.NewManager("test-origin", nil)
	go hub.Run()

	caller := newMockClient("sess_A", "user_A")
	callee := newMockClient("sess_B", "user_B")
	hub.Register(caller)
	hub.Register(callee)

	payload, _ := json.Marshal(map[string]any{"toUserId": "user_B"})
	hub.FrameCh <- chathub.Inbound{
		Client: caller,
		Frame:  models.ClientFrame{Event: models.EventCallEnd, Payload: payload},
	}
	time.Sleep(100 * time.Millisecond)

	events := callee.receivedEvents()
	assert.Len(t, events, 1)
	relayed, ok := events[0].Payload.(map[string]any)
	assert.True(t, ok)
	assert.Equal(t, "ended", relayed["reason"])
}
