package models

import "encoding/json"

// Realtime event names pushed to live sessions.
const (
	EventMessageNew          = "message:new"
	EventMessageDeleted      = "message:deleted"
	EventReactionUpdated     = "message:reaction_updated"
	EventConversationCleared = "conversation:cleared"
	EventRoomMembership      = "room:membership_changed"
	EventRoomRemoved         = "room:removed"

	EventCallOffer     = "call:offer"
	EventCallAnswer    = "call:answer"
	EventCallCandidate = "call:ice-candidate"
	EventCallEnd       = "call:end"
)

// Client frame names accepted over the live connection.
const (
	FrameConversationJoin  = "conversation:join"
	FrameConversationLeave = "conversation:leave"
)

// RealtimeEvent is the envelope written to a live session.
type RealtimeEvent struct {
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}

// ClientFrame is a raw inbound frame from a live session. Payload stays
// unparsed until the registry knows which frame it is handling.
type ClientFrame struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// NewMessagePayload accompanies EventMessageNew.
type NewMessagePayload struct {
	Data *Message `json:"data"`
}

// MessageDeletedPayload accompanies EventMessageDeleted.
type MessageDeletedPayload struct {
	MessageID        string `json:"messageId"`
	ReceiverOrRoomID string `json:"receiverUserIdOrRoomId"`
	ActorUserID      string `json:"actorUserId"`
}

// ReactionUpdatedPayload accompanies EventReactionUpdated.
type ReactionUpdatedPayload struct {
	MessageID string     `json:"messageId"`
	Reactions []Reaction `json:"reactions"`
	Action    string     `json:"action"`
}

// ConversationClearedPayload accompanies EventConversationCleared.
type ConversationClearedPayload struct {
	ReceiverOrRoomID string `json:"receiverUserIdOrRoomId"`
	ActorUserID      string `json:"actorUserId"`
	DeletedCount     int64  `json:"deletedCount"`
	ConversationType string `json:"conversationType"`
}

// RoomMembershipPayload accompanies EventRoomMembership.
type RoomMembershipPayload struct {
	Action string    `json:"action"`
	RoomID string    `json:"roomId"`
	Room   *ChatRoom `json:"room"`
}

// RoomRemovedPayload accompanies EventRoomRemoved.
type RoomRemovedPayload struct {
	Action string `json:"action"`
	RoomID string `json:"roomId"`
}
