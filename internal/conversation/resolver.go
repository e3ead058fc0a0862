package conversation

import (
	"chatwave/backend/internal/errs"
	"chatwave/backend/internal/models"

	"github.com/google/uuid"
)

// Kind tags a resolved conversation target.
type Kind string

const (
	KindRoom Kind = "room"
	KindDM   Kind = "dm"
)

// Target is the tagged union a raw receiver-or-room id resolves into.
// It is resolved once at the boundary and threaded through; nothing
// downstream re-derives it by lookup.
type Target struct {
	Kind   Kind
	RoomID string // set when Kind == KindRoom
	PeerID string // set when Kind == KindDM
}

// ID returns the raw conversation target id regardless of kind.
func (t Target) ID() string {
	if t.Kind == KindRoom {
		return t.RoomID
	}
	return t.PeerID
}

// ActorContext is the resolved permission context for delete/clear
// operations inside an existing conversation.
type ActorContext struct {
	Kind          Kind
	ActorID       string
	PeerID        string   // DM only
	RoomID        string   // room only
	RoomCreatedBy string   // room only
	RoomMemberIDs []string // room only
}

// Target converts the context into the equivalent conversation target.
func (c ActorContext) Target() Target {
	if c.Kind == KindRoom {
		return Target{Kind: KindRoom, RoomID: c.RoomID}
	}
	return Target{Kind: KindDM, PeerID: c.PeerID}
}

// Directory is the identity lookup surface the resolver needs. Lookups
// return (nil, nil) on a miss.
type Directory interface {
	FindUserByID(id string) (*models.User, error)
	FindRoomByID(id string) (*models.ChatRoom, error)
	IsFollowing(followerID, followeeID string) (bool, error)
	FindMessageByID(id string) (*models.Message, error)
}

// Resolver classifies conversation targets and enforces the permission
// rules for sending and acting within a conversation.
type Resolver struct {
	dir Directory
}

func NewResolver(dir Directory) *Resolver {
	return &Resolver{dir: dir}
}

// ValidID reports whether the id is a well-formed identifier.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// ResolveSendTarget decides whether sender may send to targetID and
// classifies the target. A room target requires membership; a direct
// target requires that the sender follows the peer. The follow gate is
// deliberately one-directional.
func (r *Resolver) ResolveSendTarget(senderID, targetID string) (Target, error) {
	if !ValidID(senderID) || !ValidID(targetID) {
		return Target{}, errs.Invalid("Invalid sender or receiver identifier")
	}

	sender, err := r.dir.FindUserByID(senderID)
	if err != nil {
		return Target{}, err
	}
	if sender == nil {
		return Target{}, errs.NotFound("Sender user not found")
	}

	room, err := r.dir.FindRoomByID(targetID)
	if err != nil {
		return Target{}, err
	}
	if room != nil {
		if !room.HasMember(senderID) {
			return Target{}, errs.Forbidden("Only room members can send messages to this room")
		}
		return Target{Kind: KindRoom, RoomID: room.ID}, nil
	}

	peer, err := r.dir.FindUserByID(targetID)
	if err != nil {
		return Target{}, err
	}
	if peer == nil {
		return Target{}, errs.NotFound("Recipient user not found")
	}

	following, err := r.dir.IsFollowing(senderID, targetID)
	if err != nil {
		return Target{}, err
	}
	if !following {
		return Target{}, errs.Forbidden("Follow this user first to send direct messages")
	}
	return Target{Kind: KindDM, PeerID: peer.ID}, nil
}

// ResolveReplyTarget validates an optional reply reference. The
// referenced message must belong to the same conversation: the same
// room, or the same direct pair in either direction. Returns nil when
// replyID is empty.
func (r *Resolver) ResolveReplyTarget(replyID string, target Target, senderID, targetID string) (*string, error) {
	if replyID == "" {
		return nil, nil
	}
	if !ValidID(replyID) {
		return nil, errs.Invalid("Invalid replyToMessageId")
	}

	reply, err := r.dir.FindMessageByID(replyID)
	if err != nil {
		return nil, err
	}
	if reply == nil {
		return nil, errs.NotFound("Reply target message not found")
	}

	if target.Kind == KindRoom {
		if reply.ReceiverOrRoomID != targetID {
			return nil, errs.Validation("Reply message must belong to the same room")
		}
		return &reply.ID, nil
	}

	sameConversation := (reply.SenderUserID == senderID && reply.ReceiverOrRoomID == targetID) ||
		(reply.SenderUserID == targetID && reply.ReceiverOrRoomID == senderID)
	if !sameConversation {
		return nil, errs.Validation("Reply message must belong to the same conversation")
	}
	return &reply.ID, nil
}

// ResolveActorContext resolves the permission context for delete/clear
// operations. Room actions still require membership, but direct
// conversations need no follow edge: any party to an existing DM may
// act within the delete rules.
func (r *Resolver) ResolveActorContext(actorID, targetID string) (ActorContext, error) {
	if !ValidID(actorID) || !ValidID(targetID) {
		return ActorContext{}, errs.Invalid("Invalid actor or conversation identifier")
	}

	actor, err := r.dir.FindUserByID(actorID)
	if err != nil {
		return ActorContext{}, err
	}
	if actor == nil {
		return ActorContext{}, errs.NotFound("Actor user not found")
	}

	room, err := r.dir.FindRoomByID(targetID)
	if err != nil {
		return ActorContext{}, err
	}
	if room != nil {
		if !room.HasMember(actorID) {
			return ActorContext{}, errs.Forbidden("Only room members can manage room messages")
		}
		return ActorContext{
			Kind:          KindRoom,
			ActorID:       actorID,
			RoomID:        room.ID,
			RoomCreatedBy: room.CreatedBy,
			RoomMemberIDs: room.MemberIDs(),
		}, nil
	}

	peer, err := r.dir.FindUserByID(targetID)
	if err != nil {
		return ActorContext{}, err
	}
	if peer == nil {
		return ActorContext{}, errs.NotFound("Conversation target not found")
	}
	return ActorContext{Kind: KindDM, ActorID: actorID, PeerID: peer.ID}, nil
}

// CanDeleteMessage reports whether the actor may delete the message in
// the given context: its sender always may; in rooms the creator also
// may; in DMs the receiving party also may.
func CanDeleteMessage(msg *models.Message, ctx ActorContext) bool {
	if msg == nil || ctx.ActorID == "" {
		return false
	}
	if msg.SenderUserID == ctx.ActorID {
		return true
	}
	if ctx.Kind == KindRoom {
		return ctx.RoomCreatedBy == ctx.ActorID
	}
	return msg.ReceiverOrRoomID == ctx.ActorID
}
