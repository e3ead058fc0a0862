package handler

import (
	"net/http"
	"strings"

	"chatwave/backend/internal/conversation"
	"chatwave/backend/internal/errs"
	"chatwave/backend/internal/fanout"
	"chatwave/backend/internal/models"
	"chatwave/backend/internal/reaction"

	"github.com/gin-gonic/gin"
)

// messageTarget re-resolves the conversation kind of a stored message's
// target for fan-out after the fact (delete, reactions).
func (h *Handler) messageTarget(msg *models.Message) (conversation.Target, error) {
	room, err := h.Store.FindRoomByID(msg.ReceiverOrRoomID)
	if err != nil {
		return conversation.Target{}, err
	}
	if room != nil {
		return conversation.Target{Kind: conversation.KindRoom, RoomID: room.ID}, nil
	}
	return conversation.Target{Kind: conversation.KindDM, PeerID: msg.ReceiverOrRoomID}, nil
}

type sendMessageRequest struct {
	SenderUserID     string `json:"senderUserId"`
	ReceiverOrRoomID string `json:"receiverUserIdOrRoomId"`
	MessageContent   string `json:"messageContent"`
	MessageType      string `json:"messageType"`
	IsEncrypted      bool   `json:"isEncrypted"`
	EncryptionMethod string `json:"encryptionMethod"`
	ReplyToMessageID string `json:"replyToMessageId"`
	ReplyTo          string `json:"replyTo"`
}

// SendMessage resolves the target, validates the optional reply
// reference, persists the message, and fans it out. Everything fails
// fast before the write; dispatch happens only after it succeeds.
func (h *Handler) SendMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errs.Validation("All fields required"))
		return
	}
	if req.SenderUserID == "" || req.ReceiverOrRoomID == "" || req.MessageContent == "" {
		respondError(c, errs.Validation("All fields required"))
		return
	}

	target, err := h.Resolver.ResolveSendTarget(req.SenderUserID, req.ReceiverOrRoomID)
	if err != nil {
		respondError(c, err)
		return
	}

	replyID := req.ReplyToMessageID
	if replyID == "" {
		replyID = req.ReplyTo
	}
	replyRef, err := h.Resolver.ResolveReplyTarget(replyID, target, req.SenderUserID, req.ReceiverOrRoomID)
	if err != nil {
		respondError(c, err)
		return
	}

	messageType := req.MessageType
	if messageType == "" {
		messageType = models.MessageTypeText
	}
	if !models.ValidMessageType(messageType) {
		respondError(c, errs.Validation("Invalid messageType"))
		return
	}

	encryptionMethod := models.EncryptionNone
	if req.IsEncrypted {
		encryptionMethod = strings.TrimSpace(req.EncryptionMethod)
		if !models.ValidEncryptionMethod(encryptionMethod) {
			encryptionMethod = models.EncryptionAES
		}
	}

	msg := models.Message{
		SenderUserID:     req.SenderUserID,
		ReceiverOrRoomID: req.ReceiverOrRoomID,
		MessageContent:   req.MessageContent,
		MessageType:      messageType,
		IsEncrypted:      req.IsEncrypted,
		EncryptionMethod: encryptionMethod,
		ReplyToID:        replyRef,
		Reactions:        []models.Reaction{},
	}
	if err := h.Store.CreateMessage(&msg); err != nil {
		respondError(c, err)
		return
	}

	h.Router.Emit(
		fanout.ChannelsForMessage(msg.SenderUserID, target),
		models.EventMessageNew,
		models.NewMessagePayload{Data: &msg},
	)
	c.JSON(http.StatusOK, gin.H{"message": "Message sent successfully", "data": msg})
}

// MessagesBetween returns the direct conversation between two users,
// oldest first.
func (h *Handler) MessagesBetween(c *gin.Context) {
	msgs, err := h.Store.FindMessagesBetween(c.Param("userId1"), c.Param("userId2"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, msgs)
}

// MessagesByTarget returns every message addressed to a room or user
// id, oldest first.
func (h *Handler) MessagesByTarget(c *gin.Context) {
	msgs, err := h.Store.FindMessagesByTarget(c.Param("receiverId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, msgs)
}

// actorFromRequest reads actorUserId from the body or the query.
func actorFromRequest(c *gin.Context) string {
	var body struct {
		ActorUserID string `json:"actorUserId"`
	}
	if err := c.ShouldBindJSON(&body); err == nil && body.ActorUserID != "" {
		return body.ActorUserID
	}
	return c.Query("actorUserId")
}

// DeleteMessage removes one message after checking the actor is
// permitted to act in the message's conversation.
func (h *Handler) DeleteMessage(c *gin.Context) {
	messageID := c.Param("messageId")
	actorID := actorFromRequest(c)
	if actorID == "" {
		respondError(c, errs.Validation("actorUserId is required"))
		return
	}
	if !conversation.ValidID(messageID) {
		respondError(c, errs.Invalid("Invalid messageId"))
		return
	}

	msg, err := h.Store.FindMessageByID(messageID)
	if err != nil {
		respondError(c, err)
		return
	}
	if msg == nil {
		respondError(c, errs.NotFound("Message not found"))
		return
	}

	ctx, err := h.Resolver.ResolveActorContext(actorID, msg.ReceiverOrRoomID)
	if err != nil {
		respondError(c, err)
		return
	}
	if !conversation.CanDeleteMessage(msg, ctx) {
		respondError(c, errs.Forbidden("You can only delete your own message in this chat"))
		return
	}

	if err := h.Store.DeleteMessage(messageID); err != nil {
		respondError(c, err)
		return
	}

	h.Router.Emit(
		fanout.ChannelsForMessage(msg.SenderUserID, ctx.Target()),
		models.EventMessageDeleted,
		models.MessageDeletedPayload{
			MessageID:        msg.ID,
			ReceiverOrRoomID: msg.ReceiverOrRoomID,
			ActorUserID:      actorID,
		},
	)
	c.JSON(http.StatusOK, gin.H{"message": "Message deleted successfully", "messageId": messageID})
}

type clearConversationRequest struct {
	ActorUserID      string `json:"actorUserId"`
	ReceiverOrRoomID string `json:"receiverUserIdOrRoomId"`
}

// ClearConversation bulk-deletes every message in one conversation and
// reports the removed count. Clearing again removes nothing.
func (h *Handler) ClearConversation(c *gin.Context) {
	var req clearConversationRequest
	_ = c.ShouldBindJSON(&req)
	if req.ActorUserID == "" {
		req.ActorUserID = c.Query("actorUserId")
	}
	if req.ReceiverOrRoomID == "" {
		req.ReceiverOrRoomID = c.Query("receiverUserIdOrRoomId")
	}
	if req.ActorUserID == "" || req.ReceiverOrRoomID == "" {
		respondError(c, errs.Validation("actorUserId and receiverUserIdOrRoomId are required"))
		return
	}

	ctx, err := h.Resolver.ResolveActorContext(req.ActorUserID, req.ReceiverOrRoomID)
	if err != nil {
		respondError(c, err)
		return
	}

	var deleted int64
	if ctx.Kind == conversation.KindRoom {
		if ctx.RoomCreatedBy != req.ActorUserID {
			respondError(c, errs.Forbidden("Only room creator can clear room chat"))
			return
		}
		deleted, err = h.Store.DeleteRoomConversation(ctx.RoomID)
	} else {
		deleted, err = h.Store.DeleteDirectConversation(ctx.ActorID, ctx.PeerID)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	h.Router.Emit(
		fanout.ChannelsForConversation(ctx),
		models.EventConversationCleared,
		models.ConversationClearedPayload{
			ReceiverOrRoomID: req.ReceiverOrRoomID,
			ActorUserID:      req.ActorUserID,
			DeletedCount:     deleted,
			ConversationType: string(ctx.Kind),
		},
	)
	c.JSON(http.StatusOK, gin.H{"message": "Conversation cleared successfully", "deletedCount": deleted})
}

// emitReactionUpdate pushes the fresh reaction set to the message's
// conversation channels.
func (h *Handler) emitReactionUpdate(msg *models.Message, action string) {
	target, err := h.messageTarget(msg)
	if err != nil {
		return
	}
	h.Router.Emit(
		fanout.ChannelsForMessage(msg.SenderUserID, target),
		models.EventReactionUpdated,
		models.ReactionUpdatedPayload{
			MessageID: msg.ID,
			Reactions: msg.Reactions,
			Action:    action,
		},
	)
}

type reactionRequest struct {
	UserID string `json:"userId"`
	Emoji  string `json:"emoji"`
}

// ToggleReaction applies toggle semantics to a user's reaction.
func (h *Handler) ToggleReaction(c *gin.Context) {
	messageID := c.Param("messageId")

	var req reactionRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID == "" || req.Emoji == "" {
		respondError(c, errs.Validation("userId and emoji are required"))
		return
	}
	if !conversation.ValidID(messageID) {
		respondError(c, errs.Invalid("Invalid messageId"))
		return
	}

	action, msg, err := h.Ledger.Toggle(messageID, req.UserID, req.Emoji)
	if err != nil {
		respondError(c, err)
		return
	}

	h.emitReactionUpdate(msg, string(action))
	c.JSON(http.StatusOK, gin.H{"message": "Reaction updated", "action": action, "data": msg})
}

// RemoveReaction drops the user's reaction outright.
func (h *Handler) RemoveReaction(c *gin.Context) {
	messageID := c.Param("messageId")

	var req reactionRequest
	_ = c.ShouldBindJSON(&req)
	if req.UserID == "" {
		req.UserID = c.Query("userId")
	}
	if req.UserID == "" {
		respondError(c, errs.Validation("userId is required"))
		return
	}
	if !conversation.ValidID(messageID) {
		respondError(c, errs.Invalid("Invalid messageId"))
		return
	}

	msg, err := h.Ledger.Remove(messageID, req.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	h.emitReactionUpdate(msg, string(reaction.ActionRemoved))
	c.JSON(http.StatusOK, gin.H{"message": "Reaction removed", "data": msg})
}

// MarkMessageRead flips a message's read flag.
func (h *Handler) MarkMessageRead(c *gin.Context) {
	messageID := c.Param("messageId")
	if !conversation.ValidID(messageID) {
		respondError(c, errs.Invalid("Invalid messageId"))
		return
	}

	msg, err := h.Store.MarkMessageRead(messageID)
	if err != nil {
		respondError(c, err)
		return
	}
	if msg == nil {
		respondError(c, errs.NotFound("Message not found"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Message marked as read", "data": msg})
}
