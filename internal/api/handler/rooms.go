package handler

import (
	"net/http"
	"strings"

	"chatwave/backend/internal/conversation"
	"chatwave/backend/internal/errs"
	"chatwave/backend/internal/fanout"
	"chatwave/backend/internal/models"

	"github.com/gin-gonic/gin"
)

// emitMembershipChanged notifies every current member's personal
// channel about a membership change.
func (h *Handler) emitMembershipChanged(room *models.ChatRoom, action string) {
	h.Router.Emit(
		fanout.ChannelsForUsers(room.MemberIDs()),
		models.EventRoomMembership,
		models.RoomMembershipPayload{Action: action, RoomID: room.ID, Room: room},
	)
}

// emitRoomRemoved tells the given users the room is gone for them.
func (h *Handler) emitRoomRemoved(roomID string, userIDs []string, action string) {
	h.Router.Emit(
		fanout.ChannelsForUsers(userIDs),
		models.EventRoomRemoved,
		models.RoomRemovedPayload{Action: action, RoomID: roomID},
	)
}

type createRoomRequest struct {
	RoomName  string `json:"roomName"`
	CreatedBy string `json:"createdBy"`
}

// CreateRoom creates a group room with the creator as its only member.
func (h *Handler) CreateRoom(c *gin.Context) {
	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errs.Validation("Room name and creator required"))
		return
	}
	roomName := strings.TrimSpace(req.RoomName)
	if roomName == "" || req.CreatedBy == "" {
		respondError(c, errs.Validation("Room name and creator required"))
		return
	}

	creator, err := h.Store.FindUserByID(req.CreatedBy)
	if err != nil {
		respondError(c, err)
		return
	}
	if creator == nil {
		respondError(c, errs.NotFound("Creator user not found"))
		return
	}

	room := models.ChatRoom{
		RoomName:  roomName,
		CreatedBy: creator.ID,
		Members:   []models.User{*creator},
	}
	if err := h.Store.CreateRoom(&room); err != nil {
		respondError(c, err)
		return
	}

	created, err := h.Store.FindRoomByID(room.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	h.emitMembershipChanged(created, "created")
	c.JSON(http.StatusOK, gin.H{"message": "Room created successfully", "room": created})
}

// ListRooms returns all rooms, optionally filtered by member.
func (h *Handler) ListRooms(c *gin.Context) {
	memberID := c.Query("memberId")
	if memberID != "" && !conversation.ValidID(memberID) {
		respondError(c, errs.Invalid("Invalid memberId"))
		return
	}

	rooms, err := h.Store.ListRooms(memberID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rooms)
}

// GetRoom returns a single room with its members.
func (h *Handler) GetRoom(c *gin.Context) {
	roomID := c.Param("roomId")
	if !conversation.ValidID(roomID) {
		respondError(c, errs.Invalid("Invalid roomId"))
		return
	}

	room, err := h.Store.FindRoomByID(roomID)
	if err != nil {
		respondError(c, err)
		return
	}
	if room == nil {
		respondError(c, errs.NotFound("Room not found"))
		return
	}
	c.JSON(http.StatusOK, room)
}

type memberRequest struct {
	UserID  string `json:"userId"`
	ActorID string `json:"actorId"`
}

// AddRoomMember appends a user to the room. Re-adding an existing
// member is idempotent and reports changed=false.
func (h *Handler) AddRoomMember(c *gin.Context) {
	roomID := c.Param("roomId")

	var req memberRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID == "" {
		respondError(c, errs.Validation("userId is required"))
		return
	}
	if !conversation.ValidID(roomID) {
		respondError(c, errs.Invalid("Invalid roomId"))
		return
	}
	if !conversation.ValidID(req.UserID) {
		respondError(c, errs.Invalid("Invalid userId"))
		return
	}
	if req.ActorID != "" && !conversation.ValidID(req.ActorID) {
		respondError(c, errs.Invalid("Invalid actorId"))
		return
	}

	room, err := h.Store.FindRoomByID(roomID)
	if err != nil {
		respondError(c, err)
		return
	}
	if room == nil {
		respondError(c, errs.NotFound("Room not found"))
		return
	}

	user, err := h.Store.FindUserByID(req.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	if user == nil {
		respondError(c, errs.NotFound("User not found"))
		return
	}

	if req.ActorID != "" && room.CreatedBy != req.ActorID {
		respondError(c, errs.Forbidden("Only room creator can add members"))
		return
	}

	if room.HasMember(req.UserID) {
		c.JSON(http.StatusOK, gin.H{"message": "Member already in room", "room": room, "changed": false})
		return
	}

	if err := h.Store.AddRoomMember(roomID, req.UserID); err != nil {
		respondError(c, err)
		return
	}
	room, err = h.Store.FindRoomByID(roomID)
	if err != nil {
		respondError(c, err)
		return
	}

	h.emitMembershipChanged(room, "member_added")
	c.JSON(http.StatusOK, gin.H{"message": "Member added successfully", "room": room, "changed": true})
}

// RemoveRoomMember drops a member. The creator can never be removed.
func (h *Handler) RemoveRoomMember(c *gin.Context) {
	roomID, memberID := c.Param("roomId"), c.Param("memberId")
	actorID := c.Query("actorId")
	if actorID == "" {
		var req memberRequest
		if err := c.ShouldBindJSON(&req); err == nil {
			actorID = req.ActorID
		}
	}

	if !conversation.ValidID(roomID) {
		respondError(c, errs.Invalid("Invalid roomId"))
		return
	}
	if !conversation.ValidID(memberID) {
		respondError(c, errs.Invalid("Invalid memberId"))
		return
	}
	if actorID != "" && !conversation.ValidID(actorID) {
		respondError(c, errs.Invalid("Invalid actorId"))
		return
	}

	room, err := h.Store.FindRoomByID(roomID)
	if err != nil {
		respondError(c, err)
		return
	}
	if room == nil {
		respondError(c, errs.NotFound("Room not found"))
		return
	}

	if actorID != "" && room.CreatedBy != actorID {
		respondError(c, errs.Forbidden("Only room creator can remove members"))
		return
	}
	if room.CreatedBy == memberID {
		respondError(c, errs.Forbidden("Room creator cannot be removed"))
		return
	}
	if !room.HasMember(memberID) {
		respondError(c, errs.NotFound("Member not found in room"))
		return
	}

	if err := h.Store.RemoveRoomMember(roomID, memberID); err != nil {
		respondError(c, err)
		return
	}
	room, err = h.Store.FindRoomByID(roomID)
	if err != nil {
		respondError(c, err)
		return
	}

	h.emitMembershipChanged(room, "member_removed")
	h.emitRoomRemoved(roomID, []string{memberID}, "member_removed")
	c.JSON(http.StatusOK, gin.H{"message": "Member removed successfully", "room": room, "changed": true})
}

// DeleteRoom removes the room entirely and tells every member.
func (h *Handler) DeleteRoom(c *gin.Context) {
	roomID := c.Param("roomId")
	if !conversation.ValidID(roomID) {
		respondError(c, errs.Invalid("Invalid roomId"))
		return
	}

	room, err := h.Store.DeleteRoom(roomID)
	if err != nil {
		respondError(c, err)
		return
	}
	if room == nil {
		respondError(c, errs.NotFound("Room not found"))
		return
	}

	h.emitRoomRemoved(roomID, room.MemberIDs(), "deleted")
	c.JSON(http.StatusOK, gin.H{"message": "Room deleted successfully", "room": room})
}
