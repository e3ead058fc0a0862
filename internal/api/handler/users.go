package handler

import (
	"net/http"

	"chatwave/backend/internal/conversation"
	"chatwave/backend/internal/errs"
	"chatwave/backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

func summaries(users []models.User) []models.UserSummary {
	return lo.Map(users, func(u models.User, _ int) models.UserSummary {
		return u.Summary()
	})
}

// ListUsers returns every account without password material.
func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.Store.ListUsers()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// GetUser returns a single account.
func (h *Handler) GetUser(c *gin.Context) {
	user, err := h.Store.FindUserByID(c.Param("userId"))
	if err != nil {
		respondError(c, err)
		return
	}
	if user == nil {
		respondError(c, errs.NotFound("User not found"))
		return
	}
	c.JSON(http.StatusOK, user)
}

// GetProfile returns the account with its social-edge lists and counts.
func (h *Handler) GetProfile(c *gin.Context) {
	userID := c.Param("userId")
	user, err := h.Store.FindUserByID(userID)
	if err != nil {
		respondError(c, err)
		return
	}
	if user == nil {
		respondError(c, errs.NotFound("User not found"))
		return
	}

	followers, err := h.Store.ListFollowers(userID)
	if err != nil {
		respondError(c, err)
		return
	}
	following, err := h.Store.ListFollowing(userID)
	if err != nil {
		respondError(c, err)
		return
	}
	requests, err := h.Store.ListFollowRequests(userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":           user,
		"followers":      summaries(followers),
		"following":      summaries(following),
		"followRequests": summaries(requests),
		"stats": gin.H{
			"followersCount":      len(followers),
			"followingCount":      len(following),
			"followRequestsCount": len(requests),
		},
	})
}

// UpdateStatus sets the online flag.
func (h *Handler) UpdateStatus(c *gin.Context) {
	var req struct {
		OnlineStatus bool `json:"onlineStatus"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errs.Validation("onlineStatus is required"))
		return
	}

	user, err := h.Store.SetOnlineStatus(c.Param("userId"), req.OnlineStatus)
	if err != nil {
		respondError(c, err)
		return
	}
	if user == nil {
		respondError(c, errs.NotFound("User not found"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Status updated", "user": user})
}

type updateProfileRequest struct {
	Bio          *string `json:"bio"`
	AvatarURL    *string `json:"avatarUrl"`
	Username     *string `json:"username"`
	PhoneNumber  *string `json:"phoneNumber"`
	E2EPublicKey *string `json:"e2ePublicKey"`
}

// UpdateProfile applies partial profile updates.
func (h *Handler) UpdateProfile(c *gin.Context) {
	userID := c.Param("userId")

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errs.Validation("Invalid request body"))
		return
	}

	if req.Username != nil {
		taken, err := h.Store.UsernameTaken(*req.Username, userID)
		if err != nil {
			respondError(c, err)
			return
		}
		if taken {
			respondError(c, errs.Conflict("Username already taken"))
			return
		}
	}

	updates := map[string]any{}
	if req.Bio != nil {
		updates["bio"] = *req.Bio
	}
	if req.AvatarURL != nil {
		updates["avatar_url"] = *req.AvatarURL
	}
	if req.Username != nil {
		updates["username"] = *req.Username
	}
	if req.PhoneNumber != nil {
		updates["phone_number"] = *req.PhoneNumber
	}
	if req.E2EPublicKey != nil {
		updates["e2e_public_key"] = *req.E2EPublicKey
	}

	user, err := h.Store.UpdateUserProfile(userID, updates)
	if err != nil {
		respondError(c, err)
		return
	}
	if user == nil {
		respondError(c, errs.NotFound("User not found"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Profile updated successfully", "user": user})
}

// SendFollowRequest records a pending follow request towards the
// target.
func (h *Handler) SendFollowRequest(c *gin.Context) {
	userID, targetID := c.Param("userId"), c.Param("targetId")
	if !conversation.ValidID(userID) || !conversation.ValidID(targetID) {
		respondError(c, errs.Invalid("Invalid user identifier"))
		return
	}
	if userID == targetID {
		respondError(c, errs.Validation("Cannot follow yourself"))
		return
	}

	target, err := h.Store.FindUserByID(targetID)
	if err != nil {
		respondError(c, err)
		return
	}
	if target == nil {
		respondError(c, errs.NotFound("User not found"))
		return
	}

	following, err := h.Store.IsFollowing(userID, targetID)
	if err != nil {
		respondError(c, err)
		return
	}
	if following {
		respondError(c, errs.Conflict("Already following this user"))
		return
	}

	pending, err := h.Store.HasFollowRequest(userID, targetID)
	if err != nil {
		respondError(c, err)
		return
	}
	if pending {
		respondError(c, errs.Conflict("Follow request already sent"))
		return
	}

	if err := h.Store.AddFollowRequest(userID, targetID); err != nil {
		respondError(c, err)
		return
	}

	requests, err := h.Store.ListFollowRequests(targetID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Follow request sent", "followRequests": summaries(requests)})
}

// AcceptFollowRequest converts the requester's pending request into a
// follow edge.
func (h *Handler) AcceptFollowRequest(c *gin.Context) {
	userID, requesterID := c.Param("userId"), c.Param("requesterId")

	user, err := h.Store.FindUserByID(userID)
	if err != nil {
		respondError(c, err)
		return
	}
	requester, err := h.Store.FindUserByID(requesterID)
	if err != nil {
		respondError(c, err)
		return
	}
	if user == nil || requester == nil {
		respondError(c, errs.NotFound("User not found"))
		return
	}

	if err := h.Store.AcceptFollow(requesterID, userID); err != nil {
		respondError(c, err)
		return
	}

	followers, err := h.Store.ListFollowers(userID)
	if err != nil {
		respondError(c, err)
		return
	}
	requests, err := h.Store.ListFollowRequests(userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":        "Follow request accepted",
		"followers":      summaries(followers),
		"followRequests": summaries(requests),
	})
}

// RejectFollowRequest drops the requester's pending request.
func (h *Handler) RejectFollowRequest(c *gin.Context) {
	userID, requesterID := c.Param("userId"), c.Param("requesterId")

	user, err := h.Store.FindUserByID(userID)
	if err != nil {
		respondError(c, err)
		return
	}
	if user == nil {
		respondError(c, errs.NotFound("User not found"))
		return
	}

	if _, err := h.Store.RemoveFollowRequest(requesterID, userID); err != nil {
		respondError(c, err)
		return
	}

	requests, err := h.Store.ListFollowRequests(userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":        "Follow request rejected",
		"followRequests": summaries(requests),
	})
}

// Unfollow removes the follow edge from userId to targetId.
func (h *Handler) Unfollow(c *gin.Context) {
	userID, targetID := c.Param("userId"), c.Param("targetId")

	if err := h.Store.RemoveFollow(userID, targetID); err != nil {
		respondError(c, err)
		return
	}

	following, err := h.Store.ListFollowing(userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Unfollowed successfully", "following": summaries(following)})
}

// ListFollowRequests returns pending requests received by the user.
func (h *Handler) ListFollowRequests(c *gin.Context) {
	requests, err := h.Store.ListFollowRequests(c.Param("userId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"followRequests": summaries(requests)})
}

// ListFollowers returns the user's followers.
func (h *Handler) ListFollowers(c *gin.Context) {
	followers, err := h.Store.ListFollowers(c.Param("userId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"followers": summaries(followers)})
}

// ListFollowing returns the users this user follows.
func (h *Handler) ListFollowing(c *gin.Context) {
	following, err := h.Store.ListFollowing(c.Param("userId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"following": summaries(following)})
}

// FollowStatus reports the relation from userId towards targetId.
func (h *Handler) FollowStatus(c *gin.Context) {
	userID, targetID := c.Param("userId"), c.Param("targetId")

	user, err := h.Store.FindUserByID(userID)
	if err != nil {
		respondError(c, err)
		return
	}
	if user == nil {
		respondError(c, errs.NotFound("User not found"))
		return
	}

	isFollowing, err := h.Store.IsFollowing(userID, targetID)
	if err != nil {
		respondError(c, err)
		return
	}
	hasPending, err := h.Store.HasFollowRequest(userID, targetID)
	if err != nil {
		respondError(c, err)
		return
	}

	status := "not_following"
	if isFollowing {
		status = "following"
	} else if hasPending {
		status = "pending"
	}
	c.JSON(http.StatusOK, gin.H{
		"isFollowing":       isFollowing,
		"hasPendingRequest": hasPending,
		"status":            status,
	})
}

// ListSentFollowRequests returns the users this user has pending
// requests towards.
func (h *Handler) ListSentFollowRequests(c *gin.Context) {
	sent, err := h.Store.ListSentFollowRequests(c.Param("userId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sentRequests": summaries(sent)})
}

// FollowInfo aggregates the full social-edge picture for a user.
func (h *Handler) FollowInfo(c *gin.Context) {
	userID := c.Param("userId")
	user, err := h.Store.FindUserByID(userID)
	if err != nil {
		respondError(c, err)
		return
	}
	if user == nil {
		respondError(c, errs.NotFound("User not found"))
		return
	}

	received, err := h.Store.ListFollowRequests(userID)
	if err != nil {
		respondError(c, err)
		return
	}
	sent, err := h.Store.ListSentFollowRequests(userID)
	if err != nil {
		respondError(c, err)
		return
	}
	followers, err := h.Store.ListFollowers(userID)
	if err != nil {
		respondError(c, err)
		return
	}
	following, err := h.Store.ListFollowing(userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"receivedRequests": summaries(received),
		"sentRequests":     summaries(sent),
		"followers":        summaries(followers),
		"following":        summaries(following),
		"stats": gin.H{
			"receivedCount":  len(received),
			"sentCount":      len(sent),
			"followersCount": len(followers),
			"followingCount": len(following),
		},
	})
}
