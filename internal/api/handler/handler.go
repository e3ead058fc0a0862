package handler

import (
	"log"
	"net/http"

	"chatwave/backend/internal/chathub"
	"chatwave/backend/internal/conversation"
	"chatwave/backend/internal/errs"
	"chatwave/backend/internal/fanout"
	"chatwave/backend/internal/reaction"
	"chatwave/backend/internal/security"
	"chatwave/backend/internal/storage"

	"github.com/gin-gonic/gin"
)

// Handler wires the HTTP surface to the core components.
type Handler struct {
	Store    storage.Storage
	Resolver *conversation.Resolver
	Ledger   *reaction.Ledger
	Router   *fanout.Router
	Hub      *chathub.Manager
	Signer   *security.TokenSigner
}

func NewHandler(store storage.Storage, resolver *conversation.Resolver, ledger *reaction.Ledger,
	router *fanout.Router, hub *chathub.Manager, signer *security.TokenSigner) *Handler {
	return &Handler{
		Store:    store,
		Resolver: resolver,
		Ledger:   ledger,
		Router:   router,
		Hub:      hub,
		Signer:   signer,
	}
}

// RegisterRoutes mounts every endpoint on the engine.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/", h.Health)

	users := r.Group("/api/users")
	{
		users.POST("/sign-up", h.SignUp)
		users.POST("/login", h.Login)
		users.GET("", h.ListUsers)
		users.GET("/:userId", h.GetUser)
		users.GET("/:userId/profile", h.GetProfile)
		users.PUT("/:userId/status", h.UpdateStatus)
		users.PUT("/:userId/update", h.UpdateProfile)
		users.POST("/:userId/logout", h.Logout)

		users.POST("/:userId/follow-request/:targetId", h.SendFollowRequest)
		users.POST("/:userId/accept-follow/:requesterId", h.AcceptFollowRequest)
		users.POST("/:userId/reject-follow/:requesterId", h.RejectFollowRequest)
		users.POST("/:userId/unfollow/:targetId", h.Unfollow)
		users.GET("/:userId/follow-requests", h.ListFollowRequests)
		users.GET("/:userId/followers", h.ListFollowers)
		users.GET("/:userId/following", h.ListFollowing)
		users.GET("/:userId/follow-status/:targetId", h.FollowStatus)
		users.GET("/:userId/sent-follow-requests", h.ListSentFollowRequests)
		users.GET("/:userId/follow-info", h.FollowInfo)
	}

	rooms := r.Group("/api/chatrooms")
	{
		rooms.POST("/create", h.CreateRoom)
		rooms.GET("", h.ListRooms)
		rooms.GET("/:roomId", h.GetRoom)
		rooms.DELETE("/:roomId", h.DeleteRoom)
		rooms.POST("/:roomId/members", h.AddRoomMember)
		// Backward-compatible alias.
		rooms.POST("/:roomId/addMember", h.AddRoomMember)
		rooms.DELETE("/:roomId/members/:memberId", h.RemoveRoomMember)
	}

	messages := r.Group("/api/messages")
	{
		messages.POST("/send", h.SendMessage)
		messages.GET("/between/:userId1/:userId2", h.MessagesBetween)
		messages.GET("/:receiverId", h.MessagesByTarget)
		messages.DELETE("/conversation/clear", h.ClearConversation)
		messages.DELETE("/:messageId", h.DeleteMessage)
		messages.PUT("/:messageId/reactions", h.ToggleReaction)
		messages.DELETE("/:messageId/reactions", h.RemoveReaction)
		messages.PUT("/:messageId/read", h.MarkMessageRead)
	}

	if h.Hub != nil {
		r.GET("/ws", h.ServeWebSocket)
	}
}

// Health is the root liveness payload.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "ChatWave backend is running"})
}

// respondError maps a domain error to its status. Internal detail is
// logged, never surfaced.
func respondError(c *gin.Context, err error) {
	status := errs.ToHTTP(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.Printf("ERROR: %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		msg = "Internal server error"
	}
	c.JSON(status, gin.H{"message": msg})
}
