package handler

import (
	"net/http"
	"strings"

	"chatwave/backend/internal/errs"
	"chatwave/backend/internal/models"
	"chatwave/backend/internal/security"

	"github.com/gin-gonic/gin"
)

type signUpRequest struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignUp registers a new account.
func (h *Handler) SignUp(c *gin.Context) {
	var req signUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errs.Validation("All fields required"))
		return
	}

	username := strings.TrimSpace(req.Username)
	if username == "" {
		username = strings.TrimSpace(req.Name)
	}
	if username == "" || req.Email == "" || req.Password == "" {
		respondError(c, errs.Validation("All fields required"))
		return
	}
	if len(username) < 3 {
		respondError(c, errs.Validation("Username must be at least 3 characters"))
		return
	}

	existing, err := h.Store.FindUserByEmailOrUsername(req.Email, username)
	if err != nil {
		respondError(c, err)
		return
	}
	if existing != nil {
		respondError(c, errs.Conflict("Email or username already exists"))
		return
	}

	hash, err := security.HashPassword(req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	user := models.User{
		Username:     username,
		Email:        req.Email,
		PasswordHash: hash,
	}
	if err := h.Store.CreateUser(&user); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  "Sign-up successful",
		"userId":   user.ID,
		"username": user.Username,
		"email":    user.Email,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login verifies credentials, marks the user online and issues a
// session token.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Password == "" {
		respondError(c, errs.Validation("Email and password required"))
		return
	}

	user, err := h.Store.FindUserByEmail(req.Email)
	if err != nil {
		respondError(c, err)
		return
	}
	if user == nil || !security.ComparePassword(user.PasswordHash, req.Password) {
		respondError(c, errs.Validation("Invalid credentials"))
		return
	}

	user, err = h.Store.SetOnlineStatus(user.ID, true)
	if err != nil {
		respondError(c, err)
		return
	}

	token, err := h.Signer.Sign(user.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"token":   token,
		"user": gin.H{
			"_id":          user.ID,
			"username":     user.Username,
			"email":        user.Email,
			"onlineStatus": user.OnlineStatus,
			"e2ePublicKey": user.E2EPublicKey,
		},
	})
}

// Logout marks the user offline.
func (h *Handler) Logout(c *gin.Context) {
	user, err := h.Store.SetOnlineStatus(c.Param("userId"), false)
	if err != nil {
		respondError(c, err)
		return
	}
	if user == nil {
		respondError(c, errs.NotFound("User not found"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logout successful", "user": user})
}
