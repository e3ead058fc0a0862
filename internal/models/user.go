package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents a registered account. Social edges (followers,
// following, pending follow requests) live in their own join tables so
// both directions of an edge are always one row.
type User struct {
	ID           string `gorm:"primaryKey" json:"_id"`
	Username     string `gorm:"uniqueIndex;not null" json:"username"`
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`
	OnlineStatus bool   `json:"onlineStatus"`
	Bio          string `json:"bio"`
	AvatarURL    string `json:"avatarUrl"`
	PhoneNumber  string `json:"phoneNumber"`
	E2EPublicKey string `json:"e2ePublicKey"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BeforeCreate generates the user's UUID if one was not supplied.
func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return
}

// Follow is a directed edge: follower follows followee. The followee's
// "followers" list and the follower's "following" list are the two
// projections of this table, so they can never disagree.
type Follow struct {
	FollowerID string `gorm:"primaryKey"`
	FolloweeID string `gorm:"primaryKey"`
	CreatedAt  time.Time
}

// FollowRequest is a pending, asymmetric edge. Accepting it removes the
// row and inserts a Follow in the same transaction, which keeps requests
// and followers mutually exclusive for a pair.
type FollowRequest struct {
	RequesterID string `gorm:"primaryKey"`
	TargetID    string `gorm:"primaryKey"`
	CreatedAt   time.Time
}

// UserSummary is the trimmed projection embedded in follow lists and
// room member lists.
type UserSummary struct {
	ID           string    `json:"_id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	OnlineStatus bool      `json:"onlineStatus"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Summary returns the public projection of a user.
func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		OnlineStatus: u.OnlineStatus,
		CreatedAt:    u.CreatedAt,
	}
}
