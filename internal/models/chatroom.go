package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ChatRoom is a named group conversation. The creator is seeded into the
// member set on creation and can never be removed from it.
type ChatRoom struct {
	ID        string `gorm:"primaryKey" json:"_id"`
	RoomName  string `gorm:"not null" json:"roomName"`
	CreatedBy string `gorm:"not null;index" json:"createdBy"`

	// Members is backed by the room_members join table.
	Members []User `gorm:"many2many:room_members" json:"members"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BeforeCreate generates the room's UUID if one was not supplied.
func (r *ChatRoom) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return
}

// HasMember reports whether the user id is in the member set.
func (r *ChatRoom) HasMember(userID string) bool {
	for _, m := range r.Members {
		if m.ID == userID {
			return true
		}
	}
	return false
}

// MemberIDs returns the ids of all current members.
func (r *ChatRoom) MemberIDs() []string {
	ids := make([]string, 0, len(r.Members))
	for _, m := range r.Members {
		ids = append(ids, m.ID)
	}
	return ids
}
