package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Message kinds accepted on send.
const (
	MessageTypeText  = "text"
	MessageTypeImage = "image"
	MessageTypeFile  = "file"
)

// Encryption methods accepted on send. A message that is not encrypted
// always carries EncryptionNone.
const (
	EncryptionAES     = "AES"
	EncryptionRSA     = "RSA"
	EncryptionE2EEGCM = "E2EE-AES-GCM"
	EncryptionNone    = "none"
)

// ValidMessageType reports whether t is an accepted message type.
func ValidMessageType(t string) bool {
	return t == MessageTypeText || t == MessageTypeImage || t == MessageTypeFile
}

// ValidEncryptionMethod reports whether m is an accepted encryption method.
func ValidEncryptionMethod(m string) bool {
	switch m {
	case EncryptionAES, EncryptionRSA, EncryptionE2EEGCM, EncryptionNone:
		return true
	}
	return false
}

// Message belongs to exactly one conversation, identified by the
// (sender, receiver-or-room) pair. ReceiverOrRoomID is polymorphic: it
// holds either a peer user id or a room id and is disambiguated by
// lookup, never by a stored flag.
type Message struct {
	ID               string  `gorm:"primaryKey" json:"_id"`
	SenderUserID     string  `gorm:"not null;index:idx_conversation" json:"senderUserId"`
	ReceiverOrRoomID string  `gorm:"not null;index:idx_conversation" json:"receiverUserIdOrRoomId"`
	MessageContent   string  `gorm:"not null" json:"messageContent"`
	MessageType      string  `gorm:"default:text" json:"messageType"`
	ReadStatus       bool    `json:"readStatus"`
	IsEncrypted      bool    `json:"isEncrypted"`
	EncryptionMethod string  `gorm:"default:none" json:"encryptionMethod"`
	ReplyToID        *string `gorm:"index" json:"replyTo"`

	// Reactions holds at most one entry per user; the composite key on
	// (message_id, user_id) enforces that structurally.
	Reactions []Reaction `gorm:"foreignKey:MessageID;constraint:OnDelete:CASCADE" json:"reactions"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BeforeCreate generates the message's UUID if one was not supplied.
func (m *Message) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return
}

// Reaction is a single user's emoji on a message.
type Reaction struct {
	MessageID string    `gorm:"primaryKey" json:"-"`
	UserID    string    `gorm:"primaryKey" json:"user"`
	Emoji     string    `gorm:"not null" json:"emoji"`
	CreatedAt time.Time `json:"createdAt"`
}
