package storage

import (
	"errors"
	"log"
	"time"

	"chatwave/backend/internal/models"

	"gorm.io/gorm"
)

// preloadReactions orders each message's reactions by insertion time so
// clients render them stably.
func preloadReactions(db *gorm.DB) *gorm.DB {
	return db.Preload("Reactions", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("reactions.created_at asc")
	})
}

// CreateMessage inserts a message record.
func (s *Service) CreateMessage(msg *models.Message) error {
	if err := s.DB.Create(msg).Error; err != nil {
		log.Printf("ERROR: Failed to save message for target %s: %v", msg.ReceiverOrRoomID, err)
		return err
	}
	return nil
}

// FindMessageByID returns the message with reactions preloaded, or
// (nil, nil) when absent.
func (s *Service) FindMessageByID(id string) (*models.Message, error) {
	var msg models.Message
	err := preloadReactions(s.DB).Where("id = ?", id).First(&msg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// FindMessagesBetween returns the direct conversation between two users
// in either direction, oldest first.
func (s *Service) FindMessagesBetween(userA, userB string) ([]models.Message, error) {
	var msgs []models.Message
	err := preloadReactions(s.DB).
		Where("(sender_user_id = ? AND receiver_or_room_id = ?) OR (sender_user_id = ? AND receiver_or_room_id = ?)",
			userA, userB, userB, userA).
		Order("created_at asc").
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

// FindMessagesByTarget returns every message addressed to the given
// room or user id, oldest first.
func (s *Service) FindMessagesByTarget(targetID string) ([]models.Message, error) {
	var msgs []models.Message
	err := preloadReactions(s.DB).
		Where("receiver_or_room_id = ?", targetID).
		Order("created_at asc").
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

// DeleteMessage removes a single message.
func (s *Service) DeleteMessage(id string) error {
	return s.DB.Delete(&models.Message{}, "id = ?", id).Error
}

// DeleteDirectConversation removes all messages between the pair in
// either direction and returns the removed count.
func (s *Service) DeleteDirectConversation(userA, userB string) (int64, error) {
	res := s.DB.
		Where("(sender_user_id = ? AND receiver_or_room_id = ?) OR (sender_user_id = ? AND receiver_or_room_id = ?)",
			userA, userB, userB, userA).
		Delete(&models.Message{})
	return res.RowsAffected, res.Error
}

// DeleteRoomConversation removes every message addressed to the room
// and returns the removed count.
func (s *Service) DeleteRoomConversation(roomID string) (int64, error) {
	res := s.DB.Where("receiver_or_room_id = ?", roomID).Delete(&models.Message{})
	return res.RowsAffected, res.Error
}

// MarkMessageRead flips the read flag and returns the fresh record, or
// (nil, nil) when the message does not exist.
func (s *Service) MarkMessageRead(id string) (*models.Message, error) {
	res := s.DB.Model(&models.Message{}).Where("id = ?", id).Update("read_status", true)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return s.FindMessageByID(id)
}

// GetReaction returns the user's reaction on a message, or (nil, nil)
// when there is none.
func (s *Service) GetReaction(messageID, userID string) (*models.Reaction, error) {
	var r models.Reaction
	err := s.DB.Where("message_id = ? AND user_id = ?", messageID, userID).First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// AddReaction inserts a reaction row.
func (s *Service) AddReaction(reaction *models.Reaction) error {
	if reaction.CreatedAt.IsZero() {
		reaction.CreatedAt = time.Now()
	}
	return s.DB.Create(reaction).Error
}

// UpdateReactionEmoji overwrites the emoji of an existing reaction.
func (s *Service) UpdateReactionEmoji(messageID, userID, emoji string) error {
	return s.DB.Model(&models.Reaction{}).
		Where("message_id = ? AND user_id = ?", messageID, userID).
		Update("emoji", emoji).Error
}

// DeleteReaction removes the user's reaction and reports whether one
// existed.
func (s *Service) DeleteReaction(messageID, userID string) (bool, error) {
	res := s.DB.Where("message_id = ? AND user_id = ?", messageID, userID).
		Delete(&models.Reaction{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
