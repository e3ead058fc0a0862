package storage

import (
	"errors"
	"log"

	"chatwave/backend/internal/models"

	"gorm.io/gorm"
)

// CreateRoom inserts a room. The caller seeds Members with the creator.
func (s *Service) CreateRoom(room *models.ChatRoom) error {
	if err := s.DB.Create(room).Error; err != nil {
		log.Printf("ERROR: Failed to create room %q: %v", room.RoomName, err)
		return err
	}
	return nil
}

// FindRoomByID returns the room with its members preloaded, or
// (nil, nil) when absent.
func (s *Service) FindRoomByID(id string) (*models.ChatRoom, error) {
	var room models.ChatRoom
	err := s.DB.Preload("Members").Where("id = ?", id).First(&room).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// ListRooms returns all rooms, or only those the given member belongs
// to when memberID is non-empty.
func (s *Service) ListRooms(memberID string) ([]models.ChatRoom, error) {
	var rooms []models.ChatRoom
	q := s.DB.Preload("Members")
	if memberID != "" {
		q = q.Joins("JOIN room_members ON room_members.chat_room_id = chat_rooms.id").
			Where("room_members.user_id = ?", memberID)
	}
	if err := q.Order("chat_rooms.created_at asc").Find(&rooms).Error; err != nil {
		return nil, err
	}
	return rooms, nil
}

// AddRoomMember appends a user to the membership set.
func (s *Service) AddRoomMember(roomID, userID string) error {
	room := models.ChatRoom{ID: roomID}
	return s.DB.Model(&room).Association("Members").Append(&models.User{ID: userID})
}

// RemoveRoomMember drops a user from the membership set.
func (s *Service) RemoveRoomMember(roomID, userID string) error {
	room := models.ChatRoom{ID: roomID}
	return s.DB.Model(&room).Association("Members").Delete(&models.User{ID: userID})
}

// DeleteRoom removes the room and its membership rows and returns the
// record as it was, or (nil, nil) when absent.
func (s *Service) DeleteRoom(id string) (*models.ChatRoom, error) {
	room, err := s.FindRoomByID(id)
	if err != nil || room == nil {
		return nil, err
	}
	if err := s.DB.Model(room).Association("Members").Clear(); err != nil {
		return nil, err
	}
	if err := s.DB.Delete(&models.ChatRoom{}, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return room, nil
}
