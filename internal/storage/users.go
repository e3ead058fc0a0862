package storage

import (
	"errors"
	"log"
	"time"

	"chatwave/backend/internal/models"

	"gorm.io/gorm"
)

// CreateUser inserts a new user record.
func (s *Service) CreateUser(user *models.User) error {
	if err := s.DB.Create(user).Error; err != nil {
		log.Printf("ERROR: Failed to create user %s: %v", user.Username, err)
		return err
	}
	return nil
}

// FindUserByID returns the user or (nil, nil) when absent.
func (s *Service) FindUserByID(id string) (*models.User, error) {
	var user models.User
	err := s.DB.Where("id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindUserByEmail returns the user or (nil, nil) when absent.
func (s *Service) FindUserByEmail(email string) (*models.User, error) {
	var user models.User
	err := s.DB.Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindUserByEmailOrUsername returns the first user matching either
// field, or (nil, nil) when absent. Used for uniqueness checks on
// sign-up.
func (s *Service) FindUserByEmailOrUsername(email, username string) (*models.User, error) {
	var user models.User
	err := s.DB.Where("email = ? OR username = ?", email, username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ListUsers returns every user, ordered by creation time.
func (s *Service) ListUsers() ([]models.User, error) {
	var users []models.User
	if err := s.DB.Order("created_at asc").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// UpdateUserProfile applies the given column updates and returns the
// fresh record, or (nil, nil) when the user does not exist.
func (s *Service) UpdateUserProfile(id string, updates map[string]any) (*models.User, error) {
	if len(updates) > 0 {
		res := s.DB.Model(&models.User{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			return nil, res.Error
		}
	}
	return s.FindUserByID(id)
}

// SetOnlineStatus flips the online flag and returns the fresh record.
func (s *Service) SetOnlineStatus(id string, online bool) (*models.User, error) {
	return s.UpdateUserProfile(id, map[string]any{"online_status": online})
}

// UsernameTaken reports whether another user already holds the username.
func (s *Service) UsernameTaken(username, excludeID string) (bool, error) {
	var count int64
	err := s.DB.Model(&models.User{}).
		Where("username = ? AND id <> ?", username, excludeID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// AddFollowRequest records a pending request from requester to target.
func (s *Service) AddFollowRequest(requesterID, targetID string) error {
	req := models.FollowRequest{
		RequesterID: requesterID,
		TargetID:    targetID,
		CreatedAt:   time.Now(),
	}
	return s.DB.Create(&req).Error
}

// RemoveFollowRequest deletes the pending request and reports whether
// one existed.
func (s *Service) RemoveFollowRequest(requesterID, targetID string) (bool, error) {
	res := s.DB.Where("requester_id = ? AND target_id = ?", requesterID, targetID).
		Delete(&models.FollowRequest{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// HasFollowRequest reports whether a pending request exists.
func (s *Service) HasFollowRequest(requesterID, targetID string) (bool, error) {
	var count int64
	err := s.DB.Model(&models.FollowRequest{}).
		Where("requester_id = ? AND target_id = ?", requesterID, targetID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// AcceptFollow converts a pending request into a follow edge. Both
// writes run in one transaction so the request and the edge can never
// coexist for a pair.
func (s *Service) AcceptFollow(requesterID, targetID string) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("requester_id = ? AND target_id = ?", requesterID, targetID).
			Delete(&models.FollowRequest{}).Error; err != nil {
			return err
		}
		edge := models.Follow{
			FollowerID: requesterID,
			FolloweeID: targetID,
			CreatedAt:  time.Now(),
		}
		// Re-accepting is idempotent.
		var count int64
		if err := tx.Model(&models.Follow{}).
			Where("follower_id = ? AND followee_id = ?", requesterID, targetID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		return tx.Create(&edge).Error
	})
}

// RemoveFollow drops the follower -> followee edge.
func (s *Service) RemoveFollow(followerID, followeeID string) error {
	return s.DB.Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Delete(&models.Follow{}).Error
}

// IsFollowing reports whether follower follows followee. This single
// check gates direct messaging.
func (s *Service) IsFollowing(followerID, followeeID string) (bool, error) {
	var count int64
	err := s.DB.Model(&models.Follow{}).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListFollowing returns the users that userID follows.
func (s *Service) ListFollowing(userID string) ([]models.User, error) {
	var users []models.User
	err := s.DB.
		Joins("JOIN follows ON follows.followee_id = users.id").
		Where("follows.follower_id = ?", userID).
		Order("follows.created_at asc").
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

// ListFollowers returns the users following userID.
func (s *Service) ListFollowers(userID string) ([]models.User, error) {
	var users []models.User
	err := s.DB.
		Joins("JOIN follows ON follows.follower_id = users.id").
		Where("follows.followee_id = ?", userID).
		Order("follows.created_at asc").
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

// ListFollowRequests returns the users with a pending request to
// targetID.
func (s *Service) ListFollowRequests(targetID string) ([]models.User, error) {
	var users []models.User
	err := s.DB.
		Joins("JOIN follow_requests ON follow_requests.requester_id = users.id").
		Where("follow_requests.target_id = ?", targetID).
		Order("follow_requests.created_at asc").
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

// ListSentFollowRequests returns the users requesterID has pending
// requests towards.
func (s *Service) ListSentFollowRequests(requesterID string) ([]models.User, error) {
	var users []models.User
	err := s.DB.
		Joins("JOIN follow_requests ON follow_requests.target_id = users.id").
		Where("follow_requests.requester_id = ?", requesterID).
		Order("follow_requests.created_at asc").
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}
