package storage

import (
	"context"
	"encoding/json"

	"chatwave/backend/internal/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Storage is the durable-store contract consumed by the resolver, the
// reaction ledger, the fan-out router and the HTTP handlers. Lookups
// return (nil, nil) when the record does not exist; a non-nil error
// always means the store itself failed.
type Storage interface {
	// Identity directory
	CreateUser(user *models.User) error
	FindUserByID(id string) (*models.User, error)
	FindUserByEmail(email string) (*models.User, error)
	FindUserByEmailOrUsername(email, username string) (*models.User, error)
	ListUsers() ([]models.User, error)
	UpdateUserProfile(id string, updates map[string]any) (*models.User, error)
	SetOnlineStatus(id string, online bool) (*models.User, error)
	UsernameTaken(username, excludeID string) (bool, error)

	// Follow graph
	AddFollowRequest(requesterID, targetID string) error
	RemoveFollowRequest(requesterID, targetID string) (bool, error)
	HasFollowRequest(requesterID, targetID string) (bool, error)
	AcceptFollow(requesterID, targetID string) error
	RemoveFollow(followerID, followeeID string) error
	IsFollowing(followerID, followeeID string) (bool, error)
	ListFollowing(userID string) ([]models.User, error)
	ListFollowers(userID string) ([]models.User, error)
	ListFollowRequests(targetID string) ([]models.User, error)
	ListSentFollowRequests(requesterID string) ([]models.User, error)

	// Rooms
	CreateRoom(room *models.ChatRoom) error
	FindRoomByID(id string) (*models.ChatRoom, error)
	ListRooms(memberID string) ([]models.ChatRoom, error)
	AddRoomMember(roomID, userID string) error
	RemoveRoomMember(roomID, userID string) error
	DeleteRoom(id string) (*models.ChatRoom, error)

	// Messages
	CreateMessage(msg *models.Message) error
	FindMessageByID(id string) (*models.Message, error)
	FindMessagesBetween(userA, userB string) ([]models.Message, error)
	FindMessagesByTarget(targetID string) ([]models.Message, error)
	DeleteMessage(id string) error
	DeleteDirectConversation(userA, userB string) (int64, error)
	DeleteRoomConversation(roomID string) (int64, error)
	MarkMessageRead(id string) (*models.Message, error)

	// Reactions
	GetReaction(messageID, userID string) (*models.Reaction, error)
	AddReaction(reaction *models.Reaction) error
	UpdateReactionEmoji(messageID, userID, emoji string) error
	DeleteReaction(messageID, userID string) (bool, error)

	// Event bus
	PublishEvent(env EventEnvelope) error
}

// EventEnvelope is what crosses the redis bus between instances. Origin
// lets an instance skip envelopes it published itself.
type EventEnvelope struct {
	Origin   string          `json:"origin"`
	Channels []string        `json:"channels"`
	Event    string          `json:"event"`
	Payload  json.RawMessage `json:"payload"`
}

// EventBusChannel is the redis pub/sub channel carrying fan-out
// envelopes between server instances.
const EventBusChannel = "chat:events"

// Service implements Storage over PostgreSQL (gorm) and Redis.
type Service struct {
	DB    *gorm.DB
	Redis *redis.Client
	Ctx   context.Context
}

// NewService constructs the storage service. The redis client may be
// nil for single-instance deployments; the event bus then becomes a
// no-op.
func NewService(db *gorm.DB, rdb *redis.Client) *Service {
	return &Service{
		DB:    db,
		Redis: rdb,
		Ctx:   context.Background(),
	}
}

// PublishEvent puts a fan-out envelope on the redis bus.
func (s *Service) PublishEvent(env EventEnvelope) error {
	if s.Redis == nil {
		return nil
	}
	raw, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return s.Redis.Publish(s.Ctx, EventBusChannel, string(raw)).Err()
}

// SubscribeEvents opens the redis subscription used by the session
// registry to receive envelopes published by other instances.
func (s *Service) SubscribeEvents() *redis.PubSub {
	return s.Redis.Subscribe(s.Ctx, EventBusChannel)
}
