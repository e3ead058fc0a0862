package handler_test

import (
	"sort"
	"sync"

	"chatwave/backend/internal/models"
	"chatwave/backend/internal/storage"

	"github.com/google/uuid"
)

type pair struct{ a, b string }

// fakeStorage is an in-memory Storage so handler flows can be exercised
// end to end without a database.
type fakeStorage struct {
	mu sync.Mutex

	users    map[string]*models.User
	rooms    map[string]*models.ChatRoom
	messages map[string]*models.Message
	order    []string // message ids in insertion order

	follows   map[pair]bool
	requests  map[pair]bool
	reactions map[string]map[string]string // messageID -> userID -> emoji

	envelopes []storage.EventEnvelope
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		users:     make(map[string]*models.User),
		rooms:     make(map[string]*models.ChatRoom),
		messages:  make(map[string]*models.Message),
		follows:   make(map[pair]bool),
		requests:  make(map[pair]bool),
		reactions: make(map[string]map[string]string),
	}
}

func (f *fakeStorage) CreateUser(user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeStorage) FindUserByID(id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	copied := *user
	return &copied, nil
}

func (f *fakeStorage) FindUserByEmail(email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeStorage) FindUserByEmailOrUsername(email, username string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email || u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeStorage) ListUsers() ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var users []models.User
	for _, u := range f.users {
		users = append(users, *u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (f *fakeStorage) UpdateUserProfile(id string, updates map[string]any) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	for column, value := range updates {
		s, _ := value.(string)
		switch column {
		case "bio":
			user.Bio = s
		case "avatar_url":
			user.AvatarURL = s
		case "username":
			user.Username = s
		case "phone_number":
			user.PhoneNumber = s
		case "e2e_public_key":
			user.E2EPublicKey = s
		}
	}
	copied := *user
	return &copied, nil
}

func (f *fakeStorage) SetOnlineStatus(id string, online bool) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	user.OnlineStatus = online
	copied := *user
	return &copied, nil
}

func (f *fakeStorage) UsernameTaken(username, excludeID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == username && u.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStorage) AddFollowRequest(requesterID, targetID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests[pair{requesterID, targetID}] = true
	return nil
}

func (f *fakeStorage) RemoveFollowRequest(requesterID, targetID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := pair{requesterID, targetID}
	if !f.requests[key] {
		return false, nil
	}
	delete(f.requests, key)
	return true, nil
}

func (f *fakeStorage) HasFollowRequest(requesterID, targetID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[pair{requesterID, targetID}], nil
}

func (f *fakeStorage) AcceptFollow(requesterID, targetID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.requests, pair{requesterID, targetID})
	f.follows[pair{requesterID, targetID}] = true
	return nil
}

func (f *fakeStorage) RemoveFollow(followerID, followeeID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.follows, pair{followerID, followeeID})
	return nil
}

func (f *fakeStorage) IsFollowing(followerID, followeeID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.follows[pair{followerID, followeeID}], nil
}

func (f *fakeStorage) usersFor(ids []string) []models.User {
	var users []models.User
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			users = append(users, *u)
		}
	}
	return users
}

func (f *fakeStorage) ListFollowing(userID string) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []string
	for edge := range f.follows {
		if edge.a == userID {
			ids = append(ids, edge.b)
		}
	}
	sort.Strings(ids)
	return f.usersFor(ids), nil
}

func (f *fakeStorage) ListFollowers(userID string) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []string
	for edge := range f.follows {
		if edge.b == userID {
			ids = append(ids, edge.a)
		}
	}
	sort.Strings(ids)
	return f.usersFor(ids), nil
}

func (f *fakeStorage) ListFollowRequests(targetID string) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []string
	for edge := range f.requests {
		if edge.b == targetID {
			ids = append(ids, edge.a)
		}
	}
	sort.Strings(ids)
	return f.usersFor(ids), nil
}

func (f *fakeStorage) ListSentFollowRequests(requesterID string) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []string
	for edge := range f.requests {
		if edge.a == requesterID {
			ids = append(ids, edge.b)
		}
	}
	sort.Strings(ids)
	return f.usersFor(ids), nil
}

func (f *fakeStorage) CreateRoom(room *models.ChatRoom) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if room.ID == "" {
		room.ID = uuid.New().String()
	}
	copied := *room
	copied.Members = append([]models.User(nil), room.Members...)
	f.rooms[room.ID] = &copied
	return nil
}

func (f *fakeStorage) FindRoomByID(id string) (*models.ChatRoom, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	room, ok := f.rooms[id]
	if !ok {
		return nil, nil
	}
	copied := *room
	copied.Members = append([]models.User(nil), room.Members...)
	return &copied, nil
}

func (f *fakeStorage) ListRooms(memberID string) ([]models.ChatRoom, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var rooms []models.ChatRoom
	for _, r := range f.rooms {
		if memberID != "" && !r.HasMember(memberID) {
			continue
		}
		copied := *r
		copied.Members = append([]models.User(nil), r.Members...)
		rooms = append(rooms, copied)
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].ID < rooms[j].ID })
	return rooms, nil
}

func (f *fakeStorage) AddRoomMember(roomID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	room, ok := f.rooms[roomID]
	if !ok {
		return nil
	}
	if user, exists := f.users[userID]; exists && !room.HasMember(userID) {
		room.Members = append(room.Members, *user)
	}
	return nil
}

func (f *fakeStorage) RemoveRoomMember(roomID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	room, ok := f.rooms[roomID]
	if !ok {
		return nil
	}
	members := room.Members[:0]
	for _, m := range room.Members {
		if m.ID != userID {
			members = append(members, m)
		}
	}
	room.Members = members
	return nil
}

func (f *fakeStorage) DeleteRoom(id string) (*models.ChatRoom, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	room, ok := f.rooms[id]
	if !ok {
		return nil, nil
	}
	delete(f.rooms, id)
	return room, nil
}

func (f *fakeStorage) CreateMessage(msg *models.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	copied := *msg
	f.messages[msg.ID] = &copied
	f.order = append(f.order, msg.ID)
	return nil
}

func (f *fakeStorage) messageWithReactions(id string) *models.Message {
	msg, ok := f.messages[id]
	if !ok {
		return nil
	}
	copied := *msg
	copied.Reactions = []models.Reaction{}
	var userIDs []string
	for userID := range f.reactions[id] {
		userIDs = append(userIDs, userID)
	}
	sort.Strings(userIDs)
	for _, userID := range userIDs {
		copied.Reactions = append(copied.Reactions, models.Reaction{
			MessageID: id, UserID: userID, Emoji: f.reactions[id][userID],
		})
	}
	return &copied
}

func (f *fakeStorage) FindMessageByID(id string) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.messageWithReactions(id), nil
}

func (f *fakeStorage) FindMessagesBetween(userA, userB string) ([]models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var msgs []models.Message
	for _, id := range f.order {
		m, ok := f.messages[id]
		if !ok {
			continue
		}
		direct := (m.SenderUserID == userA && m.ReceiverOrRoomID == userB) ||
			(m.SenderUserID == userB && m.ReceiverOrRoomID == userA)
		if direct {
			msgs = append(msgs, *f.messageWithReactions(id))
		}
	}
	return msgs, nil
}

func (f *fakeStorage) FindMessagesByTarget(targetID string) ([]models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var msgs []models.Message
	for _, id := range f.order {
		if m, ok := f.messages[id]; ok && m.ReceiverOrRoomID == targetID {
			msgs = append(msgs, *f.messageWithReactions(id))
		}
	}
	return msgs, nil
}

func (f *fakeStorage) DeleteMessage(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.messages, id)
	delete(f.reactions, id)
	return nil
}

func (f *fakeStorage) DeleteDirectConversation(userA, userB string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var deleted int64
	for id, m := range f.messages {
		direct := (m.SenderUserID == userA && m.ReceiverOrRoomID == userB) ||
			(m.SenderUserID == userB && m.ReceiverOrRoomID == userA)
		if direct {
			delete(f.messages, id)
			delete(f.reactions, id)
			deleted++
		}
	}
	return deleted, nil
}

func (f *fakeStorage) DeleteRoomConversation(roomID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var deleted int64
	for id, m := range f.messages {
		if m.ReceiverOrRoomID == roomID {
			delete(f.messages, id)
			delete(f.reactions, id)
			deleted++
		}
	}
	return deleted, nil
}

func (f *fakeStorage) MarkMessageRead(id string) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg, ok := f.messages[id]
	if !ok {
		return nil, nil
	}
	msg.ReadStatus = true
	return f.messageWithReactions(id), nil
}

func (f *fakeStorage) GetReaction(messageID, userID string) (*models.Reaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	emoji, ok := f.reactions[messageID][userID]
	if !ok {
		return nil, nil
	}
	return &models.Reaction{MessageID: messageID, UserID: userID, Emoji: emoji}, nil
}

func (f *fakeStorage) AddReaction(r *models.Reaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.reactions[r.MessageID] == nil {
		f.reactions[r.MessageID] = make(map[string]string)
	}
	f.reactions[r.MessageID][r.UserID] = r.Emoji
	return nil
}

func (f *fakeStorage) UpdateReactionEmoji(messageID, userID, emoji string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.reactions[messageID] == nil {
		return nil
	}
	f.reactions[messageID][userID] = emoji
	return nil
}

func (f *fakeStorage) DeleteReaction(messageID, userID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.reactions[messageID][userID]; !ok {
		return false, nil
	}
	delete(f.reactions[messageID], userID)
	return true, nil
}

func (f *fakeStorage) PublishEvent(env storage.EventEnvelope) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.envelopes = append(f.envelopes, env)
	return nil
}
