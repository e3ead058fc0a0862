package chathub_test

import (
	"chatwave/backend/internal/models"
)

type MockClient struct {
	sessionID   string
	userID      string
	closed      bool
	RecvChannel chan models.RealtimeEvent
}

func newMockClient(sessionID, userID string) *MockClient {
	return &MockClient{
		sessionID:   sessionID,
		userID:      userID,
		RecvChannel: make(chan models.RealtimeEvent, 10),
	}
}

func (c *MockClient) GetSessionID() string {
	return c.sessionID
}

func (c *MockClient) GetUserID() string {
	return c.userID
}

func (c *MockClient) GetSendChannel() chan<- models.RealtimeEvent {
	return c.RecvChannel
}

func (c *MockClient) Run() {
	// Not needed for testing
}

func (c *MockClient) Close() {
	c.closed = true
}

// receivedEvents drains everything currently queued for the client.
func (c *MockClient) receivedEvents() []models.RealtimeEvent {
	var events []models.RealtimeEvent
	for {
		select {
		case ev := <-c.RecvChannel:
			events = append(events, ev)
		default:
			return events
		}
	}
}
