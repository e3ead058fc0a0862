package chathub

import "chatwave/backend/internal/models"

// Client is the interface for one live connection. It abstracts the
// underlying transport so the Manager can register, address, and drop
// sessions uniformly.
type Client interface {
	// GetSessionID returns the unique identifier for this connection.
	GetSessionID() string
	// GetUserID returns the identity the session declared on connect,
	// or "" for anonymous sessions.
	GetUserID() string

	// GetSendChannel returns the channel the Manager writes outbound
	// events to. It is a send-only channel.
	GetSendChannel() chan<- models.RealtimeEvent

	// Run starts the client's read and write pumps.
	Run()
	// Close shuts down the client's connection and send channel.
	Close()
}
