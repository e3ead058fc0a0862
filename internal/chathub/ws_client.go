package chathub

import (
	"encoding/json"
	"log"
	"time"

	"chatwave/backend/internal/models"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// Large enough for SDP offers in call signaling frames.
	maxMessageSize = 64 * 1024
)

// WebSocketClient implements the Client interface over a gorilla
// connection.
type WebSocketClient struct {
	sessionID string
	userID    string

	Conn *websocket.Conn
	Hub  *Manager
	Send chan models.RealtimeEvent
}

// NewWebSocketClient wraps an upgraded connection. userID may be empty
// for anonymous sessions.
func NewWebSocketClient(hub *Manager, conn *websocket.Conn, userID string) *WebSocketClient {
	return &WebSocketClient{
		sessionID: uuid.New().String(),
		userID:    userID,
		Conn:      conn,
		Hub:       hub,
		Send:      make(chan models.RealtimeEvent, 256),
	}
}

func (c *WebSocketClient) GetSessionID() string                        { return c.sessionID }
func (c *WebSocketClient) GetUserID() string                           { return c.userID }
func (c *WebSocketClient) GetSendChannel() chan<- models.RealtimeEvent { return c.Send }

// Run starts the read and write pumps.
func (c *WebSocketClient) Run() {
	go c.writePump()
	go c.readPump()
}

// Close closes the Send channel, which stops the write pump. The read
// pump stops on its own once the connection closes.
func (c *WebSocketClient) Close() {
	close(c.Send)
}

func (c *WebSocketClient) readPump() {
	defer func() {
		c.Hub.UnregisterCh <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("error reading message: %v", err)
			}
			break
		}

		var frame models.ClientFrame
		if err := json.Unmarshal(message, &frame); err != nil {
			log.Printf("Error decoding frame from session %s: %v", c.sessionID, err)
			continue
		}

		c.Hub.FrameCh <- Inbound{Client: c, Frame: frame}
	}
}

func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Channel closed by the hub.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			data, err := json.Marshal(event)
			if err != nil {
				log.Printf("Error encoding event for session %s: %v", c.sessionID, err)
				continue
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(data)

			// Drain queued events into the same writer.
			n := len(c.Send)
			for i := 0; i < n; i++ {
				next := <-c.Send
				extra, _ := json.Marshal(next)
				w.Write(extra)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
