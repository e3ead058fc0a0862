package chathub

import (
	"encoding/json"

	"chatwave/backend/internal/models"
)

// Call signaling is a best-effort relay for 1:1 WebRTC handshakes.
// Frames are routed purely to the target user's personal channel;
// anything missing a required field is dropped without an error
// response.

type callFrame struct {
	ToUserID     string          `json:"toUserId"`
	FromUserName string          `json:"fromUserName"`
	CallType     string          `json:"callType"`
	CallID       *string         `json:"callId"`
	Reason       string          `json:"reason"`
	Offer        json.RawMessage `json:"offer"`
	Answer       json.RawMessage `json:"answer"`
	Candidate    json.RawMessage `json:"candidate"`
}

func unmarshalFrame(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return json.Unmarshal([]byte("{}"), v)
	}
	return json.Unmarshal(raw, v)
}

func (m *Manager) handleSignal(in Inbound) {
	fromUserID := in.Client.GetUserID()
	if fromUserID == "" {
		return
	}

	var frame callFrame
	if err := unmarshalFrame(in.Frame.Payload, &frame); err != nil || frame.ToUserID == "" {
		return
	}

	payload := map[string]any{
		"fromUserId": fromUserID,
		"callId":     frame.CallID,
	}

	switch in.Frame.Event {
	case models.EventCallOffer:
		if len(frame.Offer) == 0 {
			return
		}
		callType := "audio"
		if frame.CallType == "video" {
			callType = "video"
		}
		payload["fromUserName"] = frame.FromUserName
		payload["callType"] = callType
		payload["offer"] = frame.Offer

	case models.EventCallAnswer:
		if len(frame.Answer) == 0 {
			return
		}
		payload["answer"] = frame.Answer

	case models.EventCallCandidate:
		if len(frame.Candidate) == 0 {
			return
		}
		payload["candidate"] = frame.Candidate

	case models.EventCallEnd:
		reason := frame.Reason
		if reason == "" {
			reason = "ended"
		}
		payload["reason"] = reason
	}

	m.deliver([]string{"user:" + frame.ToUserID}, models.RealtimeEvent{
		Event:   in.Frame.Event,
		Payload: payload,
	})
}
