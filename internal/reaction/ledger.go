package reaction

import (
	"chatwave/backend/internal/errs"
	"chatwave/backend/internal/models"
)

// Action describes what a toggle did to the reaction set.
type Action string

const (
	ActionAdded   Action = "added"
	ActionChanged Action = "changed"
	ActionRemoved Action = "removed"
)

// Store is the persistence surface the ledger needs. Lookups return
// (nil, nil) on a miss.
type Store interface {
	FindMessageByID(id string) (*models.Message, error)
	GetReaction(messageID, userID string) (*models.Reaction, error)
	AddReaction(reaction *models.Reaction) error
	UpdateReactionEmoji(messageID, userID, emoji string) error
	DeleteReaction(messageID, userID string) (bool, error)
}

// Ledger mutates per-message reaction sets with toggle semantics: at
// most one reaction per user per message.
type Ledger struct {
	store Store
}

func NewLedger(store Store) *Ledger {
	return &Ledger{store: store}
}

// Toggle applies a user's emoji to a message. No existing reaction
// appends one; the same emoji removes it; a different emoji overwrites
// it in place. Returns the action taken and the message with its fresh
// reaction set.
func (l *Ledger) Toggle(messageID, userID, emoji string) (Action, *models.Message, error) {
	if userID == "" || emoji == "" {
		return "", nil, errs.Validation("userId and emoji are required")
	}

	msg, err := l.store.FindMessageByID(messageID)
	if err != nil {
		return "", nil, err
	}
	if msg == nil {
		return "", nil, errs.NotFound("Message not found")
	}

	existing, err := l.store.GetReaction(messageID, userID)
	if err != nil {
		return "", nil, err
	}

	var action Action
	switch {
	case existing == nil:
		action = ActionAdded
		err = l.store.AddReaction(&models.Reaction{MessageID: messageID, UserID: userID, Emoji: emoji})
	case existing.Emoji == emoji:
		action = ActionRemoved
		_, err = l.store.DeleteReaction(messageID, userID)
	default:
		action = ActionChanged
		err = l.store.UpdateReactionEmoji(messageID, userID, emoji)
	}
	if err != nil {
		return "", nil, err
	}

	fresh, err := l.store.FindMessageByID(messageID)
	if err != nil {
		return "", nil, err
	}
	return action, fresh, nil
}

// Remove drops the user's reaction outright. Fails when the user holds
// none.
func (l *Ledger) Remove(messageID, userID string) (*models.Message, error) {
	if userID == "" {
		return nil, errs.Validation("userId is required")
	}

	msg, err := l.store.FindMessageByID(messageID)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, errs.NotFound("Message not found")
	}

	removed, err := l.store.DeleteReaction(messageID, userID)
	if err != nil {
		return nil, err
	}
	if !removed {
		return nil, errs.NotFound("Reaction not found for this user")
	}
	return l.store.FindMessageByID(messageID)
}
