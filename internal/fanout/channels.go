package fanout

import (
	"sort"
	"strings"

	"chatwave/backend/internal/conversation"

	"github.com/samber/lo"
)

// Channel name constructors. A channel is a named live-delivery
// grouping sessions subscribe to: one per user, per room, and per DM
// pair.
func UserChannel(userID string) string { return "user:" + userID }
func RoomChannel(roomID string) string { return "room:" + roomID }

// ConversationChannel is the generic per-conversation channel keyed by
// room id.
func ConversationChannel(roomID string) string { return "conversation:" + roomID }

// PairChannel is the canonical DM channel for two users. The ids are
// sorted so both directions produce the same name.
func PairChannel(userA, userB string) string {
	pair := []string{userA, userB}
	sort.Strings(pair)
	return "dm:" + strings.Join(pair, ":")
}

// ChannelsForMessage computes the channel set that must see an event
// about a message: both personal channels always, plus the room
// channels for room targets or the canonical pair channel for DMs.
func ChannelsForMessage(senderID string, target conversation.Target) []string {
	channels := []string{UserChannel(senderID), UserChannel(target.ID())}

	if target.Kind == conversation.KindRoom {
		channels = append(channels,
			RoomChannel(target.RoomID),
			ConversationChannel(target.RoomID),
		)
	} else {
		channels = append(channels, PairChannel(senderID, target.PeerID))
	}
	return lo.Uniq(channels)
}

// ChannelsForConversation computes the channel set for a
// conversation-level event. Room contexts include every current
// member's personal channel, which covers members who never joined the
// room channel directly.
func ChannelsForConversation(ctx conversation.ActorContext) []string {
	if ctx.Kind == conversation.KindDM {
		return lo.Uniq([]string{
			UserChannel(ctx.ActorID),
			UserChannel(ctx.PeerID),
			PairChannel(ctx.ActorID, ctx.PeerID),
		})
	}

	channels := []string{RoomChannel(ctx.RoomID), ConversationChannel(ctx.RoomID)}
	channels = append(channels, lo.Map(ctx.RoomMemberIDs, func(id string, _ int) string {
		return UserChannel(id)
	})...)
	return lo.Uniq(channels)
}

// ChannelsForUsers maps user ids to their personal channels, dropping
// empties and duplicates.
func ChannelsForUsers(userIDs []string) []string {
	channels := lo.FilterMap(userIDs, func(id string, _ int) (string, bool) {
		return UserChannel(id), id != ""
	})
	return lo.Uniq(channels)
}
