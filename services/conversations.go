package services

import (
	"classified-ads-server/models"
	"sort"
	"time"
)

// View selects one of the four projections over the message set.
type View string

const (
	ViewIncoming View = "incoming"
	ViewSent     View = "sent"
	ViewDeleted  View = "deleted"
	ViewSupport  View = "support"
)

// ValidView reports whether v names a known view.
func ValidView(v View) bool {
	switch v {
	case ViewIncoming, ViewSent, ViewDeleted, ViewSupport:
		return true
	}
	return false
}

// ConversationKey buckets messages into threads, relative to a viewing actor.
// Listing threads key on (ListingID, CounterpartID); support threads key on
// (SupportCategory, CounterpartID) where the counterpart is the requester, so
// every desk reply lands in the same thread no matter which admin sent it.
type ConversationKey struct {
	ListingID       uint   `json:"listingID"`
	SupportCategory string `json:"supportCategory"`
	CounterpartID   uint   `json:"counterpartID"`
}

// less gives a total order over keys, used only as a sort tie-break so view
// ordering does not jitter between refreshes when timestamps collide.
func (k ConversationKey) less(o ConversationKey) bool {
	if k.ListingID != o.ListingID {
		return k.ListingID < o.ListingID
	}
	if k.SupportCategory != o.SupportCategory {
		return k.SupportCategory < o.SupportCategory
	}
	return k.CounterpartID < o.CounterpartID
}

// Party is the resolved counterpart shown on a conversation.
type Party struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatarURL"`
}

// ListingSummary is the listing card shown on a listing thread.
type ListingSummary struct {
	ID        uint    `json:"id"`
	Title     string  `json:"title"`
	Price     float64 `json:"price"`
	Currency  string  `json:"currency"`
	Thumbnail string  `json:"thumbnail"`
}

// Conversation is derived, never persisted. It is recomputed from the rows on
// every aggregation pass; the same rows and actor always produce the same
// conversations.
type Conversation struct {
	Key          ConversationKey  `json:"key"`
	Messages     []models.Message `json:"messages"` // ascending (createdAt, id)
	LastMessage  *models.Message  `json:"lastMessage"`
	LastActivity time.Time        `json:"lastActivity"`
	UnreadCount  int              `json:"unreadCount"`
	OtherParty   Party            `json:"otherParty"`
	Listing      *ListingSummary  `json:"listing"`
}

// keyFor computes the conversation key of one message from the actor's
// perspective. isDesk flags which participant ids are support-desk accounts;
// it is only consulted for support messages.
func keyFor(m *models.Message, actor uint, isDesk map[uint]bool) ConversationKey {
	if m.IsSupport() {
		// The requester is whichever participant is not the desk. When the
		// actor is the requester this is the actor itself: support threads
		// are keyed on the requester for both sides, so an admin queue
		// shows one thread per (category, requester).
		requester := m.SenderID
		if isDesk[m.SenderID] && !isDesk[m.ReceiverID] {
			requester = m.ReceiverID
		}
		return ConversationKey{SupportCategory: m.SupportCategory, CounterpartID: requester}
	}

	counterpart := m.SenderID
	if m.SenderID == actor {
		counterpart = m.ReceiverID
	}
	var listingID uint
	if m.ListingID != nil {
		listingID = *m.ListingID
	}
	return ConversationKey{ListingID: listingID, CounterpartID: counterpart}
}

// groupConversations buckets messages by conversation key and computes the
// per-thread derived fields. Pure: no store access, no hidden state.
//
// UnreadCount only counts live rows addressed to the actor, so the Sent and
// Deleted projections naturally report zero.
func groupConversations(msgs []models.Message, actor uint, isDesk map[uint]bool) []*Conversation {
	buckets := make(map[ConversationKey]*Conversation)
	for i := range msgs {
		key := keyFor(&msgs[i], actor, isDesk)
		conv, ok := buckets[key]
		if !ok {
			conv = &Conversation{Key: key}
			buckets[key] = conv
		}
		conv.Messages = append(conv.Messages, msgs[i])
	}

	conversations := make([]*Conversation, 0, len(buckets))
	for _, conv := range buckets {
		list := conv.Messages
		sort.Slice(list, func(i, j int) bool {
			if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
				return list[i].CreatedAt.Before(list[j].CreatedAt)
			}
			return list[i].ID < list[j].ID
		})

		conv.LastMessage = &list[len(list)-1]
		conv.LastActivity = conv.LastMessage.CreatedAt
		for i := range list {
			if list[i].ReceiverID == actor && !list[i].IsRead && !list[i].IsDeleted() {
				conv.UnreadCount++
			}
		}
		conversations = append(conversations, conv)
	}

	sort.SliceStable(conversations, func(i, j int) bool {
		if !conversations[i].LastActivity.Equal(conversations[j].LastActivity) {
			return conversations[i].LastActivity.After(conversations[j].LastActivity)
		}
		return conversations[i].Key.less(conversations[j].Key)
	})

	return conversations
}
