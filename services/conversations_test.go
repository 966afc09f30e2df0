package services

import (
	"classified-ads-server/models"
	"testing"
	"time"
)

func msg(id uint, sender, receiver uint, created time.Time) models.Message {
	return models.Message{ID: id, SenderID: sender, ReceiverID: receiver, Content: "m", CreatedAt: created}
}

func listingMsg(id uint, sender, receiver uint, listing uint, created time.Time) models.Message {
	m := msg(id, sender, receiver, created)
	m.ListingID = &listing
	return m
}

func supportMsg(id uint, sender, receiver uint, category string, created time.Time) models.Message {
	m := msg(id, sender, receiver, created)
	m.SupportCategory = category
	return m
}

func TestGroupConversationsListingKeys(t *testing.T) {
	actor := uint(1)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	msgs := []models.Message{
		listingMsg(1, 2, actor, 10, base),
		listingMsg(2, actor, 2, 10, base.Add(time.Minute)),   // reply, same thread
		listingMsg(3, 3, actor, 10, base.Add(2*time.Minute)), // other buyer, same listing
		listingMsg(4, 2, actor, 11, base.Add(3*time.Minute)), // same buyer, other listing
	}

	conversations := groupConversations(msgs, actor, nil)
	if len(conversations) != 3 {
		t.Fatalf("expected 3 conversations, got %d", len(conversations))
	}

	seen := map[ConversationKey]int{}
	for _, conv := range conversations {
		seen[conv.Key] = len(conv.Messages)
	}
	if seen[ConversationKey{ListingID: 10, CounterpartID: 2}] != 2 {
		t.Errorf("thread (10,2) should hold both directions, got %d messages", seen[ConversationKey{ListingID: 10, CounterpartID: 2}])
	}
	if seen[ConversationKey{ListingID: 10, CounterpartID: 3}] != 1 {
		t.Errorf("thread (10,3) missing")
	}
	if seen[ConversationKey{ListingID: 11, CounterpartID: 2}] != 1 {
		t.Errorf("thread (11,2) missing")
	}
}

func TestSupportAndListingThreadsStayDistinct(t *testing.T) {
	// Same counterpart, one message on the listing and one to support: two
	// threads, the listing overlap is irrelevant for the support key.
	actor := uint(1)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	msgs := []models.Message{
		listingMsg(1, 2, actor, 10, base),
		supportMsg(2, 2, actor, "billing", base.Add(time.Minute)),
	}
	isDesk := map[uint]bool{actor: true, 2: false}

	conversations := groupConversations(msgs, actor, isDesk)
	if len(conversations) != 2 {
		t.Fatalf("expected 2 conversations, got %d", len(conversations))
	}
}

func TestSupportThreadCollapsesAcrossAdmins(t *testing.T) {
	requester := uint(5)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	isDesk := map[uint]bool{2: true, 3: true, requester: false}

	msgs := []models.Message{
		supportMsg(1, requester, 2, "billing", base),
		supportMsg(2, 2, requester, "billing", base.Add(time.Minute)),
		supportMsg(3, 3, requester, "billing", base.Add(2*time.Minute)), // different admin replies
	}

	for _, actor := range []uint{requester, 2, 3} {
		conversations := groupConversations(msgs, actor, isDesk)
		if len(conversations) != 1 {
			t.Fatalf("actor %d: expected 1 thread, got %d", actor, len(conversations))
		}
		want := ConversationKey{SupportCategory: "billing", CounterpartID: requester}
		if conversations[0].Key != want {
			t.Errorf("actor %d: key = %+v, want %+v", actor, conversations[0].Key, want)
		}
		if len(conversations[0].Messages) != 3 {
			t.Errorf("actor %d: expected all 3 messages in thread, got %d", actor, len(conversations[0].Messages))
		}
	}
}

func TestMessageOrderingWithinConversation(t *testing.T) {
	actor := uint(1)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// Out of insertion order, with a timestamp tie between ids 3 and 2.
	msgs := []models.Message{
		listingMsg(3, 2, actor, 10, base.Add(time.Minute)),
		listingMsg(1, 2, actor, 10, base),
		listingMsg(2, actor, 2, 10, base.Add(time.Minute)),
	}

	conversations := groupConversations(msgs, actor, nil)
	if len(conversations) != 1 {
		t.Fatalf("expected 1 conversation, got %d", len(conversations))
	}

	got := conversations[0].Messages
	wantOrder := []uint{1, 2, 3} // tie on timestamp broken by id
	for i, want := range wantOrder {
		if got[i].ID != want {
			t.Fatalf("position %d: got id %d, want %d (order %v)", i, got[i].ID, want, wantOrder)
		}
	}
	if conversations[0].LastMessage.ID != 3 {
		t.Errorf("lastMessage = %d, want 3", conversations[0].LastMessage.ID)
	}
	if !conversations[0].LastActivity.Equal(base.Add(time.Minute)) {
		t.Errorf("lastActivity = %v", conversations[0].LastActivity)
	}
}

func TestConversationListOrderingIsStable(t *testing.T) {
	actor := uint(1)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	msgs := []models.Message{
		listingMsg(1, 2, actor, 10, base),                // older thread
		listingMsg(2, 3, actor, 11, base.Add(time.Hour)), // tied newest
		listingMsg(3, 4, actor, 12, base.Add(time.Hour)), // tied newest
	}

	first := groupConversations(msgs, actor, nil)
	if !first[0].LastActivity.After(first[2].LastActivity) {
		t.Fatalf("conversations not sorted by lastActivity desc")
	}
	// Tied threads must come back in the same relative order on every pass.
	for i := 0; i < 5; i++ {
		again := groupConversations(msgs, actor, nil)
		for j := range first {
			if first[j].Key != again[j].Key {
				t.Fatalf("pass %d: ordering jittered at %d: %+v vs %+v", i, j, first[j].Key, again[j].Key)
			}
		}
	}
}

func TestUnreadCountsOnlyLiveIncomingMessages(t *testing.T) {
	actor := uint(1)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	deletedAt := base.Add(time.Hour)

	unread := listingMsg(1, 2, actor, 10, base)
	read := listingMsg(2, 2, actor, 10, base.Add(time.Minute))
	read.IsRead = true
	outgoing := listingMsg(3, actor, 2, 10, base.Add(2*time.Minute))
	deleted := listingMsg(4, 2, actor, 10, base.Add(3*time.Minute))
	deleted.DeletedAt = &deletedAt

	conversations := groupConversations([]models.Message{unread, read, outgoing, deleted}, actor, nil)
	if len(conversations) != 1 {
		t.Fatalf("expected 1 conversation, got %d", len(conversations))
	}
	if conversations[0].UnreadCount != 1 {
		t.Errorf("unreadCount = %d, want 1", conversations[0].UnreadCount)
	}

	// From the sender's perspective the same rows carry no unread.
	fromSender := groupConversations([]models.Message{unread, read, outgoing, deleted}, 2, nil)
	if fromSender[0].UnreadCount != 0 {
		t.Errorf("sender-side unreadCount = %d, want 0", fromSender[0].UnreadCount)
	}
}

func TestAggregationIsIdempotent(t *testing.T) {
	actor := uint(1)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	msgs := []models.Message{
		listingMsg(1, 2, actor, 10, base),
		listingMsg(2, actor, 2, 10, base.Add(time.Minute)),
		supportMsg(3, actor, 9, "billing", base.Add(2*time.Minute)),
	}
	isDesk := map[uint]bool{9: true}

	a := groupConversations(msgs, actor, isDesk)
	b := groupConversations(msgs, actor, isDesk)
	if len(a) != len(b) {
		t.Fatalf("recompute changed conversation count: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].Key != b[i].Key || a[i].UnreadCount != b[i].UnreadCount ||
			len(a[i].Messages) != len(b[i].Messages) {
			t.Fatalf("recompute diverged at %d", i)
		}
	}
}
