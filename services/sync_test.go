package services

import (
	"context"
	"testing"
	"time"
)

func TestRefresherDiscardsStaleResponse(t *testing.T) {
	release := make(chan struct{})
	calls := 0
	refresher := NewViewRefresher(time.Hour, func(ctx context.Context) ([]*Conversation, error) {
		calls++
		if calls == 1 {
			// First fetch is slow; it resolves only after a newer request
			// has already been issued and applied.
			<-release
			return []*Conversation{{Key: ConversationKey{ListingID: 1, CounterpartID: 1}}}, nil
		}
		return []*Conversation{{Key: ConversationKey{ListingID: 2, CounterpartID: 2}}}, nil
	})

	slowDone := make(chan []*Conversation)
	go func() {
		snapshot, _ := refresher.Refresh(context.Background())
		slowDone <- snapshot
	}()

	// Let the slow fetch start before issuing the superseding request.
	for refresher.reqID.Load() == 0 {
		time.Sleep(time.Millisecond)
	}

	fresh, err := refresher.Refresh(context.Background())
	if err != nil {
		t.Fatalf("fresh refresh: %v", err)
	}
	if fresh[0].Key.ListingID != 2 {
		t.Fatalf("fresh refresh returned wrong snapshot: %+v", fresh[0].Key)
	}

	close(release)
	slowSnapshot := <-slowDone

	// The stale result must not be applied: both the slow caller and Latest
	// see the newer snapshot.
	if slowSnapshot[0].Key.ListingID != 2 {
		t.Errorf("stale fetch leaked its own result: %+v", slowSnapshot[0].Key)
	}
	if latest := refresher.Latest(); latest[0].Key.ListingID != 2 {
		t.Errorf("latest overwritten by stale response: %+v", latest[0].Key)
	}
}

func TestRefresherKeepsSnapshotOnFetchError(t *testing.T) {
	fail := false
	refresher := NewViewRefresher(time.Hour, func(ctx context.Context) ([]*Conversation, error) {
		if fail {
			return nil, context.DeadlineExceeded
		}
		return []*Conversation{{Key: ConversationKey{ListingID: 7, CounterpartID: 7}}}, nil
	})

	if _, err := refresher.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	fail = true
	snapshot, err := refresher.Refresh(context.Background())
	if err == nil {
		t.Fatalf("expected fetch error to surface")
	}
	if len(snapshot) != 1 || snapshot[0].Key.ListingID != 7 {
		t.Errorf("error refresh dropped the previous snapshot: %+v", snapshot)
	}
}

func TestInvalidationBusLocalFanout(t *testing.T) {
	bus := NewInvalidationBus(nil)
	ctx := context.Background()

	ch, cancel := bus.Subscribe(ctx, 42)
	defer cancel()

	bus.Invalidate(ctx, 42)
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatalf("no signal received")
	}

	// Signals coalesce; a burst never blocks the publisher.
	bus.Invalidate(ctx, 42)
	bus.Invalidate(ctx, 42)
	bus.Invalidate(ctx, 42)
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatalf("coalesced signal missing")
	}

	// Other users' signals do not leak in.
	bus.Invalidate(ctx, 7)
	select {
	case <-ch:
		t.Fatalf("received another user's invalidation")
	case <-time.After(50 * time.Millisecond):
	}

	cancel()
	bus.Invalidate(ctx, 42)
	select {
	case <-ch:
		t.Fatalf("received signal after cancel")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMutationsInvalidateBothParticipants(t *testing.T) {
	svc, _ := newTestService(t)
	bus := NewInvalidationBus(nil)
	svc.Bus = bus
	ctx := context.Background()

	sellerCh, cancelSeller := bus.Subscribe(ctx, sellerID)
	defer cancelSeller()
	buyerCh, cancelBuyer := bus.Subscribe(ctx, buyerID)
	defer cancelBuyer()

	message, err := svc.Send(ctx, buyerID, SendMessageInput{ListingID: uintPtr(10), Content: "hi"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	expectSignal := func(ch <-chan struct{}, who string) {
		t.Helper()
		select {
		case <-ch:
		case <-time.After(time.Second):
			t.Fatalf("%s not invalidated", who)
		}
	}
	expectSignal(sellerCh, "seller on send")
	expectSignal(buyerCh, "buyer on send")

	if err := svc.SoftDelete(ctx, message.ID, sellerID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	expectSignal(sellerCh, "seller on delete")
	expectSignal(buyerCh, "buyer on delete")
}
