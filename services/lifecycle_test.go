package services

import (
	"classified-ads-server/models"
	"context"
	"errors"
	"testing"
)

func seedMessage(t *testing.T, svc *MessageService) *models.Message {
	t.Helper()
	message, err := svc.Send(context.Background(), buyerID, SendMessageInput{
		ListingID: uintPtr(10),
		Content:   "lifecycle target",
	})
	if err != nil {
		t.Fatalf("seeding message: %v", err)
	}
	return message
}

func TestSoftDeleteOwnershipAndIdempotence(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	message := seedMessage(t, svc)

	if err := svc.SoftDelete(ctx, message.ID, otherUserID); !errors.Is(err, ErrNotOwner) {
		t.Errorf("bystander delete: got %v, want ErrNotOwner", err)
	}
	if err := svc.SoftDelete(ctx, 9999, buyerID); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing id: got %v, want ErrNotFound", err)
	}

	if err := svc.SoftDelete(ctx, message.ID, buyerID); err != nil {
		t.Fatalf("first delete: %v", err)
	}
	// Idempotent: the second delete is a no-op success, not an error.
	if err := svc.SoftDelete(ctx, message.ID, sellerID); err != nil {
		t.Errorf("repeat delete: got %v, want nil", err)
	}

	var row models.Message
	if err := db.First(&row, message.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if row.DeletedAt == nil {
		t.Errorf("deleted_at not set")
	}
}

func TestRestoreStateMachine(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	message := seedMessage(t, svc)

	// Restore is only legal from soft-deleted.
	if err := svc.Restore(ctx, message.ID, buyerID); !errors.Is(err, ErrInvalidState) {
		t.Errorf("restore active: got %v, want ErrInvalidState", err)
	}

	if err := svc.SoftDelete(ctx, message.ID, buyerID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.Restore(ctx, message.ID, otherUserID); !errors.Is(err, ErrNotOwner) {
		t.Errorf("bystander restore: got %v, want ErrNotOwner", err)
	}
	if err := svc.Restore(ctx, message.ID, buyerID); err != nil {
		t.Fatalf("restore: %v", err)
	}

	var row models.Message
	if err := db.First(&row, message.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if row.DeletedAt != nil {
		t.Errorf("deleted_at not cleared by restore")
	}
}

func TestPermanentDeleteIsTerminal(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	message := seedMessage(t, svc)

	// Purge is only reachable through the soft-deleted state.
	if err := svc.PermanentlyDelete(ctx, message.ID, buyerID); !errors.Is(err, ErrInvalidState) {
		t.Errorf("purge active: got %v, want ErrInvalidState", err)
	}

	if err := svc.SoftDelete(ctx, message.ID, buyerID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.PermanentlyDelete(ctx, message.ID, otherUserID); !errors.Is(err, ErrNotOwner) {
		t.Errorf("bystander purge: got %v, want ErrNotOwner", err)
	}
	if err := svc.PermanentlyDelete(ctx, message.ID, buyerID); err != nil {
		t.Fatalf("purge: %v", err)
	}

	var count int64
	db.Model(&models.Message{}).Where("id = ?", message.ID).Count(&count)
	if count != 0 {
		t.Errorf("row still present after purge")
	}

	var tombstone models.PurgedMessage
	if err := db.First(&tombstone, message.ID).Error; err != nil {
		t.Fatalf("tombstone missing: %v", err)
	}

	var audit models.AuditLog
	if err := db.Where("action = ? AND resource_id = ?", "message.purge", message.ID).First(&audit).Error; err != nil {
		t.Errorf("audit row missing: %v", err)
	}

	// Every lifecycle operation on a purged id reports the terminal state,
	// not a plain not-found.
	if err := svc.Restore(ctx, message.ID, buyerID); !errors.Is(err, ErrInvalidState) {
		t.Errorf("restore purged: got %v, want ErrInvalidState", err)
	}
	if err := svc.SoftDelete(ctx, message.ID, buyerID); !errors.Is(err, ErrInvalidState) {
		t.Errorf("delete purged: got %v, want ErrInvalidState", err)
	}
	if err := svc.PermanentlyDelete(ctx, message.ID, buyerID); !errors.Is(err, ErrInvalidState) {
		t.Errorf("purge purged: got %v, want ErrInvalidState", err)
	}
}
