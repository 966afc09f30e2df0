package services

import (
	"classified-ads-server/models"
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// Message lifecycle: active -> soft-deleted -> active (restore) or purged
// (terminal). All three operations are gated on the actor being a participant
// of the row. Soft delete is global to the row, not per party.

// loadForLifecycle fetches the row and runs the ownership check. A missing
// row with a purge tombstone reports ErrInvalidState (the state machine knows
// it existed); without one it is plain ErrNotFound.
func (s *MessageService) loadForLifecycle(ctx context.Context, id uint, actor uint) (*models.Message, error) {
	if actor == 0 {
		return nil, ErrUnauthenticated
	}
	var message models.Message
	err := s.db.WithContext(ctx).First(&message, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		var tombstone models.PurgedMessage
		if s.db.WithContext(ctx).First(&tombstone, id).Error == nil {
			return nil, ErrInvalidState
		}
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if message.SenderID != actor && message.ReceiverID != actor {
		return nil, ErrNotOwner
	}
	return &message, nil
}

// SoftDelete hides the message behind deleted_at. Deleting an already
// deleted message is a no-op success, so two tabs racing each other both
// land on the same state.
func (s *MessageService) SoftDelete(ctx context.Context, id uint, actor uint) error {
	message, err := s.loadForLifecycle(ctx, id, actor)
	if err != nil {
		return err
	}
	if message.IsDeleted() {
		return nil
	}

	now := time.Now()
	err = s.db.WithContext(ctx).Model(message).Update("deleted_at", &now).Error
	if err != nil {
		return err
	}
	s.invalidate(ctx, message.SenderID, message.ReceiverID)
	return nil
}

// Restore moves a soft-deleted message back to active, read state untouched.
func (s *MessageService) Restore(ctx context.Context, id uint, actor uint) error {
	message, err := s.loadForLifecycle(ctx, id, actor)
	if err != nil {
		return err
	}
	if !message.IsDeleted() {
		return ErrInvalidState
	}

	err = s.db.WithContext(ctx).Model(message).Update("deleted_at", nil).Error
	if err != nil {
		return err
	}
	s.invalidate(ctx, message.SenderID, message.ReceiverID)
	return nil
}

// PermanentlyDelete removes the row for good. Only legal from soft-deleted,
// so the UI always forces a delete step before anything irreversible. Writes
// a tombstone and an audit row in the same transaction as the delete.
func (s *MessageService) PermanentlyDelete(ctx context.Context, id uint, actor uint) error {
	message, err := s.loadForLifecycle(ctx, id, actor)
	if err != nil {
		return err
	}
	if !message.IsDeleted() {
		return ErrInvalidState
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.Message{}, id).Error; err != nil {
			return err
		}
		tombstone := models.PurgedMessage{MessageID: id, PurgedBy: actor, PurgedAt: time.Now()}
		if err := tx.Create(&tombstone).Error; err != nil {
			return err
		}
		audit := models.AuditLog{
			ActorUserID:  actor,
			Action:       "message.purge",
			ResourceType: "message",
			ResourceID:   id,
		}
		return tx.Create(&audit).Error
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx, message.SenderID, message.ReceiverID)
	return nil
}
