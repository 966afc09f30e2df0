package services

import (
	"classified-ads-server/models"
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// Read state is one-directional: unread -> read, never back. Only the
// receiver of a message may mark it.

// MarkMessageRead marks a single message read. Marking an already-read
// message succeeds as a no-op.
func (s *MessageService) MarkMessageRead(ctx context.Context, id uint, actor uint) error {
	if actor == 0 {
		return ErrUnauthenticated
	}
	var message models.Message
	err := s.db.WithContext(ctx).First(&message, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if message.ReceiverID != actor {
		return ErrNotOwner
	}
	if message.IsRead {
		return nil
	}

	now := time.Now()
	err = s.db.WithContext(ctx).Model(&message).
		Updates(map[string]interface{}{"is_read": true, "read_at": &now}).Error
	if err != nil {
		return err
	}
	s.invalidate(ctx, actor)
	return nil
}

// MarkConversationRead marks every unread message addressed to the actor in
// one thread, in a single UPDATE. Called when a conversation is opened.
func (s *MessageService) MarkConversationRead(ctx context.Context, actor uint, key ConversationKey) (int64, error) {
	if actor == 0 {
		return 0, ErrUnauthenticated
	}

	now := time.Now()
	query := s.db.WithContext(ctx).Model(&models.Message{}).
		Where("receiver_id = ? AND is_read = ? AND deleted_at IS NULL", actor, false)

	if key.SupportCategory != "" {
		query = query.Where("support_category = ?", key.SupportCategory)
		if key.CounterpartID != actor {
			// Desk side: scope to the requester's thread. On the requester
			// side receiver_id already pins the thread, whichever admin
			// replied.
			query = query.Where("sender_id = ?", key.CounterpartID)
		}
	} else {
		query = query.Where("support_category = '' AND listing_id = ? AND sender_id = ?",
			key.ListingID, key.CounterpartID)
	}

	result := query.Updates(map[string]interface{}{"is_read": true, "read_at": &now})
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected > 0 {
		s.invalidate(ctx, actor)
	}
	return result.RowsAffected, nil
}
