package models

import (
	"time"
)

// Message is the single durable messaging entity. There is no conversation
// table: threads are derived on read from these rows (see services).
//
// Exactly one of ListingID / SupportCategory is set. ListingID points at the
// ad the buyer contacted the seller about; SupportCategory marks a message in
// a user <-> support-desk thread.
type Message struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	SenderID   uint   `json:"senderID" gorm:"not null;index"`
	ReceiverID uint   `json:"receiverID" gorm:"not null;index"`
	Content    string `json:"content" gorm:"type:text;not null"`

	ListingID       *uint  `json:"listingID" gorm:"index"`
	SupportCategory string `json:"supportCategory" gorm:"size:64;index"` // empty unless a support thread

	// Read state is monotonic: once true it never goes back.
	IsRead bool       `json:"isRead" gorm:"default:false;index"`
	ReadAt *time.Time `json:"readAt"`

	// Manual soft delete. Not gorm.DeletedAt on purpose: deleted rows must
	// stay queryable for the Deleted view and restorable afterwards.
	DeletedAt *time.Time `json:"deletedAt" gorm:"index"`

	CreatedAt time.Time `json:"createdAt" gorm:"index"`

	Sender   User `json:"sender" gorm:"foreignKey:SenderID;references:ID"`
	Receiver User `json:"receiver" gorm:"foreignKey:ReceiverID;references:ID"`
}

// IsSupport reports whether the row belongs to a support thread.
func (m *Message) IsSupport() bool {
	return m.SupportCategory != ""
}

// IsDeleted reports whether the row is currently soft-deleted.
func (m *Message) IsDeleted() bool {
	return m.DeletedAt != nil
}

// PurgedMessage is a tombstone written when a message is permanently deleted.
// The row itself is gone at that point; the tombstone lets lifecycle
// operations tell "purged" apart from "never existed".
type PurgedMessage struct {
	MessageID uint      `json:"messageID" gorm:"primaryKey"`
	PurgedBy  uint      `json:"purgedBy" gorm:"index"`
	PurgedAt  time.Time `json:"purgedAt"`
}
