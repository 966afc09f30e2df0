package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// CategoryNames represents multilingual category names
type CategoryNames struct {
	En string `json:"en"`
	Fr string `json:"fr"`
	Ar string `json:"ar"`
}

// Value implements the driver.Valuer interface for database storage
func (cn CategoryNames) Value() (driver.Value, error) {
	return json.Marshal(cn)
}

// Scan implements the sql.Scanner interface for database retrieval
func (cn *CategoryNames) Scan(value interface{}) error {
	if value == nil {
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, cn)
	case string:
		return json.Unmarshal([]byte(v), cn)
	default:
		return errors.New("unsupported type for CategoryNames")
	}
}

// Category represents a listing category or a support-request category.
// Support categories are the allowed values of Message.SupportCategory.
type Category struct {
	ID          uint          `json:"id" gorm:"primaryKey"`
	Type        string        `json:"type" gorm:"size:20;index"` // "listing" or "support"
	Slug        string        `json:"slug" gorm:"size:64;uniqueIndex"`
	Name        CategoryNames `json:"name" gorm:"type:json"`
	Icon        string        `json:"icon"` // Phosphor icon name
	Description CategoryNames `json:"description" gorm:"type:json"`
	IsActive    bool          `json:"is_active"`
	SortOrder   int           `json:"sort_order"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}
