package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Listing struct {
	gorm.Model
	SellerID    uint           `json:"sellerID" gorm:"index;not null"`
	Title       string         `json:"title"`
	Description string         `json:"description" gorm:"type:text"`
	Price       float64        `json:"price"`
	Currency    string         `json:"currency" gorm:"size:8;default:USD"`
	City        string         `json:"city"`
	Country     string         `json:"country"`
	Images      datatypes.JSON `json:"images"` // array of URLs, first one is the thumbnail
	CategoryID  *uint          `json:"categoryID" gorm:"index"`
	IsActive    *bool          `json:"isActive"`

	// Admin moderation
	Status      string `json:"status" gorm:"type:varchar(20);default:'pending';index"` // pending, approved, rejected
	ReviewNotes string `json:"reviewNotes" gorm:"type:text"`

	Seller   User      `json:"seller" gorm:"foreignKey:SellerID;references:ID"`
	Category *Category `json:"category" gorm:"foreignKey:CategoryID;references:ID"`
}
