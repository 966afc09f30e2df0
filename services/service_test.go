package services

import (
	"classified-ads-server/models"
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a per-test in-memory sqlite database with the full schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Listing{},
		&models.Message{},
		&models.PurgedMessage{},
		&models.AuditLog{},
	)
	if err != nil {
		t.Fatalf("migrating test db: %v", err)
	}
	return db
}

const (
	sellerID    = 1
	buyerID     = 2
	otherUserID = 3
	adminID     = 9
)

// newTestService seeds a seller, a buyer, a bystander, a support admin, one
// approved listing owned by the seller and one support category.
func newTestService(t *testing.T) (*MessageService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)

	users := []models.User{
		{Model: gorm.Model{ID: sellerID}, FirstName: "Alice", LastName: "Seller", Email: "alice@example.com"},
		{Model: gorm.Model{ID: buyerID}, FirstName: "Bob", LastName: "Buyer", Email: "bob@example.com"},
		{Model: gorm.Model{ID: otherUserID}, FirstName: "Carol", LastName: "Other", Email: "carol@example.com"},
		{Model: gorm.Model{ID: adminID}, FirstName: "Dana", LastName: "Desk", Email: "dana@example.com", Role: "admin"},
	}
	for i := range users {
		if err := db.Create(&users[i]).Error; err != nil {
			t.Fatalf("seeding user: %v", err)
		}
	}

	active := true
	listing := models.Listing{
		Model:    gorm.Model{ID: 10},
		SellerID: sellerID,
		Title:    "Mountain bike",
		Price:    250,
		Currency: "USD",
		IsActive: &active,
		Status:   "approved",
	}
	if err := db.Create(&listing).Error; err != nil {
		t.Fatalf("seeding listing: %v", err)
	}

	category := models.Category{
		Type:     "support",
		Slug:     "billing",
		Name:     models.CategoryNames{En: "Billing"},
		IsActive: true,
	}
	if err := db.Create(&category).Error; err != nil {
		t.Fatalf("seeding category: %v", err)
	}

	return NewMessageService(db), db
}

func uintPtr(v uint) *uint { return &v }
