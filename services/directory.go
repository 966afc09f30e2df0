package services

import (
	"classified-ads-server/models"
	"context"
	"encoding/json"
	"errors"

	"gorm.io/gorm"
)

// Directory answers identity questions for the messaging engine: who is a
// counterpart, and which accounts act as the support desk. Lookups are
// batched so one aggregation pass never makes per-conversation queries.
type Directory interface {
	DisplayNames(ctx context.Context, ids []uint) (map[uint]Party, error)
	SupportDesk(ctx context.Context, ids []uint) (map[uint]bool, error)
	IsSupportDesk(ctx context.Context, id uint) (bool, error)
	// SupportDeskID is the account support requests are addressed to.
	SupportDeskID(ctx context.Context) (uint, error)
}

// Catalog resolves listing cards for listing threads, batched by id.
type Catalog interface {
	Summaries(ctx context.Context, ids []uint) (map[uint]ListingSummary, error)
}

type userDirectory struct {
	db *gorm.DB
}

// NewDirectory returns the gorm-backed Directory over the users table.
func NewDirectory(db *gorm.DB) Directory {
	return &userDirectory{db: db}
}

func (d *userDirectory) DisplayNames(ctx context.Context, ids []uint) (map[uint]Party, error) {
	result := make(map[uint]Party, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var users []models.User
	err := d.db.WithContext(ctx).
		Select("id, first_name, last_name, email, avatar_url").
		Where("id IN ?", ids).
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	for i := range users {
		result[users[i].ID] = Party{
			ID:        users[i].ID,
			Name:      users[i].DisplayName(),
			AvatarURL: users[i].AvatarURL,
		}
	}
	return result, nil
}

func (d *userDirectory) SupportDesk(ctx context.Context, ids []uint) (map[uint]bool, error) {
	result := make(map[uint]bool, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var users []models.User
	err := d.db.WithContext(ctx).
		Select("id, role").
		Where("id IN ?", ids).
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	for i := range users {
		result[users[i].ID] = users[i].IsSupportDesk()
	}
	return result, nil
}

func (d *userDirectory) IsSupportDesk(ctx context.Context, id uint) (bool, error) {
	flags, err := d.SupportDesk(ctx, []uint{id})
	if err != nil {
		return false, err
	}
	return flags[id], nil
}

func (d *userDirectory) SupportDeskID(ctx context.Context) (uint, error) {
	var desk models.User
	err := d.db.WithContext(ctx).
		Select("id").
		Where("role IN ?", []string{"admin", "super_admin"}).
		Order("id ASC").
		First(&desk).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	return desk.ID, nil
}

type listingCatalog struct {
	db *gorm.DB
}

// NewCatalog returns the gorm-backed Catalog over the listings table.
func NewCatalog(db *gorm.DB) Catalog {
	return &listingCatalog{db: db}
}

func (c *listingCatalog) Summaries(ctx context.Context, ids []uint) (map[uint]ListingSummary, error) {
	result := make(map[uint]ListingSummary, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var listings []models.Listing
	err := c.db.WithContext(ctx).
		Select("id, title, price, currency, images").
		Where("id IN ?", ids).
		Find(&listings).Error
	if err != nil {
		return nil, err
	}
	for i := range listings {
		result[listings[i].ID] = ListingSummary{
			ID:        listings[i].ID,
			Title:     listings[i].Title,
			Price:     listings[i].Price,
			Currency:  listings[i].Currency,
			Thumbnail: firstImage(listings[i].Images),
		}
	}
	return result, nil
}

func firstImage(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}
	var urls []string
	if err := json.Unmarshal(raw, &urls); err != nil || len(urls) == 0 {
		return ""
	}
	return urls[0]
}
