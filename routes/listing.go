package routes

import (
	"classified-ads-server/models"
	"classified-ads-server/storage"
	"classified-ads-server/utils"
	"encoding/json"
	"net/http"

	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
	"golang.org/x/exp/slices"
)

func CreateListing(ctx iris.Context) {
	var input CreateListingInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	claims := jwt.Get(ctx).(*utils.AccessToken)

	images, _ := json.Marshal(input.Images)
	active := true
	listing := models.Listing{
		SellerID:    claims.ID,
		Title:       input.Title,
		Description: input.Description,
		Price:       input.Price,
		Currency:    input.Currency,
		City:        input.City,
		Country:     input.Country,
		Images:      images,
		CategoryID:  input.CategoryID,
		IsActive:    &active,
	}

	if err := storage.DB.Create(&listing).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.StatusCode(http.StatusCreated)
	ctx.JSON(listing)
}

// GetListings: browse approved, active listings with optional category
// filter and pagination
func GetListings(ctx iris.Context) {
	page := ctx.URLParamIntDefault("page", 1)
	perPage := ctx.URLParamIntDefault("per_page", 20)
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	query := storage.DB.Model(&models.Listing{}).
		Where("is_active = ? AND status = ?", true, "approved")

	if categoryID, err := ctx.URLParamInt("categoryID"); err == nil && categoryID > 0 {
		query = query.Where("category_id = ?", categoryID)
	}
	if q := ctx.URLParam("q"); q != "" {
		search := "%" + q + "%"
		query = query.Where("lower(title) LIKE lower(?) OR lower(description) LIKE lower(?)", search, search)
	}

	var total int64
	query.Count(&total)

	var listings []models.Listing
	err := query.Order("created_at DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&listings).Error
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.JSONPage(ctx, listings, page, perPage, total)
}

func GetListing(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		ctx.StopWithStatus(http.StatusBadRequest)
		return
	}

	var listing models.Listing
	if err := storage.DB.Preload("Seller").Preload("Category").First(&listing, id).Error; err != nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Listing not found.", ctx)
		return
	}

	listing.Seller.Password = ""
	ctx.JSON(listing)
}

func UpdateListing(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		ctx.StopWithStatus(http.StatusBadRequest)
		return
	}

	var input UpdateListingInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	claims := jwt.Get(ctx).(*utils.AccessToken)

	var listing models.Listing
	if err := storage.DB.First(&listing, id).Error; err != nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Listing not found.", ctx)
		return
	}
	if listing.SellerID != claims.ID {
		ctx.StatusCode(iris.StatusForbidden)
		return
	}

	updates := map[string]interface{}{
		"title":       input.Title,
		"description": input.Description,
		"price":       input.Price,
		// Edits go back through moderation
		"status": "pending",
	}
	if input.Images != nil {
		images, _ := json.Marshal(input.Images)
		updates["images"] = images
	}
	if err := storage.DB.Model(&listing).Updates(updates).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(listing)
}

func DeleteListing(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		ctx.StopWithStatus(http.StatusBadRequest)
		return
	}

	claims := jwt.Get(ctx).(*utils.AccessToken)

	var listing models.Listing
	if err := storage.DB.First(&listing, id).Error; err != nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Listing not found.", ctx)
		return
	}
	if listing.SellerID != claims.ID {
		ctx.StatusCode(iris.StatusForbidden)
		return
	}

	// Listings soft-delete through gorm; message threads about the listing
	// stay reachable and render a placeholder card.
	if err := storage.DB.Delete(&listing).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"success": true})
}

// AlterSavedListings toggles a listing in the user's saved list
func AlterSavedListings(ctx iris.Context) {
	var input AlterSavedListingsInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	claims := jwt.Get(ctx).(*utils.AccessToken)

	var user models.User
	if err := storage.DB.First(&user, claims.ID).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	var saved []uint
	if user.SavedListings != nil {
		json.Unmarshal(user.SavedListings, &saved)
	}

	if idx := slices.Index(saved, input.ListingID); idx >= 0 {
		saved = slices.Delete(saved, idx, idx+1)
	} else {
		saved = append(saved, input.ListingID)
	}

	raw, _ := json.Marshal(saved)
	if err := storage.DB.Model(&user).Update("saved_listings", raw).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"success": true, "savedListings": saved})
}

type CreateListingInput struct {
	Title       string   `json:"title" validate:"required,max=256"`
	Description string   `json:"description" validate:"max=10000"`
	Price       float64  `json:"price" validate:"gte=0"`
	Currency    string   `json:"currency" validate:"omitempty,len=3"`
	City        string   `json:"city" validate:"max=128"`
	Country     string   `json:"country" validate:"max=128"`
	Images      []string `json:"images" validate:"max=12"`
	CategoryID  *uint    `json:"categoryID"`
}

type UpdateListingInput struct {
	Title       string   `json:"title" validate:"required,max=256"`
	Description string   `json:"description" validate:"max=10000"`
	Price       float64  `json:"price" validate:"gte=0"`
	Images      []string `json:"images"`
}

type AlterSavedListingsInput struct {
	ListingID uint `json:"listingID" validate:"required"`
}
