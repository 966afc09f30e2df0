package routes

import (
	"classified-ads-server/models"
	"classified-ads-server/storage"

	"github.com/kataras/iris/v12"
)

// GetCategories returns all categories for a specific type (listing or support)
func GetCategories(ctx iris.Context) {
	categoryType := ctx.URLParamDefault("type", "listing")

	if categoryType != "listing" && categoryType != "support" {
		ctx.StatusCode(iris.StatusBadRequest)
		ctx.JSON(iris.Map{"message": "Invalid category type. Must be 'listing' or 'support'"})
		return
	}

	var categories []models.Category
	err := storage.DB.Where("type = ? AND is_active = ?", categoryType, true).
		Order("sort_order ASC").
		Find(&categories).Error
	if err != nil {
		ctx.StatusCode(iris.StatusInternalServerError)
		ctx.JSON(iris.Map{"message": "Failed to fetch categories"})
		return
	}

	ctx.JSON(iris.Map{
		"success": true,
		"data":    categories,
		"count":   len(categories),
	})
}
