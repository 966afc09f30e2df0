package routes

import (
	"classified-ads-server/models"
	"classified-ads-server/services"
	"classified-ads-server/storage"
	"classified-ads-server/utils"
	"net/http"

	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
)

func AdminListUsers(ctx iris.Context) {
	page := ctx.URLParamIntDefault("page", 1)
	perPage := ctx.URLParamIntDefault("per_page", 25)
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 25
	}

	query := storage.DB.Model(&models.User{})
	if role := ctx.URLParam("role"); role != "" {
		query = query.Where("role = ?", role)
	}

	var total int64
	query.Count(&total)

	var users []models.User
	err := query.Select("id, first_name, last_name, email, role, avatar_url, created_at").
		Order("id ASC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&users).Error
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.JSONPage(ctx, users, page, perPage, total)
}

// AdminSupportQueue is the desk's Support view: one thread per
// (category, requester) across all requesters.
func AdminSupportQueue(ctx iris.Context) {
	claims := jwt.Get(ctx).(*utils.AccessToken)

	conversations, err := messageService().GetConversations(ctx.Request().Context(), claims.ID, services.ViewSupport)
	if err != nil {
		utils.HandleServiceError(err, ctx)
		return
	}

	ctx.JSON(iris.Map{
		"success":       true,
		"conversations": conversations,
		"count":         len(conversations),
	})
}

type ModerateListingInput struct {
	Status      string `json:"status" validate:"required,oneof=approved rejected"`
	ReviewNotes string `json:"reviewNotes" validate:"max=2000"`
}

func AdminModerateListing(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		ctx.StopWithStatus(http.StatusBadRequest)
		return
	}

	var input ModerateListingInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var listing models.Listing
	if err := storage.DB.First(&listing, id).Error; err != nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Listing not found.", ctx)
		return
	}

	before := listing
	updates := map[string]interface{}{"status": input.Status, "review_notes": input.ReviewNotes}
	if err := storage.DB.Model(&listing).Updates(updates).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.Audit(ctx, "listing.moderate", "listing", listing.ID,
		iris.Map{"status": before.Status}, iris.Map{"status": input.Status})

	ctx.JSON(listing)
}
