package routes

import (
	"classified-ads-server/services"
	"classified-ads-server/storage"
	"classified-ads-server/utils"
	"net/http"

	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
)

var msgService *services.MessageService

// InitMessageService installs the fully wired engine (limiter, notifier,
// invalidation bus). Called once from main.
func InitMessageService(svc *services.MessageService) {
	msgService = svc
}

func messageService() *services.MessageService {
	if msgService == nil {
		msgService = services.NewMessageService(storage.DB)
	}
	return msgService
}

type SendMessageInput struct {
	ListingID       *uint  `json:"listingID"`
	SupportCategory string `json:"supportCategory"`
	ReceiverID      uint   `json:"receiverID"`
	Content         string `json:"content" validate:"required,lt=5000"`
}

func SendMessage(ctx iris.Context) {
	var input SendMessageInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	claims := jwt.Get(ctx).(*utils.AccessToken)
	message, err := messageService().Send(ctx.Request().Context(), claims.ID, services.SendMessageInput{
		ListingID:       input.ListingID,
		SupportCategory: input.SupportCategory,
		ReceiverID:      input.ReceiverID,
		Content:         input.Content,
	})
	if err != nil {
		utils.HandleServiceError(err, ctx)
		return
	}

	ctx.StatusCode(http.StatusCreated)
	ctx.JSON(message)
}

// GetConversations returns the aggregated threads for one view:
// GET /api/messages/conversations?view=incoming|sent|deleted|support
func GetConversations(ctx iris.Context) {
	view := services.View(ctx.URLParamDefault("view", string(services.ViewIncoming)))
	if !services.ValidView(view) {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "unknown view", ctx)
		return
	}

	claims := jwt.Get(ctx).(*utils.AccessToken)
	conversations, err := messageService().GetConversations(ctx.Request().Context(), claims.ID, view)
	if err != nil {
		utils.HandleServiceError(err, ctx)
		return
	}

	ctx.JSON(iris.Map{
		"success":       true,
		"view":          view,
		"conversations": conversations,
		"count":         len(conversations),
	})
}

func MarkMessageRead(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		ctx.StopWithStatus(http.StatusBadRequest)
		return
	}

	claims := jwt.Get(ctx).(*utils.AccessToken)
	if err := messageService().MarkMessageRead(ctx.Request().Context(), id, claims.ID); err != nil {
		utils.HandleServiceError(err, ctx)
		return
	}
	ctx.JSON(iris.Map{"success": true})
}

type MarkConversationReadInput struct {
	ListingID       uint   `json:"listingID"`
	SupportCategory string `json:"supportCategory"`
	CounterpartID   uint   `json:"counterpartID"`
}

// MarkConversationRead batch-marks a whole thread when it is opened.
func MarkConversationRead(ctx iris.Context) {
	var input MarkConversationReadInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	claims := jwt.Get(ctx).(*utils.AccessToken)
	updated, err := messageService().MarkConversationRead(ctx.Request().Context(), claims.ID, services.ConversationKey{
		ListingID:       input.ListingID,
		SupportCategory: input.SupportCategory,
		CounterpartID:   input.CounterpartID,
	})
	if err != nil {
		utils.HandleServiceError(err, ctx)
		return
	}
	ctx.JSON(iris.Map{"success": true, "updated": updated})
}

func DeleteMessage(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		ctx.StopWithStatus(http.StatusBadRequest)
		return
	}

	claims := jwt.Get(ctx).(*utils.AccessToken)
	if err := messageService().SoftDelete(ctx.Request().Context(), id, claims.ID); err != nil {
		utils.HandleServiceError(err, ctx)
		return
	}
	ctx.JSON(iris.Map{"success": true})
}

func RestoreMessage(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		ctx.StopWithStatus(http.StatusBadRequest)
		return
	}

	claims := jwt.Get(ctx).(*utils.AccessToken)
	if err := messageService().Restore(ctx.Request().Context(), id, claims.ID); err != nil {
		utils.HandleServiceError(err, ctx)
		return
	}
	ctx.JSON(iris.Map{"success": true})
}

func PermanentlyDeleteMessage(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		ctx.StopWithStatus(http.StatusBadRequest)
		return
	}

	claims := jwt.Get(ctx).(*utils.AccessToken)
	if err := messageService().PermanentlyDelete(ctx.Request().Context(), id, claims.ID); err != nil {
		utils.HandleServiceError(err, ctx)
		return
	}
	ctx.JSON(iris.Map{"success": true})
}
