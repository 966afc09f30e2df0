package utils

import (
	"classified-ads-server/services"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/kataras/iris/v12"
)

type PageMeta struct {
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
	Total   int64 `json:"total"`
}

func JSONPage(ctx iris.Context, data interface{}, page, perPage int, total int64) {
	ctx.JSON(iris.Map{
		"data":  data,
		"meta":  PageMeta{Page: page, PerPage: perPage, Total: total},
		"links": iris.Map{},
	})
}

func JSONError(ctx iris.Context, status int, code, message string) {
	ctx.StatusCode(status)
	ctx.JSON(iris.Map{"error": code, "message": message})
}

func CreateError(statusCode int, title string, detail string, ctx iris.Context) {
	ctx.StatusCode(statusCode)
	ctx.JSON(iris.Map{"title": title, "detail": detail})
}

func CreateInternalServerError(ctx iris.Context) {
	CreateError(iris.StatusInternalServerError, "Internal Server Error", "An unexpected error occurred.", ctx)
}

func CreateEmailAlreadyRegistered(ctx iris.Context) {
	CreateError(iris.StatusConflict, "Conflict", "Email already registered.", ctx)
}

// HandleValidationErrors turns ReadJSON/validator failures into a 400 with
// one entry per failed field
func HandleValidationErrors(err error, ctx iris.Context) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		fields := make([]iris.Map, 0, len(validationErrors))
		for _, fieldErr := range validationErrors {
			fields = append(fields, iris.Map{
				"field": fieldErr.Field(),
				"tag":   fieldErr.Tag(),
				"param": fieldErr.Param(),
			})
		}
		ctx.StatusCode(iris.StatusBadRequest)
		ctx.JSON(iris.Map{"title": "Validation Error", "fields": fields})
		return
	}

	CreateError(iris.StatusBadRequest, "Bad Request", err.Error(), ctx)
}

// HandleServiceError maps the messaging engine's error taxonomy onto HTTP.
func HandleServiceError(err error, ctx iris.Context) {
	switch {
	case errors.Is(err, services.ErrUnauthenticated):
		CreateError(iris.StatusUnauthorized, "Unauthorized", "No authenticated user.", ctx)
	case errors.Is(err, services.ErrNotOwner):
		CreateError(iris.StatusForbidden, "Forbidden", "You are not a participant of this message.", ctx)
	case errors.Is(err, services.ErrNotFound), errors.Is(err, services.ErrListingNotFound):
		CreateError(iris.StatusNotFound, "Not Found", err.Error(), ctx)
	case errors.Is(err, services.ErrInvalidState):
		CreateError(iris.StatusConflict, "Conflict", err.Error(), ctx)
	case errors.Is(err, services.ErrEmptyContent), errors.Is(err, services.ErrInvalidTarget):
		CreateError(iris.StatusBadRequest, "Bad Request", err.Error(), ctx)
	case errors.Is(err, services.ErrSendLimit):
		CreateError(iris.StatusTooManyRequests, "Too Many Requests", err.Error(), ctx)
	default:
		CreateInternalServerError(ctx)
	}
}
