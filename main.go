package main

import (
	"classified-ads-server/routes"
	"classified-ads-server/services"
	"classified-ads-server/storage"
	"classified-ads-server/utils"
	"log"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
)

func main() {
	godotenv.Load()
	db := storage.InitializeDB()
	storage.InitializeRedis()

	// Messaging engine with the full collaborator set
	messageService := services.NewMessageService(db)
	messageService.Limiter = services.NewRedisSendLimiter(storage.Redis, 100)
	messageService.Notifier = services.NewNotificationService(db)
	messageService.Bus = services.NewInvalidationBus(storage.Redis)
	routes.InitMessageService(messageService)

	app := iris.New()
	app.Validator = validator.New()

	app.AllowMethods(iris.MethodOptions)
	app.UseRouter(func(ctx iris.Context) {
		ctx.Header("Access-Control-Allow-Origin", ctx.GetHeader("Origin"))
		ctx.Header("Vary", "Origin")
		ctx.Header("Access-Control-Allow-Credentials", "true")
		ctx.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Requested-With")
		ctx.Header("Access-Control-Allow-Methods", "GET,POST,PATCH,PUT,DELETE,OPTIONS")
		if ctx.Method() == iris.MethodOptions {
			ctx.StatusCode(iris.StatusNoContent)
			return
		}
		ctx.Next()
	})

	app.Use(iris.Compression)

	resetTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("EMAIL_TOKEN_SECRET")))
	resetTokenVerifier.WithDefaultBlocklist()
	resetTokenVerifierMiddleware := resetTokenVerifier.Verify(func() interface{} {
		return new(utils.ForgotPasswordToken)
	})

	accessTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("ACCESS_TOKEN_SECRET")))
	accessTokenVerifier.WithDefaultBlocklist()
	accessTokenVerifierMiddleware := accessTokenVerifier.Verify(func() interface{} {
		return new(utils.AccessToken)
	})

	refreshTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("REFRESH_TOKEN_SECRET")))
	refreshTokenVerifier.WithDefaultBlocklist()
	refreshTokenVerifierMiddleware := refreshTokenVerifier.Verify(func() interface{} {
		return new(jwt.Claims)
	})

	refreshTokenVerifier.Extractors = append(refreshTokenVerifier.Extractors, func(ctx iris.Context) string {
		var tokenInput utils.RefreshTokenInput
		err := ctx.ReadJSON(&tokenInput)
		if err != nil {
			return ""
		}

		return tokenInput.RefreshToken
	})

	user := app.Party("/api/user")
	{
		user.Post("/register", routes.Register)
		user.Post("/login", routes.Login)
		user.Post("/google", routes.GoogleLoginOrSignUp)
		user.Post("/refresh", refreshTokenVerifierMiddleware, routes.RefreshAccessToken)
		user.Post("/forgotpassword", routes.ForgotPassword)
		user.Post("/resetpassword", resetTokenVerifierMiddleware, routes.ResetPassword)
		user.Get("/me", accessTokenVerifierMiddleware, routes.GetUser)
		user.Patch("/settings/notifications", accessTokenVerifierMiddleware, routes.AllowsNotifications)
		user.Patch("/listings/saved", accessTokenVerifierMiddleware, routes.AlterSavedListings)
	}

	listing := app.Party("/api/listing")
	{
		listing.Get("/", routes.GetListings)
		listing.Get("/{id}", routes.GetListing)
		listing.Post("/", accessTokenVerifierMiddleware, routes.CreateListing)
		listing.Patch("/{id}", accessTokenVerifierMiddleware, routes.UpdateListing)
		listing.Delete("/{id}", accessTokenVerifierMiddleware, routes.DeleteListing)
	}

	app.Get("/api/categories", routes.GetCategories)

	messages := app.Party("/api/messages", accessTokenVerifierMiddleware)
	{
		messages.Post("/", routes.SendMessage)
		messages.Get("/conversations", routes.GetConversations)
		messages.Post("/conversations/read", routes.MarkConversationRead)
		messages.Patch("/{id}/read", routes.MarkMessageRead)
		messages.Delete("/{id}", routes.DeleteMessage)
		messages.Post("/{id}/restore", routes.RestoreMessage)
		messages.Delete("/{id}/permanent", routes.PermanentlyDeleteMessage)
	}

	admin := app.Party("/api/admin", accessTokenVerifierMiddleware, utils.AdminOnlyMiddleware)
	{
		admin.Get("/users", routes.AdminListUsers)
		admin.Get("/support/conversations", routes.AdminSupportQueue)
		admin.Patch("/listings/{id}/moderate", routes.AdminModerateListing)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Println("Starting server on port " + port)
	app.Listen(":" + port)
}
