package routes

import (
	"classified-ads-server/models"
	"classified-ads-server/services"
	"classified-ads-server/storage"
	"classified-ads-server/utils"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
	"golang.org/x/crypto/bcrypt"
)

func Register(ctx iris.Context) {
	var userInput RegisterUserInput
	err := ctx.ReadJSON(&userInput)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var newUser models.User
	userExists, userExistsErr := getAndHandleUserExists(&newUser, userInput.Email)
	if userExistsErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	if userExists {
		utils.CreateEmailAlreadyRegistered(ctx)
		return
	}

	hashedPassword, hashErr := hashAndSaltPassword(userInput.Password)
	if hashErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	newUser = models.User{
		FirstName:   userInput.FirstName,
		LastName:    userInput.LastName,
		Email:       strings.ToLower(userInput.Email),
		Password:    hashedPassword,
		SocialLogin: false}

	storage.DB.Create(&newUser)

	returnUser(newUser, ctx)
}

func Login(ctx iris.Context) {
	var userInput LoginUserInput
	err := ctx.ReadJSON(&userInput)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var existingUser models.User
	errorMsg := "Invalid email or password."
	userExists, userExistsErr := getAndHandleUserExists(&existingUser, userInput.Email)
	if userExistsErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	if !userExists {
		utils.CreateError(iris.StatusUnauthorized, "Credentials Error", errorMsg, ctx)
		return
	}

	if existingUser.SocialLogin {
		utils.CreateError(iris.StatusUnauthorized, "Credentials Error", "Social Login Account", ctx)
		return
	}

	passwordErr := bcrypt.CompareHashAndPassword([]byte(existingUser.Password), []byte(userInput.Password))
	if passwordErr != nil {
		utils.CreateError(iris.StatusUnauthorized, "Credentials Error", errorMsg, ctx)
		return
	}

	returnUser(existingUser, ctx)
}

func GoogleLoginOrSignUp(ctx iris.Context) {
	var userInput GoogleUserInput
	err := ctx.ReadJSON(&userInput)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	endpoint := "https://www.googleapis.com/userinfo/v2/me"

	client := &http.Client{}
	req, _ := http.NewRequest("GET", endpoint, nil)
	header := "Bearer " + userInput.AccessToken
	req.Header.Set("Authorization", header)
	res, googleErr := client.Do(req)
	if googleErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	defer res.Body.Close()
	body, bodyErr := io.ReadAll(res.Body)
	if bodyErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	var googleBody GoogleUserRes
	json.Unmarshal(body, &googleBody)

	if googleBody.Email == "" {
		utils.CreateError(iris.StatusUnauthorized, "Credentials Error", "Could not verify Google account.", ctx)
		return
	}

	var user models.User
	userExists, userExistsErr := getAndHandleUserExists(&user, googleBody.Email)

	if userExistsErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	if !userExists {
		user = models.User{FirstName: googleBody.GivenName, LastName: googleBody.FamilyName, Email: googleBody.Email, SocialLogin: true, SocialProvider: "Google"}
		storage.DB.Create(&user)

		returnUser(user, ctx)
		return
	}

	if user.SocialLogin && user.SocialProvider == "Google" {
		returnUser(user, ctx)
		return
	}

	utils.CreateEmailAlreadyRegistered(ctx)
}

func RefreshAccessToken(ctx iris.Context) {
	claims := jwt.Get(ctx).(*jwt.Claims)

	if !utils.RefreshTokenIsValid(string(jwt.GetVerifiedToken(ctx).Token)) {
		utils.CreateError(iris.StatusUnauthorized, "Credentials Error", "Refresh token revoked.", ctx)
		return
	}

	id, idErr := strconv.ParseUint(claims.Subject, 10, 64)
	if idErr != nil {
		utils.CreateError(iris.StatusUnauthorized, "Credentials Error", "Malformed refresh token.", ctx)
		return
	}

	var user models.User
	if err := storage.DB.First(&user, uint(id)).Error; err != nil {
		utils.CreateError(iris.StatusUnauthorized, "Credentials Error", "Account no longer exists.", ctx)
		return
	}

	returnUser(user, ctx)
}

func ForgotPassword(ctx iris.Context) {
	var input ForgotPasswordInput
	err := ctx.ReadJSON(&input)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var user models.User
	userExists, userExistsErr := getAndHandleUserExists(&user, input.Email)
	if userExistsErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	// Always answer 200 so the endpoint cannot be used to probe accounts
	if userExists && !user.SocialLogin {
		token, tokenErr := utils.CreateForgotPasswordToken(user.ID, user.Email)
		if tokenErr == nil {
			link := os.Getenv("APP_URL") + "/resetpassword?token=" + token
			go services.NewNotificationService(storage.DB).
				Send(user.Email, "Reset your password", "Open this link to reset your password: "+link)
		}
	}

	ctx.JSON(iris.Map{"success": true})
}

func ResetPassword(ctx iris.Context) {
	var input ResetPasswordInput
	err := ctx.ReadJSON(&input)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	claims := jwt.Get(ctx).(*utils.ForgotPasswordToken)

	hashedPassword, hashErr := hashAndSaltPassword(input.Password)
	if hashErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	if err := storage.DB.Model(&models.User{}).Where("id = ?", claims.ID).
		Update("password", hashedPassword).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"success": true})
}

// AllowsNotifications toggles the email notification opt-in
func AllowsNotifications(ctx iris.Context) {
	var input AllowsNotificationsInput
	err := ctx.ReadJSON(&input)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	claims := jwt.Get(ctx).(*utils.AccessToken)
	if err := storage.DB.Model(&models.User{}).Where("id = ?", claims.ID).
		Update("allows_notifications", input.AllowsNotifications).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"success": true})
}

func GetUser(ctx iris.Context) {
	claims := jwt.Get(ctx).(*utils.AccessToken)

	var user models.User
	if err := storage.DB.First(&user, claims.ID).Error; err != nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "User not found.", ctx)
		return
	}

	user.Password = ""
	ctx.JSON(user)
}

func getAndHandleUserExists(user *models.User, email string) (userExists bool, err error) {
	userExistsQuery := storage.DB.Where("email = ?", strings.ToLower(email)).Limit(1).Find(&user)

	if userExistsQuery.Error != nil {
		return false, userExistsQuery.Error
	}

	userExists = userExistsQuery.RowsAffected > 0

	if userExists {
		return true, nil
	}

	return false, nil
}

func hashAndSaltPassword(password string) (hashedPassword string, err error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	return string(bytes), nil
}

func returnUser(user models.User, ctx iris.Context) {
	tokenPair, tokenErr := utils.CreateTokenPair(user.ID)
	if tokenErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{
		"ID":                  user.ID,
		"firstName":           user.FirstName,
		"lastName":            user.LastName,
		"email":               user.Email,
		"role":                user.Role,
		"avatarURL":           user.AvatarURL,
		"allowsNotifications": user.AllowsNotifications,
		"accessToken":         string(tokenPair.AccessToken),
		"refreshToken":        string(tokenPair.RefreshToken),
	})
}

type RegisterUserInput struct {
	FirstName string `json:"firstName" validate:"required,max=256"`
	LastName  string `json:"lastName" validate:"required,max=256"`
	Email     string `json:"email" validate:"required,max=256,email"`
	Password  string `json:"password" validate:"required,min=8,max=256"`
}

type LoginUserInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type GoogleUserInput struct {
	AccessToken string `json:"accessToken" validate:"required"`
}

type GoogleUserRes struct {
	Email      string `json:"email"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
}

type ForgotPasswordInput struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordInput struct {
	Password string `json:"password" validate:"required,min=8,max=256"`
}

type AllowsNotificationsInput struct {
	AllowsNotifications *bool `json:"allowsNotifications" validate:"required"`
}
