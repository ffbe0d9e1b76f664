package api

import (
	"errors"

	"ledger/config"
	"ledger/database"
	"ledger/events"
	"ledger/middleware"
	"ledger/models"
	"ledger/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthHandler registration, login and logout
type AuthHandler struct {
	cfg       *config.Config
	verifier  *middleware.Verifier
	mailer    service.Mailer
	publisher events.Publisher
}

// NewAuthHandler creates the auth handler
func NewAuthHandler(cfg *config.Config, verifier *middleware.Verifier, mailer service.Mailer, publisher events.Publisher) *AuthHandler {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &AuthHandler{
		cfg:       cfg,
		verifier:  verifier,
		mailer:    mailer,
		publisher: publisher,
	}
}

// RegisterRequest registration body
type RegisterRequest struct {
	Username *string `json:"username" example:"alice"`
	Email    *string `json:"email" example:"alice@example.com"`
	Password *string `json:"password" example:"s3cret-pass"`
}

// LoginRequest login body
type LoginRequest struct {
	Email    *string `json:"email" example:"alice@example.com"`
	Password *string `json:"password" example:"s3cret-pass"`
}

// LoginResponse login result. The tokens are also set as cookies.
type LoginResponse struct {
	AccessToken  string          `json:"accessToken"`
	RefreshToken string          `json:"refreshToken"`
	User         models.UserView `json:"user"`
}

// Register creates a regular user
// @Summary Register a user
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "New user"
// @Success 201 {object} Response{data=models.UserView}
// @Failure 400 {object} Response "MissingParameter, EmptyParameter, InvalidEmailFormat or DuplicateUser"
// @Router /api/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	h.register(c, models.RoleRegular)
}

// RegisterAdmin creates an administrator
// @Summary Register an administrator
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "New administrator"
// @Success 201 {object} Response{data=models.UserView}
// @Failure 400 {object} Response "MissingParameter, EmptyParameter, InvalidEmailFormat or DuplicateUser"
// @Router /api/admin [post]
func (h *AuthHandler) RegisterAdmin(c *gin.Context) {
	h.register(c, models.RoleAdmin)
}

func (h *AuthHandler) register(c *gin.Context, role string) {
	var req RegisterRequest
	if !bindJSON(c, &req) {
		return
	}
	if !requireFields(c, field{"username", req.Username}, field{"email", req.Email}, field{"password", req.Password}) {
		return
	}

	username := *req.Username
	email := normalizeEmail(*req.Email)
	if !isEmail(email) {
		Fail(c, KindInvalidEmailFormat, "Invalid email format")
		return
	}

	// duplicates are rejected before anything is written
	var existing []models.User
	if err := database.DB.Where("username = ? OR email = ?", username, email).Limit(1).Find(&existing).Error; err != nil {
		FailInternal(c, err, "Failed to check existing users")
		return
	}
	if len(existing) > 0 {
		Fail(c, KindDuplicateUser, "Username or email already in use")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
	if err != nil {
		FailInternal(c, err, "Failed to hash password")
		return
	}

	user := models.User{
		Username: username,
		Email:    email,
		Password: string(hashed),
		Role:     role,
	}
	if err := database.DB.Create(&user).Error; err != nil {
		FailInternal(c, err, "Failed to create user")
		return
	}

	log := middleware.Logger(c).WithFields(logrus.Fields{"username": user.Username, "role": role})
	log.Info("user registered")

	if h.mailer != nil && h.mailer.Enabled() {
		go func(to, name string, admin bool) {
			if err := h.mailer.SendWelcomeEmail(to, name, admin); err != nil {
				log.WithError(err).Warn("welcome email not sent")
			}
		}(user.Email, user.Username, role == models.RoleAdmin)
	}
	publish(c, h.publisher, events.UserRegistered, user.View())

	Created(c, "User registered", user.View())
}

// Login issues an access and a refresh token
// @Summary Log in
// @Description Sets the accessToken (1 h) and refreshToken (7 d) cookies.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Credentials"
// @Success 200 {object} Response{data=LoginResponse}
// @Failure 400 {object} Response "Missing parameters or wrong credentials"
// @Failure 404 {object} Response "Unknown email"
// @Failure 429 {object} Response "Too many attempts"
// @Router /api/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	if !requireFields(c, field{"email", req.Email}, field{"password", req.Password}) {
		return
	}

	var user models.User
	if err := database.DB.Where("email = ?", normalizeEmail(*req.Email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			Fail(c, KindNotFound, "User not found")
			return
		}
		FailInternal(c, err, "Failed to load user")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(*req.Password)); err != nil {
		Fail(c, KindWrongCredentials, "Wrong credentials")
		return
	}

	id := middleware.Identity{Username: user.Username, Email: user.Email, Role: user.Role}
	accessToken, err := h.verifier.GenerateToken(id, h.cfg.JWT.AccessTTL)
	if err != nil {
		FailInternal(c, err, "Failed to issue token")
		return
	}
	refreshToken, err := h.verifier.GenerateToken(id, h.cfg.JWT.RefreshTTL)
	if err != nil {
		FailInternal(c, err, "Failed to issue token")
		return
	}

	if err := database.DB.Model(&user).Update("refresh_token", refreshToken).Error; err != nil {
		FailInternal(c, err, "Failed to store refresh token")
		return
	}

	setTokenCookie(c, middleware.AccessTokenCookie, accessToken, h.cfg.JWT.AccessTTL)
	setTokenCookie(c, middleware.RefreshTokenCookie, refreshToken, h.cfg.JWT.RefreshTTL)

	middleware.Logger(c).WithField("username", user.Username).Info("user logged in")
	SuccessWithMessage(c, "User logged in", LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user.View(),
	})
}

// Logout forgets the stored refresh token and clears both cookies
// @Summary Log out
// @Tags auth
// @Produce json
// @Success 200 {object} Response
// @Failure 400 {object} Response "Refresh token cookie missing"
// @Failure 404 {object} Response "No user holds this refresh token"
// @Router /api/logout [get]
func (h *AuthHandler) Logout(c *gin.Context) {
	refreshToken, err := c.Cookie(middleware.RefreshTokenCookie)
	if err != nil || refreshToken == "" {
		Fail(c, KindMissingParameter, "Missing refresh token")
		return
	}

	var user models.User
	if err := database.DB.Where("refresh_token = ?", refreshToken).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			Fail(c, KindNotFound, "User not found")
			return
		}
		FailInternal(c, err, "Failed to load user")
		return
	}

	if err := database.DB.Model(&user).Update("refresh_token", nil).Error; err != nil {
		FailInternal(c, err, "Failed to clear refresh token")
		return
	}

	clearTokenCookies(c)
	middleware.Logger(c).WithField("username", user.Username).Info("user logged out")
	SuccessWithMessage(c, "User logged out", nil)
}
