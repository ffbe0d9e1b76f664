package api

import (
	"ledger/database"
	"ledger/middleware"
	"ledger/models"

	"github.com/gin-gonic/gin"
)

// UserHandler user listing
type UserHandler struct {
	verifier *middleware.Verifier
}

// NewUserHandler creates the user handler
func NewUserHandler(verifier *middleware.Verifier) *UserHandler {
	return &UserHandler{verifier: verifier}
}

// ListUsers returns every user
// @Summary List users
// @Tags users
// @Produce json
// @Success 200 {object} Response{data=[]models.UserView}
// @Failure 401 {object} Response
// @Router /api/users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	if !authorize(c, h.verifier, middleware.Admin()) {
		return
	}

	var users []models.User
	if err := database.DB.Order("id").Find(&users).Error; err != nil {
		FailInternal(c, err, "Failed to load users")
		return
	}

	views := make([]models.UserView, 0, len(users))
	for _, u := range users {
		views = append(views, u.View())
	}
	Success(c, views)
}

// GetUser returns one user to itself or to an administrator
// @Summary Get a user
// @Tags users
// @Produce json
// @Param username path string true "Username"
// @Success 200 {object} Response{data=models.UserView}
// @Failure 401 {object} Response
// @Failure 404 {object} Response
// @Router /api/users/{username} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	username := c.Param("username")
	if !authorize(c, h.verifier, middleware.User(username), middleware.Admin()) {
		return
	}

	user, ok := findUser(c, username)
	if !ok {
		return
	}
	Success(c, user.View())
}
