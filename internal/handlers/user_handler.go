package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/JohanDJ0/restapi-gastos/internal/services"
)

// UserHandler serves the caller's own account.
type UserHandler struct {
	userService services.UserServicer
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService services.UserServicer) *UserHandler {
	return &UserHandler{userService: userService}
}

// GetMe handles retrieving the caller's profile.
// @Summary     Current user
// @Tags        usuarios
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.Profile "Profile"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "User not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /usuarios/me [get]
func (h *UserHandler) GetMe(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	profile, err := h.userService.GetProfile(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}
