package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/prodplaces/prodplaces-backend-go/internal/middleware"
	"github.com/prodplaces/prodplaces-backend-go/internal/models"
	"github.com/prodplaces/prodplaces-backend-go/internal/service"
	"github.com/prodplaces/prodplaces-backend-go/pkg/response"
)

// UserHandler handles user lifecycle and settings endpoints
type UserHandler struct {
	users *service.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

type getAuthRequest struct {
	UserID string `json:"userID" binding:"required"`
}

// GetAuth handles POST /getAuth: create the user if needed and issue a token.
func (h *UserHandler) GetAuth(c *gin.Context) {
	var req getAuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "You must provide a userID", err)
		return
	}

	user, token, _, err := h.users.GetOrCreate(c.Request.Context(), req.UserID)
	if err != nil {
		response.InternalError(c, "Failed to get or create user", err)
		return
	}

	response.Success(c, gin.H{
		"token":                     token,
		"presetProductiveLocations": user.PresetProductiveLocations,
		"settings":                  user.Settings,
		"homeLocation":              user.HomeLocation,
		"latLngHomeLocation":        user.LatLngHomeLocation,
	})
}

type updateSettingsRequest struct {
	HomeLocation              string             `json:"homeLocation"`
	HomeLocationLatLong       string             `json:"homeLocationLatLong"`
	PresetProductiveLocations map[string]float64 `json:"presetProductiveLocations"`
}

// UpdateSettings handles PUT /updateUserSettings.
func (h *UserHandler) UpdateSettings(c *gin.Context) {
	var req updateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid settings payload", err)
		return
	}

	userID := middleware.UserID(c)
	err := h.users.UpdateSettings(c.Request.Context(), userID, req.HomeLocation, req.HomeLocationLatLong, req.PresetProductiveLocations)
	if errors.Is(err, models.ErrUserNotFound) {
		response.NotFound(c, "User not found", err)
		return
	}
	if err != nil {
		response.InternalError(c, "Failed to update user settings", err)
		return
	}

	response.Success(c, gin.H{"message": "Settings saved"})
}
