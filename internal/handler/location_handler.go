package handler

import (
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/prodplaces/prodplaces-backend-go/internal/middleware"
	"github.com/prodplaces/prodplaces-backend-go/internal/models"
	"github.com/prodplaces/prodplaces-backend-go/internal/service"
	"github.com/prodplaces/prodplaces-backend-go/pkg/response"
)

// LocationHandler handles frequent-location endpoints
type LocationHandler struct {
	locations *service.LocationService
}

// NewLocationHandler creates a new location handler
func NewLocationHandler(locations *service.LocationService) *LocationHandler {
	return &LocationHandler{locations: locations}
}

type updateProductivityRequest struct {
	Productivity *float64 `json:"productivity" binding:"required"`
}

// UpdateProductivity handles PUT /updateProductivityLevel/:locationID.
func (h *LocationHandler) UpdateProductivity(c *gin.Context) {
	locationID := c.Param("locationID")
	if locationID == "" {
		response.BadRequest(c, "You must provide a locationID", nil)
		return
	}

	var req updateProductivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "You must provide a productivity score", err)
		return
	}

	userID := middleware.UserID(c)
	loc, err := h.locations.UpdateProductivity(c.Request.Context(), userID, locationID, *req.Productivity)
	if errors.Is(err, models.ErrUserNotFound) {
		response.NotFound(c, "User not found", err)
		return
	}
	if err != nil {
		response.NotFound(c, "Location not found", err)
		return
	}

	response.Success(c, loc)
}

// UnratedLocations handles GET /getLocationsWithProductivityNullWithinLastNDays.
func (h *LocationHandler) UnratedLocations(c *gin.Context) {
	days, err := strconv.Atoi(c.DefaultQuery("days", "7"))
	if err != nil || days < 0 {
		response.BadRequest(c, "days must be a non-negative integer", err)
		return
	}

	userID := middleware.UserID(c)
	locs, err := h.locations.UnratedLocationsSince(c.Request.Context(), userID, days, time.Now().UnixMilli())
	if errors.Is(err, models.ErrUserNotFound) {
		response.NotFound(c, "User not found", err)
		return
	}
	if err != nil {
		response.InternalError(c, "Failed to load locations", err)
		return
	}

	if locs == nil {
		locs = []models.FrequentLocation{}
	}
	response.Success(c, locs)
}
