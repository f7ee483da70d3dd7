package handler

import (
	"encoding/json"
	"errors"
	"log"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/prodplaces/prodplaces-backend-go/internal/middleware"
	"github.com/prodplaces/prodplaces-backend-go/internal/models"
	"github.com/prodplaces/prodplaces-backend-go/internal/service"
	"github.com/prodplaces/prodplaces-backend-go/pkg/response"
)

// UploadHandler handles raw observation ingestion endpoints
type UploadHandler struct {
	locations *service.LocationService
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(locations *service.LocationService) *UploadHandler {
	return &UploadHandler{locations: locations}
}

// takeoutArchive mirrors the Google Takeout location history export.
// Timestamps arrive as millisecond strings and coordinates as E7 integers.
type takeoutArchive struct {
	Locations []takeoutLocation `json:"locations"`
}

type takeoutLocation struct {
	TimestampMs string `json:"timestampMs"`
	LatitudeE7  int64  `json:"latitudeE7"`
	LongitudeE7 int64  `json:"longitudeE7"`
}

// UploadGoogleLocationData handles POST /uploadGoogleLocationData: parse an
// uploaded Takeout archive and rebuild the user's frequent locations from it.
func (h *UploadHandler) UploadGoogleLocationData(c *gin.Context) {
	file, _, err := c.Request.FormFile("file")
	if err != nil {
		response.BadRequest(c, "You must upload a location history file", err)
		return
	}
	defer file.Close()

	var archive takeoutArchive
	if err := json.NewDecoder(file).Decode(&archive); err != nil {
		response.BadRequest(c, "File is not a valid location history export", err)
		return
	}

	observations := make([]models.Observation, 0, len(archive.Locations))
	for _, loc := range archive.Locations {
		ts, err := strconv.ParseInt(loc.TimestampMs, 10, 64)
		if err != nil {
			log.Printf("[Upload] Skipping entry with bad timestamp %q: %v", loc.TimestampMs, err)
			continue
		}
		observations = append(observations, models.Observation{
			Timestamp: ts,
			Latitude:  float64(loc.LatitudeE7) / 1e7,
			Longitude: float64(loc.LongitudeE7) / 1e7,
		})
	}

	userID := middleware.UserID(c)
	locations, err := h.locations.ProcessRawObservations(c.Request.Context(), userID, observations, true)
	if errors.Is(err, models.ErrUserNotFound) {
		response.NotFound(c, "User not found", err)
		return
	}
	if err != nil {
		response.InternalError(c, "Failed to process location history", err)
		return
	}

	response.Success(c, gin.H{
		"message":           "Location history processed",
		"frequentLocations": locations,
	})
}

type backgroundDataRequest struct {
	DataToBeProcessed []backgroundObservation `json:"dataToBeProcessed" binding:"required"`
}

type backgroundObservation struct {
	Timestamp int64 `json:"timestamp"`
	Coords    struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"coords"`
}

// StoreBackgroundData handles POST /storeBackgroundData: queue a batch of
// observations reported by the client for the nightly sweep.
func (h *UploadHandler) StoreBackgroundData(c *gin.Context) {
	var req backgroundDataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "You must provide dataToBeProcessed", err)
		return
	}

	observations := make([]models.Observation, 0, len(req.DataToBeProcessed))
	for _, obs := range req.DataToBeProcessed {
		observations = append(observations, models.Observation{
			Timestamp: obs.Timestamp,
			Latitude:  obs.Coords.Latitude,
			Longitude: obs.Coords.Longitude,
		})
	}

	userID := middleware.UserID(c)
	err := h.locations.StoreBackgroundData(c.Request.Context(), userID, observations)
	if errors.Is(err, models.ErrUserNotFound) {
		response.NotFound(c, "User not found", err)
		return
	}
	if err != nil {
		response.InternalError(c, "Failed to store background data", err)
		return
	}

	response.Success(c, gin.H{"message": "Background data stored", "queued": len(observations)})
}
