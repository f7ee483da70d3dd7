package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/prodplaces/prodplaces-backend-go/internal/analysis"
	"github.com/prodplaces/prodplaces-backend-go/internal/middleware"
	"github.com/prodplaces/prodplaces-backend-go/internal/models"
	"github.com/prodplaces/prodplaces-backend-go/internal/service"
	"github.com/prodplaces/prodplaces-backend-go/pkg/response"
)

// StatsHandler handles aggregate statistics endpoints
type StatsHandler struct {
	aggregates *service.AggregationService
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(aggregates *service.AggregationService) *StatsHandler {
	return &StatsHandler{aggregates: aggregates}
}

// weekdayPayload presents a cached aggregate. An empty window reads as
// "Not enough information" rather than a misleading real weekday.
func weekdayPayload(agg models.WeekdayAggregate) gin.H {
	weekday := agg.Weekday
	if agg.SampleCount == 0 || weekday == "" {
		weekday = "Not enough information"
	}
	return gin.H{
		"weekday":             weekday,
		"averageProductivity": agg.AvgProductivity,
		"sampleCount":         agg.SampleCount,
	}
}

// parseWindow maps the days query parameter onto a supported window.
// Absent means all time.
func parseWindow(c *gin.Context) (int, bool) {
	raw := c.Query("days")
	if raw == "" {
		return service.WindowAllTime, true
	}
	days, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	switch days {
	case service.WindowWeek, service.WindowMonth:
		return days, true
	default:
		return service.WindowAllTime, true
	}
}

// MostProductiveWeekday handles GET /getMostProductiveWeekDay.
func (h *StatsHandler) MostProductiveWeekday(c *gin.Context) {
	h.cachedWeekday(c, true)
}

// LeastProductiveWeekday handles GET /getLeastProductiveWeekDay.
func (h *StatsHandler) LeastProductiveWeekday(c *gin.Context) {
	h.cachedWeekday(c, false)
}

func (h *StatsHandler) cachedWeekday(c *gin.Context, most bool) {
	window, ok := parseWindow(c)
	if !ok {
		response.BadRequest(c, "days must be an integer", nil)
		return
	}

	userID := middleware.UserID(c)
	agg, err := h.aggregates.CachedWeekday(c.Request.Context(), userID, window, most)
	if errors.Is(err, models.ErrUserNotFound) {
		response.NotFound(c, "User not found", err)
		return
	}
	if err != nil {
		response.InternalError(c, "Failed to load weekday aggregate", err)
		return
	}

	response.Success(c, weekdayPayload(agg))
}

// RecomputeAggregates handles POST /recomputeAggregates: refresh every
// cached weekday window for the caller.
func (h *StatsHandler) RecomputeAggregates(c *gin.Context) {
	userID := middleware.UserID(c)
	if err := h.aggregates.RecomputeAllWindows(c.Request.Context(), userID); err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			response.NotFound(c, "User not found", err)
			return
		}
		response.InternalError(c, "Failed to recompute aggregates", err)
		return
	}
	response.Success(c, gin.H{"message": "Aggregates recomputed"})
}

// RankedByProductivity handles GET /mostProductiveLocationsRankedLastNDays.
func (h *StatsHandler) RankedByProductivity(c *gin.Context) {
	days, err := strconv.Atoi(c.DefaultQuery("days", "10000"))
	if err != nil || days < 0 {
		response.BadRequest(c, "days must be a non-negative integer", err)
		return
	}
	topN, err := strconv.Atoi(c.DefaultQuery("numberOfItems", "5"))
	if err != nil || topN < 0 {
		response.BadRequest(c, "numberOfItems must be a non-negative integer", err)
		return
	}

	h.ranked(c, days, topN, service.RankByProductivity)
}

// RankedByFrequency handles GET /mostFrequentlyVisitedLocationsRanked.
func (h *StatsHandler) RankedByFrequency(c *gin.Context) {
	topN, err := strconv.Atoi(c.DefaultQuery("numberOfItems", "5"))
	if err != nil || topN < 0 {
		response.BadRequest(c, "numberOfItems must be a non-negative integer", err)
		return
	}

	h.ranked(c, 0, topN, service.RankByFrequency)
}

func (h *StatsHandler) ranked(c *gin.Context, days, topN int, mode service.RankMode) {
	userID := middleware.UserID(c)
	ranks, err := h.aggregates.RankLocations(c.Request.Context(), userID, days, topN, mode)
	if errors.Is(err, models.ErrUserNotFound) {
		response.NotFound(c, "User not found", err)
		return
	}
	if err != nil {
		response.InternalError(c, "Failed to rank locations", err)
		return
	}

	if ranks == nil {
		ranks = []analysis.LocationRank{}
	}
	response.Success(c, ranks)
}

// DailyTrend handles GET /productivityScoresLastNDays. Like the ranked
// endpoint, an absent days parameter means effectively all time.
func (h *StatsHandler) DailyTrend(c *gin.Context) {
	days, err := strconv.Atoi(c.DefaultQuery("days", "10000"))
	if err != nil || days < 0 {
		response.BadRequest(c, "days must be a non-negative integer", err)
		return
	}

	userID := middleware.UserID(c)
	trend, err := h.aggregates.DailyTrend(c.Request.Context(), userID, days)
	if errors.Is(err, models.ErrUserNotFound) {
		response.NotFound(c, "User not found", err)
		return
	}
	if err != nil {
		response.InternalError(c, "Failed to compute trend", err)
		return
	}

	if trend == nil {
		trend = []analysis.DailyAverage{}
	}
	response.Success(c, trend)
}
