package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/prodplaces/prodplaces-backend-go/internal/config"
	"github.com/prodplaces/prodplaces-backend-go/internal/handler"
	"github.com/prodplaces/prodplaces-backend-go/internal/middleware"
)

// Handlers bundles the handler set wired into the router.
type Handlers struct {
	Users     *handler.UserHandler
	Locations *handler.LocationHandler
	Uploads   *handler.UploadHandler
	Stats     *handler.StatsHandler
}

// SetupRouter builds the gin engine with middleware and all routes.
func SetupRouter(cfg *config.Config, h Handlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.RateLimit(120, time.Minute))

	// CORS middleware
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "ProdPlaces API is running",
		})
	})

	// Token issuance is the only unauthenticated endpoint
	r.POST("/getAuth", h.Users.GetAuth)

	authed := r.Group("/", middleware.Auth(cfg.JWTSecret))
	{
		authed.PUT("/updateUserSettings", h.Users.UpdateSettings)

		authed.PUT("/updateProductivityLevel/:locationID", h.Locations.UpdateProductivity)
		authed.GET("/getLocationsWithProductivityNullWithinLastNDays", h.Locations.UnratedLocations)

		authed.POST("/uploadGoogleLocationData", h.Uploads.UploadGoogleLocationData)
		authed.POST("/storeBackgroundData", h.Uploads.StoreBackgroundData)

		authed.GET("/getMostProductiveWeekDay", h.Stats.MostProductiveWeekday)
		authed.GET("/getLeastProductiveWeekDay", h.Stats.LeastProductiveWeekday)
		authed.POST("/recomputeAggregates", h.Stats.RecomputeAggregates)
		authed.GET("/mostProductiveLocationsRankedLastNDays", h.Stats.RankedByProductivity)
		authed.GET("/mostFrequentlyVisitedLocationsRanked", h.Stats.RankedByFrequency)
		authed.GET("/productivityScoresLastNDays", h.Stats.DailyTrend)
	}

	return r
}
