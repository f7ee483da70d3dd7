package main

import (
	"context"
	"log"
	"os"
	"path/filepath"

	"github.com/prodplaces/prodplaces-backend-go/internal/api"
	"github.com/prodplaces/prodplaces-backend-go/internal/config"
	"github.com/prodplaces/prodplaces-backend-go/internal/database"
	"github.com/prodplaces/prodplaces-backend-go/internal/geocoding"
	"github.com/prodplaces/prodplaces-backend-go/internal/handler"
	"github.com/prodplaces/prodplaces-backend-go/internal/repository"
	"github.com/prodplaces/prodplaces-backend-go/internal/scheduler"
	"github.com/prodplaces/prodplaces-backend-go/internal/service"
)

func main() {
	cfg := config.Load()

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		log.Fatal("Failed to create data directory:", err)
	}

	db, err := database.Open(database.Config{Path: cfg.DBPath})
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer db.Close()

	store := repository.NewUserRepository(db)
	geocoder := geocoding.NewGoogleClient(cfg.GoogleAPIKey, cfg.GeocodeTimeout)

	locations := service.NewLocationService(store, geocoder)
	aggregates := service.NewAggregationService(store)
	users := service.NewUserService(store, aggregates, cfg.JWTSecret)

	sweep := scheduler.New(store, locations, aggregates, cfg.SweepHour)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sweep.Run(ctx)

	router := api.SetupRouter(cfg, api.Handlers{
		Users:     handler.NewUserHandler(users),
		Locations: handler.NewLocationHandler(locations),
		Uploads:   handler.NewUploadHandler(locations),
		Stats:     handler.NewStatsHandler(aggregates),
	})

	log.Printf("Server starting on port %s", cfg.Port)
	if err := router.Run(cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
