package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds application configuration
type Config struct {
	Port           string
	DBPath         string
	JWTSecret      string
	GoogleAPIKey   string
	GeocodeTimeout time.Duration
	SweepHour      int // hour of day (0-23) the background sweep runs
}

// Load reads configuration from the environment, with development defaults
func Load() *Config {
	port := os.Getenv("PORT")
	if port == "" {
		port = ":8080"
	}

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "./data/prodplaces.db"
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = "your-secret-key-change-in-production"
	}

	geocodeTimeout := 10 * time.Second
	if v := os.Getenv("GEOCODE_TIMEOUT_SECONDS"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			geocodeTimeout = time.Duration(secs) * time.Second
		}
	}

	sweepHour := 19
	if v := os.Getenv("SWEEP_HOUR"); v != "" {
		if h, err := strconv.Atoi(v); err == nil && h >= 0 && h <= 23 {
			sweepHour = h
		}
	}

	return &Config{
		Port:           port,
		DBPath:         dbPath,
		JWTSecret:      jwtSecret,
		GoogleAPIKey:   os.Getenv("GOOGLE_API_KEY"),
		GeocodeTimeout: geocodeTimeout,
		SweepHour:      sweepHour,
	}
}
