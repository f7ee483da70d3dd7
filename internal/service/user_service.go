package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/prodplaces/prodplaces-backend-go/internal/models"
)

// UserService handles user lifecycle and settings updates.
type UserService struct {
	store      UserStore
	aggregates *AggregationService
	jwtSecret  []byte
}

// NewUserService creates a new user service
func NewUserService(store UserStore, aggregates *AggregationService, jwtSecret string) *UserService {
	return &UserService{
		store:      store,
		aggregates: aggregates,
		jwtSecret:  []byte(jwtSecret),
	}
}

// GetOrCreate returns the existing user or creates an empty one, along with
// a signed API token.
func (s *UserService) GetOrCreate(ctx context.Context, userID string) (*models.User, string, bool, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil && !errors.Is(err, models.ErrUserNotFound) {
		return nil, "", false, err
	}

	created := false
	if user == nil {
		user = &models.User{
			ID:                        userID,
			PresetProductiveLocations: map[string]float64{},
			Settings:                  map[string]string{},
		}
		if err := s.store.SaveUser(ctx, user); err != nil {
			return nil, "", false, fmt.Errorf("failed to create user %s: %w", userID, err)
		}
		created = true
	}

	token, err := s.TokenForUser(userID)
	if err != nil {
		return nil, "", false, err
	}
	return user, token, created, nil
}

// TokenForUser signs a token carrying the user ID as subject.
func (s *UserService) TokenForUser(userID string) (string, error) {
	claims := jwt.MapClaims{
		"sub": userID,
		"iat": time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// UpdateSettings replaces the user's home location and preset productive
// locations. Presets with scores at or below zero are discarded. Matching
// presets are applied to existing locations that lack a score, and every
// weekday cache is recomputed afterwards since productivity may have
// changed.
func (s *UserService) UpdateSettings(ctx context.Context, userID, homeLocation, latlngHome string, presets map[string]float64) error {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return err
	}

	user.HomeLocation = homeLocation
	user.LatLngHomeLocation = latlngHome

	kept := map[string]float64{}
	for addr, score := range presets {
		if score > 0 {
			kept[addr] = score
		}
	}
	user.PresetProductiveLocations = kept

	applyPresets(user)

	if err := s.store.SaveUser(ctx, user); err != nil {
		return fmt.Errorf("failed to save user %s: %w", userID, err)
	}

	return s.aggregates.RecomputeAllWindows(ctx, userID)
}
