package service

import (
	"context"

	"github.com/prodplaces/prodplaces-backend-go/internal/models"
)

// UserStore is the persistence capability the services consume. The sqlite
// repository satisfies it in production; tests substitute an in-memory map.
type UserStore interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	SaveUser(ctx context.Context, user *models.User) error
	FindLocationsByCoordinate(ctx context.Context, latlng string) ([]models.FrequentLocation, error)
	ListUserIDs(ctx context.Context) ([]string, error)
}
