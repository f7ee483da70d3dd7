package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prodplaces/prodplaces-backend-go/internal/models"
)

const minuteMs = int64(60 * 1000)

func fptr(v float64) *float64 { return &v }

// twoVisitBatch produces two qualifying dwells at 42.0,-71.0 separated by
// departures, plus a trailing accumulator that must be discarded.
func twoVisitBatch() []models.Observation {
	mk := func(minutes int64, lat float64) models.Observation {
		return models.Observation{Timestamp: minutes * minuteMs, Latitude: lat, Longitude: -71.0}
	}
	return []models.Observation{
		mk(0, 42.0),
		mk(20, 42.0),
		mk(25, 42.01), // departure, emits visit one
		mk(35, 42.0),
		mk(60, 42.0),
		mk(65, 42.05), // departure, emits visit two
	}
}

func TestProcessRawObservationsBuildsFrequentLocations(t *testing.T) {
	store := newFakeStore()
	store.seed(&models.User{ID: "u1"})
	geocoder := newFakeGeocoder(&models.Address{FormattedAddress: "1 Main St", PlaceID: "p1", PrimaryType: "library"})
	svc := NewLocationService(store, geocoder)

	created, err := svc.ProcessRawObservations(context.Background(), "u1", twoVisitBatch(), true)
	require.NoError(t, err)
	require.Len(t, created, 2)

	saved := store.stored("u1")
	require.Len(t, saved.FrequentLocations, 2)

	for _, loc := range saved.FrequentLocations {
		assert.NotEmpty(t, loc.ID)
		assert.Equal(t, models.CoordinateKey(42.0, -71.0), loc.LatLng)
		require.NotNil(t, loc.Address)
		assert.Equal(t, "1 Main St", loc.Address.FormattedAddress)
	}
	assert.NotEqual(t, saved.FrequentLocations[0].ID, saved.FrequentLocations[1].ID)

	// Both visit-windows share a coordinate, so one lookup serves both.
	assert.Equal(t, 1, geocoder.totalCalls())
}

func TestProcessRawObservationsAppliesPresets(t *testing.T) {
	store := newFakeStore()
	store.seed(&models.User{
		ID:                        "u1",
		PresetProductiveLocations: map[string]float64{"1 Main St": 7.5},
	})
	geocoder := newFakeGeocoder(&models.Address{FormattedAddress: "1 Main St"})
	svc := NewLocationService(store, geocoder)

	_, err := svc.ProcessRawObservations(context.Background(), "u1", twoVisitBatch(), true)
	require.NoError(t, err)

	saved := store.stored("u1")
	for _, loc := range saved.FrequentLocations {
		require.NotNil(t, loc.Productivity)
		assert.Equal(t, 7.5, *loc.Productivity)
	}
}

func TestProcessRawObservationsReusesKnownLocations(t *testing.T) {
	store := newFakeStore()
	store.seed(&models.User{ID: "u1"})
	key := models.CoordinateKey(42.0, -71.0)
	store.knownByLatLng[key] = []models.FrequentLocation{{
		LatLng:  key,
		Address: &models.Address{FormattedAddress: "Known Place"},
	}}
	geocoder := newFakeGeocoder(&models.Address{FormattedAddress: "Should Not Be Used"})
	svc := NewLocationService(store, geocoder)

	_, err := svc.ProcessRawObservations(context.Background(), "u1", twoVisitBatch(), true)
	require.NoError(t, err)

	saved := store.stored("u1")
	for _, loc := range saved.FrequentLocations {
		require.NotNil(t, loc.Address)
		assert.Equal(t, "Known Place", loc.Address.FormattedAddress)
	}
	assert.Zero(t, geocoder.totalCalls())
}

func TestProcessRawObservationsGeocodeFailureLeavesUnresolved(t *testing.T) {
	store := newFakeStore()
	store.seed(&models.User{ID: "u1"})
	geocoder := newFakeGeocoder(nil)
	geocoder.err = models.ErrGeocodeUnavailable
	svc := NewLocationService(store, geocoder)

	created, err := svc.ProcessRawObservations(context.Background(), "u1", twoVisitBatch(), true)
	require.NoError(t, err)
	require.Len(t, created, 2)

	saved := store.stored("u1")
	for _, loc := range saved.FrequentLocations {
		assert.False(t, loc.AddressResolved())
	}
}

func TestProcessRawObservationsReplaceVsAppend(t *testing.T) {
	store := newFakeStore()
	store.seed(&models.User{
		ID: "u1",
		FrequentLocations: []models.FrequentLocation{{
			ID:     "existing",
			LatLng: models.CoordinateKey(40.0, -70.0),
		}},
	})
	geocoder := newFakeGeocoder(&models.Address{FormattedAddress: "1 Main St"})
	svc := NewLocationService(store, geocoder)

	_, err := svc.ProcessRawObservations(context.Background(), "u1", twoVisitBatch(), false)
	require.NoError(t, err)
	assert.Len(t, store.stored("u1").FrequentLocations, 3)

	_, err = svc.ProcessRawObservations(context.Background(), "u1", twoVisitBatch(), true)
	require.NoError(t, err)
	assert.Len(t, store.stored("u1").FrequentLocations, 2)
}

func TestProcessRawObservationsDropsInvalid(t *testing.T) {
	store := newFakeStore()
	store.seed(&models.User{ID: "u1"})
	geocoder := newFakeGeocoder(&models.Address{FormattedAddress: "1 Main St"})
	svc := NewLocationService(store, geocoder)

	batch := append([]models.Observation{
		{Timestamp: 0, Latitude: 42.0, Longitude: -71.0},  // zero timestamp
		{Timestamp: 1, Latitude: 99.0, Longitude: -71.0},  // latitude out of range
		{Timestamp: 1, Latitude: 42.0, Longitude: -200.0}, // longitude out of range
	}, twoVisitBatch()...)

	created, err := svc.ProcessRawObservations(context.Background(), "u1", batch, true)
	require.NoError(t, err)
	assert.Len(t, created, 2)
}

func TestProcessRawObservationsSaveFailureDiscardsBatch(t *testing.T) {
	store := newFakeStore()
	store.seed(&models.User{ID: "u1"})
	geocoder := newFakeGeocoder(&models.Address{FormattedAddress: "1 Main St"})
	svc := NewLocationService(store, geocoder)

	store.saveErr = errors.New("disk full")
	_, err := svc.ProcessRawObservations(context.Background(), "u1", twoVisitBatch(), true)
	require.Error(t, err)

	// The failed save aborts the batch: nothing computed in it survives.
	saved := store.stored("u1")
	assert.Empty(t, saved.FrequentLocations)

	// Same batch succeeds once persistence recovers.
	store.saveErr = nil
	_, err = svc.ProcessRawObservations(context.Background(), "u1", twoVisitBatch(), true)
	require.NoError(t, err)
	assert.Len(t, store.stored("u1").FrequentLocations, 2)
}

func TestProcessRawObservationsUnknownUser(t *testing.T) {
	store := newFakeStore()
	svc := NewLocationService(store, newFakeGeocoder(nil))

	_, err := svc.ProcessRawObservations(context.Background(), "nobody", twoVisitBatch(), true)
	assert.True(t, errors.Is(err, models.ErrUserNotFound))
}

func TestStoreAndProcessBackgroundData(t *testing.T) {
	store := newFakeStore()
	store.seed(&models.User{ID: "u1"})
	geocoder := newFakeGeocoder(&models.Address{FormattedAddress: "1 Main St"})
	svc := NewLocationService(store, geocoder)

	batch := twoVisitBatch()
	require.NoError(t, svc.StoreBackgroundData(context.Background(), "u1", batch[:3]))
	require.NoError(t, svc.StoreBackgroundData(context.Background(), "u1", batch[3:]))

	saved := store.stored("u1")
	assert.Len(t, saved.PendingObservations, len(batch))
	assert.Empty(t, saved.FrequentLocations)

	require.NoError(t, svc.ProcessBackgroundData(context.Background(), "u1"))

	saved = store.stored("u1")
	assert.Empty(t, saved.PendingObservations)
	assert.Len(t, saved.FrequentLocations, 2)
}

func TestProcessBackgroundDataNoPending(t *testing.T) {
	store := newFakeStore()
	store.seed(&models.User{ID: "u1"})
	svc := NewLocationService(store, newFakeGeocoder(nil))

	before := store.saveCalls
	require.NoError(t, svc.ProcessBackgroundData(context.Background(), "u1"))
	assert.Equal(t, before, store.saveCalls)
}

func TestUpdateProductivity(t *testing.T) {
	store := newFakeStore()
	store.seed(&models.User{
		ID: "u1",
		FrequentLocations: []models.FrequentLocation{
			{ID: "loc-1"},
			{ID: "loc-2", Productivity: fptr(3)},
		},
	})
	svc := NewLocationService(store, newFakeGeocoder(nil))

	loc, err := svc.UpdateProductivity(context.Background(), "u1", "loc-1", 8)
	require.NoError(t, err)
	require.NotNil(t, loc.Productivity)
	assert.Equal(t, 8.0, *loc.Productivity)

	saved := store.stored("u1")
	require.NotNil(t, saved.FrequentLocations[0].Productivity)
	assert.Equal(t, 8.0, *saved.FrequentLocations[0].Productivity)

	_, err = svc.UpdateProductivity(context.Background(), "u1", "missing", 5)
	assert.Error(t, err)
}

func TestUnratedLocationsSince(t *testing.T) {
	now := time.Now().UnixMilli()
	dayMs := int64(24 * 60 * 60 * 1000)

	store := newFakeStore()
	store.seed(&models.User{
		ID: "u1",
		FrequentLocations: []models.FrequentLocation{
			{ID: "recent-unrated", StartTime: now - 2*dayMs},
			{ID: "recent-rated", StartTime: now - 2*dayMs, Productivity: fptr(5)},
			{ID: "old-unrated", StartTime: now - 30*dayMs},
		},
	})
	svc := NewLocationService(store, newFakeGeocoder(nil))

	unrated, err := svc.UnratedLocationsSince(context.Background(), "u1", 7, now)
	require.NoError(t, err)
	require.Len(t, unrated, 1)
	assert.Equal(t, "recent-unrated", unrated[0].ID)
}
