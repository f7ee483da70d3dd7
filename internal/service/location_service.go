package service

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/prodplaces/prodplaces-backend-go/internal/analysis"
	"github.com/prodplaces/prodplaces-backend-go/internal/geocoding"
	"github.com/prodplaces/prodplaces-backend-go/internal/models"
)

// LocationService runs the observation pipeline: segment raw pings into
// sittings, cluster sittings into frequent-location candidates, enrich the
// candidates with reverse-geocoded addresses and preset productivity rules,
// and persist the result onto the owning user.
type LocationService struct {
	store    UserStore
	geocoder geocoding.Geocoder
}

// NewLocationService creates a new location service
func NewLocationService(store UserStore, geocoder geocoding.Geocoder) *LocationService {
	return &LocationService{store: store, geocoder: geocoder}
}

// ProcessRawObservations runs the full pipeline over a bounded batch of
// already-collected observations for one user. When replace is true (the
// bulk-upload path) the user's frequent locations are rebuilt from this
// batch; otherwise (the background-queue path) new locations are appended.
// The batch is atomic from the caller's point of view: on error the user
// document is left unsaved.
func (s *LocationService) ProcessRawObservations(ctx context.Context, userID string, observations []models.Observation, replace bool) ([]models.FrequentLocation, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	created, err := s.processForUser(ctx, user, observations, replace)
	if err != nil {
		return nil, err
	}

	if err := s.store.SaveUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to save user %s: %w", userID, err)
	}
	return created, nil
}

// StoreBackgroundData appends raw observations to the user's pending pool
// for the nightly sweep.
func (s *LocationService) StoreBackgroundData(ctx context.Context, userID string, observations []models.Observation) error {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return err
	}

	user.PendingObservations = append(user.PendingObservations, observations...)

	if err := s.store.SaveUser(ctx, user); err != nil {
		return fmt.Errorf("failed to save user %s: %w", userID, err)
	}
	return nil
}

// ProcessBackgroundData drains the user's pending observation pool through
// the pipeline, appending any new frequent locations, then clears the pool.
func (s *LocationService) ProcessBackgroundData(ctx context.Context, userID string) error {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return err
	}

	pending := user.PendingObservations
	if len(pending) == 0 {
		return nil
	}

	if _, err := s.processForUser(ctx, user, pending, false); err != nil {
		return err
	}
	user.PendingObservations = nil

	if err := s.store.SaveUser(ctx, user); err != nil {
		return fmt.Errorf("failed to save user %s: %w", userID, err)
	}
	return nil
}

// UpdateProductivity overwrites the productivity score of one location.
func (s *LocationService) UpdateProductivity(ctx context.Context, userID, locationID string, productivity float64) (*models.FrequentLocation, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	loc := user.LocationByID(locationID)
	if loc == nil {
		return nil, fmt.Errorf("location %s not found for user %s", locationID, userID)
	}
	loc.Productivity = &productivity

	if err := s.store.SaveUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to save user %s: %w", userID, err)
	}
	return loc, nil
}

// UnratedLocationsSince returns locations from the trailing window that have
// no productivity score yet, for the client to prompt the user about.
func (s *LocationService) UnratedLocationsSince(ctx context.Context, userID string, days int, nowMillis int64) ([]models.FrequentLocation, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	cutoff := nowMillis - int64(days)*24*60*60*1000
	var unrated []models.FrequentLocation
	for _, loc := range user.FrequentLocations {
		if loc.Productivity == nil && loc.StartTime >= cutoff {
			unrated = append(unrated, loc)
		}
	}
	return unrated, nil
}

// processForUser mutates user in place: segments and clusters the batch,
// builds one FrequentLocation per visit-window of each qualifying cluster,
// and enriches the combined set. Invalid observations are dropped
// individually; the batch continues.
func (s *LocationService) processForUser(ctx context.Context, user *models.User, observations []models.Observation, replace bool) ([]models.FrequentLocation, error) {
	valid := observations[:0:0]
	for _, obs := range observations {
		if err := obs.Validate(); err != nil {
			log.Printf("[LocationService] Dropping observation for user %s: %v", user.ID, err)
			continue
		}
		valid = append(valid, obs)
	}

	sittings := analysis.SegmentSittings(valid, analysis.DefaultProximityMiles, analysis.DefaultMinDwell)
	clusters := analysis.FilterSingletons(analysis.ClusterSittings(sittings, analysis.DefaultProximityMiles))

	var created []models.FrequentLocation
	for _, cluster := range clusters {
		key := cluster.Key()
		for _, visit := range cluster.Visits {
			created = append(created, models.FrequentLocation{
				ID:        uuid.NewString(),
				LatLng:    key,
				Latitude:  cluster.Latitude,
				Longitude: cluster.Longitude,
				StartTime: visit.StartTime,
				EndTime:   visit.EndTime,
			})
		}
	}

	if replace {
		user.FrequentLocations = created
	} else {
		user.FrequentLocations = append(user.FrequentLocations, created...)
	}

	s.enrich(ctx, user)
	applyPresets(user)

	log.Printf("[LocationService] Processed %d observations for user %s: %d sittings, %d clusters, %d locations",
		len(valid), user.ID, len(sittings), len(clusters), len(created))
	return created, nil
}

// enrich resolves an address for every unresolved location on the user.
// Resolution order per coordinate key: a location already resolved in this
// run, then any persisted location at the same coordinate with a non-empty
// address (across users), then the external geocoder. One lookup runs per
// distinct unresolved key; registration happens under the mutex before any
// goroutine starts, so the same key can never be fetched twice in a batch.
// Individual failures leave the location unresolved for a later run and
// never fail the batch.
func (s *LocationService) enrich(ctx context.Context, user *models.User) {
	type lookup struct {
		lat, lon float64
	}

	var mu sync.Mutex
	discovered := make(map[string]*models.Address)
	pending := make(map[string]lookup)

	for _, loc := range user.FrequentLocations {
		if loc.AddressResolved() {
			// Seed the memo so other windows at this coordinate reuse it.
			if !loc.Address.IsEmpty() {
				discovered[loc.LatLng] = loc.Address
			}
			continue
		}
		if _, seen := pending[loc.LatLng]; seen {
			continue
		}
		if _, seen := discovered[loc.LatLng]; seen {
			continue
		}
		pending[loc.LatLng] = lookup{lat: loc.Latitude, lon: loc.Longitude}
	}

	var wg sync.WaitGroup
	for key, l := range pending {
		wg.Add(1)
		go func(key string, l lookup) {
			defer wg.Done()

			addr := s.resolveCoordinate(ctx, key, l.lat, l.lon)
			if addr == nil {
				return
			}

			mu.Lock()
			discovered[key] = addr
			mu.Unlock()
		}(key, l)
	}
	wg.Wait()

	for i := range user.FrequentLocations {
		loc := &user.FrequentLocations[i]
		if loc.AddressResolved() {
			continue
		}
		if addr, ok := discovered[loc.LatLng]; ok {
			copied := *addr
			loc.Address = &copied
		}
	}
}

// resolveCoordinate finds an address for one coordinate key, or nil when it
// must stay unresolved for a later run.
func (s *LocationService) resolveCoordinate(ctx context.Context, key string, lat, lon float64) *models.Address {
	known, err := s.store.FindLocationsByCoordinate(ctx, key)
	if err != nil {
		log.Printf("[LocationService] Known-location lookup failed for %s: %v", key, err)
	}
	for _, k := range known {
		if k.Address != nil && !k.Address.IsEmpty() {
			copied := *k.Address
			return &copied
		}
	}

	addr, err := s.geocoder.ReverseGeocode(ctx, lat, lon)
	if err != nil {
		log.Printf("[LocationService] Geocode failed for %s: %v", key, err)
		return nil
	}
	return addr
}

// applyPresets copies the user's preset productivity scores onto resolved
// locations that match by formatted address and have no score yet.
func applyPresets(user *models.User) {
	if len(user.PresetProductiveLocations) == 0 {
		return
	}
	for i := range user.FrequentLocations {
		loc := &user.FrequentLocations[i]
		if loc.Productivity != nil {
			continue
		}
		addr := loc.FormattedAddress()
		if addr == "" {
			continue
		}
		if score, ok := user.PresetProductiveLocations[addr]; ok {
			v := score
			loc.Productivity = &v
		}
	}
}
