package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/prodplaces/prodplaces-backend-go/internal/database"
	"github.com/prodplaces/prodplaces-backend-go/internal/models"
)

// UserRepository handles database operations for user documents and their
// embedded frequent locations.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `
	id, home_location, latlong_home_location,
	preset_productive_locations, settings, pending_observations,
	most_productive_weekday_all_time, least_productive_weekday_all_time,
	most_productive_weekday_last7, least_productive_weekday_last7,
	most_productive_weekday_last30, least_productive_weekday_last30
`

// GetUser loads one user and their ordered frequent locations.
// Returns models.ErrUserNotFound when no row exists.
func (r *UserRepository) GetUser(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`

	var (
		user                      models.User
		presetsJSON, settingsJSON string
		pendingJSON               string
		mostAll, leastAll         string
		most7, least7             string
		most30, least30           string
	)

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&user.HomeLocation,
		&user.LatLngHomeLocation,
		&presetsJSON,
		&settingsJSON,
		&pendingJSON,
		&mostAll,
		&leastAll,
		&most7,
		&least7,
		&most30,
		&least30,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", models.ErrUserNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err := unmarshalUserFields(&user, presetsJSON, settingsJSON, pendingJSON,
		mostAll, leastAll, most7, least7, most30, least30); err != nil {
		return nil, err
	}

	locations, err := r.locationsForUser(ctx, id)
	if err != nil {
		return nil, err
	}
	user.FrequentLocations = locations

	return &user, nil
}

// SaveUser upserts the user row and rewrites their frequent locations in a
// single transaction. Locations are replaced wholesale so the stored order
// always matches the in-memory order.
func (r *UserRepository) SaveUser(ctx context.Context, user *models.User) error {
	presetsJSON, err := json.Marshal(orEmptyMap(user.PresetProductiveLocations))
	if err != nil {
		return fmt.Errorf("failed to marshal presets: %w", err)
	}
	settingsJSON, err := json.Marshal(orEmptyStringMap(user.Settings))
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	pending := user.PendingObservations
	if pending == nil {
		pending = []models.Observation{}
	}
	pendingJSON, err := json.Marshal(pending)
	if err != nil {
		return fmt.Errorf("failed to marshal pending observations: %w", err)
	}

	aggregates := make([][]byte, 6)
	for i, agg := range []models.WeekdayAggregate{
		user.MostProductiveWeekdayAllTime,
		user.LeastProductiveWeekdayAllTime,
		user.MostProductiveWeekdayLast7Days,
		user.LeastProductiveWeekdayLast7Days,
		user.MostProductiveWeekdayLast30Days,
		user.LeastProductiveWeekdayLast30Days,
	} {
		data, err := json.Marshal(agg)
		if err != nil {
			return fmt.Errorf("failed to marshal weekday aggregate: %w", err)
		}
		aggregates[i] = data
	}

	return database.Transaction(r.db, func(tx *sql.Tx) error {
		upsert := `
			INSERT INTO users (` + userColumns + `, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT(id) DO UPDATE SET
				home_location = excluded.home_location,
				latlong_home_location = excluded.latlong_home_location,
				preset_productive_locations = excluded.preset_productive_locations,
				settings = excluded.settings,
				pending_observations = excluded.pending_observations,
				most_productive_weekday_all_time = excluded.most_productive_weekday_all_time,
				least_productive_weekday_all_time = excluded.least_productive_weekday_all_time,
				most_productive_weekday_last7 = excluded.most_productive_weekday_last7,
				least_productive_weekday_last7 = excluded.least_productive_weekday_last7,
				most_productive_weekday_last30 = excluded.most_productive_weekday_last30,
				least_productive_weekday_last30 = excluded.least_productive_weekday_last30,
				updated_at = CURRENT_TIMESTAMP
		`

		if _, err := tx.ExecContext(ctx, upsert,
			user.ID,
			user.HomeLocation,
			user.LatLngHomeLocation,
			string(presetsJSON),
			string(settingsJSON),
			string(pendingJSON),
			string(aggregates[0]),
			string(aggregates[1]),
			string(aggregates[2]),
			string(aggregates[3]),
			string(aggregates[4]),
			string(aggregates[5]),
		); err != nil {
			return fmt.Errorf("failed to upsert user: %w", err)
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM frequent_locations WHERE user_id = ?", user.ID); err != nil {
			return fmt.Errorf("failed to clear frequent locations: %w", err)
		}

		insert := `
			INSERT INTO frequent_locations (
				id, user_id, position, latlng, latitude, longitude,
				start_time, end_time, address_resolved,
				formatted_address, place_id, primary_type, productivity
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`

		stmt, err := tx.PrepareContext(ctx, insert)
		if err != nil {
			return fmt.Errorf("failed to prepare location insert: %w", err)
		}
		defer stmt.Close()

		for i, loc := range user.FrequentLocations {
			resolved := 0
			var formatted, placeID, primaryType string
			if loc.Address != nil {
				resolved = 1
				formatted = loc.Address.FormattedAddress
				placeID = loc.Address.PlaceID
				primaryType = loc.Address.PrimaryType
			}

			var productivity sql.NullFloat64
			if loc.Productivity != nil {
				productivity = sql.NullFloat64{Float64: *loc.Productivity, Valid: true}
			}

			if _, err := stmt.ExecContext(ctx,
				loc.ID, user.ID, i, loc.LatLng, loc.Latitude, loc.Longitude,
				loc.StartTime, loc.EndTime, resolved,
				formatted, placeID, primaryType, productivity,
			); err != nil {
				return fmt.Errorf("failed to insert frequent location: %w", err)
			}
		}

		return nil
	})
}

// FindLocationsByCoordinate returns every stored location at the exact
// coordinate key that carries a non-empty resolved address, across all
// users. Enrichment uses this to reuse addresses already paid for.
func (r *UserRepository) FindLocationsByCoordinate(ctx context.Context, latlng string) ([]models.FrequentLocation, error) {
	query := `
		SELECT id, latlng, latitude, longitude, start_time, end_time,
			   address_resolved, formatted_address, place_id, primary_type, productivity
		FROM frequent_locations
		WHERE latlng = ? AND address_resolved = 1 AND formatted_address != ''
	`

	rows, err := r.db.QueryContext(ctx, query, latlng)
	if err != nil {
		return nil, fmt.Errorf("failed to query locations by coordinate: %w", err)
	}
	defer rows.Close()

	return scanLocations(rows)
}

// ListUserIDs returns every user ID, for the scheduled sweep.
func (r *UserRepository) ListUserIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id FROM users ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list user ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// locationsForUser loads a user's locations in stored order.
func (r *UserRepository) locationsForUser(ctx context.Context, userID string) ([]models.FrequentLocation, error) {
	query := `
		SELECT id, latlng, latitude, longitude, start_time, end_time,
			   address_resolved, formatted_address, place_id, primary_type, productivity
		FROM frequent_locations
		WHERE user_id = ?
		ORDER BY position
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query frequent locations: %w", err)
	}
	defer rows.Close()

	return scanLocations(rows)
}

func scanLocations(rows *sql.Rows) ([]models.FrequentLocation, error) {
	var locations []models.FrequentLocation
	for rows.Next() {
		var (
			loc          models.FrequentLocation
			resolved     int
			formatted    string
			placeID      string
			primaryType  string
			productivity sql.NullFloat64
		)
		if err := rows.Scan(
			&loc.ID, &loc.LatLng, &loc.Latitude, &loc.Longitude,
			&loc.StartTime, &loc.EndTime,
			&resolved, &formatted, &placeID, &primaryType, &productivity,
		); err != nil {
			return nil, fmt.Errorf("failed to scan frequent location: %w", err)
		}

		if resolved == 1 {
			loc.Address = &models.Address{
				FormattedAddress: formatted,
				PlaceID:          placeID,
				PrimaryType:      primaryType,
			}
		}
		if productivity.Valid {
			v := productivity.Float64
			loc.Productivity = &v
		}

		locations = append(locations, loc)
	}
	return locations, rows.Err()
}

func unmarshalUserFields(user *models.User, presetsJSON, settingsJSON, pendingJSON string, aggregates ...string) error {
	if err := json.Unmarshal([]byte(presetsJSON), &user.PresetProductiveLocations); err != nil {
		return fmt.Errorf("failed to unmarshal presets: %w", err)
	}
	if err := json.Unmarshal([]byte(settingsJSON), &user.Settings); err != nil {
		return fmt.Errorf("failed to unmarshal settings: %w", err)
	}
	if err := json.Unmarshal([]byte(pendingJSON), &user.PendingObservations); err != nil {
		return fmt.Errorf("failed to unmarshal pending observations: %w", err)
	}

	targets := []*models.WeekdayAggregate{
		&user.MostProductiveWeekdayAllTime,
		&user.LeastProductiveWeekdayAllTime,
		&user.MostProductiveWeekdayLast7Days,
		&user.LeastProductiveWeekdayLast7Days,
		&user.MostProductiveWeekdayLast30Days,
		&user.LeastProductiveWeekdayLast30Days,
	}
	for i, raw := range aggregates {
		if raw == "" {
			continue
		}
		if err := json.Unmarshal([]byte(raw), targets[i]); err != nil {
			return fmt.Errorf("failed to unmarshal weekday aggregate: %w", err)
		}
	}
	return nil
}

func orEmptyMap(m map[string]float64) map[string]float64 {
	if m == nil {
		return map[string]float64{}
	}
	return m
}

func orEmptyStringMap(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
