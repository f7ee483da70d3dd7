package service

import (
	"context"
	"fmt"
	"time"

	"github.com/prodplaces/prodplaces-backend-go/internal/analysis"
	"github.com/prodplaces/prodplaces-backend-go/internal/models"
)

// Aggregation windows, in days. WindowAllTime computes over every location.
const (
	WindowAllTime = 0
	WindowWeek    = 7
	WindowMonth   = 30
)

// RankMode selects the ordering for RankLocations.
type RankMode string

const (
	RankByProductivity RankMode = "byProductivity"
	RankByFrequency    RankMode = "byFrequency"
)

// WeekdayAggregateResult is the outcome of recomputing one window's caches.
type WeekdayAggregateResult struct {
	WindowDays int                     `json:"windowDays"`
	Most       models.WeekdayAggregate `json:"most"`
	Least      models.WeekdayAggregate `json:"least"`
}

// AggregationService computes and caches weekday productivity statistics and
// answers ranking and trend queries over a user's frequent locations.
// Caches are recomputed only when a caller asks; mutating productivity does
// not invalidate them automatically.
type AggregationService struct {
	store UserStore
	now   func() time.Time
}

// NewAggregationService creates a new aggregation service
func NewAggregationService(store UserStore) *AggregationService {
	return &AggregationService{store: store, now: time.Now}
}

// RecomputeAggregates recalculates the most/least productive weekday for one
// window and writes the cached answers onto the user.
func (s *AggregationService) RecomputeAggregates(ctx context.Context, userID string, windowDays int) (*WeekdayAggregateResult, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := s.recomputeOnUser(user, windowDays)

	if err := s.store.SaveUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to save user %s: %w", userID, err)
	}
	return result, nil
}

// RecomputeAllWindows refreshes all six cached aggregates with a single
// load and save.
func (s *AggregationService) RecomputeAllWindows(ctx context.Context, userID string) error {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return err
	}

	for _, window := range []int{WindowAllTime, WindowWeek, WindowMonth} {
		s.recomputeOnUser(user, window)
	}

	if err := s.store.SaveUser(ctx, user); err != nil {
		return fmt.Errorf("failed to save user %s: %w", userID, err)
	}
	return nil
}

// CachedWeekday returns the cached most or least productive weekday for a
// window without recomputing it.
func (s *AggregationService) CachedWeekday(ctx context.Context, userID string, windowDays int, most bool) (models.WeekdayAggregate, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return models.WeekdayAggregate{}, err
	}

	switch windowDays {
	case WindowWeek:
		if most {
			return user.MostProductiveWeekdayLast7Days, nil
		}
		return user.LeastProductiveWeekdayLast7Days, nil
	case WindowMonth:
		if most {
			return user.MostProductiveWeekdayLast30Days, nil
		}
		return user.LeastProductiveWeekdayLast30Days, nil
	default:
		if most {
			return user.MostProductiveWeekdayAllTime, nil
		}
		return user.LeastProductiveWeekdayAllTime, nil
	}
}

// RankLocations ranks the user's places by average productivity or visit
// frequency.
func (s *AggregationService) RankLocations(ctx context.Context, userID string, windowDays, topN int, mode RankMode) ([]analysis.LocationRank, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	switch mode {
	case RankByFrequency:
		return analysis.RankByVisitFrequency(user.FrequentLocations, topN), nil
	case RankByProductivity:
		return analysis.RankByAverageProductivity(user.FrequentLocations, windowDays, topN, s.now()), nil
	default:
		return nil, fmt.Errorf("%w: unknown rank mode %q", models.ErrInvalidInput, mode)
	}
}

// DailyTrend returns the per-date productivity averages for the trailing
// window.
func (s *AggregationService) DailyTrend(ctx context.Context, userID string, windowDays int) ([]analysis.DailyAverage, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return analysis.DailyProductivityTrend(user.FrequentLocations, windowDays, s.now()), nil
}

// recomputeOnUser computes one window's aggregates and writes them into the
// matching cache fields. Unrecognized windows fall back to all-time, like
// the callers that pass 0.
func (s *AggregationService) recomputeOnUser(user *models.User, windowDays int) *WeekdayAggregateResult {
	averages := analysis.ComputeWeekdayAverages(user.FrequentLocations, windowDays, s.now())
	most := analysis.MostProductiveWeekday(averages)
	least := analysis.LeastProductiveWeekday(averages)

	switch windowDays {
	case WindowWeek:
		user.MostProductiveWeekdayLast7Days = most
		user.LeastProductiveWeekdayLast7Days = least
	case WindowMonth:
		user.MostProductiveWeekdayLast30Days = most
		user.LeastProductiveWeekdayLast30Days = least
	default:
		user.MostProductiveWeekdayAllTime = most
		user.LeastProductiveWeekdayAllTime = least
	}

	return &WeekdayAggregateResult{WindowDays: windowDays, Most: most, Least: least}
}
