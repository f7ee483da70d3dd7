package analysis

import (
	"time"

	"github.com/prodplaces/prodplaces-backend-go/internal/models"
)

// WeekdayNames maps bucket indexes (Sunday=0..Saturday=6) to display names.
var WeekdayNames = [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// WeekdayAverages is a dense per-weekday productivity summary, indexed
// Sunday=0..Saturday=6. A bucket with no samples reports an average of 0;
// SampleCounts lets callers separate that from a genuine zero average.
type WeekdayAverages struct {
	Averages     [7]float64
	SampleCounts [7]int
}

// ComputeWeekdayAverages buckets productivity-tagged locations by the
// weekday of their start time and averages each bucket. windowDays limits
// the input to locations starting within the trailing window; 0 means all
// time. Empty buckets divide by a substituted 1, so they report exactly 0.
func ComputeWeekdayAverages(locations []models.FrequentLocation, windowDays int, now time.Time) WeekdayAverages {
	cutoff := int64(0)
	if windowDays > 0 {
		cutoff = now.Add(-time.Duration(windowDays) * 24 * time.Hour).UnixMilli()
	}

	var sums [7]float64
	var counts [7]int

	for _, loc := range locations {
		if loc.StartTime < cutoff {
			continue
		}
		if loc.Productivity == nil {
			continue
		}
		day := int(time.UnixMilli(loc.StartTime).Weekday())
		sums[day] += *loc.Productivity
		counts[day]++
	}

	var result WeekdayAverages
	result.SampleCounts = counts
	for i := 0; i < 7; i++ {
		n := counts[i]
		if n == 0 {
			n = 1
		}
		result.Averages[i] = sums[i] / float64(n)
	}
	return result
}

// MostProductiveWeekday selects the weekday with the highest average.
func MostProductiveWeekday(w WeekdayAverages) models.WeekdayAggregate {
	extreme := w.Averages[0]
	for _, avg := range w.Averages[1:] {
		if avg > extreme {
			extreme = avg
		}
	}
	return aggregateFor(w, extreme)
}

// LeastProductiveWeekday selects the weekday with the lowest average.
func LeastProductiveWeekday(w WeekdayAverages) models.WeekdayAggregate {
	extreme := w.Averages[0]
	for _, avg := range w.Averages[1:] {
		if avg < extreme {
			extreme = avg
		}
	}
	return aggregateFor(w, extreme)
}

// aggregateFor resolves the extreme value back to a weekday using the
// historical tie-break policy: scan Sunday through Saturday keeping the last
// bucket that equals the extreme, falling back to Saturday when nothing
// matches. Whether last-match-wins was ever intentional is unknown, but
// clients have seen these answers for years, so the scan is kept as is.
func aggregateFor(w WeekdayAverages, extreme float64) models.WeekdayAggregate {
	day := 6
	for i := 0; i < 7; i++ {
		if w.Averages[i] == extreme {
			day = i
		}
	}
	return models.WeekdayAggregate{
		Weekday:         WeekdayNames[day],
		AvgProductivity: extreme,
		SampleCount:     w.SampleCounts[day],
	}
}
