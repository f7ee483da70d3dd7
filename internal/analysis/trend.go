package analysis

import (
	"fmt"
	"sort"
	"time"

	"github.com/prodplaces/prodplaces-backend-go/internal/models"
)

// DailyAverage is the average productivity recorded across all of a user's
// visit-windows ending on one calendar date.
type DailyAverage struct {
	Date                string  `json:"date"` // M/DD/YYYY
	AverageProductivity float64 `json:"averageProductivity"`
}

// DailyProductivityTrend buckets locations by the calendar date of their end
// time and averages each day, counting untagged visits as zero. Days are
// ordered lexicographically by the date string; with the month unpadded that
// ordering is only calendar-correct within a month, which is the historical
// behavior clients render.
func DailyProductivityTrend(locations []models.FrequentLocation, windowDays int, now time.Time) []DailyAverage {
	sums := make(map[string]float64)
	counts := make(map[string]int)

	for _, loc := range locations {
		ageDays := float64(now.UnixMilli()-loc.EndTime) / float64(24*time.Hour.Milliseconds())
		if ageDays > float64(windowDays) {
			continue
		}
		date := formatTrendDate(time.UnixMilli(loc.EndTime))
		if loc.Productivity != nil {
			sums[date] += *loc.Productivity
		}
		counts[date]++
	}

	dates := make([]string, 0, len(counts))
	for date := range counts {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	trend := make([]DailyAverage, 0, len(dates))
	for _, date := range dates {
		trend = append(trend, DailyAverage{
			Date:                date,
			AverageProductivity: sums[date] / float64(counts[date]),
		})
	}
	return trend
}

// formatTrendDate renders M/DD/YYYY: month unpadded, day zero-padded.
func formatTrendDate(t time.Time) string {
	return fmt.Sprintf("%d/%02d/%d", int(t.Month()), t.Day(), t.Year())
}
