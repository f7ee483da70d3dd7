package analysis

import (
	"sort"
	"time"

	"github.com/prodplaces/prodplaces-backend-go/internal/models"
)

// LocationRank is one ranked place: its resolved address, the average of the
// productivity scores recorded there, and how many visit-windows were
// observed.
type LocationRank struct {
	Address             string  `json:"address"`
	AverageProductivity float64 `json:"averageProductivity"`
	TimesObserved       int     `json:"timesObserved"`
}

// RankByAverageProductivity ranks a user's places by average productivity
// within the trailing window (windowDays 0 = all time), descending. Only
// locations with a non-empty resolved address participate. Ties on average
// are broken by timesObserved descending, without disturbing the order of
// the surrounding bands. The result holds at most topN entries.
//
// The input snapshot is never mutated; calling twice yields identical output.
func RankByAverageProductivity(locations []models.FrequentLocation, windowDays, topN int, now time.Time) []LocationRank {
	cutoff := int64(0)
	if windowDays > 0 {
		cutoff = now.Add(-time.Duration(windowDays) * 24 * time.Hour).UnixMilli()
	}

	var filtered []models.FrequentLocation
	for _, loc := range locations {
		if loc.StartTime >= cutoff && loc.FormattedAddress() != "" {
			filtered = append(filtered, loc)
		}
	}

	ranks := summarizeByAddress(filtered)

	sort.SliceStable(ranks, func(i, j int) bool {
		return ranks[i].AverageProductivity > ranks[j].AverageProductivity
	})

	ranks = truncate(ranks, topN)
	resortBandsByTimesObserved(ranks)
	return ranks
}

// RankByVisitFrequency ranks a user's places by how often they were visited,
// descending, over all time.
func RankByVisitFrequency(locations []models.FrequentLocation, topN int) []LocationRank {
	var filtered []models.FrequentLocation
	for _, loc := range locations {
		if loc.FormattedAddress() != "" {
			filtered = append(filtered, loc)
		}
	}

	ranks := summarizeByAddress(filtered)

	sort.SliceStable(ranks, func(i, j int) bool {
		return ranks[i].TimesObserved > ranks[j].TimesObserved
	})

	return truncate(ranks, topN)
}

// summarizeByAddress counts visits and sums productivity per address by
// pre-sorting a copy of the input by address and walking contiguous runs.
// timesObserved is always derived this way, never stored, so repeats of an
// address are only merged when the sort makes them adjacent.
func summarizeByAddress(locations []models.FrequentLocation) []LocationRank {
	sorted := make([]models.FrequentLocation, len(locations))
	copy(sorted, locations)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].FormattedAddress() < sorted[j].FormattedAddress()
	})

	var ranks []LocationRank

	currentAddress := ""
	currentSum := 0.0
	currentCount := 0

	flush := func() {
		if currentCount == 0 {
			return
		}
		ranks = append(ranks, LocationRank{
			Address:             currentAddress,
			AverageProductivity: currentSum / float64(currentCount),
			TimesObserved:       currentCount,
		})
	}

	for _, loc := range sorted {
		addr := loc.FormattedAddress()
		if addr != currentAddress {
			flush()
			currentAddress = addr
			currentSum = 0
			currentCount = 0
		}
		if loc.Productivity != nil {
			currentSum += *loc.Productivity
		}
		currentCount++
	}
	flush()

	return ranks
}

// truncate keeps the first topN entries. Earlier revisions cut one entry too
// many when topN exceeded the available count; the slice is now min(topN, len).
func truncate(ranks []LocationRank, topN int) []LocationRank {
	if topN < 0 {
		topN = 0
	}
	if topN > len(ranks) {
		topN = len(ranks)
	}
	return ranks[:topN]
}

// resortBandsByTimesObserved re-sorts each run of equal averages by
// timesObserved descending, in place, preserving the order of the bands
// themselves.
func resortBandsByTimesObserved(ranks []LocationRank) {
	start := 0
	for start < len(ranks) {
		end := start + 1
		for end < len(ranks) && ranks[end].AverageProductivity == ranks[start].AverageProductivity {
			end++
		}
		band := ranks[start:end]
		sort.SliceStable(band, func(i, j int) bool {
			return band[i].TimesObserved > band[j].TimesObserved
		})
		start = end
	}
}
