package analysis

import (
	"time"

	"github.com/prodplaces/prodplaces-backend-go/internal/models"
	"github.com/prodplaces/prodplaces-backend-go/internal/spatial"
)

// Defaults for sitting detection and clustering.
const (
	DefaultProximityMiles = 0.1
	DefaultMinDwell       = 15 * time.Minute
)

// SegmentSittings folds an ordered sequence of observations into dwell
// periods in a single forward pass. The accumulator anchors at the first
// observation of each dwell; observations within proximityMiles of the
// anchor only extend the end time. When the device moves away, the
// accumulated dwell is emitted only if it lasted longer than minDwell, and
// the accumulator resets either way.
//
// A dwell shorter than minDwell that is broken by movement is silently
// dropped rather than merged into the next accumulator, and the trailing
// in-progress accumulator is never flushed. Both behaviors are load-bearing
// for downstream consumers; keep them.
func SegmentSittings(observations []models.Observation, proximityMiles float64, minDwell time.Duration) []models.Sitting {
	var sittings []models.Sitting

	minDwellMs := minDwell.Milliseconds()

	var (
		started   bool
		startTime int64
		endTime   int64
		anchorLat float64
		anchorLon float64
	)

	for _, obs := range observations {
		switch {
		case !started:
			started = true
			startTime = obs.Timestamp
			endTime = obs.Timestamp
			anchorLat = obs.Latitude
			anchorLon = obs.Longitude

		case spatial.MilesBetween(anchorLat, anchorLon, obs.Latitude, obs.Longitude) < proximityMiles:
			endTime = obs.Timestamp

		default:
			if startTime < endTime-minDwellMs {
				sittings = append(sittings, models.Sitting{
					StartTime: startTime,
					EndTime:   endTime,
					Latitude:  anchorLat,
					Longitude: anchorLon,
				})
			}
			startTime = obs.Timestamp
			endTime = obs.Timestamp
			anchorLat = obs.Latitude
			anchorLon = obs.Longitude
		}
	}

	return sittings
}
