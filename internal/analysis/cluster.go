package analysis

import (
	"github.com/prodplaces/prodplaces-backend-go/internal/models"
	"github.com/prodplaces/prodplaces-backend-go/internal/spatial"
)

// VisitWindow is one sitting's time span inside a cluster.
type VisitWindow struct {
	StartTime int64 `json:"startTime"` // Unix timestamp in milliseconds
	EndTime   int64 `json:"endTime"`   // Unix timestamp in milliseconds
}

// Cluster groups sittings around the coordinate of the sitting that created
// it. The anchor never moves, even as members accumulate.
type Cluster struct {
	Latitude  float64
	Longitude float64
	Visits    []VisitWindow
}

// Key returns the cluster's "lat , lon" coordinate key.
func (c Cluster) Key() string {
	return models.CoordinateKey(c.Latitude, c.Longitude)
}

// ClusterSittings assigns each sitting to the first existing cluster whose
// anchor lies within proximityMiles, scanning clusters in creation order; a
// sitting matching none becomes the anchor of a new cluster.
//
// This is deliberately greedy first-match rather than nearest-centroid:
// anchors are never recomputed, assignment depends on input order, and two
// sittings further apart than the threshold can still share a cluster when
// both sit within the threshold of the same anchor. Recomputing centroids
// would change results for existing data.
func ClusterSittings(sittings []models.Sitting, proximityMiles float64) []Cluster {
	var clusters []Cluster

	for _, sitting := range sittings {
		assigned := false
		for i := range clusters {
			if spatial.MilesBetween(sitting.Latitude, sitting.Longitude, clusters[i].Latitude, clusters[i].Longitude) < proximityMiles {
				clusters[i].Visits = append(clusters[i].Visits, VisitWindow{
					StartTime: sitting.StartTime,
					EndTime:   sitting.EndTime,
				})
				assigned = true
				break
			}
		}
		if !assigned {
			clusters = append(clusters, Cluster{
				Latitude:  sitting.Latitude,
				Longitude: sitting.Longitude,
				Visits: []VisitWindow{{
					StartTime: sitting.StartTime,
					EndTime:   sitting.EndTime,
				}},
			})
		}
	}

	return clusters
}

// FilterSingletons keeps only clusters visited at least twice. A place seen
// once is not a frequent location.
func FilterSingletons(clusters []Cluster) []Cluster {
	var frequent []Cluster
	for _, c := range clusters {
		if len(c.Visits) >= 2 {
			frequent = append(frequent, c)
		}
	}
	return frequent
}
