package models

import "strconv"

// Address holds the reverse-geocoded identity of a place. A non-nil Address
// with empty fields is the "geocoder had no answer" sentinel, distinct from
// a nil *Address which means the lookup has not happened yet.
type Address struct {
	FormattedAddress string `json:"formattedAddress"`
	PlaceID          string `json:"placeId"`
	PrimaryType      string `json:"primaryType"`
}

// IsEmpty reports whether the geocoder resolved this coordinate to nothing.
func (a Address) IsEmpty() bool {
	return a.FormattedAddress == "" && a.PlaceID == "" && a.PrimaryType == ""
}

// FrequentLocation is one visit-window at a clustered place a user has been
// observed at more than once. The coordinate pair is fixed at cluster
// formation and never re-clustered.
type FrequentLocation struct {
	ID           string   `json:"id"`
	LatLng       string   `json:"latLngLocation"` // coordinate key, "lat , lon"
	Latitude     float64  `json:"latitude"`
	Longitude    float64  `json:"longitude"`
	StartTime    int64    `json:"startTime"` // Unix timestamp in milliseconds
	EndTime      int64    `json:"endTime"`   // Unix timestamp in milliseconds
	Address      *Address `json:"address,omitempty"`
	Productivity *float64 `json:"productivity,omitempty"`
}

// AddressResolved reports whether a geocode lookup has completed for this
// location, successfully or with the empty sentinel.
func (l FrequentLocation) AddressResolved() bool {
	return l.Address != nil
}

// FormattedAddress returns the resolved address string, or "" when the
// location is unresolved or resolved to nothing.
func (l FrequentLocation) FormattedAddress() string {
	if l.Address == nil {
		return ""
	}
	return l.Address.FormattedAddress
}

// CoordinateKey builds the canonical "lat , lon" key used to group locations
// that share an exact coordinate across runs and across users.
func CoordinateKey(lat, lon float64) string {
	return strconv.FormatFloat(lat, 'f', -1, 64) + " , " + strconv.FormatFloat(lon, 'f', -1, 64)
}
