package models

import "errors"

// Error kinds surfaced by the core. Per-item failures inside a batch are
// absorbed (the item is skipped or left unresolved); these sentinels cover
// the failures that propagate to callers.
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrUserNotFound       = errors.New("user not found")
	ErrGeocodeUnavailable = errors.New("geocoder unavailable")
)
