package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/prodplaces/prodplaces-backend-go/internal/models"
)

// Geocoder resolves a coordinate to an address. Implementations must bound
// each lookup with their own timeout; the enrichment pipeline never waits
// indefinitely on a single coordinate.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) (*models.Address, error)
}

const defaultBaseURL = "https://maps.googleapis.com/maps/api/geocode/json"

// GoogleClient is a reverse-geocoding client for the Google Maps Geocoding
// API.
type GoogleClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewGoogleClient creates a client with a request timeout applied at the
// HTTP client level.
func NewGoogleClient(apiKey string, timeout time.Duration) *GoogleClient {
	return &GoogleClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// NewGoogleClientWithBaseURL is NewGoogleClient pointed at a different
// endpoint, for tests.
func NewGoogleClientWithBaseURL(apiKey, baseURL string, timeout time.Duration) *GoogleClient {
	c := NewGoogleClient(apiKey, timeout)
	c.baseURL = baseURL
	return c
}

type geocodeResponse struct {
	Results []struct {
		FormattedAddress string   `json:"formatted_address"`
		PlaceID          string   `json:"place_id"`
		Types            []string `json:"types"`
	} `json:"results"`
	Status string `json:"status"`
}

// ReverseGeocode resolves lat/lon to the first result's address. An empty
// result set is not an error: it returns the empty-Address sentinel so the
// coordinate is remembered as resolved-to-nothing rather than retried
// forever. Transport and HTTP failures wrap models.ErrGeocodeUnavailable.
func (c *GoogleClient) ReverseGeocode(ctx context.Context, lat, lon float64) (*models.Address, error) {
	query := url.Values{}
	query.Set("latlng", fmt.Sprintf("%f,%f", lat, lon))
	query.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrGeocodeUnavailable, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrGeocodeUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d", models.ErrGeocodeUnavailable, resp.StatusCode)
	}

	var payload geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", models.ErrGeocodeUnavailable, err)
	}

	if len(payload.Results) == 0 {
		return &models.Address{}, nil
	}

	first := payload.Results[0]
	addr := &models.Address{
		FormattedAddress: first.FormattedAddress,
		PlaceID:          first.PlaceID,
	}
	if len(first.Types) > 0 {
		addr.PrimaryType = first.Types[0]
	}
	return addr, nil
}
