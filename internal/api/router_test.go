package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prodplaces/prodplaces-backend-go/internal/config"
	"github.com/prodplaces/prodplaces-backend-go/internal/handler"
	"github.com/prodplaces/prodplaces-backend-go/internal/models"
	"github.com/prodplaces/prodplaces-backend-go/internal/service"
)

type memStore struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newMemStore() *memStore {
	return &memStore{users: make(map[string]*models.User)}
}

func (m *memStore) GetUser(_ context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	raw, _ := json.Marshal(u)
	var out models.User
	_ = json.Unmarshal(raw, &out)
	return &out, nil
}

func (m *memStore) SaveUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, _ := json.Marshal(user)
	var copied models.User
	_ = json.Unmarshal(raw, &copied)
	m.users[user.ID] = &copied
	return nil
}

func (m *memStore) FindLocationsByCoordinate(context.Context, string) ([]models.FrequentLocation, error) {
	return nil, nil
}

func (m *memStore) ListUserIDs(context.Context) ([]string, error) {
	return nil, nil
}

type stubGeocoder struct{}

func (stubGeocoder) ReverseGeocode(context.Context, float64, float64) (*models.Address, error) {
	return &models.Address{FormattedAddress: "1 Main St"}, nil
}

func newTestRouter(store *memStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{JWTSecret: "router-test-secret"}

	locations := service.NewLocationService(store, stubGeocoder{})
	aggregates := service.NewAggregationService(store)
	users := service.NewUserService(store, aggregates, cfg.JWTSecret)

	return SetupRouter(cfg, Handlers{
		Users:     handler.NewUserHandler(users),
		Locations: handler.NewLocationHandler(locations),
		Uploads:   handler.NewUploadHandler(locations),
		Stats:     handler.NewStatsHandler(aggregates),
	})
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func authToken(t *testing.T, r *gin.Engine, userID string) string {
	t.Helper()

	w := doJSON(t, r, http.MethodPost, "/getAuth", "", gin.H{"userID": userID})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Data.Token)
	return resp.Data.Token
}

func TestHealth(t *testing.T) {
	r := newTestRouter(newMemStore())

	w := doJSON(t, r, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
}

func TestGetAuthCreatesUser(t *testing.T) {
	store := newMemStore()
	r := newTestRouter(store)

	token := authToken(t, r, "new-user")
	assert.NotEmpty(t, token)

	_, err := store.GetUser(context.Background(), "new-user")
	assert.NoError(t, err)
}

func TestGetAuthRequiresUserID(t *testing.T) {
	r := newTestRouter(newMemStore())

	w := doJSON(t, r, http.MethodPost, "/getAuth", "", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProtectedRoutesRejectMissingToken(t *testing.T) {
	r := newTestRouter(newMemStore())

	w := doJSON(t, r, http.MethodGet, "/getMostProductiveWeekDay", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWeekdayReportsNotEnoughInformation(t *testing.T) {
	r := newTestRouter(newMemStore())
	token := authToken(t, r, "u1")

	w := doJSON(t, r, http.MethodGet, "/getMostProductiveWeekDay", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Not enough information")
}

func TestStoreBackgroundDataAndRecompute(t *testing.T) {
	store := newMemStore()
	r := newTestRouter(store)
	token := authToken(t, r, "u1")

	ms := int64(60 * 1000)
	coord := func(minutes int64, lat float64) gin.H {
		return gin.H{
			"timestamp": minutes * ms,
			"coords":    gin.H{"latitude": lat, "longitude": -71.0},
		}
	}
	payload := gin.H{"dataToBeProcessed": []gin.H{
		coord(1, 42.0), coord(20, 42.0), coord(25, 42.01),
		coord(35, 42.0), coord(60, 42.0), coord(65, 42.05),
	}}

	w := doJSON(t, r, http.MethodPost, "/storeBackgroundData", token, payload)
	require.Equal(t, http.StatusOK, w.Code)

	u, err := store.GetUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, u.PendingObservations, 6)
}

func TestUpdateProductivityEndpoint(t *testing.T) {
	store := newMemStore()
	r := newTestRouter(store)
	token := authToken(t, r, "u1")

	u, err := store.GetUser(context.Background(), "u1")
	require.NoError(t, err)
	u.FrequentLocations = []models.FrequentLocation{{ID: "loc-1"}}
	require.NoError(t, store.SaveUser(context.Background(), u))

	w := doJSON(t, r, http.MethodPut, "/updateProductivityLevel/loc-1", token, gin.H{"productivity": 8.0})
	require.Equal(t, http.StatusOK, w.Code)

	u, err = store.GetUser(context.Background(), "u1")
	require.NoError(t, err)
	require.NotNil(t, u.FrequentLocations[0].Productivity)
	assert.Equal(t, 8.0, *u.FrequentLocations[0].Productivity)

	w = doJSON(t, r, http.MethodPut, "/updateProductivityLevel/missing", token, gin.H{"productivity": 8.0})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateUserSettingsEndpoint(t *testing.T) {
	store := newMemStore()
	r := newTestRouter(store)
	token := authToken(t, r, "u1")

	w := doJSON(t, r, http.MethodPut, "/updateUserSettings", token, gin.H{
		"homeLocation":              "Boston",
		"homeLocationLatLong":       "42.36 , -71.06",
		"presetProductiveLocations": gin.H{"Library": 9, "Ignored": 0},
	})
	require.Equal(t, http.StatusOK, w.Code)

	u, err := store.GetUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "Boston", u.HomeLocation)
	assert.Equal(t, map[string]float64{"Library": 9}, u.PresetProductiveLocations)
}

func TestUnratedLocationsEndpoint(t *testing.T) {
	store := newMemStore()
	r := newTestRouter(store)
	token := authToken(t, r, "u1")

	w := doJSON(t, r, http.MethodGet, "/getLocationsWithProductivityNullWithinLastNDays?days=7", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/getLocationsWithProductivityNullWithinLastNDays?days=nope", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDailyTrendDefaultWindowCoversOldVisits(t *testing.T) {
	store := newMemStore()
	r := newTestRouter(store)
	token := authToken(t, r, "u1")

	// A month-old rated visit must survive an omitted days parameter:
	// the default window is effectively all time, not a week.
	u, err := store.GetUser(context.Background(), "u1")
	require.NoError(t, err)
	end := time.Now().Add(-30 * 24 * time.Hour).UnixMilli()
	score := 5.0
	u.FrequentLocations = []models.FrequentLocation{{
		ID:           "old-loc",
		StartTime:    end - 30*60*1000,
		EndTime:      end,
		Productivity: &score,
	}}
	require.NoError(t, store.SaveUser(context.Background(), u))

	w := doJSON(t, r, http.MethodGet, "/productivityScoresLastNDays", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []struct {
			Date                string  `json:"date"`
			AverageProductivity float64 `json:"averageProductivity"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, 5.0, resp.Data[0].AverageProductivity)
}

func TestUploadGoogleLocationDataEndpoint(t *testing.T) {
	store := newMemStore()
	r := newTestRouter(store)
	token := authToken(t, r, "u1")

	ms := int64(60 * 1000)
	archive := gin.H{"locations": []gin.H{
		{"timestampMs": "60000", "latitudeE7": 420000000, "longitudeE7": -710000000},
		{"timestampMs": itoa(20 * ms), "latitudeE7": 420000000, "longitudeE7": -710000000},
		{"timestampMs": itoa(25 * ms), "latitudeE7": 420100000, "longitudeE7": -710000000},
		{"timestampMs": itoa(35 * ms), "latitudeE7": 420000000, "longitudeE7": -710000000},
		{"timestampMs": itoa(60 * ms), "latitudeE7": 420000000, "longitudeE7": -710000000},
		{"timestampMs": itoa(65 * ms), "latitudeE7": 420500000, "longitudeE7": -710000000},
	}}
	raw, err := json.Marshal(archive)
	require.NoError(t, err)

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	part, err := form.CreateFormFile("file", "Records.json")
	require.NoError(t, err)
	_, err = part.Write(raw)
	require.NoError(t, err)
	require.NoError(t, form.Close())

	req := httptest.NewRequest(http.MethodPost, "/uploadGoogleLocationData", &buf)
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	u, err := store.GetUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, u.FrequentLocations, 2)
	for _, loc := range u.FrequentLocations {
		require.NotNil(t, loc.Address)
		assert.Equal(t, "1 Main St", loc.Address.FormattedAddress)
	}
}

func itoa(ms int64) string {
	return strconv.FormatInt(ms, 10)
}

func TestRankedEndpoints(t *testing.T) {
	store := newMemStore()
	r := newTestRouter(store)
	token := authToken(t, r, "u1")

	for _, path := range []string{
		"/mostProductiveLocationsRankedLastNDays",
		"/mostProductiveLocationsRankedLastNDays?days=30&numberOfItems=3",
		"/mostFrequentlyVisitedLocationsRanked?numberOfItems=2",
		"/productivityScoresLastNDays?days=7",
	} {
		w := doJSON(t, r, http.MethodGet, path, token, nil)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}
