package service

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/prodplaces/prodplaces-backend-go/internal/models"
)

// fakeStore is an in-memory UserStore. Users are cloned on the way in and
// out so mutations only persist through SaveUser, like the real repository.
type fakeStore struct {
	mu    sync.Mutex
	users map[string]*models.User

	// extra coordinate matches returned by FindLocationsByCoordinate,
	// simulating locations persisted for other users.
	knownByLatLng map[string][]models.FrequentLocation

	saveCalls int
	saveErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:         make(map[string]*models.User),
		knownByLatLng: make(map[string][]models.FrequentLocation),
	}
}

func cloneUser(u *models.User) *models.User {
	raw, _ := json.Marshal(u)
	var out models.User
	_ = json.Unmarshal(raw, &out)
	return &out
}

func (f *fakeStore) GetUser(_ context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (f *fakeStore) SaveUser(_ context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saveCalls++
	if f.saveErr != nil {
		return f.saveErr
	}
	f.users[user.ID] = cloneUser(user)
	return nil
}

func (f *fakeStore) FindLocationsByCoordinate(_ context.Context, latlng string) ([]models.FrequentLocation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.FrequentLocation
	out = append(out, f.knownByLatLng[latlng]...)
	for _, u := range f.users {
		for _, loc := range u.FrequentLocations {
			if loc.LatLng == latlng && loc.AddressResolved() && !loc.Address.IsEmpty() {
				out = append(out, loc)
			}
		}
	}
	return out, nil
}

func (f *fakeStore) ListUserIDs(_ context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]string, 0, len(f.users))
	for id := range f.users {
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *fakeStore) seed(u *models.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[u.ID] = cloneUser(u)
}

func (f *fakeStore) stored(id string) *models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	return cloneUser(f.users[id])
}

// fakeGeocoder returns a canned address and counts lookups per coordinate.
type fakeGeocoder struct {
	mu      sync.Mutex
	address *models.Address
	err     error
	calls   map[string]int
}

func newFakeGeocoder(address *models.Address) *fakeGeocoder {
	return &fakeGeocoder{address: address, calls: make(map[string]int)}
}

func (g *fakeGeocoder) ReverseGeocode(_ context.Context, lat, lon float64) (*models.Address, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls[models.CoordinateKey(lat, lon)]++
	if g.err != nil {
		return nil, g.err
	}
	if g.address == nil {
		return &models.Address{}, nil
	}
	copied := *g.address
	return &copied, nil
}

func (g *fakeGeocoder) totalCalls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, c := range g.calls {
		n += c
	}
	return n
}
