package search_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voyago/travel-advisor/internal/flightsearch"
	"github.com/voyago/travel-advisor/internal/search"
	"github.com/voyago/travel-advisor/internal/travel"
)

// ---- fakes ----

// fakeFlightStore keeps flights in memory, keyed by preference id. Save is
// called from parallel route searches, so it is guarded by a mutex.
type fakeFlightStore struct {
	mu      sync.Mutex
	flights map[string][]*travel.Flight
	nextID  int
	saveErr func(f *travel.Flight) error
	delErr  error
}

func newFakeFlightStore() *fakeFlightStore {
	return &fakeFlightStore{flights: map[string][]*travel.Flight{}}
}

func (s *fakeFlightStore) Save(_ context.Context, f *travel.Flight) (*travel.Flight, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.saveErr != nil {
		if err := s.saveErr(f); err != nil {
			return nil, err
		}
	}

	s.nextID++
	stored := *f
	stored.ID = fmt.Sprintf("flight-%d", s.nextID)
	s.flights[f.PreferenceID] = append(s.flights[f.PreferenceID], &stored)
	return &stored, nil
}

func (s *fakeFlightStore) DeleteByPreferenceID(_ context.Context, preferenceID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.delErr != nil {
		return 0, s.delErr
	}
	n := int64(len(s.flights[preferenceID]))
	delete(s.flights, preferenceID)
	return n, nil
}

func (s *fakeFlightStore) stored(preferenceID string) []*travel.Flight {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*travel.Flight(nil), s.flights[preferenceID]...)
}

// fakeClient routes each query through fn.
type fakeClient struct {
	fn func(q flightsearch.Query) ([]flightsearch.Itinerary, error)
}

func (c *fakeClient) Search(_ context.Context, q flightsearch.Query) ([]flightsearch.Itinerary, error) {
	return c.fn(q)
}

// ---- helpers ----

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testPreference(id string, budget float64) *travel.Preference {
	p, err := travel.NewPreference("MXP", "2025-05-01", "2025-05-10", budget)
	if err != nil {
		panic(err)
	}
	p.ID = id
	return p
}

func mustRoute(t *testing.T, from, to string) *travel.Route {
	t.Helper()
	r, err := travel.NewRoute(from, to)
	require.NoError(t, err)
	return r
}

func itinerary(from, to string, price float64) flightsearch.Itinerary {
	dep := time.Date(2025, 5, 2, 10, 0, 0, 0, time.UTC)
	return flightsearch.Itinerary{
		FlyFrom:        from,
		FlyTo:          to,
		LocalDeparture: dep,
		LocalArrival:   dep.Add(2 * time.Hour),
		Price:          price,
		Airline:        "FR",
		DeepLink:       "https://example.com/book",
	}
}

// ---- SearchAndSave ----

func TestSearchAndSave_BudgetIsInclusive(t *testing.T) {
	store := newFakeFlightStore()
	client := &fakeClient{fn: func(q flightsearch.Query) ([]flightsearch.Itinerary, error) {
		return []flightsearch.Itinerary{
			itinerary(q.FlyFrom, q.FlyTo, 99),
			itinerary(q.FlyFrom, q.FlyTo, 100),
			itinerary(q.FlyFrom, q.FlyTo, 101),
		}, nil
	}}

	svc := search.NewService(store, client, testLogger(), nil)
	pref := testPreference("pref-1", 100)

	saved, err := svc.SearchAndSave(context.Background(), pref, []*travel.Route{mustRoute(t, "MXP", "LHR")})
	require.NoError(t, err)
	require.Len(t, saved, 2, "flights priced at exactly the budget must be kept")

	for _, f := range saved {
		assert.LessOrEqual(t, f.Price, 100.0)
		assert.Equal(t, "pref-1", f.PreferenceID)
	}
}

func TestSearchAndSave_ReplacesPreviousResults(t *testing.T) {
	store := newFakeFlightStore()
	prices := []float64{50, 60}
	client := &fakeClient{fn: func(q flightsearch.Query) ([]flightsearch.Itinerary, error) {
		out := make([]flightsearch.Itinerary, 0, len(prices))
		for _, p := range prices {
			out = append(out, itinerary(q.FlyFrom, q.FlyTo, p))
		}
		return out, nil
	}}

	svc := search.NewService(store, client, testLogger(), nil)
	pref := testPreference("pref-1", 500)
	routes := []*travel.Route{mustRoute(t, "MXP", "LHR")}

	first, err := svc.SearchAndSave(context.Background(), pref, routes)
	require.NoError(t, err)
	require.Len(t, first, 2)

	// Second cycle returns a single different flight; the first run's results
	// must be gone entirely.
	prices = []float64{75}
	second, err := svc.SearchAndSave(context.Background(), pref, routes)
	require.NoError(t, err)
	require.Len(t, second, 1)

	stored := store.stored("pref-1")
	require.Len(t, stored, 1)
	assert.Equal(t, 75.0, stored[0].Price)
}

func TestSearchAndSave_RouteFailureDoesNotAbortSiblings(t *testing.T) {
	store := newFakeFlightStore()
	client := &fakeClient{fn: func(q flightsearch.Query) ([]flightsearch.Itinerary, error) {
		if q.FlyTo == "LHR" {
			return nil, errors.New("upstream exploded")
		}
		return []flightsearch.Itinerary{itinerary(q.FlyFrom, q.FlyTo, 200)}, nil
	}}

	svc := search.NewService(store, client, testLogger(), nil)
	pref := testPreference("pref-1", 300)

	saved, err := svc.SearchAndSave(context.Background(), pref, []*travel.Route{
		mustRoute(t, "MXP", "LHR"),
		mustRoute(t, "MXP", "CDG"),
	})
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, "CDG", saved[0].ArrivalAirport)
}

func TestSearchAndSave_InvalidItinerarySkipped(t *testing.T) {
	store := newFakeFlightStore()
	client := &fakeClient{fn: func(q flightsearch.Query) ([]flightsearch.Itinerary, error) {
		bad := itinerary(q.FlyFrom, q.FlyTo, 100)
		bad.DeepLink = ""
		return []flightsearch.Itinerary{bad, itinerary(q.FlyFrom, q.FlyTo, 120)}, nil
	}}

	svc := search.NewService(store, client, testLogger(), nil)
	pref := testPreference("pref-1", 300)

	saved, err := svc.SearchAndSave(context.Background(), pref, []*travel.Route{mustRoute(t, "MXP", "LHR")})
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, 120.0, saved[0].Price)
}

func TestSearchAndSave_SaveFailureSkipsOnlyThatFlight(t *testing.T) {
	store := newFakeFlightStore()
	store.saveErr = func(f *travel.Flight) error {
		if f.Price == 100 {
			return errors.New("duplicate key")
		}
		return nil
	}
	client := &fakeClient{fn: func(q flightsearch.Query) ([]flightsearch.Itinerary, error) {
		return []flightsearch.Itinerary{
			itinerary(q.FlyFrom, q.FlyTo, 100),
			itinerary(q.FlyFrom, q.FlyTo, 150),
		}, nil
	}}

	svc := search.NewService(store, client, testLogger(), nil)
	pref := testPreference("pref-1", 300)

	saved, err := svc.SearchAndSave(context.Background(), pref, []*travel.Route{mustRoute(t, "MXP", "LHR")})
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, 150.0, saved[0].Price)
}

func TestSearchAndSave_ClearFailurePropagates(t *testing.T) {
	store := newFakeFlightStore()
	store.delErr = errors.New("db down")
	client := &fakeClient{fn: func(q flightsearch.Query) ([]flightsearch.Itinerary, error) {
		t.Fatal("client should not be called when the clear step fails")
		return nil, nil
	}}

	svc := search.NewService(store, client, testLogger(), nil)
	pref := testPreference("pref-1", 300)

	_, err := svc.SearchAndSave(context.Background(), pref, []*travel.Route{mustRoute(t, "MXP", "LHR")})
	require.Error(t, err)
}

func TestSearchAndSave_UsesInjectedClock(t *testing.T) {
	fixed := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
	store := newFakeFlightStore()
	client := &fakeClient{fn: func(q flightsearch.Query) ([]flightsearch.Itinerary, error) {
		return []flightsearch.Itinerary{itinerary(q.FlyFrom, q.FlyTo, 100)}, nil
	}}

	svc := search.NewService(store, client, testLogger(), func() time.Time { return fixed })
	pref := testPreference("pref-1", 300)

	saved, err := svc.SearchAndSave(context.Background(), pref, []*travel.Route{mustRoute(t, "MXP", "LHR")})
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, fixed, saved[0].LastUpdated)
}

func TestSearchAndSave_FormatsDatesForClient(t *testing.T) {
	store := newFakeFlightStore()
	var gotQuery flightsearch.Query
	client := &fakeClient{fn: func(q flightsearch.Query) ([]flightsearch.Itinerary, error) {
		gotQuery = q
		return nil, nil
	}}

	svc := search.NewService(store, client, testLogger(), nil)
	pref := testPreference("pref-1", 300)

	_, err := svc.SearchAndSave(context.Background(), pref, []*travel.Route{mustRoute(t, "MXP", "LHR")})
	require.NoError(t, err)

	assert.Equal(t, "2025-05-01", gotQuery.DateFrom)
	assert.Equal(t, "2025-05-10", gotQuery.DateTo)
	assert.Equal(t, 1, gotQuery.Adults)
	assert.Equal(t, "EUR", gotQuery.Currency)
}

func TestSearchAndSave_ManyRoutesAllSearched(t *testing.T) {
	// More routes than the concurrency bound; every route must still be hit.
	store := newFakeFlightStore()
	var mu sync.Mutex
	seen := map[string]bool{}
	client := &fakeClient{fn: func(q flightsearch.Query) ([]flightsearch.Itinerary, error) {
		mu.Lock()
		seen[q.FlyTo] = true
		mu.Unlock()
		return []flightsearch.Itinerary{itinerary(q.FlyFrom, q.FlyTo, 100)}, nil
	}}

	svc := search.NewService(store, client, testLogger(), nil)
	pref := testPreference("pref-1", 300)

	destinations := []string{"LHR", "CDG", "AMS", "FRA", "MAD", "FCO", "VCE", "NAP"}
	routes := make([]*travel.Route, 0, len(destinations))
	for _, to := range destinations {
		routes = append(routes, mustRoute(t, "MXP", to))
	}

	saved, err := svc.SearchAndSave(context.Background(), pref, routes)
	require.NoError(t, err)
	assert.Len(t, saved, len(destinations))
	assert.Len(t, seen, len(destinations))
}
