// Package search implements the preference-driven flight discovery workflow:
// the rotation policy that picks the least-recently-searched preference, the
// per-route external search with budget filtering, and the replace-on-search
// persistence of results.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/voyago/travel-advisor/internal/flightsearch"
	"github.com/voyago/travel-advisor/internal/travel"
)

const (
	searchAdults   = 1
	searchCurrency = "EUR"

	// routeConcurrency bounds parallel calls to the external API so a
	// preference with many outbound routes does not trip its rate limits.
	routeConcurrency = 4
)

// SearchClient is the external flight-search surface the service needs.
// Satisfied by *flightsearch.Client.
type SearchClient interface {
	Search(ctx context.Context, q flightsearch.Query) ([]flightsearch.Itinerary, error)
}

// FlightStore is the persistence surface for search results.
type FlightStore interface {
	Save(ctx context.Context, f *travel.Flight) (*travel.Flight, error)
	DeleteByPreferenceID(ctx context.Context, preferenceID string) (int64, error)
}

// RouteResult is the outcome of searching a single route: the flights that
// were saved for it, or the reason the route failed. One route failing never
// affects its siblings.
type RouteResult struct {
	Route   travel.Route
	Flights []*travel.Flight
	Err     error
}

// Service queries the external API per route, keeps itineraries within the
// preference's budget, and replaces the stored flights with the fresh results.
type Service struct {
	flights FlightStore
	client  SearchClient
	log     *slog.Logger
	now     func() time.Time
}

// NewService constructs a Service. now may be nil, in which case time.Now is used.
func NewService(flights FlightStore, client SearchClient, log *slog.Logger, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{flights: flights, client: client, log: log, now: now}
}

// SearchAndSave clears the stored flights for the preference and repopulates
// them from a fresh search over the given routes. Routes are searched with
// bounded parallelism; a failed route, an itinerary failing validation, or a
// flight failing to save is logged and skipped without aborting the rest.
// Returns every flight that was saved, in no particular order.
func (s *Service) SearchAndSave(ctx context.Context, pref *travel.Preference, routes []*travel.Route) ([]*travel.Flight, error) {
	if _, err := s.flights.DeleteByPreferenceID(ctx, pref.ID); err != nil {
		return nil, fmt.Errorf("clearing stored flights for preference %s: %w", pref.ID, err)
	}

	dateFrom := pref.PeriodFrom.Format(travel.DateLayout)
	dateTo := pref.PeriodTo.Format(travel.DateLayout)

	results := make([]RouteResult, len(routes))

	var g errgroup.Group
	g.SetLimit(routeConcurrency)
	for i, route := range routes {
		i, route := i, route
		g.Go(func() error {
			results[i] = s.searchRoute(ctx, pref, route, dateFrom, dateTo)
			return nil
		})
	}
	// Goroutines report failures through their RouteResult, never as an error.
	_ = g.Wait()

	saved := make([]*travel.Flight, 0)
	for _, res := range results {
		if res.Err != nil {
			s.log.Warn("route search failed",
				"preference_id", pref.ID,
				"from", res.Route.DepartureAirport,
				"to", res.Route.ArrivalAirport,
				"err", res.Err)
			continue
		}
		saved = append(saved, res.Flights...)
	}

	s.log.Info("search cycle stored flights", "preference_id", pref.ID, "flights", len(saved))
	return saved, nil
}

// searchRoute queries one route and saves the itineraries within budget.
func (s *Service) searchRoute(ctx context.Context, pref *travel.Preference, route *travel.Route, dateFrom, dateTo string) RouteResult {
	res := RouteResult{Route: *route}

	itineraries, err := s.client.Search(ctx, flightsearch.Query{
		FlyFrom:  route.DepartureAirport,
		FlyTo:    route.ArrivalAirport,
		DateFrom: dateFrom,
		DateTo:   dateTo,
		Adults:   searchAdults,
		Currency: searchCurrency,
	})
	if err != nil {
		res.Err = fmt.Errorf("searching %s-%s: %w", route.DepartureAirport, route.ArrivalAirport, err)
		return res
	}

	for _, it := range itineraries {
		// Budget is inclusive: a flight priced exactly at the budget is kept.
		if it.Price > pref.Budget {
			continue
		}

		flight, err := travel.NewFlight(
			it.FlyFrom,
			it.FlyTo,
			it.LocalDeparture,
			it.LocalArrival,
			it.Price,
			it.Airline,
			it.DeepLink,
			pref.ID,
			s.now(),
		)
		if err != nil {
			s.log.Warn("skipping invalid itinerary",
				"from", it.FlyFrom, "to", it.FlyTo, "err", err)
			continue
		}

		stored, err := s.flights.Save(ctx, flight)
		if err != nil {
			s.log.Warn("saving flight failed",
				"from", it.FlyFrom, "to", it.FlyTo, "err", err)
			continue
		}
		res.Flights = append(res.Flights, stored)
	}

	return res
}
