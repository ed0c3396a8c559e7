package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/voyago/travel-advisor/internal/travel"
)

// RouteRepository provides database access to the static route graph.
type RouteRepository struct {
	q Querier
}

// NewRouteRepository constructs a RouteRepository backed by the given pool.
func NewRouteRepository(pool *pgxpool.Pool) *RouteRepository {
	return &RouteRepository{q: pool}
}

// NewRouteRepositoryWithQuerier constructs a RouteRepository with a custom
// Querier (for tests).
func NewRouteRepositoryWithQuerier(q Querier) *RouteRepository {
	return &RouteRepository{q: q}
}

// Save inserts a single route.
func (r *RouteRepository) Save(ctx context.Context, route *travel.Route) (*travel.Route, error) {
	const q = `
		INSERT INTO routes (id, departure_airport, arrival_airport)
		VALUES ($1, $2, $3)
		RETURNING id, departure_airport, arrival_airport
	`

	var saved travel.Route
	err := r.q.QueryRow(ctx, q, uuid.NewString(), route.DepartureAirport, route.ArrivalAirport).
		Scan(&saved.ID, &saved.DepartureAirport, &saved.ArrivalAirport)
	if err != nil {
		return nil, fmt.Errorf("inserting route %s-%s: %w", route.DepartureAirport, route.ArrivalAirport, err)
	}
	return &saved, nil
}

// FindAll returns the whole route graph.
func (r *RouteRepository) FindAll(ctx context.Context) ([]*travel.Route, error) {
	const q = `SELECT id, departure_airport, arrival_airport FROM routes ORDER BY departure_airport, arrival_airport`
	return r.queryRoutes(ctx, q)
}

// FindByDepartureAirport returns all outbound routes from the given airport.
func (r *RouteRepository) FindByDepartureAirport(ctx context.Context, code string) ([]*travel.Route, error) {
	const q = `SELECT id, departure_airport, arrival_airport FROM routes WHERE departure_airport = $1`
	return r.queryRoutes(ctx, q, code)
}

// ReplaceAll clears the route graph and inserts the given routes. Used by the
// seeder so that reseeding is idempotent.
func (r *RouteRepository) ReplaceAll(ctx context.Context, routes []*travel.Route) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM routes`); err != nil {
		return fmt.Errorf("clearing routes: %w", err)
	}

	for _, route := range routes {
		if _, err := r.Save(ctx, route); err != nil {
			return err
		}
	}
	return nil
}

func (r *RouteRepository) queryRoutes(ctx context.Context, q string, args ...any) ([]*travel.Route, error) {
	rows, err := r.q.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying routes: %w", err)
	}
	defer rows.Close()

	var routes []*travel.Route
	for rows.Next() {
		var route travel.Route
		if err := rows.Scan(&route.ID, &route.DepartureAirport, &route.ArrivalAirport); err != nil {
			return nil, fmt.Errorf("scanning route row: %w", err)
		}
		routes = append(routes, &route)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating route rows: %w", err)
	}
	return routes, nil
}
