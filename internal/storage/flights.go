package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/voyago/travel-advisor/internal/travel"
)

const flightColumns = `id, departure_airport, arrival_airport, departure_time, arrival_time, price, airline, deep_link, preference_id, last_updated`

// FlightRepository provides database access to stored search results.
type FlightRepository struct {
	q Querier
}

// NewFlightRepository constructs a FlightRepository backed by the given pool.
func NewFlightRepository(pool *pgxpool.Pool) *FlightRepository {
	return &FlightRepository{q: pool}
}

// NewFlightRepositoryWithQuerier constructs a FlightRepository with a custom
// Querier (for tests).
func NewFlightRepositoryWithQuerier(q Querier) *FlightRepository {
	return &FlightRepository{q: q}
}

// Save inserts a flight with a freshly minted id and returns the stored record.
func (r *FlightRepository) Save(ctx context.Context, f *travel.Flight) (*travel.Flight, error) {
	const q = `
		INSERT INTO flights (id, departure_airport, arrival_airport, departure_time, arrival_time, price, airline, deep_link, preference_id, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + flightColumns

	var saved travel.Flight
	err := r.q.QueryRow(ctx, q,
		uuid.NewString(),
		f.DepartureAirport,
		f.ArrivalAirport,
		f.DepartureTime,
		f.ArrivalTime,
		f.Price,
		f.Airline,
		f.DeepLink,
		f.PreferenceID,
		f.LastUpdated,
	).Scan(
		&saved.ID,
		&saved.DepartureAirport,
		&saved.ArrivalAirport,
		&saved.DepartureTime,
		&saved.ArrivalTime,
		&saved.Price,
		&saved.Airline,
		&saved.DeepLink,
		&saved.PreferenceID,
		&saved.LastUpdated,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting flight %s-%s: %w", f.DepartureAirport, f.ArrivalAirport, err)
	}
	return &saved, nil
}

// FindByPreferenceID returns all stored flights for a preference, cheapest first.
func (r *FlightRepository) FindByPreferenceID(ctx context.Context, preferenceID string) ([]*travel.Flight, error) {
	const q = `SELECT ` + flightColumns + ` FROM flights WHERE preference_id = $1 ORDER BY price ASC`

	rows, err := r.q.Query(ctx, q, preferenceID)
	if err != nil {
		return nil, fmt.Errorf("querying flights for preference %s: %w", preferenceID, err)
	}
	defer rows.Close()

	var flights []*travel.Flight
	for rows.Next() {
		var f travel.Flight
		if err := rows.Scan(
			&f.ID,
			&f.DepartureAirport,
			&f.ArrivalAirport,
			&f.DepartureTime,
			&f.ArrivalTime,
			&f.Price,
			&f.Airline,
			&f.DeepLink,
			&f.PreferenceID,
			&f.LastUpdated,
		); err != nil {
			return nil, fmt.Errorf("scanning flight row: %w", err)
		}
		flights = append(flights, &f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating flight rows: %w", err)
	}
	return flights, nil
}

// DeleteByPreferenceID removes every stored flight for a preference and
// returns how many were removed. The search service calls this before
// inserting a cycle's fresh results so stale flights never linger.
func (r *FlightRepository) DeleteByPreferenceID(ctx context.Context, preferenceID string) (int64, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM flights WHERE preference_id = $1`, preferenceID)
	if err != nil {
		return 0, fmt.Errorf("deleting flights for preference %s: %w", preferenceID, err)
	}
	return tag.RowsAffected(), nil
}
