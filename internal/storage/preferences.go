package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/voyago/travel-advisor/internal/travel"
)

const preferenceColumns = `id, departure_city, period_from, period_to, budget, last_searched_at, created_at`

// PreferenceRepository provides database access to travel preferences.
type PreferenceRepository struct {
	q Querier
}

// NewPreferenceRepository constructs a PreferenceRepository backed by the given pool.
func NewPreferenceRepository(pool *pgxpool.Pool) *PreferenceRepository {
	return &PreferenceRepository{q: pool}
}

// NewPreferenceRepositoryWithQuerier constructs a PreferenceRepository with a
// custom Querier (for tests).
func NewPreferenceRepositoryWithQuerier(q Querier) *PreferenceRepository {
	return &PreferenceRepository{q: q}
}

func scanPreference(row pgx.Row) (*travel.Preference, error) {
	var p travel.Preference
	err := row.Scan(
		&p.ID,
		&p.DepartureCity,
		&p.PeriodFrom,
		&p.PeriodTo,
		&p.Budget,
		&p.LastSearchedAt,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Save inserts a new preference with a freshly minted id and returns the
// stored record.
func (r *PreferenceRepository) Save(ctx context.Context, p *travel.Preference) (*travel.Preference, error) {
	const q = `
		INSERT INTO preferences (id, departure_city, period_from, period_to, budget, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING ` + preferenceColumns

	id := uuid.NewString()
	saved, err := scanPreference(r.q.QueryRow(ctx, q, id, p.DepartureCity, p.PeriodFrom, p.PeriodTo, p.Budget))
	if err != nil {
		return nil, fmt.Errorf("inserting preference: %w", err)
	}
	return saved, nil
}

// FindAll returns every stored preference, oldest first.
func (r *PreferenceRepository) FindAll(ctx context.Context) ([]*travel.Preference, error) {
	const q = `SELECT ` + preferenceColumns + ` FROM preferences ORDER BY created_at ASC`

	rows, err := r.q.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("querying preferences: %w", err)
	}
	defer rows.Close()

	var prefs []*travel.Preference
	for rows.Next() {
		p, err := scanPreference(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning preference row: %w", err)
		}
		prefs = append(prefs, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating preference rows: %w", err)
	}
	return prefs, nil
}

// FindByID retrieves a preference by id. Returns nil, nil when not found.
func (r *PreferenceRepository) FindByID(ctx context.Context, id string) (*travel.Preference, error) {
	const q = `SELECT ` + preferenceColumns + ` FROM preferences WHERE id = $1`

	p, err := scanPreference(r.q.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying preference %s: %w", id, err)
	}
	return p, nil
}

// FindNextToSearch returns the preference whose last search is oldest,
// treating never-searched preferences as older than any timestamp. Ties are
// broken by creation time so the rotation is deterministic and no preference
// is ever starved. Returns nil, nil when no preferences exist.
func (r *PreferenceRepository) FindNextToSearch(ctx context.Context) (*travel.Preference, error) {
	const q = `
		SELECT ` + preferenceColumns + `
		FROM preferences
		ORDER BY last_searched_at ASC NULLS FIRST, created_at ASC
		LIMIT 1
	`

	p, err := scanPreference(r.q.QueryRow(ctx, q))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying next preference to search: %w", err)
	}
	return p, nil
}

// UpdateLastSearched sets the preference's search marker. Returns nil, nil
// when the preference does not exist.
func (r *PreferenceRepository) UpdateLastSearched(ctx context.Context, id string, at time.Time) (*travel.Preference, error) {
	const q = `
		UPDATE preferences
		SET last_searched_at = $2
		WHERE id = $1
		RETURNING ` + preferenceColumns

	p, err := scanPreference(r.q.QueryRow(ctx, q, id, at))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("updating last searched for preference %s: %w", id, err)
	}
	return p, nil
}

// Update overwrites the user-editable fields of a preference. Returns nil, nil
// when the preference does not exist.
func (r *PreferenceRepository) Update(ctx context.Context, id string, p *travel.Preference) (*travel.Preference, error) {
	const q = `
		UPDATE preferences
		SET departure_city = $2, period_from = $3, period_to = $4, budget = $5
		WHERE id = $1
		RETURNING ` + preferenceColumns

	updated, err := scanPreference(r.q.QueryRow(ctx, q, id, p.DepartureCity, p.PeriodFrom, p.PeriodTo, p.Budget))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("updating preference %s: %w", id, err)
	}
	return updated, nil
}

// Delete removes a preference. Returns false when the preference does not exist.
func (r *PreferenceRepository) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM preferences WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("deleting preference %s: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}
