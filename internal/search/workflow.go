package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/voyago/travel-advisor/internal/events"
	"github.com/voyago/travel-advisor/internal/travel"
)

// ErrPreferenceNotFound is returned by Execute when the preference id does
// not exist. No repository writes happen in that case.
var ErrPreferenceNotFound = errors.New("travel preference not found")

// PreferenceStore is the preference persistence surface the workflow needs.
type PreferenceStore interface {
	FindByID(ctx context.Context, id string) (*travel.Preference, error)
	FindNextToSearch(ctx context.Context) (*travel.Preference, error)
	UpdateLastSearched(ctx context.Context, id string, at time.Time) (*travel.Preference, error)
}

// RouteStore is the route lookup surface the workflow needs.
type RouteStore interface {
	FindByDepartureAirport(ctx context.Context, code string) ([]*travel.Route, error)
}

// Searcher runs one search-and-save pass for a preference.
// Satisfied by *Service.
type Searcher interface {
	SearchAndSave(ctx context.Context, pref *travel.Preference, routes []*travel.Route) ([]*travel.Flight, error)
}

// ResultCache invalidates cached flight listings after a cycle replaces them.
type ResultCache interface {
	Delete(ctx context.Context, preferenceID string) error
}

// EventPublisher publishes a SearchCompleted event after each cycle.
type EventPublisher interface {
	Publish(ctx context.Context, event events.SearchCompleted) error
}

// Result is what one search cycle produced for a preference.
type Result struct {
	Preference       *travel.Preference
	CompatibleRoutes []*travel.Route
	Flights          []*travel.Flight
}

// Workflow drives a preference's search cycle: resolve the preference, find
// its outbound routes, mark it searched, and hand it to the Searcher. It also
// implements the rotation entry point that advances the least-recently-
// searched preference by one step per invocation.
type Workflow struct {
	preferences PreferenceStore
	routes      RouteStore
	searcher    Searcher
	cache       ResultCache
	publisher   EventPublisher
	log         *slog.Logger
	now         func() time.Time

	// mu serializes ExecuteNextSearch so overlapping ticks cannot pick up
	// the same stale preference twice.
	mu sync.Mutex
}

// WorkflowOption configures optional collaborators.
type WorkflowOption func(*Workflow)

// WithResultCache makes the workflow invalidate the given cache after each cycle.
func WithResultCache(cache ResultCache) WorkflowOption {
	return func(w *Workflow) { w.cache = cache }
}

// WithEventPublisher makes the workflow publish a SearchCompleted event after
// each cycle.
func WithEventPublisher(p EventPublisher) WorkflowOption {
	return func(w *Workflow) { w.publisher = p }
}

// NewWorkflow constructs a Workflow. now may be nil, in which case time.Now is used.
func NewWorkflow(preferences PreferenceStore, routes RouteStore, searcher Searcher, log *slog.Logger, now func() time.Time, opts ...WorkflowOption) *Workflow {
	if now == nil {
		now = time.Now
	}
	w := &Workflow{
		preferences: preferences,
		routes:      routes,
		searcher:    searcher,
		log:         log,
		now:         now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Execute runs one search cycle for the given preference id.
//
// The preference's last-searched marker is updated even when no compatible
// routes exist, so a preference with an empty route set does not jump ahead
// of others on every rotation. A failure inside the search itself is logged
// and swallowed; the cycle still returns whatever flights were produced.
func (w *Workflow) Execute(ctx context.Context, preferenceID string) (*Result, error) {
	pref, err := w.preferences.FindByID(ctx, preferenceID)
	if err != nil {
		return nil, fmt.Errorf("looking up preference %s: %w", preferenceID, err)
	}
	if pref == nil {
		return nil, fmt.Errorf("preference %s: %w", preferenceID, ErrPreferenceNotFound)
	}

	routes, err := w.routes.FindByDepartureAirport(ctx, pref.DepartureCity)
	if err != nil {
		return nil, fmt.Errorf("finding routes from %s: %w", pref.DepartureCity, err)
	}

	if updated, err := w.preferences.UpdateLastSearched(ctx, pref.ID, w.now()); err != nil {
		return nil, fmt.Errorf("marking preference %s as searched: %w", pref.ID, err)
	} else if updated != nil {
		pref = updated
	}

	flights := make([]*travel.Flight, 0)
	if len(routes) > 0 {
		found, err := w.searcher.SearchAndSave(ctx, pref, routes)
		if err != nil {
			w.log.Error("flight search failed", "preference_id", pref.ID, "err", err)
		} else {
			flights = found
		}

		if w.cache != nil {
			if err := w.cache.Delete(ctx, pref.ID); err != nil {
				w.log.Warn("invalidating flight cache failed", "preference_id", pref.ID, "err", err)
			}
		}
	} else {
		w.log.Info("no compatible routes for preference",
			"preference_id", pref.ID, "departure_city", pref.DepartureCity)
	}

	w.publishCompleted(ctx, pref, len(routes), len(flights))

	return &Result{
		Preference:       pref,
		CompatibleRoutes: routes,
		Flights:          flights,
	}, nil
}

// ExecuteNextSearch advances the rotation by exactly one preference: the one
// whose last search is oldest, never-searched ones first. Returns nil, nil
// when there is nothing to search.
func (w *Workflow) ExecuteNextSearch(ctx context.Context) (*Result, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	next, err := w.preferences.FindNextToSearch(ctx)
	if err != nil {
		return nil, fmt.Errorf("finding next preference to search: %w", err)
	}
	if next == nil {
		w.log.Info("no travel preferences to search")
		return nil, nil
	}

	return w.Execute(ctx, next.ID)
}

func (w *Workflow) publishCompleted(ctx context.Context, pref *travel.Preference, routes, flights int) {
	if w.publisher == nil {
		return
	}

	event := events.SearchCompleted{
		PreferenceID:  pref.ID,
		DepartureCity: pref.DepartureCity,
		RoutesFound:   routes,
		FlightsSaved:  flights,
		CompletedAt:   w.now(),
	}
	if err := w.publisher.Publish(ctx, event); err != nil {
		w.log.Warn("publishing search event failed", "preference_id", pref.ID, "err", err)
	}
}
