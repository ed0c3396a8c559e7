package api

import (
	"context"

	"github.com/voyago/travel-advisor/internal/search"
	"github.com/voyago/travel-advisor/internal/travel"
)

// PreferenceRepo defines the preference storage operations needed by handlers.
type PreferenceRepo interface {
	Save(ctx context.Context, p *travel.Preference) (*travel.Preference, error)
	FindAll(ctx context.Context) ([]*travel.Preference, error)
	FindByID(ctx context.Context, id string) (*travel.Preference, error)
	Update(ctx context.Context, id string, p *travel.Preference) (*travel.Preference, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// RouteRepo defines the route storage operations needed by handlers.
type RouteRepo interface {
	FindAll(ctx context.Context) ([]*travel.Route, error)
}

// FlightRepo defines the flight storage operations needed by handlers.
type FlightRepo interface {
	FindByPreferenceID(ctx context.Context, preferenceID string) ([]*travel.Flight, error)
}

// FlightCache defines the cache operations needed by handlers.
type FlightCache interface {
	Get(ctx context.Context, preferenceID string) ([]*travel.Flight, error)
	Set(ctx context.Context, preferenceID string, flights []*travel.Flight) error
}

// SearchWorkflow defines the discovery workflow operations exposed over HTTP.
type SearchWorkflow interface {
	Execute(ctx context.Context, preferenceID string) (*search.Result, error)
	ExecuteNextSearch(ctx context.Context) (*search.Result, error)
}
