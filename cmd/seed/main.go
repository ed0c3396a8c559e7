package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/voyago/travel-advisor/internal/storage"
	"github.com/voyago/travel-advisor/internal/travel"
)

// airports is the static reference graph: every directed pair between these
// European hubs is a seeded route.
var airports = []string{
	"LHR", "CDG", "AMS", "FRA", "MAD", "FCO", "MXP", "VCE", "NAP", "LIN", "BGY",
}

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if err := run(log); err != nil {
		log.Error("seeding failed", "err", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	_ = godotenv.Load()

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return fmt.Errorf("required environment variable not set: DATABASE_URL")
	}

	ctx := context.Background()

	pool, err := storage.Connect(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	migrationsDir := os.Getenv("MIGRATIONS_DIR")
	if migrationsDir == "" {
		migrationsDir = "migrations"
	}
	if err := storage.RunMigrations(ctx, pool, migrationsDir); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	routes, err := buildRouteGraph()
	if err != nil {
		return fmt.Errorf("building route graph: %w", err)
	}

	repo := storage.NewRouteRepository(pool)
	if err := repo.ReplaceAll(ctx, routes); err != nil {
		return fmt.Errorf("seeding routes: %w", err)
	}

	log.Info("routes seeded", "count", len(routes))
	return nil
}

// buildRouteGraph returns the full directed mesh over the seed airports.
func buildRouteGraph() ([]*travel.Route, error) {
	var routes []*travel.Route
	for _, from := range airports {
		for _, to := range airports {
			if from == to {
				continue
			}
			route, err := travel.NewRoute(from, to)
			if err != nil {
				return nil, err
			}
			routes = append(routes, route)
		}
	}
	return routes, nil
}
