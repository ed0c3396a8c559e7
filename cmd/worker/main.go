package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/voyago/travel-advisor/internal/cache"
	"github.com/voyago/travel-advisor/internal/events"
	"github.com/voyago/travel-advisor/internal/flightsearch"
	"github.com/voyago/travel-advisor/internal/search"
	"github.com/voyago/travel-advisor/internal/storage"
)

// The worker advances the rotation by exactly one preference per tick: the
// least-recently-searched preference is searched, its flights replaced, and
// its staleness marker reset.
func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if err := run(log); err != nil {
		log.Error("worker exited with error", "err", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	_ = godotenv.Load()

	databaseURL := mustEnv("DATABASE_URL")
	searchAPIKey := mustEnv("FLIGHT_SEARCH_API_KEY")
	interval := getEnvDuration("SEARCH_INTERVAL_SECONDS", 300)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := storage.Connect(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	preferenceRepo := storage.NewPreferenceRepository(pool)
	routeRepo := storage.NewRouteRepository(pool)
	flightRepo := storage.NewFlightRepository(pool)
	client := flightsearch.NewClient(searchAPIKey)
	service := search.NewService(flightRepo, client, log, nil)

	var opts []search.WorkflowOption
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		redisClient, err := cache.Connect(ctx, redisURL)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer func() { _ = redisClient.Close() }()
		opts = append(opts, search.WithResultCache(cache.NewCache(redisClient)))
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		producer := events.NewProducer(strings.Split(brokers, ","), getEnv("KAFKA_SEARCH_TOPIC", "flight-search-events"))
		defer func() { _ = producer.Close() }()
		opts = append(opts, search.WithEventPublisher(producer))
	}
	workflow := search.NewWorkflow(preferenceRepo, routeRepo, service, log, nil, opts...)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	log.Info("worker starting", "interval", interval.String())

	for {
		select {
		case <-ticker.C:
			res, err := workflow.ExecuteNextSearch(ctx)
			if err != nil {
				log.Error("rotation step failed", "err", err)
				continue
			}
			if res == nil {
				continue
			}
			log.Info("rotation step completed",
				"preference_id", res.Preference.ID,
				"routes", len(res.CompatibleRoutes),
				"flights", len(res.Flights))
		case s := <-sig:
			log.Info("shutdown signal received", "signal", s)
			return nil
		}
	}
}

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		slog.Error("required environment variable not set", "key", key)
		os.Exit(1)
	}
	return v
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvDuration(key string, fallbackSeconds int) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
	}
	return time.Duration(fallbackSeconds) * time.Second
}
