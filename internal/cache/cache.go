package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/voyago/travel-advisor/internal/travel"
)

const defaultTTL = 15 * time.Minute

// Cache wraps a Redis client and provides typed get/set/delete for the flight
// results of a preference. Entries are invalidated whenever a search cycle
// replaces the stored flights.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache constructs a Cache with a 15-minute TTL.
func NewCache(client *redis.Client) *Cache {
	return &Cache{client: client, ttl: defaultTTL}
}

// key returns the Redis key for the given preference id.
func key(preferenceID string) string {
	return "flights:" + preferenceID
}

// Get retrieves cached flights for a preference.
// Returns nil, nil on a cache miss (not an error).
func (c *Cache) Get(ctx context.Context, preferenceID string) ([]*travel.Flight, error) {
	val, err := c.client.Get(ctx, key(preferenceID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("cache get for preference %s: %w", preferenceID, err)
	}

	var flights []*travel.Flight
	if err := json.Unmarshal([]byte(val), &flights); err != nil {
		return nil, fmt.Errorf("unmarshaling cached flights for preference %s: %w", preferenceID, err)
	}

	return flights, nil
}

// Set stores a preference's flights in cache with the configured TTL.
// An empty list is cached too so a preference with no affordable flights does
// not hit the database on every request.
func (c *Cache) Set(ctx context.Context, preferenceID string, flights []*travel.Flight) error {
	if flights == nil {
		flights = []*travel.Flight{}
	}

	b, err := json.Marshal(flights)
	if err != nil {
		return fmt.Errorf("marshaling flights for preference %s: %w", preferenceID, err)
	}

	if err := c.client.Set(ctx, key(preferenceID), b, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set for preference %s: %w", preferenceID, err)
	}

	return nil
}

// Delete removes the cached flights for the given preference.
func (c *Cache) Delete(ctx context.Context, preferenceID string) error {
	if err := c.client.Del(ctx, key(preferenceID)).Err(); err != nil {
		return fmt.Errorf("cache delete for preference %s: %w", preferenceID, err)
	}
	return nil
}
