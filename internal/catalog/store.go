package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Reference data changes through the admin panel, not mid-booking, so
// a short TTL keeps the API reading from cache without a reload hook.
const cacheTTL = 5 * time.Minute

// Loader fetches the authoritative reference data, typically from
// Postgres.
type Loader interface {
	LoadCatalog(ctx context.Context) ([]Service, []Staff, []Room, error)
}

// snapshot is the cached wire form of the catalog.
type snapshot struct {
	Services []Service `json:"services"`
	Staff    []Staff   `json:"staff"`
	Rooms    []Room    `json:"rooms"`
}

// Store caches the catalog in Redis in front of a Loader.
type Store struct {
	redis  *redis.Client
	loader Loader
}

// NewStore creates a catalog cache. The redis client may be nil, in
// which case every read goes to the loader.
func NewStore(redisClient *redis.Client, loader Loader) *Store {
	if loader == nil {
		panic("catalog: loader required")
	}
	return &Store{redis: redisClient, loader: loader}
}

func (s *Store) key() string {
	return "catalog:snapshot"
}

// Get returns the catalog, from cache when fresh, falling back to the
// loader. A loader result is written back to the cache best-effort.
func (s *Store) Get(ctx context.Context) (*Catalog, error) {
	if s.redis != nil {
		data, err := s.redis.Get(ctx, s.key()).Bytes()
		if err == nil {
			var snap snapshot
			if err := json.Unmarshal(data, &snap); err == nil {
				return New(snap.Services, snap.Staff, snap.Rooms), nil
			}
			// Corrupt cache entry: fall through to the loader.
		} else if err != redis.Nil {
			return nil, fmt.Errorf("catalog: read cache: %w", err)
		}
	}

	services, staff, rooms, err := s.loader.LoadCatalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog: load: %w", err)
	}
	if s.redis != nil {
		if data, err := json.Marshal(snapshot{Services: services, Staff: staff, Rooms: rooms}); err == nil {
			_ = s.redis.Set(ctx, s.key(), data, cacheTTL).Err()
		}
	}
	return New(services, staff, rooms), nil
}

// Invalidate drops the cached snapshot, forcing the next Get to hit
// the loader. Called after admin edits to reference data.
func (s *Store) Invalidate(ctx context.Context) error {
	if s.redis == nil {
		return nil
	}
	if err := s.redis.Del(ctx, s.key()).Err(); err != nil {
		return fmt.Errorf("catalog: invalidate cache: %w", err)
	}
	return nil
}
