package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dimitrije/spacebook-api/internal/models"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix  = "timeline"
	allScope   = "all"
	dateLayout = "2006-01-02"

	// minGenerationTTL keeps a counter alive well past every entry written
	// under a superseded generation, so an expired counter never resurrects
	// an old entry.
	minGenerationTTL = 24 * time.Hour
)

// Connect parses a redis:// URL and checks the server is reachable.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return rdb, nil
}

// TimelineCache keeps the reservations of a (scope, day) pair in Redis. A
// TimelineCache without a client caches nothing.
//
// Every (scope, day) pair has a generation counter that is part of the entry
// key. Invalidate bumps the counter instead of deleting entries, so a reader
// that loaded its snapshot before a write stores it under a generation no
// later reader asks for.
type TimelineCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	genTTL time.Duration
	loc    *time.Location
}

func NewTimelineCache(rdb *redis.Client, ttl time.Duration, loc *time.Location) *TimelineCache {
	if loc == nil {
		loc = time.UTC
	}
	genTTL := minGenerationTTL
	if 2*ttl > genTTL {
		genTTL = 2 * ttl
	}
	return &TimelineCache{rdb: rdb, ttl: ttl, genTTL: genTTL, loc: loc}
}

func Key(scope, day string, gen int64) string {
	return fmt.Sprintf("%s:%s:%s:%d", keyPrefix, scope, day, gen)
}

func GenerationKey(scope, day string) string {
	return keyPrefix + ":gen:" + scope + ":" + day
}

func (c *TimelineCache) enabled() bool {
	return c != nil && c.rdb != nil
}

func (c *TimelineCache) generation(ctx context.Context, scope, day string) (int64, error) {
	gen, err := c.rdb.Get(ctx, GenerationKey(scope, day)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read timeline cache generation: %w", err)
	}
	return gen, nil
}

// Get returns the cached reservations of the current generation. The
// generation is returned on a miss too; callers load from the database and
// hand it back to Set.
func (c *TimelineCache) Get(ctx context.Context, scope, day string) ([]models.Reservation, int64, bool, error) {
	if !c.enabled() {
		return nil, 0, false, nil
	}

	gen, err := c.generation(ctx, scope, day)
	if err != nil {
		return nil, 0, false, err
	}

	data, err := c.rdb.Get(ctx, Key(scope, day, gen)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, gen, false, nil
	}
	if err != nil {
		return nil, gen, false, fmt.Errorf("failed to read timeline cache: %w", err)
	}

	var reservations []models.Reservation
	if err := json.Unmarshal(data, &reservations); err != nil {
		return nil, gen, false, fmt.Errorf("failed to decode timeline cache: %w", err)
	}
	return reservations, gen, true, nil
}

// Set stores reservations under the generation observed by Get before they
// were loaded.
func (c *TimelineCache) Set(ctx context.Context, scope, day string, gen int64, reservations []models.Reservation) error {
	if !c.enabled() {
		return nil
	}

	data, err := json.Marshal(reservations)
	if err != nil {
		return fmt.Errorf("failed to encode timeline cache: %w", err)
	}
	if err := c.rdb.Set(ctx, Key(scope, day, gen), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write timeline cache: %w", err)
	}
	return nil
}

// Invalidate bumps the generation of the space's entries and the all-spaces
// entries for every day the range [from, to) touches.
func (c *TimelineCache) Invalidate(ctx context.Context, spaceID uuid.UUID, from, to time.Time) error {
	if !c.enabled() {
		return nil
	}

	_, err := c.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, day := range Days(from, to, c.loc) {
			for _, scope := range []string{spaceID.String(), allScope} {
				key := GenerationKey(scope, day)
				pipe.Incr(ctx, key)
				pipe.Expire(ctx, key, c.genTTL)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to invalidate timeline cache: %w", err)
	}
	return nil
}

// Days lists the calendar days in loc that the range [from, to) touches. An
// empty or inverted range still touches the day of from.
func Days(from, to time.Time, loc *time.Location) []string {
	y, m, d := from.In(loc).Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, loc)

	days := []string{day.Format(dateLayout)}
	for {
		day = day.AddDate(0, 0, 1)
		if !day.Before(to) {
			return days
		}
		days = append(days, day.Format(dateLayout))
	}
}
