// Package bootstrap wires shared infrastructure from configuration.
package bootstrap

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/serenity-spa/booking-platform/internal/config"
	"github.com/serenity-spa/booking-platform/internal/schedule"
	"github.com/serenity-spa/booking-platform/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		return nil
	}
	return client
}

// BuildPgxPool connects a pgx pool and verifies it with a ping.
func BuildPgxPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("bootstrap: DATABASE_URL is required")
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: create pgx pool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("bootstrap: ping database: %w", err)
	}
	return pool, nil
}

// BuildSchedulePolicy turns the flat env config into the scheduling
// policy: one open/close window applied to every weekday that is not
// listed as closed.
func BuildSchedulePolicy(cfg *appconfig.Config) (schedule.Policy, error) {
	hours := map[time.Weekday][2]string{}
	for day := time.Sunday; day <= time.Saturday; day++ {
		if weekdayClosed(cfg.ClosedWeekdays, day) {
			continue
		}
		hours[day] = [2]string{cfg.HoursOpen, cfg.HoursClose}
	}
	week, err := schedule.ParseWeekHours(hours)
	if err != nil {
		return schedule.Policy{}, fmt.Errorf("bootstrap: business hours: %w", err)
	}
	return schedule.Policy{
		BufferMinutes:    cfg.BufferMinutes,
		SlotStepMinutes:  cfg.SlotStepMinutes,
		SpecialRoomID:    cfg.SpecialRoomID,
		CouplesRoomOrder: cfg.CouplesRoomOrder,
		Hours:            week,
	}, nil
}

func weekdayClosed(closed []string, day time.Weekday) bool {
	for _, name := range closed {
		if strings.EqualFold(strings.TrimSpace(name), day.String()) {
			return true
		}
	}
	return false
}
