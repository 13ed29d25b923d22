package service

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"pylearn_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// RateGate caps the number of upstream AI calls made per civil day, across
// all users. The counter lives in Redis under a date-stamped key that
// expires at the next midnight, so a new day always starts from zero even
// if the expiry never fires. The read-increment-write is not atomic; under
// concurrency the gate can admit a handful of calls past the ceiling, which
// is acceptable for a soft quota guard.
type RateGate struct {
	Redis *redis.Client
	limit atomic.Int64
	clock clockwork.Clock
	loc   *time.Location
}

// GateStatus is the quota snapshot reported to clients.
type GateStatus struct {
	Used      int       `json:"used"`
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	ResetAt   time.Time `json:"resetAt"`
	Exhausted bool      `json:"exhausted"`
}

func NewRateGate(rdb *redis.Client, limit int, clock clockwork.Clock, loc *time.Location) *RateGate {
	g := &RateGate{
		Redis: rdb,
		clock: clock,
		loc:   loc,
	}
	g.limit.Store(int64(limit))
	return g
}

// SetLimit adjusts the daily ceiling. Used by config hot-reload; takes
// effect on the next Allow.
func (g *RateGate) SetLimit(limit int) {
	g.limit.Store(int64(limit))
}

func (g *RateGate) Limit() int {
	return int(g.limit.Load())
}

func (g *RateGate) key(now time.Time) string {
	return fmt.Sprintf("ai:requests:%s", now.In(g.loc).Format("2006-01-02"))
}

// nextMidnight returns the next day boundary in the configured timezone.
func (g *RateGate) nextMidnight(now time.Time) time.Time {
	local := now.In(g.loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, g.loc).AddDate(0, 0, 1)
}

// Allow consumes one slot if any remain. Returns whether the call may
// proceed plus the post-decision status. A Redis failure closes the gate:
// an unavailable counter must not turn the quota off.
func (g *RateGate) Allow(ctx context.Context) (bool, GateStatus, error) {
	now := g.clock.Now()
	reset := g.nextMidnight(now)
	limit := g.Limit()

	used, err := g.currentCount(ctx, now)
	if err != nil {
		return false, GateStatus{Limit: limit, ResetAt: reset}, err
	}

	if used >= limit {
		logger.Log.Warn("daily AI quota exhausted",
			zap.Int("limit", limit), zap.Time("reset_at", reset))
		return false, GateStatus{
			Used:      used,
			Limit:     limit,
			Remaining: 0,
			ResetAt:   reset,
			Exhausted: true,
		}, nil
	}

	used++
	ttl := reset.Sub(now)
	if err := g.Redis.Set(ctx, g.key(now), used, ttl).Err(); err != nil {
		return false, GateStatus{Limit: limit, ResetAt: reset}, err
	}

	return true, GateStatus{
		Used:      used,
		Limit:     limit,
		Remaining: limit - used,
		ResetAt:   reset,
	}, nil
}

// PeekStatus reports the quota without consuming a slot.
func (g *RateGate) PeekStatus(ctx context.Context) (GateStatus, error) {
	now := g.clock.Now()
	reset := g.nextMidnight(now)
	limit := g.Limit()

	used, err := g.currentCount(ctx, now)
	if err != nil {
		return GateStatus{Limit: limit, ResetAt: reset}, err
	}

	remaining := limit - used
	if remaining < 0 {
		remaining = 0
	}
	return GateStatus{
		Used:      used,
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   reset,
		Exhausted: used >= limit,
	}, nil
}

func (g *RateGate) currentCount(ctx context.Context, now time.Time) (int, error) {
	raw, err := g.Redis.Get(ctx, g.key(now)).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading AI quota counter: %w", err)
	}
	used, err := strconv.Atoi(raw)
	if err != nil {
		// A corrupt counter is treated as empty rather than wedging the gate
		// until midnight.
		logger.Log.Warn("discarding corrupt AI quota counter", zap.String("value", raw))
		return 0, nil
	}
	return used, nil
}
