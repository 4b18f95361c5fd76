package services

import (
	"context"
	"time"

	"github.com/yishak-cs/wardrobe/internal/apperr"
	"github.com/yishak-cs/wardrobe/internal/logger"
	"github.com/yishak-cs/wardrobe/internal/metrics"
	"github.com/yishak-cs/wardrobe/internal/models"
)

// DailyLimits are the per-user quotas per action and calendar day
var DailyLimits = map[models.ActionType]int{
	models.ActionOutfitGeneration:        10,
	models.ActionShoppingRecommendations: 5,
}

// dayKeyLayout formats the wall-clock date in the process's local time zone
const dayKeyLayout = "2006-01-02"

// RateLimiter enforces DailyLimits on top of a UsageStore
type RateLimiter struct {
	store UsageStore
	log   *logger.Logger
	now   func() time.Time
}

// NewRateLimiter creates a rate limiter using the local wall clock
func NewRateLimiter(store UsageStore, log *logger.Logger) *RateLimiter {
	return &RateLimiter{
		store: store,
		log:   log.With("component", "RateLimiter"),
		now:   time.Now,
	}
}

// DayKey returns the usage day for t
func DayKey(t time.Time) string {
	return t.Format(dayKeyLayout)
}

func limitFor(action models.ActionType) (int, error) {
	limit, ok := DailyLimits[action]
	if !ok {
		return 0, apperr.Invalid("unknown action type %q", action)
	}
	return limit, nil
}

// CheckLimit reports whether the user may perform action today. A usage store failure
// fails open: the action is allowed and the status is marked degraded.
func (r *RateLimiter) CheckLimit(ctx context.Context, userID string, action models.ActionType) (models.LimitStatus, error) {
	limit, err := limitFor(action)
	if err != nil {
		return models.LimitStatus{}, err
	}

	day := DayKey(r.now())
	current, err := r.store.GetUsage(ctx, userID, day, action)
	if err != nil {
		r.log.Warn("Usage store unavailable, allowing request",
			"user_id", userID,
			"action", action,
			"day", day,
			"error", err,
		)
		metrics.QuotaDegradedChecks.WithLabelValues(string(action)).Inc()
		return models.LimitStatus{
			Allowed:   true,
			Remaining: limit,
			Current:   0,
			Limit:     limit,
			Degraded:  true,
		}, nil
	}

	remaining := limit - current
	if remaining < 0 {
		remaining = 0
	}
	if current >= limit {
		metrics.QuotaRejections.WithLabelValues(string(action)).Inc()
	}
	return models.LimitStatus{
		Allowed:   current < limit,
		Remaining: remaining,
		Current:   current,
		Limit:     limit,
	}, nil
}

// IncrementUsage atomically counts one use of action today and returns the new count
func (r *RateLimiter) IncrementUsage(ctx context.Context, userID string, action models.ActionType) (int, error) {
	if _, err := limitFor(action); err != nil {
		return 0, err
	}
	return r.store.IncrementUsage(ctx, userID, DayKey(r.now()), action)
}

// GetDailyUsage reports today's usage, limit and remaining quota for every action
func (r *RateLimiter) GetDailyUsage(ctx context.Context, userID string) (models.DailyUsage, error) {
	day := DayKey(r.now())
	counts, err := r.store.GetDailyUsage(ctx, userID, day)
	if err != nil {
		return models.DailyUsage{}, err
	}

	usage := models.DailyUsage{
		Day:       day,
		Usage:     make(map[models.ActionType]int, len(DailyLimits)),
		Limits:    make(map[models.ActionType]int, len(DailyLimits)),
		Remaining: make(map[models.ActionType]int, len(DailyLimits)),
	}
	for action, limit := range DailyLimits {
		current := counts[action]
		remaining := limit - current
		if remaining < 0 {
			remaining = 0
		}
		usage.Usage[action] = current
		usage.Limits[action] = limit
		usage.Remaining[action] = remaining
	}
	return usage, nil
}
