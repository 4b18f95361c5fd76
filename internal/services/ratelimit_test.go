package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/yishak-cs/wardrobe/internal/apperr"
	"github.com/yishak-cs/wardrobe/internal/logger"
	"github.com/yishak-cs/wardrobe/internal/models"
)

func newTestLimiter(store *fakeUsage, now time.Time) *RateLimiter {
	r := NewRateLimiter(store, logger.Nop())
	r.now = fixedClock(now)
	return r
}

func TestDayKey(t *testing.T) {
	got := DayKey(time.Date(2025, 1, 5, 23, 59, 0, 0, time.Local))
	if got != "2025-01-05" {
		t.Fatalf("got %s", got)
	}
}

func TestCheckLimitFreshDay(t *testing.T) {
	r := newTestLimiter(newFakeUsage(), time.Date(2025, 6, 1, 8, 0, 0, 0, time.Local))
	status, err := r.CheckLimit(context.Background(), "u1", models.ActionOutfitGeneration)
	if err != nil {
		t.Fatal(err)
	}
	want := models.LimitStatus{Allowed: true, Remaining: 10, Current: 0, Limit: 10}
	if status != want {
		t.Fatalf("status=%+v", status)
	}
}

func TestCheckLimitBlocksAtLimit(t *testing.T) {
	tests := []struct {
		action models.ActionType
		limit  int
	}{
		{models.ActionOutfitGeneration, 10},
		{models.ActionShoppingRecommendations, 5},
	}
	for _, tt := range tests {
		t.Run(string(tt.action), func(t *testing.T) {
			ctx := context.Background()
			r := newTestLimiter(newFakeUsage(), time.Date(2025, 6, 1, 8, 0, 0, 0, time.Local))

			for i := 0; i < tt.limit; i++ {
				status, err := r.CheckLimit(ctx, "u1", tt.action)
				if err != nil || !status.Allowed {
					t.Fatalf("check %d: status=%+v err=%v", i, status, err)
				}
				if _, err := r.IncrementUsage(ctx, "u1", tt.action); err != nil {
					t.Fatal(err)
				}
			}

			status, err := r.CheckLimit(ctx, "u1", tt.action)
			if err != nil {
				t.Fatal(err)
			}
			if status.Allowed || status.Remaining != 0 || status.Current != tt.limit {
				t.Fatalf("status=%+v", status)
			}

			other, _ := r.CheckLimit(ctx, "u2", tt.action)
			if !other.Allowed {
				t.Fatal("quota leaked to another user")
			}
		})
	}
}

func TestCheckLimitResetsNextDay(t *testing.T) {
	ctx := context.Background()
	store := newFakeUsage()
	r := newTestLimiter(store, time.Date(2025, 6, 1, 23, 0, 0, 0, time.Local))
	for i := 0; i < 5; i++ {
		if _, err := r.IncrementUsage(ctx, "u1", models.ActionShoppingRecommendations); err != nil {
			t.Fatal(err)
		}
	}

	r.now = fixedClock(time.Date(2025, 6, 2, 0, 30, 0, 0, time.Local))
	status, err := r.CheckLimit(ctx, "u1", models.ActionShoppingRecommendations)
	if err != nil {
		t.Fatal(err)
	}
	if !status.Allowed || status.Current != 0 {
		t.Fatalf("status=%+v", status)
	}
}

func TestCheckLimitFailsOpen(t *testing.T) {
	store := newFakeUsage()
	store.getErr = errStoreDown
	r := newTestLimiter(store, time.Now())

	status, err := r.CheckLimit(context.Background(), "u1", models.ActionOutfitGeneration)
	if err != nil {
		t.Fatalf("fail-open check returned error: %v", err)
	}
	if !status.Allowed || !status.Degraded || status.Limit != 10 {
		t.Fatalf("status=%+v", status)
	}
}

func TestUnknownActionFailsClosed(t *testing.T) {
	r := newTestLimiter(newFakeUsage(), time.Now())
	ctx := context.Background()

	if _, err := r.CheckLimit(ctx, "u1", models.ActionType("TELEPORT")); !apperr.IsInvalid(err) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
	if _, err := r.IncrementUsage(ctx, "u1", models.ActionType("TELEPORT")); !apperr.IsInvalid(err) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
}

func TestIncrementUsageConcurrent(t *testing.T) {
	ctx := context.Background()
	store := newFakeUsage()
	r := newTestLimiter(store, time.Date(2025, 6, 1, 8, 0, 0, 0, time.Local))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = r.IncrementUsage(ctx, "u1", models.ActionOutfitGeneration)
		}()
	}
	wg.Wait()

	status, _ := r.CheckLimit(ctx, "u1", models.ActionOutfitGeneration)
	if status.Current != 20 {
		t.Fatalf("current=%d", status.Current)
	}
}

func TestGetDailyUsage(t *testing.T) {
	ctx := context.Background()
	store := newFakeUsage()
	r := newTestLimiter(store, time.Date(2025, 6, 1, 8, 0, 0, 0, time.Local))
	for i := 0; i < 3; i++ {
		if _, err := r.IncrementUsage(ctx, "u1", models.ActionOutfitGeneration); err != nil {
			t.Fatal(err)
		}
	}

	usage, err := r.GetDailyUsage(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if usage.Day != "2025-06-01" {
		t.Fatalf("day=%s", usage.Day)
	}
	if usage.Usage[models.ActionOutfitGeneration] != 3 || usage.Remaining[models.ActionOutfitGeneration] != 7 {
		t.Fatalf("usage=%+v", usage)
	}
	if usage.Usage[models.ActionShoppingRecommendations] != 0 || usage.Remaining[models.ActionShoppingRecommendations] != 5 {
		t.Fatalf("usage=%+v", usage)
	}

	store.getErr = errStoreDown
	if _, err := r.GetDailyUsage(ctx, "u1"); !apperr.IsPersistence(err) {
		t.Fatalf("expected persistence error, got %v", err)
	}
}
