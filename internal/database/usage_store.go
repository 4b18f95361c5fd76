package database

import (
	"context"

	"github.com/yishak-cs/wardrobe/internal/apperr"
	"github.com/yishak-cs/wardrobe/internal/models"
)

// UsageStore counts rate-limited actions as one (:UsageCounter) node per user, day and action.
// The increment is a single MERGE ... SET inside one write transaction; together with the
// uniqueness constraint from EnsureSchema it never loses concurrent updates.
type UsageStore struct {
	db Querier
}

// NewUsageStore creates a Neo4j-backed usage store
func NewUsageStore(db Querier) *UsageStore {
	return &UsageStore{db: db}
}

// GetUsage returns the counter for one action, 0 when nothing was recorded that day
func (s *UsageStore) GetUsage(ctx context.Context, userID, day string, action models.ActionType) (int, error) {
	query := `
		MATCH (c:UsageCounter {user_id: $userId, day: $day, action: $action})
		RETURN c.count AS count
	`
	params := map[string]interface{}{
		"userId": userID,
		"day":    day,
		"action": string(action),
	}
	results, err := s.db.ExecuteRead(ctx, query, params)
	if err != nil {
		return 0, apperr.Persistence("get usage", err)
	}
	if len(results) == 0 {
		return 0, nil
	}
	return asInt(results[0]["count"]), nil
}

// GetDailyUsage returns every counter recorded for the user on day
func (s *UsageStore) GetDailyUsage(ctx context.Context, userID, day string) (map[models.ActionType]int, error) {
	query := `
		MATCH (c:UsageCounter {user_id: $userId, day: $day})
		RETURN c.action AS action, c.count AS count
	`
	results, err := s.db.ExecuteRead(ctx, query, map[string]interface{}{"userId": userID, "day": day})
	if err != nil {
		return nil, apperr.Persistence("get daily usage", err)
	}

	usage := make(map[models.ActionType]int, len(results))
	for _, result := range results {
		usage[models.ActionType(asString(result["action"]))] = asInt(result["count"])
	}
	return usage, nil
}

// IncrementUsage atomically adds one to the counter, creating it when absent, and returns the new value
func (s *UsageStore) IncrementUsage(ctx context.Context, userID, day string, action models.ActionType) (int, error) {
	query := `
		MERGE (c:UsageCounter {user_id: $userId, day: $day, action: $action})
		ON CREATE SET c.count = 0, c.created_at = datetime()
		SET c.count = c.count + 1,
		    c.last_updated = datetime()
		RETURN c.count AS count
	`
	params := map[string]interface{}{
		"userId": userID,
		"day":    day,
		"action": string(action),
	}
	results, err := s.db.ExecuteWriteWithResult(ctx, query, params)
	if err != nil {
		return 0, apperr.Persistence("increment usage", err)
	}
	if len(results) == 0 {
		return 0, apperr.Persistence("increment usage", errNoRows)
	}
	return asInt(results[0]["count"]), nil
}
