package database

import (
	"context"
	"fmt"

	"github.com/yishak-cs/wardrobe/internal/logger"
)

// SchemaMigrator creates the constraints and indexes the stores rely on
type SchemaMigrator struct {
	db  Querier
	log *logger.Logger
}

// NewSchemaMigrator creates a new schema migrator
func NewSchemaMigrator(db Querier, log *logger.Logger) *SchemaMigrator {
	return &SchemaMigrator{db: db, log: log.With("component", "SchemaMigrator")}
}

// schemaStatements are idempotent; the UsageCounter key is what keeps concurrent MERGEs
// from creating two counters for the same user, day and action.
var schemaStatements = []struct {
	name  string
	query string
}{
	{"user_id", `CREATE CONSTRAINT user_id IF NOT EXISTS FOR (u:User) REQUIRE u.id IS UNIQUE`},
	{"clothing_item_id", `CREATE CONSTRAINT clothing_item_id IF NOT EXISTS FOR (i:ClothingItem) REQUIRE i.id IS UNIQUE`},
	{"outfit_id", `CREATE CONSTRAINT outfit_id IF NOT EXISTS FOR (o:Outfit) REQUIRE o.id IS UNIQUE`},
	{"preference_user", `CREATE CONSTRAINT preference_user IF NOT EXISTS FOR (p:PreferenceModel) REQUIRE p.user_id IS UNIQUE`},
	{"usage_counter_key", `CREATE CONSTRAINT usage_counter_key IF NOT EXISTS FOR (c:UsageCounter) REQUIRE (c.user_id, c.day, c.action) IS UNIQUE`},
	{"clothing_item_owner", `CREATE INDEX clothing_item_owner IF NOT EXISTS FOR (i:ClothingItem) ON (i.owner_id)`},
	{"clothing_item_image", `CREATE INDEX clothing_item_image IF NOT EXISTS FOR (i:ClothingItem) ON (i.image_path)`},
	{"outfit_owner", `CREATE INDEX outfit_owner IF NOT EXISTS FOR (o:Outfit) ON (o.owner_id)`},
}

// EnsureSchema applies every schema statement in order
func (m *SchemaMigrator) EnsureSchema(ctx context.Context) error {
	m.log.Info("Ensuring Neo4j schema")

	for _, stmt := range schemaStatements {
		if err := m.db.ExecuteWrite(ctx, stmt.query, nil); err != nil {
			return fmt.Errorf("failed to apply %s: %w", stmt.name, err)
		}
		m.log.Debug("Applied schema statement", "name", stmt.name)
	}

	m.log.Info("Neo4j schema ready", "statements", len(schemaStatements))
	return nil
}

// GetStoreStatus returns node counts per label for the health endpoint
func (m *SchemaMigrator) GetStoreStatus(ctx context.Context) (map[string]int, error) {
	query := `
		MATCH (u:User) WITH count(u) as users
		MATCH (i:ClothingItem) WITH users, count(i) as items
		MATCH (o:Outfit) WITH users, items, count(o) as outfits
		MATCH (p:PreferenceModel) WITH users, items, outfits, count(p) as preference_models
		RETURN users, items, outfits, preference_models
	`

	results, err := m.db.ExecuteRead(ctx, query, nil)
	if err != nil {
		return nil, err
	}

	status := map[string]int{
		"users":             0,
		"items":             0,
		"outfits":           0,
		"preference_models": 0,
	}
	if len(results) == 0 {
		return status, nil
	}
	for key := range status {
		status[key] = asInt(results[0][key])
	}
	return status, nil
}
