package database

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yishak-cs/wardrobe/internal/apperr"
	"github.com/yishak-cs/wardrobe/internal/models"
)

// CatalogStore persists clothing items as (:User)-[:OWNS]->(:ClothingItem) nodes
type CatalogStore struct {
	db  Querier
	now func() time.Time
}

// NewCatalogStore creates a catalog store on top of a Neo4j querier
func NewCatalogStore(db Querier) *CatalogStore {
	return &CatalogStore{db: db, now: time.Now}
}

// CreateItem stores a new item, assigning its id and creation time
func (s *CatalogStore) CreateItem(ctx context.Context, item models.ClothingItem) (models.ClothingItem, error) {
	item.ID = uuid.NewString()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = s.now()
	}

	query := `
		MERGE (u:User {id: $ownerId})
		CREATE (i:ClothingItem)
		SET i = $props
		MERGE (u)-[:OWNS]->(i)
	`
	params := map[string]interface{}{
		"ownerId": item.OwnerID,
		"props":   itemProps(item),
	}
	if err := s.db.ExecuteWrite(ctx, query, params); err != nil {
		return models.ClothingItem{}, apperr.Persistence("create item", err)
	}
	return item, nil
}

// GetItem returns a single item by id
func (s *CatalogStore) GetItem(ctx context.Context, itemID string) (models.ClothingItem, error) {
	query := `
		MATCH (i:ClothingItem {id: $itemId})
		RETURN properties(i) AS item
	`
	results, err := s.db.ExecuteRead(ctx, query, map[string]interface{}{"itemId": itemID})
	if err != nil {
		return models.ClothingItem{}, apperr.Persistence("get item", err)
	}
	if len(results) == 0 {
		return models.ClothingItem{}, apperr.NotFound("item %s not found", itemID)
	}
	return decodeItem(results[0]["item"])
}

// ListItems returns the owner's catalog, most recently added first
func (s *CatalogStore) ListItems(ctx context.Context, ownerID string) ([]models.ClothingItem, error) {
	query := `
		MATCH (i:ClothingItem {owner_id: $ownerId})
		RETURN properties(i) AS item
		ORDER BY i.created_at DESC
	`
	results, err := s.db.ExecuteRead(ctx, query, map[string]interface{}{"ownerId": ownerID})
	if err != nil {
		return nil, apperr.Persistence("list items", err)
	}

	items := make([]models.ClothingItem, 0, len(results))
	for _, result := range results {
		item, err := decodeItem(result["item"])
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// UpdateItem overwrites the stored properties of an existing item
func (s *CatalogStore) UpdateItem(ctx context.Context, item models.ClothingItem) error {
	query := `
		MATCH (i:ClothingItem {id: $itemId})
		SET i = $props
		RETURN i.id AS id
	`
	params := map[string]interface{}{
		"itemId": item.ID,
		"props":  itemProps(item),
	}
	results, err := s.db.ExecuteWriteWithResult(ctx, query, params)
	if err != nil {
		return apperr.Persistence("update item", err)
	}
	if len(results) == 0 {
		return apperr.NotFound("item %s not found", item.ID)
	}
	return nil
}

// DeleteItem removes an item and its relationships
func (s *CatalogStore) DeleteItem(ctx context.Context, itemID string) error {
	query := `
		MATCH (i:ClothingItem {id: $itemId})
		DETACH DELETE i
		RETURN count(*) AS deleted
	`
	results, err := s.db.ExecuteWriteWithResult(ctx, query, map[string]interface{}{"itemId": itemID})
	if err != nil {
		return apperr.Persistence("delete item", err)
	}
	if len(results) == 0 || asInt(results[0]["deleted"]) == 0 {
		return apperr.NotFound("item %s not found", itemID)
	}
	return nil
}

// CountItemsByImagePath counts the items that still reference an image blob
func (s *CatalogStore) CountItemsByImagePath(ctx context.Context, imagePath string) (int, error) {
	query := `
		MATCH (i:ClothingItem {image_path: $imagePath})
		RETURN count(i) AS items
	`
	results, err := s.db.ExecuteRead(ctx, query, map[string]interface{}{"imagePath": imagePath})
	if err != nil {
		return 0, apperr.Persistence("count items by image", err)
	}
	if len(results) == 0 {
		return 0, nil
	}
	return asInt(results[0]["items"]), nil
}

func itemProps(item models.ClothingItem) map[string]interface{} {
	return map[string]interface{}{
		"id":           item.ID,
		"owner_id":     item.OwnerID,
		"category":     string(item.Category),
		"colors":       nonNil(item.Colors),
		"season":       nonNil(item.Season),
		"style":        nonNil(item.Style),
		"description":  item.Description,
		"confidence":   item.Confidence,
		"favorite":     item.Favorite,
		"in_laundry":   item.InLaundry,
		"laundry_date": timeParam(item.LaundryDate),
		"image_url":    item.ImageURL,
		"image_path":   item.ImagePath,
		"created_at":   item.CreatedAt,
	}
}

func decodeItem(v interface{}) (models.ClothingItem, error) {
	props, err := asProps(v)
	if err != nil {
		return models.ClothingItem{}, apperr.Persistence("decode item", err)
	}
	return models.ClothingItem{
		ID:          asString(props["id"]),
		OwnerID:     asString(props["owner_id"]),
		Category:    models.ParseCategory(asString(props["category"])),
		Colors:      asStrings(props["colors"]),
		Season:      asStrings(props["season"]),
		Style:       asStrings(props["style"]),
		Description: asString(props["description"]),
		Confidence:  asFloat(props["confidence"]),
		Favorite:    asBool(props["favorite"]),
		InLaundry:   asBool(props["in_laundry"]),
		LaundryDate: asTimePtr(props["laundry_date"]),
		ImageURL:    asString(props["image_url"]),
		ImagePath:   asString(props["image_path"]),
		CreatedAt:   asTime(props["created_at"]),
	}, nil
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
