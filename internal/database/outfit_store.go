package database

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yishak-cs/wardrobe/internal/apperr"
	"github.com/yishak-cs/wardrobe/internal/models"
)

// OutfitStore persists outfit history. The selected-item snapshot and the AI response are
// kept as JSON documents on the Outfit node; INCLUDES relationships point at the live items.
type OutfitStore struct {
	db  Querier
	now func() time.Time
}

// NewOutfitStore creates an outfit store on top of a Neo4j querier
func NewOutfitStore(db Querier) *OutfitStore {
	return &OutfitStore{db: db, now: time.Now}
}

// CreateOutfit stores a new outfit record, assigning its id and creation time
func (s *OutfitStore) CreateOutfit(ctx context.Context, outfit models.OutfitRecord) (models.OutfitRecord, error) {
	outfit.ID = uuid.NewString()
	if outfit.CreatedAt.IsZero() {
		outfit.CreatedAt = s.now()
	}

	props, err := outfitProps(outfit)
	if err != nil {
		return models.OutfitRecord{}, apperr.Persistence("create outfit", err)
	}

	selectedIDs := make([]string, 0, len(outfit.SelectedItems))
	for _, item := range outfit.SelectedItems {
		selectedIDs = append(selectedIDs, item.ID)
	}

	query := `
		MERGE (u:User {id: $ownerId})
		CREATE (u)-[:GENERATED]->(o:Outfit)
		SET o = $props
		WITH o
		UNWIND $selectedIds AS itemId
		MATCH (i:ClothingItem {id: itemId})
		MERGE (o)-[:INCLUDES]->(i)
	`
	params := map[string]interface{}{
		"ownerId":     outfit.OwnerID,
		"props":       props,
		"selectedIds": selectedIDs,
	}
	if err := s.db.ExecuteWrite(ctx, query, params); err != nil {
		return models.OutfitRecord{}, apperr.Persistence("create outfit", err)
	}
	return outfit, nil
}

// GetOutfit returns a single outfit by id
func (s *OutfitStore) GetOutfit(ctx context.Context, outfitID string) (models.OutfitRecord, error) {
	query := `
		MATCH (o:Outfit {id: $outfitId})
		RETURN properties(o) AS outfit
	`
	results, err := s.db.ExecuteRead(ctx, query, map[string]interface{}{"outfitId": outfitID})
	if err != nil {
		return models.OutfitRecord{}, apperr.Persistence("get outfit", err)
	}
	if len(results) == 0 {
		return models.OutfitRecord{}, apperr.NotFound("outfit %s not found", outfitID)
	}
	return decodeOutfit(results[0]["outfit"])
}

// ListOutfits returns the owner's outfits newest first. limit <= 0 returns all of them.
func (s *OutfitStore) ListOutfits(ctx context.Context, ownerID string, limit int) ([]models.OutfitRecord, error) {
	query := `
		MATCH (o:Outfit {owner_id: $ownerId})
		RETURN properties(o) AS outfit
		ORDER BY o.created_at DESC
	`
	params := map[string]interface{}{"ownerId": ownerID}
	if limit > 0 {
		query += " LIMIT $limit"
		params["limit"] = limit
	}

	results, err := s.db.ExecuteRead(ctx, query, params)
	if err != nil {
		return nil, apperr.Persistence("list outfits", err)
	}

	outfits := make([]models.OutfitRecord, 0, len(results))
	for _, result := range results {
		outfit, err := decodeOutfit(result["outfit"])
		if err != nil {
			return nil, err
		}
		outfits = append(outfits, outfit)
	}
	return outfits, nil
}

// UpdateOutfit writes back the mutable fields of an outfit: rating, favorite, image and wear date
func (s *OutfitStore) UpdateOutfit(ctx context.Context, outfit models.OutfitRecord) error {
	query := `
		MATCH (o:Outfit {id: $outfitId})
		SET o.rating = $rating,
		    o.rated_at = $ratedAt,
		    o.worn_at = $wornAt,
		    o.favorite = $favorite,
		    o.image_url = $imageUrl
		RETURN o.id AS id
	`
	var rating interface{}
	if outfit.Rating != nil {
		rating = *outfit.Rating
	}
	params := map[string]interface{}{
		"outfitId": outfit.ID,
		"rating":   rating,
		"ratedAt":  timeParam(outfit.RatedAt),
		"wornAt":   timeParam(outfit.WornAt),
		"favorite": outfit.Favorite,
		"imageUrl": outfit.ImageURL,
	}
	results, err := s.db.ExecuteWriteWithResult(ctx, query, params)
	if err != nil {
		return apperr.Persistence("update outfit", err)
	}
	if len(results) == 0 {
		return apperr.NotFound("outfit %s not found", outfit.ID)
	}
	return nil
}

// DeleteOutfit removes an outfit record
func (s *OutfitStore) DeleteOutfit(ctx context.Context, outfitID string) error {
	query := `
		MATCH (o:Outfit {id: $outfitId})
		DETACH DELETE o
		RETURN count(*) AS deleted
	`
	results, err := s.db.ExecuteWriteWithResult(ctx, query, map[string]interface{}{"outfitId": outfitID})
	if err != nil {
		return apperr.Persistence("delete outfit", err)
	}
	if len(results) == 0 || asInt(results[0]["deleted"]) == 0 {
		return apperr.NotFound("outfit %s not found", outfitID)
	}
	return nil
}

func outfitProps(outfit models.OutfitRecord) (map[string]interface{}, error) {
	selected, err := jsonParam(outfit.SelectedItems)
	if err != nil {
		return nil, err
	}
	suggestion, err := jsonParam(outfit.AISuggestion)
	if err != nil {
		return nil, err
	}
	var weather interface{}
	if outfit.Weather != nil {
		encoded, err := jsonParam(outfit.Weather)
		if err != nil {
			return nil, err
		}
		weather = encoded
	}
	var rating interface{}
	if outfit.Rating != nil {
		rating = *outfit.Rating
	}

	return map[string]interface{}{
		"id":              outfit.ID,
		"owner_id":        outfit.OwnerID,
		"source_item_ids": nonNil(outfit.SourceItemIDs),
		"selected_items":  selected,
		"occasion":        outfit.Occasion,
		"weather":         weather,
		"ai_suggestion":   suggestion,
		"image_url":       outfit.ImageURL,
		"favorite":        outfit.Favorite,
		"rating":          rating,
		"rated_at":        timeParam(outfit.RatedAt),
		"worn_at":         timeParam(outfit.WornAt),
		"created_at":      outfit.CreatedAt,
	}, nil
}

func decodeOutfit(v interface{}) (models.OutfitRecord, error) {
	props, err := asProps(v)
	if err != nil {
		return models.OutfitRecord{}, apperr.Persistence("decode outfit", err)
	}

	outfit := models.OutfitRecord{
		ID:            asString(props["id"]),
		OwnerID:       asString(props["owner_id"]),
		SourceItemIDs: asStrings(props["source_item_ids"]),
		Occasion:      asString(props["occasion"]),
		ImageURL:      asString(props["image_url"]),
		Favorite:      asBool(props["favorite"]),
		Rating:        asIntPtr(props["rating"]),
		RatedAt:       asTimePtr(props["rated_at"]),
		WornAt:        asTimePtr(props["worn_at"]),
		CreatedAt:     asTime(props["created_at"]),
	}
	if err := decodeJSON(props["selected_items"], &outfit.SelectedItems); err != nil {
		return models.OutfitRecord{}, apperr.Persistence("decode outfit", err)
	}
	if err := decodeJSON(props["ai_suggestion"], &outfit.AISuggestion); err != nil {
		return models.OutfitRecord{}, apperr.Persistence("decode outfit", err)
	}
	if props["weather"] != nil {
		var weather models.Weather
		if err := decodeJSON(props["weather"], &weather); err != nil {
			return models.OutfitRecord{}, apperr.Persistence("decode outfit", err)
		}
		outfit.Weather = &weather
	}
	if outfit.SelectedItems == nil {
		outfit.SelectedItems = []models.SelectedItem{}
	}
	return outfit, nil
}
