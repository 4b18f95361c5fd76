package database

import (
	"context"

	"github.com/yishak-cs/wardrobe/internal/apperr"
	"github.com/yishak-cs/wardrobe/internal/models"
)

// PreferenceStore keeps one PreferenceModel document per user on a (:PreferenceModel) node
type PreferenceStore struct {
	db Querier
}

// NewPreferenceStore creates a preference store on top of a Neo4j querier
func NewPreferenceStore(db Querier) *PreferenceStore {
	return &PreferenceStore{db: db}
}

// GetPreferences loads the user's model. found is false when the user has never rated an outfit.
func (s *PreferenceStore) GetPreferences(ctx context.Context, userID string) (model models.PreferenceModel, found bool, err error) {
	query := `
		MATCH (p:PreferenceModel {user_id: $userId})
		RETURN p.document AS document
	`
	results, err := s.db.ExecuteRead(ctx, query, map[string]interface{}{"userId": userID})
	if err != nil {
		return models.PreferenceModel{}, false, apperr.Persistence("get preferences", err)
	}
	if len(results) == 0 {
		return models.NewPreferenceModel(userID), false, nil
	}

	model = models.NewPreferenceModel(userID)
	if err := decodeJSON(results[0]["document"], &model); err != nil {
		return models.PreferenceModel{}, false, apperr.Persistence("get preferences", err)
	}
	fillEmptyMaps(&model)
	return model, true, nil
}

// SavePreferences replaces the user's model document
func (s *PreferenceStore) SavePreferences(ctx context.Context, model models.PreferenceModel) error {
	document, err := jsonParam(model)
	if err != nil {
		return apperr.Persistence("save preferences", err)
	}

	query := `
		MERGE (u:User {id: $userId})
		MERGE (u)-[:HAS_PREFERENCES]->(p:PreferenceModel {user_id: $userId})
		SET p.document = $document,
		    p.updated_at = $updatedAt
	`
	params := map[string]interface{}{
		"userId":    model.UserID,
		"document":  document,
		"updatedAt": model.UpdatedAt,
	}
	if err := s.db.ExecuteWrite(ctx, query, params); err != nil {
		return apperr.Persistence("save preferences", err)
	}
	return nil
}

func fillEmptyMaps(model *models.PreferenceModel) {
	if model.ItemPreferences == nil {
		model.ItemPreferences = map[string]models.ItemPreference{}
	}
	if model.ColorCombinations == nil {
		model.ColorCombinations = map[string]models.PairingStat{}
	}
	if model.StylePairings == nil {
		model.StylePairings = map[string]models.PairingStat{}
	}
	if model.CategoryPairings == nil {
		model.CategoryPairings = map[string]models.PairingStat{}
	}
}
