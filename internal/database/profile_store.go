package database

import (
	"context"

	"github.com/yishak-cs/wardrobe/internal/apperr"
	"github.com/yishak-cs/wardrobe/internal/models"
)

// ProfileStore keeps the user profile as properties of the (:User) node
type ProfileStore struct {
	db Querier
}

// NewProfileStore creates a profile store on top of a Neo4j querier
func NewProfileStore(db Querier) *ProfileStore {
	return &ProfileStore{db: db}
}

// GetProfile loads the user's profile. A user without one gets the empty default.
func (s *ProfileStore) GetProfile(ctx context.Context, userID string) (models.UserProfile, error) {
	query := `
		MATCH (u:User {id: $userId})
		RETURN properties(u) AS profile
	`
	results, err := s.db.ExecuteRead(ctx, query, map[string]interface{}{"userId": userID})
	if err != nil {
		return models.UserProfile{}, apperr.Persistence("get profile", err)
	}
	if len(results) == 0 {
		return models.NewUserProfile(userID), nil
	}

	props, err := asProps(results[0]["profile"])
	if err != nil {
		return models.UserProfile{}, apperr.Persistence("get profile", err)
	}
	return models.UserProfile{
		UserID:           userID,
		DisplayName:      asString(props["display_name"]),
		Gender:           asString(props["gender"]),
		StylePreferences: asStrings(props["style_preferences"]),
		FavoriteColors:   asStrings(props["favorite_colors"]),
		Sizes: models.Sizes{
			Top:    asString(props["size_top"]),
			Bottom: asString(props["size_bottom"]),
			Shoes:  asString(props["size_shoes"]),
		},
		Location:       asString(props["location"]),
		SetupCompleted: asBool(props["setup_completed"]),
		UpdatedAt:      asTimePtr(props["profile_updated_at"]),
	}, nil
}

// SaveProfile writes every profile field onto the user node, creating it when needed
func (s *ProfileStore) SaveProfile(ctx context.Context, profile models.UserProfile) error {
	query := `
		MERGE (u:User {id: $userId})
		SET u += $props
	`
	params := map[string]interface{}{
		"userId": profile.UserID,
		"props":  profileProps(profile),
	}
	if err := s.db.ExecuteWrite(ctx, query, params); err != nil {
		return apperr.Persistence("save profile", err)
	}
	return nil
}

func profileProps(p models.UserProfile) map[string]interface{} {
	styles := p.StylePreferences
	if styles == nil {
		styles = []string{}
	}
	colors := p.FavoriteColors
	if colors == nil {
		colors = []string{}
	}
	return map[string]interface{}{
		"display_name":       p.DisplayName,
		"gender":             p.Gender,
		"style_preferences":  styles,
		"favorite_colors":    colors,
		"size_top":           p.Sizes.Top,
		"size_bottom":        p.Sizes.Bottom,
		"size_shoes":         p.Sizes.Shoes,
		"location":           p.Location,
		"setup_completed":    p.SetupCompleted,
		"profile_updated_at": timeParam(p.UpdatedAt),
	}
}
