package services

import (
	"context"
	"io"

	"github.com/yishak-cs/wardrobe/internal/models"
)

// CatalogStore is the persistence the services need for clothing items
type CatalogStore interface {
	CreateItem(ctx context.Context, item models.ClothingItem) (models.ClothingItem, error)
	GetItem(ctx context.Context, itemID string) (models.ClothingItem, error)
	ListItems(ctx context.Context, ownerID string) ([]models.ClothingItem, error)
	UpdateItem(ctx context.Context, item models.ClothingItem) error
	DeleteItem(ctx context.Context, itemID string) error
	CountItemsByImagePath(ctx context.Context, imagePath string) (int, error)
}

// OutfitStore is the persistence the services need for outfit history
type OutfitStore interface {
	CreateOutfit(ctx context.Context, outfit models.OutfitRecord) (models.OutfitRecord, error)
	GetOutfit(ctx context.Context, outfitID string) (models.OutfitRecord, error)
	ListOutfits(ctx context.Context, ownerID string, limit int) ([]models.OutfitRecord, error)
	UpdateOutfit(ctx context.Context, outfit models.OutfitRecord) error
	DeleteOutfit(ctx context.Context, outfitID string) error
}

// PreferenceStore holds one preference model document per user. found is false when the
// user has never rated anything; the returned model is then empty.
type PreferenceStore interface {
	GetPreferences(ctx context.Context, userID string) (model models.PreferenceModel, found bool, err error)
	SavePreferences(ctx context.Context, model models.PreferenceModel) error
}

// ProfileStore holds the user profile. A user who never saved one gets the default profile.
type ProfileStore interface {
	GetProfile(ctx context.Context, userID string) (models.UserProfile, error)
	SaveProfile(ctx context.Context, profile models.UserProfile) error
}

// UsageStore keeps daily counters per user and action. IncrementUsage must be atomic.
type UsageStore interface {
	GetUsage(ctx context.Context, userID, day string, action models.ActionType) (int, error)
	GetDailyUsage(ctx context.Context, userID, day string) (map[models.ActionType]int, error)
	IncrementUsage(ctx context.Context, userID, day string, action models.ActionType) (int, error)
}

// BlobStore keeps uploaded images
type BlobStore interface {
	Upload(ctx context.Context, path string, contentType string, data io.Reader) error
	Delete(ctx context.Context, path string) error
	PublicURL(path string) string
}

// VisionAnalyzer extracts garments from a photo
type VisionAnalyzer interface {
	AnalyzeImage(ctx context.Context, image []byte, contentType string) ([]models.DetectedItem, error)
}

// OutfitGenerator suggests an outfit from a textual catalog description
type OutfitGenerator interface {
	GenerateOutfit(ctx context.Context, catalogDescription string, constraints models.OutfitConstraints) (models.OutfitSuggestion, error)
}

// ShoppingAdvisor suggests purchases that fill wardrobe gaps
type ShoppingAdvisor interface {
	RecommendShopping(ctx context.Context, analysis models.WardrobeAnalysis, prefs *models.PreferenceHints, limit int) ([]models.ShoppingRecommendation, error)
}
