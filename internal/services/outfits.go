package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/yishak-cs/wardrobe/internal/apperr"
	"github.com/yishak-cs/wardrobe/internal/logger"
	"github.com/yishak-cs/wardrobe/internal/models"
)

const (
	hintTopItems    = 5
	hintColorCombos = 3
	hintLowItems    = 3
	recentOutfits   = 5
)

// OutfitService runs outfit generation and manages outfit history
type OutfitService struct {
	catalog   CatalogStore
	outfits   OutfitStore
	prefs     *PreferenceAggregator
	profiles  *ProfileService
	limiter   *RateLimiter
	generator OutfitGenerator
	log       *logger.Logger
	now       func() time.Time
}

// NewOutfitService creates a new outfit service
func NewOutfitService(
	catalog CatalogStore,
	outfits OutfitStore,
	prefs *PreferenceAggregator,
	profiles *ProfileService,
	limiter *RateLimiter,
	generator OutfitGenerator,
	log *logger.Logger,
) *OutfitService {
	return &OutfitService{
		catalog:   catalog,
		outfits:   outfits,
		prefs:     prefs,
		profiles:  profiles,
		limiter:   limiter,
		generator: generator,
		log:       log.With("component", "OutfitService"),
		now:       time.Now,
	}
}

// Generate builds an outfit from the user's clean items and stores it in their history.
// The quota is checked before the model is called and charged only after the outfit is
// stored, so a failed generation never consumes quota.
func (s *OutfitService) Generate(ctx context.Context, userID string, req models.GenerateOutfitRequest) (models.OutfitRecord, error) {
	items, err := s.catalog.ListItems(ctx, userID)
	if err != nil {
		return models.OutfitRecord{}, err
	}

	available := make([]models.ClothingItem, 0, len(items))
	for _, item := range items {
		if !item.InLaundry {
			available = append(available, item)
		}
	}
	if len(available) == 0 {
		return models.OutfitRecord{}, apperr.Invalid("no clean clothing items available")
	}

	var anchor *models.ClothingItem
	if req.AnchorItemID != "" {
		anchor, err = findAnchor(items, req.AnchorItemID)
		if err != nil {
			return models.OutfitRecord{}, err
		}
	}

	status, err := s.limiter.CheckLimit(ctx, userID, models.ActionOutfitGeneration)
	if err != nil {
		return models.OutfitRecord{}, err
	}
	if !status.Allowed {
		return models.OutfitRecord{}, apperr.QuotaExceeded("daily outfit generation limit of %d reached", status.Limit)
	}

	constraints := models.OutfitConstraints{
		Weather:    req.Weather,
		Occasion:   req.Occasion,
		Style:      req.Style,
		AnchorItem: anchor,
		Profile:    s.profiles.hints(ctx, userID),
	}

	lookup := s.prefs.GetPreferences(ctx, userID)
	switch lookup.Status {
	case LookupFound:
		constraints.UserPreferences = BuildPreferenceHints(lookup.Model, available, hintTopItems, hintColorCombos, hintLowItems)
	case LookupFailed:
		s.log.Warn("Generating without preferences", "user_id", userID, "error", lookup.Err)
	}

	recent, err := s.outfits.ListOutfits(ctx, userID, recentOutfits)
	if err != nil {
		s.log.Warn("Generating without recent outfits", "user_id", userID, "error", err)
	}
	constraints.RecentOutfits = summarizeRecent(recent)

	suggestion, err := s.generator.GenerateOutfit(ctx, DescribeCatalog(available), constraints)
	if err != nil {
		s.log.Error("Outfit generation failed", "user_id", userID, "error", err)
		return models.OutfitRecord{}, err
	}

	selected := Match(suggestion.Outfit, available, anchor)

	record := models.OutfitRecord{
		OwnerID:       userID,
		SourceItemIDs: make([]string, 0, len(available)),
		SelectedItems: make([]models.SelectedItem, 0, len(selected)),
		Occasion:      req.Occasion,
		Weather:       req.Weather,
		AISuggestion:  suggestion,
		CreatedAt:     s.now(),
	}
	for _, item := range available {
		record.SourceItemIDs = append(record.SourceItemIDs, item.ID)
	}
	for _, item := range selected {
		record.SelectedItems = append(record.SelectedItems, models.SnapshotItem(item))
	}

	record, err = s.outfits.CreateOutfit(ctx, record)
	if err != nil {
		return models.OutfitRecord{}, err
	}

	if _, err := s.limiter.IncrementUsage(ctx, userID, models.ActionOutfitGeneration); err != nil {
		s.log.Warn("Failed to record outfit generation usage", "user_id", userID, "error", err)
	}

	s.log.Info("Generated outfit",
		"user_id", userID,
		"outfit_id", record.ID,
		"selected", len(record.SelectedItems),
		"preferences", lookup.Status.String(),
	)
	return record, nil
}

func findAnchor(items []models.ClothingItem, anchorID string) (*models.ClothingItem, error) {
	for i := range items {
		if items[i].ID != anchorID {
			continue
		}
		if items[i].InLaundry {
			return nil, apperr.Invalid("anchor item %s is in the laundry", anchorID)
		}
		anchor := items[i]
		return &anchor, nil
	}
	return nil, apperr.NotFound("anchor item %s not found", anchorID)
}

// DescribeCatalog renders one "category: description (colors)" line per item
func DescribeCatalog(items []models.ClothingItem) string {
	lines := make([]string, 0, len(items))
	for _, item := range items {
		lines = append(lines, fmt.Sprintf("%s: %s (%s)", item.Category, item.Description, strings.Join(item.Colors, ", ")))
	}
	return strings.Join(lines, "\n")
}

func summarizeRecent(outfits []models.OutfitRecord) []models.RecentOutfit {
	recent := make([]models.RecentOutfit, 0, len(outfits))
	for _, o := range outfits {
		slots := o.AISuggestion.Outfit
		recent = append(recent, models.RecentOutfit{
			Top:       slots.Top,
			Bottom:    slots.Bottom,
			Shoes:     slots.Shoes,
			Outerwear: slots.Outerwear,
		})
	}
	return recent
}

// ownedOutfit loads an outfit and checks that userID owns it
func (s *OutfitService) ownedOutfit(ctx context.Context, userID, outfitID string) (models.OutfitRecord, error) {
	outfit, err := s.outfits.GetOutfit(ctx, outfitID)
	if err != nil {
		return models.OutfitRecord{}, err
	}
	if outfit.OwnerID != userID {
		return models.OutfitRecord{}, apperr.Forbidden("outfit %s belongs to another user", outfitID)
	}
	return outfit, nil
}

// Rate stores a 1-5 star rating on the outfit, marks it worn and feeds the rating into the
// user's preference model. Re-rating an outfit counts as a new rating event.
func (s *OutfitService) Rate(ctx context.Context, userID, outfitID string, rating int) (models.OutfitRecord, error) {
	if rating < 1 || rating > 5 {
		return models.OutfitRecord{}, apperr.Invalid("rating must be between 1 and 5, got %d", rating)
	}

	outfit, err := s.ownedOutfit(ctx, userID, outfitID)
	if err != nil {
		return models.OutfitRecord{}, err
	}

	now := s.now()
	outfit.Rating = &rating
	outfit.RatedAt = &now
	if outfit.WornAt == nil {
		outfit.WornAt = &now
	}
	if err := s.outfits.UpdateOutfit(ctx, outfit); err != nil {
		return models.OutfitRecord{}, err
	}

	if _, err := s.prefs.RecordRating(ctx, userID, outfit, rating); err != nil {
		return models.OutfitRecord{}, err
	}
	return outfit, nil
}

// ToggleFavorite flips the outfit's favorite flag
func (s *OutfitService) ToggleFavorite(ctx context.Context, userID, outfitID string) (models.OutfitRecord, error) {
	outfit, err := s.ownedOutfit(ctx, userID, outfitID)
	if err != nil {
		return models.OutfitRecord{}, err
	}
	outfit.Favorite = !outfit.Favorite
	if err := s.outfits.UpdateOutfit(ctx, outfit); err != nil {
		return models.OutfitRecord{}, err
	}
	return outfit, nil
}

// SetImage records the URL of a rendered image of the outfit
func (s *OutfitService) SetImage(ctx context.Context, userID, outfitID, imageURL string) (models.OutfitRecord, error) {
	if strings.TrimSpace(imageURL) == "" {
		return models.OutfitRecord{}, apperr.Invalid("image url is required")
	}
	outfit, err := s.ownedOutfit(ctx, userID, outfitID)
	if err != nil {
		return models.OutfitRecord{}, err
	}
	outfit.ImageURL = imageURL
	if err := s.outfits.UpdateOutfit(ctx, outfit); err != nil {
		return models.OutfitRecord{}, err
	}
	return outfit, nil
}

// History returns the user's outfits newest first
func (s *OutfitService) History(ctx context.Context, userID string, limit int) ([]models.OutfitRecord, error) {
	return s.outfits.ListOutfits(ctx, userID, limit)
}

// Delete removes an outfit from the user's history. Ratings already folded into the
// preference model stay there.
func (s *OutfitService) Delete(ctx context.Context, userID, outfitID string) error {
	if _, err := s.ownedOutfit(ctx, userID, outfitID); err != nil {
		return err
	}
	return s.outfits.DeleteOutfit(ctx, outfitID)
}
