package services

import (
	"context"

	"github.com/yishak-cs/wardrobe/internal/apperr"
	"github.com/yishak-cs/wardrobe/internal/logger"
	"github.com/yishak-cs/wardrobe/internal/models"
)

const defaultShoppingLimit = 8

// RecommendationService handles wardrobe analysis and shopping recommendations
type RecommendationService struct {
	catalog CatalogStore
	prefs   *PreferenceAggregator
	limiter *RateLimiter
	advisor ShoppingAdvisor
	log     *logger.Logger
}

// NewRecommendationService creates a new recommendation service
func NewRecommendationService(
	catalog CatalogStore,
	prefs *PreferenceAggregator,
	limiter *RateLimiter,
	advisor ShoppingAdvisor,
	log *logger.Logger,
) *RecommendationService {
	return &RecommendationService{
		catalog: catalog,
		prefs:   prefs,
		limiter: limiter,
		advisor: advisor,
		log:     log.With("component", "RecommendationService"),
	}
}

// AnalyzeWardrobe answers: "Where is this wardrobe thin, and where is it strong?"
func (s *RecommendationService) AnalyzeWardrobe(ctx context.Context, userID string) (models.WardrobeAnalysis, error) {
	items, err := s.catalog.ListItems(ctx, userID)
	if err != nil {
		return models.WardrobeAnalysis{}, err
	}
	return AnalyzeWardrobe(items), nil
}

// GenerateRecommendations answers: "What should this user buy next?"
// Uses the wardrobe gaps plus the learned preferences, and counts against the daily
// shopping quota only when recommendations were produced.
func (s *RecommendationService) GenerateRecommendations(ctx context.Context, userID string, limit int) (models.ShoppingResult, error) {
	if limit <= 0 {
		limit = defaultShoppingLimit
	}

	items, err := s.catalog.ListItems(ctx, userID)
	if err != nil {
		return models.ShoppingResult{}, err
	}

	status, err := s.limiter.CheckLimit(ctx, userID, models.ActionShoppingRecommendations)
	if err != nil {
		return models.ShoppingResult{}, err
	}
	if !status.Allowed {
		return models.ShoppingResult{}, apperr.QuotaExceeded("daily shopping recommendation limit of %d reached", status.Limit)
	}

	analysis := AnalyzeWardrobe(items)

	var hints *models.PreferenceHints
	lookup := s.prefs.GetPreferences(ctx, userID)
	switch lookup.Status {
	case LookupFound:
		hints = BuildPreferenceHints(lookup.Model, items, hintTopItems, hintColorCombos, hintLowItems)
	case LookupFailed:
		s.log.Warn("Recommending without preferences", "user_id", userID, "error", lookup.Err)
	}

	recs, err := s.advisor.RecommendShopping(ctx, analysis, hints, limit)
	if err != nil {
		s.log.Error("Shopping recommendation failed", "user_id", userID, "error", err)
		return models.ShoppingResult{}, err
	}

	if _, err := s.limiter.IncrementUsage(ctx, userID, models.ActionShoppingRecommendations); err != nil {
		s.log.Warn("Failed to record shopping usage", "user_id", userID, "error", err)
	}

	s.log.Info("Generated shopping recommendations", "user_id", userID, "count", len(recs))
	return models.ShoppingResult{
		Recommendations:  recs,
		WardrobeAnalysis: analysis,
	}, nil
}

// FilterByCategory keeps the recommendations of one category; "" or "all" keeps everything
func FilterByCategory(recs []models.ShoppingRecommendation, category string) []models.ShoppingRecommendation {
	if category == "" || category == "all" {
		return recs
	}
	filtered := make([]models.ShoppingRecommendation, 0, len(recs))
	for _, rec := range recs {
		if string(rec.Category) == category {
			filtered = append(filtered, rec)
		}
	}
	return filtered
}
