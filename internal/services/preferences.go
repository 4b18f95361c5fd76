package services

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/yishak-cs/wardrobe/internal/apperr"
	"github.com/yishak-cs/wardrobe/internal/logger"
	"github.com/yishak-cs/wardrobe/internal/metrics"
	"github.com/yishak-cs/wardrobe/internal/models"
)

const (
	topRatedThreshold = 4.0
	lowRatedThreshold = 3.0
	// lowRatedMinWorn keeps a single bad rating from marking an item as disliked
	lowRatedMinWorn = 2

	defaultTopItemsLimit     = 10
	defaultColorCombosLimit  = 5
	defaultLowRatedItemLimit = 5
)

// LookupStatus tells "no preferences yet" apart from "preferences unavailable"
type LookupStatus int

const (
	LookupFound LookupStatus = iota
	LookupEmpty
	LookupFailed
)

func (s LookupStatus) String() string {
	switch s {
	case LookupFound:
		return "found"
	case LookupEmpty:
		return "empty"
	default:
		return "failed"
	}
}

// PreferenceLookup is the tagged result of loading a preference model. Model is the empty
// model for LookupEmpty and LookupFailed; Err is set only for LookupFailed.
type PreferenceLookup struct {
	Status LookupStatus
	Model  models.PreferenceModel
	Err    error
}

// PreferenceAggregator turns outfit ratings into the per-user preference model and serves
// ranked views of it
type PreferenceAggregator struct {
	store PreferenceStore
	log   *logger.Logger
	now   func() time.Time
}

// NewPreferenceAggregator creates a new preference aggregator
func NewPreferenceAggregator(store PreferenceStore, log *logger.Logger) *PreferenceAggregator {
	return &PreferenceAggregator{
		store: store,
		log:   log.With("component", "PreferenceAggregator"),
		now:   time.Now,
	}
}

// RecordRating folds one rating of outfit into the user's preference model. The model is
// read once and written once; the cycle is not atomic, so concurrent ratings by the same
// user resolve last-write-wins.
func (a *PreferenceAggregator) RecordRating(ctx context.Context, userID string, outfit models.OutfitRecord, rating int) (models.PreferenceModel, error) {
	if rating < 1 || rating > 5 {
		return models.PreferenceModel{}, apperr.Invalid("rating must be between 1 and 5, got %d", rating)
	}

	model, _, err := a.store.GetPreferences(ctx, userID)
	if err != nil {
		return models.PreferenceModel{}, err
	}
	if model.UserID == "" {
		model.UserID = userID
	}

	applyRating(&model, outfit, rating)
	model.UpdatedAt = a.now()

	if err := a.store.SavePreferences(ctx, model); err != nil {
		return models.PreferenceModel{}, err
	}
	metrics.RatingsRecorded.WithLabelValues(strconv.Itoa(rating)).Inc()

	a.log.Info("Recorded outfit rating",
		"user_id", userID,
		"outfit_id", outfit.ID,
		"rating", rating,
		"items", len(outfit.SelectedItems),
	)
	return model, nil
}

// applyRating mutates model in place with one rating event
func applyRating(model *models.PreferenceModel, outfit models.OutfitRecord, rating int) {
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

	var colors, styles, categories []string
	for _, item := range outfit.SelectedItems {
		pref := model.ItemPreferences[item.ID]
		pref.TimesWorn++
		pref.TotalRating += rating
		pref.AvgRating = float64(pref.TotalRating) / float64(pref.TimesWorn)
		pref.SuccessRate = pref.AvgRating / 5
		model.ItemPreferences[item.ID] = pref

		colors = append(colors, item.Colors...)
		styles = append(styles, item.Style...)
		categories = append(categories, string(item.Category))
	}

	if len(outfit.SelectedItems) > 1 {
		bumpPairing(model.ColorCombinations, CanonicalKey(colors), rating)
		bumpPairing(model.CategoryPairings, CanonicalKey(categories), rating)
	}
	if outfit.AISuggestion.StyleNotes != "" {
		bumpPairing(model.StylePairings, CanonicalKey(styles), rating)
	}
}

func bumpPairing(stats map[string]models.PairingStat, key string, rating int) {
	if key == "" {
		return
	}
	stat := stats[key]
	stat.Count++
	stat.TotalRating += rating
	stat.AvgRating = float64(stat.TotalRating) / float64(stat.Count)
	stats[key] = stat
}

// GetPreferences loads the user's model as a tagged lookup. It never returns an error; a
// store failure is reported as LookupFailed so callers can decide whether to continue.
func (a *PreferenceAggregator) GetPreferences(ctx context.Context, userID string) PreferenceLookup {
	model, found, err := a.store.GetPreferences(ctx, userID)
	if err != nil {
		return PreferenceLookup{Status: LookupFailed, Model: models.NewPreferenceModel(userID), Err: err}
	}
	if !found {
		return PreferenceLookup{Status: LookupEmpty, Model: models.NewPreferenceModel(userID)}
	}
	return PreferenceLookup{Status: LookupFound, Model: model}
}

// load returns the stored model, or the empty model when the user has none
func (a *PreferenceAggregator) load(ctx context.Context, userID string) (models.PreferenceModel, error) {
	lookup := a.GetPreferences(ctx, userID)
	if lookup.Status == LookupFailed {
		return models.PreferenceModel{}, lookup.Err
	}
	return lookup.Model, nil
}

// GetTopRatedItems returns items averaging at least 4 stars, best first
func (a *PreferenceAggregator) GetTopRatedItems(ctx context.Context, userID string, limit int) ([]models.RankedItem, error) {
	model, err := a.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return TopRatedItems(model, limit), nil
}

// GetLowRatedItems returns items averaging under 3 stars over at least two wears, worst first
func (a *PreferenceAggregator) GetLowRatedItems(ctx context.Context, userID string, limit int) ([]models.RankedItem, error) {
	model, err := a.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return LowRatedItems(model, limit), nil
}

// GetTopColorCombinations returns color combinations averaging at least 4 stars, best first
func (a *PreferenceAggregator) GetTopColorCombinations(ctx context.Context, userID string, limit int) ([]models.RankedCombination, error) {
	model, err := a.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return TopColorCombinations(model, limit), nil
}

// GetItemSuccessRate returns the item's success rate, 0 for items never rated
func (a *PreferenceAggregator) GetItemSuccessRate(ctx context.Context, userID, itemID string) (float64, error) {
	model, err := a.load(ctx, userID)
	if err != nil {
		return 0, err
	}
	return model.ItemPreferences[itemID].SuccessRate, nil
}

// TopRatedItems is the pure ranking behind GetTopRatedItems. limit <= 0 uses the default.
func TopRatedItems(model models.PreferenceModel, limit int) []models.RankedItem {
	if limit <= 0 {
		limit = defaultTopItemsLimit
	}
	items := make([]models.RankedItem, 0)
	for id, pref := range model.ItemPreferences {
		if pref.AvgRating >= topRatedThreshold {
			items = append(items, models.RankedItem{ItemID: id, ItemPreference: pref})
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].AvgRating != items[j].AvgRating {
			return items[i].AvgRating > items[j].AvgRating
		}
		return items[i].ItemID < items[j].ItemID
	})
	return truncateItems(items, limit)
}

// LowRatedItems is the pure ranking behind GetLowRatedItems. limit <= 0 uses the default.
func LowRatedItems(model models.PreferenceModel, limit int) []models.RankedItem {
	if limit <= 0 {
		limit = defaultLowRatedItemLimit
	}
	items := make([]models.RankedItem, 0)
	for id, pref := range model.ItemPreferences {
		if pref.AvgRating < lowRatedThreshold && pref.TimesWorn >= lowRatedMinWorn {
			items = append(items, models.RankedItem{ItemID: id, ItemPreference: pref})
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].AvgRating != items[j].AvgRating {
			return items[i].AvgRating < items[j].AvgRating
		}
		return items[i].ItemID < items[j].ItemID
	})
	return truncateItems(items, limit)
}

// TopColorCombinations is the pure ranking behind GetTopColorCombinations. limit <= 0 uses the default.
func TopColorCombinations(model models.PreferenceModel, limit int) []models.RankedCombination {
	if limit <= 0 {
		limit = defaultColorCombosLimit
	}
	combos := make([]models.RankedCombination, 0)
	for key, stat := range model.ColorCombinations {
		if stat.AvgRating >= topRatedThreshold {
			combos = append(combos, models.RankedCombination{Key: key, PairingStat: stat})
		}
	}
	sort.Slice(combos, func(i, j int) bool {
		if combos[i].AvgRating != combos[j].AvgRating {
			return combos[i].AvgRating > combos[j].AvgRating
		}
		return combos[i].Key < combos[j].Key
	})
	if len(combos) > limit {
		combos = combos[:limit]
	}
	return combos
}

func truncateItems(items []models.RankedItem, limit int) []models.RankedItem {
	if len(items) > limit {
		return items[:limit]
	}
	return items
}

// BuildPreferenceHints resolves the model's ranked views against the catalog for prompting.
// Items no longer in the catalog are dropped.
func BuildPreferenceHints(model models.PreferenceModel, catalog []models.ClothingItem, topLimit, colorLimit, lowLimit int) *models.PreferenceHints {
	byID := make(map[string]models.ClothingItem, len(catalog))
	for _, item := range catalog {
		byID[item.ID] = item
	}

	resolve := func(ranked []models.RankedItem) []models.PreferenceHintItem {
		out := make([]models.PreferenceHintItem, 0, len(ranked))
		for _, r := range ranked {
			item, ok := byID[r.ItemID]
			if !ok {
				continue
			}
			out = append(out, models.PreferenceHintItem{
				ItemID:      item.ID,
				Description: item.Description,
				Category:    item.Category,
				Colors:      item.Colors,
				Style:       item.Style,
				AvgRating:   r.AvgRating,
			})
		}
		return out
	}

	hints := &models.PreferenceHints{
		RatedItems:     len(model.ItemPreferences),
		TopItems:       resolve(TopRatedItems(model, topLimit)),
		LowRatedItems:  resolve(LowRatedItems(model, lowLimit)),
		TopColorCombos: TopColorCombinations(model, colorLimit),
	}
	for _, item := range catalog {
		if item.Favorite {
			hints.FavoriteItems = append(hints.FavoriteItems, models.PreferenceHintItem{
				ItemID:      item.ID,
				Description: item.Description,
				Category:    item.Category,
				Colors:      item.Colors,
				Style:       item.Style,
			})
		}
	}
	return hints
}
