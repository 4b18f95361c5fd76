package models

import "time"

// ItemPreference is the running rating statistic of a single catalog item
type ItemPreference struct {
	TimesWorn   int     `json:"times_worn"`
	TotalRating int     `json:"total_rating"`
	AvgRating   float64 `json:"avg_rating"`
	SuccessRate float64 `json:"success_rate"`
}

// PairingStat is the running rating statistic of a canonical combination key
type PairingStat struct {
	Count       int     `json:"count"`
	TotalRating int     `json:"total_rating"`
	AvgRating   float64 `json:"avg_rating"`
}

// PreferenceModel is the per-user aggregate learned from outfit ratings
type PreferenceModel struct {
	UserID            string                    `json:"user_id"`
	ItemPreferences   map[string]ItemPreference `json:"item_preferences"`
	ColorCombinations map[string]PairingStat    `json:"color_combinations"`
	StylePairings     map[string]PairingStat    `json:"style_pairings"`
	CategoryPairings  map[string]PairingStat    `json:"category_pairings"`
	UpdatedAt         time.Time                 `json:"updated_at"`
}

// NewPreferenceModel returns the empty model used before a user's first rating
func NewPreferenceModel(userID string) PreferenceModel {
	return PreferenceModel{
		UserID:            userID,
		ItemPreferences:   map[string]ItemPreference{},
		ColorCombinations: map[string]PairingStat{},
		StylePairings:     map[string]PairingStat{},
		CategoryPairings:  map[string]PairingStat{},
	}
}

// RankedItem is an item preference together with its item id
type RankedItem struct {
	ItemID string `json:"item_id"`
	ItemPreference
}

// RankedCombination is a pairing statistic together with its canonical key
type RankedCombination struct {
	Key string `json:"key"`
	PairingStat
}

// PreferenceHintItem is a ranked item resolved against the catalog for prompting
type PreferenceHintItem struct {
	ItemID      string   `json:"item_id"`
	Description string   `json:"description"`
	Category    Category `json:"category,omitempty"`
	Colors      []string `json:"colors,omitempty"`
	Style       []string `json:"style,omitempty"`
	AvgRating   float64  `json:"avg_rating"`
}

// PreferenceHints is the learned taste passed to the generation models
type PreferenceHints struct {
	RatedItems     int                  `json:"rated_items"`
	TopItems       []PreferenceHintItem `json:"top_items,omitempty"`
	LowRatedItems  []PreferenceHintItem `json:"low_rated_items,omitempty"`
	TopColorCombos []RankedCombination  `json:"top_color_combos,omitempty"`
	FavoriteItems  []PreferenceHintItem `json:"favorite_items,omitempty"`
}
