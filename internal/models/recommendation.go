package models

// WardrobeAnalysis summarizes category, color, style and seasonal coverage of a catalog
type WardrobeAnalysis struct {
	TotalItems        int              `json:"total_items"`
	CategoryCounts    map[Category]int `json:"category_counts"`
	ColorDistribution map[string]int   `json:"color_distribution"`
	StyleDistribution map[string]int   `json:"style_distribution"`
	MissingCategories []Category       `json:"missing_categories"`
	SeasonalGaps      []string         `json:"seasonal_gaps"`
	Strengths         []Category       `json:"strengths"`
}

// ShoppingRecommendation represents an item the user could buy to fill a wardrobe gap
type ShoppingRecommendation struct {
	Category        Category `json:"category"`
	ItemType        string   `json:"item_type"`
	Description     string   `json:"description"`
	SuggestedColors []string `json:"suggested_colors"`
	SuggestedStyle  []string `json:"suggested_style"`
	Reasoning       string   `json:"reasoning"`
	PairsWith       []string `json:"pairs_with"`
	Priority        string   `json:"priority"`
}

// ShoppingResult is returned by a shopping recommendation run
type ShoppingResult struct {
	Recommendations  []ShoppingRecommendation `json:"recommendations"`
	WardrobeAnalysis WardrobeAnalysis         `json:"wardrobe_analysis"`
}
