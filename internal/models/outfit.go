package models

import "time"

// Weather describes the conditions an outfit was generated for
type Weather struct {
	Temp      float64 `json:"temp"`
	Condition string  `json:"condition"`
	Location  string  `json:"location,omitempty"`
}

// SelectedItem is the snapshot of a catalog item taken when an outfit is created
type SelectedItem struct {
	ID          string   `json:"id"`
	ImageURL    string   `json:"image_url,omitempty"`
	Description string   `json:"description"`
	Category    Category `json:"category"`
	Colors      []string `json:"colors"`
	Style       []string `json:"style,omitempty"`
}

// SnapshotItem copies the fields of item that outfit history keeps
func SnapshotItem(item ClothingItem) SelectedItem {
	return SelectedItem{
		ID:          item.ID,
		ImageURL:    item.ImageURL,
		Description: item.Description,
		Category:    item.Category,
		Colors:      append([]string{}, item.Colors...),
		Style:       append([]string{}, item.Style...),
	}
}

// OutfitSlots holds the per-category text the model suggested. Empty slots were not suggested.
type OutfitSlots struct {
	Top         string   `json:"top,omitempty"`
	Bottom      string   `json:"bottom,omitempty"`
	Shoes       string   `json:"shoes,omitempty"`
	Outerwear   string   `json:"outerwear,omitempty"`
	Accessories []string `json:"accessories,omitempty"`
}

// OutfitSuggestion is the parsed response of the outfit generation model
type OutfitSuggestion struct {
	Outfit       OutfitSlots `json:"outfit"`
	Reasoning    string      `json:"reasoning"`
	Tips         string      `json:"tips"`
	VisualPrompt string      `json:"visual_prompt"`
	StyleNotes   string      `json:"style_notes,omitempty"`
}

// OutfitRecord represents a generated outfit kept in the user's history
type OutfitRecord struct {
	ID            string           `json:"id"`
	OwnerID       string           `json:"owner_id"`
	SourceItemIDs []string         `json:"source_item_ids"`
	SelectedItems []SelectedItem   `json:"selected_items"`
	Occasion      string           `json:"occasion,omitempty"`
	Weather       *Weather         `json:"weather,omitempty"`
	AISuggestion  OutfitSuggestion `json:"ai_suggestion"`
	ImageURL      string           `json:"image_url,omitempty"`
	Favorite      bool             `json:"favorite"`
	Rating        *int             `json:"rating,omitempty"`
	RatedAt       *time.Time       `json:"rated_at,omitempty"`
	WornAt        *time.Time       `json:"worn_at,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
}

// RecentOutfit summarizes a past outfit so the generator can avoid repeating it
type RecentOutfit struct {
	Top       string `json:"top,omitempty"`
	Bottom    string `json:"bottom,omitempty"`
	Shoes     string `json:"shoes,omitempty"`
	Outerwear string `json:"outerwear,omitempty"`
}

// OutfitConstraints is everything the generator is told besides the catalog itself
type OutfitConstraints struct {
	Weather         *Weather         `json:"weather,omitempty"`
	Occasion        string           `json:"occasion,omitempty"`
	Style           string           `json:"style,omitempty"`
	AnchorItem      *ClothingItem    `json:"anchor_item,omitempty"`
	UserPreferences *PreferenceHints `json:"user_preferences,omitempty"`
	Profile         *ProfileHints    `json:"profile,omitempty"`
	RecentOutfits   []RecentOutfit   `json:"recent_outfits,omitempty"`
}

// GenerateOutfitRequest is the input of an outfit generation
type GenerateOutfitRequest struct {
	Weather      *Weather `json:"weather,omitempty"`
	Occasion     string   `json:"occasion,omitempty"`
	Style        string   `json:"style,omitempty"`
	AnchorItemID string   `json:"anchor_item_id,omitempty"`
}
