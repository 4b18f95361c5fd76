package models

import "time"

// Category is the garment category assigned by the vision model or the user
type Category string

const (
	CategoryTop       Category = "top"
	CategoryBottom    Category = "bottom"
	CategoryShoes     Category = "shoes"
	CategoryOuterwear Category = "outerwear"
	CategoryAccessory Category = "accessory"
	CategoryDress     Category = "dress"
	CategorySuit      Category = "suit"
	CategoryOther     Category = "other"
)

// AnalyzedCategories are the categories counted by wardrobe analysis, in report order
var AnalyzedCategories = []Category{
	CategoryTop,
	CategoryBottom,
	CategoryShoes,
	CategoryOuterwear,
	CategoryAccessory,
	CategoryDress,
	CategorySuit,
}

// Seasons are the season tags an item may carry, in report order
var Seasons = []string{"spring", "summer", "fall", "winter"}

// ParseCategory normalizes a free-form category, mapping unknown values to CategoryOther
func ParseCategory(s string) Category {
	switch c := Category(s); c {
	case CategoryTop, CategoryBottom, CategoryShoes, CategoryOuterwear,
		CategoryAccessory, CategoryDress, CategorySuit:
		return c
	default:
		return CategoryOther
	}
}

// ClothingItem represents one garment in a user's catalog
type ClothingItem struct {
	ID          string     `json:"id"`
	OwnerID     string     `json:"owner_id"`
	Category    Category   `json:"category"`
	Colors      []string   `json:"colors"`
	Season      []string   `json:"season"`
	Style       []string   `json:"style"`
	Description string     `json:"description"`
	Confidence  float64    `json:"confidence"`
	Favorite    bool       `json:"favorite"`
	InLaundry   bool       `json:"in_laundry"`
	LaundryDate *time.Time `json:"laundry_date,omitempty"`
	ImageURL    string     `json:"image_url,omitempty"`
	ImagePath   string     `json:"image_path,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// ItemUpdate carries the user-editable fields of a ClothingItem; nil fields are left unchanged
type ItemUpdate struct {
	Category    *Category `json:"category,omitempty"`
	Colors      []string  `json:"colors,omitempty"`
	Season      []string  `json:"season,omitempty"`
	Style       []string  `json:"style,omitempty"`
	Description *string   `json:"description,omitempty"`
}

// DetectedItem is one garment reported by the vision model for an image
type DetectedItem struct {
	Category    Category `json:"category"`
	Colors      []string `json:"colors"`
	Season      []string `json:"season"`
	Style       []string `json:"style"`
	Description string   `json:"description"`
	Confidence  float64  `json:"confidence"`
}

// ImageAnalysis is the outcome of analyzing a single uploaded image
type ImageAnalysis struct {
	FileName string         `json:"file_name"`
	Items    []DetectedItem `json:"items"`
	Error    string         `json:"error,omitempty"`
}
