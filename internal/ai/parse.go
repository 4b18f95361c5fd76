package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/yishak-cs/wardrobe/internal/apperr"
	"github.com/yishak-cs/wardrobe/internal/models"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// flexText accepts either a string or a list of strings; models are inconsistent about tips
type flexText string

func (t *flexText) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*t = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = flexText(s)
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("expected string or list of strings")
	}
	*t = flexText(strings.Join(list, " "))
	return nil
}

type rawDetectedItem struct {
	Category    string   `json:"category" validate:"required"`
	Colors      []string `json:"colors"`
	Season      []string `json:"season"`
	Style       []string `json:"style"`
	Description string   `json:"description"`
	Confidence  *float64 `json:"confidence" validate:"omitempty,gte=0,lte=1"`
}

type rawDetection struct {
	Items []rawDetectedItem `json:"items" validate:"dive"`
}

type rawOutfitSlots struct {
	Top         *string  `json:"top"`
	Bottom      *string  `json:"bottom"`
	Shoes       *string  `json:"shoes"`
	Outerwear   *string  `json:"outerwear"`
	Accessories []string `json:"accessories"`
}

type rawOutfitResponse struct {
	Outfit       *rawOutfitSlots `json:"outfit" validate:"required"`
	Reasoning    flexText        `json:"reasoning"`
	Tips         flexText        `json:"tips"`
	VisualPrompt flexText        `json:"visualPrompt"`
	StyleNotes   flexText        `json:"styleNotes"`
}

type rawRecommendation struct {
	Category        string   `json:"category" validate:"required"`
	ItemType        string   `json:"itemType"`
	Description     string   `json:"description" validate:"required"`
	SuggestedColors []string `json:"suggestedColors"`
	SuggestedStyle  []string `json:"suggestedStyle"`
	Reasoning       string   `json:"reasoning"`
	PairsWith       []string `json:"pairsWith"`
	Priority        string   `json:"priority" validate:"omitempty,oneof=high medium low"`
}

type rawRecommendations struct {
	Recommendations []rawRecommendation `json:"recommendations" validate:"dive"`
}

// extractJSON strips markdown fences and surrounding prose, returning the outermost object
func extractJSON(text string) (string, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return "", errors.New("no JSON object in response")
	}
	return text[start : end+1], nil
}

func decodeStrict(op, text string, out interface{}) error {
	body, err := extractJSON(text)
	if err != nil {
		return apperr.External(op, err)
	}
	if err := json.Unmarshal([]byte(body), out); err != nil {
		return apperr.External(op, fmt.Errorf("parse json: %w", err))
	}
	if err := getValidator().Struct(out); err != nil {
		return apperr.External(op, fmt.Errorf("invalid response: %w", err))
	}
	return nil
}

// ParseDetectedItems parses a vision response. Both {"items": [...]} and a bare item object
// are accepted; an empty items list means no clothing was detected.
func ParseDetectedItems(text string) ([]models.DetectedItem, error) {
	const op = "parse detected items"

	body, err := extractJSON(text)
	if err != nil {
		return nil, apperr.External(op, err)
	}
	var shape map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &shape); err != nil {
		return nil, apperr.External(op, fmt.Errorf("parse json: %w", err))
	}

	var detection rawDetection
	if _, ok := shape["items"]; ok {
		if err := decodeStrict(op, body, &detection); err != nil {
			return nil, err
		}
	} else {
		var single rawDetectedItem
		if err := decodeStrict(op, body, &single); err != nil {
			return nil, err
		}
		detection.Items = []rawDetectedItem{single}
	}

	items := make([]models.DetectedItem, 0, len(detection.Items))
	for _, raw := range detection.Items {
		confidence := 1.0
		if raw.Confidence != nil && *raw.Confidence > 0 {
			confidence = *raw.Confidence
		}
		items = append(items, models.DetectedItem{
			Category:    models.ParseCategory(strings.ToLower(strings.TrimSpace(raw.Category))),
			Colors:      cleanList(raw.Colors),
			Season:      normalizeSeasons(raw.Season),
			Style:       cleanList(raw.Style),
			Description: strings.TrimSpace(raw.Description),
			Confidence:  confidence,
		})
	}
	return items, nil
}

// ParseOutfitSuggestion parses an outfit generation response. A response that names no
// garment at all is rejected.
func ParseOutfitSuggestion(text string) (models.OutfitSuggestion, error) {
	const op = "parse outfit suggestion"

	var raw rawOutfitResponse
	if err := decodeStrict(op, text, &raw); err != nil {
		return models.OutfitSuggestion{}, err
	}

	slots := models.OutfitSlots{
		Top:         slotText(raw.Outfit.Top),
		Bottom:      slotText(raw.Outfit.Bottom),
		Shoes:       slotText(raw.Outfit.Shoes),
		Outerwear:   slotText(raw.Outfit.Outerwear),
		Accessories: cleanList(raw.Outfit.Accessories),
	}
	if slots.Top == "" && slots.Bottom == "" && slots.Shoes == "" && slots.Outerwear == "" && len(slots.Accessories) == 0 {
		return models.OutfitSuggestion{}, apperr.External(op, errors.New("suggestion names no garments"))
	}

	return models.OutfitSuggestion{
		Outfit:       slots,
		Reasoning:    strings.TrimSpace(string(raw.Reasoning)),
		Tips:         strings.TrimSpace(string(raw.Tips)),
		VisualPrompt: strings.TrimSpace(string(raw.VisualPrompt)),
		StyleNotes:   strings.TrimSpace(string(raw.StyleNotes)),
	}, nil
}

// ParseShoppingRecommendations parses a shopping response
func ParseShoppingRecommendations(text string) ([]models.ShoppingRecommendation, error) {
	const op = "parse shopping recommendations"

	// priority is compared case-insensitively
	body, err := extractJSON(text)
	if err != nil {
		return nil, apperr.External(op, err)
	}
	var raw rawRecommendations
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return nil, apperr.External(op, fmt.Errorf("parse json: %w", err))
	}
	for i := range raw.Recommendations {
		raw.Recommendations[i].Priority = strings.ToLower(strings.TrimSpace(raw.Recommendations[i].Priority))
	}
	if err := getValidator().Struct(&raw); err != nil {
		return nil, apperr.External(op, fmt.Errorf("invalid response: %w", err))
	}

	recs := make([]models.ShoppingRecommendation, 0, len(raw.Recommendations))
	for _, r := range raw.Recommendations {
		recs = append(recs, models.ShoppingRecommendation{
			Category:        models.ParseCategory(strings.ToLower(strings.TrimSpace(r.Category))),
			ItemType:        strings.TrimSpace(r.ItemType),
			Description:     strings.TrimSpace(r.Description),
			SuggestedColors: cleanList(r.SuggestedColors),
			SuggestedStyle:  cleanList(r.SuggestedStyle),
			Reasoning:       strings.TrimSpace(r.Reasoning),
			PairsWith:       cleanList(r.PairsWith),
			Priority:        r.Priority,
		})
	}
	return recs, nil
}

// slotText treats missing, blank and literal "null"/"none" slots as not suggested
func slotText(s *string) string {
	if s == nil {
		return ""
	}
	v := strings.TrimSpace(*s)
	switch strings.ToLower(v) {
	case "", "null", "none", "n/a":
		return ""
	}
	return v
}

func cleanList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func normalizeSeasons(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		season := strings.ToLower(strings.TrimSpace(v))
		if season == "autumn" {
			season = "fall"
		}
		switch season {
		case "spring", "summer", "fall", "winter":
			if !seen[season] {
				seen[season] = true
				out = append(out, season)
			}
		}
	}
	return out
}
