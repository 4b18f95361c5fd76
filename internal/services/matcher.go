package services

import (
	"strings"

	"github.com/yishak-cs/wardrobe/internal/models"
)

const (
	descriptionTokenScore = 2
	colorTokenScore       = 3
	favoriteScore         = 1
	maxAccessories        = 2
)

// Match resolves a textual outfit suggestion to catalog items. The result is ordered top,
// bottom, shoes, outerwear, then accessories, and depends only on its inputs, including
// catalog order.
func Match(suggestion models.OutfitSlots, catalog []models.ClothingItem, anchor *models.ClothingItem) []models.ClothingItem {
	slots := []struct {
		category models.Category
		text     string
	}{
		{models.CategoryTop, suggestion.Top},
		{models.CategoryBottom, suggestion.Bottom},
		{models.CategoryShoes, suggestion.Shoes},
		{models.CategoryOuterwear, suggestion.Outerwear},
	}

	selected := make([]models.ClothingItem, 0, len(slots)+maxAccessories)
	for _, slot := range slots {
		if strings.TrimSpace(slot.text) == "" {
			continue
		}
		if item, ok := matchSlot(slot.category, slot.text, catalog, anchor); ok {
			selected = append(selected, item)
		}
	}

	wanted := len(suggestion.Accessories)
	if wanted > maxAccessories {
		wanted = maxAccessories
	}
	for _, item := range catalog {
		if wanted == 0 {
			break
		}
		if item.Category == models.CategoryAccessory {
			selected = append(selected, item)
			wanted--
		}
	}

	return selected
}

func matchSlot(category models.Category, text string, catalog []models.ClothingItem, anchor *models.ClothingItem) (models.ClothingItem, bool) {
	candidates := make([]models.ClothingItem, 0)
	for _, item := range catalog {
		if item.Category == category {
			candidates = append(candidates, item)
		}
	}
	if len(candidates) == 0 {
		return models.ClothingItem{}, false
	}

	if anchor != nil && anchor.Category == category {
		return *anchor, true
	}

	tokens := strings.Fields(strings.ToLower(text))
	best, bestScore := 0, 0
	for i, item := range candidates {
		if score := scoreItem(item, tokens); score > bestScore {
			best, bestScore = i, score
		}
	}
	if bestScore > 0 {
		return candidates[best], true
	}

	for _, item := range candidates {
		if item.Favorite {
			return item, true
		}
	}
	return candidates[0], true
}

// scoreItem awards points per token for description and color overlap, plus a flat favorite bonus
func scoreItem(item models.ClothingItem, tokens []string) int {
	description := strings.ToLower(item.Description)
	colors := make([]string, 0, len(item.Colors))
	for _, c := range item.Colors {
		if c = strings.ToLower(strings.TrimSpace(c)); c != "" {
			colors = append(colors, c)
		}
	}

	score := 0
	for _, token := range tokens {
		if strings.Contains(description, token) {
			score += descriptionTokenScore
		}
		for _, color := range colors {
			if strings.Contains(color, token) || strings.Contains(token, color) {
				score += colorTokenScore
				break
			}
		}
	}
	if item.Favorite {
		score += favoriteScore
	}
	return score
}
