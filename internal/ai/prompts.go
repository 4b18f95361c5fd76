package ai

import (
	"fmt"
	"sort"
	"strings"

	"github.com/yishak-cs/wardrobe/internal/models"
)

const (
	visionSystemPrompt   = "You are an expert fashion assistant capable of detecting and describing clothing items in detail. You output strict JSON."
	stylistSystemPrompt  = "You are a helpful fashion stylist that outputs JSON."
	shoppingSystemPrompt = "You are a personal shopper that outputs JSON."
)

const visionPrompt = `Analyze this image and detect ALL individual clothing items visible.
For EACH distinct clothing item found, provide:
{
  "items": [
    {
      "category": "one of: top, bottom, shoes, outerwear, accessory, dress, suit",
      "colors": ["primary color", "secondary color if any"],
      "season": ["spring", "summer", "fall", "winter"],
      "style": ["casual", "formal", "sporty", "elegant"],
      "description": "brief description of the item",
      "confidence": 0.95
    }
  ]
}
Rules:
- Detect ALL items
- Each item is a separate object
- Return {"items": []} when no clothing is visible
- Valid JSON only`

const outfitResponseFormat = `Provide a JSON response with:
{
  "outfit": {
    "top": "item description or null",
    "bottom": "item description or null",
    "shoes": "item description or null",
    "outerwear": "item description or null",
    "accessories": ["item descriptions"]
  },
  "reasoning": "brief explanation",
  "tips": "styling tips",
  "visualPrompt": "A detailed photorealistic description for image generation."
}`

const shoppingResponseFormat = `Return JSON:
{
  "recommendations": [
    {
      "category": "top|bottom|shoes|outerwear|accessory|dress|suit",
      "itemType": "...",
      "description": "...",
      "suggestedColors": [],
      "suggestedStyle": [],
      "reasoning": "...",
      "pairsWith": [],
      "priority": "high|medium|low"
    }
  ]
}`

func buildOutfitPrompt(catalogDescription string, c models.OutfitConstraints) string {
	var b strings.Builder
	b.WriteString("You are a professional fashion stylist. Based on the following wardrobe items, suggest a complete outfit.\n\n")
	b.WriteString("Available items:\n")
	b.WriteString(catalogDescription)
	b.WriteString("\n\nConstraints:")

	if c.Weather != nil {
		fmt.Fprintf(&b, "\n- Weather: %.0f°F, %s", c.Weather.Temp, c.Weather.Condition)
	}
	if c.Occasion != "" {
		fmt.Fprintf(&b, "\n- Occasion: %s", c.Occasion)
	}
	if c.AnchorItem != nil {
		fmt.Fprintf(&b, "\n- Must include: %s", c.AnchorItem.Description)
	}
	if c.Style != "" {
		fmt.Fprintf(&b, "\n- Style preference: %s", c.Style)
	}

	if p := c.Profile; p != nil {
		if p.Gender != "" {
			fmt.Fprintf(&b, "\n- User Gender: %s", p.Gender)
			if strings.EqualFold(p.Gender, "male") {
				b.WriteString("\n  IMPORTANT: Do NOT suggest dresses, skirts, or female-only items.")
			}
		}
		if len(p.StylePreferences) > 0 {
			fmt.Fprintf(&b, "\n- Usual styles: %s", strings.Join(p.StylePreferences, ", "))
		}
		if len(p.FavoriteColors) > 0 {
			fmt.Fprintf(&b, "\n- Favorite colors: %s", strings.Join(p.FavoriteColors, ", "))
		}
	}

	if p := c.UserPreferences; p != nil {
		if len(p.TopItems) > 0 {
			fmt.Fprintf(&b, "\n- User loves: %s", joinDescriptions(p.TopItems))
		}
		if len(p.LowRatedItems) > 0 {
			fmt.Fprintf(&b, "\n- Avoid: %s", joinDescriptions(p.LowRatedItems))
		}
		if len(p.TopColorCombos) > 0 {
			keys := make([]string, 0, len(p.TopColorCombos))
			for _, combo := range p.TopColorCombos {
				keys = append(keys, combo.Key)
			}
			fmt.Fprintf(&b, "\n- Favorite color combinations: %s", strings.Join(keys, ", "))
		}
		if len(p.FavoriteItems) > 0 {
			fmt.Fprintf(&b, "\n- Favorite pieces: %s", joinDescriptions(p.FavoriteItems))
		}
	}

	if len(c.RecentOutfits) > 0 {
		b.WriteString("\n- Recently worn (do not repeat these combinations):")
		for _, r := range c.RecentOutfits {
			parts := make([]string, 0, 4)
			for _, s := range []string{r.Top, r.Bottom, r.Shoes, r.Outerwear} {
				if s != "" {
					parts = append(parts, s)
				}
			}
			if len(parts) > 0 {
				fmt.Fprintf(&b, "\n  * %s", strings.Join(parts, " + "))
			}
		}
	}

	b.WriteString("\n\n")
	b.WriteString(outfitResponseFormat)
	return b.String()
}

func buildShoppingPrompt(analysis models.WardrobeAnalysis, prefs *models.PreferenceHints, limit int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a professional fashion stylist. Recommend %d new clothing items.\n", limit)
	b.WriteString("WARDROBE ANALYSIS:\n")
	fmt.Fprintf(&b, "- Total items: %d\n", analysis.TotalItems)
	fmt.Fprintf(&b, "- Missing: %s\n", joinCategories(analysis.MissingCategories))
	if len(analysis.SeasonalGaps) > 0 {
		fmt.Fprintf(&b, "- Thin seasons: %s\n", strings.Join(analysis.SeasonalGaps, ", "))
	}
	if len(analysis.Strengths) > 0 {
		fmt.Fprintf(&b, "- Well covered: %s\n", joinCategories(analysis.Strengths))
	}

	b.WriteString("\nUSER PREFERENCES:")
	if prefs != nil && prefs.RatedItems > 0 {
		if len(prefs.TopItems) > 0 {
			fmt.Fprintf(&b, "\n- User likes: %s", joinDescriptions(prefs.TopItems))
		}
		if len(prefs.LowRatedItems) > 0 {
			fmt.Fprintf(&b, "\n- User dislikes/avoids: %s", joinDescriptions(prefs.LowRatedItems))
			b.WriteString("\n- AVOID recommending items similar to the dislikes.")
		}
	}

	if len(analysis.StyleDistribution) > 0 {
		fmt.Fprintf(&b, "\n- Current Wardrobe Styles: %s", formatDistribution(analysis.StyleDistribution))
		b.WriteString("\n- Match the user's existing style preferences unless they are missing basic essentials.")
	}

	b.WriteString("\n\n")
	b.WriteString(shoppingResponseFormat)
	return b.String()
}

func joinDescriptions(items []models.PreferenceHintItem) string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item.Description != "" {
			out = append(out, item.Description)
		}
	}
	return strings.Join(out, ", ")
}

func joinCategories(categories []models.Category) string {
	if len(categories) == 0 {
		return "none"
	}
	out := make([]string, len(categories))
	for i, c := range categories {
		out[i] = string(c)
	}
	return strings.Join(out, ", ")
}

// formatDistribution renders counts largest first so prompts are stable across runs
func formatDistribution(dist map[string]int) string {
	keys := make([]string, 0, len(dist))
	for k := range dist {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if dist[keys[i]] != dist[keys[j]] {
			return dist[keys[i]] > dist[keys[j]]
		}
		return keys[i] < keys[j]
	})
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s (%d)", k, dist[k])
	}
	return strings.Join(parts, ", ")
}
