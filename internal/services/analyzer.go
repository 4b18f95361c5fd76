package services

import (
	"time"

	"github.com/yishak-cs/wardrobe/internal/models"
)

const (
	// a season with fewer items than this is reported as a gap
	seasonalGapThreshold = 3
	// a category with at least this many items is reported as a strength
	strengthThreshold = 3
)

// AnalyzeWardrobe summarizes category, color, style and season coverage of catalog.
// Items outside the analyzed categories count toward the total and distributions only.
func AnalyzeWardrobe(catalog []models.ClothingItem) models.WardrobeAnalysis {
	analysis := models.WardrobeAnalysis{
		TotalItems:        len(catalog),
		CategoryCounts:    make(map[models.Category]int, len(models.AnalyzedCategories)),
		ColorDistribution: make(map[string]int),
		StyleDistribution: make(map[string]int),
		MissingCategories: []models.Category{},
		SeasonalGaps:      []string{},
		Strengths:         []models.Category{},
	}
	for _, c := range models.AnalyzedCategories {
		analysis.CategoryCounts[c] = 0
	}

	seasonCounts := make(map[string]int, len(models.Seasons))
	for _, item := range catalog {
		if _, ok := analysis.CategoryCounts[item.Category]; ok {
			analysis.CategoryCounts[item.Category]++
		}
		for _, color := range item.Colors {
			analysis.ColorDistribution[color]++
		}
		for _, style := range item.Style {
			analysis.StyleDistribution[style]++
		}
		for _, season := range item.Season {
			seasonCounts[season]++
		}
	}

	for _, c := range models.AnalyzedCategories {
		n := analysis.CategoryCounts[c]
		if n == 0 {
			analysis.MissingCategories = append(analysis.MissingCategories, c)
		}
		if n >= strengthThreshold {
			analysis.Strengths = append(analysis.Strengths, c)
		}
	}
	for _, season := range models.Seasons {
		if seasonCounts[season] < seasonalGapThreshold {
			analysis.SeasonalGaps = append(analysis.SeasonalGaps, season)
		}
	}

	return analysis
}

// CurrentSeason maps t's month to a northern hemisphere season
func CurrentSeason(t time.Time) string {
	switch t.Month() {
	case time.March, time.April, time.May:
		return "spring"
	case time.June, time.July, time.August:
		return "summer"
	case time.September, time.October, time.November:
		return "fall"
	default:
		return "winter"
	}
}
