package models

import (
	"strings"
	"time"
)

// Sizes are the user's usual clothing sizes, free text
type Sizes struct {
	Top    string `json:"top" binding:"max=20"`
	Bottom string `json:"bottom" binding:"max=20"`
	Shoes  string `json:"shoes" binding:"max=20"`
}

// UserProfile is what a user tells us about themselves during setup
type UserProfile struct {
	UserID           string     `json:"user_id"`
	DisplayName      string     `json:"display_name"`
	Gender           string     `json:"gender"`
	StylePreferences []string   `json:"style_preferences"`
	FavoriteColors   []string   `json:"favorite_colors"`
	Sizes            Sizes      `json:"sizes"`
	Location         string     `json:"location"`
	SetupCompleted   bool       `json:"setup_completed"`
	UpdatedAt        *time.Time `json:"updated_at,omitempty"`
}

// NewUserProfile returns the profile of a user who has not gone through setup
func NewUserProfile(userID string) UserProfile {
	return UserProfile{
		UserID:           userID,
		StylePreferences: []string{},
		FavoriteColors:   []string{},
	}
}

// ProfileUpdate is a partial profile edit; nil fields are left unchanged
type ProfileUpdate struct {
	DisplayName      *string   `json:"display_name,omitempty" binding:"omitempty,max=80"`
	Gender           *string   `json:"gender,omitempty" binding:"omitempty,max=32"`
	StylePreferences *[]string `json:"style_preferences,omitempty" binding:"omitempty,max=20,dive,max=40"`
	FavoriteColors   *[]string `json:"favorite_colors,omitempty" binding:"omitempty,max=20,dive,max=40"`
	Sizes            *Sizes    `json:"sizes,omitempty"`
	Location         *string   `json:"location,omitempty" binding:"omitempty,max=120"`
	SetupCompleted   *bool     `json:"setup_completed,omitempty"`
}

// Apply copies the set fields of u onto p
func (u ProfileUpdate) Apply(p *UserProfile) {
	if u.DisplayName != nil {
		p.DisplayName = strings.TrimSpace(*u.DisplayName)
	}
	if u.Gender != nil {
		p.Gender = strings.TrimSpace(*u.Gender)
	}
	if u.StylePreferences != nil {
		p.StylePreferences = append([]string{}, *u.StylePreferences...)
	}
	if u.FavoriteColors != nil {
		p.FavoriteColors = append([]string{}, *u.FavoriteColors...)
	}
	if u.Sizes != nil {
		p.Sizes = *u.Sizes
	}
	if u.Location != nil {
		p.Location = strings.TrimSpace(*u.Location)
	}
	if u.SetupCompleted != nil {
		p.SetupCompleted = *u.SetupCompleted
	}
}

// ProfileHints is the part of the profile the outfit generator sees
type ProfileHints struct {
	Gender           string   `json:"gender,omitempty"`
	StylePreferences []string `json:"style_preferences,omitempty"`
	FavoriteColors   []string `json:"favorite_colors,omitempty"`
}

// Hints returns the generator-facing view of p, or nil when it holds nothing useful
func (p UserProfile) Hints() *ProfileHints {
	if p.Gender == "" && len(p.StylePreferences) == 0 && len(p.FavoriteColors) == 0 {
		return nil
	}
	return &ProfileHints{
		Gender:           p.Gender,
		StylePreferences: p.StylePreferences,
		FavoriteColors:   p.FavoriteColors,
	}
}
