package models

// ActionType identifies a rate-limited action
type ActionType string

const (
	ActionOutfitGeneration        ActionType = "OUTFIT_GENERATION"
	ActionShoppingRecommendations ActionType = "SHOPPING_RECOMMENDATIONS"
)

// LimitStatus is the answer to a quota check
type LimitStatus struct {
	Allowed   bool `json:"allowed"`
	Remaining int  `json:"remaining"`
	Current   int  `json:"current"`
	Limit     int  `json:"limit"`
	// Degraded is set when the usage store could not be read and the check failed open
	Degraded bool `json:"degraded,omitempty"`
}

// DailyUsage reports today's usage for every action type
type DailyUsage struct {
	Day       string             `json:"day"`
	Usage     map[ActionType]int `json:"usage"`
	Limits    map[ActionType]int `json:"limits"`
	Remaining map[ActionType]int `json:"remaining"`
}
