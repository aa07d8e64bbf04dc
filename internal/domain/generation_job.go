package domain

import "github.com/google/uuid"

// PreferenceSnapshot is the preference state captured at submission time.
// The worker prompts from this snapshot, not from the live preference row,
// so an edit mid-generation cannot change an in-flight plan.
type PreferenceSnapshot struct {
	ActivityLevel       string   `json:"activity_level"`
	Goal                string   `json:"goal"`
	Allergies           []string `json:"allergies,omitempty"`
	DietaryRestrictions []string `json:"dietary_restrictions,omitempty"`
	FavoriteFoods       []string `json:"favorite_foods,omitempty"`
	DislikedFoods       []string `json:"disliked_foods,omitempty"`
}

// MealPlanJobPayload is the queue message for JobTypeMealPlanGeneration.
type MealPlanJobPayload struct {
	MealPlanID      uuid.UUID          `json:"meal_plan_id"`
	UserID          uuid.UUID          `json:"user_id"`
	Preferences     PreferenceSnapshot `json:"user_preferences"`
	DailyCalories   int                `json:"daily_calories"`
	TotalDays       int                `json:"total_days"`
	ExcludeFoods    []string           `json:"exclude_foods,omitempty"`
	SpecialRequests string             `json:"special_requests,omitempty"`
}
