package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	MealPlanStatusGenerating = "generating"
	MealPlanStatusCompleted  = "completed"
	MealPlanStatusFailed     = "failed"
)

// MealPlan is one user's generation request and its eventual result.
// While Status is "generating", PlanData and NutritionSummary are null;
// the generation worker sets both together with status=completed in a
// single update. Completed and failed rows are never rewritten.
type MealPlan struct {
	ID               uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID           uuid.UUID      `gorm:"type:uuid;not null;index:idx_meal_plans_user_start" json:"user_id"`
	Title            string         `gorm:"not null" json:"title"`
	StartDate        time.Time      `gorm:"type:date;not null;index:idx_meal_plans_user_start" json:"start_date"`
	EndDate          time.Time      `gorm:"type:date;not null" json:"end_date"`
	DailyCalories    int            `gorm:"column:daily_calories;not null" json:"daily_calories"`
	Status           string         `gorm:"column:status;not null;default:generating;index" json:"status"`
	PlanData         datatypes.JSON `gorm:"column:plan_data;type:jsonb" json:"plan_data,omitempty"`
	NutritionSummary datatypes.JSON `gorm:"column:nutrition_summary;type:jsonb" json:"nutrition_summary,omitempty"`
	IsFavorite       bool           `gorm:"column:is_favorite;not null;default:false" json:"is_favorite"`
	Notes            string         `gorm:"column:notes" json:"notes,omitempty"`
	CreatedAt        time.Time      `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (MealPlan) TableName() string { return "meal_plans" }

// Macros is the {protein, carbs, fat} triple, in grams.
type Macros struct {
	Protein float64 `json:"protein"`
	Carbs   float64 `json:"carbs"`
	Fat     float64 `json:"fat"`
}

type Meal struct {
	Menu      string  `json:"menu"`
	Calories  float64 `json:"calories"`
	Nutrients Macros  `json:"nutrients"`
}

// DailyPlan is one day of the generated plan, as returned by the provider.
type DailyPlan struct {
	Date           string  `json:"date"`
	Breakfast      Meal    `json:"breakfast"`
	Lunch          Meal    `json:"lunch"`
	Dinner         Meal    `json:"dinner"`
	Snack          Meal    `json:"snack"`
	TotalCalories  float64 `json:"totalCalories"`
	DailyNutrients Macros  `json:"dailyNutrients"`
}

// GeneratedPlan is the structured payload parsed out of the provider response.
type GeneratedPlan struct {
	Days []DailyPlan `json:"mealPlanData"`
}

type AverageMacros struct {
	Protein int `json:"protein"`
	Carbs   int `json:"carbs"`
	Fat     int `json:"fat"`
}

type NutritionSummary struct {
	AverageCalories  int           `json:"averageCalories"`
	AverageNutrients AverageMacros `json:"averageNutrients"`
	TotalDays        int           `json:"totalDays"`
}
