package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type User struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Email     string         `gorm:"uniqueIndex;not null" json:"email"`
	Password  string         `gorm:"not null" json:"-"`
	Name      string         `gorm:"column:name" json:"name"`
	Gender    string         `gorm:"column:gender" json:"gender,omitempty"`
	Age       int            `gorm:"column:age" json:"age,omitempty"`
	Height    float64        `gorm:"column:height" json:"height,omitempty"`
	Weight    float64        `gorm:"column:weight" json:"weight,omitempty"`
	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Preference *UserPreference `gorm:"foreignKey:UserID" json:"preference,omitempty"`
}

func (User) TableName() string { return "users" }

// Activity levels and goals feed the daily calorie computation. The multiplier
// tables live in services.MealPlanService.
const (
	ActivitySedentary  = "sedentary"
	ActivityLight      = "light"
	ActivityModerate   = "moderate"
	ActivityActive     = "active"
	ActivityVeryActive = "very_active"

	GoalWeightLoss  = "weight_loss"
	GoalWeightGain  = "weight_gain"
	GoalMaintenance = "maintenance"
	GoalMuscleGain  = "muscle_gain"
)

type UserPreference struct {
	ID                  uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID              uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	ActivityLevel       string         `gorm:"column:activity_level;not null;default:moderate" json:"activity_level"`
	Goal                string         `gorm:"column:goal;not null;default:maintenance" json:"goal"`
	Allergies           datatypes.JSON `gorm:"column:allergies;type:jsonb" json:"allergies,omitempty"`
	DietaryRestrictions datatypes.JSON `gorm:"column:dietary_restrictions;type:jsonb" json:"dietary_restrictions,omitempty"`
	FavoriteFoods       datatypes.JSON `gorm:"column:favorite_foods;type:jsonb" json:"favorite_foods,omitempty"`
	DislikedFoods       datatypes.JSON `gorm:"column:disliked_foods;type:jsonb" json:"disliked_foods,omitempty"`
	CreatedAt           time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt           time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (UserPreference) TableName() string { return "user_preferences" }
