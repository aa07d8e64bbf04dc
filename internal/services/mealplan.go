package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/kysclient/foodly-backend/internal/data/repos/jobs"
	"github.com/kysclient/foodly-backend/internal/data/repos/mealplans"
	"github.com/kysclient/foodly-backend/internal/data/repos/users"
	"github.com/kysclient/foodly-backend/internal/domain"
	"github.com/kysclient/foodly-backend/internal/pkg/apperr"
	"github.com/kysclient/foodly-backend/internal/pkg/dbctx"
	"github.com/kysclient/foodly-backend/internal/pkg/logger"
)

// Daily calorie targets are bounded to the range the provider prompt was
// tuned for.
const (
	MinTargetCalories = 1000
	MaxTargetCalories = 5000
)

// Anthropometric fallbacks used when a profile field is unset. Documented
// constants rather than silently-invalid zeros.
const (
	DefaultMaleWeightKg   = 70.0
	DefaultMaleHeightCm   = 170.0
	DefaultFemaleWeightKg = 60.0
	DefaultFemaleHeightCm = 160.0
	DefaultAgeYears       = 25
)

var activityMultipliers = map[string]float64{
	domain.ActivitySedentary:  1.2,
	domain.ActivityLight:      1.375,
	domain.ActivityModerate:   1.55,
	domain.ActivityActive:     1.725,
	domain.ActivityVeryActive: 1.9,
}

var goalAdjustments = map[string]float64{
	domain.GoalWeightLoss:  0.8,
	domain.GoalWeightGain:  1.2,
	domain.GoalMaintenance: 1.0,
	domain.GoalMuscleGain:  1.15,
}

type CreateMealPlanRequest struct {
	Title           string   `json:"title" binding:"required"`
	StartDate       string   `json:"start_date" binding:"required"`
	EndDate         string   `json:"end_date" binding:"required"`
	TargetCalories  *int     `json:"target_calories,omitempty"`
	ExcludeFoods    []string `json:"exclude_foods,omitempty"`
	SpecialRequests string   `json:"special_requests,omitempty"`
}

type MealPlanService interface {
	Create(ctx context.Context, userID uuid.UUID, req CreateMealPlanRequest) (*domain.MealPlan, error)
	GetByID(ctx context.Context, id uuid.UUID, userID uuid.UUID) (*domain.MealPlan, error)
	ListForUser(ctx context.Context, userID uuid.UUID, page int, limit int) ([]*domain.MealPlan, int64, error)
}

type mealPlanService struct {
	db       *gorm.DB
	log      *logger.Logger
	plans    mealplans.MealPlanRepo
	userRepo users.UserRepo
	jobRepo  jobs.JobRunRepo
	notify   PlanNotifier
}

func NewMealPlanService(
	db *gorm.DB,
	baseLog *logger.Logger,
	plans mealplans.MealPlanRepo,
	userRepo users.UserRepo,
	jobRepo jobs.JobRunRepo,
	notify PlanNotifier,
) MealPlanService {
	return &mealPlanService{
		db:       db,
		log:      baseLog.With("service", "MealPlanService"),
		plans:    plans,
		userRepo: userRepo,
		jobRepo:  jobRepo,
		notify:   notify,
	}
}

// Create validates the submission, computes the daily calorie target, and
// creates the generating plan row together with its queued generation job in
// one transaction. Enqueue failure rolls the record back, so a plan row can
// never exist without a job that will drive it to a terminal state.
func (s *mealPlanService) Create(ctx context.Context, userID uuid.UUID, req CreateMealPlanRequest) (*domain.MealPlan, error) {
	start, end, err := validateCreateRequest(req)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByIDWithPreference(dbctx.Context{Ctx: ctx}, userID)
	if err != nil {
		return nil, err
	}

	dailyCalories := s.resolveDailyCalories(user, req)
	snapshot := snapshotPreferences(user.Preference)

	plan := &domain.MealPlan{
		ID:            uuid.New(),
		UserID:        userID,
		Title:         strings.TrimSpace(req.Title),
		StartDate:     start,
		EndDate:       end,
		DailyCalories: dailyCalories,
		Status:        domain.MealPlanStatusGenerating,
	}

	payload := domain.MealPlanJobPayload{
		MealPlanID:      plan.ID,
		UserID:          userID,
		Preferences:     snapshot,
		DailyCalories:   dailyCalories,
		TotalDays:       planDays(start, end),
		ExcludeFoods:    req.ExcludeFoods,
		SpecialRequests: strings.TrimSpace(req.SpecialRequests),
	}
	rawPayload, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal job payload: %w", err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if _, err := s.plans.Create(dbc, plan); err != nil {
			return fmt.Errorf("create meal plan: %w", err)
		}
		planID := plan.ID
		job := &domain.JobRun{
			ID:          uuid.New(),
			OwnerUserID: userID,
			JobType:     domain.JobTypeMealPlanGeneration,
			EntityType:  "meal_plan",
			EntityID:    &planID,
			Status:      domain.JobStatusQueued,
			Stage:       "queued",
			Payload:     datatypes.JSON(rawPayload),
			Result:      datatypes.JSON([]byte("{}")),
		}
		if _, err := s.jobRepo.Create(dbc, job); err != nil {
			return fmt.Errorf("enqueue generation job: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("meal plan submitted", "meal_plan_id", plan.ID, "user_id", userID, "daily_calories", dailyCalories)
	s.notify.PlanQueued(userID, plan.ID)

	return plan, nil
}

func (s *mealPlanService) GetByID(ctx context.Context, id uuid.UUID, userID uuid.UUID) (*domain.MealPlan, error) {
	return s.plans.GetByIDForUser(dbctx.Context{Ctx: ctx}, id, userID)
}

func (s *mealPlanService) ListForUser(ctx context.Context, userID uuid.UUID, page int, limit int) ([]*domain.MealPlan, int64, error) {
	return s.plans.ListByUser(dbctx.Context{Ctx: ctx}, userID, page, limit)
}

func validateCreateRequest(req CreateMealPlanRequest) (time.Time, time.Time, error) {
	if strings.TrimSpace(req.Title) == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: title is required", apperr.ErrInvalidArgument)
	}
	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: invalid start_date %q", apperr.ErrInvalidArgument, req.StartDate)
	}
	end, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: invalid end_date %q", apperr.ErrInvalidArgument, req.EndDate)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: end_date before start_date", apperr.ErrInvalidArgument)
	}
	if req.TargetCalories != nil {
		if *req.TargetCalories < MinTargetCalories || *req.TargetCalories > MaxTargetCalories {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: target_calories must be between %d and %d",
				apperr.ErrInvalidArgument, MinTargetCalories, MaxTargetCalories)
		}
	}
	return start, end, nil
}

// resolveDailyCalories prefers an explicit target from the request; otherwise
// it computes one from the profile.
func (s *mealPlanService) resolveDailyCalories(user *domain.User, req CreateMealPlanRequest) int {
	if req.TargetCalories != nil {
		return *req.TargetCalories
	}
	return CalculateDailyCalories(user)
}

// CalculateDailyCalories derives a daily target from the Harris-Benedict BMR,
// an activity multiplier, and a goal adjustment. Missing anthropometrics fall
// back to the documented defaults.
func CalculateDailyCalories(user *domain.User) int {
	weight := user.Weight
	height := user.Height
	age := float64(user.Age)
	if age <= 0 {
		age = DefaultAgeYears
	}

	var bmr float64
	if user.Gender == "male" {
		if weight <= 0 {
			weight = DefaultMaleWeightKg
		}
		if height <= 0 {
			height = DefaultMaleHeightCm
		}
		bmr = 88.362 + 13.397*weight + 4.799*height - 5.677*age
	} else {
		if weight <= 0 {
			weight = DefaultFemaleWeightKg
		}
		if height <= 0 {
			height = DefaultFemaleHeightCm
		}
		bmr = 447.593 + 9.247*weight + 3.098*height - 4.33*age
	}

	activity := domain.ActivityModerate
	goal := domain.GoalMaintenance
	if user.Preference != nil {
		if user.Preference.ActivityLevel != "" {
			activity = user.Preference.ActivityLevel
		}
		if user.Preference.Goal != "" {
			goal = user.Preference.Goal
		}
	}

	multiplier, ok := activityMultipliers[activity]
	if !ok {
		multiplier = activityMultipliers[domain.ActivityModerate]
	}
	adjustment, ok := goalAdjustments[goal]
	if !ok {
		adjustment = goalAdjustments[domain.GoalMaintenance]
	}

	return int(math.Round(bmr * multiplier * adjustment))
}

// planDays is the inclusive day count of the requested range, capped so a
// degenerate range cannot ask the provider for an unbounded plan.
func planDays(start, end time.Time) int {
	days := int(end.Sub(start).Hours()/24) + 1
	if days < 1 {
		days = 1
	}
	if days > 30 {
		days = 30
	}
	return days
}

func snapshotPreferences(pref *domain.UserPreference) domain.PreferenceSnapshot {
	snapshot := domain.PreferenceSnapshot{
		ActivityLevel: domain.ActivityModerate,
		Goal:          domain.GoalMaintenance,
	}
	if pref == nil {
		return snapshot
	}
	if pref.ActivityLevel != "" {
		snapshot.ActivityLevel = pref.ActivityLevel
	}
	if pref.Goal != "" {
		snapshot.Goal = pref.Goal
	}
	snapshot.Allergies = decodeStringList(pref.Allergies)
	snapshot.DietaryRestrictions = decodeStringList(pref.DietaryRestrictions)
	snapshot.FavoriteFoods = decodeStringList(pref.FavoriteFoods)
	snapshot.DislikedFoods = decodeStringList(pref.DislikedFoods)
	return snapshot
}

func decodeStringList(raw datatypes.JSON) []string {
	if len(raw) == 0 {
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}
