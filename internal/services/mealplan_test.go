package services

import (
	"errors"
	"testing"
	"time"

	"gorm.io/datatypes"

	"github.com/kysclient/foodly-backend/internal/domain"
	"github.com/kysclient/foodly-backend/internal/pkg/apperr"
)

func userWithProfile(gender string, age int, height, weight float64, activity, goal string) *domain.User {
	return &domain.User{
		Gender: gender,
		Age:    age,
		Height: height,
		Weight: weight,
		Preference: &domain.UserPreference{
			ActivityLevel: activity,
			Goal:          goal,
		},
	}
}

func TestCalculateDailyCalories(t *testing.T) {
	cases := []struct {
		name string
		user *domain.User
		want int
	}{
		{
			// BMR 1700.057, x1.55, x1.0
			name: "male moderate maintenance",
			user: userWithProfile("male", 25, 170, 70, domain.ActivityModerate, domain.GoalMaintenance),
			want: 2635,
		},
		{
			// BMR 1389.843, x1.2, x0.8
			name: "female sedentary weight loss",
			user: userWithProfile("female", 25, 160, 60, domain.ActivitySedentary, domain.GoalWeightLoss),
			want: 1334,
		},
		{
			// BMR 1853.632, x1.725, x1.15
			name: "male active muscle gain",
			user: userWithProfile("male", 30, 180, 80, domain.ActivityActive, domain.GoalMuscleGain),
			want: 3677,
		},
		{
			// Missing anthropometrics fall back to the male defaults (70kg/170cm/25y).
			name: "male defaults",
			user: &domain.User{Gender: "male"},
			want: 2635,
		},
		{
			// No preference row means moderate + maintenance.
			name: "no preference",
			user: &domain.User{Gender: "male", Age: 25, Height: 170, Weight: 70},
			want: 2635,
		},
		{
			// Unknown enum values degrade to the moderate/maintenance multipliers.
			name: "unknown activity and goal",
			user: userWithProfile("male", 25, 170, 70, "extreme", "bulking"),
			want: 2635,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := CalculateDailyCalories(tc.user)
			if got != tc.want {
				t.Fatalf("CalculateDailyCalories: expected %d, got %d", tc.want, got)
			}
		})
	}
}

func TestValidateCreateRequest(t *testing.T) {
	valid := CreateMealPlanRequest{
		Title:     "March plan",
		StartDate: "2026-03-01",
		EndDate:   "2026-03-07",
	}
	start, end, err := validateCreateRequest(valid)
	if err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}
	if start.Format("2006-01-02") != "2026-03-01" || end.Format("2006-01-02") != "2026-03-07" {
		t.Fatalf("parsed dates wrong: %v .. %v", start, end)
	}

	bad := []CreateMealPlanRequest{
		{Title: "", StartDate: "2026-03-01", EndDate: "2026-03-07"},
		{Title: "   ", StartDate: "2026-03-01", EndDate: "2026-03-07"},
		{Title: "x", StartDate: "03/01/2026", EndDate: "2026-03-07"},
		{Title: "x", StartDate: "2026-03-01", EndDate: "not-a-date"},
		{Title: "x", StartDate: "2026-03-07", EndDate: "2026-03-01"},
		{Title: "x", StartDate: "2026-03-01", EndDate: "2026-03-07", TargetCalories: intp(999)},
		{Title: "x", StartDate: "2026-03-01", EndDate: "2026-03-07", TargetCalories: intp(5001)},
	}
	for i, req := range bad {
		if _, _, err := validateCreateRequest(req); !errors.Is(err, apperr.ErrInvalidArgument) {
			t.Fatalf("case %d: expected ErrInvalidArgument, got %v", i, err)
		}
	}

	// Bounds are inclusive.
	for _, target := range []int{MinTargetCalories, MaxTargetCalories} {
		req := valid
		req.TargetCalories = intp(target)
		if _, _, err := validateCreateRequest(req); err != nil {
			t.Fatalf("target %d should be accepted: %v", target, err)
		}
	}
}

func TestPlanDays(t *testing.T) {
	d := func(s string) time.Time {
		parsed, err := time.Parse("2006-01-02", s)
		if err != nil {
			t.Fatalf("parse %q: %v", s, err)
		}
		return parsed
	}
	if got := planDays(d("2026-03-01"), d("2026-03-01")); got != 1 {
		t.Fatalf("same-day range: expected 1, got %d", got)
	}
	if got := planDays(d("2026-03-01"), d("2026-03-07")); got != 7 {
		t.Fatalf("one week: expected 7, got %d", got)
	}
	if got := planDays(d("2026-01-01"), d("2026-12-31")); got != 30 {
		t.Fatalf("long range should clamp to 30, got %d", got)
	}
}

func TestSnapshotPreferences(t *testing.T) {
	snap := snapshotPreferences(nil)
	if snap.ActivityLevel != domain.ActivityModerate || snap.Goal != domain.GoalMaintenance {
		t.Fatalf("nil preference should default: %+v", snap)
	}

	pref := &domain.UserPreference{
		ActivityLevel: domain.ActivityActive,
		Goal:          domain.GoalMuscleGain,
		Allergies:     datatypes.JSON([]byte(`["peanuts","shellfish"]`)),
		DislikedFoods: datatypes.JSON([]byte(`["cilantro"]`)),
	}
	snap = snapshotPreferences(pref)
	if snap.ActivityLevel != domain.ActivityActive || snap.Goal != domain.GoalMuscleGain {
		t.Fatalf("preference values not carried: %+v", snap)
	}
	if len(snap.Allergies) != 2 || snap.Allergies[0] != "peanuts" {
		t.Fatalf("allergies not decoded: %+v", snap.Allergies)
	}
	if len(snap.DislikedFoods) != 1 || snap.DislikedFoods[0] != "cilantro" {
		t.Fatalf("disliked foods not decoded: %+v", snap.DislikedFoods)
	}
	if snap.DietaryRestrictions != nil {
		t.Fatalf("empty list should stay nil: %+v", snap.DietaryRestrictions)
	}
}

func intp(v int) *int { return &v }
