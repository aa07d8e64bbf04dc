package services

import (
	"errors"
	"testing"

	"github.com/kysclient/foodly-backend/internal/domain"
)

func day(calories, protein, carbs, fat float64) domain.DailyPlan {
	return domain.DailyPlan{
		TotalCalories:  calories,
		DailyNutrients: domain.Macros{Protein: protein, Carbs: carbs, Fat: fat},
	}
}

func TestSummarizeNutrition(t *testing.T) {
	summary, err := SummarizeNutrition([]domain.DailyPlan{
		day(2000, 100, 250, 60),
		day(2200, 120, 270, 70),
	})
	if err != nil {
		t.Fatalf("SummarizeNutrition: %v", err)
	}
	if summary.AverageCalories != 2100 {
		t.Fatalf("AverageCalories: expected 2100, got %d", summary.AverageCalories)
	}
	if summary.AverageNutrients.Protein != 110 {
		t.Fatalf("Protein: expected 110, got %d", summary.AverageNutrients.Protein)
	}
	if summary.AverageNutrients.Carbs != 260 {
		t.Fatalf("Carbs: expected 260, got %d", summary.AverageNutrients.Carbs)
	}
	if summary.AverageNutrients.Fat != 65 {
		t.Fatalf("Fat: expected 65, got %d", summary.AverageNutrients.Fat)
	}
	if summary.TotalDays != 2 {
		t.Fatalf("TotalDays: expected 2, got %d", summary.TotalDays)
	}
}

func TestSummarizeNutritionRoundsHalfUp(t *testing.T) {
	summary, err := SummarizeNutrition([]domain.DailyPlan{
		day(2000, 100, 200, 50),
		day(2201, 101, 201, 51),
	})
	if err != nil {
		t.Fatalf("SummarizeNutrition: %v", err)
	}
	// 2100.5 rounds away from zero.
	if summary.AverageCalories != 2101 {
		t.Fatalf("AverageCalories: expected 2101, got %d", summary.AverageCalories)
	}
	if summary.AverageNutrients.Protein != 101 {
		t.Fatalf("Protein: expected 101, got %d", summary.AverageNutrients.Protein)
	}
}

func TestSummarizeNutritionOrderIndependent(t *testing.T) {
	days := []domain.DailyPlan{
		day(1800, 90, 220, 55),
		day(2400, 130, 280, 75),
		day(2100, 110, 250, 65),
	}
	forward, err := SummarizeNutrition(days)
	if err != nil {
		t.Fatalf("SummarizeNutrition forward: %v", err)
	}
	reversed := []domain.DailyPlan{days[2], days[1], days[0]}
	backward, err := SummarizeNutrition(reversed)
	if err != nil {
		t.Fatalf("SummarizeNutrition backward: %v", err)
	}
	if forward != backward {
		t.Fatalf("summary should not depend on day order: %+v vs %+v", forward, backward)
	}
}

func TestSummarizeNutritionSingleDay(t *testing.T) {
	summary, err := SummarizeNutrition([]domain.DailyPlan{day(1950, 95, 240, 58)})
	if err != nil {
		t.Fatalf("SummarizeNutrition: %v", err)
	}
	if summary.AverageCalories != 1950 || summary.TotalDays != 1 {
		t.Fatalf("single day summary wrong: %+v", summary)
	}
}

func TestSummarizeNutritionEmpty(t *testing.T) {
	_, err := SummarizeNutrition(nil)
	if !errors.Is(err, ErrNoDailyPlans) {
		t.Fatalf("expected ErrNoDailyPlans, got %v", err)
	}
}
