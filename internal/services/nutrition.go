package services

import (
	"errors"
	"math"

	"github.com/kysclient/foodly-backend/internal/domain"
)

// ErrNoDailyPlans is returned when a summary is requested for an empty plan.
// Callers treat this as an invalid provider response, upstream of any division.
var ErrNoDailyPlans = errors.New("no daily plans to summarize")

// SummarizeNutrition computes per-day averages over a generated plan. Pure
// function of its input; ordering of days does not affect the result.
func SummarizeNutrition(days []domain.DailyPlan) (domain.NutritionSummary, error) {
	if len(days) == 0 {
		return domain.NutritionSummary{}, ErrNoDailyPlans
	}

	var calories, protein, carbs, fat float64
	for _, day := range days {
		calories += day.TotalCalories
		protein += day.DailyNutrients.Protein
		carbs += day.DailyNutrients.Carbs
		fat += day.DailyNutrients.Fat
	}

	n := float64(len(days))
	return domain.NutritionSummary{
		AverageCalories: roundInt(calories / n),
		AverageNutrients: domain.AverageMacros{
			Protein: roundInt(protein / n),
			Carbs:   roundInt(carbs / n),
			Fat:     roundInt(fat / n),
		},
		TotalDays: len(days),
	}, nil
}

func roundInt(v float64) int {
	return int(math.Round(v))
}
