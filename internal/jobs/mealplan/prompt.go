package mealplan

import (
	"fmt"
	"strings"

	"github.com/kysclient/foodly-backend/internal/domain"
)

const systemPrompt = `You are a professional nutritionist and an expert in Korean cuisine.
Plan a practical, delicious Korean-style meal plan tailored to the person's health goals and preferences.
Respond with JSON only, in this exact shape:
{
  "mealPlanData": [
    {
      "date": "YYYY-MM-DD",
      "breakfast": { "menu": "dish name", "calories": number, "nutrients": {...} },
      "lunch": { "menu": "dish name", "calories": number, "nutrients": {...} },
      "dinner": { "menu": "dish name", "calories": number, "nutrients": {...} },
      "snack": { "menu": "dish name", "calories": number, "nutrients": {...} },
      "totalCalories": number,
      "dailyNutrients": { "protein": grams, "carbs": grams, "fat": grams }
    }
  ]
}`

// buildPrompts renders the system and user prompts from the payload snapshot.
// Preference fields that are empty fall back to sensible wording so the model
// is never prompted with blanks.
func buildPrompts(p domain.MealPlanJobPayload) (string, string) {
	prefs := p.Preferences
	days := p.TotalDays
	if days <= 0 {
		days = 30
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Create a %d-day meal plan matching these preferences and goals:\n", days)
	fmt.Fprintf(&b, "- Daily calorie target: %d kcal\n", p.DailyCalories)
	fmt.Fprintf(&b, "- Activity level: %s\n", orDefault(prefs.ActivityLevel, domain.ActivityModerate))
	fmt.Fprintf(&b, "- Health goal: %s\n", orDefault(prefs.Goal, domain.GoalMaintenance))
	fmt.Fprintf(&b, "- Allergies: %s\n", joinOr(prefs.Allergies, "none"))
	fmt.Fprintf(&b, "- Dietary restrictions: %s\n", joinOr(prefs.DietaryRestrictions, "none"))
	fmt.Fprintf(&b, "- Favorite foods: %s\n", joinOr(prefs.FavoriteFoods, "typical Korean dishes"))
	fmt.Fprintf(&b, "- Disliked foods: %s\n", joinOr(prefs.DislikedFoods, "none"))
	if len(p.ExcludeFoods) > 0 {
		fmt.Fprintf(&b, "- Must exclude: %s\n", strings.Join(p.ExcludeFoods, ", "))
	}
	if s := strings.TrimSpace(p.SpecialRequests); s != "" {
		fmt.Fprintf(&b, "- Special requests: %s\n", s)
	}
	b.WriteString("Requirements:\n")
	b.WriteString("1. Healthy meals suited to a Korean palate\n")
	b.WriteString("2. Practical dishes that can actually be cooked\n")
	b.WriteString("3. Balanced macronutrients\n")
	fmt.Fprintf(&b, "4. Varied menus across all %d days\n", days)

	return systemPrompt, b.String()
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func joinOr(vals []string, def string) string {
	if len(vals) == 0 {
		return def
	}
	return strings.Join(vals, ", ")
}
