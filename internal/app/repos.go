package app

import (
	"gorm.io/gorm"

	jobrepo "github.com/kysclient/foodly-backend/internal/data/repos/jobs"
	"github.com/kysclient/foodly-backend/internal/data/repos/mealplans"
	"github.com/kysclient/foodly-backend/internal/data/repos/users"
	"github.com/kysclient/foodly-backend/internal/pkg/logger"
)

type Repos struct {
	User     users.UserRepo
	MealPlan mealplans.MealPlanRepo
	JobRun   jobrepo.JobRunRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:     users.NewUserRepo(db, log),
		MealPlan: mealplans.NewMealPlanRepo(db, log),
		JobRun:   jobrepo.NewJobRunRepo(db, log),
	}
}
