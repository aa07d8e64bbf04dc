package app

import (
	"github.com/kysclient/foodly-backend/internal/http/handlers"
	"github.com/kysclient/foodly-backend/internal/pkg/logger"
	"github.com/kysclient/foodly-backend/internal/realtime"
)

type Handlers struct {
	Health   *handlers.HealthHandler
	MealPlan *handlers.MealPlanHandler
	Realtime *handlers.RealtimeHandler
	Job      *handlers.JobHandler
}

func wireHandlers(log *logger.Logger, s Services, r Repos, hub *realtime.Hub) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:   handlers.NewHealthHandler(),
		MealPlan: handlers.NewMealPlanHandler(s.MealPlan),
		Realtime: handlers.NewRealtimeHandler(log, hub),
		Job:      handlers.NewJobHandler(r.JobRun),
	}
}
