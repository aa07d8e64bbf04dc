package app

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/kysclient/foodly-backend/internal/clients/openai"
	"github.com/kysclient/foodly-backend/internal/jobs"
	jobmealplan "github.com/kysclient/foodly-backend/internal/jobs/mealplan"
	"github.com/kysclient/foodly-backend/internal/jobs/runtime"
	"github.com/kysclient/foodly-backend/internal/pkg/logger"
	"github.com/kysclient/foodly-backend/internal/realtime"
	"github.com/kysclient/foodly-backend/internal/realtime/bus"
	"github.com/kysclient/foodly-backend/internal/services"
)

type Services struct {
	Auth      services.AuthService
	MealPlan  services.MealPlanService
	Notifier  services.PlanNotifier
	OpenAI    openai.Client
	Bus       bus.Bus
	JobWorker *jobs.Worker
}

// wireServices assembles the service graph. When REDIS_ADDR is set events go
// through the redis bus so every instance's hub sees them; otherwise the
// notifier broadcasts straight to the local hub.
func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, r Repos, hub *realtime.Hub) (Services, error) {
	log.Info("Wiring services...")

	var (
		emitter  services.Emitter
		eventBus bus.Bus
	)
	if cfg.RedisAddr != "" {
		b, err := bus.NewRedisBus(log)
		if err != nil {
			return Services{}, fmt.Errorf("init redis bus: %w", err)
		}
		eventBus = b
		emitter = services.NewBusEmitter(log, b)
	} else {
		emitter = services.NewHubEmitter(hub)
	}
	notifier := services.NewPlanNotifier(emitter)

	aiClient, err := openai.NewClient(log)
	if err != nil {
		return Services{}, fmt.Errorf("init openai client: %w", err)
	}

	authService := services.NewAuthService(log, cfg.JWTSecretKey, cfg.AccessTokenTTL)
	mealPlanService := services.NewMealPlanService(db, log, r.MealPlan, r.User, r.JobRun, notifier)

	registry := runtime.NewRegistry()
	if err := registry.Register(jobmealplan.NewHandler(log, r.MealPlan, aiClient, notifier)); err != nil {
		return Services{}, fmt.Errorf("register job handler: %w", err)
	}
	worker := jobs.NewWorker(log, r.JobRun, registry, cfg.Worker)

	return Services{
		Auth:      authService,
		MealPlan:  mealPlanService,
		Notifier:  notifier,
		OpenAI:    aiClient,
		Bus:       eventBus,
		JobWorker: worker,
	}, nil
}

// startForwarder drains the shared bus into the local hub. Only meaningful
// when the bus is wired; a nil bus is a no-op.
func (s Services) startForwarder(ctx context.Context, log *logger.Logger, hub *realtime.Hub) error {
	if s.Bus == nil {
		return nil
	}
	return s.Bus.StartForwarder(ctx, func(m realtime.Message) {
		hub.Broadcast(m)
	})
}
