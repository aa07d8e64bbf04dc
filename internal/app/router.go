package app

import (
	httpserver "github.com/kysclient/foodly-backend/internal/http"
)

func wireServer(h Handlers, mw Middleware) *httpserver.Server {
	return httpserver.NewServer(httpserver.RouterConfig{
		AuthMiddleware:  mw.Auth,
		HealthHandler:   h.Health,
		MealPlanHandler: h.MealPlan,
		RealtimeHandler: h.Realtime,
		JobHandler:      h.Job,
	})
}
