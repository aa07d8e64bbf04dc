package http

import (
	"github.com/gin-gonic/gin"

	httpH "github.com/kysclient/foodly-backend/internal/http/handlers"
	httpMW "github.com/kysclient/foodly-backend/internal/http/middleware"
)

type RouterConfig struct {
	AuthMiddleware  *httpMW.AuthMiddleware
	MealPlanHandler *httpH.MealPlanHandler
	RealtimeHandler *httpH.RealtimeHandler
	JobHandler      *httpH.JobHandler
	HealthHandler   *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.Default()
	r.Use(httpMW.CORS())

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")

	protected := api.Group("/")
	{
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		// Realtime (SSE)
		if cfg.RealtimeHandler != nil {
			protected.GET("/sse/stream", cfg.RealtimeHandler.SSEStream)
			protected.POST("/sse/subscribe", cfg.RealtimeHandler.SSESubscribe)
			protected.POST("/sse/unsubscribe", cfg.RealtimeHandler.SSEUnsubscribe)
		}

		// Meal plans
		if cfg.MealPlanHandler != nil {
			protected.POST("/meal-plans", cfg.MealPlanHandler.CreateMealPlan)
			protected.GET("/meal-plans", cfg.MealPlanHandler.ListMealPlans)
			protected.GET("/meal-plans/:id", cfg.MealPlanHandler.GetMealPlan)
		}

		// Jobs
		if cfg.JobHandler != nil {
			protected.GET("/jobs/:id", cfg.JobHandler.GetJob)
		}
	}

	return r
}
