package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kysclient/foodly-backend/internal/data/repos/mealplans"
	"github.com/kysclient/foodly-backend/internal/data/repos/users"
	"github.com/kysclient/foodly-backend/internal/http/response"
	"github.com/kysclient/foodly-backend/internal/pkg/apperr"
	"github.com/kysclient/foodly-backend/internal/pkg/requestdata"
	"github.com/kysclient/foodly-backend/internal/services"
)

type MealPlanHandler struct {
	plans services.MealPlanService
}

func NewMealPlanHandler(plans services.MealPlanService) *MealPlanHandler {
	return &MealPlanHandler{plans: plans}
}

// POST /api/meal-plans
//
// Submission is asynchronous: the response carries the plan in its generating
// state and the client follows progress over SSE.
func (h *MealPlanHandler) CreateMealPlan(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", errors.New("not authenticated"))
		return
	}
	var req services.CreateMealPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	plan, err := h.plans.Create(c.Request.Context(), rd.UserID, req)
	if err != nil {
		if errors.Is(err, apperr.ErrInvalidArgument) {
			response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
			return
		}
		if errors.Is(err, users.ErrUserNotFound) {
			response.RespondError(c, http.StatusNotFound, "user_not_found", err)
			return
		}
		response.RespondError(c, http.StatusInternalServerError, "create_meal_plan_failed", err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{
		"mealPlan": plan,
		"message":  "Meal plan generation started.",
	})
}

// GET /api/meal-plans/:id
func (h *MealPlanHandler) GetMealPlan(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", errors.New("not authenticated"))
		return
	}
	planID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_meal_plan_id", err)
		return
	}
	plan, err := h.plans.GetByID(c.Request.Context(), planID, rd.UserID)
	if err != nil {
		if errors.Is(err, mealplans.ErrMealPlanNotFound) {
			response.RespondError(c, http.StatusNotFound, "meal_plan_not_found", err)
			return
		}
		response.RespondError(c, http.StatusInternalServerError, "get_meal_plan_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"mealPlan": plan})
}

// GET /api/meal-plans?page=1&limit=10
func (h *MealPlanHandler) ListMealPlans(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", errors.New("not authenticated"))
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	plans, total, err := h.plans.ListForUser(c.Request.Context(), rd.UserID, page, limit)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "list_meal_plans_failed", err)
		return
	}
	response.RespondOK(c, gin.H{
		"mealPlans": plans,
		"total":     total,
		"page":      page,
		"limit":     limit,
	})
}
