package mealplan

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/kysclient/foodly-backend/internal/clients/openai"
	"github.com/kysclient/foodly-backend/internal/data/repos/mealplans"
	"github.com/kysclient/foodly-backend/internal/domain"
	"github.com/kysclient/foodly-backend/internal/jobs/runtime"
	"github.com/kysclient/foodly-backend/internal/pkg/dbctx"
	"github.com/kysclient/foodly-backend/internal/pkg/logger"
	"github.com/kysclient/foodly-backend/internal/services"
)

// Handler runs one meal plan generation end to end: prompt the model, parse
// the plan, compute the nutrition summary, and flip the plan record to its
// terminal status. Progress is reported at fixed milestones so clients see
// the same sequence regardless of how long each phase takes.
type Handler struct {
	log    *logger.Logger
	plans  mealplans.MealPlanRepo
	ai     openai.Client
	notify services.PlanNotifier
}

func NewHandler(baseLog *logger.Logger, plans mealplans.MealPlanRepo, ai openai.Client, notify services.PlanNotifier) *Handler {
	return &Handler{
		log:    baseLog.With("handler", "MealPlanGeneration"),
		plans:  plans,
		ai:     ai,
		notify: notify,
	}
}

func (h *Handler) Type() string { return domain.JobTypeMealPlanGeneration }

func (h *Handler) Run(jc *runtime.Context) error {
	var payload domain.MealPlanJobPayload
	if err := jc.DecodePayload(&payload); err != nil {
		return h.fail(jc, payload, "decode", fmt.Errorf("decode payload: %w", err))
	}
	log := h.log.With("meal_plan_id", payload.MealPlanID, "user_id", payload.UserID)
	log.Info("Starting meal plan generation")

	jc.Progress("generating", 10, "")
	h.notify.PlanProgress(payload.UserID, payload.MealPlanID, 10, "Generating your meal plan...")

	system, user := buildPrompts(payload)

	jc.Progress("generating", 30, "")
	h.notify.PlanProgress(payload.UserID, payload.MealPlanID, 30, "Asking the nutritionist model...")

	raw, err := h.ai.GenerateText(jc.Ctx, system, user)
	if err != nil {
		return h.fail(jc, payload, "generate", err)
	}

	jc.Progress("parsing", 60, "")
	h.notify.PlanProgress(payload.UserID, payload.MealPlanID, 60, "Validating the generated plan...")

	plan, err := parseGeneratedPlan(raw)
	if err != nil {
		return h.fail(jc, payload, "parse", err)
	}

	jc.Progress("summarizing", 80, "")
	h.notify.PlanProgress(payload.UserID, payload.MealPlanID, 80, "Calculating nutrition totals...")

	summary, err := services.SummarizeNutrition(plan.Days)
	if err != nil {
		return h.fail(jc, payload, "summarize", openai.NewResponseInvalid(err.Error()))
	}

	planJSON, err := json.Marshal(plan)
	if err != nil {
		return h.fail(jc, payload, "persist", fmt.Errorf("encode plan: %w", err))
	}
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return h.fail(jc, payload, "persist", fmt.Errorf("encode summary: %w", err))
	}
	dbc := dbctx.Context{Ctx: jc.Ctx}
	if err := h.plans.CompleteGeneration(dbc, payload.MealPlanID, datatypes.JSON(planJSON), datatypes.JSON(summaryJSON)); err != nil {
		return h.fail(jc, payload, "persist", fmt.Errorf("complete generation: %w", err))
	}

	jc.Succeed("completed", map[string]any{
		"meal_plan_id": payload.MealPlanID,
		"total_days":   summary.TotalDays,
	})
	h.notify.PlanCompleted(payload.UserID, payload.MealPlanID, "Your meal plan is ready!")
	log.Info("Meal plan generation completed", "total_days", summary.TotalDays)
	return nil
}

// fail records the failure on the plan row first, then on the job run, and
// only then tells the client. A subscriber reacting to the failed event will
// always read a consistent FAILED record.
func (h *Handler) fail(jc *runtime.Context, payload domain.MealPlanJobPayload, stage string, cause error) error {
	h.log.Warn("Meal plan generation failed",
		"meal_plan_id", payload.MealPlanID, "user_id", payload.UserID, "stage", stage, "error", cause)
	if payload.MealPlanID != uuid.Nil {
		dbc := dbctx.Context{Ctx: jc.Ctx}
		err := h.plans.MarkFailed(dbc, payload.MealPlanID)
		if err != nil && !errors.Is(err, mealplans.ErrNotGenerating) {
			// One retry before giving up; without the terminal write the plan
			// row stays generating with no job left to drive it.
			h.log.Warn("MarkFailed error, retrying", "meal_plan_id", payload.MealPlanID, "error", err)
			err = h.plans.MarkFailed(dbc, payload.MealPlanID)
		}
		if err != nil && !errors.Is(err, mealplans.ErrNotGenerating) {
			h.log.Error("plan row could not be marked failed", "meal_plan_id", payload.MealPlanID, "error", err)
		}
	}
	jc.Fail(stage, cause)
	if payload.UserID != uuid.Nil {
		h.notify.PlanFailed(payload.UserID, payload.MealPlanID, openai.UserMessageFor(cause))
	}
	return cause
}

func parseGeneratedPlan(raw string) (*domain.GeneratedPlan, error) {
	cleaned := openai.StripCodeFences(raw)
	var plan domain.GeneratedPlan
	if err := json.Unmarshal([]byte(cleaned), &plan); err != nil {
		return nil, openai.NewResponseInvalid("response is not valid JSON: " + err.Error())
	}
	if len(plan.Days) == 0 {
		return nil, openai.NewResponseInvalid("response contains no daily plans")
	}
	return &plan, nil
}
