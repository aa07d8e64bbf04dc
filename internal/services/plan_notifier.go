package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/kysclient/foodly-backend/internal/domain"
	"github.com/kysclient/foodly-backend/internal/realtime"
)

// PlanStatusEvent is the wire shape pushed to subscribers:
// {mealPlanId, status, progress?, message}.
type PlanStatusEvent struct {
	MealPlanID uuid.UUID `json:"mealPlanId"`
	Status     string    `json:"status"`
	Progress   *int      `json:"progress,omitempty"`
	Message    string    `json:"message"`
}

// PlanNotifier publishes generation progress for a plan to the owning user's
// channel and to the plan's own channel. All methods are fire-and-forget.
type PlanNotifier interface {
	PlanQueued(userID uuid.UUID, planID uuid.UUID)
	PlanProgress(userID uuid.UUID, planID uuid.UUID, progress int, message string)
	PlanCompleted(userID uuid.UUID, planID uuid.UUID, message string)
	PlanFailed(userID uuid.UUID, planID uuid.UUID, message string)
}

type planNotifier struct {
	emit Emitter
}

func NewPlanNotifier(emit Emitter) PlanNotifier {
	return &planNotifier{emit: emit}
}

func (n *planNotifier) PlanQueued(userID uuid.UUID, planID uuid.UUID) {
	n.publish(userID, planID, PlanStatusEvent{
		MealPlanID: planID,
		Status:     domain.MealPlanStatusGenerating,
		Progress:   intPtr(0),
		Message:    "Starting meal plan generation...",
	})
}

func (n *planNotifier) PlanProgress(userID uuid.UUID, planID uuid.UUID, progress int, message string) {
	n.publish(userID, planID, PlanStatusEvent{
		MealPlanID: planID,
		Status:     domain.MealPlanStatusGenerating,
		Progress:   intPtr(progress),
		Message:    message,
	})
}

func (n *planNotifier) PlanCompleted(userID uuid.UUID, planID uuid.UUID, message string) {
	n.publish(userID, planID, PlanStatusEvent{
		MealPlanID: planID,
		Status:     domain.MealPlanStatusCompleted,
		Progress:   intPtr(100),
		Message:    message,
	})
}

func (n *planNotifier) PlanFailed(userID uuid.UUID, planID uuid.UUID, message string) {
	n.publish(userID, planID, PlanStatusEvent{
		MealPlanID: planID,
		Status:     domain.MealPlanStatusFailed,
		Message:    message,
	})
}

func (n *planNotifier) publish(userID uuid.UUID, planID uuid.UUID, ev PlanStatusEvent) {
	if n == nil || n.emit == nil || userID == uuid.Nil {
		return
	}
	ctx := context.Background()
	n.emit.Emit(ctx, realtime.Message{
		Channel: realtime.UserChannel(userID),
		Event:   realtime.EventMealPlanStatus,
		Data:    ev,
	})
	n.emit.Emit(ctx, realtime.Message{
		Channel: realtime.PlanChannel(planID),
		Event:   realtime.EventMealPlanUpdated,
		Data:    ev,
	})
}

func intPtr(v int) *int { return &v }
