package mealplans

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/kysclient/foodly-backend/internal/domain"
	"github.com/kysclient/foodly-backend/internal/pkg/dbctx"
	"github.com/kysclient/foodly-backend/internal/pkg/logger"
)

var (
	ErrMealPlanNotFound = errors.New("meal plan not found")
	// ErrNotGenerating is returned when a terminal transition targets a row
	// that is no longer in the generating state. Terminal rows stay as-is.
	ErrNotGenerating = errors.New("meal plan is not generating")
)

type MealPlanRepo interface {
	Create(dbc dbctx.Context, plan *domain.MealPlan) (*domain.MealPlan, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.MealPlan, error)
	GetByIDForUser(dbc dbctx.Context, id uuid.UUID, userID uuid.UUID) (*domain.MealPlan, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID, page int, limit int) ([]*domain.MealPlan, int64, error)
	CompleteGeneration(dbc dbctx.Context, id uuid.UUID, planData datatypes.JSON, summary datatypes.JSON) error
	MarkFailed(dbc dbctx.Context, id uuid.UUID) error
}

type mealPlanRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMealPlanRepo(db *gorm.DB, baseLog *logger.Logger) MealPlanRepo {
	return &mealPlanRepo{
		db:  db,
		log: baseLog.With("repo", "MealPlanRepo"),
	}
}

func (r *mealPlanRepo) Create(dbc dbctx.Context, plan *domain.MealPlan) (*domain.MealPlan, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if plan == nil {
		return nil, errors.New("nil meal plan")
	}
	if err := transaction.WithContext(dbc.Ctx).Create(plan).Error; err != nil {
		return nil, err
	}
	return plan, nil
}

func (r *mealPlanRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.MealPlan, error) {
	return r.getOne(dbc, map[string]interface{}{"id": id})
}

func (r *mealPlanRepo) GetByIDForUser(dbc dbctx.Context, id uuid.UUID, userID uuid.UUID) (*domain.MealPlan, error) {
	return r.getOne(dbc, map[string]interface{}{"id": id, "user_id": userID})
}

func (r *mealPlanRepo) getOne(dbc dbctx.Context, where map[string]interface{}) (*domain.MealPlan, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var plan domain.MealPlan
	err := transaction.WithContext(dbc.Ctx).Where(where).First(&plan).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMealPlanNotFound
	}
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *mealPlanRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID, page int, limit int) ([]*domain.MealPlan, int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	q := transaction.WithContext(dbc.Ctx).
		Model(&domain.MealPlan{}).
		Where("user_id = ?", userID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var plans []*domain.MealPlan
	if err := q.Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&plans).Error; err != nil {
		return nil, 0, err
	}
	return plans, total, nil
}

// CompleteGeneration persists the generated plan and its nutrition summary and
// flips status to completed in one atomic update. The status guard makes the
// generating→completed transition idempotent-safe: a row another execution
// already finished is left untouched.
func (r *mealPlanRepo) CompleteGeneration(dbc dbctx.Context, id uuid.UUID, planData datatypes.JSON, summary datatypes.JSON) error {
	return r.terminalUpdate(dbc, id, map[string]interface{}{
		"status":            domain.MealPlanStatusCompleted,
		"plan_data":         planData,
		"nutrition_summary": summary,
		"updated_at":        time.Now(),
	})
}

func (r *mealPlanRepo) MarkFailed(dbc dbctx.Context, id uuid.UUID) error {
	return r.terminalUpdate(dbc, id, map[string]interface{}{
		"status":     domain.MealPlanStatusFailed,
		"updated_at": time.Now(),
	})
}

func (r *mealPlanRepo) terminalUpdate(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(dbc.Ctx).
		Model(&domain.MealPlan{}).
		Where("id = ? AND status = ?", id, domain.MealPlanStatusGenerating).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotGenerating
	}
	return nil
}
