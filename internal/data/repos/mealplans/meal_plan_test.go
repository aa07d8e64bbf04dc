package mealplans

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/kysclient/foodly-backend/internal/data/repos/testutil"
	"github.com/kysclient/foodly-backend/internal/domain"
	"github.com/kysclient/foodly-backend/internal/pkg/dbctx"
)

func seedPlan(tb testing.TB, repo MealPlanRepo, dbc dbctx.Context, userID uuid.UUID, status string, createdAt time.Time) *domain.MealPlan {
	tb.Helper()
	plan, err := repo.Create(dbc, &domain.MealPlan{
		ID:            uuid.New(),
		UserID:        userID,
		Title:         "test plan",
		StartDate:     time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:       time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC),
		DailyCalories: 2200,
		Status:        status,
		CreatedAt:     createdAt,
		UpdatedAt:     createdAt,
	})
	if err != nil {
		tb.Fatalf("seed plan: %v", err)
	}
	return plan
}

func TestMealPlanRepoGetScopedToUser(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewMealPlanRepo(db, testutil.Logger(t))

	owner := uuid.New()
	plan := seedPlan(t, repo, dbc, owner, domain.MealPlanStatusGenerating, time.Now().UTC())

	got, err := repo.GetByIDForUser(dbc, plan.ID, owner)
	if err != nil || got.ID != plan.ID {
		t.Fatalf("GetByIDForUser: got=%+v err=%v", got, err)
	}
	if _, err := repo.GetByIDForUser(dbc, plan.ID, uuid.New()); !errors.Is(err, ErrMealPlanNotFound) {
		t.Fatalf("other user's lookup should miss: %v", err)
	}
	if _, err := repo.GetByID(dbc, uuid.New()); !errors.Is(err, ErrMealPlanNotFound) {
		t.Fatalf("unknown id should miss: %v", err)
	}
}

func TestMealPlanRepoListByUser(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewMealPlanRepo(db, testutil.Logger(t))

	owner := uuid.New()
	now := time.Now().UTC()
	var newest *domain.MealPlan
	for i := 0; i < 3; i++ {
		newest = seedPlan(t, repo, dbc, owner, domain.MealPlanStatusGenerating, now.Add(time.Duration(i)*time.Minute))
	}
	seedPlan(t, repo, dbc, uuid.New(), domain.MealPlanStatusGenerating, now)

	plans, total, err := repo.ListByUser(dbc, owner, 1, 2)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if total != 3 {
		t.Fatalf("total: expected 3, got %d", total)
	}
	if len(plans) != 2 {
		t.Fatalf("page size: expected 2, got %d", len(plans))
	}
	if plans[0].ID != newest.ID {
		t.Fatalf("expected newest first, got %v", plans[0].ID)
	}

	rest, _, err := repo.ListByUser(dbc, owner, 2, 2)
	if err != nil {
		t.Fatalf("ListByUser page 2: %v", err)
	}
	if len(rest) != 1 {
		t.Fatalf("page 2: expected 1, got %d", len(rest))
	}
}

func TestMealPlanRepoCompleteGeneration(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewMealPlanRepo(db, testutil.Logger(t))

	plan := seedPlan(t, repo, dbc, uuid.New(), domain.MealPlanStatusGenerating, time.Now().UTC())

	planData := datatypes.JSON([]byte(`{"mealPlanData":[]}`))
	summary := datatypes.JSON([]byte(`{"averageCalories":2100}`))
	if err := repo.CompleteGeneration(dbc, plan.ID, planData, summary); err != nil {
		t.Fatalf("CompleteGeneration: %v", err)
	}

	got, err := repo.GetByID(dbc, plan.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != domain.MealPlanStatusCompleted {
		t.Fatalf("status: expected completed, got %s", got.Status)
	}
	if len(got.PlanData) == 0 || len(got.NutritionSummary) == 0 {
		t.Fatalf("plan data and summary should be set together: %+v", got)
	}

	// Terminal rows are immutable.
	if err := repo.MarkFailed(dbc, plan.ID); !errors.Is(err, ErrNotGenerating) {
		t.Fatalf("completed plan must not become failed: %v", err)
	}
	if err := repo.CompleteGeneration(dbc, plan.ID, planData, summary); !errors.Is(err, ErrNotGenerating) {
		t.Fatalf("double completion should be rejected: %v", err)
	}
}

func TestMealPlanRepoMarkFailed(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewMealPlanRepo(db, testutil.Logger(t))

	plan := seedPlan(t, repo, dbc, uuid.New(), domain.MealPlanStatusGenerating, time.Now().UTC())

	if err := repo.MarkFailed(dbc, plan.ID); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}
	got, err := repo.GetByID(dbc, plan.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != domain.MealPlanStatusFailed {
		t.Fatalf("status: expected failed, got %s", got.Status)
	}
	if len(got.PlanData) != 0 {
		t.Fatalf("failed plan should have no plan data")
	}

	if err := repo.CompleteGeneration(dbc, plan.ID, datatypes.JSON([]byte("{}")), datatypes.JSON([]byte("{}"))); !errors.Is(err, ErrNotGenerating) {
		t.Fatalf("failed plan must not become completed: %v", err)
	}
}
