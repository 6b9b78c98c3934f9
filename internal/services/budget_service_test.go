package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"budgetly/internal/events"
	"budgetly/internal/models"
	"budgetly/internal/pagination"
	"budgetly/internal/testutil"
)

func validBudgetInput(active bool) BudgetInput {
	return BudgetInput{
		TotalAmount: decimal.RequireFromString("1500.00"),
		StartDate:   "2025-03-01",
		EndDate:     "2025-03-31",
		Description: strPtr("March"),
		IsActive:    &active,
	}
}

func countActive(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	if err := db.Model(&models.Budget{}).Where("is_active = ?", true).Count(&n).Error; err != nil {
		t.Fatalf("count active budgets: %v", err)
	}
	return n
}

func TestCreateBudget(t *testing.T) {
	ctx := context.Background()

	t.Run("valid", func(t *testing.T) {
		db := setupDB(t)
		pub := &recordingPublisher{}
		svc := NewBudgetService(db, fixedClock(testNow), pub)

		budget, err := svc.CreateBudget(ctx, validBudgetInput(false))
		testutil.AssertNoError(t, err)

		testutil.AssertDecimal(t, "TotalAmount", budget.TotalAmount, "1500")
		if budget.DurationDays() != 30 {
			t.Errorf("DurationDays = %d, want 30", budget.DurationDays())
		}
		if got := pub.types(); len(got) != 1 || got[0] != events.BudgetCreated {
			t.Errorf("events = %v", got)
		}
	})

	t.Run("omitted_active_flag_means_active", func(t *testing.T) {
		db := setupDB(t)
		svc := NewBudgetService(db, fixedClock(testNow), events.Nop{})

		input := validBudgetInput(false)
		input.IsActive = nil
		budget, err := svc.CreateBudget(ctx, input)
		testutil.AssertNoError(t, err)

		if !budget.IsActive {
			t.Error("expected a budget created without is_active to be active")
		}
	})

	t.Run("end_must_follow_start", func(t *testing.T) {
		db := setupDB(t)
		svc := NewBudgetService(db, fixedClock(testNow), events.Nop{})

		input := validBudgetInput(false)
		input.EndDate = input.StartDate
		_, err := svc.CreateBudget(ctx, input)
		testutil.AssertFieldError(t, err, "end_date")
	})

	t.Run("total_below_one_rejected", func(t *testing.T) {
		db := setupDB(t)
		svc := NewBudgetService(db, fixedClock(testNow), events.Nop{})

		input := validBudgetInput(false)
		input.TotalAmount = decimal.RequireFromString("0.99")
		_, err := svc.CreateBudget(ctx, input)
		testutil.AssertFieldError(t, err, "total_amount")
	})

	t.Run("active_replaces_current", func(t *testing.T) {
		db := setupDB(t)
		svc := NewBudgetService(db, fixedClock(testNow), events.Nop{})
		previous := testutil.CreateTestBudget(t, db, "900.00", testutil.Date(2025, 2, 1), testutil.Date(2025, 2, 28), true)

		created, err := svc.CreateBudget(ctx, validBudgetInput(true))
		testutil.AssertNoError(t, err)

		if n := countActive(t, db); n != 1 {
			t.Fatalf("expected exactly one active budget, got %d", n)
		}
		reloaded, err := svc.GetBudget(ctx, previous.ID)
		testutil.AssertNoError(t, err)
		if reloaded.IsActive {
			t.Error("previous budget should have been deactivated")
		}
		if reloaded.Version != previous.Version+1 {
			t.Errorf("deactivation should bump version, got %d", reloaded.Version)
		}
		if !created.IsActive {
			t.Error("new budget should be active")
		}
	})
}

func TestActivateBudget(t *testing.T) {
	ctx := context.Background()

	t.Run("leaves_exactly_one_active", func(t *testing.T) {
		db := setupDB(t)
		pub := &recordingPublisher{}
		svc := NewBudgetService(db, fixedClock(testNow), pub)
		first := testutil.CreateTestBudget(t, db, "900.00", testutil.Date(2025, 2, 1), testutil.Date(2025, 2, 28), true)
		second := testutil.CreateTestBudget(t, db, "1200.00", testutil.Date(2025, 3, 1), testutil.Date(2025, 3, 31), false)

		activated, err := svc.ActivateBudget(ctx, second.ID)
		testutil.AssertNoError(t, err)

		if !activated.IsActive || activated.ID != second.ID {
			t.Errorf("unexpected activated budget: %+v", activated)
		}
		if n := countActive(t, db); n != 1 {
			t.Fatalf("expected exactly one active budget, got %d", n)
		}
		reloaded, _ := svc.GetBudget(ctx, first.ID)
		if reloaded.IsActive {
			t.Error("first budget should be inactive")
		}
		if got := pub.types(); len(got) != 1 || got[0] != events.BudgetActivated {
			t.Errorf("events = %v", got)
		}
	})

	t.Run("already_active_is_idempotent", func(t *testing.T) {
		db := setupDB(t)
		svc := NewBudgetService(db, fixedClock(testNow), events.Nop{})
		only := testutil.CreateTestBudget(t, db, "900.00", testutil.Date(2025, 3, 1), testutil.Date(2025, 3, 31), true)

		activated, err := svc.ActivateBudget(ctx, only.ID)
		testutil.AssertNoError(t, err)
		if !activated.IsActive || activated.Version != only.Version {
			t.Errorf("unexpected result: %+v", activated)
		}
	})

	t.Run("missing", func(t *testing.T) {
		db := setupDB(t)
		svc := NewBudgetService(db, fixedClock(testNow), events.Nop{})

		_, err := svc.ActivateBudget(ctx, "0195a0a0-0000-7000-8000-000000000000")
		testutil.AssertAppError(t, err, "BUDGET_NOT_FOUND")
	})
}

func TestActivateBudget_Concurrent(t *testing.T) {
	ctx := context.Background()
	const n = 8

	t.Run("activations_race", func(t *testing.T) {
		db := setupDB(t)
		svc := NewBudgetService(db, fixedClock(testNow), events.Nop{})

		ids := make([]string, n)
		for i := range ids {
			month := time.Month(i + 1)
			b := testutil.CreateTestBudget(t, db, "500.00", testutil.Date(2025, month, 1), testutil.Date(2025, month, 28), false)
			ids[i] = b.ID
		}

		var wg sync.WaitGroup
		errs := make(chan error, n)
		for _, id := range ids {
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				if _, err := svc.ActivateBudget(ctx, id); err != nil {
					errs <- err
				}
			}(id)
		}
		wg.Wait()
		close(errs)

		for err := range errs {
			t.Errorf("ActivateBudget: %v", err)
		}
		if got := countActive(t, db); got != 1 {
			t.Fatalf("expected exactly one active budget, got %d", got)
		}
	})

	t.Run("creates_and_activations_race", func(t *testing.T) {
		db := setupDB(t)
		svc := NewBudgetService(db, fixedClock(testNow), events.Nop{})

		ids := make([]string, n/2)
		for i := range ids {
			month := time.Month(i + 1)
			b := testutil.CreateTestBudget(t, db, "500.00", testutil.Date(2025, month, 1), testutil.Date(2025, month, 28), false)
			ids[i] = b.ID
		}

		var wg sync.WaitGroup
		errs := make(chan error, n)
		for _, id := range ids {
			wg.Add(2)
			go func(id string) {
				defer wg.Done()
				if _, err := svc.ActivateBudget(ctx, id); err != nil {
					errs <- err
				}
			}(id)
			go func() {
				defer wg.Done()
				if _, err := svc.CreateBudget(ctx, validBudgetInput(true)); err != nil {
					errs <- err
				}
			}()
		}
		wg.Wait()
		close(errs)

		for err := range errs {
			t.Errorf("concurrent write: %v", err)
		}
		var total int64
		testutil.AssertNoError(t, db.Model(&models.Budget{}).Count(&total).Error)
		if total != n {
			t.Errorf("expected %d budgets, got %d", n, total)
		}
		if got := countActive(t, db); got != 1 {
			t.Fatalf("expected exactly one active budget, got %d", got)
		}
	})
}

func TestUpdateBudget(t *testing.T) {
	ctx := context.Background()

	t.Run("replaces_content", func(t *testing.T) {
		db := setupDB(t)
		svc := NewBudgetService(db, fixedClock(testNow), events.Nop{})
		existing := testutil.CreateTestBudget(t, db, "900.00", testutil.Date(2025, 2, 1), testutil.Date(2025, 2, 28), false)

		updated, err := svc.UpdateBudget(ctx, existing.ID, validBudgetInput(false), existing.Version)
		testutil.AssertNoError(t, err)
		testutil.AssertDecimal(t, "TotalAmount", updated.TotalAmount, "1500")
		if !updated.StartDate.Equal(testutil.Date(2025, 3, 1)) {
			t.Errorf("StartDate = %v", updated.StartDate)
		}
		if updated.Version != existing.Version+1 {
			t.Errorf("Version = %d, want %d", updated.Version, existing.Version+1)
		}
	})

	t.Run("activating_via_update_deactivates_others", func(t *testing.T) {
		db := setupDB(t)
		svc := NewBudgetService(db, fixedClock(testNow), events.Nop{})
		testutil.CreateTestBudget(t, db, "900.00", testutil.Date(2025, 2, 1), testutil.Date(2025, 2, 28), true)
		target := testutil.CreateTestBudget(t, db, "1200.00", testutil.Date(2025, 3, 1), testutil.Date(2025, 3, 31), false)

		_, err := svc.UpdateBudget(ctx, target.ID, validBudgetInput(true), target.Version)
		testutil.AssertNoError(t, err)
		if n := countActive(t, db); n != 1 {
			t.Errorf("expected exactly one active budget, got %d", n)
		}
	})

	t.Run("stale_version", func(t *testing.T) {
		db := setupDB(t)
		svc := NewBudgetService(db, fixedClock(testNow), events.Nop{})
		existing := testutil.CreateTestBudget(t, db, "900.00", testutil.Date(2025, 2, 1), testutil.Date(2025, 2, 28), false)

		_, err := svc.UpdateBudget(ctx, existing.ID, validBudgetInput(false), existing.Version+5)
		testutil.AssertAppError(t, err, "CONCURRENCY_CONFLICT")
	})

	t.Run("missing", func(t *testing.T) {
		db := setupDB(t)
		svc := NewBudgetService(db, fixedClock(testNow), events.Nop{})

		_, err := svc.UpdateBudget(ctx, "0195a0a0-0000-7000-8000-000000000000", validBudgetInput(false), 1)
		testutil.AssertAppError(t, err, "BUDGET_NOT_FOUND")
	})
}

func TestDeleteBudget(t *testing.T) {
	ctx := context.Background()
	db := setupDB(t)
	pub := &recordingPublisher{}
	svc := NewBudgetService(db, fixedClock(testNow), pub)
	existing := testutil.CreateTestBudget(t, db, "900.00", testutil.Date(2025, 3, 1), testutil.Date(2025, 3, 31), true)

	testutil.AssertNoError(t, svc.DeleteBudget(ctx, existing.ID))
	testutil.AssertNoError(t, svc.DeleteBudget(ctx, existing.ID))

	_, err := svc.GetBudget(ctx, existing.ID)
	testutil.AssertAppError(t, err, "BUDGET_NOT_FOUND")
	if got := pub.types(); len(got) != 1 || got[0] != events.BudgetDeleted {
		t.Errorf("expected a single delete event, got %v", got)
	}
}

func TestActiveBudget(t *testing.T) {
	ctx := context.Background()

	t.Run("none", func(t *testing.T) {
		db := setupDB(t)
		svc := NewBudgetService(db, fixedClock(testNow), events.Nop{})
		testutil.CreateTestBudget(t, db, "900.00", testutil.Date(2025, 3, 1), testutil.Date(2025, 3, 31), false)

		active, err := svc.ActiveBudget(ctx)
		testutil.AssertNoError(t, err)
		if active != nil {
			t.Errorf("expected no active budget, got %+v", active)
		}
	})

	t.Run("active_and_current", func(t *testing.T) {
		db := setupDB(t)
		svc := NewBudgetService(db, fixedClock(testNow), events.Nop{})
		want := testutil.CreateTestBudget(t, db, "900.00", testutil.Date(2025, 3, 1), testutil.Date(2025, 3, 31), true)

		active, err := svc.ActiveBudget(ctx)
		testutil.AssertNoError(t, err)
		if active == nil || active.ID != want.ID {
			t.Errorf("expected %s, got %+v", want.ID, active)
		}
	})

	t.Run("active_but_expired", func(t *testing.T) {
		db := setupDB(t)
		svc := NewBudgetService(db, fixedClock(testNow), events.Nop{})
		testutil.CreateTestBudget(t, db, "900.00", testutil.Date(2025, 2, 1), testutil.Date(2025, 2, 28), true)

		active, err := svc.ActiveBudget(ctx)
		testutil.AssertNoError(t, err)
		if active != nil {
			t.Errorf("an expired budget should not resolve, got %+v", active)
		}
	})
}

func TestListBudgets(t *testing.T) {
	ctx := context.Background()
	db := setupDB(t)
	svc := NewBudgetService(db, fixedClock(testNow), events.Nop{})

	jan := testutil.CreateTestBudget(t, db, "800.00", testutil.Date(2025, 1, 1), testutil.Date(2025, 1, 31), false)
	mar := testutil.CreateTestBudget(t, db, "900.00", testutil.Date(2025, 3, 1), testutil.Date(2025, 3, 31), true)
	feb := testutil.CreateTestBudget(t, db, "850.00", testutil.Date(2025, 2, 1), testutil.Date(2025, 2, 28), false)

	t.Run("latest_start_first", func(t *testing.T) {
		got, err := svc.ListBudgets(ctx, BudgetFilter{}, 0)
		testutil.AssertNoError(t, err)
		want := []string{mar.ID, feb.ID, jan.ID}
		if len(got) != len(want) {
			t.Fatalf("expected %d budgets, got %d", len(want), len(got))
		}
		for i, b := range got {
			if b.ID != want[i] {
				t.Errorf("position %d: got %s, want %s", i, b.ID, want[i])
			}
		}
	})

	t.Run("limit", func(t *testing.T) {
		got, err := svc.ListBudgets(ctx, BudgetFilter{}, 2)
		testutil.AssertNoError(t, err)
		if len(got) != 2 {
			t.Errorf("expected 2 budgets, got %d", len(got))
		}
	})

	t.Run("inactive_filter", func(t *testing.T) {
		inactive := false
		got, err := svc.ListBudgets(ctx, BudgetFilter{IsActive: &inactive}, 0)
		testutil.AssertNoError(t, err)
		if len(got) != 2 {
			t.Errorf("expected 2 inactive budgets, got %d", len(got))
		}
	})

	t.Run("paged", func(t *testing.T) {
		page, err := svc.ListBudgetsPage(ctx, BudgetFilter{}, pagination.PageRequest{Page: 1, PageSize: 2})
		testutil.AssertNoError(t, err)
		if page.TotalItems != 3 || !page.HasNext || len(page.Data) != 2 {
			t.Errorf("unexpected page: %+v", page)
		}
	})
}
