package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"budgetly/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// Date returns midnight UTC on the given calendar day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// CreateTestExpense inserts an expense with a unique description.
func CreateTestExpense(t *testing.T, db *gorm.DB, category, amount string, date time.Time) *models.Expense {
	t.Helper()

	expense := &models.Expense{
		Description: fmt.Sprintf("Test expense %d", nextID()),
		Amount:      decimal.RequireFromString(amount),
		Category:    category,
		Date:        date,
	}
	if err := db.Create(expense).Error; err != nil {
		t.Fatalf("failed to create test expense: %v", err)
	}
	return expense
}

// CreateTestBudget inserts a budget over [start, end]. Callers are
// responsible for keeping at most one active.
func CreateTestBudget(t *testing.T, db *gorm.DB, total string, start, end time.Time, active bool) *models.Budget {
	t.Helper()

	description := fmt.Sprintf("Test budget %d", nextID())
	budget := &models.Budget{
		TotalAmount: decimal.RequireFromString(total),
		StartDate:   start,
		EndDate:     end,
		Description: &description,
		IsActive:    active,
	}
	if err := db.Create(budget).Error; err != nil {
		t.Fatalf("failed to create test budget: %v", err)
	}
	return budget
}
