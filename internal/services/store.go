package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "budgetly/internal/errors"
)

// newestExpensesFirst orders expenses by date, then insertion order.
func newestExpensesFirst(db *gorm.DB) *gorm.DB {
	return db.Order("date DESC").Order("created_at DESC").Order("id DESC")
}

// newestBudgetsFirst orders budgets by start date, then insertion order.
func newestBudgetsFirst(db *gorm.DB) *gorm.DB {
	return db.Order("start_date DESC").Order("created_at DESC").Order("id DESC")
}

// withinWindow restricts expenses to dates in [from, to]. Expenses carry no
// reference to a budget, so window membership is always recomputed from dates.
func withinWindow(from, to time.Time) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("date >= ? AND date <= ?", from, to)
	}
}

// bumpVersion returns the column updates shared by every versioned write.
func bumpVersion(now time.Time) map[string]any {
	return map[string]any{
		"version":    gorm.Expr("version + 1"),
		"updated_at": now,
	}
}

// staleWrite explains a versioned write that matched no row: the record is
// either gone or was changed since it was read.
func staleWrite(tx *gorm.DB, model any, id string, notFound *apperrors.AppError) error {
	var n int64
	if err := tx.Model(model).Where("id = ?", id).Count(&n).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if n == 0 {
		return notFound
	}
	return apperrors.ErrConcurrencyConflict
}

// storeError maps a database error onto the AppError taxonomy.
func storeError(err error) error {
	var appErr *apperrors.AppError
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperrors.Wrap(apperrors.ErrConcurrencyConflict, err)
	default:
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
}
