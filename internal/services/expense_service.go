package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "budgetly/internal/errors"
	"budgetly/internal/events"
	"budgetly/internal/models"
	"budgetly/internal/pagination"
	"budgetly/internal/validator"
)

// expenseService handles expense records.
type expenseService struct {
	db        *gorm.DB
	now       Clock
	publisher events.Publisher
}

// NewExpenseService creates a new ExpenseServicer.
func NewExpenseService(db *gorm.DB, now Clock, publisher events.Publisher) ExpenseServicer {
	return &expenseService{db: db, now: now, publisher: publisher}
}

// newExpense validates input and builds the record it describes.
func newExpense(input ExpenseInput, now time.Time) (*models.Expense, error) {
	input.Amount = input.Amount.Round(2)
	fields := validator.Struct(input)

	var date time.Time
	if !hasField(fields, "date") {
		date, _ = validator.ParseDate(input.Date)
		if fe := validator.CheckNotFuture("date", date, now); fe != nil {
			fields = append(fields, *fe)
		}
	}
	if err := apperrors.NewValidation(fields); err != nil {
		return nil, err
	}

	return &models.Expense{
		Description: input.Description,
		Amount:      input.Amount,
		Category:    input.Category,
		Date:        date,
		Notes:       input.Notes,
	}, nil
}

func hasField(fields []apperrors.FieldError, name string) bool {
	for _, f := range fields {
		if f.Field == name {
			return true
		}
	}
	return false
}

func (s *expenseService) query(ctx context.Context, filter ExpenseFilter) *gorm.DB {
	q := s.db.WithContext(ctx).Model(&models.Expense{})
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.From != nil {
		q = q.Where("date >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("date <= ?", *filter.To)
	}
	return q
}

// ListExpenses returns every expense matching filter, newest first.
func (s *expenseService) ListExpenses(ctx context.Context, filter ExpenseFilter) ([]models.Expense, error) {
	expenses := []models.Expense{}
	if err := s.query(ctx, filter).Scopes(newestExpensesFirst).Find(&expenses).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return expenses, nil
}

// ListExpensesPage returns one page of expenses matching filter, newest first.
func (s *expenseService) ListExpensesPage(ctx context.Context, filter ExpenseFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Expense], error) {
	page.Defaults()

	var totalItems int64
	if err := s.query(ctx, filter).Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var expenses []models.Expense
	if err := s.query(ctx, filter).Scopes(newestExpensesFirst, pagination.Paginate(page)).Find(&expenses).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(expenses, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetExpense returns an expense by ID.
func (s *expenseService) GetExpense(ctx context.Context, id string) (*models.Expense, error) {
	var expense models.Expense
	if err := s.db.WithContext(ctx).First(&expense, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrExpenseNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &expense, nil
}

// CreateExpense validates and stores a new expense.
func (s *expenseService) CreateExpense(ctx context.Context, input ExpenseInput) (*models.Expense, error) {
	expense, err := newExpense(input, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Create(expense).Error; err != nil {
		return nil, storeError(err)
	}

	events.Dispatch(ctx, s.publisher, events.New(events.ExpenseCreated, expense.ID, expense, s.now()))
	return expense, nil
}

// UpdateExpense replaces an expense's content if it is still at version.
func (s *expenseService) UpdateExpense(ctx context.Context, id string, input ExpenseInput, version int64) (*models.Expense, error) {
	expense, err := newExpense(input, s.now())
	if err != nil {
		return nil, err
	}

	updates := bumpVersion(s.now())
	updates["description"] = expense.Description
	updates["amount"] = expense.Amount
	updates["category"] = expense.Category
	updates["date"] = expense.Date
	updates["notes"] = expense.Notes

	res := s.db.WithContext(ctx).Model(&models.Expense{}).
		Where("id = ? AND version = ?", id, version).
		Updates(updates)
	if res.Error != nil {
		return nil, storeError(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, staleWrite(s.db.WithContext(ctx), &models.Expense{}, id, apperrors.ErrExpenseNotFound)
	}

	updated, err := s.GetExpense(ctx, id)
	if err != nil {
		return nil, err
	}
	events.Dispatch(ctx, s.publisher, events.New(events.ExpenseUpdated, id, updated, s.now()))
	return updated, nil
}

// DeleteExpense hard-deletes an expense. Deleting a missing expense succeeds.
func (s *expenseService) DeleteExpense(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&models.Expense{}, "id = ?", id)
	if res.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected > 0 {
		events.Dispatch(ctx, s.publisher, events.New(events.ExpenseDeleted, id, nil, s.now()))
	}
	return nil
}

// ExpensesBetween returns the expenses dated within [from, to], newest first.
func (s *expenseService) ExpensesBetween(ctx context.Context, from, to time.Time) ([]models.Expense, error) {
	expenses := []models.Expense{}
	err := s.db.WithContext(ctx).
		Scopes(withinWindow(from, to), newestExpensesFirst).
		Find(&expenses).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return expenses, nil
}
