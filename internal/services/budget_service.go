package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"gorm.io/gorm"

	apperrors "budgetly/internal/errors"
	"budgetly/internal/events"
	"budgetly/internal/models"
	"budgetly/internal/pagination"
	"budgetly/internal/summary"
	"budgetly/internal/validator"
)

// budgetService handles budget records and owns the single-active invariant.
type budgetService struct {
	db        *gorm.DB
	now       Clock
	publisher events.Publisher

	// activation serializes every write that can set the active flag. The
	// unique index on is_active backs it up across processes.
	activation sync.Mutex
}

// NewBudgetService creates a new BudgetServicer.
func NewBudgetService(db *gorm.DB, now Clock, publisher events.Publisher) BudgetServicer {
	return &budgetService{db: db, now: now, publisher: publisher}
}

// newBudget validates input and builds the record it describes.
func newBudget(input BudgetInput) (*models.Budget, error) {
	input.TotalAmount = input.TotalAmount.Round(2)
	fields := validator.Struct(input)

	var start, end time.Time
	if !hasField(fields, "start_date") && !hasField(fields, "end_date") {
		start, _ = validator.ParseDate(input.StartDate)
		end, _ = validator.ParseDate(input.EndDate)
		if fe := validator.CheckEndAfterStart("end_date", start, end); fe != nil {
			fields = append(fields, *fe)
		}
	}
	if err := apperrors.NewValidation(fields); err != nil {
		return nil, err
	}

	return &models.Budget{
		TotalAmount: input.TotalAmount,
		StartDate:   start,
		EndDate:     end,
		Description: input.Description,
		IsActive:    input.Active(),
	}, nil
}

// deactivateOthers clears the active flag on every budget except keepID.
func deactivateOthers(tx *gorm.DB, keepID string, now time.Time) error {
	q := tx.Model(&models.Budget{}).Where("is_active = ?", true)
	if keepID != "" {
		q = q.Where("id <> ?", keepID)
	}
	updates := bumpVersion(now)
	updates["is_active"] = false
	return q.Updates(updates).Error
}

func (s *budgetService) query(ctx context.Context, filter BudgetFilter) *gorm.DB {
	q := s.db.WithContext(ctx).Model(&models.Budget{})
	if filter.IsActive != nil {
		q = q.Where("is_active = ?", *filter.IsActive)
	}
	return q
}

// ListBudgets returns budgets matching filter, latest start first. A
// non-positive limit returns all of them.
func (s *budgetService) ListBudgets(ctx context.Context, filter BudgetFilter, limit int) ([]models.Budget, error) {
	q := s.query(ctx, filter).Scopes(newestBudgetsFirst)
	if limit > 0 {
		q = q.Limit(limit)
	}

	budgets := []models.Budget{}
	if err := q.Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return budgets, nil
}

// ListBudgetsPage returns one page of budgets matching filter.
func (s *budgetService) ListBudgetsPage(ctx context.Context, filter BudgetFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Budget], error) {
	page.Defaults()

	var totalItems int64
	if err := s.query(ctx, filter).Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var budgets []models.Budget
	if err := s.query(ctx, filter).Scopes(newestBudgetsFirst, pagination.Paginate(page)).Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(budgets, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetBudget returns a budget by ID.
func (s *budgetService) GetBudget(ctx context.Context, id string) (*models.Budget, error) {
	var budget models.Budget
	if err := s.db.WithContext(ctx).First(&budget, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &budget, nil
}

// CreateBudget validates and stores a new budget. An active budget replaces
// the current one in the same transaction.
func (s *budgetService) CreateBudget(ctx context.Context, input BudgetInput) (*models.Budget, error) {
	budget, err := newBudget(input)
	if err != nil {
		return nil, err
	}

	if budget.IsActive {
		s.activation.Lock()
		defer s.activation.Unlock()
	}

	now := s.now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if budget.IsActive {
			if err := deactivateOthers(tx, "", now); err != nil {
				return err
			}
		}
		return tx.Create(budget).Error
	})
	if err != nil {
		return nil, storeError(err)
	}

	events.Dispatch(ctx, s.publisher, events.New(events.BudgetCreated, budget.ID, budget, now))
	return budget, nil
}

// UpdateBudget replaces a budget's content if it is still at version.
func (s *budgetService) UpdateBudget(ctx context.Context, id string, input BudgetInput, version int64) (*models.Budget, error) {
	budget, err := newBudget(input)
	if err != nil {
		return nil, err
	}

	if budget.IsActive {
		s.activation.Lock()
		defer s.activation.Unlock()
	}

	now := s.now()
	var updated models.Budget
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if budget.IsActive {
			if err := deactivateOthers(tx, id, now); err != nil {
				return err
			}
		}

		updates := bumpVersion(now)
		updates["total_amount"] = budget.TotalAmount
		updates["start_date"] = budget.StartDate
		updates["end_date"] = budget.EndDate
		updates["description"] = budget.Description
		updates["is_active"] = budget.IsActive

		res := tx.Model(&models.Budget{}).Where("id = ? AND version = ?", id, version).Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return staleWrite(tx, &models.Budget{}, id, apperrors.ErrBudgetNotFound)
		}
		return tx.First(&updated, "id = ?", id).Error
	})
	if err != nil {
		return nil, storeError(err)
	}

	events.Dispatch(ctx, s.publisher, events.New(events.BudgetUpdated, id, &updated, now))
	return &updated, nil
}

// DeleteBudget hard-deletes a budget. Deleting a missing budget succeeds.
func (s *budgetService) DeleteBudget(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&models.Budget{}, "id = ?", id)
	if res.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected > 0 {
		events.Dispatch(ctx, s.publisher, events.New(events.BudgetDeleted, id, nil, s.now()))
	}
	return nil
}

// ActiveBudget resolves the budget summaries are computed against, or nil.
func (s *budgetService) ActiveBudget(ctx context.Context) (*models.Budget, error) {
	active := true
	candidates, err := s.ListBudgets(ctx, BudgetFilter{IsActive: &active}, 0)
	if err != nil {
		return nil, err
	}
	return summary.ResolveActiveBudget(candidates, s.now()), nil
}

// ActivateBudget marks one budget active and every other budget inactive.
func (s *budgetService) ActivateBudget(ctx context.Context, id string) (*models.Budget, error) {
	s.activation.Lock()
	defer s.activation.Unlock()

	now := s.now()
	var budget models.Budget
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&budget, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrBudgetNotFound
			}
			return err
		}
		if err := deactivateOthers(tx, id, now); err != nil {
			return err
		}
		if budget.IsActive {
			return nil
		}

		updates := bumpVersion(now)
		updates["is_active"] = true
		if err := tx.Model(&models.Budget{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(&budget, "id = ?", id).Error
	})
	if err != nil {
		return nil, storeError(err)
	}

	events.Dispatch(ctx, s.publisher, events.New(events.BudgetActivated, id, &budget, now))
	return &budget, nil
}
