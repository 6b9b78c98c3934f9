package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"budgetly/internal/models"
	"budgetly/internal/pagination"
	"budgetly/internal/summary"
)

// Clock returns the current time. Services take one so date rules and
// period statistics are testable.
type Clock func() time.Time

// SystemClock reads the wall clock in UTC.
func SystemClock() time.Time {
	return time.Now().UTC()
}

// ExpenseInput is the editable content of an expense. Amounts are rounded to
// cents before validation; Date is a YYYY-MM-DD calendar date.
type ExpenseInput struct {
	Description string          `json:"description" validate:"required,notblank,min=3,max=200" example:"Groceries"`
	Amount      decimal.Decimal `json:"amount" validate:"gt=0,lte=999999999.99" swaggertype:"string" example:"42.50"`
	Category    string          `json:"category" validate:"required,notblank,max=50" example:"Food"`
	Date        string          `json:"date" validate:"required,datetime=2006-01-02" example:"2025-03-10"`
	Notes       *string         `json:"notes,omitempty" validate:"omitempty,max=500"`
}

// ExpenseFilter holds optional filter parameters for listing expenses.
type ExpenseFilter struct {
	Category string     `json:"category,omitempty"`
	From     *time.Time `json:"from,omitempty"`
	To       *time.Time `json:"to,omitempty"`
}

// ExpenseServicer defines the contract for expense records.
type ExpenseServicer interface {
	ListExpenses(ctx context.Context, filter ExpenseFilter) ([]models.Expense, error)
	ListExpensesPage(ctx context.Context, filter ExpenseFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Expense], error)
	GetExpense(ctx context.Context, id string) (*models.Expense, error)
	CreateExpense(ctx context.Context, input ExpenseInput) (*models.Expense, error)
	UpdateExpense(ctx context.Context, id string, input ExpenseInput, version int64) (*models.Expense, error)
	DeleteExpense(ctx context.Context, id string) error
	ExpensesBetween(ctx context.Context, from, to time.Time) ([]models.Expense, error)
}

// BudgetInput is the editable content of a budget. Dates are YYYY-MM-DD.
type BudgetInput struct {
	TotalAmount decimal.Decimal `json:"total_amount" validate:"gte=1,lte=999999999.99" swaggertype:"string" example:"1500.00"`
	StartDate   string          `json:"start_date" validate:"required,datetime=2006-01-02" example:"2025-03-01"`
	EndDate     string          `json:"end_date" validate:"required,datetime=2006-01-02" example:"2025-03-31"`
	Description *string         `json:"description,omitempty" validate:"omitempty,max=200"`
	IsActive    *bool           `json:"is_active,omitempty" example:"true"`
}

// Active reports the requested active flag. An omitted flag means active.
func (in BudgetInput) Active() bool {
	return in.IsActive == nil || *in.IsActive
}

// BudgetFilter holds optional filter parameters for listing budgets.
type BudgetFilter struct {
	IsActive *bool
}

// BudgetServicer defines the contract for budget records. It is the only
// writer of the active flag.
type BudgetServicer interface {
	ListBudgets(ctx context.Context, filter BudgetFilter, limit int) ([]models.Budget, error)
	ListBudgetsPage(ctx context.Context, filter BudgetFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Budget], error)
	GetBudget(ctx context.Context, id string) (*models.Budget, error)
	CreateBudget(ctx context.Context, input BudgetInput) (*models.Budget, error)
	UpdateBudget(ctx context.Context, id string, input BudgetInput, version int64) (*models.Budget, error)
	DeleteBudget(ctx context.Context, id string) error
	ActiveBudget(ctx context.Context) (*models.Budget, error)
	ActivateBudget(ctx context.Context, id string) (*models.Budget, error)
}

// Dashboard is the landing view.
type Dashboard struct {
	ActiveBudget   *models.Budget          `json:"active_budget"`
	Summary        summary.Summary         `json:"summary"`
	RecentExpenses []models.Expense        `json:"recent_expenses"`
	MonthTotal     decimal.Decimal         `json:"month_total" swaggertype:"string"`
	TopCategories  []summary.CategoryCount `json:"top_categories"`
}

// ExpenseIndex is a page of expenses plus the summary of the whole filtered set.
type ExpenseIndex struct {
	Expenses     pagination.PageResponse[models.Expense] `json:"expenses"`
	Summary      summary.Summary                         `json:"summary"`
	ActiveBudget *models.Budget                          `json:"active_budget"`
	Filter       ExpenseFilter                           `json:"filter"`
}

// BudgetIndex is the active budget with its period statistics and history.
type BudgetIndex struct {
	ActiveBudget *models.Budget  `json:"active_budget"`
	Period       *summary.Period `json:"period,omitempty"`
	History      []models.Budget `json:"history"`
}

// DashboardServicer assembles the read views.
type DashboardServicer interface {
	Dashboard(ctx context.Context) (*Dashboard, error)
	ExpenseIndex(ctx context.Context, filter ExpenseFilter, page pagination.PageRequest) (*ExpenseIndex, error)
	BudgetIndex(ctx context.Context) (*BudgetIndex, error)
	QuickAddExpense(ctx context.Context, input ExpenseInput) (*models.Expense, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(ctx context.Context, action, resourceType, resourceID, ipAddress string, changes map[string]any)
}
