package services

import (
	"context"

	"golang.org/x/sync/errgroup"

	"budgetly/internal/models"
	"budgetly/internal/pagination"
	"budgetly/internal/summary"
)

// ViewLimits bounds the short lists shown in the read views.
type ViewLimits struct {
	RecentExpenses int
	TopCategories  int
	BudgetHistory  int
}

// DefaultViewLimits returns the limits used when none are configured.
func DefaultViewLimits() ViewLimits {
	return ViewLimits{RecentExpenses: 5, TopCategories: 3, BudgetHistory: 5}
}

// dashboardService assembles read views from the record services and the
// aggregation engine.
type dashboardService struct {
	expenses ExpenseServicer
	budgets  BudgetServicer
	now      Clock
	limits   ViewLimits
}

// NewDashboardService creates a new DashboardServicer.
func NewDashboardService(expenses ExpenseServicer, budgets BudgetServicer, now Clock, limits ViewLimits) DashboardServicer {
	return &dashboardService{expenses: expenses, budgets: budgets, now: now, limits: limits}
}

// Dashboard builds the landing view. The reads are independent and run
// concurrently.
func (s *dashboardService) Dashboard(ctx context.Context) (*Dashboard, error) {
	var (
		active  *models.Budget
		all     []models.Expense
		inMonth []models.Expense
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		active, err = s.budgets.ActiveBudget(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		all, err = s.expenses.ListExpenses(gctx, ExpenseFilter{})
		return err
	})
	g.Go(func() error {
		from, to := summary.MonthWindow(s.now())
		var err error
		inMonth, err = s.expenses.ExpensesBetween(gctx, from, to)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	recent := all
	if len(recent) > s.limits.RecentExpenses {
		recent = recent[:s.limits.RecentExpenses]
	}

	return &Dashboard{
		ActiveBudget:   active,
		Summary:        summary.Summarize(all, active),
		RecentExpenses: recent,
		MonthTotal:     summary.Total(inMonth),
		TopCategories:  summary.TopCategories(all, s.limits.TopCategories),
	}, nil
}

// ExpenseIndex returns one page of expenses along with a summary of every
// expense matching filter.
func (s *dashboardService) ExpenseIndex(ctx context.Context, filter ExpenseFilter, page pagination.PageRequest) (*ExpenseIndex, error) {
	var (
		active  *models.Budget
		matched []models.Expense
		paged   *pagination.PageResponse[models.Expense]
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		active, err = s.budgets.ActiveBudget(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		matched, err = s.expenses.ListExpenses(gctx, filter)
		return err
	})
	g.Go(func() error {
		var err error
		paged, err = s.expenses.ListExpensesPage(gctx, filter, page)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &ExpenseIndex{
		Expenses:     *paged,
		Summary:      summary.Summarize(matched, active),
		ActiveBudget: active,
		Filter:       filter,
	}, nil
}

// BudgetIndex returns the active budget's period statistics and the most
// recent budgets.
func (s *dashboardService) BudgetIndex(ctx context.Context) (*BudgetIndex, error) {
	var (
		active  *models.Budget
		history []models.Budget
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		active, err = s.budgets.ActiveBudget(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		history, err = s.budgets.ListBudgets(gctx, BudgetFilter{}, s.limits.BudgetHistory)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	index := &BudgetIndex{ActiveBudget: active, History: history}
	if active == nil {
		return index, nil
	}

	inPeriod, err := s.expenses.ExpensesBetween(ctx, active.StartDate, active.EndDate)
	if err != nil {
		return nil, err
	}
	period := summary.PeriodStats(active, inPeriod, s.now())
	index.Period = &period
	return index, nil
}

// QuickAddExpense records an expense from the dashboard form. It applies the
// same rules as a regular create, including the future date check.
func (s *dashboardService) QuickAddExpense(ctx context.Context, input ExpenseInput) (*models.Expense, error) {
	return s.expenses.CreateExpense(ctx, input)
}
