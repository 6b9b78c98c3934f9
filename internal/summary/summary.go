// Package summary computes spending statistics over expenses and an optional
// active budget. Every function is pure: no I/O, no clock reads, no errors.
// Degenerate inputs (no expenses, no budget, zero totals) produce zero values.
package summary

import (
	"slices"

	"github.com/shopspring/decimal"

	"budgetly/internal/models"
)

// Alert thresholds on the percentage of the budget already spent.
var (
	nearLimitThreshold   = decimal.NewFromInt(90)
	mediumAlertThreshold = decimal.NewFromInt(70)
	hundred              = decimal.NewFromInt(100)
)

// CategoryCount is the spend grouped under one category label.
type CategoryCount struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
	Count    int             `json:"count"`
}

// CategoryShare is a CategoryCount plus its share of the overall spend.
type CategoryShare struct {
	CategoryCount
	PercentOfTotal decimal.Decimal `json:"percent_of_total"`
}

// Summary is the aggregate view over a set of expenses and the active budget.
type Summary struct {
	TotalSpent      decimal.Decimal `json:"total_spent"`
	ExpenseCount    int             `json:"expense_count"`
	HasActiveBudget bool            `json:"has_active_budget"`
	BudgetTotal     decimal.Decimal `json:"budget_total"`
	BudgetRemaining decimal.Decimal `json:"budget_remaining"`
	PercentUsed     decimal.Decimal `json:"percent_used"`
	ByCategory      []CategoryShare `json:"by_category"`
	ExceededBudget  bool            `json:"exceeded_budget"`
	NearLimit       bool            `json:"near_limit"`
	MediumAlert     bool            `json:"medium_alert"`
}

// Summarize aggregates expenses against the active budget, which may be nil.
// Percentages are rounded to two places; alert flags use the unrounded value.
func Summarize(expenses []models.Expense, active *models.Budget) Summary {
	groups, total := groupByCategory(expenses)

	s := Summary{
		TotalSpent:      total,
		ExpenseCount:    len(expenses),
		BudgetTotal:     decimal.Zero,
		BudgetRemaining: decimal.Zero,
		PercentUsed:     decimal.Zero,
		ByCategory:      make([]CategoryShare, 0, len(groups)),
	}
	// Without an active budget every budget-dependent figure stays zero.
	if active != nil {
		s.HasActiveBudget = true
		s.BudgetTotal = active.TotalAmount
		s.BudgetRemaining = s.BudgetTotal.Sub(total)

		used := percent(total, s.BudgetTotal)
		s.PercentUsed = used.Round(2)
		s.ExceededBudget = s.BudgetRemaining.IsNegative()
		s.NearLimit, s.MediumAlert = alertLevels(used)
	}

	for _, g := range groups {
		s.ByCategory = append(s.ByCategory, CategoryShare{
			CategoryCount:  g,
			PercentOfTotal: percent(g.Total, total).Round(2),
		})
	}
	return s
}

// TopCategories returns the limit largest categories by total spend.
// Equal totals keep the order in which their category first appeared.
func TopCategories(expenses []models.Expense, limit int) []CategoryCount {
	if limit <= 0 {
		return []CategoryCount{}
	}
	groups, _ := groupByCategory(expenses)
	if len(groups) > limit {
		groups = groups[:limit]
	}
	return groups
}

// Total returns the exact sum of expense amounts.
func Total(expenses []models.Expense) decimal.Decimal {
	total := decimal.Zero
	for _, e := range expenses {
		total = total.Add(e.Amount)
	}
	return total
}

// groupByCategory groups by exact category label, sorted by total descending
// with a stable sort so ties stay in first-encountered order.
func groupByCategory(expenses []models.Expense) ([]CategoryCount, decimal.Decimal) {
	index := make(map[string]int)
	groups := make([]CategoryCount, 0)
	total := decimal.Zero

	for _, e := range expenses {
		total = total.Add(e.Amount)
		i, ok := index[e.Category]
		if !ok {
			i = len(groups)
			index[e.Category] = i
			groups = append(groups, CategoryCount{Category: e.Category, Total: decimal.Zero})
		}
		groups[i].Total = groups[i].Total.Add(e.Amount)
		groups[i].Count++
	}

	slices.SortStableFunc(groups, func(a, b CategoryCount) int {
		return b.Total.Cmp(a.Total)
	})
	return groups, total
}

// percent returns part/whole*100, or zero when whole is not positive.
func percent(part, whole decimal.Decimal) decimal.Decimal {
	if !whole.IsPositive() {
		return decimal.Zero
	}
	return part.Mul(hundred).Div(whole)
}

func alertLevels(used decimal.Decimal) (nearLimit, mediumAlert bool) {
	nearLimit = used.GreaterThan(nearLimitThreshold)
	mediumAlert = used.GreaterThan(mediumAlertThreshold) && !nearLimit
	return nearLimit, mediumAlert
}
