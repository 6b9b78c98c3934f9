package summary

import (
	"time"

	"github.com/shopspring/decimal"

	"budgetly/internal/models"
)

const day = 24 * time.Hour

// fewDaysLeftThreshold flags budgets with less than a week to go.
const fewDaysLeftThreshold = 7

// Period holds the statistics shown for the active budget's window.
type Period struct {
	DaysElapsed       int             `json:"days_elapsed"`
	DaysRemaining     int             `json:"days_remaining"`
	TotalDuration     int             `json:"total_duration"`
	TotalSpent        decimal.Decimal `json:"total_spent"`
	ExpenseCount      int             `json:"expense_count"`
	Remaining         decimal.Decimal `json:"remaining"`
	PercentUsed       decimal.Decimal `json:"percent_used"`
	DailyAverageSpend decimal.Decimal `json:"daily_average_spend"`
	ProjectedSpend    decimal.Decimal `json:"projected_spend"`
	ExceededBudget    bool            `json:"exceeded_budget"`
	NearLimit         bool            `json:"near_limit"`
	MediumAlert       bool            `json:"medium_alert"`
	FewDaysLeft       bool            `json:"few_days_left"`
}

// PeriodStats computes the budget-window statistics for budget given the
// expenses that fall inside its window. Day counts are floored and never
// clamped, so a budget that has not started has negative days elapsed and an
// ended budget has negative days remaining (and counts as having few days
// left). A nil budget yields the zero Period.
func PeriodStats(budget *models.Budget, expenses []models.Expense, now time.Time) Period {
	zero := Period{
		TotalSpent:        decimal.Zero,
		Remaining:         decimal.Zero,
		PercentUsed:       decimal.Zero,
		DailyAverageSpend: decimal.Zero,
		ProjectedSpend:    decimal.Zero,
	}
	if budget == nil {
		return zero
	}

	p := zero
	p.DaysElapsed = floorDays(now.Sub(budget.StartDate))
	p.DaysRemaining = floorDays(budget.EndDate.Sub(now))
	p.TotalDuration = budget.DurationDays()
	p.FewDaysLeft = p.DaysRemaining < fewDaysLeftThreshold

	p.TotalSpent = Total(expenses)
	p.ExpenseCount = len(expenses)
	p.Remaining = budget.TotalAmount.Sub(p.TotalSpent)
	p.ExceededBudget = p.Remaining.IsNegative()

	used := percent(p.TotalSpent, budget.TotalAmount)
	p.PercentUsed = used.Round(2)
	p.NearLimit, p.MediumAlert = alertLevels(used)

	if p.DaysElapsed > 0 {
		average := p.TotalSpent.Div(decimal.NewFromInt(int64(p.DaysElapsed)))
		p.DailyAverageSpend = average.Round(2)
		if p.TotalDuration > 0 {
			p.ProjectedSpend = average.Mul(decimal.NewFromInt(int64(p.TotalDuration))).Round(2)
		}
	}
	return p
}

// floorDays converts d to whole days, rounding toward negative infinity.
func floorDays(d time.Duration) int {
	days := d / day
	if d%day < 0 {
		days--
	}
	return int(days)
}
