package summary

import (
	"time"

	"budgetly/internal/models"
)

// ResolveActiveBudget picks the budget that summaries are computed against:
// flagged active, with now inside [StartDate, EndDate], latest StartDate
// winning. Equal start dates keep the first candidate. Returns nil when no
// budget qualifies.
func ResolveActiveBudget(budgets []models.Budget, now time.Time) *models.Budget {
	var active *models.Budget
	for i := range budgets {
		b := &budgets[i]
		if !b.IsActive || !b.IsCurrent(now) {
			continue
		}
		if active == nil || b.StartDate.After(active.StartDate) {
			active = b
		}
	}
	if active == nil {
		return nil
	}
	resolved := *active
	return &resolved
}

// MonthWindow returns the first and last calendar day of the month containing now.
func MonthWindow(now time.Time) (start, end time.Time) {
	start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	end = start.AddDate(0, 1, -1)
	return start, end
}
