package handlers

import "github.com/gin-gonic/gin"

// Routes groups the handlers mounted under the versioned API prefix.
type Routes struct {
	Expenses  *ExpenseHandler
	Budgets   *BudgetHandler
	Dashboard *DashboardHandler
	Feed      *FeedHandler
}

// Register mounts every route on v1.
func (r Routes) Register(v1 *gin.RouterGroup) {
	v1.GET("/dashboard", r.Dashboard.GetDashboard)
	v1.POST("/dashboard/quick-expense", r.Dashboard.QuickAddExpense)

	expenses := v1.Group("/expenses")
	expenses.GET("", r.Expenses.GetExpenses)
	expenses.POST("", r.Expenses.CreateExpense)
	expenses.GET("/:id", r.Expenses.GetExpense)
	expenses.PUT("/:id", r.Expenses.UpdateExpense)
	expenses.DELETE("/:id", r.Expenses.DeleteExpense)

	budgets := v1.Group("/budgets")
	budgets.GET("", r.Budgets.GetBudgetIndex)
	budgets.GET("/history", r.Budgets.GetBudgetHistory)
	budgets.POST("", r.Budgets.CreateBudget)
	budgets.GET("/:id", r.Budgets.GetBudget)
	budgets.PUT("/:id", r.Budgets.UpdateBudget)
	budgets.POST("/:id/activate", r.Budgets.ActivateBudget)
	budgets.DELETE("/:id", r.Budgets.DeleteBudget)

	if r.Feed != nil {
		v1.GET("/ws", r.Feed.Subscribe)
	}
}
