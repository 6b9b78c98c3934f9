package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"budgetly/internal/services"
)

// DashboardHandler serves the landing view and its quick-add form.
type DashboardHandler struct {
	viewService  services.DashboardServicer
	auditService services.AuditServicer
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(viewService services.DashboardServicer, auditService services.AuditServicer) *DashboardHandler {
	return &DashboardHandler{viewService: viewService, auditService: auditService}
}

// GetDashboard handles the landing view.
// @Summary     Dashboard
// @Description Get the active budget, overall summary, recent expenses, this month's total and top categories
// @Tags        dashboard
// @Accept      json
// @Produce     json
// @Success     200 {object} services.Dashboard "Dashboard"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /dashboard [get]
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	result, err := h.viewService.Dashboard(c.Request.Context())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// QuickAddExpense handles the dashboard's quick expense form.
// @Summary     Quick-add an expense
// @Description Record an expense from the dashboard. The date may not be in the future.
// @Tags        dashboard
// @Accept      json
// @Produce     json
// @Param       request body CreateExpenseRequest true "Expense details"
// @Success     201 {object} models.Expense "Expense created"
// @Failure     400 {object} ErrorResponse "Malformed request"
// @Failure     422 {object} ErrorResponse "Validation failed"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /dashboard/quick-expense [post]
func (h *DashboardHandler) QuickAddExpense(c *gin.Context) {
	var req CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	expense, err := h.viewService.QuickAddExpense(c.Request.Context(), req.ExpenseInput)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), services.AuditCreate, "expense", expense.ID, c.ClientIP(), expenseChanges(req.ExpenseInput))

	c.JSON(http.StatusCreated, gin.H{"expense": expense})
}
