package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "budgetly/internal/errors"
	"budgetly/internal/pagination"
	"budgetly/internal/services"
	"budgetly/internal/validator"
)

// ExpenseHandler handles expense-related requests.
type ExpenseHandler struct {
	expenseService services.ExpenseServicer
	viewService    services.DashboardServicer
	auditService   services.AuditServicer
}

// NewExpenseHandler creates a new ExpenseHandler.
func NewExpenseHandler(expenseService services.ExpenseServicer, viewService services.DashboardServicer, auditService services.AuditServicer) *ExpenseHandler {
	return &ExpenseHandler{expenseService: expenseService, viewService: viewService, auditService: auditService}
}

// CreateExpenseRequest represents the request payload for recording an expense.
type CreateExpenseRequest struct {
	services.ExpenseInput
}

// UpdateExpenseRequest represents the request payload for editing an expense.
// Version must match the stored version.
type UpdateExpenseRequest struct {
	services.ExpenseInput
	Version int64 `json:"version" binding:"required,min=1" example:"1"`
}

// ExpenseQuery holds the optional list filters.
type ExpenseQuery struct {
	Category string `form:"category" binding:"omitempty,max=50"`
	From     string `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To       string `form:"to" binding:"omitempty,datetime=2006-01-02"`
}

func (q ExpenseQuery) filter() services.ExpenseFilter {
	filter := services.ExpenseFilter{Category: q.Category}
	if t, err := validator.ParseDate(q.From); err == nil {
		filter.From = &t
	}
	if t, err := validator.ParseDate(q.To); err == nil {
		filter.To = &t
	}
	return filter
}

func expenseChanges(input services.ExpenseInput) map[string]any {
	return map[string]any{
		"description": input.Description,
		"amount":      input.Amount.StringFixed(2),
		"category":    input.Category,
		"date":        input.Date,
	}
}

// GetExpenses handles listing expenses with their summary.
// @Summary     List expenses
// @Description Get a page of expenses, newest first, plus the summary of every matching expense
// @Tags        expenses
// @Accept      json
// @Produce     json
// @Param       category  query string false "Exact category"
// @Param       from      query string false "Earliest date (YYYY-MM-DD)"
// @Param       to        query string false "Latest date (YYYY-MM-DD)"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} services.ExpenseIndex "Expenses and summary"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /expenses [get]
func (h *ExpenseHandler) GetExpenses(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	var query ExpenseQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	filter := query.filter()
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "to must not be before from"))
		return
	}

	result, err := h.viewService.ExpenseIndex(c.Request.Context(), filter, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// CreateExpense handles recording a new expense.
// @Summary     Create an expense
// @Description Record a new expense. The date may not be in the future.
// @Tags        expenses
// @Accept      json
// @Produce     json
// @Param       request body CreateExpenseRequest true "Expense details"
// @Success     201 {object} models.Expense "Expense created"
// @Failure     400 {object} ErrorResponse "Malformed request"
// @Failure     422 {object} ErrorResponse "Validation failed"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /expenses [post]
func (h *ExpenseHandler) CreateExpense(c *gin.Context) {
	var req CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	expense, err := h.expenseService.CreateExpense(c.Request.Context(), req.ExpenseInput)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), services.AuditCreate, "expense", expense.ID, c.ClientIP(), expenseChanges(req.ExpenseInput))

	c.JSON(http.StatusCreated, gin.H{"expense": expense})
}

// GetExpense handles retrieving a specific expense.
// @Summary     Get expense by ID
// @Description Get a specific expense by ID
// @Tags        expenses
// @Accept      json
// @Produce     json
// @Param       id path string true "Expense ID"
// @Success     200 {object} models.Expense "Expense details"
// @Failure     400 {object} ErrorResponse "Invalid expense ID"
// @Failure     404 {object} ErrorResponse "Expense not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /expenses/{id} [get]
func (h *ExpenseHandler) GetExpense(c *gin.Context) {
	expenseID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	expense, err := h.expenseService.GetExpense(c.Request.Context(), expenseID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"expense": expense})
}

// UpdateExpense handles editing an existing expense.
// @Summary     Update expense
// @Description Replace an expense's content. Fails with 409 if the version is stale.
// @Tags        expenses
// @Accept      json
// @Produce     json
// @Param       id      path string               true "Expense ID"
// @Param       request body UpdateExpenseRequest true "Updated expense details"
// @Success     200 {object} models.Expense "Updated expense"
// @Failure     400 {object} ErrorResponse "Malformed request or expense ID"
// @Failure     404 {object} ErrorResponse "Expense not found"
// @Failure     409 {object} ErrorResponse "Expense was modified by someone else"
// @Failure     422 {object} ErrorResponse "Validation failed"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /expenses/{id} [put]
func (h *ExpenseHandler) UpdateExpense(c *gin.Context) {
	expenseID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	expense, err := h.expenseService.UpdateExpense(c.Request.Context(), expenseID, req.ExpenseInput, req.Version)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), services.AuditUpdate, "expense", expenseID, c.ClientIP(), expenseChanges(req.ExpenseInput))

	c.JSON(http.StatusOK, gin.H{"expense": expense})
}

// DeleteExpense handles deleting an expense.
// @Summary     Delete expense
// @Description Permanently delete an expense. Deleting a missing expense succeeds.
// @Tags        expenses
// @Accept      json
// @Produce     json
// @Param       id path string true "Expense ID"
// @Success     200 {object} MessageResponse "Expense deleted"
// @Failure     400 {object} ErrorResponse "Invalid expense ID"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /expenses/{id} [delete]
func (h *ExpenseHandler) DeleteExpense(c *gin.Context) {
	expenseID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.expenseService.DeleteExpense(c.Request.Context(), expenseID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), services.AuditDelete, "expense", expenseID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, MessageResponse{Message: "Expense deleted successfully"})
}
