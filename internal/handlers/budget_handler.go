package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"budgetly/internal/pagination"
	"budgetly/internal/services"
)

// BudgetHandler handles budget-related requests.
type BudgetHandler struct {
	budgetService services.BudgetServicer
	viewService   services.DashboardServicer
	auditService  services.AuditServicer
}

// NewBudgetHandler creates a new BudgetHandler.
func NewBudgetHandler(budgetService services.BudgetServicer, viewService services.DashboardServicer, auditService services.AuditServicer) *BudgetHandler {
	return &BudgetHandler{budgetService: budgetService, viewService: viewService, auditService: auditService}
}

// CreateBudgetRequest represents the request payload for creating a budget.
type CreateBudgetRequest struct {
	services.BudgetInput
}

// UpdateBudgetRequest represents the request payload for updating a budget.
// Version must match the stored version.
type UpdateBudgetRequest struct {
	services.BudgetInput
	Version int64 `json:"version" binding:"required,min=1" example:"1"`
}

func budgetChanges(input services.BudgetInput) map[string]any {
	return map[string]any{
		"total_amount": input.TotalAmount.StringFixed(2),
		"start_date":   input.StartDate,
		"end_date":     input.EndDate,
		"is_active":    input.Active(),
	}
}

// GetBudgetIndex handles the budget overview.
// @Summary     Budget overview
// @Description Get the active budget with its period statistics and the most recent budgets
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Success     200 {object} services.BudgetIndex "Budget overview"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets [get]
func (h *BudgetHandler) GetBudgetIndex(c *gin.Context) {
	result, err := h.viewService.BudgetIndex(c.Request.Context())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetBudgetHistory handles listing budgets page by page.
// @Summary     Budget history
// @Description Get a paginated list of budgets, latest start date first
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Param       is_active query bool false "Filter by active status"
// @Param       page      query int  false "Page number (default 1)"
// @Param       page_size query int  false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Budget] "Paginated budgets"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/history [get]
func (h *BudgetHandler) GetBudgetHistory(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	isActive, err := parseOptionalBool(c, "is_active")
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.budgetService.ListBudgetsPage(c.Request.Context(), services.BudgetFilter{IsActive: isActive}, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// CreateBudget handles the creation of a new budget.
// @Summary     Create a budget
// @Description Create a new budget. An active budget replaces the current one.
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Param       request body CreateBudgetRequest true "Budget details"
// @Success     201 {object} models.Budget "Budget created"
// @Failure     400 {object} ErrorResponse "Malformed request"
// @Failure     422 {object} ErrorResponse "Validation failed"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets [post]
func (h *BudgetHandler) CreateBudget(c *gin.Context) {
	var req CreateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	budget, err := h.budgetService.CreateBudget(c.Request.Context(), req.BudgetInput)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), services.AuditCreate, "budget", budget.ID, c.ClientIP(), budgetChanges(req.BudgetInput))

	c.JSON(http.StatusCreated, gin.H{"budget": budget})
}

// GetBudget handles retrieving a specific budget.
// @Summary     Get budget by ID
// @Description Get a specific budget by ID
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Param       id path string true "Budget ID"
// @Success     200 {object} models.Budget "Budget details"
// @Failure     400 {object} ErrorResponse "Invalid budget ID"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{id} [get]
func (h *BudgetHandler) GetBudget(c *gin.Context) {
	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	budget, err := h.budgetService.GetBudget(c.Request.Context(), budgetID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"budget": budget})
}

// UpdateBudget handles updating an existing budget.
// @Summary     Update budget
// @Description Replace a budget's content. Fails with 409 if the version is stale.
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Param       id      path string              true "Budget ID"
// @Param       request body UpdateBudgetRequest true "Updated budget details"
// @Success     200 {object} models.Budget "Updated budget"
// @Failure     400 {object} ErrorResponse "Malformed request or budget ID"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     409 {object} ErrorResponse "Budget was modified by someone else"
// @Failure     422 {object} ErrorResponse "Validation failed"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{id} [put]
func (h *BudgetHandler) UpdateBudget(c *gin.Context) {
	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	budget, err := h.budgetService.UpdateBudget(c.Request.Context(), budgetID, req.BudgetInput, req.Version)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), services.AuditUpdate, "budget", budgetID, c.ClientIP(), budgetChanges(req.BudgetInput))

	c.JSON(http.StatusOK, gin.H{"budget": budget})
}

// ActivateBudget handles making a budget the active one.
// @Summary     Activate budget
// @Description Mark a budget active and every other budget inactive
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Param       id path string true "Budget ID"
// @Success     200 {object} models.Budget "Activated budget"
// @Failure     400 {object} ErrorResponse "Invalid budget ID"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     409 {object} ErrorResponse "Concurrent activation"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{id}/activate [post]
func (h *BudgetHandler) ActivateBudget(c *gin.Context) {
	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	budget, err := h.budgetService.ActivateBudget(c.Request.Context(), budgetID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), services.AuditActivate, "budget", budgetID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"budget": budget})
}

// DeleteBudget handles deleting a budget.
// @Summary     Delete budget
// @Description Permanently delete a budget. Expenses are not affected.
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Param       id path string true "Budget ID"
// @Success     200 {object} MessageResponse "Budget deleted"
// @Failure     400 {object} ErrorResponse "Invalid budget ID"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{id} [delete]
func (h *BudgetHandler) DeleteBudget(c *gin.Context) {
	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.budgetService.DeleteBudget(c.Request.Context(), budgetID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), services.AuditDelete, "budget", budgetID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, MessageResponse{Message: "Budget deleted successfully"})
}
