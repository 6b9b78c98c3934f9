package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"budgetly/internal/models"
	"budgetly/internal/pagination"
	"budgetly/internal/services"
	"budgetly/internal/validator"
)

const (
	testExpenseID = "0195a0a0-0000-7000-8000-000000000001"
	testBudgetID  = "0195a0a0-0000-7000-8000-000000000002"
)

// --- mock expense service ---

type mockExpenseService struct {
	listExpensesFn     func(ctx context.Context, filter services.ExpenseFilter) ([]models.Expense, error)
	listExpensesPageFn func(ctx context.Context, filter services.ExpenseFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Expense], error)
	getExpenseFn       func(ctx context.Context, id string) (*models.Expense, error)
	createExpenseFn    func(ctx context.Context, input services.ExpenseInput) (*models.Expense, error)
	updateExpenseFn    func(ctx context.Context, id string, input services.ExpenseInput, version int64) (*models.Expense, error)
	deleteExpenseFn    func(ctx context.Context, id string) error
	expensesBetweenFn  func(ctx context.Context, from, to time.Time) ([]models.Expense, error)
}

func (m *mockExpenseService) ListExpenses(ctx context.Context, filter services.ExpenseFilter) ([]models.Expense, error) {
	if m.listExpensesFn != nil {
		return m.listExpensesFn(ctx, filter)
	}
	return []models.Expense{}, nil
}

func (m *mockExpenseService) ListExpensesPage(ctx context.Context, filter services.ExpenseFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Expense], error) {
	if m.listExpensesPageFn != nil {
		return m.listExpensesPageFn(ctx, filter, page)
	}
	resp := pagination.NewPageResponse([]models.Expense{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockExpenseService) GetExpense(ctx context.Context, id string) (*models.Expense, error) {
	if m.getExpenseFn != nil {
		return m.getExpenseFn(ctx, id)
	}
	return &models.Expense{}, nil
}

func (m *mockExpenseService) CreateExpense(ctx context.Context, input services.ExpenseInput) (*models.Expense, error) {
	if m.createExpenseFn != nil {
		return m.createExpenseFn(ctx, input)
	}
	return &models.Expense{}, nil
}

func (m *mockExpenseService) UpdateExpense(ctx context.Context, id string, input services.ExpenseInput, version int64) (*models.Expense, error) {
	if m.updateExpenseFn != nil {
		return m.updateExpenseFn(ctx, id, input, version)
	}
	return &models.Expense{}, nil
}

func (m *mockExpenseService) DeleteExpense(ctx context.Context, id string) error {
	if m.deleteExpenseFn != nil {
		return m.deleteExpenseFn(ctx, id)
	}
	return nil
}

func (m *mockExpenseService) ExpensesBetween(ctx context.Context, from, to time.Time) ([]models.Expense, error) {
	if m.expensesBetweenFn != nil {
		return m.expensesBetweenFn(ctx, from, to)
	}
	return []models.Expense{}, nil
}

var _ services.ExpenseServicer = (*mockExpenseService)(nil)

// --- mock budget service ---

type mockBudgetService struct {
	listBudgetsFn     func(ctx context.Context, filter services.BudgetFilter, limit int) ([]models.Budget, error)
	listBudgetsPageFn func(ctx context.Context, filter services.BudgetFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Budget], error)
	getBudgetFn       func(ctx context.Context, id string) (*models.Budget, error)
	createBudgetFn    func(ctx context.Context, input services.BudgetInput) (*models.Budget, error)
	updateBudgetFn    func(ctx context.Context, id string, input services.BudgetInput, version int64) (*models.Budget, error)
	deleteBudgetFn    func(ctx context.Context, id string) error
	activeBudgetFn    func(ctx context.Context) (*models.Budget, error)
	activateBudgetFn  func(ctx context.Context, id string) (*models.Budget, error)
}

func (m *mockBudgetService) ListBudgets(ctx context.Context, filter services.BudgetFilter, limit int) ([]models.Budget, error) {
	if m.listBudgetsFn != nil {
		return m.listBudgetsFn(ctx, filter, limit)
	}
	return []models.Budget{}, nil
}

func (m *mockBudgetService) ListBudgetsPage(ctx context.Context, filter services.BudgetFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Budget], error) {
	if m.listBudgetsPageFn != nil {
		return m.listBudgetsPageFn(ctx, filter, page)
	}
	resp := pagination.NewPageResponse([]models.Budget{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockBudgetService) GetBudget(ctx context.Context, id string) (*models.Budget, error) {
	if m.getBudgetFn != nil {
		return m.getBudgetFn(ctx, id)
	}
	return &models.Budget{}, nil
}

func (m *mockBudgetService) CreateBudget(ctx context.Context, input services.BudgetInput) (*models.Budget, error) {
	if m.createBudgetFn != nil {
		return m.createBudgetFn(ctx, input)
	}
	return &models.Budget{}, nil
}

func (m *mockBudgetService) UpdateBudget(ctx context.Context, id string, input services.BudgetInput, version int64) (*models.Budget, error) {
	if m.updateBudgetFn != nil {
		return m.updateBudgetFn(ctx, id, input, version)
	}
	return &models.Budget{}, nil
}

func (m *mockBudgetService) DeleteBudget(ctx context.Context, id string) error {
	if m.deleteBudgetFn != nil {
		return m.deleteBudgetFn(ctx, id)
	}
	return nil
}

func (m *mockBudgetService) ActiveBudget(ctx context.Context) (*models.Budget, error) {
	if m.activeBudgetFn != nil {
		return m.activeBudgetFn(ctx)
	}
	return nil, nil
}

func (m *mockBudgetService) ActivateBudget(ctx context.Context, id string) (*models.Budget, error) {
	if m.activateBudgetFn != nil {
		return m.activateBudgetFn(ctx, id)
	}
	return &models.Budget{}, nil
}

var _ services.BudgetServicer = (*mockBudgetService)(nil)

// --- mock dashboard service ---

type mockDashboardService struct {
	dashboardFn       func(ctx context.Context) (*services.Dashboard, error)
	expenseIndexFn    func(ctx context.Context, filter services.ExpenseFilter, page pagination.PageRequest) (*services.ExpenseIndex, error)
	budgetIndexFn     func(ctx context.Context) (*services.BudgetIndex, error)
	quickAddExpenseFn func(ctx context.Context, input services.ExpenseInput) (*models.Expense, error)
}

func (m *mockDashboardService) Dashboard(ctx context.Context) (*services.Dashboard, error) {
	if m.dashboardFn != nil {
		return m.dashboardFn(ctx)
	}
	return &services.Dashboard{}, nil
}

func (m *mockDashboardService) ExpenseIndex(ctx context.Context, filter services.ExpenseFilter, page pagination.PageRequest) (*services.ExpenseIndex, error) {
	if m.expenseIndexFn != nil {
		return m.expenseIndexFn(ctx, filter, page)
	}
	return &services.ExpenseIndex{}, nil
}

func (m *mockDashboardService) BudgetIndex(ctx context.Context) (*services.BudgetIndex, error) {
	if m.budgetIndexFn != nil {
		return m.budgetIndexFn(ctx)
	}
	return &services.BudgetIndex{}, nil
}

func (m *mockDashboardService) QuickAddExpense(ctx context.Context, input services.ExpenseInput) (*models.Expense, error) {
	if m.quickAddExpenseFn != nil {
		return m.quickAddExpenseFn(ctx, input)
	}
	return &models.Expense{}, nil
}

var _ services.DashboardServicer = (*mockDashboardService)(nil)

// --- mock audit service ---

type auditEntry struct {
	action, resourceType, resourceID string
}

type mockAuditService struct {
	mu      sync.Mutex
	entries []auditEntry
}

func (m *mockAuditService) Log(_ context.Context, action, resourceType, resourceID, _ string, _ map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, auditEntry{action: action, resourceType: resourceType, resourceID: resourceID})
}

func (m *mockAuditService) logged() []auditEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]auditEntry(nil), m.entries...)
}

var _ services.AuditServicer = (*mockAuditService)(nil)

// --- test helpers ---

func init() {
	gin.SetMode(gin.TestMode)
	validator.Register()
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func assertErrorCode(t *testing.T, result map[string]interface{}, code string) {
	t.Helper()
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object in response, got: %v", result)
	}
	if errObj["code"] != code {
		t.Errorf("expected error code %q, got %q", code, errObj["code"])
	}
}

func assertErrorField(t *testing.T, result map[string]interface{}, field string) {
	t.Helper()
	errObj, _ := result["error"].(map[string]interface{})
	fields, _ := errObj["fields"].([]interface{})
	for _, f := range fields {
		if entry, ok := f.(map[string]interface{}); ok && entry["field"] == field {
			return
		}
	}
	t.Errorf("expected a field error for %q, got %v", field, errObj["fields"])
}
