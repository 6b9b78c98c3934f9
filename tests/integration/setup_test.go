package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"budgetly/internal/events"
	"budgetly/internal/handlers"
	"budgetly/internal/logger"
	"budgetly/internal/middleware"
	"budgetly/internal/services"
	"budgetly/internal/testutil"
	"budgetly/internal/validator"
)

// today is the fixed clock every flow runs against.
var today = time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB     *gorm.DB
	Router *gin.Engine
	Events *eventLog
}

// eventLog records published events.
type eventLog struct {
	mu    sync.Mutex
	types []events.Type
}

func (l *eventLog) Publish(_ context.Context, e events.Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.types = append(l.types, e.Type)
	return nil
}

func (l *eventLog) Close() error { return nil }

func (l *eventLog) all() []events.Type {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]events.Type(nil), l.types...)
}

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// setupApp creates a full application stack backed by an isolated in-memory SQLite.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })

	clock := func() time.Time { return today }
	log := &eventLog{}
	hub := events.NewHub()
	t.Cleanup(func() { _ = hub.Close() })
	publisher := events.Multi{hub, log}

	// Services
	expenseService := services.NewExpenseService(db, clock, publisher)
	budgetService := services.NewBudgetService(db, clock, publisher)
	dashboardService := services.NewDashboardService(expenseService, budgetService, clock, services.DefaultViewLimits())
	auditService := services.NewAuditService(db)

	// Router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())
	router.NoRoute(middleware.NotFound())

	handlers.Routes{
		Expenses:  handlers.NewExpenseHandler(expenseService, dashboardService, auditService),
		Budgets:   handlers.NewBudgetHandler(budgetService, dashboardService, auditService),
		Dashboard: handlers.NewDashboardHandler(dashboardService, auditService),
		Feed:      handlers.NewFeedHandler(hub),
	}.Register(router.Group("/api/v1"))

	return &testApp{DB: db, Router: router, Events: log}
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// createExpense records an expense through the API and returns it.
func (app *testApp) createExpense(t *testing.T, description, amount, category, date string) map[string]interface{} {
	t.Helper()
	body := fmt.Sprintf(`{"description":%q,"amount":%q,"category":%q,"date":%q}`, description, amount, category, date)
	rec := app.request("POST", "/api/v1/expenses", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create expense failed: %d %s", rec.Code, rec.Body.String())
	}
	return parseJSON(t, rec)["expense"].(map[string]interface{})
}

// createBudget creates a budget through the API and returns it.
func (app *testApp) createBudget(t *testing.T, total, start, end string, active bool) map[string]interface{} {
	t.Helper()
	body := fmt.Sprintf(`{"total_amount":%q,"start_date":%q,"end_date":%q,"is_active":%t}`, total, start, end, active)
	rec := app.request("POST", "/api/v1/budgets", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create budget failed: %d %s", rec.Code, rec.Body.String())
	}
	return parseJSON(t, rec)["budget"].(map[string]interface{})
}
