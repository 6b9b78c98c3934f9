package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"budgetly/internal/events"
	"budgetly/internal/models"
	"budgetly/internal/testutil"
)

// testNow is the fixed clock used across service tests: mid-March 2025.
var testNow = time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Type, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })
	return db
}

func strPtr(s string) *string { return &s }

// testFixtureDB inserts 2025 fixtures with compact date arguments.
type testFixtureDB struct {
	t  *testing.T
	db *gorm.DB
}

func (f *testFixtureDB) budget(total string, startMonth time.Month, startDay int, endMonth time.Month, endDay int, active bool) *models.Budget {
	f.t.Helper()
	return testutil.CreateTestBudget(f.t, f.db, total,
		testutil.Date(2025, startMonth, startDay), testutil.Date(2025, endMonth, endDay), active)
}

func (f *testFixtureDB) expense(category, amount string, year int, month time.Month, day int) *models.Expense {
	f.t.Helper()
	return testutil.CreateTestExpense(f.t, f.db, category, amount, testutil.Date(year, month, day))
}
