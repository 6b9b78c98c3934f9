// Package events publishes change notifications for expenses and budgets.
// Publishing happens after the database commit; delivery is best effort.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"budgetly/internal/logger"
)

// Type names a change notification.
type Type string

// Event types.
const (
	ExpenseCreated  Type = "expense.created"
	ExpenseUpdated  Type = "expense.updated"
	ExpenseDeleted  Type = "expense.deleted"
	BudgetCreated   Type = "budget.created"
	BudgetUpdated   Type = "budget.updated"
	BudgetDeleted   Type = "budget.deleted"
	BudgetActivated Type = "budget.activated"
)

// Resource returns the part of the type before the dot, e.g. "expense".
func (t Type) Resource() string {
	resource, _, _ := strings.Cut(string(t), ".")
	return resource
}

// Event is the wire format shared by every transport.
type Event struct {
	Type       Type      `json:"type"`
	ResourceID string    `json:"resource_id"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload,omitempty"`
}

// New builds an event stamped with at in UTC.
func New(t Type, resourceID string, payload any, at time.Time) Event {
	return Event{Type: t, ResourceID: resourceID, OccurredAt: at.UTC(), Payload: payload}
}

// Encode marshals the event to JSON.
func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// Publisher delivers events to one transport.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Multi fans an event out to every publisher, collecting all failures.
type Multi []Publisher

// Publish implements Publisher.
func (m Multi) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close implements Publisher.
func (m Multi) Close() error {
	var errs []error
	for _, p := range m {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop discards events.
type Nop struct{}

// Publish implements Publisher.
func (Nop) Publish(context.Context, Event) error { return nil }

// Close implements Publisher.
func (Nop) Close() error { return nil }

// Dispatch publishes e and logs any failure. The caller's write has already
// committed, so delivery errors never reach the client.
func Dispatch(ctx context.Context, p Publisher, e Event) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, e); err != nil {
		logger.Get().Warnw("failed to publish event",
			"type", e.Type,
			"resource_id", e.ResourceID,
			"error", err,
		)
	}
}
