package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Budget is a spending ceiling over a date window. At most one budget is
// active at a time; the budget service owns that invariant.
type Budget struct {
	Base
	TotalAmount decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"total_amount"`
	StartDate   time.Time       `gorm:"type:date;not null;index" json:"start_date"`
	EndDate     time.Time       `gorm:"type:date;not null" json:"end_date"`
	Description *string         `gorm:"size:200" json:"description,omitempty"`
	IsActive    bool            `gorm:"not null;default:false;index" json:"is_active"`
}

const day = 24 * time.Hour

// DurationDays returns the whole number of days between start and end,
// floored.
func (b *Budget) DurationDays() int {
	d := b.EndDate.Sub(b.StartDate)
	days := d / day
	if d%day < 0 {
		days--
	}
	return int(days)
}

// IsCurrent reports whether now falls inside the budget window, inclusive.
func (b *Budget) IsCurrent(now time.Time) bool {
	return !now.Before(b.StartDate) && !b.HasEnded(now)
}

// HasEnded reports whether the window closed before now.
func (b *Budget) HasEnded(now time.Time) bool {
	return now.After(b.EndDate)
}
