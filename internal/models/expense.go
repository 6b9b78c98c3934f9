package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Expense is a single recorded outflow.
type Expense struct {
	Base
	Description string          `gorm:"size:200;not null" json:"description"`
	Amount      decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"amount"`
	Category    string          `gorm:"size:50;not null;index" json:"category"`
	Date        time.Time       `gorm:"type:date;not null;index" json:"date"`
	Notes       *string         `gorm:"size:500" json:"notes,omitempty"`
}
