package models

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestBudgetDerivedFields(t *testing.T) {
	b := &Budget{StartDate: date(2025, 3, 1), EndDate: date(2025, 3, 31)}

	if got := b.DurationDays(); got != 30 {
		t.Errorf("DurationDays = %d, want 30", got)
	}

	tests := []struct {
		name        string
		now         time.Time
		wantCurrent bool
		wantEnded   bool
	}{
		{"before_start", date(2025, 2, 28), false, false},
		{"on_start", date(2025, 3, 1), true, false},
		{"middle", date(2025, 3, 15).Add(10 * time.Hour), true, false},
		{"on_end_midnight", date(2025, 3, 31), true, false},
		{"after_end", date(2025, 3, 31).Add(time.Hour), false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := b.IsCurrent(tt.now); got != tt.wantCurrent {
				t.Errorf("IsCurrent = %v, want %v", got, tt.wantCurrent)
			}
			if got := b.HasEnded(tt.now); got != tt.wantEnded {
				t.Errorf("HasEnded = %v, want %v", got, tt.wantEnded)
			}
		})
	}
}

func TestBudgetDurationDays_Floors(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		want  int
	}{
		{"whole_days", date(2025, 3, 1), date(2025, 3, 31), 30},
		{"partial_day", date(2025, 3, 1), date(2025, 3, 2).Add(12 * time.Hour), 1},
		{"reversed_partial_day", date(2025, 3, 2), date(2025, 3, 1).Add(12 * time.Hour), -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &Budget{StartDate: tt.start, EndDate: tt.end}
			if got := b.DurationDays(); got != tt.want {
				t.Errorf("DurationDays = %d, want %d", got, tt.want)
			}
		})
	}
}
