package dates

import (
	"errors"
	"testing"
	"time"
)

var now = time.Date(2026, 3, 15, 14, 30, 0, 0, time.UTC)

// TestParse tests ISO date and date-time parsing
func TestParse(t *testing.T) {
	tests := []struct {
		name        string
		value       string
		expectError bool
	}{
		{"Plain date", "2026-03-15", false},
		{"RFC3339 date-time", "2026-03-15T09:00:00Z", false},
		{"RFC3339 with offset", "2026-03-15T09:00:00+10:00", false},
		{"Empty", "", true},
		{"Garbage", "15/03/2026", true},
		{"Partial", "2026-03", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("review_date", tt.value)
			if tt.expectError && err == nil {
				t.Error("Expected error but got none")
			}
			if !tt.expectError && err != nil {
				t.Errorf("Expected no error but got: %v", err)
			}
		})
	}
}

// TestParseMalformedDateError tests that parse failures carry the field name
func TestParseMalformedDateError(t *testing.T) {
	_, err := Parse("injury_date", "not-a-date")
	if err == nil {
		t.Fatal("Expected error")
	}

	var mde *MalformedDateError
	if !errors.As(err, &mde) {
		t.Fatalf("Expected MalformedDateError, got %T", err)
	}
	if mde.Field != "injury_date" {
		t.Errorf("Expected field injury_date, got %s", mde.Field)
	}
	if mde.Value != "not-a-date" {
		t.Errorf("Expected value not-a-date, got %s", mde.Value)
	}
}

// TestClassify tests date classification boundaries
func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		target   time.Time
		expected Class
	}{
		{"Yesterday", now.AddDate(0, 0, -1), ClassOverdue},
		{"A week ago", now.AddDate(0, 0, -7), ClassOverdue},
		{"Today earlier hour", time.Date(2026, 3, 15, 1, 0, 0, 0, time.UTC), ClassToday},
		{"Today later hour", time.Date(2026, 3, 15, 23, 59, 0, 0, time.UTC), ClassToday},
		{"Tomorrow", now.AddDate(0, 0, 1), ClassTomorrow},
		{"Two days out", now.AddDate(0, 0, 2), ClassWithin},
		{"Window edge", now.AddDate(0, 0, 7), ClassWithin},
		{"Past the window", now.AddDate(0, 0, 8), ClassFuture},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(now, tt.target, 7)
			if got != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, got)
			}
		})
	}
}

// TestDaysOverdue tests whole-day overdue counting
func TestDaysOverdue(t *testing.T) {
	tests := []struct {
		name     string
		target   time.Time
		expected int
	}{
		{"Future date", now.AddDate(0, 0, 3), 0},
		{"Today", now, 0},
		{"One day past", now.AddDate(0, 0, -1), 1},
		{"Eight days past", now.AddDate(0, 0, -8), 8},
		{"Past by hours only", time.Date(2026, 3, 15, 0, 30, 0, 0, time.UTC), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DaysOverdue(now, tt.target); got != tt.expected {
				t.Errorf("Expected %d, got %d", tt.expected, got)
			}
		})
	}
}

// TestDaysUntil tests signed day distance
func TestDaysUntil(t *testing.T) {
	if got := DaysUntil(now, now.AddDate(0, 0, 5)); got != 5 {
		t.Errorf("Expected 5, got %d", got)
	}
	if got := DaysUntil(now, now.AddDate(0, 0, -2)); got != -2 {
		t.Errorf("Expected -2, got %d", got)
	}
	if got := DaysUntil(now, now); got != 0 {
		t.Errorf("Expected 0, got %d", got)
	}
}
