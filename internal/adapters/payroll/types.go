// Package payroll defines the interface to external payroll systems. An
// adapter surfaces wage-data availability per claim; the platform only
// records whether wage figures and the PIAWE calculation exist, never the
// figures themselves.
package payroll

import (
	"context"
	"time"
)

// WageRecord describes the wage data held for one claim in the payroll
// system.
type WageRecord struct {
	ClaimNumber string    `json:"claim_number"`
	EmployeeID  string    `json:"employee_id,omitempty"`
	Employer    string    `json:"employer,omitempty"`

	// Data presence flags
	WagesSalary      bool `json:"wages_salary"`      // weekly earnings on file
	PIAWECalculation bool `json:"piawe_calculation"` // pre-injury average computed

	SourceSystem string    `json:"source_system"`
	LastUpdated  time.Time `json:"last_updated"`
}

// WageUpdateEvent is emitted when a claim's wage data changes in the
// payroll system.
type WageUpdateEvent struct {
	EventID          string    `json:"event_id"`
	ClaimNumber      string    `json:"claim_number"`
	WagesSalary      bool      `json:"wages_salary"`
	PIAWECalculation bool      `json:"piawe_calculation"`
	Timestamp        time.Time `json:"timestamp"`
	SourceSystem     string    `json:"source_system"`
}

// WageUpdateHandler is called for each detected wage data change
type WageUpdateHandler func(event WageUpdateEvent)

// Adapter defines the interface for payroll system adapters.
// Implementations connect to specific payroll backends and provide a
// unified API for the platform.
type Adapter interface {
	// Wage data retrieval
	FetchWageRecord(ctx context.Context, claimNumber string) (*WageRecord, error)
	FetchUpdatedSince(ctx context.Context, since time.Time) ([]WageRecord, error)

	// Change subscription
	SubscribeWageUpdates(ctx context.Context, handler WageUpdateHandler) error

	// Adapter metadata
	SourceSystem() string
	IsConnected() bool

	// Lifecycle
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Health(ctx context.Context) error
}

// Config holds common configuration for payroll adapters
type Config struct {
	// Database connection
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Database string `json:"database"`
	User     string `json:"user"`
	Password string `json:"password"`
	SSLMode  string `json:"ssl_mode"`

	// Polling configuration
	PollInterval time.Duration `json:"poll_interval"`
	BatchSize    int           `json:"batch_size"`

	// Event publishing
	EventBufferSize int `json:"event_buffer_size"`
}

// DefaultConfig returns default adapter configuration
func DefaultConfig() Config {
	return Config{
		Port:            1433, // SQL Server default
		SSLMode:         "disable",
		PollInterval:    time.Minute,
		BatchSize:       100,
		EventBufferSize: 1000,
	}
}
