// Package mssql implements the payroll adapter against a SQL Server
// payroll database.
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/denisenkom/go-mssqldb" // SQL Server driver
	"github.com/rtwworks/platform/internal/adapters/payroll"
)

// Adapter implements payroll.Adapter for SQL Server payroll backends
type Adapter struct {
	db     *sql.DB
	config Config

	updateChan chan payroll.WageUpdateEvent

	running  bool
	mu       sync.RWMutex
	cancel   context.CancelFunc
	lastPoll time.Time
	wg       sync.WaitGroup
}

// Config holds SQL Server adapter configuration
type Config struct {
	payroll.Config

	// Table mapping
	WageTable string `json:"wage_table"`
}

// DefaultMSSQLConfig returns default SQL Server configuration
func DefaultMSSQLConfig() Config {
	return Config{
		Config:    payroll.DefaultConfig(),
		WageTable: "dbo.WageRecords",
	}
}

// New creates a new SQL Server payroll adapter
func New(cfg Config) (*Adapter, error) {
	return &Adapter{
		config:     cfg,
		updateChan: make(chan payroll.WageUpdateEvent, cfg.EventBufferSize),
	}, nil
}

// Start initializes the database connection and starts polling
func (a *Adapter) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.running {
		return fmt.Errorf("adapter already running")
	}

	connStr := fmt.Sprintf("server=%s;port=%d;database=%s;user id=%s;password=%s",
		a.config.Host,
		a.config.Port,
		a.config.Database,
		a.config.User,
		a.config.Password,
	)

	if a.config.SSLMode != "disable" {
		connStr += ";encrypt=true;TrustServerCertificate=true"
	}

	db, err := sql.Open("sqlserver", connStr)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	a.db = db
	a.running = true
	a.lastPoll = time.Now().Add(-a.config.PollInterval)

	pollCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	a.wg.Add(1)
	go a.pollLoop(pollCtx)

	return nil
}

// Stop stops the adapter and closes connections
func (a *Adapter) Stop(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.running {
		return nil
	}

	if a.cancel != nil {
		a.cancel()
	}

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	close(a.updateChan)

	if a.db != nil {
		a.db.Close()
	}

	a.running = false
	return nil
}

// Health checks database connectivity
func (a *Adapter) Health(ctx context.Context) error {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if !a.running {
		return fmt.Errorf("adapter not running")
	}

	return a.db.PingContext(ctx)
}

// SourceSystem returns the source system name
func (a *Adapter) SourceSystem() string {
	return "payroll-mssql"
}

// IsConnected returns connection status
func (a *Adapter) IsConnected() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.running && a.db != nil
}

// FetchWageRecord retrieves wage data for a claim. The presence flags are
// derived from column nullability: a NULL weekly wage means no wage data,
// a NULL PIAWE amount means the calculation has not been done.
func (a *Adapter) FetchWageRecord(ctx context.Context, claimNumber string) (*payroll.WageRecord, error) {
	if !a.IsConnected() {
		return nil, fmt.Errorf("adapter not connected")
	}

	query := fmt.Sprintf(`
		SELECT
			ClaimNumber,
			EmployeeID,
			EmployerName,
			GrossWeeklyWage,
			PIAWEAmount,
			LastModified
		FROM %s
		WHERE ClaimNumber = @claim
	`, a.config.WageTable)

	row := a.db.QueryRowContext(ctx, query, sql.Named("claim", claimNumber))

	record, err := scanWageRecord(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("wage record not found: %s", claimNumber)
		}
		return nil, fmt.Errorf("failed to fetch wage record: %w", err)
	}

	record.SourceSystem = a.SourceSystem()
	return record, nil
}

// FetchUpdatedSince retrieves wage records modified after the given time
func (a *Adapter) FetchUpdatedSince(ctx context.Context, since time.Time) ([]payroll.WageRecord, error) {
	if !a.IsConnected() {
		return nil, fmt.Errorf("adapter not connected")
	}

	query := fmt.Sprintf(`
		SELECT TOP (@batch)
			ClaimNumber,
			EmployeeID,
			EmployerName,
			GrossWeeklyWage,
			PIAWEAmount,
			LastModified
		FROM %s
		WHERE LastModified > @since
		ORDER BY LastModified ASC
	`, a.config.WageTable)

	rows, err := a.db.QueryContext(ctx, query,
		sql.Named("batch", a.config.BatchSize),
		sql.Named("since", since),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query wage records: %w", err)
	}
	defer rows.Close()

	var records []payroll.WageRecord
	for rows.Next() {
		record, err := scanWageRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan wage record: %w", err)
		}
		record.SourceSystem = a.SourceSystem()
		records = append(records, *record)
	}

	return records, rows.Err()
}

// SubscribeWageUpdates registers a handler for wage data changes
func (a *Adapter) SubscribeWageUpdates(ctx context.Context, handler payroll.WageUpdateHandler) error {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-a.updateChan:
				if !ok {
					return
				}
				handler(event)
			}
		}
	}()
	return nil
}

// pollLoop polls for wage records modified since the last pass
func (a *Adapter) pollLoop(ctx context.Context) {
	defer a.wg.Done()

	ticker := time.NewTicker(a.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.mu.Lock()
			lastPoll := a.lastPoll
			a.lastPoll = time.Now()
			a.mu.Unlock()

			records, err := a.FetchUpdatedSince(ctx, lastPoll)
			if err != nil {
				continue
			}

			for _, record := range records {
				event := payroll.WageUpdateEvent{
					EventID:          fmt.Sprintf("%s-%d", record.ClaimNumber, record.LastUpdated.Unix()),
					ClaimNumber:      record.ClaimNumber,
					WagesSalary:      record.WagesSalary,
					PIAWECalculation: record.PIAWECalculation,
					Timestamp:        record.LastUpdated,
					SourceSystem:     a.SourceSystem(),
				}

				select {
				case a.updateChan <- event:
				default:
					// Channel full, skip event
				}
			}
		}
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWageRecord(row rowScanner) (*payroll.WageRecord, error) {
	var record payroll.WageRecord
	var employeeID, employer sql.NullString
	var weeklyWage, piaweAmount sql.NullFloat64

	err := row.Scan(
		&record.ClaimNumber,
		&employeeID,
		&employer,
		&weeklyWage,
		&piaweAmount,
		&record.LastUpdated,
	)
	if err != nil {
		return nil, err
	}

	if employeeID.Valid {
		record.EmployeeID = employeeID.String
	}
	if employer.Valid {
		record.Employer = employer.String
	}
	record.WagesSalary = weeklyWage.Valid
	record.PIAWECalculation = piaweAmount.Valid

	return &record, nil
}

// Verify interface implementation
var _ payroll.Adapter = (*Adapter)(nil)
