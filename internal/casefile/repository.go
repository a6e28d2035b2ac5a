package casefile

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rtwworks/platform/internal/shared/errors"
	"github.com/rtwworks/platform/internal/shared/types"
)

// Repository defines the interface for case persistence. The derivation
// engine only consumes ListAll; it never mutates a case through this
// interface.
type Repository interface {
	ListAll(ctx context.Context) ([]Case, error)
	FindByID(ctx context.Context, id types.ID) (*Case, error)
	FindByConsultant(ctx context.Context, consultantID types.ID) ([]Case, error)
	Save(ctx context.Context, c *Case) error
	Update(ctx context.Context, c *Case) error
	Delete(ctx context.Context, id types.ID) error

	// SetWageFlags updates the wage-data presence flags for a claim,
	// used by the payroll sync.
	SetWageFlags(ctx context.Context, claimNumber string, wagesSalary, piaweCalculation bool) error
}

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const caseColumns = `id, claim_number, worker_first_name, worker_last_name, employer,
	consultant_id, case_manager, injury_date, status,
	review_dates, rtw_plan, communications, documents, supervisor_notes,
	wages_salary, piawe_calculation, created_at, updated_at`

// Save saves a new case
func (r *PostgresRepository) Save(ctx context.Context, c *Case) error {
	reviewDates, plan, comms, docs, notes, err := marshalCollections(c)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO rtw.cases (` + caseColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`

	_, err = r.pool.Exec(ctx, query,
		c.ID, c.ClaimNumber, c.WorkerFirstName, c.WorkerLastName, c.Employer,
		c.ConsultantID, c.CaseManager, c.InjuryDate, c.Status,
		reviewDates, plan, comms, docs, notes,
		c.WagesSalary, c.PIAWECalculation, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return errors.Conflict("case with this claim number already exists")
		}
		return errors.Wrap(err, "failed to save case")
	}

	return nil
}

// Update replaces an existing case record
func (r *PostgresRepository) Update(ctx context.Context, c *Case) error {
	reviewDates, plan, comms, docs, notes, err := marshalCollections(c)
	if err != nil {
		return err
	}

	query := `
		UPDATE rtw.cases SET
			worker_first_name = $2, worker_last_name = $3, employer = $4,
			consultant_id = $5, case_manager = $6, injury_date = $7, status = $8,
			review_dates = $9, rtw_plan = $10, communications = $11,
			documents = $12, supervisor_notes = $13,
			wages_salary = $14, piawe_calculation = $15, updated_at = $16
		WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query,
		c.ID, c.WorkerFirstName, c.WorkerLastName, c.Employer,
		c.ConsultantID, c.CaseManager, c.InjuryDate, c.Status,
		reviewDates, plan, comms, docs, notes,
		c.WagesSalary, c.PIAWECalculation, c.UpdatedAt,
	)
	if err != nil {
		return errors.Wrap(err, "failed to update case")
	}
	if tag.RowsAffected() == 0 {
		return errors.NotFound("case", c.ID.String())
	}

	return nil
}

// FindByID finds a case by ID
func (r *PostgresRepository) FindByID(ctx context.Context, id types.ID) (*Case, error) {
	query := `SELECT ` + caseColumns + ` FROM rtw.cases WHERE id = $1`

	c, err := scanCase(r.pool.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("case", id.String())
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find case")
	}

	return c, nil
}

// ListAll returns the full case set for a derivation pass
func (r *PostgresRepository) ListAll(ctx context.Context) ([]Case, error) {
	query := `SELECT ` + caseColumns + ` FROM rtw.cases ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list cases")
	}
	defer rows.Close()

	return collectCases(rows)
}

// FindByConsultant returns the cases assigned to one consultant
func (r *PostgresRepository) FindByConsultant(ctx context.Context, consultantID types.ID) ([]Case, error) {
	query := `SELECT ` + caseColumns + ` FROM rtw.cases WHERE consultant_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, consultantID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list consultant cases")
	}
	defer rows.Close()

	return collectCases(rows)
}

// Delete removes a case
func (r *PostgresRepository) Delete(ctx context.Context, id types.ID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM rtw.cases WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "failed to delete case")
	}
	if tag.RowsAffected() == 0 {
		return errors.NotFound("case", id.String())
	}
	return nil
}

// SetWageFlags updates the wage-data presence flags for a claim
func (r *PostgresRepository) SetWageFlags(ctx context.Context, claimNumber string, wagesSalary, piaweCalculation bool) error {
	query := `
		UPDATE rtw.cases
		SET wages_salary = $2, piawe_calculation = $3, updated_at = NOW()
		WHERE claim_number = $1`

	tag, err := r.pool.Exec(ctx, query, claimNumber, wagesSalary, piaweCalculation)
	if err != nil {
		return errors.Wrap(err, "failed to set wage flags")
	}
	if tag.RowsAffected() == 0 {
		return errors.NotFound("case", claimNumber)
	}
	return nil
}

// --- Row mapping ---

func marshalCollections(c *Case) (reviewDates, plan, comms, docs, notes []byte, err error) {
	if reviewDates, err = json.Marshal(c.ReviewDates); err != nil {
		return nil, nil, nil, nil, nil, errors.Wrap(err, "failed to marshal review dates")
	}
	if c.RTWPlan != nil {
		if plan, err = json.Marshal(c.RTWPlan); err != nil {
			return nil, nil, nil, nil, nil, errors.Wrap(err, "failed to marshal rtw plan")
		}
	}
	if comms, err = json.Marshal(c.Communications); err != nil {
		return nil, nil, nil, nil, nil, errors.Wrap(err, "failed to marshal communications")
	}
	if docs, err = json.Marshal(c.Documents); err != nil {
		return nil, nil, nil, nil, nil, errors.Wrap(err, "failed to marshal documents")
	}
	if notes, err = json.Marshal(c.SupervisorNotes); err != nil {
		return nil, nil, nil, nil, nil, errors.Wrap(err, "failed to marshal supervisor notes")
	}
	return reviewDates, plan, comms, docs, notes, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCase(row rowScanner) (*Case, error) {
	c := &Case{}
	var reviewDates, plan, comms, docs, notes []byte

	err := row.Scan(
		&c.ID, &c.ClaimNumber, &c.WorkerFirstName, &c.WorkerLastName, &c.Employer,
		&c.ConsultantID, &c.CaseManager, &c.InjuryDate, &c.Status,
		&reviewDates, &plan, &comms, &docs, &notes,
		&c.WagesSalary, &c.PIAWECalculation, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(reviewDates, &c.ReviewDates); err != nil {
		c.ReviewDates = []string{}
	}
	if len(plan) > 0 {
		c.RTWPlan = &RTWPlan{}
		if err := json.Unmarshal(plan, c.RTWPlan); err != nil {
			c.RTWPlan = nil
		}
	}
	if err := json.Unmarshal(comms, &c.Communications); err != nil {
		c.Communications = []Communication{}
	}
	if err := json.Unmarshal(docs, &c.Documents); err != nil {
		c.Documents = []Document{}
	}
	if err := json.Unmarshal(notes, &c.SupervisorNotes); err != nil {
		c.SupervisorNotes = []SupervisorNote{}
	}

	return c, nil
}

func collectCases(rows pgx.Rows) ([]Case, error) {
	var cases []Case
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan case")
		}
		cases = append(cases, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read cases")
	}
	return cases, nil
}
