// Package casefile holds the case records the derivation engine scans:
// injured workers, review dates, RTW task plans, communications, documents
// and supervisor notes.
package casefile

import (
	"fmt"
	"time"

	"github.com/rtwworks/platform/internal/shared/types"
)

// CaseStatus defines the lifecycle status of a case
type CaseStatus string

const (
	CaseStatusOpen    CaseStatus = "open"
	CaseStatusPending CaseStatus = "pending"
	CaseStatusClosed  CaseStatus = "closed"
)

// NoteType defines the subtype of a supervisor note
type NoteType string

const (
	NoteTypeInstruction NoteType = "instruction"
	NoteTypeQuestion    NoteType = "question"
	NoteTypeReply       NoteType = "reply"
	NoteTypeGeneral     NoteType = "general"
)

// NotePriority defines the stated priority of a supervisor note
type NotePriority string

const (
	NotePriorityLow    NotePriority = "low"
	NotePriorityMedium NotePriority = "medium"
	NotePriorityHigh   NotePriority = "high"
)

// AuthorRole defines who authored a supervisor note
type AuthorRole string

const (
	AuthorRoleAdmin      AuthorRole = "admin"
	AuthorRoleConsultant AuthorRole = "consultant"
)

// Task is one step in a return-to-work plan
type Task struct {
	ID        types.ID `json:"id"`
	Title     string   `json:"title"`
	DueDate   string   `json:"due_date"` // ISO date
	Completed bool     `json:"completed"`
}

// RTWPlan is the return-to-work plan attached to a case
type RTWPlan struct {
	StartDate string `json:"start_date"` // ISO date
	EndDate   string `json:"end_date"`   // ISO date
	Goal      string `json:"goal,omitempty"`
	Tasks     []Task `json:"tasks"`
}

// Communication records one contact with the worker or employer
type Communication struct {
	ID      types.ID `json:"id"`
	Date    string   `json:"date"` // ISO date or date-time
	Method  string   `json:"method,omitempty"` // phone, email, visit
	Contact string   `json:"contact,omitempty"`
	Summary string   `json:"summary,omitempty"`
}

// Document is a file attached to a case
type Document struct {
	ID         types.ID  `json:"id"`
	Name       string    `json:"name"`
	Type       string    `json:"type,omitempty"` // certificate, plan, correspondence
	UploadedBy types.ID  `json:"uploaded_by,omitempty"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// SupervisorNote is a note left on a case by a supervisor or consultant.
// ReadBy tracks which users have seen it.
type SupervisorNote struct {
	ID               types.ID     `json:"id"`
	Author           string       `json:"author"` // display name
	AuthorRole       AuthorRole   `json:"author_role"`
	Type             NoteType     `json:"type"`
	Priority         NotePriority `json:"priority"`
	RequiresResponse bool         `json:"requires_response"`
	Content          string       `json:"content,omitempty"`
	ReadBy           []types.ID   `json:"read_by"`
	CreatedAt        time.Time    `json:"created_at"`
}

// IsReadBy reports whether the given user has read the note
func (n *SupervisorNote) IsReadBy(userID types.ID) bool {
	for _, id := range n.ReadBy {
		if id == userID {
			return true
		}
	}
	return false
}

// Case is the aggregate record for one injured worker's claim.
// Date fields are retained as the ISO strings the source systems supply;
// parsing and malformed-date handling belong to the derivation engine.
type Case struct {
	ID          types.ID `json:"id"`
	ClaimNumber string   `json:"claim_number"`

	// Worker and claim metadata
	WorkerFirstName string   `json:"worker_first_name"`
	WorkerLastName  string   `json:"worker_last_name"`
	Employer        string   `json:"employer"`
	ConsultantID    types.ID `json:"consultant_id"`
	CaseManager     string   `json:"case_manager,omitempty"`

	InjuryDate string     `json:"injury_date"` // ISO date
	Status     CaseStatus `json:"status"`

	// Compliance-relevant collections
	ReviewDates     []string         `json:"review_dates"` // ISO dates, not required sorted
	RTWPlan         *RTWPlan         `json:"rtw_plan,omitempty"`
	Communications  []Communication  `json:"communications"` // ordered by occurrence
	Documents       []Document       `json:"documents"`
	SupervisorNotes []SupervisorNote `json:"supervisor_notes"`

	// Wage data availability
	WagesSalary      bool `json:"wages_salary"`
	PIAWECalculation bool `json:"piawe_calculation"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewCase creates a new case with validation
func NewCase(claimNumber, firstName, lastName, employer, injuryDate string, consultantID types.ID) (*Case, error) {
	if claimNumber == "" {
		return nil, fmt.Errorf("claim number is required")
	}
	if firstName == "" || lastName == "" {
		return nil, fmt.Errorf("worker name is required")
	}
	if employer == "" {
		return nil, fmt.Errorf("employer is required")
	}
	if injuryDate == "" {
		return nil, fmt.Errorf("injury date is required")
	}

	now := time.Now()
	return &Case{
		ID:              types.NewID(),
		ClaimNumber:     claimNumber,
		WorkerFirstName: firstName,
		WorkerLastName:  lastName,
		Employer:        employer,
		ConsultantID:    consultantID,
		InjuryDate:      injuryDate,
		Status:          CaseStatusOpen,
		ReviewDates:     []string{},
		Communications:  []Communication{},
		Documents:       []Document{},
		SupervisorNotes: []SupervisorNote{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// WorkerName returns the worker's full display name
func (c *Case) WorkerName() string {
	return c.WorkerFirstName + " " + c.WorkerLastName
}

// IsActive reports whether the case is open or pending
func (c *Case) IsActive() bool {
	return c.Status == CaseStatusOpen || c.Status == CaseStatusPending
}

// LastCommunicationDate returns the date of the most recent communication.
// Communications arrive ordered by occurrence; the last entry wins.
func (c *Case) LastCommunicationDate() (string, bool) {
	if len(c.Communications) == 0 {
		return "", false
	}
	return c.Communications[len(c.Communications)-1].Date, true
}

// IncompleteTasks returns the plan tasks not yet completed. A case without
// a plan has no tasks.
func (c *Case) IncompleteTasks() []Task {
	if c.RTWPlan == nil {
		return nil
	}
	var tasks []Task
	for _, t := range c.RTWPlan.Tasks {
		if !t.Completed {
			tasks = append(tasks, t)
		}
	}
	return tasks
}

// MarkNoteRead records that a user has read a supervisor note. Adding the
// same user twice is a no-op, so repeated marks stay idempotent.
func (c *Case) MarkNoteRead(noteID, userID types.ID) error {
	for i := range c.SupervisorNotes {
		if c.SupervisorNotes[i].ID != noteID {
			continue
		}
		if c.SupervisorNotes[i].IsReadBy(userID) {
			return nil
		}
		c.SupervisorNotes[i].ReadBy = append(c.SupervisorNotes[i].ReadBy, userID)
		c.UpdatedAt = time.Now()
		return nil
	}
	return fmt.Errorf("note %s not found", noteID)
}
