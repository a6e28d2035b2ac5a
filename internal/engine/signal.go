// Package engine derives compliance alerts from the case set: personal
// notifications, supervisor case flags and per-consultant workload metrics.
// Every derivation is a pure function of (cases, now, user) and is safe to
// re-run on any state change; identity of derived records is deterministic
// so repeated passes converge on the same output.
package engine

import (
	"fmt"
	"time"

	"github.com/rtwworks/platform/internal/casefile"
	"github.com/rtwworks/platform/internal/shared/auth"
	"github.com/rtwworks/platform/internal/shared/dates"
	"github.com/rtwworks/platform/internal/shared/types"
)

// Severity is the shared rank scale for signals, notification priorities
// and flag severities.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Rank returns the numeric rank used by the shared sort order.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	}
	return 0
}

// SignalKind identifies a compliance condition. The set is closed;
// synthesis switches over it exhaustively.
type SignalKind string

const (
	SignalReviewOverdue   SignalKind = "review_overdue"
	SignalReviewToday     SignalKind = "review_today"
	SignalReviewTomorrow  SignalKind = "review_tomorrow"
	SignalReviewUpcoming  SignalKind = "review_upcoming"
	SignalTaskOverdue     SignalKind = "task_overdue"
	SignalTaskUpcoming    SignalKind = "task_upcoming"
	SignalPlanBoundary    SignalKind = "plan_boundary"
	SignalContactStale    SignalKind = "communication_stale"
	SignalDocumentsMissing SignalKind = "documents_missing"
	SignalInitialContact  SignalKind = "initial_contact_required"
	SignalPIAWEMissing    SignalKind = "piawe_missing"
	SignalSupervisorNote  SignalKind = "supervisor_note"
)

// Derivation thresholds, in whole days.
const (
	reviewUpcomingWindow  = 7
	reviewCriticalAfter   = 7
	reviewHighAfter       = 3
	taskCriticalAfter     = 5
	contactStaleAfter     = 14
	contactStaleHighAfter = 30
	initialContactWindow  = 3
)

// Signal is one atomic compliance fact derived from a case. Key
// distinguishes multiple signals of the same kind on the same case
// (review date string, task ID, note ID), so a signal is emitted at most
// once per (kind, case, key) per pass.
type Signal struct {
	Kind        SignalKind
	CaseID      types.ID
	Severity    Severity
	Key         string
	WorkerName  string
	DueDate     *time.Time
	DaysOverdue int
	DaysUntil   int

	// Kind-specific payload
	TaskTitle string
	Note      *casefile.SupervisorNote
}

// ExtractSignals walks one case and emits its compliance signals. The
// supervisor-note rule needs the current user and is skipped entirely when
// user is nil (the flag and workload paths always pass nil). Malformed date
// fields are reported to diag, once per field, and contribute no signal;
// extraction never fails.
func ExtractSignals(c *casefile.Case, now time.Time, user *auth.User, diag *Diagnostics) []Signal {
	var signals []Signal
	worker := c.WorkerName()

	// Review dates
	for i, rd := range c.ReviewDates {
		field := fmt.Sprintf("case %s review_dates[%d]", c.ID, i)
		target, ok := parseDate(diag, field, rd)
		if !ok {
			continue
		}

		base := Signal{CaseID: c.ID, Key: rd, WorkerName: worker, DueDate: &target}
		switch dates.Classify(now, target, reviewUpcomingWindow) {
		case dates.ClassOverdue:
			base.Kind = SignalReviewOverdue
			base.DaysOverdue = dates.DaysOverdue(now, target)
			base.Severity = reviewOverdueSeverity(base.DaysOverdue)
		case dates.ClassToday:
			base.Kind = SignalReviewToday
			base.Severity = SeverityHigh
		case dates.ClassTomorrow:
			base.Kind = SignalReviewTomorrow
			base.Severity = SeverityMedium
			base.DaysUntil = 1
		case dates.ClassWithin:
			base.Kind = SignalReviewUpcoming
			base.Severity = SeverityLow
			base.DaysUntil = dates.DaysUntil(now, target)
		default:
			continue
		}
		signals = append(signals, base)
	}

	// Plan tasks
	for _, task := range c.IncompleteTasks() {
		field := fmt.Sprintf("case %s task %s due_date", c.ID, task.ID)
		target, ok := parseDate(diag, field, task.DueDate)
		if !ok {
			continue
		}

		base := Signal{CaseID: c.ID, Key: task.ID.String(), WorkerName: worker,
			DueDate: &target, TaskTitle: task.Title}
		switch dates.Classify(now, target, reviewUpcomingWindow) {
		case dates.ClassOverdue:
			base.Kind = SignalTaskOverdue
			base.DaysOverdue = dates.DaysOverdue(now, target)
			if base.DaysOverdue > taskCriticalAfter {
				base.Severity = SeverityCritical
			} else {
				base.Severity = SeverityHigh
			}
		case dates.ClassToday, dates.ClassTomorrow:
			base.Kind = SignalTaskUpcoming
			base.Severity = SeverityMedium
			base.DaysUntil = dates.DaysUntil(now, target)
		default:
			continue
		}
		signals = append(signals, base)
	}

	// Plan boundaries
	if c.RTWPlan != nil {
		boundaries := []struct {
			key   string
			value string
		}{
			{"plan_start", c.RTWPlan.StartDate},
			{"plan_end", c.RTWPlan.EndDate},
		}
		for _, b := range boundaries {
			if b.value == "" {
				continue
			}
			field := fmt.Sprintf("case %s %s", c.ID, b.key)
			target, ok := parseDate(diag, field, b.value)
			if !ok {
				continue
			}
			switch dates.Classify(now, target, reviewUpcomingWindow) {
			case dates.ClassToday, dates.ClassTomorrow:
				signals = append(signals, Signal{
					Kind: SignalPlanBoundary, CaseID: c.ID, Severity: SeverityMedium,
					Key: b.key, WorkerName: worker, DueDate: &target,
					DaysUntil: dates.DaysUntil(now, target),
				})
			}
		}
	}

	// Stale communication (open cases only)
	if c.Status == casefile.CaseStatusOpen {
		lastContact, src := c.InjuryDate, "injury_date"
		if last, ok := c.LastCommunicationDate(); ok {
			lastContact, src = last, "last communication date"
		}
		field := fmt.Sprintf("case %s %s", c.ID, src)
		if target, ok := parseDate(diag, field, lastContact); ok {
			days := dates.DaysSince(now, target)
			if days > contactStaleAfter {
				sev := SeverityMedium
				if days > contactStaleHighAfter {
					sev = SeverityHigh
				}
				signals = append(signals, Signal{
					Kind: SignalContactStale, CaseID: c.ID, Severity: sev,
					Key: "stale_contact", WorkerName: worker, DaysOverdue: days,
				})
			}
		}
	}

	// Missing documents
	if len(c.Documents) == 0 {
		signals = append(signals, Signal{
			Kind: SignalDocumentsMissing, CaseID: c.ID, Severity: SeverityMedium,
			Key: "documents", WorkerName: worker,
		})
	}

	// Missed initial contact
	if len(c.Communications) == 0 {
		field := fmt.Sprintf("case %s injury_date", c.ID)
		if target, ok := parseDate(diag, field, c.InjuryDate); ok {
			if days := dates.DaysSince(now, target); days <= initialContactWindow {
				signals = append(signals, Signal{
					Kind: SignalInitialContact, CaseID: c.ID, Severity: SeverityCritical,
					Key: "initial_contact", WorkerName: worker, DaysOverdue: days,
				})
			}
		}
	}

	// PIAWE calculation missing
	if c.WagesSalary && !c.PIAWECalculation {
		signals = append(signals, Signal{
			Kind: SignalPIAWEMissing, CaseID: c.ID, Severity: SeverityMedium,
			Key: "piawe", WorkerName: worker,
		})
	}

	// Supervisor notes (personal rule, skipped without a user context)
	if user != nil {
		for i := range c.SupervisorNotes {
			note := &c.SupervisorNotes[i]
			if note.Author == user.Name || note.IsReadBy(user.ID) {
				continue
			}
			signals = append(signals, Signal{
				Kind: SignalSupervisorNote, CaseID: c.ID,
				Severity: noteSeverity(note),
				Key:      note.ID.String(), WorkerName: worker, Note: note,
			})
		}
	}

	return signals
}

// reviewOverdueSeverity scales severity with how far past the review is:
// strictly more than 7 days is critical, more than 3 high, otherwise medium.
func reviewOverdueSeverity(daysOverdue int) Severity {
	switch {
	case daysOverdue > reviewCriticalAfter:
		return SeverityCritical
	case daysOverdue > reviewHighAfter:
		return SeverityHigh
	default:
		return SeverityMedium
	}
}

// noteSeverity derives signal severity from the note subtype.
func noteSeverity(note *casefile.SupervisorNote) Severity {
	switch {
	case note.Type == casefile.NoteTypeInstruction && note.AuthorRole == casefile.AuthorRoleAdmin:
		if note.RequiresResponse {
			return SeverityHigh
		}
		return SeverityMedium
	case note.Type == casefile.NoteTypeQuestion && note.AuthorRole == casefile.AuthorRoleConsultant:
		return SeverityMedium
	case note.Type == casefile.NoteTypeReply:
		return SeverityMedium
	}

	switch note.Priority {
	case casefile.NotePriorityHigh:
		return SeverityHigh
	case casefile.NotePriorityLow:
		return SeverityLow
	default:
		return SeverityMedium
	}
}

func parseDate(diag *Diagnostics, field, value string) (time.Time, bool) {
	t, err := dates.Parse(field, value)
	if err != nil {
		diag.Report(err)
		return time.Time{}, false
	}
	return t, true
}
