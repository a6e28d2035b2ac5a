package engine

import (
	"fmt"
	"time"

	"github.com/rtwworks/platform/internal/casefile"
	"github.com/rtwworks/platform/internal/shared/auth"
	"github.com/rtwworks/platform/internal/shared/types"
)

// Category groups notifications for presentation.
type Category string

const (
	CategoryReview        Category = "review"
	CategoryTask          Category = "task"
	CategoryPlan          Category = "plan"
	CategoryCommunication Category = "communication"
	CategoryCompliance    Category = "compliance"
	CategorySupervisor    Category = "supervisor"
)

// Notification is one alert addressed to the current user. IDs are
// deterministic over (kind, case, key), so the same condition always yields
// the same notification identity across derivation passes. CreatedAt is
// pinned to the signal's due date when one exists; re-deriving an unchanged
// case set therefore reproduces every notification byte for byte.
type Notification struct {
	ID             types.ID   `json:"id"`
	Kind           SignalKind `json:"kind"`
	Category       Category   `json:"category"`
	Title          string     `json:"title"`
	Message        string     `json:"message"`
	CaseID         types.ID   `json:"caseId"`
	Priority       Severity   `json:"priority"`
	CreatedAt      time.Time  `json:"createdAt"`
	DueDate        *time.Time `json:"dueDate,omitempty"`
	Read           bool       `json:"read"`
	ActionRequired bool       `json:"actionRequired"`
}

// DeriveNotifications runs a full derivation pass over the visible case set
// and returns the user's notifications, sorted by priority then recency.
// The result carries no read or dismissed state; the caller applies the
// user's overlay afterwards.
func DeriveNotifications(cases []casefile.Case, user *auth.User, now time.Time) ([]Notification, *Diagnostics) {
	diag := NewDiagnostics()
	seen := make(map[types.ID]struct{})
	var out []Notification

	for i := range cases {
		for _, sig := range ExtractSignals(&cases[i], now, user, diag) {
			n := synthesize(sig, now)
			if _, dup := seen[n.ID]; dup {
				continue
			}
			seen[n.ID] = struct{}{}
			out = append(out, n)
		}
	}

	SortNotifications(out)
	return out, diag
}

// UnreadCount counts notifications not yet marked read.
func UnreadCount(ns []Notification) int {
	count := 0
	for _, n := range ns {
		if !n.Read {
			count++
		}
	}
	return count
}

// CriticalCount counts critical-priority notifications, read or not.
func CriticalCount(ns []Notification) int {
	count := 0
	for _, n := range ns {
		if n.Priority == SeverityCritical {
			count++
		}
	}
	return count
}

func synthesize(sig Signal, now time.Time) Notification {
	n := Notification{
		ID:       notificationID(sig),
		Kind:     sig.Kind,
		Category: categoryOf(sig.Kind),
		CaseID:   sig.CaseID,
		Priority: sig.Severity,
		DueDate:  sig.DueDate,
	}

	if sig.DueDate != nil {
		n.CreatedAt = *sig.DueDate
	} else {
		n.CreatedAt = now
	}

	n.Title, n.Message = renderMessage(sig)
	n.ActionRequired = actionRequired(sig)
	return n
}

func notificationID(sig Signal) types.ID {
	name := fmt.Sprintf("%s|%s|%s", sig.Kind, sig.CaseID, sig.Key)
	return types.NewDeterministicID("notification", name)
}

func categoryOf(kind SignalKind) Category {
	switch kind {
	case SignalReviewOverdue, SignalReviewToday, SignalReviewTomorrow, SignalReviewUpcoming:
		return CategoryReview
	case SignalTaskOverdue, SignalTaskUpcoming:
		return CategoryTask
	case SignalPlanBoundary:
		return CategoryPlan
	case SignalContactStale:
		return CategoryCommunication
	case SignalSupervisorNote:
		return CategorySupervisor
	default:
		return CategoryCompliance
	}
}

func renderMessage(sig Signal) (title, message string) {
	switch sig.Kind {
	case SignalReviewOverdue:
		return "Review Overdue",
			fmt.Sprintf("Review for %s is %d days overdue", sig.WorkerName, sig.DaysOverdue)
	case SignalReviewToday:
		return "Review Due Today",
			fmt.Sprintf("Review for %s is due today", sig.WorkerName)
	case SignalReviewTomorrow:
		return "Review Due Tomorrow",
			fmt.Sprintf("Review for %s is due tomorrow", sig.WorkerName)
	case SignalReviewUpcoming:
		return "Upcoming Review",
			fmt.Sprintf("Review for %s is due in %d days", sig.WorkerName, sig.DaysUntil)
	case SignalTaskOverdue:
		return "RTW Task Overdue",
			fmt.Sprintf("Task %q for %s is %d days overdue", sig.TaskTitle, sig.WorkerName, sig.DaysOverdue)
	case SignalTaskUpcoming:
		return "RTW Task Due Soon",
			fmt.Sprintf("Task %q for %s is due %s", sig.TaskTitle, sig.WorkerName, todayOrTomorrow(sig.DaysUntil))
	case SignalPlanBoundary:
		if sig.Key == "plan_start" {
			return "RTW Plan Starting",
				fmt.Sprintf("RTW plan for %s starts %s", sig.WorkerName, todayOrTomorrow(sig.DaysUntil))
		}
		return "RTW Plan Ending",
			fmt.Sprintf("RTW plan for %s ends %s", sig.WorkerName, todayOrTomorrow(sig.DaysUntil))
	case SignalContactStale:
		return "Contact Overdue",
			fmt.Sprintf("No contact with %s for %d days", sig.WorkerName, sig.DaysOverdue)
	case SignalDocumentsMissing:
		return "Documents Missing",
			fmt.Sprintf("Case for %s has no documents attached", sig.WorkerName)
	case SignalInitialContact:
		return "Initial Contact Required",
			fmt.Sprintf("%s was injured %d days ago and has not been contacted", sig.WorkerName, sig.DaysOverdue)
	case SignalPIAWEMissing:
		return "PIAWE Calculation Missing",
			fmt.Sprintf("Wage data for %s is available but PIAWE has not been calculated", sig.WorkerName)
	case SignalSupervisorNote:
		return noteTitle(sig.Note),
			fmt.Sprintf("%s left a note on %s's case", sig.Note.Author, sig.WorkerName)
	}
	return string(sig.Kind), fmt.Sprintf("Case for %s needs attention", sig.WorkerName)
}

func noteTitle(note *casefile.SupervisorNote) string {
	switch {
	case note.Type == casefile.NoteTypeInstruction && note.AuthorRole == casefile.AuthorRoleAdmin:
		return "New Instruction"
	case note.Type == casefile.NoteTypeQuestion && note.AuthorRole == casefile.AuthorRoleConsultant:
		return "Question from Case Manager"
	case note.Type == casefile.NoteTypeReply:
		return "Reply to Your Note"
	}
	return "New Supervisor Note"
}

// actionRequired marks overdue and due-today signals, every compliance
// signal, and supervisor notes that ask something of the reader.
func actionRequired(sig Signal) bool {
	switch sig.Kind {
	case SignalReviewOverdue, SignalReviewToday, SignalTaskOverdue:
		return true
	case SignalTaskUpcoming, SignalPlanBoundary:
		return sig.DaysUntil == 0
	case SignalContactStale, SignalDocumentsMissing, SignalInitialContact, SignalPIAWEMissing:
		return true
	case SignalSupervisorNote:
		return sig.Note.Type == casefile.NoteTypeQuestion || sig.Note.RequiresResponse
	}
	return false
}

func todayOrTomorrow(daysUntil int) string {
	if daysUntil == 0 {
		return "today"
	}
	return "tomorrow"
}
