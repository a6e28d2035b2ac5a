package engine

import (
	"fmt"
	"time"

	"github.com/rtwworks/platform/internal/casefile"
	"github.com/rtwworks/platform/internal/directory"
	"github.com/rtwworks/platform/internal/shared/types"
)

// CaseFlag is the supervisor-facing view of a compliance condition. Flags
// are impersonal: they never include supervisor-note signals and carry no
// read state. The assigned consultant's name is resolved through the user
// directory at derivation time.
type CaseFlag struct {
	ID             types.ID   `json:"id"`
	CaseID         types.ID   `json:"caseId"`
	ClaimNumber    string     `json:"claimNumber"`
	WorkerName     string     `json:"workerName"`
	FlagType       SignalKind `json:"flagType"`
	Severity       Severity   `json:"severity"`
	Description    string     `json:"description"`
	ConsultantName string     `json:"consultantName"`
	DueDate        *time.Time `json:"dueDate,omitempty"`
}

// DeriveCaseFlags runs an impersonal derivation pass over the whole case
// set. A consultant ID missing from the directory index yields the
// placeholder name "Unknown" rather than dropping the flag. The result is
// sorted by severity then due date.
func DeriveCaseFlags(cases []casefile.Case, index directory.NameIndex, now time.Time) ([]CaseFlag, *Diagnostics) {
	diag := NewDiagnostics()
	seen := make(map[types.ID]struct{})
	var out []CaseFlag

	for i := range cases {
		c := &cases[i]
		consultant := "Unknown"
		if name, ok := index[c.ConsultantID]; ok {
			consultant = name
		}

		for _, sig := range ExtractSignals(c, now, nil, diag) {
			f := CaseFlag{
				ID:             flagID(sig),
				CaseID:         c.ID,
				ClaimNumber:    c.ClaimNumber,
				WorkerName:     sig.WorkerName,
				FlagType:       sig.Kind,
				Severity:       sig.Severity,
				Description:    flagDescription(sig),
				ConsultantName: consultant,
				DueDate:        sig.DueDate,
			}
			if _, dup := seen[f.ID]; dup {
				continue
			}
			seen[f.ID] = struct{}{}
			out = append(out, f)
		}
	}

	SortFlags(out)
	return out, diag
}

func flagID(sig Signal) types.ID {
	name := fmt.Sprintf("%s|%s|%s", sig.Kind, sig.CaseID, sig.Key)
	return types.NewDeterministicID("flag", name)
}

// flagDescription renders the condition without addressing anyone.
func flagDescription(sig Signal) string {
	switch sig.Kind {
	case SignalReviewOverdue:
		return fmt.Sprintf("Review %d days overdue", sig.DaysOverdue)
	case SignalReviewToday:
		return "Review due today"
	case SignalReviewTomorrow:
		return "Review due tomorrow"
	case SignalReviewUpcoming:
		return fmt.Sprintf("Review due in %d days", sig.DaysUntil)
	case SignalTaskOverdue:
		return fmt.Sprintf("Task %q %d days overdue", sig.TaskTitle, sig.DaysOverdue)
	case SignalTaskUpcoming:
		return fmt.Sprintf("Task %q due %s", sig.TaskTitle, todayOrTomorrow(sig.DaysUntil))
	case SignalPlanBoundary:
		if sig.Key == "plan_start" {
			return fmt.Sprintf("RTW plan starts %s", todayOrTomorrow(sig.DaysUntil))
		}
		return fmt.Sprintf("RTW plan ends %s", todayOrTomorrow(sig.DaysUntil))
	case SignalContactStale:
		return fmt.Sprintf("No contact for %d days", sig.DaysOverdue)
	case SignalDocumentsMissing:
		return "No documents attached"
	case SignalInitialContact:
		return fmt.Sprintf("No contact made %d days after injury", sig.DaysOverdue)
	case SignalPIAWEMissing:
		return "PIAWE calculation missing"
	}
	return string(sig.Kind)
}
