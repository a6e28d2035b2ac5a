package engine

import (
	"fmt"
	"sort"
	"time"

	"github.com/rtwworks/platform/internal/casefile"
	"github.com/rtwworks/platform/internal/shared/dates"
	"github.com/rtwworks/platform/internal/shared/types"
)

// overloadedThreshold is the active-caseload size above which a consultant
// is reported as overloaded.
const overloadedThreshold = 15

// urgentInjuryWindow bounds how fresh an injury keeps a case urgent, in days.
const urgentInjuryWindow = 7

// ConsultantWorkload aggregates caseload metrics for one consultant.
// QualityScore is carried for the management dashboard but no scoring rule
// feeds it yet; it is always zero.
type ConsultantWorkload struct {
	ConsultantID types.ID `json:"consultantId"`
	TotalCases   int      `json:"totalCases"`
	OpenCases    int      `json:"openCases"`
	PendingCases int      `json:"pendingCases"`
	OverdueTasks int      `json:"overdueTasks"`
	UrgentCases  int      `json:"urgentCases"`
	QualityScore float64  `json:"qualityScore"`
}

// Overloaded reports whether the consultant's active caseload (open plus
// pending) exceeds the threshold.
func (w *ConsultantWorkload) Overloaded() bool {
	return w.OpenCases+w.PendingCases > overloadedThreshold
}

// DeriveWorkloads aggregates the case set into one workload per consultant
// appearing on at least one case. Cases without an assigned consultant are
// not counted. A case is urgent when the injury happened within the last
// week or any review date is overdue; each case contributes at most once.
func DeriveWorkloads(cases []casefile.Case, now time.Time) ([]ConsultantWorkload, *Diagnostics) {
	diag := NewDiagnostics()
	byConsultant := make(map[types.ID]*ConsultantWorkload)

	for i := range cases {
		c := &cases[i]
		if c.ConsultantID.IsZero() {
			continue
		}

		w, ok := byConsultant[c.ConsultantID]
		if !ok {
			w = &ConsultantWorkload{ConsultantID: c.ConsultantID}
			byConsultant[c.ConsultantID] = w
		}

		w.TotalCases++
		switch c.Status {
		case casefile.CaseStatusOpen:
			w.OpenCases++
		case casefile.CaseStatusPending:
			w.PendingCases++
		}
		w.OverdueTasks += countOverdueTasks(c, now, diag)
		if caseIsUrgent(c, now, diag) {
			w.UrgentCases++
		}
	}

	out := make([]ConsultantWorkload, 0, len(byConsultant))
	for _, w := range byConsultant {
		out = append(out, *w)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ConsultantID.String() < out[j].ConsultantID.String()
	})
	return out, diag
}

func countOverdueTasks(c *casefile.Case, now time.Time, diag *Diagnostics) int {
	count := 0
	for _, task := range c.IncompleteTasks() {
		field := fmt.Sprintf("case %s task %s due_date", c.ID, task.ID)
		target, ok := parseDate(diag, field, task.DueDate)
		if !ok {
			continue
		}
		if dates.Classify(now, target, 0) == dates.ClassOverdue {
			count++
		}
	}
	return count
}

func caseIsUrgent(c *casefile.Case, now time.Time, diag *Diagnostics) bool {
	field := fmt.Sprintf("case %s injury_date", c.ID)
	if injured, ok := parseDate(diag, field, c.InjuryDate); ok {
		if days := dates.DaysSince(now, injured); days >= 0 && days <= urgentInjuryWindow {
			return true
		}
	}

	for i, rd := range c.ReviewDates {
		field := fmt.Sprintf("case %s review_dates[%d]", c.ID, i)
		target, ok := parseDate(diag, field, rd)
		if !ok {
			continue
		}
		if dates.Classify(now, target, 0) == dates.ClassOverdue {
			return true
		}
	}
	return false
}
