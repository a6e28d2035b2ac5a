package engine

import (
	"testing"

	"github.com/rtwworks/platform/internal/casefile"
	"github.com/rtwworks/platform/internal/shared/types"
)

func consultantCases(consultantID types.ID, status casefile.CaseStatus, n int) []casefile.Case {
	out := make([]casefile.Case, n)
	for i := range out {
		c := compliantCase()
		c.ConsultantID = consultantID
		c.Status = status
		if status == casefile.CaseStatusOpen {
			// Keep the communication fresh so stale-contact parsing noise
			// stays out of the aggregation.
			c.Communications = []casefile.Communication{
				{ID: types.NewID(), Date: isoDaysFromNow(-1)},
			}
		}
		out[i] = *c
	}
	return out
}

func TestDeriveWorkloadsAggregation(t *testing.T) {
	consultant := types.NewID()
	cases := consultantCases(consultant, casefile.CaseStatusOpen, 3)
	cases = append(cases, consultantCases(consultant, casefile.CaseStatusPending, 2)...)
	cases = append(cases, consultantCases(consultant, casefile.CaseStatusClosed, 4)...)

	workloads, diag := DeriveWorkloads(cases, testNow)
	if diag.Count() != 0 {
		t.Errorf("Expected no diagnostics, got %d", diag.Count())
	}
	if len(workloads) != 1 {
		t.Fatalf("Expected 1 workload, got %d", len(workloads))
	}

	w := workloads[0]
	if w.TotalCases != 9 {
		t.Errorf("Expected 9 total cases, got %d", w.TotalCases)
	}
	if w.OpenCases != 3 {
		t.Errorf("Expected 3 open cases, got %d", w.OpenCases)
	}
	if w.PendingCases != 2 {
		t.Errorf("Expected 2 pending cases, got %d", w.PendingCases)
	}
	if w.QualityScore != 0 {
		t.Errorf("Expected zero quality score, got %f", w.QualityScore)
	}
}

func TestDeriveWorkloadsOverloaded(t *testing.T) {
	tests := []struct {
		name    string
		open    int
		pending int
		want    bool
	}{
		{"under threshold", 10, 5, false},
		{"at threshold", 10, 6, true},
		{"open only", 16, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			consultant := types.NewID()
			cases := consultantCases(consultant, casefile.CaseStatusOpen, tt.open)
			cases = append(cases, consultantCases(consultant, casefile.CaseStatusPending, tt.pending)...)

			workloads, _ := DeriveWorkloads(cases, testNow)
			if len(workloads) != 1 {
				t.Fatalf("Expected 1 workload, got %d", len(workloads))
			}
			if got := workloads[0].Overloaded(); got != tt.want {
				t.Errorf("Expected overloaded=%v for %d active cases, got %v",
					tt.want, tt.open+tt.pending, got)
			}
		})
	}
}

func TestDeriveWorkloadsOverdueTasks(t *testing.T) {
	consultant := types.NewID()
	c := compliantCase()
	c.ConsultantID = consultant
	c.RTWPlan = &casefile.RTWPlan{
		Tasks: []casefile.Task{
			{ID: types.NewID(), Title: "Overdue A", DueDate: isoDaysFromNow(-3)},
			{ID: types.NewID(), Title: "Overdue B", DueDate: isoDaysFromNow(-1)},
			{ID: types.NewID(), Title: "Future", DueDate: isoDaysFromNow(3)},
			{ID: types.NewID(), Title: "Done", DueDate: isoDaysFromNow(-5), Completed: true},
		},
	}

	workloads, _ := DeriveWorkloads([]casefile.Case{*c}, testNow)
	if len(workloads) != 1 {
		t.Fatalf("Expected 1 workload, got %d", len(workloads))
	}
	if workloads[0].OverdueTasks != 2 {
		t.Errorf("Expected 2 overdue tasks, got %d", workloads[0].OverdueTasks)
	}
}

func TestDeriveWorkloadsUrgentCases(t *testing.T) {
	consultant := types.NewID()

	freshInjury := compliantCase()
	freshInjury.ConsultantID = consultant
	freshInjury.InjuryDate = isoDaysFromNow(-5)

	// Fresh injury and an overdue review on the same case count once.
	doubleUrgent := compliantCase()
	doubleUrgent.ConsultantID = consultant
	doubleUrgent.InjuryDate = isoDaysFromNow(-3)
	doubleUrgent.ReviewDates = []string{isoDaysFromNow(-2)}

	calm := compliantCase()
	calm.ConsultantID = consultant

	workloads, _ := DeriveWorkloads([]casefile.Case{*freshInjury, *doubleUrgent, *calm}, testNow)
	if len(workloads) != 1 {
		t.Fatalf("Expected 1 workload, got %d", len(workloads))
	}
	if workloads[0].UrgentCases != 2 {
		t.Errorf("Expected 2 urgent cases, got %d", workloads[0].UrgentCases)
	}
}

func TestDeriveWorkloadsSkipsUnassignedCases(t *testing.T) {
	unassigned := compliantCase()
	unassigned.ConsultantID = ""

	assigned := compliantCase()

	workloads, _ := DeriveWorkloads([]casefile.Case{*unassigned, *assigned}, testNow)
	if len(workloads) != 1 {
		t.Fatalf("Expected only the assigned consultant enumerated, got %d workloads", len(workloads))
	}
	if workloads[0].ConsultantID != assigned.ConsultantID {
		t.Errorf("Expected workload for %s, got %s", assigned.ConsultantID, workloads[0].ConsultantID)
	}
}
