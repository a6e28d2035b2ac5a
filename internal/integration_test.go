package internal

import (
	"testing"
	"time"

	"github.com/rtwworks/platform/internal/casefile"
	"github.com/rtwworks/platform/internal/directory"
	"github.com/rtwworks/platform/internal/engine"
	"github.com/rtwworks/platform/internal/shared/auth"
	"github.com/rtwworks/platform/internal/shared/types"
)

// TestCaseComplianceWorkflow walks a case from intake through its compliance
// lifecycle: creation, a missed review, notification derivation, read and
// dismiss handling, and the supervisor surfaces.
func TestCaseComplianceWorkflow(t *testing.T) {
	now := time.Date(2026, 4, 10, 9, 0, 0, 0, time.UTC)
	iso := func(days int) string { return now.AddDate(0, 0, days).Format("2006-01-02") }

	consultant := &auth.User{ID: types.NewID(), Name: "Jordan Blake", Role: auth.RoleConsultant}

	// 1. Create a case
	c, err := casefile.NewCase("WC-2026-0101", "Maria", "Santos", "Harbour Logistics",
		iso(-30), consultant.ID)
	if err != nil {
		t.Fatalf("Failed to create case: %v", err)
	}
	if c.Status != casefile.CaseStatusOpen {
		t.Errorf("New case should be open, got %s", c.Status)
	}

	// 2. Build out the compliance surface: an overdue review, an overdue
	// plan task, a recent communication and a document.
	c.ReviewDates = []string{iso(-9)}
	c.RTWPlan = &casefile.RTWPlan{
		StartDate: iso(-20),
		EndDate:   iso(40),
		Goal:      "Graduated return to full duties",
		Tasks: []casefile.Task{
			{ID: types.NewID(), Title: "Worksite assessment", DueDate: iso(-2)},
		},
	}
	c.Communications = []casefile.Communication{
		{ID: types.NewID(), Date: iso(-3), Method: "phone", Summary: "Progress check"},
	}
	c.Documents = []casefile.Document{
		{ID: types.NewID(), Name: "medical-certificate.pdf", Type: "certificate"},
	}

	// 3. Derive the consultant's notifications
	cases := []casefile.Case{*c}
	notifications, diag := engine.DeriveNotifications(cases, consultant, now)
	if diag.Count() != 0 {
		t.Fatalf("Expected no diagnostics, got %d", diag.Count())
	}
	if len(notifications) != 2 {
		t.Fatalf("Expected 2 notifications (review, task), got %d", len(notifications))
	}
	if notifications[0].Priority != engine.SeverityCritical {
		t.Errorf("Expected the 9-day review first as critical, got %s", notifications[0].Priority)
	}

	// 4. Read one, dismiss the other; the overlay must survive a fresh pass
	overlay := engine.NewOverlay()
	overlay.MarkRead(notifications[0].ID)
	overlay.Dismiss(notifications[1].ID)

	rederived, _ := engine.DeriveNotifications(cases, consultant, now)
	merged := overlay.Apply(rederived)
	if len(merged) != 1 {
		t.Fatalf("Expected 1 notification after dismissal, got %d", len(merged))
	}
	if !merged[0].Read {
		t.Error("Expected the remaining notification to stay read")
	}

	// 5. A supervisor note surfaces until the consultant reads it
	note := casefile.SupervisorNote{
		ID: types.NewID(), Author: "Priya Nair", AuthorRole: casefile.AuthorRoleAdmin,
		Type: casefile.NoteTypeInstruction, RequiresResponse: true,
		Content: "Call the employer before Friday",
	}
	c.SupervisorNotes = []casefile.SupervisorNote{note}
	cases = []casefile.Case{*c}

	withNote, _ := engine.DeriveNotifications(cases, consultant, now)
	found := false
	for _, n := range withNote {
		if n.Kind == engine.SignalSupervisorNote {
			found = true
			if !n.ActionRequired {
				t.Error("Expected a note requiring response to require action")
			}
		}
	}
	if !found {
		t.Fatal("Expected a supervisor note notification")
	}

	if err := c.MarkNoteRead(note.ID, consultant.ID); err != nil {
		t.Fatalf("Failed to mark note read: %v", err)
	}
	cases = []casefile.Case{*c}
	afterRead, _ := engine.DeriveNotifications(cases, consultant, now)
	for _, n := range afterRead {
		if n.Kind == engine.SignalSupervisorNote {
			t.Error("Expected no note notification after reading")
		}
	}

	// 6. Supervisor surfaces: flags carry the consultant's name, workloads
	// count the caseload
	index := directory.NameIndex{consultant.ID: consultant.Name}
	flags, _ := engine.DeriveCaseFlags(cases, index, now)
	if len(flags) != 2 {
		t.Fatalf("Expected 2 flags, got %d", len(flags))
	}
	for _, f := range flags {
		if f.ConsultantName != consultant.Name {
			t.Errorf("Expected consultant name on flag, got %q", f.ConsultantName)
		}
	}

	workloads, _ := engine.DeriveWorkloads(cases, now)
	if len(workloads) != 1 {
		t.Fatalf("Expected 1 workload, got %d", len(workloads))
	}
	w := workloads[0]
	if w.TotalCases != 1 || w.OpenCases != 1 {
		t.Errorf("Expected total=1 open=1, got total=%d open=%d", w.TotalCases, w.OpenCases)
	}
	if w.OverdueTasks != 1 {
		t.Errorf("Expected 1 overdue task, got %d", w.OverdueTasks)
	}
	if w.UrgentCases != 1 {
		t.Errorf("Expected the overdue review to mark the case urgent, got %d", w.UrgentCases)
	}
	if w.Overloaded() {
		t.Error("Expected a single-case consultant not overloaded")
	}
}
