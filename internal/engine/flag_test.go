package engine

import (
	"testing"

	"github.com/rtwworks/platform/internal/casefile"
	"github.com/rtwworks/platform/internal/directory"
	"github.com/rtwworks/platform/internal/shared/types"
)

func TestDeriveCaseFlags(t *testing.T) {
	c := compliantCase()
	c.ReviewDates = []string{isoDaysFromNow(-8)}
	index := directory.NameIndex{c.ConsultantID: "Priya Nair"}

	flags, diag := DeriveCaseFlags([]casefile.Case{*c}, index, testNow)
	if diag.Count() != 0 {
		t.Errorf("Expected no diagnostics, got %d", diag.Count())
	}
	if len(flags) != 1 {
		t.Fatalf("Expected 1 flag, got %d", len(flags))
	}

	f := flags[0]
	if f.FlagType != SignalReviewOverdue {
		t.Errorf("Expected flag type %s, got %s", SignalReviewOverdue, f.FlagType)
	}
	if f.Severity != SeverityCritical {
		t.Errorf("Expected critical severity, got %s", f.Severity)
	}
	if f.ConsultantName != "Priya Nair" {
		t.Errorf("Expected consultant name resolved, got %q", f.ConsultantName)
	}
	if f.ClaimNumber != c.ClaimNumber {
		t.Errorf("Expected claim number %s, got %s", c.ClaimNumber, f.ClaimNumber)
	}
	if f.Description != "Review 8 days overdue" {
		t.Errorf("Unexpected description: %q", f.Description)
	}
}

func TestDeriveCaseFlagsUnknownConsultant(t *testing.T) {
	c := compliantCase()
	c.ReviewDates = []string{isoDaysFromNow(-1)}

	flags, _ := DeriveCaseFlags([]casefile.Case{*c}, directory.NameIndex{}, testNow)
	if len(flags) != 1 {
		t.Fatalf("Expected the flag kept despite the directory miss, got %d flags", len(flags))
	}
	if flags[0].ConsultantName != "Unknown" {
		t.Errorf("Expected placeholder name Unknown, got %q", flags[0].ConsultantName)
	}
}

func TestDeriveCaseFlagsExcludeSupervisorNotes(t *testing.T) {
	c := compliantCase()
	c.SupervisorNotes = []casefile.SupervisorNote{
		{ID: types.NewID(), Author: "Priya Nair", AuthorRole: casefile.AuthorRoleAdmin,
			Type: casefile.NoteTypeInstruction},
	}

	flags, _ := DeriveCaseFlags([]casefile.Case{*c}, directory.NameIndex{}, testNow)
	if len(flags) != 0 {
		t.Errorf("Expected no flags from supervisor notes, got %d", len(flags))
	}
}

func TestDeriveCaseFlagsOrdering(t *testing.T) {
	withReview := func(offset int) casefile.Case {
		c := compliantCase()
		c.ReviewDates = []string{isoDaysFromNow(offset)}
		return *c
	}
	noDue := compliantCase()
	noDue.Status = casefile.CaseStatusOpen
	noDue.Communications = []casefile.Communication{
		{ID: types.NewID(), Date: isoDaysFromNow(-20)},
	}

	cases := []casefile.Case{withReview(-1), withReview(-10), *noDue}
	flags, _ := DeriveCaseFlags(cases, directory.NameIndex{}, testNow)
	if len(flags) != 3 {
		t.Fatalf("Expected 3 flags, got %d", len(flags))
	}

	wantSeverities := []Severity{SeverityCritical, SeverityMedium, SeverityMedium}
	for i, want := range wantSeverities {
		if flags[i].Severity != want {
			t.Errorf("Expected severity %s at position %d, got %s", want, i, flags[i].Severity)
		}
	}

	// Within the medium band the dated flag precedes the one without a due
	// date.
	if flags[1].DueDate == nil {
		t.Error("Expected the dated flag before the undated one in the same band")
	}
	if flags[2].DueDate != nil {
		t.Error("Expected the undated flag last in the band")
	}
}

func TestDeriveCaseFlagsIdempotent(t *testing.T) {
	c := compliantCase()
	c.ReviewDates = []string{isoDaysFromNow(-8)}
	cases := []casefile.Case{*c}

	first, _ := DeriveCaseFlags(cases, directory.NameIndex{}, testNow)
	second, _ := DeriveCaseFlags(cases, directory.NameIndex{}, testNow)

	if len(first) != len(second) {
		t.Fatalf("Expected identical pass sizes, got %d and %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Errorf("Expected stable flag ID at position %d, got %s and %s", i, first[i].ID, second[i].ID)
		}
	}
}
