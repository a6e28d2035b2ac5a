package engine

import (
	"testing"
	"time"

	"github.com/rtwworks/platform/internal/casefile"
	"github.com/rtwworks/platform/internal/shared/auth"
	"github.com/rtwworks/platform/internal/shared/types"
)

func testUser() *auth.User {
	return &auth.User{ID: types.NewID(), Name: "Jordan Blake", Role: auth.RoleConsultant}
}

func TestDeriveNotificationsEmptyForCompliantCases(t *testing.T) {
	cases := []casefile.Case{*compliantCase(), *compliantCase()}

	notifications, diag := DeriveNotifications(cases, testUser(), testNow)
	if len(notifications) != 0 {
		t.Errorf("Expected no notifications, got %d", len(notifications))
	}
	if diag.Count() != 0 {
		t.Errorf("Expected no diagnostics, got %d", diag.Count())
	}
}

func TestDeriveNotificationsIdempotent(t *testing.T) {
	c := compliantCase()
	c.ReviewDates = []string{isoDaysFromNow(-8)}
	c.RTWPlan = &casefile.RTWPlan{
		Tasks: []casefile.Task{
			{ID: types.NewID(), Title: "Light duties", DueDate: isoDaysFromNow(-2)},
		},
	}
	cases := []casefile.Case{*c}
	user := testUser()

	first, _ := DeriveNotifications(cases, user, testNow)
	second, _ := DeriveNotifications(cases, user, testNow)

	if len(first) != len(second) {
		t.Fatalf("Expected identical pass sizes, got %d and %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Errorf("Expected stable ID at position %d, got %s and %s", i, first[i].ID, second[i].ID)
		}
		if !first[i].CreatedAt.Equal(second[i].CreatedAt) {
			t.Errorf("Expected identical CreatedAt at position %d, got %v and %v",
				i, first[i].CreatedAt, second[i].CreatedAt)
		}
	}
}

func TestDeriveNotificationsCreatedAtPinnedToDueDate(t *testing.T) {
	c := compliantCase()
	c.ReviewDates = []string{isoDaysFromNow(-8)}

	notifications, _ := DeriveNotifications([]casefile.Case{*c}, testUser(), testNow)
	if len(notifications) != 1 {
		t.Fatalf("Expected 1 notification, got %d", len(notifications))
	}

	n := notifications[0]
	if n.DueDate == nil {
		t.Fatal("Expected a due date on the review notification")
	}
	if !n.CreatedAt.Equal(*n.DueDate) {
		t.Errorf("Expected CreatedAt pinned to due date %v, got %v", *n.DueDate, n.CreatedAt)
	}
}

func TestDeriveNotificationsDistinctTasksSameDueDate(t *testing.T) {
	c := compliantCase()
	c.RTWPlan = &casefile.RTWPlan{
		Tasks: []casefile.Task{
			{ID: types.NewID(), Title: "Physio referral", DueDate: isoDaysFromNow(-3)},
			{ID: types.NewID(), Title: "Worksite assessment", DueDate: isoDaysFromNow(-3)},
		},
	}

	notifications, _ := DeriveNotifications([]casefile.Case{*c}, testUser(), testNow)
	if len(notifications) != 2 {
		t.Fatalf("Expected 2 notifications for 2 overdue tasks, got %d", len(notifications))
	}
	if notifications[0].ID == notifications[1].ID {
		t.Error("Expected distinct IDs for tasks sharing a due date")
	}
}

func TestDeriveNotificationsOrdering(t *testing.T) {
	// Three conditions on one case: a low upcoming review, a critical
	// overdue review and a high overdue review. The critical entry carries
	// the oldest due date, so priority rank must win over recency.
	c := compliantCase()
	c.ReviewDates = []string{
		isoDaysFromNow(5),   // low, upcoming
		isoDaysFromNow(-20), // critical, oldest timestamp
		isoDaysFromNow(-5),  // high
	}

	notifications, _ := DeriveNotifications([]casefile.Case{*c}, testUser(), testNow)
	if len(notifications) != 3 {
		t.Fatalf("Expected 3 notifications, got %d", len(notifications))
	}

	wantPriorities := []Severity{SeverityCritical, SeverityHigh, SeverityLow}
	for i, want := range wantPriorities {
		if notifications[i].Priority != want {
			t.Errorf("Expected priority %s at position %d, got %s", want, i, notifications[i].Priority)
		}
	}
}

func TestDeriveNotificationsRecencyWithinBand(t *testing.T) {
	older := compliantCase()
	older.ReviewDates = []string{isoDaysFromNow(-10)}
	newer := compliantCase()
	newer.ReviewDates = []string{isoDaysFromNow(-9)}

	notifications, _ := DeriveNotifications([]casefile.Case{*older, *newer}, testUser(), testNow)
	if len(notifications) != 2 {
		t.Fatalf("Expected 2 notifications, got %d", len(notifications))
	}
	if !notifications[0].CreatedAt.After(notifications[1].CreatedAt) {
		t.Errorf("Expected the more recent entry first within the band, got %v then %v",
			notifications[0].CreatedAt, notifications[1].CreatedAt)
	}
}

func TestDeriveNotificationsActionRequired(t *testing.T) {
	c := compliantCase()
	c.ReviewDates = []string{isoDaysFromNow(-8), isoDaysFromNow(1), isoDaysFromNow(5)}
	c.WagesSalary = true

	notifications, _ := DeriveNotifications([]casefile.Case{*c}, testUser(), testNow)

	byKind := make(map[SignalKind]Notification)
	for _, n := range notifications {
		byKind[n.Kind] = n
	}

	if !byKind[SignalReviewOverdue].ActionRequired {
		t.Error("Expected an overdue review to require action")
	}
	if byKind[SignalReviewTomorrow].ActionRequired {
		t.Error("Expected a review due tomorrow not to require action")
	}
	if byKind[SignalReviewUpcoming].ActionRequired {
		t.Error("Expected an upcoming review not to require action")
	}
	if !byKind[SignalPIAWEMissing].ActionRequired {
		t.Error("Expected a compliance signal to require action")
	}
}

func TestDeriveNotificationsMessages(t *testing.T) {
	c := compliantCase()
	c.ReviewDates = []string{isoDaysFromNow(-8)}

	notifications, _ := DeriveNotifications([]casefile.Case{*c}, testUser(), testNow)
	if len(notifications) != 1 {
		t.Fatalf("Expected 1 notification, got %d", len(notifications))
	}

	n := notifications[0]
	if n.Title != "Review Overdue" {
		t.Errorf("Expected title %q, got %q", "Review Overdue", n.Title)
	}
	if n.Message != "Review for Maria Santos is 8 days overdue" {
		t.Errorf("Unexpected message: %q", n.Message)
	}
	if n.Category != CategoryReview {
		t.Errorf("Expected category %s, got %s", CategoryReview, n.Category)
	}
}

func TestNotificationCounts(t *testing.T) {
	ns := []Notification{
		{ID: types.NewID(), Priority: SeverityCritical},
		{ID: types.NewID(), Priority: SeverityCritical, Read: true},
		{ID: types.NewID(), Priority: SeverityLow},
	}

	if got := UnreadCount(ns); got != 2 {
		t.Errorf("Expected 2 unread, got %d", got)
	}
	if got := CriticalCount(ns); got != 2 {
		t.Errorf("Expected 2 critical regardless of read state, got %d", got)
	}
}

func TestSortNotificationsStable(t *testing.T) {
	at := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	a := Notification{ID: types.NewID(), Priority: SeverityHigh, CreatedAt: at}
	b := Notification{ID: types.NewID(), Priority: SeverityHigh, CreatedAt: at}

	ns := []Notification{a, b}
	SortNotifications(ns)
	if ns[0].ID != a.ID || ns[1].ID != b.ID {
		t.Error("Expected equal entries to keep their derivation order")
	}
}
