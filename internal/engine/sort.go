package engine

import (
	"sort"
	"time"
)

// lessByPriority is the shared ordering for derived records: higher severity
// rank first, then more recent timestamp first. Zero timestamps sort after
// any set timestamp within the same band.
func lessByPriority(rankA int, atA time.Time, rankB int, atB time.Time) bool {
	if rankA != rankB {
		return rankA > rankB
	}
	return atA.After(atB)
}

// SortNotifications orders notifications by priority rank, then by CreatedAt
// descending. The sort is stable so equal entries keep derivation order.
func SortNotifications(ns []Notification) {
	sort.SliceStable(ns, func(i, j int) bool {
		return lessByPriority(ns[i].Priority.Rank(), ns[i].CreatedAt,
			ns[j].Priority.Rank(), ns[j].CreatedAt)
	})
}

// SortFlags orders flags by severity rank, then by due date descending.
// Flags without a due date sort last within their severity band.
func SortFlags(fs []CaseFlag) {
	sort.SliceStable(fs, func(i, j int) bool {
		return lessByPriority(fs[i].Severity.Rank(), dueTime(fs[i].DueDate),
			fs[j].Severity.Rank(), dueTime(fs[j].DueDate))
	})
}

func dueTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
