package engine

import (
	"errors"

	"github.com/rtwworks/platform/internal/shared/dates"
)

// Diagnostics accumulates malformed date fields encountered during a
// derivation pass. Each offending field is recorded once regardless of how
// many rules touch it. A Diagnostics value is confined to a single pass and
// needs no locking.
type Diagnostics struct {
	seen  map[string]struct{}
	items []*dates.MalformedDateError
}

func NewDiagnostics() *Diagnostics {
	return &Diagnostics{seen: make(map[string]struct{})}
}

// Report records err if it wraps a MalformedDateError for a field not yet
// seen. Other errors are ignored; derivation has no other failure mode at
// the per-field level.
func (d *Diagnostics) Report(err error) {
	var malformed *dates.MalformedDateError
	if !errors.As(err, &malformed) {
		return
	}
	if _, ok := d.seen[malformed.Field]; ok {
		return
	}
	d.seen[malformed.Field] = struct{}{}
	d.items = append(d.items, malformed)
}

// Items returns the recorded malformed fields in first-seen order.
func (d *Diagnostics) Items() []*dates.MalformedDateError {
	return d.items
}

func (d *Diagnostics) Count() int {
	return len(d.items)
}
