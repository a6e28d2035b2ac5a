package payroll

import (
	"context"
	stderrors "errors"

	"github.com/rtwworks/platform/internal/casefile"
	apperrors "github.com/rtwworks/platform/internal/shared/errors"
	"github.com/rtwworks/platform/internal/shared/events"
	"github.com/rtwworks/platform/internal/shared/metrics"
	"github.com/rtwworks/platform/internal/shared/types"
)

// Syncer applies wage updates from a payroll adapter to the case store.
// Only the presence flags cross the boundary; a claim number unknown to the
// platform is skipped, not an error, since payroll covers more employees
// than have active claims.
type Syncer struct {
	adapter Adapter
	cases   casefile.Repository
	bus     events.EventBus
}

// NewSyncer creates a syncer. bus may be nil when event publishing is
// disabled.
func NewSyncer(adapter Adapter, cases casefile.Repository, bus events.EventBus) *Syncer {
	return &Syncer{adapter: adapter, cases: cases, bus: bus}
}

// Run starts the adapter and applies wage updates until ctx is cancelled.
func (s *Syncer) Run(ctx context.Context) error {
	if err := s.adapter.Start(ctx); err != nil {
		return err
	}

	return s.adapter.SubscribeWageUpdates(ctx, func(event WageUpdateEvent) {
		s.Apply(ctx, event)
	})
}

// Stop shuts the adapter down.
func (s *Syncer) Stop(ctx context.Context) error {
	return s.adapter.Stop(ctx)
}

// Apply updates one claim's wage flags from a payroll event.
func (s *Syncer) Apply(ctx context.Context, event WageUpdateEvent) {
	err := s.cases.SetWageFlags(ctx, event.ClaimNumber, event.WagesSalary, event.PIAWECalculation)
	switch {
	case err == nil:
		metrics.RecordPayrollSync("ok")
	case stderrors.Is(err, apperrors.ErrNotFound):
		metrics.RecordPayrollSync("skipped")
		return
	default:
		metrics.RecordPayrollSync("error")
		return
	}

	if s.bus == nil {
		return
	}
	evt := events.NewEvent(events.EventWagesSynced, event.SourceSystem, types.ID(""), map[string]any{
		"claim_number":      event.ClaimNumber,
		"wages_salary":      event.WagesSalary,
		"piawe_calculation": event.PIAWECalculation,
	})
	s.bus.Publish(ctx, evt)
}
