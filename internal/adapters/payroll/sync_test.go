package payroll

import (
	"context"
	"testing"
	"time"

	"github.com/rtwworks/platform/internal/casefile"
	"github.com/rtwworks/platform/internal/shared/errors"
	"github.com/rtwworks/platform/internal/shared/types"
)

type memoryCaseRepo struct {
	flags map[string][2]bool
}

func newMemoryCaseRepo(claims ...string) *memoryCaseRepo {
	r := &memoryCaseRepo{flags: make(map[string][2]bool)}
	for _, claim := range claims {
		r.flags[claim] = [2]bool{}
	}
	return r
}

func (r *memoryCaseRepo) ListAll(ctx context.Context) ([]casefile.Case, error) { return nil, nil }
func (r *memoryCaseRepo) FindByID(ctx context.Context, id types.ID) (*casefile.Case, error) {
	return nil, errors.NotFound("case", id.String())
}
func (r *memoryCaseRepo) FindByConsultant(ctx context.Context, consultantID types.ID) ([]casefile.Case, error) {
	return nil, nil
}
func (r *memoryCaseRepo) Save(ctx context.Context, c *casefile.Case) error   { return nil }
func (r *memoryCaseRepo) Update(ctx context.Context, c *casefile.Case) error { return nil }
func (r *memoryCaseRepo) Delete(ctx context.Context, id types.ID) error      { return nil }

func (r *memoryCaseRepo) SetWageFlags(ctx context.Context, claimNumber string, wagesSalary, piaweCalculation bool) error {
	if _, ok := r.flags[claimNumber]; !ok {
		return errors.NotFound("case", claimNumber)
	}
	r.flags[claimNumber] = [2]bool{wagesSalary, piaweCalculation}
	return nil
}

func TestSyncerApply(t *testing.T) {
	repo := newMemoryCaseRepo("WC-2026-0042")
	s := NewSyncer(nil, repo, nil)

	s.Apply(context.Background(), WageUpdateEvent{
		ClaimNumber:      "WC-2026-0042",
		WagesSalary:      true,
		PIAWECalculation: false,
		Timestamp:        time.Now(),
	})

	got := repo.flags["WC-2026-0042"]
	if !got[0] || got[1] {
		t.Errorf("Expected wages=true piawe=false, got wages=%v piawe=%v", got[0], got[1])
	}
}

func TestSyncerApplyUnknownClaim(t *testing.T) {
	repo := newMemoryCaseRepo("WC-2026-0042")
	s := NewSyncer(nil, repo, nil)

	// An unknown claim is skipped silently.
	s.Apply(context.Background(), WageUpdateEvent{ClaimNumber: "WC-9999-0001", WagesSalary: true})

	got := repo.flags["WC-2026-0042"]
	if got[0] || got[1] {
		t.Errorf("Expected the known claim untouched, got wages=%v piawe=%v", got[0], got[1])
	}
}
