package engine

import (
	"github.com/roach88/raffle/internal/store"
)

// Archive converts the outcome to the run record kept by the store.
// Principal and Seq are assigned by the store on commit.
func (o *Outcome) Archive() store.Run {
	unknown := make([]string, 0, len(o.UnknownSelected))
	for _, s := range o.UnknownSelected {
		unknown = append(unknown, s.Key().String())
	}
	return store.Run{
		ID:              o.RunID,
		Name:            o.Plan.Event,
		EventDate:       o.Plan.Date,
		Capacity:        o.Result.Capacity,
		Seed:            o.Seed.String(),
		CreatedAt:       o.CreatedAt,
		Signups:         o.Artifacts.Signups,
		Selected:        o.Artifacts.Selected,
		Eligible:        o.Artifacts.Eligible,
		SelectedCount:   len(o.Result.Selected),
		EligibleCount:   len(o.Result.Eligible),
		Report:          o.Report,
		Adjustments:     o.Plan.Adjustments,
		UnknownSelected: unknown,
	}
}
