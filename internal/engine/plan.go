package engine

import (
	"strings"
	"time"

	"github.com/roach88/raffle/internal/record"
)

// Plan holds the operator's parameters for one run.
type Plan struct {
	// Event is the label appended to each selected student's history.
	Event string `json:"event"`
	// Capacity is the number of available seats. Negative is treated as 0.
	Capacity int `json:"capacity"`
	// Date, when set, becomes each selected student's last attended date.
	Date time.Time `json:"date,omitzero"`
	// Cutoff, when set, turns sign-ups registered after it into "no".
	Cutoff time.Time `json:"cutoff,omitzero"`
	// Adjustments correct attendance for earlier events, keyed by email.
	Adjustments record.Adjustments `json:"adjustments,omitempty"`
}

// Validate checks the plan. Capacity edge cases are valid outcomes, not
// errors.
func (p Plan) Validate() error {
	if strings.TrimSpace(p.Event) == "" {
		return &PlanError{Field: "event", Message: "event name is required"}
	}
	if strings.Contains(p.Event, ",") {
		return &PlanError{Field: "event", Message: "event name must not contain a comma"}
	}
	return nil
}
