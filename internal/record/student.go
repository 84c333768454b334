package record

import (
	"strings"
	"time"
)

// Response is a student's answer for the current sign-up cycle.
type Response uint8

const (
	// ResponseNo is the default: absence from a sign-up list is a "no".
	ResponseNo Response = iota
	// ResponseYes marks the student eligible for selection.
	ResponseYes
)

// affirmative lists the participation tokens that count as attending.
var affirmative = map[string]bool{
	"planned": true,
	"yes":     true,
}

// ParseResponse maps a participation status to a Response. Matching is
// case-insensitive; anything outside the affirmative set is a "no".
func ParseResponse(status string) Response {
	if affirmative[strings.ToLower(strings.TrimSpace(status))] {
		return ResponseYes
	}
	return ResponseNo
}

func (r Response) String() string {
	if r == ResponseYes {
		return "yes"
	}
	return "no"
}

// Student is the canonical per-student record produced by consolidation.
//
// Rank and Selected are populated by a selection run only and are never
// written to the ledger.
type Student struct {
	ExternalID string `json:"user_id,omitempty"`
	Email      string `json:"email"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Class      string `json:"class"`

	Attended int `json:"num_events_attended"`
	Absences int `json:"num_absences"`
	Late     int `json:"num_late_arrivals"`

	EventsAttended   []string  `json:"events_attended"`
	LatestAttended   string    `json:"latest_attended"`
	LastAttendedDate time.Time `json:"last_attended_date,omitzero"`

	// Extra holds passthrough per-event columns the engine never interprets.
	Extra Columns `json:"extra_event_columns,omitempty"`

	Response Response `json:"response"`
	Rank     int      `json:"rank,omitempty"`
	Selected bool     `json:"selected,omitempty"`
}

// Key derives the student's identity: email, then name pair, then external id.
func (s Student) Key() IdentityKey {
	return DeriveKey(s.Email, s.FirstName, s.LastName, s.ExternalID)
}

// Name returns the display name.
func (s Student) Name() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

// Clone returns a deep copy so callers can annotate without aliasing slices.
func (s Student) Clone() Student {
	out := s
	if s.EventsAttended != nil {
		out.EventsAttended = append([]string(nil), s.EventsAttended...)
	}
	out.Extra = s.Extra.Clone()
	return out
}

// RunResult is the transient outcome of one selection run.
type RunResult struct {
	Eligible []Student `json:"eligible"`
	Selected []Student `json:"selected"`
	Capacity int       `json:"capacity"`
}

// Adjustment is an operator's after-the-fact attendance correction.
type Adjustment struct {
	Absent bool `json:"absent" yaml:"absent"`
	Late   bool `json:"late" yaml:"late"`
}

// Adjustments are keyed by normalised email.
type Adjustments map[string]Adjustment

// NormalizeAdjustments rekeys a by normalised email. Entries whose emails
// normalise to the same key are merged by OR-ing their flags, so the result
// does not depend on map order. Blank emails are dropped.
func NormalizeAdjustments(a Adjustments) Adjustments {
	if a == nil {
		return nil
	}
	out := make(Adjustments, len(a))
	for email, adj := range a {
		e := NormalizeEmail(email)
		if e == "" {
			continue
		}
		prev := out[e]
		out[e] = Adjustment{Absent: prev.Absent || adj.Absent, Late: prev.Late || adj.Late}
	}
	return out
}

// For returns the adjustment recorded for an email. Keys must already be
// normalised (see NormalizeAdjustments).
func (a Adjustments) For(email string) Adjustment {
	return a[NormalizeEmail(email)]
}
