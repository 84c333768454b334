package ledger

import (
	"time"

	"github.com/roach88/raffle/internal/record"
)

// Result is a regenerated ledger.
type Result struct {
	// Text is the ledger CSV.
	Text []byte
	// Students are the updated records in ledger order, as Parse(Text)
	// would read them back.
	Students []record.Student
	// UnknownSelected lists selected students with no base record. Their
	// participation is missing from Text and must be reconciled by the
	// caller; see WithNewParticipants.
	UnknownSelected []record.Student
}

// Regenerate applies one run's outcome to the base records and renders the
// new ledger.
//
// A base record whose email (or, lacking an email, identity key) is in
// selected gains one attended event: the counter is incremented, eventName
// is appended to its event list and becomes its latest label, and eventDate
// (when non-zero) becomes its last attended date. Adjustments, keyed by
// email, add one absence and/or one late arrival to any base record.
// Passthrough columns are carried through untouched. Counters never
// decrease. The output depends only on the inputs.
func Regenerate(base, selected []record.Student, eventName string, adj record.Adjustments, eventDate time.Time) Result {
	adj = record.NormalizeAdjustments(adj)
	sel := newIndex(selected)
	baseIdx := newIndex(base)

	out := make([]record.Student, len(base))
	for i, b := range base {
		s := b.Clone()
		s.Rank, s.Selected, s.Response = 0, false, record.ResponseNo

		if sel.has(b) {
			s.Attended++
			if eventName != "" {
				s.EventsAttended = append(s.EventsAttended, eventName)
				s.LatestAttended = eventName
			}
			if !eventDate.IsZero() {
				s.LastAttendedDate = eventDate
			}
		}
		a := adj.For(b.Email)
		if a.Absent {
			s.Absences++
		}
		if a.Late {
			s.Late++
		}
		out[i] = s
	}

	return Result{
		Text:            render(layoutFor(out), out),
		Students:        out,
		UnknownSelected: missing(baseIdx, selected),
	}
}

// Unknown returns the selected students that have no record in base.
func Unknown(base, selected []record.Student) []record.Student {
	return missing(newIndex(base), selected)
}

func missing(idx *index, selected []record.Student) []record.Student {
	out := []record.Student{}
	for _, s := range selected {
		if !idx.has(s) {
			out = append(out, s.Clone())
		}
	}
	return out
}

// WithNewParticipants returns base extended with every selected student that
// has no base record, so that Regenerate can account for first-time
// participants. The added records keep their counters (zero for a student
// never seen before).
func WithNewParticipants(base, selected []record.Student) []record.Student {
	idx := newIndex(base)
	out := make([]record.Student, 0, len(base)+len(selected))
	out = append(out, base...)
	for _, s := range selected {
		if idx.has(s) {
			continue
		}
		c := s.Clone()
		c.Rank, c.Selected = 0, false
		out = append(out, c)
		idx.add(c)
	}
	return out
}

// index answers "is this student in the set" by normalised email, falling
// back to the identity key for students without an email.
type index struct {
	emails map[string]bool
	keys   map[record.IdentityKey]bool
}

func newIndex(students []record.Student) *index {
	idx := &index{emails: map[string]bool{}, keys: map[record.IdentityKey]bool{}}
	for _, s := range students {
		idx.add(s)
	}
	return idx
}

func (x *index) add(s record.Student) {
	if e := record.NormalizeEmail(s.Email); e != "" {
		x.emails[e] = true
		return
	}
	if k := s.Key(); !k.IsZero() {
		x.keys[k] = true
	}
}

func (x *index) has(s record.Student) bool {
	if e := record.NormalizeEmail(s.Email); e != "" {
		return x.emails[e]
	}
	k := s.Key()
	return !k.IsZero() && x.keys[k]
}
