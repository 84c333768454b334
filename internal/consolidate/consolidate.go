package consolidate

import (
	"time"

	"github.com/roach88/raffle/internal/ingest"
	"github.com/roach88/raffle/internal/record"
)

// Report counts what consolidation did with its input rows.
type Report struct {
	// DroppedHistorical counts ledger rows with no usable identity.
	DroppedHistorical int `json:"dropped_historical"`
	// DroppedSignups counts sign-up rows with no email and no attendee id.
	DroppedSignups int `json:"dropped_signups"`
	// Matched counts sign-up rows merged onto an existing record.
	Matched int `json:"matched"`
	// New counts identities first seen in the sign-up list.
	New int `json:"new"`
	// AfterCutoff counts sign-ups forced to "no" by the registration cut-off.
	AfterCutoff int `json:"after_cutoff"`
}

// Result is the consolidated master list plus its report.
type Result struct {
	Students []record.Student
	Report   Report
	// Historical is the number of leading Students that came from the ledger.
	Historical int
}

// History returns the ledger-backed prefix of Students.
func (r Result) History() []record.Student {
	return r.Students[:r.Historical]
}

// Options tune consolidation.
type Options struct {
	// Cutoff, when set, turns sign-ups registered after it into "no".
	// Rows without a registration timestamp are unaffected.
	Cutoff time.Time
}

// Consolidate merges sign-ups onto history with default options.
func Consolidate(signups, historical []ingest.Row) Result {
	return ConsolidateWith(signups, historical, Options{})
}

// ConsolidateWith merges sign-ups onto history.
//
// Every historical identity appears exactly once with response "no" unless a
// sign-up says otherwise. Every identifiable sign-up either matches a record
// or becomes a new zero-counter record. Output is history order followed by
// new sign-ups in sign-up order; callers must not rely on it.
func ConsolidateWith(signups, historical []ingest.Row, opts Options) Result {
	m := newMaster()
	var rep Report

	for _, row := range historical {
		s, ok := Historical(row)
		if !ok {
			rep.DroppedHistorical++
			continue
		}
		if i, found := m.byKey[s.Key()]; found {
			mergeHistorical(&m.students[i], s)
			continue
		}
		m.add(s)
	}

	historicalCount := len(m.students)

	for _, row := range signups {
		e, ok := Signup(row)
		if !ok {
			rep.DroppedSignups++
			continue
		}
		if !opts.Cutoff.IsZero() && e.RegisteredAt.After(opts.Cutoff) {
			if e.Student.Response == record.ResponseYes {
				rep.AfterCutoff++
			}
			e.Student.Response = record.ResponseNo
		}

		i, found := m.match(e)
		if !found {
			m.add(e.Student)
			rep.New++
			continue
		}
		rep.Matched++
		overlay(&m.students[i], e.Student)
		m.reindex(i)
	}

	return Result{Students: m.students, Report: rep, Historical: historicalCount}
}

// master is the identity index under construction.
type master struct {
	students []record.Student
	byKey    map[record.IdentityKey]int
	byName   map[record.IdentityKey][]int
	byExtID  map[record.IdentityKey][]int
}

func newMaster() *master {
	return &master{
		byKey:   map[record.IdentityKey]int{},
		byName:  map[record.IdentityKey][]int{},
		byExtID: map[record.IdentityKey][]int{},
	}
}

func (m *master) add(s record.Student) {
	m.students = append(m.students, s.Clone())
	m.reindex(len(m.students) - 1)
}

// reindex registers every key the record can be found under. Keys only ever
// accumulate: a record whose email was filled in stays reachable by name.
func (m *master) reindex(i int) {
	s := m.students[i]
	if _, taken := m.byKey[s.Key()]; !taken {
		m.byKey[s.Key()] = i
	}
	if k := record.ByName(s.FirstName, s.LastName); !k.IsZero() && !contains(m.byName[k], i) {
		m.byName[k] = append(m.byName[k], i)
	}
	if k := record.ByExternalID(s.ExternalID); !k.IsZero() && !contains(m.byExtID[k], i) {
		m.byExtID[k] = append(m.byExtID[k], i)
	}
}

// match finds the record a sign-up belongs to: exact identity key first, then
// a unique name or attendee-id match where one side has no email to
// contradict it.
func (m *master) match(e Entry) (int, bool) {
	if i, ok := m.byKey[e.Key]; ok {
		return i, true
	}
	candidates := []record.IdentityKey{
		record.ByName(e.Student.FirstName, e.Student.LastName),
		record.ByExternalID(e.Student.ExternalID),
	}
	indexes := []map[record.IdentityKey][]int{m.byName, m.byExtID}
	for n, k := range candidates {
		if k.IsZero() {
			continue
		}
		hits := indexes[n][k]
		if len(hits) != 1 {
			continue
		}
		i := hits[0]
		if e.Student.Email == "" || m.students[i].Email == "" {
			return i, true
		}
	}
	return 0, false
}

// overlay applies a sign-up onto an existing record: the response, and any
// identity field the record has blank.
func overlay(dst *record.Student, src record.Student) {
	if src.Response == record.ResponseYes {
		dst.Response = record.ResponseYes
	}
	fillBlank(&dst.Email, src.Email)
	fillBlank(&dst.FirstName, src.FirstName)
	fillBlank(&dst.LastName, src.LastName)
	fillBlank(&dst.Class, src.Class)
	fillBlank(&dst.ExternalID, src.ExternalID)
}

// mergeHistorical folds a duplicate ledger row into the first one seen.
// Counters take the larger value so a duplicate never zeroes history.
func mergeHistorical(dst *record.Student, src record.Student) {
	dst.Attended = max(dst.Attended, src.Attended)
	dst.Absences = max(dst.Absences, src.Absences)
	dst.Late = max(dst.Late, src.Late)
	for _, ev := range src.EventsAttended {
		if !contains(dst.EventsAttended, ev) {
			dst.EventsAttended = append(dst.EventsAttended, ev)
		}
	}
	if src.LastAttendedDate.After(dst.LastAttendedDate) {
		dst.LastAttendedDate = src.LastAttendedDate
	}
	fillBlank(&dst.LatestAttended, src.LatestAttended)
	fillBlank(&dst.Email, src.Email)
	fillBlank(&dst.FirstName, src.FirstName)
	fillBlank(&dst.LastName, src.LastName)
	fillBlank(&dst.Class, src.Class)
	fillBlank(&dst.ExternalID, src.ExternalID)
	for _, c := range src.Extra {
		v, ok := dst.Extra.Get(c.Name)
		switch {
		case !ok:
			dst.Extra = append(dst.Extra, c)
		case v == "" && c.Value != "":
			dst.Extra = dst.Extra.Set(c.Name, c.Value)
		}
	}
}

func fillBlank(dst *string, v string) {
	if *dst == "" && v != "" {
		*dst = v
	}
}

func contains[T comparable](s []T, v T) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}
