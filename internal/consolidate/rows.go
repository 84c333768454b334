package consolidate

import (
	"strings"
	"time"

	"github.com/roach88/raffle/internal/ingest"
	"github.com/roach88/raffle/internal/record"
)

// Column aliases recognised across export formats. Names are post
// normalisation (trimmed, lowercase).
var (
	signupEmail     = append(append([]string{}, ingest.EmailColumns...), "email_address")
	attendeeID      = []string{"attendee id", "id", "user_id", "user id", "attendee_id"}
	fullName        = []string{"name", "full name", "student name"}
	classColumns    = []string{"class", "student_class"}
	statusColumns   = []string{"participation status", "status", "response", "rsvp"}
	registeredAt    = []string{"registration time", "registered at", "created", "timestamp"}
	attendedColumns = []string{"attended", "num_events_attended"}
	absentColumns   = []string{"absent", "num_absences"}
	lateColumns     = []string{"late", "num_late_arrivals"}
	eventsColumns   = []string{"attended events", "events_attended"}
	latestColumns   = []string{"latest attended", "latest_attended"}
	dateColumns     = []string{"last attended date", "last_attended_date"}
)

// engineColumns are interpreted by the engine and never treated as
// passthrough even when they begin with "event".
var engineColumns = map[string]bool{
	"events attended": true,
	"events_attended": true,
}

// IsPassthrough reports whether a ledger column is an opaque per-event
// column the engine carries without interpreting.
func IsPassthrough(name string) bool {
	return strings.HasPrefix(name, "event") && !engineColumns[name]
}

// Historical converts one ledger row to a Student. It returns false when the
// row has neither an email nor a name. A user id alone does not identify a
// ledger row.
func Historical(row ingest.Row) (record.Student, bool) {
	first, last := names(row)
	s := record.Student{
		ExternalID:     row.First("user_id", "user id", "attendee id"),
		Email:          strings.ToLower(row.First(ingest.EmailColumns...)),
		FirstName:      first,
		LastName:       last,
		Class:          row.First(classColumns...),
		Attended:       ingest.ToCount(row.First(attendedColumns...)),
		Absences:       ingest.ToCount(row.First(absentColumns...)),
		Late:           ingest.ToCount(row.First(lateColumns...)),
		EventsAttended: SplitEvents(row.First(eventsColumns...)),
		LatestAttended: row.First(latestColumns...),
		Response:       record.ResponseNo,
	}
	s.LastAttendedDate = ingest.ParseDate(row.First(dateColumns...))
	if s.LastAttendedDate.IsZero() {
		s.LastAttendedDate = ingest.ParseDate(s.LatestAttended)
	}
	for _, c := range row {
		if IsPassthrough(c.Name) {
			s.Extra = append(s.Extra, c)
		}
	}

	if record.DeriveKey(s.Email, s.FirstName, s.LastName, "").IsZero() {
		return record.Student{}, false
	}
	return s, true
}

// Entry is a normalised sign-up row.
type Entry struct {
	Student      record.Student
	Key          record.IdentityKey
	RegisteredAt time.Time
}

// Signup converts one sign-up row. It returns false when the row has neither
// an email nor an attendee id.
func Signup(row ingest.Row) (Entry, bool) {
	email := strings.ToLower(row.First(signupEmail...))
	id := row.First(attendeeID...)
	if strings.TrimSpace(email) == "" && strings.TrimSpace(id) == "" {
		return Entry{}, false
	}

	first, last := names(row)
	s := record.Student{
		ExternalID: id,
		Email:      email,
		FirstName:  first,
		LastName:   last,
		Class:      row.First(classColumns...),
		Response:   record.ParseResponse(row.First(statusColumns...)),
	}

	at := row.First(registeredAt...)
	when := ingest.ParseDateTime(at)
	if when.IsZero() {
		when = ingest.ParseDate(at)
	}
	return Entry{Student: s, Key: s.Key(), RegisteredAt: when}, true
}

// SplitEvents splits a comma-separated event list, dropping blanks.
func SplitEvents(v string) []string {
	var out []string
	for _, e := range strings.Split(v, ",") {
		if e = strings.TrimSpace(e); e != "" {
			out = append(out, e)
		}
	}
	return out
}

// names resolves first and last name, splitting a full-name column when the
// export has no separate fields.
func names(row ingest.Row) (string, string) {
	first := row.First(ingest.FirstNameColumns...)
	last := row.First(ingest.LastNameColumns...)
	if first != "" || last != "" {
		return first, last
	}
	full := strings.Fields(row.First(fullName...))
	if len(full) == 0 {
		return "", ""
	}
	return full[0], strings.Join(full[1:], " ")
}
