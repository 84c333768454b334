package ledger

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/raffle/internal/ingest"
	"github.com/roach88/raffle/internal/record"
)

// Fixed header names of the ledger.
const (
	ColEmail          = "email"
	ColFirstName      = "First Name"
	ColLastName       = "Last Name"
	ColClass          = "Class"
	ColAbsent         = "Absent"
	ColLate           = "Late"
	ColAttended       = "Attended"
	ColAttendedEvents = "Attended Events"
	ColLatestAttended = "Latest Attended"
	ColLastDate       = "Last Attended Date"
	ColUserID         = "User ID"
)

// EventSeparator joins the Attended Events list. Event names containing a
// comma do not survive a round trip.
const EventSeparator = ", "

// layout is the column plan for one ledger rendering.
type layout struct {
	numbered int
	named    []string
	labels   []string
	withDate bool
	withID   bool
}

func layoutFor(students []record.Student) layout {
	var l layout
	seen := map[string]bool{}
	for _, s := range students {
		count := 0
		for _, c := range s.Extra {
			if k, ok := eventIndex(c.Name); ok {
				count++
				l.numbered = max(l.numbered, k)
				continue
			}
			if !seen[c.Name] {
				seen[c.Name] = true
				l.named = append(l.named, c.Name)
				l.labels = append(l.labels, c.Label())
			}
		}
		l.numbered = max(l.numbered, count)
		if !s.LastAttendedDate.IsZero() {
			l.withDate = true
		}
		if s.ExternalID != "" {
			l.withID = true
		}
	}
	return l
}

func (l layout) header() []string {
	h := []string{ColEmail, ColFirstName, ColLastName, ColClass}
	for i := 1; i <= l.numbered; i++ {
		h = append(h, fmt.Sprintf("Event%d", i))
	}
	h = append(h, l.labels...)
	h = append(h, ColAbsent, ColLate, ColAttended, ColAttendedEvents, ColLatestAttended)
	if l.withDate {
		h = append(h, ColLastDate)
	}
	if l.withID {
		h = append(h, ColUserID)
	}
	return h
}

func (l layout) row(s record.Student) []string {
	r := []string{s.Email, s.FirstName, s.LastName, s.Class}
	for i := 1; i <= l.numbered; i++ {
		r = append(r, s.Extra.Value(fmt.Sprintf("event%d", i)))
	}
	for _, name := range l.named {
		r = append(r, s.Extra.Value(name))
	}
	r = append(r,
		strconv.Itoa(s.Absences),
		strconv.Itoa(s.Late),
		strconv.Itoa(s.Attended),
		strings.Join(s.EventsAttended, EventSeparator),
		s.LatestAttended,
	)
	if l.withDate {
		r = append(r, ingest.FormatDate(s.LastAttendedDate))
	}
	if l.withID {
		r = append(r, s.ExternalID)
	}
	return r
}

// eventIndex extracts K from a normalised "eventK" column name.
func eventIndex(name string) (int, bool) {
	rest, ok := strings.CutPrefix(name, "event")
	if !ok || rest == "" {
		return 0, false
	}
	k, err := strconv.Atoi(rest)
	if err != nil || k < 1 || strconv.Itoa(k) != rest {
		return 0, false
	}
	return k, true
}
