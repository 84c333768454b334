package ledger

import (
	"strconv"

	"github.com/roach88/raffle/internal/ingest"
	"github.com/roach88/raffle/internal/record"
)

// ExportHeader is the column set of the operator-facing ranking and
// selection downloads. These files are not read back.
var ExportHeader = []string{
	"rank",
	"selected",
	"user_id",
	"name",
	"email",
	"class",
	"num_events_attended",
	"num_absences",
	"num_late_arrivals",
	"last_attended_date",
}

// RankingCSV renders every eligible student in rank order.
func RankingCSV(eligible []record.Student) []byte {
	return export(eligible)
}

// SelectedCSV renders the selected subset.
func SelectedCSV(selected []record.Student) []byte {
	return export(selected)
}

func export(students []record.Student) []byte {
	records := make([][]string, 0, len(students)+1)
	records = append(records, ExportHeader)
	for _, s := range students {
		sel := "no"
		if s.Selected {
			sel = "yes"
		}
		rank := ""
		if s.Rank > 0 {
			rank = strconv.Itoa(s.Rank)
		}
		records = append(records, []string{
			rank,
			sel,
			s.ExternalID,
			s.Name(),
			s.Email,
			s.Class,
			strconv.Itoa(s.Attended),
			strconv.Itoa(s.Absences),
			strconv.Itoa(s.Late),
			ingest.FormatDate(s.LastAttendedDate),
		})
	}
	return ingest.MustCSV(records)
}
