package ledger

import (
	"github.com/roach88/raffle/internal/consolidate"
	"github.com/roach88/raffle/internal/ingest"
	"github.com/roach88/raffle/internal/record"
)

// Parse reads ledger text into student records. Rows without any identity
// are skipped, as consolidation would skip them.
func Parse(text []byte) []record.Student {
	rows := ingest.Parse(text)
	out := make([]record.Student, 0, len(rows))
	for _, row := range rows {
		if s, ok := consolidate.Historical(row); ok {
			out = append(out, s)
		}
	}
	return out
}

// Encode renders students in ledger layout without applying a run.
func Encode(students []record.Student) []byte {
	return render(layoutFor(students), students)
}

func render(l layout, students []record.Student) []byte {
	return ingest.MustCSV(records(l, students))
}

func records(l layout, students []record.Student) [][]string {
	out := make([][]string, 0, len(students)+1)
	out = append(out, l.header())
	for _, s := range students {
		out = append(out, l.row(s))
	}
	return out
}
