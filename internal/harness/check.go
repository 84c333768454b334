package harness

import (
	"fmt"
	"slices"

	"github.com/roach88/raffle/internal/engine"
	"github.com/roach88/raffle/internal/ledger"
	"github.com/roach88/raffle/internal/record"
)

// Check evaluates expectations against a run outcome and the stored ledger
// text. It returns one message per failed expectation.
func Check(exp Expectations, out *engine.Outcome, ledgerText []byte) []string {
	var errs []string
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Sprintf(format, args...))
	}

	if exp.Selected != nil {
		got := emails(out.Result.Selected)
		if want := normalize(exp.Selected); !slices.Equal(got, want) {
			fail("selected: got %v, want %v", got, want)
		}
	}

	if exp.EligibleCount != nil && len(out.Result.Eligible) != *exp.EligibleCount {
		fail("eligible_count: got %d, want %d", len(out.Result.Eligible), *exp.EligibleCount)
	}

	if exp.UnknownSelected != nil {
		got := emails(out.UnknownSelected)
		want := normalize(exp.UnknownSelected)
		slices.Sort(got)
		slices.Sort(want)
		if !slices.Equal(got, want) {
			fail("unknown_selected: got %v, want %v", got, want)
		}
	}

	if exp.DroppedSignups != nil && out.Report.DroppedSignups != *exp.DroppedSignups {
		fail("dropped_signups: got %d, want %d", out.Report.DroppedSignups, *exp.DroppedSignups)
	}

	if len(exp.LedgerContains) == 0 && len(exp.LedgerAbsent) == 0 {
		return errs
	}
	byEmail := map[string]record.Student{}
	for _, s := range ledger.Parse(ledgerText) {
		byEmail[record.NormalizeEmail(s.Email)] = s
	}

	for _, row := range exp.LedgerContains {
		s, ok := byEmail[record.NormalizeEmail(row.Email)]
		if !ok {
			fail("ledger_contains: no record for %s", row.Email)
			continue
		}
		for _, m := range checkRow(row, s) {
			fail("ledger_contains %s: %s", row.Email, m)
		}
	}

	for _, email := range exp.LedgerAbsent {
		if _, ok := byEmail[record.NormalizeEmail(email)]; ok {
			fail("ledger_absent: %s is present", email)
		}
	}

	return errs
}

func checkRow(want LedgerRow, got record.Student) []string {
	var errs []string
	counter := func(name string, want *int, got int) {
		if want != nil && *want != got {
			errs = append(errs, fmt.Sprintf("%s: got %d, want %d", name, got, *want))
		}
	}
	counter("attended", want.Attended, got.Attended)
	counter("absent", want.Absent, got.Absences)
	counter("late", want.Late, got.Late)

	if want.Events != nil && !slices.Equal(want.Events, got.EventsAttended) {
		errs = append(errs, fmt.Sprintf("events: got %v, want %v", got.EventsAttended, want.Events))
	}
	if want.Latest != "" && want.Latest != got.LatestAttended {
		errs = append(errs, fmt.Sprintf("latest: got %q, want %q", got.LatestAttended, want.Latest))
	}
	for name, v := range want.Columns {
		col := record.NormalizeColumn(name)
		if gv, ok := got.Extra.Get(col); !ok || gv != v {
			errs = append(errs, fmt.Sprintf("column %s: got %q, want %q", name, gv, v))
		}
	}
	slices.Sort(errs)
	return errs
}

func emails(students []record.Student) []string {
	out := make([]string, 0, len(students))
	for _, s := range students {
		out = append(out, record.NormalizeEmail(s.Email))
	}
	return out
}

func normalize(in []string) []string {
	out := make([]string, 0, len(in))
	for _, e := range in {
		out = append(out, record.NormalizeEmail(e))
	}
	return out
}
