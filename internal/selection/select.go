package selection

import (
	"sort"

	"github.com/roach88/raffle/internal/record"
)

// Compare orders two students by the ranking key. It returns a negative
// number when a ranks before b, zero for identical keys.
func Compare(a, b record.Student) int {
	switch {
	case a.Attended != b.Attended:
		return cmpInt(a.Attended, b.Attended)
	case a.Absences != b.Absences:
		return cmpInt(a.Absences, b.Absences)
	case a.Late != b.Late:
		return cmpInt(a.Late, b.Late)
	default:
		return a.LastAttendedDate.Compare(b.LastAttendedDate)
	}
}

// Less reports whether a ranks strictly before b.
func Less(a, b record.Student) bool { return Compare(a, b) < 0 }

func cmpInt(a, b int) int {
	if a < b {
		return -1
	}
	return 1
}

// Eligible returns copies of the students whose response is yes, in input
// order.
func Eligible(students []record.Student) []record.Student {
	out := make([]record.Student, 0, len(students))
	for _, s := range students {
		if s.Response == record.ResponseYes {
			out = append(out, s.Clone())
		}
	}
	return out
}

// Select ranks the eligible students and takes the first capacity of them.
//
// Rank is 1-based over every eligible student and Selected is set on each
// ranked record. A negative capacity is treated as zero; a capacity beyond
// the eligible count selects everyone. The input slice is not modified. A nil
// src falls back to a freshly seeded Source.
func Select(students []record.Student, capacity int, src Shuffler) record.RunResult {
	if src == nil {
		src = NewSource()
	}
	capacity = max(capacity, 0)

	ranked := Eligible(students)
	src.Shuffle(len(ranked), func(i, j int) { ranked[i], ranked[j] = ranked[j], ranked[i] })
	sort.SliceStable(ranked, func(i, j int) bool { return Less(ranked[i], ranked[j]) })

	n := min(capacity, len(ranked))
	selected := make([]record.Student, 0, n)
	for i := range ranked {
		ranked[i].Rank = i + 1
		ranked[i].Selected = i < n
		if ranked[i].Selected {
			selected = append(selected, ranked[i].Clone())
		}
	}

	return record.RunResult{Eligible: ranked, Selected: selected, Capacity: capacity}
}
