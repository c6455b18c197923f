package schedule

import "math"

// Summary aggregates dose outcomes over a window. Skipped doses are excluded
// from the denominator so an administratively skipped dose never counts
// against the patient.
type Summary struct {
	Total   int `json:"total"`
	Taken   int `json:"taken"`
	Missed  int `json:"missed"`
	Skipped int `json:"skipped"`
	Pending int `json:"pending"`
	Percent int `json:"percent"`
}

// Summarize computes the adherence summary for a set of dose events.
// Percent is taken over (total - skipped), rounded to the nearest integer,
// and 100 when the denominator is zero.
func Summarize(events []DoseEvent) Summary {
	var s Summary
	s.Total = len(events)
	for _, e := range events {
		switch e.Status {
		case StatusTaken:
			s.Taken++
		case StatusMissed:
			s.Missed++
		case StatusSkipped:
			s.Skipped++
		default:
			s.Pending++
		}
	}

	denom := s.Total - s.Skipped
	if denom <= 0 {
		s.Percent = 100
		return s
	}
	s.Percent = int(math.Round(float64(s.Taken) / float64(denom) * 100))
	return s
}
