package progress

// Summary is the derived course-completion view. It is computed on read and
// never persisted.
type Summary struct {
	TotalDurationSeconds     int `json:"total_duration_seconds"`
	CompletedDurationSeconds int `json:"completed_duration_seconds"`
	PercentComplete          int `json:"percent_complete"`
	MinutesWatched           int `json:"minutes_watched"`
}

// ComputeSummary folds a user's records into course totals. Records without
// a positive duration contribute to neither sum. Percent rounds up so any
// completed work shows as at least 1%.
func ComputeSummary(records []Record) Summary {
	var s Summary
	for _, r := range records {
		if r.DurationSeconds <= 0 {
			continue
		}
		s.TotalDurationSeconds += r.DurationSeconds
		if r.Completed {
			s.CompletedDurationSeconds += r.DurationSeconds
		}
	}
	if s.TotalDurationSeconds > 0 {
		s.PercentComplete = (s.CompletedDurationSeconds*100 + s.TotalDurationSeconds - 1) / s.TotalDurationSeconds
	}
	s.MinutesWatched = s.CompletedDurationSeconds / 60
	return s
}
