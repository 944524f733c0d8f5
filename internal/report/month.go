package report

import "time"

// DateLayout is the column key format. Keys sort chronologically as strings.
const DateLayout = "2006-01-02"

// MonthLayout is the accepted format for selecting a month, e.g. "2024-01".
const MonthLayout = "2006-01"

// MonthRange returns the first instant (day 1, 00:00:00.000) and the last
// millisecond (last day, 23:59:59.999) of the calendar month containing t in loc.
func MonthRange(t time.Time, loc *time.Location) (start, end time.Time) {
	if loc == nil {
		loc = time.Local
	}
	t = t.In(loc)
	start = time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, loc)
	end = time.Date(t.Year(), t.Month()+1, 0, 23, 59, 59, int(999*time.Millisecond), loc)
	return start, end
}

// ParseMonth parses a "YYYY-MM" string into a time within that month in loc.
func ParseMonth(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(MonthLayout, s, loc)
}

func inRange(t, start, end time.Time) bool {
	return !t.Before(start) && !t.After(end)
}
