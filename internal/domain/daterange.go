package domain

import "time"

// DateOnly truncates t to midnight UTC. All scheduling math works on whole
// days in UTC.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateRange is a half-open interval [Start, End): the end day itself is
// free, so a rental ending on day D and another starting on day D can share
// the asset for same-day turnover.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewDateRange normalizes both bounds to midnight UTC and rejects empty or
// inverted ranges.
func NewDateRange(start, end time.Time) (DateRange, error) {
	rng := DateRange{Start: DateOnly(start), End: DateOnly(end)}
	if err := rng.Validate(); err != nil {
		return DateRange{}, err
	}
	return rng, nil
}

func (r DateRange) Validate() error {
	if !r.End.After(r.Start) {
		return ErrInvalidRange
	}
	return nil
}

// Overlaps reports whether two half-open ranges intersect:
// s1 < e2 && s2 < e1.
func (r DateRange) Overlaps(other DateRange) bool {
	return r.Start.Before(other.End) && other.Start.Before(r.End)
}

// Days is the number of whole days covered.
func (r DateRange) Days() int {
	return int(r.End.Sub(r.Start).Hours() / 24)
}
