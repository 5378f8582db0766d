package ranking

import (
	"strings"
	"time"
)

// OpenNowEstimator guesses whether a place is open from free-text hours.
// nil means unknown.
type OpenNowEstimator interface {
	OpenNow(hoursText string) *bool
}

// WallClock evaluates the heuristic against the process clock, ignoring the
// region's time zone.
type WallClock struct {
	Now func() time.Time
}

func (w WallClock) OpenNow(hoursText string) *bool {
	now := time.Now
	if w.Now != nil {
		now = w.Now
	}
	return estimateOpen(hoursText, now().Hour())
}

// RegionClock evaluates the heuristic at the region's local hour.
type RegionClock struct {
	Offset time.Duration
	Now    func() time.Time
}

func (r RegionClock) OpenNow(hoursText string) *bool {
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	local := now().UTC().Add(r.Offset)
	return estimateOpen(hoursText, local.Hour())
}

// estimateOpen treats 08:00-18:59 as open and before 08:00 or after 20:59 as
// closed. The evening band in between is unknown.
func estimateOpen(hoursText string, hour int) *bool {
	if strings.TrimSpace(hoursText) == "" {
		return nil
	}
	lower := strings.ToLower(hoursText)
	if strings.Contains(lower, "24/7") || strings.Contains(lower, "24 hours") {
		return boolPtr(true)
	}
	switch {
	case hour >= 8 && hour <= 18:
		return boolPtr(true)
	case hour < 8 || hour > 20:
		return boolPtr(false)
	default:
		return nil
	}
}

func boolPtr(v bool) *bool { return &v }
