package scheduler

import "time"

// Regular US equity session: weekdays 09:30–16:00 exchange time.
const (
	openHour    = 9
	openMinute  = 30
	closeHour   = 16
	closeMinute = 0
)

// IsMarketOpen reports whether the regular session is open at t in the
// given exchange location.
func IsMarketOpen(t time.Time, loc *time.Location) bool {
	local := t.In(loc)
	if wd := local.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return false
	}
	open := time.Date(local.Year(), local.Month(), local.Day(), openHour, openMinute, 0, 0, loc)
	close := time.Date(local.Year(), local.Month(), local.Day(), closeHour, closeMinute, 0, 0, loc)
	return !local.Before(open) && !local.After(close)
}

// NextMarketOpen returns the next session open at or after t. If the market
// is open at t, t itself is returned.
func NextMarketOpen(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	if IsMarketOpen(local, loc) {
		return local
	}
	next := time.Date(local.Year(), local.Month(), local.Day(), openHour, openMinute, 0, 0, loc)
	if !local.Before(next) {
		next = next.AddDate(0, 0, 1)
	}
	for wd := next.Weekday(); wd == time.Saturday || wd == time.Sunday; wd = next.Weekday() {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
