package timeutil

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Ibrahimango02/almahir-portal-sub003/internal/models"
)

const (
	dateLayout  = "2006-01-02"
	clockLayout = "15:04"
)

// ToUTC converts a (local date, local time, IANA timezone) triple to an
// absolute UTC instant. The result does not depend on the host timezone.
func ToUTC(date, clock, tz string) (time.Time, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timezone %q: %w", tz, err)
	}
	d, err := time.Parse(dateLayout, date)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", date, err)
	}
	c, err := time.Parse(clockLayout, clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: %w", clock, err)
	}
	local := time.Date(d.Year(), d.Month(), d.Day(), c.Hour(), c.Minute(), 0, 0, loc)
	return local.UTC(), nil
}

// FromUTC converts a UTC instant back to a (local date, local time) pair in
// the given IANA timezone. Inverse of ToUTC for any instant outside a DST gap.
func FromUTC(t time.Time, tz string) (date, clock string, err error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return "", "", fmt.Errorf("invalid timezone %q: %w", tz, err)
	}
	local := t.In(loc)
	return local.Format(dateLayout), local.Format(clockLayout), nil
}

// MinuteOfDay returns the wall-clock minute (0..1439) of t in loc.
func MinuteOfDay(t time.Time, loc *time.Location) int {
	local := t.In(loc)
	return local.Hour()*60 + local.Minute()
}

// AddMonths adds calendar months, clamping to the last valid day of the target
// month. Jan 31 + 1 month is Feb 28 (or 29), never Mar 2.
func AddMonths(t time.Time, n int) time.Time {
	year, month, day := t.Date()
	firstOfTarget := time.Date(year, month, 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location()).AddDate(0, n, 0)
	last := daysInMonth(firstOfTarget.Year(), firstOfTarget.Month())
	if day > last {
		day = last
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysInMonth(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this month.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// NextPaymentDate computes the end of a billing period from its start.
// Month cadence advances by calendar months (clamped); 4-weeks cadence
// advances by multiplier x 28 days.
func NextPaymentDate(start time.Time, cadence models.Cadence, multiplier int) time.Time {
	if multiplier < 1 {
		multiplier = 1
	}
	switch cadence {
	case models.CadenceFourWeeks:
		return start.AddDate(0, 0, 28*multiplier)
	default:
		return AddMonths(start, multiplier)
	}
}

// SessionHours returns the length of [start, end) in hours as a decimal
// (minutes / 60), so fractional sessions survive billing math exactly.
func SessionHours(start, end time.Time) decimal.Decimal {
	minutes := end.Sub(start).Minutes()
	return decimal.NewFromFloat(minutes).Div(decimal.NewFromInt(60))
}
