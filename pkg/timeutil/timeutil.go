// Package timeutil converts between account-local wall clock times and the
// UTC wire format used by the TickTick API.
package timeutil

import (
	"errors"
	"fmt"
	"time"

	// Bundle the zone database so conversions do not depend on the host.
	_ "time/tzdata"
)

// WireLayout is the date format the service accepts: UTC with a colon-less offset.
const WireLayout = "2006-01-02T15:04:05+0000"

// ErrInvalidTimeZone is returned when a zone name is not in the zone database.
var ErrInvalidTimeZone = errors.New("invalid time zone")

// LoadZone resolves tz against the bundled zone database.
func LoadZone(tz string) (*time.Location, error) {
	if tz == "" {
		return nil, fmt.Errorf("%w: empty zone name", ErrInvalidTimeZone)
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimeZone, tz)
	}
	return loc, nil
}

// ValidZone reports whether tz names a zone in the database.
func ValidZone(tz string) bool {
	_, err := LoadZone(tz)
	return err == nil
}

// LocalToUTC treats the wall clock of t as a time in tz and returns the same
// instant in UTC. The location attached to t is ignored.
func LocalToUTC(t time.Time, tz string) (time.Time, error) {
	loc, err := LoadZone(tz)
	if err != nil {
		return time.Time{}, err
	}
	local := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
	return local.UTC(), nil
}

// UTCToLocal treats the wall clock of t as UTC and returns the wall clock in tz.
func UTCToLocal(t time.Time, tz string) (time.Time, error) {
	loc, err := LoadZone(tz)
	if err != nil {
		return time.Time{}, err
	}
	utc := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
	return utc.In(loc), nil
}

// ToWire converts the wall clock t in tz to the service date format.
func ToWire(t time.Time, tz string) (string, error) {
	utc, err := LocalToUTC(t, tz)
	if err != nil {
		return "", err
	}
	return utc.Format(WireLayout), nil
}

// IsAllDay reports whether t has no time-of-day component.
func IsAllDay(t time.Time) bool {
	return t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0
}

// NextDay returns the calendar successor of t, keeping its clock and location.
func NextDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day()+1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// Stamp returns the yyyymmdd integer for the calendar day of t.
func Stamp(t time.Time) int {
	return t.Year()*10000 + int(t.Month())*100 + t.Day()
}

// ParseStamp is the inverse of Stamp. The result is midnight UTC.
func ParseStamp(stamp int) (time.Time, error) {
	y, m, d := stamp/10000, (stamp/100)%100, stamp%100
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if Stamp(t) != stamp {
		return time.Time{}, fmt.Errorf("invalid day stamp %d", stamp)
	}
	return t, nil
}
