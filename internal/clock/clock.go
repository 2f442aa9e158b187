// Package clock is the single authority for ET day boundaries. Every other
// package that needs "today" asks this one; nothing else may compute day
// bounds or load the zone.
package clock

import (
	"sync"
	"time"

	"github.com/slatepick/slatepick/internal/models"
)

// ZoneName is the canonical slate timezone.
const ZoneName = "America/New_York"

// DateLayout is the wire form of a slate date.
const DateLayout = "2006-01-02"

// ISOLayout renders ET timestamps with their offset (-05:00 / -04:00).
const ISOLayout = "2006-01-02T15:04:05-07:00"

var (
	zoneOnce sync.Once
	zone     *time.Location
)

// ET returns the America/New_York location, loaded once.
func ET() *time.Location {
	zoneOnce.Do(func() {
		loc, err := time.LoadLocation(ZoneName)
		if err != nil {
			// The zone db ships with the binary via tzdata on scratch
			// images; a load failure is a deployment defect.
			panic("clock: load " + ZoneName + ": " + err.Error())
		}
		zone = loc
	})
	return zone
}

// Clock supplies the current instant. Production uses System; tests pin a
// Fixed instant so day-boundary behavior is deterministic.
type Clock interface {
	Now() time.Time
}

// System reads the real time.
type System struct{}

func (System) Now() time.Time { return time.Now() }

// Fixed always returns the same instant.
type Fixed struct{ T time.Time }

func (f Fixed) Now() time.Time { return f.T }

// NowET is the current instant in the slate timezone.
func NowET(c Clock) time.Time {
	return c.Now().In(ET())
}

// ISO renders t as an ET-zoned ISO-8601 string with offset.
func ISO(t time.Time) string {
	return t.In(ET()).Format(ISOLayout)
}

// DayBounds computes [start, end) for the ET calendar day. An empty date
// means today; otherwise date must be YYYY-MM-DD. The upper bound is
// exclusive: midnight of the next day is outside the window.
func DayBounds(c Clock, date string) (start, end time.Time, dateStr string, err error) {
	loc := ET()
	var day time.Time
	if date == "" {
		now := NowET(c)
		day = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	} else {
		parsed, perr := time.ParseInLocation(DateLayout, date, loc)
		if perr != nil {
			return time.Time{}, time.Time{}, "", models.NewCodedError(models.ErrCodeInvalidDate, "invalid date %q, want YYYY-MM-DD", date)
		}
		day = parsed
	}
	start = day
	end = day.AddDate(0, 0, 1)
	return start, end, day.Format(DateLayout), nil
}

// InDay reports whether t falls inside [start, end). The end instant itself
// is excluded so a start-of-next-day tip never leaks into today.
func InDay(t time.Time, start, end time.Time) bool {
	return !t.Before(start) && t.Before(end)
}
