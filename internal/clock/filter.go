package clock

import (
	"time"

	"github.com/slatepick/slatepick/internal/models"
)

// FilterResult partitions a fetched schedule against the ET day window.
type FilterResult struct {
	Kept           []models.Event
	DroppedOut     []models.Event
	DroppedMissing []models.Event
}

// FilterEventsET classifies events as in-window, out-of-window, or missing a
// usable start time. Kept events get their ET fields and status populated;
// out-of-window events are marked NOT_TODAY. A zero StartTimeUTC counts as
// missing, matching upstream parse failures.
func FilterEventsET(c Clock, events []models.Event, start, end time.Time) FilterResult {
	now := c.Now()
	var res FilterResult
	for _, ev := range events {
		if ev.StartTimeUTC.IsZero() {
			res.DroppedMissing = append(res.DroppedMissing, ev)
			continue
		}
		ev.StartTimeET = ev.StartTimeUTC.In(ET())
		if !InDay(ev.StartTimeET, start, end) {
			ev.Status = models.EventNotToday
			res.DroppedOut = append(res.DroppedOut, ev)
			continue
		}
		ev.HasStarted = !now.Before(ev.StartTimeUTC)
		switch {
		case ev.Status == models.EventFinal:
			ev.IsLive = false
		case ev.HasStarted:
			ev.Status = models.EventInProgress
			ev.IsLive = true
		default:
			ev.Status = models.EventPreGame
			ev.IsLive = false
		}
		res.Kept = append(res.Kept, ev)
	}
	return res
}
