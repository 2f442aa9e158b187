package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slatepick/slatepick/internal/models"
)

func fixedNoon() Fixed {
	return Fixed{T: time.Date(2025, 1, 15, 12, 0, 0, 0, ET())}
}

func TestDayBounds_Today(t *testing.T) {
	start, end, dateStr, err := DayBounds(fixedNoon(), "")
	require.NoError(t, err)

	assert.Equal(t, "2025-01-15", dateStr)
	assert.Equal(t, time.Date(2025, 1, 15, 0, 0, 0, 0, ET()), start)
	assert.Equal(t, time.Date(2025, 1, 16, 0, 0, 0, 0, ET()), end)
}

func TestDayBounds_ExplicitDate(t *testing.T) {
	start, _, dateStr, err := DayBounds(fixedNoon(), "2025-03-09")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-09", dateStr)
	assert.Equal(t, time.Date(2025, 3, 9, 0, 0, 0, 0, ET()), start)
}

func TestDayBounds_InvalidDate(t *testing.T) {
	_, _, _, err := DayBounds(fixedNoon(), "03/09/2025")
	require.Error(t, err)
	assert.Equal(t, models.ErrCodeInvalidDate, models.CodeOf(err))
}

func TestInDay_ExclusiveUpperBound(t *testing.T) {
	start, end, _, err := DayBounds(fixedNoon(), "")
	require.NoError(t, err)

	assert.True(t, InDay(start, start, end), "start of day is inside")
	assert.False(t, InDay(end, start, end), "start of next day is outside")
	assert.True(t, InDay(end.Add(-time.Second), start, end))
	assert.False(t, InDay(start.Add(-time.Second), start, end))
}

func TestISO_CarriesETOffset(t *testing.T) {
	winter := time.Date(2025, 1, 15, 19, 30, 0, 0, ET())
	summer := time.Date(2025, 7, 15, 19, 30, 0, 0, ET())

	assert.Equal(t, "2025-01-15T19:30:00-05:00", ISO(winter))
	assert.Equal(t, "2025-07-15T19:30:00-04:00", ISO(summer))
}

func TestFilterEventsET_Window(t *testing.T) {
	c := fixedNoon()
	start, end, _, err := DayBounds(c, "")
	require.NoError(t, err)

	lateTip := time.Date(2025, 1, 15, 23, 59, 0, 0, ET())
	nextDay := time.Date(2025, 1, 16, 0, 0, 0, 0, ET())

	events := []models.Event{
		{EventID: "late", StartTimeUTC: lateTip.UTC()},
		{EventID: "tomorrow", StartTimeUTC: nextDay.UTC()},
		{EventID: "no-time"},
	}

	res := FilterEventsET(c, events, start, end)

	require.Len(t, res.Kept, 1)
	assert.Equal(t, "late", res.Kept[0].EventID)
	assert.Equal(t, models.EventPreGame, res.Kept[0].Status)
	assert.False(t, res.Kept[0].HasStarted)

	require.Len(t, res.DroppedOut, 1)
	assert.Equal(t, "tomorrow", res.DroppedOut[0].EventID)
	assert.Equal(t, models.EventNotToday, res.DroppedOut[0].Status)

	require.Len(t, res.DroppedMissing, 1)
	assert.Equal(t, "no-time", res.DroppedMissing[0].EventID)
}

func TestFilterEventsET_LiveClassification(t *testing.T) {
	c := fixedNoon()
	start, end, _, err := DayBounds(c, "")
	require.NoError(t, err)

	morning := time.Date(2025, 1, 15, 11, 0, 0, 0, ET())
	events := []models.Event{{EventID: "started", StartTimeUTC: morning.UTC()}}

	res := FilterEventsET(c, events, start, end)
	require.Len(t, res.Kept, 1)
	assert.True(t, res.Kept[0].HasStarted)
	assert.True(t, res.Kept[0].IsLive)
	assert.Equal(t, models.EventInProgress, res.Kept[0].Status)
}
