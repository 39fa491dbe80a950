package insight

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCurrentWindowMondayBoundaries(t *testing.T) {
	// 2026-08-26 is a Wednesday.
	now := time.Date(2026, 8, 26, 15, 4, 5, 0, time.UTC)
	w := CurrentWindow(now)

	assert.Equal(t, time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC), w.Start)
	assert.Equal(t, time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC), w.End)
	assert.Equal(t, time.Monday, w.Start.Weekday())
}

func TestCurrentWindowIdempotentWithinWeek(t *testing.T) {
	a := CurrentWindow(time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC))  // Monday 00:00
	b := CurrentWindow(time.Date(2026, 8, 30, 23, 59, 59, 0, time.UTC)) // Sunday night

	assert.Equal(t, a, b)
}

func TestCurrentWindowRollsOverOnMonday(t *testing.T) {
	sun := CurrentWindow(time.Date(2026, 8, 30, 23, 0, 0, 0, time.UTC))
	mon := CurrentWindow(time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC))

	assert.Equal(t, sun.End, mon.Start)
	assert.NotEqual(t, sun.Start, mon.Start)
}

func TestCurrentWindowNormalizesZones(t *testing.T) {
	// Same instant expressed in a non-UTC zone resolves to the same window.
	loc := time.FixedZone("UTC+9", 9*3600)
	utc := time.Date(2026, 8, 26, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, CurrentWindow(utc), CurrentWindow(utc.In(loc)))
}

func TestCurrentWindowContains(t *testing.T) {
	w := CurrentWindow(time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC))
	assert.True(t, w.Contains(w.Start))
	assert.False(t, w.Contains(w.End))
	assert.True(t, w.Contains(w.End.Add(-time.Second)))
}
