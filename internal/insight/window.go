// Package insight implements the weekly reflection pipeline: resolving the
// reporting window, aggregating mood/chat/memory signals, and composing the
// stored insight run.
package insight

import (
	"time"

	"github.com/mindloom/mindloom/server/internal/model"
)

// CurrentWindow returns the 7-day reporting window containing now: the UTC
// calendar week from Monday 00:00:00 inclusive to the following Monday
// exclusive. Repeated calls within the same week return identical boundaries,
// which is what makes the duplicate check on (user, start, end) work.
func CurrentWindow(now time.Time) model.Window {
	now = now.UTC()
	// Monday-based weekday offset; time.Weekday has Sunday == 0.
	offset := (int(now.Weekday()) + 6) % 7
	start := time.Date(now.Year(), now.Month(), now.Day()-offset, 0, 0, 0, 0, time.UTC)
	return model.Window{Start: start, End: start.AddDate(0, 0, 7)}
}
