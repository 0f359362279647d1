package rollup

import (
	"fmt"
	"time"
)

const defaultLookbackDays = 30

// Window is the half-open date range [Start, End) a single run processes.
// Both bounds are dates at midnight UTC.
type Window struct {
	Start time.Time
	End   time.Time
}

func (w Window) Days() int {
	return int(w.End.Sub(w.Start).Hours() / 24)
}

func (w Window) String() string {
	return fmt.Sprintf("[%s, %s)", w.Start.Format(dateLayout), w.End.Format(dateLayout))
}

const dateLayout = "2006-01-02"

// SelectWindow decides the range to (re)process. End is always the day after
// today, so the window includes today. Start comes from, in order of
// precedence: the caller-supplied resume date (used verbatim, the caller may
// intentionally reprocess history), the watermark plus one day, or a
// 30-day lookback on first run.
//
// ok is false when the range is empty (start >= end); the caller must then
// short-circuit without writing anything.
func SelectWindow(today time.Time, lastDone, userStart *time.Time) (w Window, ok bool) {
	today = dateOnly(today)
	w.End = today.AddDate(0, 0, 1)

	switch {
	case userStart != nil:
		w.Start = dateOnly(*userStart)
	case lastDone != nil:
		w.Start = dateOnly(*lastDone).AddDate(0, 0, 1)
	default:
		w.Start = today.AddDate(0, 0, -defaultLookbackDays)
	}

	return w, w.Start.Before(w.End)
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
