package display

import (
	"fmt"
	"time"

	"qsoview/pipeline"
)

// Event is the contest window shown on the ticker.
type Event struct {
	Name  string
	Start time.Time
	End   time.Time
}

// FormatDelta renders d as HH:MM:SS, prefixed with "N days, " when at
// least one day remains.
func FormatDelta(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64(d / time.Second)
	days := secs / 86400
	secs %= 86400
	h, m, s := secs/3600, (secs%3600)/60, secs%60
	if days > 0 {
		return fmt.Sprintf("%d days, %02d:%02d:%02d", days, h, m, s)
	}
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// CountdownEntry returns the countdown ticker entry for now. It is empty
// when the event window is not configured.
func CountdownEntry(ev Event, now time.Time) Entry {
	if ev.Start.IsZero() || ev.End.IsZero() {
		return Entry{FG: pipeline.White, BG: pipeline.Black}
	}
	switch {
	case now.Before(ev.Start):
		left := ev.Start.Sub(now)
		bg := pipeline.Blue
		if left <= time.Hour {
			bg = pipeline.Red
		}
		return Entry{Text: fmt.Sprintf("%s starts in %s", ev.Name, FormatDelta(left)), FG: pipeline.White, BG: bg}
	case now.Before(ev.End):
		left := ev.End.Sub(now)
		fg := pipeline.Yellow
		if left <= time.Hour {
			fg = pipeline.Orange
		}
		return Entry{Text: fmt.Sprintf("%s ends in %s", ev.Name, FormatDelta(left)), FG: fg, BG: pipeline.Black}
	default:
		return Entry{Text: ev.Name + " is over.", FG: pipeline.Red, BG: pipeline.Black}
	}
}

// localEntries refreshes the slots the display computes itself.
func localEntries(c *Crawl, ev Event, now time.Time) {
	c.Set(pipeline.SlotEventName, Entry{Text: ev.Name, FG: pipeline.BrightBlue, BG: pipeline.Black})
	c.Set(pipeline.SlotClock, Entry{Text: now.UTC().Format("15:04:05"), FG: pipeline.Green, BG: pipeline.Black})
	c.Set(pipeline.SlotCountdown, CountdownEntry(ev, now))
}
