package pipeline

import "image/color"

// Crawl ticker slots. Slots 0-2 are computed by the display loop; the
// worker owns 3-5. The rest are free for operators' messages.
const (
	SlotEventName = 0
	SlotClock     = 1
	SlotCountdown = 2
	SlotLastQSO   = 3
	SlotEngine    = 4
	SlotData      = 5

	CrawlSlots = 10
)

// Ticker colors.
var (
	Black      = color.RGBA{A: 255}
	White      = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Red        = color.RGBA{R: 255, A: 255}
	Yellow     = color.RGBA{R: 255, G: 255, A: 255}
	Orange     = color.RGBA{R: 255, G: 153, A: 255}
	Blue       = color.RGBA{B: 255, A: 255}
	BrightBlue = color.RGBA{R: 51, G: 153, B: 255, A: 255}
	Cyan       = color.RGBA{G: 255, B: 255, A: 255}
	Green      = color.RGBA{G: 255, A: 255}
)

// ClearCrawl returns a message that empties slot.
func ClearCrawl(slot int) CrawlMessage {
	return CrawlMessage{Slot: slot, FG: White, BG: Black}
}
