package countdown

import (
	"fmt"
	"time"

	"github.com/mcdev12/livebid/go/internal/auction/cache"
)

// Display values that are not a remaining duration
const (
	NotApplicable = "N/A"
	Ended         = "Ended"
)

// Derive computes the countdown text for a record at now. It is recomputed on
// every tick and never stored.
func Derive(now time.Time, rec cache.Record) string {
	if rec.Type != cache.TypeTimed || rec.EndTime == nil {
		return NotApplicable
	}
	if rec.Ended() {
		return Ended
	}

	remaining := rec.EndTime.Sub(now)
	if remaining <= 0 {
		return Ended
	}

	days := remaining / (24 * time.Hour)
	remaining -= days * 24 * time.Hour
	hours := remaining / time.Hour
	remaining -= hours * time.Hour
	minutes := remaining / time.Minute

	return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
}
