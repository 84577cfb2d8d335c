package conditions

import (
	"time"

	"github.com/example/errand-core/internal/models"
)

// Clock supplies "now" so time-of-day classification stays deterministic in
// tests. Production wiring passes time.Now.
type Clock func() time.Time

// Classify maps a local time to its pricing time condition:
// 22:00-05:59 night, 07:00-09:59 and 17:00-19:59 peak, everything else day.
func Classify(t time.Time) models.TimeCondition {
	h := t.Hour()
	switch {
	case h >= 22 || h < 6:
		return models.TimeNight
	case (h >= 7 && h < 10) || (h >= 17 && h < 20):
		return models.TimePeak
	default:
		return models.TimeDay
	}
}
