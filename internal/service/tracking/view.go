package tracking

import (
	"fmt"
	"strings"
	"time"

	"github.com/bluecycle/bluecycle/internal/domain/tracking"
)

// Render formats a snapshot for display. The driver block is always shown;
// the location block depends on the session status.
func Render(snap tracking.Snapshot, now time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Driver: %s", snap.Driver.Name)
	if snap.Driver.Phone != "" {
		fmt.Fprintf(&b, " (%s)", snap.Driver.Phone)
	}
	fmt.Fprintf(&b, "\nRating: %.1f / 5\n", snap.Driver.AverageRating)

	switch {
	case snap.HasLocation():
		fmt.Fprintf(&b, "Location: %s, %s\nUpdated: %s (%s ago)",
			snap.LastSample.Latitude,
			snap.LastSample.Longitude,
			snap.LastSample.CapturedAt.Format(time.RFC3339),
			snap.Age(now).Round(time.Second),
		)
	case snap.Status == tracking.StatusLoading:
		b.WriteString("Location: loading...")
	default:
		b.WriteString("Location: no tracking data available")
	}
	return b.String()
}
