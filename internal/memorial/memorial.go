// Package memorial renders dedication lines for stories published in memory
// of someone, with the event date on the Hebrew calendar.
package memorial

import (
	"fmt"
	"time"

	"github.com/hebcal/hdate"

	"github.com/nadav-o/sipurim/internal/catalog"
)

// HebrewDate renders a civil date on the Hebrew calendar, e.g.
// "15 Cheshvan 5769".
func HebrewDate(t time.Time) string {
	return hdate.FromTime(t).String()
}

// FormatLine renders one dedication for display. The event date is preferred;
// a memorial created without one falls back to its creation date.
func FormatLine(m catalog.Memorial) string {
	date := m.CreatedAt
	if d, ok := m.EventDate.Get(); ok {
		date = d
	}
	return fmt.Sprintf("לעילוי נשמת %s (%s)", m.Honoree, HebrewDate(date))
}
