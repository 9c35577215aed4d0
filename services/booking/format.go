package booking

import (
	"fmt"
	"strings"
	"time"

	"kvrdesk/models"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// FormatDate renders "2025-12-05" as "December 5", adding the year when it is not the current one.
func FormatDate(date string, now time.Time) string {
	d, err := time.Parse(dateLayout, date)
	if err != nil {
		return date
	}
	if d.Year() != now.Year() {
		return d.Format("January 2, 2006")
	}
	return d.Format("January 2")
}

// FormatTime renders "09:00" as "9:00 AM".
func FormatTime(clock string) string {
	t, err := time.Parse(timeLayout, clock)
	if err != nil {
		return clock
	}
	return t.Format("3:04 PM")
}

// JoinList joins with "and" for two items and a serial comma for three or more.
func JoinList(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	case 2:
		return items[0] + " and " + items[1]
	default:
		return strings.Join(items[:len(items)-1], ", ") + ", and " + items[len(items)-1]
	}
}

// groupedSummary renders sorted slots as "December 5 at 9:00 AM and 2:00 PM, and December 6 at 10:00 AM".
func groupedSummary(slots []models.Slot, now time.Time) string {
	var groups []string
	for i := 0; i < len(slots); {
		date := slots[i].Date
		var times []string
		for ; i < len(slots) && slots[i].Date == date; i++ {
			times = append(times, FormatTime(slots[i].Time))
		}
		groups = append(groups, fmt.Sprintf("%s at %s", FormatDate(date, now), JoinList(times)))
	}
	return JoinList(groups)
}

func pluralize(n int, singular, plural string) string {
	if n == 1 {
		return singular
	}
	return plural
}

// availabilityMessage builds the spoken summary for a query result.
func availabilityMessage(shown []models.Slot, total int, requested []string, now time.Time) string {
	if total == 0 {
		if len(requested) == 0 {
			return "Sorry, there are no upcoming appointments available right now."
		}
		dates := make([]string, len(requested))
		for i, d := range requested {
			dates[i] = FormatDate(d, now)
		}
		return fmt.Sprintf("Sorry, there are no available appointments on %s. Would you like me to check other dates?", JoinList(dates))
	}

	lead := fmt.Sprintf("There %s %d available %s",
		pluralize(total, "is", "are"), total, pluralize(total, "appointment", "appointments"))
	if total > len(shown) {
		return fmt.Sprintf("%s. The earliest %s %s.", lead, pluralize(len(shown), "is", "are"), groupedSummary(shown, now))
	}
	return fmt.Sprintf("%s: %s.", lead, groupedSummary(shown, now))
}
