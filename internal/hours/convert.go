package hours

import (
	"strconv"
	"strings"

	errs "github.com/abbensid2/alltheplaces/pkg/errors"
)

// Convert24Hour converts a 12-hour token such as "9:30AM" or "11PM" to 24-hour
// "H:MM". AM hours pass through unchanged and PM adds 12, so "12AM" yields
// "12:00" and "12PM" yields "24:00". A result of exactly "24:00", "0:00" or
// "00:00" becomes "23:59" so a midnight close stays on the same day.
//
// Hour and minute ranges are not checked here; OpeningHours.AddRange rejects
// out-of-range values such as "24:30".
func Convert24Hour(token string) (string, error) {
	const op = "hours.Convert24Hour"
	t := strings.TrimSpace(token)
	if len(t) < 3 {
		return "", errs.NewMalformedTime(op, token, "expected a time followed by AM or PM", nil)
	}

	marker := strings.ToUpper(t[len(t)-2:])
	numeric := strings.TrimSpace(t[:len(t)-2])
	hour, minute, found := strings.Cut(numeric, ":")
	if !found {
		minute = "00"
	}
	if strings.Contains(minute, ":") {
		return "", errs.NewMalformedTime(op, token, "too many ':' separators", nil)
	}

	var formatted string
	switch marker {
	case "AM":
		formatted = hour + ":" + minute
	case "PM":
		h, err := strconv.Atoi(hour)
		if err != nil {
			return "", errs.NewMalformedTime(op, token, "hour is not numeric", err)
		}
		formatted = strconv.Itoa(h+12) + ":" + minute
	default:
		return "", errs.NewMalformedTime(op, token, "meridiem must be AM or PM", nil)
	}

	switch formatted {
	case "24:00", "0:00", "00:00":
		formatted = "23:59"
	}
	return formatted, nil
}
