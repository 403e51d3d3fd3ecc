package hours

import (
	"fmt"
	"strings"
	"time"

	errs "github.com/abbensid2/alltheplaces/pkg/errors"
)

// DayCode is a two-letter OSM day abbreviation.
type DayCode string

const (
	Monday    DayCode = "Mo"
	Tuesday   DayCode = "Tu"
	Wednesday DayCode = "We"
	Thursday  DayCode = "Th"
	Friday    DayCode = "Fr"
	Saturday  DayCode = "Sa"
	Sunday    DayCode = "Su"
)

// Week lists the day codes in rendering order.
var Week = [7]DayCode{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

var dayAliases = map[string]DayCode{
	"mo": Monday, "mon": Monday, "monday": Monday,
	"tu": Tuesday, "tue": Tuesday, "tues": Tuesday, "tuesday": Tuesday,
	"we": Wednesday, "wed": Wednesday, "wednesday": Wednesday,
	"th": Thursday, "thu": Thursday, "thur": Thursday, "thurs": Thursday, "thursday": Thursday,
	"fr": Friday, "fri": Friday, "friday": Friday,
	"sa": Saturday, "sat": Saturday, "saturday": Saturday,
	"su": Sunday, "sun": Sunday, "sunday": Sunday,
}

// ParseDay maps a site day label ("MON", "Monday", "mo") to a DayCode.
func ParseDay(s string) (DayCode, error) {
	if d, ok := dayAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return d, nil
	}
	return "", errs.NewValidation("hours.ParseDay", fmt.Sprintf("unknown day %q", s), nil)
}

// DayFromWeekday converts a time.Weekday (Sunday = 0) to a DayCode.
func DayFromWeekday(w time.Weekday) DayCode {
	return Week[(int(w)+6)%7]
}

func (d DayCode) index() int {
	for i, c := range Week {
		if c == d {
			return i
		}
	}
	return -1
}

// Valid reports whether d is one of the seven day codes.
func (d DayCode) Valid() bool { return d.index() >= 0 }

// Next returns the following day, wrapping Su to Mo.
func (d DayCode) Next() DayCode {
	i := d.index()
	if i < 0 {
		return d
	}
	return Week[(i+1)%7]
}
