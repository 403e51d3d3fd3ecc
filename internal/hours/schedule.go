// Package hours turns per-day open/close times into canonical OSM
// opening_hours strings.
package hours

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	errs "github.com/abbensid2/alltheplaces/pkg/errors"
)

// ErrScheduleFrozen is returned by AddRange once the schedule has been rendered.
var ErrScheduleFrozen = errors.New("hours: schedule already rendered")

const (
	endOfDay   = 24 * 60
	lastMinute = endOfDay - 1
)

type span struct {
	open, close int // minutes since midnight, close in (open, endOfDay]
}

// TimeRange is one rendered range of a day.
type TimeRange struct {
	Day   DayCode
	Open  string
	Close string
}

// OpeningHours accumulates weekly ranges for one record. A day with no ranges
// has no stated hours; the model does not tell "closed" from "unknown".
// It is not safe for concurrent use.
type OpeningHours struct {
	days   [7][]span
	frozen bool
}

// NewOpeningHours returns an empty schedule.
func NewOpeningHours() *OpeningHours {
	return &OpeningHours{}
}

// AddRange records that the location is open on day from openTime to
// closeTime, both "H:MM" or "HH:MM" in 24-hour time. A close at or before the
// open time runs past midnight into the next day. Overlapping, touching and
// duplicate ranges on a day are merged.
func (h *OpeningHours) AddRange(day DayCode, openTime, closeTime string) error {
	if h.frozen {
		return ErrScheduleFrozen
	}
	idx := day.index()
	if idx < 0 {
		return errs.NewValidation("hours.AddRange", fmt.Sprintf("unknown day %q", day), nil)
	}
	open, err := parseClock(openTime)
	if err != nil {
		return err
	}
	closing, err := parseClock(closeTime)
	if err != nil {
		return err
	}

	if closing > open {
		if closing == lastMinute {
			closing = endOfDay
		}
		h.add(idx, open, closing)
		return nil
	}

	h.add(idx, open, endOfDay)
	if closing > 0 {
		if closing == lastMinute {
			closing = endOfDay
		}
		h.add((idx+1)%7, 0, closing)
	}
	return nil
}

func (h *OpeningHours) add(idx, open, closing int) {
	spans := append(h.days[idx], span{open: open, close: closing})
	sort.Slice(spans, func(i, j int) bool {
		if spans[i].open != spans[j].open {
			return spans[i].open < spans[j].open
		}
		return spans[i].close < spans[j].close
	})

	merged := spans[:1]
	for _, s := range spans[1:] {
		last := &merged[len(merged)-1]
		if s.open <= last.close {
			if s.close > last.close {
				last.close = s.close
			}
			continue
		}
		merged = append(merged, s)
	}
	h.days[idx] = merged
}

// IsEmpty reports whether no range has been added.
func (h *OpeningHours) IsEmpty() bool {
	for _, spans := range h.days {
		if len(spans) > 0 {
			return false
		}
	}
	return true
}

// Ranges returns the merged ranges of a day in chronological order.
func (h *OpeningHours) Ranges(day DayCode) []TimeRange {
	idx := day.index()
	if idx < 0 {
		return nil
	}
	out := make([]TimeRange, 0, len(h.days[idx]))
	for _, s := range h.days[idx] {
		out = append(out, TimeRange{Day: day, Open: formatClock(s.open), Close: formatClock(s.close)})
	}
	return out
}

// Render returns the canonical schedule, e.g. "Mo-Fr 09:00-17:00; Sa 10:00-14:00".
// Days run Mo..Su, contiguous days with identical ranges collapse into a span,
// a day's ranges are joined by ",", and days without ranges are left out.
// A close of 23:59 is stored as end of day and renders as 24:00.
// A full week of 00:00-24:00 renders as "24/7". After Render the schedule no
// longer accepts ranges.
func (h *OpeningHours) Render() string {
	h.frozen = true

	var rendered [7]string
	for i, spans := range h.days {
		parts := make([]string, len(spans))
		for j, s := range spans {
			parts[j] = formatClock(s.open) + "-" + formatClock(s.close)
		}
		rendered[i] = strings.Join(parts, ",")
	}

	allDay := true
	for _, r := range rendered {
		if r != "00:00-24:00" {
			allDay = false
			break
		}
	}
	if allDay {
		return "24/7"
	}

	var groups []string
	for i := 0; i < len(rendered); {
		j := i
		for j+1 < len(rendered) && rendered[j+1] == rendered[i] {
			j++
		}
		if rendered[i] != "" {
			token := string(Week[i])
			if j > i {
				token += "-" + string(Week[j])
			}
			groups = append(groups, token+" "+rendered[i])
		}
		i = j + 1
	}
	return strings.Join(groups, "; ")
}

func parseClock(value string) (int, error) {
	const op = "hours.parseClock"
	v := strings.TrimSpace(value)
	if v == "" {
		return 0, errs.NewMalformedTime(op, value, "empty time", nil)
	}
	hh, mm, ok := strings.Cut(v, ":")
	if !ok || len(hh) < 1 || len(hh) > 2 || len(mm) != 2 || !allDigits(hh) || !allDigits(mm) {
		return 0, errs.NewMalformedTime(op, value, "expected HH:MM", nil)
	}
	hour, err := strconv.Atoi(hh)
	if err != nil {
		return 0, errs.NewMalformedTime(op, value, "hour is not numeric", err)
	}
	minute, err := strconv.Atoi(mm)
	if err != nil {
		return 0, errs.NewMalformedTime(op, value, "minute is not numeric", err)
	}
	if hour > 23 {
		return 0, errs.NewMalformedTime(op, value, "hour out of range 0-23", nil)
	}
	if minute > 59 {
		return 0, errs.NewMalformedTime(op, value, "minute out of range 0-59", nil)
	}
	return hour*60 + minute, nil
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func formatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
