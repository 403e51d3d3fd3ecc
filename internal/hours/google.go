package hours

import (
	"googlemaps.github.io/maps"
)

// FromPlacePeriods builds a schedule from Google Places opening periods,
// whose times are "HHMM". A single period without a close time is how Places
// reports an always-open location.
func FromPlacePeriods(periods []maps.OpeningHoursPeriod) (*OpeningHours, error) {
	h := NewOpeningHours()
	if len(periods) == 1 && periods[0].Close.Time == "" {
		for _, d := range Week {
			if err := h.AddRange(d, "00:00", "23:59"); err != nil {
				return nil, err
			}
		}
		return h, nil
	}

	for _, period := range periods {
		day := DayFromWeekday(period.Open.Day)
		if err := h.AddRange(day, formatPlaceTime(period.Open.Time), formatPlaceTime(period.Close.Time)); err != nil {
			return nil, err
		}
	}
	return h, nil
}

func formatPlaceTime(placeTime string) string {
	if len(placeTime) == 4 {
		return placeTime[:2] + ":" + placeTime[2:]
	}
	return placeTime
}
