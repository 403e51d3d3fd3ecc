package hours

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/abbensid2/alltheplaces/pkg/errors"
)

type addCall struct {
	day         DayCode
	open, close string
}

func render(t *testing.T, calls ...addCall) string {
	t.Helper()
	h := NewOpeningHours()
	for _, c := range calls {
		require.NoError(t, h.AddRange(c.day, c.open, c.close))
	}
	return h.Render()
}

func TestOpeningHours_Render(t *testing.T) {
	tests := []struct {
		name  string
		calls []addCall
		want  string
	}{
		{
			name:  "single range",
			calls: []addCall{{Monday, "09:00", "17:00"}},
			want:  "Mo 09:00-17:00",
		},
		{
			name: "weekdays collapse",
			calls: []addCall{
				{Monday, "09:00", "17:00"},
				{Tuesday, "09:00", "17:00"},
				{Wednesday, "09:00", "17:00"},
				{Thursday, "09:00", "17:00"},
				{Friday, "09:00", "17:00"},
			},
			want: "Mo-Fr 09:00-17:00",
		},
		{
			name: "weekdays and weekend",
			calls: []addCall{
				{Monday, "9:00", "21:00"}, {Tuesday, "9:00", "21:00"}, {Wednesday, "9:00", "21:00"},
				{Thursday, "9:00", "21:00"}, {Friday, "9:00", "21:00"}, {Saturday, "9:00", "21:00"},
				{Sunday, "10:00", "19:00"},
			},
			want: "Mo-Sa 09:00-21:00; Su 10:00-19:00",
		},
		{
			name:  "ranges chronological",
			calls: []addCall{{Monday, "14:00", "18:00"}, {Monday, "09:00", "12:00"}},
			want:  "Mo 09:00-12:00,14:00-18:00",
		},
		{
			name:  "duplicate range",
			calls: []addCall{{Tuesday, "08:00", "20:00"}, {Tuesday, "08:00", "20:00"}},
			want:  "Tu 08:00-20:00",
		},
		{
			name:  "contained range",
			calls: []addCall{{Tuesday, "08:00", "20:00"}, {Tuesday, "10:00", "12:00"}},
			want:  "Tu 08:00-20:00",
		},
		{
			name:  "overlapping ranges merge",
			calls: []addCall{{Tuesday, "08:00", "13:00"}, {Tuesday, "12:00", "17:00"}},
			want:  "Tu 08:00-17:00",
		},
		{
			name:  "crosses midnight",
			calls: []addCall{{Friday, "22:00", "02:00"}},
			want:  "Fr 22:00-24:00; Sa 00:00-02:00",
		},
		{
			name:  "sunday wraps to monday",
			calls: []addCall{{Sunday, "20:00", "01:00"}},
			want:  "Mo 00:00-01:00; Su 20:00-24:00",
		},
		{
			name:  "close at midnight",
			calls: []addCall{{Saturday, "18:00", "00:00"}},
			want:  "Sa 18:00-24:00",
		},
		{
			name:  "last minute renders as end of day",
			calls: []addCall{{Monday, "09:00", "23:59"}},
			want:  "Mo 09:00-24:00",
		},
		{
			name:  "same open and close is a full day from open",
			calls: []addCall{{Wednesday, "06:00", "06:00"}},
			want:  "We 06:00-24:00; Th 00:00-06:00",
		},
		{
			name: "identical days are only grouped when contiguous",
			calls: []addCall{
				{Monday, "09:00", "17:00"},
				{Tuesday, "10:00", "12:00"},
				{Wednesday, "09:00", "17:00"},
			},
			want: "Mo 09:00-17:00; Tu 10:00-12:00; We 09:00-17:00",
		},
		{
			name:  "missing day breaks a span",
			calls: []addCall{{Monday, "09:00", "17:00"}, {Wednesday, "09:00", "17:00"}},
			want:  "Mo 09:00-17:00; We 09:00-17:00",
		},
		{
			name:  "empty schedule",
			calls: nil,
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, render(t, tt.calls...))
		})
	}
}

func TestOpeningHours_LastMinuteRendersAsEndOfDay(t *testing.T) {
	tests := []struct {
		name  string
		calls []addCall
		want  string
	}{
		{"forward", []addCall{{Monday, "09:00", "23:59"}}, "Mo 09:00-24:00"},
		{"same as close at midnight", []addCall{{Monday, "09:00", "23:59"}, {Tuesday, "09:00", "00:00"}}, "Mo-Tu 09:00-24:00"},
		{"touches a range from midnight", []addCall{{Monday, "00:00", "12:00"}, {Monday, "12:00", "23:59"}}, "Mo 00:00-24:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, render(t, tt.calls...))
		})
	}
}

func TestOpeningHours_TwentyFourSeven(t *testing.T) {
	var calls []addCall
	for _, d := range Week {
		calls = append(calls, addCall{d, "00:00", "23:59"})
	}
	assert.Equal(t, "24/7", render(t, calls...))
}

func TestOpeningHours_OrderIndependent(t *testing.T) {
	calls := []addCall{
		{Sunday, "11:00", "16:00"},
		{Monday, "13:00", "18:00"},
		{Friday, "21:00", "03:00"},
		{Monday, "08:00", "12:00"},
		{Tuesday, "08:00", "12:00"},
		{Tuesday, "13:00", "18:00"},
		{Monday, "08:00", "12:00"},
	}
	want := render(t, calls...)

	reversed := make([]addCall, len(calls))
	for i, c := range calls {
		reversed[len(calls)-1-i] = c
	}
	assert.Equal(t, want, render(t, reversed...))
	assert.Equal(t, "Mo-Tu 08:00-12:00,13:00-18:00; Fr 21:00-24:00; Sa 00:00-03:00; Su 11:00-16:00", want)
}

func TestOpeningHours_RendersEveryForwardRange(t *testing.T) {
	for _, d := range Week {
		for open := 0; open < 23; open += 3 {
			for length := 1; open+length <= 23; length += 4 {
				openTime := formatClock(open * 60)
				closeTime := formatClock((open + length) * 60)

				got := render(t, addCall{d, openTime, closeTime})

				assert.Equal(t, string(d)+" "+openTime+"-"+closeTime, got)
			}
		}
	}
}

func TestOpeningHours_NeverEndsBeforeStart(t *testing.T) {
	for _, d := range Week {
		for _, pair := range [][2]string{{"22:00", "02:00"}, {"18:30", "18:30"}, {"23:00", "00:00"}, {"12:00", "11:59"}} {
			h := NewOpeningHours()
			require.NoError(t, h.AddRange(d, pair[0], pair[1]))
			for _, day := range Week {
				for _, r := range h.Ranges(day) {
					assert.Less(t, r.Open, r.Close, "day %s range %s-%s", day, r.Open, r.Close)
				}
			}
		}
	}
}

func TestOpeningHours_MalformedTime(t *testing.T) {
	tests := []struct {
		open, close string
		bad         string
	}{
		{"25:00", "17:00", "25:00"},
		{"09:00", "17:60", "17:60"},
		{"9", "17:00", "9"},
		{"09:7", "17:00", "09:7"},
		{"ab:cd", "17:00", "ab:cd"},
		{"-1:00", "17:00", "-1:00"},
		{"09:00", "", ""},
		{"24:00", "17:00", "24:00"},
	}

	for _, tt := range tests {
		t.Run(tt.open+"-"+tt.close, func(t *testing.T) {
			h := NewOpeningHours()
			err := h.AddRange(Monday, tt.open, tt.close)
			require.Error(t, err)

			var mt *errs.MalformedTimeError
			require.True(t, errors.As(err, &mt), "got %T", err)
			assert.Equal(t, tt.bad, mt.Value)
			assert.True(t, h.IsEmpty(), "nothing should be recorded")
		})
	}
}

func TestOpeningHours_UnknownDay(t *testing.T) {
	err := NewOpeningHours().AddRange(DayCode("Xx"), "09:00", "17:00")
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.ErrValidation))
}

func TestOpeningHours_FrozenAfterRender(t *testing.T) {
	h := NewOpeningHours()
	require.NoError(t, h.AddRange(Monday, "09:00", "17:00"))
	first := h.Render()

	assert.ErrorIs(t, h.AddRange(Tuesday, "09:00", "17:00"), ErrScheduleFrozen)
	assert.Equal(t, first, h.Render())
}

func TestParseDay(t *testing.T) {
	for in, want := range map[string]DayCode{"MON": Monday, "Tuesday": Tuesday, "we": Wednesday, " thu ": Thursday, "FRI": Friday, "Sa": Saturday, "SUN": Sunday} {
		got, err := ParseDay(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseDay("TODAY")
	assert.Error(t, err)
}

func TestDayCode_Next(t *testing.T) {
	assert.Equal(t, Tuesday, Monday.Next())
	assert.Equal(t, Monday, Sunday.Next())
	assert.False(t, DayCode("").Valid())
	assert.True(t, strings.HasPrefix(string(Week[0]), "Mo"))
}
