package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const placeDetailsJSON = `{
	"status": "OK",
	"result": {
		"place_id": "ChIJ-greggs",
		"name": "Greggs",
		"formatted_address": "1 High St, London EC1A 1BB, UK",
		"formatted_phone_number": "020 7946 0018",
		"international_phone_number": "+44 20 7946 0018",
		"website": "https://www.greggs.co.uk/",
		"geometry": {"location": {"lat": 51.5171, "lng": -0.0977}},
		"address_components": [
			{"long_name": "London", "short_name": "London", "types": ["postal_town", "locality"]},
			{"long_name": "England", "short_name": "England", "types": ["administrative_area_level_1", "political"]},
			{"long_name": "United Kingdom", "short_name": "GB", "types": ["country", "political"]},
			{"long_name": "EC1A 1BB", "short_name": "EC1A 1BB", "types": ["postal_code"]}
		],
		"opening_hours": {"periods": [
			{"open": {"day": 1, "time": "0700"}, "close": {"day": 1, "time": "1800"}},
			{"open": {"day": 2, "time": "0700"}, "close": {"day": 2, "time": "1800"}},
			{"open": {"day": 6, "time": "0800"}, "close": {"day": 6, "time": "1600"}}
		]}
	}
}`

func TestGooglePlaces_ParseDetailsResponse(t *testing.T) {
	locs, err := NewGooglePlaces().Parse([]byte(placeDetailsJSON))
	require.NoError(t, err)
	require.Len(t, locs, 1)

	loc := locs[0]
	assert.Equal(t, "ChIJ-greggs", loc.Ref)
	assert.Equal(t, "Greggs", *loc.Name)
	assert.Equal(t, "London", *loc.City)
	assert.Equal(t, "England", *loc.State)
	assert.Equal(t, "EC1A 1BB", *loc.Postcode)
	assert.Equal(t, "GB", loc.CountryCode())
	assert.Equal(t, "+44 20 7946 0018", *loc.Phone)
	assert.InDelta(t, 51.5171, *loc.Lat, 1e-9)
	assert.InDelta(t, -0.0977, *loc.Lon, 1e-9)
	assert.Equal(t, "Mo-Tu 07:00-18:00; Sa 08:00-16:00", *loc.OpeningHours)
}

func TestGooglePlaces_ParseArray(t *testing.T) {
	payload := `[
		{"place_id":"a","name":"A","geometry":{"location":{"lat":1,"lng":2}}},
		{"place_id":"b","name":"B","opening_hours":{"periods":[{"open":{"day":0,"time":"0000"}}]}}
	]`
	locs, err := NewGooglePlaces().Parse([]byte(payload))
	require.NoError(t, err)
	require.Len(t, locs, 2)

	assert.Nil(t, locs[0].Country)
	assert.Nil(t, locs[0].OpeningHours)
	assert.Nil(t, locs[1].Lat)
	assert.Equal(t, "24/7", *locs[1].OpeningHours)
}

func TestGooglePlaces_BadHoursKeepsRecord(t *testing.T) {
	payload := `{"place_id":"c","name":"C","opening_hours":{"periods":[{"open":{"day":1,"time":"09"},"close":{"day":1,"time":"1700"}}]}}`
	locs, err := NewGooglePlaces().Parse([]byte(payload))
	require.Error(t, err)
	require.Len(t, locs, 1)
	assert.Equal(t, "c", locs[0].Ref)
	assert.Nil(t, locs[0].OpeningHours)
}

func TestGooglePlaces_NotJSON(t *testing.T) {
	_, err := NewGooglePlaces().Parse([]byte("<html>"))
	assert.Error(t, err)
}
