package scraper

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abbensid2/alltheplaces/pkg/errors"
)

func petSmartFixture() PetSmartPage {
	return PetSmartPage{
		URL:          "https://www.petsmart.ca/store-locator/store/pet-store-toronto-1234.html",
		StoreName:    "Toronto%20Downtown",
		StoreNumber:  "1234",
		AddressLines: []string{"  ", "100 Queen St W ", "", "Toronto, ON M5H 2N2"},
		Phone:        "(416) 555-0199",
		MapURL:       "https://maps.googleapis.com/maps/api/staticmap?center=43.6525,-79.3832&zoom=15&size=300x300",
		Days:         []string{"TODAY", "TUE", "WED", "THU", "FRI", "SAT", "SUN"},
		Opens:        []string{"9:00AM", "9:00AM", "9:00AM", "9:00AM", "9:00AM", "10:00AM", "CLOSED"},
		Closes:       []string{"9:00PM", "9:00PM", "9:00PM", "9:00PM", "9:00PM", "6:00PM", "CLOSED"},
	}
}

func TestPetSmart_ParsePage(t *testing.T) {
	loc, err := NewPetSmart().ParsePage(petSmartFixture())
	require.NoError(t, err)

	assert.Equal(t, "1234", loc.Ref)
	assert.Equal(t, "Toronto Downtown", *loc.Name)
	assert.Equal(t, "100 Queen St W", *loc.AddrFull)
	assert.Equal(t, "Toronto", *loc.City)
	assert.Equal(t, "ON", *loc.State)
	assert.Equal(t, "M5H 2N2", *loc.Postcode)
	assert.Equal(t, "CA", loc.CountryCode())
	assert.InDelta(t, 43.6525, *loc.Lat, 1e-9)
	assert.InDelta(t, -79.3832, *loc.Lon, 1e-9)
	require.NotNil(t, loc.OpeningHours)
	assert.Equal(t, "Mo-Fr 09:00-21:00; Sa 10:00-18:00", *loc.OpeningHours)
}

func TestPetSmart_TodayIsTheMissingDay(t *testing.T) {
	page := petSmartFixture()
	page.URL = "https://www.petsmart.com/store-locator/store/pet-store-phoenix-77.html"
	page.AddressLines = []string{"1 Main St", "Phoenix, AZ 85001"}
	page.Days = []string{"TODAY", "THU", "FRI", "SAT", "SUN", "MON", "TUE"}
	page.Opens = []string{"8:00AM", "9:00AM", "9:00AM", "9:00AM", "CLOSED", "9:00AM", "9:00AM"}
	page.Closes = []string{"10:00PM", "9:00PM", "9:00PM", "9:00PM", "CLOSED", "9:00PM", "9:00PM"}

	loc, err := NewPetSmart().ParsePage(page)
	require.NoError(t, err)

	assert.Equal(t, "US", loc.CountryCode())
	assert.Equal(t, "AZ", *loc.State)
	assert.Equal(t, "85001", *loc.Postcode)
	assert.Equal(t, "Mo-Tu 09:00-21:00; We 08:00-22:00; Th-Sa 09:00-21:00", *loc.OpeningHours)
}

func TestPetSmart_AllClosedHasNoHours(t *testing.T) {
	page := petSmartFixture()
	for i := range page.Opens {
		page.Opens[i], page.Closes[i] = "CLOSED", "CLOSED"
	}
	loc, err := NewPetSmart().ParsePage(page)
	require.NoError(t, err)
	assert.Nil(t, loc.OpeningHours)
}

func TestPetSmart_ParsePageErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *PetSmartPage)
	}{
		{"one address line", func(p *PetSmartPage) { p.AddressLines = []string{"100 Queen St W"} }},
		{"no city separator", func(p *PetSmartPage) { p.AddressLines = []string{"a", "Toronto ON"} }},
		{"no postcode", func(p *PetSmartPage) { p.AddressLines = []string{"a", "Toronto, ON"} }},
		{"map without center", func(p *PetSmartPage) { p.MapURL = "https://maps.example/staticmap?zoom=3" }},
		{"bad center", func(p *PetSmartPage) { p.MapURL = "https://maps.example/staticmap?center=north,west" }},
		{"bad time", func(p *PetSmartPage) { p.Opens[1] = "9:00XM" }},
		{"unknown day", func(p *PetSmartPage) { p.Days[1] = "FUNDAY" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := petSmartFixture()
			tt.mutate(&page)
			_, err := NewPetSmart().ParsePage(page)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrValidation))
		})
	}
}

func TestPetSmart_ParseKeepsGoodPages(t *testing.T) {
	bad := petSmartFixture()
	bad.StoreNumber = "9999"
	bad.AddressLines = nil

	payload, err := json.Marshal([]PetSmartPage{petSmartFixture(), bad})
	require.NoError(t, err)

	locs, err := NewPetSmart().Parse(payload)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "9999")
	require.Len(t, locs, 1)
	assert.Equal(t, "1234", locs[0].Ref)
}
