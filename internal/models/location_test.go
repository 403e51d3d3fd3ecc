package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocation_CountryState(t *testing.T) {
	assert.Equal(t, CountryMissing, (&Location{}).CountryState())
	assert.Equal(t, CountryBlank, (&Location{Country: StringPtr("")}).CountryState())
	assert.Equal(t, CountryBlank, (&Location{Country: StringPtr("  \t")}).CountryState())
	assert.Equal(t, CountryPresent, (&Location{Country: StringPtr("FR")}).CountryState())
}

func TestLocation_ToFeature(t *testing.T) {
	loc := Location{
		Ref:          "1234",
		Name:         StringPtr("PetSmart Phoenix"),
		Country:      StringPtr("US"),
		Postcode:     StringPtr(""),
		Lat:          Float64Ptr(33.45),
		Lon:          Float64Ptr(-112.07),
		OpeningHours: StringPtr("Mo-Sa 09:00-21:00; Su 10:00-19:00"),
	}

	f := loc.ToFeature("petsmart")

	assert.Equal(t, "Feature", f.Type)
	assert.Equal(t, "petsmart/1234", f.ID)
	assert.Equal(t, "US", f.Properties["addr:country"])
	assert.Equal(t, "Mo-Sa 09:00-21:00; Su 10:00-19:00", f.Properties["opening_hours"])
	assert.NotContains(t, f.Properties, "addr:postcode")
	require.NotNil(t, f.Geometry)
	assert.Equal(t, []float64{-112.07, 33.45}, f.Geometry.Coordinates)
}

func TestLocation_ToFeature_NoCoordinates(t *testing.T) {
	f := (&Location{Ref: "x"}).ToFeature("kruidvat")
	assert.Nil(t, f.Geometry)
}
