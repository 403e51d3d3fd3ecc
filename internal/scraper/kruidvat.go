package scraper

import (
	"encoding/json"
	"fmt"

	"github.com/abbensid2/alltheplaces/internal/models"
)

const kruidvatBaseURL = "https://www.kruidvat.nl"

// Kruidvat parses the store finder API response of kruidvat.nl.
type Kruidvat struct{}

func NewKruidvat() Kruidvat { return Kruidvat{} }

func (Kruidvat) Name() string { return "kruidvat" }

type kruidvatResponse struct {
	Stores []kruidvatStore `json:"stores"`
}

type kruidvatStore struct {
	Name    string `json:"name"`
	URL     string `json:"url"`
	Address struct {
		FormattedAddress string `json:"formattedAddress"`
		Line1            string `json:"line1"`
		Town             string `json:"town"`
		Province         string `json:"province"`
		PostalCode       string `json:"postalCode"`
		Region           struct {
			CountryIso string `json:"countryIso"`
		} `json:"region"`
	} `json:"address"`
	GeoPoint *struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"geoPoint"`
}

func (k Kruidvat) Parse(payload []byte) ([]models.Location, error) {
	var resp kruidvatResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, fmt.Errorf("kruidvat: decode stores: %w", err)
	}

	out := make([]models.Location, 0, len(resp.Stores))
	for _, s := range resp.Stores {
		loc := models.Location{
			Ref:           s.Address.FormattedAddress,
			Name:          optional(s.Name),
			Brand:         models.StringPtr("Kruidvat"),
			BrandWikidata: models.StringPtr("Q2226366"),
			AddrFull:      optional(s.Address.Line1),
			City:          optional(s.Address.Town),
			State:         optional(s.Address.Province),
			Postcode:      optional(s.Address.PostalCode),
			Country:       optional(s.Address.Region.CountryIso),
		}
		if s.URL != "" {
			loc.Website = models.StringPtr(kruidvatBaseURL + s.URL)
		}
		if s.GeoPoint != nil {
			loc.Lat = models.Float64Ptr(s.GeoPoint.Latitude)
			loc.Lon = models.Float64Ptr(s.GeoPoint.Longitude)
		}
		out = append(out, loc)
	}
	return out, nil
}
