package scraper

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"

	"googlemaps.github.io/maps"

	"github.com/abbensid2/alltheplaces/internal/hours"
	"github.com/abbensid2/alltheplaces/internal/models"
	"github.com/abbensid2/alltheplaces/pkg/geography"
)

// GooglePlaces converts Places API place-details results. The payload is a
// details response ({"result": {...}}), a single result or an array of results.
type GooglePlaces struct{}

func NewGooglePlaces() GooglePlaces { return GooglePlaces{} }

func (GooglePlaces) Name() string { return "google_places" }

type placeDetailsResponse struct {
	Result *maps.PlaceDetailsResult `json:"result"`
	Status string                   `json:"status"`
}

func (g GooglePlaces) Parse(payload []byte) ([]models.Location, error) {
	trimmed := strings.TrimSpace(string(payload))
	var results []maps.PlaceDetailsResult

	switch {
	case strings.HasPrefix(trimmed, "["):
		if err := json.Unmarshal(payload, &results); err != nil {
			return nil, fmt.Errorf("google_places: decode results: %w", err)
		}
	case strings.HasPrefix(trimmed, "{"):
		var resp placeDetailsResponse
		if err := json.Unmarshal(payload, &resp); err != nil {
			return nil, fmt.Errorf("google_places: decode response: %w", err)
		}
		if resp.Result != nil {
			results = append(results, *resp.Result)
			break
		}
		var one maps.PlaceDetailsResult
		if err := json.Unmarshal(payload, &one); err != nil {
			return nil, fmt.Errorf("google_places: decode result: %w", err)
		}
		results = append(results, one)
	case trimmed == "":
		return nil, nil
	default:
		return nil, fmt.Errorf("google_places: payload is not JSON")
	}

	out := make([]models.Location, 0, len(results))
	var errs []error
	for _, details := range results {
		loc, err := g.Convert(details)
		if err != nil {
			errs = append(errs, err)
		}
		out = append(out, *loc)
	}
	return out, stderrors.Join(errs...)
}

// Convert maps one place to a record. Unusable opening hours are reported
// but the record is still returned without them.
func (GooglePlaces) Convert(details maps.PlaceDetailsResult) (*models.Location, error) {
	loc := &models.Location{
		Ref:      details.PlaceID,
		Name:     optional(details.Name),
		AddrFull: optional(details.FormattedAddress),
		City:     optional(componentName(details.AddressComponents, "locality", false)),
		State:    optional(componentName(details.AddressComponents, "administrative_area_level_1", true)),
		Postcode: optional(componentName(details.AddressComponents, "postal_code", false)),
		Website:  optional(details.Website),
	}

	if code, ok := geography.CountryFromAddressComponents(details.AddressComponents); ok {
		loc.Country = &code
	}

	phone := details.InternationalPhoneNumber
	if phone == "" {
		phone = details.FormattedPhoneNumber
	}
	loc.Phone = optional(phone)

	if details.Geometry.Location.Lat != 0 || details.Geometry.Location.Lng != 0 {
		loc.Lat = models.Float64Ptr(details.Geometry.Location.Lat)
		loc.Lon = models.Float64Ptr(details.Geometry.Location.Lng)
	}

	if details.OpeningHours == nil || len(details.OpeningHours.Periods) == 0 {
		return loc, nil
	}
	oh, err := hours.FromPlacePeriods(details.OpeningHours.Periods)
	if err != nil {
		return loc, fmt.Errorf("google_places: %s: opening hours: %w", details.PlaceID, err)
	}
	if rendered := oh.Render(); rendered != "" {
		loc.OpeningHours = &rendered
	}
	return loc, nil
}

func componentName(components []maps.AddressComponent, kind string, short bool) string {
	for _, component := range components {
		for _, typ := range component.Types {
			if typ != kind {
				continue
			}
			if short {
				return component.ShortName
			}
			return component.LongName
		}
	}
	return ""
}
