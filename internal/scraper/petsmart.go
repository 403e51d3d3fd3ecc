package scraper

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/abbensid2/alltheplaces/internal/hours"
	"github.com/abbensid2/alltheplaces/internal/models"
	"github.com/abbensid2/alltheplaces/pkg/errors"
)

// PetSmartPage holds the fields pulled from one petsmart.com / petsmart.ca
// store page.
type PetSmartPage struct {
	URL          string   `json:"url"`
	StoreName    string   `json:"store_name"` // URL-encoded on the page
	StoreNumber  string   `json:"store_number"`
	AddressLines []string `json:"address_lines"`
	Phone        string   `json:"phone"`
	MapURL       string   `json:"map_url"`

	// Days lists the dayOfWeek labels in page order. The current day is
	// labelled "TODAY" and always comes first.
	Days   []string `json:"days"`
	Opens  []string `json:"opens"`
	Closes []string `json:"closes"`
}

// PetSmart parses a JSON array of PetSmartPage.
type PetSmart struct{}

func NewPetSmart() PetSmart { return PetSmart{} }

func (PetSmart) Name() string { return "petsmart" }

func (p PetSmart) Parse(payload []byte) ([]models.Location, error) {
	var pages []PetSmartPage
	if err := json.Unmarshal(payload, &pages); err != nil {
		return nil, fmt.Errorf("petsmart: decode pages: %w", err)
	}

	out := make([]models.Location, 0, len(pages))
	var errs []error
	for _, page := range pages {
		loc, err := p.ParsePage(page)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, *loc)
	}
	return out, stderrors.Join(errs...)
}

// ParsePage converts one store page.
func (PetSmart) ParsePage(page PetSmartPage) (*models.Location, error) {
	const op = "scraper.PetSmart.ParsePage"

	addrFull, city, state, postcode, err := splitPetSmartAddress(page.AddressLines)
	if err != nil {
		return nil, errors.NewValidation(op, "store "+page.StoreNumber, err)
	}
	lat, lon, err := staticMapCenter(page.MapURL)
	if err != nil {
		return nil, errors.NewValidation(op, "store "+page.StoreNumber, err)
	}

	name, err := url.QueryUnescape(page.StoreName)
	if err != nil {
		name = page.StoreName
	}

	loc := &models.Location{
		Ref:           page.StoreNumber,
		Name:          optional(name),
		Brand:         models.StringPtr("Petsmart"),
		BrandWikidata: models.StringPtr("Q3307147"),
		AddrFull:      &addrFull,
		City:          &city,
		State:         &state,
		Postcode:      &postcode,
		Country:       petSmartCountry(page.URL),
		Lat:           &lat,
		Lon:           &lon,
		Phone:         optional(page.Phone),
		Website:       optional(page.URL),
	}

	oh, err := petSmartHours(page.Days, page.Opens, page.Closes)
	if err != nil {
		return nil, errors.NewValidation(op, "store "+page.StoreNumber+": hours", err)
	}
	if rendered := oh.Render(); rendered != "" {
		loc.OpeningHours = &rendered
	}
	return loc, nil
}

func petSmartCountry(pageURL string) *string {
	switch {
	case strings.Contains(pageURL, "petsmart.ca"):
		return models.StringPtr("CA")
	case strings.Contains(pageURL, "petsmart.com"):
		return models.StringPtr("US")
	}
	return nil
}

// splitPetSmartAddress expects a street line and a "City, ST POSTCODE" line.
// Canadian postcodes contain a space, so only the first one splits.
func splitPetSmartAddress(lines []string) (addrFull, city, state, postcode string, err error) {
	var kept []string
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			kept = append(kept, l)
		}
	}
	if len(kept) != 2 {
		return "", "", "", "", fmt.Errorf("expected 2 address lines, got %d", len(kept))
	}
	addrFull = kept[0]

	city, statePostcode, ok := strings.Cut(kept[1], ", ")
	if !ok {
		return "", "", "", "", fmt.Errorf("no city in %q", kept[1])
	}
	state, postcode, ok = strings.Cut(statePostcode, " ")
	if !ok {
		return "", "", "", "", fmt.Errorf("no postcode in %q", kept[1])
	}
	return addrFull, city, state, postcode, nil
}

// staticMapCenter reads "lat,lon" from the center parameter of a static map URL.
func staticMapCenter(mapURL string) (float64, float64, error) {
	u, err := url.Parse(mapURL)
	if err != nil {
		return 0, 0, fmt.Errorf("map url: %w", err)
	}
	centers := u.Query()["center"]
	if len(centers) != 1 {
		return 0, 0, fmt.Errorf("map url %q: expected one center", mapURL)
	}
	latStr, lonStr, ok := strings.Cut(centers[0], ",")
	if !ok {
		return 0, 0, fmt.Errorf("map center %q: expected lat,lon", centers[0])
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("map center latitude: %w", err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("map center longitude: %w", err)
	}
	return lat, lon, nil
}

// petSmartHours replaces the "TODAY" label with the one weekday missing from
// the list, then adds every day not marked CLOSED.
func petSmartHours(days, opens, closes []string) (*hours.OpeningHours, error) {
	labels := make([]hours.DayCode, 0, len(days))
	seen := make(map[hours.DayCode]bool, len(days))
	hasToday := false
	for _, d := range days {
		if strings.EqualFold(strings.TrimSpace(d), "TODAY") {
			hasToday = true
			continue
		}
		code, err := hours.ParseDay(d)
		if err != nil {
			return nil, err
		}
		seen[code] = true
		labels = append(labels, code)
	}
	if hasToday {
		var missing []hours.DayCode
		for _, d := range hours.Week {
			if !seen[d] {
				missing = append(missing, d)
			}
		}
		if len(missing) != 1 {
			return nil, fmt.Errorf("cannot resolve TODAY: %d candidate days", len(missing))
		}
		labels = append([]hours.DayCode{missing[0]}, labels...)
	}

	oh := hours.NewOpeningHours()
	n := min(len(labels), len(opens), len(closes))
	for i := 0; i < n; i++ {
		if isClosed(opens[i]) || isClosed(closes[i]) {
			continue
		}
		open, err := hours.Convert24Hour(opens[i])
		if err != nil {
			return nil, err
		}
		closing, err := hours.Convert24Hour(closes[i])
		if err != nil {
			return nil, err
		}
		if err := oh.AddRange(labels[i], open, closing); err != nil {
			return nil, err
		}
	}
	return oh, nil
}

func isClosed(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), "CLOSED")
}
