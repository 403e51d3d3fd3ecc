package scraper

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/abbensid2/alltheplaces/internal/models"
	"github.com/abbensid2/alltheplaces/pkg/errors"
)

var (
	dominosRefRe     = regexp.MustCompile(`.+-(.+?)/?(?:\.html|$)`)
	dominosCountryRe = regexp.MustCompile(`com\.([a-z]{2})/`)
)

// DominosPage holds the fields pulled from one dominos.com.au store page.
type DominosPage struct {
	URL          string   `json:"url"`
	Title        string   `json:"title"`
	AddressParts []string `json:"address_parts"`
	Lat          string   `json:"lat"`
	Lon          string   `json:"lon"`
}

// DominosPizzaAU parses a JSON array of DominosPage. The store ref and the
// country both come from the page URL.
type DominosPizzaAU struct{}

func NewDominosPizzaAU() DominosPizzaAU { return DominosPizzaAU{} }

func (DominosPizzaAU) Name() string { return "dominos_pizza_au" }

func (d DominosPizzaAU) Parse(payload []byte) ([]models.Location, error) {
	var pages []DominosPage
	if err := json.Unmarshal(payload, &pages); err != nil {
		return nil, fmt.Errorf("dominos_pizza_au: decode pages: %w", err)
	}

	out := make([]models.Location, 0, len(pages))
	var errs []error
	for _, page := range pages {
		loc, err := d.ParsePage(page)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, *loc)
	}
	return out, stderrors.Join(errs...)
}

func (DominosPizzaAU) ParsePage(page DominosPage) (*models.Location, error) {
	const op = "scraper.DominosPizzaAU.ParsePage"

	m := dominosRefRe.FindStringSubmatch(page.URL)
	if m == nil {
		return nil, errors.NewValidation(op, fmt.Sprintf("no store ref in %q", page.URL), nil)
	}

	loc := &models.Location{
		Ref:           strings.Trim(m[1], "/"),
		Name:          optional(page.Title),
		Brand:         models.StringPtr("Domino's"),
		BrandWikidata: models.StringPtr("Q839466"),
		AddrFull:      optional(strings.Join(page.AddressParts, " ")),
		Website:       optional(page.URL),
	}
	if c := dominosCountryRe.FindStringSubmatch(page.URL); c != nil {
		loc.Country = &c[1]
	}

	if page.Lat != "" || page.Lon != "" {
		lat, err := strconv.ParseFloat(strings.TrimSpace(page.Lat), 64)
		if err != nil {
			return nil, errors.NewValidation(op, "store "+loc.Ref+": latitude", err)
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(page.Lon), 64)
		if err != nil {
			return nil, errors.NewValidation(op, "store "+loc.Ref+": longitude", err)
		}
		loc.Lat, loc.Lon = &lat, &lon
	}
	return loc, nil
}
