package pipeline

import (
	"github.com/abbensid2/alltheplaces/internal/models"
	"github.com/abbensid2/alltheplaces/pkg/geography"
	"github.com/abbensid2/alltheplaces/pkg/utils"
)

// CountryCodeCleanUp fills in a missing country code. Strategies are tried in
// order and the first that yields a code wins:
//
//  1. an explicit, non-blank country on the record (canonicalized when known)
//  2. the adapter name, e.g. "greggs_gb"
//  3. the country-code TLD of the record's website
//
// It never returns an error; a country that cannot be resolved stays unset.
type CountryCodeCleanUp struct {
	table *geography.AdapterTable
}

// NewCountryCodeCleanUp returns the stage. A nil table uses the embedded one.
func NewCountryCodeCleanUp(table *geography.AdapterTable) *CountryCodeCleanUp {
	if table == nil {
		table = geography.DefaultAdapterTable()
	}
	return &CountryCodeCleanUp{table: table}
}

func (c *CountryCodeCleanUp) Name() string { return "country_code_clean_up" }

func (c *CountryCodeCleanUp) Process(pc *Context) error {
	rec := pc.Record

	if rec.CountryState() == models.CountryPresent {
		if code, ok := geography.ToAlpha2(*rec.Country); ok {
			rec.Country = &code
		}
		return nil
	}

	if code, ok := c.table.CountryForAdapter(pc.Adapter); ok {
		rec.Country = &code
		pc.inc(StatCountryFromSpiderName)
		return nil
	}

	if label := utils.CountryLabel(rec.WebsiteURL()); label != "" {
		if code, ok := geography.CountryFromTLD(label); ok {
			rec.Country = &code
			pc.inc(StatCountryFromWebsiteURL)
			return nil
		}
	}

	return nil
}
