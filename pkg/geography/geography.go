// Package geography holds the static country tables used to validate and infer
// two-letter country codes.
package geography

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"googlemaps.github.io/maps"
	"gopkg.in/yaml.v3"
)

//go:embed countries.json
var countriesJSON []byte

//go:embed adapters.yaml
var adaptersYAML []byte

//go:embed tlds.yaml
var tldsYAML []byte

// Country is one ISO 3166-1 entry.
type Country struct {
	Alpha2 string `json:"alpha2"`
	Alpha3 string `json:"alpha3"`
	Name   string `json:"name"`
}

var (
	byAlpha2 map[string]Country
	byAlpha3 map[string]string
	byName   map[string]string
	tldMap   map[string]string
)

func init() {
	var countries []Country
	if err := json.Unmarshal(countriesJSON, &countries); err != nil {
		panic("failed to load countries.json: " + err.Error())
	}
	byAlpha2 = make(map[string]Country, len(countries))
	byAlpha3 = make(map[string]string, len(countries))
	byName = make(map[string]string, len(countries))
	for _, c := range countries {
		byAlpha2[c.Alpha2] = c
		byAlpha3[c.Alpha3] = c.Alpha2
		byName[strings.ToLower(c.Name)] = c.Alpha2
	}
	if err := yaml.Unmarshal(tldsYAML, &tldMap); err != nil {
		panic("failed to load tlds.yaml: " + err.Error())
	}
}

// IsCountryCode reports whether code is an assigned ISO alpha-2 code (upper case).
func IsCountryCode(code string) bool {
	_, ok := byAlpha2[code]
	return ok
}

// Lookup returns the table entry for an alpha-2 code.
func Lookup(alpha2 string) (Country, bool) {
	c, ok := byAlpha2[strings.ToUpper(strings.TrimSpace(alpha2))]
	return c, ok
}

// ToAlpha2 maps an alpha-2 code, alpha-3 code or English short name (any case)
// to its alpha-2 code. "UK" is accepted for GB.
func ToAlpha2(value string) (string, bool) {
	v := strings.TrimSpace(value)
	if v == "" {
		return "", false
	}
	upper := strings.ToUpper(v)
	switch len(upper) {
	case 2:
		if upper == "UK" {
			return "GB", true
		}
		if IsCountryCode(upper) {
			return upper, true
		}
	case 3:
		if a2, ok := byAlpha3[upper]; ok {
			return a2, true
		}
	}
	a2, ok := byName[strings.ToLower(v)]
	return a2, ok
}

// CountryFromTLD maps the last label of a host name to a country code.
// Generic TLDs and labels listed as non-country in tlds.yaml yield false.
func CountryFromTLD(label string) (string, bool) {
	l := strings.ToLower(strings.TrimSpace(label))
	if mapped, ok := tldMap[l]; ok {
		return mapped, mapped != ""
	}
	if len(l) != 2 {
		return "", false
	}
	upper := strings.ToUpper(l)
	if !IsCountryCode(upper) {
		return "", false
	}
	return upper, true
}

// CountryFromAddressComponents returns the short name of the first "country"
// component of a Google Places address.
func CountryFromAddressComponents(components []maps.AddressComponent) (string, bool) {
	for _, component := range components {
		for _, compType := range component.Types {
			if compType != "country" {
				continue
			}
			if a2, ok := ToAlpha2(component.ShortName); ok {
				return a2, true
			}
			return ToAlpha2(component.LongName)
		}
	}
	return "", false
}

// AdapterTable declares which adapter names carry a country signal.
type AdapterTable struct {
	// Tokens maps a non-ISO trailing name token to a country code.
	Tokens map[string]string `yaml:"tokens"`
	// Adapters maps a full adapter name to the single country it covers.
	Adapters map[string]string `yaml:"adapters"`
}

// LoadAdapterTable reads a yaml adapter table. Country values are validated.
func LoadAdapterTable(r io.Reader) (*AdapterTable, error) {
	var t AdapterTable
	if err := yaml.NewDecoder(r).Decode(&t); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode adapter table: %w", err)
	}
	for token, code := range t.Tokens {
		if !IsCountryCode(code) {
			return nil, fmt.Errorf("adapter table: token %q maps to unknown country %q", token, code)
		}
	}
	for name, code := range t.Adapters {
		if !IsCountryCode(code) {
			return nil, fmt.Errorf("adapter table: adapter %q maps to unknown country %q", name, code)
		}
	}
	return &t, nil
}

// DefaultAdapterTable returns the embedded adapter table.
func DefaultAdapterTable() *AdapterTable {
	t, err := LoadAdapterTable(strings.NewReader(string(adaptersYAML)))
	if err != nil {
		panic("failed to load adapters.yaml: " + err.Error())
	}
	return t
}

// CountryForAdapter resolves the country an adapter name encodes. An explicit
// adapter entry wins; otherwise the last "_" separated token is tried against
// the token table and then against ISO alpha-2 codes.
func (t *AdapterTable) CountryForAdapter(name string) (string, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return "", false
	}
	if code, ok := t.Adapters[n]; ok {
		return code, true
	}
	idx := strings.LastIndex(n, "_")
	if idx < 0 || idx == len(n)-1 {
		return "", false
	}
	token := n[idx+1:]
	if code, ok := t.Tokens[token]; ok {
		return code, true
	}
	if len(token) != 2 {
		return "", false
	}
	upper := strings.ToUpper(token)
	if !IsCountryCode(upper) {
		return "", false
	}
	return upper, true
}
