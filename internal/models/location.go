package models

// Location is the normalized point-of-interest record an adapter emits.
//
// Optional fields are pointers: nil means the adapter never set the field,
// a pointer to "" means the site supplied a blank value. Lat/Lon are required
// at emission time; see pipeline.RequiredFields.
type Location struct {
	Ref           string   `json:"ref"`
	Name          *string  `json:"name,omitempty"`
	Brand         *string  `json:"brand,omitempty"`
	BrandWikidata *string  `json:"brand_wikidata,omitempty"`
	AddrFull      *string  `json:"addr_full,omitempty"`
	City          *string  `json:"city,omitempty"`
	State         *string  `json:"state,omitempty"`
	Postcode      *string  `json:"postcode,omitempty"`
	Country       *string  `json:"country,omitempty"`
	Lat           *float64 `json:"lat" validate:"required,min=-90,max=90"`
	Lon           *float64 `json:"lon" validate:"required,min=-180,max=180"`
	Phone         *string  `json:"phone,omitempty"`
	Website       *string  `json:"website,omitempty"`
	OpeningHours  *string  `json:"opening_hours,omitempty"`
}

// CountryState describes the country field before resolution.
type CountryState int

const (
	CountryMissing CountryState = iota // field never set
	CountryBlank                       // set to an empty or whitespace value
	CountryPresent                     // set to a non-blank value
)

// CountryState reports whether the country is missing, blank or present.
func (l *Location) CountryState() CountryState {
	if l.Country == nil {
		return CountryMissing
	}
	for _, r := range *l.Country {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return CountryPresent
		}
	}
	return CountryBlank
}

// CountryCode returns the country value, or "" when unset.
func (l *Location) CountryCode() string {
	if l.Country == nil {
		return ""
	}
	return *l.Country
}

// WebsiteURL returns the website value, or "" when unset.
func (l *Location) WebsiteURL() string {
	if l.Website == nil {
		return ""
	}
	return *l.Website
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string { return &s }

// Float64Ptr returns a pointer to f.
func Float64Ptr(f float64) *float64 { return &f }
