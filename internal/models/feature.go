package models

// Feature is the GeoJSON point feature a Location is emitted as.
type Feature struct {
	Type       string           `json:"type"`
	ID         string           `json:"id"`
	Properties map[string]any   `json:"properties"`
	Geometry   *FeatureGeometry `json:"geometry"`
}

type FeatureGeometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"` // lon, lat
}

// FeatureCollection wraps emitted features.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// ToFeature renders the record as a GeoJSON feature. The spider property names
// the adapter that produced the record.
func (l *Location) ToFeature(adapter string) Feature {
	props := map[string]any{
		"ref":     l.Ref,
		"@spider": adapter,
	}
	set := func(key string, v *string) {
		if v != nil && *v != "" {
			props[key] = *v
		}
	}
	set("name", l.Name)
	set("brand", l.Brand)
	set("brand:wikidata", l.BrandWikidata)
	set("addr:full", l.AddrFull)
	set("addr:city", l.City)
	set("addr:state", l.State)
	set("addr:postcode", l.Postcode)
	set("addr:country", l.Country)
	set("phone", l.Phone)
	set("website", l.Website)
	set("opening_hours", l.OpeningHours)

	f := Feature{Type: "Feature", ID: adapter + "/" + l.Ref, Properties: props}
	if l.Lat != nil && l.Lon != nil {
		f.Geometry = &FeatureGeometry{Type: "Point", Coordinates: []float64{*l.Lon, *l.Lat}}
	}
	return f
}
