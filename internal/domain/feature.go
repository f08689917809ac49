package domain

import "encoding/json"

// Coordinate indexes within Geometry.Coordinates.
const (
	coordLon = iota
	coordLat
	coordDepth
)

// FeatureCollection is the GeoJSON envelope returned by a feed query.
type FeatureCollection struct {
	Type     string          `json:"type,omitempty"`
	Metadata json.RawMessage `json:"metadata,omitempty"`
	Features []Feature       `json:"features"`
}

// Feature is one seismic event as delivered by the provider. It is treated as
// read-only: the pipeline derives new records instead of mutating it.
type Feature struct {
	Type       string         `json:"type,omitempty"`
	ID         string         `json:"id,omitempty"`
	Properties map[string]any `json:"properties"`
	Geometry   Geometry       `json:"geometry"`
}

// Geometry is the GeoJSON Point of an event: [lon, lat, depth]. The provider
// may send null for any entry, so each is a pointer.
type Geometry struct {
	Type        string     `json:"type,omitempty"`
	Coordinates []*float64 `json:"coordinates"`
}

// Point builds Point coordinates from plain values.
func Point(coords ...float64) []*float64 {
	out := make([]*float64, len(coords))
	for i := range coords {
		out[i] = &coords[i]
	}
	return out
}

// Property returns the named provider property and whether it was present.
func (f Feature) Property(name string) (any, bool) {
	if f.Properties == nil {
		return nil, false
	}
	v, ok := f.Properties[name]
	return v, ok
}

// Depth returns the hypocentre depth in km, if the geometry carries one.
func (f Feature) Depth() (float64, bool) {
	return f.coordinate(coordDepth)
}

// Latitude returns the epicentre latitude.
func (f Feature) Latitude() (float64, bool) {
	return f.coordinate(coordLat)
}

// Longitude returns the epicentre longitude.
func (f Feature) Longitude() (float64, bool) {
	return f.coordinate(coordLon)
}

// Magnitude returns properties.mag as a float when it is set and numeric.
func (f Feature) Magnitude() (float64, bool) {
	v, ok := f.Property("mag")
	if !ok {
		return 0, false
	}
	return toFloat(v)
}

// coordinate reports entry i. Absent and null entries are both not ok.
func (f Feature) coordinate(i int) (float64, bool) {
	if len(f.Geometry.Coordinates) <= i || f.Geometry.Coordinates[i] == nil {
		return 0, false
	}
	return *f.Geometry.Coordinates[i], true
}

// cloneCoordinates deep-copies coordinates so projections never alias the
// provider's feature.
func cloneCoordinates(coords []*float64) []*float64 {
	if coords == nil {
		return nil
	}
	out := make([]*float64, len(coords))
	for i, c := range coords {
		if c != nil {
			v := *c
			out[i] = &v
		}
	}
	return out
}

// toFloat converts the numeric shapes a property can take after JSON decoding
// (or when built by hand in tests) into a float64.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
