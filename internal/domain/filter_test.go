package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ptr(f float64) *float64 { return &f }

func located(id string, lon, lat float64) Feature {
	return Feature{
		ID:         id,
		Properties: map[string]any{"time": 1.0},
		Geometry:   Geometry{Coordinates: Point(lon, lat, 10)},
	}
}

func featureIDs(fs []Feature) []string {
	out := make([]string, 0, len(fs))
	for _, f := range fs {
		out = append(out, f.ID)
	}
	return out
}

func TestFilterByDepth(t *testing.T) {
	noDepth := quake("none", 1, 1.0, 0)
	noDepth.Geometry.Coordinates = Point(1, 2)
	features := []Feature{
		quake("shallow", 1, 1.0, 5),
		quake("mid", 2, 1.0, 70),
		quake("deep", 3, 1.0, 300),
		noDepth,
	}

	assert.Equal(t, []string{"mid", "deep"}, featureIDs(FilterByDepth(features, ptr(70), nil)))
	assert.Equal(t, []string{"shallow", "mid"}, featureIDs(FilterByDepth(features, nil, ptr(70))))
	assert.Equal(t, []string{"mid"}, featureIDs(FilterByDepth(features, ptr(10), ptr(100))))
	assert.Equal(t, []string{"shallow", "mid", "deep"}, featureIDs(FilterByDepth(features, nil, nil)))
	assert.Len(t, features, 4, "input is untouched")
}

func TestFilterByMagnitude(t *testing.T) {
	nullMag := quake("null", 1, nil, 5)
	nullMag.Properties["mag"] = nil
	stringMag := quake("string", 1, "4.0", 5)
	features := []Feature{
		quake("small", 1, 1.2, 5),
		quake("moderate", 2, 4.5, 5),
		quake("large", 3, 7.1, 5),
		nullMag,
		stringMag,
	}

	assert.Equal(t, []string{"moderate", "large"}, featureIDs(FilterByMagnitude(features, ptr(4.5), nil)))
	assert.Equal(t, []string{"small", "moderate"}, featureIDs(FilterByMagnitude(features, nil, ptr(5))))
	assert.Empty(t, FilterByMagnitude(features, ptr(8), nil))
}

func TestFilterByRadius(t *testing.T) {
	features := []Feature{
		located("la", -118.2437, 34.0522),
		located("sf", -122.4194, 37.7749),
		located("ridgecrest", -117.6709, 35.6225),
		{ID: "nogeom", Properties: map[string]any{}},
	}

	// Los Angeles to Ridgecrest is ~180 km; to San Francisco ~560 km.
	got := FilterByRadius(features, 34.0522, -118.2437, 200)
	assert.Equal(t, []string{"la", "ridgecrest"}, featureIDs(got))

	got = FilterByRadius(features, 34.0522, -118.2437, 600)
	assert.Equal(t, []string{"la", "sf", "ridgecrest"}, featureIDs(got))
}

func TestHaversine(t *testing.T) {
	assert.InDelta(t, 0, Haversine(10, 20, 10, 20), 1e-9)
	// One degree of latitude is ~111.19 km on a 6371 km sphere.
	assert.InDelta(t, 111.19, Haversine(0, 0, 1, 0), 0.01)
	// LA to SF.
	assert.InDelta(t, 559, Haversine(34.0522, -118.2437, 37.7749, -122.4194), 2)
}
