package usgs

import (
	"net/url"
	"strconv"

	"github.com/couchcryptid/seismic-data-api/internal/domain"
)

// timeLayout is the ISO-8601 form the FDSN service accepts for starttime/endtime.
const timeLayout = "2006-01-02T15:04:05"

// BoundingBox is a rectangular region in degrees.
type BoundingBox struct {
	MinLat, MaxLat float64
	MinLon, MaxLon float64
}

// FeedQuery describes one upstream request. Zero-valued fields are omitted
// from the URL.
type FeedQuery struct {
	Window  *domain.TimeWindow
	Box     *BoundingBox
	EventID string
	Limit   int
}

// URL renders the query against base. orderby=time and format=geojson are
// always set.
func (q FeedQuery) URL(base string) string {
	v := url.Values{}
	v.Set("format", "geojson")
	v.Set("orderby", "time")
	if q.Window != nil {
		if !q.Window.Start.IsZero() {
			v.Set("starttime", q.Window.Start.UTC().Format(timeLayout))
		}
		if !q.Window.End.IsZero() {
			v.Set("endtime", q.Window.End.UTC().Format(timeLayout))
		}
	}
	if q.Box != nil {
		v.Set("minlatitude", formatCoord(q.Box.MinLat))
		v.Set("maxlatitude", formatCoord(q.Box.MaxLat))
		v.Set("minlongitude", formatCoord(q.Box.MinLon))
		v.Set("maxlongitude", formatCoord(q.Box.MaxLon))
	}
	if q.EventID != "" {
		v.Set("eventid", q.EventID)
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	return base + "?" + v.Encode()
}

func formatCoord(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

