package http

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/seismic-data-api/internal/adapter/usgs"
	"github.com/couchcryptid/seismic-data-api/internal/config"
	"github.com/couchcryptid/seismic-data-api/internal/domain"
)

// defaultRadiusKm applies when /radius is called without a radius.
const defaultRadiusKm = 100.0

// feedRequest is everything an earthquake endpoint contributes to the shared
// fetch, pre-filter, process pipeline.
type feedRequest struct {
	endpoint  string
	message   string
	query     usgs.FeedQuery
	prefilter func([]domain.Feature) []domain.Feature
}

// serveFeed fetches the upstream feed, applies the optional pre-filter and
// runs the processor with the endpoint's policy.
func (s *Server) serveFeed(w http.ResponseWriter, r *http.Request, req feedRequest) {
	ctx := r.Context()
	if s.deps.UpstreamTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.deps.UpstreamTimeout)
		defer cancel()
	}

	fc, err := s.deps.Feed.FetchFeatures(ctx, s.deps.Feed.URL(req.query))
	if err != nil {
		s.logger.Warn("feed fetch failed", "endpoint", req.endpoint, "error", err)
		writeError(w, s.logger, err)
		return
	}

	features := fc.Features
	if req.prefilter != nil {
		features = req.prefilter(features)
	}

	res := domain.Process(features, domain.QueryParamsFromValues(r.URL.Query()), s.deps.Policy.Options(req.endpoint))
	writeJSON(w, http.StatusOK, listingEnvelope(req.message, res))
}

func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	window := domain.LastDuration(time.Hour)
	s.serveFeed(w, r, feedRequest{
		endpoint: config.EndpointRecent,
		message:  "Recent earthquakes retrieved",
		query:    usgs.FeedQuery{Window: &window, Limit: s.deps.UpstreamLimit},
	})
}

func (s *Server) handleToday(w http.ResponseWriter, r *http.Request) {
	window := domain.Today()
	s.serveFeed(w, r, feedRequest{
		endpoint: config.EndpointToday,
		message:  "Today's earthquakes retrieved",
		query:    usgs.FeedQuery{Window: &window},
	})
}

func (s *Server) handleLastWeek(w http.ResponseWriter, r *http.Request) {
	window := domain.LastDays(7)
	s.serveFeed(w, r, feedRequest{
		endpoint: config.EndpointLastWeek,
		message:  "Last week's earthquakes retrieved",
		query:    usgs.FeedQuery{Window: &window},
	})
}

func (s *Server) handleMonth(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	now := domain.Now()

	year, err := intParam(q, "year", now.Year())
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	month, err := intParam(q, "month", int(now.Month()))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	window, err := domain.CalendarMonth(year, time.Month(month))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	s.serveFeed(w, r, feedRequest{
		endpoint: config.EndpointMonth,
		message:  fmt.Sprintf("Earthquakes for %04d-%02d retrieved", year, month),
		query:    usgs.FeedQuery{Window: &window},
	})
}

func (s *Server) handleRegion(w http.ResponseWriter, r *http.Request) {
	box, err := parseBoundingBox(r.URL.Query())
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	window := domain.LastDays(30)
	s.serveFeed(w, r, feedRequest{
		endpoint: config.EndpointRegion,
		message:  "Regional earthquakes retrieved",
		query:    usgs.FeedQuery{Window: &window, Box: &box},
	})
}

func (s *Server) handleDepth(w http.ResponseWriter, r *http.Request) {
	minDepth, maxDepth, err := boundsParams(r.URL.Query(), "min", "max")
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	window := domain.LastDays(7)
	s.serveFeed(w, r, feedRequest{
		endpoint: config.EndpointDepth,
		message:  "Earthquakes by depth retrieved",
		query:    usgs.FeedQuery{Window: &window},
		prefilter: func(fs []domain.Feature) []domain.Feature {
			return domain.FilterByDepth(fs, minDepth, maxDepth)
		},
	})
}

func (s *Server) handleRange(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, end := strings.TrimSpace(q.Get("start")), strings.TrimSpace(q.Get("end"))
	if start == "" || end == "" {
		writeError(w, s.logger, fmt.Errorf("%w: start and end are required", domain.ErrInvalidInput))
		return
	}
	window, err := domain.DateRange(start, end)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	s.serveFeed(w, r, feedRequest{
		endpoint: config.EndpointRange,
		message:  fmt.Sprintf("Earthquakes from %s to %s retrieved", start, end),
		query:    usgs.FeedQuery{Window: &window},
	})
}

func (s *Server) handleMagnitude(w http.ResponseWriter, r *http.Request) {
	minMag, maxMag, err := boundsParams(r.URL.Query(), "min", "max")
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	window := domain.LastDays(7)
	s.serveFeed(w, r, feedRequest{
		endpoint: config.EndpointMagnitude,
		message:  "Earthquakes by magnitude retrieved",
		query:    usgs.FeedQuery{Window: &window},
		prefilter: func(fs []domain.Feature) []domain.Feature {
			return domain.FilterByMagnitude(fs, minMag, maxMag)
		},
	})
}

func (s *Server) handleRadius(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, err := requiredFloat(q, "lat", -90, 90)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	lon, err := requiredFloat(q, "lon", -180, 180)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	radius := defaultRadiusKm
	p, err := floatParam(q, "radius")
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	if p != nil {
		if *p <= 0 {
			writeError(w, s.logger, fmt.Errorf("%w: radius must be positive", domain.ErrInvalidInput))
			return
		}
		radius = *p
	}

	window := domain.LastDays(30)
	s.serveFeed(w, r, feedRequest{
		endpoint: config.EndpointRadius,
		message:  fmt.Sprintf("Earthquakes within %g km retrieved", radius),
		query:    usgs.FeedQuery{Window: &window},
		prefilter: func(fs []domain.Feature) []domain.Feature {
			return domain.FilterByRadius(fs, lat, lon, radius)
		},
	})
}

func (s *Server) handleByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		writeError(w, s.logger, fmt.Errorf("%w: id is required", domain.ErrInvalidInput))
		return
	}
	s.serveFeed(w, r, feedRequest{
		endpoint: config.EndpointByID,
		message:  "Earthquake retrieved",
		query:    usgs.FeedQuery{EventID: id},
	})
}

// floatParam parses an optional numeric parameter. Absent or blank yields nil.
func floatParam(q url.Values, name string) (*float64, error) {
	s := strings.TrimSpace(q.Get(name))
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be a number", domain.ErrInvalidInput, name)
	}
	return &f, nil
}

func requiredFloat(q url.Values, name string, lo, hi float64) (float64, error) {
	p, err := floatParam(q, name)
	if err != nil {
		return 0, err
	}
	if p == nil {
		return 0, fmt.Errorf("%w: %s is required", domain.ErrInvalidInput, name)
	}
	if *p < lo || *p > hi {
		return 0, fmt.Errorf("%w: %s must be between %g and %g", domain.ErrInvalidInput, name, lo, hi)
	}
	return *p, nil
}

// boundsParams parses an optional [lo, hi] pair and rejects inverted bounds.
func boundsParams(q url.Values, loName, hiName string) (lo, hi *float64, err error) {
	if lo, err = floatParam(q, loName); err != nil {
		return nil, nil, err
	}
	if hi, err = floatParam(q, hiName); err != nil {
		return nil, nil, err
	}
	if lo != nil && hi != nil && *lo > *hi {
		return nil, nil, fmt.Errorf("%w: %s must not exceed %s", domain.ErrInvalidInput, loName, hiName)
	}
	return lo, hi, nil
}

func intParam(q url.Values, name string, def int) (int, error) {
	s := strings.TrimSpace(q.Get(name))
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", domain.ErrInvalidInput, name)
	}
	return n, nil
}

func parseBoundingBox(q url.Values) (usgs.BoundingBox, error) {
	var box usgs.BoundingBox
	var err error
	if box.MinLat, err = requiredFloat(q, "minlat", -90, 90); err != nil {
		return box, err
	}
	if box.MaxLat, err = requiredFloat(q, "maxlat", -90, 90); err != nil {
		return box, err
	}
	if box.MinLon, err = requiredFloat(q, "minlon", -180, 180); err != nil {
		return box, err
	}
	if box.MaxLon, err = requiredFloat(q, "maxlon", -180, 180); err != nil {
		return box, err
	}
	if box.MinLat > box.MaxLat {
		return box, fmt.Errorf("%w: minlat must not exceed maxlat", domain.ErrInvalidInput)
	}
	return box, nil
}
