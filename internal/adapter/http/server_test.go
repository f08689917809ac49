package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	httpadapter "github.com/couchcryptid/seismic-data-api/internal/adapter/http"
	"github.com/couchcryptid/seismic-data-api/internal/adapter/usgs"
	"github.com/couchcryptid/seismic-data-api/internal/config"
	"github.com/couchcryptid/seismic-data-api/internal/domain"
	"github.com/couchcryptid/seismic-data-api/internal/observability"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 4, 26, 15, 0, 0, 0, time.UTC)

// threeQuakes is ordered oldest first so default sorting is observable.
const threeQuakes = `{
  "type": "FeatureCollection",
  "metadata": {"count": 3},
  "features": [
    {"type":"Feature","id":"a","properties":{"mag":4.5,"time":1714140000000,"place":"10 km N of Ridgecrest"},"geometry":{"type":"Point","coordinates":[-117.5,35.7,8.2]}},
    {"type":"Feature","id":"b","properties":{"mag":2.1,"time":1714143600000,"place":"Los Angeles"},"geometry":{"type":"Point","coordinates":[-118.2,34.0,15.0]}},
    {"type":"Feature","id":"c","properties":{"mag":null,"time":1714147200000,"place":"Tokyo"},"geometry":{"type":"Point","coordinates":[139.7,35.7,45.0]}}
  ]
}`

type pagination struct {
	Page       int  `json:"page"`
	TotalPages int  `json:"totalPages"`
	Limit      int  `json:"limit"`
	HasMore    bool `json:"hasMore"`
}

type envelope struct {
	Success    bool            `json:"success"`
	Code       int             `json:"code"`
	Status     string          `json:"status"`
	Message    string          `json:"message"`
	Total      int             `json:"total"`
	Data       json.RawMessage `json:"data"`
	Pagination *pagination     `json:"pagination"`
}

// upstream is a fake USGS service that records every query it receives.
type upstream struct {
	srv     *httptest.Server
	mu      sync.Mutex
	queries []url.Values
}

func newUpstream(t *testing.T, status int, body string) *upstream {
	t.Helper()
	u := &upstream{}
	u.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.mu.Lock()
		u.queries = append(u.queries, r.URL.Query())
		u.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(u.srv.Close)
	return u
}

func (u *upstream) calls() []url.Values {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]url.Values(nil), u.queries...)
}

func (u *upstream) lastQuery(t *testing.T) url.Values {
	t.Helper()
	calls := u.calls()
	require.NotEmpty(t, calls, "upstream was not called")
	return calls[len(calls)-1]
}

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func freezeClock(t *testing.T) {
	t.Helper()
	domain.SetClock(clockwork.NewFakeClockAt(fixedNow))
	t.Cleanup(func() { domain.SetClock(nil) })
}

// newTestServer wires a server to the fake upstream. mutate may adjust deps
// before construction.
func newTestServer(t *testing.T, up *upstream, mutate func(*httpadapter.Deps)) *httpadapter.Server {
	t.Helper()
	policy, err := config.LoadQueryPolicy("")
	require.NoError(t, err)

	metrics := observability.NewMetricsForTesting()
	baseURL := "http://127.0.0.1:0/unused"
	if up != nil {
		baseURL = up.srv.URL
	}
	deps := httpadapter.Deps{
		Feed:            usgs.NewClient(baseURL, metrics, quietLogger()),
		Policy:          policy,
		UpstreamTimeout: 5 * time.Second,
		UpstreamLimit:   500,
		Ready:           &mockReadiness{},
		RateLimitRPS:    1000,
		RateLimitBurst:  1000,
		Metrics:         metrics,
	}
	if mutate != nil {
		mutate(&deps)
	}
	return httpadapter.NewServer(":0", deps, quietLogger())
}

func do(srv http.Handler, method, target string, body string, headers ...string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func TestHealthzReturns200(t *testing.T) {
	rec := do(newTestServer(t, nil, nil), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	rec := do(newTestServer(t, nil, nil), http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	srv := newTestServer(t, nil, func(d *httpadapter.Deps) {
		d.Ready = &mockReadiness{err: fmt.Errorf("mongo unreachable")}
	})
	rec := do(srv, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestReadyzDefaultsToReady(t *testing.T) {
	srv := newTestServer(t, nil, func(d *httpadapter.Deps) { d.Ready = nil })
	rec := do(srv, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	rec := do(newTestServer(t, nil, nil), http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestOptionalRoutesDisabled(t *testing.T) {
	srv := newTestServer(t, nil, nil)

	assert.Equal(t, http.StatusNotFound, do(srv, http.MethodPost, "/api/v1/users/register", `{}`).Code)
	assert.Equal(t, http.StatusNotFound, do(srv, http.MethodPost, "/api/v1/users/login", `{}`).Code)
	assert.Equal(t, http.StatusNotFound, do(srv, http.MethodPost, "/api/v1/contacts", `{}`).Code)
}

func TestRateLimitRejectsBurstOverflow(t *testing.T) {
	freezeClock(t)
	up := newUpstream(t, http.StatusOK, threeQuakes)
	srv := newTestServer(t, up, func(d *httpadapter.Deps) {
		d.RateLimitRPS = 1
		d.RateLimitBurst = 2
		d.Clock = clockwork.NewFakeClockAt(fixedNow)
	})

	for range 2 {
		assert.Equal(t, http.StatusOK, do(srv, http.MethodGet, "/api/v1/earthquakes/today", "").Code)
	}
	rec := do(srv, http.MethodGet, "/api/v1/earthquakes/today", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	assert.False(t, decodeEnvelope(t, rec).Success)

	// A spoofed forwarding header from an untrusted peer shares the peer's bucket.
	assert.Equal(t, http.StatusTooManyRequests, do(srv, http.MethodGet, "/api/v1/earthquakes/today", "", "X-Forwarded-For", "203.0.113.9").Code)

	// Other peers and operational routes are unaffected.
	other := httptest.NewRequest(http.MethodGet, "/api/v1/earthquakes/today", nil)
	other.RemoteAddr = "198.51.100.20:4321"
	otherRec := httptest.NewRecorder()
	srv.ServeHTTP(otherRec, other)
	assert.Equal(t, http.StatusOK, otherRec.Code)
	assert.Equal(t, http.StatusOK, do(srv, http.MethodGet, "/healthz", "").Code)
	assert.Len(t, up.calls(), 3)
}

func TestRateLimitSpoofedForwardingHeaderDoesNotBypass(t *testing.T) {
	up := newUpstream(t, http.StatusOK, threeQuakes)
	srv := newTestServer(t, up, func(d *httpadapter.Deps) {
		d.RateLimitRPS = 1
		d.RateLimitBurst = 1
		d.Clock = clockwork.NewFakeClockAt(fixedNow)
	})

	allowed := 0
	for i := range 50 {
		rec := do(srv, http.MethodGet, "/api/v1/earthquakes/recent", "", "X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i))
		if rec.Code == http.StatusOK {
			allowed++
		}
	}
	assert.Equal(t, 1, allowed)
}

func TestRateLimitTrustedProxyForwardsClient(t *testing.T) {
	up := newUpstream(t, http.StatusOK, threeQuakes)
	srv := newTestServer(t, up, func(d *httpadapter.Deps) {
		d.RateLimitRPS = 1
		d.RateLimitBurst = 1
		d.Clock = clockwork.NewFakeClockAt(fixedNow)
		d.TrustedProxies = []netip.Prefix{netip.MustParsePrefix("192.0.2.0/24")}
	})

	// httptest requests arrive from 192.0.2.1, inside the trusted range.
	assert.Equal(t, http.StatusOK, do(srv, http.MethodGet, "/api/v1/earthquakes/recent", "", "X-Forwarded-For", "203.0.113.1").Code)
	assert.Equal(t, http.StatusOK, do(srv, http.MethodGet, "/api/v1/earthquakes/recent", "", "X-Forwarded-For", "203.0.113.2").Code)
	assert.Equal(t, http.StatusTooManyRequests, do(srv, http.MethodGet, "/api/v1/earthquakes/recent", "", "X-Forwarded-For", "203.0.113.1").Code)
}
