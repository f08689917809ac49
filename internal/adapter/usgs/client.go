package usgs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/seismic-data-api/internal/domain"
	"github.com/couchcryptid/seismic-data-api/internal/observability"
)

// DefaultBaseURL is the USGS FDSN event query endpoint.
const DefaultBaseURL = "https://earthquake.usgs.gov/fdsnws/event/1/query"

// UpstreamError reports a non-success HTTP status from the feed provider.
type UpstreamError struct {
	StatusCode int
	Status     string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("HTTP error! status: %d %s", e.StatusCode, e.Status)
}

// Client fetches GeoJSON documents from the USGS event service. It performs
// no retries and sets no deadline of its own; callers bound requests via ctx.
type Client struct {
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a USGS feed client rooted at baseURL.
func NewClient(baseURL string, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{},
		baseURL:    baseURL,
		metrics:    metrics,
		logger:     logger,
	}
}

// URL renders q against the client's base URL.
func (c *Client) URL(q FeedQuery) string {
	return q.URL(c.baseURL)
}

// Fetch GETs a fully formed URL and returns the body as raw JSON. It makes no
// assumption about the document shape.
func (c *Client) Fetch(ctx context.Context, fullURL string) (json.RawMessage, error) {
	start := time.Now()
	body, err := c.doRequest(ctx, fullURL)
	c.metrics.UpstreamDuration.Observe(time.Since(start).Seconds())

	switch err.(type) {
	case nil:
		c.metrics.UpstreamRequests.WithLabelValues("success").Inc()
	case *UpstreamError:
		c.metrics.UpstreamRequests.WithLabelValues("http_error").Inc()
	default:
		c.metrics.UpstreamRequests.WithLabelValues("error").Inc()
	}
	return body, err
}

// FetchFeatures fetches fullURL and decodes it as a FeatureCollection. A bare
// Feature document (returned for eventid queries) becomes a one-item collection.
func (c *Client) FetchFeatures(ctx context.Context, fullURL string) (domain.FeatureCollection, error) {
	body, err := c.Fetch(ctx, fullURL)
	if err != nil {
		return domain.FeatureCollection{}, err
	}

	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return domain.FeatureCollection{}, fmt.Errorf("decode feed: %w", err)
	}

	if probe.Type == "Feature" {
		var f domain.Feature
		if err := json.Unmarshal(body, &f); err != nil {
			return domain.FeatureCollection{}, fmt.Errorf("decode feature: %w", err)
		}
		c.metrics.FeaturesFetched.Observe(1)
		return domain.FeatureCollection{Type: "FeatureCollection", Features: []domain.Feature{f}}, nil
	}

	var fc domain.FeatureCollection
	if err := json.Unmarshal(body, &fc); err != nil {
		return domain.FeatureCollection{}, fmt.Errorf("decode feature collection: %w", err)
	}
	if fc.Features == nil {
		fc.Features = []domain.Feature{}
	}
	c.metrics.FeaturesFetched.Observe(float64(len(fc.Features)))
	c.logger.Debug("upstream feed fetched", "features", len(fc.Features))
	return fc, nil
}

func (c *Client) doRequest(ctx context.Context, fullURL string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("feed request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		upErr := &UpstreamError{StatusCode: resp.StatusCode, Status: statusText(resp)}
		c.logger.Warn("upstream feed returned error status", "status", resp.StatusCode)
		return nil, upErr
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("decode response: invalid JSON body")
	}
	return body, nil
}

// statusText strips the numeric code from resp.Status ("503 Service
// Unavailable" → "Service Unavailable").
func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}
