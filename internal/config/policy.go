package config

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/couchcryptid/seismic-data-api/internal/domain"
	"gopkg.in/yaml.v3"
)

// Earthquake endpoint names used as keys in the query policy.
const (
	EndpointRecent    = "recent"
	EndpointToday     = "today"
	EndpointLastWeek  = "last-week"
	EndpointMonth     = "month"
	EndpointRegion    = "region"
	EndpointDepth     = "depth"
	EndpointRange     = "range"
	EndpointMagnitude = "magnitude"
	EndpointRadius    = "radius"
	EndpointByID      = "by-id"
)

// Endpoints lists every earthquake endpoint that needs a policy entry.
var Endpoints = []string{
	EndpointRecent, EndpointToday, EndpointLastWeek, EndpointMonth, EndpointRegion,
	EndpointDepth, EndpointRange, EndpointMagnitude, EndpointRadius, EndpointByID,
}

//go:embed policy.yaml
var defaultPolicy []byte

// QueryPolicy maps endpoint names to their processing options.
type QueryPolicy struct {
	Endpoints map[string]domain.QueryOptions `yaml:"endpoints"`
}

// Options returns the policy for an endpoint.
func (p QueryPolicy) Options(endpoint string) domain.QueryOptions {
	return p.Endpoints[endpoint]
}

// LoadQueryPolicy reads the policy from path, or the embedded default when
// path is empty.
func LoadQueryPolicy(path string) (QueryPolicy, error) {
	data := defaultPolicy
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return QueryPolicy{}, fmt.Errorf("read query policy: %w", err)
		}
		data = b
	}
	return ParseQueryPolicy(data)
}

// ParseQueryPolicy decodes a YAML policy and checks every endpoint is covered.
func ParseQueryPolicy(data []byte) (QueryPolicy, error) {
	var p QueryPolicy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return QueryPolicy{}, fmt.Errorf("parse query policy: %w", err)
	}
	for _, name := range Endpoints {
		if _, ok := p.Endpoints[name]; !ok {
			return QueryPolicy{}, fmt.Errorf("query policy: missing endpoint %q", name)
		}
	}
	return p, nil
}
