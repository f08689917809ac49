// Command validate checks a query policy and a saved GeoJSON feed against the
// processing pipeline: policy coverage, fixture shape, and the sort and
// pagination guarantees every listing endpoint relies on.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -geojson testdata/all_week.geojson \
//	  -policy internal/config/policy.yaml
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"
	"slices"
	"strconv"

	"github.com/couchcryptid/seismic-data-api/internal/config"
	"github.com/couchcryptid/seismic-data-api/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	geojsonPath := flag.String("geojson", "", "path to a saved USGS GeoJSON FeatureCollection")
	policyPath := flag.String("policy", "", "path to a query policy YAML file (default: embedded policy)")
	flag.Parse()

	if *geojsonPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*geojsonPath, *policyPath); code != 0 {
		os.Exit(code)
	}
}

func run(geojsonPath, policyPath string) int {
	fmt.Println("=== Seismic Query Pipeline Validation ===")
	fmt.Println()

	policy, err := config.LoadQueryPolicy(policyPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load query policy: %v\n", err)
		return 1
	}

	fc, err := loadFeatureCollection(geojsonPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load GeoJSON: %v\n", err)
		return 1
	}

	phases := []*phase{
		validatePolicy(policy),
		validateFixture(fc.Features),
		validateOrdering(fc.Features, policy),
		validatePagination(fc.Features, policy),
		validateProjection(fc.Features, policy),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Features: %d, endpoints: %d\n", len(fc.Features), len(config.Endpoints))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			if i >= 20 {
				fmt.Printf("  ... and %d more\n", len(p.errors)-20)
				break
			}
			fmt.Printf("  %s\n", e)
		}
	}

	if !allPassed {
		return 1
	}
	return 0
}

func loadFeatureCollection(path string) (domain.FeatureCollection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.FeatureCollection{}, err
	}
	var fc domain.FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return domain.FeatureCollection{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if fc.Type != "FeatureCollection" {
		return domain.FeatureCollection{}, fmt.Errorf("%s: type is %q, want FeatureCollection", path, fc.Type)
	}
	return fc, nil
}

// validatePolicy checks each endpoint's default sort is sortable and that all
// endpoints share the first endpoint's whitelist shape.
func validatePolicy(policy config.QueryPolicy) *phase {
	p := &phase{name: "Policy coverage"}
	ref := policy.Options(config.Endpoints[0])

	for _, name := range config.Endpoints {
		opts := policy.Options(name)
		key := opts.DefaultSort
		if len(key) > 0 && key[0] == '-' {
			key = key[1:]
		}
		if key != "" && opts.SortWhitelist != nil && !slices.Contains(opts.SortWhitelist, key) {
			p.errorf("%s: default sort %q is not in sort_whitelist", name, opts.DefaultSort)
		}
		if !slices.Equal(opts.SortWhitelist, ref.SortWhitelist) {
			p.errorf("%s: sort_whitelist %v differs from %v", name, opts.SortWhitelist, ref.SortWhitelist)
		}
		if !slices.Equal(opts.FieldWhitelist, ref.FieldWhitelist) {
			p.errorf("%s: field_whitelist %v differs from %v", name, opts.FieldWhitelist, ref.FieldWhitelist)
		}
	}
	return p
}

func validateFixture(features []domain.Feature) *phase {
	p := &phase{name: "Fixture shape"}
	seen := make(map[string]bool, len(features))
	for i, f := range features {
		label := f.ID
		if label == "" {
			label = "#" + strconv.Itoa(i)
			p.errorf("%s: missing id", label)
		} else if seen[f.ID] {
			p.errorf("%s: duplicate id", label)
		}
		seen[f.ID] = true

		if v, ok := f.Property("time"); !ok || !isNumber(v) {
			p.errorf("%s: time is missing or not numeric", label)
		}
		if lat, ok := f.Latitude(); !ok || lat < -90 || lat > 90 {
			p.errorf("%s: latitude missing or out of range", label)
		}
		if lon, ok := f.Longitude(); !ok || lon < -180 || lon > 180 {
			p.errorf("%s: longitude missing or out of range", label)
		}
		if _, ok := f.Depth(); !ok {
			p.errorf("%s: depth coordinate missing", label)
		}
	}
	return p
}

// validateOrdering checks the default sort of every endpoint is
// non-increasing in time with missing times last.
func validateOrdering(features []domain.Feature, policy config.QueryPolicy) *phase {
	p := &phase{name: "Default ordering"}
	for _, name := range config.Endpoints {
		res := domain.Process(features, domain.QueryParams{Limit: strconv.Itoa(domain.MaxLimit)}, policy.Options(name))
		prev := math.Inf(1)
		sawMissing := false
		for _, it := range res.Items {
			f, ok := it.(domain.Feature)
			if !ok {
				p.errorf("%s: unprojected item has type %T", name, it)
				break
			}
			v, _ := f.Property("time")
			t, ok := toFloat(v)
			if !ok {
				sawMissing = true
				continue
			}
			if sawMissing {
				p.errorf("%s: %s has a time but follows a feature without one", name, f.ID)
			}
			if t > prev {
				p.errorf("%s: %s is newer than its predecessor", name, f.ID)
			}
			prev = t
		}
	}
	return p
}

// validatePagination walks every page at several limits and checks each
// feature appears exactly once.
func validatePagination(features []domain.Feature, policy config.QueryPolicy) *phase {
	p := &phase{name: "Pagination coverage"}
	opts := policy.Options(config.EndpointRecent)
	for _, limit := range []int{1, 7, domain.DefaultLimit, domain.MaxLimit} {
		counts := make(map[string]int, len(features))
		for page := 1; ; page++ {
			res := domain.Process(features, domain.QueryParams{
				Page:  strconv.Itoa(page),
				Limit: strconv.Itoa(limit),
			}, opts)
			if res.TotalFetched != len(features) {
				p.errorf("limit %d page %d: totalFetched %d, want %d", limit, page, res.TotalFetched, len(features))
			}
			for _, it := range res.Items {
				counts[it.(domain.Feature).ID]++
			}
			if !res.HasMore {
				break
			}
		}
		for _, f := range features {
			if counts[f.ID] != 1 {
				p.errorf("limit %d: %s seen %d times", limit, f.ID, counts[f.ID])
			}
		}
	}
	return p
}

// validateProjection checks projected records only carry whitelisted keys.
func validateProjection(features []domain.Feature, policy config.QueryPolicy) *phase {
	p := &phase{name: "Projection whitelist"}
	for _, name := range config.Endpoints {
		opts := policy.Options(name)
		res := domain.Process(features, domain.QueryParams{
			Fields: "time,magnitude,depth,place,coordinates,mag,id,url",
			Limit:  strconv.Itoa(domain.MaxLimit),
		}, opts)
		for _, it := range res.Items {
			rec, ok := it.(map[string]any)
			if !ok {
				p.errorf("%s: projected item has type %T", name, it)
				break
			}
			for k := range rec {
				if opts.FieldWhitelist != nil && !slices.Contains(opts.FieldWhitelist, k) {
					p.errorf("%s: projected key %q is not whitelisted", name, k)
				}
			}
		}
	}
	return p
}

func isNumber(v any) bool {
	_, ok := toFloat(v)
	return ok
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
