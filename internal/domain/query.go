package domain

import (
	"math"
	"net/url"
	"slices"
	"strings"
)

// Pagination defaults.
const (
	DefaultPage  = 1
	DefaultLimit = 50
	MaxLimit     = 100
)

// QueryParams are the raw client query values consumed by Process.
// Values are kept as strings so malformed input can fall back to defaults.
type QueryParams struct {
	Sort   string
	Fields string
	Page   string
	Limit  string
}

// QueryParamsFromValues extracts sort, fields, page and limit from a URL query.
func QueryParamsFromValues(v url.Values) QueryParams {
	return QueryParams{
		Sort:   v.Get("sort"),
		Fields: v.Get("fields"),
		Page:   v.Get("page"),
		Limit:  v.Get("limit"),
	}
}

// QueryOptions is the per-endpoint policy for Process.
// A nil whitelist means unrestricted.
type QueryOptions struct {
	DefaultSort    string   `yaml:"default_sort"`
	SortWhitelist  []string `yaml:"sort_whitelist"`
	FieldWhitelist []string `yaml:"field_whitelist"`
}

func (o QueryOptions) sortAllowed(key string) bool {
	return o.SortWhitelist == nil || slices.Contains(o.SortWhitelist, key)
}

func (o QueryOptions) fieldAllowed(name string) bool {
	return o.FieldWhitelist == nil || slices.Contains(o.FieldWhitelist, name)
}

// splitList splits a comma-separated expression, trimming tokens and
// dropping empty ones.
func splitList(expr string) []string {
	parts := strings.Split(expr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseLeadingInt parses the integer prefix of s, ignoring leading
// whitespace and any trailing garbage ("12abc" → 12, "3.9" → 3).
// It reports false when s has no leading digits.
func parseLeadingInt(s string) (int, bool) {
	s = strings.TrimLeft(s, " \t\r\n")
	neg := false
	if s != "" && (s[0] == '-' || s[0] == '+') {
		neg = s[0] == '-'
		s = s[1:]
	}

	n := 0
	digits := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			break
		}
		digits++
		if n > (math.MaxInt32-int(c-'0'))/10 {
			n = math.MaxInt32
			continue
		}
		n = n*10 + int(c-'0')
	}
	if digits == 0 {
		return 0, false
	}
	if neg {
		n = -n
	}
	return n, true
}

// intOrDefault parses s, falling back to def, and floors the result at 1.
func intOrDefault(s string, def int) int {
	n, ok := parseLeadingInt(s)
	if !ok {
		n = def
	}
	return max(n, 1)
}
