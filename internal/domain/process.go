package domain

import (
	"cmp"
	"slices"
	"strings"
)

// Result is one page of processed features plus pagination metadata.
// TotalFetched counts what a single upstream fetch returned, not what the
// provider holds in total.
type Result struct {
	Page         int   `json:"page"`
	Limit        int   `json:"limit"`
	Items        []any `json:"items"`
	TotalFetched int   `json:"totalFetched"`
	HasMore      bool  `json:"hasMore"`
}

// sortKey is one parsed term of a sort expression.
type sortKey struct {
	name string
	desc bool
}

// Process sorts, projects and paginates features according to the client
// query and endpoint policy. The input slice and its features are not modified.
func Process(features []Feature, q QueryParams, opts QueryOptions) Result {
	sorted := slices.Clone(features)
	keys := parseSortKeys(q.Sort, opts)
	if len(keys) > 0 {
		slices.SortStableFunc(sorted, func(a, b Feature) int {
			return compareFeatures(a, b, keys)
		})
	}

	items := make([]any, len(sorted))
	if q.Fields != "" {
		fields := parseFields(q.Fields, opts)
		for i, f := range sorted {
			items[i] = project(f, fields)
		}
	} else {
		for i, f := range sorted {
			items[i] = f
		}
	}

	page := intOrDefault(q.Page, DefaultPage)
	limit := min(intOrDefault(q.Limit, DefaultLimit), MaxLimit)
	total := len(items)

	start, end := pageBounds(page, limit, total)

	return Result{
		Page:         page,
		Limit:        limit,
		Items:        items[start:end],
		TotalFetched: total,
		HasMore:      end < total,
	}
}

// pageBounds returns the slice bounds of a 1-based page, clamped to total.
// Pages past the end are detected before multiplying so huge page numbers
// cannot overflow int.
func pageBounds(page, limit, total int) (start, end int) {
	if page-1 > total/limit {
		return total, total
	}
	start = (page - 1) * limit
	return min(start, total), min(start+limit, total)
}

func parseSortKeys(expr string, opts QueryOptions) []sortKey {
	if expr == "" {
		expr = opts.DefaultSort
	}
	var keys []sortKey
	for _, tok := range splitList(expr) {
		k := sortKey{name: tok}
		if strings.HasPrefix(tok, "-") {
			k = sortKey{name: strings.TrimPrefix(tok, "-"), desc: true}
		}
		if k.name == "" || !opts.sortAllowed(k.name) {
			continue
		}
		keys = append(keys, k)
	}
	return keys
}

func parseFields(expr string, opts QueryOptions) []string {
	var fields []string
	for _, name := range splitList(expr) {
		if opts.fieldAllowed(name) {
			fields = append(fields, name)
		}
	}
	return fields
}

// sortValue resolves a logical sort key. Absent and null values both come
// back as nil.
func sortValue(f Feature, key string) any {
	switch key {
	case "time":
		v, _ := f.Property("time")
		return v
	case "magnitude", "mag":
		v, _ := f.Property("mag")
		return v
	case "depth":
		if d, ok := f.Depth(); ok {
			return d
		}
		return nil
	default:
		v, _ := f.Property(key)
		return v
	}
}

// compareFeatures orders a and b by keys in turn. Nulls sort after non-null
// values regardless of direction.
func compareFeatures(a, b Feature, keys []sortKey) int {
	for _, k := range keys {
		va, vb := sortValue(a, k.name), sortValue(b, k.name)
		switch {
		case va == nil && vb == nil:
			continue
		case va == nil:
			return 1
		case vb == nil:
			return -1
		}
		c := compareValues(va, vb)
		if k.desc {
			c = -c
		}
		if c != 0 {
			return c
		}
	}
	return 0
}

// compareValues orders two non-nil property values. Values of different kinds
// order numbers before strings before booleans; anything else compares equal.
func compareValues(a, b any) int {
	ra, rb := valueRank(a), valueRank(b)
	if ra != rb {
		return cmp.Compare(ra, rb)
	}
	switch ra {
	case rankNumber:
		fa, _ := toFloat(a)
		fb, _ := toFloat(b)
		return cmp.Compare(fa, fb)
	case rankString:
		return strings.Compare(a.(string), b.(string))
	case rankBool:
		ba, bb := a.(bool), b.(bool)
		switch {
		case ba == bb:
			return 0
		case !ba:
			return -1
		default:
			return 1
		}
	}
	return 0
}

const (
	rankNumber = iota
	rankString
	rankBool
	rankOther
)

func valueRank(v any) int {
	if _, ok := toFloat(v); ok {
		return rankNumber
	}
	switch v.(type) {
	case string:
		return rankString
	case bool:
		return rankBool
	}
	return rankOther
}

// project builds the client-facing record for the requested fields. A field
// whose source is absent is omitted; an explicit null is kept.
func project(f Feature, fields []string) map[string]any {
	out := make(map[string]any, len(fields))
	for _, name := range fields {
		switch name {
		case "time":
			if v, ok := f.Property("time"); ok {
				out["time"] = v
			}
		case "magnitude":
			if v, ok := f.Property("mag"); ok {
				out["magnitude"] = v
			}
		case "depth":
			// An explicit null depth projects as null, like a null mag.
			if len(f.Geometry.Coordinates) > coordDepth {
				if d, ok := f.Depth(); ok {
					out["depth"] = d
				} else {
					out["depth"] = nil
				}
			}
		case "place":
			if v, ok := f.Property("place"); ok {
				out["place"] = v
			}
		case "coordinates":
			if f.Geometry.Coordinates != nil {
				out["coordinates"] = cloneCoordinates(f.Geometry.Coordinates)
			}
		default:
			if v, ok := f.Property(name); ok {
				out[name] = v
			}
		}
	}
	return out
}
