// Package domain models USGS earthquake feed data and the query pipeline
// applied to it.
//
// # Data Source
//
// Events come from the USGS FDSN event web service
// (https://earthquake.usgs.gov/fdsnws/event/1/) in GeoJSON format. A query
// returns a FeatureCollection; a query by eventid returns a bare Feature.
//
// # GeoJSON Conventions
//
// Coordinates:
//
//	[longitude, latitude, depth]  →  e.g. [-117.6, 35.7, 8.2]
//	Index 0 is longitude, index 1 latitude, index 2 depth in kilometres.
//	Depth may be missing for some networks.
//
// Properties:
//
//	time   epoch milliseconds (UTC) of the origin time
//	mag    magnitude; null when the network has not computed one yet
//	place  human readable location, e.g. "10 km SSW of Ridgecrest, CA"
//
// All other provider properties (tsunami, sig, net, type, ...) are kept
// verbatim and addressable by name.
//
// # Query Pipeline
//
// Every listing endpoint funnels its features through [Process]: sort by a
// whitelisted key expression, optionally project fields, then paginate. Logical
// keys decouple the client-facing syntax from the provider schema:
//
//	sort key     source path
//	time         properties.time
//	magnitude    properties.mag   (alias: mag)
//	depth        geometry.coordinates[2]
//	<other>      properties.<other>
//
// Projection uses the same table except that "mag" is not an alias; the
// projected key for properties.mag is always "magnitude".
//
// A null coordinate (for example an unknown depth) is absent for sorting and
// filtering, and projects as null.
//
// The pipeline is permissive: unknown keys are dropped and malformed numbers
// fall back to defaults. It never returns an error.
package domain
