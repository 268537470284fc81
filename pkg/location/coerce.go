package location

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// coord is a latitude or longitude as providers send it: a JSON number, a
// numeric string, or null. Values that cannot be coerced stay unset so the
// adapter reports FailureIncomplete instead of failing to decode.
type coord struct {
	value float64
	set   bool
}

func (c *coord) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}

	raw := string(b)
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
		raw = strings.TrimSpace(s)
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	c.value, c.set = v, true
	return nil
}

// pointFrom builds a GeoPoint only when both coordinates are usable.
func pointFrom(lat, lon coord) (GeoPoint, bool) {
	if !lat.set || !lon.set {
		return GeoPoint{}, false
	}
	return NewGeoPoint(lat.value, lon.value)
}

// splitLatLon parses a combined "lat,lon" field.
func splitLatLon(loc string) (GeoPoint, bool) {
	parts := strings.Split(loc, ",")
	if len(parts) != 2 {
		return GeoPoint{}, false
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return GeoPoint{}, false
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return GeoPoint{}, false
	}
	return NewGeoPoint(lat, lon)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
