package location

import (
	"fmt"
	"math"
)

// GeoPoint is a WGS-84 coordinate. The zero value is not a valid point;
// build points with NewGeoPoint so out-of-range or non-finite values never exist.
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// NewGeoPoint validates lat/lon and returns ok=false when either value is
// non-finite or outside [-90,90] / [-180,180].
func NewGeoPoint(lat, lon float64) (GeoPoint, bool) {
	if math.IsNaN(lat) || math.IsInf(lat, 0) || math.IsNaN(lon) || math.IsInf(lon, 0) {
		return GeoPoint{}, false
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return GeoPoint{}, false
	}
	return GeoPoint{Latitude: lat, Longitude: lon}, true
}

// String renders the point with six decimals, which is also the cache key precision.
func (p GeoPoint) String() string {
	return fmt.Sprintf("%.6f,%.6f", p.Latitude, p.Longitude)
}

// LocationResult is a normalized answer from a reverse geocoding provider.
type LocationResult struct {
	Point          GeoPoint `json:"point"`
	Address        string   `json:"address"`
	City           string   `json:"city,omitempty"`
	Region         string   `json:"region,omitempty"`
	Country        string   `json:"country,omitempty"`
	SourceProvider string   `json:"source_provider"`
}

// IPLocationResult is a normalized answer from an IP geolocation provider.
type IPLocationResult struct {
	LocationResult
	IP  string `json:"ip"`
	Org string `json:"org,omitempty"`
}

// Authority names the location that downstream consumers should treat as primary.
type Authority string

const (
	AuthorityGPS  Authority = "gps"
	AuthorityIP   Authority = "ip"
	AuthorityNone Authority = "none"
)

// CorrelationResult is the reconciled view of the camera and host locations.
// It owns copies of both inputs.
type CorrelationResult struct {
	GPSLocation   *LocationResult   `json:"gps_location"`
	IPLocation    *IPLocationResult `json:"ip_location"`
	DistanceKm    *float64          `json:"distance_km"`
	Authoritative Authority         `json:"authoritative"`
}

// Points returns the GPS point followed by the IP point, skipping absent ones.
func (c CorrelationResult) Points() []GeoPoint {
	var points []GeoPoint
	if c.GPSLocation != nil {
		points = append(points, c.GPSLocation.Point)
	}
	if c.IPLocation != nil {
		points = append(points, c.IPLocation.Point)
	}
	return points
}

// HasSpatial reports whether there is anything to plot.
func (c CorrelationResult) HasSpatial() bool {
	return c.Authoritative != AuthorityNone
}
