package location

import "context"

// Provider wraps exactly one external geocoding or geolocation service.
// Call must return either a normalized result or a *ProviderError.
type Provider[Q any, R any] interface {
	Name() string
	Call(ctx context.Context, query Q) (R, error)
}

// ReverseGeocoder resolves a camera point into an address.
type ReverseGeocoder = Provider[GeoPoint, LocationResult]

// IPGeolocator resolves a host IP into an approximate location.
type IPGeolocator = Provider[string, IPLocationResult]
