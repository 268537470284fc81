package location

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"googlemaps.github.io/maps"
)

// googleReverseClient is the slice of *maps.Client the adapter needs.
type googleReverseClient interface {
	ReverseGeocode(ctx context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error)
}

// GoogleProvider reverse geocodes with the Google Maps Geocoding API.
type GoogleProvider struct {
	client   googleReverseClient
	language string
}

// NewGoogleProvider creates a Google Maps adapter for the given API key.
func NewGoogleProvider(apiKey, language string, httpClient *http.Client) (*GoogleProvider, error) {
	c, err := maps.NewClient(maps.WithAPIKey(apiKey), maps.WithHTTPClient(httpClient))
	if err != nil {
		return nil, err
	}

	return &GoogleProvider{
		client:   c,
		language: language,
	}, nil
}

func (g *GoogleProvider) Name() string { return ProviderGoogle }

func (g *GoogleProvider) Call(ctx context.Context, p GeoPoint) (LocationResult, error) {
	req := &maps.GeocodingRequest{
		LatLng:   &maps.LatLng{Lat: p.Latitude, Lng: p.Longitude},
		Language: g.language,
	}

	results, err := g.client.ReverseGeocode(ctx, req)
	if err != nil {
		return LocationResult{}, classifyGoogleError(err)
	}
	return normalizeGoogle(p, results)
}

func normalizeGoogle(query GeoPoint, results []maps.GeocodingResult) (LocationResult, error) {
	if len(results) == 0 {
		return LocationResult{}, newProviderError(ProviderGoogle, FailureNotFound, errors.New("zero results"))
	}
	best := results[0]
	if _, ok := NewGeoPoint(best.Geometry.Location.Lat, best.Geometry.Location.Lng); !ok {
		return LocationResult{}, newProviderError(ProviderGoogle, FailureIncomplete, errors.New("result has no usable location"))
	}

	var city, postalTown, region, country string
	for _, component := range best.AddressComponents {
		for _, t := range component.Types {
			switch t {
			case "locality":
				city = component.LongName
			case "postal_town":
				postalTown = component.LongName
			case "administrative_area_level_1":
				region = component.LongName
			case "country":
				country = component.LongName
			}
		}
	}

	return LocationResult{
		Point:          query,
		Address:        firstNonEmpty(best.FormattedAddress, AddressNotFound),
		City:           firstNonEmpty(city, postalTown),
		Region:         region,
		Country:        country,
		SourceProvider: ProviderGoogle,
	}, nil
}

// classifyGoogleError maps the client library's status errors onto failure kinds.
func classifyGoogleError(err error) *ProviderError {
	if errors.Is(err, context.DeadlineExceeded) {
		return newProviderError(ProviderGoogle, FailureTimeout, err)
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "ZERO_RESULTS"):
		return newProviderError(ProviderGoogle, FailureNotFound, err)
	case strings.Contains(msg, "OVER_QUERY_LIMIT"), strings.Contains(msg, "OVER_DAILY_LIMIT"):
		return newProviderError(ProviderGoogle, FailureRateLimited, err)
	case strings.Contains(msg, "REQUEST_DENIED"), strings.Contains(msg, "INVALID_REQUEST"):
		return &ProviderError{Kind: FailureHTTP, Provider: ProviderGoogle, Status: http.StatusForbidden, Err: err}
	default:
		return newProviderError(ProviderGoogle, FailureTimeout, fmt.Errorf("google request failed: %w", err))
	}
}
