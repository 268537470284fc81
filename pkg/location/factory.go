package location

import (
	"fmt"
	"net/http"
)

// ProviderSettings is what the factory needs to build adapters.
type ProviderSettings struct {
	UserAgent          string
	Language           string
	GoogleAPIKey       string
	IPInfoToken        string
	CoordinateFallback bool
}

// ReverseGeocoders builds the ordered reverse geocoding chain from provider
// names. Google is skipped without an API key; the coordinate fallback is
// appended last when enabled and not already listed.
func ReverseGeocoders(names []string, settings ProviderSettings, client *http.Client) ([]ReverseGeocoder, error) {
	var providers []ReverseGeocoder
	hasFallback := false

	for _, name := range names {
		switch name {
		case ProviderNominatim:
			providers = append(providers, NewNominatimProvider(client, settings.UserAgent, settings.Language))
		case ProviderPhoton:
			providers = append(providers, NewPhotonProvider(client, settings.UserAgent, settings.Language))
		case ProviderGoogle:
			if settings.GoogleAPIKey == "" {
				continue
			}
			g, err := NewGoogleProvider(settings.GoogleAPIKey, settings.Language, client)
			if err != nil {
				return nil, fmt.Errorf("google provider: %w", err)
			}
			providers = append(providers, g)
		case ProviderCoordinates:
			if !settings.CoordinateFallback {
				continue
			}
			providers = append(providers, CoordinateProvider{})
			hasFallback = true
		default:
			return nil, fmt.Errorf("unknown reverse geocoding provider %q", name)
		}
	}

	if settings.CoordinateFallback && !hasFallback {
		providers = append(providers, CoordinateProvider{})
	}
	return providers, nil
}

// IPGeolocators builds the ordered IP geolocation chain from provider names.
func IPGeolocators(names []string, settings ProviderSettings, client *http.Client) ([]IPGeolocator, error) {
	var providers []IPGeolocator

	for _, name := range names {
		switch name {
		case ProviderIPAPI:
			providers = append(providers, NewIPAPIProvider(client, settings.UserAgent))
		case ProviderIPWhois:
			providers = append(providers, NewIPWhoisProvider(client, settings.UserAgent))
		case ProviderIPAPICom:
			providers = append(providers, NewIPAPIComProvider(client, settings.UserAgent))
		case ProviderIPInfo:
			providers = append(providers, NewIPInfoProvider(client, settings.UserAgent, settings.IPInfoToken))
		default:
			return nil, fmt.Errorf("unknown IP geolocation provider %q", name)
		}
	}
	return providers, nil
}
