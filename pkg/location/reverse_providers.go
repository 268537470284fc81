package location

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const (
	ProviderNominatim   = "nominatim"
	ProviderPhoton      = "photon"
	ProviderGoogle      = "google"
	ProviderCoordinates = "coordinates"

	defaultNominatimURL = "https://nominatim.openstreetmap.org"
	defaultPhotonURL    = "https://photon.komoot.io"

	// AddressNotFound is the address reported when only coordinates are known.
	AddressNotFound = "Not found"
)

// NominatimProvider reverse geocodes against OpenStreetMap Nominatim.
type NominatimProvider struct {
	client    *http.Client
	baseURL   string
	userAgent string
	language  string
}

// nominatimResponse is the jsonv2 reverse schema.
type nominatimResponse struct {
	Error       string `json:"error"`
	Lat         coord  `json:"lat"`
	Lon         coord  `json:"lon"`
	DisplayName string `json:"display_name"`
	Address     struct {
		City          string `json:"city"`
		Town          string `json:"town"`
		Village       string `json:"village"`
		StateDistrict string `json:"state_district"`
		State         string `json:"state"`
		Country       string `json:"country"`
	} `json:"address"`
}

// NewNominatimProvider creates a Nominatim adapter. Nominatim rejects
// requests without an identifying User-Agent.
func NewNominatimProvider(client *http.Client, userAgent, language string) *NominatimProvider {
	return &NominatimProvider{
		client:    client,
		baseURL:   defaultNominatimURL,
		userAgent: userAgent,
		language:  language,
	}
}

func (n *NominatimProvider) Name() string { return ProviderNominatim }

func (n *NominatimProvider) Call(ctx context.Context, p GeoPoint) (LocationResult, error) {
	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("lat", fmt.Sprintf("%f", p.Latitude))
	q.Set("lon", fmt.Sprintf("%f", p.Longitude))
	q.Set("addressdetails", "1")
	if n.language != "" {
		q.Set("accept-language", n.language)
	}

	var resp nominatimResponse
	headers := map[string]string{"User-Agent": n.userAgent}
	if err := fetchJSON(ctx, n.client, n.Name(), n.baseURL+"/reverse?"+q.Encode(), headers, &resp); err != nil {
		return LocationResult{}, err
	}
	return resp.normalize(p)
}

func (r nominatimResponse) normalize(query GeoPoint) (LocationResult, error) {
	if r.Error != "" {
		return LocationResult{}, &ProviderError{Kind: FailureNotFound, Provider: ProviderNominatim, Err: fmt.Errorf("%s", r.Error)}
	}
	if _, ok := pointFrom(r.Lat, r.Lon); !ok {
		return LocationResult{}, newProviderError(ProviderNominatim, FailureIncomplete, fmt.Errorf("response has no usable lat/lon"))
	}

	return LocationResult{
		Point:          query,
		Address:        firstNonEmpty(r.DisplayName, AddressNotFound),
		City:           firstNonEmpty(r.Address.City, r.Address.Town, r.Address.Village, r.Address.StateDistrict),
		Region:         r.Address.State,
		Country:        r.Address.Country,
		SourceProvider: ProviderNominatim,
	}, nil
}

// PhotonProvider reverse geocodes against komoot Photon (GeoJSON answers).
type PhotonProvider struct {
	client    *http.Client
	baseURL   string
	userAgent string
	language  string
}

type photonResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates []coord `json:"coordinates"` // [lon, lat]
		} `json:"geometry"`
		Properties struct {
			Name        string `json:"name"`
			Street      string `json:"street"`
			HouseNumber string `json:"housenumber"`
			Postcode    string `json:"postcode"`
			City        string `json:"city"`
			District    string `json:"district"`
			County      string `json:"county"`
			State       string `json:"state"`
			Country     string `json:"country"`
		} `json:"properties"`
	} `json:"features"`
}

// NewPhotonProvider creates a Photon adapter.
func NewPhotonProvider(client *http.Client, userAgent, language string) *PhotonProvider {
	return &PhotonProvider{
		client:    client,
		baseURL:   defaultPhotonURL,
		userAgent: userAgent,
		language:  language,
	}
}

func (ph *PhotonProvider) Name() string { return ProviderPhoton }

func (ph *PhotonProvider) Call(ctx context.Context, p GeoPoint) (LocationResult, error) {
	q := url.Values{}
	q.Set("lat", fmt.Sprintf("%f", p.Latitude))
	q.Set("lon", fmt.Sprintf("%f", p.Longitude))
	if ph.language != "" {
		q.Set("lang", ph.language)
	}

	var resp photonResponse
	headers := map[string]string{"User-Agent": ph.userAgent}
	if err := fetchJSON(ctx, ph.client, ph.Name(), ph.baseURL+"/reverse?"+q.Encode(), headers, &resp); err != nil {
		return LocationResult{}, err
	}
	return resp.normalize(p)
}

func (r photonResponse) normalize(query GeoPoint) (LocationResult, error) {
	if len(r.Features) == 0 {
		return LocationResult{}, newProviderError(ProviderPhoton, FailureNotFound, fmt.Errorf("no features"))
	}
	f := r.Features[0]
	if len(f.Geometry.Coordinates) < 2 {
		return LocationResult{}, newProviderError(ProviderPhoton, FailureIncomplete, fmt.Errorf("feature has no coordinates"))
	}
	if _, ok := pointFrom(f.Geometry.Coordinates[1], f.Geometry.Coordinates[0]); !ok {
		return LocationResult{}, newProviderError(ProviderPhoton, FailureIncomplete, fmt.Errorf("feature coordinates out of range"))
	}

	props := f.Properties
	street := strings.TrimSpace(props.Street + " " + props.HouseNumber)
	locality := strings.TrimSpace(props.Postcode + " " + props.City)
	var parts []string
	for _, part := range []string{props.Name, street, locality, props.State, props.Country} {
		if part != "" {
			parts = append(parts, part)
		}
	}

	return LocationResult{
		Point:          query,
		Address:        firstNonEmpty(strings.Join(parts, ", "), AddressNotFound),
		City:           firstNonEmpty(props.City, props.District, props.County),
		Region:         props.State,
		Country:        props.Country,
		SourceProvider: ProviderPhoton,
	}, nil
}

// CoordinateProvider is the last-resort reverse geocoder: it never fails and
// keeps the camera point without an address.
type CoordinateProvider struct{}

func (CoordinateProvider) Name() string { return ProviderCoordinates }

func (CoordinateProvider) Call(_ context.Context, p GeoPoint) (LocationResult, error) {
	return LocationResult{
		Point:          p,
		Address:        AddressNotFound,
		SourceProvider: ProviderCoordinates,
	}, nil
}
