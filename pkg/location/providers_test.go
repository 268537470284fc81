package location

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"googlemaps.github.io/maps"
)

func serveJSON(t *testing.T, status int, body string, check func(r *http.Request)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			check(r)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func requireKind(t *testing.T, err error, kind FailureKind) *ProviderError {
	t.Helper()
	var perr *ProviderError
	require.True(t, errors.As(err, &perr), "expected *ProviderError, got %v", err)
	assert.Equal(t, kind, perr.Kind)
	return perr
}

func TestNominatim_Success(t *testing.T) {
	srv := serveJSON(t, http.StatusOK, `{
		"lat": "48.8566", "lon": "2.3522",
		"display_name": "Hôtel de Ville, Paris, France",
		"address": {"town": "Paris", "state": "Île-de-France", "country": "France"}
	}`, func(r *http.Request) {
		assert.Equal(t, "/reverse", r.URL.Path)
		assert.Equal(t, "jsonv2", r.URL.Query().Get("format"))
		assert.Equal(t, "imgmapon-test", r.Header.Get("User-Agent"))
	})
	n := NewNominatimProvider(srv.Client(), "imgmapon-test", "en")
	n.baseURL = srv.URL

	result, err := n.Call(context.Background(), paris)

	require.NoError(t, err)
	assert.Equal(t, paris, result.Point)
	assert.Equal(t, "Hôtel de Ville, Paris, France", result.Address)
	assert.Equal(t, "Paris", result.City)
	assert.Equal(t, "Île-de-France", result.Region)
	assert.Equal(t, "France", result.Country)
	assert.Equal(t, ProviderNominatim, result.SourceProvider)
}

func TestNominatim_ErrorPayload(t *testing.T) {
	srv := serveJSON(t, http.StatusOK, `{"error": "Unable to geocode"}`, nil)
	n := NewNominatimProvider(srv.Client(), "ua", "")
	n.baseURL = srv.URL

	_, err := n.Call(context.Background(), paris)

	requireKind(t, err, FailureNotFound)
}

func TestNominatim_MissingCoordinates(t *testing.T) {
	srv := serveJSON(t, http.StatusOK, `{"lat": "not-a-number", "display_name": "x"}`, nil)
	n := NewNominatimProvider(srv.Client(), "ua", "")
	n.baseURL = srv.URL

	_, err := n.Call(context.Background(), paris)

	requireKind(t, err, FailureIncomplete)
}

func TestFetchJSON_StatusClassification(t *testing.T) {
	tests := []struct {
		status    int
		body      string
		kind      FailureKind
		transient bool
	}{
		{http.StatusNotFound, `{}`, FailureNotFound, false},
		{http.StatusTooManyRequests, `{}`, FailureRateLimited, false},
		{http.StatusForbidden, `{}`, FailureHTTP, false},
		{http.StatusBadGateway, `{}`, FailureHTTP, true},
		{http.StatusOK, `{not json`, FailureMalformed, true},
	}

	for _, tt := range tests {
		srv := serveJSON(t, tt.status, tt.body, nil)
		var out map[string]any

		err := fetchJSON(context.Background(), srv.Client(), "p", srv.URL, nil, &out)

		perr := requireKind(t, err, tt.kind)
		assert.Equal(t, tt.transient, perr.Transient(), "status %d", tt.status)
	}
}

func TestFetchJSON_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	t.Cleanup(srv.Close)
	client := &http.Client{Timeout: 20 * time.Millisecond}
	var out map[string]any

	err := fetchJSON(context.Background(), client, "p", srv.URL, nil, &out)

	perr := requireKind(t, err, FailureTimeout)
	assert.True(t, perr.Transient())
}

func TestPhoton_Success(t *testing.T) {
	srv := serveJSON(t, http.StatusOK, `{"features": [{
		"geometry": {"coordinates": [2.3522, 48.8566]},
		"properties": {"name": "Hôtel de Ville", "street": "Place de l'Hôtel de Ville", "postcode": "75004", "city": "Paris", "state": "Île-de-France", "country": "France"}
	}]}`, nil)
	ph := NewPhotonProvider(srv.Client(), "ua", "")
	ph.baseURL = srv.URL

	result, err := ph.Call(context.Background(), paris)

	require.NoError(t, err)
	assert.Equal(t, "Hôtel de Ville, Place de l'Hôtel de Ville, 75004 Paris, Île-de-France, France", result.Address)
	assert.Equal(t, "Paris", result.City)
	assert.Equal(t, ProviderPhoton, result.SourceProvider)
}

func TestPhoton_NoFeatures(t *testing.T) {
	srv := serveJSON(t, http.StatusOK, `{"features": []}`, nil)
	ph := NewPhotonProvider(srv.Client(), "ua", "")
	ph.baseURL = srv.URL

	_, err := ph.Call(context.Background(), paris)

	requireKind(t, err, FailureNotFound)
}

func TestCoordinateProvider(t *testing.T) {
	result, err := CoordinateProvider{}.Call(context.Background(), paris)

	require.NoError(t, err)
	assert.Equal(t, paris, result.Point)
	assert.Equal(t, AddressNotFound, result.Address)
	assert.Equal(t, ProviderCoordinates, result.SourceProvider)
}

type fakeGoogleClient struct {
	results []maps.GeocodingResult
	err     error
}

func (f fakeGoogleClient) ReverseGeocode(_ context.Context, _ *maps.GeocodingRequest) ([]maps.GeocodingResult, error) {
	return f.results, f.err
}

func TestGoogle_Success(t *testing.T) {
	g := &GoogleProvider{client: fakeGoogleClient{results: []maps.GeocodingResult{{
		FormattedAddress: "Place de l'Hôtel de Ville, 75004 Paris, France",
		Geometry:         maps.AddressGeometry{Location: maps.LatLng{Lat: 48.8566, Lng: 2.3522}},
		AddressComponents: []maps.AddressComponent{
			{LongName: "Paris", Types: []string{"locality", "political"}},
			{LongName: "Île-de-France", Types: []string{"administrative_area_level_1", "political"}},
			{LongName: "France", Types: []string{"country", "political"}},
		},
	}}}}

	result, err := g.Call(context.Background(), paris)

	require.NoError(t, err)
	assert.Equal(t, "Paris", result.City)
	assert.Equal(t, "Île-de-France", result.Region)
	assert.Equal(t, "France", result.Country)
	assert.Equal(t, ProviderGoogle, result.SourceProvider)
}

func TestGoogle_ErrorClassification(t *testing.T) {
	tests := map[string]FailureKind{
		"maps: ZERO_RESULTS - ":      FailureNotFound,
		"maps: OVER_QUERY_LIMIT - x": FailureRateLimited,
		"maps: REQUEST_DENIED - key": FailureHTTP,
		"connection reset":           FailureTimeout,
	}

	for msg, kind := range tests {
		g := &GoogleProvider{client: fakeGoogleClient{err: errors.New(msg)}}

		_, err := g.Call(context.Background(), paris)

		perr := requireKind(t, err, kind)
		if kind == FailureHTTP {
			assert.False(t, perr.Transient())
		}
	}
}

func TestGoogle_ZeroResults(t *testing.T) {
	g := &GoogleProvider{client: fakeGoogleClient{}}

	_, err := g.Call(context.Background(), paris)

	requireKind(t, err, FailureNotFound)
}

func TestIPAPI(t *testing.T) {
	srv := serveJSON(t, http.StatusOK, `{"ip":"203.0.113.7","latitude":40.7128,"longitude":-74.006,"city":"New York","region":"New York","country_name":"United States","org":"AS64500 Example"}`,
		func(r *http.Request) { assert.Equal(t, "/203.0.113.7/json/", r.URL.Path) })
	p := NewIPAPIProvider(srv.Client(), "ua")
	p.baseURL = srv.URL

	result, err := p.Call(context.Background(), "203.0.113.7")

	require.NoError(t, err)
	assert.Equal(t, newYork, result.Point)
	assert.Equal(t, "203.0.113.7", result.IP)
	assert.Equal(t, "New York, New York, United States", result.Address)
	assert.Equal(t, "AS64500 Example", result.Org)
	assert.Equal(t, ProviderIPAPI, result.SourceProvider)
}

func TestIPAPI_RateLimitPayload(t *testing.T) {
	srv := serveJSON(t, http.StatusOK, `{"error": true, "reason": "RateLimited"}`, nil)
	p := NewIPAPIProvider(srv.Client(), "ua")
	p.baseURL = srv.URL

	_, err := p.Call(context.Background(), "203.0.113.7")

	perr := requireKind(t, err, FailureRateLimited)
	assert.False(t, perr.Transient())
}

func TestIPWhois(t *testing.T) {
	srv := serveJSON(t, http.StatusOK, `{"success":true,"latitude":"40.7128","longitude":"-74.006","city":"New York","country":"United States","connection":{"isp":"Example ISP"}}`, nil)
	p := NewIPWhoisProvider(srv.Client(), "ua")
	p.baseURL = srv.URL

	result, err := p.Call(context.Background(), "203.0.113.7")

	require.NoError(t, err)
	assert.Equal(t, newYork, result.Point)
	assert.Equal(t, "Example ISP", result.Org)

	fail := serveJSON(t, http.StatusOK, `{"success":false,"message":"Invalid IP address"}`, nil)
	p.baseURL = fail.URL
	_, err = p.Call(context.Background(), "x")
	requireKind(t, err, FailureRateLimited)
}

func TestIPAPICom(t *testing.T) {
	srv := serveJSON(t, http.StatusOK, `{"status":"success","lat":40.7128,"lon":-74.006,"city":"New York","regionName":"New York","country":"United States","isp":"Example"}`,
		func(r *http.Request) { assert.Equal(t, "/json/203.0.113.7", r.URL.Path) })
	p := NewIPAPIComProvider(srv.Client(), "ua")
	p.baseURL = srv.URL

	result, err := p.Call(context.Background(), "203.0.113.7")

	require.NoError(t, err)
	assert.Equal(t, "New York", result.Region)
	assert.Equal(t, "Example", result.Org)

	fail := serveJSON(t, http.StatusOK, `{"status":"fail","message":"reserved range"}`, nil)
	p.baseURL = fail.URL
	_, err = p.Call(context.Background(), "10.0.0.1")
	requireKind(t, err, FailureRateLimited)
}

func TestIPInfo(t *testing.T) {
	srv := serveJSON(t, http.StatusOK, `{"ip":"203.0.113.7","loc":"40.7128,-74.0060","city":"New York","region":"New York","country":"US","org":"AS64500"}`,
		func(r *http.Request) { assert.Equal(t, "secret", r.URL.Query().Get("token")) })
	p := NewIPInfoProvider(srv.Client(), "ua", "secret")
	p.baseURL = srv.URL

	result, err := p.Call(context.Background(), "203.0.113.7")

	require.NoError(t, err)
	assert.Equal(t, newYork, result.Point)
	assert.Equal(t, "US", result.Country)
}

func TestIPInfo_Failures(t *testing.T) {
	tests := []struct {
		body string
		kind FailureKind
	}{
		{`{"bogon": true}`, FailureNotFound},
		{`{"error": {"title": "Rate limit exceeded", "message": "Upgrade"}}`, FailureRateLimited},
		{`{"loc": "40.7128"}`, FailureIncomplete},
		{`{"city": "Nowhere"}`, FailureIncomplete},
	}

	for _, tt := range tests {
		srv := serveJSON(t, http.StatusOK, tt.body, nil)
		p := NewIPInfoProvider(srv.Client(), "ua", "")
		p.baseURL = srv.URL

		_, err := p.Call(context.Background(), "203.0.113.7")

		requireKind(t, err, tt.kind)
	}
}

func TestFactory_ReverseGeocoders(t *testing.T) {
	names := []string{ProviderNominatim, ProviderPhoton, ProviderGoogle}

	providers, err := ReverseGeocoders(names, ProviderSettings{UserAgent: "ua", CoordinateFallback: true}, http.DefaultClient)
	require.NoError(t, err)

	var got []string
	for _, p := range providers {
		got = append(got, p.Name())
	}
	assert.Equal(t, []string{ProviderNominatim, ProviderPhoton, ProviderCoordinates}, got)

	providers, err = ReverseGeocoders([]string{ProviderNominatim, ProviderCoordinates}, ProviderSettings{}, http.DefaultClient)
	require.NoError(t, err)
	assert.Len(t, providers, 1)

	_, err = ReverseGeocoders([]string{"bing"}, ProviderSettings{}, http.DefaultClient)
	assert.Error(t, err)
}

func TestFactory_IPGeolocators(t *testing.T) {
	providers, err := IPGeolocators([]string{ProviderIPAPI, ProviderIPWhois, ProviderIPAPICom, ProviderIPInfo}, ProviderSettings{}, http.DefaultClient)
	require.NoError(t, err)
	assert.Len(t, providers, 4)
	assert.Equal(t, ProviderIPInfo, providers[3].Name())

	_, err = IPGeolocators([]string{"maxmind"}, ProviderSettings{}, http.DefaultClient)
	assert.Error(t, err)
}
