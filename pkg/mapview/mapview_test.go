package mapview

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/benmeehan/imgmapon/pkg/location"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	paris   = location.GeoPoint{Latitude: 48.8566, Longitude: 2.3522}
	newYork = location.GeoPoint{Latitude: 40.7128, Longitude: -74.006}
)

func TestRender_NoCoordinatesDeclines(t *testing.T) {
	html, ok, err := Render(location.Reconcile(nil, nil))

	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, html)

	path := filepath.Join(t.TempDir(), "map.html")
	written, err := WriteFile(location.Reconcile(nil, nil), path)
	require.NoError(t, err)
	assert.Empty(t, written)
	assert.NoFileExists(t, path)
}

func TestRender_BothLocations(t *testing.T) {
	result := location.Reconcile(
		&location.LocationResult{Point: paris, Address: "Paris <France>"},
		&location.IPLocationResult{LocationResult: location.LocationResult{Point: newYork}, IP: "203.0.113.7", Org: "Example"},
	)

	html, ok, err := Render(result)

	require.NoError(t, err)
	require.True(t, ok)
	out := string(html)
	assert.Contains(t, out, "L.polyline")
	assert.Contains(t, out, "Distance: 58")
	assert.Contains(t, out, "Photo GPS location")
	assert.Contains(t, out, "Image host/server location")
	assert.NotContains(t, out, "Paris <France>")
	assert.Contains(t, out, "fitBounds")
}

func TestRender_SingleLocation(t *testing.T) {
	result := location.Reconcile(nil, &location.IPLocationResult{LocationResult: location.LocationResult{Point: newYork}, IP: "203.0.113.7"})

	html, ok, err := Render(result)

	require.NoError(t, err)
	require.True(t, ok)
	assert.NotContains(t, string(html), "L.polyline")
	assert.Contains(t, string(html), "40.7128")
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "map.html")
	result := location.Reconcile(&location.LocationResult{Point: paris, Address: "Paris"}, nil)

	written, err := WriteFile(result, path)

	require.NoError(t, err)
	assert.Equal(t, path, written)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "leaflet")
}
