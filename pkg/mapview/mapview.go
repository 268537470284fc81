// Package mapview renders a CorrelationResult as a self-contained Leaflet page.
package mapview

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"

	"github.com/benmeehan/imgmapon/pkg/location"
)

//go:embed templates/map.html.tmpl
var templateFS embed.FS

var mapTemplate = template.Must(template.ParseFS(templateFS, "templates/map.html.tmpl"))

type marker struct {
	Point   location.GeoPoint
	Color   string
	Tooltip string
	Popup   string
}

type page struct {
	Title         string
	Center        location.GeoPoint
	Markers       []marker
	Line          bool
	Midpoint      location.GeoPoint
	DistanceLabel string
}

// Render builds the HTML for result. ok is false when neither location is
// present, in which case nothing should be written.
func Render(result location.CorrelationResult) ([]byte, bool, error) {
	p, ok := build(result)
	if !ok {
		return nil, false, nil
	}

	var buf bytes.Buffer
	if err := mapTemplate.Execute(&buf, p); err != nil {
		return nil, false, fmt.Errorf("failed to render map: %w", err)
	}
	return buf.Bytes(), true, nil
}

// WriteFile renders result to path and returns the absolute path written.
// Without coordinates it writes nothing and returns "".
func WriteFile(result location.CorrelationResult, path string) (string, error) {
	html, ok, err := Render(result)
	if err != nil || !ok {
		return "", err
	}

	if err := os.WriteFile(path, html, 0o644); err != nil {
		return "", fmt.Errorf("failed to write map: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return path, nil
	}
	return abs, nil
}

func build(result location.CorrelationResult) (page, bool) {
	points := result.Points()
	if !result.HasSpatial() || len(points) == 0 {
		return page{}, false
	}

	p := page{Title: "IMG MAPON location map"}

	if gps := result.GPSLocation; gps != nil {
		p.Markers = append(p.Markers, marker{
			Point:   gps.Point,
			Color:   "blue",
			Tooltip: "Photo GPS location",
			Popup:   "Photo location: " + gps.Address,
		})
	}
	if ip := result.IPLocation; ip != nil {
		popup := strings.TrimSpace("Server/IP location: " + ip.IP + " " + ip.Org)
		p.Markers = append(p.Markers, marker{
			Point:   ip.Point,
			Color:   "red",
			Tooltip: "Image host/server location",
			Popup:   popup,
		})
	}

	var lat, lon float64
	for _, pt := range points {
		lat += pt.Latitude
		lon += pt.Longitude
	}
	p.Center = location.GeoPoint{Latitude: lat / float64(len(points)), Longitude: lon / float64(len(points))}

	if len(points) == 2 && result.DistanceKm != nil {
		p.Line = true
		p.Midpoint = location.GeoPoint{
			Latitude:  (points[0].Latitude + points[1].Latitude) / 2,
			Longitude: (points[0].Longitude + points[1].Longitude) / 2,
		}
		p.DistanceLabel = fmt.Sprintf("Distance: %.2f km", *result.DistanceKm)
	}

	return p, true
}
