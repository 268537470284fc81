package services

import (
	"fmt"
	"io"
	"strings"

	"github.com/benmeehan/imgmapon/internal/analyzers"
	"github.com/benmeehan/imgmapon/internal/constants"
	"github.com/benmeehan/imgmapon/internal/models"
	"github.com/benmeehan/imgmapon/pkg/location"
)

const notAvailable = "not available"

// PrintSummary writes the human-readable digest of report to w.
func PrintSummary(w io.Writer, report *models.Report, reportPath string) {
	fmt.Fprintf(w, "=== %s summary (run %s) ===\n", strings.ToUpper(constants.ToolName), report.RunID)

	switch report.Source {
	case constants.SourceURL:
		fmt.Fprintf(w, "Source: %s\n", report.ImageURL)
	default:
		fmt.Fprintf(w, "Source: %s\n", report.ImagePath)
	}
	if report.HostIP != "" {
		fmt.Fprintf(w, "Host IP: %s\n", report.HostIP)
	}

	if m := report.Metadata; m != nil {
		fmt.Fprintf(w, "Format: %s\n", m.Format)
		fmt.Fprintf(w, "Mode: %s\n", m.Mode)
		fmt.Fprintf(w, "Size: %dx%d\n", m.Size[0], m.Size[1])
	}

	if report.GPSLocation != nil {
		fmt.Fprintf(w, "GPS location: %s\n", describeLocation(*report.GPSLocation))
		if report.GPSSource != "" {
			fmt.Fprintf(w, "GPS source: %s\n", report.GPSSource)
		}
	} else {
		fmt.Fprintf(w, "GPS location: %s\n", notAvailable)
	}

	if report.IPLocation != nil {
		fmt.Fprintf(w, "IP location: %s [%s]\n", describeLocation(report.IPLocation.LocationResult), report.IPLocation.IP)
	} else {
		fmt.Fprintf(w, "IP location: %s\n", notAvailable)
	}

	if report.MapDistanceKm != nil {
		fmt.Fprintf(w, "Distance: %.2f km\n", *report.MapDistanceKm)
	}
	fmt.Fprintf(w, "Authoritative: %s\n", report.Authoritative)

	switch v := report.Objects.(type) {
	case []analyzers.Detection:
		labels := make([]string, 0, len(v))
		for _, d := range v {
			labels = append(labels, fmt.Sprintf("%s (%.2f)", d.Label, d.Confidence))
		}
		if len(labels) == 0 {
			labels = append(labels, "none")
		}
		fmt.Fprintf(w, "Objects: %s\n", strings.Join(labels, ", "))
	case models.AnalyzerError:
		fmt.Fprintf(w, "Objects: error: %s\n", v.Error)
	}

	switch v := report.Text.(type) {
	case analyzers.TextResult:
		excerpt := []rune(v.Text)
		if len(excerpt) > constants.SummaryTextLimit {
			excerpt = excerpt[:constants.SummaryTextLimit]
		}
		fmt.Fprintf(w, "Text: %s\n", string(excerpt))
	case models.AnalyzerError:
		fmt.Fprintf(w, "Text: error: %s\n", v.Error)
	}

	switch v := report.ReverseLookup.(type) {
	case analyzers.ReverseLookupResult:
		fmt.Fprintf(w, "Reverse lookup: %s (best guess: %s)\n", v.Title, v.BestGuess)
	case models.AnalyzerError:
		fmt.Fprintf(w, "Reverse lookup: error: %s\n", v.Error)
	}

	if report.MapFile != "" {
		fmt.Fprintf(w, "Map: %s\n", report.MapFile)
	}
	fmt.Fprintf(w, "Report: %s\n", reportPath)
}

func describeLocation(l location.LocationResult) string {
	return fmt.Sprintf("%s (%.6f, %.6f) via %s", l.Address, l.Point.Latitude, l.Point.Longitude, l.SourceProvider)
}
