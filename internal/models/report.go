package models

import (
	"time"

	"github.com/benmeehan/imgmapon/internal/constants"
	"github.com/benmeehan/imgmapon/pkg/file"
	"github.com/benmeehan/imgmapon/pkg/identity"
	"github.com/benmeehan/imgmapon/pkg/imagemeta"
	"github.com/benmeehan/imgmapon/pkg/location"
)

// Tool identifies the program that produced a report.
type Tool struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Report is the JSON document written after every analysis run. Location
// fields are always present (null when unknown); analysis fields only when
// the corresponding analysis was requested.
type Report struct {
	RunID       string    `json:"run_id"`
	Tool        Tool      `json:"tool"`
	GeneratedAt time.Time `json:"generated_at"`

	Source    string `json:"source"`
	ImagePath string `json:"image_path,omitempty"`
	ImageURL  string `json:"image_url,omitempty"`
	HostIP    string `json:"host_ip,omitempty"`

	Hashes      *file.Hashes          `json:"hashes,omitempty"`
	Environment *identity.Environment `json:"environment,omitempty"`

	Metadata  *imagemeta.Metadata `json:"metadata,omitempty"`
	GPS       map[string]string   `json:"gps,omitempty"`
	GPSSource string              `json:"gps_source,omitempty"`

	GPSLocation   *location.LocationResult   `json:"gps_location"`
	IPLocation    *location.IPLocationResult `json:"ip_location"`
	Authoritative location.Authority         `json:"authoritative"`
	MapDistanceKm *float64                   `json:"_map_distance_km"`

	DominantColors any `json:"dominant_colors,omitempty"`
	Edges          any `json:"edges,omitempty"`
	Text           any `json:"text,omitempty"`
	Objects        any `json:"objects,omitempty"`
	ReverseLookup  any `json:"reverse_lookup,omitempty"`

	MapFile string `json:"map_file,omitempty"`
}

// NewReport starts a report for one run.
func NewReport(runID string, now time.Time) *Report {
	return &Report{
		RunID:         runID,
		Tool:          Tool{Name: constants.ToolName, Version: constants.ToolVersion().String()},
		GeneratedAt:   now.UTC(),
		Authoritative: location.AuthorityNone,
	}
}

// ApplyCorrelation copies the reconciled locations into the report.
func (r *Report) ApplyCorrelation(c location.CorrelationResult) {
	r.GPSLocation = c.GPSLocation
	r.IPLocation = c.IPLocation
	r.Authoritative = c.Authoritative
	r.MapDistanceKm = c.DistanceKm
}

// SetAnalysis stores an analyzer's output under its report key. Unknown
// names are ignored and reported as false.
func (r *Report) SetAnalysis(name string, value any) bool {
	switch name {
	case constants.AnalyzerColors:
		r.DominantColors = value
	case constants.AnalyzerEdges:
		r.Edges = value
	case constants.AnalyzerText:
		r.Text = value
	case constants.AnalyzerObjects:
		r.Objects = value
	case constants.AnalyzerReverseLookup:
		r.ReverseLookup = value
	default:
		return false
	}
	return true
}
