package models

import "github.com/benmeehan/imgmapon/internal/constants"

// AnalysisRequest is one CLI invocation's worth of work.
type AnalysisRequest struct {
	ImagePath string
	ImageURL  string

	Metadata bool
	Colors   bool
	Edges    bool
	Text     bool
	Objects  bool
	Map      bool

	// ReverseLookup runs a reverse image search; URL sources only.
	ReverseLookup bool

	GPSTrackPath string
	OutputPath   string
	MapPath      string
}

// EnabledAnalyzers lists the content analyzers the request asks for.
func (r AnalysisRequest) EnabledAnalyzers() []string {
	var names []string
	for _, a := range []struct {
		name string
		on   bool
	}{
		{constants.AnalyzerColors, r.Colors},
		{constants.AnalyzerEdges, r.Edges},
		{constants.AnalyzerText, r.Text},
		{constants.AnalyzerObjects, r.Objects},
		{constants.AnalyzerReverseLookup, r.ReverseLookup && r.ImageURL != ""},
	} {
		if a.on {
			names = append(names, a.name)
		}
	}
	return names
}

// AnalyzerError is what a failed analyzer leaves in its report slot.
type AnalyzerError struct {
	Error string `json:"error"`
}
