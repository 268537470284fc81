package constants

import "time"

// Image sources
const (
	SourceLocal = "local"
	SourceURL   = "url"
)

// GPS sources
const (
	GPSSourceExif = "exif"
	GPSSourceNMEA = "nmea"
)

// Analyzer names, also the report keys they fill.
const (
	AnalyzerColors  = "dominant_colors"
	AnalyzerEdges   = "edges"
	AnalyzerText    = "text"
	AnalyzerObjects = "objects"

	AnalyzerReverseLookup = "reverse_lookup"
)

const (
	DefaultReportFile = "imgmapon_results.json"
	DefaultMapFile    = "imgmapon_map.html"
	DefaultConfigFile = "configs/config.yaml"

	DefaultPublicIPEndpoint      = "https://ipapi.co/ip/"
	DefaultReverseLookupEndpoint = "https://www.google.com/searchbyimage"

	DefaultHTTPTimeout          = 10 * time.Second
	DefaultDownloadTimeout      = 20 * time.Second
	DefaultMaxAttempts          = 3
	DefaultRetryDelay           = time.Second
	DefaultTrackMaxGap          = 5 * time.Minute
	DefaultAnalyzerTimeout      = 60 * time.Second
	DefaultAnalyzerWorkers      = 4
	DefaultReverseLookupTimeout = 5 * time.Second
	DefaultCacheTTL             = 24 * time.Hour
	DefaultMaxColors            = 5
	DefaultThumbnailMaxSide     = 300
	DefaultTextSnippetLimit     = 1000
	SummaryTextLimit            = 500
)
