package utils

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/benmeehan/imgmapon/internal/constants"
	"github.com/benmeehan/imgmapon/pkg/file"
	"github.com/benmeehan/imgmapon/pkg/location"
	"github.com/rs/zerolog"
)

// Config represents the structure of the configuration file.
type Config struct {
	LogLevel string `yaml:"log_level"` // zerolog level name
	Requires string `yaml:"requires"`  // Tool version constraint, e.g. ">= 1.2"

	HTTP struct {
		Timeout   time.Duration `yaml:"timeout"`    // Per-request timeout for provider calls
		UserAgent string        `yaml:"user_agent"` // Overrides the default tool User-Agent
	} `yaml:"http"`

	Download struct {
		Timeout    time.Duration `yaml:"timeout"`     // Per-request timeout for image downloads
		Attempts   int           `yaml:"attempts"`    // Attempts per candidate URL
		RetryDelay time.Duration `yaml:"retry_delay"` // Delay between download attempts
	} `yaml:"download"`

	Resolver struct {
		MaxAttempts int           `yaml:"max_attempts"` // Attempts per provider on transient failures
		RetryDelay  time.Duration `yaml:"retry_delay"`  // Delay between attempts on the same provider
		Language    string        `yaml:"language"`     // Preferred address language
	} `yaml:"resolver"`

	ReverseGeocoding struct {
		Providers          []string `yaml:"providers"`           // Provider order for camera GPS
		GoogleAPIKey       string   `yaml:"google_api_key"`      // Enables the google provider
		CoordinateFallback bool     `yaml:"coordinate_fallback"` // Keep bare coordinates when no address is found
	} `yaml:"reverse_geocoding"`

	IPGeolocation struct {
		Providers        []string `yaml:"providers"`          // Provider order for host IPs
		IPInfoToken      string   `yaml:"ipinfo_token"`       // Optional ipinfo.io token
		PublicIPEndpoint string   `yaml:"public_ip_endpoint"` // Plain-text public IP service for local images
	} `yaml:"ip_geolocation"`

	GPSTrack struct {
		MaxGap time.Duration `yaml:"max_gap"` // Largest capture-time distance to a track fix
	} `yaml:"gps_track"`

	Analyzers struct {
		Workers int           `yaml:"workers"` // Concurrent analyzers
		Timeout time.Duration `yaml:"timeout"` // Per-analyzer timeout

		Colors struct {
			MaxColors        int `yaml:"max_colors"`         // Clusters, at most 8
			ThumbnailMaxSide int `yaml:"thumbnail_max_side"` // Longest side of the clustering thumbnail
		} `yaml:"colors"`

		Text struct {
			TesseractPath string `yaml:"tesseract_path"` // tesseract binary
			Language      string `yaml:"language"`       // tesseract -l value
			SnippetLimit  int    `yaml:"snippet_limit"`  // Characters kept in the snippet
		} `yaml:"text"`

		Objects struct {
			Command       []string `yaml:"command"`        // Detector argv; the image path is appended
			MinConfidence float64  `yaml:"min_confidence"` // Detections below are dropped
		} `yaml:"objects"`

		ReverseLookup struct {
			Endpoint string        `yaml:"endpoint"` // Search-by-image URL, queried with image_url
			Timeout  time.Duration `yaml:"timeout"`
		} `yaml:"reverse_lookup"`
	} `yaml:"analyzers"`

	Cache struct {
		Enabled bool          `yaml:"enabled"` // Cache provider answers
		Backend string        `yaml:"backend"` // memory or valkey
		TTL     time.Duration `yaml:"ttl"`     // Entry lifetime
		Valkey  struct {
			Address  string `yaml:"address"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"valkey"`
	} `yaml:"cache"`

	Publish struct {
		Enabled       bool          `yaml:"enabled"`        // Publish reports over MQTT
		Broker        string        `yaml:"broker"`         // MQTT broker address
		ClientID      string        `yaml:"client_id"`      // MQTT client ID prefix
		Username      string        `yaml:"username"`       // Optional broker user
		Password      string        `yaml:"password"`       // Optional broker password
		CACertificate string        `yaml:"ca_certificate"` // Path to the CA certificate, enables TLS
		Topic         string        `yaml:"topic"`          // Report topic
		QOS           int           `yaml:"qos"`            // MQTT QoS level for reports
		Timeout       time.Duration `yaml:"timeout"`        // Connect and publish timeout
	} `yaml:"publish"`

	Archive struct {
		Enabled         bool          `yaml:"enabled"`           // Upload report and map to object storage
		Endpoint        string        `yaml:"endpoint"`          // S3-compatible endpoint host:port
		AccessKeyID     string        `yaml:"access_key_id"`     // Access key
		SecretAccessKey string        `yaml:"secret_access_key"` // Secret key
		UseSSL          bool          `yaml:"use_ssl"`           // HTTPS to the endpoint
		Bucket          string        `yaml:"bucket"`            // Target bucket, created when missing
		Region          string        `yaml:"region"`            // Bucket region
		Prefix          string        `yaml:"prefix"`            // Object key prefix
		PresignExpiry   time.Duration `yaml:"presign_expiry"`    // Lifetime of logged download links
	} `yaml:"archive"`
}

// DefaultConfig returns a configuration that works without a config file.
func DefaultConfig() *Config {
	c := &Config{LogLevel: "info"}

	c.HTTP.Timeout = constants.DefaultHTTPTimeout

	c.Download.Timeout = constants.DefaultDownloadTimeout
	c.Download.Attempts = constants.DefaultMaxAttempts
	c.Download.RetryDelay = constants.DefaultRetryDelay

	c.Resolver.MaxAttempts = constants.DefaultMaxAttempts
	c.Resolver.RetryDelay = constants.DefaultRetryDelay
	c.Resolver.Language = "en"

	c.ReverseGeocoding.Providers = []string{
		location.ProviderNominatim,
		location.ProviderPhoton,
		location.ProviderGoogle,
		location.ProviderCoordinates,
	}
	c.ReverseGeocoding.CoordinateFallback = true

	c.IPGeolocation.Providers = []string{
		location.ProviderIPAPI,
		location.ProviderIPWhois,
		location.ProviderIPAPICom,
		location.ProviderIPInfo,
	}
	c.IPGeolocation.PublicIPEndpoint = constants.DefaultPublicIPEndpoint

	c.GPSTrack.MaxGap = constants.DefaultTrackMaxGap

	c.Analyzers.Workers = constants.DefaultAnalyzerWorkers
	c.Analyzers.Timeout = constants.DefaultAnalyzerTimeout
	c.Analyzers.Colors.MaxColors = constants.DefaultMaxColors
	c.Analyzers.Colors.ThumbnailMaxSide = constants.DefaultThumbnailMaxSide
	c.Analyzers.Text.TesseractPath = "tesseract"
	c.Analyzers.Text.Language = "eng"
	c.Analyzers.Text.SnippetLimit = constants.DefaultTextSnippetLimit
	c.Analyzers.Objects.MinConfidence = 0.5
	c.Analyzers.ReverseLookup.Endpoint = constants.DefaultReverseLookupEndpoint
	c.Analyzers.ReverseLookup.Timeout = constants.DefaultReverseLookupTimeout

	c.Cache.Backend = "memory"
	c.Cache.TTL = constants.DefaultCacheTTL
	c.Cache.Valkey.Address = "127.0.0.1:6379"
	c.Cache.Valkey.Prefix = "imgmapon:"

	c.Publish.ClientID = constants.ToolName
	c.Publish.Topic = "imgmapon/reports"
	c.Publish.QOS = 1
	c.Publish.Timeout = 10 * time.Second

	c.Archive.Region = "us-east-1"
	c.Archive.Prefix = "reports/"
	c.Archive.PresignExpiry = 7 * 24 * time.Hour

	return c
}

// LoadConfig loads the YAML configuration from the specified file on top of
// DefaultConfig. A missing file is not an error.
func LoadConfig(filename string, fileClient file.FileOperations) (*Config, error) {
	config := DefaultConfig()

	if filename != "" {
		exists, err := fileClient.IsFileExists(filename)
		if err != nil {
			return nil, err
		}
		if exists {
			if err := fileClient.ReadYamlFile(filename, config); err != nil {
				return nil, fmt.Errorf("failed to parse %s: %w", filename, err)
			}
		}
	}

	config.applyEnv(os.Getenv)
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// applyEnv lets secrets stay out of the config file.
func (c *Config) applyEnv(getenv func(string) string) {
	for env, dst := range map[string]*string{
		"IMGMAPON_GOOGLE_API_KEY":  &c.ReverseGeocoding.GoogleAPIKey,
		"IMGMAPON_IPINFO_TOKEN":    &c.IPGeolocation.IPInfoToken,
		"IMGMAPON_VALKEY_PASSWORD": &c.Cache.Valkey.Password,
		"IMGMAPON_MQTT_PASSWORD":   &c.Publish.Password,
		"IMGMAPON_S3_ACCESS_KEY":   &c.Archive.AccessKeyID,
		"IMGMAPON_S3_SECRET_KEY":   &c.Archive.SecretAccessKey,
	} {
		if v := getenv(env); v != "" {
			*dst = v
		}
	}
}

// Validate reports every configuration problem at once.
func (c *Config) Validate() error {
	var errs []error

	if _, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel)); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}
	if err := constants.CheckCompatible(c.Requires); err != nil {
		errs = append(errs, fmt.Errorf("requires: %w", err))
	}
	if c.HTTP.Timeout <= 0 {
		errs = append(errs, errors.New("http.timeout must be positive"))
	}
	if c.Download.Attempts < 1 {
		errs = append(errs, errors.New("download.attempts must be at least 1"))
	}
	if c.Resolver.MaxAttempts < 1 {
		errs = append(errs, errors.New("resolver.max_attempts must be at least 1"))
	}
	if c.Resolver.RetryDelay < 0 {
		errs = append(errs, errors.New("resolver.retry_delay must not be negative"))
	}
	if len(c.ReverseGeocoding.Providers) == 0 && !c.ReverseGeocoding.CoordinateFallback {
		errs = append(errs, errors.New("reverse_geocoding.providers is empty"))
	}
	if len(c.IPGeolocation.Providers) == 0 {
		errs = append(errs, errors.New("ip_geolocation.providers is empty"))
	}
	if c.GPSTrack.MaxGap <= 0 {
		errs = append(errs, errors.New("gps_track.max_gap must be positive"))
	}
	if c.Analyzers.Workers < 1 {
		errs = append(errs, errors.New("analyzers.workers must be at least 1"))
	}
	if m := c.Analyzers.Colors.MaxColors; m < 1 || m > 8 {
		errs = append(errs, fmt.Errorf("analyzers.colors.max_colors must be in 1..8, got %d", m))
	}
	if c.Analyzers.Colors.ThumbnailMaxSide < 16 {
		errs = append(errs, errors.New("analyzers.colors.thumbnail_max_side must be at least 16"))
	}
	if c.Cache.Enabled {
		switch c.Cache.Backend {
		case "memory":
		case "valkey":
			if c.Cache.Valkey.Address == "" {
				errs = append(errs, errors.New("cache.valkey.address is required"))
			}
		default:
			errs = append(errs, fmt.Errorf("cache.backend must be memory or valkey, got %q", c.Cache.Backend))
		}
	}
	if c.Publish.Enabled {
		if c.Publish.Broker == "" || c.Publish.Topic == "" {
			errs = append(errs, errors.New("publish.broker and publish.topic are required"))
		}
		if c.Publish.QOS < 0 || c.Publish.QOS > 2 {
			errs = append(errs, fmt.Errorf("publish.qos must be 0, 1 or 2, got %d", c.Publish.QOS))
		}
	}
	if c.Archive.Enabled && (c.Archive.Endpoint == "" || c.Archive.Bucket == "") {
		errs = append(errs, errors.New("archive.endpoint and archive.bucket are required"))
	}

	return errors.Join(errs...)
}

// ProviderSettings extracts what the provider factory needs.
func (c *Config) ProviderSettings() location.ProviderSettings {
	ua := c.HTTP.UserAgent
	if ua == "" {
		ua = constants.UserAgent()
	}
	return location.ProviderSettings{
		UserAgent:          ua,
		Language:           c.Resolver.Language,
		GoogleAPIKey:       c.ReverseGeocoding.GoogleAPIKey,
		IPInfoToken:        c.IPGeolocation.IPInfoToken,
		CoordinateFallback: c.ReverseGeocoding.CoordinateFallback,
	}
}

// RetryPolicy extracts the resolver retry policy.
func (c *Config) RetryPolicy() location.RetryPolicy {
	return location.RetryPolicy{MaxAttempts: c.Resolver.MaxAttempts, RetryDelay: c.Resolver.RetryDelay}
}
