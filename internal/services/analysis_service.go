package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/benmeehan/imgmapon/internal/analyzers"
	"github.com/benmeehan/imgmapon/internal/constants"
	"github.com/benmeehan/imgmapon/internal/models"
	"github.com/benmeehan/imgmapon/internal/utils"
	"github.com/benmeehan/imgmapon/pkg/cache"
	"github.com/benmeehan/imgmapon/pkg/file"
	http_utils "github.com/benmeehan/imgmapon/pkg/httpUtils"
	"github.com/benmeehan/imgmapon/pkg/identity"
	"github.com/benmeehan/imgmapon/pkg/imagemeta"
	"github.com/benmeehan/imgmapon/pkg/location"
	"github.com/benmeehan/imgmapon/pkg/mapview"
	"github.com/benmeehan/imgmapon/pkg/nmea"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ImageDownloader saves a remote image locally and returns the URL it used.
type ImageDownloader interface {
	Download(ctx context.Context, rawURL, outputPath string) (string, error)
}

// IPLookup finds the network address associated with an image.
type IPLookup interface {
	HostIP(ctx context.Context, rawURL string) (string, error)
	PublicIP(ctx context.Context) (string, error)
}

// ReportSink receives every finished report together with the files the run
// wrote (report first, then the map when there is one).
type ReportSink interface {
	Name() string
	Deliver(ctx context.Context, report *models.Report, files []string) error
}

// AnalysisService runs the whole pipeline for one image.
type AnalysisService struct {
	Config     *utils.Config
	FileClient file.FileOperations
	Extractor  imagemeta.ExtractorInterface
	HostInfo   identity.HostInfoInterface
	Downloader ImageDownloader
	IPLookup   IPLookup

	ReverseGeocoders []location.ReverseGeocoder
	IPGeolocators    []location.IPGeolocator

	// Analyzers may be nil when no content analysis is wanted.
	Analyzers *analyzers.Runner
	Sinks     []ReportSink

	// Sleep is the resolver's retry sleeper; nil means a real timer.
	Sleep  location.Sleeper
	Logger zerolog.Logger

	now   func() time.Time
	newID func() string
}

// NewAnalysisService wires the production dependencies described by config.
// store may be nil to disable provider caching.
func NewAnalysisService(config *utils.Config, fileClient file.FileOperations, store cache.Cache, logger zerolog.Logger) (*AnalysisService, error) {
	apiClient := &http.Client{Timeout: config.HTTP.Timeout}
	settings := config.ProviderSettings()

	reverse, err := location.ReverseGeocoders(config.ReverseGeocoding.Providers, settings, apiClient)
	if err != nil {
		return nil, fmt.Errorf("failed to build reverse geocoders: %w", err)
	}
	ipProviders, err := location.IPGeolocators(config.IPGeolocation.Providers, settings, apiClient)
	if err != nil {
		return nil, fmt.Errorf("failed to build IP geolocators: %w", err)
	}

	downloadClient := &http.Client{Timeout: config.Download.Timeout}
	registry := analyzers.NewDefaultRegistry(config, logger)

	return &AnalysisService{
		Config:           config,
		FileClient:       fileClient,
		Extractor:        imagemeta.NewExtractor(logger),
		HostInfo:         identity.NewHostInfo(),
		Downloader:       http_utils.NewDownloader(downloadClient, config.Download.Attempts, config.Download.RetryDelay, logger),
		IPLookup:         &http_utils.IPLookup{Client: apiClient, Endpoint: config.IPGeolocation.PublicIPEndpoint},
		ReverseGeocoders: location.WithCache(reverse, store, config.Cache.TTL, logger),
		IPGeolocators:    location.WithCache(ipProviders, store, config.Cache.TTL, logger),
		Analyzers:        analyzers.NewRunner(registry, config.Analyzers.Workers, config.Analyzers.Timeout, logger),
		Logger:           logger,
	}, nil
}

// Run analyses the image named by req and writes the report. Only failing to
// acquire the image or to write the report is an error; every other problem
// degrades the report instead.
func (a *AnalysisService) Run(ctx context.Context, req models.AnalysisRequest) (*models.Report, error) {
	if (req.ImagePath == "") == (req.ImageURL == "") {
		return nil, errors.New("exactly one of image path or image URL is required")
	}

	report := models.NewReport(a.id(), a.clock())
	logger := a.Logger.With().Str("run_id", report.RunID).Logger()

	imagePath, cleanup, err := a.acquire(ctx, req, report, logger)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	a.describe(ctx, imagePath, report, logger)

	extracted, err := a.Extractor.Extract(imagePath)
	if err != nil {
		logger.Warn().Err(err).Str("image", imagePath).Msg("Failed to extract metadata")
		extracted = &imagemeta.Result{}
	}
	if req.Metadata {
		report.Metadata = &extracted.Metadata
	}
	report.GPS = extracted.GPSTags

	point, gpsSource, hasPoint := a.cameraPoint(req, extracted, logger)
	if hasPoint {
		report.GPSSource = gpsSource
	}

	correlation := a.correlate(ctx, point, hasPoint, report.HostIP, logger)
	report.ApplyCorrelation(correlation)

	if a.Analyzers != nil {
		for name, value := range a.Analyzers.Run(ctx, req, imagePath) {
			report.SetAnalysis(name, value)
		}
	}

	files := []string{a.outputPath(req)}
	if req.Map {
		mapPath := req.MapPath
		if mapPath == "" {
			mapPath = constants.DefaultMapFile
		}
		written, err := mapview.WriteFile(correlation, mapPath)
		switch {
		case err != nil:
			logger.Error().Err(err).Str("map", mapPath).Msg("Failed to write map")
		case written == "":
			logger.Info().Msg("No coordinates available, map not written")
		default:
			report.MapFile = written
			files = append(files, written)
			logger.Info().Str("map", written).Msg("Map written")
		}
	}

	if err := a.FileClient.WriteJsonFile(files[0], report); err != nil {
		return report, fmt.Errorf("failed to write report: %w", err)
	}
	logger.Info().Str("report", files[0]).Msg("Report written")

	for _, sink := range a.Sinks {
		if err := sink.Deliver(ctx, report, files); err != nil {
			logger.Error().Err(err).Str("sink", sink.Name()).Msg("Failed to deliver report")
		}
	}

	return report, nil
}

func (a *AnalysisService) outputPath(req models.AnalysisRequest) string {
	if req.OutputPath != "" {
		return req.OutputPath
	}
	return constants.DefaultReportFile
}

// acquire makes the image available locally and records where it came from.
func (a *AnalysisService) acquire(ctx context.Context, req models.AnalysisRequest, report *models.Report, logger zerolog.Logger) (string, func(), error) {
	noop := func() {}

	if req.ImagePath != "" {
		exists, err := a.FileClient.IsFileExists(req.ImagePath)
		if err != nil {
			return "", noop, fmt.Errorf("failed to check image: %w", err)
		}
		if !exists {
			return "", noop, fmt.Errorf("image file not found: %s", req.ImagePath)
		}

		report.Source = constants.SourceLocal
		report.ImagePath = req.ImagePath
		if abs, err := filepath.Abs(req.ImagePath); err == nil {
			report.ImagePath = abs
		}

		if ip, err := a.IPLookup.PublicIP(ctx); err != nil {
			logger.Warn().Err(err).Msg("Failed to determine public IP")
		} else {
			report.HostIP = ip
		}
		return req.ImagePath, noop, nil
	}

	dir, err := os.MkdirTemp("", "imgmapon-")
	if err != nil {
		return "", noop, fmt.Errorf("failed to create download directory: %w", err)
	}
	cleanup := func() { os.RemoveAll(dir) }

	target := filepath.Join(dir, downloadName(req.ImageURL))
	used, err := a.Downloader.Download(ctx, req.ImageURL, target)
	if err != nil {
		cleanup()
		return "", noop, fmt.Errorf("failed to download image: %w", err)
	}
	logger.Info().Str("url", used).Msg("Image downloaded")

	report.Source = constants.SourceURL
	report.ImageURL = req.ImageURL

	if ip, err := a.IPLookup.HostIP(ctx, used); err != nil {
		logger.Warn().Err(err).Str("url", used).Msg("Failed to resolve image host")
	} else {
		report.HostIP = ip
	}
	return target, cleanup, nil
}

// downloadName keeps the URL's extension so format sniffing has a hint.
func downloadName(rawURL string) string {
	ext := strings.ToLower(path.Ext(strings.SplitN(rawURL, "?", 2)[0]))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp", ".tif", ".tiff":
		return "image" + ext
	default:
		return "image"
	}
}

// describe fills the evidence fields: file hashes and the analysing host.
func (a *AnalysisService) describe(ctx context.Context, imagePath string, report *models.Report, logger zerolog.Logger) {
	if hashes, err := a.FileClient.GetFileHashes(imagePath); err != nil {
		logger.Warn().Err(err).Msg("Failed to hash image")
	} else {
		report.Hashes = &hashes
	}

	if a.HostInfo == nil {
		return
	}
	if env, err := a.HostInfo.GetEnvironment(ctx); err != nil {
		logger.Warn().Err(err).Msg("Failed to read host environment")
	} else {
		report.Environment = env
	}
}

// cameraPoint prefers EXIF GPS and falls back to the NMEA track fix closest
// to the capture time.
func (a *AnalysisService) cameraPoint(req models.AnalysisRequest, extracted *imagemeta.Result, logger zerolog.Logger) (location.GeoPoint, string, bool) {
	if extracted.GPS != nil {
		if point, ok := location.Normalize(*extracted.GPS); ok {
			return point, constants.GPSSourceExif, true
		}
		logger.Warn().Interface("gps", extracted.GPSTags).Msg("EXIF GPS tags could not be normalized")
	}

	if req.GPSTrackPath == "" {
		return location.GeoPoint{}, "", false
	}
	if extracted.TakenAt == nil {
		logger.Warn().Msg("Image has no capture time, GPS track not used")
		return location.GeoPoint{}, "", false
	}

	track, err := nmea.LoadTrack(req.GPSTrackPath, logger)
	if err != nil {
		logger.Warn().Err(err).Str("track", req.GPSTrackPath).Msg("Failed to load GPS track")
		return location.GeoPoint{}, "", false
	}
	fix, ok := track.Closest(*extracted.TakenAt, a.Config.GPSTrack.MaxGap)
	if !ok {
		logger.Warn().
			Time("taken_at", *extracted.TakenAt).
			Dur("max_gap", a.Config.GPSTrack.MaxGap).
			Msg("No GPS track fix close to the capture time")
		return location.GeoPoint{}, "", false
	}
	logger.Info().Time("fix", fix.Time).Msg("Using GPS track fix")
	return fix.Point, constants.GPSSourceNMEA, true
}

// correlate resolves both locations concurrently and reconciles them.
func (a *AnalysisService) correlate(ctx context.Context, point location.GeoPoint, hasPoint bool, hostIP string, logger zerolog.Logger) location.CorrelationResult {
	var (
		wg     sync.WaitGroup
		gpsLoc *location.LocationResult
		ipLoc  *location.IPLocationResult
		policy = a.Config.RetryPolicy()
	)

	if hasPoint {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resolver := location.NewResolver[location.GeoPoint, location.LocationResult](policy, a.Sleep, logger)
			if r, ok := resolver.Resolve(ctx, point, a.ReverseGeocoders); ok {
				gpsLoc = &r
			}
		}()
	}

	if hostIP != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resolver := location.NewResolver[string, location.IPLocationResult](policy, a.Sleep, logger)
			if r, ok := resolver.Resolve(ctx, hostIP, a.IPGeolocators); ok {
				ipLoc = &r
			}
		}()
	}

	wg.Wait()

	correlation := location.Reconcile(gpsLoc, ipLoc)
	event := logger.Info().Str("authoritative", string(correlation.Authoritative))
	if correlation.DistanceKm != nil {
		event = event.Float64("distance_km", *correlation.DistanceKm)
	}
	event.Msg("Locations reconciled")
	return correlation
}

func (a *AnalysisService) clock() time.Time {
	if a.now != nil {
		return a.now()
	}
	return time.Now()
}

func (a *AnalysisService) id() string {
	if a.newID != nil {
		return a.newID()
	}
	return uuid.New().String()
}
