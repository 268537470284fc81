package analyzers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/benmeehan/imgmapon/internal/models"
	"github.com/benmeehan/imgmapon/internal/utils"
	"github.com/rs/zerolog"
)

// NewDefaultRegistry registers every built-in analyzer with its settings
// taken from config.
func NewDefaultRegistry(config *utils.Config, logger zerolog.Logger) *Registry {
	r := NewRegistry()
	r.Register(&ColorsAnalyzer{
		MaxColors:        config.Analyzers.Colors.MaxColors,
		ThumbnailMaxSide: config.Analyzers.Colors.ThumbnailMaxSide,
		Logger:           logger,
	})
	r.Register(&EdgesAnalyzer{Logger: logger})
	r.Register(&TextAnalyzer{
		TesseractPath: config.Analyzers.Text.TesseractPath,
		Language:      config.Analyzers.Text.Language,
		SnippetLimit:  config.Analyzers.Text.SnippetLimit,
		Logger:        logger,
	})
	r.Register(&ObjectsAnalyzer{
		Command:       config.Analyzers.Objects.Command,
		MinConfidence: config.Analyzers.Objects.MinConfidence,
		Logger:        logger,
	})
	r.Register(&ReverseLookupAnalyzer{
		Endpoint: config.Analyzers.ReverseLookup.Endpoint,
		Client:   &http.Client{Timeout: config.Analyzers.ReverseLookup.Timeout},
		Logger:   logger,
	})
	return r
}

// Runner executes the requested analyzers concurrently. A failing analyzer
// never fails the run: its slot holds a models.AnalyzerError instead.
type Runner struct {
	Registry *Registry
	Workers  int
	Timeout  time.Duration
	Logger   zerolog.Logger

	load func(path string) (*Image, error)
}

// NewRunner creates a Runner over registry.
func NewRunner(registry *Registry, workers int, timeout time.Duration, logger zerolog.Logger) *Runner {
	return &Runner{
		Registry: registry,
		Workers:  workers,
		Timeout:  timeout,
		Logger:   logger,
		load:     LoadImage,
	}
}

// Run returns one entry per enabled analyzer, keyed by analyzer name.
func (r *Runner) Run(ctx context.Context, req models.AnalysisRequest, imagePath string) map[string]any {
	enabled := r.Registry.Enabled(req)
	results := make(map[string]any, len(enabled))
	if len(enabled) == 0 {
		return results
	}

	img, err := r.load(imagePath)
	if err != nil {
		r.Logger.Error().Err(err).Str("image", imagePath).Msg("Failed to load image for analysis")
		for _, a := range enabled {
			results[a.Name()] = models.AnalyzerError{Error: err.Error()}
		}
		return results
	}
	img.URL = req.ImageURL

	pool := utils.NewWorkerPool[any](r.Workers)
	for _, a := range enabled {
		a := a
		pool.Submit(a.Name(), func() any {
			return r.analyze(ctx, a, img)
		})
	}
	for _, res := range pool.Shutdown() {
		results[res.Name] = res.Value
	}
	return results
}

func (r *Runner) analyze(ctx context.Context, a Analyzer, img *Image) (value any) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	defer func() {
		if p := recover(); p != nil {
			r.Logger.Error().Str("analyzer", a.Name()).Interface("panic", p).Msg("Analyzer panicked")
			value = models.AnalyzerError{Error: fmt.Sprintf("analyzer panicked: %v", p)}
		}
	}()

	start := time.Now()
	v, err := a.Analyze(ctx, img)
	if err != nil {
		r.Logger.Warn().Err(err).Str("analyzer", a.Name()).Msg("Analyzer failed")
		return models.AnalyzerError{Error: err.Error()}
	}
	r.Logger.Info().Str("analyzer", a.Name()).Dur("took", time.Since(start)).Msg("Analyzer finished")
	return v
}
