package analyzers

import (
	"context"
	"math"

	"github.com/benmeehan/imgmapon/internal/constants"
	"github.com/benmeehan/imgmapon/internal/models"
	"github.com/rs/zerolog"
)

// Canny hysteresis thresholds
const (
	cannyLow  = 100
	cannyHigh = 200
)

// EdgesAnalyzer reports the share of pixels on a Canny edge.
type EdgesAnalyzer struct {
	Logger zerolog.Logger
}

func (e *EdgesAnalyzer) Name() string {
	return constants.AnalyzerEdges
}

func (e *EdgesAnalyzer) IsEnabled(req models.AnalysisRequest) bool {
	return req.Edges
}

func (e *EdgesAnalyzer) Description() string {
	return "Fraction of pixels marked by a Canny edge detector with thresholds 100 and 200."
}

func (e *EdgesAnalyzer) Analyze(ctx context.Context, img *Image) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	density, err := edgeRatio(img.Pixels)
	if err != nil {
		return nil, err
	}
	e.Logger.Debug().Float64("edge_density", density).Msg("Edge density computed")
	return density, nil
}

func roundRatio(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(n)/float64(total)*10000) / 10000
}
