package analyzers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/benmeehan/imgmapon/internal/constants"
	"github.com/benmeehan/imgmapon/internal/models"
	"github.com/rs/zerolog"
)

var errNoDetector = errors.New("no object detector command configured")

// Detection is one object reported by the detector.
type Detection struct {
	Label      string     `json:"label"`
	Confidence float64    `json:"confidence"`
	BBox       [4]float64 `json:"bbox"` // x, y, width, height in pixels
}

// ObjectsAnalyzer delegates detection to an external command that prints a
// JSON array of detections for the image path appended to its argv.
type ObjectsAnalyzer struct {
	Command       []string
	MinConfidence float64
	Logger        zerolog.Logger
}

func (o *ObjectsAnalyzer) Name() string {
	return constants.AnalyzerObjects
}

func (o *ObjectsAnalyzer) IsEnabled(req models.AnalysisRequest) bool {
	return req.Objects
}

func (o *ObjectsAnalyzer) Description() string {
	return "Objects reported by the configured detector command."
}

func (o *ObjectsAnalyzer) Analyze(ctx context.Context, img *Image) (any, error) {
	if len(o.Command) == 0 {
		return nil, errNoDetector
	}

	args := append(append([]string{}, o.Command[1:]...), img.Path)
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, o.Command[0], args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("object detector failed: %w: %s", err, msg)
		}
		return nil, fmt.Errorf("object detector failed: %w", err)
	}

	var found []Detection
	if err := json.Unmarshal(stdout.Bytes(), &found); err != nil {
		return nil, fmt.Errorf("object detector output is not a detection list: %w", err)
	}

	kept := make([]Detection, 0, len(found))
	for _, d := range found {
		if d.Confidence >= o.MinConfidence {
			kept = append(kept, d)
		}
	}
	o.Logger.Debug().Int("detected", len(found)).Int("kept", len(kept)).Msg("Objects detected")
	return kept, nil
}
