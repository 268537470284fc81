package analyzers

import (
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/benmeehan/imgmapon/internal/constants"
	"github.com/benmeehan/imgmapon/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(w, h int, fill func(x, y int) color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, fill(x, y))
		}
	}
	return img
}

func halves(w, h int, left, right color.Color) *image.RGBA {
	return solid(w, h, func(x, _ int) color.Color {
		if x < w/2 {
			return left
		}
		return right
	})
}

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tool.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

// TestThumbnail_Scaling tests that only oversized images are downscaled, keeping aspect ratio.
func TestThumbnail_Scaling(t *testing.T) {
	// Setup
	wide := image.NewRGBA(image.Rect(0, 0, 600, 300))
	tall := image.NewRGBA(image.Rect(0, 0, 100, 900))
	small := image.NewRGBA(image.Rect(0, 0, 100, 50))

	// Execute & Assert
	assert.Equal(t, image.Rect(0, 0, 300, 150), Thumbnail(wide, 300).Bounds())
	assert.Equal(t, image.Rect(0, 0, 33, 300), Thumbnail(tall, 300).Bounds())
	assert.Same(t, small, Thumbnail(small, 300))
}

// TestColorsAnalyzer_TwoColours tests that a two-colour image yields exactly those two clusters.
func TestColorsAnalyzer_TwoColours(t *testing.T) {
	// Setup
	red := color.RGBA{R: 255, A: 255}
	blue := color.RGBA{B: 255, A: 255}
	a := &ColorsAnalyzer{MaxColors: 5, ThumbnailMaxSide: 300, Logger: zerolog.Nop()}

	// Execute
	out, err := a.Analyze(context.Background(), &Image{Pixels: halves(20, 10, red, blue)})

	// Assert
	require.NoError(t, err)
	colors := out.([]DominantColor)
	require.Len(t, colors, 2)
	assert.ElementsMatch(t, []string{"#ff0000", "#0000ff"}, []string{colors[0].Hex, colors[1].Hex})
	assert.InDelta(t, 0.5, colors[0].Ratio, 1e-9)
	assert.InDelta(t, 0.5, colors[1].Ratio, 1e-9)
}

// TestColorsAnalyzer_LargestFirst tests that clusters are ordered by pixel share and capped at eight.
func TestColorsAnalyzer_LargestFirst(t *testing.T) {
	// Setup
	img := solid(10, 10, func(x, y int) color.Color {
		if y < 8 {
			return color.RGBA{G: 200, A: 255}
		}
		return color.RGBA{R: 10, G: 10, B: 10, A: 255}
	})
	a := &ColorsAnalyzer{MaxColors: 20, Logger: zerolog.Nop()}

	// Execute
	out, err := a.Analyze(context.Background(), &Image{Pixels: img})

	// Assert
	require.NoError(t, err)
	colors := out.([]DominantColor)
	require.Len(t, colors, 2)
	assert.Equal(t, "#00c800", colors[0].Hex)
	assert.Equal(t, [3]int{0, 200, 0}, colors[0].RGB)
	assert.InDelta(t, 0.8, colors[0].Ratio, 1e-9)
}

// TestSummarize_MergesSameColour tests that clusters rounding to one colour are merged and empty clusters dropped.
func TestSummarize_MergesSameColour(t *testing.T) {
	// Setup
	centres := []rgb{{255, 0, 0}, {254.8, 0.2, 0}, {0, 0, 255}, {10, 10, 10}}
	labels := []int{0, 1, 2, 2}

	// Execute
	colors := summarize(centres, labels)

	// Assert
	require.Len(t, colors, 2)
	assert.Equal(t, "#ff0000", colors[0].Hex)
	assert.InDelta(t, 0.5, colors[0].Ratio, 1e-9)
	assert.Equal(t, "#0000ff", colors[1].Hex)
	assert.InDelta(t, 0.5, colors[1].Ratio, 1e-9)
}

// TestColorsAnalyzer_Transparent tests that a fully transparent image is an analyzer error.
func TestColorsAnalyzer_Transparent(t *testing.T) {
	// Setup
	a := &ColorsAnalyzer{Logger: zerolog.Nop()}

	// Execute
	_, err := a.Analyze(context.Background(), &Image{Pixels: image.NewRGBA(image.Rect(0, 0, 4, 4))})

	// Assert
	assert.Error(t, err)
}

// TestEdgesAnalyzer_Analyze tests that a sharp vertical step yields a single-pixel-wide edge column.
func TestEdgesAnalyzer_Analyze(t *testing.T) {
	// Setup
	a := &EdgesAnalyzer{Logger: zerolog.Nop()}

	// Execute
	out, err := a.Analyze(context.Background(), &Image{Pixels: halves(10, 10, color.Black, color.White)})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 0.1, out)
}

// TestNewTextResult tests snippet truncation by rune.
func TestNewTextResult(t *testing.T) {
	res := NewTextResult("héllo wörld", 4)
	assert.Equal(t, "héll", res.Snippet)
	assert.Equal(t, 11, res.Length)
	assert.Equal(t, "héllo wörld", res.Text)

	short := NewTextResult("hi", 0)
	assert.Equal(t, "hi", short.Snippet)
}

// TestTextAnalyzer_Analyze tests OCR output handling with a stand-in tesseract binary.
func TestTextAnalyzer_Analyze(t *testing.T) {
	// Setup
	bin := writeScript(t, `printf 'Hello\nWorld\n\n'`)
	a := &TextAnalyzer{TesseractPath: bin, Language: "eng", SnippetLimit: 5, Logger: zerolog.Nop()}

	// Execute
	out, err := a.Analyze(context.Background(), &Image{Path: "photo.jpg"})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, TextResult{Text: "Hello\nWorld", Snippet: "Hello", Length: 11}, out)
}

// TestTextAnalyzer_Errors tests a missing binary and a failing run.
func TestTextAnalyzer_Errors(t *testing.T) {
	// Setup
	missing := &TextAnalyzer{TesseractPath: filepath.Join(t.TempDir(), "nope"), Logger: zerolog.Nop()}
	failing := &TextAnalyzer{TesseractPath: writeScript(t, "echo 'bad image' >&2; exit 1"), Logger: zerolog.Nop()}

	// Execute
	_, errMissing := missing.Analyze(context.Background(), &Image{Path: "photo.jpg"})
	_, errFailing := failing.Analyze(context.Background(), &Image{Path: "photo.jpg"})

	// Assert
	assert.ErrorContains(t, errMissing, "tesseract not available")
	assert.ErrorContains(t, errFailing, "bad image")
}

// TestObjectsAnalyzer_FiltersByConfidence tests that low-confidence detections are dropped.
func TestObjectsAnalyzer_FiltersByConfidence(t *testing.T) {
	// Setup
	bin := writeScript(t, `echo '[{"label":"cat","confidence":0.9,"bbox":[1,2,3,4]},{"label":"dog","confidence":0.2,"bbox":[0,0,1,1]}]'`)
	a := &ObjectsAnalyzer{Command: []string{bin}, MinConfidence: 0.5, Logger: zerolog.Nop()}

	// Execute
	out, err := a.Analyze(context.Background(), &Image{Path: "photo.jpg"})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []Detection{{Label: "cat", Confidence: 0.9, BBox: [4]float64{1, 2, 3, 4}}}, out)
}

// TestObjectsAnalyzer_Errors tests missing, failing and malformed detectors.
func TestObjectsAnalyzer_Errors(t *testing.T) {
	cases := map[string][]string{
		"no detector": nil,
		"exit status": {writeScript(t, "exit 3")},
		"not json":    {writeScript(t, "echo nope")},
	}
	for name, cmd := range cases {
		t.Run(name, func(t *testing.T) {
			a := &ObjectsAnalyzer{Command: cmd, Logger: zerolog.Nop()}
			_, err := a.Analyze(context.Background(), &Image{Path: "photo.jpg"})
			assert.Error(t, err)
		})
	}
}

// TestRegistry_Enabled tests that enabled analyzers come back in registration order.
func TestRegistry_Enabled(t *testing.T) {
	// Setup
	r := NewRegistry()
	r.Register(&TextAnalyzer{})
	r.Register(&ColorsAnalyzer{})
	r.Register(&EdgesAnalyzer{})
	r.Register(&TextAnalyzer{Language: "deu"})

	// Execute
	enabled := r.Enabled(models.AnalysisRequest{Text: true, Edges: true})

	// Assert
	require.Len(t, enabled, 2)
	assert.Equal(t, constants.AnalyzerText, enabled[0].Name())
	assert.Equal(t, "deu", enabled[0].(*TextAnalyzer).Language)
	assert.Equal(t, constants.AnalyzerEdges, enabled[1].Name())

	_, ok := r.Get(constants.AnalyzerObjects)
	assert.False(t, ok)
}
