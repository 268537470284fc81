package analyzers

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/benmeehan/imgmapon/internal/constants"
	"github.com/benmeehan/imgmapon/internal/models"
	"github.com/rs/zerolog"
)

// TextResult is what the OCR step found.
type TextResult struct {
	Text    string `json:"text"`
	Snippet string `json:"snippet"`
	Length  int    `json:"len"`
}

// TextAnalyzer runs tesseract over the image file.
type TextAnalyzer struct {
	TesseractPath string
	Language      string
	SnippetLimit  int
	Logger        zerolog.Logger
}

func (t *TextAnalyzer) Name() string {
	return constants.AnalyzerText
}

func (t *TextAnalyzer) IsEnabled(req models.AnalysisRequest) bool {
	return req.Text
}

func (t *TextAnalyzer) Description() string {
	return "Text recognised by tesseract OCR."
}

func (t *TextAnalyzer) Analyze(ctx context.Context, img *Image) (any, error) {
	bin := t.TesseractPath
	if bin == "" {
		bin = "tesseract"
	}
	path, err := exec.LookPath(bin)
	if err != nil {
		return nil, fmt.Errorf("tesseract not available: %w", err)
	}

	args := []string{img.Path, "stdout"}
	if t.Language != "" {
		args = append(args, "-l", t.Language)
	}
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("tesseract failed: %w: %s", err, msg)
		}
		return nil, fmt.Errorf("tesseract failed: %w", err)
	}

	text := strings.TrimSpace(stdout.String())
	if text == "" {
		t.Logger.Debug().Msg("No text recognised")
	}
	return NewTextResult(text, t.SnippetLimit), nil
}

// NewTextResult trims the snippet to limit runes.
func NewTextResult(text string, limit int) TextResult {
	if limit <= 0 {
		limit = constants.DefaultTextSnippetLimit
	}
	runes := []rune(text)
	snippet := text
	if len(runes) > limit {
		snippet = string(runes[:limit])
	}
	return TextResult{Text: text, Snippet: snippet, Length: len(runes)}
}
