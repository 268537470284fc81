package analyzers

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/benmeehan/imgmapon/internal/models"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Analyzer inspects image content and returns a JSON-serializable value.
type Analyzer interface {
	Name() string                                         // Report key (e.g., "edges")
	Analyze(ctx context.Context, img *Image) (any, error) // Run the analysis
	IsEnabled(req models.AnalysisRequest) bool            // Check if the request asks for it
	Description() string                                  // Description of the analysis
}

// Image is a decoded image shared read-only by all analyzers of one run.
type Image struct {
	Path   string
	URL    string // Source URL, empty for local files
	Pixels image.Image
}

// LoadImage decodes path once for the analyzers that need pixels.
func LoadImage(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	pixels, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return &Image{Path: path, Pixels: pixels}, nil
}
