// Package imagemeta reads container and EXIF metadata from image files.
package imagemeta

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"strings"
	"time"

	"github.com/benmeehan/imgmapon/pkg/location"
	"github.com/rs/zerolog"
	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/mknote"
	"github.com/rwcarlsen/goexif/tiff"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

func init() {
	exif.RegisterParsers(mknote.All...)
}

// Metadata is the container description plus every EXIF tag as a string.
type Metadata struct {
	Format string            `json:"format"`
	Mode   string            `json:"mode"`
	Size   [2]int            `json:"size"`
	Exif   map[string]string `json:"exif,omitempty"`
}

// Result is everything extracted from one image.
type Result struct {
	Metadata Metadata
	// GPSTags holds the raw GPS* tags, nil when the image has none.
	GPSTags map[string]string
	// GPS is present when all four latitude/longitude tags exist.
	GPS     *location.RawGPSExif
	TakenAt *time.Time
}

// ExtractorInterface is what the analysis pipeline depends on.
type ExtractorInterface interface {
	Extract(path string) (*Result, error)
}

// Extractor decodes image headers and EXIF blocks.
type Extractor struct {
	Logger zerolog.Logger
}

func NewExtractor(logger zerolog.Logger) *Extractor {
	return &Extractor{Logger: logger}
}

// Extract reads path. An image without EXIF is not an error; a file that is
// not a decodable image is.
func (e *Extractor) Extract(path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image header: %w", err)
	}

	result := &Result{
		Metadata: Metadata{
			Format: strings.ToUpper(format),
			Mode:   colorMode(cfg.ColorModel),
			Size:   [2]int{cfg.Width, cfg.Height},
		},
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind image: %w", err)
	}

	x, err := exif.Decode(f)
	if err != nil {
		if !errors.Is(err, io.EOF) && !exif.IsCriticalError(err) {
			e.Logger.Debug().Err(err).Str("path", path).Msg("EXIF decoded with non-critical errors")
		} else {
			e.Logger.Debug().Err(err).Str("path", path).Msg("No EXIF data found")
			return result, nil
		}
	}
	if x == nil {
		return result, nil
	}

	w := &tagWalker{all: map[string]string{}, gps: map[string]*tiff.Tag{}}
	if err := x.Walk(w); err != nil {
		e.Logger.Warn().Err(err).Str("path", path).Msg("Failed to walk EXIF tags")
	}
	result.Metadata.Exif = w.all
	if len(w.gps) > 0 {
		result.GPSTags = map[string]string{}
		for name, tag := range w.gps {
			result.GPSTags[name] = tag.String()
		}
	}
	result.GPS = rawGPS(w.gps)

	if taken, err := x.DateTime(); err == nil {
		result.TakenAt = &taken
	}

	return result, nil
}

type tagWalker struct {
	all map[string]string
	gps map[string]*tiff.Tag
}

func (w *tagWalker) Walk(name exif.FieldName, tag *tiff.Tag) error {
	key := string(name)
	w.all[key] = strings.Trim(tag.String(), "\"")
	if strings.HasPrefix(key, "GPS") {
		w.gps[key] = tag
	}
	return nil
}

// rawGPS collects the rational triples for the normalizer. Missing tags or
// non-rational values yield nil so the image simply has no GPS.
func rawGPS(tags map[string]*tiff.Tag) *location.RawGPSExif {
	lat, latOK := rationals(tags[string(exif.GPSLatitude)])
	lon, lonOK := rationals(tags[string(exif.GPSLongitude)])
	if !latOK || !lonOK {
		return nil
	}

	return &location.RawGPSExif{
		LatDMS: lat,
		LatRef: stringTag(tags[string(exif.GPSLatitudeRef)]),
		LonDMS: lon,
		LonRef: stringTag(tags[string(exif.GPSLongitudeRef)]),
	}
}

func rationals(tag *tiff.Tag) ([]location.Rational, bool) {
	if tag == nil || tag.Format() != tiff.RatVal {
		return nil, false
	}

	out := make([]location.Rational, 0, tag.Count)
	for i := 0; i < int(tag.Count); i++ {
		num, den, err := tag.Rat2(i)
		if err != nil {
			return nil, false
		}
		out = append(out, location.Rational{Num: num, Den: den})
	}
	return out, true
}

func stringTag(tag *tiff.Tag) string {
	if tag == nil {
		return ""
	}
	s, err := tag.StringVal()
	if err != nil {
		return ""
	}
	return strings.TrimRight(strings.TrimSpace(s), "\x00")
}

// colorMode names the pixel layout the way imaging tools usually report it.
func colorMode(m color.Model) string {
	if _, ok := m.(color.Palette); ok {
		return "P"
	}

	switch m {
	case color.RGBAModel, color.NRGBAModel, color.RGBA64Model, color.NRGBA64Model:
		return "RGBA"
	case color.GrayModel:
		return "L"
	case color.Gray16Model:
		return "I;16"
	case color.YCbCrModel:
		return "RGB"
	case color.CMYKModel:
		return "CMYK"
	case color.AlphaModel, color.Alpha16Model:
		return "A"
	}
	return "Unknown"
}
