package analyzers

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"sort"

	"github.com/benmeehan/imgmapon/internal/constants"
	"github.com/benmeehan/imgmapon/internal/models"
	"github.com/rs/zerolog"
	"golang.org/x/image/draw"
)

const (
	maxClusters = 8
	kmeansSeed  = 42
)

// DominantColor is one k-means cluster centre.
type DominantColor struct {
	Hex   string  `json:"hex"`
	RGB   [3]int  `json:"rgb"`
	Ratio float64 `json:"ratio"` // Share of thumbnail pixels in the cluster
}

// ColorsAnalyzer clusters a thumbnail of the image into its dominant colours.
type ColorsAnalyzer struct {
	MaxColors        int
	ThumbnailMaxSide int
	Logger           zerolog.Logger
}

func (c *ColorsAnalyzer) Name() string {
	return constants.AnalyzerColors
}

func (c *ColorsAnalyzer) IsEnabled(req models.AnalysisRequest) bool {
	return req.Colors
}

func (c *ColorsAnalyzer) Description() string {
	return "Dominant colours found by k-means over a downscaled copy of the image."
}

func (c *ColorsAnalyzer) Analyze(ctx context.Context, img *Image) (any, error) {
	k := c.MaxColors
	if k <= 0 {
		k = constants.DefaultMaxColors
	}
	if k > maxClusters {
		k = maxClusters
	}

	pixels := samplePixels(Thumbnail(img.Pixels, c.ThumbnailMaxSide))
	if len(pixels) == 0 {
		return nil, errors.New("image has no opaque pixels")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	centres, labels, err := cluster(pixels, min(k, len(pixels)))
	if err != nil {
		return nil, err
	}
	colors := summarize(centres, labels)
	c.Logger.Debug().Int("clusters", len(colors)).Msg("Dominant colours computed")
	return colors, nil
}

// Thumbnail scales src so its longest side is at most maxSide. Smaller
// images are returned untouched.
func Thumbnail(src image.Image, maxSide int) image.Image {
	if maxSide <= 0 {
		maxSide = constants.DefaultThumbnailMaxSide
	}
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxSide && h <= maxSide {
		return src
	}

	if w >= h {
		h = max(1, h*maxSide/w)
		w = maxSide
	} else {
		w = max(1, w*maxSide/h)
		h = maxSide
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}

type rgb [3]float64

func samplePixels(img image.Image) []rgb {
	b := img.Bounds()
	out := make([]rgb, 0, b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, a := img.At(x, y).RGBA()
			if a < 0x8000 {
				continue
			}
			out = append(out, rgb{float64(r >> 8), float64(g >> 8), float64(bl >> 8)})
		}
	}
	return out
}

// summarize turns clusters into colours, largest share first. Clusters that
// round to the same colour are merged and empty ones dropped.
func summarize(centres []rgb, labels []int) []DominantColor {
	counts := make([]int, len(centres))
	for _, j := range labels {
		counts[j]++
	}

	byHex := make(map[string]int)
	out := make([]DominantColor, 0, len(centres))
	for j, c := range centres {
		if counts[j] == 0 {
			continue
		}
		v := [3]int{clamp8(c[0]), clamp8(c[1]), clamp8(c[2])}
		hex := fmt.Sprintf("#%02x%02x%02x", v[0], v[1], v[2])
		if at, ok := byHex[hex]; ok {
			counts[at] += counts[j]
			continue
		}
		byHex[hex] = j
		out = append(out, DominantColor{Hex: hex, RGB: v})
	}
	for i := range out {
		out[i].Ratio = roundRatio(counts[byHex[out[i].Hex]], len(labels))
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Ratio > out[b].Ratio })
	return out
}

func clamp8(v float64) int {
	return int(math.Max(0, math.Min(255, math.Round(v))))
}
