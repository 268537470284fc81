//go:build !opencv

package analyzers

import "image"

const (
	tan22 = 0.41421356237309503
	tan67 = 2.414213562373095
)

func edgeRatio(src image.Image) (float64, error) {
	return EdgeDensity(grayscale(src)), nil
}

// EdgeDensity is the share of Canny edge pixels in gray, rounded to 4
// decimals. It follows OpenCV's Canny: 3x3 Sobel with replicated borders,
// L1 gradient magnitude, non-maximum suppression along the quantised
// gradient direction and 8-connected hysteresis between cannyLow and
// cannyHigh.
func EdgeDensity(gray *image.Gray) float64 {
	b := gray.Bounds()
	return roundRatio(canny(gray, cannyLow, cannyHigh), b.Dx()*b.Dy())
}

const (
	pixelNone = iota
	pixelWeak
	pixelStrong
)

// canny returns the number of edge pixels.
func canny(gray *image.Gray, low, high int) int {
	b := gray.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return 0
	}

	px := func(x, y int) int {
		x = min(max(x, 0), w-1)
		y = min(max(y, 0), h-1)
		return int(gray.GrayAt(b.Min.X+x, b.Min.Y+y).Y)
	}

	dx := make([]int, w*h)
	dy := make([]int, w*h)
	mag := make([]int, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			gx := px(x+1, y-1) + 2*px(x+1, y) + px(x+1, y+1) -
				px(x-1, y-1) - 2*px(x-1, y) - px(x-1, y+1)
			gy := px(x-1, y+1) + 2*px(x, y+1) + px(x+1, y+1) -
				px(x-1, y-1) - 2*px(x, y-1) - px(x+1, y-1)
			i := y*w + x
			dx[i], dy[i] = gx, gy
			mag[i] = abs(gx) + abs(gy)
		}
	}

	magAt := func(x, y int) int {
		if x < 0 || y < 0 || x >= w || y >= h {
			return 0
		}
		return mag[y*w+x]
	}

	state := make([]uint8, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			m := mag[i]
			if m <= low {
				continue
			}

			ax, ay := float64(abs(dx[i])), float64(abs(dy[i]))
			var peak bool
			switch {
			case ay < ax*tan22:
				peak = m > magAt(x-1, y) && m >= magAt(x+1, y)
			case ay > ax*tan67:
				peak = m > magAt(x, y-1) && m >= magAt(x, y+1)
			default:
				s := 1
				if (dx[i] < 0) != (dy[i] < 0) {
					s = -1
				}
				peak = m > magAt(x-s, y-1) && m > magAt(x+s, y+1)
			}
			if !peak {
				continue
			}

			if m > high {
				state[i] = pixelStrong
			} else {
				state[i] = pixelWeak
			}
		}
	}

	return trace(state, w, h)
}

// trace promotes weak pixels 8-connected to a strong one and returns the
// number of strong pixels.
func trace(state []uint8, w, h int) int {
	var stack []int
	for i, s := range state {
		if s == pixelStrong {
			stack = append(stack, i)
		}
	}

	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := i%w, i/w
		for ny := y - 1; ny <= y+1; ny++ {
			for nx := x - 1; nx <= x+1; nx++ {
				if nx < 0 || ny < 0 || nx >= w || ny >= h {
					continue
				}
				if j := ny*w + nx; state[j] == pixelWeak {
					state[j] = pixelStrong
					stack = append(stack, j)
				}
			}
		}
	}

	edges := 0
	for _, s := range state {
		if s == pixelStrong {
			edges++
		}
	}
	return edges
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func grayscale(src image.Image) *image.Gray {
	if g, ok := src.(*image.Gray); ok {
		return g
	}
	b := src.Bounds()
	dst := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			dst.Set(x, y, src.At(x, y))
		}
	}
	return dst
}
