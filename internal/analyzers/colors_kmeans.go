//go:build !opencv

package analyzers

import (
	"math"
	"math/rand"
)

const kmeansIterations = 20

func distSq(a, b rgb) float64 {
	dr, dg, db := a[0]-b[0], a[1]-b[1], a[2]-b[2]
	return dr*dr + dg*dg + db*db
}

// cluster runs k-means++ then Lloyd iterations with a fixed seed so runs are
// reproducible.
func cluster(pixels []rgb, k int) ([]rgb, []int, error) {
	rng := rand.New(rand.NewSource(kmeansSeed))
	centres := seedCentres(pixels, k, rng)

	assign := make([]int, len(pixels))
	for iter := 0; iter < kmeansIterations; iter++ {
		changed := false
		for i, p := range pixels {
			best, bestD := 0, math.MaxFloat64
			for j, c := range centres {
				if d := distSq(p, c); d < bestD {
					best, bestD = j, d
				}
			}
			if assign[i] != best {
				assign[i] = best
				changed = true
			}
		}

		sums := make([]rgb, len(centres))
		counts := make([]int, len(centres))
		for i, p := range pixels {
			j := assign[i]
			sums[j][0] += p[0]
			sums[j][1] += p[1]
			sums[j][2] += p[2]
			counts[j]++
		}
		for j := range centres {
			if counts[j] > 0 {
				n := float64(counts[j])
				centres[j] = rgb{sums[j][0] / n, sums[j][1] / n, sums[j][2] / n}
			}
		}
		if !changed {
			break
		}
	}

	return centres, assign, nil
}

// seedCentres runs k-means++ initialisation. Fewer than k centres come back
// when the image has fewer distinct colours.
func seedCentres(pixels []rgb, k int, rng *rand.Rand) []rgb {
	centres := []rgb{pixels[rng.Intn(len(pixels))]}
	dists := make([]float64, len(pixels))
	for len(centres) < k {
		total := 0.0
		for i, p := range pixels {
			d := math.MaxFloat64
			for _, c := range centres {
				d = math.Min(d, distSq(p, c))
			}
			dists[i] = d
			total += d
		}
		if total == 0 {
			break
		}
		target := rng.Float64() * total
		next := len(pixels) - 1
		for i, d := range dists {
			target -= d
			if target <= 0 && d > 0 {
				next = i
				break
			}
		}
		centres = append(centres, pixels[next])
	}
	return centres
}
