//go:build opencv

package analyzers

import (
	"errors"

	"gocv.io/x/gocv"
)

const (
	kmeansIterations = 20
	kmeansAttempts   = 4
)

// cluster runs OpenCV's k-means++ with a seeded RNG.
func cluster(pixels []rgb, k int) ([]rgb, []int, error) {
	samples := gocv.NewMatWithSize(len(pixels), 3, gocv.MatTypeCV32F)
	defer samples.Close()
	for i, p := range pixels {
		samples.SetFloatAt(i, 0, float32(p[0]))
		samples.SetFloatAt(i, 1, float32(p[1]))
		samples.SetFloatAt(i, 2, float32(p[2]))
	}

	labels := gocv.NewMat()
	defer labels.Close()
	centers := gocv.NewMat()
	defer centers.Close()

	gocv.SetRNGSeed(kmeansSeed)
	criteria := gocv.NewTermCriteria(gocv.Count|gocv.EPS, kmeansIterations, 1.0)
	gocv.KMeans(samples, k, &labels, criteria, kmeansAttempts, gocv.KMeansPPCenters, &centers)
	if centers.Rows() == 0 || labels.Rows() != len(pixels) {
		return nil, nil, errors.New("k-means produced no clusters")
	}

	centres := make([]rgb, centers.Rows())
	for j := range centres {
		centres[j] = rgb{
			float64(centers.GetFloatAt(j, 0)),
			float64(centers.GetFloatAt(j, 1)),
			float64(centers.GetFloatAt(j, 2)),
		}
	}
	assign := make([]int, len(pixels))
	for i := range assign {
		assign[i] = int(labels.GetIntAt(i, 0))
	}
	return centres, assign, nil
}
