//go:build opencv

package analyzers

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

func edgeRatio(src image.Image) (float64, error) {
	rgb, err := gocv.ImageToMatRGB(src)
	if err != nil {
		return 0, fmt.Errorf("failed to convert image: %w", err)
	}
	defer rgb.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(rgb, &gray, gocv.ColorRGBToGray)

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(gray, &edges, cannyLow, cannyHigh)

	return roundRatio(gocv.CountNonZero(edges), edges.Rows()*edges.Cols()), nil
}
