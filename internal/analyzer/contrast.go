package analyzer

import (
	"fmt"
	"image"
	"image/color"
	"math"
)

// ContrastDetector flags frames that are flat in luminance and nearly free
// of Sobel edges, which is what the viewer shows before tiles have loaded.
type ContrastDetector struct {
	MinStdDev     float64 // below this the frame is flat
	MinEdgeRatio  float64 // below this the frame has no structure
	EdgeThreshold float64 // gradient magnitude threshold
}

func NewContrastDetector() *ContrastDetector {
	return &ContrastDetector{
		MinStdDev:     4.0,
		MinEdgeRatio:  0.002,
		EdgeThreshold: 30.0,
	}
}

func (d *ContrastDetector) Detect(img image.Image) (Result, error) {
	if img == nil || img.Bounds().Empty() {
		return Result{}, fmt.Errorf("empty frame")
	}

	gray := toGrayscale(img)
	stddev := luminanceStdDev(gray)
	edges := edgeRatio(gray, d.EdgeThreshold)

	return Result{
		Blank:     stddev < d.MinStdDev || edges < d.MinEdgeRatio,
		StdDev:    stddev,
		EdgeRatio: edges,
	}, nil
}

func toGrayscale(img image.Image) *image.Gray {
	bounds := img.Bounds()
	gray := image.NewGray(bounds)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			gray.Set(x, y, color.GrayModel.Convert(img.At(x, y)))
		}
	}

	return gray
}

func luminanceStdDev(gray *image.Gray) float64 {
	bounds := gray.Bounds()
	n := float64(bounds.Dx() * bounds.Dy())

	var sum, sumSq float64
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			v := float64(gray.GrayAt(x, y).Y)
			sum += v
			sumSq += v * v
		}
	}

	mean := sum / n
	variance := sumSq/n - mean*mean
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance)
}

// edgeRatio applies the Sobel operator and returns the share of interior
// pixels whose gradient magnitude exceeds threshold.
func edgeRatio(gray *image.Gray, threshold float64) float64 {
	bounds := gray.Bounds()
	if bounds.Dx() < 3 || bounds.Dy() < 3 {
		return 0
	}

	gx := [3][3]int{
		{-1, 0, 1},
		{-2, 0, 2},
		{-1, 0, 1},
	}
	gy := [3][3]int{
		{-1, -2, -1},
		{0, 0, 0},
		{1, 2, 1},
	}

	var edges, total int
	for y := bounds.Min.Y + 1; y < bounds.Max.Y-1; y++ {
		for x := bounds.Min.X + 1; x < bounds.Max.X-1; x++ {
			var sumX, sumY float64
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					pixel := float64(gray.GrayAt(x+kx, y+ky).Y)
					sumX += pixel * float64(gx[ky+1][kx+1])
					sumY += pixel * float64(gy[ky+1][kx+1])
				}
			}
			if math.Sqrt(sumX*sumX+sumY*sumY) > threshold {
				edges++
			}
			total++
		}
	}

	return float64(edges) / float64(total)
}
