package analyzer

import "image"

// Result describes how much picture content a captured frame carries.
type Result struct {
	Blank     bool
	StdDev    float64 // luminance standard deviation, 0-255 scale
	EdgeRatio float64 // share of pixels on an edge, 0.0-1.0
}

// Detector decides whether a captured frame shows rendered imagery or an
// empty/loading viewer.
type Detector interface {
	Detect(img image.Image) (Result, error)
}
