package analyzer

import (
	"fmt"
	"image"
)

// NewDetector creates a detector based on the specified variant
func NewDetector(variant string) (Detector, error) {
	switch variant {
	case "contrast", "":
		return NewContrastDetector(), nil
	case "none":
		return NopDetector{}, nil
	default:
		return nil, fmt.Errorf("unknown detector variant: %s", variant)
	}
}

// NopDetector reports every frame as non-blank.
type NopDetector struct{}

func (NopDetector) Detect(image.Image) (Result, error) {
	return Result{}, nil
}
