package analyzer

import (
	"image"
	"image/color"
	"testing"
)

func TestContrastDetectorFlatFrame(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 64, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 64; x++ {
			img.SetGray(x, y, color.Gray{Y: 40})
		}
	}

	res, err := NewContrastDetector().Detect(img)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if !res.Blank {
		t.Errorf("flat frame should be blank: %+v", res)
	}
	if res.StdDev != 0 {
		t.Errorf("Expected zero stddev, got %f", res.StdDev)
	}
}

func TestContrastDetectorStructuredFrame(t *testing.T) {
	// A white block on black, roughly a rooftop on a dark lot.
	img := image.NewGray(image.Rect(0, 0, 200, 200))
	for y := 50; y < 150; y++ {
		for x := 50; x < 150; x++ {
			img.SetGray(x, y, color.Gray{Y: 255})
		}
	}

	res, err := NewContrastDetector().Detect(img)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if res.Blank {
		t.Errorf("structured frame should not be blank: %+v", res)
	}
	if res.EdgeRatio <= 0 {
		t.Errorf("Expected edges, got ratio %f", res.EdgeRatio)
	}
}

func TestContrastDetectorEmpty(t *testing.T) {
	if _, err := NewContrastDetector().Detect(image.NewGray(image.Rectangle{})); err == nil {
		t.Error("Expected error for empty frame")
	}
}

func TestDetectorRegistry(t *testing.T) {
	tests := []struct {
		variant string
		wantErr bool
	}{
		{"contrast", false},
		{"", false},
		{"none", false},
		{"invalid", true},
	}

	for _, tt := range tests {
		t.Run(tt.variant, func(t *testing.T) {
			detector, err := NewDetector(tt.variant)

			if tt.wantErr {
				if err == nil {
					t.Error("Expected error, got nil")
				}
			} else {
				if err != nil {
					t.Errorf("Unexpected error: %v", err)
				}
				if detector == nil {
					t.Error("Expected detector, got nil")
				}
			}
		})
	}
}
