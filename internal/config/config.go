package config

import (
	"image"
	"path/filepath"
	"time"
)

// Config is built once at startup and handed by value to the timeline
// builder and the capture loop. Neither of them mutates it.
type Config struct {
	InputPath     string `yaml:"input"`
	OutputPath    string `yaml:"output"`
	AddressColumn string `yaml:"addressColumn" validate:"required"`

	Years    []string      `yaml:"years" validate:"required,min=1,dive,len=4,numeric"`
	FlyTime  time.Duration `yaml:"flyTime" validate:"gt=0"`
	WaitTime time.Duration `yaml:"waitTime" validate:"gt=0"`
	Altitude float64       `yaml:"altitude" validate:"gte=0"`
	Range    float64       `yaml:"range" validate:"gt=0"`
	MaxRows  int           `yaml:"maxRows" validate:"gte=0"` // 0 = all rows

	CaptureRegion Rectangle `yaml:"captureRegion"`
	TargetWidth   int       `yaml:"targetWidth" validate:"gt=0"`
	TargetHeight  int       `yaml:"targetHeight" validate:"gt=0"`
	ImageExt      string    `yaml:"imageExt" validate:"oneof=png jpg"`

	NoReroof     bool          `yaml:"noReroof"`
	GenerateOnly bool          `yaml:"generateOnly"`
	StartupDelay time.Duration `yaml:"startupDelay" validate:"gte=0"`
	ViewerApp    string        `yaml:"viewerApp"`
	LocationQR   bool          `yaml:"locationQR"`
	Timelapse    bool          `yaml:"timelapse"`
}

// Rectangle is a pixel box on screen, origin top-left.
type Rectangle struct {
	X int `yaml:"x" validate:"gte=0"`
	Y int `yaml:"y" validate:"gte=0"`
	W int `yaml:"w" validate:"gt=0"`
	H int `yaml:"h" validate:"gt=0"`
}

func (r Rectangle) Image() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.W, r.Y+r.H)
}

// Default returns the settings the tour was originally tuned with: seven
// yearly imagery layers, a one second flight and a ten second dwell.
func Default() Config {
	return Config{
		AddressColumn: "site_address",
		Years:         []string{"2012", "2013", "2014", "2015", "2016", "2017", "2018"},
		FlyTime:       1 * time.Second,
		WaitTime:      10 * time.Second,
		Altitude:      50,
		Range:         100,
		CaptureRegion: Rectangle{X: 628, Y: 232, W: 768, H: 584},
		TargetWidth:   512,
		TargetHeight:  384,
		ImageExt:      "png",
		StartupDelay:  5 * time.Second,
	}
}

// CycleTime is the playback budget of one tour step in the viewer.
func (c Config) CycleTime() time.Duration {
	return c.FlyTime + c.WaitTime
}

// ImagesDir is where captured frames and metadata go: next to the KML.
func (c Config) ImagesDir() string {
	return filepath.Join(filepath.Dir(c.OutputPath), "tour_images")
}

// TargetSize returns the downscaled frame bounds.
func (c Config) TargetSize() image.Rectangle {
	return image.Rect(0, 0, c.TargetWidth, c.TargetHeight)
}
