package director

import (
	"time"

	"github.com/ivlev/earthtour/internal/source"
)

// Tour is the in-memory form of the KML tour: one Step per (record, year),
// row-major and year-minor.
type Tour struct {
	Name     string
	TourName string
	Steps    []Step
}

// Step is a single fly-to plus wait pair of the playlist.
type Step struct {
	Record   source.Record
	Position int // index of Record within the selected rows
	Year     string
	Camera   Camera
	When     string // historical imagery date, {year}-06-01
	FlyTime  time.Duration
	WaitTime time.Duration
}

// Camera is the virtual camera pose of a fly-to.
type Camera struct {
	Latitude  float64
	Longitude float64
	Range     float64
	Altitude  float64
	Tilt      float64
	Heading   float64
}

// InstructionKind tells a fly-to from a wait in the playlist.
type InstructionKind int

const (
	FlyTo InstructionKind = iota
	Wait
)

func (k InstructionKind) String() string {
	if k == FlyTo {
		return "FlyTo"
	}
	return "Wait"
}

// Instruction is one playlist entry as it appears in the document.
type Instruction struct {
	Kind     InstructionKind
	Duration time.Duration
	Camera   Camera // FlyTo only
	When     string // FlyTo only
}

// Instructions flattens the tour into its playlist order.
func (t *Tour) Instructions() []Instruction {
	out := make([]Instruction, 0, 2*len(t.Steps))
	for _, s := range t.Steps {
		out = append(out,
			Instruction{Kind: FlyTo, Duration: s.FlyTime, Camera: s.Camera, When: s.When},
			Instruction{Kind: Wait, Duration: s.WaitTime},
		)
	}
	return out
}

// Duration is the expected playback length of the whole tour.
func (t *Tour) Duration() time.Duration {
	var d time.Duration
	for _, s := range t.Steps {
		d += s.FlyTime + s.WaitTime
	}
	return d
}
