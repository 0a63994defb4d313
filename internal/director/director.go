package director

import (
	"math"
	"time"

	"github.com/ivlev/earthtour/internal/config"
	"github.com/ivlev/earthtour/internal/source"
	"github.com/ivlev/earthtour/internal/tourerr"
)

const (
	DefaultRange    = 100.0
	DefaultName     = "A very nice tour"
	DefaultTourName = "Commercial Tour!"
)

// Director turns records into a timed camera tour.
type Director struct {
	Years    []string
	FlyTime  time.Duration
	WaitTime time.Duration
	Altitude float64 // camera altitude in meters
	Range    float64
	Name     string
	TourName string
}

// NewDirector creates a director from the tour settings of cfg.
func NewDirector(cfg config.Config) *Director {
	rng := cfg.Range
	if rng <= 0 {
		rng = DefaultRange
	}
	return &Director{
		Years:    cfg.Years,
		FlyTime:  cfg.FlyTime,
		WaitTime: cfg.WaitTime,
		Altitude: cfg.Altitude,
		Range:    rng,
		Name:     DefaultName,
		TourName: DefaultTourName,
	}
}

// Build is the one-shot form of Director.Build.
func Build(records []source.Record, years []string, flyTime, waitTime time.Duration, altitude float64, maxRows int) (*Tour, error) {
	d := &Director{
		Years:    years,
		FlyTime:  flyTime,
		WaitTime: waitTime,
		Altitude: altitude,
		Range:    DefaultRange,
		Name:     DefaultName,
		TourName: DefaultTourName,
	}
	return d.Build(records, maxRows)
}

// Build truncates records to maxRows (0 keeps all) and emits one step per
// record and year, all years of a record before the next record.
func (d *Director) Build(records []source.Record, maxRows int) (*Tour, error) {
	if len(records) == 0 {
		return nil, tourerr.Inputf("build tour", "", "no records")
	}
	if len(d.Years) == 0 {
		return nil, tourerr.Inputf("build tour", "", "no years")
	}

	selected := source.Select(records, maxRows)

	steps := make([]Step, 0, len(selected)*len(d.Years))
	for pos, rec := range selected {
		if !validCoord(rec.Latitude, 90) || !validCoord(rec.Longitude, 180) {
			return nil, tourerr.Inputf("build tour", "", "row %d: missing or invalid coordinates (%v, %v)", rec.Row, rec.Latitude, rec.Longitude)
		}
		for _, year := range d.Years {
			steps = append(steps, d.step(pos, rec, year))
		}
	}

	return &Tour{
		Name:     d.Name,
		TourName: d.TourName,
		Steps:    steps,
	}, nil
}

func (d *Director) step(pos int, rec source.Record, year string) Step {
	return Step{
		Record:   rec,
		Position: pos,
		Year:     year,
		Camera: Camera{
			Latitude:  rec.Latitude,
			Longitude: rec.Longitude,
			Range:     d.Range,
			Altitude:  d.Altitude,
		},
		When:     ImageryDate(year),
		FlyTime:  d.FlyTime,
		WaitTime: d.WaitTime,
	}
}

// ImageryDate is the timestamp that selects the historical imagery layer
// for a year.
func ImageryDate(year string) string {
	return year + "-06-01"
}

func validCoord(v, limit float64) bool {
	return !math.IsNaN(v) && v >= -limit && v <= limit
}
