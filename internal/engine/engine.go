package engine

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/ivlev/earthtour/internal/analyzer"
	"github.com/ivlev/earthtour/internal/capture"
	"github.com/ivlev/earthtour/internal/config"
	"github.com/ivlev/earthtour/internal/director"
	"github.com/ivlev/earthtour/internal/metadata"
	"github.com/ivlev/earthtour/internal/source"
	"github.com/ivlev/earthtour/internal/tourerr"
	"github.com/ivlev/earthtour/internal/video"
)

// ReportFileName is written into the images directory after every run.
const ReportFileName = "report.yaml"

// TourProject replays a tour's schedule against the viewer, grabbing one
// frame per step. It has no signal from the viewer: staying in step relies
// entirely on each step taking FlyTime+WaitTime.
type TourProject struct {
	Config    config.Config
	Tour      *director.Tour
	TourPath  string
	Grabber   capture.Grabber
	Detector  analyzer.Detector
	Timelapse video.TimelapseEncoder // nil unless Config.Timelapse

	Now      func() time.Time
	Sleep    func(ctx context.Context, d time.Duration) error
	Progress io.Writer
}

// NewTourProject creates a project that runs tour in real time.
func NewTourProject(cfg config.Config, tour *director.Tour, grabber capture.Grabber, det analyzer.Detector) *TourProject {
	return &TourProject{
		Config:   cfg,
		Tour:     tour,
		Grabber:  grabber,
		Detector: det,
		Now:      time.Now,
		Sleep:    sleepContext,
		Progress: os.Stdout,
	}
}

// recordDir tracks the per-record output of the run.
type recordDir struct {
	pos    int
	rec    source.Record
	path   string
	frames []string
}

// Run walks the tour steps in order. Step failures are recorded in the
// report and never stop the loop; only an unusable output directory or a
// cancelled context ends the run early.
func (p *TourProject) Run(ctx context.Context) (*Report, error) {
	if p.Tour == nil || len(p.Tour.Steps) == 0 {
		return nil, tourerr.Inputf("capture", "", "tour has no steps")
	}

	imagesDir := p.Config.ImagesDir()
	if err := os.MkdirAll(imagesDir, 0755); err != nil {
		return nil, tourerr.IO("create images dir", imagesDir, err)
	}

	cycle := p.Config.CycleTime()
	start := p.Now()
	report := &Report{
		RunID:        uuid.NewString(),
		StartedAt:    start,
		Tour:         p.TourPath,
		CycleSeconds: cycle.Seconds(),
		Years:        p.Config.Years,
	}
	prog := newProgress(p.Progress)

	log.Printf("[*] Capture run %s: %d steps, %.1fs per step, ~%s total", report.RunID, len(p.Tour.Steps), cycle.Seconds(), p.Tour.Duration().Round(time.Second))

	var (
		dirs    []*recordDir
		current *recordDir
		runErr  error
		used    = make(map[string]bool)
	)

	for i, step := range p.Tour.Steps {
		stepStart := p.Now()

		// Record setup happens inside the first step's budget so the sleep
		// below absorbs it.
		if current == nil || current.pos != step.Position {
			current = p.openRecord(step, imagesDir, used, report)
			dirs = append(dirs, current)
		}

		res := p.captureStep(i, step, current.path)
		if res.OK {
			current.frames = append(current.frames, res.Path)
		} else {
			log.Printf("[!] Step %d (row %d, %s, %s): %v", i, step.Record.Row, step.Record.Address, step.Year, res.Err)
		}

		elapsed := p.Now().Sub(stepStart)
		res.ElapsedSeconds = elapsed.Seconds()

		if wait := cycle - elapsed; wait > 0 {
			if err := p.Sleep(ctx, wait); err != nil {
				runErr = err
			}
		}

		expected := time.Duration(i+1) * cycle
		res.DriftSeconds = (p.Now().Sub(start) - expected).Seconds()

		report.Steps = append(report.Steps, res)
		prog.step(i+1, len(p.Tour.Steps), res)

		if runErr == nil {
			runErr = ctx.Err()
		}
		if runErr != nil {
			report.Interrupted = true
			log.Printf("[!] Capture interrupted after step %d: %v", i, runErr)
			break
		}
	}

	if !report.Interrupted && p.Config.Timelapse && p.Timelapse != nil {
		p.encodeTimelapses(ctx, dirs, report)
	}

	report.finalize(p.Now())

	reportPath := filepath.Join(imagesDir, ReportFileName)
	if err := WriteReport(report, reportPath); err != nil {
		log.Printf("[!] %v", err)
	}

	log.Printf("[*] Captured %d/%d frames (%d failed, %d blank?), drift %+.2fs",
		report.SuccessCount, len(p.Tour.Steps), report.FailureCount, report.BlankCount, report.DriftSeconds)

	return report, runErr
}

func (p *TourProject) openRecord(step director.Step, imagesDir string, used map[string]bool, report *Report) *recordDir {
	rec := step.Record
	name := rec.DirName()
	if used[name] {
		dup := name
		name = fmt.Sprintf("%s_%d", dup, step.Position)
		log.Printf("[!] Row %d: directory %s already used by an earlier record, writing to %s", rec.Row, dup, name)
	}
	used[name] = true

	dir := &recordDir{pos: step.Position, rec: rec, path: filepath.Join(imagesDir, name)}

	if err := os.MkdirAll(dir.path, 0755); err != nil {
		err = tourerr.IO("create record dir", dir.path, err)
		log.Printf("[!] Row %d: %v", rec.Row, err)
		report.Metadata = append(report.Metadata, MetadataResult{Row: rec.Row, Path: dir.path, Error: err.Error()})
		return dir
	}

	mres := MetadataResult{Row: rec.Row}
	path, err := metadata.Write(rec, dir.path, metadata.PolicyFor(p.Config.NoReroof))
	mres.Path = path
	if err != nil {
		log.Printf("[!] Failed to write metadata for row %d (%s): %v", rec.Row, rec.Address, err)
		mres.Error = err.Error()
	} else {
		mres.OK = true
	}
	report.Metadata = append(report.Metadata, mres)

	if p.Config.LocationQR {
		if _, err := metadata.WriteLocationQR(rec, dir.path); err != nil {
			log.Printf("[!] Row %d: %v", rec.Row, err)
		}
	}
	return dir
}

func (p *TourProject) captureStep(i int, step director.Step, dir string) StepResult {
	path := filepath.Join(dir, fmt.Sprintf("%s.%s", step.Year, p.Config.ImageExt))
	res := StepResult{
		Index:   i,
		Row:     step.Record.Row,
		Address: step.Record.Address,
		Year:    step.Year,
		Path:    path,
	}

	fail := func(err error) StepResult {
		res.Err = err
		res.Error = err.Error()
		return res
	}

	frame, err := p.Grabber.Grab(p.Config.CaptureRegion.Image())
	if err != nil {
		return fail(tourerr.Capture("grab", path, err))
	}

	img, err := capture.Resize(frame.Image, p.Config.TargetSize())
	if err != nil {
		return fail(tourerr.Capture("resize", path, err))
	}
	defer capture.PutImage(img)

	if p.Detector != nil {
		if det, err := p.Detector.Detect(img); err == nil {
			res.Blank = det.Blank
		}
	}

	if err := capture.Save(img, path, p.Config.ImageExt); err != nil {
		return fail(tourerr.IO("save frame", path, err))
	}

	res.OK = true
	return res
}

func (p *TourProject) encodeTimelapses(ctx context.Context, dirs []*recordDir, report *Report) {
	for _, d := range dirs {
		if len(d.frames) < 2 {
			continue
		}
		out := filepath.Join(d.path, "timelapse.mp4")
		if err := p.Timelapse.Encode(ctx, d.frames, out, time.Second); err != nil {
			log.Printf("[!] Timelapse for row %d: %v", d.rec.Row, err)
			continue
		}
		report.Timelapses = append(report.Timelapses, out)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
