package engine

import (
	"context"
	"errors"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/ivlev/earthtour/internal/analyzer"
	"github.com/ivlev/earthtour/internal/capture"
	"github.com/ivlev/earthtour/internal/config"
	"github.com/ivlev/earthtour/internal/director"
	"github.com/ivlev/earthtour/internal/metadata"
	"github.com/ivlev/earthtour/internal/source"
	"github.com/ivlev/earthtour/internal/tourerr"
)

// fakeClock advances only when the grabber works or the loop sleeps.
type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return ctx.Err()
}

// fakeGrabber returns a striped frame, failing on the attempts listed.
type fakeGrabber struct {
	clock    *fakeClock
	cost     time.Duration
	failOn   map[int]bool
	attempts int
}

func (g *fakeGrabber) Grab(region image.Rectangle) (*capture.Frame, error) {
	g.attempts++
	g.clock.now = g.clock.now.Add(g.cost)
	if g.failOn[g.attempts] {
		return nil, errors.New("simulated grab failure")
	}
	img := image.NewRGBA(image.Rect(0, 0, region.Dx(), region.Dy()))
	for y := 0; y < region.Dy(); y++ {
		for x := 0; x < region.Dx(); x++ {
			if (x/4)%2 == 0 {
				img.Set(x, y, color.White)
			} else {
				img.Set(x, y, color.Black)
			}
		}
	}
	return &capture.Frame{Image: img, Timestamp: g.clock.now}, nil
}

func testConfig(t *testing.T) config.Config {
	cfg := config.Default()
	cfg.OutputPath = filepath.Join(t.TempDir(), "tour.kml")
	cfg.Years = []string{"2012", "2013", "2014"}
	cfg.FlyTime = time.Second
	cfg.WaitTime = 2 * time.Second
	cfg.CaptureRegion = config.Rectangle{W: 32, H: 24}
	cfg.TargetWidth = 16
	cfg.TargetHeight = 12
	cfg.NoReroof = true
	return cfg
}

func testRecords() []source.Record {
	return []source.Record{
		{Row: 0, Latitude: 32.75, Longitude: -97.33, Address: "123 Main St"},
		{Row: 1, Latitude: 32.70, Longitude: -97.40, Address: "9 Elm Ave"},
	}
}

func newTestProject(t *testing.T, cfg config.Config, failOn map[int]bool) (*TourProject, *fakeClock, *fakeGrabber) {
	t.Helper()
	tour, err := director.NewDirector(cfg).Build(testRecords(), cfg.MaxRows)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	grabber := &fakeGrabber{clock: clock, cost: 200 * time.Millisecond, failOn: failOn}

	p := NewTourProject(cfg, tour, grabber, analyzer.NopDetector{})
	p.Now = clock.Now
	p.Sleep = clock.Sleep
	p.Progress = nil
	return p, clock, grabber
}

func TestRunContinuesAfterCaptureFailure(t *testing.T) {
	cfg := testConfig(t)
	p, clock, grabber := newTestProject(t, cfg, map[int]bool{3: true})

	report, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if grabber.attempts != 6 {
		t.Fatalf("Expected 6 capture attempts, got %d", grabber.attempts)
	}
	if len(report.Steps) != 6 {
		t.Fatalf("Expected 6 step results, got %d", len(report.Steps))
	}

	records := testRecords()
	for i, s := range report.Steps {
		wantRow := records[i/3].Row
		wantYear := cfg.Years[i%3]
		if s.Row != wantRow || s.Year != wantYear {
			t.Errorf("step %d: expected row %d year %s, got row %d year %s", i, wantRow, wantYear, s.Row, s.Year)
		}
	}

	failures := report.Failures()
	if len(failures) != 1 || failures[0].Index != 2 {
		t.Fatalf("Expected exactly step 2 to fail, got %+v", failures)
	}
	if !errors.Is(failures[0].Err, tourerr.ErrCapture) {
		t.Errorf("Expected ErrCapture, got %v", failures[0].Err)
	}
	if report.SuccessCount != 5 || report.FailureCount != 1 {
		t.Errorf("Expected 5/1, got %d/%d", report.SuccessCount, report.FailureCount)
	}

	// The failed step still waits out its cycle so later steps stay aligned.
	if len(clock.sleeps) != 6 {
		t.Fatalf("Expected 6 sleeps, got %d", len(clock.sleeps))
	}
	for i, d := range clock.sleeps {
		if d != 2800*time.Millisecond {
			t.Errorf("sleep %d: expected 2.8s, got %v", i, d)
		}
	}
	if math.Abs(report.DriftSeconds) > 1e-9 {
		t.Errorf("Expected zero drift, got %f", report.DriftSeconds)
	}

	if _, err := os.Stat(filepath.Join(cfg.ImagesDir(), "123_Main_St", "2014.png")); !os.IsNotExist(err) {
		t.Errorf("failed step must leave a gap, stat err = %v", err)
	}
}

func TestRunWritesPerAddressLayout(t *testing.T) {
	cfg := testConfig(t)
	p, _, _ := newTestProject(t, cfg, nil)

	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	dir := filepath.Join(cfg.ImagesDir(), "123_Main_St")
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("record dir missing: %v", err)
	}

	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	want := []string{"2012.png", "2013.png", "2014.png", "metadata.json"}
	if len(names) != len(want) {
		t.Fatalf("Expected %v, got %v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Expected %v, got %v", want, names)
			break
		}
	}

	m, err := metadata.Read(filepath.Join(dir, metadata.FileName))
	if err != nil {
		t.Fatalf("metadata unreadable: %v", err)
	}
	if m.ReroofType != metadata.NoReroof || m.ReroofPermitIssueDate != nil {
		t.Errorf("no-reroof policy not applied: %+v", m)
	}

	r, err := ReadReport(filepath.Join(cfg.ImagesDir(), ReportFileName))
	if err != nil {
		t.Fatalf("report unreadable: %v", err)
	}
	if r.SuccessCount != 6 || len(r.Steps) != 6 || len(r.Metadata) != 2 {
		t.Errorf("unexpected report counts: %d steps, %d ok, %d metadata", len(r.Steps), r.SuccessCount, len(r.Metadata))
	}
}

func TestRunHonorsMaxRows(t *testing.T) {
	cfg := testConfig(t)
	cfg.MaxRows = 1
	p, _, grabber := newTestProject(t, cfg, nil)

	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if grabber.attempts != 3 {
		t.Errorf("Expected 3 attempts for one row, got %d", grabber.attempts)
	}
	if _, err := os.Stat(filepath.Join(cfg.ImagesDir(), "9_Elm_Ave")); !os.IsNotExist(err) {
		t.Errorf("truncated row must not be captured")
	}
}

func TestRunMetadataFailureIsNotFatal(t *testing.T) {
	cfg := testConfig(t)
	cfg.NoReroof = false // records carry no permit columns
	p, _, grabber := newTestProject(t, cfg, nil)

	report, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if grabber.attempts != 6 || report.SuccessCount != 6 {
		t.Errorf("captures must proceed, got %d attempts %d ok", grabber.attempts, report.SuccessCount)
	}
	for _, m := range report.Metadata {
		if m.OK || m.Error == "" {
			t.Errorf("row %d: expected metadata failure, got %+v", m.Row, m)
		}
	}
}

func TestRunSlowCaptureReportsDrift(t *testing.T) {
	cfg := testConfig(t)
	p, clock, grabber := newTestProject(t, cfg, nil)
	grabber.cost = 3500 * time.Millisecond // longer than the 3s cycle

	report, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(clock.sleeps) != 0 {
		t.Errorf("overrunning steps must not sleep, got %v", clock.sleeps)
	}
	if math.Abs(report.DriftSeconds-3.0) > 1e-9 {
		t.Errorf("Expected 3s drift after 6 steps, got %f", report.DriftSeconds)
	}
}

func TestRunInterrupted(t *testing.T) {
	cfg := testConfig(t)
	p, _, grabber := newTestProject(t, cfg, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := p.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if !report.Interrupted || grabber.attempts != 1 {
		t.Errorf("Expected stop after first step, got %d attempts", grabber.attempts)
	}
}

func TestRunKeysRecordsByPosition(t *testing.T) {
	cfg := testConfig(t)
	records := source.Slice{
		{Latitude: 32.75, Longitude: -97.33, Address: "123 Main St"},
		{Latitude: 32.70, Longitude: -97.40, Address: "9 Elm Ave"},
	}
	tour, err := director.NewDirector(cfg).Build(records.Records(), 0)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	p := NewTourProject(cfg, tour, &fakeGrabber{clock: clock}, nil)
	p.Now = clock.Now
	p.Sleep = clock.Sleep
	p.Progress = nil

	report, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(report.Metadata) != 2 {
		t.Fatalf("Expected metadata for 2 records, got %d", len(report.Metadata))
	}
	for _, dir := range []string{"123_Main_St", "9_Elm_Ave"} {
		if _, err := os.Stat(filepath.Join(cfg.ImagesDir(), dir, metadata.FileName)); err != nil {
			t.Errorf("%s: missing metadata: %v", dir, err)
		}
		for _, year := range cfg.Years {
			if _, err := os.Stat(filepath.Join(cfg.ImagesDir(), dir, year+".png")); err != nil {
				t.Errorf("%s: missing frame for %s: %v", dir, year, err)
			}
		}
	}
	for i, s := range report.Steps {
		want := records[i/len(cfg.Years)].Address
		if s.Address != want || filepath.Base(filepath.Dir(s.Path)) != records[i/len(cfg.Years)].DirName() {
			t.Errorf("step %d: expected %s, got %s at %s", i, want, s.Address, s.Path)
		}
	}
}

func TestRunDuplicateAddressGetsOwnDir(t *testing.T) {
	cfg := testConfig(t)
	records := []source.Record{
		{Row: 0, Latitude: 32.75, Longitude: -97.33, Address: "123 Main St"},
		{Row: 1, Latitude: 32.75, Longitude: -97.33, Address: "123 Main St"},
	}
	tour, err := director.NewDirector(cfg).Build(records, 0)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	p := NewTourProject(cfg, tour, &fakeGrabber{clock: clock}, nil)
	p.Now = clock.Now
	p.Sleep = clock.Sleep
	p.Progress = nil

	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	for _, dir := range []string{"123_Main_St", "123_Main_St_1"} {
		if _, err := os.Stat(filepath.Join(cfg.ImagesDir(), dir, metadata.FileName)); err != nil {
			t.Errorf("%s: missing metadata: %v", dir, err)
		}
		if _, err := os.Stat(filepath.Join(cfg.ImagesDir(), dir, "2012.png")); err != nil {
			t.Errorf("%s: missing frame: %v", dir, err)
		}
	}
}

func TestRunEmptyTour(t *testing.T) {
	p := NewTourProject(testConfig(t), &director.Tour{}, nil, nil)
	if _, err := p.Run(context.Background()); !errors.Is(err, tourerr.ErrInput) {
		t.Errorf("Expected ErrInput, got %v", err)
	}
}
