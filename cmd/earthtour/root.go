package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ivlev/earthtour/internal/analyzer"
	"github.com/ivlev/earthtour/internal/capture"
	"github.com/ivlev/earthtour/internal/config"
	"github.com/ivlev/earthtour/internal/director"
	"github.com/ivlev/earthtour/internal/engine"
	"github.com/ivlev/earthtour/internal/source"
	"github.com/ivlev/earthtour/internal/system"
	"github.com/ivlev/earthtour/internal/tourerr"
	"github.com/ivlev/earthtour/internal/video"
)

var errStepFailures = errors.New("capture finished with failed steps")

var (
	cfgFile  string
	detector string

	rootCmd = &cobra.Command{
		Use:   "earthtour",
		Short: "Historical imagery tours for a list of properties",
		Long: `earthtour turns a CSV of geocoded properties into a Google Earth tour
that flies to every property once per imagery year, then plays the tour
and saves a screenshot per property and year under tour_images/.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}
)

func init() {
	def := config.Default()
	f := rootCmd.Flags()
	f.StringVar(&cfgFile, "config", "", "YAML config file (flags override it)")
	f.String("input", "", "input CSV (default: newest .csv in input/)")
	f.String("output", "", "output KML (default: input path with .kml extension)")
	f.Int("max-rows", 0, "only tour the first N rows; also limits the capture (0 = all)")
	f.Bool("generate-only", false, "write the KML and stop, without launching the viewer or capturing")
	f.Bool("no-reroof", false, "write the no-reroof marker instead of permit fields into metadata.json")
	f.String("viewer-app", "", "application to open the tour with (default: OS handler)")
	f.Duration("startup-delay", def.StartupDelay, "wait after launching the viewer before the first capture")
	f.StringSlice("years", def.Years, "imagery years, in tour order")
	f.Duration("fly-time", def.FlyTime, "flight time between steps")
	f.Duration("wait-time", def.WaitTime, "dwell time at each step")
	f.Float64("altitude", def.Altitude, "camera altitude in meters")
	f.Bool("qr", false, "write a location QR code next to each property's frames")
	f.Bool("timelapse", false, "assemble each property's frames into timelapse.mp4 (needs ffmpeg)")
	f.StringVar(&detector, "detector", "contrast", "blank frame detector: contrast, none")
}

// Execute executes the root command.
func Execute() error {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	return rootCmd.Execute()
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	src, err := source.NewCSVSource(cfg.InputPath, cfg.AddressColumn)
	if err != nil {
		return err
	}
	log.Printf("[*] Loaded %d records from %s", len(src.Records()), cfg.InputPath)

	tour, err := director.NewDirector(cfg).Build(src.Records(), cfg.MaxRows)
	if err != nil {
		return err
	}
	if err := director.WriteKML(tour, cfg.OutputPath); err != nil {
		return err
	}
	if err := verifyKML(cfg.OutputPath, tour); err != nil {
		return err
	}
	log.Printf("[+++] Tour written: %s (%d steps, %s)", cfg.OutputPath, len(tour.Steps), tour.Duration())

	if cfg.GenerateOnly {
		return nil
	}

	det, err := analyzer.NewDetector(detector)
	if err != nil {
		return tourerr.Input("detector", detector, err)
	}

	if err := system.OpenTour(ctx, cfg.ViewerApp, cfg.OutputPath); err != nil {
		return err
	}
	log.Printf("[*] Viewer launched, capturing in %s", cfg.StartupDelay)
	select {
	case <-time.After(cfg.StartupDelay):
	case <-ctx.Done():
		return ctx.Err()
	}

	project := engine.NewTourProject(cfg, tour, capture.ScreenGrabber{}, det)
	project.TourPath = cfg.OutputPath
	if cfg.Timelapse {
		project.Timelapse = &video.FFmpegEncoder{}
	}

	viewer := cfg.ViewerApp
	if viewer == "" {
		viewer = system.ViewerProcessName(runtime.GOOS)
	}

	var report *engine.Report
	g, gctx := errgroup.WithContext(ctx)
	watchCtx, stopWatch := context.WithCancel(gctx)
	g.Go(func() error {
		return system.WatchViewer(watchCtx, viewer, 5*time.Second)
	})
	g.Go(func() error {
		defer stopWatch()
		var err error
		report, err = project.Run(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	log.Printf("[+++] Frames saved under %s", cfg.ImagesDir())
	if report != nil && report.FailureCount > 0 {
		return fmt.Errorf("%w: %d of %d", errStepFailures, report.FailureCount, len(report.Steps))
	}
	return nil
}

// buildConfig layers defaults, the optional config file and explicitly set
// flags, in that order.
func buildConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()
	if cfgFile != "" {
		var err error
		if cfg, err = config.Load(cfgFile, cfg); err != nil {
			return cfg, err
		}
	}

	f := cmd.Flags()
	if f.Changed("input") {
		cfg.InputPath, _ = f.GetString("input")
	}
	if f.Changed("output") {
		cfg.OutputPath, _ = f.GetString("output")
	}
	if f.Changed("max-rows") {
		cfg.MaxRows, _ = f.GetInt("max-rows")
	}
	if f.Changed("generate-only") {
		cfg.GenerateOnly, _ = f.GetBool("generate-only")
	}
	if f.Changed("no-reroof") {
		cfg.NoReroof, _ = f.GetBool("no-reroof")
	}
	if f.Changed("viewer-app") {
		cfg.ViewerApp, _ = f.GetString("viewer-app")
	}
	if f.Changed("startup-delay") {
		cfg.StartupDelay, _ = f.GetDuration("startup-delay")
	}
	if f.Changed("years") {
		cfg.Years, _ = f.GetStringSlice("years")
	}
	if f.Changed("fly-time") {
		cfg.FlyTime, _ = f.GetDuration("fly-time")
	}
	if f.Changed("wait-time") {
		cfg.WaitTime, _ = f.GetDuration("wait-time")
	}
	if f.Changed("altitude") {
		cfg.Altitude, _ = f.GetFloat64("altitude")
	}
	if f.Changed("qr") {
		cfg.LocationQR, _ = f.GetBool("qr")
	}
	if f.Changed("timelapse") {
		cfg.Timelapse, _ = f.GetBool("timelapse")
	}

	if cfg.InputPath == "" {
		latest, err := system.FindLatestCSV("input")
		if err != nil {
			return cfg, tourerr.Input("find input", "input", err)
		}
		cfg.InputPath = latest
		log.Printf("[*] Selected input: %s", cfg.InputPath)
	}
	cfg.OutputPath = director.OutputPath(cfg.InputPath, cfg.OutputPath)

	return cfg, config.Validate(cfg)
}

// verifyKML reads the written document back and checks it still holds one
// fly-to/wait pair per tour step.
func verifyKML(path string, tour *director.Tour) error {
	ins, err := director.ReadKML(path)
	if err != nil {
		return err
	}
	if len(ins) != 2*len(tour.Steps) {
		return tourerr.IO("verify kml", path, fmt.Errorf("expected %d instructions, found %d", 2*len(tour.Steps), len(ins)))
	}
	return nil
}
