package system

import (
	"context"
	"fmt"
	"log"
	"os/exec"
	"runtime"
)

// OpenCommand returns the command line that opens path with app, or with
// the platform's default handler when app is empty.
func OpenCommand(goos, app, path string) (string, []string) {
	switch goos {
	case "darwin":
		if app != "" {
			return "/usr/bin/open", []string{"-a", app, path}
		}
		return "/usr/bin/open", []string{path}
	case "windows":
		if app != "" {
			return "cmd", []string{"/c", "start", "", app, path}
		}
		return "cmd", []string{"/c", "start", "", path}
	default:
		if app != "" {
			return app, []string{path}
		}
		return "xdg-open", []string{path}
	}
}

// OpenTour hands the KML to the viewer. The viewer starts playing the tour
// on its own; nothing here waits for it.
func OpenTour(ctx context.Context, app, path string) error {
	name, args := OpenCommand(runtime.GOOS, app, path)
	cmd := exec.CommandContext(ctx, name, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("open tour with %s: %w", name, err)
	}
	go func() {
		if err := cmd.Wait(); err != nil {
			log.Printf("[!] %s exited: %v", name, err)
		}
	}()
	return nil
}
