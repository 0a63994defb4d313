package system

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

// ViewerProcessName is the process name the viewer usually runs under.
func ViewerProcessName(goos string) string {
	switch goos {
	case "darwin":
		return "Google Earth"
	case "windows":
		return "googleearth.exe"
	default:
		return "google-earth-pro"
	}
}

// ViewerRunning reports whether any process name contains name,
// case-insensitively.
func ViewerRunning(ctx context.Context, name string) (bool, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return false, err
	}
	want := strings.ToLower(name)
	for _, p := range procs {
		n, err := p.NameWithContext(ctx)
		if err != nil {
			continue
		}
		if strings.Contains(strings.ToLower(n), want) {
			return true, nil
		}
	}
	return false, nil
}

// WatchViewer polls for the viewer process until ctx is done and logs when
// it disappears or comes back. Captures keep going either way; the log line
// explains a run of blank frames.
func WatchViewer(ctx context.Context, name string, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	alive := true
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			running, err := ViewerRunning(ctx, name)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				log.Printf("[!] Viewer check failed: %v", err)
				continue
			}
			if alive && !running {
				log.Printf("[!] Viewer process %q not found; frames may be blank", name)
			} else if !alive && running {
				log.Printf("[*] Viewer process %q is back", name)
			}
			alive = running
		}
	}
}
