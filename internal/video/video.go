package video

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"
)

// TimelapseEncoder turns the yearly frames of one property into a short
// clip, oldest year first.
type TimelapseEncoder interface {
	Encode(ctx context.Context, frames []string, finalPath string, frameDuration time.Duration) error
}

type FFmpegEncoder struct {
	VideoEncoder string // libx264 when empty
	FPS          int    // output frame rate, 25 when zero
}

func (e *FFmpegEncoder) Encode(ctx context.Context, frames []string, finalPath string, frameDuration time.Duration) error {
	if len(frames) == 0 {
		return fmt.Errorf("no frames for %s", finalPath)
	}

	tmpDir, err := os.MkdirTemp("", "earthtour_")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tmpDir)

	listPath := filepath.Join(tmpDir, "inputs.txt")
	if err := os.WriteFile(listPath, []byte(concatList(frames, frameDuration)), 0644); err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, "ffmpeg", e.buildFFmpegArgs(listPath, finalPath)...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg timelapse error: %v, output: %s", err, string(out))
	}
	return nil
}

func (e *FFmpegEncoder) buildFFmpegArgs(listPath, finalPath string) []string {
	encoder := e.VideoEncoder
	if encoder == "" {
		encoder = "libx264"
	}
	fps := e.FPS
	if fps <= 0 {
		fps = 25
	}

	return []string{
		"-y",
		"-f", "concat", "-safe", "0", "-i", listPath,
		"-vf", fmt.Sprintf("fps=%d,format=yuv420p", fps),
		"-c:v", encoder,
		finalPath,
	}
}

// concatList is an ffmpeg concat-demuxer script. The last frame is listed
// twice because the demuxer ignores the duration of the final entry.
func concatList(frames []string, frameDuration time.Duration) string {
	secs := strconv.FormatFloat(frameDuration.Seconds(), 'f', -1, 64)
	list := ""
	for _, p := range frames {
		absPath, _ := filepath.Abs(p)
		list += fmt.Sprintf("file '%s'\nduration %s\n", absPath, secs)
	}
	absLast, _ := filepath.Abs(frames[len(frames)-1])
	list += fmt.Sprintf("file '%s'\n", absLast)
	return list
}
