package video

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestConcatList(t *testing.T) {
	frames := []string{"/a/2012.png", "/a/2013.png"}
	got := concatList(frames, 500*time.Millisecond)

	want := "file '/a/2012.png'\nduration 0.5\nfile '/a/2013.png'\nduration 0.5\nfile '/a/2013.png'\n"
	if got != want {
		t.Errorf("unexpected concat list:\n%s", got)
	}
}

func TestBuildFFmpegArgs(t *testing.T) {
	e := &FFmpegEncoder{}
	args := e.buildFFmpegArgs("/tmp/list.txt", "/out/timelapse.mp4")
	joined := strings.Join(args, " ")

	for _, want := range []string{"-f concat", "-i /tmp/list.txt", "fps=25,format=yuv420p", "-c:v libx264"} {
		if !strings.Contains(joined, want) {
			t.Errorf("args missing %q: %s", want, joined)
		}
	}
	if args[len(args)-1] != "/out/timelapse.mp4" {
		t.Errorf("output path must be last, got %s", args[len(args)-1])
	}
}

func TestEncodeWithoutFrames(t *testing.T) {
	e := &FFmpegEncoder{}
	err := e.Encode(context.Background(), nil, filepath.Join(t.TempDir(), "x.mp4"), time.Second)
	if err == nil {
		t.Error("Expected error for empty frame list")
	}
}
