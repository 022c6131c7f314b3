package capture

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"log/slog"
	"slices"
	"strings"
	"testing"

	"github.com/user/worktrack/internal/types"
)

type fakeSource struct {
	img image.Image
	err error
}

func (f *fakeSource) Grab(context.Context) (image.Image, error) { return f.img, f.err }

type fakeLister struct {
	procs []types.ProcessInfo
	err   error
}

func (f *fakeLister) List(context.Context) ([]types.ProcessInfo, error) { return f.procs, f.err }

func solid(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 10, B: 10, A: 255})
		}
	}
	return img
}

func TestCapture_AllParts(t *testing.T) {
	procs := []types.ProcessInfo{{PID: 7, Name: "editor", Owner: "alice"}}
	c := NewWithSources(DefaultOptions(), &fakeSource{img: solid(40, 20)}, &fakeSource{img: solid(8, 8)}, &fakeLister{procs: procs})

	snap := c.Capture(context.Background())

	if len(snap.Screenshot) == 0 || len(snap.Camera) == 0 {
		t.Fatal("expected both images")
	}
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(snap.Screenshot))
	if err != nil {
		t.Fatalf("screenshot is not a jpeg: %v", err)
	}
	if cfg.Width != 40 || cfg.Height != 20 {
		t.Errorf("expected source dimensions, got %dx%d", cfg.Width, cfg.Height)
	}
	if !slices.Equal(snap.Processes, procs) {
		t.Errorf("unexpected processes %v", snap.Processes)
	}
	if len(snap.Artifacts()) != 2 {
		t.Errorf("expected 2 artifacts, got %d", len(snap.Artifacts()))
	}
}

func TestCapture_PartialFailure(t *testing.T) {
	c := NewWithSources(DefaultOptions(),
		&fakeSource{img: solid(4, 4)},
		&fakeSource{err: errors.New("no camera")},
		&fakeLister{err: errors.New("denied")},
	)

	snap := c.Capture(context.Background())

	if len(snap.Screenshot) == 0 {
		t.Error("expected screenshot despite other failures")
	}
	if snap.Camera != nil {
		t.Error("expected camera to be omitted")
	}
	if snap.Processes != nil {
		t.Error("expected processes to be omitted")
	}
	arts := snap.Artifacts()
	if len(arts) != 1 || arts[0].Kind != types.ArtifactScreenshot {
		t.Errorf("expected only screenshot artifact, got %v", arts)
	}
}

func TestCapture_DisabledParts(t *testing.T) {
	opts := DefaultOptions()
	opts.Camera = false
	opts.Screenshot = false

	c := NewWithSources(opts, &fakeSource{img: solid(4, 4)}, &fakeSource{img: solid(4, 4)}, nil)
	snap := c.Capture(context.Background())

	if snap.Screenshot != nil || snap.Camera != nil || snap.Processes != nil {
		t.Errorf("expected empty snapshot, got %+v", snap)
	}
}

func TestDownscale(t *testing.T) {
	img := Downscale(solid(101, 50), 0.5)
	if b := img.Bounds(); b.Dx() != 50 || b.Dy() != 25 {
		t.Errorf("expected 50x25, got %dx%d", b.Dx(), b.Dy())
	}

	src := solid(10, 10)
	if Downscale(src, 1) != src {
		t.Error("factor 1 should return the source image")
	}
}

func TestCameraArgs(t *testing.T) {
	cam := &Camera{Device: "/dev/video2"}
	args := cam.args()

	if !slices.Contains(args, "/dev/video2") {
		t.Errorf("expected device in args, got %v", args)
	}
	if args[len(args)-1] != "-" {
		t.Errorf("expected output to stdout, got %v", args)
	}
	i := slices.Index(args, "-frames:v")
	if i < 0 || args[i+1] != "1" {
		t.Errorf("expected a single frame, got %v", args)
	}
}

func TestCamera_MissingCommand(t *testing.T) {
	cam := &Camera{Command: "worktrack-no-such-camera-binary"}
	if _, err := cam.Grab(context.Background()); err == nil {
		t.Error("expected error for missing command")
	}
}

func TestProcessOwner_LogsLookupFailure(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	defer slog.SetDefault(prev)

	failing := func(context.Context) (string, error) { return "", errors.New("no such user") }
	if got := processOwner(context.Background(), 42, failing); got != "" {
		t.Errorf("expected empty owner, got %q", got)
	}
	out := buf.String()
	if !strings.Contains(out, "process owner lookup failed") || !strings.Contains(out, "pid=42") || !strings.Contains(out, "no such user") {
		t.Errorf("expected debug log for the failed lookup, got %q", out)
	}

	buf.Reset()
	ok := func(context.Context) (string, error) { return "alice", nil }
	if got := processOwner(context.Background(), 7, ok); got != "alice" {
		t.Errorf("expected alice, got %q", got)
	}
	if buf.Len() != 0 {
		t.Errorf("expected no log for a resolved owner, got %q", buf.String())
	}
}
