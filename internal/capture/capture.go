// Package capture takes the proof-of-work evidence for one capture cycle:
// a downscaled screenshot, a camera frame and the running-process list.
package capture

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/user/worktrack/internal/types"
)

// Source produces one image.
type Source interface {
	Grab(ctx context.Context) (image.Image, error)
}

// ProcessLister enumerates running processes.
type ProcessLister interface {
	List(ctx context.Context) ([]types.ProcessInfo, error)
}

// Options selects the parts of a cycle and their encoding.
type Options struct {
	Screenshot bool
	Camera     bool
	Processes  bool

	ScreenshotQuality int
	CameraQuality     int

	CameraCommand string
	CameraDevice  string
	CameraTimeout time.Duration
}

// DefaultOptions enables every part with the stock JPEG qualities.
func DefaultOptions() Options {
	return Options{
		Screenshot:        true,
		Camera:            true,
		Processes:         true,
		ScreenshotQuality: 90,
		CameraQuality:     85,
		CameraCommand:     "ffmpeg",
		CameraDevice:      defaultCameraDevice,
		CameraTimeout:     10 * time.Second,
	}
}

var _ types.Capturer = (*Capturer)(nil)

// Capturer runs the three parts of a cycle concurrently. A failing part is
// logged and left out of the snapshot; it never fails the cycle.
type Capturer struct {
	opts   Options
	screen Source
	camera Source
	procs  ProcessLister
}

// New creates a Capturer backed by the real display, camera and process
// table.
func New(opts Options) *Capturer {
	return NewWithSources(opts,
		&Screen{Scale: 0.5},
		&Camera{Command: opts.CameraCommand, Device: opts.CameraDevice, Timeout: opts.CameraTimeout},
		&Processes{},
	)
}

// NewWithSources creates a Capturer over the given sources. A nil source
// disables that part.
func NewWithSources(opts Options, screen, camera Source, procs ProcessLister) *Capturer {
	if opts.ScreenshotQuality <= 0 {
		opts.ScreenshotQuality = 90
	}
	if opts.CameraQuality <= 0 {
		opts.CameraQuality = 85
	}
	return &Capturer{opts: opts, screen: screen, camera: camera, procs: procs}
}

// Capture runs one cycle.
func (c *Capturer) Capture(ctx context.Context) *types.Snapshot {
	snap := &types.Snapshot{}
	var g errgroup.Group

	if c.opts.Camera && c.camera != nil {
		g.Go(func() error {
			data, err := grabJPEG(ctx, c.camera, c.opts.CameraQuality)
			if err != nil {
				slog.Warn("camera capture failed", "error", err)
				return nil
			}
			snap.Camera = data
			return nil
		})
	}

	if c.opts.Screenshot && c.screen != nil {
		g.Go(func() error {
			data, err := grabJPEG(ctx, c.screen, c.opts.ScreenshotQuality)
			if err != nil {
				slog.Warn("screenshot failed", "error", err)
				return nil
			}
			snap.Screenshot = data
			return nil
		})
	}

	if c.opts.Processes && c.procs != nil {
		g.Go(func() error {
			procs, err := c.procs.List(ctx)
			if err != nil {
				slog.Warn("process enumeration failed", "error", err)
				return nil
			}
			snap.Processes = procs
			return nil
		})
	}

	_ = g.Wait()
	slog.Debug("capture cycle finished",
		"screenshot_bytes", len(snap.Screenshot),
		"camera_bytes", len(snap.Camera),
		"processes", len(snap.Processes),
	)
	return snap
}

func grabJPEG(ctx context.Context, src Source, quality int) ([]byte, error) {
	img, err := src.Grab(ctx)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
