package main

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/user/worktrack/internal/config"
	"github.com/user/worktrack/internal/engine"
	"github.com/user/worktrack/internal/state"
	"github.com/user/worktrack/internal/vault"
)

func TestStatusFile_DeliverAndTick(t *testing.T) {
	dir := t.TempDir()
	v := vault.FromKey(bytes.Repeat([]byte{9}, vault.KeySize))
	eng := engine.New(state.NewStatStore(dir, v))

	status := newStatusFile(dir, v, eng)
	if err := status.Deliver("Recording paused"); err != nil {
		t.Fatal(err)
	}

	var doc statusDoc
	path := filepath.Join(dir, statusFileName)
	format, err := v.DecryptJSON(path, &doc)
	if err != nil {
		t.Fatal(err)
	}
	if format != vault.FormatEncrypted {
		t.Error("expected status file to be encrypted")
	}
	if doc.Message != "Recording paused" || doc.State != "idle" || doc.Total != "00:00:00" {
		t.Errorf("unexpected status %+v", doc)
	}

	// A tick right after a write is throttled.
	first := doc.UpdatedAt
	if err := status.Tick(); err != nil {
		t.Fatal(err)
	}
	if _, err := v.DecryptJSON(path, &doc); err != nil {
		t.Fatal(err)
	}
	if !doc.UpdatedAt.Equal(first) {
		t.Error("expected tick to be throttled")
	}

	status.minInterval = 0
	time.Sleep(time.Millisecond)
	if err := status.Tick(); err != nil {
		t.Fatal(err)
	}
	if _, err := v.DecryptJSON(path, &doc); err != nil {
		t.Fatal(err)
	}
	if !doc.UpdatedAt.After(first) {
		t.Error("expected tick to rewrite the status")
	}

	status.Remove()
	if _, err := v.DecryptJSON(path, &doc); err == nil {
		t.Error("expected status file to be removed")
	}
}

func TestCaptureOptions(t *testing.T) {
	cfg := config.Default()
	cfg.Capture.Camera = false
	cfg.Capture.CameraDevice = "/dev/video3"
	cfg.Capture.CameraTimeoutSeconds = 3

	opts := captureOptions(cfg)
	if opts.Camera || !opts.Screenshot || !opts.Processes {
		t.Errorf("unexpected part selection %+v", opts)
	}
	if opts.CameraDevice != "/dev/video3" || opts.CameraTimeout != 3*time.Second {
		t.Errorf("unexpected camera options %+v", opts)
	}
	if opts.ScreenshotQuality != 90 || opts.CameraQuality != 85 {
		t.Errorf("unexpected qualities %d/%d", opts.ScreenshotQuality, opts.CameraQuality)
	}
}
