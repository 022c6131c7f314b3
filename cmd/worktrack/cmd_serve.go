package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/worktrack/internal/capture"
	"github.com/user/worktrack/internal/config"
	"github.com/user/worktrack/internal/delivery"
	"github.com/user/worktrack/internal/engine"
	"github.com/user/worktrack/internal/scheduler"
	"github.com/user/worktrack/internal/state"
	"github.com/user/worktrack/internal/types"
)

const (
	pidFileName     = "worktrack.pid"
	shutdownTimeout = 5 * time.Second
)

var serveIdle bool

func init() {
	serveCmd.Flags().BoolVar(&serveIdle, "idle", false, "wait for the start command instead of recording immediately")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the recorder daemon",
	Long: `Run the recorder daemon in the foreground.

The daemon is controlled with signals, which the start, pause, resume, stop
and quit commands send through the PID file:

  SIGHUP   start a new session
  SIGUSR1  pause the session
  SIGUSR2  resume the session
  SIGTSTP  stop the session and keep running
  SIGTERM  stop the session and exit`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func writePIDFile(dataDir string) (string, error) {
	pidPath := filepath.Join(dataDir, pidFileName)
	pid := os.Getpid()
	if err := os.WriteFile(pidPath, []byte(strconv.Itoa(pid)+"\n"), 0644); err != nil {
		return "", fmt.Errorf("write PID file: %w", err)
	}
	return pidPath, nil
}

func captureOptions(cfg *config.Config) capture.Options {
	opts := capture.DefaultOptions()
	opts.Screenshot = cfg.Capture.Screenshot
	opts.Camera = cfg.Capture.Camera
	opts.Processes = cfg.Capture.Processes
	opts.ScreenshotQuality = cfg.Capture.ScreenshotQuality
	opts.CameraQuality = cfg.Capture.CameraQuality
	opts.CameraTimeout = cfg.CameraTimeout()
	if cfg.Capture.CameraCommand != "" {
		opts.CameraCommand = cfg.Capture.CameraCommand
	}
	if cfg.Capture.CameraDevice != "" {
		opts.CameraDevice = cfg.Capture.CameraDevice
	}
	return opts
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	setupLogging(cfg)

	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	if pid, err := readPID(cfg); err == nil {
		return fmt.Errorf("daemon already running (PID %d)", pid)
	}

	pidPath, err := writePIDFile(cfg.DataDir)
	if err != nil {
		return err
	}
	defer os.Remove(pidPath)

	// Stores
	v, stats, records := openStores(cfg)
	catalog := state.NewCatalog(stats)

	eng := engine.New(stats,
		engine.WithCapture(capture.New(captureOptions(cfg)), records, cfg.Interval()),
		engine.WithCatalog(catalog),
	)

	// Status fan-out
	status := newStatusFile(cfg.DataDir, v, eng)
	defer status.Remove()

	deliveryReg := delivery.NewRegistry()
	deliveryReg.Register("log", func(message string) error {
		slog.Info("status", "message", message)
		return nil
	})
	deliveryReg.Register("statusfile", status.Deliver)

	eng.SetStatusCallback(func(message string) {
		if err := deliveryReg.Broadcast(message); err != nil {
			slog.Error("status delivery failed", "error", err)
		}
	})
	eng.SetStatsCallback(func(weekday, total, weekend string) {
		if err := status.Tick(); err != nil {
			slog.Warn("status file write failed", "error", err)
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	eng.Launch(ctx)

	// Checkpoints
	sched := scheduler.New(scheduler.CheckpointJob(cfg.CheckpointSchedule, eng))
	sched.Start(ctx)
	defer sched.Stop()

	slog.Info("worktrack started",
		"data_dir", cfg.DataDir,
		"log_level", cfg.LogLevel,
		"interval", cfg.Interval(),
		"checkpoint_schedule", cfg.CheckpointSchedule,
		"week", eng.Week(),
		"pid_file", pidPath,
	)

	if !serveIdle {
		if err := eng.Start(); err != nil {
			return fmt.Errorf("start session: %w", err)
		}
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGUSR1, syscall.SIGUSR2, syscall.SIGTSTP)
	defer signal.Stop(sigChan)

	for sig := range sigChan {
		exit, err := handleSignal(eng, sig)
		switch {
		case exit:
			slog.Info("shutting down", "signal", sig)
			if err := eng.Cleanup(shutdownTimeout); err != nil {
				slog.Error("cleanup incomplete", "error", err)
			}
			return nil
		case errors.Is(err, types.ErrInvalidTransition):
			slog.Warn("signal ignored", "signal", sig, "state", eng.State().String(), "error", err)
		case err != nil:
			slog.Error("signal handling failed", "signal", sig, "error", err)
		}
	}
	return nil
}

// handleSignal applies a control signal to the engine. It reports exit for
// SIGINT and SIGTERM, leaving shutdown to the caller.
func handleSignal(eng *engine.Engine, sig os.Signal) (exit bool, err error) {
	switch sig {
	case syscall.SIGHUP:
		return false, eng.Start()
	case syscall.SIGUSR1:
		return false, eng.Pause()
	case syscall.SIGUSR2:
		return false, eng.Resume()
	case syscall.SIGTSTP:
		return false, eng.Stop()
	case syscall.SIGINT, syscall.SIGTERM:
		return true, nil
	}
	return false, nil
}
