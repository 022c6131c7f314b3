package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/user/worktrack/internal/config"
)

// lifecycleSignals maps each control command to the signal the daemon
// handles in serve.
var lifecycleSignals = []struct {
	use, short string
	sig        syscall.Signal
}{
	{"start", "Start a new session in the running daemon", syscall.SIGHUP},
	{"pause", "Pause the current session", syscall.SIGUSR1},
	{"resume", "Resume a paused session", syscall.SIGUSR2},
	{"stop", "Stop the session, the daemon keeps running", syscall.SIGTSTP},
	{"quit", "Stop the session and shut the daemon down", syscall.SIGTERM},
}

func init() {
	for _, ls := range lifecycleSignals {
		rootCmd.AddCommand(signalCommand(ls.use, ls.short, ls.sig))
	}
}

// readPID reads the PID from the worktrack.pid file and validates the
// process exists by sending signal 0.
func readPID(cfg *config.Config) (int, error) {
	pidPath := filepath.Join(cfg.DataDir, pidFileName)

	data, err := os.ReadFile(pidPath)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, fmt.Errorf("no running daemon (PID file not found)")
		}
		return 0, fmt.Errorf("read PID file: %w", err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("invalid PID file content: %w", err)
	}

	// Check if process exists
	proc, err := os.FindProcess(pid)
	if err != nil {
		return 0, fmt.Errorf("find process %d: %w", pid, err)
	}
	if err := proc.Signal(syscall.Signal(0)); err != nil {
		return 0, fmt.Errorf("no running daemon (process %d not found)", pid)
	}

	return pid, nil
}

func signalCommand(use, short string, sig syscall.Signal) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pid, err := readPID(loadConfig())
			if err != nil {
				return err
			}

			proc, err := os.FindProcess(pid)
			if err != nil {
				return fmt.Errorf("find process: %w", err)
			}
			if err := proc.Signal(sig); err != nil {
				return fmt.Errorf("send %s: %w", sig, err)
			}

			fmt.Fprintf(os.Stdout, "Sent %s to daemon (PID %d).\n", use, pid)
			return nil
		},
	}
}
