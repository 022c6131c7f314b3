package main

import (
	"bytes"
	"syscall"
	"testing"

	"github.com/user/worktrack/internal/engine"
	"github.com/user/worktrack/internal/state"
	"github.com/user/worktrack/internal/types"
	"github.com/user/worktrack/internal/vault"
)

func TestHandleSignal_StopKeepsDaemonAlive(t *testing.T) {
	v := vault.FromKey(bytes.Repeat([]byte{9}, vault.KeySize))
	eng := engine.New(state.NewStatStore(t.TempDir(), v))

	steps := []struct {
		sig  syscall.Signal
		want types.SessionState
	}{
		{syscall.SIGHUP, types.StateRunning},
		{syscall.SIGUSR1, types.StatePaused},
		{syscall.SIGUSR2, types.StateRunning},
		{syscall.SIGTSTP, types.StateStopped},
		{syscall.SIGHUP, types.StateRunning},
		{syscall.SIGTSTP, types.StateStopped},
	}
	for i, step := range steps {
		exit, err := handleSignal(eng, step.sig)
		if err != nil {
			t.Fatalf("step %d (%s): %v", i, step.sig, err)
		}
		if exit {
			t.Fatalf("step %d (%s): daemon should keep running", i, step.sig)
		}
		if got := eng.State(); got != step.want {
			t.Errorf("step %d (%s): expected %s, got %s", i, step.sig, step.want, got)
		}
	}
}

func TestHandleSignal_InvalidTransition(t *testing.T) {
	v := vault.FromKey(bytes.Repeat([]byte{9}, vault.KeySize))
	eng := engine.New(state.NewStatStore(t.TempDir(), v))

	exit, err := handleSignal(eng, syscall.SIGUSR1)
	if exit {
		t.Error("pause while idle must not exit")
	}
	if err == nil {
		t.Error("expected pause while idle to be rejected")
	}
}

func TestHandleSignal_ShutdownSignals(t *testing.T) {
	v := vault.FromKey(bytes.Repeat([]byte{9}, vault.KeySize))
	eng := engine.New(state.NewStatStore(t.TempDir(), v))

	for _, sig := range []syscall.Signal{syscall.SIGINT, syscall.SIGTERM} {
		exit, err := handleSignal(eng, sig)
		if err != nil || !exit {
			t.Errorf("%s: expected exit, got exit=%v err=%v", sig, exit, err)
		}
	}
}

func TestLifecycleSignals(t *testing.T) {
	bySig := make(map[syscall.Signal]string)
	got := make(map[string]syscall.Signal)
	for _, ls := range lifecycleSignals {
		if prev, ok := bySig[ls.sig]; ok {
			t.Errorf("%s and %s share %s", prev, ls.use, ls.sig)
		}
		bySig[ls.sig] = ls.use
		got[ls.use] = ls.sig
	}
	if got["stop"] != syscall.SIGTSTP {
		t.Errorf("stop should send SIGTSTP, got %s", got["stop"])
	}
	if got["quit"] != syscall.SIGTERM {
		t.Errorf("quit should send SIGTERM, got %s", got["quit"])
	}
}
