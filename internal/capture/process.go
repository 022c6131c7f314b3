package capture

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sort"

	"github.com/shirou/gopsutil/v4/process"

	"github.com/user/worktrack/internal/types"
)

// Processes lists the processes currently in the running state. Processes
// that exit or deny access while being inspected are skipped.
type Processes struct{}

func (p *Processes) List(ctx context.Context) ([]types.ProcessInfo, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}

	var out []types.ProcessInfo
	for _, proc := range procs {
		status, err := proc.StatusWithContext(ctx)
		if err != nil || !slices.Contains(status, process.Running) {
			continue
		}
		name, err := proc.NameWithContext(ctx)
		if err != nil {
			continue
		}
		out = append(out, types.ProcessInfo{PID: proc.Pid, Name: name, Owner: processOwner(ctx, proc.Pid, proc.UsernameWithContext)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PID < out[j].PID })
	return out, nil
}

// processOwner resolves the owning user. An unresolvable owner is recorded
// as an empty username.
func processOwner(ctx context.Context, pid int32, lookup func(context.Context) (string, error)) string {
	owner, err := lookup(ctx)
	if err != nil {
		slog.Debug("process owner lookup failed", "pid", pid, "error", err)
		return ""
	}
	return owner
}
