// internal/scheduler/scheduler.go
package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/user/worktrack/internal/types"
)

// Job is a named function fired on a cron schedule.
type Job struct {
	Name     string
	Schedule string
	Enabled  bool
	Run      func(ctx context.Context) error
}

// Scheduler fires jobs on their cron schedules.
type Scheduler struct {
	jobs []Job
	cron *cron.Cron
	ctx  context.Context
}

// cronParser accepts both standard 5-field cron expressions and 6-field
// expressions with an optional seconds field, plus descriptors such as
// "@every 10m".
var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Validate reports whether schedule is an expression the scheduler accepts.
// An empty schedule is valid and disables the job.
func Validate(schedule string) error {
	if schedule == "" {
		return nil
	}
	if _, err := cronParser.Parse(schedule); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}
	return nil
}

// New creates a Scheduler for the given jobs.
func New(jobs ...Job) *Scheduler {
	return &Scheduler{
		jobs: jobs,
		cron: cron.New(cron.WithParser(cronParser)),
		ctx:  context.Background(),
	}
}

// Start registers enabled jobs that have a schedule and starts the cron
// ticker. Jobs with an invalid schedule are logged and skipped. ctx is
// passed to every job run.
func (s *Scheduler) Start(ctx context.Context) {
	s.ctx = ctx
	for _, job := range s.jobs {
		if job.Schedule == "" || !job.Enabled || job.Run == nil {
			continue
		}

		job := job
		_, err := s.cron.AddFunc(job.Schedule, func() {
			slog.Debug("cron firing job", "name", job.Name)
			if err := job.Run(s.ctx); err != nil {
				slog.Error("scheduled job failed", "name", job.Name, "error", err)
			}
		})
		if err != nil {
			slog.Error("invalid cron schedule", "name", job.Name, "schedule", job.Schedule, "error", err)
			continue
		}
		slog.Info("scheduled job", "name", job.Name, "schedule", job.Schedule)
	}

	s.cron.Start()
}

// Stop stops the cron ticker and waits for running jobs to return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// Checkpointer is the part of the engine a checkpoint job needs.
type Checkpointer interface {
	State() types.SessionState
	Save(ctx context.Context) error
}

// CheckpointJob persists the running totals on schedule while a session is
// running. Idle, paused and stopped sessions have nothing unsaved.
func CheckpointJob(schedule string, c Checkpointer) Job {
	return Job{
		Name:     "checkpoint",
		Schedule: schedule,
		Enabled:  true,
		Run: func(ctx context.Context) error {
			if c.State() != types.StateRunning {
				return nil
			}
			return c.Save(ctx)
		},
	}
}
