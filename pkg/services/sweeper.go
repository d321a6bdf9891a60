package services

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

// DefaultSweepSchedule runs the idle-session sweep every minute.
const DefaultSweepSchedule = "@every 1m"

// Sweepable drops its idle sessions and reports how many were removed.
type Sweepable interface {
	Sweep() int
}

// Sweeper periodically removes idle authoring and filling sessions.
type Sweeper struct {
	logger   *slog.Logger
	schedule string
	targets  []Sweepable
	cron     *cron.Cron
	mutex    sync.Mutex
}

// NewSweeper creates a sweeper for targets. An empty schedule means DefaultSweepSchedule.
func NewSweeper(logger *slog.Logger, schedule string, targets ...Sweepable) *Sweeper {
	if schedule == "" {
		schedule = DefaultSweepSchedule
	}

	return &Sweeper{
		logger:   logger.With("module", "session_sweeper"),
		schedule: schedule,
		targets:  targets,
	}
}

// Start schedules the sweep job.
func (s *Sweeper) Start() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.cron != nil {
		return nil
	}

	c := cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
		cron.Recover(cron.DefaultLogger),
	))

	entryID, err := c.AddFunc(s.schedule, func() { s.Run() })
	if err != nil {
		return fmt.Errorf("invalid sweep schedule '%s': %w", s.schedule, err)
	}

	c.Start()
	s.cron = c

	s.logger.Info("Session sweeper started", "schedule", s.schedule, "entry_id", entryID)

	return nil
}

// Run sweeps every target once and returns the number of removed sessions.
func (s *Sweeper) Run() int {
	removed := 0
	for _, target := range s.targets {
		removed += target.Sweep()
	}

	if removed > 0 {
		s.logger.Info("Removed idle sessions", "count", removed)
	}

	return removed
}

// Stop halts the schedule and waits for a running sweep.
func (s *Sweeper) Stop() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.cron == nil {
		return
	}

	<-s.cron.Stop().Done()
	s.cron = nil

	s.logger.Info("Session sweeper stopped")
}
