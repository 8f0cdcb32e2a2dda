// Package scheduler runs the periodic archival sweep.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/JohanDJ0/restapi-gastos/internal/logger"
	"github.com/JohanDJ0/restapi-gastos/internal/metrics"
	"github.com/JohanDJ0/restapi-gastos/internal/services"
)

// sweepTimeout bounds a single scheduled sweep.
const sweepTimeout = 5 * time.Minute

// Scheduler wraps the cron runner. A nil Scheduler is valid and does nothing.
type Scheduler struct {
	cron *cron.Cron
}

// New registers the archival sweep on schedule, a standard cron spec or a
// descriptor like "@every 1h". An empty schedule disables the job and
// returns a nil Scheduler.
func New(schedule string, archival services.ArchivalServicer, loc *time.Location) (*Scheduler, error) {
	if schedule == "" {
		return nil, nil
	}
	if loc == nil {
		loc = time.Local
	}

	c := cron.New(cron.WithLocation(loc), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	_, err := c.AddFunc(schedule, func() { runSweep(archival) })
	if err != nil {
		return nil, fmt.Errorf("invalid archival sweep schedule %q: %w", schedule, err)
	}
	return &Scheduler{cron: c}, nil
}

func runSweep(archival services.ArchivalServicer) {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	start := time.Now()
	archived := archival.SweepAll(ctx, metrics.TriggerSchedule)
	logger.Get().Infow("scheduled archival sweep finished",
		"archived", len(archived),
		"duration", time.Since(start).String(),
	)
}

// Start begins running jobs in the background.
func (s *Scheduler) Start() {
	if s == nil {
		return
	}
	s.cron.Start()
	logger.Get().Info("Archival sweep scheduled")
}

// Stop halts the runner and waits for a running sweep, up to ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	if s == nil {
		return
	}
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		logger.Get().Warn("archival sweep still running at shutdown")
	}
}

// Entries reports how many jobs are registered.
func (s *Scheduler) Entries() int {
	if s == nil {
		return 0
	}
	return len(s.cron.Entries())
}
