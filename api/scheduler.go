/*
scheduler.go - Scheduled recalculation and alert sweeps

PURPOSE:
  Runs the two background jobs on cron schedules:
  - recalculation: fills commissions of zero-commission sales whose
    operator/partner now has an automatic setting
  - alerts: loyalty-expiry and lead follow-up notifications

DESIGN:
  - robfig/cron with SkipIfStillRunning: an overrunning job is skipped,
    never stacked
  - The recalculator is shared with the API, so a scheduled run and an
    API run never overlap (the second gets ErrRunInProgress)
  - Every scheduled run is recorded like an API run, trigger "schedule"
  - Stop cancels in-flight jobs and waits for them

CONFIGURATION:
  - RECALC_CRON: recalculation schedule, empty disables
  - ALERTS_CRON: alert schedule (default "0 9 * * *"), empty disables

USAGE:
  scheduler := NewScheduler(handler, cfg.RecalcCron, cfg.AlertsCron)
  if err := scheduler.Start(); err != nil { ... }
  defer scheduler.Stop()

SEE ALSO:
  - handlers.go: Recalculate and CheckAlerts (manual triggers)
  - commission/recalc.go: Recalculator
  - alerts/sweep.go: Sweeper
*/
package api

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/hugoalbmartins/Leiritrix-sub000/alerts"
	"github.com/hugoalbmartins/Leiritrix-sub000/commission"
)

// Scheduler runs recalculation and alert sweeps on cron schedules.
type Scheduler struct {
	Recalc     *commission.Recalculator
	Alerts     *alerts.Sweeper // nil disables the alert job
	RecalcSpec string
	AlertsSpec string
	Options    commission.RecalcOptions
	Logger     zerolog.Logger

	mu     sync.Mutex
	cron   *cron.Cron
	cancel context.CancelFunc
	ctx    context.Context
}

// NewScheduler creates a scheduler sharing the handler's jobs.
func NewScheduler(h *Handler, recalcSpec, alertsSpec string) *Scheduler {
	return &Scheduler{
		Recalc:     h.Recalc,
		Alerts:     h.Alerts,
		RecalcSpec: recalcSpec,
		AlertsSpec: alertsSpec,
		Options:    h.RecalcOptions,
		Logger:     h.Logger.With().Str("component", "scheduler").Logger(),
	}
}

// Start registers the jobs and starts the cron loop. Invalid cron
// expressions are reported before anything runs.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil {
		return nil
	}

	logger := cronLogger{s.Logger}
	c := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	if s.RecalcSpec != "" {
		if _, err := c.AddFunc(s.RecalcSpec, func() { s.recalculate(s.ctx) }); err != nil {
			return fmt.Errorf("invalid recalculation schedule %q: %w", s.RecalcSpec, err)
		}
	}
	if s.Alerts != nil && s.AlertsSpec != "" {
		if _, err := c.AddFunc(s.AlertsSpec, func() { s.sweepAlerts(s.ctx) }); err != nil {
			return fmt.Errorf("invalid alerts schedule %q: %w", s.AlertsSpec, err)
		}
	}

	if len(c.Entries()) == 0 {
		s.Logger.Info().Msg("no jobs scheduled, not starting")
		return nil
	}

	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.cron = c
	c.Start()

	s.Logger.Info().
		Str("recalc", s.RecalcSpec).
		Str("alerts", s.AlertsSpec).
		Msg("scheduler started")
	return nil
}

// Stop cancels running jobs and waits for them to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron == nil {
		return
	}
	s.cancel()
	<-s.cron.Stop().Done()
	s.cron = nil
	s.Logger.Info().Msg("scheduler stopped")
}

// RunNow runs both jobs once, synchronously.
func (s *Scheduler) RunNow(ctx context.Context) {
	s.recalculate(ctx)
	if s.Alerts != nil {
		s.sweepAlerts(ctx)
	}
}

// NextRun returns the earliest upcoming scheduled run, or the zero time
// when the scheduler is not running.
func (s *Scheduler) NextRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	var next time.Time
	if s.cron == nil {
		return next
	}
	for _, e := range s.cron.Entries() {
		if next.IsZero() || e.Next.Before(next) {
			next = e.Next
		}
	}
	return next
}

func (s *Scheduler) recalculate(ctx context.Context) {
	opts := s.Options
	opts.Trigger = "schedule"

	report, err := s.Recalc.RecalculateAll(ctx, opts)
	switch {
	case errors.Is(err, commission.ErrRunInProgress):
		s.Logger.Warn().Msg("recalculation already running, skipped")
	case err != nil:
		s.Logger.Error().Err(err).Msg("scheduled recalculation failed")
	default:
		s.Logger.Info().
			Str("run_id", report.RunID).
			Int("updated", report.Updated).
			Int("skipped", report.Skipped).
			Int("errors", report.Errors).
			Msg(report.Summary())
	}
}

func (s *Scheduler) sweepAlerts(ctx context.Context) {
	result, err := s.Alerts.Run(ctx)
	if err != nil {
		s.Logger.Error().Err(err).Msg("scheduled alert sweep failed")
		return
	}
	s.Logger.Info().
		Int("sent", result.Sent).
		Int("deduplicated", result.Deduplicated).
		Int("failed", result.Failed).
		Msg("alert sweep finished")
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
