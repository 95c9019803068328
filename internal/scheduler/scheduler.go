package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	billingdomain "github.com/ksheermitra/backend/internal/billing/domain"
	"github.com/ksheermitra/backend/internal/clock"
	invoicedomain "github.com/ksheermitra/backend/internal/invoice/domain"
	obsmetrics "github.com/ksheermitra/backend/internal/observability/metrics"
	"github.com/robfig/cron/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const JobMonthlyInvoices = "monthly_invoices"

var (
	ErrInvalidConfig   = errors.New("invalid_scheduler_config")
	ErrInvalidSchedule = errors.New("invalid_schedule_spec")
	ErrInvalidTimezone = errors.New("invalid_timezone")
)

type Params struct {
	fx.In

	Log        *zap.Logger
	Clock      clock.Clock
	GenID      *snowflake.Node
	InvoiceSvc invoicedomain.Service
	Config     Config                       `optional:"true"`
	Locker     Locker                       `optional:"true"`
	Metrics    *obsmetrics.SchedulerMetrics `optional:"true"`
}

type Scheduler struct {
	log        *zap.Logger
	cfg        Config
	clock      clock.Clock
	genID      *snowflake.Node
	invoiceSvc invoicedomain.Service
	locker     Locker
	metrics    *obsmetrics.SchedulerMetrics
	loc        *time.Location
	cron       *cron.Cron
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.Clock == nil || p.GenID == nil || p.InvoiceSvc == nil {
		return nil, ErrInvalidConfig
	}
	cfg := p.Config.withDefaults()

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidTimezone, cfg.Timezone)
	}

	schedMetrics := p.Metrics
	if schedMetrics == nil {
		schedMetrics = obsmetrics.Scheduler()
	}

	s := &Scheduler{
		log:        p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:        cfg,
		clock:      p.Clock,
		genID:      p.GenID,
		invoiceSvc: p.InvoiceSvc,
		locker:     p.Locker,
		metrics:    schedMetrics,
		loc:        loc,
	}

	cl := cronLogger{log: s.log.Sugar()}
	s.cron = cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	if _, err := s.cron.AddFunc(cfg.MonthlySpec, s.runMonthlyInvoices); err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidSchedule, cfg.MonthlySpec, err)
	}
	return s, nil
}

// Start begins firing cron entries in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("scheduler started",
		zap.String("monthly_spec", s.cfg.MonthlySpec),
		zap.String("timezone", s.loc.String()),
	)
}

// Stop waits for running jobs or until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NextRun reports when the monthly job fires next after t.
func (s *Scheduler) NextRun(t time.Time) time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Schedule.Next(t.In(s.loc))
}

// PreviousMonth is the month before the current one in the scheduler's timezone.
func (s *Scheduler) PreviousMonth() billingdomain.Month {
	now := s.clock.Now().In(s.loc)
	return billingdomain.Month{Year: now.Year(), Month: now.Month()}.Previous()
}

func (s *Scheduler) runMonthlyInvoices() {
	_, err := s.TriggerMonthlyInvoices(context.Background(), "")
	if err != nil && !errors.Is(err, ErrLockHeld) {
		s.log.Warn("scheduled monthly invoices failed", zap.Error(err))
	}
}

// TriggerMonthlyInvoices generates invoices for month, or for the previous
// month when month is empty.
func (s *Scheduler) TriggerMonthlyInvoices(ctx context.Context, month string) (invoicedomain.BatchResult, error) {
	target := s.PreviousMonth()
	if month != "" {
		parsed, err := billingdomain.ParseMonth(month)
		if err != nil {
			return invoicedomain.BatchResult{}, err
		}
		target = parsed
	}

	var result invoicedomain.BatchResult
	err := s.runJob(ctx, JobMonthlyInvoices, target.String(), func(ctx context.Context, run *jobRun) error {
		var err error
		result, err = s.invoiceSvc.GenerateMonthlyInvoices(ctx, target.String())
		run.AddProcessed(result.Generated)
		run.AddErrors(result.Failed)
		s.metrics.AddBatchProcessed(JobMonthlyInvoices, "invoices", result.Generated)
		return err
	})
	return result, err
}

func (s *Scheduler) runJob(
	parent context.Context,
	name string,
	period string,
	fn func(ctx context.Context, run *jobRun) error,
) error {
	ctx, run := s.newJobRun(parent, name, period)

	if s.locker != nil {
		release, err := s.locker.Acquire(ctx, lockKey(name, period), s.cfg.LockExpiry)
		if errors.Is(err, ErrLockHeld) {
			s.metrics.IncJobSkipped(name, obsmetrics.SchedulerSkipReasonLockHeld)
			s.logger(ctx).Info("scheduler.job.skipped",
				zap.String("job", name),
				zap.String("period", period),
				zap.String("reason", obsmetrics.SchedulerSkipReasonLockHeld),
			)
			return err
		}
		if err != nil {
			s.metrics.IncJobSkipped(name, obsmetrics.SchedulerSkipReasonLockError)
			s.logJobError(ctx, run, err)
			return fmt.Errorf("%s: acquire lock: %w", name, err)
		}
		defer func() {
			releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := release(releaseCtx); err != nil {
				s.logger(ctx).Warn("scheduler lock release failed", zap.String("job", name), zap.Error(err))
			}
		}()
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.JobTimeout)
	defer cancel()

	s.metrics.IncJobRun(name)
	s.logJobStart(ctx, run)

	err := fn(ctx, run)
	s.metrics.ObserveJobDuration(name, time.Since(run.startedAt))
	if err != nil && run.errorCount == 0 {
		run.AddErrors(1)
	}
	s.logJobFinish(ctx, run)
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		s.metrics.IncJobTimeout(name)
		s.logger(ctx).Warn("job timed out",
			zap.String("job", name),
			zap.Duration("timeout", s.cfg.JobTimeout),
		)
	}
	s.metrics.IncJobError(name, err)
	s.logJobError(ctx, run, err)
	return fmt.Errorf("%s: %w", name, err)
}
