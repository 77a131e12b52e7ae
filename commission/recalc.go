/*
recalc.go - Batch recalculation of zero-commission sales

PURPOSE:
  Sweeps sales whose seller and partner commissions are both exactly zero
  and fills them in from the automatic commission rules. Run after a bulk
  rule change, on demand or on a schedule.

SELECTION:
  1. SaleStore.ListZeroCommissionSales: both legs zero, sale type, operator
     and partner present.
  2. Keep sales whose (operator, partner|nil) has at least one automatic
     setting. Total counts only these.

PER SALE:
  resolve against the sale's automatic settings → calculate → persist.
  No rule                → skipped (never an error)
  Store or calc failure  → error, recorded, the run continues
  Rule found             → updated, even when the amount is zero

IDEMPOTENCE:
  An updated sale leaves the zero-commission predicate, so a second run is
  a no-op for it. A sale that legitimately earns zero is recomputed every
  run with the same result.

CONCURRENCY:
  Options.Workers > 1 spreads sales over an errgroup. Each sale is an
  independent row write and the computation is deterministic, so two
  writers racing on one sale write the same value. Details keep selection
  order regardless of worker count. Cancellation stops between sales;
  unstarted sales are simply not processed.

  Only one run per Recalculator at a time (ErrRunInProgress).
*/
package commission

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/hugoalbmartins/Leiritrix-sub000/metrics"
)

// SaleResult is the per-sale outcome of a recalculation run.
type SaleResult string

const (
	SaleUpdated SaleResult = "updated"
	SaleSkipped SaleResult = "skipped"
	SaleError   SaleResult = "error"
)

// ReasonNoApplicableRule is the skip reason for sales without a rule.
const ReasonNoApplicableRule = "no applicable rule found"

// SaleOutcome is one line of the recalculation ledger.
type SaleOutcome struct {
	SaleID     string
	ClientName string
	Result     SaleResult
	Reason     string      // set for skipped and error
	Commission *Commission // set for updated
}

// Report is the aggregate result of a recalculation run.
type Report struct {
	RunID       string
	Total       int
	Processed   int
	Updated     int
	Skipped     int
	Errors      int
	Details     []SaleOutcome
	StartedAt   time.Time
	CompletedAt time.Time
}

// Summary is a one-line human description of the report.
func (r Report) Summary() string {
	if r.Total == 0 {
		return "no sales to recalculate"
	}
	return fmt.Sprintf("recalculation finished: %d updated, %d skipped, %d errors", r.Updated, r.Skipped, r.Errors)
}

// RecalcOptions tunes a run.
type RecalcOptions struct {
	Workers     int           // <= 1 processes sales sequentially
	SaleTimeout time.Duration // 0 = no per-sale bound
	Trigger     string        // recorded on the run, e.g. "api" or "schedule"
}

// Recalculator runs the batch job.
type Recalculator struct {
	Sales      SaleStore
	Runs       RunStore // optional
	Resolver   *Resolver
	Calculator *Calculator
	Logger     zerolog.Logger
	Metrics    *metrics.Metrics
	Now        func() time.Time

	mu      sync.Mutex
	running bool
}

// NewRecalculator creates a Recalculator. runs and m may be nil.
func NewRecalculator(sales SaleStore, runs RunStore, resolver *Resolver, calc *Calculator, logger zerolog.Logger, m *metrics.Metrics) *Recalculator {
	return &Recalculator{
		Sales:      sales,
		Runs:       runs,
		Resolver:   resolver,
		Calculator: calc,
		Logger:     logger.With().Str("component", "recalc").Logger(),
		Metrics:    m,
		Now:        time.Now,
	}
}

// RecalculateAll runs one sweep. The returned error covers only failures
// that prevent the sweep from starting (selection queries, a concurrent
// run); per-sale failures are reported in the Report.
func (r *Recalculator) RecalculateAll(ctx context.Context, opts RecalcOptions) (Report, error) {
	if !r.begin() {
		return Report{}, ErrRunInProgress
	}
	defer r.end()

	report := Report{RunID: uuid.NewString(), StartedAt: r.Now()}
	run := Run{ID: report.RunID, Trigger: opts.Trigger, Status: RunRunning, StartedAt: report.StartedAt}
	r.saveRun(ctx, run)

	sales, err := r.selectSales(ctx)
	if err != nil {
		run.Status = RunFailed
		run.Error = err.Error()
		r.finishRun(run)
		return Report{}, err
	}
	report.Total = len(sales)

	log := r.Logger.With().Str("run_id", report.RunID).Logger()
	log.Info().Int("total", report.Total).Int("workers", opts.Workers).Msg("recalculation started")

	report.Details = r.processAll(ctx, sales, opts)
	for _, d := range report.Details {
		report.Processed++
		switch d.Result {
		case SaleUpdated:
			report.Updated++
		case SaleSkipped:
			report.Skipped++
		case SaleError:
			report.Errors++
		}
	}
	report.CompletedAt = r.Now()
	r.Metrics.ObserveRecalcDuration(report.CompletedAt.Sub(report.StartedAt))

	run.Total, run.Processed = report.Total, report.Processed
	run.Updated, run.Skipped, run.Errors = report.Updated, report.Skipped, report.Errors
	run.Status = RunCompleted
	if ctx.Err() != nil && report.Processed < report.Total {
		run.Status = RunCanceled
		run.Error = ctx.Err().Error()
	}
	r.finishRun(run)

	log.Info().
		Int("processed", report.Processed).
		Int("updated", report.Updated).
		Int("skipped", report.Skipped).
		Int("errors", report.Errors).
		Str("status", string(run.Status)).
		Msg(report.Summary())
	return report, nil
}

// Running reports whether a sweep is in progress.
func (r *Recalculator) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

func (r *Recalculator) begin() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return false
	}
	r.running = true
	return true
}

func (r *Recalculator) end() {
	r.mu.Lock()
	r.running = false
	r.mu.Unlock()
}

// =============================================================================
// SELECTION
// =============================================================================

type candidate struct {
	sale     Sale
	settings []Setting
}

func (r *Recalculator) selectSales(ctx context.Context) ([]candidate, error) {
	sales, err := r.Sales.ListZeroCommissionSales(ctx)
	if err != nil {
		return nil, storeErr("list zero-commission sales", err)
	}
	automatic, err := r.Sales.ListAutomaticSettings(ctx)
	if err != nil {
		return nil, storeErr("list automatic settings", err)
	}

	var out []candidate
	for _, sale := range sales {
		if !sale.HasZeroCommissions() {
			continue
		}
		scoped := settingsFor(automatic, sale)
		if len(scoped) == 0 {
			continue
		}
		out = append(out, candidate{sale: sale, settings: scoped})
	}
	return out, nil
}

func settingsFor(settings []Setting, sale Sale) []Setting {
	var out []Setting
	for _, s := range settings {
		if s.CommissionType == CommissionAutomatic && s.OperatorID == sale.OperatorID && s.AppliesTo(sale.PartnerID) {
			out = append(out, s)
		}
	}
	return out
}

// =============================================================================
// PROCESSING
// =============================================================================

func (r *Recalculator) processAll(ctx context.Context, sales []candidate, opts RecalcOptions) []SaleOutcome {
	outcomes := make([]SaleOutcome, len(sales))
	done := make([]bool, len(sales))

	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	var g errgroup.Group
	g.SetLimit(workers)

	for i := range sales {
		if ctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			outcomes[i] = r.processSale(ctx, sales[i], opts.SaleTimeout)
			done[i] = true
			return nil
		})
	}
	_ = g.Wait()

	processed := outcomes[:0]
	for i := range outcomes {
		if done[i] {
			processed = append(processed, outcomes[i])
		}
	}
	return processed
}

func (r *Recalculator) processSale(ctx context.Context, c candidate, timeout time.Duration) SaleOutcome {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	out := r.recalculate(ctx, c)
	r.Metrics.IncrementRecalcSale(string(out.Result))
	if out.Result == SaleError {
		r.Logger.Warn().Str("sale_id", c.sale.ID).Str("reason", out.Reason).Msg("sale recalculation failed")
	}
	return out
}

func (r *Recalculator) recalculate(ctx context.Context, c candidate) SaleOutcome {
	sale := c.sale
	out := SaleOutcome{SaleID: sale.ID, ClientName: sale.ClientName}

	res, err := r.Resolver.ResolveWithSettings(ctx, c.settings, sale.Query())
	if err != nil {
		out.Result, out.Reason = SaleError, err.Error()
		return out
	}
	if !res.CanCalculate() {
		out.Result, out.Reason = SaleSkipped, ReasonNoApplicableRule
		return out
	}

	commission, err := r.Calculator.Calculate(ctx, *res.Rule, sale.Input())
	if err != nil {
		out.Result, out.Reason = SaleError, err.Error()
		return out
	}
	if err := r.Sales.UpdateCommissions(ctx, sale.ID, commission); err != nil {
		out.Result, out.Reason = SaleError, storeErr("update commissions", err).Error()
		return out
	}

	out.Result, out.Commission = SaleUpdated, &commission
	return out
}

// =============================================================================
// RUN HISTORY
// =============================================================================

func (r *Recalculator) saveRun(ctx context.Context, run Run) {
	if r.Runs == nil {
		return
	}
	if err := r.Runs.SaveRun(ctx, run); err != nil {
		r.Logger.Error().Err(err).Str("run_id", run.ID).Msg("failed to save recalculation run")
	}
}

// finishRun persists the final state even when the run's context is done.
func (r *Recalculator) finishRun(run Run) {
	completed := r.Now()
	run.CompletedAt = &completed

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	r.saveRun(ctx, run)
}
