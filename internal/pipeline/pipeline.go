// Package pipeline runs the decision funnel. The satisfaction and dominance
// filters run once on the raw table; the chosen filter's survivors form the
// reduced table, which is normalized once and then fed to the weighted-sum,
// TOPSIS, ELECTRE I, and ELECTRE II stages. The ranking stages are
// independent: one failing does not stop the others.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/MikeSquared-Agency/Arbiter/internal/criteria"
	"github.com/MikeSquared-Agency/Arbiter/internal/filter"
	"github.com/MikeSquared-Agency/Arbiter/internal/metrics"
	"github.com/MikeSquared-Agency/Arbiter/internal/normalize"
	"github.com/MikeSquared-Agency/Arbiter/internal/outrank"
	"github.com/MikeSquared-Agency/Arbiter/internal/scoring"
	"github.com/MikeSquared-Agency/Arbiter/internal/table"
)

// Input is the data for one run.
type Input struct {
	Table    *table.Table
	Criteria *criteria.Registry
	// DominanceCriteria drives the Pareto filter. Nil means Criteria.
	DominanceCriteria *criteria.Registry
}

func (in Input) dominance() *criteria.Registry {
	if in.DominanceCriteria != nil {
		return in.DominanceCriteria
	}
	return in.Criteria
}

// StageError names the stage an error came from.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string { return e.Stage + ": " + e.Err.Error() }

func (e *StageError) Unwrap() error { return e.Err }

type Runner struct {
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

// NewRunner builds a runner. m may be nil.
func NewRunner(logger *slog.Logger, m *metrics.Metrics) *Runner {
	return &Runner{
		logger:  logger,
		metrics: m,
		tracer:  otel.Tracer("arbiter/pipeline"),
	}
}

// Run executes the funnel. Invalid input or a failing filter aborts with a
// nil result. Ranking stage failures are collected in Result.Failures and
// also returned joined, alongside the partial result.
func (r *Runner) Run(ctx context.Context, in Input, opts Options) (*Result, error) {
	ctx, span := r.tracer.Start(ctx, "pipeline.Run")
	defer span.End()

	if err := check(in, opts); err != nil {
		span.RecordError(err)
		r.metrics.RunFinished("invalid")
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("candidates", in.Table.Len()),
		attribute.Int("criteria", in.Criteria.Len()),
		attribute.String("prefilter", string(opts.Prefilter)),
	)

	res := &Result{
		Candidates: in.Table.Len(),
		Warnings:   in.Criteria.Warnings(),
		criteria:   in.Criteria.Names(),
	}
	if in.DominanceCriteria != nil {
		res.Warnings = append(res.Warnings, in.DominanceCriteria.Warnings()...)
	}
	for _, w := range res.Warnings {
		r.logger.Warn("criteria warning", "warning", w)
	}

	if err := r.filters(ctx, in, opts, res); err != nil {
		span.RecordError(err)
		r.metrics.RunFinished("failed")
		return nil, err
	}

	var errs []error
	fail := func(err error) {
		var se *StageError
		stage := "unknown"
		if errors.As(err, &se) {
			stage = se.Stage
		}
		res.Failures = append(res.Failures, Failure{Stage: stage, Error: err.Error()})
		errs = append(errs, err)
	}

	var normalized, weighted *table.Table
	var rescaled *criteria.Registry
	err := r.stage(ctx, StageNormalize, func() error {
		var err error
		if normalized, err = normalize.Table(res.reduced, in.Criteria, normalize.Options{Degenerate: opts.Degenerate}); err != nil {
			return err
		}
		if weighted, err = normalize.Table(res.reduced, in.Criteria, normalize.Options{UseWeight: true, Degenerate: opts.Degenerate}); err != nil {
			return err
		}
		if rescaled, err = normalize.Criteria(res.reduced, in.Criteria, opts.Degenerate); err != nil {
			return err
		}
		rescaled = normalize.Reflected(rescaled)
		return nil
	})
	if err != nil {
		fail(err)
		return r.finish(span, res, errs)
	}

	if err := r.stage(ctx, StageWeighted, func() error {
		var err error
		res.Weighted, err = scoring.WeightedSum(normalized, in.Criteria)
		return err
	}); err != nil {
		fail(err)
	}

	if err := r.stage(ctx, StageTOPSIS, func() error {
		var err error
		res.Similarity, err = scoring.Similarity(weighted, in.Criteria)
		return err
	}); err != nil {
		fail(err)
	}

	if err := r.stage(ctx, StageElectreI, func() error {
		e1, err := outrank.ElectreI(normalized, rescaled, opts.ElectreI)
		if err != nil {
			return err
		}
		edges := e1.Outranking.Edges()
		res.Outranking = make([]Edge, len(edges))
		for i, e := range edges {
			res.Outranking[i] = Edge{From: res.reduced.Rows[e.From].ID, To: res.reduced.Rows[e.To].ID}
		}
		return nil
	}); err != nil {
		fail(err)
	}

	if err := r.stage(ctx, StageElectreII, func() error {
		tiers, _, err := outrank.Rank(normalized, rescaled, opts.ElectreII, opts.Stall)
		if err != nil {
			if errors.Is(err, outrank.ErrRankingStalled) {
				r.metrics.Stalled()
			}
			return err
		}
		res.Tiers = make([][]string, len(tiers))
		for i, tier := range tiers {
			res.Tiers[i] = res.reduced.Names(tier)
		}
		return nil
	}); err != nil {
		fail(err)
	}

	return r.finish(span, res, errs)
}

func (r *Runner) filters(ctx context.Context, in Input, opts Options, res *Result) error {
	if in.Criteria.RequireSatisfaction() == nil {
		if err := r.stage(ctx, StageSatisfaction, func() error {
			keep, err := filter.Satisfying(in.Table, in.Criteria)
			if err != nil {
				return err
			}
			res.satisfying = in.Table.Subset(keep)
			res.Satisfying = in.Table.Names(keep)
			r.metrics.Retained(StageSatisfaction, len(keep))
			return nil
		}); err != nil {
			return err
		}
	}

	if err := r.stage(ctx, StageDominance, func() error {
		keep, err := filter.ParetoFront(in.Table, in.dominance(), opts.Dominance)
		if err != nil {
			return err
		}
		res.front = in.Table.Subset(keep)
		res.ParetoFront = in.Table.Names(keep)
		r.metrics.Retained(StageDominance, len(keep))
		return nil
	}); err != nil {
		return err
	}

	switch opts.Prefilter {
	case PrefilterDominance:
		res.reduced = res.front
	case PrefilterSatisfaction:
		res.reduced = res.satisfying
	default:
		res.reduced = in.Table.Clone()
	}
	res.Reduced = res.reduced.IDs()
	r.logger.Info("candidates reduced",
		"prefilter", opts.Prefilter,
		"candidates", res.Candidates,
		"reduced", len(res.Reduced),
	)
	return nil
}

func (r *Runner) stage(ctx context.Context, name string, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return &StageError{Stage: name, Err: err}
	}
	_, span := r.tracer.Start(ctx, "pipeline."+name)
	defer span.End()

	start := time.Now()
	err := fn()
	elapsed := time.Since(start)
	r.metrics.ObserveStage(name, elapsed)
	if err != nil {
		span.RecordError(err)
		r.metrics.StageFailed(name)
		r.logger.Warn("stage failed", "stage", name, "error", err)
		return &StageError{Stage: name, Err: err}
	}
	r.logger.Debug("stage complete", "stage", name, "duration", elapsed)
	return nil
}

func (r *Runner) finish(span trace.Span, res *Result, errs []error) (*Result, error) {
	status := "completed"
	if res.Failed() {
		status = "failed"
	}
	span.SetAttributes(attribute.String("status", status), attribute.Int("failures", len(res.Failures)))
	r.metrics.RunFinished(status)
	return res, errors.Join(errs...)
}

func check(in Input, opts Options) error {
	if in.Table == nil {
		return criteria.Configf("table", "no candidate table")
	}
	if in.Criteria == nil {
		return criteria.Configf("criteria", "no criteria")
	}
	if err := opts.Validate(); err != nil {
		return err
	}
	if err := in.Table.Check(in.Criteria); err != nil {
		return err
	}
	if err := in.Table.Check(in.dominance()); err != nil {
		return fmt.Errorf("dominance criteria: %w", err)
	}
	if opts.Prefilter == PrefilterSatisfaction {
		return in.Criteria.RequireSatisfaction()
	}
	return nil
}
