// Package broker turns analysis requests into pipeline runs. Requests
// arrive from the HTTP API or from NATS; each becomes a stored analysis
// record that is executed by a worker pool, updated with the result, and
// announced on the event bus.
package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Arbiter/internal/config"
	"github.com/MikeSquared-Agency/Arbiter/internal/hermes"
	"github.com/MikeSquared-Agency/Arbiter/internal/pipeline"
	"github.com/MikeSquared-Agency/Arbiter/internal/store"
)

var ErrQueueFull = errors.New("analysis queue full")

type job struct {
	analysis *store.Analysis
	input    pipeline.Input
	opts     pipeline.Options
}

type Broker struct {
	store  store.Store
	hermes hermes.Client
	runner *pipeline.Runner
	cfg    *config.Config
	logger *slog.Logger

	jobs chan job

	// mu orders run starts against the stale sweep; queued holds the ids
	// waiting in jobs.
	mu     sync.Mutex
	queued map[uuid.UUID]struct{}

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// New builds a broker. h may be nil, in which case no events are published.
func New(s store.Store, h hermes.Client, runner *pipeline.Runner, cfg *config.Config, logger *slog.Logger) *Broker {
	size := cfg.Server.QueueSize
	if size <= 0 {
		size = 1
	}
	return &Broker{
		store:  s,
		hermes: h,
		runner: runner,
		cfg:    cfg,
		logger: logger,
		jobs:   make(chan job, size),
		queued: make(map[uuid.UUID]struct{}),
		stopCh: make(chan struct{}),
	}
}

func (b *Broker) Start(ctx context.Context) {
	workers := b.cfg.Server.Workers
	if workers <= 0 {
		workers = 1
	}
	b.wg.Add(workers + 2)
	for i := 0; i < workers; i++ {
		go b.worker(ctx)
	}
	go b.timeoutLoop(ctx)
	go b.statsLoop(ctx)
}

func (b *Broker) Stop() {
	b.stopOnce.Do(func() { close(b.stopCh) })
	b.wg.Wait()
}

// Submit validates req, records it as running, and queues it for a worker.
// The returned record is a snapshot taken before the run starts.
func (b *Broker) Submit(ctx context.Context, req Request) (*store.Analysis, error) {
	j, err := b.prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	snapshot := *j.analysis
	b.mu.Lock()
	b.queued[j.analysis.ID] = struct{}{}
	b.mu.Unlock()
	select {
	case b.jobs <- j:
		return &snapshot, nil
	default:
		b.mu.Lock()
		delete(b.queued, j.analysis.ID)
		b.mu.Unlock()
		b.finish(ctx, j.analysis, nil, ErrQueueFull)
		return j.analysis, ErrQueueFull
	}
}

// Run validates req and executes it before returning the finished record.
// A run whose stages failed is returned with status failed and a nil error.
func (b *Broker) Run(ctx context.Context, req Request) (*store.Analysis, error) {
	j, err := b.prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	b.execute(ctx, j)
	return j.analysis, nil
}

func (b *Broker) prepare(ctx context.Context, req Request) (job, error) {
	in, opts, err := req.Build(b.cfg.Analysis.Options, b.cfg.Server.MaxCandidates)
	if err != nil {
		return job{}, err
	}
	body, err := json.Marshal(req)
	if err != nil {
		return job{}, err
	}
	a := &store.Analysis{
		Name:       req.Name,
		Status:     store.StatusRunning,
		Candidates: in.Table.Len(),
		Request:    body,
	}
	if err := b.store.CreateAnalysis(ctx, a); err != nil {
		return job{}, err
	}
	b.logger.Info("analysis created", "analysis_id", a.ID, "name", a.Name, "candidates", a.Candidates)
	b.publish(hermes.SubjectAnalysisStarted(a.ID.String()), hermes.AnalysisStartedEvent{
		AnalysisID: a.ID.String(),
		Name:       a.Name,
		Candidates: a.Candidates,
	})
	return job{analysis: a, input: in, opts: opts}, nil
}

func (b *Broker) worker(ctx context.Context) {
	defer b.wg.Done()
	for {
		select {
		case <-b.stopCh:
			return
		case <-ctx.Done():
			return
		case j := <-b.jobs:
			b.execute(ctx, j)
		}
	}
}

func (b *Broker) execute(ctx context.Context, j job) {
	if !b.start(ctx, j.analysis) {
		return
	}
	runCtx := ctx
	if timeout := b.cfg.RequestTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	res, err := b.runner.Run(runCtx, j.input, j.opts)
	b.finish(ctx, j.analysis, res, err)
}

// start marks the analysis as picked up. It reports false when the stored
// record already reached a terminal status, for example after the stale
// sweep failed it while it was queued.
func (b *Broker) start(ctx context.Context, a *store.Analysis) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.queued, a.ID)

	stored, err := b.store.GetAnalysis(ctx, a.ID)
	if err != nil {
		b.logger.Warn("failed to reload analysis before run", "analysis_id", a.ID, "error", err)
	} else if stored != nil && stored.Status != store.StatusRunning {
		b.logger.Warn("skipping analysis no longer running", "analysis_id", a.ID, "status", stored.Status)
		return false
	}

	now := time.Now()
	a.StartedAt = &now
	if err := b.store.UpdateAnalysis(ctx, a); err != nil {
		b.logger.Warn("failed to record analysis start", "analysis_id", a.ID, "error", err)
	}
	return true
}

func (b *Broker) finish(ctx context.Context, a *store.Analysis, res *pipeline.Result, runErr error) {
	now := time.Now()
	a.CompletedAt = &now
	a.Status = store.StatusCompleted
	a.Error = ""
	if res != nil {
		body, err := json.Marshal(res)
		if err != nil {
			b.logger.Error("failed to encode result", "analysis_id", a.ID, "error", err)
			runErr = errors.Join(runErr, fmt.Errorf("encode result: %w", err))
		}
		a.Result = body
	}
	if runErr != nil {
		a.Status = store.StatusFailed
		a.Error = runErr.Error()
	}

	if err := b.store.UpdateAnalysis(context.WithoutCancel(ctx), a); err != nil {
		b.logger.Error("failed to update analysis", "analysis_id", a.ID, "error", err)
	}

	id := a.ID.String()
	if runErr != nil {
		evt := hermes.AnalysisFailedEvent{AnalysisID: id, Error: runErr.Error()}
		if res != nil {
			for _, f := range res.Failures {
				evt.Stages = append(evt.Stages, f.Stage)
			}
		}
		b.logger.Warn("analysis failed", "analysis_id", a.ID, "error", runErr)
		b.publish(hermes.SubjectAnalysisFailed(id), evt)
		return
	}
	b.logger.Info("analysis completed", "analysis_id", a.ID, "reduced", len(res.Reduced), "tiers", len(res.Tiers))
	b.publish(hermes.SubjectAnalysisCompleted(id), hermes.AnalysisCompletedEvent{
		AnalysisID: id,
		Name:       a.Name,
		Reduced:    res.Reduced,
		Tiers:      res.Tiers,
		Warnings:   res.Warnings,
	})
}

func (b *Broker) publish(subject string, evt interface{}) {
	if b.hermes == nil {
		return
	}
	if err := b.hermes.Publish(subject, evt); err != nil {
		b.logger.Warn("failed to publish event", "subject", subject, "error", err)
	}
}

// SetupSubscriptions accepts analysis requests from the bus.
func (b *Broker) SetupSubscriptions() {
	if b.hermes == nil {
		return
	}

	err := b.hermes.Subscribe(hermes.SubjectAnalysisRequest, func(_ string, data []byte) {
		var req Request
		if err := json.Unmarshal(data, &req); err != nil {
			b.logger.Warn("invalid analysis request event", "error", err)
			return
		}
		a, err := b.Submit(context.Background(), req)
		if err != nil {
			b.logger.Error("failed to submit analysis from NATS request", "error", err)
			return
		}
		b.logger.Info("analysis queued from NATS request", "analysis_id", a.ID)
	})
	if err != nil {
		b.logger.Error("failed to subscribe to analysis requests", "error", err)
	}
}

// Queued reports how many submitted analyses are waiting for a worker.
func (b *Broker) Queued() int { return len(b.jobs) }
