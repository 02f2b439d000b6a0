package broker

import (
	"context"
	"time"

	"github.com/MikeSquared-Agency/Arbiter/internal/hermes"
	"github.com/MikeSquared-Agency/Arbiter/internal/store"
)

// timeoutLoop fails analyses left running past twice the request timeout,
// such as runs interrupted by a restart. Started runs are aged from their
// start, and runs still waiting in this broker's queue are never swept. It
// sweeps once on start.
func (b *Broker) timeoutLoop(ctx context.Context) {
	defer b.wg.Done()
	b.sweepStale(ctx, time.Now())

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopCh:
			return
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			b.sweepStale(ctx, now)
		}
	}
}

func (b *Broker) sweepStale(ctx context.Context, now time.Time) {
	limit := 2 * b.cfg.RequestTimeout()
	if limit <= 0 {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	running := store.StatusRunning
	analyses, err := b.store.ListAnalyses(ctx, store.AnalysisFilter{Status: &running, Limit: 1000})
	if err != nil {
		b.logger.Error("failed to list running analyses", "error", err)
		return
	}

	for _, a := range analyses {
		if _, waiting := b.queued[a.ID]; waiting {
			continue
		}
		since := a.CreatedAt
		if a.StartedAt != nil {
			since = *a.StartedAt
		}
		if now.Sub(since) <= limit {
			continue
		}
		b.logger.Warn("analysis timed out", "analysis_id", a.ID, "created_at", a.CreatedAt)
		a.Status = store.StatusFailed
		a.Error = "analysis timed out"
		a.CompletedAt = &now
		if err := b.store.UpdateAnalysis(ctx, a); err != nil {
			b.logger.Error("failed to mark analysis as timed out", "analysis_id", a.ID, "error", err)
			continue
		}
		b.publish(hermes.SubjectAnalysisFailed(a.ID.String()), hermes.AnalysisFailedEvent{
			AnalysisID: a.ID.String(),
			Error:      a.Error,
		})
	}
}

func (b *Broker) statsLoop(ctx context.Context) {
	defer b.wg.Done()
	interval := b.cfg.StatsInterval()
	if interval <= 0 || b.hermes == nil {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.publishStats(ctx)
		}
	}
}

func (b *Broker) publishStats(ctx context.Context) {
	stats, err := b.store.GetStats(ctx)
	if err != nil {
		b.logger.Error("failed to load stats", "error", err)
		return
	}
	b.publish(hermes.SubjectStats, hermes.StatsEvent{
		Total:     stats.Total,
		Running:   stats.Running,
		Completed: stats.Completed,
		Failed:    stats.Failed,
		AvgMs:     stats.AvgRunMs,
		Timestamp: time.Now().UTC(),
	})
}
