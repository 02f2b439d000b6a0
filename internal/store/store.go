package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Analysis is one persisted run. Request and Result are stored as the JSON
// the API received and produced.
type Analysis struct {
	ID         uuid.UUID       `json:"analysis_id"`
	Name       string          `json:"name,omitempty"`
	Status     Status          `json:"status"`
	Candidates int             `json:"candidates"`
	Request    json.RawMessage `json:"request,omitempty"`
	Result     json.RawMessage `json:"result,omitempty"`
	Error      string          `json:"error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	// StartedAt is set when a worker picks the analysis up; queued runs
	// have none.
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type AnalysisFilter struct {
	Status *Status
	Limit  int
	Offset int
}

type AnalysisStats struct {
	Total     int     `json:"total"`
	Running   int     `json:"running"`
	Completed int     `json:"completed"`
	Failed    int     `json:"failed"`
	AvgRunMs  float64 `json:"avg_run_ms"`
}

type Store interface {
	CreateAnalysis(ctx context.Context, a *Analysis) error
	// GetAnalysis returns nil, nil when no analysis has the id.
	GetAnalysis(ctx context.Context, id uuid.UUID) (*Analysis, error)
	ListAnalyses(ctx context.Context, filter AnalysisFilter) ([]*Analysis, error)
	UpdateAnalysis(ctx context.Context, a *Analysis) error
	GetStats(ctx context.Context) (*AnalysisStats, error)
	Close() error
}
