//go:build integration

package store

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
)

func setupTestDB(t *testing.T) *PostgresStore {
	t.Helper()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	s, err := NewPostgresStore(ctx, dbURL)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	t.Cleanup(func() {
		_, _ = s.pool.Exec(ctx, "TRUNCATE arbiter_analyses")
		s.Close()
	})

	return s
}

func TestCreateAndGetAnalysis(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	a := &Analysis{
		Name:       "integration",
		Status:     StatusRunning,
		Candidates: 3,
		Request:    json.RawMessage(`{"criteria": []}`),
	}
	if err := s.CreateAnalysis(ctx, a); err != nil {
		t.Fatalf("CreateAnalysis failed: %v", err)
	}
	if a.ID == uuid.Nil {
		t.Fatal("expected non-nil analysis ID after create")
	}
	if a.CreatedAt.IsZero() {
		t.Error("expected created_at to be set")
	}

	got, err := s.GetAnalysis(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetAnalysis failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected analysis, got nil")
	}
	if got.Name != "integration" || got.Status != StatusRunning || got.Candidates != 3 {
		t.Errorf("unexpected analysis %+v", got)
	}
	if got.Result != nil {
		t.Errorf("expected no result yet, got %s", got.Result)
	}
}

func TestGetAnalysisNotFound(t *testing.T) {
	s := setupTestDB(t)
	got, err := s.GetAnalysis(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil, got %+v", got)
	}
}

func TestUpdateAnalysis(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	a := &Analysis{Name: "update", Status: StatusRunning}
	if err := s.CreateAnalysis(ctx, a); err != nil {
		t.Fatal(err)
	}

	now := time.Now().UTC()
	a.Status = StatusFailed
	a.Error = "electre2: ranking stalled"
	a.Result = json.RawMessage(`{"reduced": ["a", "b"]}`)
	a.StartedAt = &now
	a.CompletedAt = &now
	if err := s.UpdateAnalysis(ctx, a); err != nil {
		t.Fatalf("UpdateAnalysis failed: %v", err)
	}

	got, err := s.GetAnalysis(ctx, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != StatusFailed || got.Error != "electre2: ranking stalled" {
		t.Errorf("update not persisted: %+v", got)
	}
	if got.StartedAt == nil || got.CompletedAt == nil {
		t.Error("expected started_at and completed_at to be set")
	}
	var result map[string][]string
	if err := json.Unmarshal(got.Result, &result); err != nil {
		t.Fatalf("result is not JSON: %v", err)
	}
	if len(result["reduced"]) != 2 {
		t.Errorf("unexpected result %s", got.Result)
	}
}

func TestListAnalysesAndStats(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	for _, status := range []Status{StatusCompleted, StatusCompleted, StatusFailed} {
		if err := s.CreateAnalysis(ctx, &Analysis{Name: "list", Status: status}); err != nil {
			t.Fatal(err)
		}
	}

	completed := StatusCompleted
	got, err := s.ListAnalyses(ctx, AnalysisFilter{Status: &completed})
	if err != nil {
		t.Fatalf("ListAnalyses failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 completed analyses, got %d", len(got))
	}

	limited, err := s.ListAnalyses(ctx, AnalysisFilter{Limit: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 1 {
		t.Errorf("expected 1 analysis with limit, got %d", len(limited))
	}

	stats, err := s.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}
	if stats.Total != 3 || stats.Completed != 2 || stats.Failed != 1 {
		t.Errorf("unexpected stats %+v", stats)
	}
}
