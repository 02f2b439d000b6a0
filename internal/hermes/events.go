package hermes

import "time"

type AnalysisStartedEvent struct {
	AnalysisID string `json:"analysis_id"`
	Name       string `json:"name,omitempty"`
	Candidates int    `json:"candidates"`
}

type AnalysisCompletedEvent struct {
	AnalysisID string     `json:"analysis_id"`
	Name       string     `json:"name,omitempty"`
	Reduced    []string   `json:"reduced"`
	Tiers      [][]string `json:"tiers,omitempty"`
	Warnings   []string   `json:"warnings,omitempty"`
}

// AnalysisFailedEvent is published when validation fails or any ranking
// stage errors. Stages lists the failed stage names when known.
type AnalysisFailedEvent struct {
	AnalysisID string   `json:"analysis_id"`
	Error      string   `json:"error"`
	Stages     []string `json:"stages,omitempty"`
}

type StatsEvent struct {
	Total     int       `json:"total"`
	Running   int       `json:"running"`
	Completed int       `json:"completed"`
	Failed    int       `json:"failed"`
	AvgMs     float64   `json:"avg_run_ms"`
	Timestamp time.Time `json:"timestamp"`
}
