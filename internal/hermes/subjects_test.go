package hermes

import (
	"strings"
	"testing"
)

func TestAnalysisSubjects(t *testing.T) {
	id := "6f1c2a9e-0000-4000-8000-000000000001"
	tests := map[string]string{
		SubjectAnalysisStarted(id):   "arbiter.analysis." + id + ".started",
		SubjectAnalysisCompleted(id): "arbiter.analysis." + id + ".completed",
		SubjectAnalysisFailed(id):    "arbiter.analysis." + id + ".failed",
	}
	for got, want := range tests {
		if got != want {
			t.Errorf("expected %s, got %s", want, got)
		}
		if !strings.HasPrefix(got, strings.TrimSuffix(SubjectAnalysisAll, ">")) {
			t.Errorf("%s is not captured by stream subject %s", got, SubjectAnalysisAll)
		}
	}
	if !strings.HasPrefix(SubjectAnalysisRequest, strings.TrimSuffix(SubjectAnalysisAll, ">")) {
		t.Errorf("request subject %s is not captured by the stream", SubjectAnalysisRequest)
	}
}
