package hermes

const (
	SubjectAnalysisRequest = "arbiter.analysis.request"
	SubjectAnalysisAll     = "arbiter.analysis.>"
	SubjectStats           = "arbiter.stats"

	StreamName   = "ARBITER_EVENTS"
	StreamMaxAge = "720h" // 30 days
)

func SubjectAnalysisStarted(analysisID string) string {
	return "arbiter.analysis." + analysisID + ".started"
}

func SubjectAnalysisCompleted(analysisID string) string {
	return "arbiter.analysis." + analysisID + ".completed"
}

func SubjectAnalysisFailed(analysisID string) string {
	return "arbiter.analysis." + analysisID + ".failed"
}
