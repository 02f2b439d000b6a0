package api

import (
	"encoding/json"
	"net/http"

	"github.com/MikeSquared-Agency/Arbiter/internal/criteria"
	"github.com/MikeSquared-Agency/Arbiter/internal/outrank"
	"github.com/MikeSquared-Agency/Arbiter/internal/table"
)

type ExplainHandler struct{}

func NewExplainHandler() *ExplainHandler {
	return &ExplainHandler{}
}

type ExplainRequest struct {
	Criteria *criteria.Registry `json:"criteria"`
	A        table.Row          `json:"a"`
	B        table.Row          `json:"b"`
}

// Explain returns the per-criterion concordance and discordance breakdown
// of the ordered pair (a, b) on raw values.
// POST /api/v1/relations/explain
func (h *ExplainHandler) Explain(w http.ResponseWriter, r *http.Request) {
	var req ExplainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Criteria == nil {
		writeError(w, http.StatusBadRequest, "criteria required")
		return
	}
	if req.A.ID == "" || req.B.ID == "" {
		writeError(w, http.StatusBadRequest, "a.id and b.id required")
		return
	}
	for _, name := range req.Criteria.Names() {
		_, okA := req.A.Values[name]
		_, okB := req.B.Values[name]
		if !okA || !okB {
			writeError(w, http.StatusBadRequest, "both candidates need a value for criterion "+name)
			return
		}
	}

	writeJSON(w, http.StatusOK, outrank.Explain(req.A, req.B, req.Criteria))
}
