package api

import (
	"net/http"

	"github.com/MikeSquared-Agency/Arbiter/internal/broker"
	"github.com/MikeSquared-Agency/Arbiter/internal/store"
)

type AdminHandler struct {
	store  store.Store
	broker *broker.Broker
}

func NewAdminHandler(s store.Store, b *broker.Broker) *AdminHandler {
	return &AdminHandler{store: s, broker: b}
}

type StatsResponse struct {
	*store.AnalysisStats
	Queued int `json:"queued"`
}

func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.GetStats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if stats == nil {
		stats = &store.AnalysisStats{}
	}
	writeJSON(w, http.StatusOK, StatsResponse{AnalysisStats: stats, Queued: h.broker.Queued()})
}
