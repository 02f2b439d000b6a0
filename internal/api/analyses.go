package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Arbiter/internal/broker"
	"github.com/MikeSquared-Agency/Arbiter/internal/store"
)

const maxListLimit = 200

type AnalysesHandler struct {
	store  store.Store
	broker *broker.Broker
}

func NewAnalysesHandler(s store.Store, b *broker.Broker) *AnalysesHandler {
	return &AnalysesHandler{store: s, broker: b}
}

// Create queues an analysis and answers 202 with the running record. With
// ?wait=true the analysis runs inside the request and the finished record
// is returned with 201.
func (h *AnalysesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req broker.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	wait, _ := strconv.ParseBool(r.URL.Query().Get("wait"))
	var (
		a      *store.Analysis
		err    error
		status = http.StatusAccepted
	)
	if wait {
		a, err = h.broker.Run(r.Context(), req)
		status = http.StatusCreated
	} else {
		a, err = h.broker.Submit(r.Context(), req)
	}
	switch {
	case errors.Is(err, broker.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, broker.ErrQueueFull):
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, status, a)
}

func (h *AnalysesHandler) List(w http.ResponseWriter, r *http.Request) {
	var filter store.AnalysisFilter
	q := r.URL.Query()

	if s := q.Get("status"); s != "" {
		st := store.Status(s)
		switch st {
		case store.StatusRunning, store.StatusCompleted, store.StatusFailed:
		default:
			writeError(w, http.StatusBadRequest, "invalid status")
			return
		}
		filter.Status = &st
	}
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		filter.Limit = min(n, maxListLimit)
	}
	if s := q.Get("offset"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid offset")
			return
		}
		filter.Offset = n
	}

	analyses, err := h.store.ListAnalyses(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if analyses == nil {
		analyses = []*store.Analysis{}
	}
	writeJSON(w, http.StatusOK, analyses)
}

func (h *AnalysesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	a, err := h.store.GetAnalysis(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if a == nil {
		writeError(w, http.StatusNotFound, "analysis not found")
		return
	}
	writeJSON(w, http.StatusOK, a)
}
