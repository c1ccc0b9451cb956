package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/azure/discussion-insights/internal/config"
	"github.com/azure/discussion-insights/internal/consolidation"
	"github.com/azure/discussion-insights/internal/graph"
	"github.com/azure/discussion-insights/internal/models"
	"github.com/azure/discussion-insights/internal/pipeline"
	"github.com/azure/discussion-insights/internal/storage"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

type handlers struct {
	config  *config.Config
	service *pipeline.Service
}

func newRouter(cfg *config.Config, service *pipeline.Service) *mux.Router {
	h := &handlers{config: cfg, service: service}
	router := mux.NewRouter()

	// Health check endpoint
	router.HandleFunc("/health", h.health).Methods("GET")

	// Metrics endpoint
	router.HandleFunc("/metrics", h.metrics).Methods("GET")

	// On-demand analysis, returned as a consolidated result or a graph
	router.HandleFunc("/analyze", h.analyze).Methods("POST")
	router.HandleFunc("/graph", h.analyzeGraph).Methods("POST")

	// Manual trigger of the scheduled run
	router.HandleFunc("/trigger", h.trigger).Methods("POST")

	// Stored results
	router.HandleFunc("/results", h.listResults).Methods("GET")
	router.HandleFunc("/results/{name}", h.getResult).Methods("GET")
	router.HandleFunc("/results/{name}/graph", h.getResultGraph).Methods("GET")

	return router
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"sources":   h.service.SourceNames(),
	})
}

func (h *handlers) metrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(h.service.GetMetrics()))
}

func (h *handlers) analyze(w http.ResponseWriter, r *http.Request) {
	result, ok := h.runAnalysis(w, r)
	if !ok {
		return
	}

	if save, _ := strconv.ParseBool(r.URL.Query().Get("save")); save && h.service.Results() != nil {
		name, err := h.service.Results().Save(r.Context(), result)
		if err != nil {
			logrus.Errorf("Failed to store result: %v", err)
			writeError(w, err)
			return
		}
		w.Header().Set("Location", "/results/"+strings.TrimPrefix(name, storage.ResultsPrefix))
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *handlers) analyzeGraph(w http.ResponseWriter, r *http.Request) {
	result, ok := h.runAnalysis(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, graph.Build(result, h.graphOptions(r)))
}

func (h *handlers) runAnalysis(w http.ResponseWriter, r *http.Request) (*models.ConsolidatedResult, bool) {
	var req pipeline.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body: " + err.Error()})
		return nil, false
	}

	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if h.config.RunTimeout > 0 {
		ctx, cancel = context.WithTimeout(r.Context(), h.config.RunTimeout)
	} else {
		ctx, cancel = context.WithCancel(r.Context())
	}
	defer cancel()

	result, err := h.service.Analyze(ctx, req)
	if err != nil {
		logrus.Errorf("Analysis failed: %v", err)
		writeError(w, err)
		return nil, false
	}
	return result, true
}

func (h *handlers) trigger(w http.ResponseWriter, r *http.Request) {
	go func() {
		if err := h.service.RunScheduled(); err != nil {
			logrus.Errorf("Manual analysis trigger failed: %v", err)
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"message": "Analysis triggered successfully"})
}

func (h *handlers) listResults(w http.ResponseWriter, r *http.Request) {
	store := h.service.Results()
	if store == nil {
		writeJSON(w, http.StatusOK, []string{})
		return
	}

	names, err := store.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, names)
}

func (h *handlers) getResult(w http.ResponseWriter, r *http.Request) {
	result, ok := h.loadResult(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *handlers) getResultGraph(w http.ResponseWriter, r *http.Request) {
	result, ok := h.loadResult(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, graph.Build(result, h.graphOptions(r)))
}

func (h *handlers) loadResult(w http.ResponseWriter, r *http.Request) (*models.ConsolidatedResult, bool) {
	store := h.service.Results()
	if store == nil {
		writeError(w, storage.ErrNotFound)
		return nil, false
	}

	result, err := store.Load(r.Context(), mux.Vars(r)["name"])
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	return result, true
}

func (h *handlers) graphOptions(r *http.Request) graph.Options {
	opts := graph.Options{MaxEntities: h.config.MaxGraphEntities}
	q := r.URL.Query()
	if v, err := strconv.ParseBool(q.Get("comments")); err == nil {
		opts.IncludeComments = v
	}
	if v, err := strconv.Atoi(q.Get("max_comments")); err == nil && v >= 0 {
		opts.MaxCommentsPerDiscussion = v
	}
	if v, err := strconv.Atoi(q.Get("max_entities")); err == nil && v >= 0 {
		opts.MaxEntities = v
	}
	return opts
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, pipeline.ErrUnknownSource):
		status = http.StatusBadRequest
	case errors.Is(err, consolidation.ErrNoData), errors.Is(err, storage.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.Errorf("Failed to write response: %v", err)
	}
}
