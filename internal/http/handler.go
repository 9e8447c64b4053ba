// Package httpapp exposes the JSON API over the job queue, the collection
// engine and the catalogs. Only destructive cross-store operations route
// through the queue; simple reads and metadata edits hit the stores directly.
package httpapp

import (
	"encoding/json"
	"errors"
	"net/http"

	"vodvault/internal/collections"
	"vodvault/internal/downloader"
	"vodvault/internal/downloads"
	"vodvault/internal/jobqueue"
	"vodvault/internal/logger"
	"vodvault/internal/schedules"
	"vodvault/internal/tracker"
)

type Handler struct {
	Queue     *jobqueue.Queue
	Engine    *collections.Engine
	Tracker   *tracker.Reconciler
	Schedules *schedules.Service
	Downloads *downloads.Log
	Fetcher   *downloader.Service
	Logger    *logger.Logger
}

func NewHandler(q *jobqueue.Queue, e *collections.Engine, rec *tracker.Reconciler,
	sched *schedules.Service, dl *downloads.Log, fetcher *downloader.Service, log *logger.Logger) *Handler {
	return &Handler{
		Queue:     q,
		Engine:    e,
		Tracker:   rec,
		Schedules: sched,
		Downloads: dl,
		Fetcher:   fetcher,
		Logger:    log.WithComponent("http"),
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.Logger.Error("Failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}

// writeEngineError maps engine sentinels onto HTTP statuses.
func (h *Handler) writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, collections.ErrCollectionNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, collections.ErrSameCollection):
		h.writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.Logger.Error("Request failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeBody(r *http.Request, dst any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}
