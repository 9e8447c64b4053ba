package httpapp

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"vodvault/internal/domain"
	"vodvault/internal/http/dto"
)

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/jobs", h.EnqueueJob)
		r.Get("/jobs", h.ListJobs)
		r.Get("/jobs/{id}", h.GetJob)

		r.Get("/collections", h.ListCollections)
		r.Post("/collections", h.CreateCollection)
		r.Get("/collections/{id}", h.GetCollection)
		r.Patch("/collections/{id}", h.UpdateCollection)
		r.Delete("/collections/{id}", h.DeleteCollection)

		r.Get("/videos", h.ListVideos)
		r.Get("/channels", h.ListChannels)
		r.Get("/playlists", h.ListPlaylists)

		r.Get("/schedules", h.ListSchedules)
		r.Post("/schedules", h.CreateSchedule)
		r.Get("/schedules/{id}", h.GetSchedule)
		r.Delete("/schedules/{id}", h.DeleteSchedule)

		r.Get("/downloads", h.SearchDownloads)
		r.Post("/downloads", h.StartDownload)
		r.Get("/downloads/{id}", h.GetDownload)
	})
}

func (h *Handler) EnqueueJob(w http.ResponseWriter, r *http.Request) {
	var req dto.EnqueueJobRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		h.writeError(w, http.StatusBadRequest, dto.ToResponse(errs))
		return
	}

	job, err := h.Queue.Enqueue(domain.JobType(req.Type), req.Data)
	if err != nil {
		h.Logger.Error("Failed to enqueue job", "error", err)
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusAccepted, dto.NewJobResponse(job))
}

func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	jobs, err := h.Queue.ListJobs(limit)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, dto.NewJobListResponse(jobs))
}

func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.Queue.GetJob(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if job == nil {
		h.writeError(w, http.StatusNotFound, "job not found")
		return
	}
	h.writeJSON(w, http.StatusOK, dto.NewJobResponse(job))
}

func (h *Handler) ListCollections(w http.ResponseWriter, r *http.Request) {
	collections, err := h.Engine.List()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, dto.NewCollectionListResponse(collections))
}

func (h *Handler) CreateCollection(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateCollectionRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		h.writeError(w, http.StatusBadRequest, dto.ToResponse(errs))
		return
	}

	collection, err := h.Engine.Create(req.Name, req.RootPath)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, dto.NewCollectionResponse(collection))
}

func (h *Handler) GetCollection(w http.ResponseWriter, r *http.Request) {
	collection, err := h.Engine.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if collection == nil {
		h.writeError(w, http.StatusNotFound, "collection not found")
		return
	}
	h.writeJSON(w, http.StatusOK, dto.NewCollectionResponse(collection))
}

func (h *Handler) UpdateCollection(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateCollectionRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		h.writeError(w, http.StatusBadRequest, dto.ToResponse(errs))
		return
	}

	collection, err := h.Engine.Rename(chi.URLParam(r, "id"), req.Name)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, dto.NewCollectionResponse(collection))
}

// DeleteCollection enqueues the deletion instead of performing it inline:
// it is a cross-store mutation and belongs on the queue like move and merge.
func (h *Handler) DeleteCollection(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	collection, err := h.Engine.Get(id)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if collection == nil {
		h.writeError(w, http.StatusNotFound, "collection not found")
		return
	}

	data, err := domain.EncodePayload(&domain.DeleteCollectionPayload{CollectionID: id})
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	job, err := h.Queue.Enqueue(domain.JobTypeDeleteCollection, data)
	if err != nil {
		h.Logger.Error("Failed to enqueue collection deletion", "error", err)
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusAccepted, dto.NewJobResponse(job))
}

func (h *Handler) ListVideos(w http.ResponseWriter, r *http.Request) {
	videos, err := h.Tracker.ListVideos()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, videos)
}

func (h *Handler) ListChannels(w http.ResponseWriter, r *http.Request) {
	channels, err := h.Tracker.ListChannels()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, channels)
}

func (h *Handler) ListPlaylists(w http.ResponseWriter, r *http.Request) {
	playlists, err := h.Tracker.ListPlaylists()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, playlists)
}

func (h *Handler) ListSchedules(w http.ResponseWriter, r *http.Request) {
	scheduleList, err := h.Schedules.List()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, scheduleList)
}

func (h *Handler) CreateSchedule(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateScheduleRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		h.writeError(w, http.StatusBadRequest, dto.ToResponse(errs))
		return
	}

	schedule, err := h.Schedules.Create(req.Name, req.URL, req.Cron, req.CollectionID)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusCreated, schedule)
}

func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	schedule, err := h.Schedules.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if schedule == nil {
		h.writeError(w, http.StatusNotFound, "schedule not found")
		return
	}
	h.writeJSON(w, http.StatusOK, schedule)
}

func (h *Handler) DeleteSchedule(w http.ResponseWriter, r *http.Request) {
	if err := h.Schedules.Delete(chi.URLParam(r, "id")); err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) SearchDownloads(w http.ResponseWriter, r *http.Request) {
	videoID := r.URL.Query().Get("videoId")
	if videoID == "" {
		h.writeError(w, http.StatusBadRequest, "videoId query parameter is required")
		return
	}
	results, err := h.Downloads.SearchByVideoID(videoID)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, results)
}

// StartDownload kicks off a background fetch and returns its download
// record; the log on the record fills in as the tool reports progress.
func (h *Handler) StartDownload(w http.ResponseWriter, r *http.Request) {
	var req dto.StartDownloadRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		h.writeError(w, http.StatusBadRequest, dto.ToResponse(errs))
		return
	}

	record, err := h.Fetcher.Fetch(req.URL, domain.MediaFormat(req.Format))
	if err != nil {
		h.Logger.Error("Failed to start download", "error", err)
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusAccepted, record)
}

func (h *Handler) GetDownload(w http.ResponseWriter, r *http.Request) {
	download, err := h.Downloads.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if download == nil {
		h.writeError(w, http.StatusNotFound, "download not found")
		return
	}
	h.writeJSON(w, http.StatusOK, download)
}
