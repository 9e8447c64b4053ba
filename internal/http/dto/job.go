package dto

import (
	"encoding/json"
	"time"

	"vodvault/internal/domain"
)

// EnqueueJobRequest is the payload of POST /api/jobs. Data is decoded per
// job type before the job is accepted.
type EnqueueJobRequest struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Validate checks the type and the type-specific required payload fields.
func (r *EnqueueJobRequest) Validate() []ValidationError {
	jobType := domain.JobType(r.Type)
	if !domain.ValidJobType(jobType) {
		return []ValidationError{{Field: "type", Message: "unknown job type"}}
	}

	var errs []ValidationError
	decode := func(dst any) bool {
		if len(r.Data) == 0 {
			errs = append(errs, ValidationError{Field: "data", Message: "is required"})
			return false
		}
		if err := json.Unmarshal(r.Data, dst); err != nil {
			errs = append(errs, ValidationError{Field: "data", Message: "invalid payload: " + err.Error()})
			return false
		}
		return true
	}

	switch jobType {
	case domain.JobTypeDeleteVideo:
		var p domain.DeleteVideoPayload
		if decode(&p) {
			errs = append(errs, requireField(p.VideoID, "data.video_id")...)
			errs = append(errs, requireField(p.RelativePath, "data.relative_path")...)
		}
	case domain.JobTypeDeleteChannel:
		var p domain.DeleteChannelPayload
		if decode(&p) {
			errs = append(errs, requireField(p.ChannelID, "data.channel_id")...)
		}
	case domain.JobTypeDeletePlaylist:
		var p domain.DeletePlaylistPayload
		if decode(&p) {
			errs = append(errs, requireField(p.PlaylistID, "data.playlist_id")...)
		}
	case domain.JobTypeDeleteCollection:
		var p domain.DeleteCollectionPayload
		if decode(&p) {
			errs = append(errs, requireField(p.CollectionID, "data.collection_id")...)
		}
	case domain.JobTypeMoveCollection:
		var p domain.MoveCollectionPayload
		if decode(&p) {
			errs = append(errs, requireField(p.CollectionID, "data.collection_id")...)
			errs = append(errs, validateAbsolutePath(p.RootPath, "data.root_path")...)
		}
	case domain.JobTypeMergeCollection:
		var p domain.MergeCollectionPayload
		if decode(&p) {
			errs = append(errs, requireField(p.SourceID, "data.source_id")...)
			errs = append(errs, requireField(p.TargetID, "data.target_id")...)
		}
	}

	return errs
}

type JobResponse struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	Status      string          `json:"status"`
	CreatedAt   string          `json:"created_at"`
	StartedAt   string          `json:"started_at,omitempty"`
	CompletedAt string          `json:"completed_at,omitempty"`
	Error       string          `json:"error,omitempty"`
	Data        json.RawMessage `json:"data,omitempty"`
	Result      json.RawMessage `json:"result,omitempty"`
}

func NewJobResponse(j *domain.Job) JobResponse {
	resp := JobResponse{
		ID:        j.ID,
		Type:      string(j.Type),
		Status:    string(j.Status),
		CreatedAt: j.CreatedAt.Format(time.RFC3339),
		Data:      j.Data,
		Result:    j.Result,
	}
	if j.StartedAt != nil {
		resp.StartedAt = j.StartedAt.Format(time.RFC3339)
	}
	if j.CompletedAt != nil {
		resp.CompletedAt = j.CompletedAt.Format(time.RFC3339)
	}
	if j.Error != nil {
		resp.Error = *j.Error
	}
	return resp
}

func NewJobListResponse(jobs []*domain.Job) []JobResponse {
	out := make([]JobResponse, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, NewJobResponse(j))
	}
	return out
}
