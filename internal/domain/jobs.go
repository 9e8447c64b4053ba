package domain

import (
	"encoding/json"
	"fmt"
)

// Typed payloads for each job type. Data on a Job is the JSON encoding of
// one of these, keyed by Job.Type.

type DeleteVideoPayload struct {
	VideoID      string `json:"video_id"`
	RelativePath string `json:"relative_path"`
}

type DeleteChannelPayload struct {
	ChannelID string `json:"channel_id"`
}

type DeletePlaylistPayload struct {
	PlaylistID string `json:"playlist_id"`
}

type DeleteCollectionPayload struct {
	CollectionID string `json:"collection_id"`
}

// MoveCollectionPayload carries optional overrides; an empty field keeps the
// collection's current value.
type MoveCollectionPayload struct {
	CollectionID string `json:"collection_id"`
	Name         string `json:"name,omitempty"`
	RootPath     string `json:"root_path,omitempty"`
}

type MergeCollectionPayload struct {
	SourceID string `json:"source_id"`
	TargetID string `json:"target_id"`
}

// JobResult is the structured outcome stored on a finished job. Failure is
// surfaced here as Success=false with a message, never as a raw stack trace.
type JobResult struct {
	Success          bool   `json:"success"`
	Message          string `json:"message,omitempty"`
	DeletedVideos    int    `json:"deleted_videos,omitempty"`
	UpdatedVideos    int    `json:"updated_videos,omitempty"`
	UpdatedSchedules int    `json:"updated_schedules,omitempty"`
	FilesRemoved     *bool  `json:"files_removed,omitempty"`
}

// EncodePayload marshals a typed payload for storage on a Job.
func EncodePayload(payload any) (json.RawMessage, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode job payload: %w", err)
	}
	return data, nil
}

// DecodePayload unmarshals a job's Data into the given typed payload.
func DecodePayload(job *Job, dst any) error {
	if len(job.Data) == 0 {
		return fmt.Errorf("job %s has no payload", job.ID)
	}
	if err := json.Unmarshal(job.Data, dst); err != nil {
		return fmt.Errorf("decode %s payload: %w", job.Type, err)
	}
	return nil
}

// ValidJobType reports whether t is one of the six known job types.
func ValidJobType(t JobType) bool {
	switch t {
	case JobTypeDeleteVideo, JobTypeDeleteChannel, JobTypeDeletePlaylist,
		JobTypeDeleteCollection, JobTypeMoveCollection, JobTypeMergeCollection:
		return true
	}
	return false
}
