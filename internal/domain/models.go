package domain

import (
	"encoding/json"
	"time"
)

type JobType string

const (
	JobTypeDeleteVideo      JobType = "delete_video"
	JobTypeDeleteChannel    JobType = "delete_channel"
	JobTypeDeletePlaylist   JobType = "delete_playlist"
	JobTypeDeleteCollection JobType = "delete_collection"
	JobTypeMoveCollection   JobType = "move_collection"
	JobTypeMergeCollection  JobType = "merge_collection"
)

type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Job represents a persisted unit of deferred mutating work.
// StartedAt is set once, on the first transition to running; CompletedAt is
// set once, when the job reaches a terminal status.
type Job struct {
	ID          string          `json:"id" db:"id"`
	Type        JobType         `json:"type" db:"type"`
	Status      JobStatus       `json:"status" db:"status"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	StartedAt   *time.Time      `json:"started_at,omitempty" db:"started_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty" db:"completed_at"`
	Error       *string         `json:"error,omitempty" db:"error"`
	Data        json.RawMessage `json:"data,omitempty" db:"data"`
	Result      json.RawMessage `json:"result,omitempty" db:"result"`
}

// Terminal reports whether the job has finished, successfully or not.
func (j *Job) Terminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}

// Collection is a named directory tree grouping downloaded media.
type Collection struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	RootPath  string    `json:"root_path" db:"root_path"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type MediaFormat string

const (
	FormatVideo MediaFormat = "video"
	FormatAudio MediaFormat = "audio"
)

type FileKind string

const (
	FileKindMedia        FileKind = "media"
	FileKindThumbnail    FileKind = "thumbnail"
	FileKindSubtitle     FileKind = "subtitle"
	FileKindIntermediate FileKind = "intermediate"
	FileKindOther        FileKind = "other"
)

// TrackedFile is one on-disk artifact belonging to a tracked video.
type TrackedFile struct {
	Path         string     `json:"path"`
	Kind         FileKind   `json:"kind"`
	Intermediate bool       `json:"intermediate"`
	Exists       bool       `json:"exists"`
	FirstSeenAt  time.Time  `json:"first_seen_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
}

// TrackedVideo is one downloaded video at one output location. The same
// source video can be tracked once per distinct relative path, so the
// uniqueness key is (VideoID, RelativePath).
type TrackedVideo struct {
	VideoID      string        `json:"id" db:"video_id"`
	Title        string        `json:"title" db:"title"`
	Channel      string        `json:"channel" db:"channel"`
	ChannelID    *string       `json:"channel_id,omitempty" db:"channel_id"`
	URL          string        `json:"url" db:"url"`
	RelativePath string        `json:"relative_path" db:"relative_path"`
	FullPath     string        `json:"full_path" db:"full_path"`
	DownloadedAt time.Time     `json:"downloaded_at" db:"downloaded_at"`
	Format       MediaFormat   `json:"format" db:"format"`
	Resolution   *string       `json:"resolution,omitempty" db:"resolution"`
	FileSize     *int64        `json:"file_size,omitempty" db:"file_size"`
	Duration     *int          `json:"duration,omitempty" db:"duration"`
	Files        []TrackedFile `json:"files" db:"-"`
	Deleted      bool          `json:"deleted,omitempty" db:"deleted"`
	DeletedAt    *time.Time    `json:"deleted_at,omitempty" db:"deleted_at"`
}

// TrackedChannel is the incrementally-derived rollup of a channel's downloads.
type TrackedChannel struct {
	ChannelID        string     `json:"id" db:"channel_id"`
	Name             string     `json:"name" db:"name"`
	URL              string     `json:"url" db:"url"`
	RelativePath     string     `json:"relative_path" db:"relative_path"`
	DownloadedAt     time.Time  `json:"downloaded_at" db:"downloaded_at"`
	LastDownloadedAt *time.Time `json:"last_downloaded_at,omitempty" db:"last_downloaded_at"`
	VideoCount       int        `json:"video_count" db:"video_count"`
	VideoIDs         []string   `json:"video_ids" db:"-"`
}

// TrackedPlaylist mirrors TrackedChannel for playlists.
type TrackedPlaylist struct {
	PlaylistID       string     `json:"id" db:"playlist_id"`
	Name             string     `json:"name" db:"name"`
	URL              string     `json:"url" db:"url"`
	RelativePath     string     `json:"relative_path" db:"relative_path"`
	DownloadedAt     time.Time  `json:"downloaded_at" db:"downloaded_at"`
	LastDownloadedAt *time.Time `json:"last_downloaded_at,omitempty" db:"last_downloaded_at"`
	VideoCount       int        `json:"video_count" db:"video_count"`
	VideoIDs         []string   `json:"video_ids" db:"-"`
}

// Schedule is a recurring download. CollectionID is rewritten by the
// collection engine when a merge retires the referenced collection.
type Schedule struct {
	ID           string     `json:"id" db:"id"`
	Name         string     `json:"name" db:"name"`
	URL          string     `json:"url" db:"url"`
	Cron         string     `json:"cron" db:"cron"`
	CollectionID *string    `json:"collection_id,omitempty" db:"collection_id"`
	Enabled      bool       `json:"enabled" db:"enabled"`
	LastRunAt    *time.Time `json:"last_run_at,omitempty" db:"last_run_at"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

type DownloadStatus string

const (
	DownloadStatusRunning   DownloadStatus = "running"
	DownloadStatusCompleted DownloadStatus = "completed"
	DownloadStatusFailed    DownloadStatus = "failed"
)

// Download is the per-download status record with its append-only log.
type Download struct {
	ID        string         `json:"id" db:"id"`
	URL       string         `json:"url" db:"url"`
	VideoID   string         `json:"video_id" db:"video_id"`
	Status    DownloadStatus `json:"status" db:"status"`
	Log       string         `json:"log" db:"log"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt time.Time      `json:"updated_at" db:"updated_at"`
}
