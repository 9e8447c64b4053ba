package jobqueue

import (
	"context"
	"fmt"
	"log/slog"

	"vodvault/internal/collections"
	"vodvault/internal/domain"
	"vodvault/internal/filesystem"
	"vodvault/internal/tracker"
)

// RegisterHandlers wires the six job types to their handlers.
func RegisterHandlers(d *Dispatcher, rec *tracker.Reconciler, engine *collections.Engine) {
	d.Register(domain.JobTypeDeleteVideo, &DeleteVideoHandler{Tracker: rec})
	d.Register(domain.JobTypeDeleteChannel, &DeleteChannelHandler{Tracker: rec})
	d.Register(domain.JobTypeDeletePlaylist, &DeletePlaylistHandler{Tracker: rec})
	d.Register(domain.JobTypeDeleteCollection, &DeleteCollectionHandler{Engine: engine})
	d.Register(domain.JobTypeMoveCollection, &MoveCollectionHandler{Engine: engine})
	d.Register(domain.JobTypeMergeCollection, &MergeCollectionHandler{Engine: engine})
}

// DeleteVideoHandler removes a single tracked video's files from disk and
// marks the record deleted. The record itself stays for history.
type DeleteVideoHandler struct {
	Tracker *tracker.Reconciler
}

func (h *DeleteVideoHandler) Handle(ctx context.Context, job *domain.Job, logger *slog.Logger) (*domain.JobResult, error) {
	var payload domain.DeleteVideoPayload
	if err := domain.DecodePayload(job, &payload); err != nil {
		return nil, err
	}

	video, err := h.Tracker.GetVideo(payload.VideoID, payload.RelativePath)
	if err != nil {
		return nil, err
	}
	if video == nil {
		return nil, fmt.Errorf("video %s at %s is not tracked", payload.VideoID, payload.RelativePath)
	}

	removed := removeVideoFiles(video, logger)
	if err := h.Tracker.MarkFilesDeleted(video.VideoID, video.RelativePath); err != nil {
		return nil, err
	}
	if err := h.Tracker.MarkDeleted(video.VideoID, video.RelativePath); err != nil {
		return nil, err
	}

	return &domain.JobResult{
		Success:       true,
		Message:       fmt.Sprintf("deleted video %s (%d files removed)", video.VideoID, removed),
		DeletedVideos: 1,
	}, nil
}

// DeleteChannelHandler deletes every video belonging to a channel rollup,
// then removes the rollup itself.
type DeleteChannelHandler struct {
	Tracker *tracker.Reconciler
}

func (h *DeleteChannelHandler) Handle(ctx context.Context, job *domain.Job, logger *slog.Logger) (*domain.JobResult, error) {
	var payload domain.DeleteChannelPayload
	if err := domain.DecodePayload(job, &payload); err != nil {
		return nil, err
	}

	channel, err := h.Tracker.GetChannel(payload.ChannelID)
	if err != nil {
		return nil, err
	}
	if channel == nil {
		return nil, fmt.Errorf("channel %s is not tracked", payload.ChannelID)
	}

	deleted, err := deleteMemberVideos(h.Tracker, channel.VideoIDs, logger)
	if err != nil {
		return nil, err
	}
	if err := h.Tracker.DeleteChannel(channel.ChannelID); err != nil {
		return nil, err
	}

	return &domain.JobResult{
		Success:       true,
		Message:       fmt.Sprintf("deleted channel %s", channel.ChannelID),
		DeletedVideos: deleted,
	}, nil
}

// DeletePlaylistHandler mirrors DeleteChannelHandler for playlists.
type DeletePlaylistHandler struct {
	Tracker *tracker.Reconciler
}

func (h *DeletePlaylistHandler) Handle(ctx context.Context, job *domain.Job, logger *slog.Logger) (*domain.JobResult, error) {
	var payload domain.DeletePlaylistPayload
	if err := domain.DecodePayload(job, &payload); err != nil {
		return nil, err
	}

	playlist, err := h.Tracker.GetPlaylist(payload.PlaylistID)
	if err != nil {
		return nil, err
	}
	if playlist == nil {
		return nil, fmt.Errorf("playlist %s is not tracked", payload.PlaylistID)
	}

	deleted, err := deleteMemberVideos(h.Tracker, playlist.VideoIDs, logger)
	if err != nil {
		return nil, err
	}
	if err := h.Tracker.DeletePlaylist(playlist.PlaylistID); err != nil {
		return nil, err
	}

	return &domain.JobResult{
		Success:       true,
		Message:       fmt.Sprintf("deleted playlist %s", playlist.PlaylistID),
		DeletedVideos: deleted,
	}, nil
}

// DeleteCollectionHandler routes through the mutation engine. Directory
// removal failure is surfaced on the result, not as a job failure.
type DeleteCollectionHandler struct {
	Engine *collections.Engine
}

func (h *DeleteCollectionHandler) Handle(ctx context.Context, job *domain.Job, logger *slog.Logger) (*domain.JobResult, error) {
	var payload domain.DeleteCollectionPayload
	if err := domain.DecodePayload(job, &payload); err != nil {
		return nil, err
	}

	res, err := h.Engine.Delete(payload.CollectionID)
	if err != nil {
		return nil, err
	}

	result := &domain.JobResult{
		Success:       true,
		Message:       fmt.Sprintf("deleted collection %s (%d videos)", payload.CollectionID, res.DeletedVideos),
		DeletedVideos: int(res.DeletedVideos),
		FilesRemoved:  &res.FilesRemoved,
	}
	if !res.FilesRemoved {
		result.Message = fmt.Sprintf("deleted collection %s (%d videos); directory removal failed: %s",
			payload.CollectionID, res.DeletedVideos, res.FileError)
	}
	return result, nil
}

type MoveCollectionHandler struct {
	Engine *collections.Engine
}

func (h *MoveCollectionHandler) Handle(ctx context.Context, job *domain.Job, logger *slog.Logger) (*domain.JobResult, error) {
	var payload domain.MoveCollectionPayload
	if err := domain.DecodePayload(job, &payload); err != nil {
		return nil, err
	}

	res, err := h.Engine.Move(payload.CollectionID, payload.Name, payload.RootPath)
	if err != nil {
		return nil, err
	}

	msg := fmt.Sprintf("moved collection %s", payload.CollectionID)
	if !res.Moved {
		msg = fmt.Sprintf("collection %s unchanged", payload.CollectionID)
	}
	return &domain.JobResult{
		Success:       true,
		Message:       msg,
		UpdatedVideos: int(res.UpdatedVideos),
	}, nil
}

type MergeCollectionHandler struct {
	Engine *collections.Engine
}

func (h *MergeCollectionHandler) Handle(ctx context.Context, job *domain.Job, logger *slog.Logger) (*domain.JobResult, error) {
	var payload domain.MergeCollectionPayload
	if err := domain.DecodePayload(job, &payload); err != nil {
		return nil, err
	}

	res, err := h.Engine.Merge(payload.SourceID, payload.TargetID)
	if err != nil {
		return nil, err
	}

	return &domain.JobResult{
		Success:          true,
		Message:          fmt.Sprintf("merged collection %s into %s", payload.SourceID, payload.TargetID),
		UpdatedVideos:    int(res.UpdatedVideos),
		UpdatedSchedules: int(res.UpdatedSchedules),
	}, nil
}

func removeVideoFiles(video *domain.TrackedVideo, logger *slog.Logger) int {
	removed := 0
	for _, f := range video.Files {
		if f.Path == "" || !f.Exists {
			continue
		}
		if err := filesystem.RemoveFile(f.Path); err != nil {
			logger.Warn("Failed to remove file", "path", f.Path, "error", err)
			continue
		}
		removed++
	}
	return removed
}

func deleteMemberVideos(rec *tracker.Reconciler, videoIDs []string, logger *slog.Logger) (int, error) {
	deleted := 0
	for _, videoID := range videoIDs {
		rows, err := rec.GetVideosByID(videoID)
		if err != nil {
			return deleted, err
		}
		for _, video := range rows {
			removeVideoFiles(video, logger)
			if err := rec.MarkFilesDeleted(video.VideoID, video.RelativePath); err != nil {
				return deleted, err
			}
			if err := rec.MarkDeleted(video.VideoID, video.RelativePath); err != nil {
				return deleted, err
			}
			deleted++
		}
	}
	return deleted, nil
}
