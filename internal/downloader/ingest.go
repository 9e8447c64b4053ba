package downloader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"vodvault/internal/domain"
	"vodvault/internal/downloads"
	"vodvault/internal/logger"
	"vodvault/internal/tagging"
	"vodvault/internal/tracker"
)

// Ingestor records a finished download in the tracker: the video itself,
// its channel/playlist rollups, and metadata tags for audio output.
type Ingestor struct {
	Tracker      *tracker.Reconciler
	Downloads    *downloads.Log
	Logger       *logger.Logger
	DownloadRoot string
}

func NewIngestor(rec *tracker.Reconciler, dl *downloads.Log, root string, log *logger.Logger) *Ingestor {
	return &Ingestor{
		Tracker:      rec,
		Downloads:    dl,
		Logger:       log.WithComponent("ingest"),
		DownloadRoot: root,
	}
}

// Ingest converts a download result into tracker records. Repeated ingests
// of the same video merge through the reconciler rather than replacing.
func (in *Ingestor) Ingest(downloadID string, res *Result) (*domain.TrackedVideo, error) {
	now := time.Now()

	var files []domain.TrackedFile
	var mediaPath, thumbPath string
	for _, path := range res.OutputFiles {
		kind, intermediate := ClassifyFile(path)
		files = append(files, domain.TrackedFile{
			Path:         path,
			Kind:         kind,
			Intermediate: intermediate,
			Exists:       fileExists(path),
			FirstSeenAt:  now,
		})
		switch kind {
		case domain.FileKindMedia:
			if mediaPath == "" {
				mediaPath = path
			}
		case domain.FileKindThumbnail:
			if thumbPath == "" {
				thumbPath = path
			}
		}
	}
	if mediaPath == "" {
		return nil, fmt.Errorf("download %s produced no media file", downloadID)
	}

	relPath, err := filepath.Rel(in.DownloadRoot, mediaPath)
	if err != nil {
		return nil, fmt.Errorf("media path %s is outside the download root: %w", mediaPath, err)
	}
	// Rel reports paths outside the root as "../..." rather than an error.
	if relPath == ".." || strings.HasPrefix(relPath, ".."+string(filepath.Separator)) {
		return nil, fmt.Errorf("media path %s is outside the download root %s", mediaPath, in.DownloadRoot)
	}

	video := &domain.TrackedVideo{
		VideoID:      res.VideoID,
		Title:        res.Title,
		Channel:      res.Channel,
		URL:          res.URL,
		RelativePath: relPath,
		FullPath:     mediaPath,
		DownloadedAt: now,
		Format:       res.Format,
		Files:        files,
	}
	if res.ChannelID != "" {
		video.ChannelID = &res.ChannelID
	}
	if res.Resolution != "" {
		video.Resolution = &res.Resolution
	}
	if res.Duration > 0 {
		video.Duration = &res.Duration
	}
	if size, ok := fileSize(mediaPath); ok {
		video.FileSize = &size
	}

	tracked, err := in.Tracker.TrackVideo(video)
	if err != nil {
		return nil, err
	}

	if res.ChannelID != "" {
		_, err = in.Tracker.TrackChannel(&domain.TrackedChannel{
			ChannelID:    res.ChannelID,
			Name:         res.Channel,
			URL:          res.ChannelURL,
			RelativePath: filepath.Dir(relPath),
		}, res.VideoID)
		if err != nil {
			return nil, err
		}
	}
	if res.PlaylistID != "" {
		_, err = in.Tracker.TrackPlaylist(&domain.TrackedPlaylist{
			PlaylistID:   res.PlaylistID,
			Name:         res.Playlist,
			URL:          res.PlaylistURL,
			RelativePath: filepath.Dir(relPath),
		}, res.VideoID)
		if err != nil {
			return nil, err
		}
	}

	if res.Format == domain.FormatAudio {
		in.tagAudio(downloadID, tracked, mediaPath, thumbPath)
	}

	if in.Downloads != nil {
		if res.VideoID != "" {
			_ = in.Downloads.SetVideoID(downloadID, res.VideoID)
		}
		_ = in.Downloads.Append(downloadID, fmt.Sprintf("tracked %s (%d files)", res.VideoID, len(files)))
	}

	return tracked, nil
}

// tagAudio is best-effort: a tagging failure is logged on the download, not
// fatal to ingestion.
func (in *Ingestor) tagAudio(downloadID string, video *domain.TrackedVideo, mediaPath, thumbPath string) {
	var artwork []byte
	if thumbPath != "" {
		if data, err := os.ReadFile(thumbPath); err == nil {
			artwork = data
		}
	}

	if err := tagging.TagFile(mediaPath, video, artwork); err != nil {
		in.Logger.Warn("Failed to tag audio file", "path", mediaPath, "error", err)
		if in.Downloads != nil {
			_ = in.Downloads.Append(downloadID, "tagging failed: "+err.Error())
		}
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func fileSize(path string) (int64, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, false
	}
	return info.Size(), true
}
