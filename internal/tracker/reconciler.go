// Package tracker owns the catalog of downloaded videos and the rules for
// merging repeated observations of the same video into one record.
package tracker

import (
	"fmt"
	"strings"
	"time"

	"vodvault/internal/domain"
	"vodvault/internal/logger"
	"vodvault/internal/store"
)

type Reconciler struct {
	Repo   *store.DB
	Logger *logger.Logger
}

func NewReconciler(repo *store.DB, log *logger.Logger) *Reconciler {
	return &Reconciler{Repo: repo, Logger: log.WithComponent("tracker")}
}

// TrackVideo upserts a video observation keyed by (id, relativePath). A
// repeat observation is merged into the prior record: file histories are
// combined and the video's own deletion state survives re-downloads.
func (r *Reconciler) TrackVideo(v *domain.TrackedVideo) (*domain.TrackedVideo, error) {
	existing, err := r.Repo.GetVideo(v.VideoID, v.RelativePath)
	if err != nil {
		return nil, fmt.Errorf("failed to look up video %s: %w", v.VideoID, err)
	}

	record := *v
	if record.Files == nil {
		record.Files = []domain.TrackedFile{}
	}

	if existing != nil {
		record.Files = mergeFiles(existing.Files, record.Files)
		// Re-downloading must not resurrect a deleted video.
		record.Deleted = existing.Deleted
		record.DeletedAt = existing.DeletedAt
	}

	if err := r.Repo.UpsertVideo(&record); err != nil {
		return nil, fmt.Errorf("failed to upsert video %s: %w", v.VideoID, err)
	}

	r.Logger.Debug("Tracked video", "video_id", record.VideoID, "relative_path", record.RelativePath, "files", len(record.Files))
	return &record, nil
}

// mergeFiles combines two observations of a video's file list. For every
// path present in either list the merged entry keeps the earliest
// firstSeenAt, the earliest non-nil deletedAt, a kind that never downgrades
// a specific classification back to "other", and intermediate as a logical
// OR. Existence follows the newest observation when it saw the file.
func mergeFiles(old, observed []domain.TrackedFile) []domain.TrackedFile {
	byPath := make(map[string]int, len(old))
	merged := make([]domain.TrackedFile, len(old))
	copy(merged, old)
	for i := range merged {
		byPath[merged[i].Path] = i
	}

	for _, nf := range observed {
		i, seen := byPath[nf.Path]
		if !seen {
			byPath[nf.Path] = len(merged)
			merged = append(merged, nf)
			continue
		}

		of := &merged[i]
		if nf.FirstSeenAt.Before(of.FirstSeenAt) {
			of.FirstSeenAt = nf.FirstSeenAt
		}
		of.DeletedAt = earliestDeletion(of.DeletedAt, nf.DeletedAt)
		if nf.Kind != "" && (nf.Kind != domain.FileKindOther || of.Kind == domain.FileKindOther) {
			of.Kind = nf.Kind
		}
		of.Intermediate = of.Intermediate || nf.Intermediate
		of.Exists = nf.Exists
	}

	return merged
}

func earliestDeletion(a, b *time.Time) *time.Time {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	if b.Before(*a) {
		return b
	}
	return a
}

// TrackChannel upserts the channel rollup, appending the video id if absent.
func (r *Reconciler) TrackChannel(c *domain.TrackedChannel, videoID string) (*domain.TrackedChannel, error) {
	existing, err := r.Repo.GetChannelByURL(c.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to look up channel %s: %w", c.URL, err)
	}
	if existing == nil && c.ChannelID != "" {
		existing, err = r.Repo.GetChannel(c.ChannelID)
		if err != nil {
			return nil, fmt.Errorf("failed to look up channel %s: %w", c.ChannelID, err)
		}
	}

	now := time.Now()
	record := *c
	if existing != nil {
		record.DownloadedAt = existing.DownloadedAt
		record.VideoIDs = existing.VideoIDs
		record.VideoCount = existing.VideoCount
	} else if record.DownloadedAt.IsZero() {
		record.DownloadedAt = now
	}

	if videoID != "" && !containsID(record.VideoIDs, videoID) {
		record.VideoIDs = append(record.VideoIDs, videoID)
		record.VideoCount = len(record.VideoIDs)
	}
	record.LastDownloadedAt = &now

	if err := r.Repo.UpsertChannel(&record); err != nil {
		return nil, fmt.Errorf("failed to upsert channel %s: %w", record.ChannelID, err)
	}
	return &record, nil
}

// TrackPlaylist mirrors TrackChannel for playlists.
func (r *Reconciler) TrackPlaylist(p *domain.TrackedPlaylist, videoID string) (*domain.TrackedPlaylist, error) {
	existing, err := r.Repo.GetPlaylistByURL(p.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to look up playlist %s: %w", p.URL, err)
	}
	if existing == nil && p.PlaylistID != "" {
		existing, err = r.Repo.GetPlaylist(p.PlaylistID)
		if err != nil {
			return nil, fmt.Errorf("failed to look up playlist %s: %w", p.PlaylistID, err)
		}
	}

	now := time.Now()
	record := *p
	if existing != nil {
		record.DownloadedAt = existing.DownloadedAt
		record.VideoIDs = existing.VideoIDs
		record.VideoCount = existing.VideoCount
	} else if record.DownloadedAt.IsZero() {
		record.DownloadedAt = now
	}

	if videoID != "" && !containsID(record.VideoIDs, videoID) {
		record.VideoIDs = append(record.VideoIDs, videoID)
		record.VideoCount = len(record.VideoIDs)
	}
	record.LastDownloadedAt = &now

	if err := r.Repo.UpsertPlaylist(&record); err != nil {
		return nil, fmt.Errorf("failed to upsert playlist %s: %w", record.PlaylistID, err)
	}
	return &record, nil
}

func containsID(ids []string, id string) bool {
	for _, existing := range ids {
		if existing == id {
			return true
		}
	}
	return false
}

// DeleteVideosByPath removes every tracked video rooted under rootPath and
// returns the count removed. Used exclusively by collection delete.
func (r *Reconciler) DeleteVideosByPath(rootPath string) (int64, error) {
	count, err := r.Repo.DeleteVideosUnderPath(rootPath)
	if err != nil {
		return 0, fmt.Errorf("failed to delete videos under %s: %w", rootPath, err)
	}
	r.Logger.Info("Removed tracked videos", "root", rootPath, "count", count)
	return count, nil
}

// UpdatePathsForMove rewrites the location of every tracked video rooted
// under oldRoot, substituting newRoot for the prefix. The match is
// prefix-exact: /downloads/Foo never captures /downloads/FooBar.
func (r *Reconciler) UpdatePathsForMove(oldRoot, newRoot string) (int64, error) {
	videos, err := r.Repo.ListVideosUnderPath(oldRoot)
	if err != nil {
		return 0, fmt.Errorf("failed to list videos under %s: %w", oldRoot, err)
	}

	oldBase := pathBase(oldRoot)
	newBase := pathBase(newRoot)

	var updated int64
	for _, v := range videos {
		newFull := newRoot + strings.TrimPrefix(v.FullPath, oldRoot)
		newRel := rewriteRelative(v.RelativePath, oldBase, newBase)

		files := make([]domain.TrackedFile, len(v.Files))
		copy(files, v.Files)
		for i := range files {
			if files[i].Path == oldRoot || strings.HasPrefix(files[i].Path, oldRoot+"/") {
				files[i].Path = newRoot + strings.TrimPrefix(files[i].Path, oldRoot)
			}
		}

		// The new location may already track this video (both collections
		// held it before a merge). Fold the two records together instead of
		// colliding with the existing row.
		if newRel != v.RelativePath {
			existing, err := r.Repo.GetVideo(v.VideoID, newRel)
			if err != nil {
				return updated, fmt.Errorf("failed to look up video %s at %s: %w", v.VideoID, newRel, err)
			}
			if existing != nil {
				record := *existing
				record.Files = mergeFiles(existing.Files, files)
				record.Deleted = existing.Deleted || v.Deleted
				record.DeletedAt = earliestDeletion(existing.DeletedAt, v.DeletedAt)
				if v.DownloadedAt.Before(record.DownloadedAt) {
					record.DownloadedAt = v.DownloadedAt
				}
				if err := r.Repo.UpsertVideo(&record); err != nil {
					return updated, fmt.Errorf("failed to fold video %s into %s: %w", v.VideoID, newRel, err)
				}
				if err := r.Repo.DeleteVideo(v.VideoID, v.RelativePath); err != nil {
					return updated, fmt.Errorf("failed to remove folded video %s: %w", v.VideoID, err)
				}
				updated++
				continue
			}
		}

		if err := r.Repo.UpdateVideoPaths(v.VideoID, v.RelativePath, newRel, newFull, files); err != nil {
			return updated, fmt.Errorf("failed to update paths for video %s: %w", v.VideoID, err)
		}
		updated++
	}

	r.Logger.Info("Rewrote tracked video paths", "old_root", oldRoot, "new_root", newRoot, "count", updated)
	return updated, nil
}

// rewriteRelative substitutes the leading directory of a relative path when
// it matches the old root's base name.
func rewriteRelative(rel, oldBase, newBase string) string {
	if rel == oldBase {
		return newBase
	}
	if strings.HasPrefix(rel, oldBase+"/") {
		return newBase + strings.TrimPrefix(rel, oldBase)
	}
	return rel
}

func pathBase(p string) string {
	p = strings.TrimRight(p, "/")
	if i := strings.LastIndexByte(p, '/'); i >= 0 {
		return p[i+1:]
	}
	return p
}

// MarkDeleted flags the matching record as deleted. Idempotent: an earlier
// deletedAt is kept.
func (r *Reconciler) MarkDeleted(videoID, relativePath string) error {
	if err := r.Repo.MarkVideoDeleted(videoID, relativePath, time.Now()); err != nil {
		return fmt.Errorf("failed to mark video %s deleted: %w", videoID, err)
	}
	return nil
}

// MarkFilesDeleted records the on-disk removal of the video's files, so the
// file history never silently drops a file that previously existed.
func (r *Reconciler) MarkFilesDeleted(videoID, relativePath string) error {
	v, err := r.Repo.GetVideo(videoID, relativePath)
	if err != nil {
		return fmt.Errorf("failed to look up video %s: %w", videoID, err)
	}
	if v == nil {
		return nil
	}

	now := time.Now()
	for i := range v.Files {
		v.Files[i].Exists = false
		if v.Files[i].DeletedAt == nil {
			v.Files[i].DeletedAt = &now
		}
	}

	if err := r.Repo.UpsertVideo(v); err != nil {
		return fmt.Errorf("failed to record file removal for video %s: %w", videoID, err)
	}
	return nil
}

// Catalog read surface used by handlers and the HTTP layer.

func (r *Reconciler) GetVideo(videoID, relativePath string) (*domain.TrackedVideo, error) {
	return r.Repo.GetVideo(videoID, relativePath)
}

func (r *Reconciler) GetVideosByID(videoID string) ([]*domain.TrackedVideo, error) {
	return r.Repo.ListVideosByVideoID(videoID)
}

func (r *Reconciler) ListVideos() ([]*domain.TrackedVideo, error) {
	return r.Repo.ListVideos()
}

func (r *Reconciler) GetChannel(channelID string) (*domain.TrackedChannel, error) {
	return r.Repo.GetChannel(channelID)
}

func (r *Reconciler) ListChannels() ([]*domain.TrackedChannel, error) {
	return r.Repo.ListChannels()
}

func (r *Reconciler) DeleteChannel(channelID string) error {
	return r.Repo.DeleteChannel(channelID)
}

func (r *Reconciler) GetPlaylist(playlistID string) (*domain.TrackedPlaylist, error) {
	return r.Repo.GetPlaylist(playlistID)
}

func (r *Reconciler) ListPlaylists() ([]*domain.TrackedPlaylist, error) {
	return r.Repo.ListPlaylists()
}

func (r *Reconciler) DeletePlaylist(playlistID string) error {
	return r.Repo.DeletePlaylist(playlistID)
}
