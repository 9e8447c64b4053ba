package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"vodvault/internal/domain"
)

// videoRow is the denormalized table shape: scalar columns plus the files
// list as a JSON blob.
type videoRow struct {
	domain.TrackedVideo
	FilesJSON string `db:"files"`
}

func (r *videoRow) toVideo() (*domain.TrackedVideo, error) {
	v := r.TrackedVideo
	v.Files = []domain.TrackedFile{}
	if r.FilesJSON != "" {
		if err := json.Unmarshal([]byte(r.FilesJSON), &v.Files); err != nil {
			return nil, fmt.Errorf("decode files for video %s: %w", v.VideoID, err)
		}
	}
	return &v, nil
}

func encodeFiles(files []domain.TrackedFile) (string, error) {
	if files == nil {
		files = []domain.TrackedFile{}
	}
	data, err := json.Marshal(files)
	if err != nil {
		return "", fmt.Errorf("encode files: %w", err)
	}
	return string(data), nil
}

// UpsertVideo inserts or fully replaces the row keyed by
// (video_id, relative_path). Merge rules live in the tracker, not here.
func (db *DB) UpsertVideo(v *domain.TrackedVideo) error {
	filesJSON, err := encodeFiles(v.Files)
	if err != nil {
		return err
	}

	query := `INSERT INTO tracked_videos (
		video_id, title, channel, channel_id, url, relative_path, full_path,
		downloaded_at, format, resolution, file_size, duration, files, deleted, deleted_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(video_id, relative_path) DO UPDATE SET
		title = excluded.title,
		channel = excluded.channel,
		channel_id = excluded.channel_id,
		url = excluded.url,
		full_path = excluded.full_path,
		downloaded_at = excluded.downloaded_at,
		format = excluded.format,
		resolution = excluded.resolution,
		file_size = excluded.file_size,
		duration = excluded.duration,
		files = excluded.files,
		deleted = excluded.deleted,
		deleted_at = excluded.deleted_at`

	_, err = db.Exec(query,
		v.VideoID, v.Title, v.Channel, v.ChannelID, v.URL, v.RelativePath, v.FullPath,
		v.DownloadedAt, v.Format, v.Resolution, v.FileSize, v.Duration, filesJSON, v.Deleted, v.DeletedAt)
	return err
}

func (db *DB) GetVideo(videoID, relativePath string) (*domain.TrackedVideo, error) {
	query := `SELECT video_id, title, channel, channel_id, url, relative_path, full_path,
		downloaded_at, format, resolution, file_size, duration, files, deleted, deleted_at
		FROM tracked_videos WHERE video_id = ? AND relative_path = ?`

	row := &videoRow{}
	err := db.Get(row, query, videoID, relativePath)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row.toVideo()
}

func (db *DB) ListVideos() ([]*domain.TrackedVideo, error) {
	query := `SELECT video_id, title, channel, channel_id, url, relative_path, full_path,
		downloaded_at, format, resolution, file_size, duration, files, deleted, deleted_at
		FROM tracked_videos ORDER BY downloaded_at DESC`

	return db.selectVideos(query)
}

func (db *DB) ListVideosByVideoID(videoID string) ([]*domain.TrackedVideo, error) {
	query := `SELECT video_id, title, channel, channel_id, url, relative_path, full_path,
		downloaded_at, format, resolution, file_size, duration, files, deleted, deleted_at
		FROM tracked_videos WHERE video_id = ? ORDER BY relative_path ASC`

	return db.selectVideos(query, videoID)
}

func (db *DB) ListVideosByChannelID(channelID string) ([]*domain.TrackedVideo, error) {
	query := `SELECT video_id, title, channel, channel_id, url, relative_path, full_path,
		downloaded_at, format, resolution, file_size, duration, files, deleted, deleted_at
		FROM tracked_videos WHERE channel_id = ? ORDER BY relative_path ASC`

	return db.selectVideos(query, channelID)
}

// ListVideosUnderPath returns videos whose full_path sits under root. The
// match is prefix-exact at a path-separator boundary, so /downloads/Foo does
// not capture /downloads/FooBar.
func (db *DB) ListVideosUnderPath(root string) ([]*domain.TrackedVideo, error) {
	query := `SELECT video_id, title, channel, channel_id, url, relative_path, full_path,
		downloaded_at, format, resolution, file_size, duration, files, deleted, deleted_at
		FROM tracked_videos WHERE full_path = ? OR full_path LIKE ? ESCAPE '\'
		ORDER BY full_path ASC`

	return db.selectVideos(query, root, escapeLike(root)+"/%")
}

// DeleteVideosUnderPath removes rows under root (prefix-exact) and returns
// the number removed.
func (db *DB) DeleteVideosUnderPath(root string) (int64, error) {
	query := `DELETE FROM tracked_videos WHERE full_path = ? OR full_path LIKE ? ESCAPE '\'`
	res, err := db.Exec(query, root, escapeLike(root)+"/%")
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// UpdateVideoPaths rewrites the location columns of the row currently keyed
// by (videoID, oldRelativePath).
func (db *DB) UpdateVideoPaths(videoID, oldRelativePath, newRelativePath, newFullPath string, files []domain.TrackedFile) error {
	filesJSON, err := encodeFiles(files)
	if err != nil {
		return err
	}

	query := `UPDATE tracked_videos SET relative_path = ?, full_path = ?, files = ?
		WHERE video_id = ? AND relative_path = ?`
	_, err = db.Exec(query, newRelativePath, newFullPath, filesJSON, videoID, oldRelativePath)
	return err
}

// DeleteVideo removes a single row by its full key.
func (db *DB) DeleteVideo(videoID, relativePath string) error {
	_, err := db.Exec(`DELETE FROM tracked_videos WHERE video_id = ? AND relative_path = ?`,
		videoID, relativePath)
	return err
}

// MarkVideoDeleted flags the row as deleted. Idempotent: a prior deleted_at
// is preserved.
func (db *DB) MarkVideoDeleted(videoID, relativePath string, deletedAt time.Time) error {
	query := `UPDATE tracked_videos SET deleted = 1, deleted_at = COALESCE(deleted_at, ?)
		WHERE video_id = ? AND relative_path = ?`
	_, err := db.Exec(query, deletedAt, videoID, relativePath)
	return err
}

func (db *DB) selectVideos(query string, args ...interface{}) ([]*domain.TrackedVideo, error) {
	var rows []videoRow
	if err := db.Select(&rows, query, args...); err != nil {
		return nil, err
	}
	videos := make([]*domain.TrackedVideo, 0, len(rows))
	for i := range rows {
		v, err := rows[i].toVideo()
		if err != nil {
			return nil, err
		}
		videos = append(videos, v)
	}
	return videos, nil
}

// escapeLike escapes LIKE wildcards in a literal path prefix.
func escapeLike(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '%', '_', '\\':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}
