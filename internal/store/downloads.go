package store

import (
	"database/sql"
	"time"

	"vodvault/internal/domain"
)

func (db *DB) CreateDownload(d *domain.Download) error {
	query := `INSERT INTO download_logs (id, url, video_id, status, log, created_at, updated_at)
		VALUES (:id, :url, :video_id, :status, :log, :created_at, :updated_at)`

	_, err := db.NamedExec(query, d)
	return err
}

func (db *DB) GetDownload(id string) (*domain.Download, error) {
	query := `SELECT id, url, video_id, status, log, created_at, updated_at
		FROM download_logs WHERE id = ?`

	d := &domain.Download{}
	err := db.Get(d, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

// AppendDownloadLog appends one line to the download's log. The log column
// is append-only; lines are never rewritten.
func (db *DB) AppendDownloadLog(id, line string, at time.Time) error {
	query := `UPDATE download_logs SET log = log || ? || char(10), updated_at = ? WHERE id = ?`
	_, err := db.Exec(query, line, at, id)
	return err
}

func (db *DB) SetDownloadStatus(id string, status domain.DownloadStatus, at time.Time) error {
	query := `UPDATE download_logs SET status = ?, updated_at = ? WHERE id = ?`
	_, err := db.Exec(query, status, at, id)
	return err
}

func (db *DB) SetDownloadVideoID(id, videoID string, at time.Time) error {
	query := `UPDATE download_logs SET video_id = ?, updated_at = ? WHERE id = ?`
	_, err := db.Exec(query, videoID, at, id)
	return err
}

// SearchDownloadsByVideoID matches downloads whose video id contains the
// given substring, newest first.
func (db *DB) SearchDownloadsByVideoID(substr string) ([]*domain.Download, error) {
	query := `SELECT id, url, video_id, status, log, created_at, updated_at
		FROM download_logs WHERE video_id LIKE ? ESCAPE '\' ORDER BY created_at DESC`

	var downloads []*domain.Download
	err := db.Select(&downloads, query, "%"+escapeLike(substr)+"%")
	return downloads, err
}

func (db *DB) ListDownloads(limit int) ([]*domain.Download, error) {
	query := `SELECT id, url, video_id, status, log, created_at, updated_at
		FROM download_logs ORDER BY created_at DESC LIMIT ?`

	var downloads []*domain.Download
	err := db.Select(&downloads, query, limit)
	return downloads, err
}
