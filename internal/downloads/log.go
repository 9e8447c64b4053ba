// Package downloads is the per-download status and append-only log sink.
package downloads

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"vodvault/internal/domain"
	"vodvault/internal/logger"
	"vodvault/internal/store"
)

type Log struct {
	Repo   *store.DB
	Logger *logger.Logger
}

func NewLog(repo *store.DB, log *logger.Logger) *Log {
	return &Log{Repo: repo, Logger: log.WithComponent("downloads")}
}

// Begin opens a new download record in running state.
func (l *Log) Begin(url, videoID string) (*domain.Download, error) {
	now := time.Now()
	d := &domain.Download{
		ID:        uuid.New().String(),
		URL:       url,
		VideoID:   videoID,
		Status:    domain.DownloadStatusRunning,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := l.Repo.CreateDownload(d); err != nil {
		return nil, fmt.Errorf("failed to create download record: %w", err)
	}
	return d, nil
}

// Append adds one line to the download's log. Lines are never rewritten.
func (l *Log) Append(id, line string) error {
	if err := l.Repo.AppendDownloadLog(id, line, time.Now()); err != nil {
		return fmt.Errorf("failed to append download log %s: %w", id, err)
	}
	return nil
}

// SetVideoID records the source video id once the downloader reports it.
func (l *Log) SetVideoID(id, videoID string) error {
	return l.Repo.SetDownloadVideoID(id, videoID, time.Now())
}

func (l *Log) Complete(id string) error {
	return l.Repo.SetDownloadStatus(id, domain.DownloadStatusCompleted, time.Now())
}

func (l *Log) Fail(id, msg string) error {
	if msg != "" {
		if err := l.Append(id, "ERROR: "+msg); err != nil {
			return err
		}
	}
	return l.Repo.SetDownloadStatus(id, domain.DownloadStatusFailed, time.Now())
}

func (l *Log) Get(id string) (*domain.Download, error) {
	return l.Repo.GetDownload(id)
}

// SearchByVideoID finds downloads whose source video id contains the given
// substring, newest first.
func (l *Log) SearchByVideoID(substr string) ([]*domain.Download, error) {
	return l.Repo.SearchDownloadsByVideoID(substr)
}

func (l *Log) List(limit int) ([]*domain.Download, error) {
	return l.Repo.ListDownloads(limit)
}
