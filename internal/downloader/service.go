package downloader

import (
	"context"
	"fmt"
	"sync"

	"vodvault/internal/domain"
	"vodvault/internal/downloads"
	"vodvault/internal/logger"
)

// Service runs downloads in the background and feeds finished ones to the
// Ingestor. Every fetch is logged line by line on its download record, so
// progress is visible through the downloads API while the tool runs.
type Service struct {
	Downloader   Downloader
	Ingestor     *Ingestor
	Downloads    *downloads.Log
	Logger       *logger.Logger
	DownloadRoot string

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewService(dl Downloader, in *Ingestor, log *downloads.Log, root string, lg *logger.Logger) *Service {
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		Downloader:   dl,
		Ingestor:     in,
		Downloads:    log,
		Logger:       lg.WithComponent("fetch"),
		DownloadRoot: root,
		ctx:          ctx,
		cancel:       cancel,
	}
}

// Fetch opens a download record and starts the download in the background.
// The record is returned immediately; its status moves to completed or
// failed when the fetch finishes.
func (s *Service) Fetch(url string, format domain.MediaFormat) (*domain.Download, error) {
	if format == "" {
		format = domain.FormatVideo
	}

	record, err := s.Downloads.Begin(url, "")
	if err != nil {
		return nil, err
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(record.ID, url, format)
	}()

	return record, nil
}

// Stop cancels in-flight downloads and waits for their records to settle.
func (s *Service) Stop() {
	s.cancel()
	s.wg.Wait()
}

func (s *Service) run(id, url string, format domain.MediaFormat) {
	defer func() {
		if r := recover(); r != nil {
			s.Logger.Error("Panic during fetch", "download_id", id, "panic", r)
			_ = s.Downloads.Fail(id, fmt.Sprintf("panic: %v", r))
		}
	}()

	s.Logger.Info("Starting fetch", "download_id", id, "url", url, "format", format)

	progress := func(line string) {
		_ = s.Downloads.Append(id, line)
	}
	res, err := s.Downloader.Download(s.ctx, url, format, s.DownloadRoot, progress)
	if err != nil {
		s.Logger.Error("Download failed", "download_id", id, "error", err)
		_ = s.Downloads.Fail(id, err.Error())
		return
	}

	if _, err := s.Ingestor.Ingest(id, res); err != nil {
		s.Logger.Error("Ingest failed", "download_id", id, "error", err)
		_ = s.Downloads.Fail(id, err.Error())
		return
	}

	if err := s.Downloads.Complete(id); err != nil {
		s.Logger.Error("Failed to mark download completed", "download_id", id, "error", err)
	}
}
