package downloader

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"vodvault/internal/domain"
	"vodvault/internal/filesystem"
	"vodvault/internal/logger"
)

// YTDLP shells out to the yt-dlp binary on PATH. Metadata is fetched in a
// separate -J pass so the output directory can be laid out before the
// download starts.
type YTDLP struct {
	Logger *logger.Logger
}

func NewYTDLP(log *logger.Logger) *YTDLP {
	return &YTDLP{Logger: log.WithComponent("ytdlp")}
}

// CheckBinary reports whether yt-dlp is on PATH.
func CheckBinary() error {
	if _, err := exec.LookPath("yt-dlp"); err != nil {
		return fmt.Errorf("missing dependency: yt-dlp is not installed or not on PATH")
	}
	return nil
}

type ytdlpMetadata struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Channel    string  `json:"channel"`
	ChannelID  string  `json:"channel_id"`
	ChannelURL string  `json:"channel_url"`
	Uploader   string  `json:"uploader"`
	WebpageURL string  `json:"webpage_url"`
	PlaylistID string  `json:"playlist_id"`
	Playlist   string  `json:"playlist_title"`
	Duration   float64 `json:"duration"`
	Resolution string  `json:"resolution"`
}

func (y *YTDLP) Download(ctx context.Context, url string, format domain.MediaFormat, destDir string, progress func(line string)) (*Result, error) {
	meta, err := y.fetchMetadata(ctx, url)
	if err != nil {
		return nil, err
	}
	if meta.ID == "" {
		return nil, fmt.Errorf("yt-dlp reported no video id for %s", url)
	}

	channel := meta.Channel
	if channel == "" {
		channel = meta.Uploader
	}
	if channel == "" {
		channel = "Unknown"
	}

	// Each video gets its own directory so the finished output can be
	// collected by listing it.
	outDir := filepath.Join(destDir, filesystem.Sanitize(channel), meta.ID)
	if err := filesystem.EnsureDir(outDir); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	args := []string{
		"--no-playlist",
		"--newline",
		"--restrict-filenames",
		"--write-thumbnail",
		"-P", outDir,
		"-o", "%(title).200B.%(ext)s",
	}
	if format == domain.FormatAudio {
		args = append(args, "-x", "--audio-format", "mp3")
	} else {
		args = append(args, "-f", "bv*+ba/b")
	}
	args = append(args, url)

	if err := y.run(ctx, args, progress); err != nil {
		return nil, err
	}

	outputs, err := listFiles(outDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read output directory: %w", err)
	}

	res := &Result{
		VideoID:     meta.ID,
		Title:       meta.Title,
		Channel:     channel,
		ChannelID:   meta.ChannelID,
		ChannelURL:  meta.ChannelURL,
		PlaylistID:  meta.PlaylistID,
		Playlist:    meta.Playlist,
		URL:         meta.WebpageURL,
		Format:      format,
		Duration:    int(meta.Duration),
		OutputFiles: outputs,
	}
	if res.URL == "" {
		res.URL = url
	}
	if format != domain.FormatAudio {
		res.Resolution = meta.Resolution
	}
	return res, nil
}

func (y *YTDLP) fetchMetadata(ctx context.Context, url string) (*ytdlpMetadata, error) {
	cmd := exec.CommandContext(ctx, "yt-dlp", "-J", "--no-playlist", url)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("yt-dlp metadata fetch failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	var meta ytdlpMetadata
	if err := json.Unmarshal(stdout.Bytes(), &meta); err != nil {
		return nil, fmt.Errorf("failed to parse yt-dlp metadata: %w", err)
	}
	return &meta, nil
}

// run streams stdout lines to the progress callback; stderr is kept for the
// error message.
func (y *YTDLP) run(ctx context.Context, args []string, progress func(line string)) error {
	cmd := exec.CommandContext(ctx, "yt-dlp", args...)

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to set up stdout pipe: %w", err)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start yt-dlp: %w", err)
	}

	scanner := bufio.NewScanner(stdoutPipe)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		y.Logger.Debug("yt-dlp output", "line", line)
		if progress != nil {
			progress(line)
		}
	}

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("yt-dlp failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

func listFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	return files, nil
}
