// Package downloader is the boundary with the external download tool and
// the ingestion path that turns finished downloads into tracker records.
package downloader

import (
	"context"
	"path/filepath"
	"strings"

	"vodvault/internal/constants"
	"vodvault/internal/domain"
)

// Downloader is the external tool (yt-dlp style). Argument construction,
// network retries and progress parsing live behind this interface.
type Downloader interface {
	Download(ctx context.Context, url string, format domain.MediaFormat, destDir string, progress func(line string)) (*Result, error)
}

// Result describes one finished download as observed on disk.
type Result struct {
	VideoID     string
	Title       string
	Channel     string
	ChannelID   string
	ChannelURL  string
	PlaylistID  string
	PlaylistURL string
	Playlist    string
	URL         string
	Format      domain.MediaFormat
	Resolution  string
	Duration    int
	OutputFiles []string // absolute paths produced by the tool
}

// ClassifyFile maps an output file to its tracked kind. Intermediate
// artifacts (fragments, partial downloads) are flagged separately so the
// tracker can tell transient files from final output.
func ClassifyFile(path string) (domain.FileKind, bool) {
	name := strings.ToLower(filepath.Base(path))
	if strings.HasSuffix(name, constants.ExtPart) || strings.HasSuffix(name, ".ytdl") {
		return domain.FileKindIntermediate, true
	}
	if idx := strings.LastIndex(name, ".frag"); idx >= 0 && idx == len(name)-len(".frag") {
		return domain.FileKindIntermediate, true
	}

	switch filepath.Ext(name) {
	case ".mp4", ".mkv", ".webm", ".avi", constants.ExtMP3, constants.ExtM4A, constants.ExtFLAC, ".opus", ".ogg", ".wav":
		return domain.FileKindMedia, false
	case ".jpg", ".jpeg", ".png", ".webp":
		return domain.FileKindThumbnail, false
	case ".srt", ".vtt", ".ass":
		return domain.FileKindSubtitle, false
	default:
		return domain.FileKindOther, false
	}
}
