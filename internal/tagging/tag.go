// Package tagging embeds metadata into audio-format downloads after the
// external downloader finishes. Video containers are left untouched.
package tagging

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bogem/id3v2/v2"
	"github.com/go-flac/flacpicture"
	"github.com/go-flac/flacvorbis"
	flac "github.com/go-flac/go-flac"

	"vodvault/internal/constants"
	"vodvault/internal/domain"
)

// TagFile writes title/channel metadata (and optional thumbnail artwork)
// into the audio file at path.
func TagFile(path string, video *domain.TrackedVideo, artwork []byte) error {
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case constants.ExtMP3:
		return tagMP3(path, video, artwork)
	case constants.ExtFLAC:
		return tagFLAC(path, video, artwork)
	default:
		return fmt.Errorf("unsupported audio format: %s", ext)
	}
}

func tagMP3(path string, video *domain.TrackedVideo, artwork []byte) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("failed to open mp3 for tagging: %w", err)
	}
	defer tag.Close()

	tag.SetTitle(video.Title)
	tag.SetArtist(video.Channel)
	tag.SetAlbum(video.Channel)

	if len(artwork) > 0 {
		tag.AddAttachedPicture(id3v2.PictureFrame{
			Encoding:    id3v2.EncodingUTF8,
			MimeType:    "image/jpeg",
			PictureType: id3v2.PTFrontCover,
			Picture:     artwork,
		})
	}

	if err := tag.Save(); err != nil {
		return fmt.Errorf("failed to save mp3 tags: %w", err)
	}
	return nil
}

func tagFLAC(path string, video *domain.TrackedVideo, artwork []byte) error {
	f, err := flac.ParseFile(path)
	if err != nil {
		return fmt.Errorf("failed to parse flac: %w", err)
	}

	cmt := flacvorbis.New()
	if err := cmt.Add(flacvorbis.FIELD_TITLE, video.Title); err != nil {
		return fmt.Errorf("failed to add title comment: %w", err)
	}
	if video.Channel != "" {
		if err := cmt.Add(flacvorbis.FIELD_ARTIST, video.Channel); err != nil {
			return fmt.Errorf("failed to add artist comment: %w", err)
		}
	}

	block := cmt.Marshal()
	f.Meta = replaceBlock(f.Meta, flac.VorbisComment, &block)

	if len(artwork) > 0 {
		pic, err := flacpicture.NewFromImageData(flacpicture.PictureTypeFrontCover, "cover", artwork, "image/jpeg")
		if err != nil {
			return fmt.Errorf("failed to build flac picture: %w", err)
		}
		picBlock := pic.Marshal()
		f.Meta = replaceBlock(f.Meta, flac.Picture, &picBlock)
	}

	if err := f.Save(path); err != nil {
		return fmt.Errorf("failed to save flac tags: %w", err)
	}
	return nil
}

// replaceBlock swaps the first metadata block of the given type, or appends
// when none exists.
func replaceBlock(meta []*flac.MetaDataBlock, blockType flac.BlockType, block *flac.MetaDataBlock) []*flac.MetaDataBlock {
	for i, b := range meta {
		if b.Type == blockType {
			meta[i] = block
			return meta
		}
	}
	return append(meta, block)
}
