package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"vodvault/internal/domain"
)

// Channel and playlist rollups share a table shape; the JSON video_ids blob
// is decoded here the same way tracked_videos decodes files.

type channelRow struct {
	domain.TrackedChannel
	VideoIDsJSON string `db:"video_ids"`
}

type playlistRow struct {
	domain.TrackedPlaylist
	VideoIDsJSON string `db:"video_ids"`
}

func decodeIDs(blob, owner string) ([]string, error) {
	ids := []string{}
	if blob != "" {
		if err := json.Unmarshal([]byte(blob), &ids); err != nil {
			return nil, fmt.Errorf("decode video ids for %s: %w", owner, err)
		}
	}
	return ids, nil
}

func encodeIDs(ids []string) (string, error) {
	if ids == nil {
		ids = []string{}
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return "", fmt.Errorf("encode video ids: %w", err)
	}
	return string(data), nil
}

func (db *DB) UpsertChannel(c *domain.TrackedChannel) error {
	idsJSON, err := encodeIDs(c.VideoIDs)
	if err != nil {
		return err
	}

	query := `INSERT INTO tracked_channels (
		channel_id, name, url, relative_path, downloaded_at, last_downloaded_at, video_count, video_ids
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(channel_id) DO UPDATE SET
		name = excluded.name,
		url = excluded.url,
		relative_path = excluded.relative_path,
		last_downloaded_at = excluded.last_downloaded_at,
		video_count = excluded.video_count,
		video_ids = excluded.video_ids`

	_, err = db.Exec(query, c.ChannelID, c.Name, c.URL, c.RelativePath,
		c.DownloadedAt, c.LastDownloadedAt, c.VideoCount, idsJSON)
	return err
}

func (db *DB) GetChannel(channelID string) (*domain.TrackedChannel, error) {
	query := `SELECT channel_id, name, url, relative_path, downloaded_at, last_downloaded_at, video_count, video_ids
		FROM tracked_channels WHERE channel_id = ?`

	row := &channelRow{}
	err := db.Get(row, query, channelID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	c := row.TrackedChannel
	if c.VideoIDs, err = decodeIDs(row.VideoIDsJSON, "channel "+c.ChannelID); err != nil {
		return nil, err
	}
	return &c, nil
}

func (db *DB) GetChannelByURL(url string) (*domain.TrackedChannel, error) {
	query := `SELECT channel_id, name, url, relative_path, downloaded_at, last_downloaded_at, video_count, video_ids
		FROM tracked_channels WHERE url = ?`

	row := &channelRow{}
	err := db.Get(row, query, url)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	c := row.TrackedChannel
	if c.VideoIDs, err = decodeIDs(row.VideoIDsJSON, "channel "+c.ChannelID); err != nil {
		return nil, err
	}
	return &c, nil
}

func (db *DB) ListChannels() ([]*domain.TrackedChannel, error) {
	query := `SELECT channel_id, name, url, relative_path, downloaded_at, last_downloaded_at, video_count, video_ids
		FROM tracked_channels ORDER BY name ASC`

	var rows []channelRow
	if err := db.Select(&rows, query); err != nil {
		return nil, err
	}
	channels := make([]*domain.TrackedChannel, 0, len(rows))
	for i := range rows {
		c := rows[i].TrackedChannel
		ids, err := decodeIDs(rows[i].VideoIDsJSON, "channel "+c.ChannelID)
		if err != nil {
			return nil, err
		}
		c.VideoIDs = ids
		channels = append(channels, &c)
	}
	return channels, nil
}

func (db *DB) DeleteChannel(channelID string) error {
	_, err := db.Exec(`DELETE FROM tracked_channels WHERE channel_id = ?`, channelID)
	return err
}

func (db *DB) UpsertPlaylist(p *domain.TrackedPlaylist) error {
	idsJSON, err := encodeIDs(p.VideoIDs)
	if err != nil {
		return err
	}

	query := `INSERT INTO tracked_playlists (
		playlist_id, name, url, relative_path, downloaded_at, last_downloaded_at, video_count, video_ids
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(playlist_id) DO UPDATE SET
		name = excluded.name,
		url = excluded.url,
		relative_path = excluded.relative_path,
		last_downloaded_at = excluded.last_downloaded_at,
		video_count = excluded.video_count,
		video_ids = excluded.video_ids`

	_, err = db.Exec(query, p.PlaylistID, p.Name, p.URL, p.RelativePath,
		p.DownloadedAt, p.LastDownloadedAt, p.VideoCount, idsJSON)
	return err
}

func (db *DB) GetPlaylist(playlistID string) (*domain.TrackedPlaylist, error) {
	query := `SELECT playlist_id, name, url, relative_path, downloaded_at, last_downloaded_at, video_count, video_ids
		FROM tracked_playlists WHERE playlist_id = ?`

	row := &playlistRow{}
	err := db.Get(row, query, playlistID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p := row.TrackedPlaylist
	if p.VideoIDs, err = decodeIDs(row.VideoIDsJSON, "playlist "+p.PlaylistID); err != nil {
		return nil, err
	}
	return &p, nil
}

func (db *DB) GetPlaylistByURL(url string) (*domain.TrackedPlaylist, error) {
	query := `SELECT playlist_id, name, url, relative_path, downloaded_at, last_downloaded_at, video_count, video_ids
		FROM tracked_playlists WHERE url = ?`

	row := &playlistRow{}
	err := db.Get(row, query, url)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p := row.TrackedPlaylist
	if p.VideoIDs, err = decodeIDs(row.VideoIDsJSON, "playlist "+p.PlaylistID); err != nil {
		return nil, err
	}
	return &p, nil
}

func (db *DB) ListPlaylists() ([]*domain.TrackedPlaylist, error) {
	query := `SELECT playlist_id, name, url, relative_path, downloaded_at, last_downloaded_at, video_count, video_ids
		FROM tracked_playlists ORDER BY name ASC`

	var rows []playlistRow
	if err := db.Select(&rows, query); err != nil {
		return nil, err
	}
	playlists := make([]*domain.TrackedPlaylist, 0, len(rows))
	for i := range rows {
		p := rows[i].TrackedPlaylist
		ids, err := decodeIDs(rows[i].VideoIDsJSON, "playlist "+p.PlaylistID)
		if err != nil {
			return nil, err
		}
		p.VideoIDs = ids
		playlists = append(playlists, &p)
	}
	return playlists, nil
}

func (db *DB) DeletePlaylist(playlistID string) error {
	_, err := db.Exec(`DELETE FROM tracked_playlists WHERE playlist_id = ?`, playlistID)
	return err
}
