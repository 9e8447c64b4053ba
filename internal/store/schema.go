package store

const Schema = `
CREATE TABLE IF NOT EXISTS jobs (
	id TEXT PRIMARY KEY,
	type TEXT NOT NULL,
	status TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	started_at DATETIME,
	completed_at DATETIME,
	error TEXT,
	data TEXT,
	result TEXT
);

CREATE INDEX IF NOT EXISTS idx_jobs_status_created ON jobs(status, created_at);

CREATE TABLE IF NOT EXISTS collections (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	root_path TEXT NOT NULL UNIQUE,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS tracked_videos (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	video_id TEXT NOT NULL,
	title TEXT NOT NULL DEFAULT '',
	channel TEXT NOT NULL DEFAULT '',
	channel_id TEXT,
	url TEXT NOT NULL DEFAULT '',
	relative_path TEXT NOT NULL,
	full_path TEXT NOT NULL,
	downloaded_at DATETIME NOT NULL,
	format TEXT NOT NULL DEFAULT 'video',
	resolution TEXT,
	file_size INTEGER,
	duration INTEGER,
	files TEXT NOT NULL DEFAULT '[]',
	deleted BOOLEAN NOT NULL DEFAULT 0,
	deleted_at DATETIME,

	UNIQUE(video_id, relative_path)
);

CREATE INDEX IF NOT EXISTS idx_videos_full_path ON tracked_videos(full_path);
CREATE INDEX IF NOT EXISTS idx_videos_video_id ON tracked_videos(video_id);
CREATE INDEX IF NOT EXISTS idx_videos_channel_id ON tracked_videos(channel_id);

CREATE TABLE IF NOT EXISTS tracked_channels (
	channel_id TEXT PRIMARY KEY,
	name TEXT NOT NULL DEFAULT '',
	url TEXT NOT NULL DEFAULT '',
	relative_path TEXT NOT NULL DEFAULT '',
	downloaded_at DATETIME NOT NULL,
	last_downloaded_at DATETIME,
	video_count INTEGER NOT NULL DEFAULT 0,
	video_ids TEXT NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS tracked_playlists (
	playlist_id TEXT PRIMARY KEY,
	name TEXT NOT NULL DEFAULT '',
	url TEXT NOT NULL DEFAULT '',
	relative_path TEXT NOT NULL DEFAULT '',
	downloaded_at DATETIME NOT NULL,
	last_downloaded_at DATETIME,
	video_count INTEGER NOT NULL DEFAULT 0,
	video_ids TEXT NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS schedules (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	url TEXT NOT NULL,
	cron TEXT NOT NULL,
	collection_id TEXT,
	enabled BOOLEAN NOT NULL DEFAULT 1,
	last_run_at DATETIME,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_schedules_collection ON schedules(collection_id);

CREATE TABLE IF NOT EXISTS download_logs (
	id TEXT PRIMARY KEY,
	url TEXT NOT NULL DEFAULT '',
	video_id TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	log TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_downloads_video_id ON download_logs(video_id);
`
