// Package constants contains application-wide constants to avoid magic numbers and strings.
package constants

import "time"

// Application defaults
const (
	DefaultPort         = "8090"
	DefaultDBPath       = "vodvault.db"
	DefaultDownloadRoot = "downloads"
	DefaultJobListLimit = 100
	ShutdownTimeout     = 5 * time.Second
)

// Stale running-job policies applied at queue startup.
const (
	StaleJobLeave   = "leave"
	StaleJobFail    = "fail"
	StaleJobRequeue = "requeue"
)

// File Extensions
const (
	ExtMP3  = ".mp3"
	ExtFLAC = ".flac"
	ExtM4A  = ".m4a"
	ExtPart = ".part"
)

// Permissions
const (
	DirPermissions  = 0755
	FilePermissions = 0644
)

// Lock file placed next to the database to keep a second instance out.
const LockFileName = "vodvault.lock"
