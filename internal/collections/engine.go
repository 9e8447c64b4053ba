// Package collections owns the collection registry and implements
// move/merge/delete as compound operations across the filesystem, the video
// tracker and the schedule registry.
package collections

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"vodvault/internal/domain"
	"vodvault/internal/filesystem"
	"vodvault/internal/logger"
	"vodvault/internal/store"
)

var (
	// ErrSameCollection is returned when a merge names the same collection
	// as both source and target. This is a caller bug, not a probe.
	ErrSameCollection = errors.New("cannot merge a collection into itself")

	ErrCollectionNotFound = errors.New("collection not found")
)

// TrackerUpdater is the tracker surface the engine needs to keep video
// paths consistent with collection mutations.
type TrackerUpdater interface {
	DeleteVideosByPath(rootPath string) (int64, error)
	UpdatePathsForMove(oldRoot, newRoot string) (int64, error)
}

// ScheduleRewriter repoints schedule collection references during merge.
type ScheduleRewriter interface {
	UpdateCollectionReferences(oldCollectionID, newCollectionID string) (int64, error)
}

// FS is the filesystem capability consumed by the engine. Tests substitute
// failing fakes; the real implementation delegates to internal/filesystem.
type FS interface {
	Exists(path string) bool
	EnsureDir(path string) error
	CopyTree(src, dst string) error
	RemoveTree(path string) error
}

// OSFS is the production FS backed by the local filesystem.
type OSFS struct{}

func (OSFS) Exists(path string) bool        { return filesystem.Exists(path) }
func (OSFS) EnsureDir(path string) error    { return filesystem.EnsureDir(path) }
func (OSFS) CopyTree(src, dst string) error { return filesystem.CopyTree(src, dst) }
func (OSFS) RemoveTree(path string) error   { return filesystem.RemoveTree(path) }

// DeleteResult reports a collection deletion. Directory removal is
// best-effort: a filesystem failure is surfaced here instead of aborting,
// and the registry row is removed regardless.
type DeleteResult struct {
	DeletedVideos int64  `json:"deleted_videos"`
	FilesRemoved  bool   `json:"files_removed"`
	FileError     string `json:"file_error,omitempty"`
}

// MoveResult reports a collection move.
type MoveResult struct {
	Collection    *domain.Collection `json:"collection"`
	Moved         bool               `json:"moved"`
	UpdatedVideos int64              `json:"updated_videos"`
}

// MergeResult reports a collection merge.
type MergeResult struct {
	Target           *domain.Collection `json:"target"`
	UpdatedVideos    int64              `json:"updated_videos"`
	UpdatedSchedules int64              `json:"updated_schedules"`
}

type Engine struct {
	Repo      *store.DB
	FS        FS
	Tracker   TrackerUpdater
	Schedules ScheduleRewriter
	Logger    *logger.Logger
}

func NewEngine(repo *store.DB, fs FS, tracker TrackerUpdater, schedules ScheduleRewriter, log *logger.Logger) *Engine {
	return &Engine{
		Repo:      repo,
		FS:        fs,
		Tracker:   tracker,
		Schedules: schedules,
		Logger:    log.WithComponent("collections"),
	}
}

// Create inserts a registry row. Directory creation is the caller's
// responsibility.
func (e *Engine) Create(name, rootPath string) (*domain.Collection, error) {
	now := time.Now()
	c := &domain.Collection{
		ID:        uuid.New().String(),
		Name:      name,
		RootPath:  rootPath,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := e.Repo.CreateCollection(c); err != nil {
		return nil, fmt.Errorf("failed to create collection %q: %w", name, err)
	}
	e.Logger.Info("Created collection", "collection_id", c.ID, "name", name, "root_path", rootPath)
	return c, nil
}

func (e *Engine) Get(id string) (*domain.Collection, error) {
	return e.Repo.GetCollection(id)
}

func (e *Engine) List() ([]*domain.Collection, error) {
	return e.Repo.ListCollections()
}

// Rename is the direct metadata edit used by the HTTP layer; it never
// touches the filesystem or the tracker.
func (e *Engine) Rename(id, name string) (*domain.Collection, error) {
	c, err := e.mustGet(id)
	if err != nil {
		return nil, err
	}
	c.Name = name
	c.UpdatedAt = time.Now()
	if err := e.Repo.UpdateCollection(c.ID, c.Name, c.RootPath, c.UpdatedAt); err != nil {
		return nil, fmt.Errorf("failed to rename collection %s: %w", id, err)
	}
	return c, nil
}

// Delete removes a collection: tracked videos under the pre-deletion root
// first, then the directory tree, then the registry row. Directory removal
// failure does not roll anything back; it is reported on the result so the
// registry can drift ahead of the filesystem rather than wedge.
func (e *Engine) Delete(id string) (*DeleteResult, error) {
	c, err := e.mustGet(id)
	if err != nil {
		return nil, err
	}

	deleted, err := e.Tracker.DeleteVideosByPath(c.RootPath)
	if err != nil {
		return nil, fmt.Errorf("failed to remove tracked videos for collection %s: %w", id, err)
	}

	result := &DeleteResult{DeletedVideos: deleted, FilesRemoved: true}
	if err := e.FS.RemoveTree(c.RootPath); err != nil {
		e.Logger.Warn("Failed to remove collection directory", "collection_id", id, "root_path", c.RootPath, "error", err)
		result.FilesRemoved = false
		result.FileError = err.Error()
	}

	if err := e.Repo.DeleteCollection(id); err != nil {
		return result, fmt.Errorf("failed to delete collection row %s: %w", id, err)
	}

	e.Logger.Info("Deleted collection", "collection_id", id, "deleted_videos", deleted, "files_removed", result.FilesRemoved)
	return result, nil
}

// Move relocates and/or renames a collection. Unlike Delete it is fail-stop
// on filesystem errors: nothing in the registry or tracker changes unless
// the copy and removal both succeed. Copy-then-remove is used instead of a
// rename because source and target may sit on different filesystems.
func (e *Engine) Move(id, newName, newRootPath string) (*MoveResult, error) {
	c, err := e.mustGet(id)
	if err != nil {
		return nil, err
	}

	name := c.Name
	if newName != "" {
		name = newName
	}
	rootPath := c.RootPath
	if newRootPath != "" {
		rootPath = newRootPath
	}

	if name == c.Name && rootPath == c.RootPath {
		return &MoveResult{Collection: c, Moved: false}, nil
	}

	result := &MoveResult{Moved: rootPath != c.RootPath}
	if rootPath != c.RootPath {
		if !e.FS.Exists(rootPath) {
			if err := e.FS.EnsureDir(rootPath); err != nil {
				return nil, fmt.Errorf("failed to create target directory %s: %w", rootPath, err)
			}
		}
		if err := e.FS.CopyTree(c.RootPath, rootPath); err != nil {
			return nil, fmt.Errorf("failed to copy collection tree to %s: %w", rootPath, err)
		}
		if err := e.FS.RemoveTree(c.RootPath); err != nil {
			return nil, fmt.Errorf("failed to remove old collection tree %s: %w", c.RootPath, err)
		}

		updated, err := e.Tracker.UpdatePathsForMove(c.RootPath, rootPath)
		if err != nil {
			return nil, fmt.Errorf("failed to rewrite tracked paths for collection %s: %w", id, err)
		}
		result.UpdatedVideos = updated
	}

	oldRoot := c.RootPath
	c.Name = name
	c.RootPath = rootPath
	c.UpdatedAt = time.Now()
	if err := e.Repo.UpdateCollection(c.ID, c.Name, c.RootPath, c.UpdatedAt); err != nil {
		return nil, fmt.Errorf("failed to update collection row %s: %w", id, err)
	}

	result.Collection = c
	e.Logger.Info("Moved collection", "collection_id", id, "old_root", oldRoot, "new_root", rootPath, "updated_videos", result.UpdatedVideos)
	return result, nil
}

// Merge relocates the source collection's contents into the target, rewrites
// tracked video paths and schedule references, and retires the source row.
// The videos survive under their new owner, so no per-video deletion runs.
func (e *Engine) Merge(sourceID, targetID string) (*MergeResult, error) {
	if sourceID == targetID {
		return nil, ErrSameCollection
	}

	source, err := e.mustGet(sourceID)
	if err != nil {
		return nil, err
	}
	target, err := e.mustGet(targetID)
	if err != nil {
		return nil, err
	}

	if err := e.FS.CopyTree(source.RootPath, target.RootPath); err != nil {
		return nil, fmt.Errorf("failed to copy %s into %s: %w", source.RootPath, target.RootPath, err)
	}
	if err := e.FS.RemoveTree(source.RootPath); err != nil {
		return nil, fmt.Errorf("failed to remove merged source tree %s: %w", source.RootPath, err)
	}

	updatedVideos, err := e.Tracker.UpdatePathsForMove(source.RootPath, target.RootPath)
	if err != nil {
		return nil, fmt.Errorf("failed to rewrite tracked paths for merge %s -> %s: %w", sourceID, targetID, err)
	}

	updatedSchedules, err := e.Schedules.UpdateCollectionReferences(sourceID, targetID)
	if err != nil {
		return nil, fmt.Errorf("failed to rewrite schedule references %s -> %s: %w", sourceID, targetID, err)
	}

	if err := e.Repo.DeleteCollection(sourceID); err != nil {
		return nil, fmt.Errorf("failed to retire merged collection %s: %w", sourceID, err)
	}

	e.Logger.Info("Merged collection", "source_id", sourceID, "target_id", targetID,
		"updated_videos", updatedVideos, "updated_schedules", updatedSchedules)
	return &MergeResult{Target: target, UpdatedVideos: updatedVideos, UpdatedSchedules: updatedSchedules}, nil
}

func (e *Engine) mustGet(id string) (*domain.Collection, error) {
	c, err := e.Repo.GetCollection(id)
	if err != nil {
		return nil, fmt.Errorf("failed to look up collection %s: %w", id, err)
	}
	if c == nil {
		return nil, fmt.Errorf("%w: %s", ErrCollectionNotFound, id)
	}
	return c, nil
}
