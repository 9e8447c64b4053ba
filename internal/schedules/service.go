// Package schedules is the recurring-download registry. The collection
// engine consumes it through the ScheduleRewriter interface when a merge
// changes collection ownership.
package schedules

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"vodvault/internal/domain"
	"vodvault/internal/logger"
	"vodvault/internal/store"
)

type Service struct {
	Repo   *store.DB
	Logger *logger.Logger
}

func NewService(repo *store.DB, log *logger.Logger) *Service {
	return &Service{Repo: repo, Logger: log.WithComponent("schedules")}
}

func (s *Service) Create(name, url, cron string, collectionID *string) (*domain.Schedule, error) {
	now := time.Now()
	sched := &domain.Schedule{
		ID:           uuid.New().String(),
		Name:         name,
		URL:          url,
		Cron:         cron,
		CollectionID: collectionID,
		Enabled:      true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Repo.CreateSchedule(sched); err != nil {
		return nil, fmt.Errorf("failed to create schedule %q: %w", name, err)
	}
	return sched, nil
}

func (s *Service) Get(id string) (*domain.Schedule, error) {
	return s.Repo.GetSchedule(id)
}

func (s *Service) List() ([]*domain.Schedule, error) {
	return s.Repo.ListSchedules()
}

func (s *Service) Update(sched *domain.Schedule) error {
	sched.UpdatedAt = time.Now()
	if err := s.Repo.UpdateSchedule(sched); err != nil {
		return fmt.Errorf("failed to update schedule %s: %w", sched.ID, err)
	}
	return nil
}

func (s *Service) Delete(id string) error {
	if err := s.Repo.DeleteSchedule(id); err != nil {
		return fmt.Errorf("failed to delete schedule %s: %w", id, err)
	}
	return nil
}

// MarkRan records a schedule firing. The wall-clock timer that decides when
// a schedule is due lives outside this service.
func (s *Service) MarkRan(id string, at time.Time) error {
	sched, err := s.Repo.GetSchedule(id)
	if err != nil || sched == nil {
		if err == nil {
			err = fmt.Errorf("schedule %s not found", id)
		}
		return err
	}
	sched.LastRunAt = &at
	return s.Update(sched)
}

// UpdateCollectionReferences repoints schedules from one collection to
// another. Invoked only during collection merge.
func (s *Service) UpdateCollectionReferences(oldCollectionID, newCollectionID string) (int64, error) {
	count, err := s.Repo.UpdateScheduleCollectionRefs(oldCollectionID, newCollectionID, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to rewrite schedule references: %w", err)
	}
	if count > 0 {
		s.Logger.Info("Rewrote schedule collection references",
			"old_collection_id", oldCollectionID, "new_collection_id", newCollectionID, "count", count)
	}
	return count, nil
}
