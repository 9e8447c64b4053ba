package store

import (
	"database/sql"
	"time"

	"vodvault/internal/domain"
)

func (db *DB) CreateSchedule(s *domain.Schedule) error {
	query := `INSERT INTO schedules (id, name, url, cron, collection_id, enabled, last_run_at, created_at, updated_at)
		VALUES (:id, :name, :url, :cron, :collection_id, :enabled, :last_run_at, :created_at, :updated_at)`

	_, err := db.NamedExec(query, s)
	return err
}

func (db *DB) GetSchedule(id string) (*domain.Schedule, error) {
	query := `SELECT id, name, url, cron, collection_id, enabled, last_run_at, created_at, updated_at
		FROM schedules WHERE id = ?`

	s := &domain.Schedule{}
	err := db.Get(s, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (db *DB) ListSchedules() ([]*domain.Schedule, error) {
	query := `SELECT id, name, url, cron, collection_id, enabled, last_run_at, created_at, updated_at
		FROM schedules ORDER BY name ASC`

	var schedules []*domain.Schedule
	err := db.Select(&schedules, query)
	return schedules, err
}

func (db *DB) UpdateSchedule(s *domain.Schedule) error {
	query := `UPDATE schedules SET name = :name, url = :url, cron = :cron,
		collection_id = :collection_id, enabled = :enabled, last_run_at = :last_run_at, updated_at = :updated_at
		WHERE id = :id`

	_, err := db.NamedExec(query, s)
	return err
}

func (db *DB) DeleteSchedule(id string) error {
	_, err := db.Exec(`DELETE FROM schedules WHERE id = ?`, id)
	return err
}

// UpdateScheduleCollectionRefs repoints every schedule referencing the old
// collection at the new one. Invoked only during collection merge.
func (db *DB) UpdateScheduleCollectionRefs(oldCollectionID, newCollectionID string, updatedAt time.Time) (int64, error) {
	query := `UPDATE schedules SET collection_id = ?, updated_at = ? WHERE collection_id = ?`
	res, err := db.Exec(query, newCollectionID, updatedAt, oldCollectionID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
