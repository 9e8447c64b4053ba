package store

import (
	"database/sql"
	"time"

	"vodvault/internal/domain"
)

func (db *DB) CreateCollection(c *domain.Collection) error {
	query := `INSERT INTO collections (id, name, root_path, created_at, updated_at)
		VALUES (:id, :name, :root_path, :created_at, :updated_at)`

	_, err := db.NamedExec(query, c)
	return err
}

func (db *DB) GetCollection(id string) (*domain.Collection, error) {
	query := `SELECT id, name, root_path, created_at, updated_at FROM collections WHERE id = ?`

	c := &domain.Collection{}
	err := db.Get(c, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (db *DB) GetCollectionByRootPath(rootPath string) (*domain.Collection, error) {
	query := `SELECT id, name, root_path, created_at, updated_at FROM collections WHERE root_path = ?`

	c := &domain.Collection{}
	err := db.Get(c, query, rootPath)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (db *DB) ListCollections() ([]*domain.Collection, error) {
	query := `SELECT id, name, root_path, created_at, updated_at FROM collections ORDER BY name ASC`

	var collections []*domain.Collection
	err := db.Select(&collections, query)
	return collections, err
}

func (db *DB) UpdateCollection(id, name, rootPath string, updatedAt time.Time) error {
	query := `UPDATE collections SET name = ?, root_path = ?, updated_at = ? WHERE id = ?`
	_, err := db.Exec(query, name, rootPath, updatedAt, id)
	return err
}

func (db *DB) DeleteCollection(id string) error {
	query := `DELETE FROM collections WHERE id = ?`
	_, err := db.Exec(query, id)
	return err
}
