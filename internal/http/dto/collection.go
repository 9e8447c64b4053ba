package dto

import (
	"time"

	"vodvault/internal/domain"
)

type CreateCollectionRequest struct {
	Name     string `json:"name"`
	RootPath string `json:"root_path"`
}

func (r *CreateCollectionRequest) Validate() []ValidationError {
	var errs []ValidationError
	errs = append(errs, requireField(r.Name, "name")...)
	errs = append(errs, requireField(r.RootPath, "root_path")...)
	errs = append(errs, validateAbsolutePath(r.RootPath, "root_path")...)
	return errs
}

// UpdateCollectionRequest is the direct metadata edit; path changes go
// through a move_collection job instead.
type UpdateCollectionRequest struct {
	Name string `json:"name"`
}

func (r *UpdateCollectionRequest) Validate() []ValidationError {
	return requireField(r.Name, "name")
}

type CollectionResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	RootPath  string `json:"root_path"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func NewCollectionResponse(c *domain.Collection) CollectionResponse {
	return CollectionResponse{
		ID:        c.ID,
		Name:      c.Name,
		RootPath:  c.RootPath,
		CreatedAt: c.CreatedAt.Format(time.RFC3339),
		UpdatedAt: c.UpdatedAt.Format(time.RFC3339),
	}
}

func NewCollectionListResponse(collections []*domain.Collection) []CollectionResponse {
	out := make([]CollectionResponse, 0, len(collections))
	for _, c := range collections {
		out = append(out, NewCollectionResponse(c))
	}
	return out
}

type CreateScheduleRequest struct {
	Name         string  `json:"name"`
	URL          string  `json:"url"`
	Cron         string  `json:"cron"`
	CollectionID *string `json:"collection_id,omitempty"`
}

func (r *CreateScheduleRequest) Validate() []ValidationError {
	var errs []ValidationError
	errs = append(errs, requireField(r.Name, "name")...)
	errs = append(errs, requireField(r.URL, "url")...)
	errs = append(errs, validateURL(r.URL, "url")...)
	errs = append(errs, requireField(r.Cron, "cron")...)
	return errs
}
