package usecase

import (
	"context"

	"profilemap/internal/domain/entity"
)

// ProfilePreview is the read-only overlay shown from the list.
type ProfilePreview struct {
	Profile    *entity.Profile `json:"profile"`
	DetailPath string          `json:"detail_path"`
	ShareURL   string          `json:"share_url"`
}

// ListUsecase backs the list/search page.
type ListUsecase interface {
	// Search filters by name or description. A blank term returns everything.
	Search(ctx context.Context, term string) ([]*entity.Profile, error)

	Preview(ctx context.Context, id string) (*ProfilePreview, error)

	// Navigate returns the detail view path for id.
	Navigate(id string) string
}
