package repository

import (
	"context"

	"bookshelf/internal/domain"
)

// AdViewRepository is an append-only log of ad impressions.
type AdViewRepository interface {
	Init(ctx context.Context) error
	Append(ctx context.Context, view *domain.AdView) (int64, error)
	List(ctx context.Context) ([]domain.AdView, error)
}
