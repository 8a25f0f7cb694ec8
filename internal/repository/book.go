package repository

import (
	"context"

	"bookshelf/internal/domain"
)

// BookRepository manages the catalog.
type BookRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, book *domain.Book) (int64, error)
	List(ctx context.Context) ([]domain.Book, error)
	GetByFilename(ctx context.Context, filename string) (*domain.Book, error)
	GetByCover(ctx context.Context, cover string) (*domain.Book, error)
}
