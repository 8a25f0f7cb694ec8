package repository

import (
	"context"
	"time"

	"bookshelf/internal/domain"
)

// UserRepository defines persistence operations for User entities.
type UserRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, user *domain.User) (int64, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	SetRole(ctx context.Context, username string, role domain.Role) error
	DeleteByUsername(ctx context.Context, username string) (int64, error)
	AppendLogin(ctx context.Context, userID int64, at time.Time) error
	ListLogins(ctx context.Context, userID int64) ([]time.Time, error)
}
