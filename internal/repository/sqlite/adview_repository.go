package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"bookshelf/internal/domain"
	"bookshelf/internal/repository"
)

const createAdViewsTable = `
CREATE TABLE IF NOT EXISTS ad_views (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	username TEXT NOT NULL,
	book TEXT NOT NULL DEFAULT '',
	viewed_at DATETIME NOT NULL
);
`

type AdViewRepository struct {
	db *sql.DB
}

func NewAdViewRepository(db *sql.DB) repository.AdViewRepository {
	return &AdViewRepository{db: db}
}

func (r *AdViewRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createAdViewsTable); err != nil {
		return fmt.Errorf("create ad_views table: %w", err)
	}
	return nil
}

func (r *AdViewRepository) Append(ctx context.Context, view *domain.AdView) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
INSERT INTO ad_views (username, book, viewed_at)
VALUES (?, ?, ?)`,
		view.Username,
		view.Book,
		view.Timestamp.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert ad view: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("ad view last insert id: %w", err)
	}
	view.ID = id
	return id, nil
}

func (r *AdViewRepository) List(ctx context.Context) ([]domain.AdView, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, username, book, viewed_at
FROM ad_views
ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query ad views: %w", err)
	}
	defer rows.Close()

	views := []domain.AdView{}
	for rows.Next() {
		var view domain.AdView
		if err := rows.Scan(&view.ID, &view.Username, &view.Book, &view.Timestamp); err != nil {
			return nil, fmt.Errorf("scan ad view: %w", err)
		}
		views = append(views, view)
	}
	return views, rows.Err()
}
