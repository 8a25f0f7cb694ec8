package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"bookshelf/internal/domain"
	"bookshelf/internal/repository"
)

const createBooksTable = `
CREATE TABLE IF NOT EXISTS books (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL DEFAULT '',
	author TEXT NOT NULL DEFAULT '',
	filename TEXT NOT NULL DEFAULT '',
	cover TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_books_filename ON books(filename);
CREATE INDEX IF NOT EXISTS idx_books_cover ON books(cover);
`

type BookRepository struct {
	db *sql.DB
}

func NewBookRepository(db *sql.DB) repository.BookRepository {
	return &BookRepository{db: db}
}

func (r *BookRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createBooksTable); err != nil {
		return fmt.Errorf("create books table: %w", err)
	}
	return nil
}

func (r *BookRepository) Create(ctx context.Context, book *domain.Book) (int64, error) {
	book.CreatedAt = time.Now().UTC()

	res, err := r.db.ExecContext(ctx, `
INSERT INTO books (title, author, filename, cover, created_at)
VALUES (?, ?, ?, ?, ?)`,
		book.Title,
		book.Author,
		book.Filename,
		book.Cover,
		book.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert book: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("book last insert id: %w", err)
	}
	book.ID = id
	return id, nil
}

func (r *BookRepository) List(ctx context.Context) ([]domain.Book, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, title, author, filename, cover, created_at
FROM books
ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query books: %w", err)
	}
	defer rows.Close()

	books := []domain.Book{}
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, *book)
	}
	return books, rows.Err()
}

func (r *BookRepository) GetByFilename(ctx context.Context, filename string) (*domain.Book, error) {
	if filename == "" {
		return nil, fmt.Errorf("book: %w", repository.ErrNotFound)
	}
	row := r.db.QueryRowContext(ctx, `
SELECT id, title, author, filename, cover, created_at
FROM books
WHERE filename = ?
ORDER BY id ASC
LIMIT 1`, filename)
	return scanBook(row)
}

func (r *BookRepository) GetByCover(ctx context.Context, cover string) (*domain.Book, error) {
	if cover == "" {
		return nil, fmt.Errorf("book: %w", repository.ErrNotFound)
	}
	row := r.db.QueryRowContext(ctx, `
SELECT id, title, author, filename, cover, created_at
FROM books
WHERE cover = ?
ORDER BY id ASC
LIMIT 1`, cover)
	return scanBook(row)
}

func scanBook(row interface {
	Scan(dest ...any) error
}) (*domain.Book, error) {
	var book domain.Book
	if err := row.Scan(
		&book.ID,
		&book.Title,
		&book.Author,
		&book.Filename,
		&book.Cover,
		&book.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("book: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("scan book: %w", err)
	}
	return &book, nil
}
