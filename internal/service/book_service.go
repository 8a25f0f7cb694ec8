package service

import (
	"context"
	"errors"

	"bookshelf/internal/domain"
	"bookshelf/internal/repository"
)

// ErrBookNotFound is returned when a name does not belong to any catalog entry.
var ErrBookNotFound = errors.New("book not found")

// BookService manages the catalog and resolves stored file names against it.
type BookService interface {
	AddBook(ctx context.Context, title, author, filename, cover string) (*domain.Book, error)
	ListBooks(ctx context.Context) ([]domain.Book, error)
	ResolveBookFile(ctx context.Context, filename string) (*domain.Book, error)
	ResolveCover(ctx context.Context, cover string) (*domain.Book, error)
}

type bookService struct {
	books repository.BookRepository
}

func NewBookService(books repository.BookRepository) BookService {
	return &bookService{books: books}
}

func (s *bookService) AddBook(ctx context.Context, title, author, filename, cover string) (*domain.Book, error) {
	book := &domain.Book{
		Title:    title,
		Author:   author,
		Filename: filename,
		Cover:    cover,
	}
	if _, err := s.books.Create(ctx, book); err != nil {
		return nil, err
	}
	return book, nil
}

func (s *bookService) ListBooks(ctx context.Context) ([]domain.Book, error) {
	return s.books.List(ctx)
}

func (s *bookService) ResolveBookFile(ctx context.Context, filename string) (*domain.Book, error) {
	return s.resolve(s.books.GetByFilename(ctx, filename))
}

func (s *bookService) ResolveCover(ctx context.Context, cover string) (*domain.Book, error) {
	return s.resolve(s.books.GetByCover(ctx, cover))
}

func (s *bookService) resolve(book *domain.Book, err error) (*domain.Book, error) {
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, err
	}
	return book, nil
}
