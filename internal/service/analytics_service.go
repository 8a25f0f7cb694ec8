package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"bookshelf/internal/domain"
	"bookshelf/internal/repository"
)

// CSVHeader is the first line of every ad view export.
var CSVHeader = []string{"username", "book", "timestamp"}

// AnalyticsService records and reports ad impressions.
type AnalyticsService interface {
	RecordView(ctx context.Context, username, book string) (*domain.AdView, error)
	ListViews(ctx context.Context) ([]domain.AdView, error)
	ExportCSV(ctx context.Context, w io.Writer) error
}

type analyticsService struct {
	views repository.AdViewRepository
	now   func() time.Time
}

func NewAnalyticsService(views repository.AdViewRepository) AnalyticsService {
	return &analyticsService{
		views: views,
		now:   time.Now,
	}
}

func (s *analyticsService) RecordView(ctx context.Context, username, book string) (*domain.AdView, error) {
	view := &domain.AdView{
		Username:  username,
		Book:      book,
		Timestamp: s.now().UTC(),
	}
	if _, err := s.views.Append(ctx, view); err != nil {
		return nil, err
	}
	return view, nil
}

func (s *analyticsService) ListViews(ctx context.Context) ([]domain.AdView, error) {
	return s.views.List(ctx)
}

func (s *analyticsService) ExportCSV(ctx context.Context, w io.Writer) error {
	views, err := s.views.List(ctx)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, v := range views {
		if err := cw.Write([]string{v.Username, v.Book, FormatTimestamp(v.Timestamp)}); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// FormatTimestamp renders timestamps the way the API and exports show them.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
