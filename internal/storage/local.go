package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// LocalService keeps media on the local filesystem, one directory per class.
type LocalService struct {
	root string
}

func NewLocalService(root string) (*LocalService, error) {
	for _, class := range []Class{ClassProfiles, ClassUploads} {
		if err := os.MkdirAll(filepath.Join(root, string(class)), 0o755); err != nil {
			return nil, fmt.Errorf("create %s dir: %w", class, err)
		}
	}
	return &LocalService{root: root}, nil
}

// Dir returns the directory backing the given class.
func (s *LocalService) Dir(class Class) string {
	return filepath.Join(s.root, string(class))
}

func (s *LocalService) Save(ctx context.Context, class Class, originalName string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := GenerateName(originalName)
	fullPath := filepath.Join(s.Dir(class), name)

	out, err := os.OpenFile(fullPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create file %s: %w", fullPath, err)
	}

	_, copyErr := io.Copy(out, r)
	closeErr := out.Close()
	if copyErr != nil || closeErr != nil {
		os.Remove(fullPath)
		if copyErr != nil {
			return "", fmt.Errorf("write file %s: %w", fullPath, copyErr)
		}
		return "", fmt.Errorf("close file %s: %w", fullPath, closeErr)
	}

	return name, nil
}

func (s *LocalService) Open(ctx context.Context, class Class, name string) (*Object, error) {
	if !validName(name) {
		return nil, ErrNotFound
	}

	fullPath := filepath.Join(s.Dir(class), name)
	f, err := os.Open(fullPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("open file %s: %w", fullPath, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat file %s: %w", fullPath, err)
	}
	if info.IsDir() {
		f.Close()
		return nil, ErrNotFound
	}

	return &Object{
		Name:        name,
		Size:        info.Size(),
		ContentType: contentTypeFor(name),
		Body:        f,
	}, nil
}

func (s *LocalService) Delete(ctx context.Context, class Class, name string) error {
	if !validName(name) {
		return nil
	}
	if err := os.Remove(filepath.Join(s.Dir(class), name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove file %s: %w", name, err)
	}
	return nil
}

var _ Service = (*LocalService)(nil)
