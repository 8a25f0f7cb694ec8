package storage

import (
	"context"
	"errors"
	"io"
	"mime"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Class separates the kinds of media the library keeps.
type Class string

const (
	ClassProfiles Class = "profiles"
	ClassUploads  Class = "uploads"
)

// ErrNotFound is returned when a stored object does not exist or the name is not acceptable.
var ErrNotFound = errors.New("stored object not found")

// Object is an open stored file. Callers must close Body.
type Object struct {
	Name        string
	Size        int64
	ContentType string
	Body        io.ReadCloser
}

// Service persists uploaded media under generated names.
type Service interface {
	Save(ctx context.Context, class Class, originalName string, r io.Reader) (string, error)
	Open(ctx context.Context, class Class, name string) (*Object, error)
	Delete(ctx context.Context, class Class, name string) error
}

// GenerateName returns a collision resistant stored name keeping the
// lower-cased extension of the original file name.
func GenerateName(originalName string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(originalName)))
	if ext == "." || strings.ContainsAny(ext, `/\`) {
		ext = ""
	}
	return uuid.NewString() + ext
}

// validName rejects anything that is not a bare file name.
func validName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return false
	}
	return path.Base(name) == name
}

func contentTypeFor(name string) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
