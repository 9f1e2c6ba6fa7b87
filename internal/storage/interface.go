package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no file is stored under a key.
var ErrNotFound = errors.New("file not found")

// CoverStorage stores book cover files under slash separated keys.
// Implementations may be the local filesystem or a cloud bucket.
type CoverStorage interface {
	// Save writes the content of r under key, replacing any previous file, and
	// returns the number of bytes written.
	Save(ctx context.Context, key string, r io.Reader) (int64, error)

	// Open returns a reader for the file under key, or ErrNotFound.
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Exists reports whether a file is stored under key and its size.
	Exists(ctx context.Context, key string) (exists bool, size int64, err error)

	// Delete removes the file under key. Missing files are not an error.
	Delete(ctx context.Context, key string) error
}

// NewCoverKey returns a fresh key of the form covers/<book-id>/<uuid><ext>.
// The extension is taken from the uploaded file name, or derived from the
// content type when the name has none.
func NewCoverKey(bookID int32, filename, contentType string) string {
	ext := strings.ToLower(path.Ext(filename))
	if ext == "" {
		ext = ExtensionFor(contentType)
	}
	return fmt.Sprintf("covers/%d/%s%s", bookID, uuid.NewString(), ext)
}

// ValidKey rejects keys that are empty, absolute or escape the storage root.
func ValidKey(key string) bool {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return false
	}
	clean := path.Clean(key)
	return clean == key && clean != "." && !strings.HasPrefix(clean, "../") && clean != ".."
}
