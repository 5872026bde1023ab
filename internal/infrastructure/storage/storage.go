// Package storage uploads user images (pukla avatars, company logos) to
// object storage and returns the URL they are served from.
package storage

import (
	"context"
	"errors"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"
)

// DefaultMaxFileSize caps an uploaded image at 2 MiB
const DefaultMaxFileSize int64 = 2 << 20

var (
	ErrEmptyKey         = errors.New("storage key is required")
	ErrEmptyFile        = errors.New("file is empty")
	ErrFileTooLarge     = errors.New("file is too large")
	ErrUnsupportedImage = errors.New("unsupported image type")
)

// ObjectStorage stores public objects
type ObjectStorage interface {
	// Upload writes data under key and returns its public URL
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

var imageExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// DetectImage sniffs the content type of data and returns it with the
// matching file extension
func DetectImage(data []byte, maxSize int64) (contentType, ext string, err error) {
	if len(data) == 0 {
		return "", "", ErrEmptyFile
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	if int64(len(data)) > maxSize {
		return "", "", ErrFileTooLarge
	}
	contentType = http.DetectContentType(data)
	ext, ok := imageExtensions[contentType]
	if !ok {
		return "", "", ErrUnsupportedImage
	}
	return contentType, ext, nil
}

// ObjectKey builds a key like "avatars/<owner>/<random>.png". A fresh name per
// upload keeps CDN caches from serving a replaced image.
func ObjectKey(kind string, owner uuid.UUID, ext string) string {
	return path.Join(kind, owner.String(), uuid.NewString()+ext)
}

// KeyFromURL returns the key of an object previously uploaded under baseURL,
// or "" when url lives elsewhere
func KeyFromURL(baseURL, url string) string {
	prefix := strings.TrimRight(baseURL, "/") + "/"
	if baseURL == "" || !strings.HasPrefix(url, prefix) {
		return ""
	}
	return strings.TrimPrefix(url, prefix)
}
