// Package media stores the images users attach to records (pukla avatars,
// company logos) in object storage.
package media

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sikka-software/Tanad-sub009/internal/domain/shared"
	"github.com/sikka-software/Tanad-sub009/internal/infrastructure/logger"
	"github.com/sikka-software/Tanad-sub009/internal/infrastructure/storage"
	"go.uber.org/zap"
)

// Object kinds, used as the first segment of storage keys
const (
	KindAvatar = "avatars"
	KindLogo   = "logos"
)

// Uploader validates and stores images
type Uploader struct {
	storage storage.ObjectStorage
	baseURL string
	maxSize int64
	logger  *zap.Logger
}

// NewUploader creates an Uploader. baseURL is the prefix of the URLs
// returned by store and is used to find the object behind a replaced URL.
func NewUploader(store storage.ObjectStorage, baseURL string, maxSize int64, log *zap.Logger) *Uploader {
	if maxSize <= 0 {
		maxSize = storage.DefaultMaxFileSize
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Uploader{
		storage: store,
		baseURL: baseURL,
		maxSize: maxSize,
		logger:  log,
	}
}

// MaxSize returns the largest accepted file in bytes
func (u *Uploader) MaxSize() int64 {
	return u.maxSize
}

// Upload stores an image owned by owner and returns its public URL
func (u *Uploader) Upload(ctx context.Context, kind string, owner uuid.UUID, data []byte) (string, error) {
	contentType, ext, err := storage.DetectImage(data, u.maxSize)
	if err != nil {
		return "", fileError(err)
	}
	key := storage.ObjectKey(kind, owner, ext)
	url, err := u.storage.Upload(ctx, key, data, contentType)
	if err != nil {
		return "", err
	}
	logger.Enrich(ctx, u.logger).Info("Image uploaded",
		zap.String("key", key),
		zap.String("content_type", contentType),
		zap.Int("size", len(data)))
	return url, nil
}

// Remove deletes the object behind url when it was uploaded here. Failures
// are logged only; a stale object does not fail the request.
func (u *Uploader) Remove(ctx context.Context, url string) {
	key := storage.KeyFromURL(u.baseURL, url)
	if key == "" {
		return
	}
	if err := u.storage.Delete(ctx, key); err != nil {
		logger.Enrich(ctx, u.logger).Warn("Failed to delete replaced image",
			zap.String("key", key),
			zap.Error(err))
	}
}

func fileError(err error) error {
	message := "Invalid file"
	switch {
	case errors.Is(err, storage.ErrEmptyFile):
		message = "File is empty"
	case errors.Is(err, storage.ErrFileTooLarge):
		message = "File is too large"
	case errors.Is(err, storage.ErrUnsupportedImage):
		message = "Only PNG, JPEG, GIF and WebP images are accepted"
	}
	return shared.NewValidationError(message, shared.FieldProblem{Field: "file", Message: message})
}
