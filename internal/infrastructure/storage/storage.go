// Package storage keeps uploaded product images and avatars on local disk
// or in an S3-compatible bucket.
package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/EthanMadison/hack-yourself.shop/internal/domain/shared"
	"github.com/EthanMadison/hack-yourself.shop/internal/infrastructure/config"
)

// Folders uploads are grouped into
const (
	FolderProducts = "products"
	FolderAvatars  = "avatars"
)

// ErrUnsupportedImage is returned for uploads that are not jpeg, png, gif or webp
var ErrUnsupportedImage = shared.NewDomainError("UNSUPPORTED_IMAGE", "Only JPEG, PNG, GIF and WebP images can be uploaded")

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// ImageStorage stores an image and returns the URL it is served from
type ImageStorage interface {
	Save(ctx context.Context, folder string, body io.Reader) (string, error)
	// Delete removes an object previously returned by Save. URLs the
	// storage does not own are ignored.
	Delete(ctx context.Context, url string) error
}

// New returns the storage selected by cfg.Driver
func New(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (ImageStorage, error) {
	switch cfg.Driver {
	case "s3":
		return NewS3Storage(ctx, cfg, WithLogger(logger))
	case "local", "":
		return NewLocalStorage(cfg.LocalDir, cfg.PublicPrefix)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// sniff reads the whole upload, checks its content type by magic bytes and
// returns the data with a fresh object key.
func sniff(folder string, body io.Reader) (key string, data []byte, contentType string, err error) {
	data, err = io.ReadAll(body)
	if err != nil {
		return "", nil, "", fmt.Errorf("failed to read upload: %w", err)
	}
	contentType = http.DetectContentType(data)
	ext, ok := extensions[contentType]
	if !ok || len(data) == 0 {
		return "", nil, "", ErrUnsupportedImage
	}
	folder = strings.Trim(path.Clean("/"+folder), "/")
	return path.Join(folder, uuid.NewString()+ext), data, contentType, nil
}
