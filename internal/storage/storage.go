package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"
	_ "golang.org/x/image/webp"
)

// ImageStore persists uploaded recipe images under opaque keys.
type ImageStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) error
	Delete(ctx context.Context, key string) error
	URL(ctx context.Context, key string) (string, error)
}

var ErrNotImage = errors.New("upload a valid image")

var extByType = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Inspect checks that data is a decodable image and returns its content type
// and file extension.
func Inspect(data []byte) (contentType, ext string, err error) {
	contentType = http.DetectContentType(data)
	ext, ok := extByType[contentType]
	if !ok {
		return "", "", ErrNotImage
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrNotImage, err)
	}
	return contentType, ext, nil
}

// NewKey returns a fresh object key for a recipe image.
func NewKey(ext string) string {
	return path.Join("recipes", uuid.NewString()+strings.ToLower(ext))
}
