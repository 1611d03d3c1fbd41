package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// ErrUnsupportedType rejects uploads whose content type has no known
// file extension.
var ErrUnsupportedType = errors.New("blobstore: unsupported content type")

// extensionsByType mirrors the image types the profile/community
// uploaders accept.
var extensionsByType = map[string]string{
	"image/jpeg":  "jpg",
	"image/pjpeg": "jpg",
	"image/gif":   "gif",
	"image/png":   "png",
	"image/webp":  "webp",
	"image/avif":  "avif",
}

// ExtensionByType maps a MIME type to its file extension.
func ExtensionByType(contentType string) (string, error) {
	if ext, ok := extensionsByType[contentType]; ok {
		return ext, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
}

// Store is a path-addressed blob collaborator: an upload returns a
// durable URL the stored documents can reference.
type Store interface {
	Put(ctx context.Context, path string, r io.Reader) (url string, err error)
	Open(ctx context.Context, path string) (io.ReadCloser, error)
}
