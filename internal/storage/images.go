// Package storage persists uploaded images on the local filesystem.
//
// Images arrive on the API as base64 data URIs embedded in JSON write
// payloads ("data:image/png;base64,...."). We decode them once at write
// time, store the bytes as a file under the media directory, and from then
// on only the relative path travels through the system. Read responses
// carry a /media/ URL, never the bytes.
package storage

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/xid"

	"github.com/akozlova/foodgram/internal/apperror"
)

// extensions maps the media type of a data URI to a file extension.
// Anything outside this set is rejected at the validation boundary.
var extensions = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// ImageStore writes decoded images under a root directory, one subdirectory
// per usage ("recipe_images", "user_images").
type ImageStore struct {
	root string
}

// NewImageStore creates the media root directory if needed.
func NewImageStore(root string) (*ImageStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("storage: creating media dir %s: %w", root, err)
	}
	return &ImageStore{root: root}, nil
}

// Save decodes a base64 data URI and writes it to <root>/<subdir>/<xid>.<ext>.
// Returns the path relative to the media root — that relative path is what
// gets persisted on the entity.
//
// A malformed or non-image payload is a validation failure, not a server
// fault: the client sent a bad field.
func (s *ImageStore) Save(field, dataURI, subdir string) (string, error) {
	header, encoded, ok := strings.Cut(dataURI, ",")
	if !ok {
		return "", apperror.ValidationFailed(field, "image must be a base64 data URI")
	}

	mediaType, ok := strings.CutPrefix(header, "data:")
	if !ok {
		return "", apperror.ValidationFailed(field, "image must be a base64 data URI")
	}
	mediaType, ok = strings.CutSuffix(mediaType, ";base64")
	if !ok {
		return "", apperror.ValidationFailed(field, "image must be base64 encoded")
	}

	ext, ok := extensions[mediaType]
	if !ok {
		return "", apperror.ValidationFailed(field, fmt.Sprintf("unsupported image type %q", mediaType))
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", apperror.ValidationFailed(field, "invalid base64 image data")
	}
	if len(data) == 0 {
		return "", apperror.ValidationFailed(field, "image is empty")
	}

	dir := filepath.Join(s.root, subdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("storage: creating %s: %w", dir, err)
	}

	name := xid.New().String() + "." + ext
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("storage: writing image: %w", err)
	}

	return subdir + "/" + name, nil
}

// Remove deletes a stored image by its relative path. A missing file is not
// an error — the reference is gone either way.
func (s *ImageStore) Remove(relPath string) error {
	if relPath == "" {
		return nil
	}
	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(relPath)))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: removing image %s: %w", relPath, err)
	}
	return nil
}

// Root returns the media root directory, for the file server mount.
func (s *ImageStore) Root() string {
	return s.root
}
