package storage

import (
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/akozlova/foodgram/internal/apperror"
)

func newTestStore(t *testing.T) *ImageStore {
	t.Helper()
	store, err := NewImageStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewImageStore: %v", err)
	}
	return store
}

func dataURI(mediaType string, payload []byte) string {
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(payload)
}

func TestSave_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	payload := []byte("png bytes here")

	relPath, err := store.Save("image", dataURI("image/png", payload), "recipe_images")
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if !strings.HasPrefix(relPath, "recipe_images/") {
		t.Errorf("relative path = %q, want prefix %q", relPath, "recipe_images/")
	}
	if !strings.HasSuffix(relPath, ".png") {
		t.Errorf("relative path = %q, want .png extension", relPath)
	}

	// The bytes landed under the root at exactly that path
	stored, err := os.ReadFile(filepath.Join(store.Root(), filepath.FromSlash(relPath)))
	if err != nil {
		t.Fatalf("reading stored file: %v", err)
	}
	if string(stored) != string(payload) {
		t.Error("stored bytes differ from the decoded payload")
	}
}

func TestSave_DistinctNames(t *testing.T) {
	store := newTestStore(t)
	payload := []byte("same bytes")

	first, err := store.Save("image", dataURI("image/png", payload), "recipe_images")
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	second, err := store.Save("image", dataURI("image/png", payload), "recipe_images")
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if first == second {
		t.Errorf("two saves produced the same path %q — uploads must never overwrite", first)
	}
}

func TestSave_JPEGGetsJpgExtension(t *testing.T) {
	store := newTestStore(t)

	relPath, err := store.Save("image", dataURI("image/jpeg", []byte("jpeg")), "user_images")
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if !strings.HasSuffix(relPath, ".jpg") {
		t.Errorf("path = %q, want .jpg extension for image/jpeg", relPath)
	}
}

func TestSave_RejectsBadPayloads(t *testing.T) {
	store := newTestStore(t)

	cases := []struct {
		name    string
		dataURI string
	}{
		{"not a data URI", "just some text"},
		{"missing data prefix", "image/png;base64,aGk="},
		{"not base64 encoded", "data:image/png,aGk="},
		{"unsupported media type", dataURI("application/pdf", []byte("pdf"))},
		{"invalid base64", "data:image/png;base64,!!!not-base64!!!"},
		{"empty payload", "data:image/png;base64,"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := store.Save("image", tc.dataURI, "recipe_images")
			if !errors.Is(err, apperror.ErrValidation) {
				t.Errorf("Save(%q) error = %v, want ErrValidation", tc.dataURI, err)
			}
		})
	}
}

func TestRemove(t *testing.T) {
	store := newTestStore(t)

	relPath, err := store.Save("image", dataURI("image/png", []byte("bytes")), "recipe_images")
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if err := store.Remove(relPath); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(store.Root(), filepath.FromSlash(relPath))); !os.IsNotExist(err) {
		t.Error("file still present after Remove()")
	}

	// Removing again is not an error — the reference is gone either way
	if err := store.Remove(relPath); err != nil {
		t.Errorf("second Remove() error = %v, want nil", err)
	}

	// Neither is an empty path
	if err := store.Remove(""); err != nil {
		t.Errorf("Remove(\"\") error = %v, want nil", err)
	}
}
