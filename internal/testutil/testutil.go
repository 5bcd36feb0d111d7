// Package testutil provides shared test helpers for setting up photo stores.
package testutil

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/starford/shutter/internal/camera"
	"github.com/starford/shutter/internal/gallery"
	"github.com/starford/shutter/internal/platform"
	"github.com/starford/shutter/internal/prefs"
	"github.com/starford/shutter/internal/storage"
)

// JPEG is a minimal payload that sniffs as image/jpeg.
var JPEG = []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestFiles creates a temporary data directory with a storage.FS.
func TestFiles(t *testing.T) *storage.FS {
	t.Helper()
	files, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return files
}

// TestStore creates an initialized native-mode store backed by a temporary
// data directory, in-memory preferences and an upload camera. The store is
// closed on cleanup.
func TestStore(t *testing.T) (*gallery.Store, *storage.FS) {
	t.Helper()
	files := TestFiles(t)
	cam := camera.NewUpload(platform.ModeNative, t.TempDir(), nil, "")
	store := gallery.New(platform.ModeNative, cam, files, prefs.NewMemory(),
		gallery.WithLogger(DiscardLogger()))
	t.Cleanup(store.Close)
	if err := store.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	return store, files
}
