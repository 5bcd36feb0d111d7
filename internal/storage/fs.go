package storage

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// FileRoutePrefix is the URL prefix under which data-directory files are served
// to native renderers.
const FileRoutePrefix = "/_app_file_"

// FS implements Provider backed by the local file system.
type FS struct {
	root string // absolute path to the data directory
}

// NewFS creates a new FS provider rooted at the given data directory.
// The directory must already exist.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	return &FS{root: abs}, nil
}

// Root returns the absolute data directory.
func (f *FS) Root() string {
	return f.root
}

// FileURI returns the file:// URI for an absolute path.
func FileURI(abs string) string {
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String()
}

// ConvertFileSrc turns a file:// URI into the form native renderers load it
// from. Values that are not file URIs are returned unchanged.
func ConvertFileSrc(uri string) string {
	if !strings.HasPrefix(uri, "file://") {
		return uri
	}
	u, err := url.Parse(uri)
	if err != nil {
		return uri
	}
	return FileRoutePrefix + u.Path
}

// stripScheme returns the file system path for a file:// URI, or p unchanged.
func stripScheme(p string) (string, error) {
	if !strings.HasPrefix(p, "file://") {
		return p, nil
	}
	u, err := url.Parse(p)
	if err != nil {
		return "", fmt.Errorf("storage: parse uri %s: %w", p, err)
	}
	return filepath.FromSlash(u.Path), nil
}

// resolve maps path to an absolute file system path according to dir.
func (f *FS) resolve(path string, dir Directory) (string, error) {
	p, err := stripScheme(path)
	if err != nil {
		return "", err
	}
	switch dir {
	case DirectoryNone:
		if !filepath.IsAbs(p) {
			return "", fmt.Errorf("storage: path must be absolute: %s", path)
		}
		return filepath.Clean(p), nil
	case DirectoryData:
		return f.safePath(p)
	default:
		return "", fmt.Errorf("storage: unknown directory %d", dir)
	}
}

// safePath resolves a path against the data root and rejects any result that
// escapes it. Absolute paths are accepted only when they already lie under root.
func (f *FS) safePath(p string) (string, error) {
	if p == "" {
		return "", fmt.Errorf("storage: empty path")
	}
	var abs string
	if filepath.IsAbs(p) {
		abs = filepath.Clean(p)
	} else {
		abs = filepath.Join(f.root, filepath.Clean(p))
	}
	if !strings.HasPrefix(abs, f.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("storage: path escapes data root: %s", p)
	}
	return abs, nil
}

// Read returns the raw bytes of a file.
func (f *FS) Read(_ context.Context, path string, dir Directory) ([]byte, error) {
	abs, err := f.resolve(path, dir)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", path, err)
	}
	return data, nil
}

// Write atomically writes content: tmp file → fsync → rename.
func (f *FS) Write(_ context.Context, path string, data []byte, dir Directory) (string, error) {
	abs, err := f.resolve(path, dir)
	if err != nil {
		return "", err
	}
	parent := filepath.Dir(abs)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return "", fmt.Errorf("storage: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(parent, ".shutter-tmp-*")
	if err != nil {
		return "", fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return "", fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return "", fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return "", fmt.Errorf("storage: rename: %w", err)
	}
	success = true
	return FileURI(abs), nil
}

// Delete removes a file.
func (f *FS) Delete(_ context.Context, path string, dir Directory) error {
	abs, err := f.resolve(path, dir)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil {
		return fmt.Errorf("storage: delete %s: %w", path, err)
	}
	return nil
}
