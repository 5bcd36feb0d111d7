// Package storage defines the file store the gallery keeps photo bytes in.
package storage

import "context"

// Directory scopes a path passed to a Provider.
type Directory int

const (
	// DirectoryNone means the path is absolute (or a file:// URI) and is not
	// scoped to any application directory.
	DirectoryNone Directory = iota
	// DirectoryData scopes the path to the application-private data directory.
	DirectoryData
)

func (d Directory) String() string {
	switch d {
	case DirectoryNone:
		return "none"
	case DirectoryData:
		return "data"
	default:
		return "unknown"
	}
}

// Provider is the interface for photo file operations.
type Provider interface {
	// Read returns the raw bytes of the file at path.
	Read(ctx context.Context, path string, dir Directory) ([]byte, error)
	// Write atomically writes data to path and returns the resulting file URI.
	Write(ctx context.Context, path string, data []byte, dir Directory) (string, error)
	// Delete removes the file at path. A missing file is reported as an error
	// wrapping os.ErrNotExist.
	Delete(ctx context.Context, path string, dir Directory) error
}
