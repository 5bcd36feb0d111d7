// Package apperr defines the error kinds shared across the gallery.
package apperr

import "errors"

var (
	// ErrCapture is returned when the camera is unavailable or the user cancels.
	ErrCapture = errors.New("capture failed")
	// ErrRead is returned when a capture handle lacks the source for the active mode
	// or its bytes cannot be read.
	ErrRead = errors.New("read failed")
	// ErrWrite is returned when the file store rejects a write.
	ErrWrite = errors.New("write failed")
	// ErrIndexLoad marks an unreadable or unparsable persisted index.
	ErrIndexLoad = errors.New("index load failed")
	// ErrIndexWrite marks a failed write of the persisted index.
	ErrIndexWrite = errors.New("index write failed")
)
