// Package camera provides the capture capabilities the gallery takes photos
// from.
package camera

import "context"

// Handle is a transient reference to a freshly captured photo.
//
// Path is set only in native mode and is an absolute file system path.
// WebPath is set only in web mode and is a short-lived URL the bytes can be
// fetched from.
type Handle struct {
	Path    string
	WebPath string

	release func()
}

// Release frees the transient resources behind the handle. It is safe to call
// more than once and on a nil handle.
func (h *Handle) Release() {
	if h == nil || h.release == nil {
		return
	}
	h.release()
	h.release = nil
}

// Camera captures photos.
type Camera interface {
	// Capture returns a handle to a new photo. Failures wrap apperr.ErrCapture.
	Capture(ctx context.Context) (*Handle, error)
}

// Shot is image data supplied together with a capture request.
type Shot struct {
	Data        []byte
	ContentType string
}

type shotKey struct{}

// WithShot attaches shot to ctx for an Upload camera to pick up.
func WithShot(ctx context.Context, shot Shot) context.Context {
	return context.WithValue(ctx, shotKey{}, shot)
}

func shotFrom(ctx context.Context) (Shot, bool) {
	shot, ok := ctx.Value(shotKey{}).(Shot)
	if !ok || len(shot.Data) == 0 {
		return Shot{}, false
	}
	return shot, true
}
