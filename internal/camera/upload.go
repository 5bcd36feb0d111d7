package camera

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/starford/shutter/internal/apperr"
	"github.com/starford/shutter/internal/platform"
)

// Upload is a Camera whose image data arrives with the request context
// (see WithShot). A context without a shot is treated as a cancelled capture.
type Upload struct {
	mode platform.Mode

	// native mode: directory captured bytes are staged in
	stageDir string

	// web mode: registry and absolute base URL blob handles point at
	blobs   *Blobs
	baseURL string
}

// NewUpload creates an Upload camera for mode. stageDir is used in native mode;
// blobs and baseURL in web mode.
func NewUpload(mode platform.Mode, stageDir string, blobs *Blobs, baseURL string) *Upload {
	if abs, err := filepath.Abs(stageDir); err == nil {
		stageDir = abs
	}
	return &Upload{
		mode:     mode,
		stageDir: stageDir,
		blobs:    blobs,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
	}
}

// Capture turns the shot carried by ctx into a handle for the configured mode.
func (u *Upload) Capture(ctx context.Context) (*Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrCapture, err)
	}
	shot, ok := shotFrom(ctx)
	if !ok {
		return nil, fmt.Errorf("%w: no image supplied", apperr.ErrCapture)
	}
	if u.mode.IsNative() {
		return u.stage(shot)
	}
	if u.blobs == nil {
		return nil, fmt.Errorf("%w: blob registry unavailable", apperr.ErrCapture)
	}
	id := u.blobs.Add(shot.Data, shot.ContentType)
	return &Handle{
		WebPath: u.baseURL + "/blobs/" + id,
		release: func() { u.blobs.Revoke(id) },
	}, nil
}

// stage writes the shot to a temporary file the way a device camera leaves its
// output in a cache directory.
func (u *Upload) stage(shot Shot) (*Handle, error) {
	if err := os.MkdirAll(u.stageDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: stage dir: %v", apperr.ErrCapture, err)
	}
	f, err := os.CreateTemp(u.stageDir, "capture-*.jpeg")
	if err != nil {
		return nil, fmt.Errorf("%w: stage file: %v", apperr.ErrCapture, err)
	}
	name := f.Name()
	if _, err := f.Write(shot.Data); err != nil {
		_ = f.Close()
		_ = os.Remove(name)
		return nil, fmt.Errorf("%w: stage write: %v", apperr.ErrCapture, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(name)
		return nil, fmt.Errorf("%w: stage close: %v", apperr.ErrCapture, err)
	}
	return &Handle{
		Path:    name,
		release: func() { _ = os.Remove(name) },
	}, nil
}
