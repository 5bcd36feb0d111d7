package camera

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/shutter/internal/apperr"
)

const defaultSettle = 200 * time.Millisecond

// Spool is a Camera fed by a tethered device that drops JPEG files into a
// directory. Capture waits for the next file to appear and settle.
type Spool struct {
	dir     string
	timeout time.Duration
	settle  time.Duration
	logger  *slog.Logger
}

// NewSpool creates a Spool watching dir. Capture gives up after timeout.
func NewSpool(dir string, timeout time.Duration, logger *slog.Logger) (*Spool, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("camera: resolve spool dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("camera: create spool dir: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Spool{dir: abs, timeout: timeout, settle: defaultSettle, logger: logger}, nil
}

// Dir returns the watched directory.
func (s *Spool) Dir() string {
	return s.dir
}

// Capture blocks until a new .jpg/.jpeg file has been written to the spool
// directory and no further writes arrived for the settle interval.
func (s *Spool) Capture(ctx context.Context) (*Handle, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("%w: camera unavailable: %v", apperr.ErrCapture, err)
	}
	defer w.Close()
	if err := w.Add(s.dir); err != nil {
		return nil, fmt.Errorf("%w: camera unavailable: %v", apperr.ErrCapture, err)
	}

	var (
		candidate string
		settle    *time.Timer
		settleCh  <-chan time.Time
	)
	defer func() {
		if settle != nil {
			settle.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", apperr.ErrCapture, ctx.Err())

		case <-settleCh:
			s.logger.Debug("camera: spool capture", slog.String("path", candidate))
			return &Handle{Path: candidate}, nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil, fmt.Errorf("%w: watcher closed", apperr.ErrCapture)
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 || !isJPEG(ev.Name) {
				continue
			}
			if candidate != "" && ev.Name != candidate {
				continue
			}
			candidate = ev.Name
			if settle == nil {
				settle = time.NewTimer(s.settle)
				settleCh = settle.C
			} else {
				settle.Reset(s.settle)
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil, fmt.Errorf("%w: watcher closed", apperr.ErrCapture)
			}
			s.logger.Warn("camera: spool watcher error", slog.String("error", watchErr.Error()))
		}
	}
}

func isJPEG(name string) bool {
	if strings.HasPrefix(filepath.Base(name), ".") {
		return false
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg":
		return true
	default:
		return false
	}
}
