// Package gallery implements the photo store: the newest-first index of
// captured photos, kept consistent with the file store and its persisted copy
// in the preferences store.
package gallery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/starford/shutter/internal/apperr"
	"github.com/starford/shutter/internal/camera"
	"github.com/starford/shutter/internal/models"
	"github.com/starford/shutter/internal/platform"
	"github.com/starford/shutter/internal/prefs"
	"github.com/starford/shutter/internal/storage"
)

// IndexKey is the preferences key the serialised index is stored under.
const IndexKey = "photos"

var (
	// ErrClosed is returned by operations on a closed Store.
	ErrClosed = errors.New("gallery: store closed")
	// ErrNotInitialized is returned by mutations issued before Initialize.
	ErrNotInitialized = errors.New("gallery: store not initialized")
	// ErrInitialized is returned by a second call to Initialize.
	ErrInitialized = errors.New("gallery: store already initialized")
)

// Event kinds passed to a Listener.
const (
	EventCaptured = "captured"
	EventDeleted  = "deleted"
)

const kindLoad = "load"

// Listener is notified after a mutation has been committed to memory and to
// the persisted index.
type Listener func(kind string, photo models.Photo)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// WithHTTPClient sets the client used to fetch web capture handles.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Store) {
		s.client = c
	}
}

// WithListener registers a change listener.
func WithListener(fn Listener) Option {
	return func(s *Store) {
		s.listener = fn
	}
}

// WithClock overrides the time source used for file names.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// command is a mutation executed by the store loop. apply returns the next
// index and the photo it touched; changed=false leaves everything as is.
type command struct {
	ctx   context.Context
	kind  string
	apply func(cur []models.Photo) (next []models.Photo, photo models.Photo, changed bool)
	// persist is false only for the initial load.
	persist bool
	reply   chan error
}

// Store owns the photo index.
//
// Concurrency model: a single loop goroutine owns the index and is the only
// writer of the persisted copy. Mutations are queued on a channel and applied
// in issue order; each one is committed only after its persisted write
// succeeded. Readers use the published snapshot.
type Store struct {
	mode   platform.Mode
	camera camera.Camera
	files  storage.Provider
	kv     prefs.Store

	client   *http.Client
	logger   *slog.Logger
	listener Listener
	now      func() time.Time

	rehydrate rehydrator
	persist   persister

	snapshot atomic.Pointer[[]models.Photo]

	initializing atomic.Bool
	loaded       atomic.Bool

	cmds    chan command
	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// New creates a Store for mode and starts its loop. The index is empty until
// Initialize is called.
func New(mode platform.Mode, cam camera.Camera, files storage.Provider, kv prefs.Store, opts ...Option) *Store {
	s := &Store{
		mode:    mode,
		camera:  cam,
		files:   files,
		kv:      kv,
		client:  http.DefaultClient,
		logger:  slog.Default(),
		now:     time.Now,
		cmds:    make(chan command),
		stopCh:  make(chan struct{}),
		stopped: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	if mode.IsNative() {
		s.rehydrate = nativeRehydrator{}
		s.persist = nativePersister{files: files}
	} else {
		s.rehydrate = webRehydrator{files: files, logger: s.logger}
		s.persist = webPersister{files: files, client: s.client}
	}

	empty := []models.Photo{}
	s.snapshot.Store(&empty)

	go s.run()
	return s
}

// Mode returns the runtime mode the store was built for.
func (s *Store) Mode() platform.Mode {
	return s.mode
}

// Snapshot returns a copy of the current index, newest first.
func (s *Store) Snapshot() []models.Photo {
	cur := *s.snapshot.Load()
	out := make([]models.Photo, len(cur))
	copy(out, cur)
	return out
}

// Close stops the store loop. Pending operations fail with ErrClosed.
func (s *Store) Close() {
	if s.closed.CompareAndSwap(false, true) {
		close(s.stopCh)
	}
	<-s.stopped
}

// Initialize loads the persisted index and publishes it. In web mode every
// entry is rehydrated from the file store; an entry that cannot be read keeps
// an empty display path. Load failures are logged and leave an empty index.
//
// Initialize may be called once. Capture and Delete fail with
// ErrNotInitialized until it has completed.
func (s *Store) Initialize(ctx context.Context) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if !s.initializing.CompareAndSwap(false, true) {
		return ErrInitialized
	}

	photos, err := s.loadIndex(ctx)
	if err != nil {
		s.logger.Error("failed to load saved photos", slog.String("error", err.Error()))
		photos = []models.Photo{}
	}
	photos = s.rehydrate.rehydrate(ctx, photos)

	s.logger.Info("gallery initialized",
		slog.String("mode", s.mode.String()),
		slog.Int("photos", len(photos)))

	err = s.submit(ctx, command{
		kind: kindLoad,
		apply: func([]models.Photo) ([]models.Photo, models.Photo, bool) {
			return photos, models.Photo{}, true
		},
	})
	if err != nil {
		s.initializing.Store(false)
	}
	return err
}

// ready reports whether mutations can be issued.
func (s *Store) ready() error {
	if s.closed.Load() {
		return ErrClosed
	}
	if !s.loaded.Load() {
		return ErrNotInitialized
	}
	return nil
}

// indexed reports whether storagePath is in the published index.
func (s *Store) indexed(storagePath string) bool {
	for _, p := range *s.snapshot.Load() {
		if p.StoragePath == storagePath {
			return true
		}
	}
	return false
}

// Capture takes a photo with the camera, stores its bytes under a generated
// name and prepends it to the index. On any failure the index is unchanged.
func (s *Store) Capture(ctx context.Context) (models.Photo, error) {
	if err := s.ready(); err != nil {
		return models.Photo{}, err
	}
	h, err := s.camera.Capture(ctx)
	if err != nil {
		if !errors.Is(err, apperr.ErrCapture) {
			err = fmt.Errorf("%w: %v", apperr.ErrCapture, err)
		}
		return models.Photo{}, err
	}
	defer h.Release()

	name := fileName(s.now())
	photo, err := s.Persist(ctx, h, name)
	if err != nil {
		s.logger.Error("failed to save picture", slog.String("name", name), slog.String("error", err.Error()))
		return models.Photo{}, err
	}

	err = s.submit(ctx, command{
		kind:    EventCaptured,
		persist: true,
		apply: func(cur []models.Photo) ([]models.Photo, models.Photo, bool) {
			next := make([]models.Photo, 0, len(cur)+1)
			next = append(next, photo)
			next = append(next, cur...)
			return next, photo, true
		},
	})
	if err != nil {
		// Nothing references the file any more.
		if delErr := s.files.Delete(ctx, photo.StoragePath, storage.DirectoryData); delErr != nil {
			s.logger.Warn("failed to remove orphaned photo",
				slog.String("path", photo.StoragePath),
				slog.String("error", delErr.Error()))
		}
		return models.Photo{}, err
	}

	s.logger.Info("photo captured", slog.String("path", photo.StoragePath))
	return photo, nil
}

// Persist copies the captured bytes behind h into the data directory under
// name and returns the finalized photo for the store's mode.
func (s *Store) Persist(ctx context.Context, h *camera.Handle, name string) (models.Photo, error) {
	return s.persist.persist(ctx, h, name)
}

// Delete removes the photo stored at storagePath. A file that no longer exists
// is not an error. A path that is not in the index is a no-op; files the
// gallery does not track are never touched.
func (s *Store) Delete(ctx context.Context, storagePath string) error {
	if err := s.ready(); err != nil {
		return err
	}
	if !s.indexed(storagePath) {
		s.logger.Debug("photo not in gallery", slog.String("path", storagePath))
		return nil
	}

	err := s.files.Delete(ctx, storagePath, storage.DirectoryData)
	switch {
	case err == nil:
	case errors.Is(err, os.ErrNotExist):
		s.logger.Debug("photo file already gone", slog.String("path", storagePath))
	default:
		return fmt.Errorf("%w: delete %s: %v", apperr.ErrWrite, storagePath, err)
	}

	err = s.submit(ctx, command{
		kind:    EventDeleted,
		persist: true,
		apply: func(cur []models.Photo) ([]models.Photo, models.Photo, bool) {
			for i, p := range cur {
				if p.StoragePath != storagePath {
					continue
				}
				next := make([]models.Photo, 0, len(cur)-1)
				next = append(next, cur[:i]...)
				next = append(next, cur[i+1:]...)
				return next, p, true
			}
			return cur, models.Photo{}, false
		},
	})
	if err != nil {
		return err
	}
	s.logger.Info("photo deleted", slog.String("path", storagePath))
	return nil
}

// submit hands cmd to the loop and waits for it to be applied.
func (s *Store) submit(ctx context.Context, cmd command) error {
	if s.closed.Load() {
		return ErrClosed
	}
	cmd.ctx = ctx
	cmd.reply = make(chan error, 1)

	select {
	case s.cmds <- cmd:
	case <-ctx.Done():
		return ctx.Err()
	case <-s.stopped:
		return ErrClosed
	}

	// Once queued the command runs to completion; there is no abort.
	select {
	case err := <-cmd.reply:
		return err
	case <-s.stopped:
		return ErrClosed
	}
}

func (s *Store) run() {
	defer close(s.stopped)

	cur := []models.Photo{}
	for {
		select {
		case <-s.stopCh:
			return

		case cmd := <-s.cmds:
			if cmd.kind != kindLoad && !s.loaded.Load() {
				cmd.reply <- ErrNotInitialized
				continue
			}
			next, photo, changed := cmd.apply(cur)
			if !changed {
				cmd.reply <- nil
				continue
			}
			if cmd.persist {
				if err := s.writeIndex(cmd.ctx, next); err != nil {
					cmd.reply <- err
					continue
				}
			}
			cur = next
			s.snapshot.Store(&next)
			if cmd.kind == kindLoad {
				s.loaded.Store(true)
			}
			if s.listener != nil && cmd.persist {
				s.listener(cmd.kind, photo)
			}
			cmd.reply <- nil
		}
	}
}

func (s *Store) loadIndex(ctx context.Context) ([]models.Photo, error) {
	value, ok, err := s.kv.Get(ctx, IndexKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrIndexLoad, err)
	}
	if !ok || value == "" {
		return []models.Photo{}, nil
	}
	var photos []models.Photo
	if err := json.Unmarshal([]byte(value), &photos); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrIndexLoad, err)
	}
	if photos == nil {
		photos = []models.Photo{}
	}
	return photos, nil
}

func (s *Store) writeIndex(ctx context.Context, photos []models.Photo) error {
	data, err := json.Marshal(s.rehydrate.persisted(photos))
	if err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrIndexWrite, err)
	}
	if err := s.kv.Set(ctx, IndexKey, string(data)); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrIndexWrite, err)
	}
	return nil
}
