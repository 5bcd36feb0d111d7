package camera

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// BlobRoute is the route pattern Blobs is served under.
const BlobRoute = "/blobs/{id}"

type blob struct {
	data        []byte
	contentType string
	expires     time.Time
}

// Blobs holds short-lived in-memory image data addressable by URL, the way a
// browser hands out object URLs for camera output.
type Blobs struct {
	ttl time.Duration
	now func() time.Time

	mu    sync.Mutex
	items map[string]blob
}

// NewBlobs creates a registry whose entries expire after ttl.
func NewBlobs(ttl time.Duration) *Blobs {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Blobs{
		ttl:   ttl,
		now:   time.Now,
		items: make(map[string]blob),
	}
}

// Add stores data and returns its id.
func (b *Blobs) Add(data []byte, contentType string) string {
	id := uuid.New().String()
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items[id] = blob{data: data, contentType: contentType, expires: b.now().Add(b.ttl)}
	return id
}

// Revoke drops the blob with id.
func (b *Blobs) Revoke(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.items, id)
}

// Len returns the number of live blobs.
func (b *Blobs) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}

func (b *Blobs) get(id string) (blob, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	item, ok := b.items[id]
	if !ok {
		return blob{}, false
	}
	if b.now().After(item.expires) {
		delete(b.items, id)
		return blob{}, false
	}
	return item, true
}

// Sweep removes expired blobs and returns how many were dropped.
func (b *Blobs) Sweep() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := b.now()
	n := 0
	for id, item := range b.items {
		if now.After(item.expires) {
			delete(b.items, id)
			n++
		}
	}
	return n
}

// Run sweeps expired blobs every interval until ctx is cancelled.
func (b *Blobs) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.Sweep()
		}
	}
}

// ServeHTTP handles GET /blobs/{id}.
func (b *Blobs) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	item, ok := b.get(chi.URLParam(r, "id"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	ct := item.contentType
	if ct == "" {
		ct = http.DetectContentType(item.data)
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set("Content-Length", strconv.Itoa(len(item.data)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(item.data)
}
