package gallery

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/starford/shutter/internal/apperr"
	"github.com/starford/shutter/internal/camera"
	"github.com/starford/shutter/internal/models"
	"github.com/starford/shutter/internal/storage"
)

// dataURIPrefix is prepended to base64 photo bytes in web mode. Content is
// assumed to be JPEG and is never sniffed.
const dataURIPrefix = "data:image/jpeg;base64,"

const maxPhotoBytes = 50 << 20 // 50 MB

// rehydrator turns persisted entries into renderable ones at startup.
type rehydrator interface {
	rehydrate(ctx context.Context, photos []models.Photo) []models.Photo
	// persisted returns the form of photos written to the preferences store.
	// It keeps every storage path in order; only derived display data may be dropped.
	persisted(photos []models.Photo) []models.Photo
}

// persister moves captured bytes into the data directory.
type persister interface {
	persist(ctx context.Context, h *camera.Handle, name string) (models.Photo, error)
}

// nativeRehydrator trusts persisted entries: their display paths are file
// routes the renderer can load directly.
type nativeRehydrator struct{}

func (nativeRehydrator) rehydrate(_ context.Context, photos []models.Photo) []models.Photo {
	return photos
}

func (nativeRehydrator) persisted(photos []models.Photo) []models.Photo {
	return photos
}

// webRehydrator inlines every photo as a data URI read from the file store.
type webRehydrator struct {
	files  storage.Provider
	logger *slog.Logger
}

func (r webRehydrator) rehydrate(ctx context.Context, photos []models.Photo) []models.Photo {
	for i := range photos {
		data, err := r.files.Read(ctx, photos[i].StoragePath, storage.DirectoryData)
		if err != nil {
			r.logger.Error("failed to read file",
				slog.String("path", photos[i].StoragePath),
				slog.String("error", err.Error()))
			photos[i].DisplayPath = ""
			continue
		}
		photos[i].DisplayPath = dataURI(data)
		if photos[i].TakenAt == nil {
			photos[i].TakenAt = takenAt(data)
		}
	}
	return photos
}

// persisted drops the data URIs; they are rebuilt from disk on every start.
func (webRehydrator) persisted(photos []models.Photo) []models.Photo {
	out := make([]models.Photo, len(photos))
	for i, p := range photos {
		p.DisplayPath = ""
		out[i] = p
	}
	return out
}

type nativePersister struct {
	files storage.Provider
}

func (p nativePersister) persist(ctx context.Context, h *camera.Handle, name string) (models.Photo, error) {
	if h == nil || h.Path == "" {
		return models.Photo{}, fmt.Errorf("%w: photo path is undefined in native mode", apperr.ErrRead)
	}
	data, err := p.files.Read(ctx, h.Path, storage.DirectoryNone)
	if err != nil {
		return models.Photo{}, fmt.Errorf("%w: %v", apperr.ErrRead, err)
	}
	uri, err := p.files.Write(ctx, name, data, storage.DirectoryData)
	if err != nil {
		return models.Photo{}, fmt.Errorf("%w: %v", apperr.ErrWrite, err)
	}
	return models.Photo{
		StoragePath: uri,
		DisplayPath: storage.ConvertFileSrc(uri),
		TakenAt:     takenAt(data),
	}, nil
}

type webPersister struct {
	files  storage.Provider
	client *http.Client
}

func (p webPersister) persist(ctx context.Context, h *camera.Handle, name string) (models.Photo, error) {
	if h == nil || h.WebPath == "" {
		return models.Photo{}, fmt.Errorf("%w: photo web path is undefined in web mode", apperr.ErrRead)
	}
	data, err := p.fetch(ctx, h.WebPath)
	if err != nil {
		return models.Photo{}, fmt.Errorf("%w: %v", apperr.ErrRead, err)
	}
	if _, err := p.files.Write(ctx, name, data, storage.DirectoryData); err != nil {
		return models.Photo{}, fmt.Errorf("%w: %v", apperr.ErrWrite, err)
	}
	return models.Photo{
		StoragePath: name,
		DisplayPath: dataURI(data),
		TakenAt:     takenAt(data),
	}, nil
}

// fetch reads the blob behind a transient web path.
func (p webPersister) fetch(ctx context.Context, webPath string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, webPath, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", webPath, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", webPath, resp.StatusCode)
	}

	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(resp.Body, maxPhotoBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", webPath, err)
	}
	if n > maxPhotoBytes {
		return nil, fmt.Errorf("fetch %s: photo exceeds %d bytes", webPath, maxPhotoBytes)
	}
	return buf.Bytes(), nil
}

func dataURI(data []byte) string {
	return dataURIPrefix + base64.StdEncoding.EncodeToString(data)
}
