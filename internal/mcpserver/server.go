// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes gallery tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/shutter/internal/apperr"
	"github.com/starford/shutter/internal/camera"
	"github.com/starford/shutter/internal/models"
)

const galleryURI = "shutter://gallery"

// Gallery is the photo store as seen by MCP tools.
type Gallery interface {
	Snapshot() []models.Photo
	Capture(ctx context.Context) (models.Photo, error)
	Delete(ctx context.Context, storagePath string) error
}

// Server wraps the MCP server with gallery tools.
type Server struct {
	mcp     *server.MCPServer
	gallery Gallery
	fetch   func(ctx context.Context, rawURL string) ([]byte, error)
}

// New creates a new MCP server with all gallery tools registered.
func New(g Gallery) *Server {
	s := &Server{gallery: g, fetch: fetchHTTP}

	s.mcp = server.NewMCPServer(
		"Shutter",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_photos",
		mcp.WithDescription("List captured photos, newest first. Display paths are omitted; use filepath to refer to a photo."),
	), s.listPhotos)

	s.mcp.AddTool(mcp.NewTool("capture_photo",
		mcp.WithDescription("Add a JPEG photo to the gallery. Supply either 'image' (base64 or a data:image/jpeg;base64 URI) or 'url' (http/https)."),
		mcp.WithString("image", mcp.Description("Base64 JPEG data or data URI")),
		mcp.WithString("url", mcp.Description("Public http/https URL of a JPEG image")),
	), s.capturePhoto)

	s.mcp.AddTool(mcp.NewTool("delete_photo",
		mcp.WithDescription("Delete a photo by its filepath. Deleting an unknown photo succeeds."),
		mcp.WithString("filepath", mcp.Required(), mcp.Description("The photo's filepath as returned by list_photos")),
	), s.deletePhoto)

	s.mcp.AddResource(
		mcp.NewResource(galleryURI, "Photo Gallery",
			mcp.WithResourceDescription("The gallery index as a JSON array of {filepath, takenAt}."),
			mcp.WithMIMEType("application/json"),
		),
		s.readGalleryResource,
	)

	return s
}

// Listen serves MCP over the given streams until ctx is cancelled or in is
// exhausted.
func (s *Server) Listen(ctx context.Context, in io.Reader, out io.Writer) error {
	return server.NewStdioServer(s.mcp).Listen(ctx, in, out)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

type photoSummary struct {
	FilePath string `json:"filepath"`
	TakenAt  string `json:"takenAt,omitempty"`
}

func summarize(photos []models.Photo) []photoSummary {
	out := make([]photoSummary, len(photos))
	for i, p := range photos {
		out[i] = photoSummary{FilePath: p.StoragePath}
		if p.TakenAt != nil {
			out[i].TakenAt = p.TakenAt.Format("2006-01-02T15:04:05Z07:00")
		}
	}
	return out
}

func (s *Server) listPhotos(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out, _ := json.MarshalIndent(summarize(s.gallery.Snapshot()), "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) capturePhoto(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var (
		data []byte
		err  error
	)
	if image, imgErr := req.RequireString("image"); imgErr == nil && image != "" {
		data, err = decodeImage(image)
	} else if rawURL, urlErr := req.RequireString("url"); urlErr == nil && rawURL != "" {
		data, err = s.fetch(ctx, rawURL)
	} else {
		return mcp.NewToolResultError("one of 'image' or 'url' is required"), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := validateJPEG(data); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	photo, err := s.gallery.Capture(camera.WithShot(ctx, camera.Shot{Data: data, ContentType: "image/jpeg"}))
	if err != nil {
		if errors.Is(err, apperr.ErrCapture) {
			return mcp.NewToolResultError("capture cancelled or camera unavailable"), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("failed to save photo: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("captured: %s", photo.StoragePath)), nil
}

func (s *Server) deletePhoto(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("filepath")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.gallery.Delete(ctx, path); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted: %s", path)), nil
}

func (s *Server) readGalleryResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	out, err := json.Marshal(summarize(s.gallery.Snapshot()))
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      galleryURI,
			MIMEType: "application/json",
			Text:     string(out),
		},
	}, nil
}
