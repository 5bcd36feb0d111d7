// Package models defines the domain types for the gallery.
package models

import "time"

// Photo is one captured image known to the gallery.
//
// StoragePath identifies the file in the file store: a full file URI in native
// mode, a bare generated file name in web mode. DisplayPath is a renderable
// reference and is empty only when rehydration failed for the entry.
type Photo struct {
	StoragePath string     `json:"filepath"`
	DisplayPath string     `json:"webviewPath,omitempty"`
	TakenAt     *time.Time `json:"takenAt,omitempty"`
}

// HasDisplay reports whether the photo can be rendered.
func (p Photo) HasDisplay() bool {
	return p.DisplayPath != ""
}
