package api

import "github.com/starford/shutter/internal/models"

// Photo is a single gallery entry (aliased from the domain layer).
type Photo = models.Photo

// PhotoListResponse wraps the gallery index.
type PhotoListResponse struct {
	Photos []Photo `json:"photos" validate:"required"`
	Total  int     `json:"total" example:"3" validate:"required"`
	Mode   string  `json:"mode" example:"web" validate:"required"`
}
