package models

import (
	"time"

	"github.com/google/uuid"
)

// Portfolio photo limits per contractor.
const (
	MaxPhotosTotal   = 10
	MaxFeaturedCount = 3
)

// Photo belongs to exactly one contractor. SortOrder values are pairwise
// distinct within a contractor but need not be contiguous.
type Photo struct {
	ID           uuid.UUID `json:"id"`
	ContractorID uuid.UUID `json:"contractor_id"`
	URL          string    `json:"url"`
	ThumbURL     string    `json:"thumb_url"`
	IsFeatured   bool      `json:"is_featured"`
	SortOrder    int       `json:"sort_order"`
	CreatedAt    time.Time `json:"created_at"`
}
