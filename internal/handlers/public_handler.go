package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/landscaipe/contractor-portal/internal/models"
	"github.com/landscaipe/contractor-portal/internal/services"
)

// ContractorGetter resolves a contractor by id.
type ContractorGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Contractor, error)
}

// PublicHandler serves unauthenticated endpoints.
type PublicHandler struct {
	Contractors ContractorGetter
	Photos      *services.PhotoService
	Logger      *slog.Logger
}

// contractorCard is the public share card: profile basics plus the
// featured photos, nothing a competitor could mine.
type contractorCard struct {
	ID              uuid.UUID       `json:"id"`
	CompanyName     string          `json:"company_name"`
	Tagline         *string         `json:"tagline,omitempty"`
	LogoURL         *string         `json:"logo_url,omitempty"`
	YearsInBusiness int             `json:"years_in_business"`
	RatingAvg       *float32        `json:"rating_avg,omitempty"`
	RatingCount     *int            `json:"rating_count,omitempty"`
	ServiceZips     []string        `json:"service_zips"`
	MajorCategories []string        `json:"major_categories"`
	FeaturedPhotos  []*models.Photo `json:"featured_photos"`
}

// --- GET /api/contractors/{id}/card ---

func (h *PublicHandler) ContractorCard(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(r, "id")
	if !ok {
		http.Error(w, `{"error":"invalid contractor id"}`, http.StatusBadRequest)
		return
	}
	c, err := h.Contractors.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			http.Error(w, `{"error":"contractor not found"}`, http.StatusNotFound)
			return
		}
		h.Logger.Error("contractor card", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	if c.Status != models.ContractorStatusActive || c.IsAdmin() {
		http.Error(w, `{"error":"contractor not found"}`, http.StatusNotFound)
		return
	}

	photos, err := h.Photos.List(r.Context(), c.ID)
	if err != nil {
		h.Logger.Error("card photos", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	featured := make([]*models.Photo, 0, models.MaxFeaturedCount)
	for _, p := range photos {
		if p.IsFeatured {
			featured = append(featured, p)
		}
	}

	writeJSON(w, http.StatusOK, contractorCard{
		ID:              c.ID,
		CompanyName:     c.CompanyName,
		Tagline:         c.Tagline,
		LogoURL:         c.LogoURL,
		YearsInBusiness: c.YearsInBusiness,
		RatingAvg:       c.RatingAvg,
		RatingCount:     c.RatingCount,
		ServiceZips:     c.ServiceZips,
		MajorCategories: c.MajorCategories,
		FeaturedPhotos:  featured,
	})
}
