package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/landscaipe/contractor-portal/internal/middleware"
	"github.com/landscaipe/contractor-portal/internal/models"
	"github.com/landscaipe/contractor-portal/internal/services"
)

// ContractorUpdater persists the editable profile fields.
type ContractorUpdater interface {
	UpdateProfile(ctx context.Context, c *models.Contractor) error
}

// LedgerLister returns a contractor's full credit history.
type LedgerLister interface {
	ListByContractor(ctx context.Context, contractorID uuid.UUID) ([]*models.CreditEntry, error)
}

// InterestLister returns a contractor's interests across leads.
type InterestLister interface {
	ListByContractor(ctx context.Context, contractorID uuid.UUID) ([]*models.Interest, error)
}

// ProfileHandler serves the authenticated contractor's own resources.
type ProfileHandler struct {
	Contractors ContractorUpdater
	Credits     *services.CreditService
	Ledger      LedgerLister
	Interests   InterestLister
	Logger      *slog.Logger
}

// --- GET /api/me ---

func (h *ProfileHandler) Me(w http.ResponseWriter, r *http.Request) {
	contractor := middleware.ContractorFromCtx(r.Context())
	if contractor == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, contractor)
}

// --- PUT /api/me ---

// Field caps on the editable profile.
const (
	maxNameLen        = 80
	maxTaglineLen     = 120
	maxServiceZipsLen = 50
)

type updateProfileRequest struct {
	CompanyName     *string  `json:"company_name"`
	OwnerName       *string  `json:"owner_name"`
	Tagline         *string  `json:"tagline"`
	ServiceZips     []string `json:"service_zips"`
	MajorCategories []string `json:"major_categories"`
	SubCategories   []string `json:"sub_categories"`
}

func (h *ProfileHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	contractor := middleware.ContractorFromCtx(r.Context())
	if contractor == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	if req.CompanyName != nil {
		if *req.CompanyName == "" {
			http.Error(w, `{"error":"company_name cannot be empty"}`, http.StatusBadRequest)
			return
		}
		if len(*req.CompanyName) > maxNameLen {
			http.Error(w, `{"error":"company_name exceeds 80 characters"}`, http.StatusBadRequest)
			return
		}
		contractor.CompanyName = *req.CompanyName
	}
	if req.OwnerName != nil {
		if len(*req.OwnerName) > maxNameLen {
			http.Error(w, `{"error":"owner_name exceeds 80 characters"}`, http.StatusBadRequest)
			return
		}
		contractor.OwnerName = *req.OwnerName
	}
	if req.Tagline != nil {
		if len(*req.Tagline) > maxTaglineLen {
			http.Error(w, `{"error":"tagline exceeds 120 characters"}`, http.StatusBadRequest)
			return
		}
		contractor.Tagline = req.Tagline
	}
	if req.ServiceZips != nil {
		if len(req.ServiceZips) > maxServiceZipsLen {
			http.Error(w, `{"error":"too many service zips (max 50)"}`, http.StatusBadRequest)
			return
		}
		contractor.ServiceZips = req.ServiceZips
	}
	if req.MajorCategories != nil {
		contractor.MajorCategories = req.MajorCategories
	}
	if req.SubCategories != nil {
		contractor.SubCategories = req.SubCategories
	}
	if err := h.Contractors.UpdateProfile(r.Context(), contractor); err != nil {
		h.Logger.Error("update profile", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, contractor)
}

// --- GET /api/me/credits ---

func (h *ProfileHandler) CreditSummary(w http.ResponseWriter, r *http.Request) {
	contractor := middleware.ContractorFromCtx(r.Context())
	if contractor == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	summary, err := h.Credits.Summarize(r.Context(), contractor.ID)
	if err != nil {
		h.Logger.Error("credit summary", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// --- GET /api/me/ledger ---

func (h *ProfileHandler) ListLedger(w http.ResponseWriter, r *http.Request) {
	contractor := middleware.ContractorFromCtx(r.Context())
	if contractor == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	entries, err := h.Ledger.ListByContractor(r.Context(), contractor.ID)
	if err != nil {
		h.Logger.Error("list ledger", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []*models.CreditEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// --- GET /api/me/interests ---

func (h *ProfileHandler) ListInterests(w http.ResponseWriter, r *http.Request) {
	contractor := middleware.ContractorFromCtx(r.Context())
	if contractor == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	interests, err := h.Interests.ListByContractor(r.Context(), contractor.ID)
	if err != nil {
		h.Logger.Error("list interests", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	if interests == nil {
		interests = []*models.Interest{}
	}
	writeJSON(w, http.StatusOK, interests)
}
