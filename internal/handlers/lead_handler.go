package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/landscaipe/contractor-portal/internal/middleware"
	"github.com/landscaipe/contractor-portal/internal/models"
	"github.com/landscaipe/contractor-portal/internal/services"
)

// LeadEngine is the reservation engine surface the lead endpoints use.
type LeadEngine interface {
	Hold(ctx context.Context, contractor *models.Contractor, leadID uuid.UUID) (*models.Interest, error)
	Withdraw(ctx context.Context, contractorID, leadID uuid.UUID) (*models.Interest, error)
	AskQuestion(ctx context.Context, contractor *models.Contractor, leadID uuid.UUID, templateID, extra string) (*models.LeadQuestion, error)
	ListMatchedLeads(ctx context.Context, contractor *models.Contractor) ([]*services.MatchedLead, error)
}

// LeadRepoForHandler is the subset of lead repository needed here.
type LeadRepoForHandler interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Lead, error)
}

// HomeownerLookup resolves the homeowner behind a lead.
type HomeownerLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Homeowner, error)
}

// QuestionLister returns the questions asked on a lead.
type QuestionLister interface {
	ListByLead(ctx context.Context, leadID uuid.UUID) ([]*models.LeadQuestion, error)
}

// LeadHandler serves /api/leads endpoints.
type LeadHandler struct {
	Engine     LeadEngine
	Leads      LeadRepoForHandler
	Homeowners HomeownerLookup
	Questions  QuestionLister
	Logger     *slog.Logger
}

// --- GET /api/leads ---

func (h *LeadHandler) ListLeads(w http.ResponseWriter, r *http.Request) {
	contractor := middleware.ContractorFromCtx(r.Context())
	if contractor == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	feed, err := h.Engine.ListMatchedLeads(r.Context(), contractor)
	if err != nil {
		h.Logger.Error("list leads", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	if feed == nil {
		feed = []*services.MatchedLead{}
	}
	writeJSON(w, http.StatusOK, feed)
}

// --- GET /api/leads/{id} ---

// homeownerView is the homeowner block of a lead detail. Contact details
// stay masked until the lead is assigned to the requesting contractor.
type homeownerView struct {
	DisplayName string `json:"display_name"`
	Zip         string `json:"zip"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
}

type leadDetail struct {
	Lead      *models.Lead   `json:"lead"`
	Homeowner *homeownerView `json:"homeowner,omitempty"`
	FullView  bool           `json:"full_view"`
}

func (h *LeadHandler) GetLead(w http.ResponseWriter, r *http.Request) {
	contractor := middleware.ContractorFromCtx(r.Context())
	if contractor == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	leadID, ok := pathUUID(r, "id")
	if !ok {
		http.Error(w, `{"error":"invalid lead id"}`, http.StatusBadRequest)
		return
	}
	lead, err := h.Leads.GetByID(r.Context(), leadID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			http.Error(w, `{"error":"lead not found"}`, http.StatusNotFound)
			return
		}
		h.Logger.Error("get lead", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	if !services.Matches(contractor, lead) {
		http.Error(w, `{"error":"lead not found"}`, http.StatusNotFound)
		return
	}

	detail := leadDetail{Lead: lead, FullView: fullView(contractor, lead)}
	if owner, err := h.Homeowners.GetByID(r.Context(), lead.HomeownerID); err == nil {
		view := &homeownerView{DisplayName: owner.DisplayName, Zip: owner.Zip}
		if detail.FullView {
			view.Email = owner.Email
			view.Phone = owner.Phone
		}
		detail.Homeowner = view
	}
	writeJSON(w, http.StatusOK, detail)
}

// fullView: admins always; the winning contractor once assigned.
func fullView(contractor *models.Contractor, lead *models.Lead) bool {
	if contractor.IsAdmin() {
		return true
	}
	return lead.Status == models.LeadStatusAssigned &&
		lead.AssignedContractorID != nil &&
		*lead.AssignedContractorID == contractor.ID
}

// --- POST /api/leads/{id}/hold ---

func (h *LeadHandler) Hold(w http.ResponseWriter, r *http.Request) {
	contractor := middleware.ContractorFromCtx(r.Context())
	if contractor == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	leadID, ok := pathUUID(r, "id")
	if !ok {
		http.Error(w, `{"error":"invalid lead id"}`, http.StatusBadRequest)
		return
	}
	li, err := h.Engine.Hold(r.Context(), contractor, leadID)
	if err != nil {
		h.respondEngineError(w, "hold", err)
		return
	}
	writeJSON(w, http.StatusOK, li)
}

// --- POST /api/leads/{id}/withdraw ---

func (h *LeadHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	contractor := middleware.ContractorFromCtx(r.Context())
	if contractor == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	leadID, ok := pathUUID(r, "id")
	if !ok {
		http.Error(w, `{"error":"invalid lead id"}`, http.StatusBadRequest)
		return
	}
	li, err := h.Engine.Withdraw(r.Context(), contractor.ID, leadID)
	if err != nil {
		h.respondEngineError(w, "withdraw", err)
		return
	}
	writeJSON(w, http.StatusOK, li)
}

// --- POST /api/leads/{id}/questions ---

type askQuestionRequest struct {
	TemplateID string `json:"template_id"`
	Extra      string `json:"extra"`
}

func (h *LeadHandler) AskQuestion(w http.ResponseWriter, r *http.Request) {
	contractor := middleware.ContractorFromCtx(r.Context())
	if contractor == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	leadID, ok := pathUUID(r, "id")
	if !ok {
		http.Error(w, `{"error":"invalid lead id"}`, http.StatusBadRequest)
		return
	}
	var req askQuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	q, err := h.Engine.AskQuestion(r.Context(), contractor, leadID, req.TemplateID, req.Extra)
	if err != nil {
		h.respondEngineError(w, "ask question", err)
		return
	}
	writeJSON(w, http.StatusCreated, q)
}

// --- GET /api/leads/{id}/questions ---

func (h *LeadHandler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	contractor := middleware.ContractorFromCtx(r.Context())
	if contractor == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	leadID, ok := pathUUID(r, "id")
	if !ok {
		http.Error(w, `{"error":"invalid lead id"}`, http.StatusBadRequest)
		return
	}
	questions, err := h.Questions.ListByLead(r.Context(), leadID)
	if err != nil {
		h.Logger.Error("list questions", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	if questions == nil {
		questions = []*models.LeadQuestion{}
	}
	writeJSON(w, http.StatusOK, questions)
}

// respondEngineError maps engine sentinels to HTTP statuses.
func (h *LeadHandler) respondEngineError(w http.ResponseWriter, op string, err error) {
	respondEngineError(w, h.Logger, op, err)
}

func respondEngineError(w http.ResponseWriter, logger *slog.Logger, op string, err error) {
	switch {
	case errors.Is(err, services.ErrLeadNotFound),
		errors.Is(err, services.ErrContractorNotFound),
		errors.Is(err, services.ErrInterestNotFound),
		errors.Is(err, services.ErrPhotoNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, services.ErrNotEligible):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": err.Error()})
	case errors.Is(err, services.ErrLeadNotOpen),
		errors.Is(err, services.ErrNoActiveHold),
		errors.Is(err, services.ErrNoHeldInterest),
		errors.Is(err, services.ErrInsufficientCredits),
		errors.Is(err, services.ErrPhotoLimitReached),
		errors.Is(err, services.ErrFeaturedLimitReached),
		errors.Is(err, services.ErrConflict):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, services.ErrValidation):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	default:
		logger.Error(op, "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
	}
}

// --- helpers ---

func pathUUID(r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
