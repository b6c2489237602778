package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/landscaipe/contractor-portal/internal/middleware"
	"github.com/landscaipe/contractor-portal/internal/models"
	"github.com/landscaipe/contractor-portal/internal/services"
)

// AdminEngine is the reservation engine surface the admin endpoints use.
type AdminEngine interface {
	Accept(ctx context.Context, leadID, contractorID uuid.UUID) (*models.Interest, error)
	MarkSpam(ctx context.Context, leadID uuid.UUID) error
	Reset(ctx context.Context, leadID uuid.UUID) error
	ExpireDue(ctx context.Context) (int64, error)
}

// AuditLog records and lists admin actions.
type AuditLog interface {
	Create(ctx context.Context, e *models.AuditEvent) error
	ListRecent(ctx context.Context, limit int) ([]*models.AuditEvent, error)
}

// ContractorDirectory is the contractor access the admin endpoints need.
type ContractorDirectory interface {
	List(ctx context.Context) ([]*models.Contractor, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Contractor, error)
}

// HomeownerDirectory is the homeowner access the intake endpoints need.
type HomeownerDirectory interface {
	Create(ctx context.Context, h *models.Homeowner) error
	GetByEmail(ctx context.Context, email string) (*models.Homeowner, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Homeowner, error)
}

// LeadLister returns every lead regardless of state.
type LeadLister interface {
	List(ctx context.Context) ([]*models.Lead, error)
}

// AdminHandler serves /api/admin endpoints. Every route is behind the
// AdminOnly middleware; the handler trusts the contractor in context.
type AdminHandler struct {
	Engine      AdminEngine
	Intake      *services.IntakeService
	Ledger      LedgerAppender
	Audit       AuditLog
	Contractors ContractorDirectory
	Homeowners  HomeownerDirectory
	Leads       LeadLister
	Logger      *slog.Logger
}

// --- POST /api/admin/homeowners ---

type createHomeownerRequest struct {
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Zip         string `json:"zip"`
}

func (h *AdminHandler) CreateHomeowner(w http.ResponseWriter, r *http.Request) {
	var req createHomeownerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	if req.DisplayName == "" || req.Zip == "" {
		http.Error(w, `{"error":"display_name and zip are required"}`, http.StatusBadRequest)
		return
	}
	// Create-or-reuse keyed on email: repeat intakes for the same
	// homeowner attach to the existing record.
	if req.Email != "" {
		existing, err := h.Homeowners.GetByEmail(r.Context(), req.Email)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			h.Logger.Error("lookup homeowner", "error", err)
			http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
			return
		}
		if existing != nil {
			writeJSON(w, http.StatusOK, existing)
			return
		}
	}
	owner := &models.Homeowner{
		ID:          uuid.New(),
		DisplayName: req.DisplayName,
		Email:       req.Email,
		Phone:       req.Phone,
		Zip:         req.Zip,
	}
	if err := h.Homeowners.Create(r.Context(), owner); err != nil {
		h.Logger.Error("create homeowner", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, owner)
}

// --- POST /api/admin/leads ---

func (h *AdminHandler) CreateLead(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, `{"error":"failed to read body"}`, http.StatusBadRequest)
		return
	}
	lead, err := h.Intake.Create(r.Context(), raw)
	if err != nil {
		respondEngineError(w, h.Logger, "create lead", err)
		return
	}
	writeJSON(w, http.StatusCreated, lead)
}

// --- GET /api/admin/leads ---

type adminLeadView struct {
	*models.Lead
	Homeowner *models.Homeowner `json:"homeowner,omitempty"`
}

// ListLeads returns every lead with its homeowner attached. A missing
// homeowner row leaves the field null rather than failing the listing.
func (h *AdminHandler) ListLeads(w http.ResponseWriter, r *http.Request) {
	leads, err := h.Leads.List(r.Context())
	if err != nil {
		h.Logger.Error("list leads", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	out := make([]adminLeadView, 0, len(leads))
	owners := map[uuid.UUID]*models.Homeowner{}
	for _, lead := range leads {
		owner, cached := owners[lead.HomeownerID]
		if !cached {
			owner, err = h.Homeowners.GetByID(r.Context(), lead.HomeownerID)
			if err != nil {
				if !errors.Is(err, pgx.ErrNoRows) {
					h.Logger.Error("lookup homeowner", "lead_id", lead.ID, "error", err)
				}
				owner = nil
			}
			owners[lead.HomeownerID] = owner
		}
		out = append(out, adminLeadView{Lead: lead, Homeowner: owner})
	}
	writeJSON(w, http.StatusOK, out)
}

// --- POST /api/admin/leads/{id}/accept ---

type acceptRequest struct {
	ContractorID string `json:"contractor_id"`
}

func (h *AdminHandler) AcceptLead(w http.ResponseWriter, r *http.Request) {
	actor := middleware.ContractorFromCtx(r.Context())
	leadID, ok := pathUUID(r, "id")
	if !ok {
		http.Error(w, `{"error":"invalid lead id"}`, http.StatusBadRequest)
		return
	}
	var req acceptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	contractorID, err := uuid.Parse(req.ContractorID)
	if err != nil {
		http.Error(w, `{"error":"invalid contractor_id"}`, http.StatusBadRequest)
		return
	}
	li, err := h.Engine.Accept(r.Context(), leadID, contractorID)
	if err != nil {
		respondEngineError(w, h.Logger, "accept lead", err)
		return
	}
	h.audit(r.Context(), models.AuditAdminForceAccept, actor.ID, &contractorID, &leadID, nil)
	writeJSON(w, http.StatusOK, li)
}

// --- POST /api/admin/leads/{id}/spam ---

func (h *AdminHandler) MarkSpam(w http.ResponseWriter, r *http.Request) {
	actor := middleware.ContractorFromCtx(r.Context())
	leadID, ok := pathUUID(r, "id")
	if !ok {
		http.Error(w, `{"error":"invalid lead id"}`, http.StatusBadRequest)
		return
	}
	if err := h.Engine.MarkSpam(r.Context(), leadID); err != nil {
		respondEngineError(w, h.Logger, "mark spam", err)
		return
	}
	h.audit(r.Context(), models.AuditAdminMarkSpam, actor.ID, nil, &leadID, nil)
	writeJSON(w, http.StatusOK, map[string]string{"status": models.LeadStatusSpam})
}

// --- POST /api/admin/leads/{id}/reset ---

func (h *AdminHandler) ResetLead(w http.ResponseWriter, r *http.Request) {
	actor := middleware.ContractorFromCtx(r.Context())
	leadID, ok := pathUUID(r, "id")
	if !ok {
		http.Error(w, `{"error":"invalid lead id"}`, http.StatusBadRequest)
		return
	}
	if err := h.Engine.Reset(r.Context(), leadID); err != nil {
		respondEngineError(w, h.Logger, "reset lead", err)
		return
	}
	h.audit(r.Context(), models.AuditAdminResetLead, actor.ID, nil, &leadID, nil)
	writeJSON(w, http.StatusOK, map[string]string{"status": models.LeadStatusOpen})
}

// --- POST /api/admin/contractors/{id}/credits ---

// maxCreditAdjustment bounds a single manual grant or clawback.
const maxCreditAdjustment = 1000

type adjustCreditsRequest struct {
	Delta int    `json:"delta"`
	Note  string `json:"note"`
}

func (h *AdminHandler) AdjustCredits(w http.ResponseWriter, r *http.Request) {
	actor := middleware.ContractorFromCtx(r.Context())
	contractorID, ok := pathUUID(r, "id")
	if !ok {
		http.Error(w, `{"error":"invalid contractor id"}`, http.StatusBadRequest)
		return
	}
	var req adjustCreditsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	if req.Delta == 0 {
		http.Error(w, `{"error":"delta must be non-zero"}`, http.StatusBadRequest)
		return
	}
	if req.Delta > maxCreditAdjustment || req.Delta < -maxCreditAdjustment {
		http.Error(w, `{"error":"delta must be between -1000 and 1000"}`, http.StatusBadRequest)
		return
	}
	if _, err := h.Contractors.GetByID(r.Context(), contractorID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			http.Error(w, `{"error":"contractor not found"}`, http.StatusNotFound)
			return
		}
		h.Logger.Error("adjust credits", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	entry := &models.CreditEntry{
		ID:           uuid.New(),
		ContractorID: contractorID,
		EntryType:    models.CreditEntryAdminAdjustment,
		Delta:        req.Delta,
	}
	if req.Note != "" {
		entry.Note = &req.Note
	}
	if err := h.Ledger.Create(r.Context(), entry); err != nil {
		h.Logger.Error("adjust credits", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	h.audit(r.Context(), models.AuditAdminAddCredits, actor.ID, &contractorID, nil, &req.Delta)
	writeJSON(w, http.StatusCreated, entry)
}

// --- GET /api/admin/contractors ---

func (h *AdminHandler) ListContractors(w http.ResponseWriter, r *http.Request) {
	contractors, err := h.Contractors.List(r.Context())
	if err != nil {
		h.Logger.Error("list contractors", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	if contractors == nil {
		contractors = []*models.Contractor{}
	}
	writeJSON(w, http.StatusOK, contractors)
}

// --- GET /api/admin/audit ---

func (h *AdminHandler) ListAudit(w http.ResponseWriter, r *http.Request) {
	events, err := h.Audit.ListRecent(r.Context(), 200)
	if err != nil {
		h.Logger.Error("list audit", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	if events == nil {
		events = []*models.AuditEvent{}
	}
	writeJSON(w, http.StatusOK, events)
}

// --- POST /api/admin/sweep ---

// Sweep runs the hold-expiry pass on demand, in addition to the lazy
// trigger and the periodic job.
func (h *AdminHandler) Sweep(w http.ResponseWriter, r *http.Request) {
	n, err := h.Engine.ExpireDue(r.Context())
	if err != nil {
		h.Logger.Error("sweep", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"expired": n})
}

// audit records the admin action; failures are logged, never surfaced.
func (h *AdminHandler) audit(ctx context.Context, eventType string, actorID uuid.UUID, target, leadID *uuid.UUID, amount *int) {
	err := h.Audit.Create(ctx, &models.AuditEvent{
		ID:                 uuid.New(),
		EventType:          eventType,
		ActorID:            actorID,
		TargetContractorID: target,
		LeadID:             leadID,
		Amount:             amount,
	})
	if err != nil {
		h.Logger.Error("audit write failed", "event_type", eventType, "error", err)
	}
}
