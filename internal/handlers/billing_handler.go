package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/landscaipe/contractor-portal/internal/middleware"
	"github.com/landscaipe/contractor-portal/internal/models"
)

// planInfo describes one purchasable plan. Checkout is a stub: no payment
// processor is wired, credits are granted immediately.
type planInfo struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	PriceCents      int    `json:"price_cents"`
	CreditsIncluded int    `json:"credits_included"`
}

// maxPurchaseQuantity bounds a single pay-as-you-go purchase.
const maxPurchaseQuantity = 1000

var plans = []planInfo{
	{ID: models.PlanPayAsYouGo, Name: "Pay as you go", PriceCents: 8000, CreditsIncluded: 0},
	{ID: models.PlanPro100, Name: "Pro 100", PriceCents: 10000, CreditsIncluded: 15},
	{ID: models.PlanPro250, Name: "Pro 250", PriceCents: 25000, CreditsIncluded: 45},
}

// PlanUpdater persists a contractor's plan choice.
type PlanUpdater interface {
	UpdatePlan(ctx context.Context, id uuid.UUID, plan string) error
}

// LedgerAppender appends a ledger entry outside any transaction.
type LedgerAppender interface {
	Create(ctx context.Context, e *models.CreditEntry) error
}

// BillingHandler serves /api/billing endpoints.
type BillingHandler struct {
	Contractors PlanUpdater
	Ledger      LedgerAppender
	Logger      *slog.Logger
}

// --- GET /api/billing/plans ---

func (h *BillingHandler) ListPlans(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, plans)
}

// --- POST /api/billing/checkout ---

type checkoutRequest struct {
	Plan     string `json:"plan"`
	Quantity int    `json:"quantity"`
}

type checkoutResponse struct {
	Plan           string `json:"plan"`
	CreditsGranted int    `json:"credits_granted"`
}

// Checkout is the stub purchase flow: it records the plan, grants the
// plan's credits through a purchase ledger entry, and returns what it
// granted. Pay-as-you-go requires an explicit quantity.
func (h *BillingHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	contractor := middleware.ContractorFromCtx(r.Context())
	if contractor == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}

	var plan *planInfo
	for i := range plans {
		if plans[i].ID == req.Plan {
			plan = &plans[i]
			break
		}
	}
	if plan == nil {
		http.Error(w, `{"error":"unknown plan"}`, http.StatusBadRequest)
		return
	}

	credits := plan.CreditsIncluded
	if plan.ID == models.PlanPayAsYouGo {
		if req.Quantity < 1 || req.Quantity > maxPurchaseQuantity {
			http.Error(w, `{"error":"quantity must be between 1 and 1000"}`, http.StatusBadRequest)
			return
		}
		credits = req.Quantity
	}

	if err := h.Contractors.UpdatePlan(r.Context(), contractor.ID, plan.ID); err != nil {
		h.Logger.Error("update plan", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	note := fmt.Sprintf("Checkout: %s", plan.Name)
	if err := h.Ledger.Create(r.Context(), &models.CreditEntry{
		ID:           uuid.New(),
		ContractorID: contractor.ID,
		EntryType:    models.CreditEntryPurchase,
		Delta:        credits,
		Note:         &note,
	}); err != nil {
		h.Logger.Error("record purchase", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	h.Logger.Info("checkout completed", "contractor_id", contractor.ID, "plan", plan.ID, "credits", credits)
	writeJSON(w, http.StatusOK, checkoutResponse{Plan: plan.ID, CreditsGranted: credits})
}
