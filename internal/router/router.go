package router

import (
	"net/http"

	"github.com/landscaipe/contractor-portal/internal/auth"
	"github.com/landscaipe/contractor-portal/internal/handlers"
	"github.com/landscaipe/contractor-portal/internal/middleware"
)

// Config carries the handlers and middleware the router mounts.
type Config struct {
	Auth    *auth.Handler
	Leads   *handlers.LeadHandler
	Profile *handlers.ProfileHandler
	Photos  *handlers.PhotoHandler
	Billing *handlers.BillingHandler
	Admin   *handlers.AdminHandler
	Public  *handlers.PublicHandler

	// AuthMW authenticates and loads the contractor; SweepMW runs the lazy
	// hold-expiry pass. Chain order: auth -> sweep -> handler.
	AuthMW  func(http.Handler) http.Handler
	SweepMW func(http.Handler) http.Handler
}

// New returns the http.Handler serving the API under /api.
func New(cfg Config) http.Handler {
	mux := http.NewServeMux()

	authed := func(h http.HandlerFunc) http.Handler {
		return cfg.AuthMW(cfg.SweepMW(h))
	}
	admin := func(h http.HandlerFunc) http.Handler {
		return cfg.AuthMW(middleware.AdminOnly(cfg.SweepMW(h)))
	}

	// Public.
	mux.HandleFunc("POST /api/auth/register", cfg.Auth.Register)
	mux.HandleFunc("POST /api/auth/login", cfg.Auth.Login)
	mux.HandleFunc("POST /api/auth/logout", cfg.Auth.Logout)
	mux.HandleFunc("GET /api/health", healthCheck)
	mux.HandleFunc("GET /api/contractors/{id}/card", cfg.Public.ContractorCard)

	// Leads.
	mux.Handle("GET /api/leads", authed(cfg.Leads.ListLeads))
	mux.Handle("GET /api/leads/{id}", authed(cfg.Leads.GetLead))
	mux.Handle("POST /api/leads/{id}/hold", authed(cfg.Leads.Hold))
	mux.Handle("POST /api/leads/{id}/withdraw", authed(cfg.Leads.Withdraw))
	mux.Handle("GET /api/leads/{id}/questions", authed(cfg.Leads.ListQuestions))
	mux.Handle("POST /api/leads/{id}/questions", authed(cfg.Leads.AskQuestion))

	// Own profile, credits, photos.
	mux.Handle("GET /api/me", authed(cfg.Profile.Me))
	mux.Handle("PUT /api/me", authed(cfg.Profile.UpdateMe))
	mux.Handle("GET /api/me/credits", authed(cfg.Profile.CreditSummary))
	mux.Handle("GET /api/me/ledger", authed(cfg.Profile.ListLedger))
	mux.Handle("GET /api/me/interests", authed(cfg.Profile.ListInterests))
	mux.Handle("GET /api/me/photos", authed(cfg.Photos.List))
	mux.Handle("POST /api/me/photos", authed(cfg.Photos.Add))
	mux.Handle("DELETE /api/me/photos/{id}", authed(cfg.Photos.Delete))
	mux.Handle("POST /api/me/photos/{id}/feature", authed(cfg.Photos.SetFeatured))
	mux.Handle("POST /api/me/photos/{id}/move", authed(cfg.Photos.Move))

	// Billing (stub checkout).
	mux.Handle("GET /api/billing/plans", authed(cfg.Billing.ListPlans))
	mux.Handle("POST /api/billing/checkout", authed(cfg.Billing.Checkout))

	// Admin.
	mux.Handle("POST /api/admin/homeowners", admin(cfg.Admin.CreateHomeowner))
	mux.Handle("POST /api/admin/leads", admin(cfg.Admin.CreateLead))
	mux.Handle("GET /api/admin/leads", admin(cfg.Admin.ListLeads))
	mux.Handle("POST /api/admin/leads/{id}/accept", admin(cfg.Admin.AcceptLead))
	mux.Handle("POST /api/admin/leads/{id}/spam", admin(cfg.Admin.MarkSpam))
	mux.Handle("POST /api/admin/leads/{id}/reset", admin(cfg.Admin.ResetLead))
	mux.Handle("POST /api/admin/contractors/{id}/credits", admin(cfg.Admin.AdjustCredits))
	mux.Handle("GET /api/admin/contractors", admin(cfg.Admin.ListContractors))
	mux.Handle("GET /api/admin/audit", admin(cfg.Admin.ListAudit))
	mux.Handle("POST /api/admin/sweep", admin(cfg.Admin.Sweep))

	return mux
}

func healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
