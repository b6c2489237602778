package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/landscaipe/contractor-portal/internal/models"
)

type stubProfileStore struct {
	saved *models.Contractor
}

func (s *stubProfileStore) UpdateProfile(_ context.Context, c *models.Contractor) error {
	s.saved = c
	return nil
}

func activeContractor() *models.Contractor {
	return &models.Contractor{
		ID:          uuid.New(),
		Role:        models.RoleContractor,
		Status:      models.ContractorStatusActive,
		CompanyName: "Evergreen Landscapes",
		ServiceZips: []string{"97202"},
	}
}

func TestUpdateMe_SavesFields(t *testing.T) {
	store := &stubProfileStore{}
	h := &ProfileHandler{Contractors: store, Logger: slog.New(slog.DiscardHandler)}

	body := `{"company_name":"Cedar & Stone","tagline":"Patios done right"}`
	req := authedRequest(http.MethodPut, "/api/me", body, activeContractor())
	rec := serveWithPattern("PUT /api/me", h.UpdateMe, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if store.saved == nil || store.saved.CompanyName != "Cedar & Stone" {
		t.Errorf("expected company name saved, got %+v", store.saved)
	}
	if store.saved.Tagline == nil || *store.saved.Tagline != "Patios done right" {
		t.Errorf("expected tagline saved, got %+v", store.saved.Tagline)
	}
}

func TestUpdateMe_FieldCaps(t *testing.T) {
	longName := strings.Repeat("a", 81)
	longTagline := strings.Repeat("b", 121)
	manyZips := make([]string, 51)
	for i := range manyZips {
		manyZips[i] = "97202"
	}
	zipsJSON, err := json.Marshal(manyZips)
	if err != nil {
		t.Fatalf("marshal zips: %v", err)
	}

	tests := []struct {
		name string
		body string
	}{
		{"empty company name", `{"company_name":""}`},
		{"company name over 80", `{"company_name":"` + longName + `"}`},
		{"owner name over 80", `{"owner_name":"` + longName + `"}`},
		{"tagline over 120", `{"tagline":"` + longTagline + `"}`},
		{"more than 50 zips", `{"service_zips":` + string(zipsJSON) + `}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &stubProfileStore{}
			h := &ProfileHandler{Contractors: store, Logger: slog.New(slog.DiscardHandler)}

			req := authedRequest(http.MethodPut, "/api/me", tt.body, activeContractor())
			rec := serveWithPattern("PUT /api/me", h.UpdateMe, req)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", rec.Code)
			}
			if store.saved != nil {
				t.Error("nothing should be persisted on rejection")
			}
		})
	}
}

func TestUpdateMe_BoundaryLengthsPass(t *testing.T) {
	store := &stubProfileStore{}
	h := &ProfileHandler{Contractors: store, Logger: slog.New(slog.DiscardHandler)}

	body := `{"company_name":"` + strings.Repeat("a", 80) + `","tagline":"` + strings.Repeat("b", 120) + `"}`
	req := authedRequest(http.MethodPut, "/api/me", body, activeContractor())
	rec := serveWithPattern("PUT /api/me", h.UpdateMe, req)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 at exact caps, got %d: %s", rec.Code, rec.Body.String())
	}
}
