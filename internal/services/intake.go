package services

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/landscaipe/contractor-portal/internal/models"
)

//go:embed schemas/lead_intake.json
var leadIntakeSchemaJSON string

// LeadIntake is the admin lead-intake command, validated against an embedded
// JSON Schema before any row is written.
type LeadIntake struct {
	HomeownerID     uuid.UUID `json:"homeowner_id"`
	Zip             string    `json:"zip"`
	MajorCategories []string  `json:"major_categories"`
	RequiredTags    []string  `json:"required_tags"`
	BudgetMin       *int      `json:"budget_min"`
	BudgetMax       *int      `json:"budget_max"`
	Vibe            *string   `json:"vibe"`
	ChangeLevel     *string   `json:"change_level"`
	BeforeImageURL  string    `json:"before_image_url"`
}

// IntakeHomeownerRepo resolves the homeowner a new lead belongs to.
type IntakeHomeownerRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Homeowner, error)
}

// IntakeLeadRepo persists validated leads.
type IntakeLeadRepo interface {
	Create(ctx context.Context, lead *models.Lead) error
}

// IntakeService validates raw lead-intake payloads against the schema and
// turns them into open leads.
type IntakeService struct {
	schema     *jsonschema.Schema
	Leads      IntakeLeadRepo
	Homeowners IntakeHomeownerRepo
	Now        func() time.Time
}

func NewIntakeService(leads IntakeLeadRepo, homeowners IntakeHomeownerRepo) (*IntakeService, error) {
	schema, err := jsonschema.CompileString("https://landscaipe.dev/schemas/lead_intake", leadIntakeSchemaJSON)
	if err != nil {
		return nil, fmt.Errorf("compile lead intake schema: %w", err)
	}
	return &IntakeService{
		schema:     schema,
		Leads:      leads,
		Homeowners: homeowners,
		Now:        time.Now,
	}, nil
}

// Validate performs hard reject: the payload must match the lead intake
// schema, and budget_min must not exceed budget_max.
func (s *IntakeService) Validate(raw json.RawMessage) (*LeadIntake, error) {
	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON: %v", ErrValidation, err)
	}
	if err := s.schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	var in LeadIntake
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if in.BudgetMin != nil && in.BudgetMax != nil && *in.BudgetMin > *in.BudgetMax {
		return nil, fmt.Errorf("%w: budget_min exceeds budget_max", ErrValidation)
	}
	return &in, nil
}

// Create validates the payload, confirms the homeowner exists, and opens
// the lead.
func (s *IntakeService) Create(ctx context.Context, raw json.RawMessage) (*models.Lead, error) {
	in, err := s.Validate(raw)
	if err != nil {
		return nil, err
	}
	if _, err := s.Homeowners.GetByID(ctx, in.HomeownerID); err != nil {
		return nil, notFound(err, fmt.Errorf("%w: unknown homeowner", ErrValidation))
	}
	lead := &models.Lead{
		ID:              uuid.New(),
		HomeownerID:     in.HomeownerID,
		Zip:             in.Zip,
		MajorCategories: in.MajorCategories,
		RequiredTags:    in.RequiredTags,
		BudgetMin:       in.BudgetMin,
		BudgetMax:       in.BudgetMax,
		Vibe:            in.Vibe,
		ChangeLevel:     in.ChangeLevel,
		BeforeImageURL:  in.BeforeImageURL,
		Status:          models.LeadStatusOpen,
		CreatedAt:       s.Now(),
	}
	if err := s.Leads.Create(ctx, lead); err != nil {
		return nil, err
	}
	return lead, nil
}
