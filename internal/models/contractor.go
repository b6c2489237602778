package models

import (
	"time"

	"github.com/google/uuid"
)

// Contractor role and status enums.
const (
	RoleContractor = "contractor"
	RoleAdmin      = "admin"

	ContractorStatusActive    = "active"
	ContractorStatusSuspended = "suspended"
)

// Billing plans (billing itself is a stub; the plan is just a profile field).
const (
	PlanPayAsYouGo = "payg"
	PlanPro100     = "pro100"
	PlanPro250     = "pro250"
)

type Contractor struct {
	ID              uuid.UUID `json:"id"`
	Role            string    `json:"role"`
	Status          string    `json:"status"`
	Email           string    `json:"email"`
	PasswordHash    string    `json:"-"`
	CompanyName     string    `json:"company_name"`
	OwnerName       string    `json:"owner_name"`
	Phone           string    `json:"phone"`
	Tagline         *string   `json:"tagline,omitempty"`
	LogoURL         *string   `json:"logo_url,omitempty"`
	YearsInBusiness int       `json:"years_in_business"`
	RatingAvg       *float32  `json:"rating_avg,omitempty"`
	RatingCount     *int      `json:"rating_count,omitempty"`
	Plan            string    `json:"plan"`
	ServiceZips     []string  `json:"service_zips"`
	MajorCategories []string  `json:"major_categories"`
	SubCategories   []string  `json:"sub_categories"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// IsAdmin reports whether the contractor holds the admin role.
func (c *Contractor) IsAdmin() bool { return c.Role == RoleAdmin }
