package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/landscaipe/contractor-portal/internal/models"
)

type ContractorRepo struct {
	pool *pgxpool.Pool
}

func NewContractorRepo(pool *pgxpool.Pool) *ContractorRepo {
	return &ContractorRepo{pool: pool}
}

const contractorColumns = `id, role, status, email, password_hash, company_name, owner_name, phone, tagline, logo_url, years_in_business, rating_avg, rating_count, plan, service_zips, major_categories, sub_categories, created_at, updated_at`

func scanContractor(row interface{ Scan(...any) error }) (*models.Contractor, error) {
	var c models.Contractor
	err := row.Scan(&c.ID, &c.Role, &c.Status, &c.Email, &c.PasswordHash, &c.CompanyName, &c.OwnerName, &c.Phone, &c.Tagline, &c.LogoURL, &c.YearsInBusiness, &c.RatingAvg, &c.RatingCount, &c.Plan, &c.ServiceZips, &c.MajorCategories, &c.SubCategories, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *ContractorRepo) Create(ctx context.Context, c *models.Contractor) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO contractors (id, role, status, email, password_hash, company_name, owner_name, phone, tagline, logo_url, years_in_business, rating_avg, rating_count, plan, service_zips, major_categories, sub_categories)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING created_at, updated_at
	`, c.ID, c.Role, c.Status, c.Email, c.PasswordHash, c.CompanyName, c.OwnerName, c.Phone, c.Tagline, c.LogoURL, c.YearsInBusiness, c.RatingAvg, c.RatingCount, c.Plan, c.ServiceZips, c.MajorCategories, c.SubCategories).Scan(&c.CreatedAt, &c.UpdatedAt)
}

func (r *ContractorRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Contractor, error) {
	return scanContractor(r.pool.QueryRow(ctx, `
		SELECT `+contractorColumns+` FROM contractors WHERE id = $1
	`, id))
}

func (r *ContractorRepo) GetByEmail(ctx context.Context, email string) (*models.Contractor, error) {
	return scanContractor(r.pool.QueryRow(ctx, `
		SELECT `+contractorColumns+` FROM contractors WHERE lower(email) = lower($1)
	`, email))
}

// UpdateProfile persists the contractor-editable profile fields only.
func (r *ContractorRepo) UpdateProfile(ctx context.Context, c *models.Contractor) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE contractors
		SET company_name = $2, owner_name = $3, tagline = $4, service_zips = $5, major_categories = $6, sub_categories = $7, updated_at = now()
		WHERE id = $1
	`, c.ID, c.CompanyName, c.OwnerName, c.Tagline, c.ServiceZips, c.MajorCategories, c.SubCategories)
	return err
}

func (r *ContractorRepo) UpdatePlan(ctx context.Context, id uuid.UUID, plan string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE contractors SET plan = $2, updated_at = now() WHERE id = $1
	`, id, plan)
	return err
}

func (r *ContractorRepo) List(ctx context.Context) ([]*models.Contractor, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+contractorColumns+` FROM contractors ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Contractor
	for rows.Next() {
		c, err := scanContractor(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, rows.Err()
}
