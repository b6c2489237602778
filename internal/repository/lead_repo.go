package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/landscaipe/contractor-portal/internal/models"
)

type LeadRepo struct {
	pool *pgxpool.Pool
}

func NewLeadRepo(pool *pgxpool.Pool) *LeadRepo {
	return &LeadRepo{pool: pool}
}

const leadColumns = `id, homeowner_id, zip, budget_min, budget_max, vibe, change_level, major_categories, required_tags, before_image_url, after_image_url, status, assigned_contractor_id, accepted_at, created_at, updated_at`

func scanLead(row interface{ Scan(...any) error }) (*models.Lead, error) {
	var l models.Lead
	err := row.Scan(&l.ID, &l.HomeownerID, &l.Zip, &l.BudgetMin, &l.BudgetMax, &l.Vibe, &l.ChangeLevel, &l.MajorCategories, &l.RequiredTags, &l.BeforeImageURL, &l.AfterImageURL, &l.Status, &l.AssignedContractorID, &l.AcceptedAt, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *LeadRepo) Create(ctx context.Context, l *models.Lead) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO leads (id, homeowner_id, zip, budget_min, budget_max, vibe, change_level, major_categories, required_tags, before_image_url, after_image_url, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at
	`, l.ID, l.HomeownerID, l.Zip, l.BudgetMin, l.BudgetMax, l.Vibe, l.ChangeLevel, l.MajorCategories, l.RequiredTags, l.BeforeImageURL, l.AfterImageURL, l.Status).Scan(&l.CreatedAt, &l.UpdatedAt)
}

func (r *LeadRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Lead, error) {
	return scanLead(r.pool.QueryRow(ctx, `
		SELECT `+leadColumns+` FROM leads WHERE id = $1
	`, id))
}

// GetByIDForUpdate locks the lead row. Every state transition on a lead
// (hold, accept, spam, reset) runs under this lock so the five-step accept
// sequence never interleaves with a competing write on the same lead.
func (r *LeadRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Lead, error) {
	return scanLead(tx.QueryRow(ctx, `
		SELECT `+leadColumns+` FROM leads WHERE id = $1 FOR UPDATE
	`, id))
}

func (r *LeadRepo) List(ctx context.Context) ([]*models.Lead, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+leadColumns+` FROM leads ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, l)
	}
	return list, rows.Err()
}

// MarkAssigned transitions the lead open -> assigned. Call within the
// transaction that captured the winning interest.
func (r *LeadRepo) MarkAssigned(ctx context.Context, tx pgx.Tx, id, contractorID uuid.UUID, acceptedAt time.Time) error {
	_, err := tx.Exec(ctx, `
		UPDATE leads SET status = $2, assigned_contractor_id = $3, accepted_at = $4, updated_at = now() WHERE id = $1
	`, id, models.LeadStatusAssigned, contractorID, acceptedAt)
	return err
}

func (r *LeadRepo) MarkSpam(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	_, err := tx.Exec(ctx, `
		UPDATE leads SET status = $2, updated_at = now() WHERE id = $1
	`, id, models.LeadStatusSpam)
	return err
}

// ResetOpen returns the lead to open and clears the assignment. Interests
// are discarded separately in the same transaction.
func (r *LeadRepo) ResetOpen(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	_, err := tx.Exec(ctx, `
		UPDATE leads SET status = $2, assigned_contractor_id = NULL, accepted_at = NULL, updated_at = now() WHERE id = $1
	`, id, models.LeadStatusOpen)
	return err
}
