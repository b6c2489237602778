package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/landscaipe/contractor-portal/internal/models"
)

type HomeownerRepo struct {
	pool *pgxpool.Pool
}

func NewHomeownerRepo(pool *pgxpool.Pool) *HomeownerRepo {
	return &HomeownerRepo{pool: pool}
}

func (r *HomeownerRepo) Create(ctx context.Context, h *models.Homeowner) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO homeowners (id, display_name, email, phone, zip, phone_verified_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, h.ID, h.DisplayName, h.Email, h.Phone, h.Zip, h.PhoneVerifiedAt).Scan(&h.CreatedAt)
}

func (r *HomeownerRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Homeowner, error) {
	var h models.Homeowner
	err := r.pool.QueryRow(ctx, `
		SELECT id, display_name, email, phone, zip, phone_verified_at, created_at
		FROM homeowners WHERE id = $1
	`, id).Scan(&h.ID, &h.DisplayName, &h.Email, &h.Phone, &h.Zip, &h.PhoneVerifiedAt, &h.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func (r *HomeownerRepo) GetByEmail(ctx context.Context, email string) (*models.Homeowner, error) {
	var h models.Homeowner
	err := r.pool.QueryRow(ctx, `
		SELECT id, display_name, email, phone, zip, phone_verified_at, created_at
		FROM homeowners WHERE lower(email) = lower($1)
	`, email).Scan(&h.ID, &h.DisplayName, &h.Email, &h.Phone, &h.Zip, &h.PhoneVerifiedAt, &h.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &h, nil
}
