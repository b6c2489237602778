package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/landscaipe/contractor-portal/internal/models"
)

type PhotoRepo struct {
	pool *pgxpool.Pool
}

func NewPhotoRepo(pool *pgxpool.Pool) *PhotoRepo {
	return &PhotoRepo{pool: pool}
}

func (r *PhotoRepo) Create(ctx context.Context, p *models.Photo) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO photos (id, contractor_id, url, thumb_url, is_featured, sort_order)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, p.ID, p.ContractorID, p.URL, p.ThumbURL, p.IsFeatured, p.SortOrder).Scan(&p.CreatedAt)
}

// ListByContractor returns the contractor's photos in presentation order.
func (r *PhotoRepo) ListByContractor(ctx context.Context, contractorID uuid.UUID) ([]*models.Photo, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, contractor_id, url, thumb_url, is_featured, sort_order, created_at
		FROM photos WHERE contractor_id = $1 ORDER BY sort_order, created_at
	`, contractorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Photo
	for rows.Next() {
		var p models.Photo
		if err := rows.Scan(&p.ID, &p.ContractorID, &p.URL, &p.ThumbURL, &p.IsFeatured, &p.SortOrder, &p.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, &p)
	}
	return list, rows.Err()
}

func (r *PhotoRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM photos WHERE id = $1`, id)
	return err
}

func (r *PhotoRepo) SetFeatured(ctx context.Context, id uuid.UUID, isFeatured bool) error {
	_, err := r.pool.Exec(ctx, `UPDATE photos SET is_featured = $2 WHERE id = $1`, id, isFeatured)
	return err
}

func (r *PhotoRepo) SetSortOrder(ctx context.Context, id uuid.UUID, sortOrder int) error {
	_, err := r.pool.Exec(ctx, `UPDATE photos SET sort_order = $2 WHERE id = $1`, id, sortOrder)
	return err
}
