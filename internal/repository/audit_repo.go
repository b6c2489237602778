package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/landscaipe/contractor-portal/internal/models"
)

type AuditRepo struct {
	pool *pgxpool.Pool
}

func NewAuditRepo(pool *pgxpool.Pool) *AuditRepo {
	return &AuditRepo{pool: pool}
}

func (r *AuditRepo) Create(ctx context.Context, e *models.AuditEvent) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO audit_log (id, event_type, actor_id, target_contractor_id, lead_id, amount)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, e.ID, e.EventType, e.ActorID, e.TargetContractorID, e.LeadID, e.Amount).Scan(&e.CreatedAt)
}

func (r *AuditRepo) ListRecent(ctx context.Context, limit int) ([]*models.AuditEvent, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, event_type, actor_id, target_contractor_id, lead_id, amount, created_at
		FROM audit_log ORDER BY created_at DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.AuditEvent
	for rows.Next() {
		var e models.AuditEvent
		if err := rows.Scan(&e.ID, &e.EventType, &e.ActorID, &e.TargetContractorID, &e.LeadID, &e.Amount, &e.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, &e)
	}
	return list, rows.Err()
}
