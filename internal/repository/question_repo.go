package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/landscaipe/contractor-portal/internal/models"
)

type QuestionRepo struct {
	pool *pgxpool.Pool
}

func NewQuestionRepo(pool *pgxpool.Pool) *QuestionRepo {
	return &QuestionRepo{pool: pool}
}

func (r *QuestionRepo) Create(ctx context.Context, q *models.LeadQuestion) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO lead_questions (id, lead_id, contractor_id, contractor_name, template_id, text)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, q.ID, q.LeadID, q.ContractorID, q.ContractorName, q.TemplateID, q.Text).Scan(&q.CreatedAt)
}

func (r *QuestionRepo) ListByLead(ctx context.Context, leadID uuid.UUID) ([]*models.LeadQuestion, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, lead_id, contractor_id, contractor_name, template_id, text, created_at
		FROM lead_questions WHERE lead_id = $1 ORDER BY created_at
	`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.LeadQuestion
	for rows.Next() {
		var q models.LeadQuestion
		if err := rows.Scan(&q.ID, &q.LeadID, &q.ContractorID, &q.ContractorName, &q.TemplateID, &q.Text, &q.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, &q)
	}
	return list, rows.Err()
}
