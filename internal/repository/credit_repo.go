package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/landscaipe/contractor-portal/internal/models"
)

// CreditRepo is append-only: ledger rows are never updated or deleted.
type CreditRepo struct {
	pool *pgxpool.Pool
}

func NewCreditRepo(pool *pgxpool.Pool) *CreditRepo {
	return &CreditRepo{pool: pool}
}

func (r *CreditRepo) Create(ctx context.Context, e *models.CreditEntry) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO credit_ledger (id, contractor_id, lead_id, entry_type, delta, note)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, e.ID, e.ContractorID, e.LeadID, e.EntryType, e.Delta, e.Note).Scan(&e.CreatedAt)
}

// CreateTx appends a ledger entry inside the given transaction.
func (r *CreditRepo) CreateTx(ctx context.Context, tx pgx.Tx, e *models.CreditEntry) error {
	return tx.QueryRow(ctx, `
		INSERT INTO credit_ledger (id, contractor_id, lead_id, entry_type, delta, note)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, e.ID, e.ContractorID, e.LeadID, e.EntryType, e.Delta, e.Note).Scan(&e.CreatedAt)
}

// SumDeltas derives the contractor's balance from the ledger. The balance
// is never stored as a column, so it cannot drift from history.
func (r *CreditRepo) SumDeltas(ctx context.Context, contractorID uuid.UUID) (int, error) {
	var total int
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(delta), 0) FROM credit_ledger WHERE contractor_id = $1
	`, contractorID).Scan(&total)
	return total, err
}

func (r *CreditRepo) ListByContractor(ctx context.Context, contractorID uuid.UUID) ([]*models.CreditEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, contractor_id, lead_id, entry_type, delta, note, created_at
		FROM credit_ledger WHERE contractor_id = $1 ORDER BY created_at DESC
	`, contractorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.CreditEntry
	for rows.Next() {
		var e models.CreditEntry
		if err := rows.Scan(&e.ID, &e.ContractorID, &e.LeadID, &e.EntryType, &e.Delta, &e.Note, &e.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, &e)
	}
	return list, rows.Err()
}
