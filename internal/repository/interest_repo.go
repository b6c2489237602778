package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/landscaipe/contractor-portal/internal/models"
)

type InterestRepo struct {
	pool *pgxpool.Pool
}

func NewInterestRepo(pool *pgxpool.Pool) *InterestRepo {
	return &InterestRepo{pool: pool}
}

const interestColumns = `id, lead_id, contractor_id, status, held_at, expires_at, captured_at, released_at, expired_at, withdrawn_at, release_reason`

func scanInterest(row interface{ Scan(...any) error }) (*models.Interest, error) {
	var li models.Interest
	err := row.Scan(&li.ID, &li.LeadID, &li.ContractorID, &li.Status, &li.HeldAt, &li.ExpiresAt, &li.CapturedAt, &li.ReleasedAt, &li.ExpiredAt, &li.WithdrawnAt, &li.ReleaseReason)
	if err != nil {
		return nil, err
	}
	return &li, nil
}

func (r *InterestRepo) Create(ctx context.Context, tx pgx.Tx, li *models.Interest) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO lead_interests (id, lead_id, contractor_id, status, held_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, li.ID, li.LeadID, li.ContractorID, li.Status, li.HeldAt, li.ExpiresAt)
	return err
}

func (r *InterestRepo) GetByLeadAndContractor(ctx context.Context, leadID, contractorID uuid.UUID) (*models.Interest, error) {
	return scanInterest(r.pool.QueryRow(ctx, `
		SELECT `+interestColumns+` FROM lead_interests WHERE lead_id = $1 AND contractor_id = $2
	`, leadID, contractorID))
}

// GetByLeadAndContractorForUpdate locks the interest row so accept can
// re-validate held status at the moment of capture.
func (r *InterestRepo) GetByLeadAndContractorForUpdate(ctx context.Context, tx pgx.Tx, leadID, contractorID uuid.UUID) (*models.Interest, error) {
	return scanInterest(tx.QueryRow(ctx, `
		SELECT `+interestColumns+` FROM lead_interests WHERE lead_id = $1 AND contractor_id = $2 FOR UPDATE
	`, leadID, contractorID))
}

func (r *InterestRepo) ListByLead(ctx context.Context, leadID uuid.UUID) ([]*models.Interest, error) {
	return r.list(ctx, `
		SELECT `+interestColumns+` FROM lead_interests WHERE lead_id = $1 ORDER BY held_at
	`, leadID)
}

func (r *InterestRepo) ListByContractor(ctx context.Context, contractorID uuid.UUID) ([]*models.Interest, error) {
	return r.list(ctx, `
		SELECT `+interestColumns+` FROM lead_interests WHERE contractor_id = $1 ORDER BY held_at
	`, contractorID)
}

func (r *InterestRepo) list(ctx context.Context, query string, args ...any) ([]*models.Interest, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Interest
	for rows.Next() {
		li, err := scanInterest(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, li)
	}
	return list, rows.Err()
}

// CountActiveHeld counts held interests whose TTL has not passed. The
// expires_at comparison is deliberate: a hold past its TTL must not count
// even if the lazy sweep has not flipped its status yet.
func (r *InterestRepo) CountActiveHeld(ctx context.Context, contractorID uuid.UUID, asOf time.Time) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM lead_interests
		WHERE contractor_id = $1 AND status = $2 AND expires_at > $3
	`, contractorID, models.InterestStatusHeld, asOf).Scan(&n)
	return n, err
}

// Rehold resets a terminal (released/expired/withdrawn) interest back to
// held with a fresh TTL, reusing the row for the pair.
func (r *InterestRepo) Rehold(ctx context.Context, tx pgx.Tx, id uuid.UUID, heldAt, expiresAt time.Time) error {
	_, err := tx.Exec(ctx, `
		UPDATE lead_interests
		SET status = $2, held_at = $3, expires_at = $4,
		    captured_at = NULL, released_at = NULL, expired_at = NULL, withdrawn_at = NULL, release_reason = NULL
		WHERE id = $1
	`, id, models.InterestStatusHeld, heldAt, expiresAt)
	return err
}

// Withdraw transitions held -> withdrawn. Returns the number of rows
// changed; 0 means the interest was not held anymore.
func (r *InterestRepo) Withdraw(ctx context.Context, id uuid.UUID, at time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE lead_interests
		SET status = $2, withdrawn_at = $3, release_reason = $4
		WHERE id = $1 AND status = $5
	`, id, models.InterestStatusWithdrawn, at, models.ReleaseReasonContractorWithdrew, models.InterestStatusHeld)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Capture transitions the chosen interest held -> captured.
func (r *InterestRepo) Capture(ctx context.Context, tx pgx.Tx, id uuid.UUID, at time.Time) error {
	_, err := tx.Exec(ctx, `
		UPDATE lead_interests SET status = $2, captured_at = $3, release_reason = NULL WHERE id = $1
	`, id, models.InterestStatusCaptured, at)
	return err
}

// ReleaseHeld releases every held interest on the lead except the one with
// exceptID (pass uuid.Nil to release all). Withdrawn/expired rows are
// untouched.
func (r *InterestRepo) ReleaseHeld(ctx context.Context, tx pgx.Tx, leadID, exceptID uuid.UUID, at time.Time, reason string) (int64, error) {
	tag, err := tx.Exec(ctx, `
		UPDATE lead_interests
		SET status = $2, released_at = $3, release_reason = $4
		WHERE lead_id = $1 AND id <> $5 AND status = $6
	`, leadID, models.InterestStatusReleased, at, reason, exceptID, models.InterestStatusHeld)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// ExpireDue flips every held interest past its TTL to expired. Safe to run
// redundantly and concurrently; already-expired rows no longer match.
func (r *InterestRepo) ExpireDue(ctx context.Context, asOf time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE lead_interests
		SET status = $2, expired_at = $3, release_reason = $4
		WHERE status = $1 AND expires_at <= $3
	`, models.InterestStatusHeld, models.InterestStatusExpired, asOf, models.ReleaseReasonTTLExpired)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// DeleteByLead discards every interest on the lead. Used by reset only.
func (r *InterestRepo) DeleteByLead(ctx context.Context, tx pgx.Tx, leadID uuid.UUID) error {
	_, err := tx.Exec(ctx, `DELETE FROM lead_interests WHERE lead_id = $1`, leadID)
	return err
}
