package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/landscaipe/contractor-portal/internal/models"
)

// HoldTTL is how long an interest hold reserves a credit before it lapses.
const HoldTTL = 4 * 24 * time.Hour

// Question templates offered to contractors pre-acceptance. Free-text is
// only accepted as an addendum to one of these.
var questionTemplates = map[string]string{
	"timeline":  "What's your ideal project timeline?",
	"access":    "Any access constraints (gates, pets, HOA rules)?",
	"materials": "Do you have preferred materials or styles?",
	"budget":    "Is your budget range flexible?",
	"scope":     "Which parts of the yard are highest priority?",
}

// TxBeginner abstracts transaction creation so tests don't need a pgxpool.Pool.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// EngineLeadRepo is the lead repository interface used by the engine.
type EngineLeadRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Lead, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Lead, error)
	List(ctx context.Context) ([]*models.Lead, error)
	MarkAssigned(ctx context.Context, tx pgx.Tx, id, contractorID uuid.UUID, acceptedAt time.Time) error
	MarkSpam(ctx context.Context, tx pgx.Tx, id uuid.UUID) error
	ResetOpen(ctx context.Context, tx pgx.Tx, id uuid.UUID) error
}

// EngineInterestRepo is the interest repository interface used by the engine.
type EngineInterestRepo interface {
	Create(ctx context.Context, tx pgx.Tx, li *models.Interest) error
	GetByLeadAndContractor(ctx context.Context, leadID, contractorID uuid.UUID) (*models.Interest, error)
	GetByLeadAndContractorForUpdate(ctx context.Context, tx pgx.Tx, leadID, contractorID uuid.UUID) (*models.Interest, error)
	ListByContractor(ctx context.Context, contractorID uuid.UUID) ([]*models.Interest, error)
	Rehold(ctx context.Context, tx pgx.Tx, id uuid.UUID, heldAt, expiresAt time.Time) error
	Withdraw(ctx context.Context, id uuid.UUID, at time.Time) (int64, error)
	Capture(ctx context.Context, tx pgx.Tx, id uuid.UUID, at time.Time) error
	ReleaseHeld(ctx context.Context, tx pgx.Tx, leadID, exceptID uuid.UUID, at time.Time, reason string) (int64, error)
	ExpireDue(ctx context.Context, asOf time.Time) (int64, error)
	DeleteByLead(ctx context.Context, tx pgx.Tx, leadID uuid.UUID) error
}

// EngineCreditRepo appends ledger entries inside the accept transaction.
type EngineCreditRepo interface {
	CreateTx(ctx context.Context, tx pgx.Tx, e *models.CreditEntry) error
}

// EngineContractorRepo resolves the chosen contractor during accept.
type EngineContractorRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Contractor, error)
}

// QuestionStore persists sanitized pre-acceptance questions.
type QuestionStore interface {
	Create(ctx context.Context, q *models.LeadQuestion) error
}

// ReservationEngine owns the lead/interest/ledger state machine: holds,
// withdrawals, the lazy expiry sweep, and the atomic accept transition.
// Every lead state transition runs under the lead's row lock so accept's
// five effects never interleave with a competing hold/withdraw/spam/reset.
type ReservationEngine struct {
	Pool        TxBeginner
	Leads       EngineLeadRepo
	Interests   EngineInterestRepo
	Ledger      EngineCreditRepo
	Contractors EngineContractorRepo
	Questions   QuestionStore
	Credits     *CreditService
	Logger      *slog.Logger
	Now         func() time.Time
}

func NewReservationEngine(
	pool TxBeginner,
	leads EngineLeadRepo,
	interests EngineInterestRepo,
	ledger EngineCreditRepo,
	contractors EngineContractorRepo,
	questions QuestionStore,
	credits *CreditService,
	logger *slog.Logger,
) *ReservationEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReservationEngine{
		Pool:        pool,
		Leads:       leads,
		Interests:   interests,
		Ledger:      ledger,
		Contractors: contractors,
		Questions:   questions,
		Credits:     credits,
		Logger:      logger,
		Now:         time.Now,
	}
}

// Hold reserves one available credit against the lead for the contractor.
// Re-calling while already held is a success with no side effect; a pair
// whose previous hold ended (withdrawn/expired/released) re-holds by
// resetting the same interest row.
func (e *ReservationEngine) Hold(ctx context.Context, contractor *models.Contractor, leadID uuid.UUID) (*models.Interest, error) {
	lead, err := e.Leads.GetByID(ctx, leadID)
	if err != nil {
		return nil, notFound(err, ErrLeadNotFound)
	}
	// Lead state first, eligibility second: holding a closed lead is an
	// invalid-state conflict even for contractors who could never see it.
	if lead.Status != models.LeadStatusOpen {
		return nil, ErrLeadNotOpen
	}
	if !Matches(contractor, lead) {
		return nil, ErrNotEligible
	}

	existing, err := e.Interests.GetByLeadAndContractor(ctx, leadID, contractor.ID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if existing != nil && (existing.Status == models.InterestStatusHeld || existing.Status == models.InterestStatusCaptured) {
		return existing, nil
	}

	available, err := e.Credits.Available(ctx, contractor.ID)
	if err != nil {
		return nil, err
	}
	if available < 1 {
		return nil, ErrInsufficientCredits
	}

	tx, err := e.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// Re-check under the lead lock: an accept or spam may have landed
	// between the first read and here.
	locked, err := e.Leads.GetByIDForUpdate(ctx, tx, leadID)
	if err != nil {
		return nil, conflictOr(err)
	}
	if locked.Status != models.LeadStatusOpen {
		return nil, ErrLeadNotOpen
	}

	now := e.Now()
	expiresAt := now.Add(HoldTTL)

	var li *models.Interest
	if existing != nil {
		if err := e.Interests.Rehold(ctx, tx, existing.ID, now, expiresAt); err != nil {
			return nil, conflictOr(err)
		}
		li = &models.Interest{
			ID:           existing.ID,
			LeadID:       leadID,
			ContractorID: contractor.ID,
			Status:       models.InterestStatusHeld,
			HeldAt:       now,
			ExpiresAt:    expiresAt,
		}
	} else {
		li = &models.Interest{
			ID:           uuid.New(),
			LeadID:       leadID,
			ContractorID: contractor.ID,
			Status:       models.InterestStatusHeld,
			HeldAt:       now,
			ExpiresAt:    expiresAt,
		}
		if err := e.Interests.Create(ctx, tx, li); err != nil {
			return nil, conflictOr(err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, conflictOr(err)
	}
	return li, nil
}

// Withdraw transitions the contractor's held interest to withdrawn. The
// status guard lives in the single UPDATE, so a concurrent accept or sweep
// that got there first simply leaves zero rows to change.
func (e *ReservationEngine) Withdraw(ctx context.Context, contractorID, leadID uuid.UUID) (*models.Interest, error) {
	li, err := e.Interests.GetByLeadAndContractor(ctx, leadID, contractorID)
	if err != nil {
		return nil, notFound(err, ErrInterestNotFound)
	}
	now := e.Now()
	n, err := e.Interests.Withdraw(ctx, li.ID, now)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrNoActiveHold
	}
	li.Status = models.InterestStatusWithdrawn
	li.WithdrawnAt = &now
	reason := models.ReleaseReasonContractorWithdrew
	li.ReleaseReason = &reason
	return li, nil
}

// ExpireDue is the lazy sweep: every held interest past its TTL flips to
// expired. Idempotent; runs before authenticated reads and on a periodic
// background job.
func (e *ReservationEngine) ExpireDue(ctx context.Context) (int64, error) {
	n, err := e.Interests.ExpireDue(ctx, e.Now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		e.Logger.Info("expired stale holds", "count", n)
	}
	return n, nil
}

// Accept captures the chosen contractor's hold, releases every competing
// hold, assigns the lead, and deducts the captured credit — all inside one
// transaction holding the lead's row lock. This is the only place a hold
// converts into a permanent ledger deduction.
func (e *ReservationEngine) Accept(ctx context.Context, leadID, contractorID uuid.UUID) (*models.Interest, error) {
	contractor, err := e.Contractors.GetByID(ctx, contractorID)
	if err != nil {
		return nil, notFound(err, ErrContractorNotFound)
	}
	if contractor.Role != models.RoleContractor {
		return nil, fmt.Errorf("%w: accepted party must hold the contractor role", ErrValidation)
	}

	tx, err := e.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	lead, err := e.Leads.GetByIDForUpdate(ctx, tx, leadID)
	if err != nil {
		return nil, notFoundOrConflict(err, ErrLeadNotFound)
	}
	if lead.Status != models.LeadStatusOpen {
		return nil, ErrLeadNotOpen
	}

	chosen, err := e.Interests.GetByLeadAndContractorForUpdate(ctx, tx, leadID, contractorID)
	if err != nil {
		return nil, notFoundOrConflict(err, ErrNoHeldInterest)
	}
	now := e.Now()
	// Re-validate under the lock: the hold must still be held and within
	// its TTL at the moment of capture, regardless of sweep laziness.
	if chosen.Status != models.InterestStatusHeld || !chosen.ExpiresAt.After(now) {
		return nil, ErrNoHeldInterest
	}

	if err := e.Interests.Capture(ctx, tx, chosen.ID, now); err != nil {
		return nil, conflictOr(err)
	}
	if _, err := e.Interests.ReleaseHeld(ctx, tx, leadID, chosen.ID, now, models.ReleaseReasonHomeownerSelected); err != nil {
		return nil, conflictOr(err)
	}
	if err := e.Leads.MarkAssigned(ctx, tx, leadID, contractorID, now); err != nil {
		return nil, conflictOr(err)
	}

	note := "Lead accepted by homeowner"
	if err := e.Ledger.CreateTx(ctx, tx, &models.CreditEntry{
		ID:           uuid.New(),
		ContractorID: contractorID,
		LeadID:       &leadID,
		EntryType:    models.CreditEntryLeadCapture,
		Delta:        -1,
		Note:         &note,
	}); err != nil {
		return nil, conflictOr(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, conflictOr(err)
	}

	chosen.Status = models.InterestStatusCaptured
	chosen.CapturedAt = &now
	chosen.ReleaseReason = nil
	e.Logger.Info("lead accepted", "lead_id", leadID, "contractor_id", contractorID)
	return chosen, nil
}

// MarkSpam releases every held interest on an open lead and parks the lead
// in spam. No ledger effect: no credit was ever captured.
func (e *ReservationEngine) MarkSpam(ctx context.Context, leadID uuid.UUID) error {
	tx, err := e.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	lead, err := e.Leads.GetByIDForUpdate(ctx, tx, leadID)
	if err != nil {
		return notFoundOrConflict(err, ErrLeadNotFound)
	}
	if lead.Status != models.LeadStatusOpen {
		return ErrLeadNotOpen
	}
	if _, err := e.Interests.ReleaseHeld(ctx, tx, leadID, uuid.Nil, e.Now(), models.ReleaseReasonLeadMarkedSpam); err != nil {
		return conflictOr(err)
	}
	if err := e.Leads.MarkSpam(ctx, tx, leadID); err != nil {
		return conflictOr(err)
	}
	return tx.Commit(ctx)
}

// Reset unconditionally discards every interest on the lead and returns it
// to open. Intentionally non-restorative: captured credits stay spent.
func (e *ReservationEngine) Reset(ctx context.Context, leadID uuid.UUID) error {
	tx, err := e.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := e.Leads.GetByIDForUpdate(ctx, tx, leadID); err != nil {
		return notFoundOrConflict(err, ErrLeadNotFound)
	}
	if err := e.Interests.DeleteByLead(ctx, tx, leadID); err != nil {
		return conflictOr(err)
	}
	if err := e.Leads.ResetOpen(ctx, tx, leadID); err != nil {
		return conflictOr(err)
	}
	return tx.Commit(ctx)
}

// AskQuestion composes a templated pre-acceptance question, runs it through
// the sanitizer, and records it. Requires an active (held, unexpired) hold.
func (e *ReservationEngine) AskQuestion(ctx context.Context, contractor *models.Contractor, leadID uuid.UUID, templateID, extra string) (*models.LeadQuestion, error) {
	if _, err := e.Leads.GetByID(ctx, leadID); err != nil {
		return nil, notFound(err, ErrLeadNotFound)
	}
	li, err := e.Interests.GetByLeadAndContractor(ctx, leadID, contractor.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoActiveHold
		}
		return nil, err
	}
	if li.Status != models.InterestStatusHeld || !li.ExpiresAt.After(e.Now()) {
		return nil, ErrNoActiveHold
	}

	base, ok := questionTemplates[templateID]
	if !ok {
		return nil, fmt.Errorf("%w: invalid question template %q", ErrValidation, templateID)
	}
	message := base
	if extra != "" {
		message += " " + extra
	}
	text, err := ValidateMessage(message)
	if err != nil {
		return nil, err
	}

	q := &models.LeadQuestion{
		ID:             uuid.New(),
		LeadID:         leadID,
		ContractorID:   contractor.ID,
		ContractorName: contractor.CompanyName,
		TemplateID:     templateID,
		Text:           text,
	}
	if err := e.Questions.Create(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

// MatchedLead is one entry of a contractor's lead feed: the lead, its
// relevance score (nil for admins, who see everything unranked), and the
// contractor's own interest on it, if any.
type MatchedLead struct {
	Lead     *models.Lead     `json:"lead"`
	Score    *int             `json:"score"`
	Interest *models.Interest `json:"interest"`
}

// ListMatchedLeads returns the leads the contractor may see, scored and
// sorted best-first with ties broken by most recent creation.
func (e *ReservationEngine) ListMatchedLeads(ctx context.Context, contractor *models.Contractor) ([]*MatchedLead, error) {
	leads, err := e.Leads.List(ctx)
	if err != nil {
		return nil, err
	}
	interests, err := e.Interests.ListByContractor(ctx, contractor.ID)
	if err != nil {
		return nil, err
	}
	byLead := make(map[uuid.UUID]*models.Interest, len(interests))
	for _, li := range interests {
		byLead[li.LeadID] = li
	}

	var out []*MatchedLead
	for _, lead := range leads {
		if !Matches(contractor, lead) {
			continue
		}
		entry := &MatchedLead{Lead: lead, Interest: byLead[lead.ID]}
		if !contractor.IsAdmin() {
			score := Score(contractor, lead)
			entry.Score = &score
		}
		out = append(out, entry)
	}

	sort.SliceStable(out, func(i, j int) bool {
		si, sj := scoreOrZero(out[i].Score), scoreOrZero(out[j].Score)
		if si != sj {
			return si > sj
		}
		return out[i].Lead.CreatedAt.After(out[j].Lead.CreatedAt)
	})
	return out, nil
}

func scoreOrZero(s *int) int {
	if s == nil {
		return 0
	}
	return *s
}

// notFound maps pgx.ErrNoRows to the given sentinel, passing other errors
// through untouched.
func notFound(err error, sentinel error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return sentinel
	}
	return err
}

// conflictOr maps Postgres serialization failures and deadlocks to the
// retryable ErrConflict.
func conflictOr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && (pgErr.Code == "40001" || pgErr.Code == "40P01") {
		return ErrConflict
	}
	return err
}

func notFoundOrConflict(err error, sentinel error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return sentinel
	}
	return conflictOr(err)
}
