package services

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// LedgerSummer is the minimal credit-ledger interface for balance derivation.
type LedgerSummer interface {
	SumDeltas(ctx context.Context, contractorID uuid.UUID) (int, error)
}

// HeldCounter counts currently-unexpired held interests for a contractor.
type HeldCounter interface {
	CountActiveHeld(ctx context.Context, contractorID uuid.UUID, asOf time.Time) (int, error)
}

// CreditService derives credit figures from the ledger and the interest
// table. There is no stored balance anywhere: balance is the sum of ledger
// deltas, and available is balance minus active holds, floored at zero.
type CreditService struct {
	Ledger LedgerSummer
	Holds  HeldCounter
	Now    func() time.Time
}

func NewCreditService(ledger LedgerSummer, holds HeldCounter) *CreditService {
	return &CreditService{Ledger: ledger, Holds: holds, Now: time.Now}
}

// Balance is the sum of all ledger deltas for the contractor. An empty
// history yields zero.
func (s *CreditService) Balance(ctx context.Context, contractorID uuid.UUID) (int, error) {
	return s.Ledger.SumDeltas(ctx, contractorID)
}

// HeldCount counts held interests with expiresAt > asOf. The comparison is
// against the wall clock, not the status column, so holds past their TTL
// stop counting before any sweep flips them to expired.
func (s *CreditService) HeldCount(ctx context.Context, contractorID uuid.UUID, asOf time.Time) (int, error) {
	return s.Holds.CountActiveHeld(ctx, contractorID, asOf)
}

// Available returns max(0, balance - heldCount) as of now.
func (s *CreditService) Available(ctx context.Context, contractorID uuid.UUID) (int, error) {
	return s.availableAt(ctx, contractorID, s.Now())
}

func (s *CreditService) availableAt(ctx context.Context, contractorID uuid.UUID, asOf time.Time) (int, error) {
	balance, err := s.Ledger.SumDeltas(ctx, contractorID)
	if err != nil {
		return 0, err
	}
	held, err := s.Holds.CountActiveHeld(ctx, contractorID, asOf)
	if err != nil {
		return 0, err
	}
	available := balance - held
	if available < 0 {
		available = 0
	}
	return available, nil
}

// Summary is the credits payload returned to the caller layer.
type Summary struct {
	Balance   int `json:"balance"`
	Available int `json:"available"`
}

func (s *CreditService) Summarize(ctx context.Context, contractorID uuid.UUID) (*Summary, error) {
	balance, err := s.Balance(ctx, contractorID)
	if err != nil {
		return nil, err
	}
	available, err := s.availableAt(ctx, contractorID, s.Now())
	if err != nil {
		return nil, err
	}
	return &Summary{Balance: balance, Available: available}, nil
}
