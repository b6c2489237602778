package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/landscaipe/contractor-portal/internal/models"
)

// ---------------------------------------------------------------------------
// Mocks
// ---------------------------------------------------------------------------

// --- noopTx satisfies pgx.Tx for test use; only Commit/Rollback are called. ---

type noopTx struct{}

func (noopTx) Begin(context.Context) (pgx.Tx, error) { return noopTx{}, nil }
func (noopTx) Commit(context.Context) error          { return nil }
func (noopTx) Rollback(context.Context) error        { return nil }
func (noopTx) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (noopTx) Query(context.Context, string, ...any) (pgx.Rows, error) { return nil, nil }
func (noopTx) QueryRow(context.Context, string, ...any) pgx.Row        { return nil }
func (noopTx) CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (noopTx) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults { return nil }
func (noopTx) LargeObjects() pgx.LargeObjects                         { return pgx.LargeObjects{} }
func (noopTx) Prepare(context.Context, string, string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (noopTx) Conn() *pgx.Conn { return nil }

// --- TxBeginner mock ---

type mockPool struct{}

func (mockPool) Begin(context.Context) (pgx.Tx, error) { return noopTx{}, nil }

// --- lead repo mock ---

type mockLeads struct {
	mu    sync.Mutex
	leads map[uuid.UUID]*models.Lead
}

func newMockLeads(leads ...*models.Lead) *mockLeads {
	m := &mockLeads{leads: make(map[uuid.UUID]*models.Lead)}
	for _, l := range leads {
		cp := *l
		m.leads[l.ID] = &cp
	}
	return m
}

func (m *mockLeads) get(id uuid.UUID) (*models.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.leads[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *l
	return &cp, nil
}

func (m *mockLeads) GetByID(_ context.Context, id uuid.UUID) (*models.Lead, error) {
	return m.get(id)
}

func (m *mockLeads) GetByIDForUpdate(_ context.Context, _ pgx.Tx, id uuid.UUID) (*models.Lead, error) {
	return m.get(id)
}

func (m *mockLeads) List(_ context.Context) ([]*models.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.Lead, 0, len(m.leads))
	for _, l := range m.leads {
		cp := *l
		out = append(out, &cp)
	}
	return out, nil
}

func (m *mockLeads) MarkAssigned(_ context.Context, _ pgx.Tx, id, contractorID uuid.UUID, acceptedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.leads[id]
	if !ok {
		return pgx.ErrNoRows
	}
	l.Status = models.LeadStatusAssigned
	l.AssignedContractorID = &contractorID
	at := acceptedAt
	l.AcceptedAt = &at
	return nil
}

func (m *mockLeads) MarkSpam(_ context.Context, _ pgx.Tx, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.leads[id]
	if !ok {
		return pgx.ErrNoRows
	}
	l.Status = models.LeadStatusSpam
	return nil
}

func (m *mockLeads) ResetOpen(_ context.Context, _ pgx.Tx, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.leads[id]
	if !ok {
		return pgx.ErrNoRows
	}
	l.Status = models.LeadStatusOpen
	l.AssignedContractorID = nil
	l.AcceptedAt = nil
	return nil
}

// --- interest repo mock ---

type mockInterests struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*models.Interest
}

func newMockInterests() *mockInterests {
	return &mockInterests{rows: make(map[uuid.UUID]*models.Interest)}
}

func (m *mockInterests) Create(_ context.Context, _ pgx.Tx, li *models.Interest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *li
	m.rows[li.ID] = &cp
	return nil
}

func (m *mockInterests) find(leadID, contractorID uuid.UUID) *models.Interest {
	for _, li := range m.rows {
		if li.LeadID == leadID && li.ContractorID == contractorID {
			return li
		}
	}
	return nil
}

func (m *mockInterests) GetByLeadAndContractor(_ context.Context, leadID, contractorID uuid.UUID) (*models.Interest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	li := m.find(leadID, contractorID)
	if li == nil {
		return nil, pgx.ErrNoRows
	}
	cp := *li
	return &cp, nil
}

func (m *mockInterests) GetByLeadAndContractorForUpdate(ctx context.Context, _ pgx.Tx, leadID, contractorID uuid.UUID) (*models.Interest, error) {
	return m.GetByLeadAndContractor(ctx, leadID, contractorID)
}

func (m *mockInterests) ListByContractor(_ context.Context, contractorID uuid.UUID) ([]*models.Interest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Interest
	for _, li := range m.rows {
		if li.ContractorID == contractorID {
			cp := *li
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockInterests) Rehold(_ context.Context, _ pgx.Tx, id uuid.UUID, heldAt, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	li, ok := m.rows[id]
	if !ok {
		return pgx.ErrNoRows
	}
	li.Status = models.InterestStatusHeld
	li.HeldAt = heldAt
	li.ExpiresAt = expiresAt
	li.CapturedAt = nil
	li.ReleasedAt = nil
	li.ExpiredAt = nil
	li.WithdrawnAt = nil
	li.ReleaseReason = nil
	return nil
}

func (m *mockInterests) Withdraw(_ context.Context, id uuid.UUID, at time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	li, ok := m.rows[id]
	if !ok || li.Status != models.InterestStatusHeld {
		return 0, nil
	}
	li.Status = models.InterestStatusWithdrawn
	t := at
	li.WithdrawnAt = &t
	reason := models.ReleaseReasonContractorWithdrew
	li.ReleaseReason = &reason
	return 1, nil
}

func (m *mockInterests) Capture(_ context.Context, _ pgx.Tx, id uuid.UUID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	li, ok := m.rows[id]
	if !ok {
		return pgx.ErrNoRows
	}
	li.Status = models.InterestStatusCaptured
	t := at
	li.CapturedAt = &t
	return nil
}

func (m *mockInterests) ReleaseHeld(_ context.Context, _ pgx.Tx, leadID, exceptID uuid.UUID, at time.Time, reason string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, li := range m.rows {
		if li.LeadID != leadID || li.ID == exceptID || li.Status != models.InterestStatusHeld {
			continue
		}
		li.Status = models.InterestStatusReleased
		t := at
		li.ReleasedAt = &t
		r := reason
		li.ReleaseReason = &r
		n++
	}
	return n, nil
}

func (m *mockInterests) ExpireDue(_ context.Context, asOf time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, li := range m.rows {
		if li.Status != models.InterestStatusHeld || li.ExpiresAt.After(asOf) {
			continue
		}
		li.Status = models.InterestStatusExpired
		t := asOf
		li.ExpiredAt = &t
		reason := models.ReleaseReasonTTLExpired
		li.ReleaseReason = &reason
		n++
	}
	return n, nil
}

func (m *mockInterests) DeleteByLead(_ context.Context, _ pgx.Tx, leadID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, li := range m.rows {
		if li.LeadID == leadID {
			delete(m.rows, id)
		}
	}
	return nil
}

// CountActiveHeld implements HeldCounter the same way the SQL does: status
// held and expires_at strictly in the future.
func (m *mockInterests) CountActiveHeld(_ context.Context, contractorID uuid.UUID, asOf time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, li := range m.rows {
		if li.ContractorID == contractorID && li.Status == models.InterestStatusHeld && li.ExpiresAt.After(asOf) {
			count++
		}
	}
	return count, nil
}

func (m *mockInterests) status(leadID, contractorID uuid.UUID) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	li := m.find(leadID, contractorID)
	if li == nil {
		return ""
	}
	return li.Status
}

func (m *mockInterests) releaseReason(leadID, contractorID uuid.UUID) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	li := m.find(leadID, contractorID)
	if li == nil || li.ReleaseReason == nil {
		return ""
	}
	return *li.ReleaseReason
}

// --- credit ledger mock ---

type mockLedger struct {
	mu      sync.Mutex
	entries []*models.CreditEntry
}

func (m *mockLedger) CreateTx(_ context.Context, _ pgx.Tx, e *models.CreditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *e
	m.entries = append(m.entries, &cp)
	return nil
}

func (m *mockLedger) SumDeltas(_ context.Context, contractorID uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sum := 0
	for _, e := range m.entries {
		if e.ContractorID == contractorID {
			sum += e.Delta
		}
	}
	return sum, nil
}

func (m *mockLedger) grant(contractorID uuid.UUID, delta int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, &models.CreditEntry{
		ID:           uuid.New(),
		ContractorID: contractorID,
		EntryType:    models.CreditEntryPurchase,
		Delta:        delta,
	})
}

func (m *mockLedger) byType(entryType string) []*models.CreditEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.CreditEntry
	for _, e := range m.entries {
		if e.EntryType == entryType {
			out = append(out, e)
		}
	}
	return out
}

// --- contractor repo mock ---

type mockContractors struct {
	rows map[uuid.UUID]*models.Contractor
}

func newMockContractors(cs ...*models.Contractor) *mockContractors {
	m := &mockContractors{rows: make(map[uuid.UUID]*models.Contractor)}
	for _, c := range cs {
		cp := *c
		m.rows[c.ID] = &cp
	}
	return m
}

func (m *mockContractors) GetByID(_ context.Context, id uuid.UUID) (*models.Contractor, error) {
	c, ok := m.rows[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *c
	return &cp, nil
}

// --- question store mock ---

type mockQuestions struct {
	mu        sync.Mutex
	questions []*models.LeadQuestion
}

func (m *mockQuestions) Create(_ context.Context, q *models.LeadQuestion) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *q
	m.questions = append(m.questions, &cp)
	return nil
}

// ---------------------------------------------------------------------------
// Test fixtures
// ---------------------------------------------------------------------------

type engineFixture struct {
	engine      *ReservationEngine
	leads       *mockLeads
	interests   *mockInterests
	ledger      *mockLedger
	contractors *mockContractors
	questions   *mockQuestions
	now         time.Time
}

func newEngineFixture(leads []*models.Lead, contractors []*models.Contractor) *engineFixture {
	f := &engineFixture{
		leads:       newMockLeads(leads...),
		interests:   newMockInterests(),
		ledger:      &mockLedger{},
		contractors: newMockContractors(contractors...),
		questions:   &mockQuestions{},
		now:         time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
	credits := NewCreditService(f.ledger, f.interests)
	credits.Now = func() time.Time { return f.now }
	f.engine = NewReservationEngine(
		mockPool{}, f.leads, f.interests, f.ledger, f.contractors, f.questions,
		credits, slog.New(slog.DiscardHandler),
	)
	f.engine.Now = func() time.Time { return f.now }
	return f
}

func (f *engineFixture) advance(d time.Duration) { f.now = f.now.Add(d) }

func landscaper(zips ...string) *models.Contractor {
	return &models.Contractor{
		ID:              uuid.New(),
		Role:            models.RoleContractor,
		Status:          models.ContractorStatusActive,
		CompanyName:     "Evergreen Yards",
		ServiceZips:     zips,
		MajorCategories: []string{"hardscaping"},
		SubCategories:   []string{"pavers", "retaining-walls"},
	}
}

func openLead(zip string) *models.Lead {
	return &models.Lead{
		ID:              uuid.New(),
		HomeownerID:     uuid.New(),
		Zip:             zip,
		MajorCategories: []string{"hardscaping"},
		Status:          models.LeadStatusOpen,
		CreatedAt:       time.Date(2026, 7, 20, 9, 0, 0, 0, time.UTC),
	}
}

// ---------------------------------------------------------------------------
// Hold
// ---------------------------------------------------------------------------

func TestHold_ReservesCredit(t *testing.T) {
	contractor := landscaper("97202")
	lead := openLead("97202")
	f := newEngineFixture([]*models.Lead{lead}, []*models.Contractor{contractor})
	f.ledger.grant(contractor.ID, 3)

	ctx := context.Background()
	li, err := f.engine.Hold(ctx, contractor, lead.ID)
	if err != nil {
		t.Fatalf("Hold: %v", err)
	}
	if li.Status != models.InterestStatusHeld {
		t.Errorf("status: got %q, want held", li.Status)
	}
	if want := f.now.Add(HoldTTL); !li.ExpiresAt.Equal(want) {
		t.Errorf("expires_at: got %v, want %v", li.ExpiresAt, want)
	}

	// The hold reduces availability but never the balance.
	summary, err := f.engine.Credits.Summarize(ctx, contractor.ID)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if summary.Balance != 3 || summary.Available != 2 {
		t.Errorf("summary: got balance=%d available=%d, want 3/2", summary.Balance, summary.Available)
	}
}

func TestHold_IdempotentWhileHeld(t *testing.T) {
	contractor := landscaper("97202")
	lead := openLead("97202")
	f := newEngineFixture([]*models.Lead{lead}, []*models.Contractor{contractor})
	f.ledger.grant(contractor.ID, 1)

	ctx := context.Background()
	first, err := f.engine.Hold(ctx, contractor, lead.ID)
	if err != nil {
		t.Fatalf("first Hold: %v", err)
	}
	// Second call succeeds without consuming the last available credit
	// twice and returns the same interest.
	second, err := f.engine.Hold(ctx, contractor, lead.ID)
	if err != nil {
		t.Fatalf("second Hold: %v", err)
	}
	if second.ID != first.ID {
		t.Error("repeat hold should return the existing interest, not create a new one")
	}
	if avail, _ := f.engine.Credits.Available(ctx, contractor.ID); avail != 0 {
		t.Errorf("available after double hold: got %d, want 0", avail)
	}
}

func TestHold_InsufficientCredits(t *testing.T) {
	contractor := landscaper("97202")
	leadA := openLead("97202")
	leadB := openLead("97202")
	f := newEngineFixture([]*models.Lead{leadA, leadB}, []*models.Contractor{contractor})
	f.ledger.grant(contractor.ID, 1)

	ctx := context.Background()
	if _, err := f.engine.Hold(ctx, contractor, leadA.ID); err != nil {
		t.Fatalf("Hold leadA: %v", err)
	}
	// One credit, one active hold: no headroom for a second lead.
	if _, err := f.engine.Hold(ctx, contractor, leadB.ID); !errors.Is(err, ErrInsufficientCredits) {
		t.Errorf("expected ErrInsufficientCredits, got: %v", err)
	}
}

func TestHold_RejectsIneligibleAndNonOpen(t *testing.T) {
	contractor := landscaper("97202")
	farLead := openLead("10001") // zip not served
	spamLead := openLead("97202")
	spamLead.Status = models.LeadStatusSpam
	rival := uuid.New()
	takenLead := openLead("97202")
	takenLead.Status = models.LeadStatusAssigned
	takenLead.AssignedContractorID = &rival
	f := newEngineFixture([]*models.Lead{farLead, spamLead, takenLead}, []*models.Contractor{contractor})
	f.ledger.grant(contractor.ID, 5)

	ctx := context.Background()
	if _, err := f.engine.Hold(ctx, contractor, farLead.ID); !errors.Is(err, ErrNotEligible) {
		t.Errorf("out-of-area hold: expected ErrNotEligible, got: %v", err)
	}
	// Lead state is checked before eligibility: a closed lead in a served
	// zip is a state conflict, not an eligibility failure.
	if _, err := f.engine.Hold(ctx, contractor, spamLead.ID); !errors.Is(err, ErrLeadNotOpen) {
		t.Errorf("hold on spam lead: expected ErrLeadNotOpen, got: %v", err)
	}
	if _, err := f.engine.Hold(ctx, contractor, takenLead.ID); !errors.Is(err, ErrLeadNotOpen) {
		t.Errorf("hold on assigned lead: expected ErrLeadNotOpen, got: %v", err)
	}
	if _, err := f.engine.Hold(ctx, contractor, uuid.New()); !errors.Is(err, ErrLeadNotFound) {
		t.Errorf("hold on unknown lead: expected ErrLeadNotFound, got: %v", err)
	}
}

func TestHold_ReholdAfterWithdraw(t *testing.T) {
	contractor := landscaper("97202")
	lead := openLead("97202")
	f := newEngineFixture([]*models.Lead{lead}, []*models.Contractor{contractor})
	f.ledger.grant(contractor.ID, 1)

	ctx := context.Background()
	first, err := f.engine.Hold(ctx, contractor, lead.ID)
	if err != nil {
		t.Fatalf("Hold: %v", err)
	}
	if _, err := f.engine.Withdraw(ctx, contractor.ID, lead.ID); err != nil {
		t.Fatalf("Withdraw: %v", err)
	}

	// Re-hold reuses the same row and clears the terminal stamps.
	f.advance(time.Hour)
	again, err := f.engine.Hold(ctx, contractor, lead.ID)
	if err != nil {
		t.Fatalf("re-Hold: %v", err)
	}
	if again.ID != first.ID {
		t.Error("re-hold should reuse the existing interest row")
	}
	if again.Status != models.InterestStatusHeld {
		t.Errorf("status after re-hold: got %q, want held", again.Status)
	}
	if want := f.now.Add(HoldTTL); !again.ExpiresAt.Equal(want) {
		t.Errorf("re-hold expires_at: got %v, want %v", again.ExpiresAt, want)
	}
}

// ---------------------------------------------------------------------------
// Withdraw
// ---------------------------------------------------------------------------

func TestWithdraw_ReleasesAvailability(t *testing.T) {
	contractor := landscaper("97202")
	lead := openLead("97202")
	f := newEngineFixture([]*models.Lead{lead}, []*models.Contractor{contractor})
	f.ledger.grant(contractor.ID, 1)

	ctx := context.Background()
	if _, err := f.engine.Hold(ctx, contractor, lead.ID); err != nil {
		t.Fatalf("Hold: %v", err)
	}
	li, err := f.engine.Withdraw(ctx, contractor.ID, lead.ID)
	if err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	if li.Status != models.InterestStatusWithdrawn {
		t.Errorf("status: got %q, want withdrawn", li.Status)
	}
	if li.ReleaseReason == nil || *li.ReleaseReason != models.ReleaseReasonContractorWithdrew {
		t.Error("withdraw should stamp contractor_withdrew")
	}
	if avail, _ := f.engine.Credits.Available(ctx, contractor.ID); avail != 1 {
		t.Errorf("available after withdraw: got %d, want 1", avail)
	}

	// Withdrawing again hits the status guard.
	if _, err := f.engine.Withdraw(ctx, contractor.ID, lead.ID); !errors.Is(err, ErrNoActiveHold) {
		t.Errorf("double withdraw: expected ErrNoActiveHold, got: %v", err)
	}
	// No interest at all.
	if _, err := f.engine.Withdraw(ctx, contractor.ID, uuid.New()); !errors.Is(err, ErrInterestNotFound) {
		t.Errorf("withdraw without interest: expected ErrInterestNotFound, got: %v", err)
	}
}

// ---------------------------------------------------------------------------
// Expiry
// ---------------------------------------------------------------------------

func TestExpireDue_SweepsLapsedHolds(t *testing.T) {
	contractor := landscaper("97202")
	lead := openLead("97202")
	f := newEngineFixture([]*models.Lead{lead}, []*models.Contractor{contractor})
	f.ledger.grant(contractor.ID, 1)

	ctx := context.Background()
	if _, err := f.engine.Hold(ctx, contractor, lead.ID); err != nil {
		t.Fatalf("Hold: %v", err)
	}

	// Availability recovers at the TTL boundary even before any sweep runs.
	f.advance(HoldTTL)
	if avail, _ := f.engine.Credits.Available(ctx, contractor.ID); avail != 1 {
		t.Errorf("available at TTL with no sweep: got %d, want 1", avail)
	}

	n, err := f.engine.ExpireDue(ctx)
	if err != nil {
		t.Fatalf("ExpireDue: %v", err)
	}
	if n != 1 {
		t.Errorf("swept: got %d, want 1", n)
	}
	if got := f.interests.status(lead.ID, contractor.ID); got != models.InterestStatusExpired {
		t.Errorf("status after sweep: got %q, want expired", got)
	}
	if got := f.interests.releaseReason(lead.ID, contractor.ID); got != models.ReleaseReasonTTLExpired {
		t.Errorf("release reason: got %q, want ttl_expired", got)
	}

	// Sweep is idempotent.
	if n, _ := f.engine.ExpireDue(ctx); n != 0 {
		t.Errorf("second sweep: got %d, want 0", n)
	}
}

// ---------------------------------------------------------------------------
// Accept
// ---------------------------------------------------------------------------

func TestAccept_CapturesWinnerReleasesRest(t *testing.T) {
	winner := landscaper("97202")
	loser := landscaper("97202")
	lead := openLead("97202")
	f := newEngineFixture([]*models.Lead{lead}, []*models.Contractor{winner, loser})
	f.ledger.grant(winner.ID, 2)
	f.ledger.grant(loser.ID, 2)

	ctx := context.Background()
	if _, err := f.engine.Hold(ctx, winner, lead.ID); err != nil {
		t.Fatalf("winner Hold: %v", err)
	}
	if _, err := f.engine.Hold(ctx, loser, lead.ID); err != nil {
		t.Fatalf("loser Hold: %v", err)
	}

	captured, err := f.engine.Accept(ctx, lead.ID, winner.ID)
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if captured.Status != models.InterestStatusCaptured {
		t.Errorf("winner status: got %q, want captured", captured.Status)
	}

	// Loser's hold is released with the homeowner_selected_other reason.
	if got := f.interests.status(lead.ID, loser.ID); got != models.InterestStatusReleased {
		t.Errorf("loser status: got %q, want released", got)
	}
	if got := f.interests.releaseReason(lead.ID, loser.ID); got != models.ReleaseReasonHomeownerSelected {
		t.Errorf("loser release reason: got %q, want homeowner_selected_other", got)
	}

	// Lead is assigned to the winner.
	assigned, err := f.leads.get(lead.ID)
	if err != nil {
		t.Fatalf("lead lookup: %v", err)
	}
	if assigned.Status != models.LeadStatusAssigned {
		t.Errorf("lead status: got %q, want assigned", assigned.Status)
	}
	if assigned.AssignedContractorID == nil || *assigned.AssignedContractorID != winner.ID {
		t.Error("lead should be assigned to the winner")
	}

	// Exactly one lead_capture entry: winner pays one credit, loser pays
	// nothing and regains full availability.
	captures := f.ledger.byType(models.CreditEntryLeadCapture)
	if len(captures) != 1 {
		t.Fatalf("lead_capture entries: got %d, want 1", len(captures))
	}
	if captures[0].ContractorID != winner.ID || captures[0].Delta != -1 {
		t.Errorf("capture entry: got contractor=%s delta=%d", captures[0].ContractorID, captures[0].Delta)
	}
	if captures[0].LeadID == nil || *captures[0].LeadID != lead.ID {
		t.Error("capture entry should reference the lead")
	}
	if bal, _ := f.engine.Credits.Balance(ctx, winner.ID); bal != 1 {
		t.Errorf("winner balance: got %d, want 1", bal)
	}
	if avail, _ := f.engine.Credits.Available(ctx, loser.ID); avail != 2 {
		t.Errorf("loser available: got %d, want 2", avail)
	}
}

func TestAccept_GuardsAndExpiredHold(t *testing.T) {
	contractor := landscaper("97202")
	lead := openLead("97202")
	f := newEngineFixture([]*models.Lead{lead}, []*models.Contractor{contractor})
	f.ledger.grant(contractor.ID, 1)

	ctx := context.Background()
	// No hold at all.
	if _, err := f.engine.Accept(ctx, lead.ID, contractor.ID); !errors.Is(err, ErrNoHeldInterest) {
		t.Errorf("accept without hold: expected ErrNoHeldInterest, got: %v", err)
	}

	if _, err := f.engine.Hold(ctx, contractor, lead.ID); err != nil {
		t.Fatalf("Hold: %v", err)
	}

	// Hold lapsed before the homeowner decided; a sweep may not have run
	// yet, but accept must still refuse the stale hold.
	f.advance(HoldTTL + time.Minute)
	if _, err := f.engine.Accept(ctx, lead.ID, contractor.ID); !errors.Is(err, ErrNoHeldInterest) {
		t.Errorf("accept on lapsed hold: expected ErrNoHeldInterest, got: %v", err)
	}
	if n := len(f.ledger.byType(models.CreditEntryLeadCapture)); n != 0 {
		t.Errorf("failed accept must not write ledger entries, got %d", n)
	}

	// Unknown contractor / unknown lead.
	if _, err := f.engine.Accept(ctx, lead.ID, uuid.New()); !errors.Is(err, ErrContractorNotFound) {
		t.Errorf("unknown contractor: expected ErrContractorNotFound, got: %v", err)
	}
	if _, err := f.engine.Accept(ctx, uuid.New(), contractor.ID); !errors.Is(err, ErrLeadNotFound) {
		t.Errorf("unknown lead: expected ErrLeadNotFound, got: %v", err)
	}
}

func TestAccept_OnlyOnOpenLead(t *testing.T) {
	a := landscaper("97202")
	b := landscaper("97202")
	lead := openLead("97202")
	f := newEngineFixture([]*models.Lead{lead}, []*models.Contractor{a, b})
	f.ledger.grant(a.ID, 1)
	f.ledger.grant(b.ID, 1)

	ctx := context.Background()
	if _, err := f.engine.Hold(ctx, a, lead.ID); err != nil {
		t.Fatalf("Hold a: %v", err)
	}
	if _, err := f.engine.Hold(ctx, b, lead.ID); err != nil {
		t.Fatalf("Hold b: %v", err)
	}
	if _, err := f.engine.Accept(ctx, lead.ID, a.ID); err != nil {
		t.Fatalf("Accept a: %v", err)
	}
	// The second accept sees a non-open lead under the lock.
	if _, err := f.engine.Accept(ctx, lead.ID, b.ID); !errors.Is(err, ErrLeadNotOpen) {
		t.Errorf("second accept: expected ErrLeadNotOpen, got: %v", err)
	}
}

// ---------------------------------------------------------------------------
// MarkSpam / Reset
// ---------------------------------------------------------------------------

func TestMarkSpam_ReleasesHoldsWithoutCharge(t *testing.T) {
	contractor := landscaper("97202")
	lead := openLead("97202")
	f := newEngineFixture([]*models.Lead{lead}, []*models.Contractor{contractor})
	f.ledger.grant(contractor.ID, 1)

	ctx := context.Background()
	if _, err := f.engine.Hold(ctx, contractor, lead.ID); err != nil {
		t.Fatalf("Hold: %v", err)
	}
	if err := f.engine.MarkSpam(ctx, lead.ID); err != nil {
		t.Fatalf("MarkSpam: %v", err)
	}

	spammed, _ := f.leads.get(lead.ID)
	if spammed.Status != models.LeadStatusSpam {
		t.Errorf("lead status: got %q, want spam", spammed.Status)
	}
	if got := f.interests.releaseReason(lead.ID, contractor.ID); got != models.ReleaseReasonLeadMarkedSpam {
		t.Errorf("release reason: got %q, want lead_marked_spam", got)
	}
	if bal, _ := f.engine.Credits.Balance(ctx, contractor.ID); bal != 1 {
		t.Errorf("spam must not touch the ledger: balance got %d, want 1", bal)
	}
	if avail, _ := f.engine.Credits.Available(ctx, contractor.ID); avail != 1 {
		t.Errorf("available after spam release: got %d, want 1", avail)
	}

	// Spam is only for open leads.
	if err := f.engine.MarkSpam(ctx, lead.ID); !errors.Is(err, ErrLeadNotOpen) {
		t.Errorf("double spam: expected ErrLeadNotOpen, got: %v", err)
	}
}

func TestReset_ReopensWithoutRefund(t *testing.T) {
	winner := landscaper("97202")
	lead := openLead("97202")
	f := newEngineFixture([]*models.Lead{lead}, []*models.Contractor{winner})
	f.ledger.grant(winner.ID, 2)

	ctx := context.Background()
	if _, err := f.engine.Hold(ctx, winner, lead.ID); err != nil {
		t.Fatalf("Hold: %v", err)
	}
	if _, err := f.engine.Accept(ctx, lead.ID, winner.ID); err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if err := f.engine.Reset(ctx, lead.ID); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	reopened, _ := f.leads.get(lead.ID)
	if reopened.Status != models.LeadStatusOpen {
		t.Errorf("lead status: got %q, want open", reopened.Status)
	}
	if reopened.AssignedContractorID != nil {
		t.Error("reset should clear the assignment")
	}
	if got := f.interests.status(lead.ID, winner.ID); got != "" {
		t.Errorf("interests should be deleted, found status %q", got)
	}
	// Intentionally non-restorative: the captured credit stays spent.
	if bal, _ := f.engine.Credits.Balance(ctx, winner.ID); bal != 1 {
		t.Errorf("balance after reset: got %d, want 1", bal)
	}
}

// ---------------------------------------------------------------------------
// Questions
// ---------------------------------------------------------------------------

func TestAskQuestion(t *testing.T) {
	contractor := landscaper("97202")
	lead := openLead("97202")
	f := newEngineFixture([]*models.Lead{lead}, []*models.Contractor{contractor})
	f.ledger.grant(contractor.ID, 1)

	ctx := context.Background()
	// Requires an active hold.
	if _, err := f.engine.AskQuestion(ctx, contractor, lead.ID, "timeline", ""); !errors.Is(err, ErrNoActiveHold) {
		t.Errorf("question without hold: expected ErrNoActiveHold, got: %v", err)
	}

	if _, err := f.engine.Hold(ctx, contractor, lead.ID); err != nil {
		t.Fatalf("Hold: %v", err)
	}
	q, err := f.engine.AskQuestion(ctx, contractor, lead.ID, "timeline", "We have a crew free in October.")
	if err != nil {
		t.Fatalf("AskQuestion: %v", err)
	}
	if q.TemplateID != "timeline" || q.ContractorName != contractor.CompanyName {
		t.Errorf("question metadata: got template=%q name=%q", q.TemplateID, q.ContractorName)
	}

	// Unknown template and contact-leaking addendum both reject.
	if _, err := f.engine.AskQuestion(ctx, contractor, lead.ID, "pricing", ""); !errors.Is(err, ErrValidation) {
		t.Errorf("unknown template: expected ErrValidation, got: %v", err)
	}
	if _, err := f.engine.AskQuestion(ctx, contractor, lead.ID, "budget", "Call me at 503-555-0100"); !errors.Is(err, ErrValidation) {
		t.Errorf("phone addendum: expected ErrValidation, got: %v", err)
	}
}

// ---------------------------------------------------------------------------
// Matched feed
// ---------------------------------------------------------------------------

func TestListMatchedLeads_ScoredAndSorted(t *testing.T) {
	contractor := landscaper("97202", "97206")

	strong := openLead("97202")
	strong.RequiredTags = []string{"pavers", "retaining-walls"}
	weak := openLead("97206")
	weak.MajorCategories = nil
	farAway := openLead("10001")

	f := newEngineFixture([]*models.Lead{strong, weak, farAway}, []*models.Contractor{contractor})
	f.ledger.grant(contractor.ID, 1)

	ctx := context.Background()
	if _, err := f.engine.Hold(ctx, contractor, strong.ID); err != nil {
		t.Fatalf("Hold: %v", err)
	}

	out, err := f.engine.ListMatchedLeads(ctx, contractor)
	if err != nil {
		t.Fatalf("ListMatchedLeads: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("feed size: got %d, want 2 (out-of-area lead excluded)", len(out))
	}
	if out[0].Lead.ID != strong.ID {
		t.Error("best-scoring lead should come first")
	}
	// zip 50 + major 25 + 2 tag hits.
	if out[0].Score == nil || *out[0].Score != 50+25+2*8 {
		t.Errorf("strong score: got %v, want 91", out[0].Score)
	}
	if out[1].Score == nil || *out[1].Score != 50 {
		t.Errorf("weak score: got %v, want 50", out[1].Score)
	}
	if out[0].Interest == nil || out[0].Interest.Status != models.InterestStatusHeld {
		t.Error("feed should attach the contractor's own interest")
	}
	if out[1].Interest != nil {
		t.Error("no interest expected on the unheld lead")
	}
}

func TestListMatchedLeads_AdminSeesAllUnscored(t *testing.T) {
	admin := &models.Contractor{ID: uuid.New(), Role: models.RoleAdmin}
	a := openLead("97202")
	b := openLead("10001")
	f := newEngineFixture([]*models.Lead{a, b}, []*models.Contractor{admin})

	out, err := f.engine.ListMatchedLeads(context.Background(), admin)
	if err != nil {
		t.Fatalf("ListMatchedLeads: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("admin feed size: got %d, want 2", len(out))
	}
	for _, e := range out {
		if e.Score != nil {
			t.Error("admin feed entries should be unscored")
		}
	}
}

func TestAssignedLeadVisibleOnlyToWinner(t *testing.T) {
	winner := landscaper("97202")
	rival := landscaper("97202")
	lead := openLead("97202")
	f := newEngineFixture([]*models.Lead{lead}, []*models.Contractor{winner, rival})
	f.ledger.grant(winner.ID, 1)

	ctx := context.Background()
	if _, err := f.engine.Hold(ctx, winner, lead.ID); err != nil {
		t.Fatalf("Hold: %v", err)
	}
	if _, err := f.engine.Accept(ctx, lead.ID, winner.ID); err != nil {
		t.Fatalf("Accept: %v", err)
	}

	winnerFeed, _ := f.engine.ListMatchedLeads(ctx, winner)
	if len(winnerFeed) != 1 {
		t.Errorf("winner feed: got %d leads, want 1", len(winnerFeed))
	}
	rivalFeed, _ := f.engine.ListMatchedLeads(ctx, rival)
	if len(rivalFeed) != 0 {
		t.Errorf("rival feed: got %d leads, want 0", len(rivalFeed))
	}
}
