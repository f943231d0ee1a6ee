package wallet

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/clinicore/internal/domain/visit"
	"github.com/clinicore/clinicore/internal/platform/auth"
)

// -- Mocks --

type mockRepo struct {
	wallets map[uuid.UUID]*Wallet
	txns    []*Transaction
}

func newMockRepo() *mockRepo {
	return &mockRepo{wallets: make(map[uuid.UUID]*Wallet)}
}

func (m *mockRepo) Create(_ context.Context, w *Wallet) error {
	// Enforce what the unique index on patient_id enforces.
	for _, existing := range m.wallets {
		if existing.PatientID == w.PatientID {
			return errDuplicatePatient
		}
	}
	w.ID = uuid.New()
	w.CreatedAt = time.Now()
	w.UpdatedAt = time.Now()
	cp := *w
	m.wallets[w.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Wallet, error) {
	w, ok := m.wallets[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *w
	return &cp, nil
}

func (m *mockRepo) GetByPatient(_ context.Context, patientID uuid.UUID) (*Wallet, error) {
	for _, w := range m.wallets {
		if w.PatientID == patientID {
			cp := *w
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*Wallet, error) {
	return m.GetByID(ctx, id)
}

func (m *mockRepo) UpdateBalance(_ context.Context, id uuid.UUID, balance int64) error {
	w, ok := m.wallets[id]
	if !ok {
		return ErrNotFound
	}
	w.Balance = balance
	return nil
}

func (m *mockRepo) AppendTransaction(_ context.Context, t *Transaction) error {
	t.ID = uuid.New()
	t.CreatedAt = time.Now()
	cp := *t
	m.txns = append(m.txns, &cp)
	return nil
}

func (m *mockRepo) ListTransactions(_ context.Context, walletID uuid.UUID, limit, offset int) ([]*Transaction, int, error) {
	var result []*Transaction
	for _, t := range m.txns {
		if t.WalletID == walletID {
			result = append(result, t)
		}
	}
	return result, len(result), nil
}

func (m *mockRepo) SumDebitsByVisit(_ context.Context, visitID uuid.UUID) (int64, error) {
	var sum int64
	for _, t := range m.txns {
		if t.Type == TypeDebit && t.VisitID != nil && *t.VisitID == visitID {
			sum += t.Amount
		}
	}
	return sum, nil
}

type mockVisitSource struct {
	items map[uuid.UUID]*visit.Visit
}

func (m *mockVisitSource) GetForUpdate(_ context.Context, id uuid.UUID) (*visit.Visit, error) {
	v, ok := m.items[id]
	if !ok {
		return nil, visit.ErrNotFound
	}
	cp := *v
	return &cp, nil
}

// lockRunner serializes transactions the way row locks do in Postgres, so the
// concurrent debit test exercises the same check-then-decrement atomicity.
type lockRunner struct {
	mu sync.Mutex
}

func (r *lockRunner) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(ctx)
}

type fixture struct {
	svc     *Service
	repo    *mockRepo
	visits  *mockVisitSource
	visitID uuid.UUID
}

func newFixture() *fixture {
	repo := newMockRepo()
	visits := &mockVisitSource{items: make(map[uuid.UUID]*visit.Visit)}
	id := uuid.New()
	visits.items[id] = &visit.Visit{ID: id, PatientID: uuid.New(), Status: visit.StatusOpen}
	svc := NewService(repo, visits, &lockRunner{}, "INR")
	return &fixture{svc: svc, repo: repo, visits: visits, visitID: id}
}

var testActor = auth.Actor{ID: "u-1", Role: auth.RoleReception}

func (f *fixture) fundedWallet(t *testing.T, amount int64) *Wallet {
	t.Helper()
	w, err := f.svc.EnsureWallet(context.Background(), uuid.New(), testActor)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if amount > 0 {
		if _, err := f.svc.Credit(context.Background(), w.ID, amount, nil, testActor); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	return w
}

// -- Tests --

func TestEnsureWallet_Idempotent(t *testing.T) {
	f := newFixture()
	patientID := uuid.New()
	first, err := f.svc.EnsureWallet(context.Background(), patientID, testActor)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := f.svc.EnsureWallet(context.Background(), patientID, testActor)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.ID != second.ID {
		t.Error("ensure must return the existing wallet, not create another")
	}
	if first.Balance != 0 || first.Currency != "INR" {
		t.Errorf("unexpected new wallet: %+v", first)
	}
}

// firstMissRepo loses the first-use race: the initial existence check misses,
// and the insert then hits the unique index on patient_id.
type firstMissRepo struct {
	*mockRepo
	missed bool
}

func (r *firstMissRepo) GetByPatient(ctx context.Context, patientID uuid.UUID) (*Wallet, error) {
	if !r.missed {
		r.missed = true
		return nil, ErrNotFound
	}
	return r.mockRepo.GetByPatient(ctx, patientID)
}

func TestEnsureWallet_LostCreateRaceRefetches(t *testing.T) {
	repo := &firstMissRepo{mockRepo: newMockRepo()}
	visits := &mockVisitSource{items: make(map[uuid.UUID]*visit.Visit)}
	svc := NewService(repo, visits, &lockRunner{}, "INR")

	patientID := uuid.New()
	theirs := &Wallet{PatientID: patientID, Currency: "INR"}
	if err := repo.mockRepo.Create(context.Background(), theirs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	w, err := svc.EnsureWallet(context.Background(), patientID, testActor)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.ID != theirs.ID {
		t.Error("ensure must return the wallet the winning request created")
	}
	if len(repo.wallets) != 1 {
		t.Errorf("expected one wallet per patient, got %d", len(repo.wallets))
	}
}

func TestCredit(t *testing.T) {
	f := newFixture()
	w := f.fundedWallet(t, 0)
	txn, err := f.svc.Credit(context.Background(), w.ID, 5000, nil, testActor)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if txn.Type != TypeCredit || txn.Amount != 5000 || txn.BalanceAfter != 5000 {
		t.Errorf("unexpected transaction: %+v", txn)
	}
	stored, _ := f.repo.GetByID(context.Background(), w.ID)
	if stored.Balance != 5000 {
		t.Errorf("expected balance 5000, got %d", stored.Balance)
	}
}

func TestCredit_InvalidAmount(t *testing.T) {
	f := newFixture()
	w := f.fundedWallet(t, 0)
	if _, err := f.svc.Credit(context.Background(), w.ID, 0, nil, testActor); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestDebit(t *testing.T) {
	f := newFixture()
	w := f.fundedWallet(t, 10000)
	txn, err := f.svc.Debit(context.Background(), w.ID, 6000, &f.visitID, nil, testActor)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if txn.Type != TypeDebit || txn.BalanceAfter != 4000 {
		t.Errorf("unexpected transaction: %+v", txn)
	}
	sum, _ := f.svc.SumDebitsByVisit(context.Background(), f.visitID)
	if sum != 6000 {
		t.Errorf("expected visit debit sum 6000, got %d", sum)
	}
}

// Precondition order is fixed: amount, visit reference, visit state, balance.
// Each case below would also fail a later check; the earlier one must win.
func TestDebit_PreconditionOrder(t *testing.T) {
	f := newFixture()
	w := f.fundedWallet(t, 100)

	closedID := uuid.New()
	now := time.Now()
	f.visits.items[closedID] = &visit.Visit{ID: closedID, Status: visit.StatusClosed, ClosedAt: &now}

	if _, err := f.svc.Debit(context.Background(), w.ID, -5, nil, nil, testActor); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount first, got %v", err)
	}
	if _, err := f.svc.Debit(context.Background(), w.ID, 500, nil, nil, testActor); !errors.Is(err, ErrMissingVisitReference) {
		t.Errorf("expected ErrMissingVisitReference before balance check, got %v", err)
	}
	if _, err := f.svc.Debit(context.Background(), w.ID, 500, &closedID, nil, testActor); !errors.Is(err, visit.ErrClosed) {
		t.Errorf("expected ErrClosed before balance check, got %v", err)
	}
	if _, err := f.svc.Debit(context.Background(), w.ID, 500, &f.visitID, nil, testActor); !errors.Is(err, ErrInsufficientBalance) {
		t.Errorf("expected ErrInsufficientBalance, got %v", err)
	}
}

func TestDebit_InsufficientLeavesNoTrace(t *testing.T) {
	f := newFixture()
	w := f.fundedWallet(t, 10000)

	_, err := f.svc.Debit(context.Background(), w.ID, 15000, &f.visitID, nil, testActor)
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	stored, _ := f.repo.GetByID(context.Background(), w.ID)
	if stored.Balance != 10000 {
		t.Errorf("failed debit must leave balance unchanged, got %d", stored.Balance)
	}
	for _, txn := range f.repo.txns {
		if txn.Type == TypeDebit {
			t.Error("failed debit must not append a transaction row")
		}
	}
}

func TestDebit_Concurrent(t *testing.T) {
	f := newFixture()
	w := f.fundedWallet(t, 10000)

	var wg sync.WaitGroup
	results := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Debit(context.Background(), w.ID, 1000, &f.visitID, nil, testActor)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var ok, insufficient int
	for err := range results {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrInsufficientBalance):
			insufficient++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 10 || insufficient != 10 {
		t.Errorf("expected 10 successes and 10 refusals, got %d/%d", ok, insufficient)
	}
	stored, _ := f.repo.GetByID(context.Background(), w.ID)
	if stored.Balance != 0 {
		t.Errorf("expected balance drained to exactly 0, got %d", stored.Balance)
	}
}

// Replaying the transaction history must reproduce every intermediate balance
// without ever dipping below zero, and land on the stored balance.
func TestStatement_ReplayMatchesBalance(t *testing.T) {
	f := newFixture()
	w := f.fundedWallet(t, 0)
	f.svc.Credit(context.Background(), w.ID, 5000, nil, testActor)
	f.svc.Debit(context.Background(), w.ID, 2000, &f.visitID, nil, testActor)
	f.svc.Credit(context.Background(), w.ID, 1000, nil, testActor)
	f.svc.Debit(context.Background(), w.ID, 4000, &f.visitID, nil, testActor)

	var balance int64
	for _, txn := range f.repo.txns {
		switch txn.Type {
		case TypeCredit:
			balance += txn.Amount
		case TypeDebit:
			balance -= txn.Amount
		}
		if balance < 0 {
			t.Fatalf("balance went negative mid-history: %d", balance)
		}
		if txn.BalanceAfter != balance {
			t.Errorf("balance_after %d does not match replayed %d", txn.BalanceAfter, balance)
		}
	}
	stored, _ := f.repo.GetByID(context.Background(), w.ID)
	if stored.Balance != balance {
		t.Errorf("stored balance %d does not match replayed %d", stored.Balance, balance)
	}
}
