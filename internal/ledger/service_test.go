package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/pocketbook/pocketbook/internal/blob"
	"github.com/pocketbook/pocketbook/internal/docstore"
	"github.com/pocketbook/pocketbook/internal/transaction"
	"github.com/pocketbook/pocketbook/internal/wallet"
)

type failingBlobs struct{}

func (failingBlobs) Upload(_ context.Context, _, _ string) (string, error) {
	return "", blob.ErrUploadFailed
}

type fixture struct {
	store   docstore.Store
	wallets *wallet.Repository
	txs     *transaction.Repository
	svc     *Service
}

func newFixture() *fixture {
	store := docstore.NewMemory()
	wallets := wallet.NewRepository(store)
	txs := transaction.NewRepository(store)
	return &fixture{
		store:   store,
		wallets: wallets,
		txs:     txs,
		svc:     NewService(store, wallets, txs, blob.StaticStore{}),
	}
}

func (f *fixture) seedWallet(t *testing.T, ownerID string, balance int64) wallet.Wallet {
	t.Helper()
	w, err := f.wallets.Create(context.Background(), wallet.Wallet{
		OwnerID:     ownerID,
		Name:        "main",
		Balance:     balance,
		TotalIncome: balance,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("seed wallet: %v", err)
	}
	return w
}

func (f *fixture) wallet(t *testing.T, id string) wallet.Wallet {
	t.Helper()
	w, err := f.wallets.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("get wallet: %v", err)
	}
	return w
}

func checkInvariant(t *testing.T, w wallet.Wallet) {
	t.Helper()
	if w.Balance != w.TotalIncome-w.TotalExpenses {
		t.Fatalf("invariant violated: balance=%d income=%d expenses=%d", w.Balance, w.TotalIncome, w.TotalExpenses)
	}
}

func TestCreateTransactionIncome(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	owner := uuid.NewString()
	w := f.seedWallet(t, owner, 0)

	created, err := f.svc.CreateTransaction(ctx, owner, Draft{
		WalletID: w.ID,
		Kind:     transaction.KindIncome,
		Amount:   50,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected assigned transaction id")
	}

	after := f.wallet(t, w.ID)
	if after.Balance != 50 || after.TotalIncome != 50 || after.TotalExpenses != 0 {
		t.Fatalf("unexpected wallet state: %+v", after)
	}
	checkInvariant(t, after)
}

func TestCreateTransactionExpenseBoundary(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	owner := uuid.NewString()
	w := f.seedWallet(t, owner, 100)

	// Spending the exact balance succeeds.
	if _, err := f.svc.CreateTransaction(ctx, owner, Draft{
		WalletID: w.ID,
		Kind:     transaction.KindExpense,
		Amount:   100,
		Category: "groceries",
	}); err != nil {
		t.Fatalf("exact-balance expense: %v", err)
	}
	if got := f.wallet(t, w.ID).Balance; got != 0 {
		t.Fatalf("expected balance 0, got %d", got)
	}

	// One unit over fails and leaves the wallet untouched.
	f2 := newFixture()
	w2 := f2.seedWallet(t, owner, 100)
	_, err := f2.svc.CreateTransaction(ctx, owner, Draft{
		WalletID: w2.ID,
		Kind:     transaction.KindExpense,
		Amount:   101,
		Category: "groceries",
	})
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}
	after := f2.wallet(t, w2.ID)
	if after.Balance != 100 || after.TotalExpenses != 0 {
		t.Fatalf("failed expense mutated wallet: %+v", after)
	}

	// The transaction row must not have landed either.
	list, err := f2.txs.ListByOwner(ctx, owner)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected no transactions, got %d", len(list))
	}
}

func TestCreateTransactionValidation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	owner := uuid.NewString()
	w := f.seedWallet(t, owner, 100)

	cases := []struct {
		name  string
		draft Draft
	}{
		{"zero amount", Draft{WalletID: w.ID, Kind: transaction.KindIncome, Amount: 0}},
		{"negative amount", Draft{WalletID: w.ID, Kind: transaction.KindIncome, Amount: -5}},
		{"missing wallet", Draft{Kind: transaction.KindIncome, Amount: 5}},
		{"unknown kind", Draft{WalletID: w.ID, Kind: "transfer", Amount: 5}},
		{"expense without category", Draft{WalletID: w.ID, Kind: transaction.KindExpense, Amount: 5}},
	}
	for _, tc := range cases {
		if _, err := f.svc.CreateTransaction(ctx, owner, tc.draft); !errors.Is(err, ErrValidation) {
			t.Fatalf("%s: expected validation error, got %v", tc.name, err)
		}
	}
}

func TestCreateTransactionMissingWallet(t *testing.T) {
	f := newFixture()
	_, err := f.svc.CreateTransaction(context.Background(), uuid.NewString(), Draft{
		WalletID: uuid.NewString(),
		Kind:     transaction.KindIncome,
		Amount:   10,
	})
	if !errors.Is(err, docstore.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCreateTransactionUploadFailureLeavesNothing(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	owner := uuid.NewString()
	w := f.seedWallet(t, owner, 0)
	f.svc = NewService(f.store, f.wallets, f.txs, failingBlobs{})

	_, err := f.svc.CreateTransaction(ctx, owner, Draft{
		WalletID: w.ID,
		Kind:     transaction.KindIncome,
		Amount:   10,
		Receipt:  "/tmp/receipt.jpg",
	})
	if !errors.Is(err, blob.ErrUploadFailed) {
		t.Fatalf("expected upload failure, got %v", err)
	}

	after := f.wallet(t, w.ID)
	if after.Balance != 0 || after.TotalIncome != 0 {
		t.Fatalf("upload failure mutated wallet: %+v", after)
	}
	list, _ := f.txs.ListByOwner(ctx, owner)
	if len(list) != 0 {
		t.Fatalf("upload failure persisted a transaction")
	}
}

func TestCreateTransactionConcurrent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	owner := uuid.NewString()
	w := f.seedWallet(t, owner, 0)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.svc.CreateTransaction(ctx, owner, Draft{
				WalletID: w.ID,
				Kind:     transaction.KindIncome,
				Amount:   10,
			}); err != nil {
				t.Errorf("concurrent create: %v", err)
			}
		}()
	}
	wg.Wait()

	after := f.wallet(t, w.ID)
	if after.Balance != 20 || after.TotalIncome != 20 {
		t.Fatalf("lost update: %+v", after)
	}
	checkInvariant(t, after)
}

func TestUpdateTransactionAmountInPlace(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	owner := uuid.NewString()
	w := f.seedWallet(t, owner, 100)

	created, err := f.svc.CreateTransaction(ctx, owner, Draft{
		WalletID: w.ID,
		Kind:     transaction.KindExpense,
		Amount:   60,
		Category: "rent",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Growing the expense in place must revert before applying; applying
	// the new amount against the current balance would overdraw it.
	if _, err := f.svc.UpdateTransaction(ctx, owner, created.ID, Draft{
		WalletID: w.ID,
		Kind:     transaction.KindExpense,
		Amount:   80,
		Category: "rent",
	}); err != nil {
		t.Fatalf("update: %v", err)
	}

	after := f.wallet(t, w.ID)
	if after.Balance != 20 || after.TotalExpenses != 80 {
		t.Fatalf("unexpected wallet state: %+v", after)
	}
	checkInvariant(t, after)
}

func TestUpdateTransactionKindFlip(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	owner := uuid.NewString()
	w := f.seedWallet(t, owner, 100)

	created, err := f.svc.CreateTransaction(ctx, owner, Draft{
		WalletID: w.ID,
		Kind:     transaction.KindIncome,
		Amount:   40,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := f.svc.UpdateTransaction(ctx, owner, created.ID, Draft{
		WalletID: w.ID,
		Kind:     transaction.KindExpense,
		Amount:   40,
		Category: "refund",
	}); err != nil {
		t.Fatalf("update: %v", err)
	}

	after := f.wallet(t, w.ID)
	if after.Balance != 60 || after.TotalIncome != 100 || after.TotalExpenses != 40 {
		t.Fatalf("unexpected wallet state: %+v", after)
	}
	checkInvariant(t, after)
}

func TestUpdateTransactionMoveBetweenWallets(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	owner := uuid.NewString()

	// Wallet A held 40, then an expense of 20 was applied.
	a := f.seedWallet(t, owner, 40)
	created, err := f.svc.CreateTransaction(ctx, owner, Draft{
		WalletID: a.ID,
		Kind:     transaction.KindExpense,
		Amount:   20,
		Category: "fuel",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Wallet B is empty: moving the expense there must be rejected and
	// leave both wallets exactly as they were.
	b := f.seedWallet(t, owner, 0)
	_, err = f.svc.UpdateTransaction(ctx, owner, created.ID, Draft{
		WalletID: b.ID,
		Kind:     transaction.KindExpense,
		Amount:   20,
		Category: "fuel",
	})
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}

	afterA := f.wallet(t, a.ID)
	if afterA.Balance != 20 || afterA.TotalExpenses != 20 {
		t.Fatalf("wallet A mutated by failed move: %+v", afterA)
	}
	afterB := f.wallet(t, b.ID)
	if afterB.Balance != 0 || afterB.TotalExpenses != 0 {
		t.Fatalf("wallet B mutated by failed move: %+v", afterB)
	}
	moved, err := f.svc.GetTransaction(ctx, owner, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if moved.WalletID != a.ID {
		t.Fatalf("transaction migrated despite failure: %+v", moved)
	}

	// With funds on B the same move succeeds end to end.
	c := f.seedWallet(t, owner, 50)
	if _, err := f.svc.UpdateTransaction(ctx, owner, created.ID, Draft{
		WalletID: c.ID,
		Kind:     transaction.KindExpense,
		Amount:   20,
		Category: "fuel",
	}); err != nil {
		t.Fatalf("move: %v", err)
	}
	afterA = f.wallet(t, a.ID)
	if afterA.Balance != 40 || afterA.TotalExpenses != 0 {
		t.Fatalf("wallet A not reverted: %+v", afterA)
	}
	afterC := f.wallet(t, c.ID)
	if afterC.Balance != 30 || afterC.TotalExpenses != 20 {
		t.Fatalf("wallet C not applied: %+v", afterC)
	}
	checkInvariant(t, afterA)
	checkInvariant(t, afterC)
}

func TestUpdateTransactionDescriptiveOnly(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	owner := uuid.NewString()
	w := f.seedWallet(t, owner, 100)

	created, err := f.svc.CreateTransaction(ctx, owner, Draft{
		WalletID: w.ID,
		Kind:     transaction.KindExpense,
		Amount:   30,
		Category: "food",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	before := f.wallet(t, w.ID)

	updated, err := f.svc.UpdateTransaction(ctx, owner, created.ID, Draft{
		WalletID:    w.ID,
		Kind:        transaction.KindExpense,
		Amount:      30,
		Category:    "dining",
		Description: "team lunch",
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Category != "dining" || updated.Description != "team lunch" {
		t.Fatalf("descriptive fields not updated: %+v", updated)
	}

	after := f.wallet(t, w.ID)
	if after != before {
		t.Fatalf("descriptive update touched wallet totals: %+v vs %+v", before, after)
	}
}

func TestDeleteTransactionRevertsEffect(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	owner := uuid.NewString()
	w := f.seedWallet(t, owner, 100)

	created, err := f.svc.CreateTransaction(ctx, owner, Draft{
		WalletID: w.ID,
		Kind:     transaction.KindExpense,
		Amount:   25,
		Category: "misc",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := f.svc.DeleteTransaction(ctx, owner, created.ID, w.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	after := f.wallet(t, w.ID)
	if after.Balance != 100 || after.TotalExpenses != 0 {
		t.Fatalf("delete did not revert: %+v", after)
	}
	if _, err := f.svc.GetTransaction(ctx, owner, created.ID); !errors.Is(err, docstore.ErrNotFound) {
		t.Fatalf("expected transaction gone, got %v", err)
	}
}

func TestDeleteIncomeGuard(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	owner := uuid.NewString()
	w := f.seedWallet(t, owner, 0)

	income, err := f.svc.CreateTransaction(ctx, owner, Draft{
		WalletID: w.ID,
		Kind:     transaction.KindIncome,
		Amount:   50,
	})
	if err != nil {
		t.Fatalf("create income: %v", err)
	}
	if _, err := f.svc.CreateTransaction(ctx, owner, Draft{
		WalletID: w.ID,
		Kind:     transaction.KindExpense,
		Amount:   30,
		Category: "misc",
	}); err != nil {
		t.Fatalf("create expense: %v", err)
	}

	// Balance is 20; removing the 50 income would leave it at -30.
	err = f.svc.DeleteTransaction(ctx, owner, income.ID, w.ID)
	if !errors.Is(err, ErrCannotDelete) {
		t.Fatalf("expected cannot-delete, got %v", err)
	}

	after := f.wallet(t, w.ID)
	if after.Balance != 20 || after.TotalIncome != 50 || after.TotalExpenses != 30 {
		t.Fatalf("rejected delete mutated wallet: %+v", after)
	}
	checkInvariant(t, after)
}

func TestApplyThenRevertRoundTrip(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	owner := uuid.NewString()
	w := f.seedWallet(t, owner, 70)
	before := f.wallet(t, w.ID)

	for _, kind := range []transaction.Kind{transaction.KindIncome, transaction.KindExpense} {
		if _, err := f.svc.ApplyNewTransaction(ctx, w.ID, kind, 35); err != nil {
			t.Fatalf("apply %s: %v", kind, err)
		}
		if _, err := f.svc.RevertTransaction(ctx, w.ID, kind, 35); err != nil {
			t.Fatalf("revert %s: %v", kind, err)
		}
		after := f.wallet(t, w.ID)
		if after != before {
			t.Fatalf("%s round trip drifted: %+v vs %+v", kind, before, after)
		}
	}
}

func TestApplyNewTransactionSnapshot(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	owner := uuid.NewString()
	w := f.seedWallet(t, owner, 0)

	snap, err := f.svc.ApplyNewTransaction(ctx, w.ID, transaction.KindIncome, 15)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if snap.Balance != 15 || snap.TotalIncome != 15 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	checkInvariant(t, snap)
}

func TestOwnershipIsolation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	owner := uuid.NewString()
	stranger := uuid.NewString()
	w := f.seedWallet(t, owner, 100)

	created, err := f.svc.CreateTransaction(ctx, owner, Draft{
		WalletID: w.ID,
		Kind:     transaction.KindExpense,
		Amount:   10,
		Category: "misc",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := f.svc.CreateTransaction(ctx, stranger, Draft{
		WalletID: w.ID,
		Kind:     transaction.KindIncome,
		Amount:   10,
	}); !errors.Is(err, docstore.ErrNotFound) {
		t.Fatalf("stranger create: expected not found, got %v", err)
	}
	if _, err := f.svc.GetTransaction(ctx, stranger, created.ID); !errors.Is(err, docstore.ErrNotFound) {
		t.Fatalf("stranger get: expected not found, got %v", err)
	}
	if err := f.svc.DeleteTransaction(ctx, stranger, created.ID, w.ID); !errors.Is(err, docstore.ErrNotFound) {
		t.Fatalf("stranger delete: expected not found, got %v", err)
	}
}
