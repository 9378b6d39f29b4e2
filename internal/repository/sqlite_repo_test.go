package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Candy2803/mpesa/internal/domain"
)

func newTestRepo(t *testing.T) *SQLiteRepo {
	t.Helper()
	repo, err := NewSQLiteRepo(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open repo: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func pendingTx(checkoutID string) *domain.Transaction {
	return &domain.Transaction{
		ID:                uuid.NewString(),
		PhoneNumber:       "254712345678",
		Amount:            decimal.NewFromInt(500),
		Reference:         "Payment",
		Description:       "Payment",
		MerchantRequestID: "m-" + checkoutID,
		CheckoutRequestID: checkoutID,
		Status:            domain.StatusPending,
	}
}

func TestInsertAndFind(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	tx := pendingTx("ws_CO_1")
	tx.OwnerID = "user-1"
	if err := repo.Insert(ctx, tx); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	got, err := repo.FindByCheckoutRequestID(ctx, "ws_CO_1")
	if err != nil {
		t.Fatalf("FindByCheckoutRequestID: %v", err)
	}
	if got.ID != tx.ID || got.OwnerID != "user-1" || got.Status != domain.StatusPending {
		t.Fatalf("unexpected record: %+v", got)
	}
	if !got.Amount.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("amount = %s, want 500", got.Amount)
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Fatal("timestamps not set on insert")
	}

	byMerchant, err := repo.FindByMerchantRequestID(ctx, "m-ws_CO_1")
	if err != nil {
		t.Fatalf("FindByMerchantRequestID: %v", err)
	}
	if byMerchant.ID != tx.ID {
		t.Fatalf("merchant lookup found %q, want %q", byMerchant.ID, tx.ID)
	}

	byID, err := repo.FindByID(ctx, tx.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if byID.CheckoutRequestID != "ws_CO_1" {
		t.Fatalf("id lookup checkout = %q", byID.CheckoutRequestID)
	}
}

func TestFindNotFound(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.FindByCheckoutRequestID(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
	if _, err := repo.FindByID(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestDuplicateCheckoutRequestID(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.Insert(ctx, pendingTx("ws_CO_dup")); err != nil {
		t.Fatalf("first insert: %v", err)
	}

	err := repo.Insert(ctx, pendingTx("ws_CO_dup"))
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("second insert error = %v, want ErrDuplicate", err)
	}
}

func TestDuplicateReceiptNumber(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	a := pendingTx("ws_CO_a")
	a.MpesaReceiptNumber = "R123"
	if err := repo.Insert(ctx, a); err != nil {
		t.Fatalf("first insert: %v", err)
	}

	b := pendingTx("ws_CO_b")
	b.MpesaReceiptNumber = "R123"
	if err := repo.Insert(ctx, b); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("second insert error = %v, want ErrDuplicate", err)
	}
}

func TestEmptyCorrelationIDsDoNotCollide(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	// Sparse uniqueness: rows without a checkout id or receipt must be
	// insertable in any number.
	for i := 0; i < 3; i++ {
		tx := pendingTx("")
		tx.MerchantRequestID = ""
		if err := repo.Insert(ctx, tx); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}
}

func TestUpdate(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	tx := pendingTx("ws_CO_upd")
	if err := repo.Insert(ctx, tx); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	completed := time.Date(2024, 1, 15, 10, 30, 0, 0, time.Local)
	tx.Status = domain.StatusCompleted
	tx.MpesaReceiptNumber = "R999"
	tx.CompletedAt = &completed
	if err := repo.Update(ctx, tx); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := repo.FindByID(ctx, tx.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got.Status != domain.StatusCompleted || got.MpesaReceiptNumber != "R999" {
		t.Fatalf("unexpected record after update: %+v", got)
	}
	if got.CompletedAt == nil || !got.CompletedAt.Equal(completed) {
		t.Fatalf("completed at = %v, want %v", got.CompletedAt, completed)
	}
}

func TestUpdateMissingRecord(t *testing.T) {
	repo := newTestRepo(t)

	tx := pendingTx("ws_CO_ghost")
	if err := repo.Update(context.Background(), tx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestListByOwner(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for i, id := range []string{"ws_CO_l1", "ws_CO_l2", "ws_CO_l3"} {
		tx := pendingTx(id)
		tx.OwnerID = "user-1"
		if err := repo.Insert(ctx, tx); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}
	other := pendingTx("ws_CO_other")
	other.OwnerID = "user-2"
	if err := repo.Insert(ctx, other); err != nil {
		t.Fatalf("insert other: %v", err)
	}

	got, err := repo.ListByOwner(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListByOwner: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	// Newest first.
	if got[0].CheckoutRequestID != "ws_CO_l3" || got[2].CheckoutRequestID != "ws_CO_l1" {
		t.Fatalf("unexpected order: %q .. %q", got[0].CheckoutRequestID, got[2].CheckoutRequestID)
	}

	none, err := repo.ListByOwner(ctx, "user-3")
	if err != nil {
		t.Fatalf("ListByOwner empty: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("len = %d, want 0", len(none))
	}
}
