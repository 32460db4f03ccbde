package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/nmalik/paysplit/internal/models"
	"github.com/nmalik/paysplit/internal/storage"
)

func TestRequestStore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	req := &models.RequestPayment{
		Payer:   "0xpayer",
		Payee:   "0xpayee",
		Amount:  42.5,
		Tokens:  []models.Token{{Symbol: "USDT", Amount: 42.5}},
		Message: "dinner",
		Status:  models.RequestPending,
	}

	t.Run("CreateRequestPayment generates ID and timestamps", func(t *testing.T) {
		if err := store.CreateRequestPayment(ctx, req); err != nil {
			t.Fatalf("CreateRequestPayment failed: %v", err)
		}
		if req.ID == "" {
			t.Error("Expected request ID to be generated")
		}
		if req.CreatedAt == 0 || req.UpdatedAt == 0 {
			t.Error("Expected timestamps to be set")
		}
	})

	t.Run("GetRequestPayment round-trips tokens", func(t *testing.T) {
		got, err := store.GetRequestPayment(ctx, req.ID)
		if err != nil {
			t.Fatalf("GetRequestPayment failed: %v", err)
		}
		if got.Message != "dinner" || got.Amount != 42.5 {
			t.Errorf("Unexpected request %+v", got)
		}
		if len(got.Tokens) != 1 || got.Tokens[0].Symbol != "USDT" {
			t.Errorf("Expected token list preserved, got %+v", got.Tokens)
		}
	})

	t.Run("FindOpenRequests matches payer payee amount", func(t *testing.T) {
		open, err := store.FindOpenRequests(ctx, "0xpayer", "0xpayee", 42.5)
		if err != nil {
			t.Fatalf("FindOpenRequests failed: %v", err)
		}
		if len(open) != 1 || open[0].ID != req.ID {
			t.Errorf("Expected the open request, got %+v", open)
		}

		none, err := store.FindOpenRequests(ctx, "0xpayer", "0xpayee", 99)
		if err != nil {
			t.Fatalf("FindOpenRequests failed: %v", err)
		}
		if len(none) != 0 {
			t.Errorf("Expected no match for other amount, got %+v", none)
		}
	})

	t.Run("SetRequestStatus transitions PENDING once", func(t *testing.T) {
		if err := store.SetRequestStatus(ctx, req.ID, models.RequestAccepted, "tx-123"); err != nil {
			t.Fatalf("SetRequestStatus failed: %v", err)
		}

		got, err := store.GetRequestPayment(ctx, req.ID)
		if err != nil {
			t.Fatalf("GetRequestPayment failed: %v", err)
		}
		if got.Status != models.RequestAccepted || got.SettlementTx != "tx-123" {
			t.Errorf("Expected accepted with tx, got %+v", got)
		}

		// Terminal states never transition again.
		err = store.SetRequestStatus(ctx, req.ID, models.RequestDenied, "")
		if !errors.Is(err, storage.ErrNoRowsUpdated) {
			t.Errorf("Expected ErrNoRowsUpdated, got %v", err)
		}
	})

	t.Run("accepted request no longer open", func(t *testing.T) {
		open, err := store.FindOpenRequests(ctx, "0xpayer", "0xpayee", 42.5)
		if err != nil {
			t.Fatalf("FindOpenRequests failed: %v", err)
		}
		if len(open) != 0 {
			t.Errorf("Expected no open requests, got %+v", open)
		}
	})

	t.Run("ListRequestsForUser covers both sides", func(t *testing.T) {
		asPayer, err := store.ListRequestsForUser(ctx, "0xpayer")
		if err != nil {
			t.Fatalf("ListRequestsForUser failed: %v", err)
		}
		asPayee, err := store.ListRequestsForUser(ctx, "0xpayee")
		if err != nil {
			t.Fatalf("ListRequestsForUser failed: %v", err)
		}
		if len(asPayer) != 1 || len(asPayee) != 1 {
			t.Errorf("Expected request visible to both sides, got %d/%d", len(asPayer), len(asPayee))
		}

		other, err := store.ListRequestsForUser(ctx, "0xstranger")
		if err != nil {
			t.Fatalf("ListRequestsForUser failed: %v", err)
		}
		if len(other) != 0 {
			t.Errorf("Expected stranger to see nothing, got %+v", other)
		}
	})

	t.Run("missing request returns ErrNotFound", func(t *testing.T) {
		if _, err := store.GetRequestPayment(ctx, "no-such-id"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})
}
