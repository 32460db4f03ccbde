package sqlite

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/nmalik/paysplit/internal/models"
	"github.com/nmalik/paysplit/internal/storage"
)

func seedPayment(t *testing.T, store *SQLiteStore, linkCode string, members []string) *models.GroupPayment {
	t.Helper()
	ctx := context.Background()

	p := &models.GroupPayment{
		GroupID:      "group-1",
		OwnerAddress: "0xowner",
		Tokens:       []models.Token{{Symbol: "USDC", Amount: 300}},
		TotalAmount:  300,
		PerMember:    100,
		LinkCode:     linkCode,
		Status:       models.GroupPaymentPending,
	}
	if err := store.CreateGroupPayment(ctx, p); err != nil {
		t.Fatalf("CreateGroupPayment failed: %v", err)
	}

	statuses := make([]*models.MemberStatus, len(members))
	for i, addr := range members {
		statuses[i] = &models.MemberStatus{
			PaymentID: p.ID,
			SlotIndex: i,
			Slot:      models.SlotOccupied,
			Address:   addr,
			Status:    models.MemberPending,
		}
	}
	if err := store.CreateMemberStatuses(ctx, statuses); err != nil {
		t.Fatalf("CreateMemberStatuses failed: %v", err)
	}
	return p
}

func seedSlotPayment(t *testing.T, store *SQLiteStore, linkCode string, slots int) *models.GroupPayment {
	t.Helper()
	ctx := context.Background()

	p := &models.GroupPayment{
		GroupID:      "group-qs",
		OwnerAddress: "0xowner",
		Tokens:       []models.Token{{Symbol: "USDC", Amount: 90}},
		TotalAmount:  90,
		PerMember:    90 / float64(slots),
		LinkCode:     linkCode,
		Status:       models.GroupPaymentPending,
	}
	if err := store.CreateGroupPayment(ctx, p); err != nil {
		t.Fatalf("CreateGroupPayment failed: %v", err)
	}

	statuses := make([]*models.MemberStatus, slots)
	for i := range statuses {
		statuses[i] = &models.MemberStatus{
			PaymentID: p.ID,
			SlotIndex: i,
			Slot:      models.SlotEmpty,
			Status:    models.MemberPending,
		}
	}
	if err := store.CreateMemberStatuses(ctx, statuses); err != nil {
		t.Fatalf("CreateMemberStatuses failed: %v", err)
	}
	return p
}

func TestGroupPaymentStore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	p := seedPayment(t, store, "codeAAAA0001", []string{"0xalice", "0xbob", "0xcarol"})

	t.Run("link code collision returns ErrDuplicate", func(t *testing.T) {
		err := store.CreateGroupPayment(ctx, &models.GroupPayment{
			GroupID:      "group-1",
			OwnerAddress: "0xowner",
			TotalAmount:  50,
			PerMember:    50,
			LinkCode:     "codeAAAA0001",
			Status:       models.GroupPaymentPending,
		})
		if !errors.Is(err, storage.ErrDuplicate) {
			t.Errorf("Expected ErrDuplicate, got %v", err)
		}
	})

	t.Run("GetGroupPaymentByLink resolves payment with tokens", func(t *testing.T) {
		got, err := store.GetGroupPaymentByLink(ctx, "codeAAAA0001")
		if err != nil {
			t.Fatalf("GetGroupPaymentByLink failed: %v", err)
		}
		if got.ID != p.ID {
			t.Errorf("Expected payment %s, got %s", p.ID, got.ID)
		}
		if len(got.Tokens) != 1 || got.Tokens[0].Symbol != "USDC" {
			t.Errorf("Expected token list preserved, got %+v", got.Tokens)
		}
	})

	t.Run("unknown link returns ErrNotFound", func(t *testing.T) {
		if _, err := store.GetGroupPaymentByLink(ctx, "codeXXXX9999"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("SetMemberPaid flips once", func(t *testing.T) {
		now := time.Now()
		if err := store.SetMemberPaid(ctx, p.ID, "0xalice", now); err != nil {
			t.Fatalf("SetMemberPaid failed: %v", err)
		}

		// Second flip must not match.
		err := store.SetMemberPaid(ctx, p.ID, "0xalice", now)
		if !errors.Is(err, storage.ErrNoRowsUpdated) {
			t.Errorf("Expected ErrNoRowsUpdated, got %v", err)
		}

		statuses, err := store.ListMemberStatuses(ctx, p.ID)
		if err != nil {
			t.Fatalf("ListMemberStatuses failed: %v", err)
		}
		if statuses[0].Status != models.MemberPaid {
			t.Errorf("Expected alice PAID, got %s", statuses[0].Status)
		}
		if statuses[0].PaidAt == nil {
			t.Error("Expected paid_at recorded")
		}
	})

	t.Run("SetMemberDenied flips pending member", func(t *testing.T) {
		if err := store.SetMemberDenied(ctx, p.ID, "0xbob"); err != nil {
			t.Fatalf("SetMemberDenied failed: %v", err)
		}
		err := store.SetMemberDenied(ctx, p.ID, "0xbob")
		if !errors.Is(err, storage.ErrNoRowsUpdated) {
			t.Errorf("Expected ErrNoRowsUpdated on second deny, got %v", err)
		}
	})

	t.Run("CompleteGroupPayment is idempotent", func(t *testing.T) {
		if err := store.CompleteGroupPayment(ctx, p.ID); err != nil {
			t.Fatalf("CompleteGroupPayment failed: %v", err)
		}
		if err := store.CompleteGroupPayment(ctx, p.ID); err != nil {
			t.Fatalf("Second CompleteGroupPayment failed: %v", err)
		}
		got, err := store.GetGroupPayment(ctx, p.ID)
		if err != nil {
			t.Fatalf("GetGroupPayment failed: %v", err)
		}
		if got.Status != models.GroupPaymentCompleted {
			t.Errorf("Expected COMPLETED, got %s", got.Status)
		}
	})
}

func TestClaimSlot(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	p := seedSlotPayment(t, store, "slotsAAAA001", 2)

	t.Run("claims lowest empty slot as PAID", func(t *testing.T) {
		if err := store.ClaimSlot(ctx, p.ID, "0xu1", now); err != nil {
			t.Fatalf("ClaimSlot failed: %v", err)
		}

		statuses, err := store.ListMemberStatuses(ctx, p.ID)
		if err != nil {
			t.Fatalf("ListMemberStatuses failed: %v", err)
		}
		if statuses[0].Slot != models.SlotOccupied || statuses[0].Address != "0xu1" {
			t.Errorf("Expected slot 0 claimed by 0xu1, got %+v", statuses[0])
		}
		if statuses[0].Status != models.MemberPaid {
			t.Errorf("Expected claim to settle immediately, got %s", statuses[0].Status)
		}
		if statuses[1].Slot != models.SlotEmpty {
			t.Errorf("Expected slot 1 still empty, got %+v", statuses[1])
		}
	})

	t.Run("same claimant cannot take a second slot", func(t *testing.T) {
		err := store.ClaimSlot(ctx, p.ID, "0xu1", now)
		if !errors.Is(err, storage.ErrNoRowsUpdated) {
			t.Errorf("Expected ErrNoRowsUpdated, got %v", err)
		}
	})

	t.Run("claim fails once all slots are taken", func(t *testing.T) {
		if err := store.ClaimSlot(ctx, p.ID, "0xu2", now); err != nil {
			t.Fatalf("ClaimSlot failed: %v", err)
		}
		err := store.ClaimSlot(ctx, p.ID, "0xu3", now)
		if !errors.Is(err, storage.ErrNoRowsUpdated) {
			t.Errorf("Expected ErrNoRowsUpdated when full, got %v", err)
		}
	})
}

func TestClaimSlotConcurrent(t *testing.T) {
	store := newTestStore(t)
	now := time.Now()

	const slots = 3
	const claimants = 8
	p := seedSlotPayment(t, store, "slotsAAAA002", slots)

	var wg sync.WaitGroup
	results := make(chan error, claimants)
	for i := 0; i < claimants; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			results <- store.ClaimSlot(context.Background(), p.ID, fmt.Sprintf("0xuser%d", n), now)
		}(i)
	}
	wg.Wait()
	close(results)

	var won, lost int
	for err := range results {
		switch {
		case err == nil:
			won++
		case errors.Is(err, storage.ErrNoRowsUpdated):
			lost++
		default:
			t.Fatalf("Unexpected claim error: %v", err)
		}
	}

	if won != slots {
		t.Errorf("Expected exactly %d winners, got %d (lost %d)", slots, won, lost)
	}

	statuses, err := store.ListMemberStatuses(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("ListMemberStatuses failed: %v", err)
	}
	seen := make(map[string]bool)
	for _, st := range statuses {
		if st.Slot != models.SlotOccupied {
			t.Errorf("Expected all slots occupied, got %+v", st)
		}
		if seen[st.Address] {
			t.Errorf("Address %s holds more than one slot", st.Address)
		}
		seen[st.Address] = true
	}
}
