package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/nmalik/paysplit/internal/models"
	"github.com/nmalik/paysplit/internal/storage"
)

func TestGroupStore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("CreateGroup generates ID and timestamp", func(t *testing.T) {
		group := &models.Group{
			OwnerAddress: "0xowner1",
			Name:         "Trip Fund",
			Members: []models.Member{
				{Address: "0xalice", DisplayName: "Alice"},
				{Address: "0xbob"},
			},
		}

		if err := store.CreateGroup(ctx, group); err != nil {
			t.Fatalf("CreateGroup failed: %v", err)
		}
		if group.ID == "" {
			t.Error("Expected group ID to be generated")
		}
		if group.CreatedAt == 0 {
			t.Error("Expected CreatedAt to be set")
		}
	})

	t.Run("duplicate name per owner rejected", func(t *testing.T) {
		err := store.CreateGroup(ctx, &models.Group{
			OwnerAddress: "0xowner1",
			Name:         "Trip Fund",
		})
		if !errors.Is(err, storage.ErrDuplicate) {
			t.Errorf("Expected ErrDuplicate, got %v", err)
		}
	})

	t.Run("same name allowed for different owner", func(t *testing.T) {
		err := store.CreateGroup(ctx, &models.Group{
			OwnerAddress: "0xowner2",
			Name:         "Trip Fund",
		})
		if err != nil {
			t.Errorf("Expected create to succeed, got %v", err)
		}
	})

	t.Run("GetGroup retrieves roster in order", func(t *testing.T) {
		group, err := store.GetGroupByName(ctx, "0xowner1", "Trip Fund")
		if err != nil {
			t.Fatalf("GetGroupByName failed: %v", err)
		}

		got, err := store.GetGroup(ctx, group.ID)
		if err != nil {
			t.Fatalf("GetGroup failed: %v", err)
		}
		if len(got.Members) != 2 {
			t.Fatalf("Expected 2 members, got %d", len(got.Members))
		}
		if got.Members[0].Address != "0xalice" || got.Members[1].Address != "0xbob" {
			t.Errorf("Roster out of order: %+v", got.Members)
		}
		if got.Members[0].DisplayName != "Alice" {
			t.Errorf("Expected display name preserved, got %q", got.Members[0].DisplayName)
		}
	})

	t.Run("GetGroup missing returns ErrNotFound", func(t *testing.T) {
		if _, err := store.GetGroup(ctx, "no-such-id"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("UpdateGroup replaces roster atomically", func(t *testing.T) {
		group, err := store.GetGroupByName(ctx, "0xowner1", "Trip Fund")
		if err != nil {
			t.Fatalf("GetGroupByName failed: %v", err)
		}

		group.Name = "Trip Fund 2024"
		group.Members = []models.Member{{Address: "0xcarol", DisplayName: "Carol"}}
		if err := store.UpdateGroup(ctx, group); err != nil {
			t.Fatalf("UpdateGroup failed: %v", err)
		}

		got, err := store.GetGroup(ctx, group.ID)
		if err != nil {
			t.Fatalf("GetGroup failed: %v", err)
		}
		if got.Name != "Trip Fund 2024" {
			t.Errorf("Expected renamed group, got %q", got.Name)
		}
		if len(got.Members) != 1 || got.Members[0].Address != "0xcarol" {
			t.Errorf("Expected replaced roster, got %+v", got.Members)
		}
	})

	t.Run("UpdateGroup missing returns ErrNotFound", func(t *testing.T) {
		err := store.UpdateGroup(ctx, &models.Group{ID: "no-such-id", Name: "x"})
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("ListGroupsByOwner", func(t *testing.T) {
		groups, err := store.ListGroupsByOwner(ctx, "0xowner1")
		if err != nil {
			t.Fatalf("ListGroupsByOwner failed: %v", err)
		}
		if len(groups) != 1 {
			t.Errorf("Expected 1 group, got %d", len(groups))
		}
	})

	t.Run("DeleteGroup cascades member rows", func(t *testing.T) {
		group, err := store.GetGroupByName(ctx, "0xowner1", "Trip Fund 2024")
		if err != nil {
			t.Fatalf("GetGroupByName failed: %v", err)
		}
		if err := store.DeleteGroup(ctx, group.ID); err != nil {
			t.Fatalf("DeleteGroup failed: %v", err)
		}
		if _, err := store.GetGroup(ctx, group.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound after delete, got %v", err)
		}
	})
}
