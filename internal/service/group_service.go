package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nmalik/paysplit/internal/models"
	"github.com/nmalik/paysplit/internal/storage"
	"github.com/nmalik/paysplit/internal/validate"
)

// quickShareNames are the canonical spellings that identify an owner's
// Quick Share group. Comparison is case-insensitive.
var quickShareNames = []string{"quick share", "quickshare", "quick-share"}

// QuickShareGroupName is the name given to a newly created Quick Share
// group.
const QuickShareGroupName = "Quick Share"

// IsQuickShareName reports whether a group name identifies a Quick Share
// group.
func IsQuickShareName(name string) bool {
	lower := strings.ToLower(strings.TrimSpace(name))
	for _, n := range quickShareNames {
		if lower == n {
			return true
		}
	}
	return false
}

// GroupService owns Group records: rosters of member addresses used for
// split payments.
type GroupService struct {
	store storage.Store
}

// NewGroupService creates a new GroupService with the given storage backend.
func NewGroupService(store storage.Store) *GroupService {
	return &GroupService{store: store}
}

// normalizeMembers validates and canonicalizes a roster, rejecting the
// owner's own address and duplicate members.
func normalizeMembers(ownerAddress string, members []models.Member) ([]models.Member, error) {
	seen := make(map[string]bool, len(members))
	out := make([]models.Member, 0, len(members))
	for _, m := range members {
		addr, err := validate.Address(m.Address)
		if err != nil {
			return nil, err
		}
		if addr == ownerAddress {
			return nil, ErrOwnerIsMember
		}
		if seen[addr] {
			continue
		}
		seen[addr] = true
		out = append(out, models.Member{Address: addr, DisplayName: strings.TrimSpace(m.DisplayName)})
	}
	return out, nil
}

// CreateGroup creates a new group owned by ownerAddress.
func (s *GroupService) CreateGroup(ctx context.Context, ownerAddress, name string, members []models.Member) (*models.Group, error) {
	owner, err := validate.Address(ownerAddress)
	if err != nil {
		return nil, err
	}
	cleanName, err := validate.Name(name)
	if err != nil {
		return nil, err
	}
	roster, err := normalizeMembers(owner, members)
	if err != nil {
		return nil, err
	}

	group := &models.Group{
		OwnerAddress: owner,
		Name:         cleanName,
		Members:      roster,
	}
	if err := s.store.CreateGroup(ctx, group); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, ErrDuplicateGroupName
		}
		slog.Error("CreateGroup failed", "owner", owner, "error", err)
		return nil, err
	}

	slog.Info("Group created", "group_id", group.ID, "owner", owner, "members", len(roster))
	return group, nil
}

// GetGroup retrieves a group, checking the caller owns it.
func (s *GroupService) GetGroup(ctx context.Context, groupID, callerAddress string) (*models.Group, error) {
	group, err := s.loadOwnedGroup(ctx, groupID, callerAddress)
	if err != nil {
		return nil, err
	}
	return group, nil
}

// UpdateGroup replaces a group's name and roster.
func (s *GroupService) UpdateGroup(ctx context.Context, groupID, callerAddress, name string, members []models.Member) (*models.Group, error) {
	group, err := s.loadOwnedGroup(ctx, groupID, callerAddress)
	if err != nil {
		return nil, err
	}

	cleanName, err := validate.Name(name)
	if err != nil {
		return nil, err
	}
	roster, err := normalizeMembers(group.OwnerAddress, members)
	if err != nil {
		return nil, err
	}

	group.Name = cleanName
	group.Members = roster
	if err := s.store.UpdateGroup(ctx, group); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, ErrDuplicateGroupName
		}
		slog.Error("UpdateGroup failed", "group_id", groupID, "error", err)
		return nil, err
	}

	slog.Info("Group updated", "group_id", group.ID, "members", len(roster))
	return group, nil
}

// DeleteGroup removes a group by ID.
func (s *GroupService) DeleteGroup(ctx context.Context, groupID, callerAddress string) error {
	if _, err := s.loadOwnedGroup(ctx, groupID, callerAddress); err != nil {
		return err
	}
	if err := s.store.DeleteGroup(ctx, groupID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrGroupNotFound
		}
		slog.Error("DeleteGroup failed", "group_id", groupID, "error", err)
		return err
	}
	slog.Info("Group deleted", "group_id", groupID)
	return nil
}

// ListGroups retrieves all groups owned by the caller.
func (s *GroupService) ListGroups(ctx context.Context, callerAddress string) ([]*models.Group, error) {
	owner, err := validate.Address(callerAddress)
	if err != nil {
		return nil, err
	}
	groups, err := s.store.ListGroupsByOwner(ctx, owner)
	if err != nil {
		slog.Error("ListGroups failed", "owner", owner, "error", err)
		return nil, err
	}
	return groups, nil
}

// loadOwnedGroup fetches a group and verifies ownership. A group owned by
// someone else reports not-found, never the owner's identity.
func (s *GroupService) loadOwnedGroup(ctx context.Context, groupID, callerAddress string) (*models.Group, error) {
	caller, err := validate.Address(callerAddress)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(groupID) == "" {
		return nil, fmt.Errorf("group id is required: %w", ErrGroupNotFound)
	}
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, err
	}
	if group.OwnerAddress != caller {
		return nil, ErrGroupNotFound
	}
	return group, nil
}
