package models

// Member is one entry in a group's roster.
type Member struct {
	// Address is the member's wallet address.
	Address string

	// DisplayName is an optional human-readable label for the address.
	DisplayName string
}

// Group represents a reusable split-payment roster owned by one address.
// The owner must never appear in its own member list.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// OwnerAddress is the wallet address that owns this group.
	OwnerAddress string

	// Name is the display name of the group (e.g. "Trip", "Roommates").
	// Names are sanitized and unique per owner.
	Name string

	// Members is the ordered roster of group members.
	Members []Member

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64
}

// HasMember reports whether the given address is on the roster.
func (g *Group) HasMember(address string) bool {
	for _, m := range g.Members {
		if m.Address == address {
			return true
		}
	}
	return false
}
