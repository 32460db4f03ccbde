package models

// GroupPaymentStatus is the lifecycle state of a group payment.
type GroupPaymentStatus string

const (
	GroupPaymentPending   GroupPaymentStatus = "PENDING"
	GroupPaymentCompleted GroupPaymentStatus = "COMPLETED"
	GroupPaymentExpired   GroupPaymentStatus = "EXPIRED"
)

// GroupPayment is one split of a total amount across a group's members.
// Status only ever moves PENDING -> COMPLETED (all members settled) or
// PENDING -> EXPIRED; after that the record is read-only.
type GroupPayment struct {
	// ID is the unique identifier for the payment (UUID format).
	ID string

	// GroupID is the group this payment was created against.
	GroupID string

	// OwnerAddress is the payee who initiated the split.
	OwnerAddress string

	// Tokens lists the assets carried by this payment.
	Tokens []Token

	// TotalAmount is the full amount being split.
	TotalAmount float64

	// PerMember is the server-computed share of each member,
	// rounded to six decimal places.
	PerMember float64

	// LinkCode is the unique shareable code for this payment.
	LinkCode string

	Status GroupPaymentStatus

	// CreatedAt is the Unix timestamp when the payment was created.
	CreatedAt int64
}

// SlotState tags a member slot as empty or occupied.
type SlotState string

const (
	SlotEmpty    SlotState = "empty"
	SlotOccupied SlotState = "occupied"
)

// SettlementState is the per-member settlement status.
type SettlementState string

const (
	MemberPending SettlementState = "PENDING"
	MemberPaid    SettlementState = "PAID"
	MemberDenied  SettlementState = "DENIED"
)

// MemberStatus is the per-member settlement record for a group payment.
// One row exists per member slot at creation time, including Quick Share
// placeholders, which start empty and are claimed later.
type MemberStatus struct {
	// ID is the unique identifier for the record (UUID format).
	ID string

	// PaymentID is the owning group payment.
	PaymentID string

	// SlotIndex is the member's position in the roster at creation time.
	SlotIndex int

	// Slot tags whether the slot is still an unclaimed placeholder.
	Slot SlotState

	// Address is the member's wallet address; empty while Slot is
	// SlotEmpty.
	Address string

	// DisplayName is the roster label for the member, if any.
	DisplayName string

	Status SettlementState

	// PaidAt is the Unix timestamp of settlement, nil until PAID.
	PaidAt *int64
}

// AllPaid reports whether every member slot has settled. It is the single
// completion predicate evaluated from fresh reads on every settlement
// path; a payment with any PENDING or DENIED slot is never complete.
func AllPaid(statuses []*MemberStatus) bool {
	if len(statuses) == 0 {
		return false
	}
	for _, st := range statuses {
		if st.Status != MemberPaid {
			return false
		}
	}
	return true
}

// CountPaid returns how many member slots have settled.
func CountPaid(statuses []*MemberStatus) int {
	n := 0
	for _, st := range statuses {
		if st.Status == MemberPaid {
			n++
		}
	}
	return n
}
