package models

// RequestStatus is the lifecycle state of a request payment.
// PENDING -> ACCEPTED and PENDING -> DENIED are the only transitions;
// both are terminal.
type RequestStatus string

const (
	RequestPending  RequestStatus = "PENDING"
	RequestAccepted RequestStatus = "ACCEPTED"
	RequestDenied   RequestStatus = "DENIED"
)

// RequestPayment is a single-counterparty payment obligation: the payer
// owes the payee. Requests are created directly (peer-to-peer) or in bulk
// by the group payment orchestrator, one per group member.
type RequestPayment struct {
	// ID is the unique identifier for the request (UUID format).
	ID string

	// Payer is the wallet address that owes the amount.
	Payer string

	// Payee is the wallet address the amount is owed to.
	Payee string

	Amount float64

	// Tokens lists the assets the request is denominated in.
	Tokens []Token

	// Message is optional free text shown to the payer.
	Message string

	Status RequestStatus

	// SettlementTx is the opaque settlement transaction id recorded on
	// acceptance; empty until then.
	SettlementTx string

	// IsGroupPayment marks requests fanned out from a group payment.
	IsGroupPayment bool

	// GroupPaymentID is the weak back-reference to the originating group
	// payment; empty for direct requests.
	GroupPaymentID string

	// CreatedAt and UpdatedAt are Unix timestamps.
	CreatedAt int64
	UpdatedAt int64
}
