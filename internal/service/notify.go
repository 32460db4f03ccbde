package service

import "context"

// Notification is the message sent to a payer when a request payment is
// created against them.
type Notification struct {
	PayerAddress string
	Message      string
	Amount       float64
	TokenSymbol  string
	TokenID      string
	PayeeLabel   string
}

// Notifier delivers notifications to payers. Delivery is best-effort:
// the engine never rolls back a state change because a notification
// failed, and never retries on its own.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// AddressBook resolves display names for addresses. Implementations
// return an empty name (not an error) when no entry exists.
type AddressBook interface {
	ResolveDisplayName(ctx context.Context, ownerAddress, targetAddress string) (string, error)
}

// payeeLabel returns the name the payer's address book has for the
// payee, falling back to the raw address. Lookup failures fall back too;
// the address book is a fallible remote call.
func payeeLabel(ctx context.Context, book AddressBook, payer, payee string) string {
	if book == nil {
		return payee
	}
	name, err := book.ResolveDisplayName(ctx, payer, payee)
	if err != nil || name == "" {
		return payee
	}
	return name
}
