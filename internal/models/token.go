package models

// Token identifies an asset and the amount of it carried by a payment.
type Token struct {
	// ID is the opaque asset identifier (e.g. a contract address).
	ID string

	// Symbol is the display symbol (e.g. "USDC").
	Symbol string

	// Amount is the amount of this asset on the payment.
	Amount float64
}
