package service

import (
	"context"
	"log/slog"
)

// LogNotifier writes notifications to the structured log instead of a
// broker. Used when no AMQP URL is configured.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, n Notification) error {
	slog.Info("Payment request notification",
		"payer", n.PayerAddress,
		"payee", n.PayeeLabel,
		"amount", n.Amount,
		"token", n.TokenSymbol)
	return nil
}
