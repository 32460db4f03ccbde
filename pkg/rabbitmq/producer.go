// Package rabbitmq publishes payment notifications to a RabbitMQ topic
// exchange. The engine treats notification delivery as best-effort; this
// producer only guarantees the publish reached the broker.
package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/rabbitmq/amqp091-go"

	"github.com/nmalik/paysplit/internal/service"
)

const (
	// notificationExchange is the topic exchange notification consumers
	// bind to.
	notificationExchange = "paysplit.notifications"

	// requestCreatedKey routes request-created notifications.
	requestCreatedKey = "payment.request.created"
)

// NotificationProducer implements service.Notifier over AMQP.
type NotificationProducer struct {
	conn    *amqp091.Connection
	channel *amqp091.Channel
}

var _ service.Notifier = (*NotificationProducer)(nil)

func sanitizeAMQPURL(raw string) (string, error) {
	clean := strings.TrimSpace(raw)
	clean = strings.Trim(clean, "\"'")
	if !strings.HasSuffix(clean, "/") {
		clean += "/"
	}
	u, err := url.Parse(clean)
	if err != nil {
		return "", err
	}
	if u.Scheme != "amqp" && u.Scheme != "amqps" {
		return "", errors.New("AMQP scheme must be either 'amqp://' or 'amqps://'")
	}
	return clean, nil
}

// NewNotificationProducer connects to the broker and declares the
// notification exchange.
func NewNotificationProducer(amqpURL string) (*NotificationProducer, error) {
	cleanURL, err := sanitizeAMQPURL(amqpURL)
	if err != nil {
		return nil, err
	}

	conn, err := amqp091.Dial(cleanURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to broker: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		notificationExchange,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	return &NotificationProducer{conn: conn, channel: channel}, nil
}

// notificationEvent is the wire shape consumers receive.
type notificationEvent struct {
	PayerAddress string  `json:"payer_address"`
	Message      string  `json:"message"`
	Amount       float64 `json:"amount"`
	TokenSymbol  string  `json:"token_symbol"`
	TokenID      string  `json:"token_id,omitempty"`
	PayeeLabel   string  `json:"payee_label"`
}

// Notify publishes a request-created notification for the payer.
func (p *NotificationProducer) Notify(ctx context.Context, n service.Notification) error {
	body, err := json.Marshal(notificationEvent{
		PayerAddress: n.PayerAddress,
		Message:      n.Message,
		Amount:       n.Amount,
		TokenSymbol:  n.TokenSymbol,
		TokenID:      n.TokenID,
		PayeeLabel:   n.PayeeLabel,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	err = p.channel.PublishWithContext(ctx,
		notificationExchange,
		requestCreatedKey,
		false, // mandatory
		false, // immediate
		amqp091.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}
	return nil
}

// Close releases the channel and connection.
func (p *NotificationProducer) Close() {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}
