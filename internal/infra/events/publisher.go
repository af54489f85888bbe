package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"swapscribe/internal/domain/model"
	"swapscribe/internal/domain/ports/adapter"
	"swapscribe/internal/infra/metrics"
)

const DefaultExchange = "swapscribe.invoices"

// channel is the subset of *amqp.Channel the publisher uses.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

var (
	_ adapter.EventPublisher = (*RabbitMQPublisher)(nil)
	_ adapter.EventPublisher = (*NoopPublisher)(nil)
)

// RabbitMQPublisher sends invoice events to a durable topic exchange; the routing
// key is the event type.
type RabbitMQPublisher struct {
	conn     *amqp.Connection
	ch       channel
	exchange string
	log      *zerolog.Logger
	mu       sync.Mutex
}

func NewRabbitMQPublisher(url, exchange string, logger *zerolog.Logger) (*RabbitMQPublisher, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}
	l := logger.With().Str("component", "EventPublisher").Logger()

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	l.Info().Str("exchange", exchange).Msg("rabbitmq publisher connected")
	return &RabbitMQPublisher{conn: conn, ch: ch, exchange: exchange, log: &l}, nil
}

func (p *RabbitMQPublisher) Publish(ctx context.Context, ev model.InvoiceEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.ch.PublishWithContext(ctx, p.exchange, string(ev.Type), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.InvoiceID + ":" + string(ev.Type),
		Timestamp:    time.Now(),
		Body:         body,
	})
	metrics.IncEventPublished(string(ev.Type), err == nil)
	if err != nil {
		return fmt.Errorf("publish %s: %w", ev.Type, err)
	}
	p.log.Debug().Str("routing_key", string(ev.Type)).Str("invoice_id", ev.InvoiceID).Msg("event published")
	return nil
}

func (p *RabbitMQPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil {
		if err := p.ch.Close(); err != nil {
			p.log.Warn().Err(err).Msg("error closing channel")
		}
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// NoopPublisher drops events after logging them at debug level.
type NoopPublisher struct {
	log *zerolog.Logger
}

func NewNoopPublisher(logger *zerolog.Logger) *NoopPublisher {
	return &NoopPublisher{log: logger}
}

func (p *NoopPublisher) Publish(ctx context.Context, ev model.InvoiceEvent) error {
	p.log.Debug().Str("type", string(ev.Type)).Str("invoice_id", ev.InvoiceID).Msg("noop publish")
	return nil
}

func (p *NoopPublisher) Close() error { return nil }
