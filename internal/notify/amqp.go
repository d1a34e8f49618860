package notify

import (
	"context"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"farmflow/internal/config"
)

const publishTimeout = 5 * time.Second

// AMQPPublisher mirrors events onto a fanout exchange so external systems can
// observe the marketplace without polling. Delivery is best-effort: a broken
// connection is retried on the next publish, never surfaced to the ledger.
type AMQPPublisher struct {
	cfg config.AMQPConfig
	log *zap.Logger

	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
}

func NewAMQPPublisher(cfg config.AMQPConfig, log *zap.Logger) *AMQPPublisher {
	return &AMQPPublisher{cfg: cfg, log: log}
}

func (p *AMQPPublisher) connect() error {
	conn, err := amqp.Dial(p.cfg.URL)
	if err != nil {
		return err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return err
	}
	if err := ch.ExchangeDeclare(
		p.cfg.Exchange,
		"fanout",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		ch.Close()
		conn.Close()
		return err
	}
	p.conn = conn
	p.channel = ch
	return nil
}

func (p *AMQPPublisher) ensureChannel() (*amqp.Channel, error) {
	if p.channel != nil && p.conn != nil && !p.conn.IsClosed() {
		return p.channel, nil
	}
	if p.conn != nil {
		p.conn.Close()
		p.conn = nil
		p.channel = nil
	}
	if err := p.connect(); err != nil {
		return nil, err
	}
	return p.channel, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, event Event) {
	if p == nil {
		return
	}
	body := event.JSON()
	if body == nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.ensureChannel()
	if err != nil {
		if p.log != nil {
			p.log.Warn("amqp connect failed, event dropped", zap.Error(err))
		}
		return
	}

	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = ch.PublishWithContext(pubCtx,
		p.cfg.Exchange,
		event.Type, // routing key, informational on a fanout exchange
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Timestamp:   event.At,
			Body:        body,
		},
	)
	if err != nil {
		if p.log != nil {
			p.log.Warn("amqp publish failed, event dropped",
				zap.String("type", event.Type), zap.Error(err))
		}
		// Force a reconnect on the next publish.
		p.channel = nil
	}
}

func (p *AMQPPublisher) Close() {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channel != nil {
		p.channel.Close()
		p.channel = nil
	}
	if p.conn != nil {
		p.conn.Close()
		p.conn = nil
	}
}
