// Package publisher sends domain events to RabbitMQ. Publishing is best
// effort: failures are logged and returned, and callers never fail a
// request because of them.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Prajwol-Chhetri/Task-REST-API/internal/queue"
)

// Publisher is implemented by AMQP and Nop.
type Publisher interface {
	Publish(ctx context.Context, ev queue.Event) error
}

// Nop drops every event. It is used when AMQP is disabled.
type Nop struct{}

func (Nop) Publish(context.Context, queue.Event) error { return nil }

// AMQP publishes persistent JSON messages to a durable queue on the default
// exchange. The connection is opened lazily and reopened after failures.
type AMQP struct {
	url   string
	queue string
	log   *slog.Logger

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewAMQP(url, queueName string, log *slog.Logger) *AMQP {
	return &AMQP{url: url, queue: queueName, log: log}
}

func (p *AMQP) Publish(ctx context.Context, ev queue.Event) error {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channel()
	if err != nil {
		p.log.Warn("rabbitmq: channel unavailable", "error", err, "event", ev.Type)
		return err
	}
	err = ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    ev.OccurredAt,
		Type:         string(ev.Type),
		Body:         body,
	})
	if err != nil {
		p.log.Warn("rabbitmq: publish failed", "error", err, "event", ev.Type)
		p.reset()
		return err
	}
	return nil
}

// Close releases the broker connection.
func (p *AMQP) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil {
		return nil
	}
	err := p.conn.Close()
	p.conn, p.ch = nil, nil
	return err
}

// channel returns an open channel, dialing and declaring the queue when
// needed. Callers hold p.mu.
func (p *AMQP) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	p.reset()
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("channel open: %w", err)
	}
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("queue declare: %w", err)
	}
	p.conn, p.ch = conn, ch
	return ch, nil
}

func (p *AMQP) reset() {
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.conn, p.ch = nil, nil
}

// Recorder keeps published events in memory. Handler tests use it to
// assert on side effects.
type Recorder struct {
	mu     sync.Mutex
	events []queue.Event
}

func (r *Recorder) Publish(_ context.Context, ev queue.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []queue.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]queue.Event(nil), r.events...)
}
