// Package events is the transactional outbox behind hardware activity.
//
// The API records events through NewTxPublisher inside the same SQL
// transaction as the stock mutation, so an event exists if and only if the
// mutation commits. A Watermill Forwarder then moves committed envelopes from
// the outbox queue to their real topic. The worker consumes them with
// Subscribe as one consumer group per service name, so each event is handled
// by exactly one worker instance.
//
// Handlers must be idempotent. A failing handler is retried with exponential
// backoff; once the attempts run out the message is parked on
// <topic>.poison and acked so one bad event cannot stall the topic.
package events

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	watermillsql "github.com/ThreeDotsLabs/watermill-sql/v3/pkg/sql"
	"github.com/ThreeDotsLabs/watermill/components/forwarder"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/hacklabs/hwlib/pkg/config"
	"github.com/hacklabs/hwlib/pkg/logger"
)

const (
	outboxTopic     = "hwlib_outbox"
	shutdownTimeout = 30 * time.Second
)

// EventBus owns the outbox tables and the Watermill components reading and
// writing them.
type EventBus struct {
	db     *sql.DB
	log    logger.Logger
	wlog   watermill.LoggerAdapter
	group  string
	outbox bool

	direct     *watermillsql.Publisher
	subscriber *watermillsql.Subscriber
	fwd        *forwarder.Forwarder

	// poison receives messages whose handler exhausted its retries.
	poison message.Publisher
	retry  retryPolicy

	wg sync.WaitGroup
}

// NewEventBus opens the bus for consumers. Used by the worker.
func NewEventBus(cfg *config.Config, log logger.Logger) (*EventBus, error) {
	return open(cfg, log, false)
}

// NewEventBusWithForwarder opens the bus in outbox mode: transactional
// publishers write forwarder envelopes that StartForwarder relays to their
// destination topic. Used by the API.
func NewEventBusWithForwarder(cfg *config.Config, log logger.Logger) (*EventBus, error) {
	return open(cfg, log, true)
}

func open(cfg *config.Config, log logger.Logger, outbox bool) (*EventBus, error) {
	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("events: open db: %w", err)
	}

	q := &EventBus{
		db:     db,
		log:    log,
		wlog:   &slogAdapter{log: log},
		group:  cfg.ServiceName + "-consumer",
		outbox: outbox,
		retry:  defaultRetry,
	}

	if q.direct, err = q.publisher(db, true); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("events: new publisher: %w", err)
	}
	q.poison = q.direct

	if q.subscriber, err = q.newSubscriber(q.group); err != nil {
		_ = q.direct.Close()
		_ = db.Close()
		return nil, fmt.Errorf("events: new subscriber: %w", err)
	}
	return q, nil
}

func (q *EventBus) publisher(db watermillsql.ContextExecutor, initSchema bool) (*watermillsql.Publisher, error) {
	return watermillsql.NewPublisher(db, watermillsql.PublisherConfig{
		SchemaAdapter:        watermillsql.DefaultPostgreSQLSchema{},
		AutoInitializeSchema: initSchema,
	}, q.wlog)
}

func (q *EventBus) newSubscriber(group string) (*watermillsql.Subscriber, error) {
	return watermillsql.NewSubscriber(q.db, watermillsql.SubscriberConfig{
		SchemaAdapter:    watermillsql.DefaultPostgreSQLSchema{},
		OffsetsAdapter:   watermillsql.DefaultPostgreSQLOffsetsAdapter{},
		InitializeSchema: true,
		ConsumerGroup:    group,
	}, q.wlog)
}

// StartForwarder runs the relay from the outbox queue to destination topics
// until ctx is cancelled. It returns once the relay is accepting messages.
func (q *EventBus) StartForwarder(ctx context.Context) error {
	if !q.outbox {
		return fmt.Errorf("events: StartForwarder called on a bus without an outbox")
	}
	if q.fwd != nil {
		return fmt.Errorf("events: forwarder already started")
	}

	sub, err := q.newSubscriber(q.group + "-forwarder")
	if err != nil {
		return fmt.Errorf("events: new forwarder subscriber: %w", err)
	}
	target, err := q.publisher(q.db, true)
	if err != nil {
		_ = sub.Close()
		return fmt.Errorf("events: new forwarder publisher: %w", err)
	}
	fwd, err := forwarder.NewForwarder(sub, target, q.wlog, forwarder.Config{ForwarderTopic: outboxTopic})
	if err != nil {
		_ = target.Close()
		_ = sub.Close()
		return fmt.Errorf("events: create forwarder: %w", err)
	}
	q.fwd = fwd

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		q.log.InfoContext(ctx, "events: forwarder started", "outbox", outboxTopic)
		if err := fwd.Run(ctx); err != nil {
			q.log.ErrorContext(ctx, "events: forwarder stopped", "error", err)
		}
	}()

	select {
	case <-fwd.Running():
		return nil
	case <-ctx.Done():
		return fmt.Errorf("events: waiting for forwarder: %w", ctx.Err())
	}
}

// NewTxPublisher returns a Publisher whose writes belong to tx. Outbox tables
// must already exist, which opening the bus guarantees.
func (q *EventBus) NewTxPublisher(tx *sql.Tx) (message.Publisher, error) {
	pub, err := q.publisher(tx, false)
	if err != nil {
		return nil, fmt.Errorf("events: new tx publisher: %w", err)
	}
	if !q.outbox {
		return pub, nil
	}
	return forwarder.NewPublisher(pub, forwarder.PublisherConfig{ForwarderTopic: outboxTopic}), nil
}

// Ping checks the outbox database connection.
func (q *EventBus) Ping(ctx context.Context) error {
	if err := q.db.PingContext(ctx); err != nil {
		return fmt.Errorf("events: ping db: %w", err)
	}
	return nil
}

// Close stops consuming, waits up to 30s for in-flight handlers and the
// forwarder, then closes the publisher and the connection.
func (q *EventBus) Close() error {
	if err := q.subscriber.Close(); err != nil {
		return fmt.Errorf("events: close subscriber: %w", err)
	}
	if q.fwd != nil {
		if err := q.fwd.Close(); err != nil {
			return fmt.Errorf("events: close forwarder: %w", err)
		}
	}

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(shutdownTimeout):
		q.log.Error("events: timed out waiting for in-flight handlers")
	}

	if err := q.direct.Close(); err != nil {
		return fmt.Errorf("events: close publisher: %w", err)
	}
	return q.db.Close()
}

// slogAdapter bridges logger.Logger to watermill.LoggerAdapter.
type slogAdapter struct{ log logger.Logger }

func (a *slogAdapter) Error(msg string, err error, fields watermill.LogFields) {
	a.log.Error(msg, append(fieldsToArgs(fields), "error", err)...)
}
func (a *slogAdapter) Info(msg string, fields watermill.LogFields) {
	a.log.Info(msg, fieldsToArgs(fields)...)
}
func (a *slogAdapter) Debug(msg string, fields watermill.LogFields) {
	a.log.Debug(msg, fieldsToArgs(fields)...)
}
func (a *slogAdapter) Trace(msg string, fields watermill.LogFields) {
	a.log.Debug(msg, fieldsToArgs(fields)...)
}
func (a *slogAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &slogAdapter{log: a.log.With(fieldsToArgs(fields)...)}
}

func fieldsToArgs(fields watermill.LogFields) []any {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return args
}
