package events

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/hacklabs/hwlib/pkg/logger"
)

// PoisonSuffix is appended to a topic to name where exhausted messages go.
const PoisonSuffix = ".poison"

// Metadata keys set on parked messages.
const (
	MetaPoisonReason = "poison_reason"
	MetaPoisonTopic  = "poison_source_topic"
)

// Handler processes one message. ctx carries the publisher's trace.
type Handler func(ctx context.Context, msg *message.Message) error

type retryPolicy struct {
	attempts int
	base     time.Duration
}

var defaultRetry = retryPolicy{attempts: 3, base: time.Second}

// Subscribe consumes topic in the bus's consumer group until ctx is done.
//
// Every message is acked in the end: either handler succeeded, or it failed
// on every attempt and the message was parked on topic+PoisonSuffix. Only a
// failed park nacks, which redelivers the message. Park failures and
// exhausted handlers are reported on the returned channel, which the caller
// must drain; it is closed when the subscription ends.
func (q *EventBus) Subscribe(ctx context.Context, topic string, handler Handler) (<-chan error, error) {
	ch, err := q.subscriber.Subscribe(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("events: subscribe to %s: %w", topic, err)
	}

	errCh := make(chan error, 100)
	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		defer close(errCh)
		for msg := range ch {
			if err := q.process(ctx, topic, msg, handler); err != nil {
				select {
				case errCh <- err:
				default:
					q.log.ErrorContext(ctx, "events: error channel full", "error", err, "topic", topic)
				}
			}
		}
	}()
	return errCh, nil
}

// process runs handler for msg and settles it. The returned error is for
// reporting only; msg is already acked or nacked.
func (q *EventBus) process(ctx context.Context, topic string, msg *message.Message, handler Handler) error {
	msgCtx := ExtractTrace(ctx, msg)

	herr := q.retry.run(msgCtx, msg, handler, q.log)
	if herr == nil {
		msg.Ack()
		return nil
	}
	if ctx.Err() != nil {
		msg.Nack()
		return herr
	}

	parked := msg.Copy()
	parked.Metadata.Set(MetaPoisonReason, herr.Error())
	parked.Metadata.Set(MetaPoisonTopic, topic)
	if err := q.poison.Publish(topic+PoisonSuffix, parked); err != nil {
		msg.Nack()
		return fmt.Errorf("events: park message %s: %w (handler: %w)", msg.UUID, err, herr)
	}

	q.log.ErrorContext(msgCtx, "events: message parked",
		"topic", topic,
		"message_uuid", msg.UUID,
		"error", herr,
	)
	msg.Ack()
	return herr
}

func (p retryPolicy) run(ctx context.Context, msg *message.Message, handler Handler, log logger.Logger) error {
	delay := p.base
	var err error
	for attempt := 1; attempt <= p.attempts; attempt++ {
		if err = handler(ctx, msg); err == nil {
			return nil
		}
		if attempt == p.attempts {
			break
		}
		log.WarnContext(ctx, "events: handler failed, retrying",
			"attempt", attempt,
			"max_attempts", p.attempts,
			"next_delay", delay,
			"error", err,
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return fmt.Errorf("events: handler failed after %d attempts: %w", p.attempts, err)
}

// InjectTrace copies the OTel trace context of ctx into each message's
// metadata. Transactional publishers must call it before Publish.
func InjectTrace(ctx context.Context, msgs ...*message.Message) {
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	for _, msg := range msgs {
		for k, v := range carrier {
			msg.Metadata.Set(k, v)
		}
	}
}

// ExtractTrace returns ctx carrying the trace context stored in msg.
func ExtractTrace(ctx context.Context, msg *message.Message) context.Context {
	carrier := propagation.MapCarrier{}
	for k, v := range msg.Metadata {
		carrier[k] = v
	}
	return otel.GetTextMapPropagator().Extract(ctx, carrier)
}
