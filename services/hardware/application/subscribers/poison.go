package subscribers

import (
	"context"
	"errors"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/hacklabs/hwlib/pkg/events"
	"github.com/hacklabs/hwlib/pkg/logger"
	"github.com/hacklabs/hwlib/pkg/redact"
)

// PoisonReporter consumes a poison topic. Parked messages stay in the
// outbox table for manual replay; the reporter only makes them visible.
type PoisonReporter struct {
	log    logger.Logger
	report func(error)
}

// NewPoisonReporter returns a reporter that logs each parked message and
// passes a summary error to report, which may be nil.
func NewPoisonReporter(log logger.Logger, report func(error)) *PoisonReporter {
	return &PoisonReporter{log: log, report: report}
}

// Handle never fails, so a parked message is never parked again. The payload
// is not logged because activity events carry reservation tokens.
func (p *PoisonReporter) Handle(ctx context.Context, msg *message.Message) error {
	reason := redact.Tokens(msg.Metadata.Get(events.MetaPoisonReason))
	source := msg.Metadata.Get(events.MetaPoisonTopic)

	p.log.ErrorContext(ctx, "event parked after exhausting retries",
		"message_uuid", msg.UUID,
		"source_topic", source,
		"reason", reason,
	)
	if p.report != nil {
		p.report(errors.New("parked " + source + " message " + msg.UUID + ": " + reason))
	}
	return nil
}
