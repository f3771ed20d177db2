package observers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/harborline/eventflow/internal/domain"
)

const publishTimeout = 5 * time.Second

// PublisherObserver republishes processed events to NATS JetStream so
// downstream systems can react without coupling to this process.
type PublisherObserver struct {
	js     jetstream.JetStream
	stream string
	logger *zap.Logger
}

// NewPublisherObserver creates the integration publisher and ensures the
// target stream exists.
func NewPublisherObserver(nc *nats.Conn, stream string, logger *zap.Logger) (*PublisherObserver, error) {
	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("failed to get JetStream context: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     stream,
		Subjects: []string{"events.processed.>"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create stream %s: %w", stream, err)
	}

	return &PublisherObserver{
		js:     js,
		stream: stream,
		logger: logger.Named("publisher-observer"),
	}, nil
}

func (o *PublisherObserver) Name() string { return "integration-publisher" }

func (o *PublisherObserver) EventTypes() []domain.EventType { return domain.AllEventTypes() }

func (o *PublisherObserver) Update(ctx context.Context, event domain.DomainEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	subject := "events.processed." + string(event.Type)

	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	// The event ID doubles as the deduplication ID: replays collapse server side.
	ack, err := o.js.Publish(pubCtx, subject, data, jetstream.WithMsgID(event.ID))
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	o.logger.Debug("event republished",
		zap.String("event_id", event.ID),
		zap.String("subject", subject),
		zap.Uint64("sequence", ack.Sequence),
		zap.String("stream", ack.Stream),
	)
	return nil
}
