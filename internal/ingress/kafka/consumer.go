// Package kafka is the event ingress: a consumer group that decodes event
// envelopes off the wire and submits them to the dispatcher.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/harborline/eventflow/internal/domain"
	apperrors "github.com/harborline/eventflow/pkg/errors"
)

// Submitter is the slice of the dispatcher the consumer needs.
type Submitter interface {
	Submit(ctx context.Context, event domain.DomainEvent) error
}

// Consumer reads domain events from a Kafka topic via a consumer group.
type Consumer struct {
	consumer   sarama.ConsumerGroup
	topic      string
	dispatcher Submitter
	logger     *zap.Logger
}

// NewConsumer creates a new Kafka event consumer.
func NewConsumer(brokers []string, groupID, topic string, dispatcher Submitter, logger *zap.Logger) (*Consumer, error) {
	config := sarama.NewConfig()
	config.Consumer.Return.Errors = true
	config.Consumer.Offsets.Initial = sarama.OffsetOldest

	consumer, err := sarama.NewConsumerGroup(brokers, groupID, config)
	if err != nil {
		return nil, fmt.Errorf("creating consumer group: %w", err)
	}

	return &Consumer{
		consumer:   consumer,
		topic:      topic,
		dispatcher: dispatcher,
		logger:     logger.Named("kafka-consumer"),
	}, nil
}

// Start starts consuming events until ctx is cancelled.
func (c *Consumer) Start(ctx context.Context) error {
	topics := []string{c.topic}

	for {
		err := c.consumer.Consume(ctx, topics, c)
		if err != nil {
			return fmt.Errorf("consuming messages: %w", err)
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// ConsumeClaim implements sarama.ConsumerGroupHandler.
//
// Every message is marked, including poison ones: a malformed envelope or an
// unregistered event type must not wedge the partition, and redelivery
// guarantees beyond at-least-once are upstream's concern.
func (c *Consumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for message := range claim.Messages() {
		var event domain.DomainEvent
		if err := json.Unmarshal(message.Value, &event); err != nil {
			c.logger.Error("dropping malformed event envelope",
				zap.Int64("offset", message.Offset),
				zap.Error(err),
			)
			session.MarkMessage(message, "")
			continue
		}

		if event.ID == "" || !event.Type.Valid() {
			c.logger.Error("dropping invalid event envelope",
				zap.String("event_id", event.ID),
				zap.String("event_type", string(event.Type)),
				zap.Int64("offset", message.Offset),
			)
			session.MarkMessage(message, "")
			continue
		}

		if err := c.dispatcher.Submit(session.Context(), event); err != nil {
			if apperrors.IsNoHandler(err) {
				c.logger.Warn("no handler for consumed event",
					zap.String("event_id", event.ID),
					zap.String("event_type", string(event.Type)),
				)
			} else {
				c.logger.Error("event processing failed",
					zap.String("event_id", event.ID),
					zap.String("event_type", string(event.Type)),
					zap.Error(err),
				)
			}
		}

		session.MarkMessage(message, "")
	}

	return nil
}

// Setup implements sarama.ConsumerGroupHandler.
func (c *Consumer) Setup(sarama.ConsumerGroupSession) error {
	return nil
}

// Cleanup implements sarama.ConsumerGroupHandler.
func (c *Consumer) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

// Close closes the consumer.
func (c *Consumer) Close() error {
	return c.consumer.Close()
}
