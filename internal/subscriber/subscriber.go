package subscriber

import (
	"context"
	"errors"
	"time"

	"github.com/jeffleon2/draftea-checkout-service/config"
	"github.com/jeffleon2/draftea-checkout-service/internal/models"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

type Publisher interface {
	Publish(ctx context.Context, topic string, message interface{}) error
}

type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

type Handler func(ctx context.Context, topic string, value []byte) error

type KafkaConsumer struct {
	Readers      []MessageReader
	DLQPublisher Publisher
	RetryConfig  config.RetryConfig
	sleep        func(ctx context.Context, d time.Duration) error
}

func NewMultiTopicConsumer(
	brokers []string,
	topics []string,
	groupID string,
	dlq Publisher,
	retryConfig config.RetryConfig,
) *KafkaConsumer {
	readers := make([]MessageReader, len(topics))
	for i, topic := range topics {
		readers[i] = kafka.NewReader(kafka.ReaderConfig{
			Brokers:  brokers,
			GroupID:  groupID,
			Topic:    topic,
			MinBytes: 1,
			MaxBytes: 10e6,
		})
	}
	return NewConsumerWithReaders(readers, dlq, retryConfig)
}

func NewConsumerWithReaders(readers []MessageReader, dlq Publisher, retryConfig config.RetryConfig) *KafkaConsumer {
	if retryConfig.MaxAttempts == 0 {
		retryConfig.MaxAttempts = 5
	}
	return &KafkaConsumer{
		Readers:      readers,
		DLQPublisher: dlq,
		RetryConfig:  retryConfig,
		sleep:        sleepContext,
	}
}

// Listen starts one goroutine per reader. They stop when ctx is cancelled.
func (c *KafkaConsumer) Listen(ctx context.Context, handler Handler) {
	for _, reader := range c.Readers {
		go func(r MessageReader) {
			for {
				msg, err := r.ReadMessage(ctx)
				if err != nil {
					if ctx.Err() != nil || errors.Is(err, context.Canceled) {
						return
					}
					logrus.Errorf("kafka read error: %v", err)
					continue
				}
				c.ProcessMessage(ctx, msg, handler)
			}
		}(reader)
	}
}

// ProcessMessage runs handler with backoff and sends the message to the DLQ once attempts run out.
func (c *KafkaConsumer) ProcessMessage(ctx context.Context, msg kafka.Message, handler Handler) {
	for attempt := 0; attempt < c.RetryConfig.MaxAttempts; attempt++ {
		err := handler(ctx, msg.Topic, msg.Value)
		if err == nil {
			return
		}

		if attempt == c.RetryConfig.MaxAttempts-1 {
			break
		}
		backoff := c.RetryConfig.Backoff(attempt)
		logrus.WithField("topic", msg.Topic).
			Warnf("handler error, attempt %d/%d: %v. Retrying in %v", attempt+1, c.RetryConfig.MaxAttempts, err, backoff)
		if err := c.sleep(ctx, backoff); err != nil {
			return
		}
	}

	logrus.WithFields(logrus.Fields{"topic": msg.Topic, "key": string(msg.Key)}).
		Errorf("message failed after %d attempts", c.RetryConfig.MaxAttempts)
	if c.DLQPublisher == nil {
		return
	}
	dlqMessage := models.DLQMessage{
		OriginalTopic: msg.Topic,
		Key:           string(msg.Key),
		Value:         string(msg.Value),
		Timestamp:     time.Now().UTC(),
		Attempts:      c.RetryConfig.MaxAttempts,
	}
	if err := c.DLQPublisher.Publish(ctx, models.CheckoutDLQTopic, dlqMessage); err != nil {
		logrus.Errorf("failed to send message to DLQ: %v", err)
		return
	}
	logrus.WithFields(logrus.Fields{"topic": msg.Topic, "key": string(msg.Key)}).Info("message sent to DLQ")
}

func (c *KafkaConsumer) Close() error {
	var errs []error
	for _, r := range c.Readers {
		errs = append(errs, r.Close())
	}
	return errors.Join(errs...)
}

// WithSleeper replaces the wait between handler attempts.
func (c *KafkaConsumer) WithSleeper(fn func(ctx context.Context, d time.Duration) error) *KafkaConsumer {
	c.sleep = fn
	return c
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
