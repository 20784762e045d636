package classifier

import (
	"context"

	"github.com/jeffleon2/draftea-checkout-service/internal/models"
)

// Publisher defines the interface for publishing events to Kafka topics.
type Publisher interface {
	Publish(ctx context.Context, topic string, message interface{}) error
}

// PublisherReporter ships error records to the error report topic.
type PublisherReporter struct {
	Publisher Publisher
	Topic     string
}

func NewPublisherReporter(p Publisher) *PublisherReporter {
	return &PublisherReporter{
		Publisher: p,
		Topic:     models.ErrorReportTopic,
	}
}

func (r *PublisherReporter) Report(ctx context.Context, record models.ErrorRecord) error {
	return r.Publisher.Publish(ctx, r.Topic, models.NewErrorReportEvent(record))
}
