package publisher_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jeffleon2/draftea-checkout-service/config"
	"github.com/jeffleon2/draftea-checkout-service/internal/models"
	"github.com/jeffleon2/draftea-checkout-service/internal/publisher"
	kafka "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	failures int
	calls    int
	written  []kafka.Message
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.calls++
	if w.calls <= w.failures {
		return errors.New("leader not available")
	}
	w.written = append(w.written, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

var fastRetry = config.RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}

func TestPublish_WritesJSONWithPartitionKey(t *testing.T) {
	w := &fakeWriter{}
	p := publisher.NewPublisherWithWriters(map[string]publisher.MessageWriter{models.AnalyticsTopic: w}, fastRetry)

	evt := models.AnalyticsEvent{Name: models.AnalyticsPurchase, TransactionID: "pending-1", Amount: 10, Currency: models.CurrencyUSD}
	require.NoError(t, p.Publish(context.Background(), models.AnalyticsTopic, evt))

	require.Len(t, w.written, 1)
	assert.Equal(t, "pending-1", string(w.written[0].Key))
	var decoded models.AnalyticsEvent
	require.NoError(t, json.Unmarshal(w.written[0].Value, &decoded))
	assert.Equal(t, evt.TransactionID, decoded.TransactionID)
}

func TestPublish_RetriesUntilSuccess(t *testing.T) {
	w := &fakeWriter{failures: 2}
	p := publisher.NewPublisherWithWriters(map[string]publisher.MessageWriter{models.ErrorReportTopic: w}, fastRetry)

	err := p.Publish(context.Background(), models.ErrorReportTopic, models.ErrorReportEvent{Message: "boom"})

	require.NoError(t, err)
	assert.Equal(t, 3, w.calls)
	assert.Len(t, w.written, 1)
	assert.Empty(t, w.written[0].Key)
}

func TestPublish_GivesUpAfterMaxAttempts(t *testing.T) {
	w := &fakeWriter{failures: 10}
	p := publisher.NewPublisherWithWriters(map[string]publisher.MessageWriter{models.ErrorReportTopic: w}, fastRetry)

	err := p.Publish(context.Background(), models.ErrorReportTopic, models.ErrorReportEvent{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.Equal(t, 3, w.calls)
}

func TestPublish_StopsWhenContextCancelled(t *testing.T) {
	w := &fakeWriter{failures: 10}
	slow := config.RetryConfig{MaxAttempts: 5, BaseDelay: time.Hour, MaxDelay: time.Hour}
	p := publisher.NewPublisherWithWriters(map[string]publisher.MessageWriter{models.ErrorReportTopic: w}, slow)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.Publish(ctx, models.ErrorReportTopic, models.ErrorReportEvent{})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, w.calls)
}

func TestPublish_UnknownTopic(t *testing.T) {
	p := publisher.NewPublisherWithWriters(map[string]publisher.MessageWriter{}, fastRetry)

	assert.Error(t, p.Publish(context.Background(), "nope", struct{}{}))
}

func TestClose_ClosesEveryWriter(t *testing.T) {
	a, b := &fakeWriter{}, &fakeWriter{}
	p := publisher.NewPublisherWithWriters(map[string]publisher.MessageWriter{"a": a, "b": b}, fastRetry)

	require.NoError(t, p.Close())
	assert.True(t, a.closed)
	assert.True(t, b.closed)
}
