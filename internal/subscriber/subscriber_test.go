package subscriber_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jeffleon2/draftea-checkout-service/config"
	"github.com/jeffleon2/draftea-checkout-service/internal/models"
	"github.com/jeffleon2/draftea-checkout-service/internal/subscriber"
	"github.com/jeffleon2/draftea-checkout-service/internal/subscriber/mocks"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type chanReader struct {
	msgs chan kafka.Message
}

func (r *chanReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case m := <-r.msgs:
		return m, nil
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	}
}

func (r *chanReader) Close() error { return nil }

var retryCfg = config.RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}

func noSleep(context.Context, time.Duration) error { return nil }

func relayMessage() kafka.Message {
	return kafka.Message{Topic: models.WebhookRelayTopic, Key: []byte("wh-1"), Value: []byte(`{"payload":"{}"}`)}
}

func TestProcessMessage_SucceedsAfterRetries(t *testing.T) {
	dlq := mocks.NewMockPublisher(t)
	c := subscriber.NewConsumerWithReaders(nil, dlq, retryCfg).WithSleeper(noSleep)

	calls := 0
	c.ProcessMessage(context.Background(), relayMessage(), func(ctx context.Context, topic string, value []byte) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})

	assert.Equal(t, 3, calls)
}

func TestProcessMessage_SendsExhaustedMessageToDLQ(t *testing.T) {
	dlq := mocks.NewMockPublisher(t)
	dlq.EXPECT().
		Publish(mock.Anything, models.CheckoutDLQTopic, mock.MatchedBy(func(m models.DLQMessage) bool {
			return m.OriginalTopic == models.WebhookRelayTopic && m.Key == "wh-1" && m.Attempts == 3
		})).
		Return(nil).
		Once()
	c := subscriber.NewConsumerWithReaders(nil, dlq, retryCfg).WithSleeper(noSleep)

	calls := 0
	c.ProcessMessage(context.Background(), relayMessage(), func(context.Context, string, []byte) error {
		calls++
		return errors.New("permanent")
	})

	assert.Equal(t, 3, calls)
}

func TestProcessMessage_StopsRetryingWhenContextEnds(t *testing.T) {
	dlq := mocks.NewMockPublisher(t)
	c := subscriber.NewConsumerWithReaders(nil, dlq, retryCfg).
		WithSleeper(func(context.Context, time.Duration) error { return context.Canceled })

	calls := 0
	c.ProcessMessage(context.Background(), relayMessage(), func(context.Context, string, []byte) error {
		calls++
		return errors.New("fail")
	})

	assert.Equal(t, 1, calls)
}

func TestListen_DeliversMessagesUntilCancelled(t *testing.T) {
	reader := &chanReader{msgs: make(chan kafka.Message, 2)}
	c := subscriber.NewConsumerWithReaders([]subscriber.MessageReader{reader}, nil, retryCfg)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var got []string
	done := make(chan struct{})
	c.Listen(ctx, func(_ context.Context, topic string, value []byte) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, string(value))
		if len(got) == 2 {
			close(done)
		}
		return nil
	})

	reader.msgs <- kafka.Message{Topic: "t", Value: []byte("a")}
	reader.msgs <- kafka.Message{Topic: "t", Value: []byte("b")}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("messages were not delivered")
	}
	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 2)
	assert.Equal(t, []string{"a", "b"}, got)
}
