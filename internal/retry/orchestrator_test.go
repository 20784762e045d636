package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jeffleon2/draftea-checkout-service/internal/models"
	"github.com/jeffleon2/draftea-checkout-service/internal/retry"
	"github.com/jeffleon2/draftea-checkout-service/internal/retry/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type recordingSleeper struct {
	delays []time.Duration
}

func (s *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.delays = append(s.delays, d)
	return ctx.Err()
}

func retryable() models.ErrorRecord {
	return models.ErrorRecord{Type: models.ErrorNetwork, Retryable: true}
}

func TestRun_ValidationErrorAttemptsOnce(t *testing.T) {
	classifier := mocks.NewMockClassifier(t)
	sleeper := &recordingSleeper{}
	orchestrator := retry.New(classifier, retry.WithSleeper(sleeper.Sleep))

	failure := errors.New("invalid email")
	classifier.EXPECT().
		HandleError(failure, mock.Anything).
		Return(models.ErrorRecord{Type: models.ErrorValidation, Retryable: false}).
		Once()

	calls := 0
	err := orchestrator.Run(context.Background(), func(ctx context.Context) error {
		calls++
		return failure
	}, nil)

	assert.ErrorIs(t, err, failure)
	assert.Equal(t, 1, calls)
	assert.Empty(t, sleeper.delays)
	assert.Equal(t, 0, orchestrator.Attempt())
}

func TestRun_RetriesUntilBudgetSpent(t *testing.T) {
	classifier := mocks.NewMockClassifier(t)
	sleeper := &recordingSleeper{}
	orchestrator := retry.New(classifier,
		retry.WithSleeper(sleeper.Sleep),
		retry.WithPolicy(retry.Policy{MaxRetries: 3, BaseDelay: 2 * time.Second}),
	)

	failure := errors.New("network down")
	classifier.EXPECT().HandleError(failure, mock.Anything).Return(retryable()).Times(4)

	calls := 0
	err := orchestrator.Run(context.Background(), func(ctx context.Context) error {
		calls++
		return failure
	}, map[string]any{"op": "checkout"})

	assert.ErrorIs(t, err, failure)
	assert.Equal(t, 4, calls)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second, 6 * time.Second}, sleeper.delays)
	assert.Equal(t, 3, orchestrator.Attempt())
	assert.Equal(t, "Retry attempt 3 of 3", orchestrator.Status())

	orchestrator.Reset()
	assert.Equal(t, 0, orchestrator.Attempt())
}

func TestRun_UsesRetryAfter(t *testing.T) {
	classifier := mocks.NewMockClassifier(t)
	sleeper := &recordingSleeper{}
	orchestrator := retry.New(classifier, retry.WithSleeper(sleeper.Sleep))

	record := models.ErrorRecord{Type: models.ErrorRateLimit, Retryable: true, RetryAfter: models.IntPtr(7)}
	classifier.EXPECT().HandleError(mock.Anything, mock.Anything).Return(record).Once()

	calls := 0
	err := orchestrator.Run(context.Background(), func(ctx context.Context) error {
		calls++
		if calls == 1 {
			return errors.New("too many requests")
		}
		return nil
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, []time.Duration{7 * time.Second}, sleeper.delays)
	assert.Equal(t, 0, orchestrator.Attempt(), "success clears the counter")
}

func TestRun_StopsWhenContextCancelled(t *testing.T) {
	classifier := mocks.NewMockClassifier(t)
	orchestrator := retry.New(classifier, retry.WithPolicy(retry.Policy{MaxRetries: 3, BaseDelay: time.Hour}))

	classifier.EXPECT().HandleError(mock.Anything, mock.Anything).Return(retryable()).Once()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := orchestrator.Run(ctx, func(ctx context.Context) error {
		return errors.New("network down")
	}, nil)

	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_ObserverSeesEachRetry(t *testing.T) {
	classifier := mocks.NewMockClassifier(t)
	sleeper := &recordingSleeper{}
	var seen []int
	orchestrator := retry.New(classifier,
		retry.WithSleeper(sleeper.Sleep),
		retry.WithPolicy(retry.Policy{MaxRetries: 2}),
		retry.WithRetryObserver(func(attempt, maxRetries int, _ models.ErrorRecord) {
			assert.Equal(t, 2, maxRetries)
			seen = append(seen, attempt)
		}),
	)

	classifier.EXPECT().HandleError(mock.Anything, mock.Anything).Return(retryable()).Times(3)

	_ = orchestrator.Run(context.Background(), func(ctx context.Context) error {
		return errors.New("fetch failed")
	}, nil)

	assert.Equal(t, []int{1, 2}, seen)
}

func TestDo_ReturnsValue(t *testing.T) {
	classifier := mocks.NewMockClassifier(t)
	sleeper := &recordingSleeper{}
	orchestrator := retry.New(classifier, retry.WithSleeper(sleeper.Sleep))

	classifier.EXPECT().HandleError(mock.Anything, mock.Anything).Return(retryable()).Once()

	calls := 0
	url, err := retry.Do(context.Background(), orchestrator, func(ctx context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", errors.New("network blip")
		}
		return "https://checkout.example/abc", nil
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, "https://checkout.example/abc", url)
	assert.Equal(t, 2, calls)
}

func TestRun_LastRecordTracksTerminalFailure(t *testing.T) {
	classifier := mocks.NewMockClassifier(t)
	sleeper := &recordingSleeper{}
	orchestrator := retry.New(classifier,
		retry.WithSleeper(sleeper.Sleep),
		retry.WithPolicy(retry.Policy{MaxRetries: 1, BaseDelay: time.Second}),
	)

	_, ok := orchestrator.LastRecord()
	assert.False(t, ok)

	terminal := models.ErrorRecord{Type: models.ErrorServer, Message: "second", Retryable: true}
	classifier.EXPECT().HandleError(mock.Anything, mock.Anything).Return(retryable()).Once()
	classifier.EXPECT().HandleError(mock.Anything, mock.Anything).Return(terminal).Once()

	err := orchestrator.Run(context.Background(), func(ctx context.Context) error {
		return errors.New("upstream 503")
	}, nil)

	require.Error(t, err)
	record, ok := orchestrator.LastRecord()
	require.True(t, ok)
	assert.Equal(t, terminal, record)

	orchestrator.Reset()
	_, ok = orchestrator.LastRecord()
	assert.False(t, ok)
}
